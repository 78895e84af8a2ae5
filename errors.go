package parking

import (
	"errors"
	"fmt"

	"github.com/xraph/parking/coupon"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("parking: not found")
	ErrAlreadyExists = errors.New("parking: already exists")
	ErrInvalidInput  = errors.New("parking: invalid input")

	// Tariff errors
	ErrTariffNotFound  = errors.New("parking: tariff not found")
	ErrUnknownTariff   = fmt.Errorf("parking: unknown tariff: %w", ErrInvalidInput)
	ErrDuplicateTariff = errors.New("parking: duplicate tariff name")

	// Session key errors
	ErrSessionNotFound = errors.New("parking: no active session for identifier")
	ErrKeyNotFound     = errors.New("parking: session key not found")
	ErrDuplicateToken  = errors.New("parking: duplicate session token")
	ErrDuplicateAutoID = errors.New("parking: auto id already has an active session")
	ErrMissingAutoID   = fmt.Errorf("parking: auto id is required: %w", ErrInvalidInput)
	ErrNoIdentifier    = fmt.Errorf("parking: token or auto id is required: %w", ErrInvalidInput)

	// Sell-out errors
	ErrSellOutNotFound  = errors.New("parking: sell-out not found")
	ErrSellOutExhausted = errors.New("parking: sell-out counter exhausted")
	ErrSellOutInactive  = errors.New("parking: sell-out outside validity window")

	// Coupon errors
	ErrCouponNotFound  = errors.New("parking: coupon not found")
	ErrCouponExpired   = coupon.ErrExpired
	ErrCouponExhausted = errors.New("parking: coupon redemptions exhausted")

	// Statistic errors
	ErrStatisticRange = errors.New("parking: invalid statistic date range")

	// Store errors
	ErrStoreNotReady     = errors.New("parking: store not ready")
	ErrStoreClosed       = errors.New("parking: store is closed")
	ErrTransactionFailed = errors.New("parking: transaction failed")
	ErrMigrationFailed   = errors.New("parking: migration failed")

	// Engine errors
	ErrEngineStopped = errors.New("parking: engine is stopped")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("parking: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap makes validation errors match ErrInvalidInput via errors.Is.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTariffNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrSellOutNotFound) ||
		errors.Is(err, ErrCouponNotFound)
}

// IsInvalidInput returns true if the error is a caller mistake that will
// fail identically on retry (missing identifier, unknown tariff, bad range).
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrStatisticRange)
}

// IsConflict returns true if the error is a uniqueness conflict on entry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrDuplicateToken) ||
		errors.Is(err, ErrDuplicateAutoID) ||
		errors.Is(err, ErrDuplicateTariff)
}

// IsExhausted returns true if the error reports a depleted promotional
// counter. The engine recovers these internally by falling back to the
// base cost; callers normally never observe them.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrSellOutExhausted) ||
		errors.Is(err, ErrCouponExhausted)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
