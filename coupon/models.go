package coupon

import (
	"time"

	"github.com/xraph/parking/id"
	"github.com/xraph/parking/types"
)

type Coupon struct {
	types.Entity
	ID             id.CouponID       `json:"id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Type           CouponType        `json:"type"`
	Amount         types.Money       `json:"amount,omitempty"`
	Percentage     int64             `json:"percentage,omitempty"`
	MaxRedemptions int               `json:"max_redemptions"`
	TimesRedeemed  int               `json:"times_redeemed"`
	ValidFrom      *time.Time        `json:"valid_from,omitempty"`
	ValidUntil     *time.Time        `json:"valid_until,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeAmount     CouponType = "amount"
)

// ValidAt reports whether the coupon can be redeemed at the instant.
func (c *Coupon) ValidAt(now time.Time) bool {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && !now.Before(*c.ValidUntil) {
		return false
	}
	return true
}

// Exhausted reports whether the redemption limit has been reached.
// A zero MaxRedemptions means unlimited.
func (c *Coupon) Exhausted() bool {
	return c.MaxRedemptions > 0 && c.TimesRedeemed >= c.MaxRedemptions
}

// Apply returns the cost after the coupon discount, never below zero.
func (c *Coupon) Apply(cost types.Money) types.Money {
	switch c.Type {
	case CouponTypePercentage:
		return cost.Subtract(cost.Percent(c.Percentage)).ClampNonNegative()
	case CouponTypeAmount:
		discount := types.Money{Amount: c.Amount.Amount, Currency: cost.Currency}
		return cost.Subtract(discount).ClampNonNegative()
	default:
		return cost
	}
}
