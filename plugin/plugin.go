// Package plugin provides an extensible plugin system for Parking.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// OnSessionOpened is called when a session key is issued at the gate.
type OnSessionOpened interface {
	Plugin
	OnSessionOpened(ctx context.Context, session interface{}) error
}

// OnSessionClosed is called when a session is settled and its key consumed.
type OnSessionClosed interface {
	Plugin
	OnSessionClosed(ctx context.Context, session interface{}, cost interface{}, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Tariff lifecycle hooks
// ──────────────────────────────────────────────────

// OnTariffCreated is called when a new tariff is created.
type OnTariffCreated interface {
	Plugin
	OnTariffCreated(ctx context.Context, tariff interface{}) error
}

// OnTariffUpdated is called when a tariff is updated.
type OnTariffUpdated interface {
	Plugin
	OnTariffUpdated(ctx context.Context, oldTariff, newTariff interface{}) error
}

// OnTariffDeleted is called when a tariff is deleted.
type OnTariffDeleted interface {
	Plugin
	OnTariffDeleted(ctx context.Context, tariffID string) error
}

// ──────────────────────────────────────────────────
// Promotion hooks
// ──────────────────────────────────────────────────

// OnSellOutConsumed is called when a settlement consumes a sell-out slot.
type OnSellOutConsumed interface {
	Plugin
	OnSellOutConsumed(ctx context.Context, sellOut interface{}, remaining int64) error
}

// OnCouponRedeemed is called when a coupon code is redeemed at settlement.
type OnCouponRedeemed interface {
	Plugin
	OnCouponRedeemed(ctx context.Context, code string, cost interface{}) error
}

// ──────────────────────────────────────────────────
// Statistics hooks
// ──────────────────────────────────────────────────

// OnStatsFlushed is called when buffered gate records are flushed to the store.
type OnStatsFlushed interface {
	Plugin
	OnStatsFlushed(ctx context.Context, count int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Cost adjusters
// ──────────────────────────────────────────────────

// CostAdjuster lets a plugin adjust a settled cost before it is returned.
// Adjusters run after sell-out and coupon discounts. A returned error
// leaves the cost unchanged.
type CostAdjuster interface {
	Plugin
	AdjusterName() string
	AdjustCost(ctx context.Context, session interface{}, cost interface{}) (interface{}, error)
}
