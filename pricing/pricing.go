// Package pricing turns elapsed session time into money. Everything in
// here is pure: storage lookups, counter consumption and redemption
// bookkeeping happen in the engine before these functions are called.
package pricing

import (
	"math"
	"time"

	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/tariff"
	"github.com/xraph/parking/types"
)

// ApplyCoupon adjusts a cost. A non-nil error means the coupon did not
// apply and the cost stands.
type ApplyCoupon func(cost types.Money) (types.Money, error)

// Base returns the undiscounted cost of a session of the given length.
// Negative elapsed time (clock skew between gates) counts as zero.
// Hourly tariffs charge per started hour with a one hour minimum.
func Base(elapsed time.Duration, t *tariff.Tariff) types.Money {
	if elapsed < 0 {
		elapsed = 0
	}
	switch t.Billing {
	case tariff.BillingHourly:
		hours := int64(math.Ceil(elapsed.Hours()))
		if hours < 1 {
			hours = 1
		}
		return t.Cost.Multiply(hours)
	default:
		return t.Cost
	}
}

// Compute settles the cost of a session: base tariff cost, then the
// sell-out discount if one was consumed, then the coupon. A coupon
// result that errors, goes negative or exceeds the pre-coupon cost is
// discarded. The result is never negative.
func Compute(elapsed time.Duration, t *tariff.Tariff, promo *sellout.Discount, applyCoupon ApplyCoupon) types.Money {
	cost := Base(elapsed, t)
	if promo != nil {
		cost = promo.Apply(cost)
	}
	if applyCoupon != nil {
		if discounted, err := applyCoupon(cost); err == nil {
			if discounted.Currency == cost.Currency && !discounted.IsNegative() && discounted.Amount <= cost.Amount {
				cost = discounted
			}
		}
	}
	return cost.ClampNonNegative()
}
