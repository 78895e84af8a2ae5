package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/parking/types"
)

// ErrExpired is returned when a coupon is redeemed outside its validity
// window. The root package re-exports it as ErrCouponExpired.
var ErrExpired = errors.New("parking: coupon expired")

// DiscountFunc resolves a coupon code to a discounted cost during
// settlement. Implementations return the new cost; a nil error with an
// unchanged cost means the code was recognized but granted nothing.
type DiscountFunc func(ctx context.Context, code, userEmail string, cost types.Money) (types.Money, error)

// Discounter is the store-backed DiscountFunc. It validates the coupon
// window, atomically records the redemption and applies the discount.
type Discounter struct {
	store Store
	now   func() time.Time
}

// NewDiscounter wraps a coupon store as a Discounter.
func NewDiscounter(store Store) *Discounter {
	return &Discounter{store: store, now: time.Now}
}

// Redeem implements DiscountFunc. The redemption is recorded before the
// discount is computed; if Redeem on the store fails the cost is
// returned unchanged along with the error.
func (d *Discounter) Redeem(ctx context.Context, code, userEmail string, cost types.Money) (types.Money, error) {
	c, err := d.store.Get(ctx, code)
	if err != nil {
		return cost, err
	}
	if !c.ValidAt(d.now().UTC()) {
		return cost, ErrExpired
	}
	if err := d.store.Redeem(ctx, c.ID); err != nil {
		return cost, err
	}
	return c.Apply(cost), nil
}
