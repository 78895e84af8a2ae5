package coupon

import (
	"context"

	"github.com/xraph/parking/id"
)

// Store persists coupons. Redeem atomically increments the redemption
// count, failing once MaxRedemptions is reached, so a coupon with N
// redemptions left yields exactly N successes under concurrency.
type Store interface {
	Create(ctx context.Context, c *Coupon) error
	Get(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, couponID id.CouponID) (*Coupon, error)
	List(ctx context.Context, opts ListOpts) ([]*Coupon, error)
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, couponID id.CouponID) error
	Redeem(ctx context.Context, couponID id.CouponID) error
}

type ListOpts struct {
	Active bool
	Limit  int
	Offset int
}
