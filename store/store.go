package store

import (
	"context"
	"time"

	"github.com/xraph/parking/coupon"
	"github.com/xraph/parking/id"
	"github.com/xraph/parking/key"
	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/statistic"
	"github.com/xraph/parking/tariff"
)

// Store is the unified storage interface for all Parking entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Tariff methods
	CreateTariff(ctx context.Context, t *tariff.Tariff) error
	GetTariff(ctx context.Context, tariffID id.TariffID) (*tariff.Tariff, error)
	GetTariffByName(ctx context.Context, name string) (*tariff.Tariff, error)
	ListTariffs(ctx context.Context, opts tariff.ListOpts) ([]*tariff.Tariff, error)
	UpdateTariff(ctx context.Context, t *tariff.Tariff) error
	DeleteTariff(ctx context.Context, tariffID id.TariffID) error

	// Session key methods
	AddKey(ctx context.Context, k *key.Key) error
	GetKey(ctx context.Context, keyID id.KeyID) (*key.Key, error)
	GetKeyByToken(ctx context.Context, token string) (*key.Key, error)
	GetKeyByAutoID(ctx context.Context, autoID string) (*key.Key, error)
	ListKeys(ctx context.Context, opts key.ListOpts) ([]*key.Key, error)
	DeleteKey(ctx context.Context, keyID id.KeyID) (bool, error)

	// Sell-out methods
	CreateSellOut(ctx context.Context, s *sellout.SellOut) error
	GetSellOut(ctx context.Context, sellOutID id.SellOutID) (*sellout.SellOut, error)
	FindActiveSellOut(ctx context.Context, tariffName string, at time.Time) (*sellout.SellOut, error)
	ListSellOuts(ctx context.Context, opts sellout.ListOpts) ([]*sellout.SellOut, error)
	UpdateSellOut(ctx context.Context, s *sellout.SellOut) error
	DeleteSellOut(ctx context.Context, sellOutID id.SellOutID) error
	ConsumeSellOut(ctx context.Context, sellOutID id.SellOutID) error

	// Statistic methods
	AppendStatistics(ctx context.Context, records []*statistic.Record) error
	QueryStatisticsRange(ctx context.Context, from, to time.Time, opts statistic.QueryOpts) ([]*statistic.Record, error)
	QueryStatisticsByDate(ctx context.Context, day time.Time, opts statistic.QueryOpts) ([]*statistic.Record, error)

	// Coupon methods
	CreateCoupon(ctx context.Context, c *coupon.Coupon) error
	GetCoupon(ctx context.Context, code string) (*coupon.Coupon, error)
	GetCouponByID(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error)
	ListCoupons(ctx context.Context, opts coupon.ListOpts) ([]*coupon.Coupon, error)
	UpdateCoupon(ctx context.Context, c *coupon.Coupon) error
	DeleteCoupon(ctx context.Context, couponID id.CouponID) error
	RedeemCoupon(ctx context.Context, couponID id.CouponID) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
