package pricing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/parking/pricing"
	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/tariff"
	"github.com/xraph/parking/types"
)

func flatTariff(cents int64) *tariff.Tariff {
	return &tariff.Tariff{Name: "LOW", Cost: types.USD(cents), Billing: tariff.BillingFlat}
}

func hourlyTariff(cents int64) *tariff.Tariff {
	return &tariff.Tariff{Name: "HOURLY", Cost: types.USD(cents), Billing: tariff.BillingHourly}
}

func TestBase(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		tariff  *tariff.Tariff
		want    int64
	}{
		{"flat ignores duration", 5 * time.Hour, flatTariff(10), 10},
		{"flat zero duration", 0, flatTariff(10), 10},
		{"flat negative duration", -time.Hour, flatTariff(10), 10},
		{"hourly one hour minimum", 10 * time.Minute, hourlyTariff(100), 100},
		{"hourly exact hour", time.Hour, hourlyTariff(100), 100},
		{"hourly rounds up", 61 * time.Minute, hourlyTariff(100), 200},
		{"hourly three and a bit", 3*time.Hour + time.Second, hourlyTariff(100), 400},
		{"hourly negative duration", -time.Minute, hourlyTariff(100), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pricing.Base(tt.elapsed, tt.tariff); got.Amount != tt.want {
				t.Errorf("Base = %d, want %d", got.Amount, tt.want)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	t.Run("no adjustments", func(t *testing.T) {
		got := pricing.Compute(time.Hour, flatTariff(10), nil, nil)
		if got.Amount != 10 {
			t.Errorf("cost = %d, want 10", got.Amount)
		}
	})

	t.Run("free promotion waives cost", func(t *testing.T) {
		promo := &sellout.Discount{Type: sellout.DiscountFree}
		got := pricing.Compute(time.Hour, flatTariff(10), promo, nil)
		if got.Amount != 0 {
			t.Errorf("cost = %d, want 0", got.Amount)
		}
	})

	t.Run("percent promotion", func(t *testing.T) {
		promo := &sellout.Discount{Type: sellout.DiscountPercent, Percent: 50}
		got := pricing.Compute(time.Hour, flatTariff(1000), promo, nil)
		if got.Amount != 500 {
			t.Errorf("cost = %d, want 500", got.Amount)
		}
	})

	t.Run("coupon applies after promotion", func(t *testing.T) {
		promo := &sellout.Discount{Type: sellout.DiscountPercent, Percent: 50}
		halve := func(cost types.Money) (types.Money, error) {
			return cost.Percent(50), nil
		}
		got := pricing.Compute(time.Hour, flatTariff(1000), promo, halve)
		if got.Amount != 250 {
			t.Errorf("cost = %d, want 250", got.Amount)
		}
	})

	t.Run("failing coupon leaves cost unchanged", func(t *testing.T) {
		fail := func(cost types.Money) (types.Money, error) {
			return types.Zero(cost.Currency), errors.New("no such code")
		}
		got := pricing.Compute(time.Hour, flatTariff(1000), nil, fail)
		if got.Amount != 1000 {
			t.Errorf("cost = %d, want 1000", got.Amount)
		}
	})

	t.Run("coupon cannot raise the cost", func(t *testing.T) {
		inflate := func(cost types.Money) (types.Money, error) {
			return cost.Multiply(2), nil
		}
		got := pricing.Compute(time.Hour, flatTariff(1000), nil, inflate)
		if got.Amount != 1000 {
			t.Errorf("cost = %d, want 1000", got.Amount)
		}
	})

	t.Run("coupon cannot go negative", func(t *testing.T) {
		negative := func(cost types.Money) (types.Money, error) {
			return types.USD(-100), nil
		}
		got := pricing.Compute(time.Hour, flatTariff(1000), nil, negative)
		if got.Amount != 1000 {
			t.Errorf("cost = %d, want 1000", got.Amount)
		}
	})
}
