package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/parking"
	"github.com/xraph/parking/coupon"
	"github.com/xraph/parking/id"
	"github.com/xraph/parking/key"
	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/statistic"
	"github.com/xraph/parking/store/memory"
	"github.com/xraph/parking/tariff"
	"github.com/xraph/parking/types"
)

func newTariff(name string, cents int64) *tariff.Tariff {
	return &tariff.Tariff{
		Entity:  types.NewEntity(),
		ID:      id.NewTariffID(),
		Name:    name,
		Cost:    types.USD(cents),
		Billing: tariff.BillingFlat,
	}
}

func newKey(token, autoID string, t *tariff.Tariff) *key.Key {
	return &key.Key{
		ID:       id.NewKeyID(),
		Token:    token,
		AutoID:   autoID,
		Tariff:   *t,
		IssuedAt: time.Now().UTC(),
	}
}

func TestTariffs(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	low := newTariff("LOW", 10)
	if err := s.CreateTariff(ctx, low); err != nil {
		t.Fatalf("CreateTariff failed: %v", err)
	}

	t.Run("duplicate name rejected", func(t *testing.T) {
		err := s.CreateTariff(ctx, newTariff("LOW", 20))
		if !errors.Is(err, parking.ErrDuplicateTariff) {
			t.Errorf("expected ErrDuplicateTariff, got %v", err)
		}
	})

	t.Run("lookup by name", func(t *testing.T) {
		got, err := s.GetTariffByName(ctx, "LOW")
		if err != nil {
			t.Fatalf("GetTariffByName failed: %v", err)
		}
		if got.Cost.Amount != 10 {
			t.Errorf("cost = %d, want 10", got.Cost.Amount)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := s.GetTariffByName(ctx, "MISSING")
		if !errors.Is(err, parking.ErrTariffNotFound) {
			t.Errorf("expected ErrTariffNotFound, got %v", err)
		}
	})

	t.Run("rename frees the old name", func(t *testing.T) {
		mid := newTariff("MID", 15)
		if err := s.CreateTariff(ctx, mid); err != nil {
			t.Fatalf("CreateTariff failed: %v", err)
		}
		mid.Name = "MID2"
		if err := s.UpdateTariff(ctx, mid); err != nil {
			t.Fatalf("UpdateTariff failed: %v", err)
		}
		if _, err := s.GetTariffByName(ctx, "MID"); !errors.Is(err, parking.ErrTariffNotFound) {
			t.Errorf("old name still resolves: %v", err)
		}
		if _, err := s.GetTariffByName(ctx, "MID2"); err != nil {
			t.Errorf("new name does not resolve: %v", err)
		}
	})

	t.Run("caller mutations do not leak into the store", func(t *testing.T) {
		high := newTariff("HIGH", 50)
		if err := s.CreateTariff(ctx, high); err != nil {
			t.Fatalf("CreateTariff failed: %v", err)
		}
		high.Name = "SCRIBBLED"
		high.Cost = types.USD(999)

		got, err := s.GetTariffByName(ctx, "HIGH")
		if err != nil {
			t.Fatalf("GetTariffByName failed: %v", err)
		}
		if got.Cost.Amount != 50 {
			t.Errorf("cost = %d, want 50", got.Cost.Amount)
		}

		got.Cost = types.USD(1)
		again, err := s.GetTariff(ctx, high.ID)
		if err != nil {
			t.Fatalf("GetTariff failed: %v", err)
		}
		if again.Cost.Amount != 50 {
			t.Errorf("returned struct is aliased to the store: cost = %d", again.Cost.Amount)
		}
	})
}

func TestKeys(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	low := newTariff("LOW", 10)

	k := newKey("tok-1", "car-1", low)
	if err := s.AddKey(ctx, k); err != nil {
		t.Fatalf("AddKey failed: %v", err)
	}

	t.Run("duplicate token rejected", func(t *testing.T) {
		err := s.AddKey(ctx, newKey("tok-1", "", low))
		if !errors.Is(err, parking.ErrDuplicateToken) {
			t.Errorf("expected ErrDuplicateToken, got %v", err)
		}
	})

	t.Run("duplicate auto id rejected", func(t *testing.T) {
		err := s.AddKey(ctx, newKey("tok-2", "car-1", low))
		if !errors.Is(err, parking.ErrDuplicateAutoID) {
			t.Errorf("expected ErrDuplicateAutoID, got %v", err)
		}
	})

	t.Run("two anonymous keys coexist", func(t *testing.T) {
		if err := s.AddKey(ctx, newKey("tok-3", "", low)); err != nil {
			t.Fatalf("first anonymous AddKey failed: %v", err)
		}
		if err := s.AddKey(ctx, newKey("tok-4", "", low)); err != nil {
			t.Fatalf("second anonymous AddKey failed: %v", err)
		}
	})

	t.Run("lookup by token and auto id", func(t *testing.T) {
		byToken, err := s.GetKeyByToken(ctx, "tok-1")
		if err != nil {
			t.Fatalf("GetKeyByToken failed: %v", err)
		}
		byAuto, err := s.GetKeyByAutoID(ctx, "car-1")
		if err != nil {
			t.Fatalf("GetKeyByAutoID failed: %v", err)
		}
		if byToken.ID.String() != byAuto.ID.String() {
			t.Error("token and auto id resolved different keys")
		}
	})

	t.Run("delete reports removal once", func(t *testing.T) {
		removed, err := s.DeleteKey(ctx, k.ID)
		if err != nil || !removed {
			t.Fatalf("first delete: removed=%v err=%v", removed, err)
		}
		removed, err = s.DeleteKey(ctx, k.ID)
		if err != nil || removed {
			t.Fatalf("second delete: removed=%v err=%v", removed, err)
		}
		if _, err := s.GetKeyByAutoID(ctx, "car-1"); !errors.Is(err, parking.ErrKeyNotFound) {
			t.Errorf("auto id index not cleaned: %v", err)
		}
	})
}

func TestConcurrentKeyDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	low := newTariff("LOW", 10)

	k := newKey("tok-race", "", low)
	if err := s.AddKey(ctx, k); err != nil {
		t.Fatalf("AddKey failed: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	removals := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			removed, err := s.DeleteKey(ctx, k.ID)
			if err != nil {
				t.Errorf("DeleteKey failed: %v", err)
				return
			}
			removals <- removed
		}()
	}
	wg.Wait()
	close(removals)

	var winners int
	for removed := range removals {
		if removed {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly one winner, got %d", winners)
	}
}

func TestSellOutConsume(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	now := time.Now().UTC()

	so := &sellout.SellOut{
		Entity:   types.NewEntity(),
		ID:       id.NewSellOutID(),
		Name:     "grand opening",
		Start:    now.Add(-time.Hour),
		End:      now.Add(time.Hour),
		Counter:  1,
		Discount: sellout.Discount{Type: sellout.DiscountFree},
	}
	if err := s.CreateSellOut(ctx, so); err != nil {
		t.Fatalf("CreateSellOut failed: %v", err)
	}

	t.Run("concurrent consume honors the counter", func(t *testing.T) {
		const workers = 16
		var wg sync.WaitGroup
		outcomes := make(chan error, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				outcomes <- s.ConsumeSellOut(ctx, so.ID)
			}()
		}
		wg.Wait()
		close(outcomes)

		var ok, exhausted int
		for err := range outcomes {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, parking.ErrSellOutExhausted):
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		if ok != 1 || exhausted != workers-1 {
			t.Errorf("got %d consumptions and %d exhausted, want 1 and %d", ok, exhausted, workers-1)
		}

		got, err := s.GetSellOut(ctx, so.ID)
		if err != nil {
			t.Fatalf("GetSellOut failed: %v", err)
		}
		if got.Counter != 0 {
			t.Errorf("counter = %d, want 0", got.Counter)
		}
	})
}

func TestFindActiveSellOut(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	now := time.Now().UTC()

	expired := &sellout.SellOut{
		Entity: types.NewEntity(), ID: id.NewSellOutID(), Name: "expired",
		Start: now.Add(-2 * time.Hour), End: now.Add(-time.Hour), Counter: 5,
	}
	drained := &sellout.SellOut{
		Entity: types.NewEntity(), ID: id.NewSellOutID(), Name: "drained",
		Start: now.Add(-time.Hour), End: now.Add(time.Hour), Counter: 0,
	}
	scoped := &sellout.SellOut{
		Entity: types.NewEntity(), ID: id.NewSellOutID(), Name: "scoped",
		Start: now.Add(-time.Hour), End: now.Add(time.Hour), Counter: 5, Tariffs: []string{"HIGH", "PREMIUM"},
	}
	for _, so := range []*sellout.SellOut{expired, drained, scoped} {
		if err := s.CreateSellOut(ctx, so); err != nil {
			t.Fatalf("CreateSellOut failed: %v", err)
		}
	}

	if _, err := s.FindActiveSellOut(ctx, "LOW", now); !errors.Is(err, parking.ErrSellOutNotFound) {
		t.Errorf("expected ErrSellOutNotFound for LOW, got %v", err)
	}

	for _, name := range []string{"HIGH", "PREMIUM"} {
		got, err := s.FindActiveSellOut(ctx, name, now)
		if err != nil {
			t.Fatalf("FindActiveSellOut(%s) failed: %v", name, err)
		}
		if got.Name != "scoped" {
			t.Errorf("found %q for %s, want scoped", got.Name, name)
		}
	}
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	records := []*statistic.Record{
		{ID: id.NewRecordID(), Identifier: "car-1", Direction: statistic.DirectionIncoming, Timestamp: day.Add(8 * time.Hour)},
		{ID: id.NewRecordID(), Identifier: "car-1", Direction: statistic.DirectionOutgoing, Timestamp: day.Add(10 * time.Hour)},
		{ID: id.NewRecordID(), Identifier: "car-2", Direction: statistic.DirectionIncoming, Timestamp: day.AddDate(0, 0, 1)},
	}
	if err := s.AppendStatistics(ctx, records); err != nil {
		t.Fatalf("AppendStatistics failed: %v", err)
	}

	t.Run("by date excludes the next day", func(t *testing.T) {
		got, err := s.QueryStatisticsByDate(ctx, day, statistic.QueryOpts{})
		if err != nil {
			t.Fatalf("QueryStatisticsByDate failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d records, want 2", len(got))
		}
	})

	t.Run("direction filter", func(t *testing.T) {
		got, err := s.QueryStatisticsByDate(ctx, day, statistic.QueryOpts{Direction: statistic.DirectionOutgoing})
		if err != nil {
			t.Fatalf("QueryStatisticsByDate failed: %v", err)
		}
		if len(got) != 1 || got[0].Identifier != "car-1" {
			t.Fatalf("unexpected records: %+v", got)
		}
	})

	t.Run("range is half open", func(t *testing.T) {
		got, err := s.QueryStatisticsRange(ctx, day, day.AddDate(0, 0, 1), statistic.QueryOpts{})
		if err != nil {
			t.Fatalf("QueryStatisticsRange failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d records, want 2", len(got))
		}
	})
}

func TestCoupons(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := &coupon.Coupon{
		Entity:     types.NewEntity(),
		ID:         id.NewCouponID(),
		Code:       "SPRING",
		Name:       "Spring promo",
		Type:       coupon.CouponTypePercentage,
		Percentage: 25,
	}
	if err := s.CreateCoupon(ctx, c); err != nil {
		t.Fatalf("CreateCoupon failed: %v", err)
	}

	t.Run("code change frees the old code", func(t *testing.T) {
		c.Code = "SUMMER"
		if err := s.UpdateCoupon(ctx, c); err != nil {
			t.Fatalf("UpdateCoupon failed: %v", err)
		}
		if _, err := s.GetCoupon(ctx, "SPRING"); !errors.Is(err, parking.ErrCouponNotFound) {
			t.Errorf("old code still resolves: %v", err)
		}
		if _, err := s.GetCoupon(ctx, "SUMMER"); err != nil {
			t.Errorf("new code does not resolve: %v", err)
		}
	})

	t.Run("code change onto a taken code rejected", func(t *testing.T) {
		other := &coupon.Coupon{
			Entity: types.NewEntity(),
			ID:     id.NewCouponID(),
			Code:   "WINTER",
			Type:   coupon.CouponTypePercentage,
		}
		if err := s.CreateCoupon(ctx, other); err != nil {
			t.Fatalf("CreateCoupon failed: %v", err)
		}
		other.Code = "SUMMER"
		if err := s.UpdateCoupon(ctx, other); !errors.Is(err, parking.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestListOffsets(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	for _, name := range []string{"A", "B", "C"} {
		if err := s.CreateTariff(ctx, newTariff(name, 10)); err != nil {
			t.Fatalf("CreateTariff failed: %v", err)
		}
	}

	tests := []struct {
		name string
		opts tariff.ListOpts
		want int
	}{
		{"negative offset behaves like zero", tariff.ListOpts{Offset: -3}, 3},
		{"offset past the end", tariff.ListOpts{Offset: 10}, 0},
		{"limit caps the page", tariff.ListOpts{Limit: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTariffs(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListTariffs failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d tariffs, want %d", len(got), tt.want)
			}
		})
	}
}
