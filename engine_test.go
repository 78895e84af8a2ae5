package parking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	parking "github.com/xraph/parking"
	"github.com/xraph/parking/coupon"
	"github.com/xraph/parking/key"
	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/statistic"
	"github.com/xraph/parking/store/memory"
	"github.com/xraph/parking/tariff"
	"github.com/xraph/parking/types"
)

func startEngine(t *testing.T, opts ...parking.Option) (*parking.Engine, *memory.Store) {
	t.Helper()

	st := memory.New()
	eng := parking.New(st, opts...)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	return eng, st
}

func mustCreateTariff(t *testing.T, eng *parking.Engine, name string, cost int64, billing tariff.Billing) {
	t.Helper()

	err := eng.CreateTariff(context.Background(), &tariff.Tariff{
		Name:    name,
		Cost:    types.USD(cost),
		Billing: billing,
	})
	if err != nil {
		t.Fatalf("create tariff %s: %v", name, err)
	}
}

func TestEnterAndGetCost(t *testing.T) {
	ctx := context.Background()
	eng, _ := startEngine(t)
	defer eng.Stop()

	mustCreateTariff(t, eng, "LOW", 10, tariff.BillingFlat)

	session, err := eng.EnterAnonymous(ctx, "LOW")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a non-empty token")
	}
	if session.TariffName != "LOW" {
		t.Fatalf("expected tariff LOW, got %s", session.TariffName)
	}

	cost, err := eng.GetCost(ctx, parking.CostRequest{Token: session.Token})
	if err != nil {
		t.Fatalf("get cost: %v", err)
	}
	if cost.Amount != 10 {
		t.Fatalf("expected cost 10, got %d", cost.Amount)
	}
}

func TestGetCostConsumesSession(t *testing.T) {
	ctx := context.Background()
	eng, _ := startEngine(t)
	defer eng.Stop()

	mustCreateTariff(t, eng, "LOW", 10, tariff.BillingFlat)

	session, err := eng.EnterAnonymous(ctx, "LOW")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	if _, err := eng.GetCost(ctx, parking.CostRequest{Token: session.Token}); err != nil {
		t.Fatalf("first get cost: %v", err)
	}

	_, err = eng.GetCost(ctx, parking.CostRequest{Token: session.Token})
	if !errors.Is(err, parking.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second settlement, got %v", err)
	}
}

func TestGetCostRequiresIdentifier(t *testing.T) {
	ctx := context.Background()
	eng, _ := startEngine(t)
	defer eng.Stop()

	_, err := eng.GetCost(ctx, parking.CostRequest{})
	if !errors.Is(err, parking.ErrNoIdentifier) {
		t.Fatalf("expected ErrNoIdentifier, got %v", err)
	}
	if !parking.IsInvalidInput(err) {
		t.Fatalf("expected an invalid-input error, got %v", err)
	}
}

func TestEnterByAutoID(t *testing.T) {
	ctx := context.Background()
	eng, _ := startEngine(t)
	defer eng.Stop()

	mustCreateTariff(t, eng, "LOW", 10, tariff.BillingFlat)

	t.Run("RequiresAutoID", func(t *testing.T) {
		_, err := eng.EnterByAutoID(ctx, "", "LOW")
		if !errors.Is(err, parking.ErrMissingAutoID) {
			t.Fatalf("expected ErrMissingAutoID, got %v", err)
		}
		if !parking.IsInvalidInput(err) {
			t.Fatalf("expected an invalid-input error, got %v", err)
		}
	})

	t.Run("SettlesByAutoID", func(t *testing.T) {
		if _, err := eng.EnterByAutoID(ctx, "B-XY 123", "LOW"); err != nil {
			t.Fatalf("enter: %v", err)
		}

		cost, err := eng.GetCost(ctx, parking.CostRequest{AutoID: "B-XY 123"})
		if err != nil {
			t.Fatalf("get cost: %v", err)
		}
		if cost.Amount != 10 {
			t.Fatalf("expected cost 10, got %d", cost.Amount)
		}

		_, err = eng.GetCost(ctx, parking.CostRequest{AutoID: "B-XY 123"})
		if !errors.Is(err, parking.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound after settlement, got %v", err)
		}
	})

	t.Run("RejectsDuplicateAutoID", func(t *testing.T) {
		if _, err := eng.EnterByAutoID(ctx, "DUP-1", "LOW"); err != nil {
			t.Fatalf("enter: %v", err)
		}
		_, err := eng.EnterByAutoID(ctx, "DUP-1", "LOW")
		if !parking.IsConflict(err) {
			t.Fatalf("expected a conflict error, got %v", err)
		}
	})
}

func TestEnterUnknownTariff(t *testing.T) {
	ctx := context.Background()
	eng, st := startEngine(t)
	defer eng.Stop()

	_, err := eng.EnterAnonymous(ctx, "no-such-tariff")
	if !errors.Is(err, parking.ErrUnknownTariff) {
		t.Fatalf("expected ErrUnknownTariff, got %v", err)
	}
	if !parking.IsInvalidInput(err) {
		t.Fatalf("expected an invalid-input error, got %v", err)
	}

	keys, err := st.ListKeys(ctx, key.ListOpts{})
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no session keys after a failed entry, got %d", len(keys))
	}
}

func TestDefaultTariff(t *testing.T) {
	ctx := context.Background()

	t.Run("FallsBackWhenConfigured", func(t *testing.T) {
		eng, _ := startEngine(t, parking.WithDefaultTariff("standard"))
		defer eng.Stop()

		mustCreateTariff(t, eng, "standard", 25, tariff.BillingFlat)

		session, err := eng.EnterAnonymous(ctx, "")
		if err != nil {
			t.Fatalf("enter with empty tariff: %v", err)
		}
		if session.TariffName != "standard" {
			t.Fatalf("expected default tariff, got %s", session.TariffName)
		}
	})

	t.Run("FailsWithoutDefault", func(t *testing.T) {
		eng, _ := startEngine(t)
		defer eng.Stop()

		_, err := eng.EnterAnonymous(ctx, "")
		if !parking.IsInvalidInput(err) {
			t.Fatalf("expected an invalid-input error, got %v", err)
		}
	})
}

func TestHourlyBilling(t *testing.T) {
	ctx := context.Background()
	eng, _ := startEngine(t)
	defer eng.Stop()

	mustCreateTariff(t, eng, "hourly", 300, tariff.BillingHourly)

	session, err := eng.EnterAnonymous(ctx, "hourly")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	// Immediate exit still pays for the first started hour.
	cost, err := eng.GetCost(ctx, parking.CostRequest{Token: session.Token})
	if err != nil {
		t.Fatalf("get cost: %v", err)
	}
	if cost.Amount != 300 {
		t.Fatalf("expected one started hour (300), got %d", cost.Amount)
	}
}

func TestConcurrentSellOutSettlement(t *testing.T) {
	ctx := context.Background()
	eng, _ := startEngine(t)
	defer eng.Stop()

	mustCreateTariff(t, eng, "evening", 100, tariff.BillingFlat)

	now := time.Now().UTC()
	so := &sellout.SellOut{
		Name:    "last-slot",
		Start:   now.Add(-time.Hour),
		End:     now.Add(time.Hour),
		Counter: 1,
		Discount: sellout.Discount{
			Type: sellout.DiscountFree,
		},
	}
	if err := eng.CreateSellOut(ctx, so); err != nil {
		t.Fatalf("create sell-out: %v", err)
	}

	first, err := eng.EnterAnonymous(ctx, "evening")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	second, err := eng.EnterAnonymous(ctx, "evening")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	costs := make([]types.Money, 2)
	var wg sync.WaitGroup
	for i, token := range []string{first.Token, second.Token} {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			cost, err := eng.GetCost(ctx, parking.CostRequest{Token: token})
			if err != nil {
				t.Errorf("get cost: %v", err)
				return
			}
			costs[i] = cost
		}(i, token)
	}
	wg.Wait()

	free, base := 0, 0
	for _, c := range costs {
		switch c.Amount {
		case 0:
			free++
		case 100:
			base++
		default:
			t.Fatalf("unexpected cost %d", c.Amount)
		}
	}
	if free != 1 || base != 1 {
		t.Fatalf("expected exactly one free and one base settlement, got %d free / %d base", free, base)
	}

	got, err := eng.GetSellOut(ctx, so.ID)
	if err != nil {
		t.Fatalf("get sell-out: %v", err)
	}
	if got.Counter != 0 {
		t.Fatalf("expected counter 0, got %d", got.Counter)
	}
}

func TestSellOutScope(t *testing.T) {
	ctx := context.Background()
	eng, _ := startEngine(t)
	defer eng.Stop()

	mustCreateTariff(t, eng, "LOW", 10, tariff.BillingFlat)
	mustCreateTariff(t, eng, "HIGH", 50, tariff.BillingFlat)

	now := time.Now().UTC()
	so := &sellout.SellOut{
		Name:     "high-only",
		Start:    now.Add(-time.Hour),
		End:      now.Add(time.Hour),
		Counter:  10,
		Tariffs:  []string{"HIGH"},
		Discount: sellout.Discount{Type: sellout.DiscountPercent, Percent: 50},
	}
	if err := eng.CreateSellOut(ctx, so); err != nil {
		t.Fatalf("create sell-out: %v", err)
	}

	session, err := eng.EnterAnonymous(ctx, "LOW")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	cost, err := eng.GetCost(ctx, parking.CostRequest{Token: session.Token})
	if err != nil {
		t.Fatalf("get cost: %v", err)
	}
	if cost.Amount != 10 {
		t.Fatalf("sell-out scoped to another tariff must not apply, got %d", cost.Amount)
	}

	session, err = eng.EnterAnonymous(ctx, "HIGH")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	cost, err = eng.GetCost(ctx, parking.CostRequest{Token: session.Token})
	if err != nil {
		t.Fatalf("get cost: %v", err)
	}
	if cost.Amount != 25 {
		t.Fatalf("expected 50%% off 50, got %d", cost.Amount)
	}
}

func TestCouponDiscount(t *testing.T) {
	ctx := context.Background()
	eng, _ := startEngine(t)
	defer eng.Stop()

	mustCreateTariff(t, eng, "premium", 1000, tariff.BillingFlat)

	err := eng.CreateCoupon(ctx, &coupon.Coupon{
		Code:       "HALF",
		Name:       "Half off",
		Type:       coupon.CouponTypePercentage,
		Percentage: 50,
	})
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	t.Run("AppliesDiscount", func(t *testing.T) {
		session, err := eng.EnterAnonymous(ctx, "premium")
		if err != nil {
			t.Fatalf("enter: %v", err)
		}

		cost, err := eng.GetCost(ctx, parking.CostRequest{
			Token:      session.Token,
			UserEmail:  "driver@example.com",
			CouponCode: "HALF",
		})
		if err != nil {
			t.Fatalf("get cost: %v", err)
		}
		if cost.Amount != 500 {
			t.Fatalf("expected 500 after coupon, got %d", cost.Amount)
		}

		c, err := eng.GetCoupon(ctx, "HALF")
		if err != nil {
			t.Fatalf("get coupon: %v", err)
		}
		if c.TimesRedeemed != 1 {
			t.Fatalf("expected 1 redemption, got %d", c.TimesRedeemed)
		}
	})

	t.Run("UnknownCodeLeavesCost", func(t *testing.T) {
		session, err := eng.EnterAnonymous(ctx, "premium")
		if err != nil {
			t.Fatalf("enter: %v", err)
		}

		cost, err := eng.GetCost(ctx, parking.CostRequest{
			Token:      session.Token,
			CouponCode: "NO-SUCH-CODE",
		})
		if err != nil {
			t.Fatalf("get cost: %v", err)
		}
		if cost.Amount != 1000 {
			t.Fatalf("expected base cost 1000, got %d", cost.Amount)
		}
	})
}

func TestStatisticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng, _ := startEngine(t, parking.WithStatsConfig(100, time.Hour))

	mustCreateTariff(t, eng, "LOW", 10, tariff.BillingFlat)

	session, err := eng.EnterAnonymous(ctx, "LOW")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if _, err := eng.GetCost(ctx, parking.CostRequest{Token: session.Token}); err != nil {
		t.Fatalf("get cost: %v", err)
	}

	// Stop drains the buffer and performs the final flush; the memory
	// store stays queryable afterwards.
	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	records, err := eng.StatisticsByDate(ctx, time.Now().UTC(), statistic.QueryOpts{})
	if err != nil {
		t.Fatalf("query by date: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected enter and leave records, got %d", len(records))
	}

	incoming, err := eng.StatisticsByDate(ctx, time.Now().UTC(), statistic.QueryOpts{
		Direction: statistic.DirectionIncoming,
	})
	if err != nil {
		t.Fatalf("query incoming: %v", err)
	}
	if len(incoming) != 1 {
		t.Fatalf("expected one incoming record, got %d", len(incoming))
	}
	if incoming[0].Identifier != session.Token {
		t.Fatalf("expected identifier %s, got %s", session.Token, incoming[0].Identifier)
	}
}

func TestSessionClosedPluginEvent(t *testing.T) {
	ctx := context.Background()

	recorder := &closedRecorder{}
	eng, _ := startEngine(t, parking.WithPlugin(recorder))
	defer eng.Stop()

	mustCreateTariff(t, eng, "LOW", 10, tariff.BillingFlat)

	session, err := eng.EnterAnonymous(ctx, "LOW")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if _, err := eng.GetCost(ctx, parking.CostRequest{Token: session.Token}); err != nil {
		t.Fatalf("get cost: %v", err)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if recorder.opened != 1 || recorder.closed != 1 {
		t.Fatalf("expected 1 opened / 1 closed, got %d / %d", recorder.opened, recorder.closed)
	}
	if recorder.lastCost.Amount != 10 {
		t.Fatalf("expected settled cost 10 in the event, got %d", recorder.lastCost.Amount)
	}
}

type closedRecorder struct {
	mu       sync.Mutex
	opened   int
	closed   int
	lastCost types.Money
}

func (r *closedRecorder) Name() string { return "closed-recorder" }

func (r *closedRecorder) OnSessionOpened(_ context.Context, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened++
	return nil
}

func (r *closedRecorder) OnSessionClosed(_ context.Context, _ interface{}, cost interface{}, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	if money, ok := cost.(types.Money); ok {
		r.lastCost = money
	}
	return nil
}
