package types_test

import (
	"encoding/json"
	"testing"

	"github.com/xraph/parking/types"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    types.Money
		amount   int64
		currency string
	}{
		{"USD", types.USD(1000), 1000, "usd"},
		{"EUR", types.EUR(250), 250, "eur"},
		{"GBP", types.GBP(99), 99, "gbp"},
		{"Zero", types.Zero("USD"), 0, "usd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("amount = %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("currency = %q, want %q", tt.money.Currency, tt.currency)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		got := types.USD(1000).Add(types.USD(500))
		if got.Amount != 1500 {
			t.Errorf("Add = %d, want 1500", got.Amount)
		}
	})

	t.Run("Subtract", func(t *testing.T) {
		got := types.USD(1000).Subtract(types.USD(300))
		if got.Amount != 700 {
			t.Errorf("Subtract = %d, want 700", got.Amount)
		}
	})

	t.Run("Multiply", func(t *testing.T) {
		got := types.USD(250).Multiply(4)
		if got.Amount != 1000 {
			t.Errorf("Multiply = %d, want 1000", got.Amount)
		}
	})

	t.Run("CurrencyMismatchPanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on currency mismatch")
			}
		}()
		types.USD(100).Add(types.EUR(100))
	})
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name string
		in   types.Money
		p    int64
		want int64
	}{
		{"half", types.USD(1000), 50, 500},
		{"full", types.USD(1000), 100, 1000},
		{"zero", types.USD(1000), 0, 0},
		{"rounds toward zero", types.USD(99), 50, 49},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Percent(tt.p); got.Amount != tt.want {
				t.Errorf("Percent(%d) = %d, want %d", tt.p, got.Amount, tt.want)
			}
		})
	}
}

func TestClampNonNegative(t *testing.T) {
	if got := types.USD(-50).ClampNonNegative(); got.Amount != 0 {
		t.Errorf("negative clamp = %d, want 0", got.Amount)
	}
	if got := types.USD(50).ClampNonNegative(); got.Amount != 50 {
		t.Errorf("positive clamp = %d, want 50", got.Amount)
	}
}

func TestComparisons(t *testing.T) {
	if !types.USD(0).IsZero() {
		t.Error("IsZero failed")
	}
	if !types.USD(1).IsPositive() {
		t.Error("IsPositive failed")
	}
	if !types.USD(-1).IsNegative() {
		t.Error("IsNegative failed")
	}
	if !types.USD(100).Equal(types.USD(100)) {
		t.Error("Equal failed")
	}
	if types.USD(100).Equal(types.EUR(100)) {
		t.Error("Equal should compare currency")
	}
	if !types.USD(1).LessThan(types.USD(2)) {
		t.Error("LessThan failed")
	}
	if !types.USD(2).GreaterThan(types.USD(1)) {
		t.Error("GreaterThan failed")
	}
	if got := types.USD(5).Min(types.USD(3)); got.Amount != 3 {
		t.Errorf("Min = %d, want 3", got.Amount)
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		money types.Money
		want  string
	}{
		{types.USD(1000), "$10.00"},
		{types.EUR(250), "€2.50"},
		{types.GBP(99), "£0.99"},
		{types.USD(-150), "$-1.50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.money.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSum(t *testing.T) {
	got := types.Sum(types.USD(100), types.USD(200), types.USD(300))
	if got.Amount != 600 {
		t.Errorf("Sum = %d, want 600", got.Amount)
	}

	empty := types.Sum()
	if !empty.IsZero() {
		t.Errorf("empty Sum = %d, want 0", empty.Amount)
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(types.USD(1000))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Amount != 1000 || decoded.Currency != "usd" || decoded.Display != "$10.00" {
		t.Errorf("unexpected JSON payload: %+v", decoded)
	}
}
