package sellout_test

import (
	"testing"
	"time"

	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/types"
)

func TestActiveAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	s := &sellout.SellOut{Start: start, End: end}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before window", start.Add(-time.Second), false},
		{"at start", start, true},
		{"inside window", start.Add(72 * time.Hour), true},
		{"at end", end, false},
		{"after window", end.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ActiveAt(tt.at); got != tt.want {
				t.Errorf("ActiveAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	any := &sellout.SellOut{}
	if !any.Matches("LOW") || !any.Matches("HIGH") {
		t.Error("an empty tariff set should match every tariff")
	}

	scoped := &sellout.SellOut{Tariffs: []string{"LOW", "MEDIUM"}}
	if !scoped.Matches("LOW") || !scoped.Matches("MEDIUM") {
		t.Error("expected match for listed tariffs")
	}
	if scoped.Matches("HIGH") {
		t.Error("expected no match for HIGH")
	}
}

func TestDiscountApply(t *testing.T) {
	tests := []struct {
		name     string
		discount sellout.Discount
		cost     types.Money
		want     int64
	}{
		{"free waives everything", sellout.Discount{Type: sellout.DiscountFree}, types.USD(1000), 0},
		{"percent half", sellout.Discount{Type: sellout.DiscountPercent, Percent: 50}, types.USD(1000), 500},
		{"percent over hundred clamps", sellout.Discount{Type: sellout.DiscountPercent, Percent: 150}, types.USD(1000), 0},
		{"unknown type leaves cost alone", sellout.Discount{Type: "mystery"}, types.USD(1000), 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.discount.Apply(tt.cost); got.Amount != tt.want {
				t.Errorf("Apply = %d, want %d", got.Amount, tt.want)
			}
		})
	}
}
