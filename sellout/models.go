package sellout

import (
	"time"

	"github.com/xraph/parking/id"
	"github.com/xraph/parking/types"
)

// SellOut is a time-boxed promotion with a finite counter. While the
// promotion is active and the counter is positive, each settled session
// on one of its Tariffs consumes one unit and gets the discount applied.
type SellOut struct {
	types.Entity
	ID       id.SellOutID      `json:"id"`
	Name     string            `json:"name"`
	Start    time.Time         `json:"start"`
	End      time.Time         `json:"end"`
	Counter  int64             `json:"counter"`
	Tariffs  []string          `json:"tariffs,omitempty"`
	Discount Discount          `json:"discount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ActiveAt reports whether the promotion window covers the instant.
// The window is half-open: Start <= now < End.
func (s *SellOut) ActiveAt(now time.Time) bool {
	return !now.Before(s.Start) && now.Before(s.End)
}

// Matches reports whether the promotion applies to the named tariff.
// An empty Tariffs set is a wildcard matching every tariff.
func (s *SellOut) Matches(tariffName string) bool {
	if len(s.Tariffs) == 0 {
		return true
	}
	for _, name := range s.Tariffs {
		if name == tariffName {
			return true
		}
	}
	return false
}

type DiscountType string

const (
	// DiscountFree waives the whole cost.
	DiscountFree DiscountType = "free"
	// DiscountPercent takes Percent off the cost.
	DiscountPercent DiscountType = "percent"
)

type Discount struct {
	Type    DiscountType `json:"type"`
	Percent int64        `json:"percent,omitempty"`
}

// Apply returns the cost after the discount, never below zero.
func (d Discount) Apply(cost types.Money) types.Money {
	switch d.Type {
	case DiscountFree:
		return types.Zero(cost.Currency)
	case DiscountPercent:
		return cost.Subtract(cost.Percent(d.Percent)).ClampNonNegative()
	default:
		return cost
	}
}
