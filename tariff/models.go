package tariff

import (
	"github.com/xraph/parking/id"
	"github.com/xraph/parking/types"
)

// Billing selects how a tariff turns elapsed time into a cost.
type Billing string

const (
	// BillingFlat charges Cost once per session regardless of duration.
	BillingFlat Billing = "flat"
	// BillingHourly charges Cost per started hour of the session.
	BillingHourly Billing = "hourly"
)

// Tariff is a named pricing rule applied to a session. The name is unique
// and non-empty; a tariff referenced by active session keys must not be
// renamed (sessions snapshot it at entry).
type Tariff struct {
	types.Entity
	ID       id.TariffID       `json:"id"`
	Name     string            `json:"name"`
	Cost     types.Money       `json:"cost"`
	Billing  Billing           `json:"billing"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Valid reports whether the tariff has a usable name, cost and billing mode.
func (t *Tariff) Valid() bool {
	if t.Name == "" || t.Cost.IsNegative() {
		return false
	}
	switch t.Billing {
	case BillingFlat, BillingHourly:
		return true
	default:
		return false
	}
}
