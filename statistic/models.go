package statistic

import (
	"time"

	"github.com/xraph/parking/id"
)

// Direction labels a gate crossing.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Record is a single gate crossing. Identifier is the session token
// for anonymous entries and the auto id for authorized ones.
type Record struct {
	ID         id.RecordID `json:"id"`
	Identifier string      `json:"identifier"`
	Direction  Direction   `json:"direction"`
	TariffName string      `json:"tariff_name,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
