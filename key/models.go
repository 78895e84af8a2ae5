package key

import (
	"time"

	"github.com/xraph/parking/id"
	"github.com/xraph/parking/tariff"
)

// Key is the single artifact of an open parking session. It is issued
// on entry and removed exactly once when the cost is settled on exit.
//
// Exactly one of Token or AutoID identifies the session for consumption;
// anonymous sessions carry only the token, authorized sessions carry an
// auto id and may additionally be redeemed by token. The tariff is
// snapshotted at entry so later catalog edits never change the price of
// a session already in progress.
type Key struct {
	ID       id.KeyID      `json:"id"`
	Token    string        `json:"token"`
	AutoID   string        `json:"auto_id,omitempty"`
	Tariff   tariff.Tariff `json:"tariff"`
	IssuedAt time.Time     `json:"issued_at"`
}
