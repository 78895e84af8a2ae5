package parking

import (
	"time"
)

// Session is the caller-facing projection of an open parking session.
// It carries everything a gate terminal needs to print a ticket: the
// token, the auto id (when the plate was read), the tariff locked in at
// entry, and the entry timestamp.
type Session struct {
	Token      string    `json:"token"`
	AutoID     string    `json:"auto_id,omitempty"`
	TariffName string    `json:"tariff_name"`
	EnteredAt  time.Time `json:"entered_at"`
}

// Identifier returns the value used in statistics and lookups: the auto
// id when present, the token otherwise.
func (s *Session) Identifier() string {
	if s.AutoID != "" {
		return s.AutoID
	}
	return s.Token
}

// CostRequest identifies a session to settle. Exactly one of Token or
// AutoID must be set; Token wins when both are present. UserEmail and
// CouponCode are passed through to the coupon collaborator.
type CostRequest struct {
	Token      string `json:"token,omitempty"`
	AutoID     string `json:"auto_id,omitempty"`
	UserEmail  string `json:"user_email,omitempty"`
	CouponCode string `json:"coupon_code,omitempty"`
}
