package audithook

// Action constants for audit events.
const (
	// Tariff actions
	ActionTariffCreated = "tariff.created"
	ActionTariffUpdated = "tariff.updated"
	ActionTariffDeleted = "tariff.deleted"

	// Session actions
	ActionSessionOpened = "session.opened"
	ActionSessionClosed = "session.closed"

	// Promotion actions
	ActionSellOutConsumed = "sellout.consumed"
	ActionCouponRedeemed  = "coupon.redeemed"

	// Statistics actions
	ActionStatsFlushed = "stats.flushed"
)

// Resource constants for audit events.
const (
	ResourceTariff     = "tariff"
	ResourceSession    = "session"
	ResourceSellOut    = "sellout"
	ResourceCoupon     = "coupon"
	ResourceStatistics = "statistics"
)

// Category constants for audit events.
const (
	CategoryBilling   = "billing"
	CategoryGate      = "gate"
	CategoryPromotion = "promotion"
	CategoryReporting = "reporting"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
