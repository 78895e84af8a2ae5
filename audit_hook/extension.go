// Package audithook bridges Engine lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to the concrete backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/parking/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnSessionOpened   = (*Extension)(nil)
	_ plugin.OnSessionClosed   = (*Extension)(nil)
	_ plugin.OnTariffCreated   = (*Extension)(nil)
	_ plugin.OnTariffUpdated   = (*Extension)(nil)
	_ plugin.OnTariffDeleted   = (*Extension)(nil)
	_ plugin.OnSellOutConsumed = (*Extension)(nil)
	_ plugin.OnCouponRedeemed  = (*Extension)(nil)
	_ plugin.OnStatsFlushed    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not import a
// concrete audit module — callers inject their backend at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Engine lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// OnSessionOpened implements plugin.OnSessionOpened.
func (e *Extension) OnSessionOpened(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSessionOpened, SeverityInfo, OutcomeSuccess,
		ResourceSession, "", CategoryGate, nil,
		"event", "session_opened",
	)
}

// OnSessionClosed implements plugin.OnSessionClosed.
func (e *Extension) OnSessionClosed(ctx context.Context, _ interface{}, _ interface{}, elapsed time.Duration) error {
	return e.record(ctx, ActionSessionClosed, SeverityInfo, OutcomeSuccess,
		ResourceSession, "", CategoryGate, nil,
		"event", "session_closed",
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Tariff lifecycle hooks
// ──────────────────────────────────────────────────

// OnTariffCreated implements plugin.OnTariffCreated.
func (e *Extension) OnTariffCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionTariffCreated, SeverityInfo, OutcomeSuccess,
		ResourceTariff, "", CategoryBilling, nil,
		"event", "tariff_created",
	)
}

// OnTariffUpdated implements plugin.OnTariffUpdated.
func (e *Extension) OnTariffUpdated(ctx context.Context, _, _ interface{}) error {
	return e.record(ctx, ActionTariffUpdated, SeverityInfo, OutcomeSuccess,
		ResourceTariff, "", CategoryBilling, nil,
		"event", "tariff_updated",
	)
}

// OnTariffDeleted implements plugin.OnTariffDeleted.
func (e *Extension) OnTariffDeleted(ctx context.Context, tariffID string) error {
	return e.record(ctx, ActionTariffDeleted, SeverityWarning, OutcomeSuccess,
		ResourceTariff, tariffID, CategoryBilling, nil,
		"tariff_id", tariffID,
	)
}

// ──────────────────────────────────────────────────
// Promotion hooks
// ──────────────────────────────────────────────────

// OnSellOutConsumed implements plugin.OnSellOutConsumed.
func (e *Extension) OnSellOutConsumed(ctx context.Context, _ interface{}, remaining int64) error {
	return e.record(ctx, ActionSellOutConsumed, SeverityInfo, OutcomeSuccess,
		ResourceSellOut, "", CategoryPromotion, nil,
		"event", "sellout_consumed",
		"remaining", remaining,
	)
}

// OnCouponRedeemed implements plugin.OnCouponRedeemed.
func (e *Extension) OnCouponRedeemed(ctx context.Context, code string, _ interface{}) error {
	return e.record(ctx, ActionCouponRedeemed, SeverityInfo, OutcomeSuccess,
		ResourceCoupon, code, CategoryPromotion, nil,
		"code", code,
	)
}

// ──────────────────────────────────────────────────
// Statistics hooks
// ──────────────────────────────────────────────────

// OnStatsFlushed implements plugin.OnStatsFlushed.
func (e *Extension) OnStatsFlushed(ctx context.Context, count int, elapsed time.Duration) error {
	return e.record(ctx, ActionStatsFlushed, SeverityInfo, OutcomeSuccess,
		ResourceStatistics, "", CategoryReporting, nil,
		"count", count,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
