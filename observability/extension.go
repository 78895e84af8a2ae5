// Package observability provides a metrics extension for Parking that records
// lifecycle event counts through an injected MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/parking/plugin"
	"github.com/xraph/parking/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnSessionOpened   = (*MetricsExtension)(nil)
	_ plugin.OnSessionClosed   = (*MetricsExtension)(nil)
	_ plugin.OnTariffCreated   = (*MetricsExtension)(nil)
	_ plugin.OnTariffUpdated   = (*MetricsExtension)(nil)
	_ plugin.OnTariffDeleted   = (*MetricsExtension)(nil)
	_ plugin.OnSellOutConsumed = (*MetricsExtension)(nil)
	_ plugin.OnCouponRedeemed  = (*MetricsExtension)(nil)
	_ plugin.OnStatsFlushed    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an Engine plugin to automatically track gate metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Session metrics
	SessionsOpened  Counter
	SessionsClosed  Counter
	SessionDuration Histogram
	SessionCost     Histogram

	// Tariff metrics
	TariffCreated Counter
	TariffUpdated Counter
	TariffDeleted Counter

	// Promotion metrics
	SellOutsConsumed Counter
	CouponsRedeemed  Counter

	// Statistics metrics
	StatsRecordsFlushed Counter
	StatsFlushLatency   Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Session metrics
		SessionsOpened:  factory.Counter("parking.session.opened"),
		SessionsClosed:  factory.Counter("parking.session.closed"),
		SessionDuration: factory.Histogram("parking.session.duration_seconds"),
		SessionCost:     factory.Histogram("parking.session.cost_cents"),

		// Tariff metrics
		TariffCreated: factory.Counter("parking.tariff.created"),
		TariffUpdated: factory.Counter("parking.tariff.updated"),
		TariffDeleted: factory.Counter("parking.tariff.deleted"),

		// Promotion metrics
		SellOutsConsumed: factory.Counter("parking.sellout.consumed"),
		CouponsRedeemed:  factory.Counter("parking.coupon.redeemed"),

		// Statistics metrics
		StatsRecordsFlushed: factory.Counter("parking.stats.records.flushed"),
		StatsFlushLatency:   factory.Histogram("parking.stats.flush.latency_ms"),

		// Error metrics
		StoreErrors:  factory.Counter("parking.store.errors"),
		PluginErrors: factory.Counter("parking.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// OnSessionOpened implements plugin.OnSessionOpened.
func (m *MetricsExtension) OnSessionOpened(_ context.Context, _ interface{}) error {
	m.SessionsOpened.Inc()
	return nil
}

// OnSessionClosed implements plugin.OnSessionClosed.
func (m *MetricsExtension) OnSessionClosed(_ context.Context, _ interface{}, cost interface{}, elapsed time.Duration) error {
	m.SessionsClosed.Inc()
	m.SessionDuration.Observe(elapsed.Seconds())
	if money, ok := cost.(types.Money); ok {
		m.SessionCost.Observe(float64(money.Amount))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Tariff lifecycle hooks
// ──────────────────────────────────────────────────

// OnTariffCreated implements plugin.OnTariffCreated.
func (m *MetricsExtension) OnTariffCreated(_ context.Context, _ interface{}) error {
	m.TariffCreated.Inc()
	return nil
}

// OnTariffUpdated implements plugin.OnTariffUpdated.
func (m *MetricsExtension) OnTariffUpdated(_ context.Context, _, _ interface{}) error {
	m.TariffUpdated.Inc()
	return nil
}

// OnTariffDeleted implements plugin.OnTariffDeleted.
func (m *MetricsExtension) OnTariffDeleted(_ context.Context, _ string) error {
	m.TariffDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Promotion hooks
// ──────────────────────────────────────────────────

// OnSellOutConsumed implements plugin.OnSellOutConsumed.
func (m *MetricsExtension) OnSellOutConsumed(_ context.Context, _ interface{}, _ int64) error {
	m.SellOutsConsumed.Inc()
	return nil
}

// OnCouponRedeemed implements plugin.OnCouponRedeemed.
func (m *MetricsExtension) OnCouponRedeemed(_ context.Context, _ string, _ interface{}) error {
	m.CouponsRedeemed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Statistics hooks
// ──────────────────────────────────────────────────

// OnStatsFlushed implements plugin.OnStatsFlushed.
func (m *MetricsExtension) OnStatsFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.StatsRecordsFlushed.Add(float64(count))
	m.StatsFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
