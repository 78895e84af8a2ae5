package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onSessionOpened   []OnSessionOpened
	onSessionClosed   []OnSessionClosed
	onTariffCreated   []OnTariffCreated
	onTariffUpdated   []OnTariffUpdated
	onTariffDeleted   []OnTariffDeleted
	onSellOutConsumed []OnSellOutConsumed
	onCouponRedeemed  []OnCouponRedeemed
	onStatsFlushed    []OnStatsFlushed
	costAdjusters     map[string]CostAdjuster
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:        slog.Default(),
		costAdjusters: make(map[string]CostAdjuster),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnSessionOpened); ok {
		r.onSessionOpened = append(r.onSessionOpened, v)
	}
	if v, ok := p.(OnSessionClosed); ok {
		r.onSessionClosed = append(r.onSessionClosed, v)
	}
	if v, ok := p.(OnTariffCreated); ok {
		r.onTariffCreated = append(r.onTariffCreated, v)
	}
	if v, ok := p.(OnTariffUpdated); ok {
		r.onTariffUpdated = append(r.onTariffUpdated, v)
	}
	if v, ok := p.(OnTariffDeleted); ok {
		r.onTariffDeleted = append(r.onTariffDeleted, v)
	}
	if v, ok := p.(OnSellOutConsumed); ok {
		r.onSellOutConsumed = append(r.onSellOutConsumed, v)
	}
	if v, ok := p.(OnCouponRedeemed); ok {
		r.onCouponRedeemed = append(r.onCouponRedeemed, v)
	}
	if v, ok := p.(OnStatsFlushed); ok {
		r.onStatsFlushed = append(r.onStatsFlushed, v)
	}
	if v, ok := p.(CostAdjuster); ok {
		r.costAdjusters[v.AdjusterName()] = v
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnSessionOpened)(nil)).Elem(), "OnSessionOpened")
	checkInterface(reflect.TypeOf((*OnSessionClosed)(nil)).Elem(), "OnSessionClosed")
	checkInterface(reflect.TypeOf((*OnTariffCreated)(nil)).Elem(), "OnTariffCreated")
	checkInterface(reflect.TypeOf((*OnSellOutConsumed)(nil)).Elem(), "OnSellOutConsumed")
	checkInterface(reflect.TypeOf((*OnCouponRedeemed)(nil)).Elem(), "OnCouponRedeemed")
	checkInterface(reflect.TypeOf((*OnStatsFlushed)(nil)).Elem(), "OnStatsFlushed")
	checkInterface(reflect.TypeOf((*CostAdjuster)(nil)).Elem(), "CostAdjuster")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSessionOpened emits a session opened event.
func (r *Registry) EmitSessionOpened(ctx context.Context, session interface{}) {
	r.mu.RLock()
	plugins := r.onSessionOpened
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSessionOpened(ctx, session)
		}); err != nil {
			r.logger.Warn("plugin OnSessionOpened failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSessionClosed emits a session closed event.
func (r *Registry) EmitSessionClosed(ctx context.Context, session interface{}, cost interface{}, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onSessionClosed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSessionClosed(ctx, session, cost, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnSessionClosed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTariffCreated emits a tariff created event.
func (r *Registry) EmitTariffCreated(ctx context.Context, tariff interface{}) {
	r.mu.RLock()
	plugins := r.onTariffCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTariffCreated(ctx, tariff)
		}); err != nil {
			r.logger.Warn("plugin OnTariffCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTariffUpdated emits a tariff updated event.
func (r *Registry) EmitTariffUpdated(ctx context.Context, oldTariff, newTariff interface{}) {
	r.mu.RLock()
	plugins := r.onTariffUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTariffUpdated(ctx, oldTariff, newTariff)
		}); err != nil {
			r.logger.Warn("plugin OnTariffUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTariffDeleted emits a tariff deleted event.
func (r *Registry) EmitTariffDeleted(ctx context.Context, tariffID string) {
	r.mu.RLock()
	plugins := r.onTariffDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTariffDeleted(ctx, tariffID)
		}); err != nil {
			r.logger.Warn("plugin OnTariffDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSellOutConsumed emits a sell-out consumed event.
func (r *Registry) EmitSellOutConsumed(ctx context.Context, sellOut interface{}, remaining int64) {
	r.mu.RLock()
	plugins := r.onSellOutConsumed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSellOutConsumed(ctx, sellOut, remaining)
		}); err != nil {
			r.logger.Warn("plugin OnSellOutConsumed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCouponRedeemed emits a coupon redeemed event.
func (r *Registry) EmitCouponRedeemed(ctx context.Context, code string, cost interface{}) {
	r.mu.RLock()
	plugins := r.onCouponRedeemed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCouponRedeemed(ctx, code, cost)
		}); err != nil {
			r.logger.Warn("plugin OnCouponRedeemed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStatsFlushed emits a statistics flushed event.
func (r *Registry) EmitStatsFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onStatsFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStatsFlushed(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnStatsFlushed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetCostAdjuster returns a cost adjuster by name.
func (r *Registry) GetCostAdjuster(name string) CostAdjuster {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.costAdjusters[name]
}

// GetCostAdjusters returns all registered cost adjusters.
func (r *Registry) GetCostAdjusters() []CostAdjuster {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]CostAdjuster, 0, len(r.costAdjusters))
	for _, a := range r.costAdjusters {
		result = append(result, a)
	}
	return result
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the settlement pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
