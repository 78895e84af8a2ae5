package parking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/parking/coupon"
	"github.com/xraph/parking/id"
	"github.com/xraph/parking/key"
	"github.com/xraph/parking/plugin"
	"github.com/xraph/parking/pricing"
	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/statistic"
	"github.com/xraph/parking/store"
	"github.com/xraph/parking/tariff"
	"github.com/xraph/parking/types"
)

// Engine is the parking session lifecycle and billing core.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Background workers
	statsBuffer chan *statistic.Record
	stopChan    chan struct{}
	wg          sync.WaitGroup

	// Configuration
	statsBatchSize     int
	statsFlushInterval time.Duration
	defaultTariff      string
	discountFn         coupon.DiscountFunc

	now func() time.Time
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		statsBuffer:        make(chan *statistic.Record, 10000),
		stopChan:           make(chan struct{}),
		statsBatchSize:     100,
		statsFlushInterval: 5 * time.Second,
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.discountFn == nil {
		e.discountFn = coupon.NewDiscounter(&couponStoreAdapter{s: e.store}).Redeem
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithStatsConfig configures statistics buffering parameters.
func WithStatsConfig(batchSize int, flushInterval time.Duration) Option {
	return func(e *Engine) {
		e.statsBatchSize = batchSize
		e.statsFlushInterval = flushInterval
	}
}

// WithDefaultTariff sets the tariff name used when a gate does not
// specify one.
func WithDefaultTariff(name string) Option {
	return func(e *Engine) {
		e.defaultTariff = name
	}
}

// WithDiscountFunc replaces the store-backed coupon collaborator.
func WithDiscountFunc(fn coupon.DiscountFunc) Option {
	return func(e *Engine) {
		e.discountFn = fn
	}
}

// Start begins background workers.
func (e *Engine) Start(ctx context.Context) error {
	// Migrate database
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize plugins
	e.plugins.EmitInit(ctx, e)

	// Start stats flush worker
	e.wg.Add(1)
	go e.statsFlushWorker(ctx)

	e.logger.Info("parking engine started",
		"batch_size", e.statsBatchSize,
		"flush_interval", e.statsFlushInterval,
		"default_tariff", e.defaultTariff,
	)

	return nil
}

// Stop shuts down the Engine. Buffered statistics are flushed before
// the store is closed.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Plugins exposes the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// ──────────────────────────────────────────────────
// Session lifecycle
// ──────────────────────────────────────────────────

// EnterAnonymous opens a session for a driver who takes a ticket at the
// gate. The returned session carries the freshly minted token.
func (e *Engine) EnterAnonymous(ctx context.Context, tariffName string) (*Session, error) {
	return e.enter(ctx, "", tariffName)
}

// EnterAuthorized opens a session for a registered driver whose plate
// was not read at the gate. The flow is identical to EnterAnonymous;
// the distinct operation lets callers gate on account status upstream.
func (e *Engine) EnterAuthorized(ctx context.Context, tariffName string) (*Session, error) {
	return e.enter(ctx, "", tariffName)
}

// EnterByAutoID opens a session keyed by the vehicle's auto id (plate
// read at the gate). The auto id must be non-empty and not already hold
// an open session.
func (e *Engine) EnterByAutoID(ctx context.Context, autoID, tariffName string) (*Session, error) {
	if autoID == "" {
		return nil, ErrMissingAutoID
	}
	return e.enter(ctx, autoID, tariffName)
}

func (e *Engine) enter(ctx context.Context, autoID, tariffName string) (*Session, error) {
	t, err := e.resolveTariff(ctx, tariffName)
	if err != nil {
		return nil, err
	}

	k := &key.Key{
		ID:       id.NewKeyID(),
		AutoID:   autoID,
		Tariff:   *t,
		IssuedAt: e.now().UTC(),
	}
	k.Token = k.ID.String()

	if err := e.store.AddKey(ctx, k); err != nil {
		return nil, err
	}

	session := &Session{
		Token:      k.Token,
		AutoID:     k.AutoID,
		TariffName: t.Name,
		EnteredAt:  k.IssuedAt,
	}

	e.recordStatistic(ctx, &statistic.Record{
		ID:         id.NewRecordID(),
		Identifier: session.Identifier(),
		Direction:  statistic.DirectionIncoming,
		TariffName: t.Name,
		Timestamp:  k.IssuedAt,
	})

	e.plugins.EmitSessionOpened(ctx, session)
	return session, nil
}

// resolveTariff maps a gate-supplied tariff name to the catalog entry.
// An empty name falls back to the configured default.
func (e *Engine) resolveTariff(ctx context.Context, name string) (*tariff.Tariff, error) {
	if name == "" {
		name = e.defaultTariff
	}
	if name == "" {
		return nil, &ValidationError{Field: "tariff_name", Message: "is required"}
	}

	t, err := e.store.GetTariffByName(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrUnknownTariff
		}
		return nil, err
	}
	return t, nil
}

// GetCost settles the session identified by the request and returns the
// amount owed. The session key is consumed: a second call with the same
// identifier fails with ErrSessionNotFound.
func (e *Engine) GetCost(ctx context.Context, req CostRequest) (types.Money, error) {
	k, err := e.resolveKey(ctx, req)
	if err != nil {
		return types.Money{}, err
	}

	// Consume the key. Exactly one concurrent settlement wins.
	removed, err := e.store.DeleteKey(ctx, k.ID)
	if err != nil {
		return types.Money{}, err
	}
	if !removed {
		return types.Money{}, ErrSessionNotFound
	}

	leftAt := e.now().UTC()
	elapsed := leftAt.Sub(k.IssuedAt)

	e.recordStatistic(ctx, &statistic.Record{
		ID:         id.NewRecordID(),
		Identifier: identifierOf(k),
		Direction:  statistic.DirectionOutgoing,
		TariffName: k.Tariff.Name,
		Timestamp:  leftAt,
	})

	promo := e.consumeSellOut(ctx, k.Tariff.Name, leftAt)

	var applyCoupon pricing.ApplyCoupon
	if req.CouponCode != "" && e.discountFn != nil {
		applyCoupon = func(cost types.Money) (types.Money, error) {
			discounted, err := e.discountFn(ctx, req.CouponCode, req.UserEmail, cost)
			if err != nil {
				e.logger.Debug("coupon not applied",
					"code", req.CouponCode,
					"error", err,
				)
				return cost, err
			}
			e.plugins.EmitCouponRedeemed(ctx, req.CouponCode, discounted)
			return discounted, nil
		}
	}

	cost := pricing.Compute(elapsed, &k.Tariff, promo, applyCoupon)

	session := &Session{
		Token:      k.Token,
		AutoID:     k.AutoID,
		TariffName: k.Tariff.Name,
		EnteredAt:  k.IssuedAt,
	}
	e.plugins.EmitSessionClosed(ctx, session, cost, elapsed)

	return cost, nil
}

// resolveKey finds the open session key for a cost request. Token wins
// when both identifiers are present.
func (e *Engine) resolveKey(ctx context.Context, req CostRequest) (*key.Key, error) {
	switch {
	case req.Token != "":
		k, err := e.store.GetKeyByToken(ctx, req.Token)
		if err != nil {
			if IsNotFound(err) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		return k, nil

	case req.AutoID != "":
		k, err := e.store.GetKeyByAutoID(ctx, req.AutoID)
		if err != nil {
			if IsNotFound(err) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		return k, nil

	default:
		return nil, ErrNoIdentifier
	}
}

// consumeSellOut finds an applicable sell-out and claims one slot from
// its counter. An exhausted or vanished sell-out means no promotion
// applies; those conditions never surface to the settlement caller.
func (e *Engine) consumeSellOut(ctx context.Context, tariffName string, at time.Time) *sellout.Discount {
	s, err := e.store.FindActiveSellOut(ctx, tariffName, at)
	if err != nil {
		if !IsNotFound(err) {
			e.logger.Warn("sell-out lookup failed",
				"tariff", tariffName,
				"error", err,
			)
		}
		return nil
	}
	if s == nil {
		return nil
	}

	if err := e.store.ConsumeSellOut(ctx, s.ID); err != nil {
		if !errors.Is(err, ErrSellOutExhausted) && !IsNotFound(err) {
			e.logger.Warn("sell-out consume failed",
				"sellout_id", s.ID.String(),
				"error", err,
			)
		}
		return nil
	}

	e.plugins.EmitSellOutConsumed(ctx, s, s.Counter-1)

	discount := s.Discount
	return &discount
}

func identifierOf(k *key.Key) string {
	if k.AutoID != "" {
		return k.AutoID
	}
	return k.Token
}

// ──────────────────────────────────────────────────
// Tariff Management
// ──────────────────────────────────────────────────

// CreateTariff creates a new tariff.
func (e *Engine) CreateTariff(ctx context.Context, t *tariff.Tariff) error {
	if !t.Valid() {
		return &ValidationError{Field: "tariff", Message: "name, cost and billing mode must be set"}
	}
	if t.ID.IsNil() {
		t.ID = id.NewTariffID()
	}
	t.Entity = types.NewEntity()

	if err := e.store.CreateTariff(ctx, t); err != nil {
		return err
	}

	e.plugins.EmitTariffCreated(ctx, t)
	return nil
}

// GetTariff retrieves a tariff by ID.
func (e *Engine) GetTariff(ctx context.Context, tariffID id.TariffID) (*tariff.Tariff, error) {
	return e.store.GetTariff(ctx, tariffID)
}

// GetTariffByName retrieves a tariff by its unique name.
func (e *Engine) GetTariffByName(ctx context.Context, name string) (*tariff.Tariff, error) {
	return e.store.GetTariffByName(ctx, name)
}

// ListTariffs lists tariffs.
func (e *Engine) ListTariffs(ctx context.Context, opts tariff.ListOpts) ([]*tariff.Tariff, error) {
	return e.store.ListTariffs(ctx, opts)
}

// UpdateTariff updates a tariff. Open sessions keep the snapshot taken
// at entry.
func (e *Engine) UpdateTariff(ctx context.Context, t *tariff.Tariff) error {
	if !t.Valid() {
		return &ValidationError{Field: "tariff", Message: "name, cost and billing mode must be set"}
	}

	old, err := e.store.GetTariff(ctx, t.ID)
	if err != nil {
		return err
	}

	t.Touch()
	if err := e.store.UpdateTariff(ctx, t); err != nil {
		return err
	}

	e.plugins.EmitTariffUpdated(ctx, old, t)
	return nil
}

// DeleteTariff deletes a tariff.
func (e *Engine) DeleteTariff(ctx context.Context, tariffID id.TariffID) error {
	if err := e.store.DeleteTariff(ctx, tariffID); err != nil {
		return err
	}

	e.plugins.EmitTariffDeleted(ctx, tariffID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Sell-Out Management
// ──────────────────────────────────────────────────

// CreateSellOut creates a new sell-out promotion.
func (e *Engine) CreateSellOut(ctx context.Context, s *sellout.SellOut) error {
	if !s.End.After(s.Start) {
		return &ValidationError{Field: "end", Message: "must be after start"}
	}
	if s.Counter < 0 {
		return &ValidationError{Field: "counter", Message: "must not be negative"}
	}
	if s.ID.IsNil() {
		s.ID = id.NewSellOutID()
	}
	s.Entity = types.NewEntity()

	return e.store.CreateSellOut(ctx, s)
}

// GetSellOut retrieves a sell-out by ID.
func (e *Engine) GetSellOut(ctx context.Context, sellOutID id.SellOutID) (*sellout.SellOut, error) {
	return e.store.GetSellOut(ctx, sellOutID)
}

// ListSellOuts lists sell-outs.
func (e *Engine) ListSellOuts(ctx context.Context, opts sellout.ListOpts) ([]*sellout.SellOut, error) {
	return e.store.ListSellOuts(ctx, opts)
}

// UpdateSellOut updates a sell-out.
func (e *Engine) UpdateSellOut(ctx context.Context, s *sellout.SellOut) error {
	s.Touch()
	return e.store.UpdateSellOut(ctx, s)
}

// DeleteSellOut deletes a sell-out.
func (e *Engine) DeleteSellOut(ctx context.Context, sellOutID id.SellOutID) error {
	return e.store.DeleteSellOut(ctx, sellOutID)
}

// ──────────────────────────────────────────────────
// Coupon Management
// ──────────────────────────────────────────────────

// CreateCoupon creates a new coupon.
func (e *Engine) CreateCoupon(ctx context.Context, c *coupon.Coupon) error {
	if c.Code == "" {
		return &ValidationError{Field: "code", Message: "is required"}
	}
	if c.ID.IsNil() {
		c.ID = id.NewCouponID()
	}
	c.Entity = types.NewEntity()

	return e.store.CreateCoupon(ctx, c)
}

// GetCoupon retrieves a coupon by code.
func (e *Engine) GetCoupon(ctx context.Context, code string) (*coupon.Coupon, error) {
	return e.store.GetCoupon(ctx, code)
}

// ListCoupons lists coupons.
func (e *Engine) ListCoupons(ctx context.Context, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	return e.store.ListCoupons(ctx, opts)
}

// DeleteCoupon deletes a coupon.
func (e *Engine) DeleteCoupon(ctx context.Context, couponID id.CouponID) error {
	return e.store.DeleteCoupon(ctx, couponID)
}

// ──────────────────────────────────────────────────
// Statistics
// ──────────────────────────────────────────────────

// StatisticsBetween returns gate records with timestamps in [start, end).
func (e *Engine) StatisticsBetween(ctx context.Context, start, end time.Time, opts statistic.QueryOpts) ([]*statistic.Record, error) {
	return e.store.QueryStatisticsRange(ctx, start, end, opts)
}

// StatisticsByDate returns gate records for the calendar day of date.
func (e *Engine) StatisticsByDate(ctx context.Context, date time.Time, opts statistic.QueryOpts) ([]*statistic.Record, error) {
	return e.store.QueryStatisticsByDate(ctx, date, opts)
}

// recordStatistic buffers a gate record for the flush worker. When the
// buffer is full the record is appended directly so counts are never
// dropped. Failures are logged; gate throughput is unaffected.
func (e *Engine) recordStatistic(ctx context.Context, r *statistic.Record) {
	select {
	case e.statsBuffer <- r:
	default:
		if err := e.store.AppendStatistics(ctx, []*statistic.Record{r}); err != nil {
			e.logger.Error("failed to append gate record",
				"identifier", r.Identifier,
				"error", err,
			)
		}
	}
}

// statsFlushWorker flushes gate records to the store.
func (e *Engine) statsFlushWorker(ctx context.Context) {
	defer e.wg.Done()

	batch := make([]*statistic.Record, 0, e.statsBatchSize)
	ticker := time.NewTicker(e.statsFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			// Drain the buffer, then final flush.
			for {
				select {
				case r := <-e.statsBuffer:
					batch = append(batch, r)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				e.flushStatsBatch(ctx, batch)
			}
			return

		case r := <-e.statsBuffer:
			batch = append(batch, r)
			if len(batch) >= e.statsBatchSize {
				e.flushStatsBatch(ctx, batch)
				batch = make([]*statistic.Record, 0, e.statsBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				e.flushStatsBatch(ctx, batch)
				batch = make([]*statistic.Record, 0, e.statsBatchSize)
			}
		}
	}
}

func (e *Engine) flushStatsBatch(ctx context.Context, batch []*statistic.Record) {
	start := time.Now()

	if err := e.store.AppendStatistics(ctx, batch); err != nil {
		e.logger.Error("failed to flush gate records",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	e.plugins.EmitStatsFlushed(ctx, len(batch), elapsed)

	e.logger.Debug("flushed gate records",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// couponStoreAdapter exposes the unified store's coupon methods as a
// coupon.Store for the default Discounter.
type couponStoreAdapter struct {
	s store.Store
}

func (a *couponStoreAdapter) Create(ctx context.Context, c *coupon.Coupon) error {
	return a.s.CreateCoupon(ctx, c)
}

func (a *couponStoreAdapter) Get(ctx context.Context, code string) (*coupon.Coupon, error) {
	return a.s.GetCoupon(ctx, code)
}

func (a *couponStoreAdapter) GetByID(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	return a.s.GetCouponByID(ctx, couponID)
}

func (a *couponStoreAdapter) List(ctx context.Context, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	return a.s.ListCoupons(ctx, opts)
}

func (a *couponStoreAdapter) Update(ctx context.Context, c *coupon.Coupon) error {
	return a.s.UpdateCoupon(ctx, c)
}

func (a *couponStoreAdapter) Delete(ctx context.Context, couponID id.CouponID) error {
	return a.s.DeleteCoupon(ctx, couponID)
}

func (a *couponStoreAdapter) Redeem(ctx context.Context, couponID id.CouponID) error {
	return a.s.RedeemCoupon(ctx, couponID)
}
