package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/parking"
	"github.com/xraph/parking/coupon"
	"github.com/xraph/parking/id"
	"github.com/xraph/parking/key"
	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/statistic"
	"github.com/xraph/parking/tariff"
)

type Store struct {
	mu sync.RWMutex

	// Tariff storage, keyed by ID with a name index
	tariffs      map[string]*tariff.Tariff
	tariffByName map[string]string

	// Open session keys, keyed by ID with token/auto-id indexes
	keys        map[string]*key.Key
	keyByToken  map[string]string
	keyByAutoID map[string]string

	// Sell-out storage
	sellOuts map[string]*sellout.SellOut

	// Statistic records, append-only
	records []statistic.Record

	// Coupon storage, keyed by ID with a code index
	coupons      map[string]*coupon.Coupon
	couponByCode map[string]string
}

func New() *Store {
	return &Store{
		tariffs:      make(map[string]*tariff.Tariff),
		tariffByName: make(map[string]string),
		keys:         make(map[string]*key.Key),
		keyByToken:   make(map[string]string),
		keyByAutoID:  make(map[string]string),
		sellOuts:     make(map[string]*sellout.SellOut),
		records:      make([]statistic.Record, 0),
		coupons:      make(map[string]*coupon.Coupon),
		couponByCode: make(map[string]string),
	}
}

// Tariff Store implementation
func (s *Store) CreateTariff(_ context.Context, t *tariff.Tariff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tariffs[t.ID.String()]; exists {
		return parking.ErrAlreadyExists
	}
	if _, exists := s.tariffByName[t.Name]; exists {
		return parking.ErrDuplicateTariff
	}
	s.tariffs[t.ID.String()] = clone(t)
	s.tariffByName[t.Name] = t.ID.String()
	return nil
}

func (s *Store) GetTariff(_ context.Context, tariffID id.TariffID) (*tariff.Tariff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tariffs[tariffID.String()]; ok {
		return clone(t), nil
	}
	return nil, parking.ErrTariffNotFound
}

func (s *Store) GetTariffByName(_ context.Context, name string) (*tariff.Tariff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tid, ok := s.tariffByName[name]; ok {
		return clone(s.tariffs[tid]), nil
	}
	return nil, parking.ErrTariffNotFound
}

func (s *Store) ListTariffs(_ context.Context, opts tariff.ListOpts) ([]*tariff.Tariff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*tariff.Tariff, 0)
	for _, t := range s.tariffs {
		if opts.Billing == "" || t.Billing == opts.Billing {
			result = append(result, clone(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateTariff(_ context.Context, t *tariff.Tariff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tariffs[t.ID.String()]
	if !ok {
		return parking.ErrTariffNotFound
	}
	if existing.Name != t.Name {
		if _, taken := s.tariffByName[t.Name]; taken {
			return parking.ErrDuplicateTariff
		}
		delete(s.tariffByName, existing.Name)
		s.tariffByName[t.Name] = t.ID.String()
	}
	s.tariffs[t.ID.String()] = clone(t)
	return nil
}

func (s *Store) DeleteTariff(_ context.Context, tariffID id.TariffID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tariffs[tariffID.String()]; ok {
		delete(s.tariffByName, t.Name)
		delete(s.tariffs, tariffID.String())
	}
	return nil
}

// Key Store implementation
func (s *Store) AddKey(_ context.Context, k *key.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keyByToken[k.Token]; exists {
		return parking.ErrDuplicateToken
	}
	if k.AutoID != "" {
		if _, exists := s.keyByAutoID[k.AutoID]; exists {
			return parking.ErrDuplicateAutoID
		}
	}
	s.keys[k.ID.String()] = clone(k)
	s.keyByToken[k.Token] = k.ID.String()
	if k.AutoID != "" {
		s.keyByAutoID[k.AutoID] = k.ID.String()
	}
	return nil
}

func (s *Store) GetKey(_ context.Context, keyID id.KeyID) (*key.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k, ok := s.keys[keyID.String()]; ok {
		return clone(k), nil
	}
	return nil, parking.ErrKeyNotFound
}

func (s *Store) GetKeyByToken(_ context.Context, token string) (*key.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if kid, ok := s.keyByToken[token]; ok {
		return clone(s.keys[kid]), nil
	}
	return nil, parking.ErrKeyNotFound
}

func (s *Store) GetKeyByAutoID(_ context.Context, autoID string) (*key.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if kid, ok := s.keyByAutoID[autoID]; ok {
		return clone(s.keys[kid]), nil
	}
	return nil, parking.ErrKeyNotFound
}

func (s *Store) ListKeys(_ context.Context, opts key.ListOpts) ([]*key.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*key.Key, 0)
	for _, k := range s.keys {
		if opts.TariffName == "" || k.Tariff.Name == opts.TariffName {
			result = append(result, clone(k))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].IssuedAt.Before(result[j].IssuedAt) })
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) DeleteKey(_ context.Context, keyID id.KeyID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[keyID.String()]
	if !ok {
		return false, nil
	}
	delete(s.keys, keyID.String())
	delete(s.keyByToken, k.Token)
	if k.AutoID != "" {
		delete(s.keyByAutoID, k.AutoID)
	}
	return true, nil
}

// SellOut Store implementation
func (s *Store) CreateSellOut(_ context.Context, so *sellout.SellOut) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sellOuts[so.ID.String()]; exists {
		return parking.ErrAlreadyExists
	}
	s.sellOuts[so.ID.String()] = clone(so)
	return nil
}

func (s *Store) GetSellOut(_ context.Context, sellOutID id.SellOutID) (*sellout.SellOut, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if so, ok := s.sellOuts[sellOutID.String()]; ok {
		return clone(so), nil
	}
	return nil, parking.ErrSellOutNotFound
}

func (s *Store) FindActiveSellOut(_ context.Context, tariffName string, at time.Time) (*sellout.SellOut, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *sellout.SellOut
	for _, so := range s.sellOuts {
		if so.ActiveAt(at) && so.Counter > 0 && so.Matches(tariffName) {
			// Earliest start wins to keep selection deterministic.
			if best == nil || so.Start.Before(best.Start) {
				best = so
			}
		}
	}
	if best == nil {
		return nil, parking.ErrSellOutNotFound
	}
	return clone(best), nil
}

func (s *Store) ListSellOuts(_ context.Context, opts sellout.ListOpts) ([]*sellout.SellOut, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*sellout.SellOut, 0)
	for _, so := range s.sellOuts {
		if opts.ActiveAt == nil || so.ActiveAt(*opts.ActiveAt) {
			result = append(result, clone(so))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateSellOut(_ context.Context, so *sellout.SellOut) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sellOuts[so.ID.String()]; !exists {
		return parking.ErrSellOutNotFound
	}
	s.sellOuts[so.ID.String()] = clone(so)
	return nil
}

func (s *Store) DeleteSellOut(_ context.Context, sellOutID id.SellOutID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sellOuts, sellOutID.String())
	return nil
}

func (s *Store) ConsumeSellOut(_ context.Context, sellOutID id.SellOutID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	so, ok := s.sellOuts[sellOutID.String()]
	if !ok {
		return parking.ErrSellOutNotFound
	}
	if so.Counter <= 0 {
		return parking.ErrSellOutExhausted
	}
	so.Counter--
	so.Touch()
	return nil
}

// Statistic Store implementation
func (s *Store) AppendStatistics(_ context.Context, records []*statistic.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.records = append(s.records, *r)
	}
	return nil
}

func (s *Store) QueryStatisticsRange(_ context.Context, from, to time.Time, opts statistic.QueryOpts) ([]*statistic.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*statistic.Record, 0)
	for i := range s.records {
		r := &s.records[i]
		if r.Timestamp.Before(from) || !r.Timestamp.Before(to) {
			continue
		}
		if opts.Direction == "" || r.Direction == opts.Direction {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) QueryStatisticsByDate(ctx context.Context, day time.Time, opts statistic.QueryOpts) ([]*statistic.Record, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.QueryStatisticsRange(ctx, start, start.AddDate(0, 0, 1), opts)
}

// Coupon Store implementation
func (s *Store) CreateCoupon(_ context.Context, c *coupon.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.couponByCode[c.Code]; exists {
		return parking.ErrAlreadyExists
	}
	s.coupons[c.ID.String()] = clone(c)
	s.couponByCode[c.Code] = c.ID.String()
	return nil
}

func (s *Store) GetCoupon(_ context.Context, code string) (*coupon.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cid, ok := s.couponByCode[code]; ok {
		return clone(s.coupons[cid]), nil
	}
	return nil, parking.ErrCouponNotFound
}

func (s *Store) GetCouponByID(_ context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.coupons[couponID.String()]; ok {
		return clone(c), nil
	}
	return nil, parking.ErrCouponNotFound
}

func (s *Store) ListCoupons(_ context.Context, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*coupon.Coupon, 0)
	now := time.Now()
	for _, c := range s.coupons {
		if opts.Active && !c.ValidAt(now) {
			continue
		}
		result = append(result, clone(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateCoupon(_ context.Context, c *coupon.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.coupons[c.ID.String()]
	if !ok {
		return parking.ErrCouponNotFound
	}
	if existing.Code != c.Code {
		if _, taken := s.couponByCode[c.Code]; taken {
			return parking.ErrAlreadyExists
		}
		delete(s.couponByCode, existing.Code)
		s.couponByCode[c.Code] = c.ID.String()
	}
	s.coupons[c.ID.String()] = clone(c)
	return nil
}

func (s *Store) DeleteCoupon(_ context.Context, couponID id.CouponID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.coupons[couponID.String()]; ok {
		delete(s.couponByCode, c.Code)
		delete(s.coupons, couponID.String())
	}
	return nil
}

func (s *Store) RedeemCoupon(_ context.Context, couponID id.CouponID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[couponID.String()]
	if !ok {
		return parking.ErrCouponNotFound
	}
	if c.Exhausted() {
		return parking.ErrCouponExhausted
	}
	c.TimesRedeemed++
	c.Touch()
	return nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// Helper functions

// clone copies an entity so the store never shares structs with its
// callers. Indexes are keyed off the stored copy; without it a caller
// mutating an entity it passed in would silently corrupt them.
func clone[T any](v *T) *T {
	cp := *v
	return &cp
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
