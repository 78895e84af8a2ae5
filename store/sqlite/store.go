package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	parking "github.com/xraph/parking"
	"github.com/xraph/parking/coupon"
	"github.com/xraph/parking/id"
	"github.com/xraph/parking/key"
	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/statistic"
	parkingstore "github.com/xraph/parking/store"
	"github.com/xraph/parking/tariff"
)

// compile-time interface check
var _ parkingstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("parking/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("parking/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Tariff Store ====================

func (s *Store) CreateTariff(ctx context.Context, t *tariff.Tariff) error {
	m := toTariffModel(t)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return parking.ErrDuplicateTariff
	}
	return err
}

func (s *Store) GetTariff(ctx context.Context, tariffID id.TariffID) (*tariff.Tariff, error) {
	m := new(tariffModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", tariffID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, parking.ErrTariffNotFound
		}
		return nil, err
	}
	return fromTariffModel(m)
}

func (s *Store) GetTariffByName(ctx context.Context, name string) (*tariff.Tariff, error) {
	m := new(tariffModel)
	err := s.sdb.NewSelect(m).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, parking.ErrTariffNotFound
		}
		return nil, err
	}
	return fromTariffModel(m)
}

func (s *Store) ListTariffs(ctx context.Context, opts tariff.ListOpts) ([]*tariff.Tariff, error) {
	var models []tariffModel
	q := s.sdb.NewSelect(&models)

	if opts.Billing != "" {
		q = q.Where("billing = ?", string(opts.Billing))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("name ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*tariff.Tariff, len(models))
	for i := range models {
		t, err := fromTariffModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

func (s *Store) UpdateTariff(ctx context.Context, t *tariff.Tariff) error {
	m := toTariffModel(t)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return parking.ErrDuplicateTariff
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return parking.ErrTariffNotFound
	}
	return nil
}

func (s *Store) DeleteTariff(ctx context.Context, tariffID id.TariffID) error {
	_, err := s.sdb.NewDelete((*tariffModel)(nil)).
		Where("id = ?", tariffID.String()).
		Exec(ctx)
	return err
}

// ==================== Key Store ====================

func (s *Store) AddKey(ctx context.Context, k *key.Key) error {
	m := toKeyModel(k)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		if strings.Contains(err.Error(), "auto_id") {
			return parking.ErrDuplicateAutoID
		}
		return parking.ErrDuplicateToken
	}
	return err
}

func (s *Store) GetKey(ctx context.Context, keyID id.KeyID) (*key.Key, error) {
	m := new(keyModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", keyID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, parking.ErrKeyNotFound
		}
		return nil, err
	}
	return fromKeyModel(m)
}

func (s *Store) GetKeyByToken(ctx context.Context, token string) (*key.Key, error) {
	m := new(keyModel)
	err := s.sdb.NewSelect(m).
		Where("token = ?", token).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, parking.ErrKeyNotFound
		}
		return nil, err
	}
	return fromKeyModel(m)
}

func (s *Store) GetKeyByAutoID(ctx context.Context, autoID string) (*key.Key, error) {
	m := new(keyModel)
	err := s.sdb.NewSelect(m).
		Where("auto_id = ?", autoID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, parking.ErrKeyNotFound
		}
		return nil, err
	}
	return fromKeyModel(m)
}

func (s *Store) ListKeys(ctx context.Context, opts key.ListOpts) ([]*key.Key, error) {
	var models []keyModel
	q := s.sdb.NewSelect(&models)

	if opts.TariffName != "" {
		q = q.Where("tariff_name = ?", opts.TariffName)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("issued_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*key.Key, len(models))
	for i := range models {
		k, err := fromKeyModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = k
	}
	return result, nil
}

func (s *Store) DeleteKey(ctx context.Context, keyID id.KeyID) (bool, error) {
	res, err := s.sdb.NewDelete((*keyModel)(nil)).
		Where("id = ?", keyID.String()).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ==================== SellOut Store ====================

func (s *Store) CreateSellOut(ctx context.Context, so *sellout.SellOut) error {
	m := toSellOutModel(so)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return parking.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetSellOut(ctx context.Context, sellOutID id.SellOutID) (*sellout.SellOut, error) {
	m := new(sellOutModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", sellOutID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, parking.ErrSellOutNotFound
		}
		return nil, err
	}
	return fromSellOutModel(m)
}

func (s *Store) FindActiveSellOut(ctx context.Context, tariffName string, at time.Time) (*sellout.SellOut, error) {
	// The tariff set is stored as a JSON array, so membership is checked
	// in Go against the time-and-counter candidates.
	var models []sellOutModel
	err := s.sdb.NewSelect(&models).
		Where("start_at <= ?", at).
		Where("end_at > ?", at).
		Where("counter > 0").
		OrderExpr("start_at ASC").
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, parking.ErrSellOutNotFound
		}
		return nil, err
	}
	for i := range models {
		so, err := fromSellOutModel(&models[i])
		if err != nil {
			return nil, err
		}
		if so.Matches(tariffName) {
			return so, nil
		}
	}
	return nil, parking.ErrSellOutNotFound
}

func (s *Store) ListSellOuts(ctx context.Context, opts sellout.ListOpts) ([]*sellout.SellOut, error) {
	var models []sellOutModel
	q := s.sdb.NewSelect(&models)

	if opts.ActiveAt != nil {
		q = q.Where("start_at <= ?", *opts.ActiveAt).
			Where("end_at > ?", *opts.ActiveAt)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("start_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*sellout.SellOut, len(models))
	for i := range models {
		so, err := fromSellOutModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = so
	}
	return result, nil
}

func (s *Store) UpdateSellOut(ctx context.Context, so *sellout.SellOut) error {
	m := toSellOutModel(so)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return parking.ErrSellOutNotFound
	}
	return nil
}

func (s *Store) DeleteSellOut(ctx context.Context, sellOutID id.SellOutID) error {
	_, err := s.sdb.NewDelete((*sellOutModel)(nil)).
		Where("id = ?", sellOutID.String()).
		Exec(ctx)
	return err
}

// ConsumeSellOut decrements the counter in a single conditional UPDATE
// so that concurrent settlements never double-spend a promotion slot.
func (s *Store) ConsumeSellOut(ctx context.Context, sellOutID id.SellOutID) error {
	res, err := s.sdb.NewUpdate((*sellOutModel)(nil)).
		Set("counter = counter - 1").
		Set("updated_at = ?", now()).
		Where("id = ?", sellOutID.String()).
		Where("counter > 0").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetSellOut(ctx, sellOutID); err != nil {
			return err
		}
		return parking.ErrSellOutExhausted
	}
	return nil
}

// ==================== Statistic Store ====================

func (s *Store) AppendStatistics(ctx context.Context, records []*statistic.Record) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]recordModel, len(records))
	for i, r := range records {
		models[i] = *toRecordModel(r)
	}
	_, err := s.sdb.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) QueryStatisticsRange(ctx context.Context, from, to time.Time, opts statistic.QueryOpts) ([]*statistic.Record, error) {
	var models []recordModel
	q := s.sdb.NewSelect(&models).
		Where("timestamp >= ?", from).
		Where("timestamp < ?", to)

	if opts.Direction != "" {
		q = q.Where("direction = ?", string(opts.Direction))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("timestamp ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*statistic.Record, len(models))
	for i := range models {
		r, err := fromRecordModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) QueryStatisticsByDate(ctx context.Context, day time.Time, opts statistic.QueryOpts) ([]*statistic.Record, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.QueryStatisticsRange(ctx, start, start.AddDate(0, 0, 1), opts)
}

// ==================== Coupon Store ====================

func (s *Store) CreateCoupon(ctx context.Context, c *coupon.Coupon) error {
	m := toCouponModel(c)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return parking.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetCoupon(ctx context.Context, code string) (*coupon.Coupon, error) {
	m := new(couponModel)
	err := s.sdb.NewSelect(m).
		Where("code = ?", code).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, parking.ErrCouponNotFound
		}
		return nil, err
	}
	return fromCouponModel(m)
}

func (s *Store) GetCouponByID(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	m := new(couponModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", couponID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, parking.ErrCouponNotFound
		}
		return nil, err
	}
	return fromCouponModel(m)
}

func (s *Store) ListCoupons(ctx context.Context, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	var models []couponModel
	q := s.sdb.NewSelect(&models)

	if opts.Active {
		t := time.Now().UTC()
		q = q.Where("(valid_from IS NULL OR valid_from <= ?)", t).
			Where("(valid_until IS NULL OR valid_until > ?)", t)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("code ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*coupon.Coupon, len(models))
	for i := range models {
		c, err := fromCouponModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) UpdateCoupon(ctx context.Context, c *coupon.Coupon) error {
	m := toCouponModel(c)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return parking.ErrCouponNotFound
	}
	return nil
}

func (s *Store) DeleteCoupon(ctx context.Context, couponID id.CouponID) error {
	_, err := s.sdb.NewDelete((*couponModel)(nil)).
		Where("id = ?", couponID.String()).
		Exec(ctx)
	return err
}

// RedeemCoupon increments the redemption count in a single conditional
// UPDATE, mirroring ConsumeSellOut.
func (s *Store) RedeemCoupon(ctx context.Context, couponID id.CouponID) error {
	res, err := s.sdb.NewUpdate((*couponModel)(nil)).
		Set("times_redeemed = times_redeemed + 1").
		Set("updated_at = ?", now()).
		Where("id = ?", couponID.String()).
		Where("(max_redemptions = 0 OR times_redeemed < max_redemptions)").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetCouponByID(ctx, couponID); err != nil {
			return err
		}
		return parking.ErrCouponExhausted
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation checks for a SQLite unique index violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
