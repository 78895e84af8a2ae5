package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	parking "github.com/xraph/parking"
	"github.com/xraph/parking/coupon"
	"github.com/xraph/parking/id"
	"github.com/xraph/parking/key"
	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/statistic"
	parkingstore "github.com/xraph/parking/store"
	"github.com/xraph/parking/tariff"
)

// Collection name constants.
const (
	colTariffs    = "parking_tariffs"
	colKeys       = "parking_keys"
	colSellOuts   = "parking_sellouts"
	colStatistics = "parking_statistics"
	colCoupons    = "parking_coupons"
)

// compile-time interface check
var _ parkingstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all parking collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("parking/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return parking.ErrDuplicateTariff
		}
		return fmt.Errorf("parking/mongo: create tariff: %w", err)
	}
	return nil
}

func (s *Store) GetTariff(ctx context.Context, tariffID id.TariffID) (*tariff.Tariff, error) {
	var m tariffModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tariffID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, parking.ErrTariffNotFound
		}
		return nil, fmt.Errorf("parking/mongo: get tariff: %w", err)
	}
	return fromTariffModel(&m)
}

func (s *Store) GetTariffByName(ctx context.Context, name string) (*tariff.Tariff, error) {
	var m tariffModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, parking.ErrTariffNotFound
		}
		return nil, fmt.Errorf("parking/mongo: get tariff by name: %w", err)
	}
	return fromTariffModel(&m)
}

func (s *Store) ListTariffs(ctx context.Context, opts tariff.ListOpts) ([]*tariff.Tariff, error) {
	var models []tariffModel

	filter := bson.M{}
	if opts.Billing != "" {
		filter["billing"] = string(opts.Billing)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "name", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("parking/mongo: list tariffs: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return parking.ErrDuplicateTariff
		}
		return fmt.Errorf("parking/mongo: update tariff: %w", err)
	}
	if res.MatchedCount() == 0 {
		return parking.ErrTariffNotFound
	}
	return nil
}

func (s *Store) DeleteTariff(ctx context.Context, tariffID id.TariffID) error {
	_, err := s.mdb.NewDelete((*tariffModel)(nil)).
		Filter(bson.M{"_id": tariffID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("parking/mongo: delete tariff: %w", err)
	}
	return nil
}

// ==================== Key Store ====================

func (s *Store) AddKey(ctx context.Context, k *key.Key) error {
	m := toKeyModel(k)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if k.AutoID != "" {
				if _, lookupErr := s.GetKeyByAutoID(ctx, k.AutoID); lookupErr == nil {
					return parking.ErrDuplicateAutoID
				}
			}
			return parking.ErrDuplicateToken
		}
		return fmt.Errorf("parking/mongo: add key: %w", err)
	}
	return nil
}

func (s *Store) GetKey(ctx context.Context, keyID id.KeyID) (*key.Key, error) {
	var m keyModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": keyID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, parking.ErrKeyNotFound
		}
		return nil, fmt.Errorf("parking/mongo: get key: %w", err)
	}
	return fromKeyModel(&m)
}

func (s *Store) GetKeyByToken(ctx context.Context, token string) (*key.Key, error) {
	var m keyModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"token": token}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, parking.ErrKeyNotFound
		}
		return nil, fmt.Errorf("parking/mongo: get key by token: %w", err)
	}
	return fromKeyModel(&m)
}

func (s *Store) GetKeyByAutoID(ctx context.Context, autoID string) (*key.Key, error) {
	var m keyModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"auto_id": autoID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, parking.ErrKeyNotFound
		}
		return nil, fmt.Errorf("parking/mongo: get key by auto id: %w", err)
	}
	return fromKeyModel(&m)
}

func (s *Store) ListKeys(ctx context.Context, opts key.ListOpts) ([]*key.Key, error) {
	var models []keyModel

	filter := bson.M{}
	if opts.TariffName != "" {
		filter["tariff.name"] = opts.TariffName
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "issued_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("parking/mongo: list keys: %w", err)
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
	res, err := s.mdb.NewDelete((*keyModel)(nil)).
		Filter(bson.M{"_id": keyID.String()}).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("parking/mongo: delete key: %w", err)
	}
	return res.DeletedCount() > 0, nil
}

// ==================== SellOut Store ====================

func (s *Store) CreateSellOut(ctx context.Context, so *sellout.SellOut) error {
	m := toSellOutModel(so)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return parking.ErrAlreadyExists
		}
		return fmt.Errorf("parking/mongo: create sell-out: %w", err)
	}
	return nil
}

func (s *Store) GetSellOut(ctx context.Context, sellOutID id.SellOutID) (*sellout.SellOut, error) {
	var m sellOutModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": sellOutID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, parking.ErrSellOutNotFound
		}
		return nil, fmt.Errorf("parking/mongo: get sell-out: %w", err)
	}
	return fromSellOutModel(&m)
}

func (s *Store) FindActiveSellOut(ctx context.Context, tariffName string, at time.Time) (*sellout.SellOut, error) {
	var m sellOutModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"start_at": bson.M{"$lte": at},
			"end_at":   bson.M{"$gt": at},
			"counter":  bson.M{"$gt": 0},
			// An absent or empty tariff set is a wildcard; otherwise the
			// tariff name must be an element of the array.
			"$or": bson.A{
				bson.M{"tariffs": bson.M{"$exists": false}},
				bson.M{"tariffs": bson.M{"$size": 0}},
				bson.M{"tariffs": tariffName},
			},
		}).
		Sort(bson.D{{Key: "start_at", Value: 1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, parking.ErrSellOutNotFound
		}
		return nil, fmt.Errorf("parking/mongo: find active sell-out: %w", err)
	}
	return fromSellOutModel(&m)
}

func (s *Store) ListSellOuts(ctx context.Context, opts sellout.ListOpts) ([]*sellout.SellOut, error) {
	var models []sellOutModel

	filter := bson.M{}
	if opts.ActiveAt != nil {
		filter["start_at"] = bson.M{"$lte": *opts.ActiveAt}
		filter["end_at"] = bson.M{"$gt": *opts.ActiveAt}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "start_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("parking/mongo: list sell-outs: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("parking/mongo: update sell-out: %w", err)
	}
	if res.MatchedCount() == 0 {
		return parking.ErrSellOutNotFound
	}
	return nil
}

func (s *Store) DeleteSellOut(ctx context.Context, sellOutID id.SellOutID) error {
	_, err := s.mdb.NewDelete((*sellOutModel)(nil)).
		Filter(bson.M{"_id": sellOutID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("parking/mongo: delete sell-out: %w", err)
	}
	return nil
}

// ConsumeSellOut uses a filtered $inc so the decrement only matches a
// document whose counter is still positive. Concurrent settlements
// therefore never overdraw the promotion.
func (s *Store) ConsumeSellOut(ctx context.Context, sellOutID id.SellOutID) error {
	res, err := s.mdb.NewUpdate((*sellOutModel)(nil)).
		Filter(bson.M{
			"_id":     sellOutID.String(),
			"counter": bson.M{"$gt": 0},
		}).
		SetUpdate(bson.M{
			"$inc": bson.M{"counter": -1},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("parking/mongo: consume sell-out: %w", err)
	}
	if res.MatchedCount() == 0 {
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
	for _, r := range records {
		m := toRecordModel(r)
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("parking/mongo: append statistic: %w", err)
		}
	}
	return nil
}

func (s *Store) QueryStatisticsRange(ctx context.Context, from, to time.Time, opts statistic.QueryOpts) ([]*statistic.Record, error) {
	var models []recordModel

	filter := bson.M{
		"timestamp": bson.M{"$gte": from, "$lt": to},
	}
	if opts.Direction != "" {
		filter["direction"] = string(opts.Direction)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "timestamp", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("parking/mongo: query statistics: %w", err)
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return parking.ErrAlreadyExists
		}
		return fmt.Errorf("parking/mongo: create coupon: %w", err)
	}
	return nil
}

func (s *Store) GetCoupon(ctx context.Context, code string) (*coupon.Coupon, error) {
	var m couponModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"code": code}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, parking.ErrCouponNotFound
		}
		return nil, fmt.Errorf("parking/mongo: get coupon: %w", err)
	}
	return fromCouponModel(&m)
}

func (s *Store) GetCouponByID(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	var m couponModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": couponID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, parking.ErrCouponNotFound
		}
		return nil, fmt.Errorf("parking/mongo: get coupon by id: %w", err)
	}
	return fromCouponModel(&m)
}

func (s *Store) ListCoupons(ctx context.Context, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	var models []couponModel

	filter := bson.M{}
	if opts.Active {
		t := time.Now().UTC()
		filter["$and"] = bson.A{
			bson.M{"$or": bson.A{
				bson.M{"valid_from": bson.M{"$exists": false}},
				bson.M{"valid_from": bson.M{"$lte": t}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"valid_until": bson.M{"$exists": false}},
				bson.M{"valid_until": bson.M{"$gt": t}},
			}},
		}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "code", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("parking/mongo: list coupons: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("parking/mongo: update coupon: %w", err)
	}
	if res.MatchedCount() == 0 {
		return parking.ErrCouponNotFound
	}
	return nil
}

func (s *Store) DeleteCoupon(ctx context.Context, couponID id.CouponID) error {
	_, err := s.mdb.NewDelete((*couponModel)(nil)).
		Filter(bson.M{"_id": couponID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("parking/mongo: delete coupon: %w", err)
	}
	return nil
}

// RedeemCoupon mirrors ConsumeSellOut: a filtered $inc that only
// matches while redemptions remain.
func (s *Store) RedeemCoupon(ctx context.Context, couponID id.CouponID) error {
	res, err := s.mdb.NewUpdate((*couponModel)(nil)).
		Filter(bson.M{
			"_id": couponID.String(),
			"$or": bson.A{
				bson.M{"max_redemptions": 0},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$times_redeemed", "$max_redemptions"}}},
			},
		}).
		SetUpdate(bson.M{
			"$inc": bson.M{"times_redeemed": 1},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("parking/mongo: redeem coupon: %w", err)
	}
	if res.MatchedCount() == 0 {
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all parking collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTariffs: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colKeys: {
			{
				Keys:    bson.D{{Key: "token", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "auto_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
			{Keys: bson.D{{Key: "tariff.name", Value: 1}}},
		},
		colSellOuts: {
			{Keys: bson.D{{Key: "start_at", Value: 1}, {Key: "end_at", Value: 1}}},
		},
		colStatistics: {
			{Keys: bson.D{{Key: "timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "direction", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		colCoupons: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
