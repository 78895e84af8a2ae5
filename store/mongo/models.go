package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/parking/coupon"
	"github.com/xraph/parking/id"
	"github.com/xraph/parking/key"
	"github.com/xraph/parking/sellout"
	"github.com/xraph/parking/statistic"
	"github.com/xraph/parking/tariff"
	"github.com/xraph/parking/types"
)

// ==================== Tariff models ====================

type tariffModel struct {
	grove.BaseModel `grove:"table:parking_tariffs"`

	ID           string            `grove:"id,pk"         bson:"_id"`
	Name         string            `grove:"name"          bson:"name"`
	CostCents    int64             `grove:"cost_cents"    bson:"cost_cents"`
	CostCurrency string            `grove:"cost_currency" bson:"cost_currency"`
	Billing      string            `grove:"billing"       bson:"billing"`
	Metadata     map[string]string `grove:"metadata"      bson:"metadata,omitempty"`
	CreatedAt    time.Time         `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time         `grove:"updated_at"    bson:"updated_at"`
}

func toTariffModel(t *tariff.Tariff) *tariffModel {
	return &tariffModel{
		ID:           t.ID.String(),
		Name:         t.Name,
		CostCents:    t.Cost.Amount,
		CostCurrency: t.Cost.Currency,
		Billing:      string(t.Billing),
		Metadata:     t.Metadata,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func fromTariffModel(m *tariffModel) (*tariff.Tariff, error) {
	tariffID, err := id.ParseTariffID(m.ID)
	if err != nil {
		return nil, err
	}

	return &tariff.Tariff{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       tariffID,
		Name:     m.Name,
		Cost:     types.Money{Amount: m.CostCents, Currency: m.CostCurrency},
		Billing:  tariff.Billing(m.Billing),
		Metadata: m.Metadata,
	}, nil
}

// ==================== Key models ====================

type keyModel struct {
	grove.BaseModel `grove:"table:parking_keys"`

	ID       string         `grove:"id,pk"     bson:"_id"`
	Token    string         `grove:"token"     bson:"token"`
	AutoID   string         `grove:"auto_id"   bson:"auto_id,omitempty"`
	Tariff   keyTariffModel `grove:"tariff"    bson:"tariff"`
	IssuedAt time.Time      `grove:"issued_at" bson:"issued_at"`
}

type keyTariffModel struct {
	ID           string `bson:"id"`
	Name         string `bson:"name"`
	CostCents    int64  `bson:"cost_cents"`
	CostCurrency string `bson:"cost_currency"`
	Billing      string `bson:"billing"`
}

func toKeyModel(k *key.Key) *keyModel {
	return &keyModel{
		ID:     k.ID.String(),
		Token:  k.Token,
		AutoID: k.AutoID,
		Tariff: keyTariffModel{
			ID:           k.Tariff.ID.String(),
			Name:         k.Tariff.Name,
			CostCents:    k.Tariff.Cost.Amount,
			CostCurrency: k.Tariff.Cost.Currency,
			Billing:      string(k.Tariff.Billing),
		},
		IssuedAt: k.IssuedAt,
	}
}

func fromKeyModel(m *keyModel) (*key.Key, error) {
	keyID, err := id.ParseKeyID(m.ID)
	if err != nil {
		return nil, err
	}
	tariffID, err := id.ParseTariffID(m.Tariff.ID)
	if err != nil {
		return nil, err
	}

	return &key.Key{
		ID:     keyID,
		Token:  m.Token,
		AutoID: m.AutoID,
		Tariff: tariff.Tariff{
			ID:      tariffID,
			Name:    m.Tariff.Name,
			Cost:    types.Money{Amount: m.Tariff.CostCents, Currency: m.Tariff.CostCurrency},
			Billing: tariff.Billing(m.Tariff.Billing),
		},
		IssuedAt: m.IssuedAt,
	}, nil
}

// ==================== SellOut models ====================

type sellOutModel struct {
	grove.BaseModel `grove:"table:parking_sellouts"`

	ID              string            `grove:"id,pk"            bson:"_id"`
	Name            string            `grove:"name"             bson:"name"`
	Start           time.Time         `grove:"start_at"         bson:"start_at"`
	End             time.Time         `grove:"end_at"           bson:"end_at"`
	Counter         int64             `grove:"counter"          bson:"counter"`
	Tariffs         []string          `grove:"tariffs"          bson:"tariffs,omitempty"`
	DiscountType    string            `grove:"discount_type"    bson:"discount_type"`
	DiscountPercent int64             `grove:"discount_percent" bson:"discount_percent"`
	Metadata        map[string]string `grove:"metadata"         bson:"metadata,omitempty"`
	CreatedAt       time.Time         `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time         `grove:"updated_at"       bson:"updated_at"`
}

func toSellOutModel(s *sellout.SellOut) *sellOutModel {
	return &sellOutModel{
		ID:              s.ID.String(),
		Name:            s.Name,
		Start:           s.Start,
		End:             s.End,
		Counter:         s.Counter,
		Tariffs:         s.Tariffs,
		DiscountType:    string(s.Discount.Type),
		DiscountPercent: s.Discount.Percent,
		Metadata:        s.Metadata,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromSellOutModel(m *sellOutModel) (*sellout.SellOut, error) {
	sellOutID, err := id.ParseSellOutID(m.ID)
	if err != nil {
		return nil, err
	}

	return &sellout.SellOut{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:      sellOutID,
		Name:    m.Name,
		Start:   m.Start,
		End:     m.End,
		Counter: m.Counter,
		Tariffs: m.Tariffs,
		Discount: sellout.Discount{
			Type:    sellout.DiscountType(m.DiscountType),
			Percent: m.DiscountPercent,
		},
		Metadata: m.Metadata,
	}, nil
}

// ==================== Statistic models ====================

type recordModel struct {
	grove.BaseModel `grove:"table:parking_statistics"`

	ID         string    `grove:"id,pk"       bson:"_id"`
	Identifier string    `grove:"identifier"  bson:"identifier"`
	Direction  string    `grove:"direction"   bson:"direction"`
	TariffName string    `grove:"tariff_name" bson:"tariff_name,omitempty"`
	Timestamp  time.Time `grove:"timestamp"   bson:"timestamp"`
}

func toRecordModel(r *statistic.Record) *recordModel {
	return &recordModel{
		ID:         r.ID.String(),
		Identifier: r.Identifier,
		Direction:  string(r.Direction),
		TariffName: r.TariffName,
		Timestamp:  r.Timestamp,
	}
}

func fromRecordModel(m *recordModel) (*statistic.Record, error) {
	recordID, err := id.ParseRecordID(m.ID)
	if err != nil {
		return nil, err
	}

	return &statistic.Record{
		ID:         recordID,
		Identifier: m.Identifier,
		Direction:  statistic.Direction(m.Direction),
		TariffName: m.TariffName,
		Timestamp:  m.Timestamp,
	}, nil
}

// ==================== Coupon models ====================

type couponModel struct {
	grove.BaseModel `grove:"table:parking_coupons"`

	ID             string            `grove:"id,pk"           bson:"_id"`
	Code           string            `grove:"code"            bson:"code"`
	Name           string            `grove:"name"            bson:"name"`
	Type           string            `grove:"type"            bson:"type"`
	AmountCents    int64             `grove:"amount_cents"    bson:"amount_cents"`
	AmountCurrency string            `grove:"amount_currency" bson:"amount_currency"`
	Percentage     int64             `grove:"percentage"      bson:"percentage"`
	MaxRedemptions int               `grove:"max_redemptions" bson:"max_redemptions"`
	TimesRedeemed  int               `grove:"times_redeemed"  bson:"times_redeemed"`
	ValidFrom      *time.Time        `grove:"valid_from"      bson:"valid_from,omitempty"`
	ValidUntil     *time.Time        `grove:"valid_until"     bson:"valid_until,omitempty"`
	Metadata       map[string]string `grove:"metadata"        bson:"metadata,omitempty"`
	CreatedAt      time.Time         `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time         `grove:"updated_at"      bson:"updated_at"`
}

func toCouponModel(c *coupon.Coupon) *couponModel {
	return &couponModel{
		ID:             c.ID.String(),
		Code:           c.Code,
		Name:           c.Name,
		Type:           string(c.Type),
		AmountCents:    c.Amount.Amount,
		AmountCurrency: c.Amount.Currency,
		Percentage:     c.Percentage,
		MaxRedemptions: c.MaxRedemptions,
		TimesRedeemed:  c.TimesRedeemed,
		ValidFrom:      c.ValidFrom,
		ValidUntil:     c.ValidUntil,
		Metadata:       c.Metadata,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func fromCouponModel(m *couponModel) (*coupon.Coupon, error) {
	couponID, err := id.ParseCouponID(m.ID)
	if err != nil {
		return nil, err
	}

	return &coupon.Coupon{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             couponID,
		Code:           m.Code,
		Name:           m.Name,
		Type:           coupon.CouponType(m.Type),
		Amount:         types.Money{Amount: m.AmountCents, Currency: m.AmountCurrency},
		Percentage:     m.Percentage,
		MaxRedemptions: m.MaxRedemptions,
		TimesRedeemed:  m.TimesRedeemed,
		ValidFrom:      m.ValidFrom,
		ValidUntil:     m.ValidUntil,
		Metadata:       m.Metadata,
	}, nil
}
