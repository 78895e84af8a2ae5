package postgres

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

	ID           string            `grove:"id,pk"`
	Name         string            `grove:"name"`
	CostCents    int64             `grove:"cost_cents"`
	CostCurrency string            `grove:"cost_currency"`
	Billing      string            `grove:"billing"`
	Metadata     map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt    time.Time         `grove:"created_at"`
	UpdatedAt    time.Time         `grove:"updated_at"`
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

// keyModel flattens the tariff snapshot into the key row so a session
// settles against the tariff it entered with even if the catalog row
// changed or vanished in the meantime.
type keyModel struct {
	grove.BaseModel `grove:"table:parking_keys"`

	ID                 string    `grove:"id,pk"`
	Token              string    `grove:"token"`
	AutoID             string    `grove:"auto_id"`
	TariffID           string    `grove:"tariff_id"`
	TariffName         string    `grove:"tariff_name"`
	TariffCostCents    int64     `grove:"tariff_cost_cents"`
	TariffCostCurrency string    `grove:"tariff_cost_currency"`
	TariffBilling      string    `grove:"tariff_billing"`
	IssuedAt           time.Time `grove:"issued_at"`
}

func toKeyModel(k *key.Key) *keyModel {
	return &keyModel{
		ID:                 k.ID.String(),
		Token:              k.Token,
		AutoID:             k.AutoID,
		TariffID:           k.Tariff.ID.String(),
		TariffName:         k.Tariff.Name,
		TariffCostCents:    k.Tariff.Cost.Amount,
		TariffCostCurrency: k.Tariff.Cost.Currency,
		TariffBilling:      string(k.Tariff.Billing),
		IssuedAt:           k.IssuedAt,
	}
}

func fromKeyModel(m *keyModel) (*key.Key, error) {
	keyID, err := id.ParseKeyID(m.ID)
	if err != nil {
		return nil, err
	}
	tariffID, err := id.ParseTariffID(m.TariffID)
	if err != nil {
		return nil, err
	}

	return &key.Key{
		ID:     keyID,
		Token:  m.Token,
		AutoID: m.AutoID,
		Tariff: tariff.Tariff{
			ID:      tariffID,
			Name:    m.TariffName,
			Cost:    types.Money{Amount: m.TariffCostCents, Currency: m.TariffCostCurrency},
			Billing: tariff.Billing(m.TariffBilling),
		},
		IssuedAt: m.IssuedAt,
	}, nil
}

// ==================== SellOut models ====================

type sellOutModel struct {
	grove.BaseModel `grove:"table:parking_sellouts"`

	ID              string            `grove:"id,pk"`
	Name            string            `grove:"name"`
	Start           time.Time         `grove:"start_at"`
	End             time.Time         `grove:"end_at"`
	Counter         int64             `grove:"counter"`
	Tariffs         []string          `grove:"tariffs,type:jsonb"`
	DiscountType    string            `grove:"discount_type"`
	DiscountPercent int64             `grove:"discount_percent"`
	Metadata        map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time         `grove:"created_at"`
	UpdatedAt       time.Time         `grove:"updated_at"`
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

	ID         string    `grove:"id,pk"`
	Identifier string    `grove:"identifier"`
	Direction  string    `grove:"direction"`
	TariffName string    `grove:"tariff_name"`
	Timestamp  time.Time `grove:"timestamp"`
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

	ID             string            `grove:"id,pk"`
	Code           string            `grove:"code"`
	Name           string            `grove:"name"`
	Type           string            `grove:"type"`
	AmountCents    int64             `grove:"amount_cents"`
	AmountCurrency string            `grove:"amount_currency"`
	Percentage     int64             `grove:"percentage"`
	MaxRedemptions int               `grove:"max_redemptions"`
	TimesRedeemed  int               `grove:"times_redeemed"`
	ValidFrom      *time.Time        `grove:"valid_from"`
	ValidUntil     *time.Time        `grove:"valid_until"`
	Metadata       map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt      time.Time         `grove:"created_at"`
	UpdatedAt      time.Time         `grove:"updated_at"`
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
