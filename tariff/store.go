package tariff

import (
	"context"

	"github.com/xraph/parking/id"
)

type Store interface {
	Create(ctx context.Context, t *Tariff) error
	Get(ctx context.Context, tariffID id.TariffID) (*Tariff, error)
	GetByName(ctx context.Context, name string) (*Tariff, error)
	List(ctx context.Context, opts ListOpts) ([]*Tariff, error)
	Update(ctx context.Context, t *Tariff) error
	Delete(ctx context.Context, tariffID id.TariffID) error
}

type ListOpts struct {
	Billing Billing
	Limit   int
	Offset  int
}
