package sellout

import (
	"context"
	"time"

	"github.com/xraph/parking/id"
)

// Store persists sell-out promotions.
//
// Consume atomically decrements the counter of the given promotion,
// failing if the counter is already zero. Under concurrent settlements
// a counter of N yields exactly N successful consumptions; the rest
// report an exhausted counter.
type Store interface {
	Create(ctx context.Context, s *SellOut) error
	Get(ctx context.Context, sellOutID id.SellOutID) (*SellOut, error)
	FindActive(ctx context.Context, tariffName string, at time.Time) (*SellOut, error)
	List(ctx context.Context, opts ListOpts) ([]*SellOut, error)
	Update(ctx context.Context, s *SellOut) error
	Delete(ctx context.Context, sellOutID id.SellOutID) error
	Consume(ctx context.Context, sellOutID id.SellOutID) error
}

type ListOpts struct {
	ActiveAt *time.Time
	Limit    int
	Offset   int
}
