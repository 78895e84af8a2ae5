package statistic

import (
	"context"
	"time"
)

// Store accumulates gate-crossing records. Append takes a batch so the
// engine can flush its buffer in one call.
type Store interface {
	Append(ctx context.Context, records []*Record) error
	QueryRange(ctx context.Context, from, to time.Time, opts QueryOpts) ([]*Record, error)
	QueryByDate(ctx context.Context, day time.Time, opts QueryOpts) ([]*Record, error)
}

type QueryOpts struct {
	Direction Direction
	Limit     int
	Offset    int
}
