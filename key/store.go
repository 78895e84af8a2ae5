package key

import (
	"context"

	"github.com/xraph/parking/id"
)

// Store holds the currently open session keys.
//
// Delete reports whether a key was actually removed so that two
// concurrent settlements of the same session resolve deterministically:
// exactly one caller observes removed == true.
type Store interface {
	Add(ctx context.Context, k *Key) error
	Get(ctx context.Context, keyID id.KeyID) (*Key, error)
	GetByToken(ctx context.Context, token string) (*Key, error)
	GetByAutoID(ctx context.Context, autoID string) (*Key, error)
	List(ctx context.Context, opts ListOpts) ([]*Key, error)
	Delete(ctx context.Context, keyID id.KeyID) (removed bool, err error)
}

type ListOpts struct {
	TariffName string
	Limit      int
	Offset     int
}
