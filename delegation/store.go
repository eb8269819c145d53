package delegation

import "context"

type Store interface {
	Put(ctx context.Context, d *Delegation) error
	Get(ctx context.Context, serial int64) (*Delegation, error)
	Delete(ctx context.Context, serial int64) error
}
