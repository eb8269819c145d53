package lease

import (
	"context"

	"github.com/xraph/leasehold/id"
)

type Store interface {
	Put(ctx context.Context, l *Lease) error
	Get(ctx context.Context, serial int64) (*Lease, error)
	List(ctx context.Context, opts ListOpts) ([]*Lease, error)
	Delete(ctx context.Context, serial int64) error
}

type ListOpts struct {
	Lister id.AccountID
	Limit  int
	Offset int
}
