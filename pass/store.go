package pass

import (
	"context"

	"github.com/xraph/leasehold/id"
)

type Store interface {
	Create(ctx context.Context, p *Pass) error
	Get(ctx context.Context, serial int64) (*Pass, error)
	List(ctx context.Context, opts ListOpts) ([]*Pass, error)
	Update(ctx context.Context, p *Pass) error
	Count(ctx context.Context) (int64, error)
}

type ListOpts struct {
	Owner  id.AccountID
	Limit  int
	Offset int
}
