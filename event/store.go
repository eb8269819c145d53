package event

import (
	"context"
	"time"
)

type Store interface {
	Append(ctx context.Context, rec *Record) error
	Query(ctx context.Context, opts QueryOpts) ([]*Record, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

type QueryOpts struct {
	Kind   Kind
	Serial int64
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
