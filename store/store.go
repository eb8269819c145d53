package store

import (
	"context"
	"time"

	"github.com/xraph/leasehold/delegation"
	"github.com/xraph/leasehold/event"
	"github.com/xraph/leasehold/lease"
	"github.com/xraph/leasehold/pass"
)

// Store is the unified storage interface for all Leasehold entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Pass methods
	CreatePass(ctx context.Context, p *pass.Pass) error
	GetPass(ctx context.Context, serial int64) (*pass.Pass, error)
	ListPasses(ctx context.Context, opts pass.ListOpts) ([]*pass.Pass, error)
	UpdatePass(ctx context.Context, p *pass.Pass) error
	DeletePass(ctx context.Context, serial int64) error
	CountPasses(ctx context.Context) (int64, error)

	// Delegation methods
	PutDelegation(ctx context.Context, d *delegation.Delegation) error
	GetDelegation(ctx context.Context, serial int64) (*delegation.Delegation, error)
	DeleteDelegation(ctx context.Context, serial int64) error

	// Lease methods
	PutLease(ctx context.Context, l *lease.Lease) error
	GetLease(ctx context.Context, serial int64) (*lease.Lease, error)
	ListLeases(ctx context.Context, opts lease.ListOpts) ([]*lease.Lease, error)
	DeleteLease(ctx context.Context, serial int64) error

	// Event methods
	AppendEvent(ctx context.Context, rec *event.Record) error
	QueryEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Record, error)
	PurgeEvents(ctx context.Context, before time.Time) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
