package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/leasehold"
	"github.com/xraph/leasehold/delegation"
	"github.com/xraph/leasehold/event"
	"github.com/xraph/leasehold/lease"
	"github.com/xraph/leasehold/pass"
)

type Store struct {
	mu sync.RWMutex

	// Pass storage, keyed by serial
	passes map[int64]*pass.Pass

	// Delegation storage, one record per serial
	delegations map[int64]*delegation.Delegation

	// Lease listings, one per serial
	leases map[int64]*lease.Lease

	// Append-only event log
	events []event.Record
}

func New() *Store {
	return &Store{
		passes:      make(map[int64]*pass.Pass),
		delegations: make(map[int64]*delegation.Delegation),
		leases:      make(map[int64]*lease.Lease),
		events:      make([]event.Record, 0),
	}
}

// Pass Store implementation
func (s *Store) CreatePass(_ context.Context, p *pass.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.passes[p.Serial]; exists {
		return leasehold.ErrInvalidInput
	}
	cp := *p
	s.passes[p.Serial] = &cp
	return nil
}

func (s *Store) GetPass(_ context.Context, serial int64) (*pass.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.passes[serial]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, leasehold.ErrPassNotFound
}

func (s *Store) ListPasses(_ context.Context, opts pass.ListOpts) ([]*pass.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*pass.Pass, 0)
	for _, p := range s.passes {
		if !opts.Owner.IsNil() && p.Owner.String() != opts.Owner.String() {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Serial < result[j].Serial })

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) UpdatePass(_ context.Context, p *pass.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.passes[p.Serial]; !exists {
		return leasehold.ErrPassNotFound
	}
	cp := *p
	s.passes[p.Serial] = &cp
	return nil
}

func (s *Store) DeletePass(_ context.Context, serial int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.passes[serial]; !exists {
		return leasehold.ErrPassNotFound
	}
	delete(s.passes, serial)
	return nil
}

func (s *Store) CountPasses(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.passes)), nil
}

// Delegation Store implementation
func (s *Store) PutDelegation(_ context.Context, d *delegation.Delegation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	s.delegations[d.Serial] = &cp
	return nil
}

func (s *Store) GetDelegation(_ context.Context, serial int64) (*delegation.Delegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, ok := s.delegations[serial]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, leasehold.ErrNotFound
}

func (s *Store) DeleteDelegation(_ context.Context, serial int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.delegations, serial)
	return nil
}

// Lease Store implementation
func (s *Store) PutLease(_ context.Context, l *lease.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *l
	s.leases[l.Serial] = &cp
	return nil
}

func (s *Store) GetLease(_ context.Context, serial int64) (*lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.leases[serial]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, leasehold.ErrNotListed
}

func (s *Store) ListLeases(_ context.Context, opts lease.ListOpts) ([]*lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*lease.Lease, 0)
	for _, l := range s.leases {
		if !opts.Lister.IsNil() && l.Lister.String() != opts.Lister.String() {
			continue
		}
		cp := *l
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Serial < result[j].Serial })

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) DeleteLease(_ context.Context, serial int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.leases[serial]; !exists {
		return leasehold.ErrNotListed
	}
	delete(s.leases, serial)
	return nil
}

// Event Store implementation
func (s *Store) AppendEvent(_ context.Context, rec *event.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, *rec)
	return nil
}

func (s *Store) QueryEvents(_ context.Context, opts event.QueryOpts) ([]*event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*event.Record, 0)
	for i := range s.events {
		e := &s.events[i]
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if opts.Serial != 0 && e.Serial != opts.Serial {
			continue
		}
		if !opts.Start.IsZero() && e.OccurredAt.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !e.OccurredAt.Before(opts.End) {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) PurgeEvents(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	kept := make([]event.Record, 0)
	for _, e := range s.events {
		if e.OccurredAt.Before(before) {
			count++
		} else {
			kept = append(kept, e)
		}
	}
	s.events = kept
	return count, nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
