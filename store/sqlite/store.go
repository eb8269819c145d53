package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	leasehold "github.com/xraph/leasehold"
	"github.com/xraph/leasehold/delegation"
	"github.com/xraph/leasehold/event"
	"github.com/xraph/leasehold/lease"
	"github.com/xraph/leasehold/pass"
	leaseholdstore "github.com/xraph/leasehold/store"
)

// compile-time interface check
var _ leaseholdstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("leasehold/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("leasehold/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Pass Store ====================

func (s *Store) CreatePass(ctx context.Context, p *pass.Pass) error {
	m := toPassModel(p)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetPass(ctx context.Context, serial int64) (*pass.Pass, error) {
	m := new(passModel)
	err := s.sdb.NewSelect(m).
		Where("serial = ?", serial).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, leasehold.ErrPassNotFound
		}
		return nil, err
	}
	return fromPassModel(m)
}

func (s *Store) ListPasses(ctx context.Context, opts pass.ListOpts) ([]*pass.Pass, error) {
	var models []passModel
	q := s.sdb.NewSelect(&models)

	if !opts.Owner.IsNil() {
		q = q.Where("owner = ?", opts.Owner.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("serial ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*pass.Pass, len(models))
	for i := range models {
		p, err := fromPassModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdatePass(ctx context.Context, p *pass.Pass) error {
	m := toPassModel(p)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return leasehold.ErrPassNotFound
	}
	return nil
}

func (s *Store) DeletePass(ctx context.Context, serial int64) error {
	res, err := s.sdb.NewDelete((*passModel)(nil)).
		Where("serial = ?", serial).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return leasehold.ErrPassNotFound
	}
	return nil
}

func (s *Store) CountPasses(ctx context.Context) (int64, error) {
	var total int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM leasehold_passes`).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ==================== Delegation Store ====================

func (s *Store) PutDelegation(ctx context.Context, d *delegation.Delegation) error {
	m := toDelegationModel(d)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(serial) DO UPDATE").
		Set("user_account = EXCLUDED.user_account").
		Set("starts = EXCLUDED.starts").
		Set("expires = EXCLUDED.expires").
		Set("rent_cents = EXCLUDED.rent_cents").
		Set("rent_currency = EXCLUDED.rent_currency").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetDelegation(ctx context.Context, serial int64) (*delegation.Delegation, error) {
	m := new(delegationModel)
	err := s.sdb.NewSelect(m).
		Where("serial = ?", serial).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, leasehold.ErrNotFound
		}
		return nil, err
	}
	return fromDelegationModel(m)
}

func (s *Store) DeleteDelegation(ctx context.Context, serial int64) error {
	_, err := s.sdb.NewDelete((*delegationModel)(nil)).
		Where("serial = ?", serial).
		Exec(ctx)
	return err
}

// ==================== Lease Store ====================

func (s *Store) PutLease(ctx context.Context, l *lease.Lease) error {
	m := toLeaseModel(l)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(serial) DO UPDATE").
		Set("lister = EXCLUDED.lister").
		Set("rent_cents = EXCLUDED.rent_cents").
		Set("rent_currency = EXCLUDED.rent_currency").
		Set("duration_days = EXCLUDED.duration_days").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetLease(ctx context.Context, serial int64) (*lease.Lease, error) {
	m := new(leaseModel)
	err := s.sdb.NewSelect(m).
		Where("serial = ?", serial).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, leasehold.ErrNotListed
		}
		return nil, err
	}
	return fromLeaseModel(m)
}

func (s *Store) ListLeases(ctx context.Context, opts lease.ListOpts) ([]*lease.Lease, error) {
	var models []leaseModel
	q := s.sdb.NewSelect(&models)

	if !opts.Lister.IsNil() {
		q = q.Where("lister = ?", opts.Lister.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("serial ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*lease.Lease, len(models))
	for i := range models {
		l, err := fromLeaseModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = l
	}
	return result, nil
}

func (s *Store) DeleteLease(ctx context.Context, serial int64) error {
	res, err := s.sdb.NewDelete((*leaseModel)(nil)).
		Where("serial = ?", serial).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return leasehold.ErrNotListed
	}
	return nil
}

// ==================== Event Store ====================

func (s *Store) AppendEvent(ctx context.Context, rec *event.Record) error {
	m := toEventModel(rec)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) QueryEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Record, error) {
	var models []eventModel
	q := s.sdb.NewSelect(&models)

	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if opts.Serial != 0 {
		q = q.Where("serial = ?", opts.Serial)
	}
	if !opts.Start.IsZero() {
		q = q.Where("occurred_at >= ?", opts.Start)
	}
	if !opts.End.IsZero() {
		q = q.Where("occurred_at < ?", opts.End)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("occurred_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*event.Record, len(models))
	for i := range models {
		rec, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = rec
	}
	return result, nil
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*eventModel)(nil)).
		Where("occurred_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
