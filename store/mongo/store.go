package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	leasehold "github.com/xraph/leasehold"
	"github.com/xraph/leasehold/delegation"
	"github.com/xraph/leasehold/event"
	"github.com/xraph/leasehold/lease"
	"github.com/xraph/leasehold/pass"
	leaseholdstore "github.com/xraph/leasehold/store"
)

// Collection name constants.
const (
	colPasses      = "leasehold_passes"
	colDelegations = "leasehold_delegations"
	colLeases      = "leasehold_leases"
	colEvents      = "leasehold_events"
)

// compile-time interface check
var _ leaseholdstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all leasehold collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("leasehold/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return leasehold.ErrInvalidInput
		}
		return fmt.Errorf("leasehold/mongo: create pass: %w", err)
	}
	return nil
}

func (s *Store) GetPass(ctx context.Context, serial int64) (*pass.Pass, error) {
	var m passModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": serial}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, leasehold.ErrPassNotFound
		}
		return nil, fmt.Errorf("leasehold/mongo: get pass: %w", err)
	}
	return fromPassModel(&m)
}

func (s *Store) ListPasses(ctx context.Context, opts pass.ListOpts) ([]*pass.Pass, error) {
	var models []passModel

	filter := bson.M{}
	if !opts.Owner.IsNil() {
		filter["owner"] = opts.Owner.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("leasehold/mongo: list passes: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Serial}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leasehold/mongo: update pass: %w", err)
	}
	if res.MatchedCount() == 0 {
		return leasehold.ErrPassNotFound
	}
	return nil
}

func (s *Store) DeletePass(ctx context.Context, serial int64) error {
	res, err := s.mdb.NewDelete((*passModel)(nil)).
		Filter(bson.M{"_id": serial}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leasehold/mongo: delete pass: %w", err)
	}
	if res.DeletedCount() == 0 {
		return leasehold.ErrPassNotFound
	}
	return nil
}

func (s *Store) CountPasses(ctx context.Context) (int64, error) {
	total, err := s.mdb.Collection(colPasses).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("leasehold/mongo: count passes: %w", err)
	}
	return total, nil
}

// ==================== Delegation Store ====================

func (s *Store) PutDelegation(ctx context.Context, d *delegation.Delegation) error {
	m := toDelegationModel(d)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Serial}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":           m.Serial,
			"user_account":  m.UserAccount,
			"starts":        m.Starts,
			"expires":       m.Expires,
			"rent_cents":    m.RentCents,
			"rent_currency": m.RentCurrency,
			"created_at":    m.CreatedAt,
			"updated_at":    m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leasehold/mongo: put delegation: %w", err)
	}
	return nil
}

func (s *Store) GetDelegation(ctx context.Context, serial int64) (*delegation.Delegation, error) {
	var m delegationModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": serial}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, leasehold.ErrNotFound
		}
		return nil, fmt.Errorf("leasehold/mongo: get delegation: %w", err)
	}
	return fromDelegationModel(&m)
}

func (s *Store) DeleteDelegation(ctx context.Context, serial int64) error {
	_, err := s.mdb.NewDelete((*delegationModel)(nil)).
		Filter(bson.M{"_id": serial}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leasehold/mongo: delete delegation: %w", err)
	}
	return nil
}

// ==================== Lease Store ====================

func (s *Store) PutLease(ctx context.Context, l *lease.Lease) error {
	m := toLeaseModel(l)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Serial}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":           m.Serial,
			"lister":        m.Lister,
			"rent_cents":    m.RentCents,
			"rent_currency": m.RentCurrency,
			"duration_days": m.DurationDays,
			"created_at":    m.CreatedAt,
			"updated_at":    m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leasehold/mongo: put lease: %w", err)
	}
	return nil
}

func (s *Store) GetLease(ctx context.Context, serial int64) (*lease.Lease, error) {
	var m leaseModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": serial}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, leasehold.ErrNotListed
		}
		return nil, fmt.Errorf("leasehold/mongo: get lease: %w", err)
	}
	return fromLeaseModel(&m)
}

func (s *Store) ListLeases(ctx context.Context, opts lease.ListOpts) ([]*lease.Lease, error) {
	var models []leaseModel

	filter := bson.M{}
	if !opts.Lister.IsNil() {
		filter["lister"] = opts.Lister.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("leasehold/mongo: list leases: %w", err)
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
	res, err := s.mdb.NewDelete((*leaseModel)(nil)).
		Filter(bson.M{"_id": serial}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leasehold/mongo: delete lease: %w", err)
	}
	if res.DeletedCount() == 0 {
		return leasehold.ErrNotListed
	}
	return nil
}

// ==================== Event Store ====================

func (s *Store) AppendEvent(ctx context.Context, rec *event.Record) error {
	m := toEventModel(rec)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("leasehold/mongo: append event: %w", err)
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Record, error) {
	var models []eventModel

	filter := bson.M{}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.Serial != 0 {
		filter["serial"] = opts.Serial
	}
	if !opts.Start.IsZero() {
		if _, ok := filter["occurred_at"]; !ok {
			filter["occurred_at"] = bson.M{}
		}
		if ts, ok := filter["occurred_at"].(bson.M); ok {
			ts["$gte"] = opts.Start
		}
	}
	if !opts.End.IsZero() {
		if _, ok := filter["occurred_at"]; !ok {
			filter["occurred_at"] = bson.M{}
		}
		if ts, ok := filter["occurred_at"].(bson.M); ok {
			ts["$lt"] = opts.End
		}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "occurred_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("leasehold/mongo: query events: %w", err)
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
	res, err := s.mdb.NewDelete((*eventModel)(nil)).
		Filter(bson.M{"occurred_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("leasehold/mongo: purge events: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all leasehold collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPasses: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colDelegations: {
			{Keys: bson.D{{Key: "user_account", Value: 1}}},
			{Keys: bson.D{{Key: "expires", Value: 1}}},
		},
		colLeases: {
			{Keys: bson.D{{Key: "lister", Value: 1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "occurred_at", Value: 1}}},
			{Keys: bson.D{{Key: "serial", Value: 1}, {Key: "occurred_at", Value: 1}}},
			{Keys: bson.D{{Key: "occurred_at", Value: 1}}},
		},
	}
}
