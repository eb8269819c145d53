package leasehold

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/xraph/leasehold/delegation"
	"github.com/xraph/leasehold/event"
	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/lease"
	"github.com/xraph/leasehold/types"
)

const (
	// FeePercent is the marketplace cut of every accepted lease, in whole
	// percent. The split truncates toward the fee: fee + owner share always
	// equals the rent exactly.
	FeePercent = 2

	// MinRentalDays is the shortest listable rental period.
	MinRentalDays = 1
)

// Marketplace is the lease marketplace engine. Owners list passes for rent,
// renters accept listings, and the marketplace settles the rent split and
// delegates the usage right as the pass's approved operator.
//
// A Marketplace shares its Registry's store, funds ledger, clock and mutex:
// marketplace and registry operations never interleave.
type Marketplace struct {
	registry *Registry
	logger   *slog.Logger

	account    id.AccountID // identity that must be approved on listed passes
	feeAccount id.AccountID // accumulated marketplace fees
	operator   id.AccountID // privileged withdrawer of fees
}

// NewMarketplace creates a marketplace bound to a registry. The operator
// account is the only caller allowed to withdraw accumulated fees.
func NewMarketplace(r *Registry, operator id.AccountID, opts ...MarketplaceOption) *Marketplace {
	m := &Marketplace{
		registry:   r,
		logger:     r.logger,
		account:    id.NewAccountID(),
		feeAccount: id.NewAccountID(),
		operator:   operator,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// MarketplaceOption configures a Marketplace instance.
type MarketplaceOption func(*Marketplace)

// WithMarketplaceLogger sets the marketplace logger.
func WithMarketplaceLogger(logger *slog.Logger) MarketplaceOption {
	return func(m *Marketplace) {
		m.logger = logger
	}
}

// Account returns the marketplace's operator identity. Owners must approve
// this account on a pass before its listing can be accepted.
func (m *Marketplace) Account() id.AccountID { return m.account }

// FeeAccount returns the internal account accumulating marketplace fees.
func (m *Marketplace) FeeAccount() id.AccountID { return m.feeAccount }

// Operator returns the account allowed to withdraw fees.
func (m *Marketplace) Operator() id.AccountID { return m.operator }

// ──────────────────────────────────────────────────
// Listings
// ──────────────────────────────────────────────────

// CreateLease lists a pass for rent. Only the owner may list; relisting
// overwrites the previous terms.
func (m *Marketplace) CreateLease(ctx context.Context, caller id.AccountID, serial int64, durationDays int64, rent types.Money) error {
	r := m.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.store.GetPass(ctx, serial)
	if err != nil {
		return err
	}
	if !p.IsOwner(caller) {
		return ErrNotOwner
	}
	if durationDays < MinRentalDays {
		return ErrRentalPeriodTooShort
	}
	if !rent.IsPositive() {
		return ErrInvalidInput
	}

	now := r.clock()
	l := &lease.Lease{
		Entity:       types.EntityAt(now),
		Serial:       serial,
		Lister:       caller,
		Rent:         rent,
		DurationDays: durationDays,
	}

	if err := r.store.PutLease(ctx, l); err != nil {
		return err
	}

	r.appendEvent(ctx, &event.Record{
		ID:         id.NewEventID(),
		Kind:       event.KindLeaseCreated,
		Serial:     serial,
		Actor:      caller,
		Amount:     rent,
		OccurredAt: now,
		Metadata:   map[string]string{"duration_days": strconv.FormatInt(durationDays, 10)},
	})
	r.plugins.EmitLeaseCreated(ctx, l)

	m.logger.Info("lease created",
		"serial", serial,
		"lister", caller.String(),
		"rent", rent.String(),
		"duration_days", durationDays,
	)

	return nil
}

// RevokeLease withdraws a listing. Only the pass owner may revoke.
func (m *Marketplace) RevokeLease(ctx context.Context, caller id.AccountID, serial int64) error {
	r := m.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.store.GetPass(ctx, serial)
	if err != nil {
		return err
	}
	if !p.IsOwner(caller) {
		return ErrNotOwner
	}

	if _, err := r.store.GetLease(ctx, serial); err != nil {
		if IsNotFound(err) {
			return ErrNotListed
		}
		return err
	}

	if err := r.store.DeleteLease(ctx, serial); err != nil {
		return err
	}

	now := r.clock()
	r.appendEvent(ctx, &event.Record{
		ID:         id.NewEventID(),
		Kind:       event.KindLeaseRevoked,
		Serial:     serial,
		Actor:      caller,
		OccurredAt: now,
	})
	r.plugins.EmitLeaseRevoked(ctx, serial)

	m.logger.Info("lease revoked", "serial", serial)

	return nil
}

// AcceptLease rents a listed pass. The payment must equal the quoted rent
// exactly. The marketplace keeps FeePercent of the rent and pays the rest
// to the pass's current owner, then delegates the usage right to the caller
// for the listed duration.
//
// Every check happens before any state is written, and funds move only
// after the delegation and listing state are committed. A failed
// settlement reverts both, leaving the listing open.
func (m *Marketplace) AcceptLease(ctx context.Context, caller id.AccountID, serial int64, payment types.Money) error {
	r := m.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.store.GetPass(ctx, serial)
	if err != nil {
		return err
	}
	if p.IsOwner(caller) {
		return ErrSelfRental
	}

	l, err := r.store.GetLease(ctx, serial)
	if err != nil {
		if IsNotFound(err) {
			return ErrNotListed
		}
		return err
	}

	if !p.IsApproved(m.account) {
		return ErrUnapprovedMarketplace
	}
	if !payment.Equal(l.Rent) {
		return ErrIncorrectPayment
	}

	now := r.clock()
	prior, derr := r.store.GetDelegation(ctx, serial)
	if derr != nil && !IsNotFound(derr) {
		return derr
	}
	if derr == nil && prior.ActiveAt(now) {
		return ErrDoubleDelegation
	}

	fee, ownerShare := l.Rent.SplitPercent(FeePercent)
	expires := now.Add(l.Duration())

	// The marketplace settles the rent itself, so the delegation record
	// carries zero escrow: an early revocation refunds nothing here.
	d := &delegation.Delegation{
		Entity:  types.EntityAt(now),
		Serial:  serial,
		User:    caller,
		Starts:  now,
		Expires: expires,
		Rent:    types.Zero(l.Rent.Currency),
	}

	if err := r.store.PutDelegation(ctx, d); err != nil {
		return err
	}
	if err := r.store.DeleteLease(ctx, serial); err != nil {
		r.restoreDelegation(ctx, serial, prior)
		return err
	}

	// A failed settlement reverts the acceptance: the listing comes back,
	// the delegation slot returns to its prior state, and any fee already
	// taken goes back to the renter.
	if fee.IsPositive() {
		if err := r.funds.Transfer(ctx, caller, m.feeAccount, fee); err != nil {
			m.rollbackAcceptance(ctx, serial, prior, l)
			return err
		}
	}
	if err := r.funds.Transfer(ctx, caller, p.Owner, ownerShare); err != nil {
		if fee.IsPositive() {
			if rerr := r.funds.Transfer(ctx, m.feeAccount, caller, fee); rerr != nil {
				m.logger.Error("fee refund failed during rollback",
					"serial", serial,
					"error", rerr,
				)
			}
		}
		m.rollbackAcceptance(ctx, serial, prior, l)
		return err
	}

	r.appendEvent(ctx, &event.Record{
		ID:           id.NewEventID(),
		Kind:         event.KindLeaseAccepted,
		Serial:       serial,
		Actor:        caller,
		Counterparty: p.Owner,
		Amount:       l.Rent,
		OccurredAt:   now,
		Metadata: map[string]string{
			"fee":         fee.FormatMajor(),
			"owner_share": ownerShare.FormatMajor(),
		},
	})
	r.plugins.EmitLeaseAccepted(ctx, l, caller.String(), fee, ownerShare)

	m.logger.Info("lease accepted",
		"serial", serial,
		"renter", caller.String(),
		"rent", l.Rent.String(),
		"fee", fee.String(),
		"owner_share", ownerShare.String(),
		"expires", expires,
	)

	return nil
}

// rollbackAcceptance reinstates the listing and undoes the delegation write.
func (m *Marketplace) rollbackAcceptance(ctx context.Context, serial int64, prior *delegation.Delegation, l *lease.Lease) {
	m.registry.restoreDelegation(ctx, serial, prior)
	if err := m.registry.store.PutLease(ctx, l); err != nil {
		m.logger.Error("listing rollback failed",
			"serial", serial,
			"error", err,
		)
	}
}

// ──────────────────────────────────────────────────
// Queries and funds
// ──────────────────────────────────────────────────

// LeaseFor returns the open listing for a pass, or ErrNotListed.
func (m *Marketplace) LeaseFor(ctx context.Context, serial int64) (*lease.Lease, error) {
	l, err := m.registry.store.GetLease(ctx, serial)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotListed
		}
		return nil, err
	}
	return l, nil
}

// Leases returns open listings matching the query.
func (m *Marketplace) Leases(ctx context.Context, opts lease.ListOpts) ([]*lease.Lease, error) {
	return m.registry.store.ListLeases(ctx, opts)
}

// FeeBalance returns the accumulated, unwithdrawn marketplace fees.
func (m *Marketplace) FeeBalance(ctx context.Context) (types.Money, error) {
	return m.registry.funds.Balance(ctx, m.feeAccount)
}

// WithdrawFunds drains the accumulated fees to the caller. Only the
// configured operator may withdraw.
func (m *Marketplace) WithdrawFunds(ctx context.Context, caller id.AccountID) (types.Money, error) {
	r := m.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller.IsNil() || caller.String() != m.operator.String() {
		return types.Money{}, ErrNotOperator
	}

	balance, err := r.funds.Balance(ctx, m.feeAccount)
	if err != nil {
		return types.Money{}, err
	}

	if balance.IsPositive() {
		if err := r.funds.Transfer(ctx, m.feeAccount, caller, balance); err != nil {
			return types.Money{}, err
		}
	}

	now := r.clock()
	r.appendEvent(ctx, &event.Record{
		ID:         id.NewEventID(),
		Kind:       event.KindFundsWithdrawn,
		Actor:      caller,
		Amount:     balance,
		OccurredAt: now,
	})
	r.plugins.EmitFundsWithdrawn(ctx, caller.String(), balance)

	m.logger.Info("fees withdrawn",
		"operator", caller.String(),
		"amount", balance.String(),
	)

	return balance, nil
}

