package leasehold

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/leasehold/delegation"
	"github.com/xraph/leasehold/event"
	"github.com/xraph/leasehold/funds"
	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/pass"
	"github.com/xraph/leasehold/plugin"
	"github.com/xraph/leasehold/store"
	"github.com/xraph/leasehold/types"
)

// Clock supplies the current time to the engines. Injecting a clock keeps
// every operation on a single time snapshot and lets tests travel forward.
// The returned values must be non-decreasing.
type Clock func() time.Time

// Default issuance parameters, overridable via options.
var (
	DefaultMintPrice = types.USD(200_00)
	DefaultSupplyCap = int64(1000)
)

// Registry is the pass registry engine. It issues passes, tracks ownership
// and per-pass approvals, and manages time-boxed usage delegations.
//
// All mutating operations are serialized by an internal mutex: each call
// observes and commits a consistent ledger state.
type Registry struct {
	store   store.Store
	funds   funds.Ledger
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   Clock

	mu sync.Mutex

	operator id.AccountID // privileged withdrawer of mint proceeds
	proceeds id.AccountID // accumulated mint payments
	escrow   id.AccountID // delegation rents held for refund

	mintPrice types.Money
	supplyCap int64
}

// New creates a new Registry. The operator account is the only caller
// allowed to withdraw accumulated mint proceeds.
func New(s store.Store, fl funds.Ledger, operator id.AccountID, opts ...Option) *Registry {
	r := &Registry{
		store:     s,
		funds:     fl,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		clock:     func() time.Time { return time.Now().UTC() },
		operator:  operator,
		proceeds:  id.NewAccountID(),
		escrow:    id.NewAccountID(),
		mintPrice: DefaultMintPrice,
		supplyCap: DefaultSupplyCap,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Option configures a Registry instance.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
		r.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(r *Registry) {
		_ = r.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithMintPrice sets the minimum payment required to mint a pass.
func WithMintPrice(price types.Money) Option {
	return func(r *Registry) {
		r.mintPrice = price
	}
}

// WithSupplyCap sets the maximum number of passes the registry will issue.
func WithSupplyCap(limit int64) Option {
	return func(r *Registry) {
		r.supplyCap = limit
	}
}

// Start migrates the store and initializes plugins.
func (r *Registry) Start(ctx context.Context) error {
	if err := r.store.Migrate(ctx); err != nil {
		return err
	}

	r.plugins.EmitInit(ctx, r)

	r.logger.Info("registry started",
		"mint_price", r.mintPrice.String(),
		"supply_cap", r.supplyCap,
	)

	return nil
}

// Stop shuts down the Registry and closes the store.
func (r *Registry) Stop() error {
	ctx := context.Background()
	r.plugins.EmitShutdown(ctx)

	return r.store.Close()
}

// Operator returns the account allowed to withdraw mint proceeds.
func (r *Registry) Operator() id.AccountID { return r.operator }

// ProceedsAccount returns the internal account holding mint payments.
func (r *Registry) ProceedsAccount() id.AccountID { return r.proceeds }

// EscrowAccount returns the internal account holding delegation rents.
func (r *Registry) EscrowAccount() id.AccountID { return r.escrow }

// MintPrice returns the configured price floor.
func (r *Registry) MintPrice() types.Money { return r.mintPrice }

// ──────────────────────────────────────────────────
// Issuance and ownership
// ──────────────────────────────────────────────────

// Mint issues the next pass to the caller. The payment must meet the price
// floor and moves into the registry's proceeds account in full.
func (r *Registry) Mint(ctx context.Context, caller id.AccountID, payment types.Money) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller.IsNil() {
		return 0, ErrInvalidInput
	}
	if payment.LessThan(r.mintPrice) {
		return 0, ErrInsufficientPayment
	}

	count, err := r.store.CountPasses(ctx)
	if err != nil {
		return 0, err
	}
	if count >= r.supplyCap {
		return 0, ErrSupplyExhausted
	}

	now := r.clock()
	p := &pass.Pass{
		Entity:    types.EntityAt(now),
		Serial:    count + 1,
		Owner:     caller,
		MintPrice: payment,
	}

	if err := r.store.CreatePass(ctx, p); err != nil {
		return 0, err
	}

	// A failed payment reverts the issuance: the ledgers end exactly as
	// before the call.
	if err := r.funds.Transfer(ctx, caller, r.proceeds, payment); err != nil {
		if derr := r.store.DeletePass(ctx, p.Serial); derr != nil {
			r.logger.Error("mint rollback failed",
				"serial", p.Serial,
				"error", derr,
			)
		}
		return 0, err
	}

	r.appendEvent(ctx, &event.Record{
		ID:         id.NewEventID(),
		Kind:       event.KindPassMinted,
		Serial:     p.Serial,
		Actor:      caller,
		Amount:     payment,
		OccurredAt: now,
	})
	r.plugins.EmitPassMinted(ctx, p)

	r.logger.Info("pass minted",
		"serial", p.Serial,
		"owner", caller.String(),
		"payment", payment.String(),
	)

	return p.Serial, nil
}

// Transfer reassigns ownership of a pass. The caller must be the owner or
// the pass's approved operator, and the pass must not carry an active
// delegation. Transfer clears the approval and any open listing.
func (r *Registry) Transfer(ctx context.Context, caller id.AccountID, serial int64, to id.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if to.IsNil() {
		return ErrInvalidInput
	}

	p, err := r.store.GetPass(ctx, serial)
	if err != nil {
		return err
	}
	if !p.CanOperate(caller) {
		return ErrNotOwnerOrApproved
	}

	now := r.clock()
	d, derr := r.store.GetDelegation(ctx, serial)
	if derr != nil && !IsNotFound(derr) {
		return derr
	}
	if derr == nil && d.ActiveAt(now) {
		return ErrPassInUse
	}

	from := p.Owner
	p.Owner = to
	p.Approved = id.Nil
	p.TouchAt(now)

	if err := r.store.UpdatePass(ctx, p); err != nil {
		return err
	}

	// A listing made by the previous owner is void after the handover.
	if err := r.store.DeleteLease(ctx, serial); err != nil && !IsNotFound(err) {
		return err
	}

	r.appendEvent(ctx, &event.Record{
		ID:           id.NewEventID(),
		Kind:         event.KindPassTransferred,
		Serial:       serial,
		Actor:        from,
		Counterparty: to,
		OccurredAt:   now,
	})
	r.plugins.EmitPassTransferred(ctx, p, from.String(), to.String())

	r.logger.Info("pass transferred",
		"serial", serial,
		"from", from.String(),
		"to", to.String(),
	)

	return nil
}

// Approve records the pass's approved operator. Only the owner may approve;
// passing id.Nil clears the approval.
func (r *Registry) Approve(ctx context.Context, caller id.AccountID, serial int64, operator id.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.store.GetPass(ctx, serial)
	if err != nil {
		return err
	}
	if !p.IsOwner(caller) {
		return ErrNotOwner
	}

	now := r.clock()
	p.Approved = operator
	p.TouchAt(now)

	if err := r.store.UpdatePass(ctx, p); err != nil {
		return err
	}

	r.appendEvent(ctx, &event.Record{
		ID:           id.NewEventID(),
		Kind:         event.KindPassApproved,
		Serial:       serial,
		Actor:        caller,
		Counterparty: operator,
		OccurredAt:   now,
	})

	return nil
}

// ──────────────────────────────────────────────────
// Usage delegation
// ──────────────────────────────────────────────────

// DelegateUsage grants the usage right on a pass to a user until expires.
// The caller must be the owner or the approved operator. When rent is
// positive the payment must equal it exactly; the rent is escrowed and
// refunded to the owner on revocation.
func (r *Registry) DelegateUsage(ctx context.Context, caller id.AccountID, serial int64, user id.AccountID, expires time.Time, rent, payment types.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.IsNil() {
		return ErrInvalidInput
	}

	p, err := r.store.GetPass(ctx, serial)
	if err != nil {
		return err
	}
	if !p.CanOperate(caller) {
		return ErrNotOwnerOrApproved
	}

	now := r.clock()
	if !expires.After(now) {
		return ErrInvalidExpiry
	}

	prior, derr := r.store.GetDelegation(ctx, serial)
	if derr != nil && !IsNotFound(derr) {
		return derr
	}
	if derr == nil && prior.ActiveAt(now) {
		return ErrDoubleDelegation
	}

	if rent.IsPositive() && !payment.Equal(rent) {
		return ErrIncorrectPayment
	}

	d := &delegation.Delegation{
		Entity:  types.EntityAt(now),
		Serial:  serial,
		User:    user,
		Starts:  now,
		Expires: expires,
		Rent:    rent,
	}

	if err := r.store.PutDelegation(ctx, d); err != nil {
		return err
	}

	// The record is only committed once its rent is escrowed: a failed
	// escrow payment reinstates whatever was there before.
	if rent.IsPositive() {
		if err := r.funds.Transfer(ctx, caller, r.escrow, rent); err != nil {
			r.restoreDelegation(ctx, serial, prior)
			return err
		}
	}

	r.appendEvent(ctx, &event.Record{
		ID:           id.NewEventID(),
		Kind:         event.KindUsageDelegated,
		Serial:       serial,
		Actor:        caller,
		Counterparty: user,
		Amount:       rent,
		OccurredAt:   now,
		Metadata:     map[string]string{"expires": expires.UTC().Format(time.RFC3339)},
	})
	r.plugins.EmitUsageDelegated(ctx, d)

	r.logger.Info("usage delegated",
		"serial", serial,
		"user", user.String(),
		"expires", expires,
		"rent", rent.String(),
	)

	return nil
}

// RevokeDelegation clears the delegation record on a pass and refunds the
// escrowed rent to the current owner in full. The record need not still be
// active: a lapsed but uncleared delegation is revocable too.
func (r *Registry) RevokeDelegation(ctx context.Context, caller id.AccountID, serial int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.store.GetPass(ctx, serial)
	if err != nil {
		return err
	}
	if !p.CanOperate(caller) {
		return ErrNotOwnerOrApproved
	}

	d, err := r.store.GetDelegation(ctx, serial)
	if err != nil {
		if IsNotFound(err) {
			return ErrNoActiveDelegation
		}
		return err
	}

	refund := d.Rent

	if err := r.store.DeleteDelegation(ctx, serial); err != nil {
		return err
	}

	// A failed refund reinstates the record: revocation is all or nothing.
	if refund.IsPositive() {
		if err := r.funds.Transfer(ctx, r.escrow, p.Owner, refund); err != nil {
			r.restoreDelegation(ctx, serial, d)
			return err
		}
	}

	now := r.clock()
	r.appendEvent(ctx, &event.Record{
		ID:           id.NewEventID(),
		Kind:         event.KindDelegationRevoked,
		Serial:       serial,
		Actor:        caller,
		Counterparty: d.User,
		Amount:       refund,
		OccurredAt:   now,
	})
	r.plugins.EmitDelegationRevoked(ctx, serial, refund)

	r.logger.Info("delegation revoked",
		"serial", serial,
		"refund", refund.String(),
	)

	return nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// UserOf returns the account currently holding the usage right on a pass,
// or id.Nil when no delegation is live. Expiry is lazy: a lapsed record
// reports id.Nil without being cleared.
func (r *Registry) UserOf(ctx context.Context, serial int64) (id.AccountID, error) {
	d, err := r.store.GetDelegation(ctx, serial)
	if err != nil {
		if IsNotFound(err) {
			return id.Nil, nil
		}
		return id.Nil, err
	}

	if !d.ActiveAt(r.clock()) {
		return id.Nil, nil
	}
	return d.User, nil
}

// UserExpires returns the raw expiry of the delegation record, or the zero
// time when none exists.
func (r *Registry) UserExpires(ctx context.Context, serial int64) (time.Time, error) {
	d, err := r.store.GetDelegation(ctx, serial)
	if err != nil {
		if IsNotFound(err) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return d.Expires, nil
}

// UserStarts returns the raw start of the delegation record, or the zero
// time when none exists.
func (r *Registry) UserStarts(ctx context.Context, serial int64) (time.Time, error) {
	d, err := r.store.GetDelegation(ctx, serial)
	if err != nil {
		if IsNotFound(err) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return d.Starts, nil
}

// UserRent returns the escrowed rent on the delegation record, or a zero
// amount when none exists.
func (r *Registry) UserRent(ctx context.Context, serial int64) (types.Money, error) {
	d, err := r.store.GetDelegation(ctx, serial)
	if err != nil {
		if IsNotFound(err) {
			return types.Zero(r.mintPrice.Currency), nil
		}
		return types.Money{}, err
	}
	return d.Rent, nil
}

// OwnerOf returns the owner of a pass.
func (r *Registry) OwnerOf(ctx context.Context, serial int64) (id.AccountID, error) {
	p, err := r.store.GetPass(ctx, serial)
	if err != nil {
		return id.Nil, err
	}
	return p.Owner, nil
}

// ApprovedFor returns the approved operator of a pass, or id.Nil.
func (r *Registry) ApprovedFor(ctx context.Context, serial int64) (id.AccountID, error) {
	p, err := r.store.GetPass(ctx, serial)
	if err != nil {
		return id.Nil, err
	}
	return p.Approved, nil
}

// GetPass returns the full pass record.
func (r *Registry) GetPass(ctx context.Context, serial int64) (*pass.Pass, error) {
	return r.store.GetPass(ctx, serial)
}

// Supply returns the number of passes issued so far.
func (r *Registry) Supply(ctx context.Context) (int64, error) {
	return r.store.CountPasses(ctx)
}

// Events returns persisted ledger events matching the query.
func (r *Registry) Events(ctx context.Context, opts event.QueryOpts) ([]*event.Record, error) {
	return r.store.QueryEvents(ctx, opts)
}

// ──────────────────────────────────────────────────
// Funds
// ──────────────────────────────────────────────────

// Withdraw drains the accumulated mint proceeds to the caller. Only the
// configured operator may withdraw. Escrowed delegation rents are held in
// a separate account and are never touched.
func (r *Registry) Withdraw(ctx context.Context, caller id.AccountID) (types.Money, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller.IsNil() || caller.String() != r.operator.String() {
		return types.Money{}, ErrNotOperator
	}

	balance, err := r.funds.Balance(ctx, r.proceeds)
	if err != nil {
		return types.Money{}, err
	}

	if balance.IsPositive() {
		if err := r.funds.Transfer(ctx, r.proceeds, caller, balance); err != nil {
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

	r.logger.Info("proceeds withdrawn",
		"operator", caller.String(),
		"amount", balance.String(),
	)

	return balance, nil
}

// restoreDelegation undoes a PutDelegation: it reinstates the prior record,
// or clears the slot when there was none.
func (r *Registry) restoreDelegation(ctx context.Context, serial int64, prior *delegation.Delegation) {
	var err error
	if prior != nil {
		err = r.store.PutDelegation(ctx, prior)
	} else {
		err = r.store.DeleteDelegation(ctx, serial)
	}
	if err != nil {
		r.logger.Error("delegation rollback failed",
			"serial", serial,
			"error", err,
		)
	}
}

// appendEvent persists a ledger event. Event records are an observability
// surface, not ledger state: a failed append is logged, never fatal.
func (r *Registry) appendEvent(ctx context.Context, rec *event.Record) {
	if err := r.store.AppendEvent(ctx, rec); err != nil {
		r.logger.Warn("failed to append event",
			"kind", string(rec.Kind),
			"serial", rec.Serial,
			"error", err,
		)
	}
}
