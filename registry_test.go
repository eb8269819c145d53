package leasehold_test

import (
	"context"
	"errors"
	"testing"
	"time"

	leasehold "github.com/xraph/leasehold"
	"github.com/xraph/leasehold/delegation"
	"github.com/xraph/leasehold/event"
	"github.com/xraph/leasehold/funds"
	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/store"
	"github.com/xraph/leasehold/store/memory"
	"github.com/xraph/leasehold/types"
)

var errLedgerDown = errors.New("ledger unavailable")

// flakyLedger wraps a Ledger and fails transfers touching the configured
// accounts. Used to exercise rollback on fund-movement failure.
type flakyLedger struct {
	funds.Ledger
	failFrom id.AccountID
	failTo   id.AccountID
}

func (f *flakyLedger) Transfer(ctx context.Context, from, to id.AccountID, amount types.Money) error {
	if !f.failFrom.IsNil() && from.String() == f.failFrom.String() {
		return errLedgerDown
	}
	if !f.failTo.IsNil() && to.String() == f.failTo.String() {
		return errLedgerDown
	}
	return f.Ledger.Transfer(ctx, from, to, amount)
}

var errStoreDown = errors.New("store unavailable")

// faultyDelegationStore fails every delegation read with a backend error.
type faultyDelegationStore struct {
	store.Store
}

func (s *faultyDelegationStore) GetDelegation(context.Context, int64) (*delegation.Delegation, error) {
	return nil, errStoreDown
}

// fixture wires a registry against in-process backends with a controllable
// clock. Advance moves time forward for lazy-expiry scenarios.
type fixture struct {
	registry *leasehold.Registry
	funds    *funds.InMemory
	operator id.AccountID
	now      time.Time
}

func newFixture(t *testing.T, opts ...leasehold.Option) *fixture {
	t.Helper()

	f := &fixture{
		funds:    funds.NewInMemory("usd"),
		operator: id.NewAccountID(),
		now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	all := append([]leasehold.Option{
		leasehold.WithClock(func() time.Time { return f.now }),
	}, opts...)

	f.registry = leasehold.New(memory.New(), f.funds, f.operator, all...)

	if err := f.registry.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return f
}

func (f *fixture) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// fund creates an account holding the given amount.
func (f *fixture) fund(t *testing.T, amount types.Money) id.AccountID {
	t.Helper()
	account := id.NewAccountID()
	if err := f.funds.Credit(context.Background(), account, amount); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	return account
}

func (f *fixture) balance(t *testing.T, account id.AccountID) types.Money {
	t.Helper()
	b, err := f.funds.Balance(context.Background(), account)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	return b
}

func (f *fixture) mint(t *testing.T, owner id.AccountID) int64 {
	t.Helper()
	serial, err := f.registry.Mint(context.Background(), owner, f.registry.MintPrice())
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	return serial
}

// ──────────────────────────────────────────────────
// Issuance
// ──────────────────────────────────────────────────

func TestMintAssignsSequentialSerials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		buyer := f.fund(t, types.USD(200_00))
		serial, err := f.registry.Mint(ctx, buyer, types.USD(200_00))
		if err != nil {
			t.Fatalf("Mint() error = %v", err)
		}
		if serial != want {
			t.Errorf("Mint() serial = %d, want %d", serial, want)
		}

		owner, err := f.registry.OwnerOf(ctx, serial)
		if err != nil {
			t.Fatalf("OwnerOf() error = %v", err)
		}
		if owner.String() != buyer.String() {
			t.Errorf("OwnerOf() = %s, want %s", owner, buyer)
		}
	}

	supply, err := f.registry.Supply(ctx)
	if err != nil {
		t.Fatalf("Supply() error = %v", err)
	}
	if supply != 3 {
		t.Errorf("Supply() = %d, want 3", supply)
	}
}

func TestMintRejectsUnderpayment(t *testing.T) {
	f := newFixture(t)
	buyer := f.fund(t, types.USD(200_00))

	_, err := f.registry.Mint(context.Background(), buyer, types.USD(199_99))
	if !errors.Is(err, leasehold.ErrInsufficientPayment) {
		t.Errorf("Mint() error = %v, want ErrInsufficientPayment", err)
	}
}

func TestMintAcceptsOverpayment(t *testing.T) {
	f := newFixture(t)
	buyer := f.fund(t, types.USD(300_00))

	serial, err := f.registry.Mint(context.Background(), buyer, types.USD(300_00))
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if serial != 1 {
		t.Errorf("Mint() serial = %d, want 1", serial)
	}

	// The whole payment moves to proceeds, not just the floor.
	if got := f.balance(t, f.registry.ProceedsAccount()); !got.Equal(types.USD(300_00)) {
		t.Errorf("proceeds = %s, want %s", got, types.USD(300_00))
	}
}

func TestMintEnforcesSupplyCap(t *testing.T) {
	f := newFixture(t, leasehold.WithSupplyCap(1))
	ctx := context.Background()

	first := f.fund(t, types.USD(200_00))
	if _, err := f.registry.Mint(ctx, first, types.USD(200_00)); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	second := f.fund(t, types.USD(200_00))
	_, err := f.registry.Mint(ctx, second, types.USD(200_00))
	if !errors.Is(err, leasehold.ErrSupplyExhausted) {
		t.Errorf("Mint() error = %v, want ErrSupplyExhausted", err)
	}
}

func TestMintRecordsEvent(t *testing.T) {
	f := newFixture(t)
	buyer := f.fund(t, types.USD(200_00))
	serial := f.mint(t, buyer)

	events, err := f.registry.Events(context.Background(), event.QueryOpts{Kind: event.KindPassMinted})
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Events() returned %d records, want 1", len(events))
	}
	if events[0].Serial != serial {
		t.Errorf("event serial = %d, want %d", events[0].Serial, serial)
	}
	if events[0].Actor.String() != buyer.String() {
		t.Errorf("event actor = %s, want %s", events[0].Actor, buyer)
	}
}

// ──────────────────────────────────────────────────
// Ownership and approval
// ──────────────────────────────────────────────────

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)
	recipient := id.NewAccountID()

	if err := f.registry.Transfer(ctx, owner, serial, recipient); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	got, err := f.registry.OwnerOf(ctx, serial)
	if err != nil {
		t.Fatalf("OwnerOf() error = %v", err)
	}
	if got.String() != recipient.String() {
		t.Errorf("OwnerOf() = %s, want %s", got, recipient)
	}
}

func TestTransferRejectsStranger(t *testing.T) {
	f := newFixture(t)

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)

	stranger := id.NewAccountID()
	err := f.registry.Transfer(context.Background(), stranger, serial, id.NewAccountID())
	if !errors.Is(err, leasehold.ErrNotOwnerOrApproved) {
		t.Errorf("Transfer() error = %v, want ErrNotOwnerOrApproved", err)
	}
}

func TestTransferClearsApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)
	approved := id.NewAccountID()

	if err := f.registry.Approve(ctx, owner, serial, approved); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if err := f.registry.Transfer(ctx, owner, serial, id.NewAccountID()); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	got, err := f.registry.ApprovedFor(ctx, serial)
	if err != nil {
		t.Fatalf("ApprovedFor() error = %v", err)
	}
	if !got.IsNil() {
		t.Errorf("ApprovedFor() = %s, want nil after transfer", got)
	}
}

func TestTransferBlockedWhileDelegated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)
	user := id.NewAccountID()

	expires := f.now.Add(24 * time.Hour)
	if err := f.registry.DelegateUsage(ctx, owner, serial, user, expires, types.Zero("usd"), types.Zero("usd")); err != nil {
		t.Fatalf("DelegateUsage() error = %v", err)
	}

	err := f.registry.Transfer(ctx, owner, serial, id.NewAccountID())
	if !errors.Is(err, leasehold.ErrPassInUse) {
		t.Errorf("Transfer() error = %v, want ErrPassInUse", err)
	}

	// Once the delegation lapses the pass moves freely again.
	f.Advance(25 * time.Hour)
	if err := f.registry.Transfer(ctx, owner, serial, id.NewAccountID()); err != nil {
		t.Errorf("Transfer() after expiry error = %v", err)
	}
}

func TestApproveOwnerOnly(t *testing.T) {
	f := newFixture(t)

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)

	err := f.registry.Approve(context.Background(), id.NewAccountID(), serial, id.NewAccountID())
	if !errors.Is(err, leasehold.ErrNotOwner) {
		t.Errorf("Approve() error = %v, want ErrNotOwner", err)
	}
}

func TestApprovedOperatorCanTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)
	operator := id.NewAccountID()

	if err := f.registry.Approve(ctx, owner, serial, operator); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	recipient := id.NewAccountID()
	if err := f.registry.Transfer(ctx, operator, serial, recipient); err != nil {
		t.Fatalf("Transfer() by approved operator error = %v", err)
	}

	got, err := f.registry.OwnerOf(ctx, serial)
	if err != nil {
		t.Fatalf("OwnerOf() error = %v", err)
	}
	if got.String() != recipient.String() {
		t.Errorf("OwnerOf() = %s, want %s", got, recipient)
	}
}

// ──────────────────────────────────────────────────
// Usage delegation
// ──────────────────────────────────────────────────

func TestDelegateUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)
	user := id.NewAccountID()

	expires := f.now.Add(7 * 24 * time.Hour)
	if err := f.registry.DelegateUsage(ctx, owner, serial, user, expires, types.Zero("usd"), types.Zero("usd")); err != nil {
		t.Fatalf("DelegateUsage() error = %v", err)
	}

	got, err := f.registry.UserOf(ctx, serial)
	if err != nil {
		t.Fatalf("UserOf() error = %v", err)
	}
	if got.String() != user.String() {
		t.Errorf("UserOf() = %s, want %s", got, user)
	}

	gotExpires, err := f.registry.UserExpires(ctx, serial)
	if err != nil {
		t.Fatalf("UserExpires() error = %v", err)
	}
	if !gotExpires.Equal(expires) {
		t.Errorf("UserExpires() = %v, want %v", gotExpires, expires)
	}
}

func TestDelegateUsageRejectsPastExpiry(t *testing.T) {
	f := newFixture(t)

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)

	err := f.registry.DelegateUsage(context.Background(), owner, serial, id.NewAccountID(), f.now, types.Zero("usd"), types.Zero("usd"))
	if !errors.Is(err, leasehold.ErrInvalidExpiry) {
		t.Errorf("DelegateUsage() error = %v, want ErrInvalidExpiry", err)
	}
}

func TestDelegateUsageRejectsDoubleDelegation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)

	expires := f.now.Add(24 * time.Hour)
	if err := f.registry.DelegateUsage(ctx, owner, serial, id.NewAccountID(), expires, types.Zero("usd"), types.Zero("usd")); err != nil {
		t.Fatalf("DelegateUsage() error = %v", err)
	}

	err := f.registry.DelegateUsage(ctx, owner, serial, id.NewAccountID(), expires, types.Zero("usd"), types.Zero("usd"))
	if !errors.Is(err, leasehold.ErrDoubleDelegation) {
		t.Errorf("DelegateUsage() error = %v, want ErrDoubleDelegation", err)
	}
}

func TestDelegateUsageAllowedAfterLapse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)

	if err := f.registry.DelegateUsage(ctx, owner, serial, id.NewAccountID(), f.now.Add(time.Hour), types.Zero("usd"), types.Zero("usd")); err != nil {
		t.Fatalf("DelegateUsage() error = %v", err)
	}

	// Nothing clears the lapsed record, but a fresh grant overwrites it.
	f.Advance(2 * time.Hour)
	user := id.NewAccountID()
	if err := f.registry.DelegateUsage(ctx, owner, serial, user, f.now.Add(time.Hour), types.Zero("usd"), types.Zero("usd")); err != nil {
		t.Fatalf("DelegateUsage() after lapse error = %v", err)
	}

	got, err := f.registry.UserOf(ctx, serial)
	if err != nil {
		t.Fatalf("UserOf() error = %v", err)
	}
	if got.String() != user.String() {
		t.Errorf("UserOf() = %s, want %s", got, user)
	}
}

func TestDelegateUsageRequiresExactRentPayment(t *testing.T) {
	f := newFixture(t)

	owner := f.fund(t, types.USD(500_00))
	serial := f.mint(t, owner)

	rent := types.USD(50_00)
	err := f.registry.DelegateUsage(context.Background(), owner, serial, id.NewAccountID(), f.now.Add(time.Hour), rent, types.USD(49_99))
	if !errors.Is(err, leasehold.ErrIncorrectPayment) {
		t.Errorf("DelegateUsage() error = %v, want ErrIncorrectPayment", err)
	}
}

func TestDelegationLazyExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)
	user := id.NewAccountID()

	expires := f.now.Add(time.Hour)
	if err := f.registry.DelegateUsage(ctx, owner, serial, user, expires, types.Zero("usd"), types.Zero("usd")); err != nil {
		t.Fatalf("DelegateUsage() error = %v", err)
	}

	// Active through the expiry instant inclusive.
	f.Advance(time.Hour)
	got, err := f.registry.UserOf(ctx, serial)
	if err != nil {
		t.Fatalf("UserOf() error = %v", err)
	}
	if got.String() != user.String() {
		t.Errorf("UserOf() at expiry = %s, want %s", got, user)
	}

	// One tick past and the right is gone, without any write.
	f.Advance(time.Second)
	got, err = f.registry.UserOf(ctx, serial)
	if err != nil {
		t.Fatalf("UserOf() error = %v", err)
	}
	if !got.IsNil() {
		t.Errorf("UserOf() past expiry = %s, want nil", got)
	}

	// The raw record is still queryable.
	gotExpires, err := f.registry.UserExpires(ctx, serial)
	if err != nil {
		t.Fatalf("UserExpires() error = %v", err)
	}
	if !gotExpires.Equal(expires) {
		t.Errorf("UserExpires() = %v, want %v", gotExpires, expires)
	}
}

func TestRevokeDelegationRefundsEscrow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)

	rent := types.USD(50_00)
	payer := f.fund(t, rent)
	if err := f.registry.DelegateUsage(ctx, payer, serial, id.NewAccountID(), f.now.Add(time.Hour), rent, rent); err == nil {
		t.Fatal("DelegateUsage() by stranger should fail")
	}

	// The owner delegates with rent escrowed from their own account.
	if err := f.funds.Credit(ctx, owner, rent); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if err := f.registry.DelegateUsage(ctx, owner, serial, id.NewAccountID(), f.now.Add(time.Hour), rent, rent); err != nil {
		t.Fatalf("DelegateUsage() error = %v", err)
	}
	if got := f.balance(t, f.registry.EscrowAccount()); !got.Equal(rent) {
		t.Fatalf("escrow = %s, want %s", got, rent)
	}

	if err := f.registry.RevokeDelegation(ctx, owner, serial); err != nil {
		t.Fatalf("RevokeDelegation() error = %v", err)
	}

	if got := f.balance(t, f.registry.EscrowAccount()); got.IsPositive() {
		t.Errorf("escrow after revoke = %s, want zero", got)
	}
	if got := f.balance(t, owner); !got.Equal(rent) {
		t.Errorf("owner balance after refund = %s, want %s", got, rent)
	}

	user, err := f.registry.UserOf(ctx, serial)
	if err != nil {
		t.Fatalf("UserOf() error = %v", err)
	}
	if !user.IsNil() {
		t.Errorf("UserOf() after revoke = %s, want nil", user)
	}
}

func TestRevokeDelegationWithoutRecord(t *testing.T) {
	f := newFixture(t)

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)

	err := f.registry.RevokeDelegation(context.Background(), owner, serial)
	if !errors.Is(err, leasehold.ErrNoActiveDelegation) {
		t.Errorf("RevokeDelegation() error = %v, want ErrNoActiveDelegation", err)
	}
}

// ──────────────────────────────────────────────────
// Atomicity on failure paths
// ──────────────────────────────────────────────────

func TestMintRevertsOnPaymentFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The buyer holds nothing, so the payment transfer fails after the
	// pass row is written. The issuance must be rolled back in full.
	broke := id.NewAccountID()
	_, err := f.registry.Mint(ctx, broke, types.USD(200_00))
	if !errors.Is(err, funds.ErrInsufficientFunds) {
		t.Fatalf("Mint() error = %v, want ErrInsufficientFunds", err)
	}

	supply, err := f.registry.Supply(ctx)
	if err != nil {
		t.Fatalf("Supply() error = %v", err)
	}
	if supply != 0 {
		t.Errorf("Supply() after failed mint = %d, want 0", supply)
	}
	if _, err := f.registry.OwnerOf(ctx, 1); !errors.Is(err, leasehold.ErrPassNotFound) {
		t.Errorf("OwnerOf() after failed mint error = %v, want ErrPassNotFound", err)
	}
	if got := f.balance(t, f.registry.ProceedsAccount()); got.IsPositive() {
		t.Errorf("proceeds after failed mint = %s, want zero", got)
	}

	// Serial 1 is still available to the next funded buyer.
	buyer := f.fund(t, types.USD(200_00))
	serial, err := f.registry.Mint(ctx, buyer, types.USD(200_00))
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if serial != 1 {
		t.Errorf("Mint() serial = %d, want 1", serial)
	}
}

func TestDelegateUsageRevertsOnPaymentFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(200_00))
	serial := f.mint(t, owner)

	// The mint drained the owner, so escrowing the rent fails after the
	// delegation record is written.
	rent := types.USD(50_00)
	err := f.registry.DelegateUsage(ctx, owner, serial, id.NewAccountID(), f.now.Add(time.Hour), rent, rent)
	if !errors.Is(err, funds.ErrInsufficientFunds) {
		t.Fatalf("DelegateUsage() error = %v, want ErrInsufficientFunds", err)
	}

	user, err := f.registry.UserOf(ctx, serial)
	if err != nil {
		t.Fatalf("UserOf() error = %v", err)
	}
	if !user.IsNil() {
		t.Errorf("UserOf() after failed delegation = %s, want nil", user)
	}
	if got := f.balance(t, f.registry.EscrowAccount()); got.IsPositive() {
		t.Errorf("escrow after failed delegation = %s, want zero", got)
	}
	if err := f.registry.RevokeDelegation(ctx, owner, serial); !errors.Is(err, leasehold.ErrNoActiveDelegation) {
		t.Errorf("RevokeDelegation() error = %v, want ErrNoActiveDelegation", err)
	}
}

func TestDelegateUsageRestoresLapsedRecordOnPaymentFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.fund(t, types.USD(250_00))
	serial := f.mint(t, owner)

	rent := types.USD(50_00)
	expires := f.now.Add(time.Hour)
	if err := f.registry.DelegateUsage(ctx, owner, serial, id.NewAccountID(), expires, rent, rent); err != nil {
		t.Fatalf("DelegateUsage() error = %v", err)
	}

	// The first grant lapses with its rent still escrowed. A fresh grant
	// whose payment fails must leave the lapsed record (and its escrow
	// claim) untouched.
	f.Advance(2 * time.Hour)
	err := f.registry.DelegateUsage(ctx, owner, serial, id.NewAccountID(), f.now.Add(time.Hour), types.USD(30_00), types.USD(30_00))
	if !errors.Is(err, funds.ErrInsufficientFunds) {
		t.Fatalf("DelegateUsage() error = %v, want ErrInsufficientFunds", err)
	}

	gotExpires, err := f.registry.UserExpires(ctx, serial)
	if err != nil {
		t.Fatalf("UserExpires() error = %v", err)
	}
	if !gotExpires.Equal(expires) {
		t.Errorf("UserExpires() = %v, want original %v", gotExpires, expires)
	}

	// Revoking the restored record still refunds its full escrowed rent.
	if err := f.registry.RevokeDelegation(ctx, owner, serial); err != nil {
		t.Fatalf("RevokeDelegation() error = %v", err)
	}
	if got := f.balance(t, owner); !got.Equal(rent) {
		t.Errorf("owner balance after refund = %s, want %s", got, rent)
	}
}

func TestRevokeDelegationKeepsRecordOnRefundFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	inner := funds.NewInMemory("usd")
	fl := &flakyLedger{Ledger: inner}
	operator := id.NewAccountID()
	r := leasehold.New(memory.New(), fl, operator,
		leasehold.WithClock(func() time.Time { return now }),
	)
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	owner := id.NewAccountID()
	if err := inner.Credit(ctx, owner, types.USD(250_00)); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	serial, err := r.Mint(ctx, owner, types.USD(200_00))
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	rent := types.USD(50_00)
	user := id.NewAccountID()
	if err := r.DelegateUsage(ctx, owner, serial, user, now.Add(time.Hour), rent, rent); err != nil {
		t.Fatalf("DelegateUsage() error = %v", err)
	}

	// The refund transfer out of escrow fails, so the record must survive.
	fl.failFrom = r.EscrowAccount()
	if err := r.RevokeDelegation(ctx, owner, serial); !errors.Is(err, errLedgerDown) {
		t.Fatalf("RevokeDelegation() error = %v, want ledger failure", err)
	}

	got, err := r.UserOf(ctx, serial)
	if err != nil {
		t.Fatalf("UserOf() error = %v", err)
	}
	if got.String() != user.String() {
		t.Errorf("UserOf() after failed revoke = %s, want %s", got, user)
	}

	// Once the ledger recovers, revocation completes with the exact refund.
	fl.failFrom = id.Nil
	if err := r.RevokeDelegation(ctx, owner, serial); err != nil {
		t.Fatalf("RevokeDelegation() retry error = %v", err)
	}
	bal, err := inner.Balance(ctx, owner)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if !bal.Equal(rent) {
		t.Errorf("owner balance after refund = %s, want %s", bal, rent)
	}
}

func TestDelegationReadFailuresSurface(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	fl := funds.NewInMemory("usd")
	st := &faultyDelegationStore{Store: memory.New()}
	operator := id.NewAccountID()
	r := leasehold.New(st, fl, operator,
		leasehold.WithClock(func() time.Time { return now }),
	)
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	owner := id.NewAccountID()
	if err := fl.Credit(ctx, owner, types.USD(200_00)); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	serial, err := r.Mint(ctx, owner, types.USD(200_00))
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	// A failing delegation read must block the transfer, not pass as
	// "no active delegation".
	if err := r.Transfer(ctx, owner, serial, id.NewAccountID()); !errors.Is(err, errStoreDown) {
		t.Errorf("Transfer() error = %v, want store failure", err)
	}
	free := types.Zero("usd")
	if err := r.DelegateUsage(ctx, owner, serial, id.NewAccountID(), now.Add(time.Hour), free, free); !errors.Is(err, errStoreDown) {
		t.Errorf("DelegateUsage() error = %v, want store failure", err)
	}
}

// ──────────────────────────────────────────────────
// Withdrawals
// ──────────────────────────────────────────────────

func TestWithdrawOperatorOnly(t *testing.T) {
	f := newFixture(t)

	buyer := f.fund(t, types.USD(200_00))
	f.mint(t, buyer)

	_, err := f.registry.Withdraw(context.Background(), id.NewAccountID())
	if !errors.Is(err, leasehold.ErrNotOperator) {
		t.Errorf("Withdraw() error = %v, want ErrNotOperator", err)
	}
}

func TestWithdrawDrainsProceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		buyer := f.fund(t, types.USD(200_00))
		f.mint(t, buyer)
	}

	got, err := f.registry.Withdraw(ctx, f.operator)
	if err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}
	if !got.Equal(types.USD(400_00)) {
		t.Errorf("Withdraw() = %s, want %s", got, types.USD(400_00))
	}

	if b := f.balance(t, f.operator); !b.Equal(types.USD(400_00)) {
		t.Errorf("operator balance = %s, want %s", b, types.USD(400_00))
	}
	if b := f.balance(t, f.registry.ProceedsAccount()); b.IsPositive() {
		t.Errorf("proceeds after withdraw = %s, want zero", b)
	}

	// A second withdrawal finds nothing.
	got, err = f.registry.Withdraw(ctx, f.operator)
	if err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}
	if got.IsPositive() {
		t.Errorf("second Withdraw() = %s, want zero", got)
	}
}
