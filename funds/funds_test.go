package funds_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/leasehold/funds"
	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/types"
)

func TestInMemoryCreditAndBalance(t *testing.T) {
	ctx := context.Background()
	ledger := funds.NewInMemory("usd")
	acct := id.NewAccountID()

	bal, err := ledger.Balance(ctx, acct)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !bal.Equal(types.USD(0)) {
		t.Errorf("fresh account balance: got %v, want %v", bal, types.USD(0))
	}

	if err := ledger.Credit(ctx, acct, types.USD(500)); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := ledger.Credit(ctx, acct, types.USD(250)); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	bal, err = ledger.Balance(ctx, acct)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !bal.Equal(types.USD(750)) {
		t.Errorf("balance after credits: got %v, want %v", bal, types.USD(750))
	}
}

func TestInMemoryDebit(t *testing.T) {
	ctx := context.Background()
	ledger := funds.NewInMemory("usd")
	acct := id.NewAccountID()

	if err := ledger.Credit(ctx, acct, types.USD(100)); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	if err := ledger.Debit(ctx, acct, types.USD(60)); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	if err := ledger.Debit(ctx, acct, types.USD(60)); !errors.Is(err, funds.ErrInsufficientFunds) {
		t.Errorf("overdraw: got %v, want ErrInsufficientFunds", err)
	}

	bal, _ := ledger.Balance(ctx, acct)
	if !bal.Equal(types.USD(40)) {
		t.Errorf("balance after failed debit must be unchanged: got %v, want %v", bal, types.USD(40))
	}
}

func TestInMemoryTransfer(t *testing.T) {
	ctx := context.Background()
	ledger := funds.NewInMemory("usd")
	from := id.NewAccountID()
	to := id.NewAccountID()

	if err := ledger.Credit(ctx, from, types.USD(300)); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	if err := ledger.Transfer(ctx, from, to, types.USD(120)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	fromBal, _ := ledger.Balance(ctx, from)
	toBal, _ := ledger.Balance(ctx, to)
	if !fromBal.Equal(types.USD(180)) {
		t.Errorf("sender balance: got %v, want %v", fromBal, types.USD(180))
	}
	if !toBal.Equal(types.USD(120)) {
		t.Errorf("receiver balance: got %v, want %v", toBal, types.USD(120))
	}

	// A transfer that cannot be funded moves nothing.
	if err := ledger.Transfer(ctx, from, to, types.USD(999)); !errors.Is(err, funds.ErrInsufficientFunds) {
		t.Fatalf("overdraw transfer: got %v, want ErrInsufficientFunds", err)
	}
	fromBal, _ = ledger.Balance(ctx, from)
	toBal, _ = ledger.Balance(ctx, to)
	if !fromBal.Equal(types.USD(180)) || !toBal.Equal(types.USD(120)) {
		t.Errorf("balances changed by failed transfer: from=%v to=%v", fromBal, toBal)
	}
}

func TestInMemoryCurrencyMismatch(t *testing.T) {
	ctx := context.Background()
	ledger := funds.NewInMemory("usd")
	acct := id.NewAccountID()

	if err := ledger.Credit(ctx, acct, types.EUR(100)); !errors.Is(err, funds.ErrCurrencyMismatch) {
		t.Errorf("Credit in wrong currency: got %v, want ErrCurrencyMismatch", err)
	}
	if err := ledger.Debit(ctx, acct, types.EUR(100)); !errors.Is(err, funds.ErrCurrencyMismatch) {
		t.Errorf("Debit in wrong currency: got %v, want ErrCurrencyMismatch", err)
	}
	if err := ledger.Transfer(ctx, acct, id.NewAccountID(), types.EUR(100)); !errors.Is(err, funds.ErrCurrencyMismatch) {
		t.Errorf("Transfer in wrong currency: got %v, want ErrCurrencyMismatch", err)
	}
}
