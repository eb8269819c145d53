// Package funds abstracts the host platform's fund movement primitive.
//
// The registry and marketplace never hold balances themselves. Every payment,
// escrow, refund and withdrawal is expressed as a transfer between accounts
// on a Ledger the host injects. Implementations decide what an account
// balance actually is (a database row, a payment provider, a test map).
package funds

import (
	"context"
	"errors"

	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/types"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the account balance.
	ErrInsufficientFunds = errors.New("funds: insufficient funds")

	// ErrCurrencyMismatch is returned when an amount's currency does not match
	// the ledger's settlement currency.
	ErrCurrencyMismatch = errors.New("funds: currency mismatch")
)

// Ledger moves value between accounts. Implementations must apply each call
// atomically: a Transfer either moves the full amount or nothing.
type Ledger interface {
	// Credit adds amount to the account balance.
	Credit(ctx context.Context, account id.AccountID, amount types.Money) error

	// Debit removes amount from the account balance.
	// Returns ErrInsufficientFunds if the balance would go negative.
	Debit(ctx context.Context, account id.AccountID, amount types.Money) error

	// Transfer moves amount from one account to another.
	Transfer(ctx context.Context, from, to id.AccountID, amount types.Money) error

	// Balance returns the current balance of the account. Unknown accounts
	// report a zero balance in the ledger's settlement currency.
	Balance(ctx context.Context, account id.AccountID) (types.Money, error)
}
