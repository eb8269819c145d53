package funds

import (
	"context"
	"strings"
	"sync"

	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/types"
)

// InMemory is a Ledger backed by a map. It is the default for tests and
// embedded setups; production hosts wire their own Ledger implementation.
type InMemory struct {
	mu       sync.Mutex
	currency string
	balances map[string]int64
}

var _ Ledger = (*InMemory)(nil)

// NewInMemory creates an empty in-process ledger settling in the given
// currency (ISO 4217, case-insensitive).
func NewInMemory(currency string) *InMemory {
	return &InMemory{
		currency: strings.ToLower(currency),
		balances: make(map[string]int64),
	}
}

// Credit adds amount to the account balance.
func (m *InMemory) Credit(_ context.Context, account id.AccountID, amount types.Money) error {
	if err := m.check(amount); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account.String()] += amount.Amount
	return nil
}

// Debit removes amount from the account balance.
func (m *InMemory) Debit(_ context.Context, account id.AccountID, amount types.Money) error {
	if err := m.check(amount); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debitLocked(account, amount.Amount)
}

// Transfer moves amount from one account to another atomically.
func (m *InMemory) Transfer(_ context.Context, from, to id.AccountID, amount types.Money) error {
	if err := m.check(amount); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.debitLocked(from, amount.Amount); err != nil {
		return err
	}
	m.balances[to.String()] += amount.Amount
	return nil
}

// Balance returns the current balance of the account.
func (m *InMemory) Balance(_ context.Context, account id.AccountID) (types.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.Money{Amount: m.balances[account.String()], Currency: m.currency}, nil
}

func (m *InMemory) check(amount types.Money) error {
	if strings.ToLower(amount.Currency) != m.currency {
		return ErrCurrencyMismatch
	}
	return nil
}

func (m *InMemory) debitLocked(account id.AccountID, amount int64) error {
	key := account.String()
	if m.balances[key] < amount {
		return ErrInsufficientFunds
	}
	m.balances[key] -= amount
	return nil
}
