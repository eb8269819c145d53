// Package leasehold provides a pass registry and leasing marketplace ledger
// for Go applications.
//
// Leasehold is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Sequential issuance of limited-supply passes with a payable price floor
//   - Time-boxed usage delegation with lazy expiry and exact-refund revocation
//   - A lease marketplace with an escrowed two-percent fee split
//   - Pluggable storage (memory, SQLite, Postgres, MongoDB)
//   - A persisted event ledger plus lifecycle plugin hooks
//
// # Quick Start
//
// Create a registry with your preferred store and a funds ledger:
//
//	import (
//	    "github.com/xraph/leasehold"
//	    "github.com/xraph/leasehold/funds"
//	    "github.com/xraph/leasehold/id"
//	    "github.com/xraph/leasehold/store/postgres"
//	)
//
//	// Initialize store from the host's grove database handle (*grove.DB)
//	store := postgres.New(groveDB)
//
//	// Create registry
//	operator := id.NewAccountID()
//	registry := leasehold.New(store, funds.NewInMemory("usd"), operator)
//
//	// Start the registry (runs migrations, initializes plugins)
//	if err := registry.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer registry.Stop()
//
// # Core Concepts
//
// Passes are limited-supply collectibles with dense int64 serials:
//
//	serial, err := registry.Mint(ctx, buyer, leasehold.USD(200_00))
//
// Usage delegation grants a user the right to a pass until an expiry.
// Expiry is lazy: nothing clears a lapsed grant, readers just stop seeing it:
//
//	err = registry.DelegateUsage(ctx, owner, serial, renter, expires, rent, rent)
//	user, _ := registry.UserOf(ctx, serial) // id.Nil once expired
//
// The marketplace lists passes for rent and settles the fee split on accept:
//
//	market := leasehold.NewMarketplace(registry, operator)
//	err = market.CreateLease(ctx, owner, serial, 7, leasehold.USD(100_00))
//	err = registry.Approve(ctx, owner, serial, market.Account())
//	err = market.AcceptLease(ctx, renter, serial, leasehold.USD(100_00))
//
// # Money
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest currency
// unit (cents for USD, pence for GBP, etc). The marketplace fee split truncates
// toward the fee, so fee plus owner share always equals the rent exactly.
//
// # TypeID
//
// Accounts and events use TypeID for globally unique, type-safe identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account ID
//	evt_01h455vb4pex5vsknk084sn02q   // Event ID
//
// Pass serials are intentionally plain int64 values issued as a dense
// sequence starting at 1.
package leasehold
