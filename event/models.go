// Package event defines the append-only record emitted for every state
// change in the registry and marketplace. Records back log-based indexers
// and audit queries; they are never updated or deleted, only appended and
// optionally purged by age.
package event

import (
	"time"

	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/types"
)

// Kind names an observable state change.
type Kind string

const (
	KindPassMinted        Kind = "pass.minted"
	KindPassTransferred   Kind = "pass.transferred"
	KindPassApproved      Kind = "pass.approved"
	KindUsageDelegated    Kind = "usage.delegated"
	KindDelegationRevoked Kind = "usage.revoked"
	KindLeaseCreated      Kind = "lease.created"
	KindLeaseRevoked      Kind = "lease.revoked"
	KindLeaseAccepted     Kind = "lease.accepted"
	KindFundsWithdrawn    Kind = "funds.withdrawn"
)

// Record is one ledger event. Serial is zero for events not tied to a
// single pass (withdrawals).
type Record struct {
	ID           id.EventID        `json:"id"`
	Kind         Kind              `json:"kind"`
	Serial       int64             `json:"serial,omitempty"`
	Actor        id.AccountID      `json:"actor"`
	Counterparty id.AccountID      `json:"counterparty,omitempty"`
	Amount       types.Money       `json:"amount,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
