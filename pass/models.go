// Package pass defines the collectible pass model tracked by the registry.
package pass

import (
	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/types"
)

// Pass is a registered collectible. Serials are issued as a dense sequence
// starting at 1 and are never reused.
type Pass struct {
	types.Entity
	Serial    int64             `json:"serial"`
	Owner     id.AccountID      `json:"owner"`
	Approved  id.AccountID      `json:"approved,omitempty"` // per-pass approved operator, Nil when unset
	MintPrice types.Money       `json:"mint_price"`         // payment captured at issuance
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// IsApproved reports whether the given account is the pass's approved operator.
func (p *Pass) IsApproved(account id.AccountID) bool {
	return !p.Approved.IsNil() && p.Approved.String() == account.String()
}

// IsOwner reports whether the given account owns the pass.
func (p *Pass) IsOwner(account id.AccountID) bool {
	return !p.Owner.IsNil() && p.Owner.String() == account.String()
}

// CanOperate reports whether the account is the owner or the approved operator.
func (p *Pass) CanOperate(account id.AccountID) bool {
	return p.IsOwner(account) || p.IsApproved(account)
}
