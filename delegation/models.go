// Package delegation defines the time-boxed usage right attached to a pass.
package delegation

import (
	"time"

	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/types"
)

// Delegation grants a user account the usage right to a pass until Expires.
// At most one delegation exists per pass serial. Expiry is lazy: nothing
// clears a lapsed record, readers check ActiveAt against the current time.
type Delegation struct {
	types.Entity
	Serial  int64        `json:"serial"`
	User    id.AccountID `json:"user"`
	Starts  time.Time    `json:"starts"`
	Expires time.Time    `json:"expires"`
	Rent    types.Money  `json:"rent"` // escrowed amount refunded on revocation
}

// ActiveAt reports whether the usage right is live at the given instant.
// A delegation is active through its expiry instant inclusive.
func (d *Delegation) ActiveAt(now time.Time) bool {
	if d == nil || d.User.IsNil() {
		return false
	}
	return !now.After(d.Expires)
}

// Remaining returns the time left until expiry at the given instant,
// or zero if already lapsed.
func (d *Delegation) Remaining(now time.Time) time.Duration {
	if !d.ActiveAt(now) {
		return 0
	}
	return d.Expires.Sub(now)
}
