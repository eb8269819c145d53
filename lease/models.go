// Package lease defines marketplace listings offering a pass for rent.
package lease

import (
	"time"

	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/types"
)

// HoursPerDay converts listing durations to delegation windows.
const HoursPerDay = 24

// Lease is an open listing: the pass owner offers the usage right for
// DurationDays at the quoted Rent. A listing is keyed by pass serial;
// relisting overwrites the previous terms.
type Lease struct {
	types.Entity
	Serial       int64        `json:"serial"`
	Lister       id.AccountID `json:"lister"`
	Rent         types.Money  `json:"rent"`
	DurationDays int64        `json:"duration_days"`
}

// Duration returns the delegation window the listing grants on acceptance.
func (l *Lease) Duration() time.Duration {
	return time.Duration(l.DurationDays) * HoursPerDay * time.Hour
}
