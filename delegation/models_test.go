package delegation

import (
	"testing"
	"time"

	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/types"
)

func TestDelegationActiveAt(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := id.NewAccountID()

	tests := []struct {
		name   string
		d      *Delegation
		now    time.Time
		active bool
	}{
		{
			name:   "nil record",
			d:      nil,
			now:    base,
			active: false,
		},
		{
			name:   "no user set",
			d:      &Delegation{Serial: 1, Expires: base.Add(time.Hour)},
			now:    base,
			active: false,
		},
		{
			name:   "before expiry",
			d:      &Delegation{Serial: 1, User: user, Starts: base, Expires: base.Add(time.Hour)},
			now:    base.Add(30 * time.Minute),
			active: true,
		},
		{
			name:   "at expiry instant",
			d:      &Delegation{Serial: 1, User: user, Starts: base, Expires: base.Add(time.Hour)},
			now:    base.Add(time.Hour),
			active: true,
		},
		{
			name:   "just past expiry",
			d:      &Delegation{Serial: 1, User: user, Starts: base, Expires: base.Add(time.Hour)},
			now:    base.Add(time.Hour + time.Nanosecond),
			active: false,
		},
		{
			name:   "long lapsed",
			d:      &Delegation{Serial: 1, User: user, Starts: base, Expires: base.Add(time.Hour)},
			now:    base.AddDate(0, 1, 0),
			active: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.ActiveAt(tt.now); got != tt.active {
				t.Errorf("ActiveAt: got %v, want %v", got, tt.active)
			}
		})
	}
}

func TestDelegationRemaining(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := &Delegation{
		Serial:  7,
		User:    id.NewAccountID(),
		Starts:  base,
		Expires: base.Add(24 * time.Hour),
		Rent:    types.USD(100),
	}

	if got := d.Remaining(base); got != 24*time.Hour {
		t.Errorf("Remaining at start: got %v, want %v", got, 24*time.Hour)
	}
	if got := d.Remaining(base.Add(23 * time.Hour)); got != time.Hour {
		t.Errorf("Remaining near end: got %v, want %v", got, time.Hour)
	}
	if got := d.Remaining(base.Add(25 * time.Hour)); got != 0 {
		t.Errorf("Remaining after expiry: got %v, want 0", got)
	}
}
