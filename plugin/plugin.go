// Package plugin provides an extensible plugin system for Leasehold.
// Plugins can hook into registry and marketplace lifecycle events to
// extend functionality.
package plugin

import "context"

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnPassMinted is called when a new pass is issued.
type OnPassMinted interface {
	Plugin
	OnPassMinted(ctx context.Context, pass interface{}) error
}

// OnPassTransferred is called when pass ownership changes.
type OnPassTransferred interface {
	Plugin
	OnPassTransferred(ctx context.Context, pass interface{}, from, to string) error
}

// OnUsageDelegated is called when a usage right is granted on a pass.
type OnUsageDelegated interface {
	Plugin
	OnUsageDelegated(ctx context.Context, delegation interface{}) error
}

// OnDelegationRevoked is called when a usage right is revoked early.
// refund carries the Money amount returned to the owner.
type OnDelegationRevoked interface {
	Plugin
	OnDelegationRevoked(ctx context.Context, serial int64, refund interface{}) error
}

// ──────────────────────────────────────────────────
// Marketplace hooks
// ──────────────────────────────────────────────────

// OnLeaseCreated is called when a pass is listed for rent.
type OnLeaseCreated interface {
	Plugin
	OnLeaseCreated(ctx context.Context, lease interface{}) error
}

// OnLeaseRevoked is called when a listing is withdrawn.
type OnLeaseRevoked interface {
	Plugin
	OnLeaseRevoked(ctx context.Context, serial int64) error
}

// OnLeaseAccepted is called when a renter takes a listing.
// fee and ownerPaid carry the Money split of the rent.
type OnLeaseAccepted interface {
	Plugin
	OnLeaseAccepted(ctx context.Context, lease interface{}, renter string, fee, ownerPaid interface{}) error
}

// ──────────────────────────────────────────────────
// Funds hooks
// ──────────────────────────────────────────────────

// OnFundsWithdrawn is called when accumulated proceeds or fees are drained.
type OnFundsWithdrawn interface {
	Plugin
	OnFundsWithdrawn(ctx context.Context, account string, amount interface{}) error
}
