package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onPassMinted        []OnPassMinted
	onPassTransferred   []OnPassTransferred
	onUsageDelegated    []OnUsageDelegated
	onDelegationRevoked []OnDelegationRevoked
	onLeaseCreated      []OnLeaseCreated
	onLeaseRevoked      []OnLeaseRevoked
	onLeaseAccepted     []OnLeaseAccepted
	onFundsWithdrawn    []OnFundsWithdrawn
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPassMinted); ok {
		r.onPassMinted = append(r.onPassMinted, v)
	}
	if v, ok := p.(OnPassTransferred); ok {
		r.onPassTransferred = append(r.onPassTransferred, v)
	}
	if v, ok := p.(OnUsageDelegated); ok {
		r.onUsageDelegated = append(r.onUsageDelegated, v)
	}
	if v, ok := p.(OnDelegationRevoked); ok {
		r.onDelegationRevoked = append(r.onDelegationRevoked, v)
	}
	if v, ok := p.(OnLeaseCreated); ok {
		r.onLeaseCreated = append(r.onLeaseCreated, v)
	}
	if v, ok := p.(OnLeaseRevoked); ok {
		r.onLeaseRevoked = append(r.onLeaseRevoked, v)
	}
	if v, ok := p.(OnLeaseAccepted); ok {
		r.onLeaseAccepted = append(r.onLeaseAccepted, v)
	}
	if v, ok := p.(OnFundsWithdrawn); ok {
		r.onFundsWithdrawn = append(r.onFundsWithdrawn, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnPassMinted)(nil)).Elem(), "OnPassMinted")
	checkInterface(reflect.TypeOf((*OnPassTransferred)(nil)).Elem(), "OnPassTransferred")
	checkInterface(reflect.TypeOf((*OnUsageDelegated)(nil)).Elem(), "OnUsageDelegated")
	checkInterface(reflect.TypeOf((*OnDelegationRevoked)(nil)).Elem(), "OnDelegationRevoked")
	checkInterface(reflect.TypeOf((*OnLeaseCreated)(nil)).Elem(), "OnLeaseCreated")
	checkInterface(reflect.TypeOf((*OnLeaseRevoked)(nil)).Elem(), "OnLeaseRevoked")
	checkInterface(reflect.TypeOf((*OnLeaseAccepted)(nil)).Elem(), "OnLeaseAccepted")
	checkInterface(reflect.TypeOf((*OnFundsWithdrawn)(nil)).Elem(), "OnFundsWithdrawn")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPassMinted emits a pass minted event.
func (r *Registry) EmitPassMinted(ctx context.Context, pass interface{}) {
	r.mu.RLock()
	plugins := r.onPassMinted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPassMinted(ctx, pass)
		}); err != nil {
			r.logger.Warn("plugin OnPassMinted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPassTransferred emits a pass transferred event.
func (r *Registry) EmitPassTransferred(ctx context.Context, pass interface{}, from, to string) {
	r.mu.RLock()
	plugins := r.onPassTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPassTransferred(ctx, pass, from, to)
		}); err != nil {
			r.logger.Warn("plugin OnPassTransferred failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUsageDelegated emits a usage delegated event.
func (r *Registry) EmitUsageDelegated(ctx context.Context, delegation interface{}) {
	r.mu.RLock()
	plugins := r.onUsageDelegated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUsageDelegated(ctx, delegation)
		}); err != nil {
			r.logger.Warn("plugin OnUsageDelegated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDelegationRevoked emits a delegation revoked event.
func (r *Registry) EmitDelegationRevoked(ctx context.Context, serial int64, refund interface{}) {
	r.mu.RLock()
	plugins := r.onDelegationRevoked
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDelegationRevoked(ctx, serial, refund)
		}); err != nil {
			r.logger.Warn("plugin OnDelegationRevoked failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLeaseCreated emits a lease created event.
func (r *Registry) EmitLeaseCreated(ctx context.Context, lease interface{}) {
	r.mu.RLock()
	plugins := r.onLeaseCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLeaseCreated(ctx, lease)
		}); err != nil {
			r.logger.Warn("plugin OnLeaseCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLeaseRevoked emits a lease revoked event.
func (r *Registry) EmitLeaseRevoked(ctx context.Context, serial int64) {
	r.mu.RLock()
	plugins := r.onLeaseRevoked
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLeaseRevoked(ctx, serial)
		}); err != nil {
			r.logger.Warn("plugin OnLeaseRevoked failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLeaseAccepted emits a lease accepted event.
func (r *Registry) EmitLeaseAccepted(ctx context.Context, lease interface{}, renter string, fee, ownerPaid interface{}) {
	r.mu.RLock()
	plugins := r.onLeaseAccepted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLeaseAccepted(ctx, lease, renter, fee, ownerPaid)
		}); err != nil {
			r.logger.Warn("plugin OnLeaseAccepted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFundsWithdrawn emits a funds withdrawn event.
func (r *Registry) EmitFundsWithdrawn(ctx context.Context, account string, amount interface{}) {
	r.mu.RLock()
	plugins := r.onFundsWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundsWithdrawn(ctx, account, amount)
		}); err != nil {
			r.logger.Warn("plugin OnFundsWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
