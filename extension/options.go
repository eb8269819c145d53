package extension

import (
	leasehold "github.com/xraph/leasehold"
	"github.com/xraph/leasehold/funds"
	"github.com/xraph/leasehold/plugin"
	"github.com/xraph/leasehold/store"
)

// Option configures the Leasehold Forge extension.
type Option func(*Extension)

// WithStore sets the store for the registry.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithFunds sets the funds ledger for the registry.
func WithFunds(fl funds.Ledger) Option {
	return func(e *Extension) {
		e.funds = fl
	}
}

// WithRegistryOption passes a leasehold.Option through to the underlying registry.
func WithRegistryOption(opt leasehold.Option) Option {
	return func(e *Extension) {
		e.registryOpts = append(e.registryOpts, opt)
	}
}

// WithPlugin registers a leasehold plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.registryOpts = append(e.registryOpts, leasehold.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithOperator sets the account allowed to withdraw proceeds and fees.
func WithOperator(account string) Option {
	return func(e *Extension) { e.config.Operator = account }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDisableMarketplace prevents marketplace construction.
func WithDisableMarketplace() Option {
	return func(e *Extension) { e.config.DisableMarketplace = true }
}

// WithMintPrice sets the pass price floor in the smallest currency unit.
func WithMintPrice(cents int64, currency string) Option {
	return func(e *Extension) {
		e.config.MintPriceCents = cents
		e.config.MintPriceCurrency = currency
	}
}

// WithSupplyCap sets the maximum number of passes that can ever be issued.
func WithSupplyCap(limit int64) Option {
	return func(e *Extension) { e.config.SupplyCap = limit }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
