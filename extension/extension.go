// Package extension provides the Forge extension adapter for Leasehold.
//
// It implements the forge.Extension interface to integrate Leasehold
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.leasehold" or
// "leasehold" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	leasehold "github.com/xraph/leasehold"
	"github.com/xraph/leasehold/funds"
	"github.com/xraph/leasehold/id"
	"github.com/xraph/leasehold/store"
	"github.com/xraph/leasehold/store/memory"
	"github.com/xraph/leasehold/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "leasehold"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Pass registry and leasing marketplace ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Leasehold as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	registry     *leasehold.Registry
	marketplace  *leasehold.Marketplace
	store        store.Store
	funds        funds.Ledger
	registryOpts []leasehold.Option
}

// New creates a new Leasehold Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the underlying Registry instance.
// This is nil until Register is called.
func (e *Extension) Registry() *leasehold.Registry { return e.registry }

// Marketplace returns the underlying Marketplace instance.
// This is nil until Register is called, and stays nil when the
// marketplace is disabled.
func (e *Extension) Marketplace() *leasehold.Marketplace { return e.marketplace }

// Register implements [forge.Extension]. It loads configuration,
// initializes the registry and marketplace, and registers them in the
// DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Fall back to in-process backends if none were provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}
	if e.funds == nil {
		e.funds = funds.NewInMemory(e.config.MintPriceCurrency)
	}

	operator, err := e.resolveOperator()
	if err != nil {
		return err
	}

	opts := e.buildRegistryOpts()

	e.registry = leasehold.New(e.store, e.funds, operator, opts...)

	if err := vessel.Provide(fapp.Container(), func() (*leasehold.Registry, error) {
		return e.registry, nil
	}); err != nil {
		return err
	}

	if !e.config.DisableMarketplace {
		e.marketplace = leasehold.NewMarketplace(e.registry, operator)
		if err := vessel.Provide(fapp.Container(), func() (*leasehold.Marketplace, error) {
			return e.marketplace, nil
		}); err != nil {
			return err
		}
	}

	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.registry == nil {
		return errors.New("leasehold: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.registry.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.registry != nil {
		if err := e.registry.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("leasehold: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveOperator parses the configured operator account, or generates a
// fresh one when none was configured.
func (e *Extension) resolveOperator() (id.AccountID, error) {
	if e.config.Operator == "" {
		operator := id.NewAccountID()
		e.Logger().Info("leasehold: generated operator account",
			forge.F("operator", operator.String()),
		)
		return operator, nil
	}
	operator, err := id.ParseAccountID(e.config.Operator)
	if err != nil {
		return id.Nil, errors.New("leasehold: invalid operator account in config")
	}
	return operator, nil
}

// buildRegistryOpts constructs leasehold.Option values from the resolved config.
func (e *Extension) buildRegistryOpts() []leasehold.Option {
	opts := make([]leasehold.Option, 0, len(e.registryOpts)+2)

	if e.config.MintPriceCents > 0 {
		opts = append(opts, leasehold.WithMintPrice(types.Money{
			Amount:   e.config.MintPriceCents,
			Currency: e.config.MintPriceCurrency,
		}))
	}
	if e.config.SupplyCap > 0 {
		opts = append(opts, leasehold.WithSupplyCap(e.config.SupplyCap))
	}

	// Append any pass-through registry options.
	opts = append(opts, e.registryOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("leasehold: configuration is required but not found in config files; " +
				"ensure 'extensions.leasehold' or 'leasehold' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("leasehold: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_marketplace", e.config.DisableMarketplace),
		forge.F("mint_price_cents", e.config.MintPriceCents),
		forge.F("mint_price_currency", e.config.MintPriceCurrency),
		forge.F("supply_cap", e.config.SupplyCap),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.leasehold" first (namespaced pattern).
	if cm.IsSet("extensions.leasehold") {
		if err := cm.Bind("extensions.leasehold", &cfg); err == nil {
			e.Logger().Debug("leasehold: loaded config from file",
				forge.F("key", "extensions.leasehold"),
			)
			return cfg, true
		}
		e.Logger().Warn("leasehold: failed to bind extensions.leasehold config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "leasehold" key.
	if cm.IsSet("leasehold") {
		if err := cm.Bind("leasehold", &cfg); err == nil {
			e.Logger().Debug("leasehold: loaded config from file",
				forge.F("key", "leasehold"),
			)
			return cfg, true
		}
		e.Logger().Warn("leasehold: failed to bind leasehold config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.MintPriceCents == 0 {
		cfg.MintPriceCents = defaults.MintPriceCents
	}
	if cfg.MintPriceCurrency == "" {
		cfg.MintPriceCurrency = defaults.MintPriceCurrency
	}
	if cfg.SupplyCap == 0 {
		cfg.SupplyCap = defaults.SupplyCap
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableMarketplace {
		yamlConfig.DisableMarketplace = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Operator == "" && programmaticConfig.Operator != "" {
		yamlConfig.Operator = programmaticConfig.Operator
	}
	if yamlConfig.MintPriceCurrency == "" && programmaticConfig.MintPriceCurrency != "" {
		yamlConfig.MintPriceCurrency = programmaticConfig.MintPriceCurrency
	}

	// Numeric fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.MintPriceCents == 0 && programmaticConfig.MintPriceCents != 0 {
		yamlConfig.MintPriceCents = programmaticConfig.MintPriceCents
	}
	if yamlConfig.SupplyCap == 0 && programmaticConfig.SupplyCap != 0 {
		yamlConfig.SupplyCap = programmaticConfig.SupplyCap
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
