package extension

// Config holds the Leasehold extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.leasehold" or "leasehold" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Operator is the account allowed to withdraw registry proceeds and
	// marketplace fees. When empty, a fresh account is generated at startup
	// and logged.
	Operator string `json:"operator" mapstructure:"operator" yaml:"operator"`

	// MintPriceCents is the pass price floor in the smallest currency unit
	// (default: 20000).
	MintPriceCents int64 `json:"mint_price_cents" mapstructure:"mint_price_cents" yaml:"mint_price_cents"`

	// MintPriceCurrency is the currency of the mint price (default: "usd").
	MintPriceCurrency string `json:"mint_price_currency" mapstructure:"mint_price_currency" yaml:"mint_price_currency"`

	// SupplyCap is the maximum number of passes that can ever be issued
	// (default: 1000).
	SupplyCap int64 `json:"supply_cap" mapstructure:"supply_cap" yaml:"supply_cap"`

	// DisableMarketplace prevents marketplace construction and DI registration.
	DisableMarketplace bool `json:"disable_marketplace" mapstructure:"disable_marketplace" yaml:"disable_marketplace"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MintPriceCents:    20000,
		MintPriceCurrency: "usd",
		SupplyCap:         1000,
	}
}
