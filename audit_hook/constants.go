package audithook

// Action constants for audit events.
const (
	// Pass actions
	ActionPassMinted      = "pass.minted"
	ActionPassTransferred = "pass.transferred"
	ActionPassApproved    = "pass.approved"

	// Delegation actions
	ActionUsageDelegated    = "usage.delegated"
	ActionDelegationRevoked = "usage.revoked"

	// Marketplace actions
	ActionLeaseCreated  = "lease.created"
	ActionLeaseRevoked  = "lease.revoked"
	ActionLeaseAccepted = "lease.accepted"

	// Funds actions
	ActionFundsWithdrawn = "funds.withdrawn"
)

// Resource constants for audit events.
const (
	ResourcePass       = "pass"
	ResourceDelegation = "delegation"
	ResourceLease      = "lease"
	ResourceFunds      = "funds"
)

// Category constants for audit events.
const (
	CategoryRegistry    = "registry"
	CategoryDelegation  = "delegation"
	CategoryMarketplace = "marketplace"
	CategoryPayment     = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
