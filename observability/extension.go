// Package observability provides a metrics extension for Leasehold that
// records lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/leasehold/pass"
	"github.com/xraph/leasehold/plugin"
	"github.com/xraph/leasehold/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnPassMinted        = (*MetricsExtension)(nil)
	_ plugin.OnPassTransferred   = (*MetricsExtension)(nil)
	_ plugin.OnUsageDelegated    = (*MetricsExtension)(nil)
	_ plugin.OnDelegationRevoked = (*MetricsExtension)(nil)
	_ plugin.OnLeaseCreated      = (*MetricsExtension)(nil)
	_ plugin.OnLeaseRevoked      = (*MetricsExtension)(nil)
	_ plugin.OnLeaseAccepted     = (*MetricsExtension)(nil)
	_ plugin.OnFundsWithdrawn    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Leasehold plugin to automatically track registry and
// marketplace activity.
type MetricsExtension struct {
	factory MetricFactory

	// Pass metrics
	PassMinted      Counter
	PassTransferred Counter
	MintRevenue     Histogram

	// Delegation metrics
	UsageDelegated    Counter
	DelegationRevoked Counter
	RefundAmount      Histogram

	// Marketplace metrics
	LeaseCreated  Counter
	LeaseRevoked  Counter
	LeaseAccepted Counter
	RentAmount    Histogram
	FeeAmount     Histogram

	// Funds metrics
	FundsWithdrawn   Counter
	WithdrawalAmount Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Pass metrics
		PassMinted:      factory.Counter("leasehold.pass.minted"),
		PassTransferred: factory.Counter("leasehold.pass.transferred"),
		MintRevenue:     factory.Histogram("leasehold.pass.mint_revenue"),

		// Delegation metrics
		UsageDelegated:    factory.Counter("leasehold.usage.delegated"),
		DelegationRevoked: factory.Counter("leasehold.usage.revoked"),
		RefundAmount:      factory.Histogram("leasehold.usage.refund_amount"),

		// Marketplace metrics
		LeaseCreated:  factory.Counter("leasehold.lease.created"),
		LeaseRevoked:  factory.Counter("leasehold.lease.revoked"),
		LeaseAccepted: factory.Counter("leasehold.lease.accepted"),
		RentAmount:    factory.Histogram("leasehold.lease.rent_amount"),
		FeeAmount:     factory.Histogram("leasehold.lease.fee_amount"),

		// Funds metrics
		FundsWithdrawn:   factory.Counter("leasehold.funds.withdrawn"),
		WithdrawalAmount: factory.Histogram("leasehold.funds.withdrawal_amount"),

		// Error metrics
		StoreErrors:  factory.Counter("leasehold.store.errors"),
		PluginErrors: factory.Counter("leasehold.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// observeMoney records a Money payload on a histogram when the payload
// carries one. Hook payloads are interface{} to keep the plugin package
// dependency-free.
func observeMoney(h Histogram, payload interface{}) {
	if amount, ok := payload.(types.Money); ok {
		h.Observe(float64(amount.Amount))
	}
}

// ──────────────────────────────────────────────────
// Pass lifecycle hooks
// ──────────────────────────────────────────────────

// OnPassMinted implements plugin.OnPassMinted.
func (m *MetricsExtension) OnPassMinted(_ context.Context, p interface{}) error {
	m.PassMinted.Inc()
	if minted, ok := p.(*pass.Pass); ok {
		m.MintRevenue.Observe(float64(minted.MintPrice.Amount))
	}
	return nil
}

// OnPassTransferred implements plugin.OnPassTransferred.
func (m *MetricsExtension) OnPassTransferred(_ context.Context, _ interface{}, _, _ string) error {
	m.PassTransferred.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Delegation lifecycle hooks
// ──────────────────────────────────────────────────

// OnUsageDelegated implements plugin.OnUsageDelegated.
func (m *MetricsExtension) OnUsageDelegated(_ context.Context, _ interface{}) error {
	m.UsageDelegated.Inc()
	return nil
}

// OnDelegationRevoked implements plugin.OnDelegationRevoked.
func (m *MetricsExtension) OnDelegationRevoked(_ context.Context, _ int64, refund interface{}) error {
	m.DelegationRevoked.Inc()
	observeMoney(m.RefundAmount, refund)
	return nil
}

// ──────────────────────────────────────────────────
// Marketplace lifecycle hooks
// ──────────────────────────────────────────────────

// OnLeaseCreated implements plugin.OnLeaseCreated.
func (m *MetricsExtension) OnLeaseCreated(_ context.Context, _ interface{}) error {
	m.LeaseCreated.Inc()
	return nil
}

// OnLeaseRevoked implements plugin.OnLeaseRevoked.
func (m *MetricsExtension) OnLeaseRevoked(_ context.Context, _ int64) error {
	m.LeaseRevoked.Inc()
	return nil
}

// OnLeaseAccepted implements plugin.OnLeaseAccepted.
func (m *MetricsExtension) OnLeaseAccepted(_ context.Context, _ interface{}, _ string, fee, ownerPaid interface{}) error {
	m.LeaseAccepted.Inc()
	observeMoney(m.FeeAmount, fee)
	observeMoney(m.RentAmount, ownerPaid)
	return nil
}

// ──────────────────────────────────────────────────
// Funds lifecycle hooks
// ──────────────────────────────────────────────────

// OnFundsWithdrawn implements plugin.OnFundsWithdrawn.
func (m *MetricsExtension) OnFundsWithdrawn(_ context.Context, _ string, amount interface{}) error {
	m.FundsWithdrawn.Inc()
	observeMoney(m.WithdrawalAmount, amount)
	return nil
}
