// Package audithook bridges Leasehold lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter that bridges
// to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/leasehold/delegation"
	"github.com/xraph/leasehold/lease"
	"github.com/xraph/leasehold/pass"
	"github.com/xraph/leasehold/plugin"
	"github.com/xraph/leasehold/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnPassMinted        = (*Extension)(nil)
	_ plugin.OnPassTransferred   = (*Extension)(nil)
	_ plugin.OnUsageDelegated    = (*Extension)(nil)
	_ plugin.OnDelegationRevoked = (*Extension)(nil)
	_ plugin.OnLeaseCreated      = (*Extension)(nil)
	_ plugin.OnLeaseRevoked      = (*Extension)(nil)
	_ plugin.OnLeaseAccepted     = (*Extension)(nil)
	_ plugin.OnFundsWithdrawn    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not import a
// concrete audit backend — callers inject one at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Leasehold lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Pass lifecycle hooks
// ──────────────────────────────────────────────────

// OnPassMinted implements plugin.OnPassMinted.
func (e *Extension) OnPassMinted(ctx context.Context, p interface{}) error {
	serial, owner := passDetails(p)
	return e.record(ctx, ActionPassMinted, SeverityInfo, OutcomeSuccess,
		ResourcePass, serial, CategoryRegistry, nil,
		"serial", serial,
		"owner", owner,
	)
}

// OnPassTransferred implements plugin.OnPassTransferred.
func (e *Extension) OnPassTransferred(ctx context.Context, p interface{}, from, to string) error {
	serial, _ := passDetails(p)
	return e.record(ctx, ActionPassTransferred, SeverityInfo, OutcomeSuccess,
		ResourcePass, serial, CategoryRegistry, nil,
		"serial", serial,
		"from", from,
		"to", to,
	)
}

// ──────────────────────────────────────────────────
// Delegation lifecycle hooks
// ──────────────────────────────────────────────────

// OnUsageDelegated implements plugin.OnUsageDelegated.
func (e *Extension) OnUsageDelegated(ctx context.Context, d interface{}) error {
	var serial, user, expires string
	if dd, ok := d.(*delegation.Delegation); ok {
		serial = fmt.Sprintf("%d", dd.Serial)
		user = dd.User.String()
		expires = dd.Expires.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return e.record(ctx, ActionUsageDelegated, SeverityInfo, OutcomeSuccess,
		ResourceDelegation, serial, CategoryDelegation, nil,
		"serial", serial,
		"user", user,
		"expires", expires,
	)
}

// OnDelegationRevoked implements plugin.OnDelegationRevoked.
func (e *Extension) OnDelegationRevoked(ctx context.Context, serial int64, refund interface{}) error {
	id := fmt.Sprintf("%d", serial)
	return e.record(ctx, ActionDelegationRevoked, SeverityInfo, OutcomeSuccess,
		ResourceDelegation, id, CategoryDelegation, nil,
		"serial", id,
		"refund", moneyString(refund),
	)
}

// ──────────────────────────────────────────────────
// Marketplace lifecycle hooks
// ──────────────────────────────────────────────────

// OnLeaseCreated implements plugin.OnLeaseCreated.
func (e *Extension) OnLeaseCreated(ctx context.Context, l interface{}) error {
	var serial, rent string
	if ll, ok := l.(*lease.Lease); ok {
		serial = fmt.Sprintf("%d", ll.Serial)
		rent = ll.Rent.String()
	}
	return e.record(ctx, ActionLeaseCreated, SeverityInfo, OutcomeSuccess,
		ResourceLease, serial, CategoryMarketplace, nil,
		"serial", serial,
		"rent", rent,
	)
}

// OnLeaseRevoked implements plugin.OnLeaseRevoked.
func (e *Extension) OnLeaseRevoked(ctx context.Context, serial int64) error {
	id := fmt.Sprintf("%d", serial)
	return e.record(ctx, ActionLeaseRevoked, SeverityInfo, OutcomeSuccess,
		ResourceLease, id, CategoryMarketplace, nil,
		"serial", id,
	)
}

// OnLeaseAccepted implements plugin.OnLeaseAccepted.
func (e *Extension) OnLeaseAccepted(ctx context.Context, l interface{}, renter string, fee, ownerPaid interface{}) error {
	var serial string
	if ll, ok := l.(*lease.Lease); ok {
		serial = fmt.Sprintf("%d", ll.Serial)
	}
	return e.record(ctx, ActionLeaseAccepted, SeverityInfo, OutcomeSuccess,
		ResourceLease, serial, CategoryMarketplace, nil,
		"serial", serial,
		"renter", renter,
		"fee", moneyString(fee),
		"owner_paid", moneyString(ownerPaid),
	)
}

// ──────────────────────────────────────────────────
// Funds lifecycle hooks
// ──────────────────────────────────────────────────

// OnFundsWithdrawn implements plugin.OnFundsWithdrawn.
func (e *Extension) OnFundsWithdrawn(ctx context.Context, account string, amount interface{}) error {
	return e.record(ctx, ActionFundsWithdrawn, SeverityWarning, OutcomeSuccess,
		ResourceFunds, account, CategoryPayment, nil,
		"account", account,
		"amount", moneyString(amount),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func passDetails(p interface{}) (serial, owner string) {
	if pp, ok := p.(*pass.Pass); ok {
		return fmt.Sprintf("%d", pp.Serial), pp.Owner.String()
	}
	return "", ""
}

func moneyString(amount interface{}) string {
	if m, ok := amount.(types.Money); ok {
		return m.String()
	}
	return ""
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
