// Package audithook bridges treasury events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnOperationCommitted  = (*Extension)(nil)
	_ plugin.OnOperationVoided     = (*Extension)(nil)
	_ plugin.OnBankChanged         = (*Extension)(nil)
	_ plugin.OnDollarCardCompleted = (*Extension)(nil)
	_ plugin.OnRecordChanged       = (*Extension)(nil)
	_ plugin.OnImported            = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
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
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges treasury events to an audit trail backend.
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
// Ledger hooks
// ──────────────────────────────────────────────────

// OnOperationCommitted implements plugin.OnOperationCommitted.
func (e *Extension) OnOperationCommitted(ctx context.Context, op *transaction.Operation, rows []*transaction.Transaction) error {
	assets := make([]string, 0, len(rows))
	for _, r := range rows {
		assets = append(assets, r.AssetID.String())
	}
	return e.record(ctx, ActionOperationCommitted, SeverityInfo,
		ResourceOperation, op.ID.String(), CategoryLedger,
		"kind", string(op.Kind),
		"rows", len(rows),
		"assets", assets,
		"reference", op.Reference,
	)
}

// OnOperationVoided implements plugin.OnOperationVoided.
func (e *Extension) OnOperationVoided(ctx context.Context, op *transaction.Operation, policy transaction.DeletionPolicy) error {
	action, severity := ActionOperationReversed, SeverityInfo
	if policy == transaction.SilentlyVoided {
		// silent voids leave no visible trace in the ledger
		action, severity = ActionOperationVoided, SeverityWarning
	}
	return e.record(ctx, action, severity,
		ResourceOperation, op.ID.String(), CategoryLedger,
		"kind", string(op.Kind),
		"policy", string(policy),
		"voided_by", op.VoidedBy.String(),
	)
}

// OnBankChanged implements plugin.OnBankChanged.
func (e *Extension) OnBankChanged(ctx context.Context, before, after *asset.Asset) error {
	switch {
	case before == nil && after != nil:
		return e.record(ctx, ActionBankCreated, SeverityInfo,
			ResourceBank, after.ID.String(), CategoryAssets,
			"name", after.Name,
			"balance", after.Balance.String(),
		)
	case after == nil && before != nil:
		return e.record(ctx, ActionBankDeleted, SeverityWarning,
			ResourceBank, before.ID.String(), CategoryAssets,
			"name", before.Name,
		)
	case before != nil:
		kv := []any{"name", after.Name}
		if !before.Balance.Equal(after.Balance) {
			kv = append(kv, "balance_before", before.Balance.String(), "balance_after", after.Balance.String())
		}
		if before.POSEnabled != after.POSEnabled {
			kv = append(kv, "pos_enabled", after.POSEnabled)
		}
		return e.record(ctx, ActionBankUpdated, SeverityInfo,
			ResourceBank, after.ID.String(), CategoryAssets, kv...)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Domain hooks
// ──────────────────────────────────────────────────

// OnDollarCardCompleted implements plugin.OnDollarCardCompleted.
func (e *Extension) OnDollarCardCompleted(ctx context.Context, p *dollarcard.Purchase) error {
	kv := []any{"customer", p.CustomerName, "payments", len(p.Payments)}
	if p.CompletionDetails != nil {
		kv = append(kv, "received_usd", p.CompletionDetails.ReceivedUSDAmount.String(),
			"cost_per_dollar", p.CompletionDetails.FinalCostPerDollar.String())
	}
	return e.record(ctx, ActionCardCompleted, SeverityInfo,
		ResourceDollarCard, p.ID.String(), CategoryRecords, kv...)
}

// OnRecordChanged implements plugin.OnRecordChanged.
func (e *Extension) OnRecordChanged(ctx context.Context, c plugin.RecordChange) error {
	var action, severity string
	switch c.Action {
	case "archive":
		action, severity = ActionRecordArchived, SeverityInfo
	case "restore":
		action, severity = ActionRecordRestored, SeverityInfo
	case "delete":
		action, severity = ActionRecordDeleted, SeverityWarning
	default:
		return nil
	}
	kv := make([]any, 0, 2*len(c.Meta))
	for k, v := range c.Meta {
		kv = append(kv, k, v)
	}
	return e.record(ctx, action, severity, c.Resource, c.ID, CategoryRecords, kv...)
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnImported implements plugin.OnImported.
func (e *Extension) OnImported(ctx context.Context, s *store.Snapshot) error {
	return e.record(ctx, ActionDataImported, SeverityCritical,
		ResourceSnapshot, "", CategoryData,
		"version", s.Version,
		"assets", len(s.Assets),
		"transactions", len(s.Transactions),
	)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity string,
	resource, resourceID, category string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    OutcomeSuccess,
		Severity:   severity,
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
