// Package plugin provides the post-commit hook system of the treasury.
// Hooks run on a background worker after a mutation is saved, in commit
// order. They cannot fail or roll back the mutation.
package plugin

import (
	"context"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called once the treasury has loaded its snapshot.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, t interface{}) error
}

// OnShutdown is called when the treasury stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnOperationCommitted is called for every committed operation with the
// rows it produced.
type OnOperationCommitted interface {
	Plugin
	OnOperationCommitted(ctx context.Context, op *transaction.Operation, rows []*transaction.Transaction) error
}

// OnOperationVoided is called when an operation is reversed or silently voided.
type OnOperationVoided interface {
	Plugin
	OnOperationVoided(ctx context.Context, op *transaction.Operation, policy transaction.DeletionPolicy) error
}

// OnBankChanged is called when a bank is created, edited or deleted. before
// is nil on create and after is nil on delete.
type OnBankChanged interface {
	Plugin
	OnBankChanged(ctx context.Context, before, after *asset.Asset) error
}

// ──────────────────────────────────────────────────
// Domain hooks
// ──────────────────────────────────────────────────

// OnDollarCardCompleted is called after a purchase is completed.
type OnDollarCardCompleted interface {
	Plugin
	OnDollarCardCompleted(ctx context.Context, p *dollarcard.Purchase) error
}

// OnRecordChanged is called for structural changes that move no money:
// archive, restore, merge, permanent delete.
type OnRecordChanged interface {
	Plugin
	OnRecordChanged(ctx context.Context, change RecordChange) error
}

// RecordChange describes a structural change.
type RecordChange struct {
	Action   string
	Resource string
	ID       string
	Meta     map[string]string
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnSnapshotSaved is called after each successful save.
type OnSnapshotSaved interface {
	Plugin
	OnSnapshotSaved(ctx context.Context, s *store.Snapshot) error
}

// OnImported is called after an import replaced the whole snapshot.
type OnImported interface {
	Plugin
	OnImported(ctx context.Context, s *store.Snapshot) error
}
