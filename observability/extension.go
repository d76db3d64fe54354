// Package observability provides a metrics extension for the treasury that
// records event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnOperationCommitted  = (*MetricsExtension)(nil)
	_ plugin.OnOperationVoided     = (*MetricsExtension)(nil)
	_ plugin.OnBankChanged         = (*MetricsExtension)(nil)
	_ plugin.OnDollarCardCompleted = (*MetricsExtension)(nil)
	_ plugin.OnRecordChanged       = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotSaved       = (*MetricsExtension)(nil)
	_ plugin.OnImported            = (*MetricsExtension)(nil)
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

// Gauge interface for metric gauges.
type Gauge interface {
	Set(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
	Gauge(name string) Gauge
}

// MetricsExtension records treasury activity metrics.
// Register it as a treasury plugin.
type MetricsExtension struct {
	factory MetricFactory

	// Ledger metrics
	OperationsCommitted Counter
	RowsWritten         Counter
	RowsPerOperation    Histogram
	OperationsReversed  Counter
	OperationsVoided    Counter

	// Asset metrics
	BanksCreated Counter
	BanksUpdated Counter
	BanksDeleted Counter

	// Domain metrics
	CardsCompleted  Counter
	RecordsArchived Counter
	RecordsRestored Counter
	RecordsDeleted  Counter

	// Persistence metrics
	SnapshotsSaved  Counter
	SnapshotVersion Gauge
	Transactions    Gauge
	Imports         Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		OperationsCommitted: factory.Counter("treasury.operations.committed"),
		RowsWritten:         factory.Counter("treasury.transactions.written"),
		RowsPerOperation:    factory.Histogram("treasury.operations.rows"),
		OperationsReversed:  factory.Counter("treasury.operations.reversed"),
		OperationsVoided:    factory.Counter("treasury.operations.voided"),

		BanksCreated: factory.Counter("treasury.banks.created"),
		BanksUpdated: factory.Counter("treasury.banks.updated"),
		BanksDeleted: factory.Counter("treasury.banks.deleted"),

		CardsCompleted:  factory.Counter("treasury.dollar_cards.completed"),
		RecordsArchived: factory.Counter("treasury.records.archived"),
		RecordsRestored: factory.Counter("treasury.records.restored"),
		RecordsDeleted:  factory.Counter("treasury.records.deleted"),

		SnapshotsSaved:  factory.Counter("treasury.snapshots.saved"),
		SnapshotVersion: factory.Gauge("treasury.snapshot.version"),
		Transactions:    factory.Gauge("treasury.snapshot.transactions"),
		Imports:         factory.Counter("treasury.snapshots.imported"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnOperationCommitted implements plugin.OnOperationCommitted.
func (m *MetricsExtension) OnOperationCommitted(_ context.Context, _ *transaction.Operation, rows []*transaction.Transaction) error {
	m.OperationsCommitted.Inc()
	m.RowsWritten.Add(float64(len(rows)))
	m.RowsPerOperation.Observe(float64(len(rows)))
	return nil
}

// OnOperationVoided implements plugin.OnOperationVoided.
func (m *MetricsExtension) OnOperationVoided(_ context.Context, _ *transaction.Operation, policy transaction.DeletionPolicy) error {
	if policy == transaction.SilentlyVoided {
		m.OperationsVoided.Inc()
	} else {
		m.OperationsReversed.Inc()
	}
	return nil
}

// OnBankChanged implements plugin.OnBankChanged.
func (m *MetricsExtension) OnBankChanged(_ context.Context, before, after *asset.Asset) error {
	switch {
	case before == nil:
		m.BanksCreated.Inc()
	case after == nil:
		m.BanksDeleted.Inc()
	default:
		m.BanksUpdated.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Domain hooks
// ──────────────────────────────────────────────────

// OnDollarCardCompleted implements plugin.OnDollarCardCompleted.
func (m *MetricsExtension) OnDollarCardCompleted(_ context.Context, _ *dollarcard.Purchase) error {
	m.CardsCompleted.Inc()
	return nil
}

// OnRecordChanged implements plugin.OnRecordChanged.
func (m *MetricsExtension) OnRecordChanged(_ context.Context, c plugin.RecordChange) error {
	switch c.Action {
	case "archive":
		m.RecordsArchived.Inc()
	case "restore":
		m.RecordsRestored.Inc()
	case "delete":
		m.RecordsDeleted.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnSnapshotSaved implements plugin.OnSnapshotSaved.
func (m *MetricsExtension) OnSnapshotSaved(_ context.Context, s *store.Snapshot) error {
	m.SnapshotsSaved.Inc()
	m.SnapshotVersion.Set(float64(s.Version))
	m.Transactions.Set(float64(len(s.Transactions)))
	return nil
}

// OnImported implements plugin.OnImported.
func (m *MetricsExtension) OnImported(_ context.Context, _ *store.Snapshot) error {
	m.Imports.Inc()
	return nil
}
