package treasury

import (
	"context"
	"slices"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// ──────────────────────────────────────────────────
// Deletion
// ──────────────────────────────────────────────────

// Void deletes the operation txID belongs to under policy. Only generic
// movements may be voided directly; rows owned by a debt, receivable, POS,
// card or cost record are removed through that record. The returned
// operation is the reversal, or nil for a silent void.
func (t *Treasury) Void(ctx context.Context, txID id.TransactionID, policy transaction.DeletionPolicy) (*transaction.Operation, error) {
	if !policy.Valid() {
		return nil, invalid("policy", "unknown deletion policy %q", policy)
	}

	var out *transaction.Operation
	err := t.mutate(ctx, "void", func(b *book) error {
		tx, ok := b.txns[txID]
		if !ok || !tx.Visible() {
			return notFound("transaction", txID)
		}
		if tx.IsDeleted {
			return violation("void-once", "transaction %s is already deleted", txID)
		}
		op, err := b.operation(tx.OperationID)
		if err != nil {
			return err
		}
		if !op.Kind.Standalone() {
			return violation("owned-row", "%s rows are removed through their record", op.Kind)
		}
		reversal, err := b.void(op, policy)
		if err != nil {
			return err
		}
		if reversal != nil {
			out = reversal.Clone()
		}
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────
// Display edits
// ──────────────────────────────────────────────────

// ShiftDate moves each row one calendar day in dir. Balances are unchanged.
func (t *Treasury) ShiftDate(ctx context.Context, ids []id.TransactionID, dir transaction.Direction) error {
	days := dir.Days()
	if days == 0 {
		return invalid("direction", "unknown direction %q", dir)
	}
	return t.mutate(ctx, "shift_date", func(b *book) error {
		for _, txID := range ids {
			tx, ok := b.txns[txID]
			if !ok || !tx.Visible() {
				return notFound("transaction", txID)
			}
			tx.Date = tx.Date.AddDate(0, 0, days)
		}
		return nil
	})
}

// SetTemporarilyHidden toggles the display-only hidden flag.
func (t *Treasury) SetTemporarilyHidden(ctx context.Context, ids []id.TransactionID, hidden bool) error {
	return t.mutate(ctx, "set_hidden", func(b *book) error {
		for _, txID := range ids {
			tx, ok := b.txns[txID]
			if !ok || !tx.Visible() {
				return notFound("transaction", txID)
			}
			tx.IsTemporarilyHidden = hidden
		}
		return nil
	})
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// Transactions lists rows matching f ordered by date.
func (t *Treasury) Transactions(ctx context.Context, f transaction.Filter) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, tx := range s.Transactions {
			if f.Match(tx) {
				out = append(out, tx.Clone())
			}
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b *transaction.Transaction) int { return a.Date.Compare(b.Date) })
	return out, err
}

// Transaction retrieves a visible row by ID.
func (t *Treasury) Transaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	var out *transaction.Transaction
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, tx := range s.Transactions {
			if tx.ID == txID && tx.Visible() {
				out = tx.Clone()
				return nil
			}
		}
		return notFound("transaction", txID)
	})
	return out, err
}

// Operation retrieves an operation by ID.
func (t *Treasury) Operation(ctx context.Context, opID id.OperationID) (*transaction.Operation, error) {
	var out *transaction.Operation
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, op := range s.Operations {
			if op.ID == opID {
				out = op.Clone()
				return nil
			}
		}
		return notFound("operation", opID)
	})
	return out, err
}

// ──────────────────────────────────────────────────
// Reconciliation
// ──────────────────────────────────────────────────

// Discrepancy is an asset whose balance is not explained by its rows.
type Discrepancy struct {
	AssetID     id.AssetID  `json:"assetId"`
	Name        string      `json:"name"`
	Balance     types.Money `json:"balance"`
	Rows        types.Money `json:"rows"`
	Adjustments types.Money `json:"adjustments"`
}

// Reconcile checks balance == Σ non-deleted rows + adjustments per asset.
func (t *Treasury) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	var out []Discrepancy
	err := t.read(ctx, func(s *store.Snapshot) error {
		out = reconcile(s)
		return nil
	})
	return out, err
}

func reconcile(s *store.Snapshot) []Discrepancy {
	sums := make(map[id.AssetID]int64, len(s.Assets))
	for _, tx := range s.Transactions {
		if tx.Counts() {
			sums[tx.AssetID] += tx.Amount.Amount
		}
	}

	var out []Discrepancy
	for _, a := range s.Assets {
		rows := types.New(sums[a.ID], a.Currency)
		adj := types.New(a.Adjustments.Amount, a.Currency)
		if a.Balance.Amount != rows.Amount+adj.Amount {
			out = append(out, Discrepancy{AssetID: a.ID, Name: a.Name, Balance: a.Balance, Rows: rows, Adjustments: adj})
		}
	}
	return out
}

// Verify checks every ledger rule over the live state and returns the
// violations as a MultiError, or nil.
func (t *Treasury) Verify(ctx context.Context) error {
	var errs MultiError
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, d := range reconcile(s) {
			errs.Add(violation("reconciliation", "%s balance %s, rows %s, adjustments %s", d.Name, d.Balance, d.Rows, d.Adjustments))
		}
		for _, a := range s.Assets {
			if a.IsBank() && a.Balance.IsNegative() {
				errs.Add(violation("bank-non-negative", "%s balance %s", a.Name, a.Balance))
			}
		}
		for _, c := range s.Customers {
			for _, d := range c.Debts {
				if d.Paid.IsNegative() || d.Paid.GreaterThan(d.Amount) {
					errs.Add(violation("debt-bound", "debt %s paid %s of %s", d.ID, d.Paid, d.Amount))
				}
			}
		}
		for _, r := range s.Receivables {
			if r.Paid.IsNegative() || r.Paid.GreaterThan(r.Amount) {
				errs.Add(violation("receivable-bound", "receivable %s paid %s of %s", r.ID, r.Paid, r.Amount))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ──────────────────────────────────────────────────
// Daily summary
// ──────────────────────────────────────────────────

// AssetSummary is one asset's movement over a day.
type AssetSummary struct {
	AssetID id.AssetID  `json:"assetId"`
	Name    string      `json:"name"`
	Kind    asset.Kind  `json:"kind"`
	In      types.Money `json:"in"`
	Out     types.Money `json:"out"`
	Net     types.Money `json:"net"`
	Balance types.Money `json:"balance"`
	Count   int         `json:"count"`
}

// Summary reports per-asset inflow and outflow for the calendar day of
// day. Deleted and temporarily hidden rows are left out.
func (t *Treasury) Summary(ctx context.Context, day time.Time) ([]AssetSummary, error) {
	from := types.Day(day)
	f := transaction.Filter{From: from, To: from.AddDate(0, 0, 1)}

	var out []AssetSummary
	err := t.read(ctx, func(s *store.Snapshot) error {
		index := make(map[id.AssetID]int, len(s.Assets))
		for _, a := range s.Assets {
			index[a.ID] = len(out)
			out = append(out, AssetSummary{
				AssetID: a.ID,
				Name:    a.Name,
				Kind:    a.Kind,
				In:      types.Zero(a.Currency),
				Out:     types.Zero(a.Currency),
				Net:     types.Zero(a.Currency),
				Balance: a.Balance,
			})
		}
		for _, tx := range s.Transactions {
			i, ok := index[tx.AssetID]
			if !ok || !f.Match(tx) {
				continue
			}
			sum := &out[i]
			if tx.Amount.IsNegative() {
				sum.Out = sum.Out.Add(tx.Amount.Abs())
			} else {
				sum.In = sum.In.Add(tx.Amount)
			}
			sum.Net = sum.Net.Add(tx.Amount)
			sum.Count++
		}
		return nil
	})
	return out, err
}
