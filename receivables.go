package treasury

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/debt"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/receivable"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

func (b *book) newReceivable(debtor string, amount types.Money, date time.Time, note string, origin receivable.Origin) *receivable.Receivable {
	r := &receivable.Receivable{
		Entity:    b.entity(),
		ID:        id.NewReceivableID(),
		Debtor:    strings.TrimSpace(debtor),
		Amount:    amount,
		Paid:      types.Zero(amount.Currency),
		Currency:  amount.Currency,
		Date:      date,
		Note:      note,
		Origin:    origin,
		Additions: []receivable.Addition{},
		Payments:  []*receivable.Payment{},
	}
	b.snap.Receivables = append(b.snap.Receivables, r)
	return r
}

// debtorGroup returns every receivable of (debtor, currency).
func (b *book) debtorGroup(debtor, currency string) ([]*receivable.Receivable, error) {
	key := receivable.KeyOf(debtor, currency)
	var out []*receivable.Receivable
	for _, r := range b.snap.Receivables {
		if r.Key() == key {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, NotFoundError{Kind: "debtor", ID: key.Debtor + "/" + key.Currency}
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// Receivable retrieves a receivable by ID.
func (t *Treasury) Receivable(ctx context.Context, receivableID id.ReceivableID) (*receivable.Receivable, error) {
	var out *receivable.Receivable
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, r := range s.Receivables {
			if r.ID == receivableID {
				out = r.Clone()
				return nil
			}
		}
		return notFound("receivable", receivableID)
	})
	return out, err
}

// Receivables lists receivables matching opts.
func (t *Treasury) Receivables(ctx context.Context, opts receivable.ListOpts) ([]*receivable.Receivable, error) {
	var out []*receivable.Receivable
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, r := range s.Receivables {
			if opts.Match(r) {
				out = append(out, r.Clone())
			}
		}
		return nil
	})
	return out, err
}

// Debtors groups receivables by (debtor, currency). The same name in two
// currencies yields two debtors.
func (t *Treasury) Debtors(ctx context.Context, includeArchived bool) ([]*receivable.Debtor, error) {
	var rs []*receivable.Receivable
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, r := range s.Receivables {
			if includeArchived || !r.IsArchived {
				rs = append(rs, r.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receivable.Group(rs), nil
}

// ──────────────────────────────────────────────────
// Creation and collection
// ──────────────────────────────────────────────────

// AddReceivableInput describes money a debtor owes. A non-nil, non-external
// Destination is credited with the amount.
type AddReceivableInput struct {
	Debtor      string
	Amount      types.Money
	Destination *asset.Funding
	Date        time.Time
	Note        string
}

// AddReceivable records a receivable.
func (t *Treasury) AddReceivable(ctx context.Context, in AddReceivableInput) (*receivable.Receivable, error) {
	if strings.TrimSpace(in.Debtor) == "" {
		return nil, invalid("debtor", "debtor name is required")
	}
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}

	var out *receivable.Receivable
	err := t.mutate(ctx, "add_receivable", func(b *book) error {
		date := b.dateOr(in.Date)
		r := b.newReceivable(in.Debtor, in.Amount, date, in.Note, receivable.OriginManual)
		addition := receivable.Addition{Amount: in.Amount, Date: date}

		if in.Destination != nil && !in.Destination.External {
			dest, err := b.resolve(in.Amount.Currency, in.Destination.Selection)
			if err != nil {
				return err
			}
			op := b.begin(transaction.KindReceivableFunding, r.ID.String())
			if _, err := b.credit(op, entry{
				asset:       dest,
				amount:      in.Amount,
				typ:         transaction.TypeReceivableFunding,
				description: "Receivable: " + r.Debtor,
				party:       r.Debtor,
				date:        date,
			}); err != nil {
				return err
			}
			funding := asset.FromAsset(dest.ID)
			addition.Destination = &funding
			addition.OperationID = op.ID
		} else if in.Destination != nil {
			funding := asset.External()
			addition.Destination = &funding
		}

		r.Additions = append(r.Additions, addition)
		out = r.Clone()
		return nil
	})
	return out, err
}

// PayReceivableInput describes a collection against a receivable.
type PayReceivableInput struct {
	ReceivableID id.ReceivableID
	Amount       types.Money
	Source       asset.Funding
	Date         time.Time
	Note         string
}

// PayReceivable records a payment against a receivable, debiting Source
// unless it is external. Paying more than remains is refused.
func (t *Treasury) PayReceivable(ctx context.Context, in PayReceivableInput) (*receivable.Receivable, error) {
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}

	var out *receivable.Receivable
	err := t.mutate(ctx, "pay_receivable", func(b *book) error {
		r, err := b.receivable(in.ReceivableID)
		if err != nil {
			return err
		}
		if r.IsArchived {
			return violation("archived-receivable", "receivable %s is archived", r.ID)
		}
		if in.Amount.Currency != r.Currency {
			return invalid("amount", "receivable is in %s, got %s", r.Currency, in.Amount.Currency)
		}
		if in.Amount.GreaterThan(r.Remaining()) {
			return violation("receivable-bound", "payment of %s exceeds remaining %s", in.Amount, r.Remaining())
		}

		date := b.dateOr(in.Date)
		p := &receivable.Payment{
			ID:     id.NewReceivablePayID(),
			Amount: in.Amount,
			Date:   date,
			Source: in.Source,
			Note:   in.Note,
		}
		if !in.Source.External {
			src, err := b.resolve(r.Currency, in.Source.Selection)
			if err != nil {
				return err
			}
			op := b.begin(transaction.KindReceivablePayment, r.ID.String())
			if _, err := b.debit(op, entry{
				asset:       src,
				amount:      in.Amount,
				typ:         transaction.TypeReceivablePayment,
				description: "Receivable payment: " + r.Debtor,
				party:       r.Debtor,
				date:        date,
			}); err != nil {
				return err
			}
			p.Source = asset.FromAsset(src.ID)
			p.OperationID = op.ID
		}

		r.Paid = r.Paid.Add(in.Amount)
		r.Payments = append(r.Payments, p)
		r.Touch(b.now)
		out = r.Clone()
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────
// Archive and restore
// ──────────────────────────────────────────────────

// ArchiveReceivable archives a single receivable.
func (t *Treasury) ArchiveReceivable(ctx context.Context, receivableID id.ReceivableID) error {
	return t.mutate(ctx, "archive_receivable", func(b *book) error {
		r, err := b.receivable(receivableID)
		if err != nil {
			return err
		}
		if r.IsArchived {
			return nil
		}
		r.IsArchived = true
		r.ArchiveReason = receivable.ArchivedManually
		r.Touch(b.now)
		b.recordChange("archive", "receivable", r.ID, nil)
		return nil
	})
}

// RestoreReceivable restores an archived receivable. Merged receivables
// stay archived.
func (t *Treasury) RestoreReceivable(ctx context.Context, receivableID id.ReceivableID) error {
	return t.mutate(ctx, "restore_receivable", func(b *book) error {
		r, err := b.receivable(receivableID)
		if err != nil {
			return err
		}
		if !r.MergedInto.IsNil() {
			return violation("merged-receivable", "receivable %s was merged into %s", r.ID, r.MergedInto)
		}
		r.IsArchived = false
		r.ArchiveReason = ""
		r.Touch(b.now)
		b.recordChange("restore", "receivable", r.ID, nil)
		return nil
	})
}

// ArchiveDebtor archives every active receivable of (debtor, currency).
func (t *Treasury) ArchiveDebtor(ctx context.Context, debtor, currency string) error {
	return t.mutate(ctx, "archive_debtor", func(b *book) error {
		group, err := b.debtorGroup(debtor, currency)
		if err != nil {
			return err
		}
		for _, r := range group {
			if !r.IsArchived {
				r.IsArchived = true
				r.ArchiveReason = receivable.ArchivedByDebtor
				r.Touch(b.now)
			}
		}
		b.recordChange("archive", "debtor", group[0].ID, map[string]string{"debtor": debtor, "currency": strings.ToUpper(currency)})
		return nil
	})
}

// RestoreDebtor restores the receivables ArchiveDebtor archived.
func (t *Treasury) RestoreDebtor(ctx context.Context, debtor, currency string) error {
	return t.mutate(ctx, "restore_debtor", func(b *book) error {
		group, err := b.debtorGroup(debtor, currency)
		if err != nil {
			return err
		}
		for _, r := range group {
			if r.IsArchived && r.ArchiveReason == receivable.ArchivedByDebtor {
				r.IsArchived = false
				r.ArchiveReason = ""
				r.Touch(b.now)
			}
		}
		b.recordChange("restore", "debtor", group[0].ID, map[string]string{"debtor": debtor, "currency": strings.ToUpper(currency)})
		return nil
	})
}

// MergeDebtorReceivables folds the open receivables of (debtor, currency)
// into one. No money moves.
func (t *Treasury) MergeDebtorReceivables(ctx context.Context, debtor, currency string) (*receivable.Receivable, error) {
	var out *receivable.Receivable
	err := t.mutate(ctx, "merge_receivables", func(b *book) error {
		group, err := b.debtorGroup(debtor, currency)
		if err != nil {
			return err
		}
		var open []*receivable.Receivable
		for _, r := range group {
			if r.Open() {
				open = append(open, r)
			}
		}
		if len(open) < 2 {
			return violation("merge-needs-two", "debtor %s has %d open receivables in %s", debtor, len(open), currency)
		}

		total := types.Zero(open[0].Currency)
		for _, r := range open {
			total = total.Add(r.Remaining())
		}
		merged := b.newReceivable(open[0].Debtor, total, b.now, "Merged receivables", receivable.OriginMerge)
		merged.Additions = append(merged.Additions, receivable.Addition{Amount: total, Date: b.now})
		for _, r := range open {
			merged.MergedFrom = append(merged.MergedFrom, r.ID)
			r.IsArchived = true
			r.ArchiveReason = receivable.ArchivedByMerge
			r.MergedInto = merged.ID
			r.Touch(b.now)
		}

		b.begin(transaction.KindReceivableMerge, merged.ID.String())
		out = merged.Clone()
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────
// Permanent deletion
// ──────────────────────────────────────────────────

// DeleteArchivedReceivable removes an archived receivable for good. Its
// funding and payment rows are reversed visibly and debt settlements made
// against it are undone. A receivable merged into one that still exists
// cannot be deleted.
func (t *Treasury) DeleteArchivedReceivable(ctx context.Context, receivableID id.ReceivableID) error {
	return t.mutate(ctx, "delete_receivable", func(b *book) error {
		r, err := b.receivable(receivableID)
		if err != nil {
			return err
		}
		if !r.IsArchived {
			return violation("archived-delete", "receivable %s must be archived first", r.ID)
		}
		if !r.MergedInto.IsNil() {
			if _, err := b.receivable(r.MergedInto); err == nil {
				return violation("merged-receivable", "receivable %s lives on in %s; delete that one first", r.ID, r.MergedInto)
			}
		}

		for _, a := range r.Additions {
			if err := b.voidByID(a.OperationID, transaction.Reversed); err != nil {
				return err
			}
		}
		for _, p := range r.Payments {
			if err := b.voidByID(p.OperationID, transaction.Reversed); err != nil {
				return err
			}
			if !p.SettledDebtID.IsNil() {
				b.unsettleDebt(p)
			}
		}

		b.snap.Receivables = slices.DeleteFunc(b.snap.Receivables, func(x *receivable.Receivable) bool { return x.ID == r.ID })
		b.recordChange("delete", "receivable", r.ID, map[string]string{"debtor": r.Debtor})
		return nil
	})
}

// unsettleDebt reverts the debt side of a settlement made against a
// receivable.
func (b *book) unsettleDebt(p *receivable.Payment) {
	c, d := b.debtByID(p.SettledDebtID)
	if d == nil {
		return
	}
	d.Payments = slices.DeleteFunc(d.Payments, func(dp *debt.Payment) bool {
		if dp.ID != p.DebtPaymentID {
			return false
		}
		d.Paid = d.Paid.Subtract(dp.Applied)
		return true
	})
	d.Touch(b.now)
	c.Touch(b.now)
}
