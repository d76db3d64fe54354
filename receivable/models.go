// Package receivable models money external debtors owe the business. A
// debtor is a free-text name, independent of debt customers.
package receivable

import (
	"slices"
	"strings"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

type ArchiveReason string

const (
	ArchivedManually ArchiveReason = "manual"
	ArchivedByDebtor ArchiveReason = "debtor"
	ArchivedByMerge  ArchiveReason = "merge"
)

// Origin records how a receivable came to exist.
type Origin string

const (
	OriginManual      Origin = "manual"
	OriginDebtSurplus Origin = "debt_surplus"
	OriginMerge       Origin = "merge"
)

type Receivable struct {
	types.Entity
	ID            id.ReceivableID `json:"id"`
	Debtor        string          `json:"debtor"`
	Amount        types.Money     `json:"amount"`
	Paid          types.Money     `json:"paid"`
	Currency      string          `json:"currency"`
	Date          time.Time       `json:"date"`
	Note          string          `json:"note,omitempty"`
	Origin        Origin          `json:"origin,omitempty"`
	IsArchived    bool            `json:"isArchived"`
	ArchiveReason ArchiveReason   `json:"archiveReason,omitempty"`

	// Additions lists the amounts booked into this receivable, including
	// the initial one.
	Additions []Addition `json:"additions"`
	Payments  []*Payment `json:"payments"`

	MergedInto id.ReceivableID   `json:"mergedInto,omitzero"`
	MergedFrom []id.ReceivableID `json:"mergedFrom,omitempty"`
}

// Addition is one amount booked into a receivable. OperationID is set when
// the addition moved money into an asset.
type Addition struct {
	Amount      types.Money    `json:"amount"`
	Date        time.Time      `json:"date"`
	Destination *asset.Funding `json:"destination,omitempty"`
	OperationID id.OperationID `json:"operationId,omitzero"`
	DebtID      id.DebtID      `json:"debtId,omitzero"`
}

type Payment struct {
	ID          id.ReceivablePayID `json:"id"`
	Amount      types.Money        `json:"amount"`
	Date        time.Time          `json:"date"`
	Source      asset.Funding      `json:"source"`
	OperationID id.OperationID     `json:"operationId,omitzero"`
	Note        string             `json:"note,omitempty"`

	// SettledDebtID is set when the payment came from a debt settlement.
	SettledDebtID id.DebtID        `json:"settledDebtId,omitzero"`
	DebtPaymentID id.DebtPaymentID `json:"debtPaymentId,omitzero"`
}

// Remaining returns Amount - Paid.
func (r *Receivable) Remaining() types.Money { return r.Amount.Subtract(r.Paid) }

// Open reports whether the receivable is active and still owed.
func (r *Receivable) Open() bool { return !r.IsArchived && r.Remaining().IsPositive() }

func (r *Receivable) Key() Key { return KeyOf(r.Debtor, r.Currency) }

func (r *Receivable) Clone() *Receivable {
	c := *r
	c.MergedFrom = slices.Clone(r.MergedFrom)
	c.Additions = make([]Addition, len(r.Additions))
	for i, a := range r.Additions {
		if a.Destination != nil {
			d := *a.Destination
			a.Destination = &d
		}
		c.Additions[i] = a
	}
	c.Payments = make([]*Payment, len(r.Payments))
	for i, p := range r.Payments {
		pc := *p
		c.Payments[i] = &pc
	}
	return &c
}

// Key groups receivables by debtor and currency. The same name in two
// currencies is two debtors.
type Key struct {
	Debtor   string
	Currency string
}

// KeyOf normalizes the debtor name for grouping.
func KeyOf(debtor, currency string) Key {
	return Key{
		Debtor:   strings.ToLower(strings.Join(strings.Fields(debtor), " ")),
		Currency: strings.ToUpper(currency),
	}
}

// Debtor summarizes one (debtor, currency) group.
type Debtor struct {
	Name        string        `json:"name"`
	Currency    string        `json:"currency"`
	Total       types.Money   `json:"total"`
	Paid        types.Money   `json:"paid"`
	Remaining   types.Money   `json:"remaining"`
	Receivables []*Receivable `json:"receivables"`
	IsArchived  bool          `json:"isArchived"`
}

// Group builds debtor summaries in first-seen order.
func Group(rs []*Receivable) []*Debtor {
	var out []*Debtor
	index := make(map[Key]*Debtor)
	for _, r := range rs {
		k := r.Key()
		d, ok := index[k]
		if !ok {
			d = &Debtor{
				Name:       strings.TrimSpace(r.Debtor),
				Currency:   r.Currency,
				Total:      types.Zero(r.Currency),
				Paid:       types.Zero(r.Currency),
				Remaining:  types.Zero(r.Currency),
				IsArchived: true,
			}
			index[k] = d
			out = append(out, d)
		}
		d.Receivables = append(d.Receivables, r)
		if !r.IsArchived {
			d.IsArchived = false
			d.Total = d.Total.Add(r.Amount)
			d.Paid = d.Paid.Add(r.Paid)
			d.Remaining = d.Remaining.Add(r.Remaining())
		}
	}
	return out
}

type ListOpts struct {
	IncludeArchived bool
	Debtor          string
	Currency        string
}

// Match reports whether r passes the filter.
func (o ListOpts) Match(r *Receivable) bool {
	if r.IsArchived && !o.IncludeArchived {
		return false
	}
	if o.Currency != "" && r.Currency != strings.ToUpper(o.Currency) {
		return false
	}
	if o.Debtor != "" && KeyOf(o.Debtor, r.Currency) != r.Key() {
		return false
	}
	return true
}
