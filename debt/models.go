// Package debt models customers and the debts they owe the business.
package debt

import (
	"slices"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

// ArchiveReason records what archived a debt, so a cascade restore only
// revives what the cascade archived.
type ArchiveReason string

const (
	ArchivedManually   ArchiveReason = "manual"
	ArchivedByCustomer ArchiveReason = "customer"
	ArchivedByMerge    ArchiveReason = "merge"
)

// Customer owes debts in a single currency.
type Customer struct {
	types.Entity
	ID         id.CustomerID `json:"id"`
	Name       string        `json:"name"`
	Currency   string        `json:"currency"`
	IsBankDebt bool          `json:"isBankDebt"`
	IsArchived bool          `json:"isArchived"`
	Debts      []*Debt       `json:"debts"`
}

// Debt holds 0 <= Paid <= Amount at all times.
type Debt struct {
	types.Entity
	ID            id.DebtID     `json:"id"`
	Amount        types.Money   `json:"amount"`
	Paid          types.Money   `json:"paid"`
	Date          time.Time     `json:"date"`
	Note          string        `json:"note,omitempty"`
	IsArchived    bool          `json:"isArchived"`
	ArchiveReason ArchiveReason `json:"archiveReason,omitempty"`

	Source      asset.Funding  `json:"source"`
	OperationID id.OperationID `json:"operationId,omitzero"`

	MergedInto    id.DebtID   `json:"mergedInto,omitzero"`
	MergedFrom    []id.DebtID `json:"mergedFrom,omitempty"`
	ConvertedFrom id.DebtID   `json:"convertedFrom,omitzero"`

	Payments []*Payment `json:"payments"`
}

// Remaining returns Amount - Paid.
func (d *Debt) Remaining() types.Money { return d.Amount.Subtract(d.Paid) }

// IsSettled reports whether nothing remains to pay.
func (d *Debt) IsSettled() bool { return !d.Remaining().IsPositive() }

// Open reports whether the debt is active and still owed.
func (d *Debt) Open() bool { return !d.IsArchived && !d.IsSettled() }

// Mode is how a debt payment moves money.
type Mode string

const (
	// ModeNormal credits a destination asset.
	ModeNormal Mode = "normal"
	// ModeSettlement offsets a receivable owed by the customer.
	ModeSettlement Mode = "settlement"
	// ModeExternal closes the debt with no asset or receivable effect.
	ModeExternal Mode = "external"
)

func (m Mode) Valid() bool {
	return m == ModeNormal || m == ModeSettlement || m == ModeExternal
}

type Payment struct {
	ID     id.DebtPaymentID `json:"id"`
	Date   time.Time        `json:"date"`
	Mode   Mode             `json:"mode"`
	Amount types.Money      `json:"amount"`
	// Applied is the part of Amount that reduced the debt.
	Applied      types.Money     `json:"applied"`
	Surplus      *SurplusOption  `json:"surplus,omitempty"`
	Destination  asset.Funding   `json:"destination"`
	ReceivableID id.ReceivableID `json:"receivableId,omitzero"`
	OperationID  id.OperationID  `json:"operationId,omitzero"`
	Note         string          `json:"note,omitempty"`
}

// SurplusDisposition decides what happens to an overpayment.
type SurplusDisposition string

const (
	// SurplusDepositOnly credits the full amount; the excess is not tracked.
	SurplusDepositOnly SurplusDisposition = "deposit_only"
	// SurplusProfit records the excess as a standalone profit row.
	SurplusProfit SurplusDisposition = "profit"
	// SurplusReceivable books the excess as a receivable.
	SurplusReceivable SurplusDisposition = "receivable"
)

func (d SurplusDisposition) Valid() bool {
	return d == SurplusDepositOnly || d == SurplusProfit || d == SurplusReceivable
}

// SurplusOption is the caller's confirmed surplus decision.
type SurplusOption struct {
	Disposition SurplusDisposition `json:"disposition"`
	// DebtorName names the receivable debtor for SurplusReceivable. An
	// open receivable of the same debtor and currency is appended to.
	DebtorName string `json:"debtorName,omitempty"`
	// ReceivableID appends to a specific receivable instead.
	ReceivableID id.ReceivableID `json:"receivableId,omitzero"`
}

// Quote splits a payment amount against a debt.
type Quote struct {
	Remaining types.Money `json:"remaining"`
	Applied   types.Money `json:"applied"`
	Surplus   types.Money `json:"surplus"`
}

// HasSurplus reports whether the payment exceeds the remaining balance.
func (q Quote) HasSurplus() bool { return q.Surplus.IsPositive() }

// QuotePayment computes applied = min(amount, remaining) and the surplus.
func QuotePayment(d *Debt, amount types.Money) Quote {
	remaining := d.Remaining()
	applied := amount.Min(remaining)
	return Quote{
		Remaining: remaining,
		Applied:   applied,
		Surplus:   amount.Subtract(applied),
	}
}

func (c *Customer) Clone() *Customer {
	cc := *c
	cc.Debts = make([]*Debt, len(c.Debts))
	for i, d := range c.Debts {
		cc.Debts[i] = d.Clone()
	}
	return &cc
}

func (d *Debt) Clone() *Debt {
	c := *d
	c.MergedFrom = slices.Clone(d.MergedFrom)
	c.Payments = make([]*Payment, len(d.Payments))
	for i, p := range d.Payments {
		pc := *p
		if p.Surplus != nil {
			s := *p.Surplus
			pc.Surplus = &s
		}
		c.Payments[i] = &pc
	}
	return &c
}

// Debt returns the customer's debt with debtID, or nil.
func (c *Customer) Debt(debtID id.DebtID) *Debt {
	for _, d := range c.Debts {
		if d.ID == debtID {
			return d
		}
	}
	return nil
}

// Outstanding sums the remaining balance of the active debts.
func (c *Customer) Outstanding() types.Money {
	total := types.Zero(c.Currency)
	for _, d := range c.Debts {
		if !d.IsArchived {
			total = total.Add(d.Remaining())
		}
	}
	return total
}

type ListOpts struct {
	IncludeArchived bool
	Currency        string
}
