package treasury

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/debt"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/receivable"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// ──────────────────────────────────────────────────
// Customers
// ──────────────────────────────────────────────────

// AddCustomerInput describes a new debt customer.
type AddCustomerInput struct {
	Name       string
	Currency   string
	IsBankDebt bool
}

// AddCustomer creates a customer. Names are unique per currency; bank-debt
// customers owe LYD.
func (t *Treasury) AddCustomer(ctx context.Context, in AddCustomerInput) (*debt.Customer, error) {
	name := strings.TrimSpace(in.Name)
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if name == "" {
		return nil, invalid("name", "customer name is required")
	}
	if !types.KnownCurrency(currency) {
		return nil, invalid("currency", "unknown currency %q", in.Currency)
	}
	if in.IsBankDebt && currency != asset.BankCurrency {
		return nil, invalid("currency", "bank debts are held in %s", asset.BankCurrency)
	}

	var out *debt.Customer
	err := t.mutate(ctx, "add_customer", func(b *book) error {
		c, err := b.addCustomer(name, currency, in.IsBankDebt)
		if err != nil {
			return err
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

func (b *book) addCustomer(name, currency string, bankDebt bool) (*debt.Customer, error) {
	for _, c := range b.snap.Customers {
		if c.Currency == currency && strings.EqualFold(c.Name, name) {
			return nil, invalid("name", "customer %q already exists in %s", name, currency)
		}
	}
	c := &debt.Customer{
		Entity:     b.entity(),
		ID:         id.NewCustomerID(),
		Name:       name,
		Currency:   currency,
		IsBankDebt: bankDebt,
		Debts:      []*debt.Debt{},
	}
	b.snap.Customers = append(b.snap.Customers, c)
	return c, nil
}

// Customer retrieves a customer with its debts.
func (t *Treasury) Customer(ctx context.Context, customerID id.CustomerID) (*debt.Customer, error) {
	var out *debt.Customer
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, c := range s.Customers {
			if c.ID == customerID {
				out = c.Clone()
				return nil
			}
		}
		return notFound("customer", customerID)
	})
	return out, err
}

// Customers lists customers. Archived customers are skipped unless asked for.
func (t *Treasury) Customers(ctx context.Context, opts debt.ListOpts) ([]*debt.Customer, error) {
	var out []*debt.Customer
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, c := range s.Customers {
			if c.IsArchived && !opts.IncludeArchived {
				continue
			}
			if opts.Currency != "" && c.Currency != strings.ToUpper(opts.Currency) {
				continue
			}
			out = append(out, c.Clone())
		}
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────
// Debts
// ──────────────────────────────────────────────────

// AddDebtInput describes money lent to a customer. Source picks where the
// money leaves from; External records the debt with no asset movement.
type AddDebtInput struct {
	CustomerID id.CustomerID
	Amount     types.Money
	Source     asset.Funding
	Date       time.Time
	Note       string
}

// AddDebt records a new debt and debits its source.
func (t *Treasury) AddDebt(ctx context.Context, in AddDebtInput) (*debt.Debt, error) {
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}

	var out *debt.Debt
	err := t.mutate(ctx, "add_debt", func(b *book) error {
		c, err := b.customer(in.CustomerID)
		if err != nil {
			return err
		}
		if c.IsArchived {
			return violation("archived-customer", "customer %s is archived", c.Name)
		}
		if in.Amount.Currency != c.Currency {
			return invalid("amount", "customer %s owes %s, got %s", c.Name, c.Currency, in.Amount.Currency)
		}

		d := &debt.Debt{
			Entity:   b.entity(),
			ID:       id.NewDebtID(),
			Amount:   in.Amount,
			Paid:     types.Zero(c.Currency),
			Date:     b.dateOr(in.Date),
			Note:     in.Note,
			Source:   in.Source,
			Payments: []*debt.Payment{},
		}

		if !in.Source.External {
			var src *asset.Asset
			if c.IsBankDebt {
				if !in.Source.Explicit() {
					return invalid("source", "bank debts must name the bank they are paid from")
				}
				src, err = b.bank(in.Source.AssetID)
			} else {
				src, err = b.resolve(c.Currency, in.Source.Selection)
			}
			if err != nil {
				return err
			}

			op := b.begin(transaction.KindDebtIssue, d.ID.String())
			if _, err := b.debit(op, entry{
				asset:       src,
				amount:      in.Amount,
				typ:         transaction.TypeDebtIssued,
				description: "Debt: " + c.Name,
				party:       c.Name,
				date:        d.Date,
			}); err != nil {
				return err
			}
			d.OperationID = op.ID
			d.Source = asset.FromAsset(src.ID)
		}

		c.Debts = append(c.Debts, d)
		c.Touch(b.now)
		out = d.Clone()
		return nil
	})
	return out, err
}

// QuoteDebtPayment splits amount against the debt's remaining balance
// without committing anything.
func (t *Treasury) QuoteDebtPayment(ctx context.Context, customerID id.CustomerID, debtID id.DebtID, amount types.Money) (debt.Quote, error) {
	var out debt.Quote
	err := t.read(ctx, func(s *store.Snapshot) error {
		b := newBook(s, t.clock(), t.defaultLocation)
		_, d, err := b.debt(customerID, debtID)
		if err != nil {
			return err
		}
		if amount.Currency != d.Amount.Currency {
			return invalid("amount", "debt is in %s, got %s", d.Amount.Currency, amount.Currency)
		}
		out = debt.QuotePayment(d, amount)
		return nil
	})
	return out, err
}

// PaymentStatus reports whether a debt payment was committed.
type PaymentStatus string

const (
	PaymentCommitted               PaymentStatus = "committed"
	PaymentAwaitingSurplusDecision PaymentStatus = "awaiting_surplus_decision"
)

// PayDebtInput describes a debt payment. Destination is used in normal
// mode, ReceivableID in settlement mode. Surplus must be set when Amount
// exceeds the remaining balance.
type PayDebtInput struct {
	CustomerID   id.CustomerID
	DebtID       id.DebtID
	Amount       types.Money
	Mode         debt.Mode
	Destination  asset.Selection
	ReceivableID id.ReceivableID
	Surplus      *debt.SurplusOption
	Date         time.Time
	Note         string
}

// DebtPaymentResult is the outcome of PayDebt. When Status is
// PaymentAwaitingSurplusDecision nothing was committed and only Quote is
// set.
type DebtPaymentResult struct {
	Status     PaymentStatus
	Quote      debt.Quote
	Payment    *debt.Payment
	Debt       *debt.Debt
	Receivable *receivable.Receivable
	Operation  *transaction.Operation
}

// PayDebt applies a payment to a debt.
func (t *Treasury) PayDebt(ctx context.Context, in PayDebtInput) (*DebtPaymentResult, error) {
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}
	mode := in.Mode
	if mode == "" {
		mode = debt.ModeNormal
	}
	if !mode.Valid() {
		return nil, invalid("mode", "unknown payment mode %q", in.Mode)
	}

	res := &DebtPaymentResult{}
	err := t.mutate(ctx, "pay_debt", func(b *book) error {
		c, d, err := b.debt(in.CustomerID, in.DebtID)
		if err != nil {
			return err
		}
		if d.IsArchived {
			return violation("archived-debt", "debt %s is archived", d.ID)
		}
		if in.Amount.Currency != c.Currency {
			return invalid("amount", "debt is in %s, got %s", c.Currency, in.Amount.Currency)
		}
		if d.IsSettled() {
			return violation("debt-bound", "debt %s is already paid", d.ID)
		}

		quote := debt.QuotePayment(d, in.Amount)
		res.Quote = quote
		if quote.HasSurplus() {
			if mode != debt.ModeNormal {
				return violation("debt-bound", "%s payment of %s exceeds remaining %s", mode, in.Amount, quote.Remaining)
			}
			if in.Surplus == nil {
				res.Status = PaymentAwaitingSurplusDecision
				return errDiscard
			}
			if !in.Surplus.Disposition.Valid() {
				return invalid("surplus", "unknown disposition %q", in.Surplus.Disposition)
			}
		}

		date := b.dateOr(in.Date)
		p := &debt.Payment{
			ID:      id.NewDebtPaymentID(),
			Date:    date,
			Mode:    mode,
			Amount:  in.Amount,
			Applied: quote.Applied,
			Note:    in.Note,
		}
		if quote.HasSurplus() {
			opt := *in.Surplus
			p.Surplus = &opt
		}

		switch mode {
		case debt.ModeNormal:
			r, op, err := b.payDebtNormal(c, d, p, in.Destination, quote)
			if err != nil {
				return err
			}
			res.Receivable, res.Operation = r, op
		case debt.ModeSettlement:
			r, err := b.settleAgainstReceivable(c, d, p, in.ReceivableID)
			if err != nil {
				return err
			}
			res.Receivable = r
			p.Destination = asset.External()
		case debt.ModeExternal:
			p.Destination = asset.External()
		}

		d.Paid = d.Paid.Add(quote.Applied)
		d.Payments = append(d.Payments, p)
		d.Touch(b.now)
		c.Touch(b.now)

		res.Status = PaymentCommitted
		pc := *p
		res.Payment = &pc
		res.Debt = d.Clone()
		if res.Receivable != nil {
			res.Receivable = res.Receivable.Clone()
		}
		if res.Operation != nil {
			res.Operation = res.Operation.Clone()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// payDebtNormal credits the destination according to the surplus decision.
func (b *book) payDebtNormal(c *debt.Customer, d *debt.Debt, p *debt.Payment, sel asset.Selection, quote debt.Quote) (*receivable.Receivable, *transaction.Operation, error) {
	dest, err := b.resolve(c.Currency, sel)
	if err != nil {
		return nil, nil, err
	}
	p.Destination = asset.FromAsset(dest.ID)

	kind := transaction.KindDebtPayment
	if quote.HasSurplus() && p.Surplus.Disposition != debt.SurplusDepositOnly {
		kind = transaction.KindDebtSurplusSettlement
	}
	op := b.begin(kind, d.ID.String())
	p.OperationID = op.ID

	credited := quote.Applied
	if quote.HasSurplus() && p.Surplus.Disposition == debt.SurplusDepositOnly {
		credited = p.Amount
	}
	if _, err := b.credit(op, entry{
		asset:       dest,
		amount:      credited,
		typ:         transaction.TypeDebtPayment,
		description: "Debt payment: " + c.Name,
		party:       c.Name,
		date:        p.Date,
	}); err != nil {
		return nil, nil, err
	}

	if !quote.HasSurplus() {
		return nil, op, nil
	}

	switch p.Surplus.Disposition {
	case debt.SurplusProfit:
		_, err := b.credit(op, entry{
			asset:       dest,
			amount:      quote.Surplus,
			typ:         transaction.TypeSurplusProfit,
			description: "Surplus profit: " + c.Name,
			party:       c.Name,
			date:        p.Date,
		})
		return nil, op, err
	case debt.SurplusReceivable:
		r, err := b.bookSurplus(c, d, p.Surplus, quote.Surplus, p.Date)
		if err != nil {
			return nil, nil, err
		}
		p.ReceivableID = r.ID
		return r, op, nil
	}
	return nil, op, nil
}

// bookSurplus adds an overpayment to a receivable: the one named, an open
// one of the same debtor and currency, or a new one.
func (b *book) bookSurplus(c *debt.Customer, d *debt.Debt, opt *debt.SurplusOption, surplus types.Money, date time.Time) (*receivable.Receivable, error) {
	addition := receivable.Addition{Amount: surplus, Date: date, DebtID: d.ID}

	var target *receivable.Receivable
	if !opt.ReceivableID.IsNil() {
		r, err := b.receivable(opt.ReceivableID)
		if err != nil {
			return nil, err
		}
		if r.IsArchived || r.Currency != c.Currency {
			return nil, invalid("surplus.receivableId", "receivable %s is not an active %s receivable", r.ID, c.Currency)
		}
		target = r
	} else {
		debtor := strings.TrimSpace(opt.DebtorName)
		if debtor == "" {
			debtor = c.Name
		}
		key := receivable.KeyOf(debtor, c.Currency)
		for _, r := range b.snap.Receivables {
			if !r.IsArchived && r.Key() == key {
				target = r
				break
			}
		}
		if target == nil {
			target = b.newReceivable(debtor, types.Zero(c.Currency), date, "Surplus of debt payment", receivable.OriginDebtSurplus)
		}
	}

	target.Amount = target.Amount.Add(surplus)
	target.Additions = append(target.Additions, addition)
	target.Touch(b.now)
	return target, nil
}

// settleAgainstReceivable offsets a debt payment against money the
// customer is owed as a receivable.
func (b *book) settleAgainstReceivable(c *debt.Customer, d *debt.Debt, p *debt.Payment, receivableID id.ReceivableID) (*receivable.Receivable, error) {
	if receivableID.IsNil() {
		return nil, invalid("receivableId", "settlement needs a receivable")
	}
	r, err := b.receivable(receivableID)
	if err != nil {
		return nil, err
	}
	if r.IsArchived {
		return nil, violation("archived-receivable", "receivable %s is archived", r.ID)
	}
	if r.Currency != c.Currency {
		return nil, invalid("receivableId", "receivable is in %s, debt is in %s", r.Currency, c.Currency)
	}
	if p.Amount.GreaterThan(r.Remaining()) {
		return nil, violation("receivable-bound", "settlement of %s exceeds receivable remaining %s", p.Amount, r.Remaining())
	}

	r.Paid = r.Paid.Add(p.Amount)
	r.Payments = append(r.Payments, &receivable.Payment{
		ID:            id.NewReceivablePayID(),
		Amount:        p.Amount,
		Date:          p.Date,
		Source:        asset.External(),
		SettledDebtID: d.ID,
		DebtPaymentID: p.ID,
		Note:          "Settled against debt of " + c.Name,
	})
	r.Touch(b.now)
	p.ReceivableID = r.ID
	return r, nil
}

// ──────────────────────────────────────────────────
// Archive and restore
// ──────────────────────────────────────────────────

// ArchiveCustomer archives a customer and its active debts.
func (t *Treasury) ArchiveCustomer(ctx context.Context, customerID id.CustomerID) error {
	return t.mutate(ctx, "archive_customer", func(b *book) error {
		c, err := b.customer(customerID)
		if err != nil {
			return err
		}
		c.IsArchived = true
		for _, d := range c.Debts {
			if !d.IsArchived {
				d.IsArchived = true
				d.ArchiveReason = debt.ArchivedByCustomer
				d.Touch(b.now)
			}
		}
		c.Touch(b.now)
		b.recordChange("archive", "customer", c.ID, nil)
		return nil
	})
}

// RestoreCustomer restores a customer and the debts its archive cascaded to.
func (t *Treasury) RestoreCustomer(ctx context.Context, customerID id.CustomerID) error {
	return t.mutate(ctx, "restore_customer", func(b *book) error {
		c, err := b.customer(customerID)
		if err != nil {
			return err
		}
		c.IsArchived = false
		for _, d := range c.Debts {
			if d.IsArchived && d.ArchiveReason == debt.ArchivedByCustomer {
				d.IsArchived = false
				d.ArchiveReason = ""
				d.Touch(b.now)
			}
		}
		c.Touch(b.now)
		b.recordChange("restore", "customer", c.ID, nil)
		return nil
	})
}

// ArchiveDebt archives a single debt.
func (t *Treasury) ArchiveDebt(ctx context.Context, customerID id.CustomerID, debtID id.DebtID) error {
	return t.mutate(ctx, "archive_debt", func(b *book) error {
		_, d, err := b.debt(customerID, debtID)
		if err != nil {
			return err
		}
		if d.IsArchived {
			return nil
		}
		d.IsArchived = true
		d.ArchiveReason = debt.ArchivedManually
		d.Touch(b.now)
		b.recordChange("archive", "debt", d.ID, nil)
		return nil
	})
}

// RestoreDebt restores a single archived debt. Debts absorbed by a merge
// stay archived.
func (t *Treasury) RestoreDebt(ctx context.Context, customerID id.CustomerID, debtID id.DebtID) error {
	return t.mutate(ctx, "restore_debt", func(b *book) error {
		c, d, err := b.debt(customerID, debtID)
		if err != nil {
			return err
		}
		if !d.MergedInto.IsNil() {
			return violation("merged-debt", "debt %s was merged into %s", d.ID, d.MergedInto)
		}
		if c.IsArchived {
			return violation("archived-customer", "restore customer %s first", c.Name)
		}
		d.IsArchived = false
		d.ArchiveReason = ""
		d.Touch(b.now)
		b.recordChange("restore", "debt", d.ID, nil)
		return nil
	})
}

// ──────────────────────────────────────────────────
// Merge and conversion
// ──────────────────────────────────────────────────

// MergeCustomerDebts folds every open debt of a customer into one new debt
// of their combined remaining balance. No money moves.
func (t *Treasury) MergeCustomerDebts(ctx context.Context, customerID id.CustomerID) (*debt.Debt, error) {
	var out *debt.Debt
	err := t.mutate(ctx, "merge_debts", func(b *book) error {
		c, err := b.customer(customerID)
		if err != nil {
			return err
		}
		var open []*debt.Debt
		for _, d := range c.Debts {
			if d.Open() {
				open = append(open, d)
			}
		}
		if len(open) < 2 {
			return violation("merge-needs-two", "customer %s has %d open debts", c.Name, len(open))
		}

		merged := &debt.Debt{
			Entity:   b.entity(),
			ID:       id.NewDebtID(),
			Amount:   types.Zero(c.Currency),
			Paid:     types.Zero(c.Currency),
			Date:     b.now,
			Source:   asset.External(),
			Payments: []*debt.Payment{},
		}
		for _, d := range open {
			merged.Amount = merged.Amount.Add(d.Remaining())
			merged.MergedFrom = append(merged.MergedFrom, d.ID)
			d.IsArchived = true
			d.ArchiveReason = debt.ArchivedByMerge
			d.MergedInto = merged.ID
			d.Touch(b.now)
		}
		merged.Note = "Merged " + strconv.Itoa(len(open)) + " debts"

		b.begin(transaction.KindDebtMerge, merged.ID.String())
		c.Debts = append(c.Debts, merged)
		c.Touch(b.now)
		out = merged.Clone()
		return nil
	})
	return out, err
}

// ConvertTarget picks the LYD debt a conversion lands on: an existing
// customer or a new one by name, optionally appending to one of its debts.
type ConvertTarget struct {
	CustomerID      id.CustomerID
	NewCustomerName string
	AppendToDebtID  id.DebtID
}

// ConvertDebtInput converts part of a USD debt into LYD. Give exactly one
// of Rate (LYD per USD) and TotalLYD.
type ConvertDebtInput struct {
	CustomerID id.CustomerID
	DebtID     id.DebtID
	USDAmount  types.Money
	Rate       decimal.Decimal
	TotalLYD   types.Money
	Target     ConvertTarget
	Date       time.Time
	Note       string
}

// ConvertDebtResult reports both sides of a conversion.
type ConvertDebtResult struct {
	Source    *debt.Debt
	Customer  *debt.Customer
	Debt      *debt.Debt
	Converted types.Money
}

// ConvertSingleUSDDebtToLYD moves usdAmount off a USD debt and books its LYD
// value on an LYD debt. No asset moves.
func (t *Treasury) ConvertSingleUSDDebtToLYD(ctx context.Context, in ConvertDebtInput) (*ConvertDebtResult, error) {
	if err := positive("usdAmount", in.USDAmount); err != nil {
		return nil, err
	}
	if in.USDAmount.Currency != types.CurrencyUSD {
		return nil, invalid("usdAmount", "must be in USD, got %s", in.USDAmount.Currency)
	}
	hasRate, hasTotal := in.Rate.IsPositive(), !in.TotalLYD.IsZero()
	if hasRate == hasTotal {
		return nil, invalid("rate", "give exactly one of a rate or an LYD total")
	}

	lyd := in.TotalLYD
	if hasRate {
		lyd = in.USDAmount.Convert(in.Rate, types.CurrencyLYD)
	}
	if err := positive("totalLyd", lyd); err != nil {
		return nil, err
	}
	if lyd.Currency != types.CurrencyLYD {
		return nil, invalid("totalLyd", "must be in LYD, got %s", lyd.Currency)
	}

	var out *ConvertDebtResult
	err := t.mutate(ctx, "convert_debt", func(b *book) error {
		c, d, err := b.debt(in.CustomerID, in.DebtID)
		if err != nil {
			return err
		}
		if c.Currency != types.CurrencyUSD {
			return invalid("customerId", "customer %s owes %s, not USD", c.Name, c.Currency)
		}
		if !d.Open() {
			return violation("closed-debt", "debt %s is archived or paid", d.ID)
		}
		if in.USDAmount.GreaterThan(d.Remaining()) {
			return violation("debt-bound", "conversion of %s exceeds remaining %s", in.USDAmount, d.Remaining())
		}

		target, err := b.conversionTarget(in.Target)
		if err != nil {
			return err
		}

		date := b.dateOr(in.Date)
		var converted *debt.Debt
		if !in.Target.AppendToDebtID.IsNil() {
			converted = target.Debt(in.Target.AppendToDebtID)
			if converted == nil {
				return notFound("debt", in.Target.AppendToDebtID)
			}
			if converted.IsArchived {
				return violation("archived-debt", "debt %s is archived", converted.ID)
			}
			converted.Amount = converted.Amount.Add(lyd)
			converted.Touch(b.now)
		} else {
			note := in.Note
			if note == "" {
				note = "Converted from " + in.USDAmount.String() + " owed by " + c.Name
			}
			converted = &debt.Debt{
				Entity:        b.entity(),
				ID:            id.NewDebtID(),
				Amount:        lyd,
				Paid:          types.Zero(types.CurrencyLYD),
				Date:          date,
				Note:          note,
				Source:        asset.External(),
				ConvertedFrom: d.ID,
				Payments:      []*debt.Payment{},
			}
			target.Debts = append(target.Debts, converted)
		}

		d.Amount = d.Amount.Subtract(in.USDAmount)
		d.Touch(b.now)
		c.Touch(b.now)
		target.Touch(b.now)

		b.begin(transaction.KindDebtConversion, d.ID.String()+"->"+converted.ID.String())
		out = &ConvertDebtResult{
			Source:    d.Clone(),
			Customer:  target.Clone(),
			Debt:      converted.Clone(),
			Converted: lyd,
		}
		return nil
	})
	return out, err
}

func (b *book) conversionTarget(tgt ConvertTarget) (*debt.Customer, error) {
	if !tgt.CustomerID.IsNil() {
		c, err := b.customer(tgt.CustomerID)
		if err != nil {
			return nil, err
		}
		if c.Currency != types.CurrencyLYD {
			return nil, invalid("target.customerId", "customer %s owes %s, not LYD", c.Name, c.Currency)
		}
		if c.IsArchived {
			return nil, violation("archived-customer", "customer %s is archived", c.Name)
		}
		return c, nil
	}

	name := strings.TrimSpace(tgt.NewCustomerName)
	if name == "" {
		return nil, invalid("target", "name an LYD customer or a new customer")
	}
	for _, c := range b.snap.Customers {
		if c.Currency == types.CurrencyLYD && strings.EqualFold(c.Name, name) && !c.IsArchived {
			return c, nil
		}
	}
	return b.addCustomer(name, types.CurrencyLYD, false)
}

// ──────────────────────────────────────────────────
// Permanent deletion
// ──────────────────────────────────────────────────

// DeleteArchivedCustomer removes an archived customer for good. Every live
// row of its debts is reversed visibly and settlement effects on
// receivables are undone.
func (t *Treasury) DeleteArchivedCustomer(ctx context.Context, customerID id.CustomerID) error {
	return t.mutate(ctx, "delete_customer", func(b *book) error {
		c, err := b.customer(customerID)
		if err != nil {
			return err
		}
		if !c.IsArchived {
			return violation("archived-delete", "customer %s must be archived first", c.Name)
		}

		for _, d := range c.Debts {
			if err := b.voidByID(d.OperationID, transaction.Reversed); err != nil {
				return err
			}
			for _, p := range d.Payments {
				if err := b.voidByID(p.OperationID, transaction.Reversed); err != nil {
					return err
				}
				if p.Mode == debt.ModeSettlement {
					b.unsettle(p)
				}
			}
			if err := b.dropSurplusAdditions(d.ID); err != nil {
				return err
			}
		}

		b.snap.Customers = slices.DeleteFunc(b.snap.Customers, func(x *debt.Customer) bool { return x.ID == c.ID })
		b.recordChange("delete", "customer", c.ID, map[string]string{"name": c.Name})
		return nil
	})
}

// unsettle reverts the receivable side of a settlement payment.
func (b *book) unsettle(p *debt.Payment) {
	r, err := b.receivable(p.ReceivableID)
	if err != nil {
		return
	}
	r.Payments = slices.DeleteFunc(r.Payments, func(rp *receivable.Payment) bool {
		if rp.DebtPaymentID != p.ID {
			return false
		}
		r.Paid = r.Paid.Subtract(rp.Amount)
		return true
	})
	r.Touch(b.now)
}

// dropSurplusAdditions removes the receivable amounts booked from
// overpayments of debtID. A receivable already collected beyond what would
// remain cannot shrink.
func (b *book) dropSurplusAdditions(debtID id.DebtID) error {
	emptied := make(map[id.ReceivableID]bool)
	for _, r := range b.snap.Receivables {
		var removed []receivable.Addition
		kept := r.Additions[:0:0]
		for _, a := range r.Additions {
			if a.DebtID == debtID {
				removed = append(removed, a)
			} else {
				kept = append(kept, a)
			}
		}
		if len(removed) == 0 {
			continue
		}
		amount := r.Amount
		for _, a := range removed {
			amount = amount.Subtract(a.Amount)
		}
		if amount.LessThan(r.Paid) {
			return violation("receivable-bound", "receivable %s already collected %s, cannot drop to %s", r.ID, r.Paid, amount)
		}
		r.Amount = amount
		r.Additions = kept
		r.Touch(b.now)
		if len(kept) == 0 && amount.IsZero() && len(r.Payments) == 0 {
			emptied[r.ID] = true
		}
	}

	if len(emptied) > 0 {
		b.snap.Receivables = slices.DeleteFunc(b.snap.Receivables, func(r *receivable.Receivable) bool { return emptied[r.ID] })
	}
	return nil
}
