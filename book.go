package treasury

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/debt"
	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/extvalue"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/opcost"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/pos"
	"github.com/xraph/treasury/receivable"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// book is the working copy one mutation operates on. It owns the asset and
// transaction primitives; every balance change goes through record so that
// a balance never moves without its row.
type book struct {
	snap  *store.Snapshot
	now   time.Time
	tills *asset.Table

	assets map[id.AssetID]*asset.Asset
	txns   map[id.TransactionID]*transaction.Transaction
	ops    map[id.OperationID]*transaction.Operation

	opened []*transaction.Operation
	events []func(context.Context, *plugin.Registry)
}

func newBook(s *store.Snapshot, now time.Time, defaultLocation string) *book {
	b := &book{
		snap:   s,
		now:    now,
		tills:  asset.NewTable(s.Assets, defaultLocation),
		assets: make(map[id.AssetID]*asset.Asset, len(s.Assets)),
		txns:   make(map[id.TransactionID]*transaction.Transaction, len(s.Transactions)),
		ops:    make(map[id.OperationID]*transaction.Operation, len(s.Operations)),
	}
	for _, a := range s.Assets {
		b.assets[a.ID] = a
	}
	for _, tx := range s.Transactions {
		b.txns[tx.ID] = tx
	}
	for _, op := range s.Operations {
		b.ops[op.ID] = op
	}
	return b
}

func (b *book) entity() types.Entity { return types.NewEntity(b.now) }

// dateOr returns d, or the book's clock when d is zero.
func (b *book) dateOr(d time.Time) time.Time {
	if d.IsZero() {
		return b.now
	}
	return d
}

func (b *book) emit(fn func(context.Context, *plugin.Registry)) {
	b.events = append(b.events, fn)
}

func (b *book) recordChange(action, resource string, ref fmt.Stringer, meta map[string]string) {
	change := plugin.RecordChange{Action: action, Resource: resource, ID: ref.String(), Meta: meta}
	b.emit(func(ctx context.Context, r *plugin.Registry) { r.EmitRecordChanged(ctx, change) })
}

// ──────────────────────────────────────────────────
// Assets
// ──────────────────────────────────────────────────

func (b *book) asset(assetID id.AssetID) (*asset.Asset, error) {
	if a, ok := b.assets[assetID]; ok {
		return a, nil
	}
	return nil, notFound("asset", assetID)
}

func (b *book) bank(assetID id.AssetID) (*asset.Asset, error) {
	a, err := b.asset(assetID)
	if err != nil {
		return nil, err
	}
	if !a.IsBank() {
		return nil, invalid("asset", "%s is not a bank", a.Name)
	}
	return a, nil
}

// resolve maps a selection to the asset holding currency: the explicit
// asset when one is chosen, otherwise the till keyed (currency, location).
func (b *book) resolve(currency string, sel asset.Selection) (*asset.Asset, error) {
	currency = strings.ToUpper(currency)
	if sel.Explicit() {
		a, err := b.asset(sel.AssetID)
		if err != nil {
			return nil, err
		}
		if a.Currency != currency {
			return nil, invalid("asset", "%s holds %s, operation is in %s", a.Name, a.Currency, currency)
		}
		return a, nil
	}
	a, ref, ok := b.tills.Till(currency, sel.Location)
	if !ok {
		return nil, NotFoundError{Kind: "till", ID: ref.Key()}
	}
	return a, nil
}

func (b *book) addAsset(a *asset.Asset) {
	b.snap.Assets = append(b.snap.Assets, a)
	b.assets[a.ID] = a
	b.tills.Add(a)
}

func (b *book) removeAsset(assetID id.AssetID) {
	b.snap.Assets = slices.DeleteFunc(b.snap.Assets, func(a *asset.Asset) bool { return a.ID == assetID })
	delete(b.assets, assetID)
}

// ──────────────────────────────────────────────────
// Operations and rows
// ──────────────────────────────────────────────────

// begin opens an operation; the rows recorded against it form one unit.
func (b *book) begin(kind transaction.Kind, reference string) *transaction.Operation {
	op := &transaction.Operation{
		ID:             id.NewOperationID(),
		Kind:           kind,
		TransactionIDs: []id.TransactionID{},
		Reference:      reference,
		CreatedAt:      b.now.UTC(),
	}
	b.snap.Operations = append(b.snap.Operations, op)
	b.ops[op.ID] = op
	b.opened = append(b.opened, op)
	return op
}

func (b *book) operation(opID id.OperationID) (*transaction.Operation, error) {
	if op, ok := b.ops[opID]; ok {
		return op, nil
	}
	return nil, notFound("operation", opID)
}

// entry describes one row to record.
type entry struct {
	asset       *asset.Asset
	amount      types.Money
	typ         transaction.Type
	description string
	party       string
	date        time.Time
}

// record applies a signed amount to an asset and appends its row. Banks
// refuse debits beyond their balance; tills are never checked.
func (b *book) record(op *transaction.Operation, e entry) (*transaction.Transaction, error) {
	a := e.asset
	if e.amount.Currency != a.Currency {
		return nil, invalid("amount", "%s cannot be recorded on %s (%s)", e.amount, a.Name, a.Currency)
	}
	if err := checkDebit(a, e.amount); err != nil {
		return nil, err
	}

	a.Balance = a.Balance.Add(e.amount)
	a.Touch(b.now)

	tx := &transaction.Transaction{
		ID:           id.NewTransactionID(),
		Date:         b.dateOr(e.date),
		Description:  e.description,
		AssetID:      a.ID,
		Amount:       e.amount,
		Type:         e.typ,
		RelatedParty: e.party,
		OperationID:  op.ID,
		CreatedAt:    b.now.UTC(),
	}
	b.snap.Transactions = append(b.snap.Transactions, tx)
	b.txns[tx.ID] = tx
	op.TransactionIDs = append(op.TransactionIDs, tx.ID)
	return tx, nil
}

func (b *book) credit(op *transaction.Operation, e entry) (*transaction.Transaction, error) {
	e.amount = e.amount.Abs()
	return b.record(op, e)
}

func (b *book) debit(op *transaction.Operation, e entry) (*transaction.Transaction, error) {
	e.amount = e.amount.Abs().Negate()
	return b.record(op, e)
}

func checkDebit(a *asset.Asset, amount types.Money) error {
	if !amount.IsNegative() || !a.IsBank() {
		return nil
	}
	if a.Balance.Add(amount).IsNegative() {
		return InsufficientBalanceError{AssetID: a.ID, Balance: a.Balance, Requested: amount.Abs()}
	}
	return nil
}

// void undoes every live row of op under policy. Reversed appends negated
// counter-rows under a new reversal operation; both sides are flagged
// deleted so they stop counting while staying listed. SilentlyVoided
// applies the inverse balance change directly and hides the rows. Under
// either policy a void that would take a bank below zero is refused.
func (b *book) void(op *transaction.Operation, policy transaction.DeletionPolicy) (*transaction.Operation, error) {
	if !policy.Valid() {
		return nil, invalid("policy", "unknown deletion policy %q", policy)
	}
	if op.Voided {
		return nil, violation("void-once", "operation %s is already voided", op.ID)
	}

	var reversal *transaction.Operation
	if policy == transaction.Reversed && len(op.TransactionIDs) > 0 {
		reversal = b.begin(transaction.KindReversal, op.ID.String())
	}

	for _, txID := range op.TransactionIDs {
		tx, ok := b.txns[txID]
		if !ok {
			return nil, notFound("transaction", txID)
		}
		if tx.IsDeleted {
			continue
		}
		a, err := b.asset(tx.AssetID)
		if err != nil {
			return nil, err
		}

		switch policy {
		case transaction.Reversed:
			counter, err := b.record(reversal, entry{
				asset:       a,
				amount:      tx.Amount.Negate(),
				typ:         transaction.TypeReversal,
				description: "Reversal: " + tx.Description,
				party:       tx.RelatedParty,
			})
			if err != nil {
				return nil, err
			}
			counter.IsDeleted = true
			counter.ReversalOf = tx.ID
			tx.ReversedBy = counter.ID
		case transaction.SilentlyVoided:
			inverse := tx.Amount.Negate()
			if err := checkDebit(a, inverse); err != nil {
				return nil, err
			}
			a.Balance = a.Balance.Add(inverse)
			a.Touch(b.now)
			tx.Voided = true
		}
		tx.IsDeleted = true
	}

	op.Voided = true
	if reversal != nil {
		op.VoidedBy = reversal.ID
	}

	voided := op.Clone()
	b.emit(func(ctx context.Context, r *plugin.Registry) { r.EmitOperationVoided(ctx, voided, policy) })
	return reversal, nil
}

// voidByID voids the operation opID when set and still live.
func (b *book) voidByID(opID id.OperationID, policy transaction.DeletionPolicy) error {
	if opID.IsNil() {
		return nil
	}
	op, err := b.operation(opID)
	if err != nil {
		return err
	}
	if op.Voided {
		return nil
	}
	_, err = b.void(op, policy)
	return err
}

// ──────────────────────────────────────────────────
// Record lookups
// ──────────────────────────────────────────────────

func (b *book) customer(customerID id.CustomerID) (*debt.Customer, error) {
	for _, c := range b.snap.Customers {
		if c.ID == customerID {
			return c, nil
		}
	}
	return nil, notFound("customer", customerID)
}

func (b *book) debt(customerID id.CustomerID, debtID id.DebtID) (*debt.Customer, *debt.Debt, error) {
	c, err := b.customer(customerID)
	if err != nil {
		return nil, nil, err
	}
	d := c.Debt(debtID)
	if d == nil {
		return nil, nil, notFound("debt", debtID)
	}
	return c, d, nil
}

// debtByID finds a debt across all customers.
func (b *book) debtByID(debtID id.DebtID) (*debt.Customer, *debt.Debt) {
	for _, c := range b.snap.Customers {
		if d := c.Debt(debtID); d != nil {
			return c, d
		}
	}
	return nil, nil
}

func (b *book) receivable(receivableID id.ReceivableID) (*receivable.Receivable, error) {
	for _, r := range b.snap.Receivables {
		if r.ID == receivableID {
			return r, nil
		}
	}
	return nil, notFound("receivable", receivableID)
}

func (b *book) posTransaction(posID id.PosID) (*pos.Transaction, error) {
	for _, p := range b.snap.PosTransactions {
		if p.ID == posID {
			return p, nil
		}
	}
	return nil, notFound("pos transaction", posID)
}

func (b *book) purchase(purchaseID id.CardPurchaseID) (*dollarcard.Purchase, error) {
	for _, p := range b.snap.DollarCardPurchases {
		if p.ID == purchaseID {
			return p, nil
		}
	}
	return nil, notFound("dollar card purchase", purchaseID)
}

func (b *book) operatingCost(costID id.OperatingCostID) (*opcost.Cost, error) {
	for _, c := range b.snap.OperatingCosts {
		if c.ID == costID {
			return c, nil
		}
	}
	return nil, notFound("operating cost", costID)
}

func (b *book) expenseType(typeID id.ExpenseTypeID) (*opcost.ExpenseType, error) {
	for _, e := range b.snap.ExpenseTypes {
		if e.ID == typeID {
			return e, nil
		}
	}
	return nil, notFound("expense type", typeID)
}

func (b *book) externalValue(valueID id.ExternalValueID) (*extvalue.Value, error) {
	for _, v := range b.snap.ExternalValues {
		if v.ID == valueID {
			return v, nil
		}
	}
	return nil, notFound("external value", valueID)
}
