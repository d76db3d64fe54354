package treasury

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Receipt is the committed result of a money movement.
type Receipt struct {
	Operation    *transaction.Operation
	Transactions []*transaction.Transaction
}

func receipt(op *transaction.Operation, rows ...*transaction.Transaction) *Receipt {
	r := &Receipt{Operation: op.Clone()}
	for _, tx := range rows {
		r.Transactions = append(r.Transactions, tx.Clone())
	}
	return r
}

func positive(field string, m types.Money) error {
	if !m.IsPositive() {
		return invalid(field, "must be greater than zero, got %s", m)
	}
	return currencyCode(field, m)
}

// currencyCode accepts only known ISO codes in canonical upper case. Money
// decoded from JSON is already canonical.
func currencyCode(field string, m types.Money) error {
	if !types.KnownCurrency(m.Currency) {
		return invalid(field, "unknown currency %q", m.Currency)
	}
	if m.Currency != types.CanonicalCurrency(m.Currency) {
		return invalid(field, "currency %q must be an upper-case ISO code", m.Currency)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// Assets lists assets matching opts, tills before banks.
func (t *Treasury) Assets(ctx context.Context, opts asset.ListOpts) ([]*asset.Asset, error) {
	var out []*asset.Asset
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, a := range s.Assets {
			if opts.Match(a) {
				out = append(out, a.Clone())
			}
		}
		return nil
	})
	sortAssets(out)
	return out, err
}

// Asset retrieves an asset by ID.
func (t *Treasury) Asset(ctx context.Context, assetID id.AssetID) (*asset.Asset, error) {
	var out *asset.Asset
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, a := range s.Assets {
			if a.ID == assetID {
				out = a.Clone()
				return nil
			}
		}
		return notFound("asset", assetID)
	})
	return out, err
}

// ResolveDestinationAsset returns the asset a selection points at for
// currency.
func (t *Treasury) ResolveDestinationAsset(ctx context.Context, currency string, sel asset.Selection) (id.AssetID, error) {
	var out id.AssetID
	err := t.read(ctx, func(s *store.Snapshot) error {
		a, err := newBook(s, t.clock(), t.defaultLocation).resolve(currency, sel)
		if err != nil {
			return err
		}
		out = a.ID
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────
// Bank Management
// ──────────────────────────────────────────────────

// CreateBankInput describes a new bank account.
type CreateBankInput struct {
	Name           string
	OpeningBalance types.Money
	POSEnabled     bool
}

// CreateBank adds an LYD bank. A non-zero opening balance is recorded as an
// opening_balance row.
func (t *Treasury) CreateBank(ctx context.Context, in CreateBankInput) (*asset.Asset, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "bank name is required")
	}
	opening := in.OpeningBalance
	if opening.Currency == "" {
		opening = types.Zero(asset.BankCurrency)
	}
	if opening.Currency != asset.BankCurrency {
		return nil, invalid("currency", "banks hold %s only, got %s", asset.BankCurrency, opening.Currency)
	}
	if opening.IsNegative() {
		return nil, invalid("openingBalance", "must not be negative")
	}

	var created *asset.Asset
	err := t.mutate(ctx, "create_bank", func(b *book) error {
		for _, a := range b.snap.Assets {
			if a.IsBank() && strings.EqualFold(a.Name, name) {
				return invalid("name", "bank %q already exists", name)
			}
		}

		bank := &asset.Asset{
			Entity:      b.entity(),
			ID:          id.NewAssetID(),
			Name:        name,
			Currency:    asset.BankCurrency,
			Kind:        asset.KindBank,
			Balance:     types.Zero(asset.BankCurrency),
			Adjustments: types.Zero(asset.BankCurrency),
			POSEnabled:  in.POSEnabled,
		}
		b.addAsset(bank)

		if !opening.IsZero() {
			op := b.begin(transaction.KindOpeningBalance, bank.ID.String())
			if _, err := b.credit(op, entry{
				asset:       bank,
				amount:      opening,
				typ:         transaction.TypeOpeningBalance,
				description: "Opening balance",
			}); err != nil {
				return err
			}
		}

		created = bank.Clone()
		after := bank.Clone()
		b.emit(func(ctx context.Context, r *plugin.Registry) { r.EmitBankChanged(ctx, nil, after) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateBankInput edits a bank. Nil fields are left unchanged.
type UpdateBankInput struct {
	Name       *string
	Balance    *types.Money
	POSEnabled *bool
}

// UpdateBank edits a bank's name, POS flag or balance. A balance overwrite
// records no row; the difference is kept in Adjustments.
func (t *Treasury) UpdateBank(ctx context.Context, bankID id.AssetID, in UpdateBankInput) (*asset.Asset, error) {
	var updated *asset.Asset
	err := t.mutate(ctx, "update_bank", func(b *book) error {
		bank, err := b.bank(bankID)
		if err != nil {
			return err
		}
		before := bank.Clone()

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return invalid("name", "bank name is required")
			}
			bank.Name = name
		}
		if in.POSEnabled != nil {
			bank.POSEnabled = *in.POSEnabled
		}
		if in.Balance != nil {
			balance := *in.Balance
			if balance.Currency != bank.Currency {
				return invalid("balance", "bank holds %s, got %s", bank.Currency, balance.Currency)
			}
			if balance.IsNegative() {
				return invalid("balance", "must not be negative")
			}
			bank.Adjustments = bank.Adjustments.Add(balance.Subtract(bank.Balance))
			bank.Balance = balance
		}
		bank.Touch(b.now)

		updated = bank.Clone()
		after := bank.Clone()
		b.emit(func(ctx context.Context, r *plugin.Registry) { r.EmitBankChanged(ctx, before, after) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBank removes an empty bank.
func (t *Treasury) DeleteBank(ctx context.Context, bankID id.AssetID) error {
	return t.mutate(ctx, "delete_bank", func(b *book) error {
		bank, err := b.bank(bankID)
		if err != nil {
			return err
		}
		if !bank.Balance.IsZero() {
			return violation("empty-bank-delete", "bank %s still holds %s", bank.Name, bank.Balance)
		}
		b.removeAsset(bank.ID)

		before := bank.Clone()
		b.emit(func(ctx context.Context, r *plugin.Registry) { r.EmitBankChanged(ctx, before, nil) })
		return nil
	})
}

// ──────────────────────────────────────────────────
// Generic Movements
// ──────────────────────────────────────────────────

// MovementInput is a single-asset deposit or withdrawal.
type MovementInput struct {
	Asset       asset.Selection
	Amount      types.Money
	Description string
	Party       string
	Date        time.Time
}

// Deposit credits money into an asset.
func (t *Treasury) Deposit(ctx context.Context, in MovementInput) (*Receipt, error) {
	return t.move(ctx, in, transaction.KindDeposit, transaction.TypeDeposit)
}

// Withdraw debits money from an asset.
func (t *Treasury) Withdraw(ctx context.Context, in MovementInput) (*Receipt, error) {
	return t.move(ctx, in, transaction.KindWithdrawal, transaction.TypeWithdrawal)
}

func (t *Treasury) move(ctx context.Context, in MovementInput, kind transaction.Kind, typ transaction.Type) (*Receipt, error) {
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}

	var out *Receipt
	err := t.mutate(ctx, string(kind), func(b *book) error {
		a, err := b.resolve(in.Amount.Currency, in.Asset)
		if err != nil {
			return err
		}
		op := b.begin(kind, a.ID.String())
		e := entry{asset: a, amount: in.Amount, typ: typ, description: in.Description, party: in.Party, date: in.Date}

		var tx *transaction.Transaction
		if kind == transaction.KindDeposit {
			tx, err = b.credit(op, e)
		} else {
			tx, err = b.debit(op, e)
		}
		if err != nil {
			return err
		}
		out = receipt(op, tx)
		return nil
	})
	return out, err
}

// TransferInput moves an amount between two assets of the same currency.
type TransferInput struct {
	From        id.AssetID
	To          id.AssetID
	Amount      types.Money
	Description string
	Date        time.Time
}

// Transfer moves money between two assets of one currency. Both rows share
// one operation.
func (t *Treasury) Transfer(ctx context.Context, in TransferInput) (*Receipt, error) {
	return t.transfer(ctx, in, false)
}

// TransferBetweenBanks is Transfer restricted to two banks.
func (t *Treasury) TransferBetweenBanks(ctx context.Context, in TransferInput) (*Receipt, error) {
	return t.transfer(ctx, in, true)
}

func (t *Treasury) transfer(ctx context.Context, in TransferInput, banksOnly bool) (*Receipt, error) {
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}
	if in.From == in.To {
		return nil, invalid("to", "source and destination are the same asset")
	}

	var out *Receipt
	err := t.mutate(ctx, "transfer", func(b *book) error {
		lookup := b.asset
		if banksOnly {
			lookup = b.bank
		}
		from, err := lookup(in.From)
		if err != nil {
			return err
		}
		to, err := lookup(in.To)
		if err != nil {
			return err
		}
		if from.Currency != to.Currency || from.Currency != in.Amount.Currency {
			return invalid("amount", "transfer needs one currency: %s -> %s, amount %s", from.Currency, to.Currency, in.Amount.Currency)
		}

		desc := in.Description
		if desc == "" {
			desc = "Transfer " + from.Name + " -> " + to.Name
		}
		op := b.begin(transaction.KindTransfer, from.ID.String()+"->"+to.ID.String())
		out1, err := b.debit(op, entry{asset: from, amount: in.Amount, typ: transaction.TypeTransferOut, description: desc, party: to.Name, date: in.Date})
		if err != nil {
			return err
		}
		in1, err := b.credit(op, entry{asset: to, amount: in.Amount, typ: transaction.TypeTransferIn, description: desc, party: from.Name, date: in.Date})
		if err != nil {
			return err
		}
		out = receipt(op, out1, in1)
		return nil
	})
	return out, err
}

// ExchangeInput converts between currencies. Give either Received or Rate
// (units of the target currency per unit of Amount).
type ExchangeInput struct {
	From        id.AssetID
	To          id.AssetID
	Amount      types.Money
	Received    types.Money
	Rate        decimal.Decimal
	Description string
	Date        time.Time
}

// Exchange debits From and credits To in a different currency.
func (t *Treasury) Exchange(ctx context.Context, in ExchangeInput) (*Receipt, error) {
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}
	if in.Received.IsZero() && !in.Rate.IsPositive() {
		return nil, invalid("rate", "either a positive rate or a received amount is required")
	}

	var out *Receipt
	err := t.mutate(ctx, "exchange", func(b *book) error {
		from, err := b.asset(in.From)
		if err != nil {
			return err
		}
		to, err := b.asset(in.To)
		if err != nil {
			return err
		}
		if from.Currency != in.Amount.Currency {
			return invalid("amount", "%s holds %s, amount is %s", from.Name, from.Currency, in.Amount.Currency)
		}
		if from.Currency == to.Currency {
			return invalid("to", "exchange needs two currencies; use Transfer")
		}

		received := in.Received
		if received.IsZero() {
			received = in.Amount.Convert(in.Rate, to.Currency)
		}
		if err := positive("received", received); err != nil {
			return err
		}
		rate := received.Ratio(in.Amount)

		desc := in.Description
		if desc == "" {
			desc = "Exchange " + in.Amount.String() + " -> " + received.String()
		}
		op := b.begin(transaction.KindExchange, "rate="+rate.String())
		outRow, err := b.debit(op, entry{asset: from, amount: in.Amount, typ: transaction.TypeExchangeOut, description: desc, date: in.Date})
		if err != nil {
			return err
		}
		inRow, err := b.credit(op, entry{asset: to, amount: received, typ: transaction.TypeExchangeIn, description: desc, date: in.Date})
		if err != nil {
			return err
		}
		out = receipt(op, outRow, inRow)
		return nil
	})
	return out, err
}

// sortAssets moves tills before banks, keeping stored order otherwise.
func sortAssets(as []*asset.Asset) {
	slices.SortStableFunc(as, func(a, b *asset.Asset) int {
		switch {
		case a.Kind == b.Kind:
			return 0
		case a.IsTill():
			return -1
		default:
			return 1
		}
	})
}
