package treasury

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/pos"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

var hundred = decimal.NewFromInt(100)

// AddPosInput describes a POS settlement. ManualDeposit overrides the
// commission formula when set.
type AddPosInput struct {
	BankID             id.AssetID
	TotalAmount        types.Money
	BankCommissionRate decimal.Decimal
	ManualDeposit      *types.Money
	CashGiven          types.Money
	NoCashGiven        bool
	CashLocation       string
	TransactionCount   int
	Date               time.Time
	Note               string
}

// AddPosTransaction credits the bank with the card settlement and debits
// the LYD till with the cash handed to the customer.
func (t *Treasury) AddPosTransaction(ctx context.Context, in AddPosInput) (*pos.Transaction, error) {
	if err := positive("totalAmount", in.TotalAmount); err != nil {
		return nil, err
	}
	if in.TotalAmount.Currency != asset.BankCurrency {
		return nil, invalid("totalAmount", "POS settlements are in %s", asset.BankCurrency)
	}
	if in.BankCommissionRate.IsNegative() || in.BankCommissionRate.GreaterThan(hundred) {
		return nil, invalid("bankCommissionRate", "must be between 0 and 100, got %s", in.BankCommissionRate)
	}
	cashGiven := in.CashGiven
	if in.NoCashGiven || cashGiven.Currency == "" {
		cashGiven = types.Zero(asset.BankCurrency)
	}
	if cashGiven.Currency != asset.BankCurrency || cashGiven.IsNegative() {
		return nil, invalid("cashGiven", "must be a non-negative %s amount", asset.BankCurrency)
	}
	if in.ManualDeposit != nil && (in.ManualDeposit.Currency != asset.BankCurrency || in.ManualDeposit.IsNegative()) {
		return nil, invalid("manualDeposit", "must be a non-negative %s amount", asset.BankCurrency)
	}
	count := in.TransactionCount
	if count <= 0 {
		count = 1
	}

	var out *pos.Transaction
	err := t.mutate(ctx, "add_pos", func(b *book) error {
		bank, err := b.bank(in.BankID)
		if err != nil {
			return err
		}
		if !bank.POSEnabled {
			return invalid("bankId", "bank %s does not take POS payments", bank.Name)
		}

		deposit, profit := pos.Settle(in.TotalAmount, in.BankCommissionRate, in.ManualDeposit, cashGiven)
		p := &pos.Transaction{
			Entity:              b.entity(),
			ID:                  id.NewPosID(),
			Date:                b.dateOr(in.Date),
			BankID:              bank.ID,
			TotalAmount:         in.TotalAmount,
			BankCommissionRate:  in.BankCommissionRate,
			BankDepositAmount:   deposit,
			ManualDeposit:       in.ManualDeposit != nil,
			CashGivenToCustomer: cashGiven,
			NoCashGiven:         in.NoCashGiven,
			NetProfit:           profit,
			TransactionCount:    count,
			Note:                in.Note,
		}

		op := b.begin(transaction.KindPosSettlement, p.ID.String())
		p.OperationID = op.ID
		if !deposit.IsZero() {
			if _, err := b.credit(op, entry{
				asset:       bank,
				amount:      deposit,
				typ:         transaction.TypePosDeposit,
				description: "POS settlement",
				date:        p.Date,
			}); err != nil {
				return err
			}
		}
		if !in.NoCashGiven && cashGiven.IsPositive() {
			till, err := b.resolve(asset.BankCurrency, asset.Selection{Location: in.CashLocation})
			if err != nil {
				return err
			}
			if _, err := b.debit(op, entry{
				asset:       till,
				amount:      cashGiven,
				typ:         transaction.TypePosCashOut,
				description: "POS cash to customer",
				date:        p.Date,
			}); err != nil {
				return err
			}
			p.CashAssetID = till.ID
		}

		b.snap.PosTransactions = append(b.snap.PosTransactions, p)
		out = p.Clone()
		return nil
	})
	return out, err
}

// PosTransactions lists POS settlements matching opts.
func (t *Treasury) PosTransactions(ctx context.Context, opts pos.ListOpts) ([]*pos.Transaction, error) {
	var out []*pos.Transaction
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, p := range s.PosTransactions {
			if opts.Match(p) {
				out = append(out, p.Clone())
			}
		}
		return nil
	})
	return out, err
}

// ArchivePosTransaction hides a settlement from the active list.
func (t *Treasury) ArchivePosTransaction(ctx context.Context, posID id.PosID) error {
	return t.setPosArchived(ctx, posID, true)
}

// RestorePosTransaction brings an archived settlement back.
func (t *Treasury) RestorePosTransaction(ctx context.Context, posID id.PosID) error {
	return t.setPosArchived(ctx, posID, false)
}

func (t *Treasury) setPosArchived(ctx context.Context, posID id.PosID, archived bool) error {
	action := "restore"
	if archived {
		action = "archive"
	}
	return t.mutate(ctx, action+"_pos", func(b *book) error {
		p, err := b.posTransaction(posID)
		if err != nil {
			return err
		}
		p.IsArchived = archived
		p.Touch(b.now)
		b.recordChange(action, "pos_transaction", p.ID, nil)
		return nil
	})
}

// DeletePosTransaction silently voids both legs of a settlement and
// removes it.
func (t *Treasury) DeletePosTransaction(ctx context.Context, posID id.PosID) error {
	return t.mutate(ctx, "delete_pos", func(b *book) error {
		p, err := b.posTransaction(posID)
		if err != nil {
			return err
		}
		if err := b.voidByID(p.OperationID, transaction.SilentlyVoided); err != nil {
			return err
		}
		b.snap.PosTransactions = slices.DeleteFunc(b.snap.PosTransactions, func(x *pos.Transaction) bool { return x.ID == p.ID })
		b.recordChange("delete", "pos_transaction", p.ID, nil)
		return nil
	})
}
