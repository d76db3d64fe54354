package treasury_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/debt"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/transaction"
)

func start(t *testing.T) (*treasury.Treasury, *memory.Store) {
	t.Helper()
	s := memory.New()
	tr := treasury.New(s)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Stop() })
	return tr, s
}

func balance(t *testing.T, tr *treasury.Treasury, assetID id.AssetID) int64 {
	t.Helper()
	a, err := tr.Asset(context.Background(), assetID)
	if err != nil {
		t.Fatal(err)
	}
	return a.Balance.Amount
}

func till(t *testing.T, tr *treasury.Treasury, currency string) id.AssetID {
	t.Helper()
	assetID, err := tr.ResolveDestinationAsset(context.Background(), currency, asset.Selection{})
	if err != nil {
		t.Fatal(err)
	}
	return assetID
}

func verify(t *testing.T, tr *treasury.Treasury) {
	t.Helper()
	if err := tr.Verify(context.Background()); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)

	a, err := tr.CreateBank(ctx, treasury.CreateBankInput{Name: "Wahda", OpeningBalance: treasury.LYD(1000)})
	if err != nil {
		t.Fatal(err)
	}
	b, err := tr.CreateBank(ctx, treasury.CreateBankInput{Name: "Jumhouria"})
	if err != nil {
		t.Fatal(err)
	}

	r, err := tr.TransferBetweenBanks(ctx, treasury.TransferInput{From: a.ID, To: b.ID, Amount: treasury.LYD(200)})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Transactions) != 2 {
		t.Fatalf("rows = %d, want 2", len(r.Transactions))
	}
	if got := r.Transactions[0].Amount.Amount; got != -200 {
		t.Errorf("debit row = %d, want -200", got)
	}
	if got := r.Transactions[1].Amount.Amount; got != 200 {
		t.Errorf("credit row = %d, want 200", got)
	}
	if r.Transactions[0].OperationID != r.Transactions[1].OperationID {
		t.Error("transfer rows do not share an operation")
	}
	if got := balance(t, tr, a.ID); got != 800 {
		t.Errorf("source balance = %d, want 800", got)
	}
	if got := balance(t, tr, b.ID); got != 200 {
		t.Errorf("destination balance = %d, want 200", got)
	}
	verify(t, tr)
}

func TestBankOverdraw(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)

	bank, err := tr.CreateBank(ctx, treasury.CreateBankInput{Name: "Sahara", OpeningBalance: treasury.LYD(100)})
	if err != nil {
		t.Fatal(err)
	}
	_, err = tr.Withdraw(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: bank.ID}, Amount: treasury.LYD(101)})
	if !errors.Is(err, treasury.ErrInsufficientBalance) {
		t.Fatalf("Withdraw = %v, want ErrInsufficientBalance", err)
	}
	if got := balance(t, tr, bank.ID); got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}

	// tills may go negative
	cash := till(t, tr, "LYD")
	if _, err := tr.Withdraw(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: cash}, Amount: treasury.LYD(50)}); err != nil {
		t.Fatalf("till withdraw: %v", err)
	}
	if got := balance(t, tr, cash); got != -50 {
		t.Errorf("till balance = %d, want -50", got)
	}
}

func TestVoidPolicies(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	cash := till(t, tr, "USD")

	first, err := tr.Deposit(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: cash}, Amount: treasury.USD(500)})
	if err != nil {
		t.Fatal(err)
	}
	second, err := tr.Deposit(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: cash}, Amount: treasury.USD(300)})
	if err != nil {
		t.Fatal(err)
	}

	reversal, err := tr.Void(ctx, first.Transactions[0].ID, treasury.Reversed)
	if err != nil {
		t.Fatal(err)
	}
	if reversal == nil {
		t.Fatal("Reversed void returned no reversal operation")
	}
	if _, err := tr.Void(ctx, second.Transactions[0].ID, treasury.SilentlyVoided); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, tr, cash); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}

	rows, err := tr.Transactions(ctx, transaction.Filter{AssetID: cash, IncludeDeleted: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if row.ID == second.Transactions[0].ID {
			t.Error("silently voided row is still listed")
		}
	}
	if len(rows) != 2 {
		t.Errorf("listed rows = %d, want the original and its counter-row", len(rows))
	}

	_, err = tr.Void(ctx, first.Transactions[0].ID, treasury.Reversed)
	if !errors.Is(err, treasury.ErrInvariantViolation) {
		t.Errorf("second void = %v, want ErrInvariantViolation", err)
	}
	verify(t, tr)
}

func TestDebtSurplus(t *testing.T) {
	ctx := context.Background()
	tr, s := start(t)
	cash := till(t, tr, "LYD")

	c, err := tr.AddCustomer(ctx, treasury.AddCustomerInput{Name: "Salem", Currency: "LYD"})
	if err != nil {
		t.Fatal(err)
	}
	newDebt := func() id.DebtID {
		d, err := tr.AddDebt(ctx, treasury.AddDebtInput{CustomerID: c.ID, Amount: treasury.LYD(100), Source: treasury.External()})
		if err != nil {
			t.Fatal(err)
		}
		return d.ID
	}

	t.Run("awaiting", func(t *testing.T) {
		debtID := newDebt()
		saves := s.Saves()
		res, err := tr.PayDebt(ctx, treasury.PayDebtInput{CustomerID: c.ID, DebtID: debtID, Amount: treasury.LYD(150)})
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != treasury.PaymentAwaitingSurplusDecision {
			t.Errorf("Status = %q, want awaiting", res.Status)
		}
		if res.Quote.Surplus.Amount != 50 || res.Quote.Applied.Amount != 100 {
			t.Errorf("Quote = %+v, want applied 100 surplus 50", res.Quote)
		}
		if s.Saves() != saves {
			t.Error("awaiting payment was saved")
		}
	})

	t.Run("profit", func(t *testing.T) {
		debtID := newDebt()
		before := balance(t, tr, cash)
		res, err := tr.PayDebt(ctx, treasury.PayDebtInput{
			CustomerID: c.ID,
			DebtID:     debtID,
			Amount:     treasury.LYD(150),
			Surplus:    &debt.SurplusOption{Disposition: debt.SurplusProfit},
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != treasury.PaymentCommitted {
			t.Fatalf("Status = %q, want committed", res.Status)
		}
		if !res.Debt.IsSettled() {
			t.Error("debt is not settled")
		}
		if got := balance(t, tr, cash) - before; got != 150 {
			t.Errorf("till moved by %d, want 150", got)
		}
		rows, err := tr.Transactions(ctx, transaction.Filter{OperationID: res.Operation.ID})
		if err != nil {
			t.Fatal(err)
		}
		var profit int64
		for _, row := range rows {
			if row.Type == transaction.TypeSurplusProfit {
				profit += row.Amount.Amount
			}
		}
		if profit != 50 {
			t.Errorf("surplus profit rows = %d, want 50", profit)
		}
	})

	t.Run("receivable", func(t *testing.T) {
		debtID := newDebt()
		res, err := tr.PayDebt(ctx, treasury.PayDebtInput{
			CustomerID: c.ID,
			DebtID:     debtID,
			Amount:     treasury.LYD(130),
			Surplus:    &debt.SurplusOption{Disposition: debt.SurplusReceivable, DebtorName: "Salem"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.Receivable == nil {
			t.Fatal("no receivable booked")
		}
		if got := res.Receivable.Amount.Amount; got != 30 {
			t.Errorf("receivable amount = %d, want 30", got)
		}
	})

	verify(t, tr)
}

func TestMergeDebts(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)

	c, err := tr.AddCustomer(ctx, treasury.AddCustomerInput{Name: "Huda", Currency: "USD"})
	if err != nil {
		t.Fatal(err)
	}
	for _, amount := range []int64{50, 30, 20} {
		if _, err := tr.AddDebt(ctx, treasury.AddDebtInput{CustomerID: c.ID, Amount: treasury.USD(amount), Source: treasury.External()}); err != nil {
			t.Fatal(err)
		}
	}
	rowsBefore, err := tr.Transactions(ctx, transaction.Filter{IncludeDeleted: true})
	if err != nil {
		t.Fatal(err)
	}

	merged, err := tr.MergeCustomerDebts(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Amount.Amount != 100 {
		t.Errorf("merged amount = %d, want 100", merged.Amount.Amount)
	}
	if len(merged.MergedFrom) != 3 {
		t.Errorf("MergedFrom = %d debts, want 3", len(merged.MergedFrom))
	}

	got, err := tr.Customer(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	open := 0
	for _, d := range got.Debts {
		if d.Open() {
			open++
		}
	}
	if open != 1 {
		t.Errorf("open debts = %d, want 1", open)
	}

	rowsAfter, err := tr.Transactions(ctx, transaction.Filter{IncludeDeleted: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rowsAfter) != len(rowsBefore) {
		t.Errorf("merge added %d rows", len(rowsAfter)-len(rowsBefore))
	}

	if _, err := tr.MergeCustomerDebts(ctx, c.ID); !errors.Is(err, treasury.ErrInvariantViolation) {
		t.Errorf("merging a single debt = %v, want ErrInvariantViolation", err)
	}
}

func TestDeletePosRestoresBalances(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	cash := till(t, tr, "LYD")

	bank, err := tr.CreateBank(ctx, treasury.CreateBankInput{Name: "NCB", POSEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	p, err := tr.AddPosTransaction(ctx, treasury.AddPosInput{
		BankID:             bank.ID,
		TotalAmount:        treasury.LYD(1_000_000),
		BankCommissionRate: decimal.NewFromInt(2),
		CashGiven:          treasury.LYD(900_000),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := balance(t, tr, bank.ID); got != p.BankDepositAmount.Amount {
		t.Errorf("bank balance = %d, want %d", got, p.BankDepositAmount.Amount)
	}
	if got := balance(t, tr, cash); got != -900_000 {
		t.Errorf("till balance = %d, want -900000", got)
	}

	if err := tr.DeletePosTransaction(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, tr, bank.ID); got != 0 {
		t.Errorf("bank balance after delete = %d, want 0", got)
	}
	if got := balance(t, tr, cash); got != 0 {
		t.Errorf("till balance after delete = %d, want 0", got)
	}
	rows, err := tr.Transactions(ctx, transaction.Filter{IncludeDeleted: true, IncludeHidden: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if row.OperationID == p.OperationID {
			t.Errorf("row %s of the deleted settlement is still listed", row.ID)
		}
	}
	verify(t, tr)
}

func TestDollarCardCompletesOnce(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)

	p, err := tr.AddDollarCardPurchase(ctx, treasury.AddPurchaseInput{CustomerName: "Ali", Phone: "0912345678"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddDollarCardPayment(ctx, treasury.CardPaymentInput{PurchaseID: p.ID, Amount: treasury.LYD(7_000_000), Source: treasury.External()}); err != nil {
		t.Fatal(err)
	}

	in := treasury.CompleteInput{PurchaseID: p.ID, ReceivedUSD: treasury.USD(100_000)}
	done, err := tr.CompleteDollarCardPurchase(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if done.CompletionDetails == nil {
		t.Fatal("completion details not set")
	}
	usd := till(t, tr, "USD")
	if got := balance(t, tr, usd); got != 100_000 {
		t.Errorf("USD till = %d, want 100000", got)
	}

	var inv treasury.InvariantError
	if _, err := tr.CompleteDollarCardPurchase(ctx, in); !errors.As(err, &inv) {
		t.Fatalf("second completion = %v, want InvariantError", err)
	}
	if got := balance(t, tr, usd); got != 100_000 {
		t.Errorf("USD till after second completion = %d, want 100000", got)
	}
}

func TestImportMissingKey(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)

	doc, err := tr.ExportData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.ImportData(ctx, doc); err != nil {
		t.Fatalf("re-import of export: %v", err)
	}

	var verr treasury.ValidationError
	err = tr.ImportData(ctx, `{"assets": [], "transactions": []}`)
	if !errors.As(err, &verr) {
		t.Fatalf("ImportData = %v, want ValidationError", err)
	}
	if verr.Field != "customers" {
		t.Errorf("Field = %q, want customers", verr.Field)
	}
}

func TestSaveFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	tr, s := start(t)
	cash := till(t, tr, "EUR")

	boom := errors.New("disk full")
	s.FailSaves(boom)
	_, err := tr.Deposit(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: cash}, Amount: treasury.EUR(100)})
	if !errors.Is(err, treasury.ErrPersistence) || !errors.Is(err, boom) {
		t.Fatalf("Deposit = %v, want ErrPersistence wrapping the store error", err)
	}
	if got := balance(t, tr, cash); got != 0 {
		t.Errorf("balance after failed save = %d, want 0", got)
	}

	s.FailSaves(nil)
	if _, err := tr.Deposit(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: cash}, Amount: treasury.EUR(100)}); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, tr, cash); got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}
	verify(t, tr)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)

	bank, err := tr.CreateBank(ctx, treasury.CreateBankInput{Name: "Aman", OpeningBalance: treasury.LYD(500)})
	if err != nil {
		t.Fatal(err)
	}
	adjusted := treasury.LYD(750)
	if _, err := tr.UpdateBank(ctx, bank.ID, treasury.UpdateBankInput{Balance: &adjusted}); err != nil {
		t.Fatal(err)
	}
	d, err := tr.Reconcile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(d) != 0 {
		t.Errorf("Reconcile = %+v, want no discrepancies", d)
	}
	verify(t, tr)
}

func TestNotStarted(t *testing.T) {
	tr := treasury.New(memory.New())
	if _, err := tr.Assets(context.Background(), asset.ListOpts{}); !errors.Is(err, treasury.ErrNotStarted) {
		t.Errorf("Assets before Start = %v, want ErrNotStarted", err)
	}
}
