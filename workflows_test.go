package treasury_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/opcost"
	"github.com/xraph/treasury/pos"
	"github.com/xraph/treasury/transaction"
)

func TestExchange(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	usd, lyd := till(t, tr, "USD"), till(t, tr, "LYD")

	r, err := tr.Exchange(ctx, treasury.ExchangeInput{From: usd, To: lyd, Amount: treasury.USD(100_00), Rate: decimal.NewFromInt(5)})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Transactions) != 2 {
		t.Fatalf("rows = %d, want 2", len(r.Transactions))
	}
	if got := balance(t, tr, usd); got != -100_00 {
		t.Errorf("USD till = %d, want -10000", got)
	}
	if got := balance(t, tr, lyd); got != 500_000 {
		t.Errorf("LYD till = %d, want 500000", got)
	}

	_, err = tr.Exchange(ctx, treasury.ExchangeInput{From: usd, To: usd, Amount: treasury.USD(1), Rate: decimal.NewFromInt(1)})
	if !errors.Is(err, treasury.ErrValidation) {
		t.Errorf("same-currency exchange = %v, want ErrValidation", err)
	}
	verify(t, tr)
}

func TestConvertUSDDebt(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)

	c, err := tr.AddCustomer(ctx, treasury.AddCustomerInput{Name: "Haitham", Currency: "USD"})
	if err != nil {
		t.Fatal(err)
	}
	d, err := tr.AddDebt(ctx, treasury.AddDebtInput{CustomerID: c.ID, Amount: treasury.USD(100_00), Source: treasury.External()})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		in      treasury.ConvertDebtInput
		wantErr error
	}{
		{"rate and total", treasury.ConvertDebtInput{USDAmount: treasury.USD(10_00), Rate: decimal.NewFromInt(5), TotalLYD: treasury.LYD(50_000)}, treasury.ErrValidation},
		{"neither", treasury.ConvertDebtInput{USDAmount: treasury.USD(10_00)}, treasury.ErrValidation},
		{"not usd", treasury.ConvertDebtInput{USDAmount: treasury.LYD(10_00), Rate: decimal.NewFromInt(5)}, treasury.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.CustomerID, tt.in.DebtID = c.ID, d.ID
			tt.in.Target = treasury.ConvertTarget{NewCustomerName: "Haitham LYD"}
			if _, err := tr.ConvertSingleUSDDebtToLYD(ctx, tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	res, err := tr.ConvertSingleUSDDebtToLYD(ctx, treasury.ConvertDebtInput{
		CustomerID: c.ID,
		DebtID:     d.ID,
		USDAmount:  treasury.USD(40_00),
		Rate:       decimal.NewFromInt(5),
		Target:     treasury.ConvertTarget{NewCustomerName: "Haitham LYD"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Source.Amount.Amount != 60_00 {
		t.Errorf("source amount = %d, want 6000", res.Source.Amount.Amount)
	}
	if !res.Converted.Equal(treasury.LYD(200_000)) {
		t.Errorf("converted = %s, want 200.000 LYD", res.Converted)
	}
	if res.Debt.ConvertedFrom != d.ID {
		t.Errorf("ConvertedFrom = %s, want %s", res.Debt.ConvertedFrom, d.ID)
	}
	if res.Customer.Currency != "LYD" {
		t.Errorf("target currency = %s, want LYD", res.Customer.Currency)
	}
	verify(t, tr)
}

func TestPayReceivableBound(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	cash := till(t, tr, "LYD")

	r, err := tr.AddReceivable(ctx, treasury.AddReceivableInput{Debtor: "Nouri", Amount: treasury.LYD(100)})
	if err != nil {
		t.Fatal(err)
	}

	_, err = tr.PayReceivable(ctx, treasury.PayReceivableInput{ReceivableID: r.ID, Amount: treasury.LYD(150), Source: treasury.FromAsset(cash)})
	if !errors.Is(err, treasury.ErrInvariantViolation) {
		t.Fatalf("overpayment = %v, want ErrInvariantViolation", err)
	}
	if got := balance(t, tr, cash); got != 0 {
		t.Errorf("till after refused payment = %d, want 0", got)
	}

	paid, err := tr.PayReceivable(ctx, treasury.PayReceivableInput{ReceivableID: r.ID, Amount: treasury.LYD(100), Source: treasury.FromAsset(cash)})
	if err != nil {
		t.Fatal(err)
	}
	if !paid.Remaining().IsZero() {
		t.Errorf("remaining = %s, want zero", paid.Remaining())
	}
	if got := balance(t, tr, cash); got != -100 {
		t.Errorf("till = %d, want -100", got)
	}
	verify(t, tr)
}

func TestDeleteArchivedCustomer(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	cash := till(t, tr, "LYD")

	c, err := tr.AddCustomer(ctx, treasury.AddCustomerInput{Name: "Aisha", Currency: "LYD"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddDebt(ctx, treasury.AddDebtInput{CustomerID: c.ID, Amount: treasury.LYD(250), Source: treasury.FromAsset(cash)}); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, tr, cash); got != -250 {
		t.Fatalf("till after lending = %d, want -250", got)
	}

	if err := tr.DeleteArchivedCustomer(ctx, c.ID); !errors.Is(err, treasury.ErrInvariantViolation) {
		t.Fatalf("delete live customer = %v, want ErrInvariantViolation", err)
	}
	if err := tr.ArchiveCustomer(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := tr.DeleteArchivedCustomer(ctx, c.ID); err != nil {
		t.Fatal(err)
	}

	if got := balance(t, tr, cash); got != 0 {
		t.Errorf("till after delete = %d, want 0", got)
	}
	if _, err := tr.Customer(ctx, c.ID); !errors.Is(err, treasury.ErrNotFound) {
		t.Errorf("Customer after delete = %v, want ErrNotFound", err)
	}
	rows, err := tr.Transactions(ctx, transaction.Filter{AssetID: cash, IncludeDeleted: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("listed rows = %d, want the debt row and its reversal", len(rows))
	}
	verify(t, tr)
}

func TestDeleteOperatingCost(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	cash := till(t, tr, "LYD")

	rent, err := tr.AddExpenseType(ctx, "Rent")
	if err != nil {
		t.Fatal(err)
	}
	cost, err := tr.AddOperatingCost(ctx, treasury.AddCostInput{Amount: treasury.LYD(700), Source: treasury.FromAsset(cash), ExpenseTypeID: rent.ID})
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.DeleteOperatingCost(ctx, cost.ID, "bogus"); !errors.Is(err, treasury.ErrValidation) {
		t.Errorf("unknown policy = %v, want ErrValidation", err)
	}
	if err := tr.DeleteOperatingCost(ctx, cost.ID, ""); err != nil {
		t.Fatal(err)
	}

	if got := balance(t, tr, cash); got != 0 {
		t.Errorf("till = %d, want 0", got)
	}
	costs, err := tr.OperatingCosts(ctx, opcost.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(costs) != 0 {
		t.Errorf("costs = %d, want 0", len(costs))
	}
	rows, err := tr.Transactions(ctx, transaction.Filter{AssetID: cash, IncludeDeleted: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("silently voided cost still lists %d rows", len(rows))
	}
	verify(t, tr)
}

func TestDeletePosAfterDrawdown(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	cash := till(t, tr, "LYD")

	bank, err := tr.CreateBank(ctx, treasury.CreateBankInput{Name: "Jumhouria", POSEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	p, err := tr.AddPosTransaction(ctx, treasury.AddPosInput{
		BankID:             bank.ID,
		TotalAmount:        treasury.LYD(100_000),
		BankCommissionRate: decimal.NewFromInt(1),
		CashGiven:          treasury.LYD(95_000),
	})
	if err != nil {
		t.Fatal(err)
	}
	deposited := p.BankDepositAmount.Amount
	if _, err := tr.Withdraw(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: bank.ID}, Amount: treasury.LYD(deposited - 1_000)}); err != nil {
		t.Fatal(err)
	}

	// the silent void would take the bank below zero
	if err := tr.DeletePosTransaction(ctx, p.ID); !errors.Is(err, treasury.ErrInsufficientBalance) {
		t.Fatalf("DeletePosTransaction = %v, want ErrInsufficientBalance", err)
	}
	if got := balance(t, tr, bank.ID); got != 1_000 {
		t.Errorf("bank = %d, want 1000", got)
	}
	if got := balance(t, tr, cash); got != -95_000 {
		t.Errorf("till = %d, want -95000", got)
	}
	left, err := tr.PosTransactions(ctx, pos.ListOpts{IncludeArchived: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].ID != p.ID {
		t.Errorf("pos transactions = %d, want the refused one kept", len(left))
	}

	if _, err := tr.Deposit(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: bank.ID}, Amount: treasury.LYD(deposited)}); err != nil {
		t.Fatal(err)
	}
	if err := tr.DeletePosTransaction(ctx, p.ID); err != nil {
		t.Fatalf("delete after refill: %v", err)
	}
	if got := balance(t, tr, bank.ID); got != 1_000 {
		t.Errorf("bank after delete = %d, want 1000", got)
	}
	verify(t, tr)
}
