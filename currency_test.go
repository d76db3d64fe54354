package treasury_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/types"
)

func TestLowerCaseCurrencyRejected(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	usd, lyd := till(t, tr, "USD"), till(t, tr, "LYD")
	lower := types.Money{Amount: 100, Currency: "usd"}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"deposit", func() error {
			_, err := tr.Deposit(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: usd}, Amount: lower})
			return err
		}},
		{"external value", func() error {
			_, err := tr.AddExternalValue(ctx, treasury.AddExternalValueInput{Name: "Deposit abroad", Amount: lower})
			return err
		}},
		{"receivable", func() error {
			_, err := tr.AddReceivable(ctx, treasury.AddReceivableInput{Debtor: "Adel", Amount: lower})
			return err
		}},
		{"exchange", func() error {
			_, err := tr.Exchange(ctx, treasury.ExchangeInput{From: usd, To: lyd, Amount: lower, Rate: decimal.NewFromInt(5)})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, treasury.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	// the treasury must still serve requests afterwards
	done := make(chan error, 1)
	go func() {
		_, err := tr.Assets(ctx, asset.ListOpts{})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Assets blocked after rejected input")
	}
	if got := balance(t, tr, usd); got != 0 {
		t.Errorf("USD till = %d, want 0", got)
	}
	verify(t, tr)
}

func TestImportCanonicalizesCurrency(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	if _, err := tr.AddReceivable(ctx, treasury.AddReceivableInput{Debtor: "Adel", Amount: treasury.LYD(300), Destination: &asset.Funding{}}); err != nil {
		t.Fatal(err)
	}

	doc, err := tr.ExportData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	lowered := strings.ReplaceAll(doc, `"currency": "LYD"`, `"currency": "lyd"`)
	if lowered == doc {
		t.Fatal("export carries no LYD currency fields")
	}
	if err := tr.ImportData(ctx, lowered); err != nil {
		t.Fatal(err)
	}

	cash := till(t, tr, "LYD")
	a, err := tr.Asset(ctx, cash)
	if err != nil {
		t.Fatal(err)
	}
	if a.Currency != "LYD" || a.Balance.Currency != "LYD" {
		t.Errorf("till currency = %q balance %q, want LYD", a.Currency, a.Balance.Currency)
	}
	debtors, err := tr.Debtors(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(debtors) != 1 || debtors[0].Currency != "LYD" || debtors[0].Remaining.Amount != 300 {
		t.Errorf("debtors = %+v, want Adel owing 0.300 LYD", debtors)
	}
	if _, err := tr.Deposit(ctx, treasury.MovementInput{Asset: asset.Selection{AssetID: cash}, Amount: treasury.LYD(200)}); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, tr, cash); got != 500 {
		t.Errorf("till = %d, want 500", got)
	}
	verify(t, tr)
}
