package treasury_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/dollarcard"
)

func cardWithPayments(t *testing.T, tr *treasury.Treasury, amounts ...int64) (*dollarcard.Purchase, []*dollarcard.Payment) {
	t.Helper()
	ctx := context.Background()
	p, err := tr.AddDollarCardPurchase(ctx, treasury.AddPurchaseInput{CustomerName: "Rania", Phone: "0925551234"})
	if err != nil {
		t.Fatal(err)
	}
	var pays []*dollarcard.Payment
	for _, amount := range amounts {
		pay, err := tr.AddDollarCardPayment(ctx, treasury.CardPaymentInput{PurchaseID: p.ID, Amount: treasury.LYD(amount), Source: asset.Funding{}})
		if err != nil {
			t.Fatal(err)
		}
		pays = append(pays, pay)
	}
	return p, pays
}

func TestDeleteDollarCardPayment(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	cash := till(t, tr, "LYD")

	p, pays := cardWithPayments(t, tr, 3_000, 4_000)
	if got := balance(t, tr, cash); got != -7_000 {
		t.Fatalf("till after payments = %d, want -7000", got)
	}

	if err := tr.DeleteDollarCardPayment(ctx, p.ID, pays[0].ID); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, tr, cash); got != -4_000 {
		t.Errorf("till after delete = %d, want -4000", got)
	}
	got, err := tr.DollarCardPurchase(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Payments) != 1 || got.Payments[0].ID != pays[1].ID {
		t.Errorf("payments = %+v, want only the second", got.Payments)
	}
	if err := tr.DeleteDollarCardPayment(ctx, p.ID, pays[0].ID); !errors.Is(err, treasury.ErrNotFound) {
		t.Errorf("deleting the payment twice = %v, want ErrNotFound", err)
	}

	if _, err := tr.CompleteDollarCardPurchase(ctx, treasury.CompleteInput{PurchaseID: p.ID, ReceivedUSD: treasury.USD(600)}); err != nil {
		t.Fatal(err)
	}
	if err := tr.DeleteDollarCardPayment(ctx, p.ID, pays[1].ID); !errors.Is(err, treasury.ErrInvariantViolation) {
		t.Errorf("deleting a payment of a completed purchase = %v, want ErrInvariantViolation", err)
	}
	if got := balance(t, tr, cash); got != -4_000 {
		t.Errorf("till after refused delete = %d, want -4000", got)
	}
	verify(t, tr)
}

func TestDeleteDollarCardPurchase(t *testing.T) {
	tests := []struct {
		name     string
		complete bool
	}{
		{"active", false},
		{"completed", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tr, _ := start(t)
			cash, usd := till(t, tr, "LYD"), till(t, tr, "USD")

			p, _ := cardWithPayments(t, tr, 2_500, 2_500)
			if tt.complete {
				if _, err := tr.CompleteDollarCardPurchase(ctx, treasury.CompleteInput{PurchaseID: p.ID, ReceivedUSD: treasury.USD(900)}); err != nil {
					t.Fatal(err)
				}
			}

			if err := tr.DeleteDollarCardPurchase(ctx, p.ID); err != nil {
				t.Fatal(err)
			}
			if got := balance(t, tr, cash); got != 0 {
				t.Errorf("LYD till = %d, want 0", got)
			}
			if got := balance(t, tr, usd); got != 0 {
				t.Errorf("USD till = %d, want 0", got)
			}
			if _, err := tr.DollarCardPurchase(ctx, p.ID); !errors.Is(err, treasury.ErrNotFound) {
				t.Errorf("lookup after delete = %v, want ErrNotFound", err)
			}
			verify(t, tr)
		})
	}
}
