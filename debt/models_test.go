package debt

import (
	"testing"

	"github.com/xraph/treasury/types"
)

func TestQuotePayment(t *testing.T) {
	d := &Debt{Amount: types.USD(10_000), Paid: types.USD(4_000)}

	tests := []struct {
		amount      int64
		wantApplied int64
		wantSurplus int64
	}{
		{1_000, 1_000, 0},
		{6_000, 6_000, 0},
		{7_500, 6_000, 1_500},
	}
	for _, tt := range tests {
		q := QuotePayment(d, types.USD(tt.amount))
		if q.Remaining.Amount != 6_000 {
			t.Errorf("QuotePayment(%d).Remaining = %d, want 6000", tt.amount, q.Remaining.Amount)
		}
		if q.Applied.Amount != tt.wantApplied || q.Surplus.Amount != tt.wantSurplus {
			t.Errorf("QuotePayment(%d) = applied %d surplus %d, want %d and %d",
				tt.amount, q.Applied.Amount, q.Surplus.Amount, tt.wantApplied, tt.wantSurplus)
		}
		if q.HasSurplus() != (tt.wantSurplus > 0) {
			t.Errorf("QuotePayment(%d).HasSurplus() = %v", tt.amount, q.HasSurplus())
		}
	}
}

func TestDebtState(t *testing.T) {
	d := &Debt{Amount: types.LYD(500), Paid: types.LYD(500)}
	if !d.IsSettled() || d.Open() {
		t.Error("fully paid debt should be settled and closed")
	}
	d.Paid = types.LYD(100)
	if !d.Open() {
		t.Error("partly paid debt should be open")
	}
	d.IsArchived = true
	if d.Open() {
		t.Error("archived debt should not be open")
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := &Debt{
		Amount:   types.LYD(100),
		Paid:     types.LYD(0),
		Payments: []*Payment{{Amount: types.LYD(10), Surplus: &SurplusOption{Disposition: SurplusProfit}}},
	}
	c := d.Clone()
	c.Payments[0].Amount = types.LYD(99)
	c.Payments[0].Surplus.Disposition = SurplusDepositOnly
	if d.Payments[0].Amount.Amount != 10 || d.Payments[0].Surplus.Disposition != SurplusProfit {
		t.Fatal("clone shares payments with the original")
	}
}
