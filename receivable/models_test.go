package receivable

import (
	"testing"

	"github.com/xraph/treasury/types"
)

func TestGroup(t *testing.T) {
	rs := []*Receivable{
		{Debtor: "Omar  Ali", Currency: "LYD", Amount: types.LYD(1_000), Paid: types.LYD(200)},
		{Debtor: "Omar Ali", Currency: "USD", Amount: types.USD(500), Paid: types.USD(0)},
		{Debtor: "omar ali", Currency: "LYD", Amount: types.LYD(300), Paid: types.LYD(0)},
		{Debtor: "Omar Ali", Currency: "LYD", Amount: types.LYD(900), Paid: types.LYD(0), IsArchived: true},
		{Debtor: "Nadia", Currency: "LYD", Amount: types.LYD(50), Paid: types.LYD(50), IsArchived: true},
	}

	got := Group(rs)
	if len(got) != 3 {
		t.Fatalf("Group returned %d debtors, want 3", len(got))
	}

	lyd := got[0]
	if lyd.Currency != "LYD" || len(lyd.Receivables) != 3 {
		t.Fatalf("first debtor = %s with %d receivables, want LYD with 3", lyd.Currency, len(lyd.Receivables))
	}
	if lyd.Total.Amount != 1_300 || lyd.Paid.Amount != 200 || lyd.Remaining.Amount != 1_100 {
		t.Errorf("LYD totals = %d/%d/%d, want 1300/200/1100", lyd.Total.Amount, lyd.Paid.Amount, lyd.Remaining.Amount)
	}
	if lyd.IsArchived {
		t.Error("debtor with active receivables is archived")
	}

	if got[1].Currency != "USD" {
		t.Errorf("second debtor currency = %s, want USD", got[1].Currency)
	}
	if !got[2].IsArchived {
		t.Error("debtor with only archived receivables is not archived")
	}
}

func TestKeyOf(t *testing.T) {
	if KeyOf("  Omar   Ali ", "lyd") != KeyOf("omar ali", "LYD") {
		t.Error("keys differ by case or spacing")
	}
	if KeyOf("Omar", "LYD") == KeyOf("Omar", "USD") {
		t.Error("same debtor in two currencies shares a key")
	}
}
