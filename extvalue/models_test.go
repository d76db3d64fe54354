package extvalue

import (
	"testing"

	"github.com/xraph/treasury/types"
)

func TestResum(t *testing.T) {
	v := &Value{
		Currency: "USD",
		History: []*Entry{
			{Type: EntryInitial, Amount: types.USD(10000)},
			{Type: EntryDeposit, Amount: types.USD(2500)},
			{Type: EntryWithdrawal, Amount: types.USD(4000)},
		},
	}
	v.Resum()
	if !v.Amount.Equal(types.USD(8500)) {
		t.Fatalf("Amount = %v, want 85.00 USD", v.Amount)
	}

	v.History = v.History[:2]
	v.Resum()
	if !v.Amount.Equal(types.USD(12500)) {
		t.Fatalf("Amount after delete = %v, want 125.00 USD", v.Amount)
	}
}

func TestCloneIsDeep(t *testing.T) {
	v := &Value{Currency: "LYD", History: []*Entry{{Type: EntryInitial, Amount: types.LYD(1)}}}
	c := v.Clone()
	c.History[0].Amount = types.LYD(99)
	if v.History[0].Amount.Amount != 1 {
		t.Fatal("clone shares history entries with the original")
	}
}
