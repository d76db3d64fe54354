package treasury_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/extvalue"
	"github.com/xraph/treasury/id"
)

func TestExternalValueHistory(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)

	v, err := tr.AddExternalValue(ctx, treasury.AddExternalValueInput{Name: "Gold with Omar", Amount: treasury.LYD(1_000), User: "admin"})
	if err != nil {
		t.Fatal(err)
	}

	var deposit id.ExternalChangeID
	tests := []struct {
		name    string
		typ     extvalue.EntryType
		amount  int64
		want    int64
		wantErr error
	}{
		{"deposit", extvalue.EntryDeposit, 500, 1_500, nil},
		{"withdrawal", extvalue.EntryWithdrawal, 200, 1_300, nil},
		{"initial is not an adjustment", extvalue.EntryInitial, 100, 1_300, treasury.ErrValidation},
		{"zero amount", extvalue.EntryDeposit, 0, 1_300, treasury.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.AdjustExternalValue(ctx, treasury.AdjustInput{ValueID: v.ID, Type: tt.typ, Amount: treasury.LYD(tt.amount)})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Amount.Amount != tt.want {
				t.Errorf("Amount = %d, want %d", got.Amount.Amount, tt.want)
			}
			if tt.typ == extvalue.EntryDeposit {
				deposit = got.History[len(got.History)-1].ID
			}
		})
	}

	if _, err := tr.AdjustExternalValue(ctx, treasury.AdjustInput{ValueID: v.ID, Type: extvalue.EntryDeposit, Amount: treasury.USD(100)}); !errors.Is(err, treasury.ErrValidation) {
		t.Errorf("deposit in another currency = %v, want ErrValidation", err)
	}

	got, err := tr.DeleteExternalValueEntry(ctx, v.ID, deposit)
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount.Amount != 800 || len(got.History) != 2 {
		t.Errorf("after delete amount = %d with %d entries, want 800 with 2", got.Amount.Amount, len(got.History))
	}
	if _, err := tr.DeleteExternalValueEntry(ctx, v.ID, deposit); !errors.Is(err, treasury.ErrNotFound) {
		t.Errorf("deleting the entry twice = %v, want ErrNotFound", err)
	}

	// external values never touch the books
	if got := balance(t, tr, till(t, tr, "LYD")); got != 0 {
		t.Errorf("till = %d, want 0", got)
	}
}
