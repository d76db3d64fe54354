package treasury_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/receivable"
)

func addReceivable(t *testing.T, tr *treasury.Treasury, debtor string, amount int64, dest *asset.Funding) *receivable.Receivable {
	t.Helper()
	r, err := tr.AddReceivable(context.Background(), treasury.AddReceivableInput{Debtor: debtor, Amount: treasury.LYD(amount), Destination: dest})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func receivableOf(t *testing.T, tr *treasury.Treasury, receivableID id.ReceivableID) *receivable.Receivable {
	t.Helper()
	r, err := tr.Receivable(context.Background(), receivableID)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestReceivableArchiveRestore(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	r := addReceivable(t, tr, "Hamza", 500, nil)
	pay := treasury.PayReceivableInput{ReceivableID: r.ID, Amount: treasury.LYD(100), Source: treasury.External()}

	if err := tr.ArchiveReceivable(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if got := receivableOf(t, tr, r.ID); !got.IsArchived || got.ArchiveReason != receivable.ArchivedManually {
		t.Fatalf("archived = %v reason %q, want manual archive", got.IsArchived, got.ArchiveReason)
	}
	if _, err := tr.PayReceivable(ctx, pay); !errors.Is(err, treasury.ErrInvariantViolation) {
		t.Errorf("paying an archived receivable = %v, want ErrInvariantViolation", err)
	}

	if err := tr.RestoreReceivable(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	got, err := tr.PayReceivable(ctx, pay)
	if err != nil {
		t.Fatal(err)
	}
	if got.Remaining().Amount != 400 {
		t.Errorf("remaining = %d, want 400", got.Remaining().Amount)
	}
}

func TestArchiveDebtor(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	manual := addReceivable(t, tr, "Hassan", 100, nil)
	cascaded := addReceivable(t, tr, "hassan ", 200, nil)
	dollars, err := tr.AddReceivable(ctx, treasury.AddReceivableInput{Debtor: "Hassan", Amount: treasury.USD(50)})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.ArchiveReceivable(ctx, manual.ID); err != nil {
		t.Fatal(err)
	}

	archived := func(receivableID id.ReceivableID) bool { return receivableOf(t, tr, receivableID).IsArchived }

	if err := tr.ArchiveDebtor(ctx, "Hassan", "LYD"); err != nil {
		t.Fatal(err)
	}
	if !archived(cascaded.ID) {
		t.Error("ArchiveDebtor left a receivable of the debtor active")
	}
	if archived(dollars.ID) {
		t.Error("ArchiveDebtor archived the debtor's USD receivable")
	}
	debtors, err := tr.Debtors(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(debtors) != 1 || debtors[0].Currency != "USD" {
		t.Errorf("active debtors = %+v, want only the USD group", debtors)
	}

	if err := tr.RestoreDebtor(ctx, "HASSAN", "lyd"); err != nil {
		t.Fatal(err)
	}
	if archived(cascaded.ID) {
		t.Error("RestoreDebtor kept the cascaded receivable archived")
	}
	if !archived(manual.ID) {
		t.Error("RestoreDebtor restored a receivable archived on its own")
	}

	tests := []struct {
		name string
		fn   func(context.Context, string, string) error
	}{
		{"archive", tr.ArchiveDebtor},
		{"restore", tr.RestoreDebtor},
	}
	for _, tt := range tests {
		t.Run(tt.name+" unknown debtor", func(t *testing.T) {
			if err := tt.fn(ctx, "Nobody", "LYD"); !errors.Is(err, treasury.ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestMergeDebtorReceivables(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	first := addReceivable(t, tr, "Khaled", 500, nil)
	second := addReceivable(t, tr, "Khaled", 300, nil)
	if _, err := tr.PayReceivable(ctx, treasury.PayReceivableInput{ReceivableID: first.ID, Amount: treasury.LYD(100), Source: treasury.External()}); err != nil {
		t.Fatal(err)
	}

	merged, err := tr.MergeDebtorReceivables(ctx, "Khaled", "LYD")
	if err != nil {
		t.Fatal(err)
	}
	if merged.Amount.Amount != 700 || !merged.Paid.IsZero() {
		t.Errorf("merged amount/paid = %s/%s, want 0.700/0 LYD", merged.Amount, merged.Paid)
	}
	if len(merged.MergedFrom) != 2 {
		t.Errorf("MergedFrom = %v, want both originals", merged.MergedFrom)
	}
	for _, original := range []id.ReceivableID{first.ID, second.ID} {
		got := receivableOf(t, tr, original)
		if !got.IsArchived || got.MergedInto != merged.ID {
			t.Errorf("original %s archived=%v mergedInto=%s", original, got.IsArchived, got.MergedInto)
		}
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"merge single open", func() error {
			_, err := tr.MergeDebtorReceivables(ctx, "Khaled", "LYD")
			return err
		}},
		{"restore merged original", func() error { return tr.RestoreReceivable(ctx, first.ID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, treasury.ErrInvariantViolation) {
				t.Errorf("err = %v, want ErrInvariantViolation", err)
			}
		})
	}
	verify(t, tr)
}

func TestDeleteMergedReceivable(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	cash := till(t, tr, "LYD")

	funded := addReceivable(t, tr, "Nouri", 400, &asset.Funding{})
	addReceivable(t, tr, "Nouri", 200, nil)
	if got := balance(t, tr, cash); got != 400 {
		t.Fatalf("till after funding = %d, want 400", got)
	}
	merged, err := tr.MergeDebtorReceivables(ctx, "Nouri", "LYD")
	if err != nil {
		t.Fatal(err)
	}

	err = tr.DeleteArchivedReceivable(ctx, funded.ID)
	var inv treasury.InvariantError
	if !errors.As(err, &inv) || inv.Rule != "merged-receivable" {
		t.Fatalf("deleting a merged original = %v, want merged-receivable violation", err)
	}
	if got := balance(t, tr, cash); got != 400 {
		t.Errorf("till after refused delete = %d, want 400", got)
	}
	receivableOf(t, tr, funded.ID)

	if err := tr.ArchiveReceivable(ctx, merged.ID); err != nil {
		t.Fatal(err)
	}
	if err := tr.DeleteArchivedReceivable(ctx, merged.ID); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, tr, cash); got != 400 {
		t.Errorf("deleting the merged receivable moved the till to %d", got)
	}
	if err := tr.DeleteArchivedReceivable(ctx, funded.ID); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, tr, cash); got != 0 {
		t.Errorf("till after deleting the original = %d, want 0", got)
	}
	if _, err := tr.Receivable(ctx, funded.ID); !errors.Is(err, treasury.ErrNotFound) {
		t.Errorf("deleted receivable lookup = %v, want ErrNotFound", err)
	}
	verify(t, tr)
}
