package treasury_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/transaction"
)

var march10 = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func startAt(t *testing.T, now time.Time) *treasury.Treasury {
	t.Helper()
	tr := treasury.New(memory.New(), treasury.WithClock(func() time.Time { return now }))
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Stop() })
	return tr
}

func TestShiftDate(t *testing.T) {
	ctx := context.Background()
	tr := startAt(t, march10)
	cash := till(t, tr, "LYD")

	r, err := tr.Deposit(ctx, treasury.MovementInput{Amount: treasury.LYD(1_000)})
	if err != nil {
		t.Fatal(err)
	}
	rowID := r.Transactions[0].ID

	tests := []struct {
		name    string
		dir     transaction.Direction
		wantDay int
	}{
		{"forward", transaction.Forward, 11},
		{"back", transaction.Backward, 10},
		{"back again", transaction.Backward, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tr.ShiftDate(ctx, []id.TransactionID{rowID}, tt.dir); err != nil {
				t.Fatal(err)
			}
			row, err := tr.Transaction(ctx, rowID)
			if err != nil {
				t.Fatal(err)
			}
			if row.Date.Day() != tt.wantDay {
				t.Errorf("day = %d, want %d", row.Date.Day(), tt.wantDay)
			}
		})
	}

	if err := tr.ShiftDate(ctx, []id.TransactionID{rowID}, "sideways"); !errors.Is(err, treasury.ErrValidation) {
		t.Errorf("unknown direction = %v, want ErrValidation", err)
	}
	err = tr.ShiftDate(ctx, []id.TransactionID{rowID, id.NewTransactionID()}, transaction.Forward)
	if !errors.Is(err, treasury.ErrNotFound) {
		t.Fatalf("unknown row = %v, want ErrNotFound", err)
	}
	row, err := tr.Transaction(ctx, rowID)
	if err != nil {
		t.Fatal(err)
	}
	if row.Date.Day() != 9 {
		t.Errorf("day after failed shift = %d, want 9", row.Date.Day())
	}
	if got := balance(t, tr, cash); got != 1_000 {
		t.Errorf("balance = %d, want 1000", got)
	}
	verify(t, tr)
}

func TestSetTemporarilyHidden(t *testing.T) {
	ctx := context.Background()
	tr, _ := start(t)
	cash := till(t, tr, "USD")

	r, err := tr.Deposit(ctx, treasury.MovementInput{Amount: treasury.USD(2_500)})
	if err != nil {
		t.Fatal(err)
	}
	ids := []id.TransactionID{r.Transactions[0].ID}

	listed := func(f transaction.Filter) int {
		t.Helper()
		rows, err := tr.Transactions(ctx, f)
		if err != nil {
			t.Fatal(err)
		}
		return len(rows)
	}

	if err := tr.SetTemporarilyHidden(ctx, ids, true); err != nil {
		t.Fatal(err)
	}
	if n := listed(transaction.Filter{AssetID: cash}); n != 0 {
		t.Errorf("hidden row listed by default: %d rows", n)
	}
	if n := listed(transaction.Filter{AssetID: cash, IncludeHidden: true}); n != 1 {
		t.Errorf("rows with IncludeHidden = %d, want 1", n)
	}
	if got := balance(t, tr, cash); got != 2_500 {
		t.Errorf("hiding moved the balance to %d", got)
	}
	verify(t, tr)

	if err := tr.SetTemporarilyHidden(ctx, ids, false); err != nil {
		t.Fatal(err)
	}
	if n := listed(transaction.Filter{AssetID: cash}); n != 1 {
		t.Errorf("rows after unhide = %d, want 1", n)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	tr := startAt(t, march10)
	cash := till(t, tr, "LYD")

	moves := []struct {
		deposit bool
		amount  int64
		date    time.Time
	}{
		{true, 1_000, time.Time{}},
		{false, 300, time.Time{}},
		{true, 5_000, march10.AddDate(0, 0, -1)},
	}
	for _, m := range moves {
		in := treasury.MovementInput{Amount: treasury.LYD(m.amount), Date: m.date}
		var err error
		if m.deposit {
			_, err = tr.Deposit(ctx, in)
		} else {
			_, err = tr.Withdraw(ctx, in)
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	hidden, err := tr.Deposit(ctx, treasury.MovementInput{Amount: treasury.LYD(70)})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SetTemporarilyHidden(ctx, []id.TransactionID{hidden.Transactions[0].ID}, true); err != nil {
		t.Fatal(err)
	}

	sums, err := tr.Summary(ctx, march10)
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, s := range sums {
		if s.AssetID != cash {
			if s.Count != 0 {
				t.Errorf("%s counted %d rows, want 0", s.Name, s.Count)
			}
			continue
		}
		found = true
		if s.In.Amount != 1_000 || s.Out.Amount != 300 || s.Net.Amount != 700 {
			t.Errorf("in/out/net = %d/%d/%d, want 1000/300/700", s.In.Amount, s.Out.Amount, s.Net.Amount)
		}
		if s.Count != 2 {
			t.Errorf("Count = %d, want 2", s.Count)
		}
		if s.Balance.Amount != 5_770 {
			t.Errorf("Balance = %d, want 5770", s.Balance.Amount)
		}
	}
	if !found {
		t.Fatal("LYD till missing from summary")
	}
}
