package audithook_test

import (
	"context"
	"sync"
	"testing"

	"github.com/xraph/treasury"
	audithook "github.com/xraph/treasury/audit_hook"
	"github.com/xraph/treasury/store/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (r *recorder) Record(_ context.Context, e *audithook.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

func start(t *testing.T, ext *audithook.Extension) *treasury.Treasury {
	t.Helper()
	tr := treasury.New(memory.New(), treasury.WithPlugin(ext))
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Stop() })
	return tr
}

func flush(t *testing.T, tr *treasury.Treasury) {
	t.Helper()
	if err := tr.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestBankLifecycleIsAudited(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := start(t, audithook.New(rec))

	bank, err := tr.CreateBank(ctx, treasury.CreateBankInput{Name: "Wahda"})
	if err != nil {
		t.Fatal(err)
	}
	enabled := true
	if _, err := tr.UpdateBank(ctx, bank.ID, treasury.UpdateBankInput{POSEnabled: &enabled}); err != nil {
		t.Fatal(err)
	}
	if err := tr.DeleteBank(ctx, bank.ID); err != nil {
		t.Fatal(err)
	}

	flush(t, tr)
	want := []string{audithook.ActionBankCreated, audithook.ActionBankUpdated, audithook.ActionBankDeleted}
	got := rec.actions()
	if len(got) != len(want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("actions[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.events[1].Metadata["pos_enabled"] != true {
		t.Errorf("update metadata = %v, want pos_enabled", rec.events[1].Metadata)
	}
	if rec.events[2].Severity != audithook.SeverityWarning {
		t.Errorf("delete severity = %s, want warning", rec.events[2].Severity)
	}
}

func TestSilentVoidIsWarning(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := start(t, audithook.New(rec, audithook.WithEnabledActions(audithook.ActionOperationVoided, audithook.ActionOperationReversed)))

	r, err := tr.Deposit(ctx, treasury.MovementInput{Amount: treasury.LYD(1_000)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Void(ctx, r.Transactions[0].ID, treasury.SilentlyVoided); err != nil {
		t.Fatal(err)
	}
	flush(t, tr)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 1 {
		t.Fatalf("recorded %d events, want only the void", len(rec.events))
	}
	e := rec.events[0]
	if e.Action != audithook.ActionOperationVoided || e.Severity != audithook.SeverityWarning {
		t.Errorf("event = %s/%s, want voided/warning", e.Action, e.Severity)
	}
	if e.ResourceID != r.Operation.ID.String() {
		t.Errorf("ResourceID = %s, want %s", e.ResourceID, r.Operation.ID)
	}
}

func TestDisabledActions(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := start(t, audithook.New(rec, audithook.WithDisabledActions(audithook.ActionOperationCommitted)))

	if _, err := tr.CreateBank(ctx, treasury.CreateBankInput{Name: "NCB", OpeningBalance: treasury.LYD(500)}); err != nil {
		t.Fatal(err)
	}
	flush(t, tr)
	for _, a := range rec.actions() {
		if a == audithook.ActionOperationCommitted {
			t.Fatal("disabled action was recorded")
		}
	}
	if got := rec.actions(); len(got) != 1 || got[0] != audithook.ActionBankCreated {
		t.Errorf("actions = %v, want only bank.created", got)
	}
}
