package treasury

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/types"
)

// nopStore keeps nothing; the treasury starts from an empty snapshot.
type nopStore struct{}

func (nopStore) Load(context.Context) (*store.Snapshot, error) { return nil, ErrNoSnapshot }
func (nopStore) Save(context.Context, *store.Snapshot) error { return nil }
func (nopStore) Migrate(context.Context) error { return nil }
func (nopStore) Ping(context.Context) error { return nil }
func (nopStore) Close() error { return nil }

func TestMutatePanicReleasesLock(t *testing.T) {
	ctx := context.Background()
	tr := New(nopStore{})
	if err := tr.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Stop() })

	before := tr.state.Version
	err := tr.mutate(ctx, "mixed_currencies", func(*book) error {
		types.LYD(1).Add(types.USD(1))
		return nil
	})
	var inv InvariantError
	if !errors.As(err, &inv) || inv.Rule != "internal" {
		t.Fatalf("mutate = %v, want internal InvariantError", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- tr.read(ctx, func(s *store.Snapshot) error {
			if s.Version != before {
				t.Errorf("Version = %d after panic, want %d", s.Version, before)
			}
			return nil
		})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("read blocked after a panicking mutation")
	}

	if err := tr.mutate(ctx, "noop", func(*book) error { return nil }); err != nil {
		t.Errorf("mutate after panic = %v", err)
	}
}
