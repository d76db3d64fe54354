package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/store/sqlite"
	"github.com/xraph/treasury/types"
)

func open(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()

	sdb := sqlitedriver.New()
	if err := sdb.Open(ctx, filepath.Join(t.TempDir(), "treasury.db")); err != nil {
		t.Fatal(err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		t.Fatal(err)
	}
	s := sqlite.New(db, sqlite.WithName("branch"))
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func snapshot(version int64, balance int64) *store.Snapshot {
	snap := store.Empty()
	snap.Version = version
	snap.Assets = append(snap.Assets, &asset.Asset{
		ID:       id.NewAssetID(),
		Name:     "Wahda",
		Currency: "LYD",
		Kind:     asset.KindBank,
		Balance:  types.LYD(balance),
	})
	return snap
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	if _, err := s.Load(ctx); !errors.Is(err, treasury.ErrNoSnapshot) {
		t.Fatalf("Load on empty db = %v, want ErrNoSnapshot", err)
	}
	for v := int64(1); v <= 2; v++ {
		if err := s.Save(ctx, snapshot(v, v*1000)); err != nil {
			t.Fatalf("Save v%d: %v", v, err)
		}
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}
	if len(got.Assets) != 1 || !got.Assets[0].Balance.Equal(types.LYD(2000)) {
		t.Errorf("Assets = %+v, want one bank holding 2.000 LYD", got.Assets)
	}

	versions, err := s.Versions(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 || versions[0] != 2 || versions[1] != 1 {
		t.Errorf("Versions = %v, want [2 1]", versions)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	if err := s.Save(ctx, snapshot(1, 500)); err != nil {
		t.Fatal(err)
	}
	// the log insert of the next save fails after the snapshot upsert ran
	if _, err := sqlitedriver.Unwrap(s.DB()).Exec(ctx, "DROP TABLE treasury_snapshot_log"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, snapshot(2, 900)); err == nil {
		t.Fatal("Save without a log table succeeded")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 {
		t.Errorf("Version after failed save = %d, want 1", got.Version)
	}
	if !got.Assets[0].Balance.Equal(types.LYD(500)) {
		t.Errorf("balance after failed save = %s, want 0.500 LYD", got.Assets[0].Balance)
	}
}
