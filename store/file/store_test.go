package file_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/store/file"
	"github.com/xraph/treasury/types"
)

func TestLoadEmpty(t *testing.T) {
	s, err := file.New(filepath.Join(t.TempDir(), "data", "treasury.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Load(context.Background()); !errors.Is(err, treasury.ErrNoSnapshot) {
		t.Errorf("Load on empty file = %v, want ErrNoSnapshot", err)
	}
}

func TestSaveLoadShrinks(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "treasury.json")
	s, err := file.New(path)
	if err != nil {
		t.Fatal(err)
	}

	big := store.Empty()
	for i := 0; i < 10; i++ {
		big.Assets = append(big.Assets, asset.DefaultTills[0].NewTill(types.Entity{}))
	}
	if err := s.Save(ctx, big); err != nil {
		t.Fatal(err)
	}

	small := store.Empty()
	small.Version = 7
	bank := &asset.Asset{ID: id.NewAssetID(), Name: "Wahda", Currency: "LYD", Kind: asset.KindBank, Balance: types.LYD(1500)}
	small.Assets = append(small.Assets, bank)
	if err := s.Save(ctx, small); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := file.New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load after shrink: %v", err)
	}
	if got.Version != 7 {
		t.Errorf("Version = %d, want 7", got.Version)
	}
	if len(got.Assets) != 1 {
		t.Fatalf("len(Assets) = %d, want 1", len(got.Assets))
	}
	if got.Assets[0].ID.String() != bank.ID.String() || !got.Assets[0].Balance.Equal(types.LYD(1500)) {
		t.Errorf("asset = %+v, want %+v", got.Assets[0], bank)
	}
}

func TestClosed(t *testing.T) {
	s, err := file.New(filepath.Join(t.TempDir(), "treasury.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), store.Empty()); !errors.Is(err, treasury.ErrStoreClosed) {
		t.Errorf("Save after Close = %v, want ErrStoreClosed", err)
	}
}
