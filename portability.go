package treasury

import (
	"context"
	"strings"

	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
)

// ExportData returns the whole treasury as an indented JSON document.
func (t *Treasury) ExportData(ctx context.Context) (string, error) {
	var out string
	err := t.read(ctx, func(s *store.Snapshot) error {
		data, err := store.Marshal(s)
		if err != nil {
			return err
		}
		out = string(data)
		return nil
	})
	return out, err
}

// Snapshot returns a deep copy of the live state.
func (t *Treasury) Snapshot(ctx context.Context) (*store.Snapshot, error) {
	var out *store.Snapshot
	err := t.read(ctx, func(s *store.Snapshot) error {
		out = s.Clone()
		return nil
	})
	return out, err
}

// ImportData replaces every collection with the document's. The document
// must carry every required top-level key; the first missing one is
// reported.
func (t *Treasury) ImportData(ctx context.Context, data string) error {
	raw := []byte(strings.TrimSpace(data))
	missing, err := store.MissingKeys(raw)
	if err != nil {
		return invalid("data", "%v", err)
	}
	if len(missing) > 0 {
		return invalid(missing[0], "required key %q is missing", missing[0])
	}
	imported, err := store.Unmarshal(raw)
	if err != nil {
		return invalid("data", "%v", err)
	}

	var seeded int
	err = t.mutate(ctx, "import", func(b *book) error {
		imported.Version = b.snap.Version
		seeded = t.seedTills(imported)
		b.snap = imported
		b.emit(func(ctx context.Context, r *plugin.Registry) { r.EmitImported(ctx, imported) })
		return nil
	})
	if err != nil {
		return err
	}

	t.logger.Info("snapshot imported",
		"version", imported.Version,
		"assets", len(imported.Assets),
		"transactions", len(imported.Transactions),
		"seeded_tills", seeded,
	)
	return nil
}
