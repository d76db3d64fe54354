package treasury

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/types"
)

// Treasury owns every collection of the ledger. Mutations are serialized,
// applied to a copy of the snapshot, saved, and only then made visible.
type Treasury struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	tills           []asset.TillSpec
	defaultLocation string
	skipMigrate     bool

	hooks     hookQueue
	hookQueue int

	mu    sync.RWMutex
	state *store.Snapshot
}

// New creates a new Treasury instance. Call Start before using it.
func New(s store.Store, opts ...Option) *Treasury {
	t := &Treasury{
		store:           s,
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		clock:           time.Now,
		tills:           asset.DefaultTills,
		defaultLocation: asset.DefaultLocation,
		hookQueue:       defaultHookQueue,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Option configures a Treasury instance.
type Option func(*Treasury)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Treasury) {
		t.logger = logger
		t.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(t *Treasury) {
		_ = t.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each post-commit hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(t *Treasury) {
		t.plugins.WithTimeout(d)
	}
}

// WithHookQueue bounds how many committed mutations may wait for their
// plugin hooks before mutations block.
func WithHookQueue(n int) Option {
	return func(t *Treasury) {
		if n > 0 {
			t.hookQueue = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Treasury) {
		t.clock = now
	}
}

// WithTills replaces the fixed till catalog.
func WithTills(specs ...asset.TillSpec) Option {
	return func(t *Treasury) {
		if len(specs) > 0 {
			t.tills = specs
		}
	}
}

// WithDefaultLocation sets the till location used when a selection names none.
func WithDefaultLocation(location string) Option {
	return func(t *Treasury) {
		if location != "" {
			t.defaultLocation = location
		}
	}
}

// WithoutMigrate makes Start skip store migrations.
func WithoutMigrate() Option {
	return func(t *Treasury) {
		t.skipMigrate = true
	}
}

// Plugins exposes the plugin registry.
func (t *Treasury) Plugins() *plugin.Registry { return t.plugins }

// Start migrates the store unless disabled, loads the snapshot and seeds missing tills.
func (t *Treasury) Start(ctx context.Context) error {
	if !t.skipMigrate {
		if err := t.store.Migrate(ctx); err != nil {
			return fmt.Errorf("treasury: migrate: %w", err)
		}
	}

	snap, err := t.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		snap = store.Empty()
	case err != nil:
		return fmt.Errorf("treasury: load snapshot: %w", err)
	}
	snap.Normalize()

	if seeded := t.seedTills(snap); seeded > 0 {
		if err := t.save(ctx, snap); err != nil {
			return err
		}
		t.logger.Info("seeded cash tills", "count", seeded)
	}

	t.mu.Lock()
	t.state = snap
	t.mu.Unlock()

	t.plugins.EmitInit(ctx, t)
	t.hooks.start(t.hookQueue)

	t.logger.Info("treasury started",
		"version", snap.Version,
		"assets", len(snap.Assets),
		"transactions", len(snap.Transactions),
		"plugins", t.plugins.Count(),
	)

	return nil
}

// Stop shuts down the Treasury. Queued hooks run before plugins shut down.
func (t *Treasury) Stop() error {
	t.mu.Lock()
	t.state = nil
	t.mu.Unlock()

	t.hooks.stop()
	t.plugins.EmitShutdown(context.Background())

	return t.store.Close()
}

// seedTills adds every catalog till missing from snap.
func (t *Treasury) seedTills(snap *store.Snapshot) int {
	existing := make(map[string]bool, len(snap.Assets))
	for _, a := range snap.Assets {
		if a.IsTill() {
			existing[a.Key] = true
		}
	}

	seeded := 0
	for _, spec := range t.tills {
		if existing[spec.Ref().Key()] {
			continue
		}
		snap.Assets = append(snap.Assets, spec.NewTill(types.NewEntity(t.clock())))
		existing[spec.Ref().Key()] = true
		seeded++
	}
	return seeded
}

func (t *Treasury) save(ctx context.Context, snap *store.Snapshot) error {
	snap.Version++
	snap.SavedAt = t.clock().UTC()
	if err := t.store.Save(ctx, snap); err != nil {
		t.logger.Error("snapshot save failed", "version", snap.Version, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// errDiscard ends a mutation without committing and without error.
var errDiscard = errors.New("treasury: discard")

// mutate runs fn against a working copy of the snapshot. The copy replaces
// the live state only after it is saved; any error discards it.
func (t *Treasury) mutate(ctx context.Context, action string, fn func(b *book) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := t.commit(ctx, action, fn)
	if err != nil {
		if errors.Is(err, errDiscard) {
			return nil
		}
		return err
	}

	t.logger.Debug("mutation committed",
		"action", action,
		"version", b.snap.Version,
		"operations", len(b.opened),
	)

	return nil
}

// commit holds the write lock for the whole of fn and the save. A panic in
// fn is returned as an invariant violation and the working copy is dropped.
func (t *Treasury) commit(ctx context.Context, action string, fn func(b *book) error) (b *book, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == nil {
		return nil, ErrNotStarted
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("mutation panicked", "action", action, "panic", r)
			b, err = nil, violation("internal", "%s: %v", action, r)
		}
	}()

	b = newBook(t.state.Clone(), t.clock(), t.defaultLocation)
	if err := fn(b); err != nil {
		return nil, err
	}
	if err := t.save(ctx, b.snap); err != nil {
		return nil, err
	}
	t.state = b.snap
	t.dispatch(ctx, b)
	return b, nil
}

// read runs fn under the read lock against the live state.
func (t *Treasury) read(ctx context.Context, fn func(s *store.Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.state == nil {
		return ErrNotStarted
	}
	return fn(t.state)
}
