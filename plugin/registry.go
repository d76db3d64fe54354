package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
)

// DefaultTimeout bounds each hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onOperationCommitted  []OnOperationCommitted
	onOperationVoided     []OnOperationVoided
	onBankChanged         []OnBankChanged
	onDollarCardCompleted []OnDollarCardCompleted
	onRecordChanged       []OnRecordChanged
	onSnapshotSaved       []OnSnapshotSaved
	onImported            []OnImported
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnOperationCommitted); ok {
		r.onOperationCommitted = append(r.onOperationCommitted, v)
	}
	if v, ok := p.(OnOperationVoided); ok {
		r.onOperationVoided = append(r.onOperationVoided, v)
	}
	if v, ok := p.(OnBankChanged); ok {
		r.onBankChanged = append(r.onBankChanged, v)
	}
	if v, ok := p.(OnDollarCardCompleted); ok {
		r.onDollarCardCompleted = append(r.onDollarCardCompleted, v)
	}
	if v, ok := p.(OnRecordChanged); ok {
		r.onRecordChanged = append(r.onRecordChanged, v)
	}
	if v, ok := p.(OnSnapshotSaved); ok {
		r.onSnapshotSaved = append(r.onSnapshotSaved, v)
	}
	if v, ok := p.(OnImported); ok {
		r.onImported = append(r.onImported, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnOperationCommitted)(nil)).Elem(), "OnOperationCommitted")
	checkInterface(reflect.TypeOf((*OnOperationVoided)(nil)).Elem(), "OnOperationVoided")
	checkInterface(reflect.TypeOf((*OnBankChanged)(nil)).Elem(), "OnBankChanged")
	checkInterface(reflect.TypeOf((*OnDollarCardCompleted)(nil)).Elem(), "OnDollarCardCompleted")
	checkInterface(reflect.TypeOf((*OnRecordChanged)(nil)).Elem(), "OnRecordChanged")
	checkInterface(reflect.TypeOf((*OnSnapshotSaved)(nil)).Elem(), "OnSnapshotSaved")
	checkInterface(reflect.TypeOf((*OnImported)(nil)).Elem(), "OnImported")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, t interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnInit", func() error { return p.OnInit(ctx, t) })
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnShutdown", func() error { return p.OnShutdown(ctx) })
	}
}

// EmitOperationCommitted emits an operation committed event.
func (r *Registry) EmitOperationCommitted(ctx context.Context, op *transaction.Operation, rows []*transaction.Transaction) {
	r.mu.RLock()
	plugins := r.onOperationCommitted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnOperationCommitted", func() error { return p.OnOperationCommitted(ctx, op, rows) })
	}
}

// EmitOperationVoided emits an operation voided event.
func (r *Registry) EmitOperationVoided(ctx context.Context, op *transaction.Operation, policy transaction.DeletionPolicy) {
	r.mu.RLock()
	plugins := r.onOperationVoided
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnOperationVoided", func() error { return p.OnOperationVoided(ctx, op, policy) })
	}
}

// EmitBankChanged emits a bank changed event.
func (r *Registry) EmitBankChanged(ctx context.Context, before, after *asset.Asset) {
	r.mu.RLock()
	plugins := r.onBankChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnBankChanged", func() error { return p.OnBankChanged(ctx, before, after) })
	}
}

// EmitDollarCardCompleted emits a dollar card completed event.
func (r *Registry) EmitDollarCardCompleted(ctx context.Context, purchase *dollarcard.Purchase) {
	r.mu.RLock()
	plugins := r.onDollarCardCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnDollarCardCompleted", func() error { return p.OnDollarCardCompleted(ctx, purchase) })
	}
}

// EmitRecordChanged emits a structural change event.
func (r *Registry) EmitRecordChanged(ctx context.Context, change RecordChange) {
	r.mu.RLock()
	plugins := r.onRecordChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnRecordChanged", func() error { return p.OnRecordChanged(ctx, change) })
	}
}

// EmitSnapshotSaved emits a snapshot saved event.
func (r *Registry) EmitSnapshotSaved(ctx context.Context, s *store.Snapshot) {
	r.mu.RLock()
	plugins := r.onSnapshotSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnSnapshotSaved", func() error { return p.OnSnapshotSaved(ctx, s) })
	}
}

// EmitImported emits an import event.
func (r *Registry) EmitImported(ctx context.Context, s *store.Snapshot) {
	r.mu.RLock()
	plugins := r.onImported
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnImported", func() error { return p.OnImported(ctx, s) })
	}
}

// call runs one hook and logs its failure.
func (r *Registry) call(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout executes a function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
