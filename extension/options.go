package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
)

// Option configures the treasury Forge extension.
type Option func(*Extension)

// WithStore sets the store for the treasury engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTreasuryOption passes a treasury.Option through to the underlying engine.
func WithTreasuryOption(opt treasury.Option) Option {
	return func(e *Extension) {
		e.treasuryOpts = append(e.treasuryOpts, opt)
	}
}

// WithPlugin registers a treasury plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.treasuryOpts = append(e.treasuryOpts, treasury.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents store migrations on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithFileStore makes the extension build a file store at path.
func WithFileStore(path string) Option {
	return func(e *Extension) {
		e.config.Store = "file"
		e.config.FilePath = path
	}
}

// WithGroveDatabase hands the extension an open grove.DB. driver picks the
// store built over it: "sqlite", "postgres" or "mongo".
func WithGroveDatabase(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.Store = driver
	}
}

// WithDocumentName sets the snapshot row name used by the grove stores.
func WithDocumentName(name string) Option {
	return func(e *Extension) { e.config.DocumentName = name }
}

// WithDefaultLocation sets the till location used when a selection names none.
func WithDefaultLocation(location string) Option {
	return func(e *Extension) { e.config.DefaultLocation = location }
}

// WithPluginTimeout bounds each post-commit hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
