// Package extension provides the Forge extension adapter for the treasury.
//
// It implements the forge.Extension interface to integrate the treasury
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.treasury" or "treasury" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/store/file"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/store/mongo"
	"github.com/xraph/treasury/store/postgres"
	"github.com/xraph/treasury/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "treasury"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Multi-currency treasury ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the treasury as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	engine       *treasury.Treasury
	store        store.Store
	groveDB      *grove.DB
	treasuryOpts []treasury.Option
}

// New creates a new treasury Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Treasury instance.
// This is nil until Register is called.
func (e *Extension) Engine() *treasury.Treasury { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// builds the treasury engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	e.engine = treasury.New(e.store, e.buildTreasuryOpts()...)

	return vessel.Provide(fapp.Container(), func() (*treasury.Treasury, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("treasury: extension not initialized")
	}
	if err := e.engine.Start(ctx); err != nil {
		return err
	}
	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("treasury: store not initialized")
	}
	return e.store.Ping(ctx)
}

func (e *Extension) buildStore() (store.Store, error) {
	kind := e.config.Store
	if (kind == "sqlite" || kind == "postgres" || kind == "mongo") && e.groveDB == nil {
		return nil, fmt.Errorf("treasury: store %q needs WithGroveDatabase", kind)
	}

	switch kind {
	case "", "memory":
		return memory.New(), nil
	case "file":
		s, err := file.New(e.config.FilePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		return sqlite.New(e.groveDB, sqlite.WithName(e.config.DocumentName)), nil
	case "postgres":
		return postgres.New(e.groveDB, postgres.WithName(e.config.DocumentName)), nil
	case "mongo":
		return mongo.New(e.groveDB, mongo.WithName(e.config.DocumentName)), nil
	default:
		return nil, fmt.Errorf("treasury: unknown store %q", kind)
	}
}

// buildTreasuryOpts constructs treasury.Option values from the resolved config.
func (e *Extension) buildTreasuryOpts() []treasury.Option {
	opts := make([]treasury.Option, 0, len(e.treasuryOpts)+3)

	if e.config.DisableMigrate {
		opts = append(opts, treasury.WithoutMigrate())
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, treasury.WithPluginTimeout(e.config.PluginTimeout))
	}
	if e.config.DefaultLocation != "" {
		opts = append(opts, treasury.WithDefaultLocation(e.config.DefaultLocation))
	}

	// Pass-through options win.
	opts = append(opts, e.treasuryOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("treasury: configuration is required but not found in config files; " +
				"ensure 'extensions.treasury' or 'treasury' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("treasury: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("store", e.config.Store),
		forge.F("file_path", e.config.FilePath),
		forge.F("default_location", e.config.DefaultLocation),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.treasury", "treasury"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("treasury: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("treasury: failed to bind config",
			forge.F("key", key),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Store == "" {
		cfg.Store = defaults.Store
	}
	if cfg.FilePath == "" {
		cfg.FilePath = defaults.FilePath
	}
	if cfg.DefaultLocation == "" {
		cfg.DefaultLocation = defaults.DefaultLocation
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.Store == "" {
		yamlConfig.Store = programmaticConfig.Store
	}
	if yamlConfig.FilePath == "" {
		yamlConfig.FilePath = programmaticConfig.FilePath
	}
	if yamlConfig.DefaultLocation == "" {
		yamlConfig.DefaultLocation = programmaticConfig.DefaultLocation
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if yamlConfig.DocumentName == "" {
		yamlConfig.DocumentName = programmaticConfig.DocumentName
	}
	return mergeWithDefaults(yamlConfig)
}
