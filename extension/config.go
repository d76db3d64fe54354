package extension

import "time"

// Config holds the treasury extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.treasury" or "treasury" keys).
type Config struct {
	// DisableMigrate prevents store migrations on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Store selects the backend built when none is provided
	// programmatically: "memory", "file", or one of "sqlite", "postgres"
	// and "mongo" over the grove.DB given with WithGroveDatabase
	// (default: "memory").
	Store string `json:"store" mapstructure:"store" yaml:"store"`

	// DocumentName keys the snapshot row in the grove stores, so several
	// treasuries can share one database (default: "default").
	DocumentName string `json:"document_name" mapstructure:"document_name" yaml:"document_name"`

	// FilePath is the document location for the file store
	// (default: "treasury.json").
	FilePath string `json:"file_path" mapstructure:"file_path" yaml:"file_path"`

	// DefaultLocation is the till location used when a selection names
	// none (default: "tripoli").
	DefaultLocation string `json:"default_location" mapstructure:"default_location" yaml:"default_location"`

	// PluginTimeout bounds each post-commit hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store:           "memory",
		FilePath:        "treasury.json",
		DefaultLocation: "tripoli",
		PluginTimeout:   5 * time.Second,
	}
}
