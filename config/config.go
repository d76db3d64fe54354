// Package config loads the CLI and server configuration from a YAML file
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xraph/treasury/asset"
)

type Config struct {
	Server   ServerConfig     `yaml:"server"`
	Store    StoreConfig      `yaml:"store"`
	Telegram TelegramConfig   `yaml:"telegram"`
	Log      LogConfig        `yaml:"log"`
	Treasury TreasuryConfig   `yaml:"treasury"`
	Tills    []asset.TillSpec `yaml:"tills"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	JWTSecret    string        `yaml:"jwt_secret"`
	RequireAuth  bool          `yaml:"require_auth"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // memory, file or mysql
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
	Name   string `yaml:"name"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Enabled reports whether reports should be sent to Telegram.
func (c TelegramConfig) Enabled() bool { return c.Token != "" && c.ChatID != 0 }

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type TreasuryConfig struct {
	DefaultLocation string        `yaml:"default_location"`
	PluginTimeout   time.Duration `yaml:"plugin_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Store: StoreConfig{Driver: "file", Path: "treasury.json"},
		Log:   LogConfig{Level: "info", Format: "text"},
		Treasury: TreasuryConfig{
			DefaultLocation: asset.DefaultLocation,
			PluginTimeout:   5 * time.Second,
		},
	}
}

// Load reads .env from the working directory when present, then the YAML
// file at path over the defaults. ${VAR} references in the file are
// expanded from the environment. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the store and server settings.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "file":
		if c.Store.Path == "" {
			return errors.New("config: store.path is required for the file driver")
		}
	case "mysql":
		if c.Store.DSN == "" {
			return errors.New("config: store.dsn is required for the mysql driver")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Server.RequireAuth && c.Server.JWTSecret == "" {
		return errors.New("config: server.jwt_secret is required when require_auth is set")
	}
	return nil
}

// Logger builds the slog logger described by the log section.
func (c LogConfig) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
