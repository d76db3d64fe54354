package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/treasury/config"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TREASURY_BOT_TOKEN", "123:abc")

	path := filepath.Join(dir, "treasury.yaml")
	err := os.WriteFile(path, []byte(`
server:
  addr: ":9090"
store:
  driver: file
  path: data/treasury.json
telegram:
  token: ${TREASURY_BOT_TOKEN}
  chat_id: 42
treasury:
  plugin_timeout: 2s
tills:
  - currency: LYD
    location: benghazi
`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("default ReadTimeout lost: %v", cfg.Server.ReadTimeout)
	}
	if cfg.Telegram.Token != "123:abc" || !cfg.Telegram.Enabled() {
		t.Errorf("Telegram = %+v, want expanded token", cfg.Telegram)
	}
	if cfg.Treasury.PluginTimeout != 2*time.Second {
		t.Errorf("PluginTimeout = %v", cfg.Treasury.PluginTimeout)
	}
	if len(cfg.Tills) != 1 || cfg.Tills[0].Location != "benghazi" {
		t.Errorf("Tills = %+v", cfg.Tills)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"defaults", func(*config.Config) {}, false},
		{"memory", func(c *config.Config) { c.Store.Driver = "memory" }, false},
		{"mysql without dsn", func(c *config.Config) { c.Store.Driver = "mysql" }, true},
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "redis" }, true},
		{"auth without secret", func(c *config.Config) { c.Server.RequireAuth = true }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
