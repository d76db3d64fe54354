package extension

import (
	"testing"
	"time"
)

func TestMergeConfigurations(t *testing.T) {
	tests := []struct {
		name         string
		yaml         Config
		programmatic Config
		want         Config
	}{
		{
			name: "defaults fill empty config",
			want: DefaultConfig(),
		},
		{
			name:         "yaml wins over programmatic",
			yaml:         Config{Store: "file", FilePath: "/var/lib/treasury.json"},
			programmatic: Config{Store: "memory", DefaultLocation: "misrata"},
			want: Config{
				Store:           "file",
				FilePath:        "/var/lib/treasury.json",
				DefaultLocation: "misrata",
				PluginTimeout:   5 * time.Second,
			},
		},
		{
			name:         "programmatic disable migrate sticks",
			programmatic: Config{DisableMigrate: true, PluginTimeout: time.Second},
			want: Config{
				DisableMigrate:  true,
				Store:           "memory",
				FilePath:        "treasury.json",
				DefaultLocation: "tripoli",
				PluginTimeout:   time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeConfigurations(tt.yaml, tt.programmatic)
			if got != tt.want {
				t.Errorf("mergeConfigurations() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildStore(t *testing.T) {
	e := New(WithFileStore(t.TempDir() + "/treasury.json"))
	e.config = mergeWithDefaults(e.config)
	s, err := e.buildStore()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for _, kind := range []string{"etcd", "sqlite", "postgres", "mongo"} {
		e.config.Store = kind
		if _, err := e.buildStore(); err == nil {
			t.Errorf("buildStore(%q) without a grove database: expected error", kind)
		}
	}
}
