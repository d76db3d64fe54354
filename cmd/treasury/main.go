// Command treasury runs the treasury HTTP API and offers a few operator
// commands over the same store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/config"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/store/file"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/store/mysql"
)

var configPath = flag.String("config", "", "Path to the YAML configuration file")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&serveCmd{}, "server")
	commander.Register(&tokenCmd{}, "server")

	commander.Register(&balancesCmd{}, "ledger")
	commander.Register(&txCmd{}, "ledger")
	commander.Register(&depositCmd{}, "ledger")
	commander.Register(&withdrawCmd{}, "ledger")
	commander.Register(&reportCmd{}, "ledger")

	commander.Register(&exportCmd{}, "data")
	commander.Register(&importCmd{}, "data")
	commander.Register(&queryCmd{}, "data")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(int(commander.Execute(ctx)))
}

// loadConfig reads the file named by -config.
func loadConfig() (*config.Config, error) {
	return config.Load(*configPath)
}

// openStore builds the store selected by the configuration.
func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "file":
		return file.New(cfg.Path)
	case "mysql":
		var opts []mysql.Option
		if cfg.Name != "" {
			opts = append(opts, mysql.WithName(cfg.Name))
		}
		return mysql.Open(cfg.DSN, opts...)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openTreasury loads the configuration, opens its store and starts a
// treasury over it. The caller must Stop it.
func openTreasury(ctx context.Context, opts ...treasury.Option) (*treasury.Treasury, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	s, err := openStore(cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	logger := cfg.Log.Logger()
	base := []treasury.Option{
		treasury.WithLogger(logger),
		treasury.WithPluginTimeout(cfg.Treasury.PluginTimeout),
	}
	if cfg.Treasury.DefaultLocation != "" {
		base = append(base, treasury.WithDefaultLocation(cfg.Treasury.DefaultLocation))
	}
	if len(cfg.Tills) > 0 {
		base = append(base, treasury.WithTills(cfg.Tills...))
	}

	t := treasury.New(s, append(base, opts...)...)
	if err := t.Start(ctx); err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return t, cfg, nil
}

func stopTreasury(t *treasury.Treasury) {
	if err := t.Stop(); err != nil {
		slog.Warn("stop treasury", "error", err)
	}
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
