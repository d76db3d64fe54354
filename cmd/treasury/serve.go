package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/api"
	audithook "github.com/xraph/treasury/audit_hook"
	"github.com/xraph/treasury/notify"
	"github.com/xraph/treasury/observability"
)

type serveCmd struct {
	addr    string
	metrics bool
	audit   bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the treasury HTTP API" }
func (*serveCmd) Usage() string {
	return `treasury [-config <file>] serve [-addr <addr>] [-metrics] [-audit]

  Starts the HTTP API over the configured store. Completed dollar cards are
  reported to Telegram when a bot token and chat id are configured.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Overrides server.addr.")
	f.BoolVar(&c.metrics, "metrics", true, "Expose Prometheus metrics on /metrics.")
	f.BoolVar(&c.audit, "audit", true, "Log an audit line for every committed change.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	logger := cfg.Log.Logger()

	var opts []treasury.Option
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to Telegram: %v\n", err)
			return subcommands.ExitFailure
		}
		opts = append(opts, treasury.WithPlugin(notify.New(tg, logger)))
	}
	reg := prometheus.NewRegistry()
	if c.metrics {
		opts = append(opts, treasury.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))))
	}
	if c.audit {
		opts = append(opts, treasury.WithPlugin(audithook.New(auditLog(logger), audithook.WithLogger(logger))))
	}

	t, _, err := openTreasury(ctx, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting treasury: %v\n", err)
		return subcommands.ExitFailure
	}
	defer stopTreasury(t)

	auth := api.Auth{Secret: []byte(cfg.Server.JWTSecret), Required: cfg.Server.RequireAuth}
	router := api.New(t, auth, logger).Router()
	if c.metrics {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	addr := cfg.Server.Addr
	if c.addr != "" {
		addr = c.addr
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}
	return subcommands.ExitSuccess
}

func auditLog(logger *slog.Logger) audithook.RecorderFunc {
	return func(ctx context.Context, e *audithook.AuditEvent) error {
		logger.InfoContext(ctx, "audit",
			"action", e.Action,
			"resource", e.Resource,
			"resource_id", e.ResourceID,
			"severity", e.Severity,
			"metadata", e.Metadata,
		)
		return nil
	}
}
