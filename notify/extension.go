package notify

import (
	"context"
	"log/slog"

	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/plugin"
)

var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnDollarCardCompleted = (*Extension)(nil)
)

// Extension reports completed dollar-card purchases to a Sink.
type Extension struct {
	sink   Sink
	logger *slog.Logger
}

// New creates an Extension sending through sink.
func New(sink Sink, logger *slog.Logger) *Extension {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extension{sink: sink, logger: logger}
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "notify" }

// OnDollarCardCompleted implements plugin.OnDollarCardCompleted.
func (e *Extension) OnDollarCardCompleted(ctx context.Context, p *dollarcard.Purchase) error {
	if !e.sink.SendReport(ctx, CardCompleted(p)) {
		e.logger.Warn("dollar card report not delivered", "purchase_id", p.ID.String())
	}
	return nil
}
