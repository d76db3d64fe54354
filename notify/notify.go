// Package notify delivers treasury reports to an external channel.
// Delivery is best effort: a sink reports success as a bool and never
// fails the mutation that triggered it.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/types"
)

// Report is a titled block of text lines.
type Report struct {
	Title string
	Lines []string
}

// Text renders the report as plain text.
func (r Report) Text() string {
	var b strings.Builder
	b.WriteString(r.Title)
	for _, l := range r.Lines {
		b.WriteByte('\n')
		b.WriteString(l)
	}
	return b.String()
}

// Sink sends reports. SendReport returns false when the report was not
// delivered.
type Sink interface {
	SendReport(ctx context.Context, r Report) bool
}

// SinkFunc is an adapter to use a plain function as a Sink.
type SinkFunc func(ctx context.Context, r Report) bool

// SendReport implements Sink.
func (f SinkFunc) SendReport(ctx context.Context, r Report) bool { return f(ctx, r) }

// Discard drops every report and reports success.
var Discard Sink = SinkFunc(func(context.Context, Report) bool { return true })

// CardCompleted builds the report sent when a dollar-card purchase is
// completed.
func CardCompleted(p *dollarcard.Purchase) Report {
	r := Report{Title: "Dollar card completed: " + p.CustomerName}
	if p.Phone != "" {
		r.Lines = append(r.Lines, "Phone: "+p.Phone)
	}
	r.Lines = append(r.Lines, fmt.Sprintf("Payments: %d", len(p.Payments)))
	if c := p.CompletionDetails; c != nil {
		r.Lines = append(r.Lines,
			"Paid: "+c.TotalLYDPaid.String(),
			"Received: "+c.ReceivedUSDAmount.String(),
			"Cost per dollar: "+c.FinalCostPerDollar.StringFixed(3),
			"Completed: "+c.CompletedAt.Format(time.DateTime),
		)
	}
	return r
}

// BalanceLine is one asset in a balances report.
type BalanceLine struct {
	Name    string
	Balance types.Money
}

// Balances builds a report listing asset balances.
func Balances(title string, lines []BalanceLine) Report {
	r := Report{Title: title}
	for _, l := range lines {
		r.Lines = append(r.Lines, fmt.Sprintf("%s: %s", l.Name, l.Balance.String()))
	}
	return r
}
