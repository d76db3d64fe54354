package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/notify"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

type balancesCmd struct {
	currency string
	kind     string
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "display the balance of every till and bank" }
func (*balancesCmd) Usage() string {
	return `treasury balances [-c <currency>] [-k cash_till|bank]

  Displays every asset with its current balance.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Only list assets in this currency.")
	f.StringVar(&c.kind, "k", "", "Only list assets of this kind.")
}

func (c *balancesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, _, err := openTreasury(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer stopTreasury(t)

	assets, err := t.Assets(ctx, asset.ListOpts{Kind: asset.Kind(c.kind), Currency: strings.ToUpper(c.currency)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing assets: %v\n", err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	b.WriteString("# Balances\n\n| Asset | Kind | Location | Balance |\n|---|---|---|---:|\n")
	for _, a := range assets {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", a.Name, a.Kind, a.Location, a.Balance)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type txCmd struct {
	assetID string
	from    string
	to      string
	deleted bool
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list ledger rows" }
func (*txCmd) Usage() string {
	return `treasury tx [-a <asset id>] [-from <date>] [-to <date>] [-deleted]

  Lists transaction rows, newest first. Dates are YYYY-MM-DD; -to is exclusive.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.assetID, "a", "", "Only list rows of this asset.")
	f.StringVar(&c.from, "from", "", "First day to include.")
	f.StringVar(&c.to, "to", "", "Day after the last one to include.")
	f.BoolVar(&c.deleted, "deleted", false, "Include reversed rows.")
}

func (c *txCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter := transaction.Filter{IncludeDeleted: c.deleted}
	var err error
	if c.assetID != "" {
		if filter.AssetID, err = id.ParseAssetID(c.assetID); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing asset id: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if filter.From, err = parseDay(c.from); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -from: %v\n", err)
		return subcommands.ExitUsageError
	}
	if filter.To, err = parseDay(c.to); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -to: %v\n", err)
		return subcommands.ExitUsageError
	}

	t, _, err := openTreasury(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer stopTreasury(t)

	rows, err := t.Transactions(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing transactions: %v\n", err)
		return subcommands.ExitFailure
	}
	names := map[id.AssetID]string{}
	if assets, err := t.Assets(ctx, asset.ListOpts{}); err == nil {
		for _, a := range assets {
			names[a.ID] = a.Name
		}
	}

	var b strings.Builder
	b.WriteString("| Date | Asset | Type | Amount | Description |\n|---|---|---|---:|---|\n")
	for _, tx := range rows {
		amount := tx.Amount.String()
		if tx.IsDeleted {
			amount = "~~" + amount + "~~"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			tx.Date.Format(time.DateOnly), names[tx.AssetID], tx.Type, amount, tx.Description)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

// movementFlags are shared by deposit and withdraw.
type movementFlags struct {
	assetID     string
	location    string
	currency    string
	amount      string
	description string
	party       string
}

func (m *movementFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&m.assetID, "a", "", "Asset id. Defaults to the till of the currency.")
	f.StringVar(&m.location, "l", "", "Till location when no asset id is given.")
	f.StringVar(&m.currency, "c", types.CurrencyLYD, "Currency of the amount.")
	f.StringVar(&m.amount, "m", "", "Amount in major units, e.g. 150.250.")
	f.StringVar(&m.description, "d", "", "Description.")
	f.StringVar(&m.party, "p", "", "Related party.")
}

func (m *movementFlags) input() (treasury.MovementInput, error) {
	in := treasury.MovementInput{Description: m.description, Party: m.party}
	amount, err := types.ParseMajor(m.amount, strings.ToUpper(m.currency))
	if err != nil {
		return in, err
	}
	in.Amount = amount
	in.Asset.Location = m.location
	if m.assetID != "" {
		if in.Asset.AssetID, err = id.ParseAssetID(m.assetID); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (m *movementFlags) run(ctx context.Context, move func(*treasury.Treasury, context.Context, treasury.MovementInput) (*treasury.Receipt, error)) subcommands.ExitStatus {
	in, err := m.input()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	t, _, err := openTreasury(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer stopTreasury(t)

	r, err := move(t, ctx, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, tx := range r.Transactions {
		fmt.Printf("%s %s %s\n", tx.ID, tx.Type, tx.Amount)
	}
	return subcommands.ExitSuccess
}

type depositCmd struct{ movementFlags }

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "credit money into a till or bank" }
func (*depositCmd) Usage() string {
	return `treasury deposit -m <amount> [-c <currency>] [-a <asset id> | -l <location>] [-d <description>]
`
}

func (c *depositCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, (*treasury.Treasury).Deposit)
}

type withdrawCmd struct{ movementFlags }

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "debit money from a till or bank" }
func (*withdrawCmd) Usage() string {
	return `treasury withdraw -m <amount> [-c <currency>] [-a <asset id> | -l <location>] [-d <description>]
`
}

func (c *withdrawCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, (*treasury.Treasury).Withdraw)
}

type reportCmd struct {
	day  string
	send bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display the daily inflow and outflow per asset" }
func (*reportCmd) Usage() string {
	return `treasury report [-d <date>] [-send]

  Summarizes one calendar day. With -send the closing balances are also
  posted to the configured Telegram chat.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.day, "d", "", "Day to report on. Defaults to today.")
	f.BoolVar(&c.send, "send", false, "Send the balances to Telegram.")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, err := parseDay(c.day)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	if day.IsZero() {
		day = time.Now()
	}

	t, cfg, err := openTreasury(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer stopTreasury(t)

	sums, err := t.Summary(ctx, day)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building summary: %v\n", err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Report for %s\n\n| Asset | In | Out | Net | Balance | Rows |\n|---|---:|---:|---:|---:|---:|\n", day.Format(time.DateOnly))
	lines := make([]notify.BalanceLine, 0, len(sums))
	for _, s := range sums {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d |\n", s.Name, s.In, s.Out, s.Net, s.Balance, s.Count)
		lines = append(lines, notify.BalanceLine{Name: s.Name, Balance: s.Balance})
	}
	printMarkdown(b.String())

	if !c.send {
		return subcommands.ExitSuccess
	}
	if !cfg.Telegram.Enabled() {
		fmt.Fprintf(os.Stderr, "Error: telegram is not configured\n")
		return subcommands.ExitUsageError
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Log.Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to Telegram: %v\n", err)
		return subcommands.ExitFailure
	}
	if !tg.SendReport(ctx, notify.Balances("Balances on "+day.Format(time.DateOnly), lines)) {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// parseDay accepts YYYY-MM-DD. An empty string is the zero time.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}
