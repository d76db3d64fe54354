package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/subcommands"

	"github.com/xraph/treasury/api"
)

type exportCmd struct {
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the whole treasury as a JSON document" }
func (*exportCmd) Usage() string {
	return `treasury export [-o <file>]

  Writes the export document to the file, or to stdout by default.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "Output file.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, _, err := openTreasury(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer stopTreasury(t)

	doc, err := t.ExportData(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.out == "" {
		fmt.Println(doc)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(c.out, []byte(doc), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", c.out, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the whole treasury with an export document" }
func (*importCmd) Usage() string {
	return `treasury import <file>

  Replaces every collection with the content of the file. Use - for stdin.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: import takes exactly one file\n")
		return subcommands.ExitUsageError
	}
	data, err := readArg(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}

	t, _, err := openTreasury(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer stopTreasury(t)

	if err := t.ImportData(ctx, string(data)); err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type queryCmd struct {
	in string
}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "evaluate a JSONPath expression against the export document" }
func (*queryCmd) Usage() string {
	return `treasury query [-i <file>] <jsonpath>

  Evaluates the expression against the live export document, or against
  the file given with -i.

Usage Examples:
$ treasury query '$.assets[?(@.kind=="bank")].displayName'
$ treasury query -i backup.json '$.customers[*].name'
`
}

func (c *queryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "i", "", "Export file to query instead of the configured store.")
}

func (c *queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: query takes exactly one expression\n")
		return subcommands.ExitUsageError
	}

	var doc []byte
	if c.in != "" {
		data, err := readArg(c.in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", c.in, err)
			return subcommands.ExitFailure
		}
		doc = data
	} else {
		t, _, err := openTreasury(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		out, err := t.ExportData(ctx)
		stopTreasury(t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			return subcommands.ExitFailure
		}
		doc = []byte(out)
	}

	var jobj any
	if err := json.Unmarshal(doc, &jobj); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding document: %v\n", err)
		return subcommands.ExitFailure
	}
	jval, err := jsonpath.Get(f.Arg(0), jobj)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error evaluating %q: %v\n", f.Arg(0), err)
		return subcommands.ExitUsageError
	}
	out, err := json.MarshalIndent(jval, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(string(out))
	return subcommands.ExitSuccess
}

func readArg(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

type tokenCmd struct {
	subject     string
	permissions string
	ttl         time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue an API token" }
func (*tokenCmd) Usage() string {
	return `treasury token -s <subject> [-p <permissions>] [-ttl <duration>]

  Signs a token with server.jwt_secret. Permissions are comma separated
  area:action pairs, area:* or *.

Usage Examples:
$ treasury token -s teller -p cash:view,cash:edit,banks:view
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.subject, "s", "", "Token subject.")
	f.StringVar(&c.permissions, "p", "*", "Comma separated permissions.")
	f.DurationVar(&c.ttl, "ttl", 24*time.Hour, "Token lifetime.")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.subject == "" {
		fmt.Fprintf(os.Stderr, "Error: -s is required\n")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	if cfg.Server.JWTSecret == "" {
		fmt.Fprintf(os.Stderr, "Error: server.jwt_secret is not set\n")
		return subcommands.ExitUsageError
	}

	var perms []string
	for _, p := range strings.Split(c.permissions, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	tok, err := api.IssueToken([]byte(cfg.Server.JWTSecret), c.subject, perms, c.ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(tok)
	return subcommands.ExitSuccess
}
