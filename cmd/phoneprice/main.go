// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

// Package main is the phoneprice command-line tool.
//
// phoneprice trains a tree-ensemble price model on a phone specification
// dataset and estimates fair prices for new specifications by blending the
// model prediction with the average price of similar phones.
//
// # Commands
//
//	phoneprice train [--json]
//	phoneprice estimate --brand B --processor P [--battery N] [--screen X]
//	                    [--ram GB] [--storage GB] [--rear MP] [--front MP] [--json]
//	phoneprice estimate --input phones.jsonl [--json]
//	phoneprice runs [--limit N] [--json]
//	phoneprice options [--json]
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (PHONEPRICE_*, LOG_*)
//   - Config file (config.yaml, or the path in PHONEPRICE_CONFIG)
//   - Built-in defaults
//
// Logs are written to stderr; command output goes to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/tomtom215/phoneprice/internal/config"
	"github.com/tomtom215/phoneprice/internal/logging"
	"github.com/tomtom215/phoneprice/internal/metrics"
)

// streams are the command output writers.
type streams struct {
	out io.Writer
	err io.Writer
}

// command is one subcommand.
type command struct {
	summary string
	run     func(ctx context.Context, cfg *config.Config, args []string, std streams) error
}

var commands = map[string]command{
	"train":    {"train, select and save a price model", runTrain},
	"estimate": {"estimate the price of a phone specification", runEstimate},
	"runs":     {"list recorded training runs", runRuns},
	"options":  {"list the brands and processors the model knows", runOptions},
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "phoneprice: unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "phoneprice: %v\n", err)
		return 1
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    stderr,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWithLogger(ctx, logging.With().Str("command", args[0]).Logger())

	err = cmd.run(ctx, cfg, args[1:], streams{out: stdout, err: stderr})

	if path := cfg.Metrics.TextfilePath; path != "" {
		if werr := metrics.WriteTextfile(path); werr != nil {
			logging.Ctx(ctx).Warn().Err(werr).Str("path", path).Msg("Failed to write metrics textfile")
		}
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case isUsageError(err):
		fmt.Fprintf(stderr, "phoneprice %s: %v\n", args[0], err)
		return 2
	default:
		fmt.Fprintf(stderr, "phoneprice %s: %v\n", args[0], err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: phoneprice <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'phoneprice <command> -h' for command flags.")
}

// usageError marks invalid command-line input.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("phoneprice "+name, flag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}

// parseFlags parses args and rejects positional arguments.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &usageError{err}
	}
	if fs.NArg() > 0 {
		return &usageError{fmt.Errorf("unexpected arguments: %v", fs.Args())}
	}
	return nil
}
