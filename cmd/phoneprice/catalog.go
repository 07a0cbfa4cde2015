// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tomtom215/phoneprice/internal/config"
	"github.com/tomtom215/phoneprice/internal/logging"
	"github.com/tomtom215/phoneprice/internal/storage"
	"github.com/tomtom215/phoneprice/internal/training"
)

// errRegistryDisabled is returned by runs when registry.enabled is false.
var errRegistryDisabled = errors.New("run registry is disabled (registry.enabled=false)")

func runRuns(ctx context.Context, cfg *config.Config, args []string, std streams) error {
	fs := newFlagSet("runs", std.err)
	limit := fs.Int("limit", 20, "maximum number of runs to list, 0 for all")
	id := fs.String("id", "", "print the full report of one run")
	asJSON := fs.Bool("json", false, "print reports as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !cfg.Registry.Enabled {
		return errRegistryDisabled
	}

	reg, err := storage.OpenRegistry(cfg.Registry.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Error closing run registry")
		}
	}()

	if *id != "" {
		entry, err := reg.Get(ctx, *id)
		if err != nil {
			return err
		}
		var report training.Report
		if err := entry.Decode(&report); err != nil {
			return err
		}
		if *asJSON {
			return writeJSON(std.out, &report)
		}
		printReport(std.out, &report, newCurrency(cfg.Estimate.USDRate))
		return nil
	}

	entries, err := reg.List(ctx, *limit)
	if err != nil {
		return err
	}
	reports := make([]training.Report, 0, len(entries))
	for i := range entries {
		var report training.Report
		if err := entries[i].Decode(&report); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str(logging.KeyRunID, entries[i].RunID).Msg("Skipping unreadable run report")
			continue
		}
		reports = append(reports, report)
	}

	if *asJSON {
		return writeJSON(std.out, reports)
	}
	printRuns(std.out, reports)
	return nil
}

func printRuns(w io.Writer, reports []training.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No training runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tMODEL\tSAMPLES\tTEST R²\tTARGET\tVERSION")
	for i := range reports {
		r := &reports[i]
		version := "-"
		if r.Artifact != nil {
			version = fmt.Sprintf("v%d", r.Artifact.Version)
		}
		target := "no"
		if r.TargetReached {
			target = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.4f\t%s\t%s\n",
			r.RunID, r.StartedAt.Local().Format(time.DateTime), r.Selected,
			r.Data.Samples, r.Metrics.TestR2, target, version)
	}
	_ = tw.Flush() //nolint:errcheck // best-effort console output
}

// modelOptions lists the categorical values the model accepts.
type modelOptions struct {
	Brands     []string `json:"brands"`
	Processors []string `json:"processors"`
}

func runOptions(ctx context.Context, cfg *config.Config, args []string, std streams) error {
	fs := newFlagSet("options", std.err)
	asJSON := fs.Bool("json", false, "print the options as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	b, _, err := loadBundle(ctx, cfg)
	if err != nil {
		return err
	}
	pre, err := b.Preprocessor()
	if err != nil {
		return err
	}
	opts := modelOptions{Brands: pre.Brands(), Processors: pre.Processors()}

	if *asJSON {
		return writeJSON(std.out, opts)
	}
	fmt.Fprintf(std.out, "Brands (%d):\n  %s\n", len(opts.Brands), strings.Join(opts.Brands, ", "))
	fmt.Fprintf(std.out, "Processors (%d):\n  %s\n", len(opts.Processors), strings.Join(opts.Processors, ", "))
	return nil
}
