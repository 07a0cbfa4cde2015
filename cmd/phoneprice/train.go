// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/tomtom215/phoneprice/internal/config"
	"github.com/tomtom215/phoneprice/internal/logging"
	"github.com/tomtom215/phoneprice/internal/training"
)

// topImportances is the number of feature importances printed.
const topImportances = 5

func runTrain(ctx context.Context, cfg *config.Config, args []string, std streams) error {
	fs := newFlagSet("train", std.err)
	asJSON := fs.Bool("json", false, "print the full training report as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	pipeline, err := training.NewPipeline(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Error closing run registry")
		}
	}()

	logging.Ctx(ctx).Info().
		Str("dataset", cfg.Dataset.Path).
		Str("artifacts", cfg.Artifacts.Dir).
		Strs("families", cfg.Training.Families).
		Msg("Starting training run")

	report, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(std.out, report)
	}
	printReport(std.out, report, newCurrency(cfg.Estimate.USDRate))
	return nil
}

func printReport(w io.Writer, r *training.Report, cur currency) {
	fmt.Fprintf(w, "Run %s\n\n", r.RunID)

	d := r.Data
	fmt.Fprintf(w, "Dataset: %d rows loaded, %d incomplete, %d non-finite, %d trimmed\n",
		d.Loaded, d.Incomplete, d.NonFinite, d.Trimmed)
	fmt.Fprintf(w, "Samples: %d (train %d, test %d), mean price %s\n\n",
		d.Samples, d.Train, d.Test, cur.format(d.MeanPrice))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CANDIDATE\tCV R²\tSTD\t")
	for _, c := range r.Candidates {
		if c.Failed() {
			fmt.Fprintf(tw, "%s\tfailed\t\t%s\n", c.Family, c.Error)
			continue
		}
		marker := ""
		if c.Family == r.Selected {
			marker = "selected"
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\n", c.Family, c.MeanR2, c.StdR2, marker)
	}
	_ = tw.Flush() //nolint:errcheck // best-effort console output
	fmt.Fprintln(w)

	if r.Grid.FellBack {
		fmt.Fprintf(w, "Grid search: fell back to untuned parameters (%s)\n", r.Grid.Error)
	} else {
		fmt.Fprintf(w, "Grid search: %d configurations, %d failed, best CV R² %.4f\n",
			r.Grid.Cells, r.Grid.Failed, r.Grid.BestScore)
	}
	fmt.Fprintf(w, "Best parameters: %s\n\n", formatParams(r.BestParams))

	m := r.Metrics
	fmt.Fprintf(w, "Test R²:      %.4f (log space %.4f)\n", m.TestR2, m.TestLogR2)
	fmt.Fprintf(w, "Train R²:     %.4f (log space)\n", m.TrainR2)
	fmt.Fprintf(w, "MAE:          %s\n", cur.format(m.MAE))
	fmt.Fprintf(w, "RMSE:         %s\n", cur.format(m.RMSE))
	fmt.Fprintf(w, "MAPE:         %.2f%%\n", m.MAPE*100)
	if r.TargetReached {
		fmt.Fprintf(w, "Target R² %.2f reached\n\n", r.TargetR2)
	} else {
		fmt.Fprintf(w, "Target R² %.2f not reached\n\n", r.TargetR2)
	}

	fmt.Fprintln(w, "Top features:")
	for i, fi := range r.Importances {
		if i == topImportances {
			break
		}
		fmt.Fprintf(w, "  %-26s %.4f\n", fi.Feature, fi.Importance)
	}

	if a := r.Artifact; a != nil {
		fmt.Fprintf(w, "\nSaved %s v%d (%d bytes)\n", a.Name, a.Version, a.SizeBytes)
	}
}

// formatParams renders params as sorted key=value pairs.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		v := params[k]
		if v == nil {
			v = "none"
		}
		parts[i] = fmt.Sprintf("%s=%v", k, v)
	}
	return strings.Join(parts, " ")
}
