// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/tomtom215/phoneprice/internal/config"
	"github.com/tomtom215/phoneprice/internal/database"
	"github.com/tomtom215/phoneprice/internal/dataset"
	"github.com/tomtom215/phoneprice/internal/logging"
	"github.com/tomtom215/phoneprice/internal/pricing"
	"github.com/tomtom215/phoneprice/internal/storage"
	"github.com/tomtom215/phoneprice/internal/validation"
)

// estimateRequest holds the estimate flags. The ranges mirror the input
// widgets of the interactive app.
type estimateRequest struct {
	Brand     string  `flag:"brand" validate:"required"`
	Processor string  `flag:"processor" validate:"required"`
	Battery   int     `flag:"battery" validate:"min=1000,max=10000"`
	Screen    float64 `flag:"screen" validate:"min=4,max=8"`
	RAM       int     `flag:"ram" validate:"min=1,max=16"`
	Storage   int     `flag:"storage" validate:"min=16,max=1024"`
	Rear      int     `flag:"rear" validate:"min=5,max=200"`
	Front     int     `flag:"front" validate:"min=2,max=50"`
}

func (r *estimateRequest) spec() pricing.PhoneSpec {
	return pricing.PhoneSpec{
		Brand:        r.Brand,
		Processor:    r.Processor,
		BatteryMAh:   r.Battery,
		ScreenInches: r.Screen,
		RAMGB:        r.RAM,
		StorageGB:    r.Storage,
		RearMP:       r.Rear,
		FrontMP:      r.Front,
	}
}

func requestFromSpec(spec pricing.PhoneSpec) *estimateRequest {
	return &estimateRequest{
		Brand:     spec.Brand,
		Processor: spec.Processor,
		Battery:   spec.BatteryMAh,
		Screen:    spec.ScreenInches,
		RAM:       spec.RAMGB,
		Storage:   spec.StorageGB,
		Rear:      spec.RearMP,
		Front:     spec.FrontMP,
	}
}

// estimateFlags are the presentation flags of the estimate command.
type estimateFlags struct {
	json  bool
	input string
}

// parseEstimateFlags parses and validates the estimate flags. With --input
// the single-phone flags are ignored and each input line is validated
// separately.
func parseEstimateFlags(args []string, w io.Writer) (*estimateRequest, estimateFlags, error) {
	req := &estimateRequest{}
	fs := newFlagSet("estimate", w)
	fs.StringVar(&req.Brand, "brand", "", "phone brand (see 'phoneprice options')")
	fs.StringVar(&req.Processor, "processor", "", "processor core count (see 'phoneprice options')")
	fs.IntVar(&req.Battery, "battery", 4000, "battery capacity in mAh")
	fs.Float64Var(&req.Screen, "screen", 6.5, "screen size in inches")
	fs.IntVar(&req.RAM, "ram", 8, "RAM in GB")
	fs.IntVar(&req.Storage, "storage", 128, "internal storage in GB")
	fs.IntVar(&req.Rear, "rear", 48, "rear camera in MP")
	fs.IntVar(&req.Front, "front", 16, "front camera in MP")
	var flags estimateFlags
	fs.BoolVar(&flags.json, "json", false, "print the estimate as JSON")
	fs.StringVar(&flags.input, "input", "", "estimate every phone in a JSON lines file instead")
	if err := parseFlags(fs, args); err != nil {
		return nil, flags, err
	}
	if flags.input != "" {
		return nil, flags, nil
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, flags, &usageError{verr}
	}
	return req, flags, nil
}

// estimateOutput is the JSON form of an estimate with display amounts.
type estimateOutput struct {
	*pricing.Estimate
	USD          usdAmounts `json:"usd"`
	USDRate      float64    `json:"usd_rate"`
	ModelRun     string     `json:"model_run_id"`
	ModelVersion int        `json:"model_version"`
}

type usdAmounts struct {
	Final     float64 `json:"final"`
	Predicted float64 `json:"predicted"`
	Average   float64 `json:"average"`
}

func runEstimate(ctx context.Context, cfg *config.Config, args []string, std streams) error {
	req, flags, err := parseEstimateFlags(args, std.err)
	if err != nil {
		return err
	}

	est, meta, err := loadEstimator(ctx, cfg)
	if err != nil {
		return err
	}
	cur := newCurrency(cfg.Estimate.USDRate)
	if flags.input != "" {
		return runBatch(ctx, est, meta, flags, cur, std.out)
	}

	result, err := est.Estimate(req.spec())
	if err != nil {
		return err
	}
	if flags.json {
		return writeJSON(std.out, newEstimateOutput(result, meta, cur))
	}
	printEstimate(std.out, result, cur)
	return nil
}

func newEstimateOutput(e *pricing.Estimate, meta *storage.BundleMetadata, cur currency) estimateOutput {
	return estimateOutput{
		Estimate: e,
		USD: usdAmounts{
			Final:     cur.usd(e.Result.FinalPrice),
			Predicted: cur.usd(e.Result.Predicted),
			Average:   cur.usd(e.Result.Average),
		},
		USDRate:      cur.rate,
		ModelRun:     meta.RunID,
		ModelVersion: meta.Version,
	}
}

var verdictText = map[pricing.Verdict]string{
	pricing.VerdictAboveMarket: "above market",
	pricing.VerdictGoodValue:   "good value",
	pricing.VerdictInLine:      "in line with the market",
}

func printEstimate(w io.Writer, e *pricing.Estimate, cur currency) {
	r := e.Result
	fmt.Fprintf(w, "Estimated price:  %s (%s)\n", cur.format(r.FinalPrice), cur.formatINR(r.FinalPrice))
	fmt.Fprintf(w, "Model prediction: %s\n", cur.format(r.Predicted))
	if e.AverageFallback {
		fmt.Fprintln(w, "Similar phones:   none found")
	} else {
		fmt.Fprintf(w, "Similar phones:   %d, average %s\n", r.ComparableCount, cur.format(r.Average))
	}
	if r.ModelWeight != nil {
		fmt.Fprintf(w, "Model weight:     %.2f\n", *r.ModelWeight)
	}
	fmt.Fprintf(w, "Verdict:          %s (%+.1f%% vs similar phones)\n", verdictText[e.Verdict], e.Market.DiffToAveragePct)
	fmt.Fprintf(w, "Note:             %s\n", e.Note)
	fmt.Fprintf(w, "Market:           %s per GB, %s per MP\n", cur.format(e.Market.PricePerGB), cur.format(e.Market.PricePerMP))

	fmt.Fprintln(w, "\nProfile (phone / market):")
	for _, a := range e.Profile {
		fmt.Fprintf(w, "  %-13s %.2f / %.2f\n", a.Name, a.Phone, a.Market)
	}
}

// loadReference reads the dataset comparables are drawn from: every complete
// and finite row, without outlier trimming.
func loadReference(ctx context.Context, path string) (*dataset.Dataset, error) {
	loaded, err := database.LoadPhones(ctx, path)
	if err != nil {
		return nil, err
	}
	phones, stats, err := dataset.Clean(loaded.Phones, dataset.CleanOptions{})
	if err != nil {
		return nil, fmt.Errorf("reference dataset: %w", err)
	}
	logging.Ctx(ctx).Debug().
		Int(logging.KeySamples, stats.Output).
		Int("incomplete", loaded.Incomplete).
		Int("non_finite", stats.NonFinite).
		Msg("Reference dataset loaded")
	return dataset.New(phones)
}

// loadBundle reads the latest saved bundle.
func loadBundle(ctx context.Context, cfg *config.Config) (*pricing.Bundle, *storage.BundleMetadata, error) {
	store, err := storage.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return nil, nil, err
	}
	b, meta, err := store.Load(ctx, cfg.Artifacts.Name, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (run 'phoneprice train' first)", err)
	}
	return b, meta, nil
}

func loadEstimator(ctx context.Context, cfg *config.Config) (*pricing.Estimator, *storage.BundleMetadata, error) {
	b, meta, err := loadBundle(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	ds, err := loadReference(ctx, cfg.Dataset.Path)
	if err != nil {
		return nil, nil, err
	}
	est, err := pricing.NewEstimator(ds, b, pricing.EstimatorOptions{
		MinComparables:   cfg.Estimate.MinComparables,
		ComparableWindow: cfg.Estimate.ComparableWindow,
		CacheSize:        cfg.Estimate.CacheSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return est, meta, nil
}
