// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package training

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/phoneprice/internal/logging"
	"github.com/tomtom215/phoneprice/internal/metrics"
	"github.com/tomtom215/phoneprice/internal/pricing"
	"github.com/tomtom215/phoneprice/internal/pricing/regression"
)

func TestNewTrainer_RejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Options)
	}{
		{"no families", func(o *Options) { o.Families = nil }},
		{"zero test size", func(o *Options) { o.TestSize = 0 }},
		{"test size one", func(o *Options) { o.TestSize = 1 }},
		{"single cv fold", func(o *Options) { o.CVFolds = 1 }},
		{"single grid fold", func(o *Options) { o.GridFolds = 1 }},
		{"no base estimators", func(o *Options) { o.BaseEstimators = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			if _, err := NewTrainer(opts); err == nil {
				t.Error("NewTrainer() error = nil, want error")
			}
		})
	}
}

func TestTrainer_Train(t *testing.T) {
	trainer, err := NewTrainer(testOptions())
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}

	ctx := logging.ContextWithRunID(context.Background(), "run-fixed")
	phones := testPhones(150)
	res, err := trainer.Train(ctx, phones)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	report := res.Report
	if report.RunID != "run-fixed" {
		t.Errorf("RunID = %q, want run-fixed", report.RunID)
	}
	if res.Bundle.RunID != report.RunID {
		t.Errorf("bundle RunID = %q, want %q", res.Bundle.RunID, report.RunID)
	}
	if err := res.Bundle.Verify(); err != nil {
		t.Errorf("bundle Verify() error = %v", err)
	}

	data := report.Data
	if data.Loaded != len(phones) {
		t.Errorf("Data.Loaded = %d, want %d", data.Loaded, len(phones))
	}
	if data.Samples != data.Loaded-data.NonFinite-data.Trimmed {
		t.Errorf("Data.Samples = %d, want loaded minus dropped rows (%+v)", data.Samples, data)
	}
	if data.Train+data.Test != data.Samples {
		t.Errorf("Train+Test = %d, want %d", data.Train+data.Test, data.Samples)
	}
	if want := int(math.Ceil(0.15 * float64(data.Samples))); data.Test != want {
		t.Errorf("Data.Test = %d, want %d", data.Test, want)
	}

	if len(report.Candidates) != 3 {
		t.Fatalf("len(Candidates) = %d, want 3", len(report.Candidates))
	}
	best := report.Candidates[0]
	for _, c := range report.Candidates {
		if c.Failed() {
			t.Errorf("candidate %s failed: %s", c.Family, c.Error)
		}
		if len(c.Folds) != 3 {
			t.Errorf("candidate %s has %d folds, want 3", c.Family, len(c.Folds))
		}
		if c.MeanR2 > best.MeanR2 {
			best = c
		}
	}
	if report.Selected != best.Family {
		t.Errorf("Selected = %q, want best candidate %q", report.Selected, best.Family)
	}
	if report.Grid.Cells != 2 || report.Grid.FellBack {
		t.Errorf("Grid = %+v, want 2 tuned cells", report.Grid)
	}
	if len(report.BestParams) == 0 {
		t.Error("BestParams is empty")
	}

	if report.Metrics.TestR2 < 0.5 {
		t.Errorf("TestR2 = %v, want >= 0.5", report.Metrics.TestR2)
	}
	if report.Metrics.TrainR2 < 0.5 || report.Metrics.TestLogR2 < 0.5 {
		t.Errorf("TrainR2 = %v, TestLogR2 = %v, want both >= 0.5", report.Metrics.TrainR2, report.Metrics.TestLogR2)
	}
	if report.Metrics.MAE <= 0 || report.Metrics.RMSE < report.Metrics.MAE {
		t.Errorf("error metrics inconsistent: %+v", report.Metrics)
	}
	if report.TargetReached != (report.Metrics.TestR2 >= report.TargetR2) {
		t.Errorf("TargetReached = %v with TestR2 %v and target %v",
			report.TargetReached, report.Metrics.TestR2, report.TargetR2)
	}

	if len(report.Importances) != len(pricing.FeatureNames()) {
		t.Fatalf("len(Importances) = %d, want %d", len(report.Importances), len(pricing.FeatureNames()))
	}
	for i := 1; i < len(report.Importances); i++ {
		if report.Importances[i].Importance > report.Importances[i-1].Importance {
			t.Fatalf("Importances not sorted descending at %d", i)
		}
	}

	if got := testutil.ToFloat64(metrics.TrainingSamples); got != float64(data.Samples) {
		t.Errorf("training samples gauge = %v, want %d", got, data.Samples)
	}
}

func TestTrainer_Deterministic(t *testing.T) {
	opts := testOptions()
	opts.Families = []regression.Family{regression.ExtraTrees}
	phones := testPhones(90)

	run := func(workers int) *Report {
		o := opts
		o.Workers = workers
		trainer, err := NewTrainer(o)
		if err != nil {
			t.Fatalf("NewTrainer() error = %v", err)
		}
		res, err := trainer.Train(context.Background(), phones)
		if err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		return res.Report
	}

	a, b := run(1), run(4)
	if a.Metrics != b.Metrics {
		t.Errorf("metrics differ across worker counts: %+v vs %+v", a.Metrics, b.Metrics)
	}
}

func TestTrainer_SkipsFailingCandidate(t *testing.T) {
	opts := testOptions()
	opts.Families = []regression.Family{regression.Family(99), regression.RandomForest}
	trainer, err := NewTrainer(opts)
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}

	res, err := trainer.Train(context.Background(), testPhones(90))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if len(res.Report.Candidates) != 2 {
		t.Fatalf("len(Candidates) = %d, want 2", len(res.Report.Candidates))
	}
	if !res.Report.Candidates[0].Failed() {
		t.Error("first candidate should be recorded as failed")
	}
	if res.Report.Selected != regression.RandomForest.String() {
		t.Errorf("Selected = %q, want %q", res.Report.Selected, regression.RandomForest)
	}
}

func TestTrainer_NoCandidate(t *testing.T) {
	opts := testOptions()
	opts.Families = []regression.Family{regression.Family(99)}
	trainer, err := NewTrainer(opts)
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}

	before := testutil.ToFloat64(metrics.TrainingRuns.WithLabelValues("error"))
	_, err = trainer.Train(context.Background(), testPhones(60))
	if !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("Train() error = %v, want ErrNoCandidate", err)
	}
	if got := testutil.ToFloat64(metrics.TrainingRuns.WithLabelValues("error")); got != before+1 {
		t.Errorf("error runs = %v, want %v", got, before+1)
	}
}

func TestTrainer_GridFallback(t *testing.T) {
	opts := testOptions()
	opts.Families = []regression.Family{regression.RandomForest}
	opts.Grids[regression.RandomForest] = regression.Grid{MinSamplesSplit: []int{0, 1}}
	trainer, err := NewTrainer(opts)
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}

	res, err := trainer.Train(context.Background(), testPhones(90))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	grid := res.Report.Grid
	if !grid.FellBack || grid.Error == "" {
		t.Errorf("Grid = %+v, want fallback with error", grid)
	}
	if got := res.Bundle.Model.Config().NEstimators; got != opts.BaseEstimators {
		t.Errorf("fitted NEstimators = %d, want base %d", got, opts.BaseEstimators)
	}
}

func TestTrainer_DegenerateFeature(t *testing.T) {
	phones := testPhones(60)
	for i := range phones {
		phones[i].BatteryMAh = 4000
	}
	trainer, err := NewTrainer(testOptions())
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}

	_, err = trainer.Train(context.Background(), phones)
	var degenerate *pricing.DegenerateFeatureError
	if !errors.As(err, &degenerate) {
		t.Fatalf("Train() error = %v, want *DegenerateFeatureError", err)
	}
	if degenerate.Feature != pricing.FeatureBattery {
		t.Errorf("Feature = %q, want %q", degenerate.Feature, pricing.FeatureBattery)
	}
}

func TestTrainer_RarePremiumBrand(t *testing.T) {
	// One premium brand in ten leaves Is_Premium with a zero IQR.
	brands := []string{"Apple", "Asus", "Honor", "Lava", "Micromax", "Motorola", "Nokia", "Oppo", "Realme", "Vivo"}
	phones := testPhonesWithBrands(200, brands)

	trainer, err := NewTrainer(testOptions())
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}
	res, err := trainer.Train(context.Background(), phones)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	pre, err := res.Bundle.Preprocessor()
	if err != nil {
		t.Fatalf("Preprocessor() error = %v", err)
	}
	st := pre.State().Scaler
	for j, name := range st.Names {
		flag := name == pricing.FeatureIsPremium
		if st.Passthrough[j] != flag {
			t.Errorf("column %q passthrough = %v, want %v", name, st.Passthrough[j], flag)
		}
	}

	apple := pricing.PhoneSpec{
		Brand: "Apple", Processor: "8", BatteryMAh: 4000, ScreenInches: 6.1,
		RAMGB: 6, StorageGB: 128, RearMP: 48, FrontMP: 16,
	}
	if _, err := pre.Transform(pricing.NewFeatureEngineer(20000).Inference(apple)); err != nil {
		t.Errorf("Transform() error = %v", err)
	}
}

func TestTrainer_Cancelled(t *testing.T) {
	trainer, err := NewTrainer(testOptions())
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := trainer.Train(ctx, testPhones(60)); !errors.Is(err, context.Canceled) {
		t.Errorf("Train() error = %v, want context.Canceled", err)
	}
}
