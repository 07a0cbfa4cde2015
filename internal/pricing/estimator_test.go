// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/phoneprice/internal/dataset"
	"github.com/tomtom215/phoneprice/internal/metrics"
	"github.com/tomtom215/phoneprice/internal/pricing/regression"
)

func TestBundleVerify(t *testing.T) {
	b := trainBundle(t, syntheticPhones(60))

	if err := b.Verify(); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(b.Fingerprint) != 64 {
		t.Errorf("Fingerprint = %q, want 64 hex chars", b.Fingerprint)
	}

	// Same hyperparameters and width, fitted on different rows.
	other := trainBundle(t, syntheticPhones(80))

	tests := []struct {
		name   string
		mutate func(b *Bundle)
	}{
		{"schema version", func(b *Bundle) { b.SchemaVersion = 99 }},
		{"model from another run", func(b *Bundle) { b.Model = other.Model }},
		{"tree leaf value", func(b *Bundle) { b.Model.(*regression.Forest).Trees[0].Value[0] += 1 }},
		{"fingerprint", func(b *Bundle) { b.Fingerprint = "deadbeef" }},
		{"codec classes", func(b *Bundle) { b.Preprocessing.Brand.Classes = b.Preprocessing.Brand.Classes[1:] }},
		{"scaler state", func(b *Bundle) { b.Preprocessing.Scaler.Center[2] += 1 }},
		{"missing model", func(b *Bundle) { b.Model = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := trainBundle(t, syntheticPhones(60))
			tt.mutate(c)
			if err := c.Verify(); !errors.Is(err, ErrBundleMismatch) {
				t.Errorf("Verify() error = %v, want ErrBundleMismatch", err)
			}
		})
	}
}

func TestPredictor(t *testing.T) {
	phones := syntheticPhones(60)
	b := trainBundle(t, phones)
	ds, _ := dataset.New(phones)

	p, err := NewPredictor(b, ds.Summary().MeanPrice)
	if err != nil {
		t.Fatalf("NewPredictor() error = %v", err)
	}

	price, err := p.Predict(PhoneSpec{
		Brand: "Samsung", Processor: "8", BatteryMAh: 4000, ScreenInches: 6.2,
		RAMGB: 8, StorageGB: 256, RearMP: 64, FrontMP: 32,
	})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if price < ds.Summary().MinPrice*0.5 || price > ds.Summary().MaxPrice*1.5 {
		t.Errorf("Predict() = %v, outside the training price range [%v, %v]",
			price, ds.Summary().MinPrice, ds.Summary().MaxPrice)
	}

	_, err = p.Predict(PhoneSpec{Brand: "Samsung", Processor: "12", StorageGB: 64, RAMGB: 4})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Predict(unknown processor) error = %v, want ErrUnknownCategory", err)
	}
}

// constantModel always predicts a fixed log price.
type constantModel struct {
	value    float64
	features int
}

func (m constantModel) Predict([]float64) float64 { return m.value }
func (m constantModel) FeatureImportances() []float64 {
	return make([]float64, m.features)
}
func (m constantModel) Config() regression.Params { return regression.Params{} }
func (m constantModel) NumFeatures() int          { return m.features }

func TestPredictorClampsNonFinite(t *testing.T) {
	b := trainBundle(t, syntheticPhones(60))

	for _, v := range []float64{math.NaN(), math.Inf(1), -5} {
		p, err := NewPredictor(b, 20000)
		if err != nil {
			t.Fatalf("NewPredictor() error = %v", err)
		}
		p.model = constantModel{value: v, features: numFeatures}

		before := testutil.ToFloat64(metrics.NonFinitePredictions)
		price, err := p.Predict(PhoneSpec{Brand: "Apple", Processor: "6", StorageGB: 64, RAMGB: 4})
		if err != nil {
			t.Fatalf("Predict() error = %v", err)
		}
		if price != 0 {
			t.Errorf("log price %v: Predict() = %v, want 0", v, price)
		}
		if got := testutil.ToFloat64(metrics.NonFinitePredictions); got != before+1 {
			t.Errorf("log price %v: NonFinitePredictions = %v, want %v", v, got, before+1)
		}
	}
}

func TestEstimator(t *testing.T) {
	phones := syntheticPhones(120)
	ds, err := dataset.New(phones)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	e, err := NewEstimator(ds, trainBundle(t, phones), EstimatorOptions{})
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}

	spec := PhoneSpec{
		Brand: "Xiaomi", Processor: "6", BatteryMAh: 4500, ScreenInches: 6.4,
		RAMGB: 4, StorageGB: 128, RearMP: 48, FrontMP: 16,
	}
	est, err := e.Estimate(spec)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	r := est.Result
	if r.ComparableCount < DefaultMinComparables {
		t.Fatalf("ComparableCount = %d, want at least %d", r.ComparableCount, DefaultMinComparables)
	}
	if !r.Weighted() {
		t.Error("estimate with enough comparables should be weighted")
	}
	if r.FinalPrice > r.Average*ClampFactor+1e-6 {
		t.Errorf("FinalPrice %v exceeds %v", r.FinalPrice, r.Average*ClampFactor)
	}
	if est.AverageFallback {
		t.Error("AverageFallback should be false")
	}

	sum := ds.Summary()
	if est.Market.PricePerGB != sum.MeanPrice/sum.MeanStorage {
		t.Errorf("PricePerGB = %v", est.Market.PricePerGB)
	}
	wantDiff := (r.FinalPrice - r.Average) / r.Average * 100
	if !approxEqual(est.Market.DiffToAveragePct, wantDiff, 1e-9) {
		t.Errorf("DiffToAveragePct = %v, want %v", est.Market.DiffToAveragePct, wantDiff)
	}
	if len(est.Profile) != 6 || est.Profile[2].Phone != 0.5 || est.Profile[3].Phone != 0.5 {
		t.Errorf("Profile = %+v", est.Profile)
	}
	if est.Note == "" || est.Verdict == "" {
		t.Errorf("Note/Verdict empty: %q/%q", est.Note, est.Verdict)
	}
}

func TestEstimatorFallbackAverage(t *testing.T) {
	phones := syntheticPhones(60)
	ds, _ := dataset.New(phones)
	e, err := NewEstimator(ds, trainBundle(t, phones), EstimatorOptions{})
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}

	est, err := e.Estimate(PhoneSpec{
		Brand: "Apple", Processor: "8", BatteryMAh: 4000, ScreenInches: 6,
		RAMGB: 16, StorageGB: 1024, RearMP: 48, FrontMP: 12,
	})
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	r := est.Result
	if !est.AverageFallback || r.ComparableCount != 0 {
		t.Fatalf("expected an empty comparable set, got %d", r.ComparableCount)
	}
	if r.Weighted() || r.FinalPrice != r.Predicted || r.Average != r.Predicted {
		t.Errorf("fallback result = %+v", r)
	}
	if est.Verdict != VerdictInLine || est.Note != "not enough similar phones to adjust" {
		t.Errorf("Verdict/Note = %q/%q", est.Verdict, est.Note)
	}
}

func TestEstimatorUnknownCategory(t *testing.T) {
	phones := syntheticPhones(60)
	ds, _ := dataset.New(phones)
	e, err := NewEstimator(ds, trainBundle(t, phones), EstimatorOptions{})
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}

	before := testutil.ToFloat64(metrics.EstimateErrors.WithLabelValues("unknown_category"))
	_, err = e.Estimate(PhoneSpec{Brand: "Nokia", Processor: "8", StorageGB: 64, RAMGB: 4})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("Estimate() error = %v, want ErrUnknownCategory", err)
	}
	if got := testutil.ToFloat64(metrics.EstimateErrors.WithLabelValues("unknown_category")); got != before+1 {
		t.Errorf("EstimateErrors{unknown_category} = %v, want %v", got, before+1)
	}
}

func TestEstimatorPredictionCache(t *testing.T) {
	phones := syntheticPhones(60)
	ds, _ := dataset.New(phones)
	e, err := NewEstimator(ds, trainBundle(t, phones), EstimatorOptions{CacheSize: 8})
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}

	spec := PhoneSpec{
		Brand: "Samsung", Processor: "8", BatteryMAh: 4000, ScreenInches: 6.4,
		RAMGB: 4, StorageGB: 64, RearMP: 48, FrontMP: 16,
	}
	hitsBefore := testutil.ToFloat64(metrics.PredictionCacheLookups.WithLabelValues("hit"))

	first, err := e.Estimate(spec)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	padded := spec
	padded.Brand = "  Samsung "
	second, err := e.Estimate(padded)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if first.Result.Predicted != second.Result.Predicted {
		t.Errorf("cached prediction %v differs from %v", second.Result.Predicted, first.Result.Predicted)
	}

	stats, ok := e.CacheStats()
	if !ok {
		t.Fatal("CacheStats() reports caching disabled")
	}
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("CacheStats() = %+v, want 1 hit, 1 miss, size 1", stats)
	}
	if got := testutil.ToFloat64(metrics.PredictionCacheLookups.WithLabelValues("hit")); got != hitsBefore+1 {
		t.Errorf("cache hit counter = %v, want %v", got, hitsBefore+1)
	}

	if _, err := e.Estimate(PhoneSpec{Brand: "Nokia", Processor: "8", StorageGB: 64, RAMGB: 4}); err == nil {
		t.Fatal("Estimate() with unknown brand succeeded")
	}
	if stats, _ := e.CacheStats(); stats.Size != 1 {
		t.Errorf("failed prediction was cached, size = %d", stats.Size)
	}
}

func TestEstimatorCacheDisabled(t *testing.T) {
	phones := syntheticPhones(60)
	ds, _ := dataset.New(phones)
	e, err := NewEstimator(ds, trainBundle(t, phones), EstimatorOptions{})
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}
	if _, ok := e.CacheStats(); ok {
		t.Error("CacheStats() reports caching enabled for CacheSize 0")
	}
}

func TestEstimatorConcurrent(t *testing.T) {
	phones := syntheticPhones(60)
	ds, _ := dataset.New(phones)
	e, err := NewEstimator(ds, trainBundle(t, phones), EstimatorOptions{CacheSize: 4})
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}
	spec := PhoneSpec{
		Brand: "Realme", Processor: "4", BatteryMAh: 5000, ScreenInches: 6.5,
		RAMGB: 6, StorageGB: 128, RearMP: 48, FrontMP: 8,
	}
	want, err := e.Estimate(spec)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Estimate(spec)
			if err != nil {
				t.Errorf("Estimate() error = %v", err)
				return
			}
			if got.Result.FinalPrice != want.Result.FinalPrice {
				t.Errorf("FinalPrice = %v, want %v", got.Result.FinalPrice, want.Result.FinalPrice)
			}
		}()
	}
	wg.Wait()
}

func TestVerdictFor(t *testing.T) {
	tests := []struct {
		final float64
		want  Verdict
	}{
		{11100, VerdictAboveMarket},
		{11000, VerdictInLine},
		{9000, VerdictInLine},
		{8999, VerdictGoodValue},
	}
	for _, tt := range tests {
		if got := verdictFor(tt.final, 10000); got != tt.want {
			t.Errorf("verdictFor(%v, 10000) = %q, want %q", tt.final, got, tt.want)
		}
	}
}

func TestNewEstimatorRejectsEmptyDataset(t *testing.T) {
	if _, err := NewEstimator(nil, nil, EstimatorOptions{}); !errors.Is(err, dataset.ErrEmpty) {
		t.Errorf("NewEstimator(nil) error = %v, want dataset.ErrEmpty", err)
	}
}
