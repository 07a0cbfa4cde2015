// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/phoneprice/internal/cache"
	"github.com/tomtom215/phoneprice/internal/dataset"
	"github.com/tomtom215/phoneprice/internal/logging"
	"github.com/tomtom215/phoneprice/internal/metrics"
)

// Verdict compares the final price with the comparable average.
type Verdict string

// Verdicts.
const (
	VerdictAboveMarket Verdict = "above_market"
	VerdictGoodValue   Verdict = "good_value"
	VerdictInLine      Verdict = "in_line"
)

// Verdict bands relative to the comparable average.
const (
	aboveMarketFactor = 1.1
	goodValueFactor   = 0.9
)

// MarketStats places an estimate in the context of the whole dataset.
type MarketStats struct {
	// PricePerGB is the dataset mean price divided by the mean storage.
	PricePerGB float64 `json:"price_per_gb"`
	// PricePerMP is the dataset mean price divided by the mean camera total.
	PricePerMP float64 `json:"price_per_mp"`
	// DiffToAveragePct is (final - average) / average * 100.
	DiffToAveragePct float64 `json:"diff_to_average_pct"`
}

// ProfileAxis is one normalized spec dimension of the query next to the
// dataset mean on the same scale.
type ProfileAxis struct {
	Name   string  `json:"name"`
	Phone  float64 `json:"phone"`
	Market float64 `json:"market"`
}

// Estimate is the full answer for one phone.
type Estimate struct {
	Spec   PhoneSpec   `json:"spec"`
	Result BlendResult `json:"result"`

	// AverageFallback is set when no comparable phone was found and the
	// average was substituted.
	AverageFallback bool `json:"average_fallback"`

	Verdict Verdict       `json:"verdict"`
	Note    string        `json:"note"`
	Market  MarketStats   `json:"market"`
	Profile []ProfileAxis `json:"profile"`
}

// EstimatorOptions tunes an Estimator. Zero values select the defaults.
type EstimatorOptions struct {
	MinComparables   int
	ComparableWindow float64

	// CacheSize bounds the prediction cache. 0 disables caching.
	CacheSize int
}

// Estimator prices phones against a fixed reference dataset and a trained
// bundle. It is immutable after construction and safe for concurrent use.
type Estimator struct {
	ds        *dataset.Dataset
	predictor *Predictor
	index     *ComparableIndex
	blender   Blender
	logger    zerolog.Logger
}

// NewEstimator verifies the bundle and indexes the reference dataset.
func NewEstimator(ds *dataset.Dataset, b *Bundle, opts EstimatorOptions) (*Estimator, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, dataset.ErrEmpty
	}
	predictor, err := NewPredictor(b, ds.Summary().MeanPrice)
	if err != nil {
		return nil, fmt.Errorf("load model bundle: %w", err)
	}
	if opts.CacheSize > 0 {
		predictor.EnableCache(opts.CacheSize)
	}
	e := &Estimator{
		ds:        ds,
		predictor: predictor,
		index:     NewComparableIndex(ds, opts.ComparableWindow),
		blender:   NewBlender(opts.MinComparables),
		logger:    logging.WithComponent("estimator"),
	}
	e.logger.Debug().
		Str(logging.KeyRunID, b.RunID).
		Int(logging.KeySamples, ds.Len()).
		Int("min_comparables", e.blender.MinComparables).
		Msg("Estimator ready")
	return e, nil
}

// Estimate prices spec. An unknown brand or processor returns an error
// matching ErrUnknownCategory.
func (e *Estimator) Estimate(spec PhoneSpec) (*Estimate, error) {
	predicted, err := e.predictor.Predict(spec)
	if err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			metrics.RecordEstimateError("unknown_category")
		} else {
			metrics.RecordEstimateError("other")
		}
		return nil, fmt.Errorf("predict: %w", err)
	}

	summary := e.ds.Summary()
	comparables := e.index.Find(spec)
	average := comparables.Average
	fallback := comparables.Empty()
	if fallback {
		average = predicted
		if predicted <= 0 {
			average = summary.MeanPrice
		}
	}

	result := e.blender.Blend(predicted, average, comparables.Len())

	est := &Estimate{
		Spec:            spec,
		Result:          result,
		AverageFallback: fallback,
		Verdict:         verdictFor(result.FinalPrice, average),
		Note:            noteFor(result),
		Market: MarketStats{
			PricePerGB: summary.PricePerGB(),
			PricePerMP: summary.PricePerMP(),
		},
		Profile: profile(spec, summary),
	}
	if average > 0 {
		est.Market.DiffToAveragePct = (result.FinalPrice - average) / average * 100
	}

	var weight float64
	if result.ModelWeight != nil {
		weight = *result.ModelWeight
	}
	metrics.RecordEstimate(result.Outcome(), result.ComparableCount, weight)

	e.logger.Debug().
		Str("brand", spec.Brand).
		Float64("predicted", predicted).
		Float64("average", average).
		Int("comparables", result.ComparableCount).
		Str("outcome", result.Outcome()).
		Float64("final", result.FinalPrice).
		Msg("Estimated price")

	return est, nil
}

// Brands returns the brands the model can encode.
func (e *Estimator) Brands() []string {
	return e.predictor.Preprocessor().Brands()
}

// Processors returns the processors the model can encode.
func (e *Estimator) Processors() []string {
	return e.predictor.Preprocessor().Processors()
}

// CacheStats returns the prediction cache counters, or false when caching
// is disabled.
func (e *Estimator) CacheStats() (cache.Stats, bool) {
	return e.predictor.CacheStats()
}

// Summary returns the reference dataset statistics.
func (e *Estimator) Summary() dataset.Summary {
	return e.ds.Summary()
}

func verdictFor(final, average float64) Verdict {
	switch {
	case final > average*aboveMarketFactor:
		return VerdictAboveMarket
	case final < average*goodValueFactor:
		return VerdictGoodValue
	default:
		return VerdictInLine
	}
}

func noteFor(r BlendResult) string {
	switch {
	case r.ModelWeight == nil:
		return "not enough similar phones to adjust"
	case r.Clamped:
		return "capped at +10% of the similar-phone average"
	default:
		return fmt.Sprintf("adjusted dynamically, model weight %.2f", *r.ModelWeight)
	}
}

// Profile scales, one per axis.
const (
	profileBattery = 5000.0
	profileScreen  = 7.0
	profileRAMGB   = 8.0
	profileStorage = 256.0
	profileRear    = 64.0
	profileFront   = 32.0
)

func profile(spec PhoneSpec, s dataset.Summary) []ProfileAxis {
	return []ProfileAxis{
		{"battery", float64(spec.BatteryMAh) / profileBattery, s.MeanBattery / profileBattery},
		{"screen", spec.ScreenInches / profileScreen, s.MeanScreen / profileScreen},
		{"ram", float64(spec.RAMGB) / profileRAMGB, s.MeanRAMMB / MBPerGB / profileRAMGB},
		{"storage", float64(spec.StorageGB) / profileStorage, s.MeanStorage / profileStorage},
		{"rear_camera", float64(spec.RearMP) / profileRear, s.MeanRearMP / profileRear},
		{"front_camera", float64(spec.FrontMP) / profileFront, s.MeanFrontMP / profileFront},
	}
}
