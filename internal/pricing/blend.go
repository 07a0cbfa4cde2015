// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"math"

	"github.com/tomtom215/phoneprice/internal/metrics"
)

// Blending constants.
const (
	// DefaultMinComparables is the smallest comparable set that is blended.
	DefaultMinComparables = 5

	// ClampFactor caps the blended price relative to the comparable average.
	ClampFactor = 1.10

	highGap = 0.30
	midGap  = 0.15

	lowWeight  = 0.3
	midWeight  = 0.5
	highWeight = 0.8
)

// BlendResult is the outcome of blending a model prediction with the
// comparable average.
type BlendResult struct {
	FinalPrice float64 `json:"final_price"`

	// ModelWeight is nil when the comparable set was too small to blend.
	ModelWeight *float64 `json:"model_weight"`

	ComparableCount int     `json:"comparable_count"`
	Predicted       float64 `json:"predicted"`
	Average         float64 `json:"average"`

	// Gap is |Predicted - Average| / Average. Zero when unweighted.
	Gap     float64 `json:"gap"`
	Clamped bool    `json:"clamped"`
}

// Weighted reports whether the comparable average took part in the result.
func (r BlendResult) Weighted() bool {
	return r.ModelWeight != nil
}

// Outcome returns the metrics label for r.
func (r BlendResult) Outcome() string {
	switch {
	case r.ModelWeight == nil:
		return metrics.OutcomeUnweighted
	case r.Clamped:
		return metrics.OutcomeClamped
	default:
		return metrics.OutcomeBlended
	}
}

// Blender combines a model prediction with the comparable average. The
// model weight shrinks as the two disagree, and the result never exceeds
// the average by more than ClampFactor.
type Blender struct {
	MinComparables int
}

// NewBlender returns a blender requiring minComparables rows, or
// DefaultMinComparables when minComparables is not positive.
func NewBlender(minComparables int) Blender {
	if minComparables <= 0 {
		minComparables = DefaultMinComparables
	}
	return Blender{MinComparables: minComparables}
}

// Blend returns the final price for a prediction, the comparable average
// and the comparable count.
func (b Blender) Blend(predicted, average float64, count int) BlendResult {
	r := BlendResult{
		FinalPrice:      predicted,
		ComparableCount: count,
		Predicted:       predicted,
		Average:         average,
	}
	if count < b.MinComparables || average <= 0 {
		return r
	}

	r.Gap = math.Abs(predicted-average) / average
	w := gapWeight(r.Gap)
	r.ModelWeight = &w

	final := w*predicted + (1-w)*average
	if ceiling := average * ClampFactor; final > ceiling {
		final = ceiling
		r.Clamped = true
	}
	r.FinalPrice = final
	return r
}

func gapWeight(gap float64) float64 {
	switch {
	case gap > highGap:
		return lowWeight
	case gap > midGap:
		return midWeight
	default:
		return highWeight
	}
}
