// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"testing"

	"github.com/tomtom215/phoneprice/internal/metrics"
)

func TestBlendScenarios(t *testing.T) {
	b := NewBlender(0)

	tests := []struct {
		name       string
		predicted  float64
		average    float64
		count      int
		wantFinal  float64
		wantWeight float64
		wantClamp  bool
		outcome    string
	}{
		{"large gap is clamped", 18000, 12000, 8, 13200, 0.3, true, metrics.OutcomeClamped},
		{"small gap trusts the model", 12500, 12000, 8, 12400, 0.8, false, metrics.OutcomeBlended},
		{"mid gap", 14000, 12000, 6, 13000, 0.5, false, metrics.OutcomeBlended},
		{"low prediction pulls down", 6000, 12000, 5, 10200, 0.3, false, metrics.OutcomeBlended},
		{"gap exactly 0.30 stays mid", 15600, 12000, 5, 13200, 0.5, true, metrics.OutcomeClamped},
		{"gap exactly 0.15 stays high", 13800, 12000, 5, 13200, 0.8, true, metrics.OutcomeClamped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := b.Blend(tt.predicted, tt.average, tt.count)
			if !approxEqual(r.FinalPrice, tt.wantFinal, 1e-6) {
				t.Errorf("FinalPrice = %v, want %v", r.FinalPrice, tt.wantFinal)
			}
			if r.ModelWeight == nil || *r.ModelWeight != tt.wantWeight {
				t.Errorf("ModelWeight = %v, want %v", r.ModelWeight, tt.wantWeight)
			}
			if r.Clamped != tt.wantClamp {
				t.Errorf("Clamped = %v, want %v", r.Clamped, tt.wantClamp)
			}
			if r.Outcome() != tt.outcome {
				t.Errorf("Outcome() = %q, want %q", r.Outcome(), tt.outcome)
			}
			if r.FinalPrice > tt.average*ClampFactor+1e-9 {
				t.Errorf("FinalPrice %v exceeds the ceiling %v", r.FinalPrice, tt.average*ClampFactor)
			}
			if r.ComparableCount != tt.count {
				t.Errorf("ComparableCount = %d, want %d", r.ComparableCount, tt.count)
			}
		})
	}
}

func TestBlendTooFewComparables(t *testing.T) {
	b := NewBlender(DefaultMinComparables)
	for count := 0; count < DefaultMinComparables; count++ {
		r := b.Blend(18000, 12000, count)
		if r.FinalPrice != 18000 {
			t.Errorf("count %d: FinalPrice = %v, want the prediction", count, r.FinalPrice)
		}
		if r.Weighted() || r.Clamped {
			t.Errorf("count %d: result should be unweighted and unclamped: %+v", count, r)
		}
		if r.Outcome() != metrics.OutcomeUnweighted {
			t.Errorf("count %d: Outcome() = %q", count, r.Outcome())
		}
	}
}

func TestBlendCustomMinimum(t *testing.T) {
	b := NewBlender(10)
	if r := b.Blend(12500, 12000, 8); r.Weighted() {
		t.Errorf("8 comparables should not blend with a minimum of 10: %+v", r)
	}
	if r := b.Blend(12500, 12000, 10); !r.Weighted() {
		t.Errorf("10 comparables should blend with a minimum of 10: %+v", r)
	}
}

func TestGapWeightBands(t *testing.T) {
	tests := []struct {
		gap  float64
		want float64
	}{
		{0, 0.8},
		{0.15, 0.8},
		{0.1500001, 0.5},
		{0.30, 0.5},
		{0.3000001, 0.3},
		{5, 0.3},
	}
	for _, tt := range tests {
		if got := gapWeight(tt.gap); got != tt.want {
			t.Errorf("gapWeight(%v) = %v, want %v", tt.gap, got, tt.want)
		}
	}
}
