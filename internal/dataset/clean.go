// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package dataset

import (
	"fmt"
	"math"
	"slices"
)

// CleanOptions controls row filtering before training.
type CleanOptions struct {
	// TrimOutliers keeps only rows whose price lies within
	// [quantile(Lower), quantile(Upper)], both bounds inclusive.
	TrimOutliers bool
	Lower        float64
	Upper        float64
}

// CleanStats reports how many rows each cleaning step removed.
type CleanStats struct {
	Input     int     `json:"input"`
	NonFinite int     `json:"non_finite"`
	Trimmed   int     `json:"trimmed"`
	Output    int     `json:"output"`
	PriceLow  float64 `json:"price_low,omitempty"`
	PriceHigh float64 `json:"price_high,omitempty"`
}

// Clean drops rows with NaN or infinite values and, when requested, trims
// price outliers. The input slice is not modified.
func Clean(phones []Phone, opts CleanOptions) ([]Phone, CleanStats, error) {
	stats := CleanStats{Input: len(phones)}

	finite := make([]Phone, 0, len(phones))
	for i := range phones {
		if phones[i].Finite() {
			finite = append(finite, phones[i])
		}
	}
	stats.NonFinite = len(phones) - len(finite)
	if len(finite) == 0 {
		return nil, stats, ErrEmpty
	}

	out := finite
	if opts.TrimOutliers {
		if opts.Lower < 0 || opts.Upper > 1 || opts.Lower > opts.Upper {
			return nil, stats, fmt.Errorf("invalid trim quantiles [%v, %v]", opts.Lower, opts.Upper)
		}
		prices := make([]float64, len(finite))
		for i := range finite {
			prices[i] = finite[i].Price
		}
		slices.Sort(prices)
		lo := QuantileSorted(prices, opts.Lower)
		hi := QuantileSorted(prices, opts.Upper)
		stats.PriceLow, stats.PriceHigh = lo, hi

		out = make([]Phone, 0, len(finite))
		for i := range finite {
			if p := finite[i].Price; p >= lo && p <= hi {
				out = append(out, finite[i])
			}
		}
		stats.Trimmed = len(finite) - len(out)
	}

	stats.Output = len(out)
	if len(out) == 0 {
		return nil, stats, ErrEmpty
	}
	return out, stats, nil
}

// QuantileSorted returns the q-th quantile of an ascending slice using
// linear interpolation between closest ranks (Hyndman-Fan type 7).
// Returns NaN for an empty slice.
func QuantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	h := q * float64(n-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Quantile sorts a copy of values and returns its q-th type 7 quantile.
func Quantile(values []float64, q float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return QuantileSorted(sorted, q)
}
