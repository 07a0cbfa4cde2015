// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"fmt"
	"slices"

	"github.com/tomtom215/phoneprice/internal/dataset"
)

// ScalerState is the persisted form of a Scaler. Passthrough marks the
// columns that are copied unscaled (center 0, spread 1).
type ScalerState struct {
	Names       []string  `json:"names"`
	Center      []float64 `json:"center"`
	Spread      []float64 `json:"spread"`
	Passthrough []bool    `json:"passthrough,omitempty"`
}

// Scaler applies robust scaling: each column is centered on its median and
// divided by its interquartile range. Passthrough columns keep their raw
// value. It is immutable once fitted.
type Scaler struct {
	names       []string
	center      []float64
	spread      []float64
	passthrough []bool
}

// FitScaler learns the median and IQR of every column of x except those
// named in passthrough. Percentiles use linear interpolation between order
// statistics. A scaled column with zero IQR returns a *DegenerateFeatureError.
func FitScaler(names []string, x [][]float64, passthrough ...string) (*Scaler, error) {
	if len(x) == 0 {
		return nil, dataset.ErrEmpty
	}
	d := len(names)
	s := &Scaler{
		names:       slices.Clone(names),
		center:      make([]float64, d),
		spread:      make([]float64, d),
		passthrough: make([]bool, d),
	}

	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i, row := range x {
			if len(row) != d {
				return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), d)
			}
			col[i] = row[j]
		}
		if slices.Contains(passthrough, names[j]) {
			s.passthrough[j] = true
			s.spread[j] = 1
			continue
		}
		slices.Sort(col)
		s.center[j] = dataset.QuantileSorted(col, 0.5)
		s.spread[j] = dataset.QuantileSorted(col, 0.75) - dataset.QuantileSorted(col, 0.25)
		if s.spread[j] == 0 {
			return nil, &DegenerateFeatureError{Feature: names[j], Median: s.center[j]}
		}
	}
	return s, nil
}

// RestoreScaler rebuilds a scaler from its persisted state.
func RestoreScaler(state ScalerState) (*Scaler, error) {
	d := len(state.Names)
	if len(state.Center) != d || len(state.Spread) != d {
		return nil, fmt.Errorf("scaler state has %d names, %d centers and %d spreads",
			d, len(state.Center), len(state.Spread))
	}
	passthrough := state.Passthrough
	if passthrough == nil {
		passthrough = make([]bool, d)
	}
	if len(passthrough) != d {
		return nil, fmt.Errorf("scaler state has %d names and %d passthrough flags", d, len(passthrough))
	}
	for j, v := range state.Spread {
		if passthrough[j] && (v != 1 || state.Center[j] != 0) {
			return nil, fmt.Errorf("passthrough column %q has center %g and spread %g",
				state.Names[j], state.Center[j], v)
		}
		if v == 0 {
			return nil, &DegenerateFeatureError{Feature: state.Names[j], Median: state.Center[j]}
		}
	}
	return &Scaler{
		names:       slices.Clone(state.Names),
		center:      slices.Clone(state.Center),
		spread:      slices.Clone(state.Spread),
		passthrough: slices.Clone(passthrough),
	}, nil
}

// Transform returns (row - median) / IQR for every scaled column and the raw
// value for passthrough columns.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.center) {
		return nil, fmt.Errorf("scaler expects %d columns, got %d", len(s.center), len(row))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		if s.passthrough[j] {
			out[j] = v
			continue
		}
		out[j] = (v - s.center[j]) / s.spread[j]
	}
	return out, nil
}

// TransformAll scales every row of x.
func (s *Scaler) TransformAll(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

// Names returns the column names in fit order.
func (s *Scaler) Names() []string {
	return slices.Clone(s.names)
}

// State returns the persisted form of s.
func (s *Scaler) State() ScalerState {
	return ScalerState{
		Names:       slices.Clone(s.names),
		Center:      slices.Clone(s.center),
		Spread:      slices.Clone(s.spread),
		Passthrough: slices.Clone(s.passthrough),
	}
}

// Passthrough returns the names of the columns copied unscaled.
func (s *Scaler) Passthrough() []string {
	var out []string
	for j, p := range s.passthrough {
		if p {
			out = append(out, s.names[j])
		}
	}
	return out
}
