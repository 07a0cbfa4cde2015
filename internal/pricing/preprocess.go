// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"fmt"
	"slices"
)

// PreprocessorState is the persisted form of a Preprocessor.
type PreprocessorState struct {
	FeatureNames []string    `json:"feature_names"`
	Brand        CodecState  `json:"brand"`
	Processor    CodecState  `json:"processor"`
	Scaler       ScalerState `json:"scaler"`
}

// flagFeatures are 0/1 indicator columns. They are passed to the model
// unscaled, since a rare flag has zero interquartile range.
var flagFeatures = []string{FeatureIsPremium}

// Preprocessor turns derived feature rows into scaled model input. It
// encodes the categorical fields, reorders columns to the fitted feature
// order and applies robust scaling to the measurement columns.
type Preprocessor struct {
	names     []string
	order     []int
	brand     *Codec
	processor *Codec
	scaler    *Scaler
}

// FitPreprocessor fits both codecs and the scaler on rows and returns the
// scaled matrix in canonical feature order.
func FitPreprocessor(rows []FeatureRow) (*Preprocessor, [][]float64, error) {
	brands := make([]string, len(rows))
	processors := make([]string, len(rows))
	for i := range rows {
		brands[i] = rows[i].Brand
		processors[i] = rows[i].Processor
	}

	names := FeatureNames()
	p := &Preprocessor{
		names:     names,
		order:     identityOrder(len(names)),
		brand:     FitCodec(FeatureBrand, brands),
		processor: FitCodec(FeatureProcessor, processors),
	}

	encoded := make([][]float64, len(rows))
	for i := range rows {
		v, err := p.encode(rows[i])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
		encoded[i] = v
	}

	scaler, err := FitScaler(names, encoded, flagFeatures...)
	if err != nil {
		return nil, nil, err
	}
	p.scaler = scaler

	scaled, err := scaler.TransformAll(encoded)
	if err != nil {
		return nil, nil, err
	}
	return p, scaled, nil
}

// RestorePreprocessor rebuilds a preprocessor from its persisted state. The
// feature names must be a permutation of FeatureNames.
func RestorePreprocessor(state PreprocessorState) (*Preprocessor, error) {
	order, err := featureOrder(state.FeatureNames)
	if err != nil {
		return nil, err
	}
	if !slices.Equal(state.FeatureNames, state.Scaler.Names) {
		return nil, fmt.Errorf("%w: scaler columns differ from feature order", ErrBundleMismatch)
	}
	brand, err := RestoreCodec(state.Brand)
	if err != nil {
		return nil, err
	}
	processor, err := RestoreCodec(state.Processor)
	if err != nil {
		return nil, err
	}
	scaler, err := RestoreScaler(state.Scaler)
	if err != nil {
		return nil, err
	}
	return &Preprocessor{
		names:     slices.Clone(state.FeatureNames),
		order:     order,
		brand:     brand,
		processor: processor,
		scaler:    scaler,
	}, nil
}

// Transform encodes, reorders and scales one row.
func (p *Preprocessor) Transform(row FeatureRow) ([]float64, error) {
	encoded, err := p.encode(row)
	if err != nil {
		return nil, err
	}
	ordered := make([]float64, len(p.order))
	for i, j := range p.order {
		ordered[i] = encoded[j]
	}
	return p.scaler.Transform(ordered)
}

// FeatureNames returns the fitted feature order.
func (p *Preprocessor) FeatureNames() []string {
	return slices.Clone(p.names)
}

// Brands returns the brands known to the brand codec.
func (p *Preprocessor) Brands() []string {
	return p.brand.Classes()
}

// Processors returns the processors known to the processor codec.
func (p *Preprocessor) Processors() []string {
	return p.processor.Classes()
}

// State returns the persisted form of p.
func (p *Preprocessor) State() PreprocessorState {
	return PreprocessorState{
		FeatureNames: slices.Clone(p.names),
		Brand:        p.brand.State(),
		Processor:    p.processor.State(),
		Scaler:       p.scaler.State(),
	}
}

// encode fills the categorical slots of a canonical-order row.
func (p *Preprocessor) encode(row FeatureRow) ([]float64, error) {
	if len(row.Values) != numFeatures {
		return nil, fmt.Errorf("feature row has %d values, want %d", len(row.Values), numFeatures)
	}
	brand, err := p.brand.Transform(row.Brand)
	if err != nil {
		return nil, err
	}
	processor, err := p.processor.Transform(row.Processor)
	if err != nil {
		return nil, err
	}
	v := slices.Clone(row.Values)
	v[colBrand] = float64(brand)
	v[colProcessor] = float64(processor)
	return v, nil
}

// featureOrder maps each name to its canonical column.
func featureOrder(names []string) ([]int, error) {
	canonical := FeatureNames()
	if len(names) != len(canonical) {
		return nil, fmt.Errorf("%w: %d features, want %d", ErrBundleMismatch, len(names), len(canonical))
	}
	pos := make(map[string]int, len(canonical))
	for i, n := range canonical {
		pos[n] = i
	}
	order := make([]int, len(names))
	used := make(map[string]bool, len(names))
	for i, n := range names {
		j, ok := pos[n]
		if !ok || used[n] {
			return nil, fmt.Errorf("%w: unexpected feature %q", ErrBundleMismatch, n)
		}
		used[n] = true
		order[i] = j
	}
	return order, nil
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
