// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

// Package regression implements the tree-ensemble regressors used to model
// phone prices, together with cross-validation and grid search.
//
// # Model Families
//
//   - RandomForest: bootstrap-aggregated CART trees with best splits
//   - ExtraTrees: CART trees with random thresholds, no bootstrap
//   - GradientBoosting: least-squares boosting of shallow CART trees
//
// # Determinism
//
// Every fit is driven by Params.Seed. Per-tree seeds are drawn from the
// parent generator before any tree is fitted, so results do not depend on
// goroutine scheduling or the number of workers.
//
// # Thread Safety
//
// Fitted models are immutable and safe for concurrent prediction.
package regression

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
)

// Family identifies a model family.
type Family int

const (
	// RandomForest averages bootstrapped best-split trees.
	RandomForest Family = iota
	// GradientBoosting sums shallow trees fitted to residuals.
	GradientBoosting
	// ExtraTrees averages random-threshold trees fitted on the full sample.
	ExtraTrees
)

// String returns the human-readable family name.
func (f Family) String() string {
	switch f {
	case RandomForest:
		return "RandomForest"
	case GradientBoosting:
		return "GradientBoosting"
	case ExtraTrees:
		return "ExtraTrees"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ID returns the configuration identifier of the family.
func (f Family) ID() string {
	switch f {
	case RandomForest:
		return "random_forest"
	case GradientBoosting:
		return "gradient_boosting"
	case ExtraTrees:
		return "extra_trees"
	default:
		return ""
	}
}

// ParseFamily converts a configuration identifier or display name to a Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "random_forest", "randomforest", "rf":
		return RandomForest, nil
	case "gradient_boosting", "gradientboosting", "gb":
		return GradientBoosting, nil
	case "extra_trees", "extratrees", "et":
		return ExtraTrees, nil
	default:
		return 0, fmt.Errorf("unknown model family %q", s)
	}
}

// MaxFeatures selects how many features a split considers.
type MaxFeatures int

const (
	// AllFeatures considers every feature.
	AllFeatures MaxFeatures = iota
	// SqrtFeatures considers floor(sqrt(d)) features.
	SqrtFeatures
	// Log2Features considers floor(log2(d)) features.
	Log2Features
)

// String returns the configuration spelling of m.
func (m MaxFeatures) String() string {
	switch m {
	case SqrtFeatures:
		return "sqrt"
	case Log2Features:
		return "log2"
	default:
		return "all"
	}
}

// ParseMaxFeatures converts "all", "sqrt" or "log2" to a MaxFeatures.
func ParseMaxFeatures(s string) (MaxFeatures, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "none", "1.0":
		return AllFeatures, nil
	case "sqrt":
		return SqrtFeatures, nil
	case "log2":
		return Log2Features, nil
	default:
		return 0, fmt.Errorf("unsupported max_features %q", s)
	}
}

// resolve returns the feature count for d input columns.
func (m MaxFeatures) resolve(d int) int {
	var k int
	switch m {
	case SqrtFeatures:
		k = int(math.Sqrt(float64(d)))
	case Log2Features:
		k = int(math.Log2(float64(d)))
	default:
		k = d
	}
	if k < 1 {
		k = 1
	}
	if k > d {
		k = d
	}
	return k
}

// Params fully describes a model configuration.
type Params struct {
	Family Family `json:"family"`

	// NEstimators is the number of trees (boosting stages for GradientBoosting).
	NEstimators int `json:"n_estimators"`

	// MaxDepth limits tree depth. 0 means unlimited.
	MaxDepth int `json:"max_depth"`

	MinSamplesSplit int         `json:"min_samples_split"`
	MinSamplesLeaf  int         `json:"min_samples_leaf"`
	MaxFeatures     MaxFeatures `json:"max_features"`

	// LearningRate shrinks each boosting stage. GradientBoosting only.
	LearningRate float64 `json:"learning_rate,omitempty"`

	// Subsample is the row fraction drawn per boosting stage. GradientBoosting only.
	Subsample float64 `json:"subsample,omitempty"`

	Seed int64 `json:"seed"`

	// Workers bounds parallel tree fitting. 0 uses runtime.NumCPU().
	// Not part of the model identity.
	Workers int `json:"-"`
}

// DefaultParams returns the untuned configuration of a family.
func DefaultParams(f Family, seed int64) Params {
	p := Params{
		Family:          f,
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     AllFeatures,
		Seed:            seed,
	}
	if f == GradientBoosting {
		p.MaxDepth = 3
		p.LearningRate = 0.1
		p.Subsample = 1.0
	}
	return p
}

// Validate checks that p can be fitted.
func (p Params) Validate() error {
	switch p.Family {
	case RandomForest, GradientBoosting, ExtraTrees:
	default:
		return fmt.Errorf("unknown family %d", int(p.Family))
	}
	if p.NEstimators < 1 {
		return fmt.Errorf("n_estimators must be positive, got %d", p.NEstimators)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative, got %d", p.MaxDepth)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be at least 2, got %d", p.MinSamplesSplit)
	}
	if p.MinSamplesLeaf < 1 {
		return fmt.Errorf("min_samples_leaf must be positive, got %d", p.MinSamplesLeaf)
	}
	if p.Family == GradientBoosting {
		if p.LearningRate <= 0 {
			return fmt.Errorf("learning_rate must be positive, got %f", p.LearningRate)
		}
		if p.Subsample <= 0 || p.Subsample > 1 {
			return fmt.Errorf("subsample must be in (0, 1], got %f", p.Subsample)
		}
	}
	return nil
}

// Describe returns the tuned hyperparameters of p as a flat map.
func (p Params) Describe() map[string]any {
	depth := any(p.MaxDepth)
	if p.MaxDepth == 0 {
		depth = nil
	}
	m := map[string]any{
		"n_estimators": p.NEstimators,
		"max_depth":    depth,
	}
	switch p.Family {
	case GradientBoosting:
		m["learning_rate"] = p.LearningRate
		m["subsample"] = p.Subsample
	case RandomForest:
		m["min_samples_split"] = p.MinSamplesSplit
		m["max_features"] = p.MaxFeatures.String()
	case ExtraTrees:
		m["min_samples_split"] = p.MinSamplesSplit
	}
	return m
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

// Model is a fitted regressor.
type Model interface {
	// Predict returns the prediction for one feature row.
	Predict(row []float64) float64
	// FeatureImportances returns impurity-based importances summing to 1,
	// or all zeros when no split was made.
	FeatureImportances() []float64
	// Config returns the parameters the model was fitted with.
	Config() Params
	// NumFeatures returns the expected row width.
	NumFeatures() int
}

// ErrNoSamples is returned when fitting on an empty matrix.
var ErrNoSamples = errors.New("no training samples")

//nolint:gochecknoinits // gob needs the concrete types behind Model
func init() {
	gob.Register(&Forest{})
	gob.Register(&Boosting{})
}

// Fit trains a model of the configured family.
func Fit(ctx context.Context, p Params, x [][]float64, y []float64) (Model, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := checkMatrix(x, y); err != nil {
		return nil, err
	}
	switch p.Family {
	case GradientBoosting:
		return fitBoosting(ctx, p, x, y)
	default:
		return fitForest(ctx, p, x, y)
	}
}

// PredictAll applies m to every row of x.
func PredictAll(m Model, x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = m.Predict(row)
	}
	return out
}

func checkMatrix(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return ErrNoSamples
	}
	if len(x) != len(y) {
		return fmt.Errorf("x has %d rows but y has %d values", len(x), len(y))
	}
	d := len(x[0])
	if d == 0 {
		return errors.New("x has no feature columns")
	}
	for i, row := range x {
		if len(row) != d {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), d)
		}
	}
	return nil
}

// contextCancelled returns true if the context is done.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
