// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package training

import (
	"errors"
	"fmt"

	"github.com/tomtom215/phoneprice/internal/config"
	"github.com/tomtom215/phoneprice/internal/dataset"
	"github.com/tomtom215/phoneprice/internal/pricing/regression"
)

// Options controls one training run.
type Options struct {
	Clean dataset.CleanOptions

	Seed     int64
	TestSize float64

	// CVFolds is used to compare candidate families, GridFolds inside the
	// grid search.
	CVFolds   int
	GridFolds int

	// Workers bounds parallel fitting. 0 uses runtime.NumCPU().
	Workers int

	// BaseEstimators is the ensemble size of the untuned candidates.
	BaseEstimators int

	TargetR2 float64

	// Families are compared in this order; the first wins ties.
	Families []regression.Family

	Grids map[regression.Family]regression.Grid
}

// OptionsFromConfig converts the training section of cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	tc := cfg.Training
	opts := Options{
		Clean: dataset.CleanOptions{
			TrimOutliers: cfg.Dataset.TrimOutliers,
			Lower:        cfg.Dataset.LowerQuantile,
			Upper:        cfg.Dataset.UpperQuantile,
		},
		Seed:           tc.Seed,
		TestSize:       tc.TestSize,
		CVFolds:        tc.CVFolds,
		GridFolds:      tc.GridFolds,
		Workers:        tc.Workers,
		BaseEstimators: tc.BaseEstimators,
		TargetR2:       tc.TargetR2,
		Grids:          make(map[regression.Family]regression.Grid, 3),
	}

	for _, id := range tc.Families {
		f, err := regression.ParseFamily(id)
		if err != nil {
			return Options{}, err
		}
		opts.Families = append(opts.Families, f)
	}

	rfFeatures := make([]regression.MaxFeatures, 0, len(tc.RandomForest.MaxFeatures))
	for _, s := range tc.RandomForest.MaxFeatures {
		mf, err := regression.ParseMaxFeatures(s)
		if err != nil {
			return Options{}, fmt.Errorf("training.random_forest.max_features: %w", err)
		}
		rfFeatures = append(rfFeatures, mf)
	}
	opts.Grids[regression.RandomForest] = regression.Grid{
		NEstimators:     tc.RandomForest.NEstimators,
		MaxDepth:        tc.RandomForest.MaxDepth,
		MinSamplesSplit: tc.RandomForest.MinSamplesSplit,
		MaxFeatures:     rfFeatures,
	}
	opts.Grids[regression.GradientBoosting] = regression.Grid{
		NEstimators:  tc.GradientBoosting.NEstimators,
		LearningRate: tc.GradientBoosting.LearningRate,
		MaxDepth:     tc.GradientBoosting.MaxDepth,
		Subsample:    tc.GradientBoosting.Subsample,
	}
	opts.Grids[regression.ExtraTrees] = regression.Grid{
		NEstimators:     tc.ExtraTrees.NEstimators,
		MaxDepth:        tc.ExtraTrees.MaxDepth,
		MinSamplesSplit: tc.ExtraTrees.MinSamplesSplit,
	}

	return opts, opts.validate()
}

func (o *Options) validate() error {
	if len(o.Families) == 0 {
		return errors.New("no candidate model families")
	}
	if o.TestSize <= 0 || o.TestSize >= 1 {
		return fmt.Errorf("test size must be in (0, 1), got %f", o.TestSize)
	}
	if o.CVFolds < 2 || o.GridFolds < 2 {
		return fmt.Errorf("fold counts must be at least 2, got %d and %d", o.CVFolds, o.GridFolds)
	}
	if o.BaseEstimators < 1 {
		return fmt.Errorf("base estimators must be positive, got %d", o.BaseEstimators)
	}
	return nil
}

// baseParams returns the untuned candidate of family f.
func (o *Options) baseParams(f regression.Family) regression.Params {
	p := regression.DefaultParams(f, o.Seed)
	p.NEstimators = o.BaseEstimators
	p.Workers = o.Workers
	return p
}
