// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package config

import (
	"fmt"
	"strings"
)

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateArtifacts(); err != nil {
		return err
	}
	if err := c.validateTraining(); err != nil {
		return err
	}
	if err := c.validateEstimate(); err != nil {
		return err
	}
	if err := c.validateRegistry(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDataset() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	lo, hi := c.Dataset.LowerQuantile, c.Dataset.UpperQuantile
	if lo < 0 || hi > 1 || lo >= hi {
		return fmt.Errorf("dataset quantiles must satisfy 0 <= lower < upper <= 1, got %.3f and %.3f", lo, hi)
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required")
	}
	if c.Artifacts.Name == "" || strings.ContainsAny(c.Artifacts.Name, `/\`) {
		return fmt.Errorf("artifacts.name must be non-empty without path separators, got %q", c.Artifacts.Name)
	}
	if c.Artifacts.Keep < 0 {
		return fmt.Errorf("artifacts.keep must be non-negative, got %d", c.Artifacts.Keep)
	}
	return nil
}

func (c *Config) validateTraining() error {
	t := &c.Training
	if t.TestSize <= 0 || t.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be in (0, 1), got %f", t.TestSize)
	}
	if t.CVFolds < 2 {
		return fmt.Errorf("training.cv_folds must be at least 2, got %d", t.CVFolds)
	}
	if t.GridFolds < 2 {
		return fmt.Errorf("training.grid_folds must be at least 2, got %d", t.GridFolds)
	}
	if t.Workers < 0 {
		return fmt.Errorf("training.workers must be non-negative, got %d", t.Workers)
	}
	if t.BaseEstimators < 1 {
		return fmt.Errorf("training.base_estimators must be positive, got %d", t.BaseEstimators)
	}
	if len(t.Families) == 0 {
		return fmt.Errorf("training.families must list at least one model family")
	}
	for _, f := range t.Families {
		switch f {
		case FamilyRandomForest, FamilyGradientBoosting, FamilyExtraTrees:
		default:
			return fmt.Errorf("training.families: unknown family %q", f)
		}
	}
	if err := validatePositiveInts("training.random_forest.n_estimators", t.RandomForest.NEstimators); err != nil {
		return err
	}
	if err := validatePositiveInts("training.gradient_boosting.n_estimators", t.GradientBoosting.NEstimators); err != nil {
		return err
	}
	if err := validatePositiveInts("training.extra_trees.n_estimators", t.ExtraTrees.NEstimators); err != nil {
		return err
	}
	for _, mf := range t.RandomForest.MaxFeatures {
		switch mf {
		case "sqrt", "log2", "all":
		default:
			return fmt.Errorf("training.random_forest.max_features: unsupported value %q", mf)
		}
	}
	for _, lr := range t.GradientBoosting.LearningRate {
		if lr <= 0 {
			return fmt.Errorf("training.gradient_boosting.learning_rate must be positive, got %f", lr)
		}
	}
	for _, s := range t.GradientBoosting.Subsample {
		if s <= 0 || s > 1 {
			return fmt.Errorf("training.gradient_boosting.subsample must be in (0, 1], got %f", s)
		}
	}
	return nil
}

func validatePositiveInts(name string, values []int) error {
	if len(values) == 0 {
		return fmt.Errorf("%s must not be empty", name)
	}
	for _, v := range values {
		if v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}

func (c *Config) validateEstimate() error {
	if c.Estimate.USDRate <= 0 {
		return fmt.Errorf("estimate.usd_rate must be positive, got %f", c.Estimate.USDRate)
	}
	if c.Estimate.MinComparables < 1 {
		return fmt.Errorf("estimate.min_comparables must be positive, got %d", c.Estimate.MinComparables)
	}
	if c.Estimate.ComparableWindow <= 0 || c.Estimate.ComparableWindow >= 1 {
		return fmt.Errorf("estimate.comparable_window must be in (0, 1), got %f", c.Estimate.ComparableWindow)
	}
	if c.Estimate.CacheSize < 0 {
		return fmt.Errorf("estimate.cache_size must be non-negative, got %d", c.Estimate.CacheSize)
	}
	return nil
}

func (c *Config) validateRegistry() error {
	if c.Registry.Enabled && c.Registry.Path == "" {
		return fmt.Errorf("registry.path is required when registry.enabled=true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
