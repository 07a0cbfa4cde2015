// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

// Package config loads phoneprice configuration.
package config

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Dataset   DatasetConfig   `koanf:"dataset"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Training  TrainingConfig  `koanf:"training"`
	Estimate  EstimateConfig  `koanf:"estimate"`
	Registry  RegistryConfig  `koanf:"registry"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatasetConfig describes the reference dataset and how it is cleaned.
type DatasetConfig struct {
	// Path is the CSV file holding the phone dataset.
	// Default: data/ndtv_data_final.csv
	Path string `koanf:"path"`

	// TrimOutliers drops rows whose price lies outside the configured quantiles.
	// Default: true
	TrimOutliers bool `koanf:"trim_outliers"`

	// LowerQuantile is the lower price quantile kept when trimming.
	// Default: 0.01
	LowerQuantile float64 `koanf:"lower_quantile"`

	// UpperQuantile is the upper price quantile kept when trimming.
	// Default: 0.99
	UpperQuantile float64 `koanf:"upper_quantile"`
}

// ArtifactsConfig controls where trained bundles are written.
type ArtifactsConfig struct {
	// Dir is the directory holding versioned bundle files.
	// Default: models
	Dir string `koanf:"dir"`

	// Name is the bundle name; files are written as {name}_v{version}.gob.gz.
	// Default: phone_price
	Name string `koanf:"name"`

	// Keep is how many bundle versions are retained after a training run.
	// 0 keeps every version.
	// Default: 5
	Keep int `koanf:"keep"`
}

// TrainingConfig controls model selection and tuning.
type TrainingConfig struct {
	// Seed drives the train/test split and every model's randomness.
	// Default: 42
	Seed int64 `koanf:"seed"`

	// TestSize is the held-out fraction used for evaluation.
	// Default: 0.15
	TestSize float64 `koanf:"test_size"`

	// CVFolds is the number of folds for candidate comparison.
	// Default: 5
	CVFolds int `koanf:"cv_folds"`

	// GridFolds is the number of folds used inside the grid search.
	// Default: 3
	GridFolds int `koanf:"grid_folds"`

	// Workers bounds parallel tree and grid-cell fitting. 0 uses runtime.NumCPU().
	// Default: 0
	Workers int `koanf:"workers"`

	// BaseEstimators is the ensemble size of the untuned candidates.
	// Default: 100
	BaseEstimators int `koanf:"base_estimators"`

	// TargetR2 is the held-out R² reported as "target reached".
	// Default: 0.90
	TargetR2 float64 `koanf:"target_r2"`

	// Families lists the candidate model families in comparison order.
	// Default: [random_forest, gradient_boosting, extra_trees]
	Families []string `koanf:"families"`

	RandomForest     RandomForestGrid     `koanf:"random_forest"`
	GradientBoosting GradientBoostingGrid `koanf:"gradient_boosting"`
	ExtraTrees       ExtraTreesGrid       `koanf:"extra_trees"`
}

// RandomForestGrid is the hyperparameter grid searched for random forests.
// A max depth of 0 means unlimited.
type RandomForestGrid struct {
	NEstimators     []int    `koanf:"n_estimators"`
	MaxDepth        []int    `koanf:"max_depth"`
	MinSamplesSplit []int    `koanf:"min_samples_split"`
	MaxFeatures     []string `koanf:"max_features"`
}

// GradientBoostingGrid is the hyperparameter grid searched for gradient boosting.
type GradientBoostingGrid struct {
	NEstimators  []int     `koanf:"n_estimators"`
	LearningRate []float64 `koanf:"learning_rate"`
	MaxDepth     []int     `koanf:"max_depth"`
	Subsample    []float64 `koanf:"subsample"`
}

// ExtraTreesGrid is the hyperparameter grid searched for extremely randomized trees.
type ExtraTreesGrid struct {
	NEstimators     []int `koanf:"n_estimators"`
	MaxDepth        []int `koanf:"max_depth"`
	MinSamplesSplit []int `koanf:"min_samples_split"`
}

// EstimateConfig controls inference and presentation.
type EstimateConfig struct {
	// USDRate converts dataset prices (INR) to USD for display.
	// Default: 86.14
	USDRate float64 `koanf:"usd_rate"`

	// MinComparables is the comparable count required before blending.
	// Default: 5
	MinComparables int `koanf:"min_comparables"`

	// ComparableWindow is the relative storage and RAM tolerance.
	// Default: 0.2
	ComparableWindow float64 `koanf:"comparable_window"`

	// CacheSize bounds the in-process prediction cache. 0 disables it.
	// Default: 1024
	CacheSize int `koanf:"cache_size"`
}

// RegistryConfig controls the BadgerDB-backed training run registry.
type RegistryConfig struct {
	// Enabled records every training report.
	// Default: true
	Enabled bool `koanf:"enabled"`

	// Path is the BadgerDB directory.
	// Default: models/registry
	Path string `koanf:"path"`
}

// MetricsConfig controls Prometheus metric export.
type MetricsConfig struct {
	// TextfilePath, when set, receives the collected metrics in the
	// node_exporter textfile format when a command finishes.
	// Default: "" (disabled)
	TextfilePath string `koanf:"textfile_path"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}
