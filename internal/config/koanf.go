// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/phoneprice/config.yaml",
	"/etc/phoneprice/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "PHONEPRICE_CONFIG"

// Family identifiers accepted in training.families.
const (
	FamilyRandomForest     = "random_forest"
	FamilyGradientBoosting = "gradient_boosting"
	FamilyExtraTrees       = "extra_trees"
)

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:          "data/ndtv_data_final.csv",
			TrimOutliers:  true,
			LowerQuantile: 0.01,
			UpperQuantile: 0.99,
		},
		Artifacts: ArtifactsConfig{
			Dir:  "models",
			Name: "phone_price",
			Keep: 5,
		},
		Training: TrainingConfig{
			Seed:           42,
			TestSize:       0.15,
			CVFolds:        5,
			GridFolds:      3,
			Workers:        0, // 0 = use runtime.NumCPU()
			BaseEstimators: 100,
			TargetR2:       0.90,
			Families:       []string{FamilyRandomForest, FamilyGradientBoosting, FamilyExtraTrees},
			RandomForest: RandomForestGrid{
				NEstimators:     []int{500, 700},
				MaxDepth:        []int{0, 20, 30},
				MinSamplesSplit: []int{2, 5},
				MaxFeatures:     []string{"sqrt", "log2"},
			},
			GradientBoosting: GradientBoostingGrid{
				NEstimators:  []int{500, 700},
				LearningRate: []float64{0.05, 0.1},
				MaxDepth:     []int{3, 5},
				Subsample:    []float64{0.8, 1.0},
			},
			ExtraTrees: ExtraTreesGrid{
				NEstimators:     []int{500, 700},
				MaxDepth:        []int{0, 20, 30},
				MinSamplesSplit: []int{2, 5},
			},
		},
		Estimate: EstimateConfig{
			USDRate:          86.14,
			MinComparables:   5,
			ComparableWindow: 0.2,
			CacheSize:        1024,
		},
		Registry: RegistryConfig{
			Enabled: true,
			Path:    "models/registry",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration without consulting files or
// the environment.
func Default() *Config {
	return defaultConfig()
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"training.families",
	"training.random_forest.n_estimators",
	"training.random_forest.max_depth",
	"training.random_forest.min_samples_split",
	"training.random_forest.max_features",
	"training.gradient_boosting.n_estimators",
	"training.gradient_boosting.learning_rate",
	"training.gradient_boosting.max_depth",
	"training.gradient_boosting.subsample",
	"training.extra_trees.n_estimators",
	"training.extra_trees.max_depth",
	"training.extra_trees.min_samples_split",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	"phoneprice_dataset_path":      "dataset.path",
	"phoneprice_trim_outliers":     "dataset.trim_outliers",
	"phoneprice_lower_quantile":    "dataset.lower_quantile",
	"phoneprice_upper_quantile":    "dataset.upper_quantile",
	"phoneprice_artifacts_dir":     "artifacts.dir",
	"phoneprice_artifacts_name":    "artifacts.name",
	"phoneprice_artifacts_keep":    "artifacts.keep",
	"phoneprice_seed":              "training.seed",
	"phoneprice_test_size":         "training.test_size",
	"phoneprice_cv_folds":          "training.cv_folds",
	"phoneprice_grid_folds":        "training.grid_folds",
	"phoneprice_workers":           "training.workers",
	"phoneprice_base_estimators":   "training.base_estimators",
	"phoneprice_target_r2":         "training.target_r2",
	"phoneprice_families":          "training.families",
	"phoneprice_rf_n_estimators":   "training.random_forest.n_estimators",
	"phoneprice_gb_n_estimators":   "training.gradient_boosting.n_estimators",
	"phoneprice_et_n_estimators":   "training.extra_trees.n_estimators",
	"phoneprice_usd_rate":          "estimate.usd_rate",
	"phoneprice_min_comparables":   "estimate.min_comparables",
	"phoneprice_comparable_window": "estimate.comparable_window",
	"phoneprice_cache_size":        "estimate.cache_size",
	"phoneprice_registry_enabled":  "registry.enabled",
	"phoneprice_registry_path":     "registry.path",
	"phoneprice_metrics_textfile":  "metrics.textfile_path",
	"log_level":                    "logging.level",
	"log_format":                   "logging.format",
	"log_caller":                   "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - PHONEPRICE_DATASET_PATH -> dataset.path
//   - PHONEPRICE_CV_FOLDS -> training.cv_folds
//   - LOG_LEVEL -> logging.level
//
// Unmapped variables return an empty key and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
