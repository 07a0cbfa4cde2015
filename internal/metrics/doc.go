// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

/*
Package metrics holds the Prometheus collectors for estimation and training.

All collectors are registered with promauto on the default registry.
phoneprice is a command-line tool, so there is no scrape endpoint. When
metrics.textfile_path is set, the registry is written once at command exit
in the node_exporter textfile collector format:

	metrics:
	  textfile_path: /var/lib/node_exporter/textfile/phoneprice.prom

# Available Metrics

Estimation Metrics:
  - phoneprice_estimates_total: Estimates by blend outcome (counter)
    Labels: outcome (blended, clamped, unweighted)
  - phoneprice_estimate_errors_total: Failed estimates (counter)
    Labels: error_type (unknown_category, other)
  - phoneprice_comparable_set_size: Comparables found per estimate (histogram)
  - phoneprice_model_weight: Model weight in blended estimates (histogram)
    Buckets: 0.3, 0.5, 0.8
  - phoneprice_nonfinite_predictions_total: Model outputs replaced by 0 (counter)
  - phoneprice_prediction_cache_lookups_total: Prediction cache lookups (counter)
    Labels: result (hit, miss)

Training Metrics:
  - phoneprice_training_duration_seconds: Training run duration (histogram)
  - phoneprice_training_runs_total: Training runs (counter)
    Labels: status (success, error)
  - phoneprice_candidate_cv_r2: Mean k-fold R² per family (gauge)
    Labels: family
  - phoneprice_candidate_failures_total: Skipped candidate families (counter)
    Labels: family
  - phoneprice_heldout_r2: Held-out R² of the selected model (gauge)
    Labels: space (price, log)
  - phoneprice_training_samples: Rows left after cleaning (gauge)

# Usage

Callers use the Record helpers rather than the collectors directly:

	metrics.RecordEstimate(metrics.OutcomeBlended, len(comps), weight)
	metrics.RecordTraining(time.Since(start), samples, testR2, testLogR2, err)
*/
package metrics
