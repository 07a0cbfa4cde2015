// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Estimate outcomes.
const (
	OutcomeBlended    = "blended"
	OutcomeClamped    = "clamped"
	OutcomeUnweighted = "unweighted"
)

var (
	// Estimation Metrics
	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phoneprice_estimates_total",
			Help: "Total number of price estimates by blend outcome",
		},
		[]string{"outcome"}, // "blended", "clamped", "unweighted"
	)

	EstimateErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phoneprice_estimate_errors_total",
			Help: "Total number of failed estimates by error type",
		},
		[]string{"error_type"}, // "unknown_category", "other"
	)

	ComparableSetSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "phoneprice_comparable_set_size",
			Help:    "Number of comparable phones found per estimate",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	ModelWeight = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "phoneprice_model_weight",
			Help:    "Weight given to the model prediction in blended estimates",
			Buckets: []float64{0.3, 0.5, 0.8},
		},
	)

	NonFinitePredictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "phoneprice_nonfinite_predictions_total",
			Help: "Total number of model outputs replaced because they were NaN, infinite or negative",
		},
	)

	PredictionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phoneprice_prediction_cache_lookups_total",
			Help: "Total number of prediction cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Training Metrics
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "phoneprice_training_duration_seconds",
			Help:    "Duration of complete training runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phoneprice_training_runs_total",
			Help: "Total number of training runs by status",
		},
		[]string{"status"}, // "success", "error"
	)

	CandidateCVScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "phoneprice_candidate_cv_r2",
			Help: "Mean cross-validated R² of each candidate model family",
		},
		[]string{"family"},
	)

	CandidateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phoneprice_candidate_failures_total",
			Help: "Total number of candidate model families skipped because evaluation failed",
		},
		[]string{"family"},
	)

	HeldOutR2 = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "phoneprice_heldout_r2",
			Help: "R² of the selected model on the held-out split",
		},
		[]string{"space"}, // "price", "log"
	)

	TrainingSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "phoneprice_training_samples",
			Help: "Number of rows left after cleaning the dataset",
		},
	)
)

// RecordEstimate records the outcome of one blended estimate.
// weight is ignored for unweighted estimates.
func RecordEstimate(outcome string, comparables int, weight float64) {
	EstimatesTotal.WithLabelValues(outcome).Inc()
	ComparableSetSize.Observe(float64(comparables))
	if outcome != OutcomeUnweighted {
		ModelWeight.Observe(weight)
	}
}

// RecordEstimateError records a failed estimate.
func RecordEstimateError(errorType string) {
	EstimateErrors.WithLabelValues(errorType).Inc()
}

// RecordNonFinitePrediction records a model output clamped to zero.
func RecordNonFinitePrediction() {
	NonFinitePredictions.Inc()
}

// RecordPredictionCache records one prediction cache lookup.
func RecordPredictionCache(hit bool) {
	if hit {
		PredictionCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	PredictionCacheLookups.WithLabelValues("miss").Inc()
}

// RecordCandidate records the cross-validation result of one model family.
func RecordCandidate(family string, meanR2 float64, err error) {
	if err != nil {
		CandidateFailures.WithLabelValues(family).Inc()
		return
	}
	CandidateCVScore.WithLabelValues(family).Set(meanR2)
}

// RecordTraining records a finished training run.
func RecordTraining(duration time.Duration, samples int, testR2, testLogR2 float64, err error) {
	TrainingDuration.Observe(duration.Seconds())
	if err != nil {
		TrainingRuns.WithLabelValues("error").Inc()
		return
	}
	TrainingRuns.WithLabelValues("success").Inc()
	TrainingSamples.Set(float64(samples))
	HeldOutR2.WithLabelValues("price").Set(testR2)
	HeldOutR2.WithLabelValues("log").Set(testLogR2)
}

// WriteTextfile writes every registered metric to path in the
// node_exporter textfile collector format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
