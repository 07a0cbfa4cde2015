// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package training

import (
	"time"

	"github.com/tomtom215/phoneprice/internal/storage"
)

// Report summarizes one training run. It is recorded in the run registry.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`

	Data DataReport `json:"data"`

	Candidates []CandidateScore `json:"candidates"`
	Selected   string           `json:"selected"`
	Grid       GridReport       `json:"grid"`

	// BestParams are the tuned hyperparameters of the fitted model.
	BestParams map[string]any `json:"best_params"`

	Metrics     EvalMetrics         `json:"metrics"`
	Importances []FeatureImportance `json:"importances"`

	TargetR2      float64 `json:"target_r2"`
	TargetReached bool    `json:"target_reached"`

	// Artifact is set once the bundle is saved.
	Artifact *storage.BundleMetadata `json:"artifact,omitempty"`
}

// DataReport describes the rows that reached the model.
type DataReport struct {
	Loaded     int     `json:"loaded"`
	Incomplete int     `json:"incomplete"`
	NonFinite  int     `json:"non_finite"`
	Trimmed    int     `json:"trimmed"`
	Samples    int     `json:"samples"`
	Train      int     `json:"train"`
	Test       int     `json:"test"`
	PriceLow   float64 `json:"price_low"`
	PriceHigh  float64 `json:"price_high"`
	MeanPrice  float64 `json:"mean_price"`
}

// CandidateScore is the cross-validation result of one family.
type CandidateScore struct {
	Family string    `json:"family"`
	MeanR2 float64   `json:"mean_r2"`
	StdR2  float64   `json:"std_r2"`
	Folds  []float64 `json:"folds,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Failed reports whether the candidate could not be scored.
func (c CandidateScore) Failed() bool {
	return c.Error != ""
}

// GridReport describes the hyperparameter search.
type GridReport struct {
	Cells     int     `json:"cells"`
	Failed    int     `json:"failed"`
	BestScore float64 `json:"best_score"`

	// FellBack is set when the search failed and the untuned candidate was
	// fitted instead.
	FellBack bool   `json:"fell_back"`
	Error    string `json:"error,omitempty"`
}

// EvalMetrics are measured on the held-out split unless named Train.
type EvalMetrics struct {
	TestR2    float64 `json:"test_r2"`
	TestLogR2 float64 `json:"test_log_r2"`
	TrainR2   float64 `json:"train_r2"`
	MAE       float64 `json:"mae"`
	MAPE      float64 `json:"mape"`
	RMSE      float64 `json:"rmse"`
}

// FeatureImportance is the impurity importance of one feature.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}
