// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

// Package training selects, tunes and evaluates the price model.
//
// A run cleans the dataset, derives training-mode features on the
// log1p(price) target, fits the categorical codecs and the robust scaler,
// holds out a seeded test split, compares the candidate families by k-fold
// R², grid-searches the winner, fits it on the train split and evaluates
// it on the held-out rows. The result is a pricing.Bundle plus a Report.
package training

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/phoneprice/internal/dataset"
	"github.com/tomtom215/phoneprice/internal/logging"
	"github.com/tomtom215/phoneprice/internal/metrics"
	"github.com/tomtom215/phoneprice/internal/pricing"
	"github.com/tomtom215/phoneprice/internal/pricing/regression"
)

// ErrNoCandidate is returned when every candidate family failed
// cross-validation.
var ErrNoCandidate = errors.New("no candidate model could be evaluated")

// Result is the output of a successful run.
type Result struct {
	Bundle *pricing.Bundle
	Report *Report
}

// Trainer runs the model selection pipeline.
type Trainer struct {
	opts Options
}

// NewTrainer validates opts and returns a Trainer.
func NewTrainer(opts Options) (*Trainer, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid training options: %w", err)
	}
	return &Trainer{opts: opts}, nil
}

// Train runs the pipeline on phones. The run ID is taken from ctx, or a new
// one is generated.
func (t *Trainer) Train(ctx context.Context, phones []dataset.Phone) (*Result, error) {
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = logging.GenerateRunID()
		ctx = logging.ContextWithRunID(ctx, runID)
	}
	ctx = logging.ContextWithComponent(ctx, "training")
	logger := logging.Ctx(ctx)

	start := time.Now()
	report := &Report{
		RunID:     runID,
		StartedAt: start.UTC(),
		TargetR2:  t.opts.TargetR2,
	}

	res, err := t.run(ctx, logger, phones, report)
	report.DurationMS = time.Since(start).Milliseconds()
	metrics.RecordTraining(time.Since(start), report.Data.Samples, report.Metrics.TestR2, report.Metrics.TestLogR2, err)
	if err != nil {
		logger.Error().Err(err).Int64(logging.KeyDurationMs, report.DurationMS).Msg("Training failed")
		return nil, err
	}

	logger.Info().
		Str(logging.KeyModelName, report.Selected).
		Float64(logging.KeyR2Score, report.Metrics.TestR2).
		Float64("metrics.mae", report.Metrics.MAE).
		Float64("metrics.mape", report.Metrics.MAPE).
		Bool("target_reached", report.TargetReached).
		Int64(logging.KeyDurationMs, report.DurationMS).
		Msg("Training complete")
	return res, nil
}

func (t *Trainer) run(ctx context.Context, logger *zerolog.Logger, phones []dataset.Phone, report *Report) (*Result, error) {
	report.Data.Loaded = len(phones)

	cleaned, stats, err := dataset.Clean(phones, t.opts.Clean)
	if err != nil {
		return nil, fmt.Errorf("clean dataset: %w", err)
	}
	report.Data.NonFinite = stats.NonFinite
	report.Data.Trimmed = stats.Trimmed
	report.Data.Samples = stats.Output
	report.Data.PriceLow = stats.PriceLow
	report.Data.PriceHigh = stats.PriceHigh

	ds, err := dataset.New(cleaned)
	if err != nil {
		return nil, err
	}
	meanPrice := ds.Summary().MeanPrice
	report.Data.MeanPrice = meanPrice

	logger.Info().
		Int(logging.KeySamples, stats.Output).
		Int("non_finite", stats.NonFinite).
		Int("trimmed", stats.Trimmed).
		Float64("price_low", stats.PriceLow).
		Float64("price_high", stats.PriceHigh).
		Msg("Cleaned dataset")

	rows := pricing.NewFeatureEngineer(meanPrice).Training(cleaned)
	y := make([]float64, len(cleaned))
	for i := range cleaned {
		y[i] = math.Log1p(cleaned[i].Price)
	}

	pre, x, err := pricing.FitPreprocessor(rows)
	if err != nil {
		return nil, fmt.Errorf("fit preprocessing: %w", err)
	}
	logger.Debug().
		Int(logging.KeyFeatures, len(pre.FeatureNames())).
		Int("brands", len(pre.Brands())).
		Int("processors", len(pre.Processors())).
		Msg("Fitted preprocessing")

	trainIdx, testIdx, err := regression.TrainTestSplit(len(x), t.opts.TestSize, t.opts.Seed)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := regression.Subset(x, y, trainIdx)
	xTest, yTest := regression.Subset(x, y, testIdx)
	report.Data.Train = len(trainIdx)
	report.Data.Test = len(testIdx)

	base, err := t.selectCandidate(ctx, logger, xTrain, yTrain, report)
	if err != nil {
		return nil, err
	}

	chosen := t.tune(ctx, logger, base, xTrain, yTrain, report)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := regression.Fit(ctx, chosen, xTrain, yTrain)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", chosen.Family, err)
	}
	report.BestParams = chosen.Describe()

	t.evaluate(model, xTrain, yTrain, xTest, yTest, report)

	bundle, err := pricing.NewBundle(report.RunID, pre, model, time.Now())
	if err != nil {
		return nil, err
	}
	return &Result{Bundle: bundle, Report: report}, nil
}

// selectCandidate cross-validates every family and returns the base params
// of the best one. A family that fails is skipped.
func (t *Trainer) selectCandidate(ctx context.Context, logger *zerolog.Logger, x [][]float64, y []float64, report *Report) (regression.Params, error) {
	var best regression.Params
	bestScore := math.Inf(-1)
	found := false

	for _, family := range t.opts.Families {
		p := t.opts.baseParams(family)
		scores, err := regression.CrossValScore(ctx, p, x, y, t.opts.CVFolds)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return regression.Params{}, ctxErr
			}
			report.Candidates = append(report.Candidates, CandidateScore{Family: family.String(), Error: err.Error()})
			metrics.RecordCandidate(family.ID(), 0, err)
			logger.Warn().Err(err).Str(logging.KeyModelName, family.String()).Msg("Candidate evaluation failed, skipping")
			continue
		}

		mean, std := regression.MeanStd(scores)
		report.Candidates = append(report.Candidates, CandidateScore{
			Family: family.String(),
			MeanR2: mean,
			StdR2:  std,
			Folds:  scores,
		})
		metrics.RecordCandidate(family.ID(), mean, nil)
		logger.Info().
			Str(logging.KeyModelName, family.String()).
			Float64(logging.KeyR2Score, mean).
			Float64(logging.KeyCVStd, std).
			Msg("Candidate evaluated")

		if mean > bestScore {
			bestScore = mean
			best = p
			found = true
		}
	}

	if !found {
		return regression.Params{}, ErrNoCandidate
	}
	report.Selected = best.Family.String()
	logger.Info().Str(logging.KeyModelName, report.Selected).Float64(logging.KeyR2Score, bestScore).Msg("Selected model family")
	return best, nil
}

// tune grid-searches base. On failure it falls back to base.
func (t *Trainer) tune(ctx context.Context, logger *zerolog.Logger, base regression.Params, x [][]float64, y []float64, report *Report) regression.Params {
	grid := t.opts.Grids[base.Family]
	report.Grid.Cells = grid.Size()

	logger.Info().
		Str(logging.KeyModelName, base.Family.String()).
		Int("cells", report.Grid.Cells).
		Int("folds", t.opts.GridFolds).
		Msg("Tuning hyperparameters")

	res, err := regression.GridSearch(ctx, base, grid, x, y, t.opts.GridFolds)
	if err != nil {
		report.Grid.FellBack = true
		report.Grid.Error = err.Error()
		if ctx.Err() == nil {
			logger.Warn().Err(err).Msg("Grid search failed, using the untuned candidate")
		}
		return base
	}

	for _, c := range res.Cells {
		if c.Err != nil {
			report.Grid.Failed++
		}
	}
	report.Grid.BestScore = res.BestScore
	logger.Info().
		Interface(logging.KeyModelParams, res.Best.Describe()).
		Float64(logging.KeyR2Score, res.BestScore).
		Int("failed_cells", report.Grid.Failed).
		Msg("Best parameters found")
	return res.Best
}

func (t *Trainer) evaluate(model regression.Model, xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64, report *Report) {
	predLog := regression.PredictAll(model, xTest)
	truth := make([]float64, len(yTest))
	pred := make([]float64, len(predLog))
	for i := range yTest {
		truth[i] = math.Expm1(yTest[i])
		pred[i] = math.Expm1(predLog[i])
	}

	report.Metrics = EvalMetrics{
		TestR2:    regression.R2(truth, pred),
		TestLogR2: regression.R2(yTest, predLog),
		TrainR2:   regression.R2(yTrain, regression.PredictAll(model, xTrain)),
		MAE:       regression.MAE(truth, pred),
		MAPE:      regression.MAPE(truth, pred),
		RMSE:      regression.RMSE(truth, pred),
	}
	report.TargetReached = report.Metrics.TestR2 >= t.opts.TargetR2

	names := pricing.FeatureNames()
	imp := model.FeatureImportances()
	report.Importances = make([]FeatureImportance, len(names))
	for i, n := range names {
		report.Importances[i] = FeatureImportance{Feature: n, Importance: imp[i]}
	}
	slices.SortStableFunc(report.Importances, func(a, b FeatureImportance) int {
		return cmp.Compare(b.Importance, a.Importance)
	})
}
