// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package regression

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// mapeEpsilon guards the percentage error against zero targets.
const mapeEpsilon = 2.220446049250313e-16

// R2 returns the coefficient of determination of pred against truth.
// A constant truth scores 1 for a perfect prediction and 0 otherwise.
func R2(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return math.NaN()
	}
	if stat.Variance(truth, nil) == 0 || len(truth) == 1 {
		for i := range truth {
			if truth[i] != pred[i] {
				return 0
			}
		}
		return 1
	}
	return stat.RSquaredFrom(pred, truth, nil)
}

// MAE returns the mean absolute error.
func MAE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range truth {
		sum += math.Abs(truth[i] - pred[i])
	}
	return sum / float64(len(truth))
}

// MAPE returns the mean absolute percentage error as a fraction (0.1 = 10%).
func MAPE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range truth {
		sum += math.Abs(truth[i]-pred[i]) / math.Max(math.Abs(truth[i]), mapeEpsilon)
	}
	return sum / float64(len(truth))
}

// RMSE returns the root mean squared error.
func RMSE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range truth {
		d := truth[i] - pred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(truth)))
}

// MeanStd returns the mean and population standard deviation of scores.
func MeanStd(scores []float64) (mean, std float64) {
	if len(scores) == 0 {
		return math.NaN(), math.NaN()
	}
	mean, variance := stat.PopMeanVariance(scores, nil)
	return mean, math.Sqrt(variance)
}
