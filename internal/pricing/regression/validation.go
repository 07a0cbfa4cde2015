// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package regression

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// Fold is one train/validation partition of row indices.
type Fold struct {
	Train []int
	Test  []int
}

// KFold splits n rows into k contiguous, unshuffled folds. The first n%k
// folds hold one extra row.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k-fold needs at least 2 folds, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", n, k)
	}

	folds := make([]Fold, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		stop := start + size
		test := make([]int, 0, size)
		train := make([]int, 0, n-size)
		for j := 0; j < n; j++ {
			if j >= start && j < stop {
				test = append(test, j)
			} else {
				train = append(train, j)
			}
		}
		folds[i] = Fold{Train: train, Test: test}
		start = stop
	}
	return folds, nil
}

// TrainTestSplit shuffles n row indices with seed and holds out
// ceil(testSize*n) of them.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %f", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, fmt.Errorf("cannot split %d samples with test size %.2f", n, testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // deterministic split
	return perm[nTest:], perm[:nTest], nil
}

// Subset gathers the rows of x and y listed in idx.
func Subset(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}

// CrossValScore fits p on each of k folds and returns the validation R² per fold.
func CrossValScore(ctx context.Context, p Params, x [][]float64, y []float64, k int) ([]float64, error) {
	if err := checkMatrix(x, y); err != nil {
		return nil, err
	}
	folds, err := KFold(len(x), k)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(folds))
	for i, fold := range folds {
		if contextCancelled(ctx) {
			return nil, ctx.Err()
		}
		xTrain, yTrain := Subset(x, y, fold.Train)
		xTest, yTest := Subset(x, y, fold.Test)

		model, err := Fit(ctx, p, xTrain, yTrain)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i+1, err)
		}
		scores[i] = R2(yTest, PredictAll(model, xTest))
		if math.IsNaN(scores[i]) {
			return nil, fmt.Errorf("fold %d: R² is not a number", i+1)
		}
	}
	return scores, nil
}
