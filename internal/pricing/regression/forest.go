// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package regression

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// Forest is a fitted RandomForest or ExtraTrees ensemble.
type Forest struct {
	Trees       []*Tree
	Params      Params
	Features    int
	Importances []float64
}

var _ Model = (*Forest)(nil)

// Predict returns the mean prediction of all trees.
func (f *Forest) Predict(row []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(row)
	}
	return sum / float64(len(f.Trees))
}

// FeatureImportances returns the averaged, renormalized tree importances.
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.Importances))
	copy(out, f.Importances)
	return out
}

// Config returns the fit parameters.
func (f *Forest) Config() Params { return f.Params }

// NumFeatures returns the expected row width.
func (f *Forest) NumFeatures() int { return f.Features }

func fitForest(ctx context.Context, p Params, x [][]float64, y []float64) (*Forest, error) {
	n, d := len(x), len(x[0])
	cfg := treeConfig{
		maxDepth:    p.MaxDepth,
		minSplit:    p.MinSamplesSplit,
		minLeaf:     p.MinSamplesLeaf,
		maxFeatures: p.MaxFeatures.resolve(d),
		randomSplit: p.Family == ExtraTrees,
	}
	bootstrap := p.Family == RandomForest

	// Draw every tree seed up front so the result is independent of scheduling.
	parent := rand.New(rand.NewSource(p.Seed)) //nolint:gosec // deterministic model seeding
	seeds := make([]int64, p.NEstimators)
	for i := range seeds {
		seeds[i] = parent.Int63()
	}

	trees := make([]*Tree, p.NEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i := range trees {
		g.Go(func() error {
			if contextCancelled(gctx) {
				return gctx.Err()
			}
			rng := rand.New(rand.NewSource(seeds[i])) //nolint:gosec // deterministic model seeding
			idx := make([]int, n)
			if bootstrap {
				for j := range idx {
					idx[j] = rng.Intn(n)
				}
			} else {
				for j := range idx {
					idx[j] = j
				}
			}
			trees[i] = growTree(cfg, x, y, idx, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit %s: %w", p.Family, err)
	}

	importances := make([]float64, d)
	for _, t := range trees {
		for j, v := range t.Importances {
			importances[j] += v
		}
	}
	normalize(importances)

	return &Forest{
		Trees:       trees,
		Params:      p,
		Features:    d,
		Importances: importances,
	}, nil
}

// normalize scales v in place to sum to 1. All-zero input is left unchanged.
func normalize(v []float64) {
	var total float64
	for _, x := range v {
		total += x
	}
	if total <= 0 {
		return
	}
	for i := range v {
		v[i] /= total
	}
}
