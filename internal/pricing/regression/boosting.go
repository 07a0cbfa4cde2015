// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package regression

import (
	"context"
	"fmt"
	"math/rand"
)

// Boosting is a fitted least-squares gradient boosting model.
type Boosting struct {
	Init         float64
	LearningRate float64
	Stages       []*Tree
	Params       Params
	Features     int
	Importances  []float64
}

var _ Model = (*Boosting)(nil)

// Predict returns the initial estimate plus the shrunken stage outputs.
func (b *Boosting) Predict(row []float64) float64 {
	out := b.Init
	for _, t := range b.Stages {
		out += b.LearningRate * t.Predict(row)
	}
	return out
}

// FeatureImportances returns the normalized impurity decrease summed over stages.
func (b *Boosting) FeatureImportances() []float64 {
	out := make([]float64, len(b.Importances))
	copy(out, b.Importances)
	return out
}

// Config returns the fit parameters.
func (b *Boosting) Config() Params { return b.Params }

// NumFeatures returns the expected row width.
func (b *Boosting) NumFeatures() int { return b.Features }

func fitBoosting(ctx context.Context, p Params, x [][]float64, y []float64) (*Boosting, error) {
	n, d := len(x), len(x[0])
	cfg := treeConfig{
		maxDepth:    p.MaxDepth,
		minSplit:    p.MinSamplesSplit,
		minLeaf:     p.MinSamplesLeaf,
		maxFeatures: p.MaxFeatures.resolve(d),
	}
	rng := rand.New(rand.NewSource(p.Seed)) //nolint:gosec // deterministic model seeding

	var init float64
	for _, v := range y {
		init += v
	}
	init /= float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = init
	}
	residual := make([]float64, n)

	inBag := n
	if p.Subsample < 1 {
		inBag = max(1, int(p.Subsample*float64(n)))
	}

	m := &Boosting{
		Init:         init,
		LearningRate: p.LearningRate,
		Stages:       make([]*Tree, 0, p.NEstimators),
		Params:       p,
		Features:     d,
		Importances:  make([]float64, d),
	}

	for stage := 0; stage < p.NEstimators; stage++ {
		if contextCancelled(ctx) {
			return nil, fmt.Errorf("fit %s: %w", p.Family, ctx.Err())
		}
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}

		var idx []int
		if inBag < n {
			idx = rng.Perm(n)[:inBag]
		} else {
			idx = make([]int, n)
			for i := range idx {
				idx[i] = i
			}
		}

		t := growTree(cfg, x, residual, idx, rng)
		m.Stages = append(m.Stages, t)
		for j, v := range t.Importances {
			m.Importances[j] += v
		}
		for i := range pred {
			pred[i] += p.LearningRate * t.Predict(x[i])
		}
	}
	normalize(m.Importances)
	return m, nil
}
