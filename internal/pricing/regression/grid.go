// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package regression

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Grid lists candidate values per hyperparameter. Empty dimensions keep the
// base value.
type Grid struct {
	NEstimators     []int
	MaxDepth        []int
	MinSamplesSplit []int
	MaxFeatures     []MaxFeatures
	LearningRate    []float64
	Subsample       []float64
}

// Size returns the number of configurations the grid expands to.
func (g Grid) Size() int {
	size := 1
	for _, n := range []int{
		len(g.LearningRate), len(g.MaxDepth), len(g.MaxFeatures),
		len(g.MinSamplesSplit), len(g.NEstimators), len(g.Subsample),
	} {
		if n > 0 {
			size *= n
		}
	}
	return size
}

// Expand returns every combination applied to base. Dimensions are ordered
// by parameter name, with the last one varying fastest.
func (g Grid) Expand(base Params) []Params {
	type dim struct {
		n     int
		apply func(p *Params, i int)
	}
	var dims []dim
	if len(g.LearningRate) > 0 {
		dims = append(dims, dim{len(g.LearningRate), func(p *Params, i int) { p.LearningRate = g.LearningRate[i] }})
	}
	if len(g.MaxDepth) > 0 {
		dims = append(dims, dim{len(g.MaxDepth), func(p *Params, i int) { p.MaxDepth = g.MaxDepth[i] }})
	}
	if len(g.MaxFeatures) > 0 {
		dims = append(dims, dim{len(g.MaxFeatures), func(p *Params, i int) { p.MaxFeatures = g.MaxFeatures[i] }})
	}
	if len(g.MinSamplesSplit) > 0 {
		dims = append(dims, dim{len(g.MinSamplesSplit), func(p *Params, i int) { p.MinSamplesSplit = g.MinSamplesSplit[i] }})
	}
	if len(g.NEstimators) > 0 {
		dims = append(dims, dim{len(g.NEstimators), func(p *Params, i int) { p.NEstimators = g.NEstimators[i] }})
	}
	if len(g.Subsample) > 0 {
		dims = append(dims, dim{len(g.Subsample), func(p *Params, i int) { p.Subsample = g.Subsample[i] }})
	}

	out := []Params{base}
	for _, d := range dims {
		next := make([]Params, 0, len(out)*d.n)
		for _, p := range out {
			for i := 0; i < d.n; i++ {
				q := p
				d.apply(&q, i)
				next = append(next, q)
			}
		}
		out = next
	}
	return out
}

// GridCell is the outcome of one grid configuration.
type GridCell struct {
	Params    Params
	MeanScore float64
	StdScore  float64
	Err       error
}

// GridResult summarizes an exhaustive grid search.
type GridResult struct {
	Best      Params
	BestScore float64
	BestIndex int
	Cells     []GridCell
}

// ErrAllCellsFailed is returned when no grid configuration could be scored.
var ErrAllCellsFailed = errors.New("every grid configuration failed")

// GridSearch scores every configuration of grid applied to base by k-fold
// R² and keeps the first configuration with the highest mean. Cells run in
// parallel up to base.Workers; each cell fits its trees sequentially.
// A failing cell is recorded and skipped.
func GridSearch(ctx context.Context, base Params, grid Grid, x [][]float64, y []float64, k int) (*GridResult, error) {
	candidates := grid.Expand(base)
	cells := make([]GridCell, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(base.workers())
	for i, p := range candidates {
		g.Go(func() error {
			p.Workers = 1
			cells[i].Params = p
			if err := p.Validate(); err != nil {
				cells[i].Err = err
				return nil
			}
			scores, err := CrossValScore(gctx, p, x, y, k)
			if err != nil {
				if contextCancelled(gctx) {
					return gctx.Err()
				}
				cells[i].Err = err
				return nil
			}
			cells[i].MeanScore, cells[i].StdScore = MeanStd(scores)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("grid search: %w", err)
	}

	result := &GridResult{BestIndex: -1, Cells: cells}
	for i := range cells {
		if cells[i].Err != nil {
			continue
		}
		if result.BestIndex < 0 || cells[i].MeanScore > result.BestScore {
			result.BestIndex = i
			result.BestScore = cells[i].MeanScore
		}
	}
	if result.BestIndex < 0 {
		return nil, ErrAllCellsFailed
	}
	result.Best = cells[result.BestIndex].Params
	result.Best.Workers = base.Workers
	return result, nil
}
