// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package regression

import (
	"math/rand"
	"sort"
)

// leafFeature marks a leaf in Tree.Feature.
const leafFeature = -1

// minImpurity is the per-sample variance below which a node is not split.
const minImpurity = 1e-14

// Tree is a fitted CART regression tree stored as flat arrays so that it
// encodes compactly with gob. Node 0 is the root.
type Tree struct {
	Feature   []int
	Threshold []float64
	Left      []int
	Right     []int
	Value     []float64

	// Importances holds the normalized impurity decrease per feature.
	Importances []float64
}

// Predict walks the tree for one row.
func (t *Tree) Predict(row []float64) float64 {
	node := 0
	for t.Feature[node] != leafFeature {
		if row[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

// NodeCount returns the number of nodes.
func (t *Tree) NodeCount() int {
	return len(t.Feature)
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(node, depth int) int
	walk = func(node, depth int) int {
		if t.Feature[node] == leafFeature {
			return depth
		}
		return max(walk(t.Left[node], depth+1), walk(t.Right[node], depth+1))
	}
	return walk(0, 0)
}

func (t *Tree) addNode(value float64) int {
	t.Feature = append(t.Feature, leafFeature)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, -1)
	t.Right = append(t.Right, -1)
	t.Value = append(t.Value, value)
	return len(t.Feature) - 1
}

// treeConfig holds the resolved growth limits of one tree.
type treeConfig struct {
	maxDepth    int // 0 = unlimited
	minSplit    int
	minLeaf     int
	maxFeatures int
	randomSplit bool
}

// treeBuilder grows one tree. It is not safe for concurrent use.
type treeBuilder struct {
	cfg  treeConfig
	x    [][]float64
	y    []float64
	rng  *rand.Rand
	tree *Tree
	gain []float64

	order []int
}

type split struct {
	ok        bool
	feature   int
	threshold float64
	sse       float64 // combined child sum of squared errors
}

// growTree fits a tree on the rows listed in idx. idx may contain repeats
// (bootstrap samples) and is reordered in place.
func growTree(cfg treeConfig, x [][]float64, y []float64, idx []int, rng *rand.Rand) *Tree {
	d := len(x[0])
	b := &treeBuilder{
		cfg:   cfg,
		x:     x,
		y:     y,
		rng:   rng,
		tree:  &Tree{},
		gain:  make([]float64, d),
		order: make([]int, len(idx)),
	}
	b.build(idx, 0)

	var total float64
	for _, g := range b.gain {
		total += g
	}
	if total > 0 {
		for i := range b.gain {
			b.gain[i] /= total
		}
	}
	b.tree.Importances = b.gain
	return b.tree
}

func (b *treeBuilder) build(idx []int, depth int) int {
	n := len(idx)
	var sum, sumSq float64
	for _, i := range idx {
		v := b.y[i]
		sum += v
		sumSq += v * v
	}
	nf := float64(n)
	sse := sumSq - sum*sum/nf
	if sse < 0 {
		sse = 0
	}
	node := b.tree.addNode(sum / nf)

	if (b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth) ||
		n < b.cfg.minSplit || n < 2*b.cfg.minLeaf || sse/nf <= minImpurity {
		return node
	}

	s := b.findSplit(idx, sum, sumSq)
	if !s.ok {
		return node
	}

	// Partition idx so that rows going left come first.
	lo, hi := 0, n-1
	for lo <= hi {
		if b.x[idx[lo]][s.feature] <= s.threshold {
			lo++
		} else {
			idx[lo], idx[hi] = idx[hi], idx[lo]
			hi--
		}
	}
	if lo == 0 || lo == n {
		return node
	}

	b.gain[s.feature] += sse - s.sse
	b.tree.Feature[node] = s.feature
	b.tree.Threshold[node] = s.threshold
	left := b.build(idx[:lo], depth+1)
	right := b.build(idx[lo:], depth+1)
	b.tree.Left[node] = left
	b.tree.Right[node] = right
	return node
}

// findSplit visits features in random order. Constant features do not count
// towards maxFeatures, and the search continues past maxFeatures until at
// least one valid split is found.
func (b *treeBuilder) findSplit(idx []int, sum, sumSq float64) split {
	var best split
	visited := 0
	for _, f := range b.rng.Perm(len(b.gain)) {
		if visited >= b.cfg.maxFeatures && best.ok {
			break
		}
		var s split
		var constant bool
		if b.cfg.randomSplit {
			s, constant = b.randomSplit(idx, f, sum, sumSq)
		} else {
			s, constant = b.bestSplit(idx, f, sum, sumSq)
		}
		if constant {
			continue
		}
		visited++
		if s.ok && (!best.ok || s.sse < best.sse) {
			best = s
		}
	}
	return best
}

func (b *treeBuilder) bestSplit(idx []int, f int, sum, sumSq float64) (split, bool) {
	n := len(idx)
	order := b.order[:n]
	copy(order, idx)
	x := b.x
	sort.Slice(order, func(i, j int) bool { return x[order[i]][f] < x[order[j]][f] })

	if x[order[0]][f] >= x[order[n-1]][f] {
		return split{}, true
	}

	var best split
	var sumL, sumSqL float64
	minLeaf := b.cfg.minLeaf
	for i := 0; i < n-1; i++ {
		v := b.y[order[i]]
		sumL += v
		sumSqL += v * v
		nL := i + 1
		nR := n - nL
		if nL < minLeaf {
			continue
		}
		if nR < minLeaf {
			break
		}
		xi, xn := x[order[i]][f], x[order[i+1]][f]
		if xn <= xi {
			continue
		}
		sumR := sum - sumL
		sseL := sumSqL - sumL*sumL/float64(nL)
		sseR := (sumSq - sumSqL) - sumR*sumR/float64(nR)
		total := sseL + sseR
		if !best.ok || total < best.sse {
			thr := xi/2 + xn/2
			if thr >= xn {
				thr = xi
			}
			best = split{ok: true, feature: f, threshold: thr, sse: total}
		}
	}
	return best, false
}

func (b *treeBuilder) randomSplit(idx []int, f int, sum, sumSq float64) (split, bool) {
	lo, hi := b.x[idx[0]][f], b.x[idx[0]][f]
	for _, i := range idx[1:] {
		v := b.x[i][f]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return split{}, true
	}

	thr := lo + b.rng.Float64()*(hi-lo)
	if thr >= hi {
		thr = lo
	}

	var sumL, sumSqL float64
	nL := 0
	for _, i := range idx {
		if b.x[i][f] <= thr {
			v := b.y[i]
			sumL += v
			sumSqL += v * v
			nL++
		}
	}
	nR := len(idx) - nL
	if nL < b.cfg.minLeaf || nR < b.cfg.minLeaf {
		return split{}, false
	}
	sumR := sum - sumL
	sseL := sumSqL - sumL*sumL/float64(nL)
	sseR := (sumSq - sumSqL) - sumR*sumR/float64(nR)
	return split{ok: true, feature: f, threshold: thr, sse: sseL + sseR}, false
}
