// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"fmt"
	"math"

	"github.com/tomtom215/phoneprice/internal/cache"
	"github.com/tomtom215/phoneprice/internal/metrics"
	"github.com/tomtom215/phoneprice/internal/pricing/regression"
)

// Predictor applies a trained bundle to one phone.
type Predictor struct {
	features FeatureEngineer
	pre      *Preprocessor
	model    regression.Model

	// cache memoizes predictions by normalized spec. nil disables it.
	cache *cache.LRU[PhoneSpec, float64]
}

// NewPredictor verifies b and prepares it for inference. meanPrice is the
// reference dataset mean price used by inference-mode features.
func NewPredictor(b *Bundle, meanPrice float64) (*Predictor, error) {
	if err := b.Verify(); err != nil {
		return nil, err
	}
	pre, err := b.Preprocessor()
	if err != nil {
		return nil, fmt.Errorf("restore preprocessing: %w", err)
	}
	return &Predictor{
		features: NewFeatureEngineer(meanPrice),
		pre:      pre,
		model:    b.Model,
	}, nil
}

// Predict returns the model price for spec in the dataset currency. The
// model works on log1p(price); the result is mapped back with expm1. A
// NaN, infinite or negative result is replaced by 0.
func (p *Predictor) Predict(spec PhoneSpec) (float64, error) {
	key := spec.normalized()
	if p.cache != nil {
		if price, ok := p.cache.Get(key); ok {
			metrics.RecordPredictionCache(true)
			return price, nil
		}
		metrics.RecordPredictionCache(false)
	}

	x, err := p.pre.Transform(p.features.Inference(spec))
	if err != nil {
		return 0, err
	}
	price := math.Expm1(p.model.Predict(x))
	if !isFinite(price) || price < 0 {
		metrics.RecordNonFinitePrediction()
		price = 0
	}
	if p.cache != nil {
		p.cache.Add(key, price)
	}
	return price, nil
}

// EnableCache memoizes up to capacity predictions. It must be called before
// the predictor is shared.
func (p *Predictor) EnableCache(capacity int) {
	p.cache = cache.NewLRU[PhoneSpec, float64](capacity)
}

// CacheStats returns the prediction cache counters, or false when caching
// is disabled.
func (p *Predictor) CacheStats() (cache.Stats, bool) {
	if p.cache == nil {
		return cache.Stats{}, false
	}
	return p.cache.Stats(), true
}

// Preprocessor returns the fitted transform chain.
func (p *Predictor) Preprocessor() *Preprocessor {
	return p.pre
}
