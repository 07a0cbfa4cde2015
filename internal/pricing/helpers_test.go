// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/phoneprice/internal/dataset"
	"github.com/tomtom215/phoneprice/internal/pricing/regression"
)

var testBrands = []string{"Apple", "Motorola", "OnePlus", "Realme", "Samsung", "Xiaomi"}

// syntheticPhones returns n varied phones with no constant feature column
// and half of them from premium brands.
func syntheticPhones(n int) []dataset.Phone {
	rams := []float64{2000, 3000, 4000, 6000, 8000}
	storages := []float64{32, 64, 128, 256}
	rears := []float64{12, 13, 48, 64}
	fronts := []float64{5, 8, 16, 32}
	processors := []string{"4", "6", "8"}

	phones := make([]dataset.Phone, n)
	for i := range phones {
		brand := testBrands[i%len(testBrands)]
		p := dataset.Phone{
			Brand:        brand,
			Processor:    processors[i%len(processors)],
			BatteryMAh:   3000 + 100*float64(i%20),
			ScreenInches: 5.0 + 0.1*float64(i%15),
			RAMMB:        rams[i%len(rams)],
			StorageGB:    storages[i%len(storages)],
			RearMP:       rears[(i/2)%len(rears)],
			FrontMP:      fronts[(i/3)%len(fronts)],
		}
		p.Price = 5000 + 40*p.StorageGB + 1.5*p.RAMMB + 10*float64(i)
		if IsPremium(brand) {
			p.Price += 8000
		}
		phones[i] = p
	}
	return phones
}

// trainBundle fits a small forest on phones the way the training pipeline
// does and returns the bundle.
func trainBundle(t *testing.T, phones []dataset.Phone) *Bundle {
	t.Helper()

	ds, err := dataset.New(phones)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	rows := NewFeatureEngineer(ds.Summary().MeanPrice).Training(phones)
	pre, x, err := FitPreprocessor(rows)
	if err != nil {
		t.Fatalf("FitPreprocessor() error = %v", err)
	}
	y := make([]float64, len(phones))
	for i := range phones {
		y[i] = math.Log1p(phones[i].Price)
	}

	p := regression.DefaultParams(regression.RandomForest, 42)
	p.NEstimators = 20
	model, err := regression.Fit(context.Background(), p, x, y)
	if err != nil {
		t.Fatalf("regression.Fit() error = %v", err)
	}
	b, err := NewBundle("test-run", pre, model, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewBundle() error = %v", err)
	}
	return b
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
