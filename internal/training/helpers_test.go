// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package training

import (
	"github.com/tomtom215/phoneprice/internal/dataset"
	"github.com/tomtom215/phoneprice/internal/pricing"
	"github.com/tomtom215/phoneprice/internal/pricing/regression"
)

var testBrands = []string{"Apple", "Motorola", "OnePlus", "Realme", "Samsung", "Xiaomi"}

// testPhones returns n varied phones whose price follows storage, RAM and
// brand tier.
func testPhones(n int) []dataset.Phone {
	return testPhonesWithBrands(n, testBrands)
}

// testPhonesWithBrands is testPhones cycling through brands.
func testPhonesWithBrands(n int, brands []string) []dataset.Phone {
	rams := []float64{2000, 3000, 4000, 6000, 8000}
	storages := []float64{32, 64, 128, 256}
	rears := []float64{12, 13, 48, 64}
	fronts := []float64{5, 8, 16, 32}
	processors := []string{"4", "6", "8"}

	phones := make([]dataset.Phone, n)
	for i := range phones {
		brand := brands[i%len(brands)]
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
		if pricing.IsPremium(brand) {
			p.Price += 8000
		}
		phones[i] = p
	}
	return phones
}

// testOptions returns options small enough for unit tests.
func testOptions() Options {
	return Options{
		Clean: dataset.CleanOptions{
			TrimOutliers: true,
			Lower:        0.01,
			Upper:        0.99,
		},
		Seed:           42,
		TestSize:       0.15,
		CVFolds:        3,
		GridFolds:      2,
		Workers:        2,
		BaseEstimators: 10,
		TargetR2:       0.5,
		Families: []regression.Family{
			regression.RandomForest,
			regression.GradientBoosting,
			regression.ExtraTrees,
		},
		Grids: map[regression.Family]regression.Grid{
			regression.RandomForest: {
				NEstimators: []int{10},
				MaxDepth:    []int{0, 6},
				MaxFeatures: []regression.MaxFeatures{regression.AllFeatures},
			},
			regression.GradientBoosting: {
				NEstimators:  []int{20},
				LearningRate: []float64{0.1, 0.3},
				MaxDepth:     []int{3},
			},
			regression.ExtraTrees: {
				NEstimators:     []int{10},
				MinSamplesSplit: []int{2, 4},
			},
		},
	}
}
