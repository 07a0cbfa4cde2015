// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

// Package dataset holds the phone reference data: row types, cleaning and
// summary statistics shared by training and estimation.
package dataset

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned when a dataset has no usable rows.
var ErrEmpty = errors.New("dataset has no usable rows")

// Phone is one row of the reference dataset. Prices are in the dataset
// currency (INR).
type Phone struct {
	Brand        string  `json:"brand" db:"brand"`
	Processor    string  `json:"processor" db:"processor"`
	BatteryMAh   float64 `json:"battery_mah" db:"battery_mah"`
	ScreenInches float64 `json:"screen_inches" db:"screen_inches"`
	RAMMB        float64 `json:"ram_mb" db:"ram_mb"`
	StorageGB    float64 `json:"storage_gb" db:"storage_gb"`
	RearMP       float64 `json:"rear_mp" db:"rear_mp"`
	FrontMP      float64 `json:"front_mp" db:"front_mp"`
	Price        float64 `json:"price" db:"price"`
}

// Finite reports whether every numeric field is a finite number.
func (p *Phone) Finite() bool {
	for _, v := range [...]float64{p.BatteryMAh, p.ScreenInches, p.RAMMB, p.StorageGB, p.RearMP, p.FrontMP, p.Price} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Summary holds dataset-wide statistics used by feature derivation and
// market comparisons.
type Summary struct {
	Count          int     `json:"count"`
	MeanPrice      float64 `json:"mean_price"`
	MeanBattery    float64 `json:"mean_battery_mah"`
	MeanScreen     float64 `json:"mean_screen_inches"`
	MeanRAMMB      float64 `json:"mean_ram_mb"`
	MeanStorage    float64 `json:"mean_storage_gb"`
	MeanRearMP     float64 `json:"mean_rear_mp"`
	MeanFrontMP    float64 `json:"mean_front_mp"`
	MedianPrice    float64 `json:"median_price"`
	StdDevPrice    float64 `json:"stddev_price"`
	MinPrice       float64 `json:"min_price"`
	MaxPrice       float64 `json:"max_price"`
	BrandCount     int     `json:"brand_count"`
	ProcessorCount int     `json:"processor_count"`
}

// PricePerGB is the market price per gigabyte of storage.
// Returns 0 when mean storage is not positive.
func (s Summary) PricePerGB() float64 {
	if s.MeanStorage <= 0 {
		return 0
	}
	return s.MeanPrice / s.MeanStorage
}

// PricePerMP is the market price per megapixel of combined camera resolution.
// Returns 0 when the mean camera total is not positive.
func (s Summary) PricePerMP() float64 {
	total := s.MeanRearMP + s.MeanFrontMP
	if total <= 0 {
		return 0
	}
	return s.MeanPrice / total
}

// Dataset is an immutable set of phones with precomputed statistics.
// It is safe for concurrent reads.
type Dataset struct {
	phones     []Phone
	summary    Summary
	brands     []string
	processors []string
}

// New builds a Dataset from phones. The slice is copied.
func New(phones []Phone) (*Dataset, error) {
	if len(phones) == 0 {
		return nil, ErrEmpty
	}
	rows := slices.Clone(phones)

	n := len(rows)
	price := make([]float64, n)
	battery := make([]float64, n)
	screen := make([]float64, n)
	ram := make([]float64, n)
	storage := make([]float64, n)
	rear := make([]float64, n)
	front := make([]float64, n)
	brandSet := make(map[string]struct{})
	procSet := make(map[string]struct{})

	for i := range rows {
		p := &rows[i]
		price[i] = p.Price
		battery[i] = p.BatteryMAh
		screen[i] = p.ScreenInches
		ram[i] = p.RAMMB
		storage[i] = p.StorageGB
		rear[i] = p.RearMP
		front[i] = p.FrontMP
		brandSet[p.Brand] = struct{}{}
		procSet[p.Processor] = struct{}{}
	}

	sorted := slices.Clone(price)
	slices.Sort(sorted)

	ds := &Dataset{
		phones: rows,
		summary: Summary{
			Count:          n,
			MeanPrice:      stat.Mean(price, nil),
			MeanBattery:    stat.Mean(battery, nil),
			MeanScreen:     stat.Mean(screen, nil),
			MeanRAMMB:      stat.Mean(ram, nil),
			MeanStorage:    stat.Mean(storage, nil),
			MeanRearMP:     stat.Mean(rear, nil),
			MeanFrontMP:    stat.Mean(front, nil),
			MedianPrice:    QuantileSorted(sorted, 0.5),
			MinPrice:       sorted[0],
			MaxPrice:       sorted[n-1],
			BrandCount:     len(brandSet),
			ProcessorCount: len(procSet),
		},
		brands:     sortedKeys(brandSet),
		processors: sortedKeys(procSet),
	}
	if n > 1 {
		ds.summary.StdDevPrice = stat.StdDev(price, nil)
	}
	return ds, nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.phones) }

// At returns row i.
func (d *Dataset) At(i int) Phone { return d.phones[i] }

// Phones returns a copy of every row.
func (d *Dataset) Phones() []Phone { return slices.Clone(d.phones) }

// Summary returns the precomputed statistics.
func (d *Dataset) Summary() Summary { return d.summary }

// Brands returns the sorted distinct brand names.
func (d *Dataset) Brands() []string { return slices.Clone(d.brands) }

// Processors returns the sorted distinct processor names.
func (d *Dataset) Processors() []string { return slices.Clone(d.processors) }
