// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

// Package pricing turns phone specifications into price estimates.
//
// An estimate flows through these stages:
//
//	PhoneSpec -> FeatureEngineer -> Codec -> Scaler -> regression.Model
//	          -> expm1 -> raw prediction
//	PhoneSpec -> ComparableIndex -> comparable average
//	raw prediction + comparable average -> Blender -> final price
//
// The fitted transform chain and model travel together in a Bundle.
// An Estimator owns an immutable snapshot of the reference dataset, the
// comparable index and the bundle, and is safe for concurrent use.
package pricing

import (
	"math"

	"github.com/tomtom215/phoneprice/internal/dataset"
)

// Feature column names, in canonical order.
const (
	FeatureBrand           = "Brand"
	FeatureBattery         = "Battery capacity (mAh)"
	FeatureScreen          = "Screen size (inches)"
	FeatureProcessor       = "Processor"
	FeatureRAMMB           = "RAM (MB)"
	FeatureStorage         = "Internal storage (GB)"
	FeatureRearCamera      = "Rear camera"
	FeatureFrontCamera     = "Front camera"
	FeaturePricePerGB      = "Price_per_GB"
	FeaturePricePerMP      = "Price_per_MP"
	FeatureScreenToBattery = "Screen_to_Battery_Ratio"
	FeatureCameraTotal     = "Camera_Total"
	FeatureRAMGB           = "RAM_GB"
	FeaturePricePerRAM     = "Price_per_RAM"
	FeatureBatteryToScreen = "Battery_to_Screen_Ratio"
	FeatureIsPremium       = "Is_Premium"
)

// Column positions in FeatureNames.
const (
	colBrand = iota
	colBattery
	colScreen
	colProcessor
	colRAMMB
	colStorage
	colRear
	colFront
	colPricePerGB
	colPricePerMP
	colScreenToBattery
	colCameraTotal
	colRAMGB
	colPricePerRAM
	colBatteryToScreen
	colIsPremium
	numFeatures
)

// FeatureNames returns the canonical feature order.
func FeatureNames() []string {
	return []string{
		FeatureBrand,
		FeatureBattery,
		FeatureScreen,
		FeatureProcessor,
		FeatureRAMMB,
		FeatureStorage,
		FeatureRearCamera,
		FeatureFrontCamera,
		FeaturePricePerGB,
		FeaturePricePerMP,
		FeatureScreenToBattery,
		FeatureCameraTotal,
		FeatureRAMGB,
		FeaturePricePerRAM,
		FeatureBatteryToScreen,
		FeatureIsPremium,
	}
}

// Fallbacks for non-positive divisors.
const (
	screenToBatteryFallback = 1.0
	batteryToScreenFallback = 3000.0
)

// premiumBrands are flagged by Is_Premium.
var premiumBrands = map[string]struct{}{
	"Apple":   {},
	"Samsung": {},
	"OnePlus": {},
}

// IsPremium reports whether brand is one of the premium brands.
func IsPremium(brand string) bool {
	_, ok := premiumBrands[normalizeCategory(brand)]
	return ok
}

// FeatureRow is one derived feature row before categorical encoding.
// Values follows FeatureNames; the Brand and Processor slots hold 0 until
// the row is encoded.
type FeatureRow struct {
	Brand     string
	Processor string
	Values    []float64
}

// FeatureEngineer derives the model features from raw phone data.
//
// In training mode each row's own price feeds the price ratios. At
// inference the price is unknown, so the dataset mean price is used
// instead. Non-positive divisors are replaced by fixed fallbacks and never
// produce errors.
type FeatureEngineer struct {
	meanPrice float64
}

// NewFeatureEngineer returns an engineer using meanPrice for fallbacks and
// inference.
func NewFeatureEngineer(meanPrice float64) FeatureEngineer {
	return FeatureEngineer{meanPrice: meanPrice}
}

// MeanPrice returns the dataset mean price the engineer was built with.
func (fe FeatureEngineer) MeanPrice() float64 {
	return fe.meanPrice
}

// Training derives one row per phone using its own price. Any non-finite
// numeric cell is then replaced by the mean of the finite cells in its
// column.
func (fe FeatureEngineer) Training(phones []dataset.Phone) []FeatureRow {
	rows := make([]FeatureRow, len(phones))
	for i := range phones {
		rows[i] = fe.derive(&phones[i], phones[i].Price)
	}
	fillNonFinite(rows)
	return rows
}

// Inference derives the row for a query, using the mean price for every
// price ratio.
func (fe FeatureEngineer) Inference(spec PhoneSpec) FeatureRow {
	p := spec.phone()
	return fe.derive(&p, fe.meanPrice)
}

func (fe FeatureEngineer) derive(p *dataset.Phone, price float64) FeatureRow {
	v := make([]float64, numFeatures)
	v[colBattery] = p.BatteryMAh
	v[colScreen] = p.ScreenInches
	v[colRAMMB] = p.RAMMB
	v[colStorage] = p.StorageGB
	v[colRear] = p.RearMP
	v[colFront] = p.FrontMP

	cameraTotal := p.RearMP + p.FrontMP
	v[colCameraTotal] = cameraTotal
	v[colRAMGB] = p.RAMMB / MBPerGB

	v[colPricePerGB] = fe.ratio(price, p.StorageGB)
	v[colPricePerMP] = fe.ratio(price, cameraTotal)
	v[colPricePerRAM] = fe.ratio(price, p.RAMMB)

	if p.BatteryMAh > 0 {
		v[colScreenToBattery] = p.ScreenInches / (p.BatteryMAh / 1000)
	} else {
		v[colScreenToBattery] = screenToBatteryFallback
	}
	if p.ScreenInches > 0 {
		v[colBatteryToScreen] = p.BatteryMAh / p.ScreenInches
	} else {
		v[colBatteryToScreen] = batteryToScreenFallback
	}

	if IsPremium(p.Brand) {
		v[colIsPremium] = 1
	}

	return FeatureRow{
		Brand:     p.Brand,
		Processor: p.Processor,
		Values:    v,
	}
}

// ratio divides price by a positive divisor, falling back to the mean price.
func (fe FeatureEngineer) ratio(price, divisor float64) float64 {
	if divisor > 0 {
		return price / divisor
	}
	return fe.meanPrice
}

func fillNonFinite(rows []FeatureRow) {
	for col := 0; col < numFeatures; col++ {
		if col == colBrand || col == colProcessor {
			continue
		}
		var sum float64
		var n int
		for i := range rows {
			if v := rows[i].Values[col]; isFinite(v) {
				sum += v
				n++
			}
		}
		if n == len(rows) {
			continue
		}
		var mean float64
		if n > 0 {
			mean = sum / float64(n)
		}
		for i := range rows {
			if !isFinite(rows[i].Values[col]) {
				rows[i].Values[col] = mean
			}
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
