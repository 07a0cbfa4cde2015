// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import "github.com/tomtom215/phoneprice/internal/dataset"

// MBPerGB converts the RAM unit of a query (GB) to the dataset unit (MB).
const MBPerGB = 1000

// PhoneSpec is the hardware description of a phone to price.
// Divisor fields should be positive; zero values are tolerated.
type PhoneSpec struct {
	Brand        string  `json:"brand"`
	Processor    string  `json:"processor"`
	BatteryMAh   int     `json:"battery_mah"`
	ScreenInches float64 `json:"screen_inches"`
	RAMGB        int     `json:"ram_gb"`
	StorageGB    int     `json:"storage_gb"`
	RearMP       int     `json:"rear_mp"`
	FrontMP      int     `json:"front_mp"`
}

// RAMMB returns the RAM in dataset units.
func (s PhoneSpec) RAMMB() float64 {
	return float64(s.RAMGB) * MBPerGB
}

// phone returns s as a dataset row without a price.
func (s PhoneSpec) phone() dataset.Phone {
	return dataset.Phone{
		Brand:        s.Brand,
		Processor:    s.Processor,
		BatteryMAh:   float64(s.BatteryMAh),
		ScreenInches: s.ScreenInches,
		RAMMB:        s.RAMMB(),
		StorageGB:    float64(s.StorageGB),
		RearMP:       float64(s.RearMP),
		FrontMP:      float64(s.FrontMP),
	}
}

// normalized returns s with its categorical fields normalized the way the
// codecs see them.
func (s PhoneSpec) normalized() PhoneSpec {
	s.Brand = normalizeCategory(s.Brand)
	s.Processor = normalizeCategory(s.Processor)
	return s
}
