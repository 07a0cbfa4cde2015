// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrUnknownCategory is matched by every *UnknownCategoryError.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrDegenerateFeature is matched by every *DegenerateFeatureError.
	ErrDegenerateFeature = errors.New("degenerate feature")

	// ErrBundleMismatch means a bundle failed its schema or fingerprint check.
	ErrBundleMismatch = errors.New("model bundle mismatch")
)

// UnknownCategoryError reports a brand or processor that was not seen when
// the codec was fitted. The user can correct it by choosing a known value.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Field, e.Value)
}

// Is reports whether target is ErrUnknownCategory.
func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}

// DegenerateFeatureError reports a column whose interquartile range is zero,
// which makes robust scaling undefined.
type DegenerateFeatureError struct {
	Feature string
	Median  float64
}

func (e *DegenerateFeatureError) Error() string {
	return fmt.Sprintf("feature %q has zero interquartile range (median %g)", e.Feature, e.Median)
}

// Is reports whether target is ErrDegenerateFeature.
func (e *DegenerateFeatureError) Is(target error) bool {
	return target == ErrDegenerateFeature
}
