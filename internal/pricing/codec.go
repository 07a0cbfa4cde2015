// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeCategory trims whitespace and applies Unicode NFC so that
// visually identical names map to the same code.
func normalizeCategory(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// CodecState is the persisted form of a Codec.
type CodecState struct {
	Field   string   `json:"field"`
	Classes []string `json:"classes"`
}

// Codec maps the values of one categorical field to dense integer codes.
// Codes follow the sorted order of the distinct values seen at fit time.
// A Codec is immutable once built.
type Codec struct {
	field   string
	classes []string
	index   map[string]int
}

// FitCodec builds a codec over the distinct normalized values.
func FitCodec(field string, values []string) *Codec {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[normalizeCategory(v)] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	slices.Sort(classes)
	return newCodec(field, classes)
}

// RestoreCodec rebuilds a codec from its persisted state. Classes must be
// sorted and distinct.
func RestoreCodec(state CodecState) (*Codec, error) {
	for i := 1; i < len(state.Classes); i++ {
		if state.Classes[i-1] >= state.Classes[i] {
			return nil, fmt.Errorf("%s codec classes are not sorted and distinct at %d", state.Field, i)
		}
	}
	return newCodec(state.Field, slices.Clone(state.Classes)), nil
}

func newCodec(field string, classes []string) *Codec {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &Codec{field: field, classes: classes, index: index}
}

// Transform returns the code of value, or an *UnknownCategoryError.
func (c *Codec) Transform(value string) (int, error) {
	code, ok := c.index[normalizeCategory(value)]
	if !ok {
		return 0, &UnknownCategoryError{Field: c.field, Value: value}
	}
	return code, nil
}

// Inverse returns the value for code.
func (c *Codec) Inverse(code int) (string, error) {
	if code < 0 || code >= len(c.classes) {
		return "", fmt.Errorf("%s code %d out of range [0, %d)", c.field, code, len(c.classes))
	}
	return c.classes[code], nil
}

// Classes returns the known values in code order.
func (c *Codec) Classes() []string {
	return slices.Clone(c.classes)
}

// Len returns the number of known values.
func (c *Codec) Len() int {
	return len(c.classes)
}

// Field returns the name of the encoded field.
func (c *Codec) Field() string {
	return c.field
}

// State returns the persisted form of c.
func (c *Codec) State() CodecState {
	return CodecState{Field: c.field, Classes: slices.Clone(c.classes)}
}
