// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package main

import (
	"io"

	"github.com/goccy/go-json"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// currency formats dataset prices (INR) for display in USD.
type currency struct {
	rate float64
	p    *message.Printer
}

func newCurrency(rate float64) currency {
	return currency{rate: rate, p: message.NewPrinter(language.English)}
}

// usd converts an INR amount to USD.
func (c currency) usd(inr float64) float64 {
	if c.rate <= 0 {
		return inr
	}
	return inr / c.rate
}

// format renders an INR amount as grouped USD, e.g. "$1,234.56".
func (c currency) format(inr float64) string {
	return c.p.Sprintf("$%.2f", c.usd(inr))
}

// formatINR renders an INR amount with grouping, e.g. "₹12,999".
func (c currency) formatINR(inr float64) string {
	return c.p.Sprintf("₹%.0f", inr)
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
