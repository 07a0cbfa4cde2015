// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/tomtom215/phoneprice/internal/logging"
	"github.com/tomtom215/phoneprice/internal/pricing"
	"github.com/tomtom215/phoneprice/internal/storage"
	"github.com/tomtom215/phoneprice/internal/validation"
)

// maxLineBytes bounds one JSON lines record.
const maxLineBytes = 1 << 20

// batchLine is the result of one input line.
type batchLine struct {
	Line     int                     `json:"line"`
	Estimate *estimateOutput         `json:"estimate,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Invalid  []validation.FieldError `json:"invalid,omitempty"`
}

// specLine is one decoded input record.
type specLine struct {
	line int
	spec pricing.PhoneSpec
	err  error
}

// readSpecs decodes one PhoneSpec per non-blank line of r. A line that
// fails to decode or validate carries its error.
func readSpecs(r io.Reader) ([]specLine, error) {
	var lines []specLine
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		sl := specLine{line: n}
		if err := json.Unmarshal([]byte(text), &sl.spec); err != nil {
			sl.err = fmt.Errorf("decode: %w", err)
		} else if verr := validation.ValidateStruct(requestFromSpec(sl.spec)); verr != nil {
			sl.err = verr
		}
		lines = append(lines, sl)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}

func runBatch(ctx context.Context, est *pricing.Estimator, meta *storage.BundleMetadata, flags estimateFlags, cur currency, w io.Writer) error {
	f, err := os.Open(flags.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	lines, err := readSpecs(f)
	if err != nil {
		return err
	}

	results := make([]batchLine, 0, len(lines))
	failed := 0
	for _, sl := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := batchLine{Line: sl.line}
		var verr *validation.RequestValidationError
		if errors.As(sl.err, &verr) {
			res.Error = verr.Error()
			res.Invalid = verr.Errors()
		} else if sl.err != nil {
			res.Error = sl.err.Error()
		} else if e, err := est.Estimate(sl.spec); err != nil {
			res.Error = err.Error()
		} else {
			out := newEstimateOutput(e, meta, cur)
			res.Estimate = &out
		}
		if res.Error != "" {
			failed++
		}
		results = append(results, res)
	}

	if stats, ok := est.CacheStats(); ok {
		logging.Ctx(ctx).Debug().
			Int64("hits", stats.Hits).
			Int64("misses", stats.Misses).
			Int("size", stats.Size).
			Msg("Prediction cache")
	}

	if flags.json {
		enc := json.NewEncoder(w)
		for i := range results {
			if err := enc.Encode(&results[i]); err != nil {
				return err
			}
		}
	} else {
		printBatch(w, results, cur)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d estimates failed", failed, len(results))
	}
	return nil
}

func printBatch(w io.Writer, results []batchLine, cur currency) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tBRAND\tRAM\tSTORAGE\tPRICE\tSIMILAR\tVERDICT")
	for _, r := range results {
		if r.Estimate == nil {
			fmt.Fprintf(tw, "%d\terror: %s\t\t\t\t\t\n", r.Line, r.Error)
			continue
		}
		e := r.Estimate
		fmt.Fprintf(tw, "%d\t%s\t%d GB\t%d GB\t%s\t%d\t%s\n",
			r.Line, e.Spec.Brand, e.Spec.RAMGB, e.Spec.StorageGB,
			cur.format(e.Result.FinalPrice), e.Result.ComparableCount, verdictText[e.Verdict])
	}
	_ = tw.Flush() //nolint:errcheck // best-effort console output
}
