// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
)

type testReport struct {
	Family string  `json:"family"`
	TestR2 float64 `json:"test_r2"`
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("badger.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRegistry(db)
}

func TestRegistry_RecordAndGet(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	entry, err := reg.Record(ctx, "run-1", testReport{Family: "ExtraTrees", TestR2: 0.91})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if entry.RunID != "run-1" || entry.RecordedAt.IsZero() {
		t.Errorf("Record() = %+v", entry)
	}

	got, err := reg.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	var report testReport
	if err := got.Decode(&report); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if report.Family != "ExtraTrees" || report.TestR2 != 0.91 {
		t.Errorf("report = %+v", report)
	}

	if _, err := reg.Get(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrRunNotFound", err)
	}
}

func TestRegistry_ListNewestFirst(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := reg.Record(ctx, id, testReport{Family: id}); err != nil {
			t.Fatalf("Record(%s) error = %v", id, err)
		}
	}

	all, err := reg.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() returned %d runs, want 3", len(all))
	}
	for i, want := range []string{"c", "b", "a"} {
		if all[i].RunID != want {
			t.Errorf("List()[%d] = %s, want %s", i, all[i].RunID, want)
		}
	}

	limited, err := reg.List(ctx, 2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 || limited[0].RunID != "c" {
		t.Errorf("List(2) = %+v", limited)
	}
}

func TestRegistry_Delete(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	if _, err := reg.Record(ctx, "run-1", testReport{}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := reg.Delete(ctx, "run-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := reg.Get(ctx, "run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrRunNotFound", err)
	}
	if err := reg.Delete(ctx, "run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrRunNotFound", err)
	}
	runs, _ := reg.List(ctx, 0)
	if len(runs) != 0 {
		t.Errorf("List() after delete = %+v", runs)
	}
}

func TestOpenRegistry(t *testing.T) {
	dir := t.TempDir()
	reg, err := OpenRegistry(dir)
	if err != nil {
		t.Fatalf("OpenRegistry() error = %v", err)
	}
	if _, err := reg.Record(context.Background(), "persisted", testReport{Family: "GradientBoosting"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := reg.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reg, err = OpenRegistry(dir)
	if err != nil {
		t.Fatalf("OpenRegistry() reopen error = %v", err)
	}
	defer func() { _ = reg.Close() }()
	if _, err := reg.Get(context.Background(), "persisted"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}
