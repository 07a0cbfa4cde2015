// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"testing"

	"github.com/tomtom215/phoneprice/internal/dataset"
)

func comparableDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	phones := []dataset.Phone{
		// Inside the 128 GB / 8 GB window, including both edges.
		{Brand: "A", StorageGB: 128, RAMMB: 8000, Price: 10000},
		{Brand: "B", StorageGB: 102.4, RAMMB: 6400, Price: 11000},
		{Brand: "C", StorageGB: 153.6, RAMMB: 9600, Price: 12000},
		{Brand: "D", StorageGB: 128, RAMMB: 7000, Price: 13000},
		// Storage fits, RAM does not.
		{Brand: "E", StorageGB: 128, RAMMB: 4000, Price: 99000},
		{Brand: "F", StorageGB: 128, RAMMB: 12000, Price: 99000},
		// RAM fits, storage does not.
		{Brand: "G", StorageGB: 64, RAMMB: 8000, Price: 99000},
		{Brand: "H", StorageGB: 256, RAMMB: 8000, Price: 99000},
	}
	ds, err := dataset.New(phones)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	return ds
}

func TestComparableIndexFind(t *testing.T) {
	idx := NewComparableIndex(comparableDataset(t), 0)
	if idx.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", idx.Len())
	}

	set := idx.Find(PhoneSpec{StorageGB: 128, RAMGB: 8})
	if set.Len() != 4 {
		t.Fatalf("Len() = %d, want 4: %+v", set.Len(), set.Phones)
	}
	brands := make(map[string]bool)
	for _, p := range set.Phones {
		brands[p.Brand] = true
	}
	for _, b := range []string{"A", "B", "C", "D"} {
		if !brands[b] {
			t.Errorf("phone %s missing from the comparable set", b)
		}
	}
	if set.Average != 11500 {
		t.Errorf("Average = %v, want 11500", set.Average)
	}
}

func TestComparableIndexEmpty(t *testing.T) {
	idx := NewComparableIndex(comparableDataset(t), DefaultComparableWindow)

	tests := []struct {
		name string
		spec PhoneSpec
	}{
		{"no storage match", PhoneSpec{StorageGB: 1024, RAMGB: 8}},
		{"no ram match", PhoneSpec{StorageGB: 128, RAMGB: 16}},
		{"zero spec", PhoneSpec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := idx.Find(tt.spec)
			if !set.Empty() || set.Average != 0 {
				t.Errorf("Find() = %+v, want empty", set)
			}
		})
	}
}

func TestComparableIndexWindow(t *testing.T) {
	idx := NewComparableIndex(comparableDataset(t), 0.5)
	// 64..192 GB and 4000..12000 MB now covers every row except H.
	if got := idx.Find(PhoneSpec{StorageGB: 128, RAMGB: 8}).Len(); got != 7 {
		t.Errorf("Len() = %d, want 7", got)
	}
}
