// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"github.com/google/btree"

	"github.com/tomtom215/phoneprice/internal/dataset"
)

// DefaultComparableWindow is the relative storage and RAM tolerance.
const DefaultComparableWindow = 0.2

// btreeDegree is the fan-out of the storage index.
const btreeDegree = 16

// storageKey orders dataset rows by storage, then by row position.
type storageKey struct {
	storage float64
	row     int
}

func lessStorage(a, b storageKey) bool {
	if a.storage != b.storage {
		return a.storage < b.storage
	}
	return a.row < b.row
}

// ComparableSet is the group of reference phones similar to a query.
type ComparableSet struct {
	Phones  []dataset.Phone
	Average float64
}

// Len returns the number of comparable phones.
func (s ComparableSet) Len() int {
	return len(s.Phones)
}

// Empty reports whether no comparable phone was found.
func (s ComparableSet) Empty() bool {
	return len(s.Phones) == 0
}

// ComparableIndex finds reference phones whose storage and RAM both lie
// within a relative window of a query. Rows are indexed by storage in a
// B-tree so a lookup is a range scan. The index is read-only after
// construction and safe for concurrent use.
type ComparableIndex struct {
	ds     *dataset.Dataset
	tree   *btree.BTreeG[storageKey]
	window float64
}

// NewComparableIndex indexes ds. window is the relative tolerance (0.2
// means 80% to 120% inclusive); a non-positive value uses
// DefaultComparableWindow.
func NewComparableIndex(ds *dataset.Dataset, window float64) *ComparableIndex {
	if window <= 0 {
		window = DefaultComparableWindow
	}
	tree := btree.NewG(btreeDegree, lessStorage)
	for i := 0; i < ds.Len(); i++ {
		tree.ReplaceOrInsert(storageKey{storage: ds.At(i).StorageGB, row: i})
	}
	return &ComparableIndex{ds: ds, tree: tree, window: window}
}

// Find returns the phones with storage in [s*(1-w), s*(1+w)] and RAM in
// [r*(1-w), r*(1+w)], where r is in MB. Average is their mean price, or 0
// when the set is empty.
func (c *ComparableIndex) Find(spec PhoneSpec) ComparableSet {
	storage := float64(spec.StorageGB)
	ram := spec.RAMMB()
	lo, hi := storage*(1-c.window), storage*(1+c.window)
	ramLo, ramHi := ram*(1-c.window), ram*(1+c.window)

	var set ComparableSet
	var sum float64
	c.tree.AscendGreaterOrEqual(storageKey{storage: lo, row: -1}, func(k storageKey) bool {
		if k.storage > hi {
			return false
		}
		p := c.ds.At(k.row)
		if p.RAMMB >= ramLo && p.RAMMB <= ramHi {
			set.Phones = append(set.Phones, p)
			sum += p.Price
		}
		return true
	})
	if len(set.Phones) > 0 {
		set.Average = sum / float64(len(set.Phones))
	}
	return set
}

// Len returns the number of indexed rows.
func (c *ComparableIndex) Len() int {
	return c.tree.Len()
}
