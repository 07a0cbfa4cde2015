// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	runKeyPrefix   = "run:"
	runIDKeyPrefix = "run_id:"
)

// ErrRunNotFound is returned when no report exists for a run ID.
var ErrRunNotFound = errors.New("training run not found")

// RunEntry is one recorded training run. Report holds the JSON document
// passed to Record.
type RunEntry struct {
	RunID      string          `json:"run_id"`
	RecordedAt time.Time       `json:"recorded_at"`
	Report     json.RawMessage `json:"report"`
}

// Decode unmarshals the report into target.
func (e *RunEntry) Decode(target any) error {
	if err := json.Unmarshal(e.Report, target); err != nil {
		return fmt.Errorf("decode run %s: %w", e.RunID, err)
	}
	return nil
}

// Registry records training run reports in BadgerDB. Runs are keyed by
// recording time so listing returns them in chronological order.
type Registry struct {
	db *badger.DB
}

// OpenRegistry opens or creates the registry at path.
func OpenRegistry(path string) (*Registry, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for run registry: %w", err)
	}
	return &Registry{db: db}, nil
}

// NewRegistry wraps an already open database.
func NewRegistry(db *badger.DB) *Registry {
	return &Registry{db: db}
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

func runKey(at time.Time, runID string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", runKeyPrefix, at.UnixNano(), runID))
}

// Record stores report under runID.
func (r *Registry) Record(ctx context.Context, runID string, report any) (*RunEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal run report: %w", err)
	}
	entry := &RunEntry{
		RunID:      runID,
		RecordedAt: time.Now().UTC(),
		Report:     raw,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal run entry: %w", err)
	}

	key := runKey(entry.RecordedAt, runID)
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set run: %w", err)
		}
		// Run ID index for direct lookup
		if err := txn.Set([]byte(runIDKeyPrefix+runID), key); err != nil {
			return fmt.Errorf("set run id mapping: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Get returns the run recorded under runID.
func (r *Registry) Get(ctx context.Context, runID string) (*RunEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entry RunEntry
	err := r.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(runIDKeyPrefix + runID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRunNotFound
		}
		if err != nil {
			return fmt.Errorf("get run id mapping: %w", err)
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRunNotFound
		}
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (r *Registry) List(ctx context.Context, limit int) ([]RunEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entries []RunEntry
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(runKeyPrefix)
		// Reverse iteration starts from the largest key with the prefix.
		seek := append([]byte(runKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var entry RunEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			if limit > 0 && len(entries) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return entries, nil
}

// Delete removes the run recorded under runID.
func (r *Registry) Delete(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		idKey := []byte(runIDKeyPrefix + runID)
		idx, err := txn.Get(idKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRunNotFound
		}
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		return txn.Delete(idKey)
	})
}
