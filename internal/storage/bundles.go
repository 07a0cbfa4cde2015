// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

// Package storage persists trained model bundles and training run reports.
//
// Bundles are serialized with gob, checksummed with SHA-256 and gzip
// compressed. Each save gets the next version number and lands in its own
// file named {name}_v{version}.gob.gz, so older versions stay available
// for rollback until pruned.
//
// Run reports live in a BadgerDB registry as JSON documents.
//
// # Thread Safety
//
// Store and Registry are safe for concurrent use within one process.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/phoneprice/internal/pricing"
)

// bundleExt is the file extension of stored bundles.
const bundleExt = ".gob.gz"

// ErrBundleNotFound is returned when no bundle matches a name and version.
var ErrBundleNotFound = errors.New("model bundle not found")

// BundleMetadata describes a stored bundle.
type BundleMetadata struct {
	// Name is the artifact name (e.g., "phone_price").
	Name string `json:"name"`

	// Version increases by one with every save under the same name.
	Version int `json:"version"`

	// RunID links the bundle to its training run report.
	RunID string `json:"run_id"`

	// Family is the selected model family.
	Family string `json:"family"`

	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	// Samples is the number of cleaned rows the run used.
	Samples int `json:"samples"`

	// TestR2 is the held-out R² in price space.
	TestR2 float64 `json:"test_r2"`

	// Fingerprint copies Bundle.Fingerprint.
	Fingerprint string `json:"fingerprint"`

	// Checksum is the SHA-256 checksum of the uncompressed bundle.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed bundle size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// Store manages bundle files in one directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest version per artifact name
	versions map[string]int
}

// NewStore opens the store at baseDir, creating the directory if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing bundles: %w", err)
	}
	return s, nil
}

// scan records the latest version of every bundle in the directory.
func (s *Store) scan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name, version, ok := parseBundleFilename(entry)
		if !ok {
			continue
		}
		if current, ok := s.versions[name]; !ok || version > current {
			s.versions[name] = version
		}
	}
	return nil
}

// versionsOf lists the stored versions of name, newest first.
func (s *Store) versionsOf(name string) ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var versions []int
	for _, entry := range entries {
		n, v, ok := parseBundleFilename(entry)
		if ok && n == name {
			versions = append(versions, v)
		}
	}
	slices.Sort(versions)
	slices.Reverse(versions)
	return versions, nil
}

// parseBundleFilename splits "phone_price_v3.gob.gz" into ("phone_price", 3).
func parseBundleFilename(entry os.DirEntry) (name string, version int, ok bool) {
	if entry.IsDir() {
		return "", 0, false
	}
	base, found := strings.CutSuffix(entry.Name(), bundleExt)
	if !found {
		return "", 0, false
	}
	i := strings.LastIndex(base, "_v")
	if i <= 0 {
		return "", 0, false
	}
	version, err := strconv.Atoi(base[i+2:])
	if err != nil || version < 1 {
		return "", 0, false
	}
	return base[:i], version, true
}

// storedFile is the on-disk format of a bundle file.
type storedFile struct {
	Metadata       BundleMetadata
	CompressedData []byte
}

// Save writes b as the next version of name and returns its metadata.
// The file is written under a temporary name and renamed into place.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, b *pricing.Bundle, meta BundleMetadata) (BundleMetadata, error) {
	if err := ctx.Err(); err != nil {
		return BundleMetadata{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(b); err != nil {
		return BundleMetadata{}, fmt.Errorf("encode bundle: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return BundleMetadata{}, fmt.Errorf("compress bundle: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return BundleMetadata{}, fmt.Errorf("finalize compression: %w", err)
	}

	meta.Name = name
	meta.Version = s.versions[name] + 1
	meta.RunID = b.RunID
	meta.Fingerprint = b.Fingerprint
	meta.Checksum = hex.EncodeToString(hash[:])
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()
	if meta.TrainedAt.IsZero() {
		meta.TrainedAt = b.CreatedAt
	}

	final := s.bundlePath(name, meta.Version)
	tmp, err := os.CreateTemp(s.baseDir, ".bundle-*")
	if err != nil {
		return BundleMetadata{}, fmt.Errorf("create bundle file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() //nolint:errcheck // no-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return BundleMetadata{}, fmt.Errorf("write bundle file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return BundleMetadata{}, fmt.Errorf("close bundle file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return BundleMetadata{}, fmt.Errorf("install bundle file: %w", err)
	}

	s.versions[name] = meta.Version
	return meta, nil
}

// Load reads version of name, or the latest version when version is 0. The
// file checksum and the bundle fingerprint are both verified.
func (s *Store) Load(ctx context.Context, name string, version int) (*pricing.Bundle, *BundleMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrBundleNotFound, name)
		}
	}

	sf, err := s.readFile(name, version)
	if err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress bundle: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("%w: checksum %s, want %s", pricing.ErrBundleMismatch, checksum, sf.Metadata.Checksum)
	}

	var b pricing.Bundle
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&b); err != nil {
		return nil, nil, fmt.Errorf("decode bundle: %w", err)
	}
	if err := b.Verify(); err != nil {
		return nil, nil, err
	}
	return &b, &sf.Metadata, nil
}

func (s *Store) readFile(name string, version int) (*storedFile, error) {
	f, err := os.Open(s.bundlePath(name, version))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s v%d", ErrBundleNotFound, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("open bundle file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read bundle file: %w", err)
	}
	return &sf, nil
}

// LatestVersion returns the latest version of name.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[name]
	return v, ok
}

// List returns the metadata of every stored version of name, newest first.
// Unreadable files are skipped.
func (s *Store) List(ctx context.Context, name string) ([]BundleMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, err := s.versionsOf(name)
	if err != nil {
		return nil, err
	}
	out := make([]BundleMetadata, 0, len(versions))
	for _, v := range versions {
		sf, err := s.readFile(name, v)
		if err != nil {
			continue
		}
		out = append(out, sf.Metadata)
	}
	return out, nil
}

// Delete removes one version of name.
func (s *Store) Delete(ctx context.Context, name string, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.bundlePath(name, version)); err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	if s.versions[name] != version {
		return nil
	}
	versions, err := s.versionsOf(name)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		delete(s.versions, name)
	} else {
		s.versions[name] = versions[0]
	}
	return nil
}

// Prune keeps the newest keep versions of name and removes the rest. It
// returns the number of files removed.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	versions, err := s.versionsOf(name)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, v := range versions[min(keep, len(versions)):] {
		if err := os.Remove(s.bundlePath(name, v)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// bundlePath returns the file path of one bundle version.
func (s *Store) bundlePath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, bundleExt))
}
