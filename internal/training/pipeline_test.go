// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package training

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/phoneprice/internal/config"
	"github.com/tomtom215/phoneprice/internal/dataset"
	"github.com/tomtom215/phoneprice/internal/storage"
)

// writeDatasetCSV writes phones in the source CSV layout plus one row with
// a missing RAM cell.
func writeDatasetCSV(t *testing.T, phones []dataset.Phone) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Name,Brand,Model,Battery capacity (mAh),Screen size (inches),Processor,RAM (MB),Internal storage (GB),Rear camera,Front camera,Price\n")
	for i, p := range phones {
		fmt.Fprintf(&b, "Phone %d,%s,M%d,%g,%g,%s,%g,%g,%g,%g,%g\n",
			i, p.Brand, i, p.BatteryMAh, p.ScreenInches, p.Processor,
			p.RAMMB, p.StorageGB, p.RearMP, p.FrontMP, p.Price)
	}
	b.WriteString("Broken,Xiaomi,B1,5000,6.5,8,,128,48,13,12999\n")

	path := filepath.Join(t.TempDir(), "ndtv_data_final.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func testConfig(t *testing.T, datasetPath string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Dataset.Path = datasetPath
	cfg.Artifacts.Dir = filepath.Join(dir, "models")
	cfg.Artifacts.Keep = 1
	cfg.Registry.Path = filepath.Join(dir, "registry")

	tc := &cfg.Training
	tc.CVFolds = 3
	tc.GridFolds = 2
	tc.Workers = 2
	tc.BaseEstimators = 10
	tc.Families = []string{config.FamilyRandomForest, config.FamilyExtraTrees}
	tc.RandomForest = config.RandomForestGrid{NEstimators: []int{10}, MaxDepth: []int{0, 8}, MaxFeatures: []string{"sqrt"}}
	tc.ExtraTrees = config.ExtraTreesGrid{NEstimators: []int{10}, MinSamplesSplit: []int{2, 4}}
	return cfg
}

func TestPipeline_Run(t *testing.T) {
	phones := testPhones(120)
	cfg := testConfig(t, writeDatasetCSV(t, phones))

	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	ctx := context.Background()
	first, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if first.Data.Incomplete != 1 || first.Data.Loaded != len(phones)+1 {
		t.Errorf("Data = %+v, want 1 incomplete of %d", first.Data, len(phones)+1)
	}
	if first.Artifact == nil || first.Artifact.Version != 1 {
		t.Fatalf("Artifact = %+v, want version 1", first.Artifact)
	}
	if first.Artifact.Family != first.Selected || first.Artifact.Samples != first.Data.Samples {
		t.Errorf("Artifact = %+v does not describe the run", first.Artifact)
	}

	second, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.RunID == first.RunID {
		t.Error("runs share a run ID")
	}
	if second.Metrics != first.Metrics {
		t.Errorf("seeded runs differ: %+v vs %+v", first.Metrics, second.Metrics)
	}

	store, err := storage.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	list, err := store.List(ctx, cfg.Artifacts.Name)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Version != 2 {
		t.Errorf("List() = %+v, want only version 2 after pruning", list)
	}
	b, meta, err := store.Load(ctx, cfg.Artifacts.Name, 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.RunID != second.RunID || meta.RunID != second.RunID {
		t.Errorf("latest bundle run = %q/%q, want %q", b.RunID, meta.RunID, second.RunID)
	}

	reg, ok := p.Registry.(*storage.Registry)
	if !ok {
		t.Fatalf("Registry = %T, want *storage.Registry", p.Registry)
	}
	entry, err := reg.Get(ctx, first.RunID)
	if err != nil {
		t.Fatalf("registry Get() error = %v", err)
	}
	var recorded Report
	if err := entry.Decode(&recorded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if recorded.Selected != first.Selected || recorded.Artifact == nil || recorded.Artifact.Version != 1 {
		t.Errorf("recorded report = %+v", recorded)
	}
}

func TestPipeline_RegistryDisabled(t *testing.T) {
	cfg := testConfig(t, writeDatasetCSV(t, testPhones(80)))
	cfg.Registry.Enabled = false

	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if p.Registry != nil {
		t.Errorf("Registry = %v, want nil", p.Registry)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := os.Stat(cfg.Registry.Path); !os.IsNotExist(err) {
		t.Errorf("registry directory created while disabled: %v", err)
	}
}

func TestPipeline_MissingDataset(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.csv"))
	cfg.Registry.Enabled = false

	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if _, err := p.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want error")
	}
}
