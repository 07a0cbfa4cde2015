// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package training

import (
	"context"
	"fmt"
	"io"

	"github.com/tomtom215/phoneprice/internal/config"
	"github.com/tomtom215/phoneprice/internal/database"
	"github.com/tomtom215/phoneprice/internal/logging"
	"github.com/tomtom215/phoneprice/internal/pricing"
	"github.com/tomtom215/phoneprice/internal/storage"
)

// BundleStore persists trained bundles.
type BundleStore interface {
	Save(ctx context.Context, name string, b *pricing.Bundle, meta storage.BundleMetadata) (storage.BundleMetadata, error)
	Prune(ctx context.Context, name string, keep int) (int, error)
}

// RunRecorder records run reports.
type RunRecorder interface {
	Record(ctx context.Context, runID string, report any) (*storage.RunEntry, error)
}

// Pipeline loads the dataset, trains, saves the bundle and records the
// report.
type Pipeline struct {
	Trainer      *Trainer
	Store        BundleStore
	Registry     RunRecorder // optional
	DatasetPath  string
	ArtifactName string

	// Keep is the number of bundle versions retained. 0 keeps all.
	Keep int
}

// NewPipeline wires a pipeline from cfg. Close must be called to release
// the registry.
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	trainer, err := NewTrainer(opts)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		Trainer:      trainer,
		Store:        store,
		DatasetPath:  cfg.Dataset.Path,
		ArtifactName: cfg.Artifacts.Name,
		Keep:         cfg.Artifacts.Keep,
	}
	if cfg.Registry.Enabled {
		reg, err := storage.OpenRegistry(cfg.Registry.Path)
		if err != nil {
			return nil, err
		}
		p.Registry = reg
	}
	return p, nil
}

// Close releases the registry if it holds resources.
func (p *Pipeline) Close() error {
	if c, ok := p.Registry.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Run executes one full training run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	ctx = logging.ContextWithComponent(ctx, "training")
	logger := logging.Ctx(ctx)

	loaded, err := database.LoadPhones(ctx, p.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	logger.Info().
		Str("path", p.DatasetPath).
		Int("rows", len(loaded.Phones)).
		Int("incomplete", loaded.Incomplete).
		Dur("load_duration", loaded.Duration).
		Msg("Loaded dataset")

	res, err := p.Trainer.Train(ctx, loaded.Phones)
	if err != nil {
		return nil, err
	}
	report := res.Report
	report.Data.Incomplete = loaded.Incomplete
	report.Data.Loaded = len(loaded.Phones) + loaded.Incomplete

	meta, err := p.Store.Save(ctx, p.ArtifactName, res.Bundle, storage.BundleMetadata{
		Family:             report.Selected,
		TrainedAt:          report.StartedAt,
		Samples:            report.Data.Samples,
		TestR2:             report.Metrics.TestR2,
		TrainingDurationMS: report.DurationMS,
	})
	if err != nil {
		return nil, fmt.Errorf("save bundle: %w", err)
	}
	report.Artifact = &meta
	logger.Info().
		Str("name", meta.Name).
		Int("version", meta.Version).
		Int64("size_bytes", meta.SizeBytes).
		Msg("Saved model bundle")

	if p.Keep > 0 {
		removed, err := p.Store.Prune(ctx, p.ArtifactName, p.Keep)
		if err != nil {
			logger.Warn().Err(err).Msg("Pruning old bundles failed")
		} else if removed > 0 {
			logger.Debug().Int("removed", removed).Msg("Pruned old bundles")
		}
	}

	if p.Registry != nil {
		if _, err := p.Registry.Record(ctx, runID, report); err != nil {
			return report, fmt.Errorf("record run: %w", err)
		}
	}
	return report, nil
}
