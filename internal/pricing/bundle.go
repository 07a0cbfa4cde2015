// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/phoneprice/internal/pricing/regression"
)

// BundleSchemaVersion is the layout version written by NewBundle.
const BundleSchemaVersion = 1

// Bundle is the single persisted training artifact: the fitted transform
// chain, the model and a fingerprint binding them together.
type Bundle struct {
	SchemaVersion int               `json:"schema_version"`
	RunID         string            `json:"run_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Preprocessing PreprocessorState `json:"preprocessing"`
	Model         regression.Model  `json:"-"`
	Fingerprint   string            `json:"fingerprint"`
}

// NewBundle packages a fitted preprocessor and model.
func NewBundle(runID string, pre *Preprocessor, model regression.Model, createdAt time.Time) (*Bundle, error) {
	if model == nil {
		return nil, fmt.Errorf("bundle %s: model is nil", runID)
	}
	b := &Bundle{
		SchemaVersion: BundleSchemaVersion,
		RunID:         runID,
		CreatedAt:     createdAt.UTC(),
		Preprocessing: pre.State(),
		Model:         model,
	}
	fp, err := b.computeFingerprint()
	if err != nil {
		return nil, err
	}
	b.Fingerprint = fp
	return b, nil
}

// fingerprintInput is everything that must agree between training and
// inference.
type fingerprintInput struct {
	Preprocessing PreprocessorState `json:"preprocessing"`
	Params        regression.Params `json:"params"`
	Features      int               `json:"features"`
	ModelDigest   string            `json:"model_digest"`
}

func (b *Bundle) computeFingerprint() (string, error) {
	digest, err := regression.Digest(b.Model)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(fingerprintInput{
		Preprocessing: b.Preprocessing,
		Params:        b.Model.Config(),
		Features:      b.Model.NumFeatures(),
		ModelDigest:   digest,
	})
	if err != nil {
		return "", fmt.Errorf("marshal fingerprint input: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Verify checks the schema version, the model width and the fingerprint.
// Failures wrap ErrBundleMismatch.
func (b *Bundle) Verify() error {
	if b.SchemaVersion != BundleSchemaVersion {
		return fmt.Errorf("%w: schema version %d, want %d", ErrBundleMismatch, b.SchemaVersion, BundleSchemaVersion)
	}
	if b.Model == nil {
		return fmt.Errorf("%w: no model", ErrBundleMismatch)
	}
	if got, want := b.Model.NumFeatures(), len(b.Preprocessing.FeatureNames); got != want {
		return fmt.Errorf("%w: model expects %d features, bundle lists %d", ErrBundleMismatch, got, want)
	}
	fp, err := b.computeFingerprint()
	if err != nil {
		return err
	}
	if fp != b.Fingerprint {
		return fmt.Errorf("%w: fingerprint %s, want %s", ErrBundleMismatch, fp, b.Fingerprint)
	}
	return nil
}

// Preprocessor rebuilds the fitted transform chain.
func (b *Bundle) Preprocessor() (*Preprocessor, error) {
	return RestorePreprocessor(b.Preprocessing)
}
