// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package regression

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
)

// Digest returns a SHA-256 over the fitted state of m: every tree's split
// features, thresholds, children and leaf values, plus the boosting
// intercept and learning rate. Two models share a digest only if they
// predict identically. The encoding is fixed-width little endian, so the
// result does not depend on the process that computes it.
func Digest(m Model) (string, error) {
	h := sha256.New()
	switch v := m.(type) {
	case *Forest:
		writeString(h, "forest")
		writeInt(h, v.Features)
		writeInt(h, len(v.Trees))
		for _, t := range v.Trees {
			writeTree(h, t)
		}
	case *Boosting:
		writeString(h, "boosting")
		writeInt(h, v.Features)
		writeFloat(h, v.Init)
		writeFloat(h, v.LearningRate)
		writeInt(h, len(v.Stages))
		for _, t := range v.Stages {
			writeTree(h, t)
		}
	default:
		return "", fmt.Errorf("digest: unsupported model type %T", m)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeTree(h hash.Hash, t *Tree) {
	writeInt(h, t.NodeCount())
	for i := range t.Feature {
		writeInt(h, t.Feature[i])
		writeFloat(h, t.Threshold[i])
		writeInt(h, t.Left[i])
		writeInt(h, t.Right[i])
		writeFloat(h, t.Value[i])
	}
}

func writeInt(h hash.Hash, v int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
	_, _ = h.Write(buf[:]) //nolint:errcheck // hash.Hash never returns an error
}

func writeFloat(h hash.Hash, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, _ = h.Write(buf[:]) //nolint:errcheck // hash.Hash never returns an error
}

func writeString(h hash.Hash, s string) {
	writeInt(h, len(s))
	_, _ = h.Write([]byte(s)) //nolint:errcheck // hash.Hash never returns an error
}
