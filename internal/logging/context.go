// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	componentKey contextKey = "component"
	loggerKey    contextKey = "logger"
)

// GenerateRunID creates a new unique training run ID.
func GenerateRunID() string {
	return uuid.New().String()
}

// ContextWithRunID returns a new context carrying the given run ID.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext retrieves the run ID from context.
// Returns empty string if not present.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithComponent returns a context whose Ctx logger is tagged with
// component. An inner call replaces the outer component.
func ContextWithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// ContextWithLogger stores a logger in the context. The command line uses
// it to tag every log line of one invocation with the command name.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext retrieves a logger from context.
// Returns the global logger if no logger is stored in context.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return current()
}

// Ctx returns the context's logger with its component and run ID attached.
//
//	logging.Ctx(ctx).Info().Msg("Grid search finished")
//	// Output: {"level":"info","component":"training","run_id":"...","message":"Grid search finished"}
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := LoggerFromContext(ctx)
	component, _ := ctx.Value(componentKey).(string)
	runID := RunIDFromContext(ctx)
	if component != "" || runID != "" {
		c := logger.With()
		if component != "" {
			c = c.Str(KeyComponent, component)
		}
		if runID != "" {
			c = c.Str(KeyRunID, runID)
		}
		logger = c.Logger()
	}
	return &logger
}
