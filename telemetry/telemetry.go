// Copyright 2017 Anki, Inc.
// Author: gwenz@anki.com

// Package telemetry is the single structured-logging entry point for the
// simulator: track-build warnings and race-controller phase transitions both
// go through here, so log shape stays consistent no matter which package
// raises the event.
package telemetry

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// SetLogger replaces the package-level logger, eg so a test can capture
// output; production callers rarely need it.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func current() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// GeometryWarning logs a non-fatal track-build anomaly (spec.md §7): the
// build proceeds, but the result may be degenerate (eg track_half_width
// exceeds the local curvature radius of a tight corner).
func GeometryWarning(msg string, fields map[string]interface{}) {
	evt := current().Warn().Str("category", "geometry_warning")
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	evt.Msg(msg)
}

// PhaseTransition logs a race-controller phase change.
func PhaseTransition(from, to string, tick int) {
	current().Info().
		Str("category", "phase_transition").
		Str("from", from).
		Str("to", to).
		Int("tick", tick).
		Msg("race phase transition")
}

// RunSummary logs a periodic progress line from cmd/circuitctl.
func RunSummary(tick int, lap int, bestLapTicks int, health float64) {
	current().Info().
		Str("category", "run_summary").
		Int("tick", tick).
		Int("lap", lap).
		Int("best_lap_ticks", bestLapTicks).
		Float64("health", health).
		Msg("telemetry")
}
