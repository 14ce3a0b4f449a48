// Package logging assembles structured slog loggers and formatting helpers used
// across narrasync.
//
// It owns the configurable console/JSON handlers, fans records out to the
// terminal and the run log file, and exposes context-aware helpers so stage
// code can tag log lines with run IDs, stages, and cue positions. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
