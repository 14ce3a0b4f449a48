// Package history persists one row per pipeline run in SQLite.
//
// A run is inserted with status "running" when the pipeline starts and is
// finalized with its outcome, segment counts, warnings, drift, and output
// size. The CLI "history" command lists recent runs. Writes retry briefly
// when another process holds the database lock.
package history
