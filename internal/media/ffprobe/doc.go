// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Prober runs ffprobe through an injectable command runner and decodes the
// streams and format sections. Result helpers expose stream counts, container
// and per-stream durations, frame rate, and size, which the retiming engine
// uses to check audio/video drift and the CLI uses to describe inputs.
package ffprobe
