// Package services defines shared utilities consumed by the pipeline stages
// and the wrappers around external tools.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and cue positions for
//     logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run statuses and CLI exit codes.
//   - A shared command runner signature so ffmpeg, ffprobe, and edge-tts
//     invocations are replaceable in tests.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
