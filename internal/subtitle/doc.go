// Package subtitle parses and writes SRT cue files.
//
// Parse turns cue-block text into ordered Cues at millisecond precision and
// reports unusable input with ErrMalformed. Timestamps round-trip through
// FormatTimestamp, and Write serializes cues back to SRT.
package subtitle
