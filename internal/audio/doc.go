// Package audio holds decoded narration audio and the silence trimmer.
//
// A Clip is an immutable buffer of mono signed 16-bit samples. Clips are
// decoded from provider output with ffmpeg, trimmed of long silent runs, and
// concatenated into the final narration track, which is written as raw PCM
// for the muxer.
package audio
