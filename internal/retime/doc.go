// Package retime renders a frozen timeline into a single audio/video file.
//
// Every segment's source range is re-encoded on its own with presentation
// timestamps scaled by the segment's speed factor, using a bounded pool of
// ffmpeg workers. The rendered pieces are joined with the concat demuxer and
// muxed with one PCM narration track built from the segment clips (silence for
// gaps and fillers). The original audio is never carried over.
//
// After muxing the engine probes the result and compares the video and audio
// stream lengths. A difference larger than the per-segment tolerance times the
// segment count is reported as ErrTimingDrift in the result; it does not fail
// the run.
package retime
