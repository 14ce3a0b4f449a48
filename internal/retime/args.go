package retime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"narrasync/internal/timeline"
)

// SegmentArgs builds the ffmpeg invocation that renders one segment's video.
// Input seeking keeps each render proportional to the segment length; the
// trim filter then cuts the exact range before timestamps are scaled.
func (e *Engine) SegmentArgs(source string, seg timeline.Segment, frameRate float64, dest string) []string {
	filter := fmt.Sprintf("trim=duration=%s,setpts=%s*(PTS-STARTPTS)",
		formatSeconds(seg.VideoDuration()), formatFactor(seg.SpeedFactor))
	if frameRate > 0 {
		filter += ",fps=" + strconv.FormatFloat(frameRate, 'f', -1, 64)
	}
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(seg.Start),
		"-i", source,
		"-map", "0:v:0",
		"-vf", filter,
		"-an", "-sn", "-dn",
		"-c:v", e.opts.VideoCodec,
		"-preset", e.opts.Preset,
		"-crf", strconv.Itoa(e.opts.CRF),
		"-pix_fmt", "yuv420p",
		dest,
	}
}

// MuxArgs joins the rendered segments listed in concatList with the raw PCM
// narration track.
func (e *Engine) MuxArgs(concatList, pcmPath string, sampleRate int, dest string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", concatList,
		"-f", "s16le", "-ar", strconv.Itoa(sampleRate), "-ac", "1", "-i", pcmPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", e.opts.AudioCodec,
		"-movflags", "+faststart",
		dest,
	}
}

// ConcatList renders a concat demuxer script for paths.
func ConcatList(paths []string) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}

func formatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
