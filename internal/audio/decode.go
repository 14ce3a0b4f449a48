package audio

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"narrasync/internal/services"
)

// DefaultSampleRate matches the edge-tts output rate.
const DefaultSampleRate = 24000

// Decoder converts provider output into mono s16 clips using ffmpeg.
type Decoder struct {
	binary     string
	sampleRate int
	run        services.CommandRunner
}

// NewDecoder returns a decoder that resamples to sampleRate.
func NewDecoder(ffmpegBinary string, sampleRate int) *Decoder {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Decoder{binary: ffmpegBinary, sampleRate: sampleRate, run: services.RunCommand}
}

// WithCommandRunner replaces the process runner, primarily for tests.
func (d *Decoder) WithCommandRunner(run services.CommandRunner) *Decoder {
	if run != nil {
		d.run = run
	}
	return d
}

// SampleRate reports the rate every decoded clip is resampled to.
func (d *Decoder) SampleRate() int {
	return d.sampleRate
}

// DecodeFile decodes any ffmpeg-readable audio file.
func (d *Decoder) DecodeFile(ctx context.Context, path string) (*Clip, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("decode audio: empty path")
	}
	out, err := d.run(ctx, d.binary, DecodeArgs(path, d.sampleRate)...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrExternalTool, "audio", "decode", path, err)
	}
	return FromPCM(out, d.sampleRate), nil
}

// DecodeArgs builds the ffmpeg invocation that writes mono s16le PCM to stdout.
func DecodeArgs(path string, sampleRate int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-",
	}
}
