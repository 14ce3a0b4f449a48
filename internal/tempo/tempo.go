// Package tempo applies the final uniform speed change to an assembled file.
package tempo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"narrasync/internal/config"
	"narrasync/internal/logging"
	"narrasync/internal/services"
)

// atempo accepts factors in [0.5, 2.0] per stage on older ffmpeg builds.
const (
	atempoMin = 0.5
	atempoMax = 2.0
)

// Options configures the re-encode.
type Options struct {
	FFmpegBinary string
	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
}

// Corrector runs the global tempo pass.
type Corrector struct {
	opts   Options
	run    services.CommandRunner
	logger *slog.Logger
}

// NewCorrector returns a corrector with defaults applied.
func NewCorrector(opts Options, logger *slog.Logger) *Corrector {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.VideoCodec == "" {
		opts.VideoCodec = "libx264"
	}
	if opts.Preset == "" {
		opts.Preset = "veryfast"
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = "aac"
	}
	return &Corrector{
		opts:   opts,
		run:    services.RunCommand,
		logger: logging.NewComponentLogger(logger, "tempo"),
	}
}

// WithCommandRunner replaces the ffmpeg runner.
func (c *Corrector) WithCommandRunner(run services.CommandRunner) *Corrector {
	if run != nil {
		c.run = run
	}
	return c
}

// Apply writes input sped up by speed to output. The result is rendered next
// to output and renamed into place, so output is either the complete new file
// or untouched.
func (c *Corrector) Apply(ctx context.Context, input, output string, speed float64) error {
	if err := config.ValidateSpeed(speed); err != nil {
		return services.Wrap(services.ErrValidation, "tempo", "apply", "", err)
	}
	if input == "" || output == "" {
		return services.Wrap(services.ErrValidation, "tempo", "apply", "input and output paths required", nil)
	}
	if filepath.Clean(input) == filepath.Clean(output) {
		return services.Wrap(services.ErrValidation, "tempo", "apply", "output must differ from input", nil)
	}

	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".narrasync-*"+filepath.Ext(output))
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	started := time.Now()
	if _, err := c.run(ctx, c.opts.FFmpegBinary, c.Args(input, tmpPath, speed)...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "tempo", "ffmpeg", output, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, output); err != nil {
		return fmt.Errorf("commit output: %w", err)
	}
	committed = true

	logging.WithContext(ctx, c.logger).Info("tempo applied",
		logging.Float64("speed", speed),
		logging.String("output", output),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// Args builds the ffmpeg invocation. A speed of exactly 1.0 copies streams.
func (c *Corrector) Args(input, dest string, speed float64) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", input}
	if speed == 1 {
		return append(args, "-map", "0", "-c", "copy", dest)
	}
	return append(args,
		"-filter_complex", FilterGraph(speed),
		"-map", "[v]", "-map", "[a]",
		"-c:v", c.opts.VideoCodec,
		"-preset", c.opts.Preset,
		"-crf", strconv.Itoa(c.opts.CRF),
		"-pix_fmt", "yuv420p",
		"-c:a", c.opts.AudioCodec,
		"-movflags", "+faststart",
		dest,
	)
}

// FilterGraph scales video timestamps by 1/speed and stretches audio with
// pitch-preserving atempo stages.
func FilterGraph(speed float64) string {
	stages := AtempoChain(speed)
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = "atempo=" + formatFactor(s)
	}
	return fmt.Sprintf("[0:v]setpts=PTS/%s[v];[0:a]%s[a]", formatFactor(speed), strings.Join(parts, ","))
}

// AtempoChain splits speed into stages that each stay within atempo's range
// and multiply back to speed.
func AtempoChain(speed float64) []float64 {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return nil
	}
	var stages []float64
	for speed > atempoMax {
		stages = append(stages, atempoMax)
		speed /= atempoMax
	}
	for speed < atempoMin {
		stages = append(stages, atempoMin)
		speed /= atempoMin
	}
	return append(stages, speed)
}

func formatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
