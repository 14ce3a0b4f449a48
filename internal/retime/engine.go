package retime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"narrasync/internal/audio"
	"narrasync/internal/logging"
	"narrasync/internal/media/ffprobe"
	"narrasync/internal/services"
	"narrasync/internal/timeline"
)

// ErrTimingDrift marks an assembled file whose audio and video lengths differ
// by more than the tolerance.
var ErrTimingDrift = errors.New("audio/video timing drift")

// Options configures rendering.
type Options struct {
	FFmpegBinary string
	Workers      int
	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	// DriftTolerance is allowed per segment.
	DriftTolerance time.Duration
	// WorkDir receives a per-run scratch directory.
	WorkDir string
}

// Result summarizes an assembly.
type Result struct {
	Segments      int
	VideoDuration time.Duration
	AudioDuration time.Duration
	Drift         time.Duration
	Tolerance     time.Duration
	// Warning wraps ErrTimingDrift when the tolerance was exceeded.
	Warning error
}

// Engine renders timelines.
type Engine struct {
	opts     Options
	prober   *ffprobe.Prober
	run      services.CommandRunner
	logger   *slog.Logger
	progress func(done, total int)
}

// NewEngine returns an engine. prober reads the source frame rate and the
// assembled stream lengths.
func NewEngine(opts Options, prober *ffprobe.Prober, logger *slog.Logger) *Engine {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
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
	if prober == nil {
		prober = ffprobe.New("")
	}
	return &Engine{
		opts:   opts,
		prober: prober,
		run:    services.RunCommand,
		logger: logging.NewComponentLogger(logger, "retime"),
	}
}

// WithCommandRunner replaces the ffmpeg runner.
func (e *Engine) WithCommandRunner(run services.CommandRunner) *Engine {
	if run != nil {
		e.run = run
	}
	return e
}

// WithProgress registers a callback invoked after each segment renders. It
// may be called from multiple goroutines.
func (e *Engine) WithProgress(fn func(done, total int)) *Engine {
	e.progress = fn
	return e
}

// Assemble renders tl from source into output. On error, output and all
// intermediate files are removed.
func (e *Engine) Assemble(ctx context.Context, source string, tl *timeline.Timeline, output string) (result Result, err error) {
	if tl == nil || len(tl.Segments) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "retime", "assemble", "timeline has no segments", nil)
	}
	if err := tl.Validate(); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "retime", "assemble", "invalid timeline", err)
	}

	scratch, err := os.MkdirTemp(e.opts.WorkDir, "retime-*")
	if err != nil {
		return Result{}, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)
	defer func() {
		if err != nil {
			_ = os.Remove(output)
		}
	}()

	started := time.Now()
	sourceInfo, err := e.prober.Inspect(ctx, source)
	if err != nil {
		return Result{}, err
	}
	if sourceInfo.VideoStreamCount() == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "retime", "inspect source", source+" has no video stream", nil)
	}

	pieces, err := e.renderSegments(ctx, source, tl, sourceInfo.FrameRate(), scratch)
	if err != nil {
		return Result{}, err
	}

	listPath := filepath.Join(scratch, "segments.ffconcat")
	if err := os.WriteFile(listPath, []byte(ConcatList(pieces)), 0o644); err != nil {
		return Result{}, fmt.Errorf("write concat list: %w", err)
	}

	track, err := NarrationTrack(tl)
	if err != nil {
		return Result{}, err
	}
	pcmPath := filepath.Join(scratch, "narration.pcm")
	if err := audio.WritePCMFile(pcmPath, track); err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if _, err := e.run(ctx, e.opts.FFmpegBinary, e.MuxArgs(listPath, pcmPath, track.SampleRate(), output)...); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "retime", "mux", output, err)
	}

	result, err = e.checkDrift(ctx, output, len(tl.Segments))
	if err != nil {
		return Result{}, err
	}
	logging.WithContext(ctx, e.logger).Info("timeline assembled",
		logging.Int("segments", result.Segments),
		logging.Duration("video_duration", result.VideoDuration),
		logging.Duration("audio_duration", result.AudioDuration),
		logging.Duration("drift", result.Drift),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// NarrationTrack concatenates segment audio in timeline order. Silent
// segments contribute zero samples for their full length.
func NarrationTrack(tl *timeline.Timeline) (*audio.Clip, error) {
	clips := make([]*audio.Clip, 0, len(tl.Segments))
	for _, seg := range tl.Segments {
		if seg.Kind == timeline.KindSpoken {
			clips = append(clips, seg.Narration)
			continue
		}
		clips = append(clips, audio.Silence(seg.Duration(), tl.SampleRate))
	}
	track, err := audio.Concat(tl.SampleRate, clips...)
	if err != nil {
		return nil, fmt.Errorf("build narration track: %w", err)
	}
	return track, nil
}

// renderSegments renders every segment with at most Workers ffmpeg processes.
// The first failure cancels the remaining renders.
func (e *Engine) renderSegments(ctx context.Context, source string, tl *timeline.Timeline, frameRate float64, scratch string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := len(tl.Segments)
	pieces := make([]string, total)
	sem := make(chan struct{}, e.opts.Workers)
	var (
		wg       sync.WaitGroup
		done     atomic.Int64
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

loop:
	for i, seg := range tl.Segments {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}
		pieces[i] = filepath.Join(scratch, fmt.Sprintf("segment-%05d.mp4", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			started := time.Now()
			if _, err := e.run(ctx, e.opts.FFmpegBinary, e.SegmentArgs(source, seg, frameRate, pieces[i])...); err != nil {
				if ctx.Err() == nil {
					fail(services.Wrap(services.ErrExternalTool, "retime", "render segment", fmt.Sprintf("segment %d", i), err))
				}
				return
			}
			e.logger.Debug("segment rendered",
				logging.String(logging.FieldEventType, "segment_rendered"),
				logging.Int("segment", i),
				logging.String("kind", seg.Kind.String()),
				logging.Int(logging.FieldCueIndex, seg.CueIndex),
				logging.Float64("speed_factor", seg.SpeedFactor),
				logging.Duration("elapsed", time.Since(started)),
			)
			if e.progress != nil {
				e.progress(int(done.Add(1)), total)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pieces, nil
}

func (e *Engine) checkDrift(ctx context.Context, output string, segments int) (Result, error) {
	info, err := e.prober.Inspect(ctx, output)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Segments:      segments,
		VideoDuration: info.StreamDuration("video"),
		AudioDuration: info.StreamDuration("audio"),
		Tolerance:     time.Duration(segments) * e.opts.DriftTolerance,
	}
	result.Drift = result.VideoDuration - result.AudioDuration
	if result.Drift < 0 {
		result.Drift = -result.Drift
	}
	if result.Drift > result.Tolerance {
		result.Warning = fmt.Errorf("%w: video %s, audio %s, drift %s exceeds %s",
			ErrTimingDrift, result.VideoDuration, result.AudioDuration, result.Drift, result.Tolerance)
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "audio/video drift exceeds tolerance", "timing_drift",
			logging.Duration("drift", result.Drift),
			logging.Duration("tolerance", result.Tolerance),
			logging.String(logging.FieldErrorHint, "check the source frame rate and retime.drift_tolerance_ms"),
			logging.String(logging.FieldImpact, "output kept; tempo pass continues"),
		)
	}
	return result, nil
}
