package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"narrasync/internal/audio"
	"narrasync/internal/config"
	"narrasync/internal/history"
	"narrasync/internal/logging"
	"narrasync/internal/media/ffprobe"
	"narrasync/internal/narration"
	"narrasync/internal/preflight"
	"narrasync/internal/retime"
	"narrasync/internal/services"
	"narrasync/internal/subtitle"
	"narrasync/internal/tempo"
	"narrasync/internal/timeline"
)

// ErrOutputBusy reports that another run holds the output path lock.
var ErrOutputBusy = errors.New("output path is locked by another run")

// Stages reported through progress callbacks.
const (
	StageNarration = "narration"
	StageRetime    = "retime"
	StageTempo     = "tempo"
)

// Request describes one conversion. Zero values fall back to configuration.
type Request struct {
	Source   string
	Subtitle string
	Output   string
	Voice    string
	Speed    float64
	MaxCues  int
	BatchID  string
}

// Result summarizes a finished conversion.
type Result struct {
	RunID       string
	Output      string
	Cues        int
	Spoken      int
	Silent      int
	Warnings    []string
	Retime      retime.Result
	OutputBytes int64
	Elapsed     time.Duration
}

// Progress is emitted while a stage advances.
type Progress struct {
	Stage string
	Done  int
	Total int
}

// Option customizes a Runner.
type Option func(*Runner)

// WithProvider replaces the edge-tts narration provider.
func WithProvider(provider narration.Provider) Option {
	return func(r *Runner) {
		r.provider = provider
	}
}

// WithCommandRunner routes every external tool invocation through run.
func WithCommandRunner(run services.CommandRunner) Option {
	return func(r *Runner) {
		r.run = run
	}
}

// WithHistory records runs in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) {
		r.history = store
	}
}

// WithProgress registers a progress callback. It may be invoked from multiple
// goroutines.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// Runner executes conversions with a fixed configuration.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider narration.Provider
	run      services.CommandRunner
	history  *history.Store
	progress func(Progress)

	trimmer *audio.Trimmer
	engine  *retime.Engine
	tempo   *tempo.Corrector
}

// New builds a Runner from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "configuration required", nil)
	}
	r := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		run:    services.RunCommand,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.provider == nil {
		r.provider = NewProvider(cfg, r.run)
	}
	r.trimmer = audio.NewTrimmer(audio.TrimOptions{
		MinSilence:    time.Duration(cfg.Silence.MinSilenceMS) * time.Millisecond,
		ThresholdDBFS: cfg.Silence.ThresholdDBFS,
		KeepSilence:   time.Duration(cfg.Silence.KeepSilenceMS) * time.Millisecond,
		Window:        time.Duration(cfg.Silence.WindowMS) * time.Millisecond,
	})

	prober := ffprobe.New(cfg.Retime.FFprobeBinary).WithCommandRunner(r.run)
	r.engine = retime.NewEngine(retime.Options{
		FFmpegBinary:   cfg.Retime.FFmpegBinary,
		Workers:        cfg.Retime.Workers,
		VideoCodec:     cfg.Retime.VideoCodec,
		Preset:         cfg.Retime.Preset,
		CRF:            cfg.Retime.CRF,
		AudioCodec:     cfg.Retime.AudioCodec,
		DriftTolerance: cfg.DriftTolerance(),
		WorkDir:        cfg.Paths.WorkDir,
	}, prober, logger).WithCommandRunner(r.run).WithProgress(r.reporter(StageRetime))
	r.tempo = tempo.NewCorrector(tempo.Options{
		FFmpegBinary: cfg.Retime.FFmpegBinary,
		VideoCodec:   cfg.Retime.VideoCodec,
		Preset:       cfg.Retime.Preset,
		CRF:          cfg.Retime.CRF,
		AudioCodec:   cfg.Retime.AudioCodec,
	}, logger).WithCommandRunner(r.run)
	return r, nil
}

// NewProvider builds the edge-tts provider described by cfg. run may be nil.
func NewProvider(cfg *config.Config, run services.CommandRunner) *narration.EdgeTTS {
	decoder := audio.NewDecoder(cfg.Retime.FFmpegBinary, cfg.Narration.SampleRate).WithCommandRunner(run)
	return narration.NewEdgeTTS(decoder,
		narration.WithBinary(cfg.Narration.Binary),
		narration.WithRate(cfg.Narration.Rate),
		narration.WithVolume(cfg.Narration.Volume),
		narration.WithTimeout(cfg.NarrationTimeout()),
		narration.WithWorkDir(cfg.Paths.WorkDir),
		narration.WithCommandRunner(run),
	)
}

// Builder returns a timeline builder configured for req, reporting narration
// progress through the runner's callback.
func (r *Runner) Builder(req Request) *timeline.Builder {
	return timeline.NewBuilder(r.provider, r.trimmer, timeline.Options{
		Voice:        r.voice(req),
		Epsilon:      r.cfg.GapEpsilon(),
		MaxCues:      r.maxCues(req),
		MinNarration: r.cfg.MinNarration(),
		Concurrency:  r.cfg.Narration.Concurrency,
		SampleRate:   r.cfg.Narration.SampleRate,
	}, r.logger).WithProgress(r.reporter(StageNarration))
}

// Plan parses the subtitle file and builds the timeline without rendering.
func (r *Runner) Plan(ctx context.Context, subtitlePath string, req Request) (*timeline.Timeline, error) {
	cues, err := subtitle.ParseFile(subtitlePath)
	if err != nil {
		return nil, err
	}
	return r.Builder(req).Build(ctx, cues)
}

// Run converts req.Source into req.Output. Output is replaced only when every
// stage succeeds; the work directory is always removed.
func (r *Runner) Run(ctx context.Context, req Request) (result Result, err error) {
	started := time.Now()
	speed := r.speed(req)
	if err := config.ValidateSpeed(speed); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "pipeline", "validate", "", err)
	}
	for _, path := range []*string{&req.Source, &req.Subtitle, &req.Output} {
		if *path == "" {
			continue
		}
		if abs, absErr := filepath.Abs(*path); absErr == nil {
			*path = abs
		}
	}
	if err := preflight.Failed(preflight.CheckInputs(req.Source, req.Subtitle, req.Output)); err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}
	unlock, err := lockOutput(req.Output)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	result.RunID = uuid.NewString()
	result.Output = req.Output
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String("source", filepath.Base(req.Source)),
		logging.String("output", req.Output),
	)
	defer func() {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(logger, "conversion failed", "conversion_failed",
				logging.String(logging.FieldErrorHint, "run narrasync check to verify ffmpeg and edge-tts"),
				logging.Error(err),
			)
		}
	}()

	if r.history != nil {
		run, beginErr := r.history.Begin(ctx, history.Run{
			ID:           result.RunID,
			BatchID:      req.BatchID,
			SourcePath:   req.Source,
			SubtitlePath: req.Subtitle,
			OutputPath:   req.Output,
			Voice:        r.voice(req),
			Speed:        speed,
		})
		if beginErr != nil {
			return Result{}, beginErr
		}
		defer func() {
			r.finishHistory(run.ID, result, err, logger)
		}()
	}

	logger.Info("conversion started", logging.Float64("speed", speed), logging.String("voice", r.voice(req)))

	cues, err := subtitle.ParseFile(req.Subtitle)
	if err != nil {
		return result, err
	}
	result.Cues = len(timeline.SelectCues(cues, r.maxCues(req)))

	tl, err := r.Builder(req).Build(services.WithStage(ctx, StageNarration), cues)
	if err != nil {
		return result, err
	}
	result.Spoken, result.Silent = tl.Counts()
	for _, w := range tl.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}

	workDir, err := os.MkdirTemp(r.cfg.Paths.WorkDir, "run-*")
	if err != nil {
		return result, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	retimed := filepath.Join(workDir, "retimed"+outputExt(req.Output))
	result.Retime, err = r.engine.Assemble(services.WithStage(ctx, StageRetime), req.Source, tl, retimed)
	if err != nil {
		return result, err
	}
	if result.Retime.Warning != nil {
		result.Warnings = append(result.Warnings, result.Retime.Warning.Error())
	}

	r.report(StageTempo, 0, 1)
	if err := r.tempo.Apply(services.WithStage(ctx, StageTempo), retimed, req.Output, speed); err != nil {
		return result, err
	}
	r.report(StageTempo, 1, 1)

	if info, statErr := os.Stat(req.Output); statErr == nil {
		result.OutputBytes = info.Size()
	}
	result.Elapsed = time.Since(started)
	logger.Info("conversion finished",
		logging.Int("cues", result.Cues),
		logging.Int("spoken_segments", result.Spoken),
		logging.Int("silent_segments", result.Silent),
		logging.Int("warnings", len(result.Warnings)),
		logging.Bool("drifted", result.Retime.Warning != nil),
		logging.Int64("output_bytes", result.OutputBytes),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (r *Runner) finishHistory(id string, result Result, runErr error, logger *slog.Logger) {
	// The run context may already be canceled; the outcome is still recorded.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := r.history.Finish(ctx, id, history.Outcome{
		Cues:           result.Cues,
		SpokenSegments: result.Spoken,
		SilentSegments: result.Silent,
		Warnings:       result.Warnings,
		Drift:          result.Retime.Drift,
		OutputBytes:    result.OutputBytes,
		Err:            runErr,
	})
	if err != nil {
		logging.WarnWithContext(logger, "failed to record run outcome", "history_write",
			logging.String(logging.FieldImpact, "run missing from history"),
			logging.Error(err),
		)
	}
}

func (r *Runner) reporter(stage string) func(done, total int) {
	return func(done, total int) {
		r.report(stage, done, total)
	}
}

func (r *Runner) report(stage string, done, total int) {
	if r.progress != nil {
		r.progress(Progress{Stage: stage, Done: done, Total: total})
	}
}

func (r *Runner) voice(req Request) string {
	if v := strings.TrimSpace(req.Voice); v != "" {
		return v
	}
	return r.cfg.Narration.Voice
}

func (r *Runner) speed(req Request) float64 {
	if req.Speed != 0 {
		return req.Speed
	}
	return r.cfg.Tempo.Speed
}

func (r *Runner) maxCues(req Request) int {
	if req.MaxCues != 0 {
		return req.MaxCues
	}
	return r.cfg.Timeline.MaxCues
}

// lockOutput takes a non-blocking lock beside output. The returned func
// releases it and removes the lock file.
func lockOutput(output string) (func(), error) {
	lockPath := output + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "lock", output, ErrOutputBusy)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}

func outputExt(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return ".mp4"
}
