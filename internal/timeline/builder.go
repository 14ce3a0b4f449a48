package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"narrasync/internal/audio"
	"narrasync/internal/logging"
	"narrasync/internal/narration"
	"narrasync/internal/services"
	"narrasync/internal/subtitle"
)

// Options tunes segment construction.
type Options struct {
	Voice string
	// Epsilon is the widest gap absorbed without a silent segment. The
	// boundary is inclusive.
	Epsilon time.Duration
	// MaxCues caps how many cues are used; -1 (or 0) keeps all of them.
	MaxCues int
	// MinNarration is the shortest trimmed narration accepted as speech.
	MinNarration time.Duration
	// Concurrency bounds parallel narration requests.
	Concurrency int
	SampleRate  int
}

// Builder constructs timelines from cues.
type Builder struct {
	provider narration.Provider
	trimmer  *audio.Trimmer
	opts     Options
	logger   *slog.Logger
	progress func(done, total int)
}

// NewBuilder returns a builder. trimmer may be nil to keep narration as
// delivered by the provider.
func NewBuilder(provider narration.Provider, trimmer *audio.Trimmer, opts Options, logger *slog.Logger) *Builder {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = audio.DefaultSampleRate
	}
	return &Builder{
		provider: provider,
		trimmer:  trimmer,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "timeline"),
	}
}

// WithProgress registers a callback invoked after each narration completes.
// It may be called from multiple goroutines.
func (b *Builder) WithProgress(fn func(done, total int)) *Builder {
	b.progress = fn
	return b
}

// SelectCues applies the MaxCues cap.
func SelectCues(cues []subtitle.Cue, maxCues int) []subtitle.Cue {
	if maxCues > 0 && maxCues < len(cues) {
		return cues[:maxCues]
	}
	return cues
}

// Build validates the cues, fetches narration for each and folds them into a
// timeline. Subtitle problems fail with subtitle.ErrMalformed; narration
// failures degrade the affected cue to a silent filler and add a warning.
func (b *Builder) Build(ctx context.Context, cues []subtitle.Cue) (*Timeline, error) {
	cues = SelectCues(cues, b.opts.MaxCues)
	if err := CheckCues(cues); err != nil {
		return nil, err
	}

	narrations, err := b.fetch(ctx, cues)
	if err != nil {
		return nil, err
	}

	tl := &Timeline{SampleRate: b.opts.SampleRate}
	var previousEnd time.Duration
	for i, cue := range cues {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		previousEnd, err = b.fold(tl, previousEnd, cue, narrations[i])
		if err != nil {
			return nil, err
		}
	}

	if err := tl.Validate(); err != nil {
		return nil, fmt.Errorf("timeline invariant: %w", err)
	}
	spoken, silent := tl.Counts()
	logging.WithContext(ctx, b.logger).Info("timeline built",
		logging.Int("cues", len(cues)),
		logging.Int("spoken_segments", spoken),
		logging.Int("silent_segments", silent),
		logging.Int("warnings", len(tl.Warnings)),
		logging.Duration("retimed_duration", tl.Duration()),
	)
	return tl, nil
}

// fold appends the segments for one cue and returns the new previousEnd.
func (b *Builder) fold(tl *Timeline, previousEnd time.Duration, cue subtitle.Cue, result narrationResult) (time.Duration, error) {
	gap := cue.Start - previousEnd
	if gap < 0 {
		return 0, subtitle.Malformed(cue.Index, "overlaps previous cue by %s", -gap)
	}
	if cue.Duration() <= 0 {
		return 0, subtitle.Malformed(cue.Index, "non-positive duration %s", cue.Duration())
	}

	videoStart := cue.Start
	if gap > b.opts.Epsilon {
		tl.Segments = append(tl.Segments, Segment{
			Kind:        KindSilent,
			Start:       previousEnd,
			End:         cue.Start,
			SpeedFactor: 1,
		})
	} else {
		videoStart = previousEnd
	}

	clip, reason := b.accept(result)
	if reason != "" {
		tl.Warnings = append(tl.Warnings, Warning{CueIndex: cue.Index, Reason: reason, Err: result.err})
		logging.WarnWithContext(b.logger, "narration replaced with silence", "narration_degraded",
			logging.Int(logging.FieldCueIndex, cue.Index),
			logging.String("reason", reason),
			logging.Error(result.err),
			logging.String(logging.FieldErrorHint, "check the voice name and provider connectivity"),
			logging.String(logging.FieldImpact, "cue plays without narration"),
		)
		tl.Segments = append(tl.Segments, Segment{
			Kind:        KindSilent,
			Start:       videoStart,
			End:         cue.End,
			CueIndex:    cue.Index,
			Text:        cue.Text,
			SpeedFactor: 1,
			Filler:      true,
		})
		return cue.End, nil
	}

	videoRange := cue.End - videoStart
	tl.Segments = append(tl.Segments, Segment{
		Kind:        KindSpoken,
		Start:       videoStart,
		End:         cue.End,
		CueIndex:    cue.Index,
		Text:        cue.Text,
		Narration:   clip,
		SpeedFactor: float64(clip.Duration()) / float64(videoRange),
	})
	return cue.End, nil
}

// accept returns the usable clip, or a non-empty reason when the cue must
// fall back to silence.
func (b *Builder) accept(result narrationResult) (*audio.Clip, string) {
	switch {
	case result.err != nil:
		return nil, "synthesis failed"
	case result.clip.Duration() == 0:
		return nil, "narration is empty"
	case result.clip.Duration() < b.opts.MinNarration:
		return nil, fmt.Sprintf("narration shorter than %s", b.opts.MinNarration)
	case result.clip.SampleRate() != b.opts.SampleRate:
		return nil, fmt.Sprintf("narration sample rate %d, want %d", result.clip.SampleRate(), b.opts.SampleRate)
	}
	return result.clip, ""
}

// CheckCues rejects cue lists that cannot produce a gapless timeline.
func CheckCues(cues []subtitle.Cue) error {
	var previousEnd time.Duration
	for _, cue := range cues {
		if cue.Duration() <= 0 {
			return subtitle.Malformed(cue.Index, "non-positive duration %s", cue.Duration())
		}
		if cue.Start < previousEnd {
			return subtitle.Malformed(cue.Index, "overlaps previous cue by %s", previousEnd-cue.Start)
		}
		previousEnd = cue.End
	}
	return nil
}

type narrationResult struct {
	clip *audio.Clip
	err  error
}

// fetch synthesizes and trims narration for every cue with at most
// Concurrency requests in flight. results[i] belongs to cues[i].
func (b *Builder) fetch(ctx context.Context, cues []subtitle.Cue) ([]narrationResult, error) {
	results := make([]narrationResult, len(cues))
	sem := make(chan struct{}, b.opts.Concurrency)
	var wg sync.WaitGroup
	var done atomic.Int64

loop:
	for i, cue := range cues {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = b.narrate(ctx, cue)
			if b.progress != nil {
				b.progress(int(done.Add(1)), len(cues))
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) narrate(ctx context.Context, cue subtitle.Cue) narrationResult {
	ctx = services.WithCueIndex(ctx, cue.Index)
	start := time.Now()
	clip, err := b.provider.Synthesize(ctx, cue.Text, b.opts.Voice)
	if err != nil {
		if !errors.Is(err, narration.ErrSynthesis) {
			err = fmt.Errorf("%w: %w", narration.ErrSynthesis, err)
		}
		return narrationResult{err: err}
	}
	raw := clip.Duration()
	if b.trimmer != nil {
		clip = b.trimmer.Trim(clip)
	}
	logging.WithContext(ctx, b.logger).Debug("narration ready",
		logging.Duration("raw_duration", raw),
		logging.Duration("trimmed_duration", clip.Duration()),
		logging.Duration("slot", cue.Duration()),
		logging.Duration("elapsed", time.Since(start)),
	)
	return narrationResult{clip: clip}
}
