package narration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"narrasync/internal/audio"
	"narrasync/internal/services"
)

// Default provider settings.
const (
	DefaultBinary = "edge-tts"
	DefaultRate   = "-4%"
	DefaultVolume = "+0%"
)

// Option configures the EdgeTTS provider.
type Option func(*EdgeTTS)

// WithBinary overrides the edge-tts executable.
func WithBinary(binary string) Option {
	return func(e *EdgeTTS) {
		if strings.TrimSpace(binary) != "" {
			e.binary = binary
		}
	}
}

// WithRate sets the speaking rate adjustment, e.g. "-4%".
func WithRate(rate string) Option {
	return func(e *EdgeTTS) {
		if strings.TrimSpace(rate) != "" {
			e.rate = rate
		}
	}
}

// WithVolume sets the volume adjustment, e.g. "+0%".
func WithVolume(volume string) Option {
	return func(e *EdgeTTS) {
		if strings.TrimSpace(volume) != "" {
			e.volume = volume
		}
	}
}

// WithTimeout bounds each synthesis request. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(e *EdgeTTS) {
		e.timeout = timeout
	}
}

// WithWorkDir sets where intermediate media files are written.
func WithWorkDir(dir string) Option {
	return func(e *EdgeTTS) {
		e.workDir = dir
	}
}

// WithCommandRunner replaces the process runner used for edge-tts.
func WithCommandRunner(run services.CommandRunner) Option {
	return func(e *EdgeTTS) {
		if run != nil {
			e.run = run
		}
	}
}

// EdgeTTS synthesizes narration with the edge-tts CLI.
type EdgeTTS struct {
	binary  string
	rate    string
	volume  string
	timeout time.Duration
	workDir string
	decoder *audio.Decoder
	run     services.CommandRunner
}

// NewEdgeTTS constructs a provider that decodes its output with decoder.
func NewEdgeTTS(decoder *audio.Decoder, opts ...Option) *EdgeTTS {
	if decoder == nil {
		decoder = audio.NewDecoder("", 0)
	}
	e := &EdgeTTS{
		binary:  DefaultBinary,
		rate:    DefaultRate,
		volume:  DefaultVolume,
		decoder: decoder,
		run:     services.RunCommand,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binary returns the configured executable name.
func (e *EdgeTTS) Binary() string {
	return e.binary
}

// Synthesize renders text with voice and returns the decoded clip. Failures
// wrap ErrSynthesis; cancellation of ctx is returned as-is.
func (e *EdgeTTS) Synthesize(ctx context.Context, text, voice string) (*audio.Clip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrSynthesis)
	}
	if strings.TrimSpace(voice) == "" {
		return nil, fmt.Errorf("%w: voice required", ErrSynthesis)
	}

	media, err := os.CreateTemp(e.workDir, "narration-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("%w: create media file: %w", ErrSynthesis, err)
	}
	mediaPath := media.Name()
	media.Close()
	defer os.Remove(mediaPath)

	if err := e.SynthesizeToFile(ctx, text, voice, mediaPath); err != nil {
		return nil, err
	}

	clip, err := e.decoder.DecodeFile(ctx, mediaPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	return clip, nil
}

// SynthesizeToFile writes the provider's media output for text to path.
func (e *EdgeTTS) SynthesizeToFile(ctx context.Context, text, voice, path string) error {
	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if _, err := e.run(runCtx, e.binary, e.SynthesizeArgs(text, voice, path)...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrSynthesis, services.Wrap(services.ErrExternalTool, "narration", "edge-tts", voice, err))
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: media not written: %w", ErrSynthesis, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: empty media output", ErrSynthesis)
	}
	return nil
}

// SynthesizeArgs builds the edge-tts invocation. Rate, volume and text use the
// key=value form because their values may start with a minus sign.
func (e *EdgeTTS) SynthesizeArgs(text, voice, path string) []string {
	return []string{
		"--voice", voice,
		"--rate=" + e.rate,
		"--volume=" + e.volume,
		"--text=" + text,
		"--write-media", path,
	}
}
