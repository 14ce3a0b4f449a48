package narration

import (
	"context"
	"errors"

	"narrasync/internal/audio"
)

// ErrSynthesis marks a failed narration request. The timeline builder treats
// it as a per-cue failure rather than a fatal one.
var ErrSynthesis = errors.New("narration synthesis failed")

// Provider synthesizes one utterance.
type Provider interface {
	Synthesize(ctx context.Context, text, voice string) (*audio.Clip, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, text, voice string) (*audio.Clip, error)

// Synthesize calls f.
func (f ProviderFunc) Synthesize(ctx context.Context, text, voice string) (*audio.Clip, error) {
	return f(ctx, text, voice)
}
