package subtitle

import (
	"errors"
	"fmt"
	"time"

	"narrasync/internal/services"
)

// ErrMalformed marks subtitle input that cannot drive a timeline.
var ErrMalformed = fmt.Errorf("%w: malformed subtitle", services.ErrValidation)

// Cue is one subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration returns the length of the cue's time slot.
func (c Cue) Duration() time.Duration {
	return c.End - c.Start
}

// TimingLine renders the cue's timing line, e.g. "00:00:01,000 --> 00:00:02,500".
func (c Cue) TimingLine() string {
	return FormatTimestamp(c.Start) + timingSeparator + FormatTimestamp(c.End)
}

// MalformedError describes why a cue block was rejected.
type MalformedError struct {
	Block  int
	Line   int
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: block %d (line %d): %s", ErrMalformed, e.Block, e.Line, e.Reason)
	}
	return fmt.Sprintf("%v: block %d: %s", ErrMalformed, e.Block, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformed and its validation marker.
func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// Malformed builds a MalformedError for callers outside the parser (the
// timeline builder rejects zero-length and overlapping cues this way).
func Malformed(cueIndex int, format string, args ...any) error {
	return &MalformedError{Block: cueIndex, Reason: fmt.Sprintf(format, args...)}
}

// IsMalformed reports whether err stems from unusable subtitle input.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
