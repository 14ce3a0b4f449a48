package timeline

import (
	"fmt"
	"time"

	"narrasync/internal/audio"
)

// Kind distinguishes segment types.
type Kind int

const (
	KindSilent Kind = iota
	KindSpoken
)

func (k Kind) String() string {
	switch k {
	case KindSpoken:
		return "spoken"
	case KindSilent:
		return "silent"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Segment is a contiguous [Start, End) range of the source video and the
// audio that plays over it after retiming.
type Segment struct {
	Kind  Kind
	Start time.Duration
	End   time.Duration
	// CueIndex is the subtitle index this segment narrates, or 0 for gaps.
	CueIndex int
	Text     string
	// Narration is set for spoken segments only.
	Narration *audio.Clip
	// SpeedFactor scales presentation timestamps: output video length is
	// (End-Start) * SpeedFactor.
	SpeedFactor float64
	// Filler marks a cue whose narration failed and now plays as silence.
	Filler bool
}

// VideoDuration is the length of the source range.
func (s Segment) VideoDuration() time.Duration {
	return s.End - s.Start
}

// Duration is the segment's length after retiming. Spoken segments last as
// long as their narration; silent ones keep their source length.
func (s Segment) Duration() time.Duration {
	if s.Kind == KindSpoken && s.Narration != nil {
		return s.Narration.Duration()
	}
	return s.VideoDuration()
}

// Warning records a degraded cue.
type Warning struct {
	CueIndex int
	Reason   string
	Err      error
}

func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("cue %d: %s: %v", w.CueIndex, w.Reason, w.Err)
	}
	return fmt.Sprintf("cue %d: %s", w.CueIndex, w.Reason)
}

// Timeline is the frozen result of Build.
type Timeline struct {
	Segments   []Segment
	SampleRate int
	Warnings   []Warning
}

// End returns the end of the covered source range.
func (t *Timeline) End() time.Duration {
	if t == nil || len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// Duration sums the retimed segment lengths.
func (t *Timeline) Duration() time.Duration {
	var total time.Duration
	for _, seg := range t.Segments {
		total += seg.Duration()
	}
	return total
}

// Counts returns the number of spoken and silent segments.
func (t *Timeline) Counts() (spoken, silent int) {
	for _, seg := range t.Segments {
		if seg.Kind == KindSpoken {
			spoken++
		} else {
			silent++
		}
	}
	return spoken, silent
}

// Validate checks that segments tile [0, End()) in order.
func (t *Timeline) Validate() error {
	var cursor time.Duration
	for i, seg := range t.Segments {
		if seg.Start != cursor {
			return fmt.Errorf("segment %d starts at %s, expected %s", i, seg.Start, cursor)
		}
		if seg.End <= seg.Start {
			return fmt.Errorf("segment %d has empty range %s-%s", i, seg.Start, seg.End)
		}
		if seg.SpeedFactor <= 0 {
			return fmt.Errorf("segment %d has speed factor %v", i, seg.SpeedFactor)
		}
		if seg.Kind == KindSpoken && seg.Narration.Len() == 0 {
			return fmt.Errorf("segment %d is spoken without narration", i)
		}
		cursor = seg.End
	}
	return nil
}
