package history

import (
	"strings"
	"time"
)

// StatusRunning marks a run that has started but not finished. Finished runs
// carry one of the services.Status* values.
const StatusRunning = "running"

// Run is one pipeline invocation.
type Run struct {
	ID             string
	BatchID        string
	SourcePath     string
	SubtitlePath   string
	OutputPath     string
	Voice          string
	Speed          float64
	Status         string
	Cues           int
	SpokenSegments int
	SilentSegments int
	Warnings       []string
	Drift          time.Duration
	OutputBytes    int64
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Elapsed returns the run's wall time, or zero while it is running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the fields written when a run finishes.
type Outcome struct {
	Status         string
	Cues           int
	SpokenSegments int
	SilentSegments int
	Warnings       []string
	Drift          time.Duration
	OutputBytes    int64
	Err            error
}

const warningSeparator = "\n"

func joinWarnings(warnings []string) string {
	return strings.Join(warnings, warningSeparator)
}

func splitWarnings(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, warningSeparator)
}
