// Package deps checks that the external programs narrasync drives are
// installed.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"narrasync/internal/config"
	"narrasync/internal/services"
)

// Requirement names one external binary.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// VersionArgs prints a version banner; empty skips the version probe.
	VersionArgs []string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Path      string
	Available bool
	Version   string
	Detail    string
}

// Requirements lists the binaries a run needs under cfg.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.Retime.FFmpegBinary, Description: "Segment rendering, muxing, tempo and audio decoding", VersionArgs: []string{"-version"}},
		{Name: "FFprobe", Command: cfg.Retime.FFprobeBinary, Description: "Frame rate and drift inspection", VersionArgs: []string{"-version"}},
		{Name: "edge-tts", Command: cfg.Narration.Binary, Description: "Narration synthesis", VersionArgs: []string{"--version"}},
	}
}

// CheckBinaries resolves each requirement on PATH. When run is non-nil the
// first line of the version banner is recorded as well.
func CheckBinaries(ctx context.Context, requirements []Requirement, run services.CommandRunner) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		if req.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		if run != nil && len(req.VersionArgs) > 0 {
			if out, err := run(ctx, path, req.VersionArgs...); err == nil {
				status.Version = firstLine(string(out))
			} else {
				status.Detail = "version probe failed"
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns a configuration error naming every unavailable required
// binary, or nil when all are present.
func Missing(statuses []Status) error {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Command)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "deps", "check", "missing required binaries: "+strings.Join(missing, ", "), nil)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
