package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"narrasync/internal/config"
	"narrasync/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the configured directories. The output directory is only
// checked when it already exists, since batch runs create it on demand.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Paths.HistoryDB != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)))
	}
	if cfg.Paths.OutputDir != "" && exists(cfg.Paths.OutputDir) {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}
	return results
}

// CheckInputs validates the files of one run.
func CheckInputs(source, subtitle, output string) []Result {
	return []Result{
		CheckReadableFile("Source video", source),
		CheckReadableFile("Subtitle file", subtitle),
		CheckOutputPath("Output", output, source),
	}
}

// Failed folds failing results into one validation error, or nil.
func Failed(results []Result) error {
	var failures []string
	for _, r := range results {
		if !r.Passed {
			failures = append(failures, r.Name+": "+r.Detail)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "preflight", "", strings.Join(failures, "; "), nil)
}
