package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"narrasync/internal/logging"
	"narrasync/internal/services"
	"narrasync/internal/textutil"
)

// ErrCountMismatch reports a batch whose video and subtitle counts differ.
var ErrCountMismatch = fmt.Errorf("%w: video and subtitle counts differ", services.ErrValidation)

// Extensions matched by Batch.
const (
	VideoExt    = ".mp4"
	SubtitleExt = ".srt"
)

// Pair is one video/subtitle match within a batch.
type Pair struct {
	Video    string
	Subtitle string
	Output   string
}

// BatchItem is the outcome of one pair.
type BatchItem struct {
	Pair
	Result Result
	Err    error
}

// BatchResult collects the items of one batch.
type BatchResult struct {
	ID    string
	Items []BatchItem
}

// Failed counts items that returned an error.
func (b BatchResult) Failed() int {
	n := 0
	for _, item := range b.Items {
		if item.Err != nil {
			n++
		}
	}
	return n
}

// PairFiles lists the videos of videoDir and the subtitles of subtitleDir,
// sorts each by name and pairs them by position. Output names get a short
// random suffix so repeated batches never collide.
func PairFiles(videoDir, subtitleDir, outputDir string) ([]Pair, error) {
	videos, err := listByExt(videoDir, VideoExt)
	if err != nil {
		return nil, err
	}
	subtitles, err := listByExt(subtitleDir, SubtitleExt)
	if err != nil {
		return nil, err
	}
	if len(videos) != len(subtitles) {
		return nil, fmt.Errorf("%w: %d %s files in %s, %d %s files in %s",
			ErrCountMismatch, len(videos), VideoExt, videoDir, len(subtitles), SubtitleExt, subtitleDir)
	}
	if len(videos) == 0 {
		return nil, services.Wrap(services.ErrValidation, "batch", "pair", "no "+VideoExt+" files in "+videoDir, nil)
	}

	pairs := make([]Pair, len(videos))
	for i := range videos {
		pairs[i] = Pair{
			Video:    videos[i],
			Subtitle: subtitles[i],
			Output:   filepath.Join(outputDir, OutputName(videos[i])),
		}
	}
	return pairs, nil
}

// OutputName derives "<base>-<8 hex>.mp4" from a source video path.
func OutputName(video string) string {
	base := textutil.Stem(video)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return base + "-" + suffix + VideoExt
}

// Batch converts every pair found in videoDir and subtitleDir into outputDir.
// A count mismatch fails before any conversion starts. Individual failures
// are recorded and the batch continues; cancellation stops it. The returned
// error joins the per-item failures.
func (r *Runner) Batch(ctx context.Context, videoDir, subtitleDir, outputDir string) (BatchResult, error) {
	if strings.TrimSpace(outputDir) == "" {
		outputDir = r.cfg.Paths.OutputDir
	}
	pairs, err := PairFiles(videoDir, subtitleDir, outputDir)
	if err != nil {
		return BatchResult{}, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("create output directory: %w", err)
	}

	batch := BatchResult{ID: uuid.NewString()}
	logger := r.logger.With(logging.String("batch_id", batch.ID))
	logger.Info("batch started", logging.Int("pairs", len(pairs)), logging.String("output_dir", outputDir))

	var errs []error
	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		res, runErr := r.Run(ctx, Request{
			Source:   pair.Video,
			Subtitle: pair.Subtitle,
			Output:   pair.Output,
			BatchID:  batch.ID,
		})
		batch.Items = append(batch.Items, BatchItem{Pair: pair, Result: res, Err: runErr})
		if runErr == nil {
			continue
		}
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			return batch, runErr
		}
		logging.WarnWithContext(logger, "batch item failed", "batch_item_failed",
			logging.Int("item", i+1),
			logging.String("video", filepath.Base(pair.Video)),
			logging.Error(runErr),
		)
		errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(pair.Video), runErr))
	}
	logger.Info("batch finished",
		logging.Int("pairs", len(pairs)),
		logging.Int("failed", batch.Failed()),
	)
	return batch, errors.Join(errs...)
}

func listByExt(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "batch", "list", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(files)
	return files, nil
}
