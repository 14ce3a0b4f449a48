package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"narrasync/internal/config"
	"narrasync/internal/pipeline"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "batch <video-dir> <subtitle-dir>",
		Short: "Convert every video in a directory with its subtitle file",
		Long: "Pairs the .mp4 files of <video-dir> with the .srt files of <subtitle-dir> " +
			"in sorted name order. Both directories must hold the same number of files.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			progress := newProgressReporter(cmd.ErrOrStderr(), quiet)
			opts := []pipeline.Option{pipeline.WithProgress(progress.update)}
			return ctx.withPipeline(cmd, opts, func(cfg *config.Config, runner *pipeline.Runner) error {
				batch, err := runner.Batch(cmd.Context(), args[0], args[1], outputDir)
				progress.finish()
				if len(batch.Items) > 0 {
					printBatchResult(cmd, batch)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for converted videos (default paths.output_dir)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide progress bars")
	return cmd
}

func printBatchResult(cmd *cobra.Command, batch pipeline.BatchResult) {
	rows := make([][]string, 0, len(batch.Items))
	for i, item := range batch.Items {
		status := "ok"
		if item.Err != nil {
			status = "failed"
		} else if n := len(item.Result.Warnings); n > 0 {
			status = fmt.Sprintf("ok (%d warnings)", n)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			filepath.Base(item.Video),
			filepath.Base(item.Subtitle),
			filepath.Base(item.Output),
			status,
			formatDuration(item.Result.Elapsed),
		})
	}
	fprintf(cmd.OutOrStdout(), "%s\n", renderTable(tableSpec{
		Title:   "Batch " + shortID(batch.ID),
		Headers: []string{"#", "Video", "Subtitle", "Output", "Status", "Elapsed"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		Footer:  []string{"", "", "", "Failed", strconv.Itoa(batch.Failed()), ""},
	}))
}
