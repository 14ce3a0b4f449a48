package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"narrasync/internal/config"
	"narrasync/internal/pipeline"
)

type runFlags struct {
	output  string
	voice   string
	speed   float64
	maxCues int
	quiet   bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.voice, "voice", "", "Narration voice (default narration.voice)")
	cmd.Flags().Float64Var(&f.speed, "speed", 0, "Global tempo multiplier in [0.8, 2.0] (default tempo.speed)")
	cmd.Flags().IntVar(&f.maxCues, "max-cues", 0, "Only narrate the first N cues; -1 for all (default timeline.max_cues)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Hide progress bars")
}

func (f *runFlags) request(source, subtitle, output string) pipeline.Request {
	return pipeline.Request{
		Source:   source,
		Subtitle: subtitle,
		Output:   output,
		Voice:    f.voice,
		Speed:    f.speed,
		MaxCues:  f.maxCues,
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <video> <subtitle>",
		Short: "Narrate and retime one video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			progress := newProgressReporter(cmd.ErrOrStderr(), flags.quiet)
			opts := []pipeline.Option{pipeline.WithProgress(progress.update)}
			return ctx.withPipeline(cmd, opts, func(cfg *config.Config, runner *pipeline.Runner) error {
				output := strings.TrimSpace(flags.output)
				if output == "" {
					output = filepath.Join(cfg.Paths.OutputDir, pipeline.OutputName(args[0]))
				}
				result, err := runner.Run(cmd.Context(), flags.request(args[0], args[1], output))
				progress.finish()
				if err != nil {
					return err
				}
				printRunResult(cmd, result)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output video path (default <output_dir>/<name>-<id>.mp4)")
	flags.register(cmd)
	return cmd
}

func printRunResult(cmd *cobra.Command, result pipeline.Result) {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"Output", result.Output},
		{"Cues", strconv.Itoa(result.Cues)},
		{"Segments", fmt.Sprintf("%d spoken, %d silent", result.Spoken, result.Silent)},
		{"Drift", fmt.Sprintf("%s (tolerance %s)", formatDuration(result.Retime.Drift), formatDuration(result.Retime.Tolerance))},
		{"Size", formatBytes(result.OutputBytes)},
		{"Elapsed", formatDuration(result.Elapsed)},
	}
	if result.RunID != "" {
		rows = append([][]string{{"Run", result.RunID}}, rows...)
	}
	fprintf(out, "%s\n", renderTable(tableSpec{Headers: []string{"Field", "Value"}, Rows: rows}))
	for _, w := range result.Warnings {
		fprintf(out, "warning: %s\n", w)
	}
}
