package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"narrasync/internal/config"
	"narrasync/internal/pipeline"
	"narrasync/internal/subtitle"
	"narrasync/internal/timeline"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "plan <subtitle>",
		Short: "Narrate the cues and print the segment plan without rendering video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			progress := newProgressReporter(cmd.ErrOrStderr(), flags.quiet)
			opts := []pipeline.Option{pipeline.WithProgress(progress.update)}
			return ctx.withPipeline(cmd, opts, func(_ *config.Config, runner *pipeline.Runner) error {
				tl, err := runner.Plan(cmd.Context(), args[0], flags.request("", args[0], ""))
				progress.finish()
				if err != nil {
					return err
				}
				printPlan(cmd, tl)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func printPlan(cmd *cobra.Command, tl *timeline.Timeline) {
	rows := make([][]string, 0, len(tl.Segments))
	for i, seg := range tl.Segments {
		cue := "-"
		if seg.CueIndex > 0 {
			cue = strconv.Itoa(seg.CueIndex)
		}
		kind := seg.Kind.String()
		if seg.Filler {
			kind += " (filler)"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			kind,
			cue,
			subtitle.FormatTimestamp(seg.Start),
			subtitle.FormatTimestamp(seg.End),
			formatDuration(seg.Duration()),
			strconv.FormatFloat(seg.SpeedFactor, 'f', 3, 64),
		})
	}
	spoken, silent := tl.Counts()
	out := cmd.OutOrStdout()
	fprintf(out, "%s\n", renderTable(tableSpec{
		Headers: []string{"#", "Kind", "Cue", "Start", "End", "Duration", "Speed"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight},
		Footer:  []string{"", fmt.Sprintf("%d spoken, %d silent", spoken, silent), "", "", "", formatDuration(tl.Duration()), ""},
	}))
	for _, w := range tl.Warnings {
		fprintf(out, "warning: %s\n", w)
	}
}
