package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"narrasync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statuses []string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit, statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						formatWhen(run.StartedAt),
						filepath.Base(run.SourcePath),
						run.Status,
						fmt.Sprintf("%d/%d", run.SpokenSegments, run.SilentSegments),
						strconv.Itoa(len(run.Warnings)),
						formatBytes(run.OutputBytes),
						formatDuration(run.Elapsed()),
					})
				}
				fprintf(out, "%s\n", renderTable(tableSpec{
					Headers: []string{"ID", "Started", "Source", "Status", "Spoken/Silent", "Warnings", "Size", "Elapsed"},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				}))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (running, succeeded, failed, invalid, canceled)")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := resolveRun(cmd, store, args[0])
				if err != nil {
					return err
				}
				rows := [][]string{
					{"ID", run.ID},
					{"Status", run.Status},
					{"Source", run.SourcePath},
					{"Subtitle", run.SubtitlePath},
					{"Output", run.OutputPath},
					{"Voice", run.Voice},
					{"Speed", strconv.FormatFloat(run.Speed, 'f', -1, 64)},
					{"Cues", strconv.Itoa(run.Cues)},
					{"Segments", fmt.Sprintf("%d spoken, %d silent", run.SpokenSegments, run.SilentSegments)},
					{"Drift", formatDuration(run.Drift)},
					{"Size", formatBytes(run.OutputBytes)},
					{"Started", run.StartedAt.Local().Format("2006-01-02 15:04:05") + " (" + formatWhen(run.StartedAt) + ")"},
					{"Elapsed", formatDuration(run.Elapsed())},
				}
				if run.BatchID != "" {
					rows = append(rows, []string{"Batch", run.BatchID})
				}
				if run.ErrorMessage != "" {
					rows = append(rows, []string{"Error", run.ErrorMessage})
				}
				out := cmd.OutOrStdout()
				fprintf(out, "%s\n", renderTable(tableSpec{Headers: []string{"Field", "Value"}, Rows: rows}))
				for _, w := range run.Warnings {
					fprintf(out, "warning: %s\n", w)
				}
				return nil
			})
		},
	}
}

// resolveRun accepts a full run ID or the short prefix printed by history.
func resolveRun(cmd *cobra.Command, store *history.Store, id string) (history.Run, error) {
	run, err := store.Get(cmd.Context(), id)
	if err == nil || len(id) >= 36 {
		return run, err
	}
	runs, listErr := store.List(cmd.Context(), 0)
	if listErr != nil {
		return history.Run{}, listErr
	}
	var match *history.Run
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			if match != nil {
				return history.Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return history.Run{}, err
	}
	return *match, nil
}
