package main

import (
	"errors"

	"github.com/spf13/cobra"

	"narrasync/internal/deps"
	"narrasync/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify external tools and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := deps.CheckBinaries(cmd.Context(), deps.Requirements(cfg), ctx.runner())
			depRows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				detail := s.Version
				if !s.Available || detail == "" {
					detail = s.Detail
				}
				depRows = append(depRows, []string{s.Name, checkMark(s.Available), s.Path, detail, s.Description})
			}
			fprintf(out, "%s\n", renderTable(tableSpec{
				Title:   "Dependencies",
				Headers: []string{"Tool", "OK", "Path", "Version", "Used for"},
				Rows:    depRows,
			}))

			results := preflight.RunAll(cmd.Context(), cfg)
			dirRows := make([][]string, 0, len(results))
			for _, r := range results {
				dirRows = append(dirRows, []string{r.Name, checkMark(r.Passed), r.Detail})
			}
			fprintf(out, "%s\n", renderTable(tableSpec{
				Title:   "Directories",
				Headers: []string{"Check", "OK", "Detail"},
				Rows:    dirRows,
			}))

			return errors.Join(deps.Missing(statuses), preflight.Failed(results))
		},
	}
}

func checkMark(ok bool) string {
	if ok {
		return "yes"
	}
	return "NO"
}
