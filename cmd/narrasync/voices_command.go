package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"narrasync/internal/narration"
	"narrasync/internal/pipeline"
	"narrasync/internal/textutil"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List narration voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			provider := pipeline.NewProvider(cfg, ctx.runner())
			voices, err := provider.ListVoices(cmd.Context())
			if err != nil {
				return err
			}
			voices = narration.FilterVoices(voices, locale)

			out := cmd.OutOrStdout()
			if len(voices) == 0 {
				fmt.Fprintln(out, "No voices matched")
				return nil
			}
			rows := make([][]string, 0, len(voices))
			for _, v := range voices {
				marker := ""
				if v.Name == cfg.Narration.Voice {
					marker = "*"
				}
				rows = append(rows, []string{marker, v.Name, v.Gender, v.Locale, v.LocaleName()})
			}
			fprintf(out, "%s\n", renderTable(tableSpec{
				Headers: []string{"", "Voice", "Gender", "Locale", "Language"},
				Rows:    rows,
				Footer:  []string{"", strconv.Itoa(len(voices)) + " voices", "", "", ""},
			}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Only show voices whose locale starts with this prefix (e.g. en, zh-CN)")
	return cmd
}

func newSayCommand(ctx *commandContext) *cobra.Command {
	var voice string
	var output string

	cmd := &cobra.Command{
		Use:   "say <text>",
		Short: "Synthesize one sentence to an audio file to audition a voice",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			if strings.TrimSpace(voice) == "" {
				voice = cfg.Narration.Voice
			}
			target := strings.TrimSpace(output)
			if target == "" {
				target = filepath.Join(cfg.Paths.OutputDir, "preview-"+textutil.SanitizeToken(voice)+".mp3")
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			provider := pipeline.NewProvider(cfg, ctx.runner())
			if err := provider.SynthesizeToFile(cmd.Context(), text, voice, target); err != nil {
				return err
			}
			fprintf(cmd.OutOrStdout(), "Wrote %s narration to %s\n", voice, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&voice, "voice", "", "Voice to use (default narration.voice)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination audio file (default <output_dir>/preview-<voice>.mp3)")
	return cmd
}
