package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scenesync/internal/episode"
	"scenesync/internal/subtitles"
	"scenesync/internal/textutil"
	"scenesync/internal/transcript"
)

func newSRTCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var name string

	cmd := &cobra.Command{
		Use:   "srt <transcript.whisperx.json>",
		Short: "Write an SRT subtitle file from a WhisperX transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			input := strings.TrimSpace(args[0])
			tr, err := transcript.Load(input)
			if err != nil {
				return fmt.Errorf("load transcript: %w", err)
			}

			target := subtitleTarget(input, strings.TrimSpace(outputPath), name)
			cues := subtitles.Segment(tr.Segments, subtitles.Options{
				PauseThreshold: cfg.Subtitles.PauseThreshold,
				MaxDuration:    cfg.Subtitles.MaxDuration,
				MaxWords:       cfg.Subtitles.MaxWords,
			})
			if len(cues) == 0 {
				return fmt.Errorf("transcript %s has no timed text", input)
			}
			if err := subtitles.WriteFile(target, cues); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cues to %s\n", len(cues), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output SRT path (default: next to the transcript)")
	cmd.Flags().StringVar(&name, "name", "", "Base name for the SRT file placed next to the transcript")
	return cmd
}

func subtitleTarget(input, output, name string) string {
	if output != "" {
		return output
	}
	if name = strings.TrimSpace(name); name != "" {
		return filepath.Join(filepath.Dir(input), textutil.SanitizeFileName(name)+episode.SubtitleExt)
	}
	return episode.SubtitlePath(input)
}
