package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scenesync/internal/align"
	"scenesync/internal/logging"
	"scenesync/internal/media/ffprobe"
	"scenesync/internal/script"
	"scenesync/internal/transcript"
)

type alignedSceneView struct {
	Scene int     `json:"scene"`
	Start *int    `json:"start"`
	End   *int    `json:"end"`
	Score float64 `json:"score"`
}

type alignView struct {
	Script    string             `json:"script"`
	Duration  *int               `json:"duration"`
	Unaligned int                `json:"unaligned"`
	Scenes    []alignedSceneView `json:"scenes"`
}

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var transcriptPath string
	var audioPath string
	var threshold float64
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "align <script.json>",
		Short: "Time a single script's scenes against a WhisperX transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger := logging.NewComponentLogger(ctx.logger(), "align")
			scriptPath := strings.TrimSpace(args[0])

			doc, err := script.Load(scriptPath)
			if err != nil {
				return fmt.Errorf("load script: %w", err)
			}
			tr, err := transcript.Load(transcriptPath)
			if err != nil {
				if !errors.Is(err, transcript.ErrMalformed) {
					return fmt.Errorf("load transcript: %w", err)
				}
				logging.WarnWithContext(logger, "transcript malformed, treating as empty", "transcript_malformed",
					logging.String("transcript", transcriptPath),
					logging.Error(err),
					logging.String(logging.FieldImpact, "every scene stays untimed"),
				)
			}

			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Alignment.AcceptThreshold
			}
			if threshold <= 0 || threshold >= 1 {
				return fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
			}
			aligned := align.AlignScenes(doc.Narrations(), tr.Segments, align.Options{Threshold: threshold})

			var probed *float64
			if audio := strings.TrimSpace(audioPath); audio != "" {
				prober := ffprobe.NewProber(cfg.Media.FFprobeBinary, cfg.Media.FFmpegBinary)
				seconds, err := prober.Duration(cmd.Context(), audio)
				if err != nil {
					logging.WarnWithContext(logger, "audio duration unavailable", "duration_unavailable",
						logging.String("audio", audio),
						logging.Error(err),
						logging.String(logging.FieldImpact, "last scene keeps its aligned end"),
					)
				} else {
					probed = &seconds
				}
			}
			if duration := align.Reconcile(aligned, probed); duration != nil {
				doc.SetDuration(*duration)
			}
			if err := doc.SetImages(filepath.Dir(scriptPath)); err != nil {
				return err
			}
			doc.Apply(aligned)

			if !dryRun {
				if err := doc.Save(scriptPath); err != nil {
					return err
				}
			}

			view := alignView{
				Script:    scriptPath,
				Duration:  doc.Duration(),
				Unaligned: align.UnalignedCount(aligned),
				Scenes:    make([]alignedSceneView, 0, len(aligned)),
			}
			for _, s := range aligned {
				view.Scenes = append(view.Scenes, alignedSceneView{Scene: s.Index + 1, Start: s.Start, End: s.End, Score: s.Score})
			}
			if jsonOut {
				return writeJSON(cmd, view)
			}
			printAlignment(cmd, view, dryRun)
			return nil
		},
	}

	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "WhisperX JSON transcript")
	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Narration audio used to force the final scene end")
	cmd.Flags().Float64Var(&threshold, "threshold", align.DefaultThreshold, "Minimum score a window must exceed")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the alignment without saving the script")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the alignment as JSON")
	_ = cmd.MarkFlagRequired("transcript")
	return cmd
}

func printAlignment(cmd *cobra.Command, view alignView, dryRun bool) {
	rows := make([][]string, 0, len(view.Scenes))
	for _, s := range view.Scenes {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Scene),
			intOrDash(s.Start),
			intOrDash(s.End),
			fmt.Sprintf("%.3f", s.Score),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(tableSpec{
		Headers: []string{"Scene", "Start", "End", "Score"},
		Aligns:  []columnAlignment{alignRight, alignRight, alignRight, alignRight},
		Rows:    rows,
	}))
	fmt.Fprintf(out, "Unaligned: %d  Duration: %s\n", view.Unaligned, intOrDash(view.Duration))
	if dryRun {
		fmt.Fprintln(out, "Dry run: script not saved")
	} else {
		fmt.Fprintf(out, "Updated %s\n", view.Script)
	}
}
