package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scenesync/internal/episode"
	"scenesync/internal/history"
	"scenesync/internal/logging"
	"scenesync/internal/workflow"
)

type runFlags struct {
	force     bool
	dryRun    bool
	alignOnly bool
	noGPU     bool
	parallel  int
	jsonOut   bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [episode-dir-or-script ...]",
		Short: "Transcribe, subtitle and align episodes",
		Long: `Process episodes under the projects directory.

With no arguments every <projects>/<series>/<episode> directory is processed.
Arguments may name episode directories or capcut-api.json scripts; scripts are
mapped to their episode through project_path or their meta block.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if flags.noGPU {
				cfg.WhisperX.RequireGPU = false
			}
			logger := ctx.logger()

			episodes, err := collectEpisodes(cmd.ErrOrStderr(), cfg.Paths.ProjectsDir, args)
			if err != nil {
				return err
			}
			if len(episodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No episodes found")
				return nil
			}

			opts := []workflow.ManagerOption{}
			if !flags.dryRun {
				store, err := ctx.openHistory(cmd.Context())
				if err != nil {
					logging.WarnWithContext(logger, "run history disabled", "history_unavailable",
						logging.Error(err),
						logging.String(logging.FieldImpact, "this run will not appear in `scenesync history`"),
					)
				} else {
					defer store.Close()
					opts = append(opts, workflow.WithRecorder(store))
				}
			}

			manager := workflow.NewManager(cfg, logger, opts...)
			summary, err := manager.Run(cmd.Context(), episodes, workflow.Options{
				Force:     flags.force,
				DryRun:    flags.dryRun,
				AlignOnly: flags.alignOnly,
				Parallel:  flags.parallel,
			})
			if err != nil && len(summary.Results) == 0 {
				return err
			}

			if flags.jsonOut {
				if jsonErr := writeJSON(cmd, summaryView(summary)); jsonErr != nil {
					return jsonErr
				}
			} else {
				printSummary(cmd.OutOrStdout(), summary)
			}
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d episodes failed", summary.Failed, summary.Total())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Re-transcribe and re-align even when outputs exist")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "List planned work without running anything")
	cmd.Flags().BoolVar(&flags.alignOnly, "align-only", false, "Skip transcription and align with existing transcripts")
	cmd.Flags().BoolVar(&flags.noGPU, "no-gpu", false, "Allow WhisperX to run without a GPU")
	cmd.Flags().IntVarP(&flags.parallel, "parallel", "p", 0, "Episodes processed concurrently (default from config)")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the summary as JSON")
	return cmd
}

// collectEpisodes resolves command-line arguments, or discovers every episode
// when none are given. Arguments that cannot be resolved are reported and
// dropped so the rest of the batch still runs.
func collectEpisodes(warn io.Writer, projectsDir string, args []string) ([]episode.Episode, error) {
	if len(args) == 0 {
		return episode.Discover(projectsDir)
	}
	episodes := make([]episode.Episode, 0, len(args))
	var unresolved int
	for _, arg := range args {
		ep, err := episode.FromArg(strings.TrimSpace(arg), projectsDir)
		if err != nil {
			fmt.Fprintf(warn, "skipping %s: %v\n", arg, err)
			unresolved++
			continue
		}
		episodes = append(episodes, ep)
	}
	if len(episodes) == 0 && unresolved > 0 {
		return nil, errors.New("none of the given episodes could be resolved")
	}
	return episodes, nil
}

type episodeView struct {
	Episode     string   `json:"episode"`
	Status      string   `json:"status"`
	Transcribed bool     `json:"transcribed"`
	Scenes      int      `json:"scenes"`
	Unaligned   int      `json:"unaligned"`
	Cues        int      `json:"cues"`
	Duration    *int     `json:"duration"`
	Planned     []string `json:"planned,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type batchView struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Unaligned int           `json:"unaligned_scenes"`
	ElapsedMS int64         `json:"elapsed_ms"`
	Episodes  []episodeView `json:"episodes"`
}

func summaryView(s workflow.Summary) batchView {
	view := batchView{
		RunID:     s.RunID,
		Total:     s.Total(),
		Succeeded: s.Succeeded(),
		Failed:    s.Failed,
		Skipped:   s.Skipped,
		Unaligned: s.Unaligned(),
		ElapsedMS: s.Elapsed.Milliseconds(),
		Episodes:  make([]episodeView, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		ev := episodeView{
			Episode:     r.Episode,
			Status:      string(r.Status),
			Transcribed: r.Transcribed,
			Scenes:      r.Scenes,
			Unaligned:   r.Unaligned,
			Cues:        r.Cues,
			Duration:    r.Duration,
			Planned:     r.Planned,
		}
		if r.Err != nil {
			ev.Error = r.Err.Error()
		}
		view.Episodes = append(view.Episodes, ev)
	}
	return view
}

func printSummary(out io.Writer, s workflow.Summary) {
	rows := make([][]string, 0, len(s.Results))
	for _, r := range s.Results {
		note := ""
		switch {
		case r.Err != nil:
			note = r.Err.Error()
		case r.Status == history.StatusDryRun:
			note = strings.Join(r.Planned, "; ")
		}
		rows = append(rows, []string{
			r.Episode,
			string(r.Status),
			yesNo(r.Transcribed),
			fmt.Sprintf("%d", r.Scenes),
			fmt.Sprintf("%d", r.Unaligned),
			fmt.Sprintf("%d", r.Cues),
			intOrDash(r.Duration),
			note,
		})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		Headers: []string{"Episode", "Status", "Transcribed", "Scenes", "Unaligned", "Cues", "Duration", "Note"},
		Aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
		Rows:    rows,
	}))
	fmt.Fprintf(out, "Total: %d  Success: %d  Failed: %d  (run %s, %s)\n",
		s.Total(), s.Succeeded(), s.Failed, s.RunID, s.Elapsed.Round(time.Millisecond))
}
