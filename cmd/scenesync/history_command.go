package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scenesync/internal/history"
)

type runView struct {
	RunID       string    `json:"run_id"`
	Episode     string    `json:"episode"`
	Status      string    `json:"status"`
	Transcribed bool      `json:"transcribed"`
	Scenes      int       `json:"scenes"`
	Unaligned   int       `json:"unaligned"`
	Cues        int       `json:"cues"`
	Duration    *int      `json:"duration"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	ElapsedMS   int64     `json:"elapsed_ms"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string
	var clearAll bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent episode runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if clearAll {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d history entries\n", removed)
				return nil
			}

			var runs []history.Run
			if id := strings.TrimSpace(runID); id != "" {
				runs, err = store.ForRun(cmd.Context(), id)
			} else {
				runs, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				views := make([]runView, 0, len(runs))
				for _, r := range runs {
					views = append(views, runView{
						RunID:       r.RunID,
						Episode:     r.Episode,
						Status:      string(r.Status),
						Transcribed: r.Transcribed,
						Scenes:      r.Scenes,
						Unaligned:   r.Unaligned,
						Cues:        r.Cues,
						Duration:    r.Duration,
						Error:       r.ErrorMessage,
						StartedAt:   r.StartedAt,
						ElapsedMS:   r.Elapsed().Milliseconds(),
					})
				}
				return writeJSON(cmd, views)
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					shortRunID(r.RunID),
					r.Episode,
					string(r.Status),
					fmt.Sprintf("%d/%d", r.Scenes-r.Unaligned, r.Scenes),
					intOrDash(r.Duration),
					r.Elapsed().Round(time.Second).String(),
					r.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				Headers: []string{"Started", "Run", "Episode", "Status", "Aligned", "Duration", "Elapsed", "Error"},
				Aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				Rows:    rows,
			}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of entries to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show only the episodes of one run")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all recorded history")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print entries as JSON")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
