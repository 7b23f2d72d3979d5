package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scenesync/internal/episode"
	"scenesync/internal/history"
	"scenesync/internal/logging"
)

// ErrBatchRunning is returned when another batch holds the state directory lock.
var ErrBatchRunning = errors.New("another scenesync batch is running")

// Summary aggregates the outcome of a batch.
type Summary struct {
	RunID    string
	Results  []EpisodeResult
	Aligned  int
	Skipped  int
	Failed   int
	DryRun   int
	Elapsed  time.Duration
	Parallel int
}

// Total is the number of episodes considered.
func (s Summary) Total() int {
	return len(s.Results)
}

// Succeeded counts episodes that finished without error, skipped ones included.
func (s Summary) Succeeded() int {
	return s.Aligned + s.Skipped + s.DryRun
}

// Unaligned sums unaligned scenes across the batch.
func (s Summary) Unaligned() int {
	total := 0
	for _, r := range s.Results {
		total += r.Unaligned
	}
	return total
}

// Run processes episodes on a bounded worker pool. Individual episode
// failures are counted in the summary; only setup problems (lock held,
// preflight failures, cancellation) are returned as errors.
func (m *Manager) Run(ctx context.Context, episodes []episode.Episode, opts Options) (Summary, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, m.logger)

	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = m.cfg.Workflow.Parallel
	}
	if parallel <= 0 {
		parallel = 1
	}
	summary := Summary{RunID: runID, Parallel: parallel}

	if !opts.DryRun {
		unlock, err := m.acquireLock()
		if err != nil {
			return summary, err
		}
		defer unlock()

		if !opts.AlignOnly {
			if err := m.runPreflightChecks(ctx); err != nil {
				return summary, err
			}
		}
	}

	logger.Info("batch started",
		logging.Int("episodes", len(episodes)),
		logging.Int("parallel", parallel),
		logging.Bool("force", opts.Force),
		logging.Bool("dry_run", opts.DryRun),
		logging.String(logging.FieldEventType, "batch_start"),
	)
	start := time.Now()

	results := make([]EpisodeResult, len(episodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, ep := range episodes {
		g.Go(func() error {
			results[i] = m.ProcessEpisode(gctx, ep, opts)
			return nil
		})
	}
	_ = g.Wait()

	summary.Results = results
	summary.Elapsed = time.Since(start)
	for _, r := range results {
		switch r.Status {
		case history.StatusAligned:
			summary.Aligned++
		case history.StatusSkipped:
			summary.Skipped++
		case history.StatusDryRun:
			summary.DryRun++
		default:
			summary.Failed++
		}
	}

	logger.Info("batch finished",
		logging.Int("total", summary.Total()),
		logging.Int("succeeded", summary.Succeeded()),
		logging.Int("failed", summary.Failed),
		logging.Int("unaligned_scenes", summary.Unaligned()),
		logging.Duration("elapsed", summary.Elapsed.Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "batch_complete"),
	)
	return summary, ctx.Err()
}

// acquireLock takes the batch lock in the state directory.
func (m *Manager) acquireLock() (func(), error) {
	path := m.cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s)", ErrBatchRunning, path)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release batch lock", logging.Error(err))
		}
	}, nil
}
