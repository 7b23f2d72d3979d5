package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"scenesync/internal/episode"
	"scenesync/internal/history"
	"scenesync/internal/logging"
)

// classifyFailure maps a pipeline error to the episode status it produces.
// Missing inputs skip the episode; everything else fails it.
func classifyFailure(err error) history.Status {
	switch {
	case err == nil:
		return history.StatusAligned
	case errors.Is(err, episode.ErrMissingInput):
		return history.StatusSkipped
	default:
		return history.StatusFailed
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, episode.ErrMissingInput):
		return "add the missing file or run without --align-only to transcribe first"
	case errors.Is(err, context.DeadlineExceeded):
		return "raise whisperx.timeout_seconds or check the container logs"
	case errors.Is(err, errTranscription):
		return "check docker/uvx output above; the other episodes are unaffected"
	default:
		return "check logs for details"
	}
}

func (m *Manager) logFailure(logger *slog.Logger, result EpisodeResult) {
	message := strings.TrimSpace(result.Err.Error())
	if result.Status == history.StatusSkipped {
		logging.WarnWithContext(logger, "episode skipped", "episode_skipped",
			logging.String("reason", message),
			logging.String(logging.FieldErrorHint, failureHint(result.Err)),
			logging.String(logging.FieldImpact, "episode left unchanged"),
		)
		return
	}
	logging.ErrorWithContext(logger, "episode failed", "episode_failed",
		logging.Error(result.Err),
		logging.String(logging.FieldErrorHint, failureHint(result.Err)),
		logging.Alert("episode_failure"),
	)
}
