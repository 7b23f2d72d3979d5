package workflow

import (
	"context"
	"fmt"
	"strings"

	"scenesync/internal/logging"
	"scenesync/internal/preflight"
)

// runPreflightChecks returns an error describing every failed required check.
func (m *Manager) runPreflightChecks(ctx context.Context) error {
	if m.preflight == nil {
		return nil
	}
	logger := logging.WithContext(ctx, m.logger)

	results := m.preflight(ctx)
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		if r.Optional {
			logging.WarnWithContext(logger, "optional preflight check failed", "preflight_optional_failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldImpact, "run continues without this tool"),
			)
			continue
		}
		logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run `scenesync check` and fix the reported issue"),
		)
	}

	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight checks failed: %s", strings.Join(parts, "; "))
}
