package preflight

import (
	"context"

	"scenesync/internal/config"
	"scenesync/internal/deps"
	"scenesync/internal/services/whisperx"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every readiness check applicable to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Projects directory", cfg.Paths.ProjectsDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	statuses := CheckSystemDeps(cfg)
	dockerReady := false
	for _, status := range statuses {
		results = append(results, fromStatus(status))
		if status.Name == "Docker" && status.Available {
			dockerReady = true
		}
	}

	if cfg.WhisperX.Mode == whisperx.ModeDocker && dockerReady {
		results = append(results, CheckDockerImage(ctx, nil, whisperx.DockerCommand, cfg.WhisperX.Image))
	}
	return results
}

// Failed returns the results that should block a run. Optional checks never block.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional, Detail: status.Detail}
	if status.Available {
		result.Detail = status.Path
	}
	return result
}
