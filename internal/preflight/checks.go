package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"scenesync/internal/config"
	"scenesync/internal/deps"
	"scenesync/internal/services/whisperx"
)

// CommandOutput runs a command and returns its combined output.
type CommandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external programs needed for the configured
// transcription mode and duration probing.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	var requirements []deps.Requirement
	switch cfg.WhisperX.Mode {
	case whisperx.ModeLocal:
		requirements = append(requirements, deps.Requirement{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Runs WhisperX locally",
		})
	default:
		requirements = append(requirements, deps.Requirement{
			Name:        "Docker",
			Command:     whisperx.DockerCommand,
			Description: "Runs the WhisperX container",
		})
	}
	if cfg.WhisperX.RequireGPU {
		requirements = append(requirements, deps.Requirement{
			Name:        "nvidia-smi",
			Command:     "nvidia-smi",
			Description: "Confirms an NVIDIA GPU is visible",
			Optional:    true,
		})
	}
	requirements = append(requirements,
		deps.Requirement{
			Name:        "FFprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "Probes audio duration",
		},
		deps.Requirement{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "Fallback duration probe",
			Optional:    true,
		},
	)
	return deps.CheckBinaries(requirements)
}

// CheckDockerImage verifies the WhisperX image is present locally. A nil run
// executes the docker CLI directly.
func CheckDockerImage(ctx context.Context, run CommandOutput, docker, image string) Result {
	const name = "WhisperX image"

	image = strings.TrimSpace(image)
	if image == "" {
		return Result{Name: name, Detail: "image not configured"}
	}
	if run == nil {
		run = execOutput
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := run(checkCtx, docker, "image", "inspect", "--format", "{{.Id}}", image)
	if err != nil {
		return Result{Name: name, Detail: summarizeDockerError(image, out, err)}
	}
	id := strings.TrimSpace(string(out))
	if len(id) > 19 {
		id = id[:19]
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", image, id)}
}

func summarizeDockerError(image string, output []byte, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "docker did not respond (is the daemon running?)"
	}
	text := strings.ToLower(string(output))
	if strings.Contains(text, "no such image") {
		return fmt.Sprintf("%s not found (build or pull it first)", image)
	}
	if strings.Contains(text, "permission denied") || strings.Contains(text, "cannot connect") {
		return "docker daemon unreachable"
	}
	return err.Error()
}
