package whisperx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"scenesync/internal/fileutil"
)

// Service runs WhisperX against narration audio and produces transcript JSON.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Mode == "" {
		cfg.Mode = ModeDocker
	}
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Mode returns the configured execution mode.
func (s *Service) Mode() string {
	return s.cfg.Mode
}

// RequireGPU reports whether GPU execution is requested.
func (s *Service) RequireGPU() bool {
	return s.cfg.RequireGPU
}

// Binary returns the external command the configured mode depends on.
func (s *Service) Binary() string {
	if s.cfg.Mode == ModeLocal {
		return UVXCommand
	}
	return DockerCommand
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output), 2000))
	}
	return nil
}

// Transcribe runs WhisperX on audio and leaves the transcript JSON at
// outputJSON.
func (s *Service) Transcribe(ctx context.Context, audio, outputJSON string) error {
	if strings.TrimSpace(audio) == "" {
		return errors.New("transcribe: audio path required")
	}
	if strings.TrimSpace(outputJSON) == "" {
		return errors.New("transcribe: output path required")
	}
	if err := os.MkdirAll(filepath.Dir(outputJSON), 0o755); err != nil {
		return fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	switch s.cfg.Mode {
	case ModeLocal:
		return s.transcribeLocal(ctx, audio, outputJSON)
	case ModeDocker:
		return s.transcribeDocker(ctx, audio, outputJSON)
	default:
		return fmt.Errorf("transcribe: unsupported mode %q", s.cfg.Mode)
	}
}

func (s *Service) transcribeDocker(ctx context.Context, audio, outputJSON string) error {
	if s.cfg.CacheDir != "" {
		if err := os.MkdirAll(s.cfg.CacheDir, 0o755); err != nil {
			return fmt.Errorf("transcribe: ensure cache dir: %w", err)
		}
	}
	args, err := s.DockerArgs(audio, outputJSON)
	if err != nil {
		return err
	}
	if err := s.run(ctx, DockerCommand, args...); err != nil {
		return fmt.Errorf("whisperx: %w", err)
	}
	if _, err := os.Stat(outputJSON); err != nil {
		return fmt.Errorf("whisperx: container produced no transcript: %w", err)
	}
	return nil
}

func (s *Service) transcribeLocal(ctx context.Context, audio, outputJSON string) error {
	workDir, err := os.MkdirTemp(filepath.Dir(outputJSON), ".whisperx-*")
	if err != nil {
		return fmt.Errorf("transcribe: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	if err := s.run(ctx, UVXCommand, s.LocalArgs(audio, workDir)...); err != nil {
		return fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
	produced := filepath.Join(workDir, baseName+".json")
	if err := fileutil.MoveFile(produced, outputJSON); err != nil {
		return fmt.Errorf("whisperx: collect transcript: %w", err)
	}
	return nil
}

// DockerArgs builds the docker run arguments. Host paths are translated to
// their location under the container workspace mount.
func (s *Service) DockerArgs(audio, outputJSON string) ([]string, error) {
	root := s.cfg.WorkspaceRoot
	if root == "" {
		return nil, errors.New("whisperx: workspace root required for docker mode")
	}
	containerAudio, err := containerPath(root, audio)
	if err != nil {
		return nil, err
	}
	containerJSON, err := containerPath(root, outputJSON)
	if err != nil {
		return nil, err
	}

	args := []string{
		"run", "--rm",
		"-v", root + ":" + ContainerWorkspace,
	}
	if s.cfg.CacheDir != "" {
		args = append(args, "-v", s.cfg.CacheDir+":"+ContainerCache)
	}
	args = append(args,
		"-e", "HF_HOME="+ContainerCache+"/huggingface",
		"-e", "TRANSFORMERS_CACHE="+ContainerCache+"/huggingface",
		"-e", "TORCH_HOME="+ContainerCache+"/torch",
	)
	if s.cfg.HFToken != "" {
		args = append(args, "-e", "HF_TOKEN="+s.cfg.HFToken)
	}
	if s.cfg.RequireGPU {
		args = append(args, "--gpus", "all")
	}
	args = append(args, s.cfg.Image, "--audio", containerAudio, "--output", containerJSON)
	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}
	if s.cfg.RequireGPU {
		args = append(args, "--require-gpu")
	}
	return args, nil
}

// LocalArgs builds the uvx arguments that write <audio basename>.json into outputDir.
func (s *Service) LocalArgs(audio, outputDir string) []string {
	args := make([]string, 0, 24)
	if s.cfg.RequireGPU {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	args = append(args,
		"whisperx",
		audio,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
	)
	if s.cfg.RequireGPU {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}
	if s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	return args
}

func containerPath(root, hostPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("whisperx: resolve workspace root: %w", err)
	}
	absPath, err := filepath.Abs(hostPath)
	if err != nil {
		return "", fmt.Errorf("whisperx: resolve %s: %w", hostPath, err)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("whisperx: %s is outside workspace %s", hostPath, root)
	}
	return path.Join(ContainerWorkspace, filepath.ToSlash(rel)), nil
}

func tail(output string, limit int) string {
	output = strings.TrimSpace(output)
	if len(output) <= limit {
		return output
	}
	return "..." + output[len(output)-limit:]
}
