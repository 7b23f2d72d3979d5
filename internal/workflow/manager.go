package workflow

import (
	"context"
	"log/slog"
	"time"

	"scenesync/internal/config"
	"scenesync/internal/history"
	"scenesync/internal/logging"
	"scenesync/internal/media/ffprobe"
	"scenesync/internal/preflight"
	"scenesync/internal/services/whisperx"
)

// Transcriber produces a WhisperX JSON transcript for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audio, outputJSON string) error
}

// DurationProber reports the length of a media file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Recorder persists per-episode outcomes.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (history.Run, error)
}

// PreflightFunc reports readiness checks before a batch starts.
type PreflightFunc func(ctx context.Context) []preflight.Result

// Manager runs the transcribe, subtitle and align pipeline over episodes.
type Manager struct {
	cfg         *config.Config
	logger      *slog.Logger
	transcriber Transcriber
	prober      DurationProber
	recorder    Recorder
	preflight   PreflightFunc
	now         func() time.Time
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithTranscriber replaces the WhisperX service.
func WithTranscriber(t Transcriber) ManagerOption {
	return func(m *Manager) { m.transcriber = t }
}

// WithProber replaces the ffprobe/ffmpeg duration prober.
func WithProber(p DurationProber) ManagerOption {
	return func(m *Manager) { m.prober = p }
}

// WithRecorder enables run history persistence.
func WithRecorder(r Recorder) ManagerOption {
	return func(m *Manager) { m.recorder = r }
}

// WithPreflight replaces the readiness checks run before a batch. A nil
// function disables them.
func WithPreflight(fn PreflightFunc) ManagerOption {
	return func(m *Manager) { m.preflight = fn }
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager constructs a manager wired to the configured WhisperX mode and
// media probes.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	transcriber := whisperx.NewService(whisperx.Config{
		Mode:          cfg.WhisperX.Mode,
		Image:         cfg.WhisperX.Image,
		Model:         cfg.WhisperX.Model,
		Language:      cfg.WhisperX.Language,
		RequireGPU:    cfg.WhisperX.RequireGPU,
		WorkspaceRoot: cfg.Paths.WorkspaceRoot,
		CacheDir:      cfg.WhisperX.CacheDir,
		HFToken:       cfg.WhisperX.HFToken,
	})
	m := &Manager{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "workflow"),
		transcriber: transcriber,
		prober:      ffprobe.NewProber(cfg.Media.FFprobeBinary, cfg.Media.FFmpegBinary),
		now:         time.Now,
	}
	m.preflight = func(ctx context.Context) []preflight.Result {
		return preflight.RunAll(ctx, cfg)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
