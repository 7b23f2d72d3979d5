package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"scenesync/internal/config"
	"scenesync/internal/episode"
	"scenesync/internal/history"
	"scenesync/internal/logging"
)

const sampleTranscript = `{"segments": [
  {"start": 0, "end": 1, "text": "Hello there", "words": [
    {"word": "Hello", "start": 0, "end": 0.5},
    {"word": "there", "start": 0.5, "end": 1}
  ]},
  {"start": 1, "end": 2, "text": "friend", "words": [
    {"word": "friend", "start": 1, "end": 2}
  ]},
  {"start": 5, "end": 9, "text": "Completely different words here", "words": [
    {"word": "Completely", "start": 5, "end": 6},
    {"word": "different", "start": 6, "end": 7},
    {"word": "words", "start": 7, "end": 8},
    {"word": "here", "start": 8, "end": 9}
  ]}
]}`

type fakeTranscriber struct {
	mu      sync.Mutex
	calls   []string
	payload string
	err     error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio, outputJSON string) error {
	f.mu.Lock()
	f.calls = append(f.calls, audio)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	payload := f.payload
	if payload == "" {
		payload = sampleTranscript
	}
	return os.WriteFile(outputJSON, []byte(payload), 0o644)
}

func (f *fakeTranscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeProber struct {
	seconds float64
	err     error
}

func (f fakeProber) Duration(context.Context, string) (float64, error) {
	return f.seconds, f.err
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []history.Run
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, run history.Run) (history.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return history.Run{}, f.err
	}
	run.ID = int64(len(f.runs) + 1)
	f.runs = append(f.runs, run)
	return run, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.ProjectsDir = filepath.Join(base, "projects")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.WorkspaceRoot = base
	return &cfg
}

type harness struct {
	cfg         *config.Config
	manager     *Manager
	transcriber *fakeTranscriber
	recorder    *fakeRecorder
}

func newHarness(t *testing.T, prober DurationProber) *harness {
	t.Helper()
	cfg := testConfig(t)
	h := &harness{cfg: cfg, transcriber: &fakeTranscriber{}, recorder: &fakeRecorder{}}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.manager = NewManager(cfg, logging.NewNop(),
		WithTranscriber(h.transcriber),
		WithProber(prober),
		WithRecorder(h.recorder),
		WithPreflight(nil),
		WithClock(func() time.Time { return fixed }),
	)
	return h
}

// makeEpisode creates <projects>/<series>/<name> with audio and a script whose
// scenes carry the given narrations.
func makeEpisode(t *testing.T, cfg *config.Config, series, name string, narrations ...string) episode.Episode {
	t.Helper()
	dir := filepath.Join(cfg.Paths.ProjectsDir, series, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, episode.PreferredAudio), []byte("ID3"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	scenes := make([]map[string]any, len(narrations))
	for i, n := range narrations {
		scenes[i] = map[string]any{"narration": n, "prompt": "keep me"}
	}
	data, err := json.Marshal(map[string]any{"title": "Pilot", "scenes": scenes})
	if err != nil {
		t.Fatalf("marshal script: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, episode.ScriptFile), data, 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	ep, err := episode.Resolve(dir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return ep
}

var errProbe = errors.New("probe: no ffprobe")
