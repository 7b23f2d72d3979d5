package workflow

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenesync/internal/episode"
	"scenesync/internal/history"
	"scenesync/internal/logging"
	"scenesync/internal/preflight"
	"scenesync/internal/script"
)

func intValue(t *testing.T, v *int) int {
	t.Helper()
	if v == nil {
		t.Fatal("expected a value, got nil")
	}
	return *v
}

func TestProcessEpisodeEndToEnd(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10.4})
	ep := makeEpisode(t, h.cfg, "show", "001.pilot", "Hello there friend!", "Completely different words here.")

	ctx := logging.WithRunID(context.Background(), "run-1")
	result := h.manager.ProcessEpisode(ctx, ep, Options{})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Status != history.StatusAligned || !result.Transcribed {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Cues != 3 || result.Scenes != 2 || result.Unaligned != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if intValue(t, result.Duration) != 10 {
		t.Fatalf("duration = %d, want 10", *result.Duration)
	}

	doc, err := script.Load(ep.Script)
	if err != nil {
		t.Fatalf("reload script: %v", err)
	}
	start, end := doc.Times(0)
	if intValue(t, start) != 0 || intValue(t, end) != 2 {
		t.Fatalf("scene 0 = %v-%v, want 0-2", *start, *end)
	}
	start, end = doc.Times(1)
	if intValue(t, start) != 5 || intValue(t, end) != 10 {
		t.Fatalf("scene 1 = %v-%v, want 5-10 after duration override", *start, *end)
	}
	if got, want := doc.Image(1), filepath.ToSlash(filepath.Join(ep.Dir, "2.png")); got != want {
		t.Fatalf("image = %q, want %q", got, want)
	}

	data, err := os.ReadFile(ep.Script)
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if !strings.Contains(string(data), `"prompt": "keep me"`) {
		t.Fatalf("opaque scene fields were lost: %s", data)
	}

	srt, err := os.ReadFile(filepath.Join(ep.Dir, "audio.whisperx.srt"))
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.HasPrefix(string(srt), "1\n00:00:00,000 --> 00:00:01,000\nHello there\n\n") {
		t.Fatalf("unexpected srt: %q", srt)
	}

	if len(h.recorder.runs) != 1 {
		t.Fatalf("expected one history run, got %d", len(h.recorder.runs))
	}
	run := h.recorder.runs[0]
	if run.RunID != "run-1" || run.Episode != "show/001.pilot" || run.Status != history.StatusAligned || run.Cues != 3 {
		t.Fatalf("unexpected history run: %+v", run)
	}
}

func TestProcessEpisodeReusesExistingTranscript(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	ep := makeEpisode(t, h.cfg, "show", "002.second", "Hello there friend")
	if err := os.WriteFile(ep.TranscriptTarget(), []byte(sampleTranscript), 0o644); err != nil {
		t.Fatal(err)
	}

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if h.transcriber.count() != 0 || result.Transcribed {
		t.Fatal("existing transcript should not be regenerated")
	}
	if result.Cues != 3 {
		t.Fatalf("missing srt should still be written, cues = %d", result.Cues)
	}
}

func TestProcessEpisodeForceRetranscribes(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	ep := makeEpisode(t, h.cfg, "show", "003.force", "Hello there friend")
	if err := os.WriteFile(ep.TranscriptTarget(), []byte(`{"segments": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{Force: true})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if h.transcriber.count() != 1 || !result.Transcribed {
		t.Fatal("force should rerun transcription")
	}
	if result.Unaligned != 0 {
		t.Fatalf("expected fresh transcript to align, got %d unaligned", result.Unaligned)
	}
}

func TestProcessEpisodeSkipsTimedScript(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	ep := makeEpisode(t, h.cfg, "show", "004.timed", "Hello there friend")
	if err := os.WriteFile(ep.TranscriptTarget(), []byte(sampleTranscript), 0o644); err != nil {
		t.Fatal(err)
	}
	timed := `{"scenes": [{"narration": "Hello there friend", "start": 3, "end": 4}]}`
	if err := os.WriteFile(ep.Script, []byte(timed), 0o644); err != nil {
		t.Fatal(err)
	}

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{})
	if result.Err != nil || result.Status != history.StatusSkipped {
		t.Fatalf("expected skip without error, got %+v", result)
	}
	doc, err := script.Load(ep.Script)
	if err != nil {
		t.Fatal(err)
	}
	if start, _ := doc.Times(0); intValue(t, start) != 3 {
		t.Fatalf("timed script was rewritten")
	}
}

func TestProcessEpisodeTranscriptionFailure(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	h.transcriber.err = errors.New("docker exited 125")
	ep := makeEpisode(t, h.cfg, "show", "005.broken", "Hello there friend")

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{})
	if result.Status != history.StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if !errors.Is(result.Err, errTranscription) {
		t.Fatalf("expected transcription error, got %v", result.Err)
	}
	doc, err := script.Load(ep.Script)
	if err != nil {
		t.Fatal(err)
	}
	if start, _ := doc.Times(0); start != nil {
		t.Fatal("script must be left untouched when transcription fails")
	}
}

func TestProcessEpisodeMissingAudioSkips(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	ep := makeEpisode(t, h.cfg, "show", "006.silent", "Hello")
	if err := os.Remove(ep.Audio); err != nil {
		t.Fatal(err)
	}
	ep.Audio = ""

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{})
	if result.Status != history.StatusSkipped || !errors.Is(result.Err, episode.ErrMissingInput) {
		t.Fatalf("expected missing-input skip, got %+v", result)
	}
}

func TestProcessEpisodeAlignOnlyWithoutTranscript(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	ep := makeEpisode(t, h.cfg, "show", "007.pending", "Hello")

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{AlignOnly: true})
	if !errors.Is(result.Err, episode.ErrMissingInput) {
		t.Fatalf("expected missing-input error, got %v", result.Err)
	}
	if h.transcriber.count() != 0 {
		t.Fatal("align-only must not transcribe")
	}
}

func TestProcessEpisodeProbeUnavailableKeepsEnds(t *testing.T) {
	h := newHarness(t, fakeProber{err: errProbe})
	ep := makeEpisode(t, h.cfg, "show", "008.noprobe", "Completely different words here")

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{})
	if result.Err != nil {
		t.Fatalf("probe failure must not fail the episode: %v", result.Err)
	}
	if result.Duration != nil {
		t.Fatalf("duration should stay unset, got %d", *result.Duration)
	}
	doc, err := script.Load(ep.Script)
	if err != nil {
		t.Fatal(err)
	}
	if _, end := doc.Times(0); intValue(t, end) != 9 {
		t.Fatalf("end = %d, want aligned 9", *end)
	}
}

func TestProcessEpisodeMalformedTranscriptLeavesScenesUntimed(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 12})
	h.transcriber.payload = `{"text": "no segments"}`
	ep := makeEpisode(t, h.cfg, "show", "009.malformed", "Hello there", "friend")

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{})
	if result.Err != nil {
		t.Fatalf("malformed transcript is a warning, got %v", result.Err)
	}
	if result.Unaligned != 2 || result.Cues != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	doc, err := script.Load(ep.Script)
	if err != nil {
		t.Fatal(err)
	}
	if start, end := doc.Times(0); start != nil || end != nil {
		t.Fatal("scene 0 should be null")
	}
	if _, end := doc.Times(1); intValue(t, end) != 12 {
		t.Fatal("last scene end should be forced to the probed duration")
	}
}

func TestProcessEpisodeWarnsWhenScriptHasNoScenes(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &logs})
	if err != nil {
		t.Fatal(err)
	}
	h.manager.logger = logging.NewComponentLogger(logger, "workflow")

	ep := makeEpisode(t, h.cfg, "show", "011.noscenes")
	if err := os.WriteFile(ep.Script, []byte(`{"title": "Pilot", "id": 11}`), 0o644); err != nil {
		t.Fatal(err)
	}

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{})
	if result.Err != nil || result.Status != history.StatusAligned || result.Scenes != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(logs.String(), `"event_type":"script_malformed"`) {
		t.Fatalf("expected script_malformed warning, got:\n%s", logs.String())
	}
	saved, err := os.ReadFile(ep.Script)
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\n  \"title\": \"Pilot\",\n  \"id\": 11,\n  \"duration\": 10\n}\n"; string(saved) != want {
		t.Fatalf("saved script = %q, want %q", saved, want)
	}
}

func TestProcessEpisodeDryRunTouchesNothing(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	ep := makeEpisode(t, h.cfg, "show", "010.dry", "Hello there friend")
	before, err := os.ReadFile(ep.Script)
	if err != nil {
		t.Fatal(err)
	}

	result := h.manager.ProcessEpisode(context.Background(), ep, Options{DryRun: true})
	if result.Status != history.StatusDryRun || len(result.Planned) != 3 {
		t.Fatalf("unexpected dry-run result: %+v", result)
	}
	after, err := os.ReadFile(ep.Script)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) || h.transcriber.count() != 0 {
		t.Fatal("dry run changed state")
	}
}

func TestRunSummarizesBatch(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	good := makeEpisode(t, h.cfg, "show", "001.good", "Hello there friend")
	silent := makeEpisode(t, h.cfg, "show", "002.silent", "Hello")
	if err := os.Remove(silent.Audio); err != nil {
		t.Fatal(err)
	}
	silent.Audio = ""
	other := makeEpisode(t, h.cfg, "other", "001.good", "Completely different words here")

	summary, err := h.manager.Run(context.Background(), []episode.Episode{good, silent, other}, Options{Parallel: 2, RunID: "batch-1"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Total() != 3 || summary.Aligned != 2 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Results[1].Episode != "show/002.silent" {
		t.Fatalf("results must keep input order, got %q", summary.Results[1].Episode)
	}
	if len(h.recorder.runs) != 3 {
		t.Fatalf("expected 3 history runs, got %d", len(h.recorder.runs))
	}
	for _, run := range h.recorder.runs {
		if run.RunID != "batch-1" {
			t.Fatalf("run id = %q, want batch-1", run.RunID)
		}
	}
}

func TestRunRefusesConcurrentBatch(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	unlock, err := h.manager.acquireLock()
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer unlock()

	other := NewManager(h.cfg, logging.NewNop(), WithPreflight(nil))
	if _, err := other.Run(context.Background(), nil, Options{}); !errors.Is(err, ErrBatchRunning) {
		t.Fatalf("expected ErrBatchRunning, got %v", err)
	}
}

func TestRunStopsOnPreflightFailure(t *testing.T) {
	h := newHarness(t, fakeProber{seconds: 10})
	h.manager.preflight = func(context.Context) []preflight.Result {
		return []preflight.Result{
			{Name: "Docker", Detail: "binary \"docker\" not found"},
			{Name: "FFmpeg", Optional: true},
		}
	}
	ep := makeEpisode(t, h.cfg, "show", "001.pilot", "Hello")

	_, err := h.manager.Run(context.Background(), []episode.Episode{ep}, Options{})
	if err == nil || !strings.Contains(err.Error(), "Docker") || strings.Contains(err.Error(), "FFmpeg") {
		t.Fatalf("unexpected preflight error: %v", err)
	}
	if h.transcriber.count() != 0 {
		t.Fatal("no episode should run after a failed preflight")
	}
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want history.Status
	}{
		{"nil", nil, history.StatusAligned},
		{"missing", episode.ErrMissingInput, history.StatusSkipped},
		{"wrapped missing", errors.Join(errors.New("x"), episode.ErrMissingInput), history.StatusSkipped},
		{"other", errTranscription, history.StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyFailure(tc.err); got != tc.want {
				t.Fatalf("classifyFailure(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}
