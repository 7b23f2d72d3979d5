package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testTranscript = `{"segments": [
  {"start": 0, "end": 1, "text": "Hello there", "words": [
    {"word": "Hello", "start": 0, "end": 0.5},
    {"word": "there", "start": 0.5, "end": 1}
  ]},
  {"start": 1, "end": 2, "text": "friend", "words": [
    {"word": "friend", "start": 1, "end": 2}
  ]}
]}`

type cliTestEnv struct {
	baseDir     string
	projectsDir string
	stateDir    string
	configPath  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("SCENESYNC_PROJECTS_DIR", "")
	t.Setenv("HF_TOKEN", "")
	os.Unsetenv("HUGGING_FACE_HUB_TOKEN")

	env := &cliTestEnv{
		baseDir:     base,
		projectsDir: filepath.Join(base, "projects"),
		stateDir:    filepath.Join(base, "state"),
		configPath:  filepath.Join(base, "scenesync.toml"),
	}
	if err := os.MkdirAll(env.projectsDir, 0o755); err != nil {
		t.Fatalf("mkdir projects: %v", err)
	}
	content := fmt.Sprintf("[paths]\nprojects_dir = %q\nstate_dir = %q\n\n[logging]\nlevel = \"error\"\n", env.projectsDir, env.stateDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

// writeEpisode creates an episode directory holding a script and, when
// transcript is non-empty, a matching WhisperX transcript.
func (e *cliTestEnv) writeEpisode(t *testing.T, series, name, scriptJSON, transcript string) string {
	t.Helper()
	dir := filepath.Join(e.projectsDir, series, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir episode: %v", err)
	}
	files := map[string]string{
		"capcut-api.json": scriptJSON,
		"audio.mp3":       "ID3",
	}
	if transcript != "" {
		files["audio.whisperx.json"] = transcript
	}
	for file, body := range files {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
	return dir
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
