package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDockerArgs(t *testing.T) {
	root := t.TempDir()
	svc := NewService(Config{
		WorkspaceRoot: root,
		CacheDir:      "/home/me/.cache",
		RequireGPU:    true,
	})
	audio := filepath.Join(root, "projects", "short", "1.intro", "audio.mp3")
	out := filepath.Join(root, "projects", "short", "1.intro", "audio.whisperx.json")

	args, err := svc.DockerArgs(audio, out)
	if err != nil {
		t.Fatalf("DockerArgs: %v", err)
	}
	want := []string{
		"run", "--rm",
		"-v", root + ":/workspace",
		"-v", "/home/me/.cache:/root/.cache",
		"-e", "HF_HOME=/root/.cache/huggingface",
		"-e", "TRANSFORMERS_CACHE=/root/.cache/huggingface",
		"-e", "TORCH_HOME=/root/.cache/torch",
		"--gpus", "all",
		DefaultImage,
		"--audio", "/workspace/projects/short/1.intro/audio.mp3",
		"--output", "/workspace/projects/short/1.intro/audio.whisperx.json",
		"--require-gpu",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("DockerArgs =\n%v\nwant\n%v", args, want)
	}
}

func TestDockerArgsWithoutGPU(t *testing.T) {
	root := t.TempDir()
	svc := NewService(Config{WorkspaceRoot: root, Image: "custom/whisperx"})
	args, err := svc.DockerArgs(filepath.Join(root, "a.mp3"), filepath.Join(root, "a.whisperx.json"))
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "--gpus") || strings.Contains(joined, "--require-gpu") {
		t.Fatalf("unexpected gpu flags: %v", args)
	}
	if !strings.Contains(joined, "custom/whisperx --audio /workspace/a.mp3") {
		t.Fatalf("unexpected image/args: %v", args)
	}
}

func TestDockerArgsRejectsPathsOutsideWorkspace(t *testing.T) {
	svc := NewService(Config{WorkspaceRoot: t.TempDir()})
	if _, err := svc.DockerArgs("/elsewhere/a.mp3", "/elsewhere/a.json"); err == nil {
		t.Fatal("expected error for audio outside workspace")
	}
	if _, err := NewService(Config{}).DockerArgs("a.mp3", "a.json"); err == nil {
		t.Fatal("expected error without workspace root")
	}
}

func TestTranscribeDockerUsesRunner(t *testing.T) {
	root := t.TempDir()
	audio := filepath.Join(root, "ep", "audio.mp3")
	out := filepath.Join(root, "ep", "audio.whisperx.json")

	svc := NewService(Config{WorkspaceRoot: root})
	var gotName string
	svc.WithCommandRunner(func(_ context.Context, name string, _ ...string) error {
		gotName = name
		return os.WriteFile(out, []byte(`{"segments":[]}`), 0o644)
	})

	if err := svc.Transcribe(context.Background(), audio, out); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != DockerCommand {
		t.Fatalf("expected docker, got %q", gotName)
	}
}

func TestTranscribeDockerMissingOutput(t *testing.T) {
	root := t.TempDir()
	svc := NewService(Config{WorkspaceRoot: root})
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
	err := svc.Transcribe(context.Background(), filepath.Join(root, "a.mp3"), filepath.Join(root, "a.whisperx.json"))
	if err == nil {
		t.Fatal("expected error when container writes nothing")
	}
}

func TestTranscribeLocalMovesJSON(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "narration.mp3")
	out := filepath.Join(dir, "narration.whisperx.json")

	svc := NewService(Config{Mode: ModeLocal})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != UVXCommand {
			t.Fatalf("expected uvx, got %q", name)
		}
		var outputDir string
		for i, arg := range args {
			if arg == "--output_dir" {
				outputDir = args[i+1]
			}
		}
		return os.WriteFile(filepath.Join(outputDir, "narration.json"), []byte(`{"segments":[]}`), 0o644)
	})

	if err := svc.Transcribe(context.Background(), audio, out); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != `{"segments":[]}` {
		t.Fatalf("unexpected output %q, %v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".whisperx-") {
			t.Fatalf("work dir %s not cleaned up", e.Name())
		}
	}
}

func TestTranscribePropagatesRunnerError(t *testing.T) {
	root := t.TempDir()
	svc := NewService(Config{WorkspaceRoot: root})
	boom := errors.New("exit status 125")
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return boom })
	err := svc.Transcribe(context.Background(), filepath.Join(root, "a.mp3"), filepath.Join(root, "a.json"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}

func TestTranscribeValidatesInputs(t *testing.T) {
	svc := NewService(Config{Mode: "cloud", WorkspaceRoot: t.TempDir()})
	if err := svc.Transcribe(context.Background(), "", "x.json"); err == nil {
		t.Fatal("expected error for empty audio")
	}
	out := filepath.Join(t.TempDir(), "x.json")
	if err := svc.Transcribe(context.Background(), "a.mp3", out); err == nil || !strings.Contains(err.Error(), "unsupported mode") {
		t.Fatalf("expected unsupported mode error, got %v", err)
	}
}
