package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenesync/internal/align"
)

const sampleScript = `{
  "id": 22,
  "meta": {"series": "Tech Mentor", "alias": "imposter-syndrome", "voice": "vi-VN"},
  "title": "Vượt qua <imposter> syndrome",
  "scenes": [
    {"narration": "Hello there friend", "prompt": "a sunrise"},
    {"narration": "Completely unrelated", "start": 3, "end": 7},
    {"prompt": "no narration"}
  ]
}`

func intPtr(v int) *int { return &v }

func TestParseNarrations(t *testing.T) {
	doc, err := Parse([]byte(sampleScript))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := doc.Narrations()
	if len(got) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(got))
	}
	if got[0].Narration != "Hello there friend" || got[2].Narration != "" || got[2].Index != 2 {
		t.Fatalf("unexpected narrations: %+v", got)
	}
	start, end := doc.Times(1)
	if start == nil || end == nil || *start != 3 || *end != 7 {
		t.Fatalf("unexpected existing times for scene 1")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, input := range []string{`not json`, `null`, `[1,2]`, `{"scenes": "nope"}`, `{"scenes": [1]}`, `{"a": 1} {"b": 2}`} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformed", input, err)
		}
	}
	doc, err := Parse([]byte(`{"title": "empty"}`))
	if err != nil {
		t.Fatalf("missing scenes should parse: %v", err)
	}
	if doc.Len() != 0 || doc.FullyTimed() {
		t.Fatal("expected empty, untimed document")
	}
}

func TestFullyTimed(t *testing.T) {
	doc, err := Parse([]byte(`{"scenes": [{"start": 0, "end": 4}, {"start": 4, "end": null}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if doc.FullyTimed() {
		t.Fatal("scene with null end must not count as timed")
	}
	doc.Apply([]align.AlignedScene{{Index: 1, Start: intPtr(4), End: intPtr(9)}})
	if !doc.FullyTimed() {
		t.Fatal("expected fully timed after apply")
	}
}

func TestApplyAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capcut-api.json")
	if err := os.WriteFile(path, []byte(sampleScript), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	doc.Apply([]align.AlignedScene{
		{Index: 0, Start: intPtr(0), End: intPtr(2)},
		{Index: 1},
		{Index: 7, Start: intPtr(1), End: intPtr(1)},
	})
	if err := doc.SetImages(dir); err != nil {
		t.Fatal(err)
	}
	doc.SetDuration(60)
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		`"duration": 60`,
		`"prompt": "a sunrise"`,
		`"voice": "vi-VN"`,
		`"title": "Vượt qua <imposter> syndrome"`,
		`"end": null`,
		"\n  \"scenes\": [",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("saved script missing %q:\n%s", want, text)
		}
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	start, end := reloaded.Times(0)
	if *start != 0 || *end != 2 {
		t.Fatalf("scene 0 times = (%d, %d)", *start, *end)
	}
	if s, e := reloaded.Times(1); s != nil || e != nil {
		t.Fatal("scene 1 should be cleared to null")
	}
	if d := reloaded.Duration(); d == nil || *d != 60 {
		t.Fatalf("duration = %v", d)
	}
	wantImage := filepath.ToSlash(filepath.Join(dir, "3.png"))
	if got := reloaded.Image(2); got != wantImage {
		t.Fatalf("image = %q, want %q", got, wantImage)
	}
}

func TestMarshalKeepsKeyOrder(t *testing.T) {
	doc, err := Parse([]byte(`{"title": "t", "id": 3, "scenes": [{"prompt": "p", "narration": "n"}], "meta": {"z": 1, "a": 2}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc.Apply([]align.AlignedScene{{Index: 0, Start: intPtr(1), End: intPtr(4)}})
	doc.SetDuration(4)

	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(data)
	order := []string{`"title"`, `"id"`, `"scenes"`, `"prompt"`, `"narration"`, `"start"`, `"end"`, `"meta"`, `"z"`, `"a"`, `"duration"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		if idx <= last {
			t.Fatalf("key %s out of order in:\n%s", key, text)
		}
		last = idx
	}
}

func TestParseDuplicateKeyKeepsFirstPosition(t *testing.T) {
	doc, err := Parse([]byte(`{"duration": 1, "scenes": [], "duration": 9}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d := doc.Duration(); d == nil || *d != 9 {
		t.Fatalf("duration = %v, want 9", d)
	}
	data, _ := doc.Marshal()
	if strings.Count(string(data), `"duration"`) != 1 || strings.Index(string(data), `"duration"`) > strings.Index(string(data), `"scenes"`) {
		t.Fatalf("unexpected output:\n%s", data)
	}
}

func TestHasScenes(t *testing.T) {
	for input, want := range map[string]bool{
		`{"title": "x"}`:   false,
		`{"scenes": null}`: false,
		`{"scenes": []}`:   true,
		sampleScript:       true,
	} {
		doc, err := Parse([]byte(input))
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if got := doc.HasScenes(); got != want {
			t.Errorf("HasScenes(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestProjectPath(t *testing.T) {
	doc, err := Parse([]byte(sampleScript))
	if err != nil {
		t.Fatal(err)
	}
	got, err := doc.ProjectPath("/work/projects")
	if err != nil {
		t.Fatalf("ProjectPath: %v", err)
	}
	want := filepath.Join("/work/projects", "tech-mentor", "22.imposter-syndrome")
	if got != want {
		t.Fatalf("ProjectPath = %q, want %q", got, want)
	}

	explicit, _ := Parse([]byte(`{"projectPath": "/elsewhere/ep1", "scenes": []}`))
	if got, _ := explicit.ProjectPath("/work/projects"); got != "/elsewhere/ep1" {
		t.Fatalf("explicit ProjectPath = %q", got)
	}

	defaults, _ := Parse([]byte(`{"id": "7", "meta": {"video_type": "Short Form"}}`))
	got, _ = defaults.ProjectPath("p")
	if got != filepath.Join("p", "short-form", "7.untitled") {
		t.Fatalf("derived ProjectPath = %q", got)
	}

	noID, _ := Parse([]byte(`{"scenes": []}`))
	if _, err := noID.ProjectPath("p"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
