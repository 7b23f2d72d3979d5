package episode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scenesync/internal/script"
)

// ErrMissingInput marks an episode that lacks a file required for the
// requested step. Callers skip such episodes without failing the batch.
var ErrMissingInput = errors.New("episode input missing")

// File names and suffixes inside an episode directory.
const (
	ScriptFile       = "capcut-api.json"
	PreferredAudio   = "audio.mp3"
	AudioExt         = ".mp3"
	TranscriptSuffix = ".whisperx.json"
	SubtitleExt      = ".srt"
)

// Episode describes one episode directory. Audio and Transcript may be empty
// when the files do not exist yet.
type Episode struct {
	Dir        string
	Name       string
	Script     string
	Audio      string
	Transcript string
}

// TranscriptTarget returns where the transcript for the episode's audio
// belongs: <audio basename>.whisperx.json next to the audio.
func (e Episode) TranscriptTarget() string {
	if e.Audio == "" {
		return ""
	}
	base := strings.TrimSuffix(filepath.Base(e.Audio), filepath.Ext(e.Audio))
	return filepath.Join(e.Dir, base+TranscriptSuffix)
}

// SubtitlePath returns the SRT path paired with transcript: only the final
// extension is replaced, so audio.whisperx.json pairs with audio.whisperx.srt.
func SubtitlePath(transcript string) string {
	return strings.TrimSuffix(transcript, filepath.Ext(transcript)) + SubtitleExt
}

// HasScript reports whether the script file exists.
func (e Episode) HasScript() bool {
	return fileExists(e.Script)
}

// RequireAlignmentInputs returns ErrMissingInput unless the script, audio and
// transcript are all present.
func (e Episode) RequireAlignmentInputs() error {
	var missing []string
	if !e.HasScript() {
		missing = append(missing, ScriptFile)
	}
	if e.Audio == "" {
		missing = append(missing, "*"+AudioExt)
	}
	if e.Transcript == "" {
		missing = append(missing, "*"+TranscriptSuffix)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrMissingInput, e.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Discover lists every episode directory matching <projectsDir>/*/* in
// lexical order.
func Discover(projectsDir string) ([]Episode, error) {
	info, err := os.Stat(projectsDir)
	if err != nil {
		return nil, fmt.Errorf("projects dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("projects dir %s is not a directory", projectsDir)
	}
	matches, err := filepath.Glob(filepath.Join(projectsDir, "*", "*"))
	if err != nil {
		return nil, fmt.Errorf("scan projects: %w", err)
	}
	sort.Strings(matches)

	episodes := make([]Episode, 0, len(matches))
	for _, dir := range matches {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		ep, err := Resolve(dir)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

// Resolve inspects dir and fills in the episode's file paths. Only a missing
// or non-directory dir is an error; absent files leave fields empty.
func Resolve(dir string) (Episode, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Episode{}, fmt.Errorf("resolve episode %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Episode{}, fmt.Errorf("%w: directory %s not found", ErrMissingInput, dir)
		}
		return Episode{}, fmt.Errorf("stat episode %s: %w", dir, err)
	}
	if !info.IsDir() {
		return Episode{}, fmt.Errorf("episode %s is not a directory", dir)
	}

	ep := Episode{
		Dir:    abs,
		Name:   filepath.Base(filepath.Dir(abs)) + "/" + filepath.Base(abs),
		Script: filepath.Join(abs, ScriptFile),
	}
	if fileExists(filepath.Join(abs, PreferredAudio)) {
		ep.Audio = filepath.Join(abs, PreferredAudio)
	} else {
		ep.Audio = firstWithSuffix(abs, AudioExt)
	}
	if target := ep.TranscriptTarget(); target != "" && fileExists(target) {
		ep.Transcript = target
	} else {
		ep.Transcript = firstWithSuffix(abs, TranscriptSuffix)
	}
	return ep, nil
}

// FromScript resolves the episode a script file belongs to.
func FromScript(path, projectsDir string) (Episode, error) {
	doc, err := script.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Episode{}, fmt.Errorf("%w: script %s not found", ErrMissingInput, path)
		}
		return Episode{}, err
	}
	dir, err := doc.ProjectPath(projectsDir)
	if err != nil {
		return Episode{}, fmt.Errorf("script %s: %w", path, err)
	}
	return Resolve(dir)
}

// FromArg resolves a command-line argument that names either an episode
// directory or a script file.
func FromArg(arg, projectsDir string) (Episode, error) {
	info, err := os.Stat(arg)
	if err == nil && info.IsDir() {
		return Resolve(arg)
	}
	return FromScript(arg, projectsDir)
}

func firstWithSuffix(dir, suffix string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(strings.ToLower(entry.Name()), suffix) {
			return filepath.Join(dir, entry.Name())
		}
	}
	return ""
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
