package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scenesync/internal/align"
	"scenesync/internal/fileutil"
	"scenesync/internal/textutil"
)

// ErrMalformed reports a script that is not a JSON object or whose scenes
// field is not an array of objects.
var ErrMalformed = errors.New("malformed script")

const (
	keyScenes      = "scenes"
	keyNarration   = "narration"
	keyStart       = "start"
	keyEnd         = "end"
	keyImage       = "image"
	keyDuration    = "duration"
	keyProjectPath = "project_path"
	keyProjectAlt  = "projectPath"
	keyMeta        = "meta"
	keyID          = "id"
)

// Document is a parsed script. Unknown fields are kept as raw JSON and every
// object keeps the key order it was read with.
type Document struct {
	fields *object
	scenes []*object
}

// Parse decodes a script document.
func Parse(data []byte) (*Document, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	doc := &Document{fields: fields}
	if raw := fields.get(keyScenes); raw != nil && !isNull(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: scenes: %v", ErrMalformed, err)
		}
		doc.scenes = make([]*object, len(items))
		for i, item := range items {
			if isNull(item) {
				doc.scenes[i] = newObject()
				continue
			}
			scene, err := decodeObject(item)
			if err != nil {
				return nil, fmt.Errorf("%w: scene %d: %v", ErrMalformed, i, err)
			}
			doc.scenes[i] = scene
		}
	}
	return doc, nil
}

// Load reads and parses the script at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	return doc, nil
}

// HasScenes reports whether the document carries a scenes array. A missing
// or null scenes field returns false; an empty array returns true.
func (d *Document) HasScenes() bool {
	return d.scenes != nil
}

// Len returns the number of scenes.
func (d *Document) Len() int {
	return len(d.scenes)
}

// Narrations returns one align.Scene per script scene in order. Scenes
// without a string narration get empty text and will not align.
func (d *Document) Narrations() []align.Scene {
	out := make([]align.Scene, len(d.scenes))
	for i, scene := range d.scenes {
		var text string
		if raw := scene.get(keyNarration); raw != nil {
			_ = json.Unmarshal(raw, &text)
		}
		out[i] = align.Scene{Index: i, Narration: text}
	}
	return out
}

// FullyTimed reports whether every scene already carries numeric start and
// end values. A script without scenes is not considered timed.
func (d *Document) FullyTimed() bool {
	if len(d.scenes) == 0 {
		return false
	}
	for _, scene := range d.scenes {
		if !isNumber(scene.get(keyStart)) || !isNumber(scene.get(keyEnd)) {
			return false
		}
	}
	return true
}

// Apply writes aligned times onto the matching scenes. Nil times are stored
// as JSON null. Entries whose index is out of range are ignored.
func (d *Document) Apply(scenes []align.AlignedScene) {
	for _, s := range scenes {
		if s.Index < 0 || s.Index >= len(d.scenes) {
			continue
		}
		d.scenes[s.Index].set(keyStart, intOrNull(s.Start))
		d.scenes[s.Index].set(keyEnd, intOrNull(s.End))
	}
}

// Times returns the current start and end of scene i, nil when unset or not
// numeric.
func (d *Document) Times(i int) (*int, *int) {
	if i < 0 || i >= len(d.scenes) {
		return nil, nil
	}
	return intField(d.scenes[i].get(keyStart)), intField(d.scenes[i].get(keyEnd))
}

// SetImages points each scene's image at <dir>/<n>.png, n starting at 1.
// The directory is made absolute.
func (d *Document) SetImages(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve image dir: %w", err)
	}
	for i, scene := range d.scenes {
		image := filepath.ToSlash(filepath.Join(abs, fmt.Sprintf("%d.png", i+1)))
		scene.set(keyImage, mustMarshal(image))
	}
	return nil
}

// Image returns the image path stored on scene i.
func (d *Document) Image(i int) string {
	if i < 0 || i >= len(d.scenes) {
		return ""
	}
	var image string
	_ = json.Unmarshal(d.scenes[i].get(keyImage), &image)
	return image
}

// Duration returns the top-level duration when it is numeric.
func (d *Document) Duration() *int {
	return intField(d.fields.get(keyDuration))
}

// SetDuration stores the overall duration in whole seconds.
func (d *Document) SetDuration(seconds int) {
	d.fields.set(keyDuration, mustMarshal(seconds))
}

// ProjectPath returns the episode directory the script belongs to. An explicit
// project_path (or projectPath) wins. Otherwise the directory is derived as
// <projectsDir>/<series or video_type>/<id>.<alias> from the meta block.
func (d *Document) ProjectPath(projectsDir string) (string, error) {
	for _, key := range []string{keyProjectPath, keyProjectAlt} {
		var explicit string
		if raw := d.fields.get(key); raw != nil && json.Unmarshal(raw, &explicit) == nil && strings.TrimSpace(explicit) != "" {
			return explicit, nil
		}
	}

	rawID := d.fields.get(keyID)
	if rawID == nil || isNull(rawID) {
		return "", fmt.Errorf("%w: no project_path or id", ErrMalformed)
	}
	id := scalarString(rawID)

	var meta struct {
		Series    string `json:"series"`
		VideoType string `json:"video_type"`
		Alias     string `json:"alias"`
	}
	if d.fields.has(keyMeta) {
		_ = json.Unmarshal(d.fields.get(keyMeta), &meta)
	}
	group := meta.Series
	if group == "" {
		group = meta.VideoType
	}
	if group == "" {
		group = "general"
	}
	group = textutil.Slug(group)
	alias := meta.Alias
	if alias == "" {
		alias = "untitled"
	}
	return filepath.Join(projectsDir, group, id+"."+alias), nil
}

// Marshal encodes the document as two-space indented JSON without HTML
// escaping. Keys keep the order they were read in; keys added by scenesync
// follow the original ones.
func (d *Document) Marshal() ([]byte, error) {
	var override map[string]json.RawMessage
	if d.scenes != nil {
		scenes, err := encode(d.scenes)
		if err != nil {
			return nil, fmt.Errorf("encode scenes: %w", err)
		}
		override = map[string]json.RawMessage{keyScenes: scenes}
	}
	data, err := d.fields.encodeWith(override)
	if err != nil {
		return nil, err
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, data, "", "  "); err != nil {
		return nil, err
	}
	indented.WriteByte('\n')
	return indented.Bytes(), nil
}

// Save writes the document to path, replacing it atomically.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("encode script: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := encode(v)
	if err != nil {
		panic(fmt.Sprintf("script: marshal %T: %v", v, err))
	}
	return data
}

func intOrNull(v *int) json.RawMessage {
	if v == nil {
		return json.RawMessage("null")
	}
	return mustMarshal(*v)
}

func intField(raw json.RawMessage) *int {
	if !isNumber(raw) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	v := int(f)
	return &v
}

func isNumber(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	c := trimmed[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
