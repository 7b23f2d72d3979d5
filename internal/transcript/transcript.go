package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMalformed indicates the payload is not a usable transcript.
var ErrMalformed = errors.New("malformed transcript")

// Word is a single word with its own timing. Start and End are nil when the
// aligner could not time the word.
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

// Segment is one transcript entry.
type Segment struct {
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Text  string   `json:"text"`
	Words []Word   `json:"words,omitempty"`
}

// Transcript is the decoded aligner output.
type Transcript struct {
	Segments []Segment `json:"segments"`
}

// HasWordTimings reports whether the segment carries word-level timing.
func (s Segment) HasWordTimings() bool {
	return len(s.Words) > 0
}

type rawWord struct {
	Word  *string  `json:"word"`
	Text  *string  `json:"text"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type rawSegment struct {
	Start      *float64  `json:"start"`
	End        *float64  `json:"end"`
	Text       string    `json:"text"`
	Words      []rawWord `json:"words"`
	Alignments []rawWord `json:"alignments"`
}

type rawPayload struct {
	Segments *[]rawSegment `json:"segments"`
}

// Parse decodes a transcript payload. A missing segments array or invalid
// JSON returns ErrMalformed.
func Parse(data []byte) (Transcript, error) {
	var payload rawPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Transcript{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if payload.Segments == nil {
		return Transcript{}, fmt.Errorf("%w: missing segments", ErrMalformed)
	}

	segments := make([]Segment, 0, len(*payload.Segments))
	for _, raw := range *payload.Segments {
		seg := Segment{Start: raw.Start, End: raw.End, Text: raw.Text}
		words := raw.Words
		if len(words) == 0 {
			// Some aligner builds emit word timings under "alignments".
			words = raw.Alignments
		}
		if len(words) > 0 {
			seg.Words = make([]Word, 0, len(words))
			for _, w := range words {
				seg.Words = append(seg.Words, Word{Word: wordText(w), Start: w.Start, End: w.End})
			}
		}
		segments = append(segments, seg)
	}
	return Transcript{Segments: segments}, nil
}

// Load reads and parses a transcript file. Missing files surface the
// os.ErrNotExist error unchanged so callers can classify them as missing input.
func Load(path string) (Transcript, error) {
	if strings.TrimSpace(path) == "" {
		return Transcript{}, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, err
	}
	t, err := Parse(data)
	if err != nil {
		return Transcript{}, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	return t, nil
}

func wordText(w rawWord) string {
	if w.Word != nil {
		return *w.Word
	}
	if w.Text != nil {
		return *w.Text
	}
	return ""
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
