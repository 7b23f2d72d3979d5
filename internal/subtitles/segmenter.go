package subtitles

import (
	"strings"

	"scenesync/internal/transcript"
)

// Default grouping thresholds.
const (
	DefaultPauseThreshold = 0.6 // seconds of silence between words that forces a break
	DefaultMaxDuration    = 6.0 // seconds a single cue may stay on screen
	DefaultMaxWords       = 10  // words per cue
)

// Options controls how words are grouped into cues.
type Options struct {
	PauseThreshold float64
	MaxDuration    float64
	MaxWords       int
}

// DefaultOptions returns the standard caption grouping thresholds.
func DefaultOptions() Options {
	return Options{
		PauseThreshold: DefaultPauseThreshold,
		MaxDuration:    DefaultMaxDuration,
		MaxWords:       DefaultMaxWords,
	}
}

func (o Options) withDefaults() Options {
	if o.PauseThreshold <= 0 {
		o.PauseThreshold = DefaultPauseThreshold
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = DefaultMaxDuration
	}
	if o.MaxWords <= 0 {
		o.MaxWords = DefaultMaxWords
	}
	return o
}

// Cue is one timed caption entry.
type Cue struct {
	Ordinal int
	Start   float64
	End     float64
	Text    string
}

// wordGrouper accumulates words into a single open group. Each incoming word
// either joins the group or closes it and starts the next one.
type wordGrouper struct {
	opts  Options
	group []transcript.Word
}

// push adds w and returns the group it closed, if any.
func (g *wordGrouper) push(w transcript.Word) []transcript.Word {
	if len(g.group) == 0 {
		g.group = append(g.group, w)
		return nil
	}
	if g.shouldBreak(w) {
		closed := g.group
		g.group = []transcript.Word{w}
		return closed
	}
	g.group = append(g.group, w)
	return nil
}

func (g *wordGrouper) shouldBreak(w transcript.Word) bool {
	first := g.group[0]
	last := g.group[len(g.group)-1]
	gap := seconds(w.Start) - seconds(last.End)
	duration := seconds(w.End) - seconds(first.Start)
	return gap >= g.opts.PauseThreshold ||
		len(g.group) >= g.opts.MaxWords ||
		duration >= g.opts.MaxDuration
}

// flush returns the open group and resets the grouper.
func (g *wordGrouper) flush() []transcript.Word {
	closed := g.group
	g.group = nil
	return closed
}

// GroupWords splits timed words into caption groups using opts.
func GroupWords(words []transcript.Word, opts Options) [][]transcript.Word {
	g := wordGrouper{opts: opts.withDefaults()}
	var groups [][]transcript.Word
	for _, w := range words {
		if closed := g.push(w); len(closed) > 0 {
			groups = append(groups, closed)
		}
	}
	if tail := g.flush(); len(tail) > 0 {
		groups = append(groups, tail)
	}
	return groups
}

// Segment converts transcript segments into subtitle cues. Segments with
// word timings are split with GroupWords; the others become one cue each.
// Ordinals run from 1 across the whole transcript. Groups with empty text or
// a missing boundary are dropped without consuming an ordinal.
// Cue text is trimmed at both ends; inner spacing is kept.
func Segment(segments []transcript.Segment, opts Options) []Cue {
	opts = opts.withDefaults()
	var cues []Cue
	emit := func(start, end *float64, text string) {
		text = strings.TrimSpace(text)
		if start == nil || end == nil || text == "" {
			return
		}
		cues = append(cues, Cue{
			Ordinal: len(cues) + 1,
			Start:   *start,
			End:     *end,
			Text:    text,
		})
	}

	for _, seg := range segments {
		if !seg.HasWordTimings() {
			emit(seg.Start, seg.End, seg.Text)
			continue
		}
		for _, group := range GroupWords(seg.Words, opts) {
			parts := make([]string, len(group))
			for i, w := range group {
				parts[i] = w.Word
			}
			emit(group[0].Start, group[len(group)-1].End, strings.Join(parts, " "))
		}
	}
	return cues
}

func seconds(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
