package align

import (
	"scenesync/internal/textutil"
	"scenesync/internal/transcript"
)

// DefaultThreshold is the score a window must strictly exceed to be accepted.
const DefaultThreshold = 0.5

// Options tunes window acceptance.
type Options struct {
	Threshold float64
}

// DefaultOptions returns the standard acceptance threshold.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold}
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	return o
}

// Window is the best-scoring run of segments for one narration.
type Window struct {
	First    int
	Last     int
	Score    float64
	Accepted bool
	Start    *float64
	End      *float64
}

// Search scans every contiguous window segments[i..j] and returns the best
// one. Ties keep the window found first in i-then-j order. Start and End are
// only set when the best score strictly exceeds opts.Threshold. An empty
// narration or transcript yields a zero Window with First and Last set to -1.
func Search(narration string, segments []transcript.Segment, opts Options) Window {
	opts = opts.withDefaults()
	best := Window{First: -1, Last: -1}

	target := textutil.Normalize(narration)
	if len(target) == 0 || len(segments) == 0 {
		return best
	}

	tokens := make([][]string, len(segments))
	for i, seg := range segments {
		tokens[i] = textutil.Normalize(seg.Text)
	}

	found := false
	for i := range segments {
		var candidate []string
		for j := i; j < len(segments); j++ {
			candidate = append(candidate, tokens[j]...)
			if len(candidate) == 0 {
				continue
			}
			score := textutil.Score(target, candidate)
			if !found || score > best.Score {
				best.First, best.Last, best.Score = i, j, score
				found = true
			}
		}
	}

	if found && best.Score > opts.Threshold {
		best.Accepted = true
		best.Start = segments[best.First].Start
		best.End = segments[best.Last].End
	}
	return best
}

// FindSceneTimes returns the start and end of the transcript window matching
// narration, or nil, nil when no window clears the default threshold.
func FindSceneTimes(narration string, segments []transcript.Segment) (*float64, *float64) {
	w := Search(narration, segments, DefaultOptions())
	return w.Start, w.End
}

// NearestSegment returns the index of the single segment whose text reads
// closest to narration by Jaro-Winkler similarity, or -1 when nothing
// compares. Used to point at the likely location of an unaligned scene.
func NearestSegment(narration string, segments []transcript.Segment) (int, float64) {
	bestIdx, bestSim := -1, 0.0
	for i, seg := range segments {
		sim := textutil.FuzzySimilarity(narration, seg.Text)
		if sim > bestSim {
			bestIdx, bestSim = i, sim
		}
	}
	return bestIdx, bestSim
}
