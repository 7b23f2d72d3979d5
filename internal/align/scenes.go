package align

import (
	"math"

	"scenesync/internal/transcript"
)

// Scene is one narration entry from a script.
type Scene struct {
	Index     int
	Narration string
}

// AlignedScene carries whole-second times for a scene. Nil Start or End means
// no acceptable match was found.
type AlignedScene struct {
	Index int
	Start *int
	End   *int
	Score float64
}

// Aligned reports whether both boundaries are known.
func (s AlignedScene) Aligned() bool {
	return s.Start != nil && s.End != nil
}

// AlignScenes runs Search for each scene and rounds the accepted times to
// whole seconds. Unmatched scenes keep nil times; they never stop the loop.
func AlignScenes(scenes []Scene, segments []transcript.Segment, opts Options) []AlignedScene {
	out := make([]AlignedScene, 0, len(scenes))
	for _, scene := range scenes {
		w := Search(scene.Narration, segments, opts)
		out = append(out, AlignedScene{
			Index: scene.Index,
			Start: RoundSeconds(w.Start),
			End:   RoundSeconds(w.End),
			Score: w.Score,
		})
	}
	return out
}

// UnalignedCount returns how many scenes are missing a start or end.
func UnalignedCount(scenes []AlignedScene) int {
	count := 0
	for _, s := range scenes {
		if !s.Aligned() {
			count++
		}
	}
	return count
}

// RoundSeconds rounds v to the nearest whole second, halves to even.
// Nil stays nil.
func RoundSeconds(v *float64) *int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r := int(math.RoundToEven(*v))
	return &r
}

// Reconcile applies a probed media duration. The duration is rounded to whole
// seconds and the last scene's End is forced to it. With no probe the scenes
// are left untouched and nil is returned.
func Reconcile(scenes []AlignedScene, probed *float64) *int {
	duration := RoundSeconds(probed)
	if duration == nil {
		return nil
	}
	if len(scenes) > 0 {
		end := *duration
		scenes[len(scenes)-1].End = &end
	}
	return duration
}
