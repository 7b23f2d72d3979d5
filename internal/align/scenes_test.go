package align

import (
	"reflect"
	"testing"

	"scenesync/internal/transcript"
)

func intPtr(v int) *int { return &v }

func values(scenes []AlignedScene) [][2]any {
	out := make([][2]any, len(scenes))
	for i, s := range scenes {
		var start, end any
		if s.Start != nil {
			start = *s.Start
		}
		if s.End != nil {
			end = *s.End
		}
		out[i] = [2]any{start, end}
	}
	return out
}

func TestAlignScenesRoundsAndKeepsGoing(t *testing.T) {
	segments := []transcript.Segment{
		seg(0.4, 2.6, "Once upon a time"),
		seg(2.6, 5.5, "there lived a king"),
		seg(5.5, 9.2, "who loved gold more than anything"),
	}
	scenes := []Scene{
		{Index: 0, Narration: "Once upon a time, there lived a king."},
		{Index: 1, Narration: "Nothing in common here"},
		{Index: 2, Narration: "Who loved gold more than anything!"},
	}

	got := AlignScenes(scenes, segments, DefaultOptions())
	want := [][2]any{{0, 6}, {nil, nil}, {6, 9}}
	if !reflect.DeepEqual(values(got), want) {
		t.Fatalf("AlignScenes = %v, want %v", values(got), want)
	}
	if got[1].Index != 1 || got[1].Aligned() {
		t.Fatalf("unexpected scene 1: %+v", got[1])
	}
	if n := UnalignedCount(got); n != 1 {
		t.Fatalf("UnalignedCount = %d, want 1", n)
	}
}

func TestAlignScenesIsIdempotent(t *testing.T) {
	scenes := []Scene{{Index: 0, Narration: "hello there friend"}, {Index: 1, Narration: "my friend"}}
	first := AlignScenes(scenes, greetingSegments(), DefaultOptions())
	second := AlignScenes(scenes, greetingSegments(), DefaultOptions())
	if !reflect.DeepEqual(values(first), values(second)) {
		t.Fatalf("alignment not idempotent: %v vs %v", values(first), values(second))
	}
}

func TestRoundSeconds(t *testing.T) {
	tests := []struct {
		in   *float64
		want *int
	}{
		{nil, nil},
		{transcript.Float(0), intPtr(0)},
		{transcript.Float(1.49), intPtr(1)},
		{transcript.Float(1.51), intPtr(2)},
		{transcript.Float(2.5), intPtr(2)},
		{transcript.Float(3.5), intPtr(4)},
	}
	for _, tt := range tests {
		got := RoundSeconds(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("RoundSeconds(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReconcileForcesLastEnd(t *testing.T) {
	scenes := []AlignedScene{
		{Index: 0, Start: intPtr(0), End: intPtr(10)},
		{Index: 1, Start: intPtr(10), End: intPtr(25)},
		{Index: 2, Start: intPtr(25), End: intPtr(58)},
	}
	duration := Reconcile(scenes, transcript.Float(60.2))
	if duration == nil || *duration != 60 {
		t.Fatalf("Reconcile duration = %v, want 60", duration)
	}
	want := [][2]any{{0, 10}, {10, 25}, {25, 60}}
	if !reflect.DeepEqual(values(scenes), want) {
		t.Fatalf("scenes = %v, want %v", values(scenes), want)
	}
}

func TestReconcileOverridesUnalignedTail(t *testing.T) {
	scenes := []AlignedScene{{Index: 0}}
	Reconcile(scenes, transcript.Float(42))
	if scenes[0].Start != nil || scenes[0].End == nil || *scenes[0].End != 42 {
		t.Fatalf("unexpected tail scene %+v", scenes[0])
	}
}

func TestReconcileWithoutProbeLeavesScenes(t *testing.T) {
	scenes := []AlignedScene{{Index: 0, Start: intPtr(0), End: intPtr(58)}}
	if d := Reconcile(scenes, nil); d != nil {
		t.Fatalf("expected nil duration, got %d", *d)
	}
	if *scenes[0].End != 58 {
		t.Fatalf("end changed to %d", *scenes[0].End)
	}
	if d := Reconcile(nil, transcript.Float(12)); d == nil || *d != 12 {
		t.Fatal("expected duration even with no scenes")
	}
}
