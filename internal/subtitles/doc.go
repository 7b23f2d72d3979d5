// Package subtitles turns time-coded transcripts into SRT caption files.
//
// Word-timed segments are split into caption-sized cues by a single greedy
// pass: a cue closes when the pause before the next word, the number of
// words, or the on-screen duration reaches its threshold. Segments without
// word timings become one cue each. Ordinals run across the whole transcript.
//
// The package also renders and validates SRT documents so the workflow can
// check a written file against the probed audio duration.
package subtitles
