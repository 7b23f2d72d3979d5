// Package transcript decodes time-coded speech transcripts produced by
// WhisperX (or any aligner emitting the same JSON shape).
//
// A transcript is an ordered list of segments, each with start/end seconds,
// text and optional word-level timings. List order is significant: downstream
// window searches treat adjacent entries as contiguous regardless of their
// timestamps.
//
// Payloads that do not match the expected structure return ErrMalformed.
// Callers treat that as an empty transcript and emit a warning instead of
// failing the episode.
package transcript
