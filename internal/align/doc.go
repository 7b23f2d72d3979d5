// Package align maps narration scenes onto time ranges of a speech transcript.
//
// Matching is lexical: every contiguous window of transcript segments is
// scored against a scene's narration and the best window wins when it clears
// the acceptance threshold. The package performs no I/O; callers load the
// transcript and script, then persist the aligned scenes and the reconciled
// duration themselves.
package align
