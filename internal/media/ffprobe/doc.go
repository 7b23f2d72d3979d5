// Package ffprobe reads media durations through the ffprobe and ffmpeg
// binaries.
//
// Prober.Inspect asks ffprobe for container and stream durations only.
// Prober.Duration builds on it with an ffmpeg stderr fallback for builds
// where ffprobe is missing or reports nothing, and surfaces
// ErrDurationUnavailable when every strategy fails.
package ffprobe
