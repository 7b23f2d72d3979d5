// Package workflow drives episodes through transcription, subtitle
// generation and scene alignment.
//
// Manager.ProcessEpisode handles one episode and never lets a failure escape
// as anything but an EpisodeResult; Manager.Run fans episodes out over a
// bounded errgroup while holding a file lock in the state directory so two
// batches never rewrite the same scripts. External tools (WhisperX, ffprobe)
// sit behind small interfaces and are swapped for fakes in tests.
package workflow
