// Package whisperx invokes WhisperX to turn narration audio into a
// word-timed transcript JSON.
//
// Two execution modes are supported:
//   - docker: runs a prebuilt WhisperX image with the workspace and model
//     cache mounted, optionally with GPU access
//   - local: runs WhisperX through uvx and moves the JSON into place
//
// Command execution can be replaced with WithCommandRunner so callers can
// test orchestration without the external tools installed.
package whisperx
