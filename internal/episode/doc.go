// Package episode locates episode directories and the files inside them.
//
// Episodes live two levels below the projects directory
// (projects/<series>/<id>.<alias>). Each holds the narration script
// (capcut-api.json), the narration audio (*.mp3) and, once transcribed, a
// WhisperX transcript (*.whisperx.json) with its SRT alongside.
package episode
