// Package logging builds the slog loggers used by scenesync.
//
// Terminal output uses a compact single-line format with the episode label
// and component pulled to the front; the same records are mirrored as JSON
// into the log file under the state directory. Run and episode identifiers
// travel on the context and are attached with WithContext.
package logging
