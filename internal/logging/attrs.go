package logging

import (
	"context"
	"log/slog"
	"math"
)

// Attr is the attribute type every scenesync log call takes.
type Attr = slog.Attr

var (
	Any      = slog.Any
	Bool     = slog.Bool
	Duration = slog.Duration
	Int      = slog.Int
	String   = slog.String
)

// Alert tags a record for operator attention.
func Alert(value string) Attr { return slog.String(FieldAlert, value) }

// Error attaches err under the "error" key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Scene identifies a scene by its 1-based position in the script.
func Scene(position int) Attr { return slog.Int(FieldScene, position) }

// Score records a similarity value rounded to three decimals.
func Score(key string, value float64) Attr {
	return slog.Float64(key, math.Round(value*1000)/1000)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields a
// no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

const defaultErrorHint = "check logs for details"

// WarnWithContext logs a warning carrying event_type, error_hint and impact.
// Missing fields are filled with generic defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithHints(logger, slog.LevelWarn, msg, attrs, map[string]string{
		FieldEventType: eventType,
		FieldErrorHint: defaultErrorHint,
		FieldImpact:    "episode completed with warnings",
	})
}

// ErrorWithContext logs an error carrying event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithHints(logger, slog.LevelError, msg, attrs, map[string]string{
		FieldEventType: eventType,
		FieldErrorHint: defaultErrorHint,
	})
}

func logWithHints(logger *slog.Logger, level slog.Level, msg string, attrs []Attr, defaults map[string]string) {
	if logger == nil {
		return
	}
	present := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		present[a.Key] = true
	}
	for _, key := range []string{FieldEventType, FieldErrorHint, FieldImpact} {
		if value, ok := defaults[key]; ok && !present[key] {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
