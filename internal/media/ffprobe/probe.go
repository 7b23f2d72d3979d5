package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrDurationUnavailable is returned when no probing strategy could read a
// duration from the media file.
var ErrDurationUnavailable = errors.New("media duration unavailable")

var ffmpegDurationPattern = regexp.MustCompile(`Duration: (\d+):(\d+):(\d+(?:\.\d+)?)`)

// Prober reads media durations with ffprobe, falling back to the banner that
// ffmpeg prints on stderr.
type Prober struct {
	ffprobe string
	ffmpeg  string
	run     CommandRunner
}

// Option customizes a Prober.
type Option func(*Prober)

// WithCommandRunner overrides how external commands are executed (primarily for tests).
func WithCommandRunner(r CommandRunner) Option {
	return func(p *Prober) {
		if r != nil {
			p.run = r
		}
	}
}

// NewProber builds a Prober. Empty binaries default to "ffprobe" and "ffmpeg".
func NewProber(ffprobeBinary, ffmpegBinary string, opts ...Option) *Prober {
	p := &Prober{
		ffprobe: strings.TrimSpace(ffprobeBinary),
		ffmpeg:  strings.TrimSpace(ffmpegBinary),
		run:     execRunner,
	}
	if p.ffprobe == "" {
		p.ffprobe = "ffprobe"
	}
	if p.ffmpeg == "" {
		p.ffmpeg = "ffmpeg"
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inspect runs ffprobe on path.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	return inspect(ctx, p.run, p.ffprobe, path)
}

// Duration returns the media duration of path in seconds. Strategies are tried
// in order: ffprobe JSON (container, then audio streams), then ffmpeg -i.
// When every strategy fails the error wraps ErrDurationUnavailable.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	var failures []error

	result, err := p.Inspect(ctx, path)
	if err == nil {
		if seconds := result.DurationSeconds(); seconds > 0 {
			return seconds, nil
		}
		failures = append(failures, errors.New("ffprobe reported no duration"))
	} else {
		failures = append(failures, err)
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	seconds, err := p.ffmpegDuration(ctx, path)
	if err == nil {
		return seconds, nil
	}
	failures = append(failures, err)

	return 0, fmt.Errorf("%w: %s: %w", ErrDurationUnavailable, path, errors.Join(failures...))
}

// ffmpegDuration parses "Duration: HH:MM:SS.xx" from ffmpeg's stderr. ffmpeg
// exits non-zero when no output is given, so the exit status is ignored when
// the banner is present.
func (p *Prober) ffmpegDuration(ctx context.Context, path string) (float64, error) {
	_, stderr, runErr := p.run(ctx, p.ffmpeg, "-hide_banner", "-i", path)
	seconds, ok := ParseFFmpegDuration(string(stderr))
	if ok {
		return seconds, nil
	}
	if runErr != nil {
		return 0, fmt.Errorf("ffmpeg probe: %w", runErr)
	}
	return 0, errors.New("ffmpeg probe: no duration in output")
}

// ParseFFmpegDuration extracts the duration banner from ffmpeg output.
func ParseFFmpegDuration(output string) (float64, bool) {
	m := ffmpegDurationPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	secs, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	total := float64(hours*3600+minutes*60) + secs
	if total <= 0 {
		return 0, false
	}
	return total, true
}
