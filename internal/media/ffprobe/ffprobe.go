package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// probeEntries limits ffprobe output to the fields duration probing reads.
const probeEntries = "format=duration:stream=codec_type,duration"

// Result holds the subset of ffprobe JSON used to work out a duration.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one container stream. Durations stay strings because ffprobe
// reports "N/A" for unknown values.
type Stream struct {
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
}

// Format is the container section.
type Format struct {
	Duration string `json:"duration"`
}

// CommandRunner executes name with args and returns its stdout and stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func inspect(ctx context.Context, run CommandRunner, binary, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe: empty path")
	}
	stdout, stderr, err := run(ctx, binary, "-v", "error", "-show_entries", probeEntries, "-of", "json", "--", path)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return Result{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, msg)
		}
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal(stdout, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: decode output: %w", path, err)
	}
	return result, nil
}

// DurationSeconds returns the container duration in seconds. When the
// container omits it, the longest audio stream duration is used. Returns 0
// when neither is available.
func (r Result) DurationSeconds() float64 {
	if d, ok := seconds(r.Format.Duration); ok {
		return d
	}
	longest := 0.0
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		if d, ok := seconds(stream.Duration); ok && d > longest {
			longest = d
		}
	}
	return longest
}

func seconds(value string) (float64, bool) {
	d, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, false
	}
	return d, true
}
