package subtitles

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"scenesync/internal/fileutil"
)

// Tolerance between the last cue end and the media duration before the
// subtitle file is flagged as mismatched.
const subtitleDurationToleranceSeconds = 8.0

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm),
// rounding to the nearest millisecond. Negative values clamp to zero.
func FormatTimestamp(sec float64) string {
	if math.IsNaN(sec) || sec < 0 {
		sec = 0
	}
	total := int64(math.Round(sec * 1000))
	ms := total % 1000
	total /= 1000
	s := total % 60
	total /= 60
	m := total % 60
	h := total / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// Render formats cues as an SRT document.
func Render(cues []Cue) string {
	var b strings.Builder
	for _, cue := range cues {
		b.WriteString(strconv.Itoa(cue.Ordinal))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(cue.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(cue.End))
		b.WriteByte('\n')
		b.WriteString(cue.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// WriteFile renders cues and atomically replaces path with the result.
func WriteFile(path string, cues []Cue) error {
	if err := fileutil.WriteFileAtomic(path, []byte(Render(cues)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// CountCues returns the number of non-empty cue blocks in an SRT file.
func CountCues(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return 0, nil
	}
	count := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count, nil
}

// Bounds returns the earliest cue start and the latest cue end in an SRT file.
func Bounds(path string) (float64, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read srt: %w", err)
	}
	first := math.Inf(1)
	var last float64
	found := false
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		if startSeconds, err := ParseTimestamp(parts[0]); err == nil {
			if startSeconds < first {
				first = startSeconds
			}
			found = true
		}
		if endSeconds, err := ParseTimestamp(parts[1]); err == nil {
			if endSeconds > last {
				last = endSeconds
			}
		}
	}
	if !found {
		return 0, last, nil
	}
	return first, last, nil
}

// ParseTimestamp parses an SRT timestamp into seconds. A period is accepted
// in place of the comma separator.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// Validate checks an SRT file for format issues. When mediaSeconds is
// positive the last cue end must fall within tolerance of it.
// Returns the list of issues found; an empty slice means validation passed.
func Validate(path string, mediaSeconds float64) []string {
	var issues []string

	cues, err := CountCues(path)
	if err != nil {
		return append(issues, fmt.Sprintf("read_error: %v", err))
	}
	if cues == 0 {
		return append(issues, "empty_subtitle_file")
	}

	first, last, err := Bounds(path)
	if err != nil {
		issues = append(issues, fmt.Sprintf("timestamp_parse_error: %v", err))
	} else if first == 0 && last == 0 {
		issues = append(issues, "no_valid_timestamps")
	}

	if mediaSeconds > 0 && last > 0 {
		delta := mediaSeconds - last
		if math.Abs(delta) > subtitleDurationToleranceSeconds {
			issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", delta))
		}
	}

	return issues
}
