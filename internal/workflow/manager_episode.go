package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"scenesync/internal/align"
	"scenesync/internal/episode"
	"scenesync/internal/history"
	"scenesync/internal/logging"
	"scenesync/internal/script"
	"scenesync/internal/subtitles"
	"scenesync/internal/transcript"
)

var errTranscription = errors.New("transcription failed")

// Options controls a single invocation of the pipeline.
type Options struct {
	// Force re-transcribes and re-aligns episodes whose outputs already exist.
	Force bool
	// DryRun reports the planned work without touching any file.
	DryRun bool
	// AlignOnly skips transcription and uses whatever transcript is present.
	AlignOnly bool
	// Parallel overrides workflow.parallel when positive.
	Parallel int
	// RunID overrides the generated run identifier.
	RunID string
}

// EpisodeResult is the outcome of processing one episode.
type EpisodeResult struct {
	Episode     string
	Status      history.Status
	Transcribed bool
	Scenes      int
	Unaligned   int
	Cues        int
	Duration    *int
	// Planned lists the steps a dry run would perform.
	Planned []string
	Err     error
}

// ProcessEpisode transcribes, subtitles and aligns one episode. Failures are
// reported in the result and never panic or abort the caller.
func (m *Manager) ProcessEpisode(ctx context.Context, ep episode.Episode, opts Options) EpisodeResult {
	started := m.now()
	ctx = logging.WithEpisode(ctx, ep.Name)
	logger := logging.WithContext(ctx, m.logger)

	result := EpisodeResult{Episode: ep.Name}
	if opts.DryRun {
		result.Status = history.StatusDryRun
		result.Planned = m.plan(ep, opts)
		logger.Info("dry run", logging.Any("steps", result.Planned))
	} else if err := m.process(ctx, logger, ep, opts, &result); err != nil {
		result.Err = err
		result.Status = classifyFailure(err)
		m.logFailure(logger, result)
	}

	m.record(ctx, logger, result, started)
	return result
}

func (m *Manager) process(ctx context.Context, logger *slog.Logger, ep episode.Episode, opts Options, result *EpisodeResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !opts.AlignOnly {
		transcribed, err := m.ensureTranscript(ctx, logger, &ep, opts.Force)
		if err != nil {
			return err
		}
		result.Transcribed = transcribed
	}
	if ep.Transcript == "" {
		return ep.RequireAlignmentInputs()
	}

	tr := m.loadTranscript(logger, ep.Transcript)

	srtPath := episode.SubtitlePath(ep.Transcript)
	if result.Transcribed || !fileExists(srtPath) {
		cues, err := m.writeSubtitles(logger, tr, srtPath)
		if err != nil {
			return err
		}
		result.Cues = cues
	}

	if err := ep.RequireAlignmentInputs(); err != nil {
		return err
	}
	return m.alignScript(ctx, logger, ep, tr, opts, result)
}

// ensureTranscript runs WhisperX when the episode has no transcript for its
// audio yet, or always when force is set.
func (m *Manager) ensureTranscript(ctx context.Context, logger *slog.Logger, ep *episode.Episode, force bool) (bool, error) {
	if ep.Audio == "" {
		return false, fmt.Errorf("%w: %s: no *%s audio", episode.ErrMissingInput, ep.Name, episode.AudioExt)
	}
	target := ep.TranscriptTarget()

	if force {
		for _, path := range []string{target, episode.SubtitlePath(target)} {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return false, fmt.Errorf("remove %s: %w", path, err)
			}
		}
	} else if fileExists(target) {
		ep.Transcript = target
		logger.Debug("transcript exists, skipping transcription", logging.String("transcript", target))
		return false, nil
	}

	transcribeCtx := ctx
	if timeout := m.cfg.WhisperX.TimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		transcribeCtx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	logger.Info("transcribing",
		logging.String("audio", ep.Audio),
		logging.String("transcript", target),
		logging.String(logging.FieldEventType, "transcription_start"),
	)
	start := time.Now()
	if err := m.transcriber.Transcribe(transcribeCtx, ep.Audio, target); err != nil {
		return false, fmt.Errorf("%w: %s: %w", errTranscription, ep.Name, err)
	}
	logger.Info("transcription complete",
		logging.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "transcription_complete"),
	)
	ep.Transcript = target
	return true, nil
}

// loadTranscript reads the transcript. A malformed file is treated as empty.
func (m *Manager) loadTranscript(logger *slog.Logger, path string) transcript.Transcript {
	tr, err := transcript.Load(path)
	if err != nil {
		logging.WarnWithContext(logger, "transcript unreadable, treating as empty", "transcript_malformed",
			logging.String("transcript", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the transcript and rerun with --force"),
			logging.String(logging.FieldImpact, "no subtitles written and every scene stays untimed"),
		)
		return transcript.Transcript{}
	}
	return tr
}

func (m *Manager) writeSubtitles(logger *slog.Logger, tr transcript.Transcript, path string) (int, error) {
	cues := subtitles.Segment(tr.Segments, subtitles.Options{
		PauseThreshold: m.cfg.Subtitles.PauseThreshold,
		MaxDuration:    m.cfg.Subtitles.MaxDuration,
		MaxWords:       m.cfg.Subtitles.MaxWords,
	})
	if len(cues) == 0 {
		logger.Info("no timed words, subtitle file not written", logging.String("srt", path))
		return 0, nil
	}
	if err := subtitles.WriteFile(path, cues); err != nil {
		return 0, err
	}
	logger.Info("subtitles written",
		logging.String("srt", path),
		logging.Int("cues", len(cues)),
		logging.String(logging.FieldEventType, "subtitles_written"),
	)
	return len(cues), nil
}

// validateSubtitles checks an existing SRT against the probed audio length.
func (m *Manager) validateSubtitles(logger *slog.Logger, path string, seconds float64) {
	if !fileExists(path) {
		return
	}
	if issues := subtitles.Validate(path, seconds); len(issues) > 0 {
		logging.WarnWithContext(logger, "subtitle validation issues", "subtitle_validation",
			logging.String("srt", path),
			logging.Any("issues", issues),
			logging.String(logging.FieldErrorHint, "rerun with --force to regenerate the transcript"),
			logging.String(logging.FieldImpact, "captions may drift from the narration"),
		)
	}
}

func (m *Manager) alignScript(ctx context.Context, logger *slog.Logger, ep episode.Episode, tr transcript.Transcript, opts Options, result *EpisodeResult) error {
	doc, err := script.Load(ep.Script)
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	result.Scenes = doc.Len()
	if !doc.HasScenes() {
		logging.WarnWithContext(logger, "script has no scenes array", "script_malformed",
			logging.String("script", ep.Script),
			logging.String(logging.FieldErrorHint, "add a scenes array with one narration per scene"),
			logging.String(logging.FieldImpact, "nothing to align; only the duration is updated"),
		)
	}

	if m.cfg.Alignment.SkipTimed && !opts.Force && doc.FullyTimed() {
		result.Status = history.StatusSkipped
		result.Duration = doc.Duration()
		logger.Info("scenes already timed, skipping alignment",
			logging.Int("scenes", doc.Len()),
			logging.String(logging.FieldEventType, "alignment_skipped"),
		)
		return nil
	}

	scenes := doc.Narrations()
	aligned := align.AlignScenes(scenes, tr.Segments, align.Options{Threshold: m.cfg.Alignment.AcceptThreshold})
	m.warnUnaligned(logger, scenes, aligned, tr)

	if err := doc.SetImages(ep.Dir); err != nil {
		return err
	}

	var probed *float64
	seconds, err := m.prober.Duration(ctx, ep.Audio)
	switch {
	case err == nil:
		probed = &seconds
		m.validateSubtitles(logger, episode.SubtitlePath(ep.Transcript), seconds)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		logging.WarnWithContext(logger, "audio duration unavailable", "duration_unavailable",
			logging.String("audio", ep.Audio),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install ffprobe or set media.ffprobe_binary"),
			logging.String(logging.FieldImpact, "last scene keeps its aligned end and duration is unchanged"),
		)
	}

	if duration := align.Reconcile(aligned, probed); duration != nil {
		doc.SetDuration(*duration)
	}
	doc.Apply(aligned)
	if err := doc.Save(ep.Script); err != nil {
		return err
	}

	result.Status = history.StatusAligned
	result.Unaligned = align.UnalignedCount(aligned)
	result.Duration = doc.Duration()
	logger.Info("episode aligned",
		logging.Int("scenes", len(aligned)),
		logging.Int("unaligned", result.Unaligned),
		logging.String(logging.FieldEventType, "alignment_complete"),
	)
	return nil
}

func (m *Manager) warnUnaligned(logger *slog.Logger, scenes []align.Scene, aligned []align.AlignedScene, tr transcript.Transcript) {
	for i, scene := range aligned {
		if scene.Aligned() {
			continue
		}
		attrs := []logging.Attr{
			logging.Scene(scene.Index+1),
			logging.Score("best_score", scene.Score),
			logging.String(logging.FieldImpact, "scene start/end written as null"),
			logging.String(logging.FieldErrorHint, "compare the narration with the transcript text"),
		}
		if idx, sim := align.NearestSegment(scenes[i].Narration, tr.Segments); idx >= 0 {
			attrs = append(attrs,
				logging.Int("nearest_segment", idx),
				logging.Score("nearest_similarity", sim),
			)
		}
		logging.WarnWithContext(logger, "scene not aligned", "scene_unaligned", attrs...)
	}
}

func (m *Manager) plan(ep episode.Episode, opts Options) []string {
	var steps []string
	if !opts.AlignOnly {
		switch target := ep.TranscriptTarget(); {
		case target == "":
			steps = append(steps, "skip: no audio")
			return steps
		case opts.Force || !fileExists(target):
			steps = append(steps, "transcribe "+ep.Audio)
			steps = append(steps, "write "+episode.SubtitlePath(target))
		}
	}
	if !ep.HasScript() {
		return append(steps, "skip alignment: no "+episode.ScriptFile)
	}
	return append(steps, "align "+ep.Script)
}

func (m *Manager) record(ctx context.Context, logger *slog.Logger, result EpisodeResult, started time.Time) {
	if m.recorder == nil {
		return
	}
	runID, _ := logging.RunIDFromContext(ctx)
	if runID == "" {
		return
	}
	run := history.Run{
		RunID:       runID,
		Episode:     result.Episode,
		Status:      result.Status,
		Transcribed: result.Transcribed,
		Scenes:      result.Scenes,
		Unaligned:   result.Unaligned,
		Cues:        result.Cues,
		Duration:    result.Duration,
		StartedAt:   started,
		FinishedAt:  m.now(),
	}
	if result.Err != nil {
		run.ErrorMessage = result.Err.Error()
	}
	// History is best effort; a locked database must not fail the episode.
	if _, err := m.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "episode missing from `scenesync history`"),
		)
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
