package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateWhisperX(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAlignment() error {
	if c.Alignment.AcceptThreshold <= 0 || c.Alignment.AcceptThreshold >= 1 {
		return errors.New("alignment.accept_threshold must be between 0 and 1 (exclusive)")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.PauseThreshold <= 0 {
		return errors.New("subtitles.pause_threshold must be positive (seconds)")
	}
	if c.Subtitles.MaxDuration <= 0 {
		return errors.New("subtitles.max_duration must be positive (seconds)")
	}
	if c.Subtitles.MaxWords <= 0 {
		return errors.New("subtitles.max_words must be positive")
	}
	return nil
}

func (c *Config) validateWhisperX() error {
	switch c.WhisperX.Mode {
	case "docker", "local":
	default:
		return fmt.Errorf("whisperx.mode must be \"docker\" or \"local\", got %q", c.WhisperX.Mode)
	}
	if c.WhisperX.TimeoutSeconds < 0 {
		return errors.New("whisperx.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Parallel <= 0 {
		return errors.New("workflow.parallel must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}
