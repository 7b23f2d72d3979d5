// Package config loads, normalizes, and validates scenesync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCENESYNC_PROJECTS_DIR and HF_TOKEN. The Config type centralizes every knob
// the CLI and workflow need, from the alignment threshold to the WhisperX
// container image.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
