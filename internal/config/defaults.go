package config

const (
	defaultConfigPath       = "~/.config/scenesync/config.toml"
	projectConfigName       = "scenesync.toml"
	defaultProjectsDir      = "projects"
	defaultStateDir         = "~/.local/share/scenesync"
	defaultAcceptThreshold  = 0.5
	defaultPauseThreshold   = 0.6
	defaultMaxDuration      = 6.0
	defaultMaxWords         = 10
	defaultWhisperXMode     = "docker"
	defaultWhisperXImage    = "cc_bcal-whisperx"
	defaultWhisperXModel    = "large-v3"
	defaultWhisperXCacheDir = "~/.cache"
	defaultWhisperXTimeout  = 3600
	defaultFFprobeBinary    = "ffprobe"
	defaultFFmpegBinary     = "ffmpeg"
	defaultWorkflowParallel = 1
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	projectsDirEnv          = "SCENESYNC_PROJECTS_DIR"
	huggingFaceTokenEnv     = "HF_TOKEN"
	huggingFaceHubTokenEnv  = "HUGGING_FACE_HUB_TOKEN"
)

// Default returns a Config populated with repository defaults. The projects
// directory is left empty so normalize can consult SCENESYNC_PROJECTS_DIR.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Alignment: Alignment{
			AcceptThreshold: defaultAcceptThreshold,
			SkipTimed:       true,
		},
		Subtitles: Subtitles{
			PauseThreshold: defaultPauseThreshold,
			MaxDuration:    defaultMaxDuration,
			MaxWords:       defaultMaxWords,
		},
		WhisperX: WhisperX{
			Mode:           defaultWhisperXMode,
			Image:          defaultWhisperXImage,
			Model:          defaultWhisperXModel,
			RequireGPU:     true,
			CacheDir:       defaultWhisperXCacheDir,
			TimeoutSeconds: defaultWhisperXTimeout,
		},
		Media: Media{
			FFprobeBinary: defaultFFprobeBinary,
			FFmpegBinary:  defaultFFmpegBinary,
		},
		Workflow: Workflow{
			Parallel: defaultWorkflowParallel,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
