package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Mode selects how WhisperX runs: ModeDocker or ModeLocal.
	Mode string
	// Image is the container image used in docker mode.
	Image string
	// Model is the WhisperX model used in local mode (e.g., "large-v3").
	Model string
	// Language forces the transcription language; empty lets WhisperX detect it.
	Language string
	// RequireGPU requests GPU execution and fails when none is available.
	RequireGPU bool
	// WorkspaceRoot is mounted at /workspace inside the container. Audio and
	// output paths must live beneath it.
	WorkspaceRoot string
	// CacheDir is mounted at /root/.cache so model downloads persist.
	CacheDir string
	// HFToken is the Hugging Face token forwarded to the container.
	HFToken string
}

// WhisperX configuration constants.
const (
	ModeDocker         = "docker"
	ModeLocal          = "local"
	DefaultImage       = "cc_bcal-whisperx"
	DefaultModel       = "large-v3"
	ContainerWorkspace = "/workspace"
	ContainerCache     = "/root/.cache"
	CUDAIndexURL       = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL       = "https://pypi.org/simple"
	BatchSize          = "4"
	OutputFormat       = "json"
	CPUDevice          = "cpu"
	CUDADevice         = "cuda"
	CPUComputeType     = "float32"
)

// Command names for external tools.
const (
	DockerCommand = "docker"
	UVXCommand    = "uvx"
)
