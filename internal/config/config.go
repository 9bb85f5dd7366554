package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Detection contains configuration for slide timing detection.
type Detection struct {
	// FrameRate is the number of frames sampled per second of source video.
	FrameRate int `toml:"frame_rate"`
	// SSIMThreshold is the minimum structural similarity score for a frame to
	// count as showing a slide. Below this the frame is classified as
	// black/transition.
	SSIMThreshold float64 `toml:"ssim_threshold"`
	// RasterWidth/RasterHeight is the common grayscale raster size frames and
	// reference slides are downscaled to before comparison.
	RasterWidth  int `toml:"raster_width"`
	RasterHeight int `toml:"raster_height"`
}

// Audio contains configuration for speech reconciliation and track mixing.
type Audio struct {
	// MaxTempo is the largest pitch-preserving speed-up factor applied before
	// a segment is truncated instead.
	MaxTempo float64 `toml:"max_tempo"`
	// FadeMillis is the fade-out length applied to truncated segments.
	FadeMillis int `toml:"fade_millis"`
	// MixBatchSize caps the number of inputs per ffmpeg filter graph.
	MixBatchSize int `toml:"mix_batch_size"`
	SampleRate   int    `toml:"sample_rate"`
	ChannelLayout string `toml:"channel_layout"`
	Bitrate      string `toml:"bitrate"`
}

// Video contains configuration for rendered slide segments and transitions.
type Video struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	FPS    int    `toml:"fps"`
	Codec  string `toml:"codec"`
	CRF    int    `toml:"crf"`
	Preset string `toml:"preset"`
	// TransitionSeconds is the crossfade duration inserted between slide segments.
	TransitionSeconds float64 `toml:"transition_seconds"`
	// DurationToleranceSeconds is the allowed deviation between the assembled
	// output and the source video before a mismatch warning is raised.
	DurationToleranceSeconds float64 `toml:"duration_tolerance_seconds"`
}

// FFmpeg contains configuration for the external transcoding engine.
type FFmpeg struct {
	Binary         string `toml:"binary"`
	ProbeBinary    string `toml:"probe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains configuration for queue processing intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for slidesync.
//
// Configuration sections by subsystem:
//   - Paths: working, output, and log directories
//   - Detection: frame sampling and SSIM classification
//   - Audio: duration reconciliation and track mixing
//   - Video: rendered segment geometry, codec, and transitions
//   - FFmpeg: external transcoder binaries and timeout
//   - Workflow: queue polling intervals
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Detection Detection `toml:"detection"`
	Audio     Audio     `toml:"audio"`
	Video     Video     `toml:"video"`
	FFmpeg    FFmpeg    `toml:"ffmpeg"`
	Workflow  Workflow  `toml:"workflow"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/slidesync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("slidesync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for processing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.FFmpeg.Binary) != "" {
		return c.FFmpeg.Binary
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.FFmpeg.ProbeBinary) != "" {
		return c.FFmpeg.ProbeBinary
	}
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
