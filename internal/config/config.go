package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// FFmpeg contains external tool binaries and invocation timeouts (seconds).
type FFmpeg struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	ProbeTimeout   int    `toml:"probe_timeout"`
	ExtractTimeout int    `toml:"extract_timeout"`
	ConvertTimeout int    `toml:"convert_timeout"`
}

// Extraction contains frame extraction settings.
type Extraction struct {
	FrameCount      int     `toml:"frame_count"`
	Policy          string  `toml:"policy"`
	ExclusionMargin float64 `toml:"exclusion_margin_seconds"`
	MinDuration     float64 `toml:"min_duration_seconds"`
	RetryAttempts   int     `toml:"retry_attempts"`
	OutputFormat    string  `toml:"output_format"`
	Workers         int     `toml:"workers"`
}

// Blur contains blur classification settings.
type Blur struct {
	Enabled         bool    `toml:"enabled"`
	Threshold       float64 `toml:"threshold"`
	DownscaleFactor int     `toml:"downscale_factor"`
	EdgePercent     float64 `toml:"edge_percent"`
}

// Cull contains the quality gates for deleting low-quality videos.
type Cull struct {
	MinWidth    int     `toml:"min_width"`
	MinHeight   int     `toml:"min_height"`
	MinDuration float64 `toml:"min_duration_seconds"`
}

// Convert contains batch re-encode settings.
type Convert struct {
	Width   int    `toml:"width"`
	Codec   string `toml:"codec"`
	HWAccel string `toml:"hwaccel"`
	Workers int    `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for framecull.
type Config struct {
	Paths      Paths      `toml:"paths"`
	FFmpeg     FFmpeg     `toml:"ffmpeg"`
	Extraction Extraction `toml:"extraction"`
	Blur       Blur       `toml:"blur"`
	Cull       Cull       `toml:"cull"`
	Convert    Convert    `toml:"convert"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/framecull/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path, and whether a file existed there.
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

	projectPath, err := filepath.Abs("framecull.toml")
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

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		expanded, err := expandPath(c.Paths.LogDir)
		if err != nil {
			return err
		}
		c.Paths.LogDir = expanded
	}
	c.FFmpeg.FFmpegBinary = strings.TrimSpace(c.FFmpeg.FFmpegBinary)
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	c.Extraction.Policy = strings.ToLower(strings.TrimSpace(c.Extraction.Policy))
	c.Extraction.OutputFormat = strings.ToLower(strings.TrimSpace(c.Extraction.OutputFormat))
	c.Convert.Codec = strings.TrimSpace(c.Convert.Codec)
	c.Convert.HWAccel = strings.TrimSpace(c.Convert.HWAccel)
	return nil
}

// EnsureDirectories creates directories the tools write into.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if c.FFmpeg.FFmpegBinary != "" {
		return c.FFmpeg.FFmpegBinary
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name.
func (c *Config) FFprobeBinary() string {
	if c.FFmpeg.FFprobeBinary != "" {
		return c.FFmpeg.FFprobeBinary
	}
	return "ffprobe"
}

// ProbeTimeout returns the bound on a single ffprobe invocation.
func (c *Config) ProbeTimeout() time.Duration {
	return secondsOrDefault(c.FFmpeg.ProbeTimeout, defaultProbeTimeout)
}

// ExtractTimeout returns the bound on a single frame extraction.
func (c *Config) ExtractTimeout() time.Duration {
	return secondsOrDefault(c.FFmpeg.ExtractTimeout, defaultExtractTimeout)
}

// ConvertTimeout returns the bound on a single re-encode.
func (c *Config) ConvertTimeout() time.Duration {
	return secondsOrDefault(c.FFmpeg.ConvertTimeout, defaultConvertTimeout)
}

func secondsOrDefault(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
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
