package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config to report exists=false")
	}
	if cfg.Extraction.FrameCount != defaultFrameCount {
		t.Fatalf("expected default frame count, got %d", cfg.Extraction.FrameCount)
	}
	if cfg.Extraction.Policy != defaultPolicy {
		t.Fatalf("expected default policy, got %q", cfg.Extraction.Policy)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("expected PATH binaries by default")
	}
	if cfg.ExtractTimeout() != time.Duration(defaultExtractTimeout)*time.Second {
		t.Fatalf("unexpected extract timeout %v", cfg.ExtractTimeout())
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[extraction]
frame_count = 24
policy = "EVEN"
exclusion_margin_seconds = 30.0

[blur]
enabled = false
threshold = 42.5

[ffmpeg]
ffmpeg_binary = "/opt/ffmpeg/bin/ffmpeg"
extract_timeout = 15
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to load, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Extraction.FrameCount != 24 {
		t.Fatalf("unexpected frame count %d", cfg.Extraction.FrameCount)
	}
	if cfg.Extraction.Policy != "even" {
		t.Fatalf("expected policy normalized to lowercase, got %q", cfg.Extraction.Policy)
	}
	if cfg.Blur.Enabled {
		t.Fatalf("expected blur disabled")
	}
	if cfg.Blur.Threshold != 42.5 {
		t.Fatalf("unexpected threshold %v", cfg.Blur.Threshold)
	}
	if cfg.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary %q", cfg.FFmpegBinary())
	}
	if cfg.ExtractTimeout() != 15*time.Second {
		t.Fatalf("unexpected extract timeout %v", cfg.ExtractTimeout())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad policy":    "[extraction]\npolicy = \"sideways\"\n",
		"bad count":     "[extraction]\nframe_count = 0\n",
		"bad format":    "[extraction]\noutput_format = \"gif\"\n",
		"bad edge":      "[blur]\nedge_percent = 1.5\n",
		"bad downscale": "[blur]\ndownscale_factor = 0\n",
		"bad log level": "[logging]\nlevel = \"loud\"\n",
		"empty codec":   "[convert]\ncodec = \"\"\n",
	}
	for name, content := range cases {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("%s: write config: %v", name, err)
		}
		if _, _, _, err := Load(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatalf("expected sample to exist")
	}
	if cfg.Extraction.FrameCount != defaultFrameCount {
		t.Fatalf("sample should carry defaults, got frame count %d", cfg.Extraction.FrameCount)
	}
}

func TestExpandPathResolvesHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := ExpandPath("~/datasets")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !strings.HasPrefix(expanded, home) {
		t.Fatalf("expected %q under home %q", expanded, home)
	}
}
