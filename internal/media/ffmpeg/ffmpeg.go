// Package ffmpeg builds and runs the ffmpeg invocations used by the curation
// tools: single-frame extraction at a seek timestamp and batch re-encoding.
// All invocations are context-bounded so a wedged decode cannot stall a run.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ExtractFrame decodes one frame at the given timestamp (seconds) into dest.
// On success the output file is guaranteed to exist; an exit-zero run that
// produced no file is still an error.
func ExtractFrame(ctx context.Context, binary, source string, timestamp float64, dest string) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if timestamp < 0 {
		return fmt.Errorf("extract frame: negative timestamp %.3f", timestamp)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(timestamp),
		"-i", source,
		"-vframes", "1",
		"-q:v", "2",
		"-filter:v", "scale=iw*sar:ih",
		dest,
	}
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}
	if _, err := os.Stat(dest); err != nil {
		return fmt.Errorf("ffmpeg extract: output %s missing: %w", dest, err)
	}
	return nil
}

// ConvertOptions controls a batch re-encode.
type ConvertOptions struct {
	// Width is the target width; height follows the aspect ratio. Zero keeps
	// the source resolution.
	Width int
	// Codec is the target video codec (e.g. "libsvtav1", "h264_nvenc").
	Codec string
	// HWAccel names a hardware acceleration method passed before the input,
	// e.g. "cuda". Empty disables hardware acceleration.
	HWAccel string
}

// Convert re-encodes source into dest with the given options.
func Convert(ctx context.Context, binary, source, dest string, opts ConvertOptions) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if strings.TrimSpace(opts.Codec) == "" {
		return errors.New("convert: codec is required")
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if opts.HWAccel != "" {
		args = append(args, "-hwaccel", opts.HWAccel)
	}
	args = append(args, "-i", source)
	if opts.Width > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=w=%d:h=-2:force_original_aspect_ratio=decrease", opts.Width))
	}
	args = append(args, "-c:v", opts.Codec, dest)

	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg convert: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
