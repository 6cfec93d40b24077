package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	NBFrames     string `json:"nb_frames"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Info is the distilled video metadata the curation tools act on. Every
// field was present in the probe output; absent fields fail VideoInfo.
type Info struct {
	Path       string
	Codec      string
	Width      int
	Height     int
	Duration   float64
	FrameRate  float64
	FrameCount int64
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStream returns the first video stream, if any.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, preferring the
// container value and falling back to the video stream. NaN when neither is
// usable.
func (r Result) DurationSeconds() float64 {
	duration := parseFloat(r.Format.Duration)
	if !math.IsNaN(duration) && duration > 0 {
		return duration
	}
	if stream, ok := r.VideoStream(); ok {
		return parseFloat(stream.Duration)
	}
	return math.NaN()
}

// VideoInfo distills the metadata the tools gate on. A missing video stream,
// unusable duration, or missing dimensions is an error per the probe
// contract; optional fields (frame count, frame rate) default to zero.
func (r Result) VideoInfo(path string) (Info, error) {
	stream, ok := r.VideoStream()
	if !ok {
		return Info{}, fmt.Errorf("probe %s: no video stream", path)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return Info{}, fmt.Errorf("probe %s: missing video dimensions", path)
	}
	duration := r.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return Info{}, fmt.Errorf("probe %s: missing duration", path)
	}

	info := Info{
		Path:      path,
		Codec:     stream.CodecName,
		Width:     stream.Width,
		Height:    stream.Height,
		Duration:  duration,
		FrameRate: parseRational(stream.AvgFrameRate),
	}
	if frames, err := strconv.ParseInt(strings.TrimSpace(stream.NBFrames), 10, 64); err == nil && frames > 0 {
		info.FrameCount = frames
	}
	return info, nil
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return math.NaN()
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

// parseRational parses ffprobe rate strings such as "30000/1001" or "25".
// Returns 0 when the value is absent or degenerate ("0/0").
func parseRational(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if num, den, found := strings.Cut(cleaned, "/"); found {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return 0
}
