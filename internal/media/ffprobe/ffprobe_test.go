package ffprobe

import (
	"math"
	"testing"
)

func TestVideoInfo(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", CodecName: "opus"},
			{CodecType: "video", CodecName: "av1", Width: 1920, Height: 1080, NBFrames: "9000", AvgFrameRate: "30000/1001"},
		},
		Format: Format{Duration: "300.25"},
	}

	info, err := result.VideoInfo("/videos/clip.mp4")
	if err != nil {
		t.Fatalf("video info: %v", err)
	}
	if info.Codec != "av1" {
		t.Fatalf("unexpected codec %q", info.Codec)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Fatalf("unexpected dimensions %dx%d", info.Width, info.Height)
	}
	if info.Duration != 300.25 {
		t.Fatalf("unexpected duration %v", info.Duration)
	}
	if info.FrameCount != 9000 {
		t.Fatalf("unexpected frame count %d", info.FrameCount)
	}
	if math.Abs(info.FrameRate-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate %v", info.FrameRate)
	}
}

func TestVideoInfoRequiresFields(t *testing.T) {
	noVideo := Result{Streams: []Stream{{CodecType: "audio"}}, Format: Format{Duration: "10"}}
	if _, err := noVideo.VideoInfo("a.mp4"); err == nil {
		t.Fatalf("expected error for missing video stream")
	}

	noDims := Result{Streams: []Stream{{CodecType: "video"}}, Format: Format{Duration: "10"}}
	if _, err := noDims.VideoInfo("a.mp4"); err == nil {
		t.Fatalf("expected error for missing dimensions")
	}

	noDuration := Result{Streams: []Stream{{CodecType: "video", Width: 640, Height: 480}}}
	if _, err := noDuration.VideoInfo("a.mp4"); err == nil {
		t.Fatalf("expected error for missing duration")
	}
}

func TestDurationFallsBackToStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Width: 640, Height: 480, Duration: "42.5"}},
	}
	if got := result.DurationSeconds(); got != 42.5 {
		t.Fatalf("expected stream duration fallback, got %v", got)
	}
}

func TestParseRational(t *testing.T) {
	cases := map[string]float64{
		"30000/1001": 29.97002997002997,
		"25":         25,
		"0/0":        0,
		"":           0,
		"bogus":      0,
	}
	for input, want := range cases {
		if got := parseRational(input); math.Abs(got-want) > 1e-9 {
			t.Fatalf("parseRational(%q): expected %v, got %v", input, want, got)
		}
	}
}
