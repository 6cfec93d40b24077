package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"framecull/internal/batch"
	"framecull/internal/blur"
	"framecull/internal/media/ffprobe"
	"framecull/internal/sampler"
	"framecull/internal/testsupport"
)

type proberFunc func(ctx context.Context, path string) (ffprobe.Info, error)

func (f proberFunc) Probe(ctx context.Context, path string) (ffprobe.Info, error) {
	return f(ctx, path)
}

type extractorFunc func(ctx context.Context, source string, timestamp float64, dest string) error

func (f extractorFunc) ExtractFrame(ctx context.Context, source string, timestamp float64, dest string) error {
	return f(ctx, source, timestamp, dest)
}

type classifierFunc func(path string, threshold float64) (blur.Result, error)

func (f classifierFunc) ClassifyFile(path string, threshold float64) (blur.Result, error) {
	return f(path, threshold)
}

func fixedProber(duration float64) proberFunc {
	return func(_ context.Context, path string) (ffprobe.Info, error) {
		return ffprobe.Info{Path: path, Codec: "av1", Width: 1920, Height: 1080, Duration: duration}, nil
	}
}

func writeExtractor() extractorFunc {
	return func(_ context.Context, _ string, _ float64, dest string) error {
		return os.WriteFile(dest, []byte("frame"), 0o644)
	}
}

func sharpClassifier() classifierFunc {
	return func(string, float64) (blur.Result, error) {
		return blur.Result{Score: 500, Blurry: false}, nil
	}
}

func seedVideos(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunAcceptsSharpFrames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	seedVideos(t, inputDir, "alpha.mp4", "beta.mkv")

	svc := NewService(cfg, nil,
		WithProber(fixedProber(300)),
		WithExtractor(writeExtractor()),
		WithClassifier(sharpClassifier()))

	summary, err := svc.Run(context.Background(), Options{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Count:     2,
		Policy:    sampler.PolicyEven,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Accepted != 4 {
		t.Fatalf("expected 4 accepted frames, got %d", summary.Accepted)
	}
	for _, name := range []string{"alpha_frame_001.png", "alpha_frame_002.png", "beta_frame_001.png", "beta_frame_002.png"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("missing frame %s: %v", name, err)
		}
	}
}

func TestRunPerVideoDirs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	seedVideos(t, inputDir, "alpha.mp4", "beta.mp4")

	svc := NewService(cfg, nil,
		WithProber(fixedProber(300)),
		WithExtractor(writeExtractor()),
		WithClassifier(sharpClassifier()))

	summary, err := svc.Run(context.Background(), Options{
		InputDir:     inputDir,
		OutputDir:    outputDir,
		Count:        1,
		Policy:       sampler.PolicyEven,
		PerVideoDirs: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Accepted != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, name := range []string{"alpha/alpha_frame_001.png", "beta/beta_frame_001.png"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("missing frame %s: %v", name, err)
		}
	}
}

func TestRunRetriesDecodeFailuresToBound(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetryAttempts(3))
	inputDir := t.TempDir()
	seedVideos(t, inputDir, "broken.mp4")

	var attempts atomic.Int64
	failing := extractorFunc(func(context.Context, string, float64, string) error {
		attempts.Add(1)
		return errors.New("exit status 1")
	})

	svc := NewService(cfg, nil,
		WithProber(fixedProber(300)),
		WithExtractor(failing),
		WithClassifier(sharpClassifier()))

	summary, err := svc.Run(context.Background(), Options{
		InputDir:  inputDir,
		OutputDir: t.TempDir(),
		Count:     1,
		Policy:    sampler.PolicyEven,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected exactly 3 extraction attempts, got %d", got)
	}
	if summary.Abandoned != 1 || summary.Accepted != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Failed != 0 {
		t.Fatalf("decode failures must not fail the batch: %+v", summary)
	}
}

func TestRunRejectsBlurryFrames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	seedVideos(t, inputDir, "soft.mp4")

	blurry := classifierFunc(func(string, float64) (blur.Result, error) {
		return blur.Result{Score: 1.5, Blurry: true}, nil
	})

	svc := NewService(cfg, nil,
		WithProber(fixedProber(300)),
		WithExtractor(writeExtractor()),
		WithClassifier(blurry))

	summary, err := svc.Run(context.Background(), Options{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Count:     2,
		Policy:    sampler.PolicyEven,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Accepted != 0 || summary.Abandoned != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected rejected work files to be removed, found %v", entries)
	}
}

func TestRunSkipsBlurGateWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBlurDisabled())
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	seedVideos(t, inputDir, "clip.mp4")

	classifierCalled := false
	svc := NewService(cfg, nil,
		WithProber(fixedProber(300)),
		WithExtractor(writeExtractor()),
		WithClassifier(classifierFunc(func(string, float64) (blur.Result, error) {
			classifierCalled = true
			return blur.Result{}, nil
		})))

	summary, err := svc.Run(context.Background(), Options{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Count:     1,
		Policy:    sampler.PolicyEven,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Accepted != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if classifierCalled {
		t.Fatal("classifier must not run when the blur gate is disabled")
	}
}

func TestRunSkipsShortVideos(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMinDuration(120))
	inputDir := t.TempDir()
	seedVideos(t, inputDir, "short.mp4")

	svc := NewService(cfg, nil,
		WithProber(fixedProber(30)),
		WithExtractor(writeExtractor()),
		WithClassifier(sharpClassifier()))

	summary, err := svc.Run(context.Background(), Options{
		InputDir:  inputDir,
		OutputDir: t.TempDir(),
		Count:     2,
		Policy:    sampler.PolicyEven,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Skipped != 1 || summary.Processed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Outcomes[0].SkipReason == "" {
		t.Fatal("expected a skip reason")
	}
}

func TestRunContinuesPastProbeFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	seedVideos(t, inputDir, "bad.mp4", "good.mp4")

	prober := proberFunc(func(_ context.Context, path string) (ffprobe.Info, error) {
		if filepath.Base(path) == "bad.mp4" {
			return ffprobe.Info{}, fmt.Errorf("no video stream")
		}
		return ffprobe.Info{Path: path, Duration: 300}, nil
	})

	svc := NewService(cfg, nil,
		WithProber(prober),
		WithExtractor(writeExtractor()),
		WithClassifier(sharpClassifier()))

	summary, err := svc.Run(context.Background(), Options{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Count:     1,
		Policy:    sampler.PolicyEven,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Failed != 1 || summary.Processed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	var probeErr error
	for _, outcome := range summary.Outcomes {
		if outcome.Err != nil {
			probeErr = outcome.Err
		}
	}
	if !errors.Is(probeErr, batch.ErrProbe) {
		t.Fatalf("expected probe error marker, got %v", probeErr)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	seedVideos(t, inputDir, "clip.mp4")

	svc := NewService(cfg, nil,
		WithProber(fixedProber(300)),
		WithExtractor(extractorFunc(func(context.Context, string, float64, string) error {
			t.Error("extractor must not run during a dry run")
			return nil
		})),
		WithClassifier(sharpClassifier()))

	summary, err := svc.Run(context.Background(), Options{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Count:     2,
		Policy:    sampler.PolicyEven,
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(outputDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run must not create the output directory: %v", err)
	}
}

func TestRunHonorsLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inputDir := t.TempDir()
	seedVideos(t, inputDir, "a.mp4", "b.mp4", "c.mp4")

	var probed atomic.Int64
	svc := NewService(cfg, nil,
		WithProber(proberFunc(func(_ context.Context, path string) (ffprobe.Info, error) {
			probed.Add(1)
			return ffprobe.Info{Path: path, Duration: 300}, nil
		})),
		WithExtractor(writeExtractor()),
		WithClassifier(sharpClassifier()))

	summary, err := svc.Run(context.Background(), Options{
		InputDir:  inputDir,
		OutputDir: t.TempDir(),
		Count:     1,
		Policy:    sampler.PolicyEven,
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Videos != 2 || probed.Load() != 2 {
		t.Fatalf("expected limit of 2 videos, got %+v (probed %d)", summary, probed.Load())
	}
}
