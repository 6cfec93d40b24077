package cull

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"framecull/internal/media/ffprobe"
	"framecull/internal/testsupport"
)

type proberFunc func(ctx context.Context, path string) (ffprobe.Info, error)

func (f proberFunc) Probe(ctx context.Context, path string) (ffprobe.Info, error) {
	return f(ctx, path)
}

func tableProber(infos map[string]ffprobe.Info) proberFunc {
	return func(_ context.Context, path string) (ffprobe.Info, error) {
		info, ok := infos[filepath.Base(path)]
		if !ok {
			return ffprobe.Info{}, errors.New("probe failed")
		}
		return info, nil
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

func TestRunDeletesFailingVideos(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	seedVideos(t, dir, "tiny.mp4", "short.mp4", "good.mp4")

	infos := map[string]ffprobe.Info{
		"tiny.mp4":  {Width: 640, Height: 360, Duration: 600},
		"short.mp4": {Width: 1920, Height: 1080, Duration: 12},
		"good.mp4":  {Width: 1920, Height: 1080, Duration: 600},
	}

	svc := NewService(cfg, nil, WithProber(tableProber(infos)))
	summary, err := svc.Run(context.Background(), Options{InputDir: dir})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Deleted != 2 || summary.Kept != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if _, err := os.Stat(filepath.Join(dir, "good.mp4")); err != nil {
		t.Errorf("kept video missing: %v", err)
	}
	for _, name := range []string{"tiny.mp4", "short.mp4"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected %s deleted, stat err: %v", name, err)
		}
	}
}

func TestRunKeepsWhenEitherDimensionPasses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	seedVideos(t, dir, "portrait.mp4")

	// 406x720: width fails but height meets the gate.
	infos := map[string]ffprobe.Info{
		"portrait.mp4": {Width: 406, Height: 720, Duration: 600},
	}

	svc := NewService(cfg, nil, WithProber(tableProber(infos)))
	summary, err := svc.Run(context.Background(), Options{InputDir: dir})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Kept != 1 || summary.Deleted != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunDryRunLeavesFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	seedVideos(t, dir, "tiny.mp4")

	infos := map[string]ffprobe.Info{
		"tiny.mp4": {Width: 320, Height: 240, Duration: 600},
	}

	svc := NewService(cfg, nil, WithProber(tableProber(infos)))
	summary, err := svc.Run(context.Background(), Options{InputDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Deleted != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(dir, "tiny.mp4")); err != nil {
		t.Fatalf("dry run must not delete: %v", err)
	}
}

func TestRunDeletesUnreadableVideos(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	seedVideos(t, dir, "corrupt.mp4")

	svc := NewService(cfg, nil, WithProber(tableProber(nil)))
	summary, err := svc.Run(context.Background(), Options{InputDir: dir})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Deleted != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(dir, "corrupt.mp4")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected corrupt video deleted, stat err: %v", err)
	}
	if summary.Decisions[0].Reason == "" {
		t.Fatal("expected an unreadable reason on the decision")
	}
}

func TestRunDryRunKeepsUnreadableVideos(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	seedVideos(t, dir, "corrupt.mp4")

	svc := NewService(cfg, nil, WithProber(tableProber(nil)))
	summary, err := svc.Run(context.Background(), Options{InputDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Deleted != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(dir, "corrupt.mp4")); err != nil {
		t.Fatalf("dry run must not delete: %v", err)
	}
}
