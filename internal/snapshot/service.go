package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"framecull/internal/batch"
	"framecull/internal/blur"
	"framecull/internal/config"
	"framecull/internal/fileutil"
	"framecull/internal/media/ffmpeg"
	"framecull/internal/media/ffprobe"
	"framecull/internal/retry"
	"framecull/internal/sampler"
)

// Prober inspects a media file and returns its stream metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// FrameExtractor decodes a single frame of source at timestamp into dest.
// On success the file at dest is guaranteed to exist.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, source string, timestamp float64, dest string) error
}

// FrameClassifier scores an image file for sharpness.
type FrameClassifier interface {
	ClassifyFile(path string, threshold float64) (blur.Result, error)
}

// Options controls a single extraction batch.
type Options struct {
	InputDir  string
	OutputDir string
	Count     int
	Policy    sampler.Policy
	Limit     int
	Recursive bool
	// PerVideoDirs writes each video's frames into its own subdirectory of
	// OutputDir, named after the video stem.
	PerVideoDirs bool
	DryRun       bool
	// Seed fixes the sampling randomness when non-zero.
	Seed uint64
	// OnVideo, when set, is invoked after each video finishes processing.
	OnVideo func(VideoOutcome)
}

// VideoOutcome records what happened to one input video.
type VideoOutcome struct {
	Source     string
	Accepted   int
	Rejected   int
	Abandoned  int
	Skipped    bool
	SkipReason string
	Err        error
}

// Summary aggregates a batch run.
type Summary struct {
	Videos    int
	Processed int
	Skipped   int
	Failed    int
	Accepted  int
	Abandoned int
	Outcomes  []VideoOutcome
}

// Option configures the service.
type Option func(*Service)

// WithProber injects a custom prober (primarily for tests).
func WithProber(p Prober) Option {
	return func(s *Service) {
		if p != nil {
			s.prober = p
		}
	}
}

// WithExtractor injects a custom frame extractor.
func WithExtractor(e FrameExtractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithClassifier injects a custom blur classifier.
func WithClassifier(c FrameClassifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// Service runs frame extraction batches.
type Service struct {
	cfg        *config.Config
	logger     *slog.Logger
	prober     Prober
	extractor  FrameExtractor
	classifier FrameClassifier
}

// NewService constructs a Service backed by the configured external tools.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		cfg:    cfg,
		logger: logger.With("component", "snapshot"),
		prober: toolProber{
			binary:  cfg.FFprobeBinary(),
			timeout: cfg.ProbeTimeout(),
		},
		extractor: toolExtractor{
			binary:  cfg.FFmpegBinary(),
			timeout: cfg.ExtractTimeout(),
		},
		classifier: blur.New(blur.Config{
			DownscaleFactor: cfg.Blur.DownscaleFactor,
			EdgePercent:     cfg.Blur.EdgePercent,
		}),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Run extracts frames for every video under opts.InputDir. Per-video
// failures are recorded in the summary; only setup problems return an error.
func (s *Service) Run(ctx context.Context, opts Options) (Summary, error) {
	videos, err := fileutil.ScanVideos(opts.InputDir, opts.Recursive)
	if err != nil {
		return Summary{}, batch.Wrap(batch.ErrSetup, "snapshot", "scan", opts.InputDir, err)
	}
	if opts.Limit > 0 && len(videos) > opts.Limit {
		videos = videos[:opts.Limit]
	}
	if !opts.DryRun {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return Summary{}, batch.Wrap(batch.ErrSetup, "snapshot", "prepare output", opts.OutputDir, err)
		}
	}

	count := opts.Count
	if count <= 0 {
		count = s.cfg.Extraction.FrameCount
	}

	summary := Summary{Videos: len(videos)}
	var mu sync.Mutex

	workers := batch.Workers(s.cfg.Extraction.Workers)
	batch.ForEach(ctx, workers, indexed(videos), func(ctx context.Context, item indexedVideo) {
		outcome := s.processVideo(ctx, item.path, opts, count, item.index)

		mu.Lock()
		summary.Outcomes = append(summary.Outcomes, outcome)
		switch {
		case outcome.Err != nil:
			summary.Failed++
		case outcome.Skipped:
			summary.Skipped++
		default:
			summary.Processed++
		}
		summary.Accepted += outcome.Accepted
		summary.Abandoned += outcome.Abandoned
		callback := opts.OnVideo
		mu.Unlock()

		if callback != nil {
			callback(outcome)
		}
	})

	return summary, nil
}

type indexedVideo struct {
	index int
	path  string
}

func indexed(paths []string) []indexedVideo {
	items := make([]indexedVideo, len(paths))
	for i, path := range paths {
		items[i] = indexedVideo{index: i, path: path}
	}
	return items
}

func (s *Service) processVideo(ctx context.Context, video string, opts Options, count, index int) VideoOutcome {
	outcome := VideoOutcome{Source: video}

	info, err := s.prober.Probe(ctx, video)
	if err != nil {
		outcome.Err = batch.Wrap(batch.ErrProbe, "snapshot", "probe", video, err)
		s.logger.Warn("probe failed", "video", video, "error", err)
		return outcome
	}

	if info.Duration < s.cfg.Extraction.MinDuration {
		outcome.Skipped = true
		outcome.SkipReason = fmt.Sprintf("duration %.1fs below minimum %.1fs", info.Duration, s.cfg.Extraction.MinDuration)
		s.logger.Info("skipping short video", "video", video, "duration", info.Duration)
		return outcome
	}

	req := sampler.Request{
		Duration:        info.Duration,
		Count:           count,
		Policy:          opts.Policy,
		ExclusionMargin: s.cfg.Extraction.ExclusionMargin,
	}
	timestamps, err := sampler.Sample(req, s.rng(opts.Seed, index))
	if err != nil {
		outcome.Err = batch.Wrap(batch.ErrValidation, "snapshot", "sample", video, err)
		s.logger.Warn("sampling failed", "video", video, "error", err)
		return outcome
	}

	if opts.DryRun {
		s.logger.Info("dry run", "video", video, "timestamps", len(timestamps))
		outcome.Skipped = true
		outcome.SkipReason = "dry run"
		return outcome
	}

	destDir := opts.OutputDir
	if opts.PerVideoDirs {
		destDir = filepath.Join(opts.OutputDir, fileutil.Stem(video))
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			outcome.Err = batch.Wrap(batch.ErrSetup, "snapshot", "prepare output", destDir, err)
			return outcome
		}
	}

	for i, timestamp := range timestamps {
		final := filepath.Join(destDir, fileutil.FrameName(video, i+1, s.cfg.Extraction.OutputFormat))
		if err := s.extractFrame(ctx, video, timestamp, final); err != nil {
			outcome.Abandoned++
			s.logger.Warn("frame abandoned", "video", video, "timestamp", timestamp, "error", err)
			continue
		}
		outcome.Accepted++
		s.logger.Debug("frame accepted", "video", video, "timestamp", timestamp, "path", final)
	}
	outcome.Rejected = len(timestamps) - outcome.Accepted - outcome.Abandoned

	s.logger.Info("video done",
		"video", video,
		"accepted", outcome.Accepted,
		"abandoned", outcome.Abandoned)
	return outcome
}

// extractFrame decodes and classifies one timestamp, retrying at the same
// timestamp up to the configured bound. Decode failures and blur rejections
// both count against the bound.
func (s *Service) extractFrame(ctx context.Context, video string, timestamp float64, final string) error {
	format := filepath.Ext(final)
	return retry.Do(ctx, s.cfg.Extraction.RetryAttempts, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.logger.Debug("retrying frame", "video", video, "timestamp", timestamp, "attempt", attempt)
		}

		work := filepath.Join(filepath.Dir(final), "."+uuid.NewString()+format)
		if err := s.extractor.ExtractFrame(ctx, video, timestamp, work); err != nil {
			_ = os.Remove(work)
			return batch.Wrap(batch.ErrDecode, "snapshot", "extract", fmt.Sprintf("%s@%.3fs", video, timestamp), err)
		}

		if !s.cfg.Blur.Enabled {
			return os.Rename(work, final)
		}

		result, err := s.classifier.ClassifyFile(work, s.cfg.Blur.Threshold)
		if err != nil {
			_ = os.Remove(work)
			return batch.Wrap(batch.ErrClassification, "snapshot", "classify", work, err)
		}
		if result.Blurry {
			_ = os.Remove(work)
			return fmt.Errorf("frame rejected: score %.2f below threshold %.2f", result.Score, s.cfg.Blur.Threshold)
		}
		return os.Rename(work, final)
	})
}

// rng derives a reproducible per-video source from a fixed seed, or returns
// nil so the sampler seeds itself.
func (s *Service) rng(seed uint64, index int) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, uint64(index)))
}

type toolProber struct {
	binary  string
	timeout time.Duration
}

func (p toolProber) Probe(ctx context.Context, path string) (ffprobe.Info, error) {
	probeCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	result, err := ffprobe.Inspect(probeCtx, p.binary, path)
	if err != nil {
		return ffprobe.Info{}, err
	}
	return result.VideoInfo(path)
}

type toolExtractor struct {
	binary  string
	timeout time.Duration
}

func (e toolExtractor) ExtractFrame(ctx context.Context, source string, timestamp float64, dest string) error {
	extractCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	err := ffmpeg.ExtractFrame(extractCtx, e.binary, source, timestamp, dest)
	if errors.Is(extractCtx.Err(), context.DeadlineExceeded) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("extraction timed out after %s: %w", e.timeout, err)
	}
	return err
}
