// Package convert re-encodes videos to the target codec and width in
// parallel.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"framecull/internal/batch"
	"framecull/internal/config"
	"framecull/internal/fileutil"
	"framecull/internal/media/ffmpeg"
	"framecull/internal/media/ffprobe"
)

// Prober inspects a media file and returns its stream metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Encoder re-encodes source into dest.
type Encoder interface {
	Convert(ctx context.Context, source, dest string, opts ffmpeg.ConvertOptions) error
}

// Outcome records the conversion result for one video.
type Outcome struct {
	Source     string
	Dest       string
	Copied     bool
	Skipped    bool
	SkipReason string
	Err        error
}

// Summary aggregates a conversion run.
type Summary struct {
	Videos    int
	Converted int
	Copied    int
	Skipped   int
	Failed    int
	Outcomes  []Outcome
}

// Options controls a single conversion run.
type Options struct {
	InputDir  string
	OutputDir string
	Recursive bool
	Limit     int
	// CopyCompliant copies videos already at the target codec and width into
	// OutputDir instead of skipping them, so the output directory holds the
	// complete set.
	CopyCompliant bool
	DryRun        bool
	// OnVideo, when set, is invoked after each video finishes.
	OnVideo func(Outcome)
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

// WithEncoder injects a custom encoder.
func WithEncoder(e Encoder) Option {
	return func(s *Service) {
		if e != nil {
			s.encoder = e
		}
	}
}

// Service runs batch conversions.
type Service struct {
	cfg     *config.Config
	logger  *slog.Logger
	prober  Prober
	encoder Encoder
}

// NewService constructs a Service backed by the configured external tools.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		cfg:     cfg,
		logger:  logger.With("component", "convert"),
		prober:  toolProber{binary: cfg.FFprobeBinary(), timeout: cfg.ProbeTimeout()},
		encoder: toolEncoder{binary: cfg.FFmpegBinary(), timeout: cfg.ConvertTimeout()},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Run converts every video under opts.InputDir into opts.OutputDir. Videos
// already at the target codec and width are skipped, as are videos whose
// output file already exists.
func (s *Service) Run(ctx context.Context, opts Options) (Summary, error) {
	videos, err := fileutil.ScanVideos(opts.InputDir, opts.Recursive)
	if err != nil {
		return Summary{}, batch.Wrap(batch.ErrSetup, "convert", "scan", opts.InputDir, err)
	}
	if opts.Limit > 0 && len(videos) > opts.Limit {
		videos = videos[:opts.Limit]
	}
	if !opts.DryRun {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return Summary{}, batch.Wrap(batch.ErrSetup, "convert", "prepare output", opts.OutputDir, err)
		}
	}

	summary := Summary{Videos: len(videos)}
	var mu sync.Mutex

	workers := batch.Workers(s.cfg.Convert.Workers)
	batch.ForEach(ctx, workers, videos, func(ctx context.Context, video string) {
		outcome := s.convertVideo(ctx, video, opts)

		mu.Lock()
		summary.Outcomes = append(summary.Outcomes, outcome)
		switch {
		case outcome.Err != nil:
			summary.Failed++
		case outcome.Skipped:
			summary.Skipped++
		case outcome.Copied:
			summary.Copied++
		default:
			summary.Converted++
		}
		callback := opts.OnVideo
		mu.Unlock()

		if callback != nil {
			callback(outcome)
		}
	})

	return summary, nil
}

func (s *Service) convertVideo(ctx context.Context, video string, opts Options) Outcome {
	outcome := Outcome{
		Source: video,
		Dest:   filepath.Join(opts.OutputDir, fileutil.Stem(video)+".mkv"),
	}

	if _, err := os.Stat(outcome.Dest); err == nil {
		outcome.Skipped = true
		outcome.SkipReason = "output already exists"
		s.logger.Debug("skipping converted video", "video", video, "dest", outcome.Dest)
		return outcome
	}

	info, err := s.prober.Probe(ctx, video)
	if err != nil {
		outcome.Err = batch.Wrap(batch.ErrProbe, "convert", "probe", video, err)
		s.logger.Warn("probe failed", "video", video, "error", err)
		return outcome
	}

	target := s.cfg.Convert
	if strings.EqualFold(info.Codec, "av1") && info.Width <= target.Width {
		if !opts.CopyCompliant {
			outcome.Skipped = true
			outcome.SkipReason = fmt.Sprintf("already av1 at %dpx", info.Width)
			s.logger.Debug("skipping compliant video", "video", video)
			return outcome
		}
		outcome.Dest = filepath.Join(opts.OutputDir, filepath.Base(video))
		if opts.DryRun {
			outcome.Skipped = true
			outcome.SkipReason = "dry run"
			s.logger.Info("would copy", "video", video, "dest", outcome.Dest)
			return outcome
		}
		if err := fileutil.CopyFile(video, outcome.Dest); err != nil {
			outcome.Err = fmt.Errorf("copy %s: %w", video, err)
			s.logger.Warn("copy failed", "video", video, "error", err)
			return outcome
		}
		outcome.Copied = true
		s.logger.Info("copied compliant video", "video", video, "dest", outcome.Dest)
		return outcome
	}

	if opts.DryRun {
		outcome.Skipped = true
		outcome.SkipReason = "dry run"
		s.logger.Info("would convert", "video", video, "dest", outcome.Dest)
		return outcome
	}

	encodeOpts := ffmpeg.ConvertOptions{
		Width:   target.Width,
		Codec:   target.Codec,
		HWAccel: target.HWAccel,
	}
	if err := s.encoder.Convert(ctx, video, outcome.Dest, encodeOpts); err != nil {
		_ = os.Remove(outcome.Dest)
		outcome.Err = batch.Wrap(batch.ErrDecode, "convert", "encode", video, err)
		s.logger.Warn("conversion failed", "video", video, "error", err)
		return outcome
	}

	s.logger.Info("converted", "video", video, "dest", outcome.Dest)
	return outcome
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

type toolEncoder struct {
	binary  string
	timeout time.Duration
}

func (e toolEncoder) Convert(ctx context.Context, source, dest string, opts ffmpeg.ConvertOptions) error {
	encodeCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		encodeCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return ffmpeg.Convert(encodeCtx, e.binary, source, dest, opts)
}
