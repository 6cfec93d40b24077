// Package cull deletes videos that fail the resolution or duration gates.
package cull

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"framecull/internal/batch"
	"framecull/internal/config"
	"framecull/internal/fileutil"
	"framecull/internal/media/ffprobe"
)

// Prober inspects a media file and returns its stream metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Decision records the verdict for one video.
type Decision struct {
	Source string
	Delete bool
	Reason string
	Err    error
}

// Summary aggregates a cull run.
type Summary struct {
	Videos    int
	Deleted   int
	Kept      int
	Failed    int
	Decisions []Decision
}

// Options controls a single cull run.
type Options struct {
	InputDir  string
	Recursive bool
	Limit     int
	DryRun    bool
	// OnVideo, when set, is invoked after each video is decided.
	OnVideo func(Decision)
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

// Service evaluates videos against the configured quality gates.
type Service struct {
	cfg    *config.Config
	logger *slog.Logger
	prober Prober
}

// NewService constructs a Service backed by the configured prober binary.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		cfg:    cfg,
		logger: logger.With("component", "cull"),
		prober: toolProber{binary: cfg.FFprobeBinary(), timeout: cfg.ProbeTimeout()},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Run probes every video under opts.InputDir and deletes the ones that fail
// a gate. A video the prober cannot read counts as corrupt and is deleted.
func (s *Service) Run(ctx context.Context, opts Options) (Summary, error) {
	videos, err := fileutil.ScanVideos(opts.InputDir, opts.Recursive)
	if err != nil {
		return Summary{}, batch.Wrap(batch.ErrSetup, "cull", "scan", opts.InputDir, err)
	}
	if opts.Limit > 0 && len(videos) > opts.Limit {
		videos = videos[:opts.Limit]
	}

	summary := Summary{Videos: len(videos)}
	var mu sync.Mutex

	batch.ForEach(ctx, batch.Workers(0), videos, func(ctx context.Context, video string) {
		decision := s.decide(ctx, video)

		if decision.Delete && !opts.DryRun && decision.Err == nil {
			if err := os.Remove(video); err != nil {
				decision.Err = fmt.Errorf("delete %s: %w", video, err)
			}
		}

		switch {
		case decision.Err != nil:
			s.logger.Warn("cull decision failed", "video", video, "error", decision.Err)
		case decision.Delete && opts.DryRun:
			s.logger.Info("would delete", "video", video, "reason", decision.Reason)
		case decision.Delete:
			s.logger.Info("deleted", "video", video, "reason", decision.Reason)
		default:
			s.logger.Debug("kept", "video", video)
		}

		mu.Lock()
		summary.Decisions = append(summary.Decisions, decision)
		switch {
		case decision.Err != nil:
			summary.Failed++
		case decision.Delete:
			summary.Deleted++
		default:
			summary.Kept++
		}
		callback := opts.OnVideo
		mu.Unlock()

		if callback != nil {
			callback(decision)
		}
	})

	return summary, nil
}

func (s *Service) decide(ctx context.Context, video string) Decision {
	decision := Decision{Source: video}

	info, err := s.prober.Probe(ctx, video)
	if err != nil {
		decision.Delete = true
		decision.Reason = fmt.Sprintf("unreadable: %v", err)
		return decision
	}

	gates := s.cfg.Cull
	if info.Width < gates.MinWidth && info.Height < gates.MinHeight {
		decision.Delete = true
		decision.Reason = fmt.Sprintf("resolution %dx%d below %dx%d", info.Width, info.Height, gates.MinWidth, gates.MinHeight)
		return decision
	}
	if info.Duration < gates.MinDuration {
		decision.Delete = true
		decision.Reason = fmt.Sprintf("duration %.1fs below %.1fs", info.Duration, gates.MinDuration)
	}
	return decision
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
