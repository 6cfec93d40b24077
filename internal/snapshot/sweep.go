package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"framecull/internal/batch"
	"framecull/internal/fileutil"
)

// SweepOptions controls a blur sweep over existing snapshot files.
type SweepOptions struct {
	Dir       string
	Recursive bool
	// Delete removes blurry files instead of only reporting them.
	Delete bool
}

// SweepResult records the verdict for one image file.
type SweepResult struct {
	Path    string
	Score   float64
	Blurry  bool
	Deleted bool
	Err     error
}

// SweepSummary aggregates a blur sweep.
type SweepSummary struct {
	Images  int
	Blurry  int
	Deleted int
	Failed  int
	Results []SweepResult
}

// Sweep classifies every image under opts.Dir against the configured blur
// threshold. Unreadable images count as blurry.
func (s *Service) Sweep(ctx context.Context, opts SweepOptions) (SweepSummary, error) {
	images, err := fileutil.ScanImages(opts.Dir, opts.Recursive)
	if err != nil {
		return SweepSummary{}, batch.Wrap(batch.ErrSetup, "snapshot", "scan", opts.Dir, err)
	}

	summary := SweepSummary{Images: len(images)}
	var mu sync.Mutex

	batch.ForEach(ctx, batch.Workers(s.cfg.Extraction.Workers), images, func(_ context.Context, path string) {
		result := s.sweepImage(path, opts.Delete, s.logger)

		mu.Lock()
		summary.Results = append(summary.Results, result)
		if result.Err != nil {
			summary.Failed++
		}
		if result.Blurry {
			summary.Blurry++
		}
		if result.Deleted {
			summary.Deleted++
		}
		mu.Unlock()
	})

	return summary, nil
}

func (s *Service) sweepImage(path string, deleteBlurry bool, logger *slog.Logger) SweepResult {
	result := SweepResult{Path: path}

	verdict, err := s.classifier.ClassifyFile(path, s.cfg.Blur.Threshold)
	result.Score = verdict.Score
	result.Blurry = verdict.Blurry
	if err != nil {
		result.Err = batch.Wrap(batch.ErrClassification, "snapshot", "classify", path, err)
		logger.Warn("classification failed", "image", path, "error", err)
	}

	if result.Blurry && deleteBlurry {
		if err := os.Remove(path); err != nil {
			result.Err = fmt.Errorf("delete %s: %w", path, err)
			logger.Warn("delete failed", "image", path, "error", err)
		} else {
			result.Deleted = true
			logger.Info("deleted blurry image", "image", path, "score", result.Score)
		}
	}

	return result
}
