package captions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"framecull/internal/batch"
)

// PruneOptions controls a caption/image pair pruning run. Exactly one of
// DeleteIfFound or its inverse applies: when DeleteIfFound is true, pairs
// whose caption contains any keyword are deleted; otherwise pairs missing
// every keyword are deleted.
type PruneOptions struct {
	Dir           string
	Keywords      []string
	DeleteIfFound bool
	DryRun        bool
}

// PruneResult records the decision for one caption/image pair.
type PruneResult struct {
	CaptionPath string
	ImagePath   string
	Deleted     bool
	Err         error
}

// PruneSummary aggregates a pruning run.
type PruneSummary struct {
	Pairs    int
	Deleted  int
	Orphaned int
	Failed   int
	Results  []PruneResult
}

// Prune walks the caption files in opts.Dir and deletes matching
// caption/image pairs. Captions with no sibling .png or .jpg image are
// counted as orphaned and left alone.
func Prune(ctx context.Context, logger *slog.Logger, opts PruneOptions) (PruneSummary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "captions")

	if len(opts.Keywords) == 0 {
		return PruneSummary{}, batch.Wrap(batch.ErrValidation, "captions", "prune", opts.Dir, fmt.Errorf("at least one keyword required"))
	}

	files, err := captionFiles(opts.Dir)
	if err != nil {
		return PruneSummary{}, batch.Wrap(batch.ErrSetup, "captions", "scan", opts.Dir, err)
	}

	folder := cases.Fold()
	keywords := make([]string, len(opts.Keywords))
	for i, keyword := range opts.Keywords {
		keywords[i] = folder.String(strings.TrimSpace(keyword))
	}
	// cases.Caser is stateful; workers build their own.

	summary := PruneSummary{}
	var mu sync.Mutex

	batch.ForEach(ctx, batch.Workers(0), files, func(_ context.Context, captionPath string) {
		imagePath, ok := siblingImage(captionPath)
		if !ok {
			mu.Lock()
			summary.Orphaned++
			mu.Unlock()
			logger.Debug("no sibling image", "caption", captionPath)
			return
		}

		result := PruneResult{CaptionPath: captionPath, ImagePath: imagePath}

		found, err := captionContains(captionPath, keywords)
		if err != nil {
			result.Err = err
		} else if found == opts.DeleteIfFound {
			result.Deleted = true
			if !opts.DryRun {
				if err := os.Remove(captionPath); err != nil {
					result.Err = fmt.Errorf("delete caption: %w", err)
				} else if err := os.Remove(imagePath); err != nil {
					result.Err = fmt.Errorf("delete image: %w", err)
				}
			}
		}

		switch {
		case result.Err != nil:
			logger.Warn("prune failed", "caption", captionPath, "error", result.Err)
		case result.Deleted && opts.DryRun:
			logger.Info("would delete pair", "caption", captionPath, "image", imagePath)
		case result.Deleted:
			logger.Info("deleted pair", "caption", captionPath, "image", imagePath)
		}

		mu.Lock()
		summary.Pairs++
		summary.Results = append(summary.Results, result)
		if result.Err != nil {
			summary.Failed++
		} else if result.Deleted {
			summary.Deleted++
		}
		mu.Unlock()
	})

	return summary, nil
}

// siblingImage finds the image belonging to a caption file, preferring .png
// over .jpg.
func siblingImage(captionPath string) (string, bool) {
	base := strings.TrimSuffix(captionPath, filepath.Ext(captionPath))
	for _, ext := range []string{".png", ".jpg"} {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func captionContains(path string, keywords []string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read caption: %w", err)
	}
	folder := cases.Fold()
	words := make(map[string]struct{})
	for _, word := range strings.Split(string(raw), ",") {
		words[folder.String(strings.TrimSpace(word))] = struct{}{}
	}
	for _, keyword := range keywords {
		if _, ok := words[keyword]; ok {
			return true, nil
		}
	}
	return false, nil
}
