package captions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"framecull/internal/batch"
)

var (
	sanitizePattern = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// SplitFields splits a caption line on commas, honoring double quotes so a
// quoted field may contain commas. Quotes themselves are dropped.
func SplitFields(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

func sanitizeField(field string) string {
	cleaned := sanitizePattern.ReplaceAllString(field, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(cleaned, " "))
}

func deletePhrases(field string, phrases []string) string {
	for _, phrase := range phrases {
		field = strings.ReplaceAll(field, phrase, "")
	}
	return strings.TrimSpace(spacePattern.ReplaceAllString(field, " "))
}

// breakOutPhrases splits a field around each phrase, emitting the phrase as
// its own field and keeping the surrounding text.
func breakOutPhrases(field string, phrases []string) []string {
	result := []string{field}
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		var next []string
		for _, item := range result {
			parts := strings.Split(item, phrase)
			for i, part := range parts {
				if trimmed := strings.TrimSpace(part); trimmed != "" {
					next = append(next, trimmed)
				}
				if i < len(parts)-1 {
					next = append(next, strings.TrimSpace(phrase))
				}
			}
		}
		result = next
	}
	var cleaned []string
	for _, item := range result {
		if item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return cleaned
}

// CleanLine normalizes one caption line: split fields, strip special
// characters, delete phrases, break out phrases, then drop case-insensitive
// duplicates while preserving first-seen casing and order.
func CleanLine(line string, breakOut, deletions []string) string {
	folder := cases.Fold()

	var fields []string
	for _, field := range SplitFields(line) {
		cleaned := deletePhrases(sanitizeField(field), deletions)
		fields = append(fields, breakOutPhrases(cleaned, breakOut)...)
	}

	seen := make(map[string]struct{}, len(fields))
	var unique []string
	for _, field := range fields {
		if field == "" {
			continue
		}
		key := folder.String(field)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, field)
	}
	return strings.Join(unique, ", ")
}

// CleanContent applies CleanLine to every line of a caption file body.
func CleanContent(content string, breakOut, deletions []string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	cleaned := make([]string, len(lines))
	for i, line := range lines {
		cleaned[i] = CleanLine(line, breakOut, deletions)
	}
	return strings.Join(cleaned, "\n")
}

// CleanResult records the outcome for one caption file.
type CleanResult struct {
	Path    string
	Changed bool
	Err     error
}

// CleanSummary aggregates a cleaning run.
type CleanSummary struct {
	Files   int
	Changed int
	Failed  int
	Results []CleanResult
}

// CleanOptions controls a directory cleaning run.
type CleanOptions struct {
	Dir       string
	BreakOut  []string
	Deletions []string
	DryRun    bool
}

// CleanDirectory rewrites every .txt caption file in opts.Dir in place.
// With DryRun set it only reports which files would change.
func CleanDirectory(ctx context.Context, logger *slog.Logger, opts CleanOptions) (CleanSummary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "captions")

	files, err := captionFiles(opts.Dir)
	if err != nil {
		return CleanSummary{}, batch.Wrap(batch.ErrSetup, "captions", "scan", opts.Dir, err)
	}

	summary := CleanSummary{Files: len(files)}
	var mu sync.Mutex

	batch.ForEach(ctx, batch.Workers(0), files, func(_ context.Context, path string) {
		result := CleanResult{Path: path}

		raw, err := os.ReadFile(path)
		if err != nil {
			result.Err = fmt.Errorf("read %s: %w", path, err)
		} else {
			original := strings.TrimSpace(string(raw))
			cleaned := CleanContent(original, opts.BreakOut, opts.Deletions)
			result.Changed = cleaned != original
			if result.Changed && !opts.DryRun {
				if err := os.WriteFile(path, []byte(cleaned), 0o644); err != nil {
					result.Err = fmt.Errorf("write %s: %w", path, err)
				}
			}
		}

		switch {
		case result.Err != nil:
			logger.Warn("clean failed", "file", path, "error", result.Err)
		case result.Changed && opts.DryRun:
			logger.Info("would clean", "file", path)
		case result.Changed:
			logger.Info("cleaned", "file", path)
		}

		mu.Lock()
		summary.Results = append(summary.Results, result)
		if result.Err != nil {
			summary.Failed++
		} else if result.Changed {
			summary.Changed++
		}
		mu.Unlock()
	})

	return summary, nil
}

func captionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}
