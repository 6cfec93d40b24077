package captions

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"framecull/internal/batch"
)

// AttributeCount pairs a caption attribute with its occurrence count.
type AttributeCount struct {
	Attribute string
	Count     int
}

// Report holds attribute frequencies across a caption tree.
type Report struct {
	Total  int
	Counts map[string]int
}

// BuildReport walks dir recursively, counting every comma-separated
// attribute across all .txt files. Files are processed in parallel.
func BuildReport(ctx context.Context, dir string, workers int) (Report, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(path), ".txt") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return Report{}, batch.Wrap(batch.ErrSetup, "captions", "scan", dir, err)
	}

	report := Report{Counts: make(map[string]int)}
	var mu sync.Mutex

	batch.ForEach(ctx, batch.Workers(workers), files, func(_ context.Context, path string) {
		attrs, err := readAttributes(path)
		if err != nil {
			return
		}
		mu.Lock()
		for _, attr := range attrs {
			report.Counts[attr]++
			report.Total++
		}
		mu.Unlock()
	})

	return report, nil
}

func readAttributes(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var attrs []string
	for _, attr := range strings.Split(strings.TrimSpace(string(raw)), ",") {
		if trimmed := strings.TrimSpace(attr); trimmed != "" {
			attrs = append(attrs, trimmed)
		}
	}
	return attrs, nil
}

// Sorted returns attributes ordered by descending count, ties broken
// alphabetically.
func (r Report) Sorted() []AttributeCount {
	counts := make([]AttributeCount, 0, len(r.Counts))
	for attr, count := range r.Counts {
		counts = append(counts, AttributeCount{Attribute: attr, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Attribute < counts[j].Attribute
	})
	return counts
}

// Percentage returns the share of total occurrences held by count.
func (r Report) Percentage(count int) float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(count) / float64(r.Total) * 100
}

// Format renders the report as plain text, most popular attribute first.
func (r Report) Format() string {
	var b strings.Builder
	b.WriteString("Attribute Popularity Report\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "Total attributes: %d\n", r.Total)
	fmt.Fprintf(&b, "Unique attributes: %d\n\n", len(r.Counts))
	b.WriteString("Attributes from most popular to least popular:\n")
	for _, entry := range r.Sorted() {
		fmt.Fprintf(&b, "%s: %d (%.2f%%)\n", entry.Attribute, entry.Count, r.Percentage(entry.Count))
	}
	return b.String()
}
