// Package batch runs the orchestrator across multiple book IDs and
// aggregates their outcomes into one Markdown report, grounded on
// run_batch.py. Each run owns a unique run_id-based working directory,
// so runs MAY execute concurrently (spec §5); Run exposes that as
// an optional concurrency limit rather than a hardcoded choice.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
)

// BookResult is one book's outcome within a batch.
type BookResult struct {
	BookID      string
	Success     bool
	ExitCode    int
	DurationSec float64
	RunID       string

	GateStatus   string
	GateBlockers int
	QAApproved   *bool
	QABlockers   int

	Error string
}

// RunFunc runs one book end to end (typically pkg/orchestrator.Run)
// and returns its result; batch.Run supplies runID and never inspects
// the orchestrator's internals directly.
type RunFunc func(ctx context.Context, bookID, runID string) BookResult

// Options configures one batch run.
type Options struct {
	BatchID     string
	Steps       string
	Concurrency int // 0 or 1 = sequential, matching the reference semantics
}

// Run executes run for every book in bookIDs, honoring opts.Concurrency,
// and returns results in the same order as bookIDs regardless of
// completion order.
func Run(ctx context.Context, bookIDs []string, opts Options, run RunFunc) []BookResult {
	results := make([]BookResult, len(bookIDs))

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, bookID := range bookIDs {
		i, bookID := i, bookID
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			runID := opts.BatchID + "_" + bookID
			results[i] = run(ctx, bookID, runID)
		}()
	}
	wg.Wait()
	return results
}

// DuplicateBookIDs returns the book IDs that appear more than once in
// bookIDs, in first-seen order. Two concurrent orchestrator.Run calls
// for the same book_id would race on that book's run directory,
// manifest, and output files (spec §5: no two runs may target the same
// book_id), so callers must reject a non-empty result before invoking
// Run.
func DuplicateBookIDs(bookIDs []string) []string {
	seen := map[string]bool{}
	var dups []string
	for _, id := range bookIDs {
		if seen[id] {
			if !contains(dups, id) {
				dups = append(dups, id)
			}
			continue
		}
		seen[id] = true
	}
	return dups
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// DiscoverBooks lists sourcesDir's immediate subdirectories that carry
// extracted/blocks.jsonl, mirroring run_batch.py's discover_books.
func DiscoverBooks(sourcesDir string) ([]string, error) {
	entries, err := os.ReadDir(sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var books []string
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		blocks := filepath.Join(sourcesDir, e.Name(), "extracted", "blocks.jsonl")
		if _, err := os.Stat(blocks); err == nil {
			books = append(books, e.Name())
		}
	}
	sort.Strings(books)
	return books, nil
}

// DefaultBatchID builds a timestamp-based batch_id when none is given.
func DefaultBatchID(now time.Time) string {
	return "batch_" + now.UTC().Format("20060102T150405Z")
}

// WriteReport renders the batch Markdown report and writes it to
// <qaDir>/<batch_id>.md.
func WriteReport(qaDir string, batchID, steps string, results []BookResult) error {
	md := RenderMarkdown(batchID, steps, results)
	return atomicfile.Write(filepath.Join(qaDir, batchID+".md"), []byte(md), 0o644)
}
