// Command batch runs the pipeline across many books and writes one
// aggregated Markdown report, grounded on run_batch.py.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ormasoftchile/methopipe/internal/dotenv"
	"github.com/ormasoftchile/methopipe/pkg/batch"
	"github.com/ormasoftchile/methopipe/pkg/orchestrator"
	"github.com/ormasoftchile/methopipe/pkg/providers"
	"github.com/ormasoftchile/methopipe/pkg/runmanifest"
	"github.com/spf13/cobra"
)

func main() {
	dotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the methodology pipeline across many books",
	RunE:  runBatch,
}

var (
	booksFlag         string
	auto              bool
	sourcesDir        string
	stepsFlag         string
	batchID           string
	noRequireGatePass bool
	concurrency       int
	workDir           string
	dataDir           string
	qaDir             string
	binDir            string
)

func init() {
	rootCmd.Flags().StringVar(&booksFlag, "books", "", "comma-separated book IDs")
	rootCmd.Flags().BoolVar(&auto, "auto", false, "discover books under --sources-dir instead of using --books")
	rootCmd.Flags().StringVar(&sourcesDir, "sources-dir", "sources", "root directory of extracted book sources, used with --auto")
	rootCmd.Flags().StringVar(&stepsFlag, "steps", "B,C,D,Gate,G,E,F", "comma-separated steps to run for every book")
	rootCmd.Flags().StringVar(&batchID, "batch-id", "", "batch identifier (defaults to batch_<UTC timestamp>)")
	rootCmd.Flags().BoolVar(&noRequireGatePass, "no-require-gate-pass", false, "continue past G/E even when a book's Gate fails")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 1, "number of books to run concurrently")
	rootCmd.Flags().StringVar(&workDir, "work-dir", "work", "root work directory")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "data", "root data directory")
	rootCmd.Flags().StringVar(&qaDir, "qa-dir", "qa", "root qa directory (manifests, run artifacts, and this batch's report)")
	rootCmd.Flags().StringVar(&binDir, "bin-dir", "", "directory holding the step binaries (defaults to $PATH)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	var bookIDs []string
	switch {
	case auto:
		discovered, err := batch.DiscoverBooks(sourcesDir)
		if err != nil {
			return fmt.Errorf("discover books: %w", err)
		}
		bookIDs = discovered
	case booksFlag != "":
		for _, b := range strings.Split(booksFlag, ",") {
			if b = strings.TrimSpace(b); b != "" {
				bookIDs = append(bookIDs, b)
			}
		}
	default:
		return fmt.Errorf("one of --books or --auto is required")
	}
	if len(bookIDs) == 0 {
		return fmt.Errorf("no books to run")
	}
	if dups := batch.DuplicateBookIDs(bookIDs); len(dups) > 0 {
		return fmt.Errorf("duplicate book_id(s) in this batch: %s", strings.Join(dups, ", "))
	}

	if batchID == "" {
		batchID = batch.DefaultBatchID(time.Now())
	}

	var steps []string
	for _, s := range strings.Split(stepsFlag, ",") {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}

	runner := &orchestrator.SubprocessRunner{Executor: &providers.RealExecutor{}, BinDir: binDir}

	runFunc := func(ctx context.Context, bookID, runID string) batch.BookResult {
		started := time.Now()
		cfg := orchestrator.Config{
			BookID:          bookID,
			SourcePath:      fmt.Sprintf("sources/%s", bookID),
			RunID:           runID,
			Steps:           steps,
			RequireGatePass: !noRequireGatePass,
			WorkDir:         workDir,
			DataDir:         dataDir,
			QADir:           qaDir,
			BinDir:          binDir,
		}

		code, err := orchestrator.Run(ctx, cfg, runner, nil)
		result := batch.BookResult{
			BookID:      bookID,
			RunID:       runID,
			ExitCode:    code,
			Success:     code == orchestrator.ExitSuccess,
			DurationSec: time.Since(started).Seconds(),
		}
		if err != nil {
			result.Error = err.Error()
			return result
		}

		if m, mErr := runmanifest.Load(cfg.RunDir()); mErr == nil {
			result.GateStatus = m.QA.GateStatus
			result.QAApproved = m.QA.Approved
			if m.QA.Blockers != nil {
				result.QABlockers = *m.QA.Blockers
			}
		}
		return result
	}

	results := batch.Run(context.Background(), bookIDs, batch.Options{BatchID: batchID, Steps: stepsFlag, Concurrency: concurrency}, runFunc)
	return batch.WriteReport(qaDir, batchID, stepsFlag, results)
}
