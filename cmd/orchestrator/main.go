// Command orchestrator runs the B→C→Gate→D→G→E→F pipeline for one
// book, writing a run manifest and applying the halt/skip policy
// spec.md §5–§6 describe.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ormasoftchile/methopipe/internal/dotenv"
	"github.com/ormasoftchile/methopipe/pkg/orchestrator"
	"github.com/ormasoftchile/methopipe/pkg/providers"
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
	Use:   "orchestrator",
	Short: "Run the methodology pipeline for one book",
	RunE:  runPipeline,
}

var (
	bookID              string
	sourcePath          string
	runID               string
	stepsFlag           string
	noRequireGatePass   bool
	useExternalReasoner bool
	skipQAForE          bool
	gReconcile          bool
	gDryRun             bool
	workDir             string
	dataDir             string
	qaDir               string
	binDir              string
)

func init() {
	rootCmd.Flags().StringVar(&bookID, "book-id", "", "book identifier, e.g. accounting-basics")
	rootCmd.Flags().StringVar(&sourcePath, "source-path", "", "repo-relative path to the book's source material (defaults to sources/<book_id>)")
	rootCmd.Flags().StringVar(&runID, "run-id", "", "run identifier (defaults to kb_<unix timestamp>)")
	rootCmd.Flags().StringVar(&stepsFlag, "steps", "B,C,D,Gate,G,E,F", "comma-separated steps to run")
	rootCmd.Flags().BoolVar(&noRequireGatePass, "no-require-gate-pass", false, "continue past G/E even when the Gate fails")
	rootCmd.Flags().BoolVar(&useExternalReasoner, "use-external-reasoner", false, "use the configured external reasoning client for QA Layer 2")
	rootCmd.Flags().BoolVar(&skipQAForE, "skip-qa", false, "allow step E to publish without QA approval")
	rootCmd.Flags().BoolVar(&gReconcile, "g-reconcile", false, "pass --reconcile to step G")
	rootCmd.Flags().BoolVar(&gDryRun, "g-dry-run", false, "pass --dry-run to step G")
	rootCmd.Flags().StringVar(&workDir, "work-dir", "work", "root work directory")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "data", "root data directory")
	rootCmd.Flags().StringVar(&qaDir, "qa-dir", "qa", "root qa directory (manifests and run artifacts)")
	rootCmd.Flags().StringVar(&binDir, "bin-dir", "", "directory holding the qualitygate/glossarysync/publisher/releasesummary binaries (defaults to $PATH)")
	_ = rootCmd.MarkFlagRequired("book-id")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if sourcePath == "" {
		sourcePath = filepath.Join("sources", bookID)
	}
	if runID == "" {
		runID = fmt.Sprintf("kb_%d", time.Now().Unix())
	}

	var steps []string
	for _, s := range strings.Split(stepsFlag, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !orchestrator.IsValidStep(s) {
			return fmt.Errorf("invalid step %q", s)
		}
		steps = append(steps, s)
	}

	cfg := orchestrator.Config{
		BookID:              bookID,
		SourcePath:          sourcePath,
		RunID:               runID,
		Steps:               steps,
		RequireGatePass:     !noRequireGatePass,
		UseExternalReasoner: useExternalReasoner,
		SkipQAForE:          skipQAForE,
		GReconcile:          gReconcile,
		GDryRun:             gDryRun,
		WorkDir:             workDir,
		DataDir:             dataDir,
		QADir:               qaDir,
		BinDir:              binDir,
	}

	runner := &orchestrator.SubprocessRunner{Executor: &providers.RealExecutor{}, BinDir: binDir}

	code, err := orchestrator.Run(context.Background(), cfg, runner, nil)
	if err != nil {
		return err
	}
	os.Exit(code)
	return nil
}
