// Command publisher projects a QA-approved compiled methodology into
// the knowledge graph, standalone or as the orchestrator's E step.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/methopipe/internal/dotenv"
	"github.com/ormasoftchile/methopipe/pkg/compiled"
	"github.com/ormasoftchile/methopipe/pkg/publisher"
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
	Use:   "publisher <book_id>",
	Short: "Publish a compiled, QA-approved methodology into the knowledge graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

var (
	dataDir string
	workDir string
	skipQA  bool
)

func init() {
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "data", "root data directory (compiled methodologies and publish output live under here)")
	rootCmd.Flags().StringVar(&workDir, "work-dir", "work", "root work directory (where the per-book QA report lives)")
	rootCmd.Flags().BoolVar(&skipQA, "skip-qa", false, "publish without requiring QA approval")
}

func runPublish(cmd *cobra.Command, args []string) error {
	bookID := args[0]
	ctx := context.Background()

	m, err := compiled.Load(compiled.WritePath(dataDir, bookID))
	if err != nil {
		return fmt.Errorf("load compiled methodology: %w", err)
	}

	store, err := publisher.NewArangoHTTPStoreFromEnv()
	if err != nil {
		return fmt.Errorf("connect to graph store: %w", err)
	}
	defer store.Close()

	report, err := publisher.Publish(ctx, m, publisher.Options{
		Store:      store,
		SkipQA:     skipQA,
		WorkDir:    filepath.Join(workDir, bookID),
		SourcePath: filepath.Join("sources", bookID),
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return publisher.WriteReport(filepath.Join(dataDir, "published"), report)
}
