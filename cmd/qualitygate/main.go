// Command qualitygate runs the deterministic Quality Gate against an
// outline document, standalone or as the orchestrator's Gate step.
package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/methopipe/internal/dotenv"
	"github.com/ormasoftchile/methopipe/pkg/outline"
	"github.com/ormasoftchile/methopipe/pkg/qualitygate"
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
	Use:   "qualitygate",
	Short: "Deterministic Quality Gate for methodology outlines",
	RunE:  runGate,
}

var (
	inputPath  string
	reportPath string
)

func init() {
	rootCmd.Flags().StringVar(&inputPath, "input", "", "path to outline_<book_id>.yaml")
	rootCmd.Flags().StringVar(&reportPath, "report", "", "path to write the gate report JSON")
	_ = rootCmd.MarkFlagRequired("input")
	_ = rootCmd.MarkFlagRequired("report")
}

// runGate returns nil on PASS (exit 0) and, once the report is written,
// calls os.Exit(2) on FAIL; any unexpected error surfaces through
// cobra's own exit-1 path in main.
func runGate(cmd *cobra.Command, args []string) error {
	o, err := outline.LoadFile(inputPath)
	if err != nil {
		return fmt.Errorf("load outline: %w", err)
	}

	result := qualitygate.Run(o)
	if err := qualitygate.WriteReport(reportPath, result); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if result.Status != "PASS" {
		os.Exit(2)
	}
	return nil
}
