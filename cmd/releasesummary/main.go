// Command releasesummary renders a run manifest into a human-readable
// release summary, standalone or as the orchestrator's F step.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
	"github.com/ormasoftchile/methopipe/internal/dotenv"
	"github.com/ormasoftchile/methopipe/pkg/qualitygate"
	"github.com/ormasoftchile/methopipe/pkg/runmanifest"
	"github.com/ormasoftchile/methopipe/pkg/summary"
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
	Use:   "releasesummary",
	Short: "Render a run manifest into a release summary",
	RunE:  run,
}

var (
	manifestPath string
	outputPath   string
)

func init() {
	rootCmd.Flags().StringVar(&manifestPath, "manifest", "", "path to the run's manifest.json")
	rootCmd.Flags().StringVar(&outputPath, "output", "", "path to write the rendered summary markdown")
	_ = rootCmd.MarkFlagRequired("manifest")
	_ = rootCmd.MarkFlagRequired("output")
}

func run(cmd *cobra.Command, args []string) error {
	runDir := filepath.Dir(manifestPath)

	m, err := runmanifest.Load(runDir)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	var gate *qualitygate.Result
	if data, err := os.ReadFile(filepath.Join(runDir, "b_quality_gate.json")); err == nil {
		var g qualitygate.Result
		if err := json.Unmarshal(data, &g); err == nil {
			gate = &g
		}
	}

	s := summary.Build(m, gate)
	return atomicfile.Write(outputPath, []byte(summary.RenderMarkdown(s)), 0o644)
}
