// Command glossarysync reconciles glossary stub terms against the
// canonical glossary, standalone or as the orchestrator's G step.
// Agent G's ingestion side (pulling new terms from external sources)
// is out of this module's scope; this binary covers the reconciliation
// contract the orchestrator's G step and the Publisher's stub-creation
// rule both depend on.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
	"github.com/ormasoftchile/methopipe/internal/dotenv"
	"github.com/ormasoftchile/methopipe/pkg/glossary"
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
	Use:   "glossarysync",
	Short: "Reconcile glossary stub terms against the canonical glossary",
	RunE:  runSync,
}

var (
	canonicalDir string
	stubsDir     string
	reportPath   string
	reconcile    bool
	dryRun       bool
)

func init() {
	rootCmd.Flags().StringVar(&canonicalDir, "canonical-dir", filepath.Join("data", "glossary"), "directory of canonical glossary term files")
	rootCmd.Flags().StringVar(&stubsDir, "stubs-dir", filepath.Join("data", "glossary", "stubs"), "directory of glossary_terms stub files awaiting reconciliation")
	rootCmd.Flags().StringVar(&reportPath, "report", filepath.Join("work", "glossary_sync_report.json"), "path to write the sync report")
	rootCmd.Flags().BoolVar(&reconcile, "reconcile", false, "attempt to match stub terms to canonical terms")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute matches but do not write merge results")
}

type syncReport struct {
	TermCount int              `json:"term_count"`
	Reconcile bool             `json:"reconcile"`
	DryRun    bool             `json:"dry_run"`
	Report    *glossary.Report `json:"reconciliation,omitempty"`
}

func runSync(cmd *cobra.Command, args []string) error {
	rawCanonical, err := glossary.LoadTerms(canonicalDir)
	if err != nil {
		return fmt.Errorf("load canonical glossary: %w", err)
	}
	canonical, errs := glossary.BuildCanonicalTerms(rawCanonical, glossary.Source{Agent: "glossary-sync"})
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "warning: %v\n", e)
	}

	out := syncReport{TermCount: len(canonical), Reconcile: reconcile, DryRun: dryRun}

	if reconcile {
		var rawStubs []glossary.RawTerm
		if _, statErr := os.Stat(stubsDir); statErr == nil {
			rawStubs, err = glossary.LoadTerms(stubsDir)
			if err != nil {
				return fmt.Errorf("load glossary stubs: %w", err)
			}
		}
		var stubs []glossary.Stub
		for _, raw := range rawStubs {
			name, _ := raw.Fields["name"].(string)
			termID, _ := raw.Fields["term_id"].(string)
			if termID == "" {
				termID = glossary.NormalizeTermID(name)
			}
			stubs = append(stubs, glossary.Stub{Key: termID, Name: name})
		}

		report := glossary.Reconcile(stubs, canonical)
		out.Report = &report

		if !dryRun && report.Matched > 0 {
			mergesPath := filepath.Join(filepath.Dir(canonicalDir), "merges_applied.json")
			data, err := json.MarshalIndent(report.MatchedDetails, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal merges: %w", err)
			}
			data = append(data, '\n')
			if err := atomicfile.Write(mergesPath, data, 0o644); err != nil {
				return fmt.Errorf("write merges: %w", err)
			}
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sync report: %w", err)
	}
	data = append(data, '\n')
	return atomicfile.Write(reportPath, data, 0o644)
}
