// Package orchestrator runs the pipeline B→C→Gate→D→G→E→F for one
// book, writing a run manifest after every step transition and
// applying the halt/skip policy spec.md §5–§6 describe. Steps B, C,
// and D run in-process against this module's own libraries; Gate, G,
// E, and F run through the injectable StepRunner interface so the
// standalone qualitygate/glossarysync/publisher/releasesummary
// binaries stay independently testable and runnable, exactly as the
// reference orchestrator_cli shells out to separate scripts for the
// same four steps.
package orchestrator

import "path/filepath"

// AllowedSteps is the closed vocabulary for Config.Steps, ported from
// orchestrator_cli/runner.py's ALLOWED_STEPS.
var AllowedSteps = []string{"B", "C", "D", "Gate", "G", "E", "F"}

// Config configures one orchestrator run.
type Config struct {
	BookID     string
	SourcePath string
	RunID      string
	Steps      []string

	RequireGatePass     bool
	UseExternalReasoner bool
	SkipQAForE          bool
	GReconcile          bool
	GDryRun             bool

	WorkDir string // default "work"
	DataDir string // default "data"
	QADir   string // default "qa"
	BinDir  string // directory holding the step binaries; "" searches $PATH
}

// normalize fills in directory defaults so callers only need to set
// what differs from the conventional layout.
func (c Config) normalize() Config {
	if c.WorkDir == "" {
		c.WorkDir = "work"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.QADir == "" {
		c.QADir = "qa"
	}
	return c
}

// BookWorkDir is work/<book_id>, where step B's outline and step D's
// qa_result.json live.
func (c Config) BookWorkDir() string {
	return filepath.Join(c.WorkDir, c.BookID)
}

// RunDir is qa/runs/<run_id>, where the manifest and Gate report live.
func (c Config) RunDir() string {
	return filepath.Join(c.QADir, "runs", c.RunID)
}

// IsValidStep reports whether s is a recognized step name.
func IsValidStep(s string) bool {
	for _, v := range AllowedSteps {
		if v == s {
			return true
		}
	}
	return false
}
