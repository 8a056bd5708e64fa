// Package runmanifest tracks one orchestrator run: every step's
// outcome, the QA verdict, and the policy that governed halt/skip
// decisions, written atomically to qa/runs/<run_id>/manifest.json after
// every step so a crashed run leaves a readable trail.
package runmanifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
)

// StepStatus is the closed vocabulary for StepRecord.Status.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFail    StepStatus = "fail"
	StepSkipped StepStatus = "skipped"
)

// StepRecord is one orchestrator step's outcome.
type StepRecord struct {
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	Artifacts   []string   `json:"artifacts"`
	StartedAt   string     `json:"started_at"`
	EndedAt     string     `json:"ended_at"`
	DurationSec float64    `json:"duration_sec"`
	Error       string     `json:"error,omitempty"`
}

// QARecord mirrors the QA Reviewer's verdict fields relevant to the
// manifest; any field may be absent (nil) before the QA step runs.
type QARecord struct {
	Approved   *bool   `json:"approved,omitempty"`
	Blockers   *int    `json:"blockers,omitempty"`
	Warnings   *int    `json:"warnings,omitempty"`
	GateStatus string  `json:"gate_status,omitempty"`
}

// Policy governs halt/skip behavior across steps.
type Policy struct {
	RequireGatePass bool `json:"require_gate_pass"`
}

// Manifest is the top-level run record.
type Manifest struct {
	RunID      string       `json:"run_id"`
	BookID     string       `json:"book_id"`
	SourcePath string       `json:"source_path"`
	Sources    []string     `json:"sources,omitempty"`
	Steps      []StepRecord `json:"steps"`
	QA         QARecord     `json:"qa"`
	Policy     Policy       `json:"policy"`
	CreatedAt  string       `json:"created_at"`
}

// New starts a Manifest for a run, stamping CreatedAt with now.
func New(runID, bookID, sourcePath string, policy Policy, now time.Time) *Manifest {
	return &Manifest{
		RunID:      runID,
		BookID:     bookID,
		SourcePath: sourcePath,
		Steps:      []StepRecord{},
		Policy:     policy,
		CreatedAt:  now.Format(time.RFC3339),
	}
}

// AddStep appends a completed step's record.
func (m *Manifest) AddStep(s StepRecord) {
	m.Steps = append(m.Steps, s)
}

// Write persists the manifest atomically to <runDir>/manifest.json.
func (m *Manifest) Write(runDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	return atomicfile.Write(filepath.Join(runDir, "manifest.json"), data, 0o644)
}

// Load reads a manifest back from <runDir>/manifest.json.
func Load(runDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(runDir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
