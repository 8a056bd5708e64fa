// Package summary implements the Release Summary Publisher (agent F):
// pure Markdown rendering of one orchestrator run from its manifest and
// (if present) Quality Gate report. It makes no external calls.
package summary

import (
	"github.com/ormasoftchile/methopipe/pkg/qualitygate"
	"github.com/ormasoftchile/methopipe/pkg/runmanifest"
)

// Summary is the computed view of a run used to render the release
// summary, derived from its manifest plus an optional gate report.
type Summary struct {
	RunID         string
	BookID        string
	CreatedAt     string
	TotalDuration float64
	Steps         []runmanifest.StepRecord
	GateStatus    string
	Gate          *qualitygate.Result
	Approved      *bool
	Blockers      int
	Warnings      int
	RequireGatePass bool
	Success       bool
	ExitCode      int
}

// Build computes a Summary from a run manifest and an optional gate
// report, applying the exit-code policy from spec §6: fail(1) beats
// gate-fail(2) beats success(0).
func Build(m *runmanifest.Manifest, gate *qualitygate.Result) *Summary {
	var total float64
	failed := false
	for _, s := range m.Steps {
		total += s.DurationSec
		if s.Status == runmanifest.StepFail {
			failed = true
		}
	}

	gateStatus := m.QA.GateStatus
	gateFail := gateStatus == "FAIL" && m.Policy.RequireGatePass

	exitCode := 0
	success := true
	switch {
	case failed:
		exitCode, success = 1, false
	case gateFail:
		exitCode, success = 2, false
	}

	blockers, warnings := 0, 0
	if m.QA.Blockers != nil {
		blockers = *m.QA.Blockers
	}
	if m.QA.Warnings != nil {
		warnings = *m.QA.Warnings
	}

	return &Summary{
		RunID:           m.RunID,
		BookID:          m.BookID,
		CreatedAt:       m.CreatedAt,
		TotalDuration:   total,
		Steps:           m.Steps,
		GateStatus:      gateStatus,
		Gate:            gate,
		Approved:        m.QA.Approved,
		Blockers:        blockers,
		Warnings:        warnings,
		RequireGatePass: m.Policy.RequireGatePass,
		Success:         success,
		ExitCode:        exitCode,
	}
}

func (s *Summary) TotalSteps() int { return len(s.Steps) }

func (s *Summary) CompletedSteps() int {
	n := 0
	for _, st := range s.Steps {
		if st.Status == runmanifest.StepOK {
			n++
		}
	}
	return n
}

func (s *Summary) FailedSteps() int {
	n := 0
	for _, st := range s.Steps {
		if st.Status == runmanifest.StepFail {
			n++
		}
	}
	return n
}

func (s *Summary) SkippedSteps() int {
	n := 0
	for _, st := range s.Steps {
		if st.Status == runmanifest.StepSkipped {
			n++
		}
	}
	return n
}
