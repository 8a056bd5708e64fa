package summary

import (
	"testing"
	"time"

	"github.com/ormasoftchile/methopipe/pkg/qualitygate"
	"github.com/ormasoftchile/methopipe/pkg/runmanifest"
	"github.com/stretchr/testify/require"
)

func TestBuildSuccessExitCode(t *testing.T) {
	now := time.Now()
	m := runmanifest.New("run_1", "accounting-basics", "sources/book_01", runmanifest.Policy{RequireGatePass: true}, now)
	m.AddStep(runmanifest.StepRecord{Name: "outline", Status: runmanifest.StepOK, DurationSec: 1})
	m.QA.GateStatus = "PASS"

	s := Build(m, nil)
	require.True(t, s.Success)
	require.Equal(t, 0, s.ExitCode)
}

func TestBuildGateFailExitCode(t *testing.T) {
	now := time.Now()
	m := runmanifest.New("run_2", "accounting-basics", "sources/book_01", runmanifest.Policy{RequireGatePass: true}, now)
	m.QA.GateStatus = "FAIL"

	s := Build(m, nil)
	require.False(t, s.Success)
	require.Equal(t, 2, s.ExitCode)
}

func TestBuildStepFailureTakesPriorityOverGateFail(t *testing.T) {
	now := time.Now()
	m := runmanifest.New("run_3", "accounting-basics", "sources/book_01", runmanifest.Policy{RequireGatePass: true}, now)
	m.AddStep(runmanifest.StepRecord{Name: "compiler", Status: runmanifest.StepFail, Error: "boom"})
	m.QA.GateStatus = "FAIL"

	s := Build(m, nil)
	require.Equal(t, 1, s.ExitCode)
}

func TestRenderMarkdownIncludesStepTableAndGateMetrics(t *testing.T) {
	now := time.Now()
	m := runmanifest.New("run_4", "accounting-basics", "sources/book_01", runmanifest.Policy{RequireGatePass: true}, now)
	m.AddStep(runmanifest.StepRecord{Name: "outline", Status: runmanifest.StepOK, DurationSec: 2.5, Artifacts: []string{"outline_accounting-basics.yaml"}})
	m.QA.GateStatus = "PASS"

	gate := &qualitygate.Result{Status: "PASS", Metrics: qualitygate.Metrics{NStages: 3}}
	s := Build(m, gate)
	md := RenderMarkdown(s)

	require.Contains(t, md, "# Release Summary: accounting-basics")
	require.Contains(t, md, "| outline |")
	require.Contains(t, md, "Stages: 3")
}

func TestRenderMarkdownNoArtifactsFallback(t *testing.T) {
	now := time.Now()
	m := runmanifest.New("run_5", "accounting-basics", "sources/book_01", runmanifest.Policy{RequireGatePass: true}, now)
	s := Build(m, nil)
	md := RenderMarkdown(s)
	require.Contains(t, md, "No artifacts produced.")
}
