package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ormasoftchile/methopipe/pkg/providers"
	"github.com/ormasoftchile/methopipe/pkg/qualitygate"
	"github.com/ormasoftchile/methopipe/pkg/runmanifest"
	"github.com/stretchr/testify/require"
)

const sampleOutlineYAML = `
metadata:
  id: accounting-basics
  title: Accounting Basics
classification:
  methodology_type: standard
structure:
  stages:
    - title: Gather statements
      description: Collect balance sheet and income statement.
      order: 1
    - title: Compute ratios
      description: Derive liquidity and leverage ratios.
      order: 2
  tools:
    - title: Ratio worksheet
      type: table
  indicators:
    - name: Current Ratio
      description: Current assets over current liabilities.
      formula: current_assets / current_liabilities
  rules:
    - condition: current_ratio < 1
      action: flag liquidity risk
      severity: warning
`

func writeOutline(t *testing.T, cfg Config) {
	t.Helper()
	path := filepath.Join(cfg.BookWorkDir(), "outline_"+cfg.BookID+".yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(sampleOutlineYAML), 0o644))
}

func fixedNow(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// gateFunc returns a Gate fake that writes a b_quality_gate.json report
// with the given status to whatever --report path it's invoked with.
func gateFunc(t *testing.T, status string) func(ctx context.Context, args []string) (*providers.CommandResult, error) {
	return func(ctx context.Context, args []string) (*providers.CommandResult, error) {
		reportPath := flagValue(args, "--report")
		result := qualitygate.Result{Status: status, Metrics: qualitygate.Metrics{NStages: 2}}
		data, err := json.MarshalIndent(result, "", "  ")
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Dir(reportPath), 0o755))
		require.NoError(t, os.WriteFile(reportPath, data, 0o644))
		exit := 0
		if status != "PASS" {
			exit = 2
		}
		return &providers.CommandResult{ExitCode: exit}, nil
	}
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeArtifactFunc(t *testing.T, path string) func(ctx context.Context, args []string) (*providers.CommandResult, error) {
	return func(ctx context.Context, args []string) (*providers.CommandResult, error) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
		return &providers.CommandResult{ExitCode: 0}, nil
	}
}

func baseConfig(dir, bookID, runID string) Config {
	return Config{
		BookID:          bookID,
		SourcePath:      filepath.Join("sources", bookID),
		RunID:           runID,
		Steps:           []string{"B", "C", "D", "Gate", "G", "E", "F"},
		RequireGatePass: true,
		WorkDir:         filepath.Join(dir, "work"),
		DataDir:         filepath.Join(dir, "data"),
		QADir:           filepath.Join(dir, "qa"),
	}
}

func TestRunFullPipelineSucceedsOnGatePass(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(dir, "accounting-basics", "run_1")
	writeOutline(t, cfg)

	runner := &InProcessRunner{Funcs: map[string]func(context.Context, []string) (*providers.CommandResult, error){
		"Gate": gateFunc(t, "PASS"),
		"G":    writeArtifactFunc(t, glossaryArtifact(cfg)),
		"E":    writeArtifactFunc(t, publishArtifact(cfg)),
		"F":    writeArtifactFunc(t, filepath.Join(cfg.RunDir(), "release", "summary.md")),
	}}

	code, err := Run(context.Background(), cfg, runner, fixedNow(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, code)

	manifest, err := runmanifest.Load(cfg.RunDir())
	require.NoError(t, err)
	require.Len(t, manifest.Steps, 7)
	for _, s := range manifest.Steps {
		require.Equal(t, runmanifest.StepOK, s.Status, "step %s", s.Name)
	}
	require.Equal(t, "PASS", manifest.QA.GateStatus)
	require.NotNil(t, manifest.QA.Approved)

	_, err = os.Stat(filepath.Join(cfg.DataDir, "methodologies", "accounting-basics.yaml"))
	require.NoError(t, err)
}

func TestRunGateFailSkipsGAndEAndExits2(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(dir, "accounting-basics", "run_2")
	writeOutline(t, cfg)

	runner := &InProcessRunner{Funcs: map[string]func(context.Context, []string) (*providers.CommandResult, error){
		"Gate": gateFunc(t, "FAIL"),
	}}

	code, err := Run(context.Background(), cfg, runner, fixedNow(time.Now()))
	require.NoError(t, err)
	require.Equal(t, ExitGateFail, code)

	manifest, err := runmanifest.Load(cfg.RunDir())
	require.NoError(t, err)

	var gStep, eStep, fStep *runmanifest.StepRecord
	for i := range manifest.Steps {
		switch manifest.Steps[i].Name {
		case "G":
			gStep = &manifest.Steps[i]
		case "E":
			eStep = &manifest.Steps[i]
		case "F":
			fStep = &manifest.Steps[i]
		}
	}
	require.NotNil(t, gStep)
	require.Equal(t, runmanifest.StepSkipped, gStep.Status)
	require.NotNil(t, eStep)
	require.Equal(t, runmanifest.StepSkipped, eStep.Status)
	require.Nil(t, fStep, "F is requested but never recorded once Gate FAIL halts the loop")
}

func TestRunHaltsOnStepBFailureWhenOutlineMissing(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(dir, "missing-book", "run_3")
	cfg.Steps = []string{"B", "C"}

	code, err := Run(context.Background(), cfg, &InProcessRunner{}, fixedNow(time.Now()))
	require.NoError(t, err)
	require.Equal(t, ExitStepFail, code)

	manifest, err := runmanifest.Load(cfg.RunDir())
	require.NoError(t, err)
	require.Len(t, manifest.Steps, 1)
	require.Equal(t, runmanifest.StepFail, manifest.Steps[0].Status)
}

func TestRunFailsOnUnknownStep(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(dir, "accounting-basics", "run_4")
	cfg.Steps = []string{"Z"}

	code, err := Run(context.Background(), cfg, &InProcessRunner{}, fixedNow(time.Now()))
	require.NoError(t, err)
	require.Equal(t, ExitStepFail, code)
}

func TestIsValidStep(t *testing.T) {
	require.True(t, IsValidStep("Gate"))
	require.False(t, IsValidStep("Z"))
}
