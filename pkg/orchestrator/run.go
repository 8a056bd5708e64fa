package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
	"github.com/ormasoftchile/methopipe/pkg/compiled"
	"github.com/ormasoftchile/methopipe/pkg/compiler"
	"github.com/ormasoftchile/methopipe/pkg/outline"
	"github.com/ormasoftchile/methopipe/pkg/qa"
	"github.com/ormasoftchile/methopipe/pkg/qualitygate"
	"github.com/ormasoftchile/methopipe/pkg/runmanifest"
)

// Exit codes, per spec.md §6.
const (
	ExitSuccess  = 0
	ExitStepFail = 1
	ExitGateFail = 2
)

// finalRecord is written to <run_dir>/final.json whenever the step loop
// ends (completion, a failed step, or Gate FAIL), mirroring orchestrator_cli/runner.py's write_json(final.json, ...).
type finalRecord struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Run executes cfg.Steps in order against runner (for Gate/G/E/F) and
// this module's own libraries (for B/C/D), writing the manifest after
// every step. It returns the process exit code spec.md §6 defines:
// 0 success, 1 a step failed, 2 the Quality Gate failed under
// RequireGatePass.
func Run(ctx context.Context, cfg Config, runner StepRunner, now func() time.Time) (int, error) {
	cfg = cfg.normalize()
	if now == nil {
		now = time.Now
	}

	runDir := cfg.RunDir()
	manifest := runmanifest.New(cfg.RunID, cfg.BookID, cfg.SourcePath, runmanifest.Policy{RequireGatePass: cfg.RequireGatePass}, now())
	if err := manifest.Write(runDir); err != nil {
		return ExitStepFail, fmt.Errorf("write initial manifest: %w", err)
	}

	addStep := func(rec runmanifest.StepRecord) error {
		manifest.AddStep(rec)
		return manifest.Write(runDir)
	}

	writeFinal := func(reason string) {
		data, _ := json.MarshalIndent(finalRecord{Status: "FINALIZE", Reason: reason}, "", "  ")
		data = append(data, '\n')
		_ = atomicfile.Write(filepath.Join(runDir, "final.json"), data, 0o644)
	}

	for i, step := range cfg.Steps {
		started := now()
		var rec runmanifest.StepRecord
		var gateStatus string

		switch step {
		case "B":
			rec = runStepB(cfg, started, now)
		case "C":
			rec = runStepC(cfg, started, now)
		case "D":
			rec = runStepD(ctx, cfg, started, now)
			if rec.Status == runmanifest.StepOK {
				fillQAFromResult(manifest, filepath.Join(cfg.BookWorkDir(), "qa", "qa_result.json"))
			}
		case "Gate":
			rec, gateStatus = runStepGate(ctx, cfg, runDir, runner, started, now)
			manifest.QA.GateStatus = gateStatus
		case "G":
			rec = runSubprocessStep(ctx, runner, "G", gArgs(cfg), started, now, glossaryArtifact(cfg))
		case "E":
			rec = runSubprocessStep(ctx, runner, "E", eArgs(cfg), started, now, publishArtifact(cfg))
		case "F":
			rec = runSubprocessStep(ctx, runner, "F", fArgs(cfg, runDir), started, now, filepath.Join(runDir, "release", "summary.md"))
		default:
			rec = runmanifest.StepRecord{Name: step, Status: runmanifest.StepFail, Error: fmt.Sprintf("unknown step %q", step)}
		}

		if err := addStep(rec); err != nil {
			return ExitStepFail, fmt.Errorf("write manifest after step %s: %w", step, err)
		}

		if rec.Status == runmanifest.StepFail {
			writeFinal(fmt.Sprintf("Step %s failed", step))
			return ExitStepFail, nil
		}

		if step == "Gate" && cfg.RequireGatePass && gateStatus != "" && gateStatus != "PASS" {
			skipRemaining(cfg.Steps[i+1:], addStep, now)
			writeFinal("Gate FAIL")
			return ExitGateFail, nil
		}
	}

	writeFinal("Completed")
	return ExitSuccess, nil
}

// skipRemaining records G and E (the steps whose output depends on an
// approved outline) as skipped, in the originally requested order.
func skipRemaining(remaining []string, addStep func(runmanifest.StepRecord) error, now func() time.Time) {
	for _, s := range remaining {
		if s != "G" && s != "E" {
			continue
		}
		ts := now().Format(time.RFC3339)
		_ = addStep(runmanifest.StepRecord{
			Name:      s,
			Status:    runmanifest.StepSkipped,
			StartedAt: ts,
			EndedAt:   ts,
			Error:     "Skipped due to Gate FAIL",
		})
	}
}

func runStepB(cfg Config, started time.Time, now func() time.Time) runmanifest.StepRecord {
	rec := runmanifest.StepRecord{Name: "B", StartedAt: started.Format(time.RFC3339)}
	path, err := outline.Resolve(cfg.BookWorkDir(), cfg.BookID)
	ended := now()
	rec.EndedAt = ended.Format(time.RFC3339)
	rec.DurationSec = ended.Sub(started).Seconds()
	if err != nil {
		rec.Status = runmanifest.StepFail
		rec.Error = err.Error()
		return rec
	}
	if _, err := outline.LoadFile(path); err != nil {
		rec.Status = runmanifest.StepFail
		rec.Error = fmt.Errorf("decode outline %s: %w", path, err).Error()
		return rec
	}
	rec.Status = runmanifest.StepOK
	rec.Artifacts = []string{path}
	return rec
}

func runStepC(cfg Config, started time.Time, now func() time.Time) runmanifest.StepRecord {
	rec := runmanifest.StepRecord{Name: "C", StartedAt: started.Format(time.RFC3339)}
	finish := func() {
		ended := now()
		rec.EndedAt = ended.Format(time.RFC3339)
		rec.DurationSec = ended.Sub(started).Seconds()
	}

	outlinePath, err := outline.Resolve(cfg.BookWorkDir(), cfg.BookID)
	if err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec
	}
	o, err := outline.LoadFile(outlinePath)
	if err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec
	}

	docsDir := filepath.Join(cfg.BookWorkDir(), "compiled", "docs")
	result, err := compiler.Compile(o, compiler.Options{DocsDir: docsDir})
	if err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec
	}

	methPath := compiled.WritePath(cfg.DataDir, cfg.BookID)
	if err := compiled.Save(methPath, result.Methodology); err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec
	}

	finish()
	rec.Status = runmanifest.StepOK
	rec.Artifacts = []string{methPath, docsDir}
	return rec
}

func runStepD(ctx context.Context, cfg Config, started time.Time, now func() time.Time) runmanifest.StepRecord {
	rec := runmanifest.StepRecord{Name: "D", StartedAt: started.Format(time.RFC3339)}
	finish := func() {
		ended := now()
		rec.EndedAt = ended.Format(time.RFC3339)
		rec.DurationSec = ended.Sub(started).Seconds()
	}

	methPath := compiled.WritePath(cfg.DataDir, cfg.BookID)
	m, err := compiled.Load(methPath)
	if err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec
	}

	docsDir := filepath.Join(cfg.BookWorkDir(), "compiled", "docs")
	opts := qa.Options{}
	if readme, err := os.ReadFile(filepath.Join(docsDir, "README.md")); err == nil {
		opts.Docs.READMEExists = true
		opts.Docs.READMEText = string(readme)
	}
	if entries, err := os.ReadDir(filepath.Join(docsDir, "stages")); err == nil {
		opts.Docs.StageFiles = len(entries)
	}
	if cfg.UseExternalReasoner {
		client, err := qa.NewHTTPReasoningClientFromEnv()
		if err != nil {
			finish()
			rec.Status, rec.Error = runmanifest.StepFail, err.Error()
			return rec
		}
		if client != nil {
			opts.Reasoner = client
		}
	}

	report := qa.Review(ctx, m, opts)
	if err := qa.Write(cfg.BookWorkDir(), report); err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec
	}

	finish()
	rec.Status = runmanifest.StepOK
	rec.Artifacts = []string{qa.ResultPath(cfg.BookWorkDir()), qa.MarkdownPath(cfg.BookWorkDir())}
	return rec
}

// fillQAFromResult reads back qa_result.json so the manifest's QA
// summary reflects whatever step D actually wrote, matching
// runner.py's "prefer written file" fallback.
func fillQAFromResult(manifest *runmanifest.Manifest, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var report qa.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return
	}
	approved := report.Approved
	blockers := report.Blockers()
	warnings := report.Warnings()
	manifest.QA.Approved = &approved
	manifest.QA.Blockers = &blockers
	manifest.QA.Warnings = &warnings
}

func runStepGate(ctx context.Context, cfg Config, runDir string, runner StepRunner, started time.Time, now func() time.Time) (runmanifest.StepRecord, string) {
	rec := runmanifest.StepRecord{Name: "Gate", StartedAt: started.Format(time.RFC3339)}
	finish := func() {
		ended := now()
		rec.EndedAt = ended.Format(time.RFC3339)
		rec.DurationSec = ended.Sub(started).Seconds()
	}

	outlinePath, err := outline.Resolve(cfg.BookWorkDir(), cfg.BookID)
	if err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec, ""
	}

	reportPath := filepath.Join(runDir, "b_quality_gate.json")
	result, err := runner.RunStep(ctx, "Gate", []string{"--input", outlinePath, "--report", reportPath})
	if err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec, ""
	}
	// Gate exit codes: 0 PASS, 2 FAIL; anything else is a real failure.
	if result.ExitCode != 0 && result.ExitCode != 2 {
		finish()
		rec.Status = runmanifest.StepFail
		rec.Error = fmt.Sprintf("gate exited %d: %s", result.ExitCode, string(result.Stderr))
		return rec, ""
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec, ""
	}
	var gate qualitygate.Result
	if err := json.Unmarshal(data, &gate); err != nil {
		finish()
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec, ""
	}

	finish()
	rec.Status = runmanifest.StepOK
	rec.Artifacts = []string{reportPath}
	return rec, gate.Status
}

func runSubprocessStep(ctx context.Context, runner StepRunner, step string, args []string, started time.Time, now func() time.Time, artifactIfExists string) runmanifest.StepRecord {
	rec := runmanifest.StepRecord{Name: step, StartedAt: started.Format(time.RFC3339)}
	result, err := runner.RunStep(ctx, step, args)
	ended := now()
	rec.EndedAt = ended.Format(time.RFC3339)
	rec.DurationSec = ended.Sub(started).Seconds()
	if err != nil {
		rec.Status, rec.Error = runmanifest.StepFail, err.Error()
		return rec
	}
	if result.ExitCode != 0 {
		rec.Status = runmanifest.StepFail
		rec.Error = fmt.Sprintf("%s exited %d: %s", step, result.ExitCode, string(result.Stderr))
		return rec
	}
	rec.Status = runmanifest.StepOK
	if artifactIfExists != "" {
		if _, err := os.Stat(artifactIfExists); err == nil {
			rec.Artifacts = []string{artifactIfExists}
		}
	}
	return rec
}

func gArgs(cfg Config) []string {
	args := []string{}
	if cfg.GReconcile {
		args = append(args, "--reconcile")
	}
	if cfg.GDryRun {
		args = append(args, "--dry-run")
	}
	return args
}

func eArgs(cfg Config) []string {
	args := []string{cfg.BookID}
	if cfg.SkipQAForE {
		args = append(args, "--skip-qa")
	}
	return args
}

func fArgs(cfg Config, runDir string) []string {
	return []string{"--manifest", filepath.Join(runDir, "manifest.json"), "--output", filepath.Join(runDir, "release", "summary.md")}
}

func glossaryArtifact(cfg Config) string {
	return filepath.Join(cfg.WorkDir, "glossary_sync_report.json")
}

func publishArtifact(cfg Config) string {
	return filepath.Join(cfg.DataDir, "published", fmt.Sprintf("%s.json", cfg.BookID))
}
