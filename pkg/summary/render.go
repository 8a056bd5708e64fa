package summary

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/methopipe/pkg/runmanifest"
)

// RenderMarkdown renders s as the release summary Markdown, following
// agent_f's render_summary layout: header, verdict, step table, gate
// detail, QA detail, artifacts, error detail.
func RenderMarkdown(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Release Summary: %s\n\n", s.BookID)
	fmt.Fprintf(&b, "**Run ID**: `%s`  \n", s.RunID)
	fmt.Fprintf(&b, "**Created**: %s  \n", s.CreatedAt)
	fmt.Fprintf(&b, "**Duration**: %.1fs  \n", s.TotalDuration)
	fmt.Fprintf(&b, "**Status**: %s  \n", statusLabel(s.Success))
	fmt.Fprintf(&b, "**Exit Code**: %d\n\n", s.ExitCode)

	b.WriteString("## Verdict\n\n")
	writeVerdict(&b, s)
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Pipeline Steps\n\n")
	fmt.Fprintf(&b, "Total: %d | Completed: %d | Failed: %d | Skipped: %d\n\n",
		s.TotalSteps(), s.CompletedSteps(), s.FailedSteps(), s.SkippedSteps())
	b.WriteString("| Step | Status | Duration | Artifacts |\n")
	b.WriteString("|------|--------|----------|-----------|\n")
	for _, step := range s.Steps {
		artifacts := "-"
		if len(step.Artifacts) > 0 {
			artifacts = fmt.Sprintf("%d files", len(step.Artifacts))
		}
		fmt.Fprintf(&b, "| %s | %s | %.2fs | %s |\n", step.Name, step.Status, step.DurationSec, artifacts)
	}
	b.WriteString("\n")

	if s.GateStatus != "" {
		writeGateSection(&b, s)
	}

	if s.Approved != nil {
		writeQASection(&b, s)
	}

	writeArtifactsSection(&b, s)
	writeErrorDetails(&b, s)

	b.WriteString("---\n")
	return b.String()
}

func statusLabel(success bool) string {
	if success {
		return "SUCCESS"
	}
	return "FAILED"
}

func writeVerdict(b *strings.Builder, s *Summary) {
	switch {
	case s.Success:
		b.WriteString("Pipeline completed successfully.\n")
		if s.GateStatus == "PASS" {
			b.WriteString("- Quality Gate: PASS\n")
		}
		if s.Approved != nil {
			fmt.Fprintf(b, "- QA Review: %s\n", approvalLabel(*s.Approved))
		}
		b.WriteString("\nNext actions:\n")
		b.WriteString("- Review artifacts in `work/` and `data/`\n")
		b.WriteString("- Methodology ready for publication\n")
	case s.ExitCode == 2:
		b.WriteString("Pipeline stopped: Quality Gate FAIL.\n\n")
		fmt.Fprintf(b, "- Gate status: %s\n", s.GateStatus)
		fmt.Fprintf(b, "- Blockers: %d issues\n", s.Blockers)
		b.WriteString("\nNext actions:\n")
		b.WriteString("1. Review Gate errors below\n")
		b.WriteString("2. Fix the outline\n")
		fmt.Fprintf(b, "3. Re-run: orchestrator --book-id %s --steps Gate,G,E\n", s.BookID)
	default:
		b.WriteString("Pipeline failed during execution.\n\n")
		if failed := firstFailedStep(s.Steps); failed != nil {
			fmt.Fprintf(b, "- Failed step: %s\n", failed.Name)
			if failed.Error != "" {
				fmt.Fprintf(b, "- Error: `%s`\n", failed.Error)
			}
		}
		b.WriteString("\nNext actions:\n")
		b.WriteString("1. Check error details below\n")
		b.WriteString("2. Fix the issue in the upstream step\n")
		b.WriteString("3. Re-run the full pipeline\n")
	}
}

func approvalLabel(approved bool) string {
	if approved {
		return "APPROVED"
	}
	return "NOT APPROVED"
}

func firstFailedStep(steps []runmanifest.StepRecord) *runmanifest.StepRecord {
	for i := range steps {
		if steps[i].Status == runmanifest.StepFail {
			return &steps[i]
		}
	}
	return nil
}

func writeGateSection(b *strings.Builder, s *Summary) {
	b.WriteString("## Quality Gate\n\n")
	fmt.Fprintf(b, "Status: %s\n\n", s.GateStatus)

	if s.Gate != nil {
		m := s.Gate.Metrics
		b.WriteString("### Metrics\n\n")
		fmt.Fprintf(b, "- Stages: %d\n", m.NStages)
		if m.EmptyStageDescRatio != nil {
			fmt.Fprintf(b, "- Empty stage descriptions: %.0f%%\n", *m.EmptyStageDescRatio*100)
		}
		fmt.Fprintf(b, "- Stage order correct: %s\n", yesNo(m.OrderOK))
		fmt.Fprintf(b, "- Indicators: %d\n", m.NIndicators)
		if m.EmptyIndicatorDescRatio != nil {
			fmt.Fprintf(b, "- Empty indicator descriptions: %.0f%%\n", *m.EmptyIndicatorDescRatio*100)
		}
		if m.FormulaNonEmptyRatio != nil {
			fmt.Fprintf(b, "- Formula coverage: %.0f%%\n", *m.FormulaNonEmptyRatio*100)
		}
		fmt.Fprintf(b, "- Severity enum valid: %s\n", yesNo(m.SeverityOK))
		if m.DuplicateIndicators != nil {
			fmt.Fprintf(b, "- Duplicate indicators: %d\n", *m.DuplicateIndicators)
		}
		b.WriteString("\n")

		if len(s.Gate.Errors) > 0 {
			b.WriteString("### Errors\n\n")
			for _, e := range s.Gate.Errors {
				fmt.Fprintf(b, "- %s: %s\n", e.Code, e.Message)
			}
			b.WriteString("\n")
		}
	}
}

func yesNo(v *bool) string {
	if v == nil {
		return "N/A"
	}
	if *v {
		return "Yes"
	}
	return "No"
}

func writeQASection(b *strings.Builder, s *Summary) {
	b.WriteString("## QA Review\n\n")
	fmt.Fprintf(b, "Approved: %s\n", approvalLabel(*s.Approved))
	fmt.Fprintf(b, "Blockers: %d\n", s.Blockers)
	fmt.Fprintf(b, "Warnings: %d\n\n", s.Warnings)
	if s.Blockers > 0 {
		fmt.Fprintf(b, "Action required: review the QA report in `work/%s/qa/qa_report.md`\n\n", s.BookID)
	}
}

func writeArtifactsSection(b *strings.Builder, s *Summary) {
	b.WriteString("## Artifacts\n\n")
	has := false
	for _, step := range s.Steps {
		if len(step.Artifacts) == 0 {
			continue
		}
		has = true
		fmt.Fprintf(b, "### %s\n\n", step.Name)
		for _, a := range step.Artifacts {
			fmt.Fprintf(b, "- `%s`\n", a)
		}
		b.WriteString("\n")
	}
	if !has {
		b.WriteString("No artifacts produced.\n\n")
	}
}

func writeErrorDetails(b *strings.Builder, s *Summary) {
	var errored []runmanifest.StepRecord
	for _, step := range s.Steps {
		if step.Error != "" {
			errored = append(errored, step)
		}
	}
	if len(errored) == 0 {
		return
	}
	b.WriteString("## Error Details\n\n")
	for _, step := range errored {
		fmt.Fprintf(b, "### Step: %s\n\n```\n%s\n```\n\n", step.Name, step.Error)
	}
}
