package qa

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
)

// RenderMarkdown writes the human-readable companion to qa_result.json,
// grouped by severity, following reviewer.py's render_qa_report layout.
func RenderMarkdown(r *Report) string {
	var blockers, majors, minors []Issue
	for _, it := range r.Issues {
		switch it.Severity {
		case Blocker:
			blockers = append(blockers, it)
		case Major:
			majors = append(majors, it)
		case Minor:
			minors = append(minors, it)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# QA Report — %s\n\n", r.BookID)
	b.WriteString("## Verdict\n")
	fmt.Fprintf(&b, "- approved: **%t**\n", r.Approved)
	fmt.Fprintf(&b, "- score: **%d/100**\n\n", r.Score)

	writeGroup := func(title string, issues []Issue) {
		if len(issues) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s\n", title)
		for _, it := range issues {
			fmt.Fprintf(&b, "- **[%s][%s]** %s\n", it.Severity, it.Category, it.Message)
			if it.Evidence.Pointer != "" {
				fmt.Fprintf(&b, "  - Evidence: `%s`\n", it.Evidence.Pointer)
			}
			if it.Evidence.Snippet != "" {
				fmt.Fprintf(&b, "  - Snippet: `%s`\n", it.Evidence.Snippet)
			}
			if it.FixHint != "" {
				fmt.Fprintf(&b, "  - Fix: %s\n", it.FixHint)
			}
		}
		b.WriteString("\n")
	}
	writeGroup("Blockers", blockers)
	writeGroup("Major issues", majors)
	writeGroup("Minor issues", minors)

	if len(r.Strengths) > 0 {
		b.WriteString("## Strengths (from reasoning layer)\n")
		for _, s := range r.Strengths {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Next actions\n")
	b.WriteString("1. Fix BLOCKER/MAJOR issues in the outline or the Compiler output.\n")
	b.WriteString("2. Re-run the Compiler to regenerate the compiled document and docs.\n")
	b.WriteString("3. Re-run the QA Reviewer until approved.\n")

	return b.String()
}

// canonical qa output layout: work/<id>/qa/{qa_result.json,qa_report.md,approved.flag}
// This is the single path the Publisher also reads from (see DESIGN.md
// "QA-report canonical path").

// ResultPath, MarkdownPath and ApprovedFlagPath return the canonical
// output paths for a QA run rooted at workDir.
func ResultPath(workDir string) string      { return filepath.Join(workDir, "qa", "qa_result.json") }
func MarkdownPath(workDir string) string    { return filepath.Join(workDir, "qa", "qa_report.md") }
func ApprovedFlagPath(workDir string) string { return filepath.Join(workDir, "qa", "approved.flag") }

// Write persists all three canonical QA artifacts atomically.
func Write(workDir string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal qa result: %w", err)
	}
	data = append(data, '\n')
	if err := atomicfile.Write(ResultPath(workDir), data, 0o644); err != nil {
		return fmt.Errorf("write qa_result.json: %w", err)
	}

	if err := atomicfile.Write(MarkdownPath(workDir), []byte(RenderMarkdown(r)), 0o644); err != nil {
		return fmt.Errorf("write qa_report.md: %w", err)
	}

	flag := "false\n"
	if r.Approved {
		flag = "true\n"
	}
	if err := atomicfile.Write(ApprovedFlagPath(workDir), []byte(flag), 0o644); err != nil {
		return fmt.Errorf("write approved.flag: %w", err)
	}
	return nil
}
