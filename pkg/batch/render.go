package batch

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders the batch report, following run_batch.py's
// render_batch_report layout: header, verdict, results table, failed
// books detail, statistics.
func RenderMarkdown(batchID, steps string, results []BookResult) string {
	var b strings.Builder

	total := len(results)
	failCount := 0
	gatePass := 0
	qaApproved := 0
	var durationSum float64
	for _, r := range results {
		if !r.Success {
			failCount++
		}
		if r.GateStatus == "PASS" {
			gatePass++
		}
		if r.QAApproved != nil && *r.QAApproved {
			qaApproved++
		}
		durationSum += r.DurationSec
	}

	fmt.Fprintf(&b, "# Batch Report: %s\n\n", batchID)
	fmt.Fprintf(&b, "**Steps**: %s  \n", steps)
	fmt.Fprintf(&b, "**Books**: %d  \n\n", total)

	b.WriteString("## Verdict\n\n")
	if failCount == 0 {
		fmt.Fprintf(&b, "All %d books completed successfully.\n\n", total)
	} else {
		fmt.Fprintf(&b, "%d of %d books failed.\n\n", failCount, total)
	}

	b.WriteString("## Results\n\n")
	b.WriteString("| Book | Status | Duration | Gate | QA | Blockers |\n")
	b.WriteString("|------|--------|----------|------|----|---------|\n")
	for _, r := range results {
		status := "OK"
		if !r.Success {
			status = "FAILED"
		}
		qa := "-"
		if r.QAApproved != nil {
			if *r.QAApproved {
				qa = "approved"
			} else {
				qa = "rejected"
			}
		}
		blockers := r.GateBlockers + r.QABlockers
		fmt.Fprintf(&b, "| %s | %s | %.1fs | %s | %s | %d |\n",
			r.BookID, status, r.DurationSec, orDash(r.GateStatus), qa, blockers)
	}
	b.WriteString("\n")

	if failCount > 0 {
		b.WriteString("## Failed Books\n\n")
		for _, r := range results {
			if r.Success {
				continue
			}
			fmt.Fprintf(&b, "### %s\n\n", r.BookID)
			fmt.Fprintf(&b, "- Run ID: `%s`\n", r.RunID)
			fmt.Fprintf(&b, "- Exit code: %d\n", r.ExitCode)
			if r.Error != "" {
				fmt.Fprintf(&b, "- Error: `%s`\n", r.Error)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- Gate PASS: %d/%d\n", gatePass, total)
	fmt.Fprintf(&b, "- QA Approved: %d/%d\n", qaApproved, total)
	if total > 0 {
		fmt.Fprintf(&b, "- Average duration: %.1fs\n", durationSum/float64(total))
	}

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
