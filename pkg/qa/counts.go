package qa

// Blockers returns the number of BLOCKER-severity issues.
func (r *Report) Blockers() int { return r.countSeverity(Blocker) }

// Warnings returns the number of MAJOR- or MINOR-severity issues —
// everything that did not, by itself, block approval.
func (r *Report) Warnings() int {
	return r.countSeverity(Major) + r.countSeverity(Minor)
}

func (r *Report) countSeverity(s Severity) int {
	n := 0
	for _, iss := range r.Issues {
		if iss.Severity == s {
			n++
		}
	}
	return n
}
