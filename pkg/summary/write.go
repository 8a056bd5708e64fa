package summary

import (
	"path/filepath"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
)

// Write renders s and writes it to <runDir>/release/summary.md.
func Write(runDir string, s *Summary) error {
	return atomicfile.Write(filepath.Join(runDir, "release", "summary.md"), []byte(RenderMarkdown(s)), 0o644)
}
