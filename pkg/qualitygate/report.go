package qualitygate

import (
	"encoding/json"
	"fmt"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
)

// WriteReport marshals r as indented JSON and writes it atomically,
// matching quality_gate.py's json.dumps(..., indent=2) report output.
func WriteReport(path string, r Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gate report: %w", err)
	}
	data = append(data, '\n')
	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return fmt.Errorf("write gate report %s: %w", path, err)
	}
	return nil
}
