package qa

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads the canonical qa_result.json for a work directory.
func Load(workDir string) (*Report, error) {
	data, err := os.ReadFile(ResultPath(workDir))
	if err != nil {
		return nil, fmt.Errorf("read qa result: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode qa result: %w", err)
	}
	return &r, nil
}
