package compiled

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
	"gopkg.in/yaml.v3"
)

// Load reads a compiled methodology YAML document from path.
func Load(path string) (*Methodology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compiled methodology: %w", err)
	}
	var m Methodology
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode compiled methodology: %w", err)
	}
	return &m, nil
}

// Save writes m as YAML to path atomically.
func Save(path string, m *Methodology) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal compiled methodology: %w", err)
	}
	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return fmt.Errorf("write compiled methodology %s: %w", path, err)
	}
	return nil
}

// WritePath returns the canonical path for a methodology's compiled
// document under dataDir, i.e. <dataDir>/methodologies/<id>.yaml.
func WritePath(dataDir, id string) string {
	return filepath.Join(dataDir, "methodologies", id+".yaml")
}
