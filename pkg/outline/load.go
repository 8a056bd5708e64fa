package outline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and strictly decodes an outline YAML file, rejecting
// unknown fields via yaml.Decoder.KnownFields.
func LoadFile(path string) (*Outline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open outline: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load strictly decodes an outline from r.
func Load(r io.Reader) (*Outline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read outline: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var o Outline
	if err := dec.Decode(&o); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	return &o, nil
}

// Resolve locates the outline file for bookID under dir, preferring the
// suffixed name WritePath returns (outline_<book_id>.yaml), then the
// legacy bare outline.yaml, then a single outline_*.yaml of any suffix.
func Resolve(dir, bookID string) (string, error) {
	preferred := filepath.Join(dir, fmt.Sprintf("outline_%s.yaml", bookID))
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}

	legacy := filepath.Join(dir, "outline.yaml")
	if _, err := os.Stat(legacy); err == nil {
		return legacy, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "outline_*.yaml"))
	if err != nil {
		return "", fmt.Errorf("glob outlines in %s: %w", dir, err)
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("ambiguous outline for %s: %d candidates in %s", bookID, len(matches), dir)
	}
	return "", fmt.Errorf("no outline found for %s in %s", bookID, dir)
}

// WritePath returns the path an outline for bookID should be written to
// (always the suffixed form).
func WritePath(dir, bookID string) string {
	return filepath.Join(dir, fmt.Sprintf("outline_%s.yaml", bookID))
}
