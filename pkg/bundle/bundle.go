// Package bundle resolves a bundle_id (or auto-discovery over a
// sources directory) to the methodology_id and source paths the
// orchestrator should feed through the B→C→Gate→D→G→E→F pipeline as a
// single combined run.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Bundle is one data/bundles/<bundle_id>.yaml definition.
type Bundle struct {
	BundleID       string   `yaml:"bundle_id"`
	MethodologyID  string   `yaml:"methodology_id"`
	Sources        []string `yaml:"sources"`
}

// Load reads and validates a bundle definition file.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", path, err)
	}
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", path, err)
	}
	if b.BundleID == "" {
		return nil, fmt.Errorf("bundle missing required field 'bundle_id': %s", path)
	}
	if b.MethodologyID == "" {
		return nil, fmt.Errorf("bundle missing required field 'methodology_id': %s", path)
	}
	if len(b.Sources) == 0 {
		return nil, fmt.Errorf("bundle 'sources' must be a non-empty list: %s", path)
	}
	return &b, nil
}

// Resolve loads bundleID from bundlesDir and resolves its source IDs
// to existing directories under sourcesDir.
func Resolve(bundleID, bundlesDir, sourcesDir string) (methodologyID string, sourcePaths []string, err error) {
	bundlePath := filepath.Join(bundlesDir, bundleID+".yaml")
	if _, statErr := os.Stat(bundlePath); statErr != nil {
		return "", nil, fmt.Errorf("bundle not found: %s", bundlePath)
	}

	b, err := Load(bundlePath)
	if err != nil {
		return "", nil, err
	}

	for _, sourceID := range b.Sources {
		sourcePath := filepath.Join(sourcesDir, sourceID)
		if _, statErr := os.Stat(sourcePath); statErr != nil {
			return "", nil, fmt.Errorf("source not found: %s", sourcePath)
		}
		sourcePaths = append(sourcePaths, sourcePath)
	}
	return b.MethodologyID, sourcePaths, nil
}

// SourceManifest is the subset of a source's source_manifest.json that
// AutoBundle needs: the classifier's best-guess methodology_id and its
// confidence.
type SourceManifest struct {
	Signals struct {
		CandidateMethodologyIDs []string `json:"candidate_methodology_ids"`
		Confidence              float64  `json:"confidence"`
	} `json:"signals"`
}

// LoadSourceManifest reads source_manifest.json from a source
// directory, returning (nil, nil) if it doesn't exist.
func LoadSourceManifest(sourcePath string) (*SourceManifest, error) {
	data, err := os.ReadFile(filepath.Join(sourcePath, "source_manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read source manifest: %w", err)
	}
	var m SourceManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode source manifest %s: %w", sourcePath, err)
	}
	return &m, nil
}

// PickMethodologyID returns the top candidate methodology_id from a
// source manifest, or "" if there are no candidates or confidence is
// below minConfidence.
func PickMethodologyID(m SourceManifest, minConfidence float64) string {
	if len(m.Signals.CandidateMethodologyIDs) == 0 {
		return ""
	}
	if m.Signals.Confidence < minConfidence {
		return ""
	}
	return m.Signals.CandidateMethodologyIDs[0]
}

// AutoBundle groups every immediate subdirectory of sourcesDir by its
// source_manifest.json's picked methodology_id, for runs that don't
// specify a bundle explicitly.
func AutoBundle(sourcesDir string, minConfidence float64, loadManifest func(sourcePath string) (*SourceManifest, error)) (map[string][]string, error) {
	entries, err := os.ReadDir(sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}
		return nil, fmt.Errorf("read sources dir %s: %w", sourcesDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	groups := map[string][]string{}
	for _, name := range names {
		sourcePath := filepath.Join(sourcesDir, name)
		manifest, err := loadManifest(sourcePath)
		if err != nil || manifest == nil {
			continue
		}
		methodologyID := PickMethodologyID(*manifest, minConfidence)
		if methodologyID == "" {
			continue
		}
		groups[methodologyID] = append(groups[methodologyID], sourcePath)
	}
	return groups, nil
}
