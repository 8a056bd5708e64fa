package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestResolveBundleSources(t *testing.T) {
	dir := t.TempDir()
	bundlesDir := filepath.Join(dir, "bundles")
	sourcesDir := filepath.Join(dir, "sources")

	writeFile(t, filepath.Join(bundlesDir, "power-of-one.yaml"), `
bundle_id: power-of-one
methodology_id: power-of-one
sources:
  - book_01_core
  - book_02_cases
`)
	require.NoError(t, os.MkdirAll(filepath.Join(sourcesDir, "book_01_core"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(sourcesDir, "book_02_cases"), 0o755))

	methodologyID, paths, err := Resolve("power-of-one", bundlesDir, sourcesDir)
	require.NoError(t, err)
	require.Equal(t, "power-of-one", methodologyID)
	require.Len(t, paths, 2)
}

func TestResolveMissingSourceErrors(t *testing.T) {
	dir := t.TempDir()
	bundlesDir := filepath.Join(dir, "bundles")
	writeFile(t, filepath.Join(bundlesDir, "b.yaml"), `
bundle_id: b
methodology_id: m
sources: [missing_source]
`)
	_, _, err := Resolve("b", bundlesDir, filepath.Join(dir, "sources"))
	require.Error(t, err)
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "bundle_id: only-id\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestPickMethodologyIDRespectsConfidenceThreshold(t *testing.T) {
	m := SourceManifest{}
	m.Signals.CandidateMethodologyIDs = []string{"power-of-one"}
	m.Signals.Confidence = 0.2
	require.Equal(t, "", PickMethodologyID(m, 0.3))

	m.Signals.Confidence = 0.5
	require.Equal(t, "power-of-one", PickMethodologyID(m, 0.3))
}

func TestAutoBundleGroupsByMethodologyID(t *testing.T) {
	sourcesDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sourcesDir, "book_a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(sourcesDir, "book_b"), 0o755))

	groups, err := AutoBundle(sourcesDir, 0.3, func(sourcePath string) (*SourceManifest, error) {
		m := &SourceManifest{}
		m.Signals.CandidateMethodologyIDs = []string{"power-of-one"}
		m.Signals.Confidence = 0.9
		return m, nil
	})
	require.NoError(t, err)
	require.Len(t, groups["power-of-one"], 2)
}
