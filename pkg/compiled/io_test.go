package compiled

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWritePathMatchesDataDirMethodologiesLayout(t *testing.T) {
	require.Equal(t, filepath.Join("data", "methodologies", "accounting-basics.yaml"), WritePath("data", "accounting-basics"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := WritePath(dir, "accounting-basics")
	m := sampleMethodology()

	require.NoError(t, Save(path, m))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, m.Metadata.ID, loaded.Metadata.ID)
	require.Equal(t, m.Structure.Stages[0].ID, loaded.Structure.Stages[0].ID)
	require.Equal(t, *m.Structure.Stages[0].Order, *loaded.Structure.Stages[0].Order)
}
