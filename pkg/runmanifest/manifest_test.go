package runmanifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := New("run_001", "accounting-basics", "sources/book_01", Policy{RequireGatePass: true}, now)
	m.AddStep(StepRecord{
		Name:        "outline",
		Status:      StepOK,
		Artifacts:   []string{"outline_accounting-basics.yaml"},
		StartedAt:   now.Format(time.RFC3339),
		EndedAt:     now.Add(time.Second).Format(time.RFC3339),
		DurationSec: 1,
	})
	approved := true
	blockers := 0
	m.QA = QARecord{Approved: &approved, Blockers: &blockers, GateStatus: "PASS"}

	require.NoError(t, m.Write(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "run_001", loaded.RunID)
	require.Len(t, loaded.Steps, 1)
	require.Equal(t, StepOK, loaded.Steps[0].Status)
	require.True(t, *loaded.QA.Approved)
}

func TestLoadMissingManifestErrors(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}
