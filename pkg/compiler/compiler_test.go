package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ormasoftchile/methopipe/pkg/outline"
	"github.com/stretchr/testify/require"
)

func order(n int) *int { return &n }

func sampleOutline() *outline.Outline {
	return &outline.Outline{
		Metadata:       outline.Metadata{ID: "accounting-basics", Title: "Accounting Basics"},
		Classification: outline.Classification{MethodologyType: "Diagnostic"},
		Structure: outline.Structure{
			Stages: []outline.Stage{
				{Title: "Сбор данных", Description: "Collect inputs", Order: order(1)},
				{Title: "Analyze", Description: "", Order: order(2)},
			},
			Tools: []outline.Tool{
				{Title: "Worksheet", Type: "Graph", Description: "chart tool"},
			},
			Indicators: []outline.Indicator{
				{Title: "Current Ratio", Description: "Liquidity", Formula: " a/b "},
			},
			Rules: []outline.Rule{
				{Condition: "x", Action: "flag", Severity: ""},
			},
		},
	}
}

func TestNormalizeAssignsStableIDsAndDefaults(t *testing.T) {
	m := Normalize(sampleOutline())

	require.Equal(t, "diagnostic", m.Classification.MethodologyType)
	require.Len(t, m.Structure.Stages, 2)
	require.Equal(t, "stage_001", m.Structure.Stages[0].ID)
	require.Equal(t, "stage_002", m.Structure.Stages[1].ID)
	require.Equal(t, "1", m.Structure.Stages[0].OrderDisplay)

	require.Equal(t, "ind_001", m.Structure.Indicators[0].ID)
	require.Equal(t, "Current Ratio", m.Structure.Indicators[0].Name)
	require.Equal(t, "a/b", m.Structure.Indicators[0].Formula)

	require.Equal(t, "chart", string(m.Structure.Tools[0].Type))
	require.Equal(t, "medium", m.Structure.Rules[0].Severity)
}

func TestNormalizePreservesDuplicatedAndResetSourceOrder(t *testing.T) {
	o := sampleOutline()
	// A real outline author can mis-number stages — e.g. after reordering
	// by hand, two stages are left declaring order=1. The Compiler must
	// carry that duplication through untouched: it is not its job to
	// renumber or dedupe, only the QA Reviewer's prechecks flag it.
	o.Structure.Stages = []outline.Stage{
		{Title: "Intake", Description: "first", Order: order(1)},
		{Title: "Reconcile", Description: "second", Order: order(1)},
		{Title: "Report", Description: "third", Order: nil},
	}

	m := Normalize(o)

	require.Len(t, m.Structure.Stages, 3)
	require.NotNil(t, m.Structure.Stages[0].Order)
	require.Equal(t, 1, *m.Structure.Stages[0].Order)
	require.NotNil(t, m.Structure.Stages[1].Order)
	require.Equal(t, 1, *m.Structure.Stages[1].Order)
	require.Nil(t, m.Structure.Stages[2].Order)

	// Position-derived fields still reflect 1-based position, independent
	// of the duplicated/absent source order.
	require.Equal(t, "stage_001", m.Structure.Stages[0].ID)
	require.Equal(t, "stage_002", m.Structure.Stages[1].ID)
	require.Equal(t, "stage_003", m.Structure.Stages[2].ID)
	require.Equal(t, "1", m.Structure.Stages[0].OrderDisplay)
	require.Equal(t, "2 (source order: 1)", m.Structure.Stages[1].OrderDisplay)
	require.Equal(t, "3", m.Structure.Stages[2].OrderDisplay)
}

func TestNormalizeFallsBackToPlaceholderForEmptyIndicatorNameAndTitle(t *testing.T) {
	o := sampleOutline()
	o.Structure.Indicators[0].Title = ""
	o.Structure.Indicators[0].Name = ""
	m := Normalize(o)
	require.Equal(t, "Indicator 1", m.Structure.Indicators[0].Name)
}

func TestSafeSlugTransliteratesAndCaps(t *testing.T) {
	require.Equal(t, "sbor_dannyh", safeSlug("Сбор данных"))
	require.Equal(t, "item", safeSlug(""))
	require.Equal(t, "item", safeSlug("---"))
}

func TestRenderDocsUsesFallbackTemplatesWhenDirMissing(t *testing.T) {
	m := Normalize(sampleOutline())
	docsDir := t.TempDir()

	require.NoError(t, RenderDocs(m, filepath.Join(docsDir, "no-such-templates"), docsDir))

	readme, err := os.ReadFile(filepath.Join(docsDir, "README.md"))
	require.NoError(t, err)
	require.Contains(t, string(readme), "Accounting Basics")

	entries, err := os.ReadDir(filepath.Join(docsDir, "stages"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestRenderDocsPrefersFileTemplateOverFallback(t *testing.T) {
	m := Normalize(sampleOutline())
	docsDir := t.TempDir()
	templatesDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "README.md.tmpl"), []byte("CUSTOM {{.Title}}"), 0o644))

	require.NoError(t, RenderDocs(m, templatesDir, docsDir))

	readme, err := os.ReadFile(filepath.Join(docsDir, "README.md"))
	require.NoError(t, err)
	require.Equal(t, "CUSTOM Accounting Basics", string(readme))
}
