package glossary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTermIDPrefixesAndSlugifies(t *testing.T) {
	require.Equal(t, "term_ebitda", NormalizeTermID("EBITDA"))
	require.Equal(t, "term_current_ratio", NormalizeTermID("Current Ratio"))
	require.Equal(t, "term_current_ratio", NormalizeTermID("term_current_ratio"))
}

func TestNormalizeTextFoldsYoAndCollapsesWhitespace(t *testing.T) {
	require.Equal(t, "учет", NormalizeText("  Учёт  "))
	require.Equal(t, "a b", NormalizeText("A   B"))
}

func TestBuildTermDerivesIDFromFallbackFields(t *testing.T) {
	term, err := BuildTerm(map[string]any{
		"title":      "Current Ratio",
		"desc":       "liquidity measure",
		"synonyms":   "CR, liquidity ratio",
		"domain":     []any{"liquidity", "ratios"},
	}, Source{Agent: "glossary-sync"})
	require.NoError(t, err)
	require.Equal(t, "term_current_ratio", term.Key)
	require.Equal(t, "Current Ratio", term.Name)
	require.Equal(t, "liquidity measure", term.Definition)
	require.ElementsMatch(t, []string{"CR", "liquidity ratio"}, term.Aliases)
	require.ElementsMatch(t, []string{"liquidity", "ratios"}, term.Tags)
	require.Equal(t, "active", term.Status)
	require.Equal(t, "1.0", term.Version)
	require.NotEmpty(t, term.ContentHash)
}

func TestBuildTermRejectsEntryWithNoID(t *testing.T) {
	_, err := BuildTerm(map[string]any{"definition": "orphan"}, Source{})
	require.Error(t, err)
}

func TestBuildCanonicalTermsMergesDuplicatesInBatch(t *testing.T) {
	raws := []RawTerm{
		{Fields: map[string]any{"name": "EBITDA", "aliases": "EBIT margin", "definition": ""}},
		{Fields: map[string]any{"name": "ebitda", "tags": "profitability", "definition": "earnings measure"}},
	}
	terms, errs := BuildCanonicalTerms(raws, Source{})
	require.Empty(t, errs)
	require.Len(t, terms, 1)
	require.Equal(t, "earnings measure", terms[0].Definition)
	require.Contains(t, terms[0].Aliases, "EBIT margin")
	require.Contains(t, terms[0].Tags, "profitability")
}

func TestLoadTermsReadsYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("- name: EBITDA\n  definition: x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"name": "Current Ratio", "definition": "y"}`), 0o644))

	terms, err := LoadTerms(dir)
	require.NoError(t, err)
	require.Len(t, terms, 2)
}

func TestLoadTermsMissingDirErrors(t *testing.T) {
	_, err := LoadTerms(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestReconcileMatchesByExactIDThenName(t *testing.T) {
	canonical := []Term{
		{Key: "term_ebitda", Name: "EBITDA", Aliases: []string{"EBIT Margin"}},
	}
	stubs := []Stub{
		{Key: "term_ebitda", Name: "EBITDA"},
		{Key: "term_stub_2", Name: "ebit margin"},
		{Key: "term_stub_3", Name: "unrelated thing"},
	}
	report := Reconcile(stubs, canonical)
	require.Equal(t, 3, report.TotalStubs)
	require.Equal(t, 2, report.Matched)
	require.Equal(t, 1, report.Unmatched)
	require.Equal(t, "exact_id", report.MatchedDetails[0].MatchType)
}
