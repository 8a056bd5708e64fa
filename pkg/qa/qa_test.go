package qa

import (
	"context"
	"strings"
	"testing"

	"github.com/ormasoftchile/methopipe/pkg/compiled"
	"github.com/stretchr/testify/require"
)

func ptrI(v int) *int { return &v }

func wellFormedMethodology() *compiled.Methodology {
	return &compiled.Methodology{
		Metadata:       compiled.Metadata{ID: "accounting-basics", Title: "Accounting Basics"},
		Classification: compiled.Classification{MethodologyType: "diagnostic"},
		Structure: compiled.Structure{
			Stages: []compiled.Stage{
				{ID: "stage_001", Title: "Intake", Description: "Collect inputs", Order: ptrI(1), OrderDisplay: "1"},
				{ID: "stage_002", Title: "Analyze", Description: "Compute ratios", Order: ptrI(2), OrderDisplay: "2"},
			},
			Indicators: []compiled.Indicator{
				{ID: "ind_001", Name: "Current Ratio", Description: "Liquidity", Formula: "assets / liabilities"},
			},
			Tools: []compiled.Tool{
				{ID: "tool_001", Title: "Worksheet", Type: compiled.ToolTemplate, Description: "a template"},
			},
			Rules: []compiled.Rule{
				{ID: "rule_001", Condition: "ratio < 1", Action: "flag", Severity: "medium"},
			},
		},
	}
}

func wellFormedDocs() DocsInfo {
	return DocsInfo{
		READMEExists: true,
		READMEText:   "stage_001 Intake, stage_002 Analyze",
		StageFiles:   2,
	}
}

func TestReviewApprovesWellFormedDocument(t *testing.T) {
	r := Review(context.Background(), wellFormedMethodology(), Options{Docs: wellFormedDocs()})
	require.True(t, r.Approved, "issues: %+v", r.Issues)
	require.Equal(t, 100, r.Score)
}

func TestReviewFlagsMissingREADME(t *testing.T) {
	r := Review(context.Background(), wellFormedMethodology(), Options{Docs: DocsInfo{}})
	require.False(t, r.Approved)
	require.Contains(t, ids(r.Issues), "DOCS-001")
}

func TestReviewFlagsDuplicateIndicatorNames(t *testing.T) {
	m := wellFormedMethodology()
	m.Structure.Indicators = append(m.Structure.Indicators, compiled.Indicator{
		ID: "ind_002", Name: "current ratio", Description: "dup", Formula: "x",
	})
	r := Review(context.Background(), m, Options{Docs: wellFormedDocs()})
	require.False(t, r.Approved)
	require.Contains(t, prefixes(r.Issues), "DUP-IND")
}

func TestReviewFlagsOrderReset(t *testing.T) {
	m := wellFormedMethodology()
	m.Structure.Stages[1].Order = ptrI(1)
	r := Review(context.Background(), m, Options{Docs: wellFormedDocs()})
	require.False(t, r.Approved)
	require.Contains(t, prefixes(r.Issues), "ORDER-RESET")
}

func TestEmptyFormulaCodesAreMutuallyExclusive(t *testing.T) {
	m := wellFormedMethodology()
	m.Structure.Indicators[0].Formula = ""
	r := Review(context.Background(), m, Options{Docs: wellFormedDocs()})
	has001, has002 := false, false
	for _, it := range r.Issues {
		if it.ID == "EMPTY-FORM-001" {
			has001 = true
		}
		if it.ID == "EMPTY-FORM-002" {
			has002 = true
		}
	}
	require.True(t, has001)
	require.False(t, has002)
}

func TestEmptyFormulaMajorBelow100Percent(t *testing.T) {
	m := wellFormedMethodology()
	m.Structure.Indicators = []compiled.Indicator{
		{ID: "ind_001", Name: "A", Formula: ""},
		{ID: "ind_002", Name: "B", Formula: ""},
		{ID: "ind_003", Name: "C", Formula: ""},
		{ID: "ind_004", Name: "D", Formula: "x=1"},
	}
	r := Review(context.Background(), m, Options{Docs: wellFormedDocs()})
	require.Contains(t, ids(r.Issues), "EMPTY-FORM-002")
	require.NotContains(t, ids(r.Issues), "EMPTY-FORM-001")
}

func TestPrecheckRuleConditionFlagsUnparsableExpression(t *testing.T) {
	m := wellFormedMethodology()
	m.Structure.Rules[0].Condition = "ratio <"
	r := Review(context.Background(), m, Options{Docs: wellFormedDocs()})
	require.Contains(t, prefixes(r.Issues), "COND-SYNTAX")
}

func TestScoreClampsToZero(t *testing.T) {
	issues := make([]Issue, 10)
	for i := range issues {
		issues[i] = Issue{Severity: Blocker}
	}
	require.Equal(t, 0, Score(issues, 1.0, 1.0, true))
}

func TestDecideFailsOnThreeMajors(t *testing.T) {
	issues := []Issue{{Severity: Major}, {Severity: Major}, {Severity: Major}}
	require.False(t, Decide(issues))
}

func TestDecidePassesOnTwoMajors(t *testing.T) {
	issues := []Issue{{Severity: Major}, {Severity: Major}}
	require.True(t, Decide(issues))
}

func ids(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, it := range issues {
		out[i] = it.ID
	}
	return out
}

func prefixes(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, it := range issues {
		prefix := it.ID
		if i := strings.LastIndex(prefix, "-"); i > 0 {
			prefix = prefix[:i]
		}
		out = append(out, prefix)
	}
	return out
}
