package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/ormasoftchile/methopipe/pkg/compiled"
	"github.com/ormasoftchile/methopipe/pkg/publisher/publishertest"
	"github.com/ormasoftchile/methopipe/pkg/qa"
	"github.com/stretchr/testify/require"
)

func ptrI(v int) *int { return &v }

func sampleMethodology() *compiled.Methodology {
	return &compiled.Methodology{
		Metadata:       compiled.Metadata{ID: "accounting-basics", Title: "Accounting Basics", Description: "intro", Tags: []string{"finance"}},
		Classification: compiled.Classification{MethodologyType: "diagnostic"},
		Structure: compiled.Structure{
			Stages: []compiled.Stage{
				{ID: "stage_001", Title: "Intake", Description: "collect inputs", Order: ptrI(1), OrderDisplay: "1"},
			},
			Indicators: []compiled.Indicator{
				{ID: "ind_001", Name: "Current Ratio", Description: "liquidity", Formula: "assets / liabilities"},
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

func fixedNow() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func TestExtractEntitiesComputesContentHash(t *testing.T) {
	m := sampleMethodology()
	entities := ExtractEntities(m)
	require.Len(t, entities["methodologies"], 1)
	hash, ok := entities["methodologies"][0].Fields["content_hash"].(string)
	require.True(t, ok)
	require.Len(t, hash, 64)
}

func TestExtractEdgesKeysAreDeterministic(t *testing.T) {
	m := sampleMethodology()
	edgesA := ExtractEdges(m, nil)
	edgesB := ExtractEdges(m, nil)
	require.Equal(t, edgesA["methodology_has_stage"][0].Key, edgesB["methodology_has_stage"][0].Key)
	require.Len(t, edgesA["methodology_has_stage"][0].Key, 32)
}

func TestExtractEdgesCreatesTermReferenceEdges(t *testing.T) {
	m := sampleMethodology()
	edges := ExtractEdges(m, map[string][]string{"ind_001": {"term_ebitda"}})
	require.Len(t, edges["indicator_uses_term"], 1)
	require.Equal(t, "indicators/ind_001", edges["indicator_uses_term"][0].From)
	require.Equal(t, "glossary_terms/term_ebitda", edges["indicator_uses_term"][0].To)
}

func TestPublishRefusesWithoutApprovedQA(t *testing.T) {
	dir := t.TempDir()
	store := publishertest.NewMemStore()
	_, err := Publish(context.Background(), sampleMethodology(), Options{
		Store: store, WorkDir: dir, Now: fixedNow,
	})
	require.Error(t, err)
	var notApproved *ErrNotApproved
	require.ErrorAs(t, err, &notApproved)
}

func TestPublishSkipQABypassesApprovalCheck(t *testing.T) {
	store := publishertest.NewMemStore()
	report, err := Publish(context.Background(), sampleMethodology(), Options{
		Store: store, SkipQA: true, Now: fixedNow,
	})
	require.NoError(t, err)
	require.True(t, report.QAApproved)
	require.Equal(t, 1, report.Entities["methodologies"].Inserted)
	require.Equal(t, 1, report.Entities["stages"].Inserted)
}

func TestPublishWithApprovedQAWritesEntitiesAndEdges(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, qa.Write(dir, &qa.Report{BookID: "accounting-basics", Approved: true, Score: 95}))

	store := publishertest.NewMemStore()
	report, err := Publish(context.Background(), sampleMethodology(), Options{
		Store: store, WorkDir: dir, Now: fixedNow,
	})
	require.NoError(t, err)
	require.True(t, report.QAApproved)
	require.Equal(t, 1, report.Edges["methodology_has_stage"].Inserted)

	stage, found, err := store.GetDocument(context.Background(), "stages", "stage_001")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Intake", stage["title"])
}

func TestPublishPreservesCreatedAtOnSecondRun(t *testing.T) {
	store := publishertest.NewMemStore()
	m := sampleMethodology()

	first, err := Publish(context.Background(), m, Options{Store: store, SkipQA: true, Now: fixedNow})
	require.NoError(t, err)
	require.Equal(t, 1, first.Entities["methodologies"].Inserted)

	laterNow := func() time.Time { return fixedNow().Add(24 * time.Hour) }
	second, err := Publish(context.Background(), m, Options{Store: store, SkipQA: true, Now: laterNow})
	require.NoError(t, err)
	require.Equal(t, 1, second.Entities["methodologies"].Updated)
	require.Equal(t, 0, second.Entities["methodologies"].Inserted)

	doc, found, err := store.GetDocument(context.Background(), "methodologies", "accounting-basics")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, fixedNow().UTC().Format(time.RFC3339), doc["created_at"])
	require.Equal(t, laterNow().UTC().Format(time.RFC3339), doc["updated_at"])
}

func TestPublishCreatesGlossaryStubForUnresolvedTerm(t *testing.T) {
	store := publishertest.NewMemStore()
	m := sampleMethodology()

	report, err := Publish(context.Background(), m, Options{
		Store:    store,
		SkipQA:   true,
		Now:      fixedNow,
		TermRefs: map[string][]string{"ind_001": {"term_ebitda"}},
	})
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)

	stub, found, err := store.GetDocument(context.Background(), "glossary_terms", "term_ebitda")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "needs_definition", stub["status"])
}
