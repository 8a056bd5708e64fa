package qa

import (
	"context"

	"github.com/ormasoftchile/methopipe/pkg/compiled"
)

// Options configures one Review call.
type Options struct {
	Docs              DocsInfo
	GlossaryTermIDs    []string // term_ids the methodology references
	KnownGlossaryTerms map[string]bool
	Reasoner           ReasoningClient
	EmptyFormulaThreshold float64 // defaults to 0.7 when zero
}

// Report is the QA Reviewer's verdict, written to qa_result.json.
type Report struct {
	BookID    string   `json:"book_id"`
	Approved  bool     `json:"approved"`
	Score     int      `json:"score"`
	Issues    []Issue  `json:"issues"`
	Strengths []string `json:"strengths,omitempty"`
}

// Review runs the full Layer-1 deterministic precheck suite, optionally
// followed by a single Layer-2 reasoning call, and returns the combined
// verdict.
func Review(ctx context.Context, m *compiled.Methodology, opts Options) *Report {
	threshold := opts.EmptyFormulaThreshold
	if threshold == 0 {
		threshold = 0.7
	}

	var issues []Issue
	schemaIssues := precheckSchema(m)
	issues = append(issues, schemaIssues...)
	issues = append(issues, precheckIDs(m)...)
	issues = append(issues, precheckDocsConsistency(m, opts.Docs)...)
	issues = append(issues, precheckDuplicateIndicators(m)...)
	issues = append(issues, precheckStageOrder(m)...)
	issues = append(issues, precheckDuplicateStageTitles(m)...)
	issues = append(issues, precheckREADMECoverage(m, opts.Docs.READMEText)...)

	glossIssues, glossaryCoverage := precheckGlossary(opts.GlossaryTermIDs, opts.KnownGlossaryTerms)
	issues = append(issues, glossIssues...)

	formulaIssues, formulaRatio := precheckFormulas(m)
	issues = append(issues, formulaIssues...)
	issues = append(issues, precheckEmptyFormulas(m, threshold)...)
	issues = append(issues, precheckRuleCondition(m)...)

	var strengths []string
	if opts.Reasoner != nil {
		summary := buildReasoningSummary(m)
		result := RunReasoningLayer(ctx, opts.Reasoner, summary)
		issues = append(issues, result.Issues...)
		strengths = result.Strengths
	}

	schemaOK := len(schemaIssues) == 0
	return &Report{
		BookID:    m.Metadata.ID,
		Approved:  Decide(issues),
		Score:     Score(issues, glossaryCoverage, formulaRatio, schemaOK),
		Issues:    issues,
		Strengths: strengths,
	}
}

func buildReasoningSummary(m *compiled.Methodology) ReasoningSummary {
	toMap := func(v any) map[string]any {
		data, _ := toStringMap(v)
		return data
	}

	var stages, tools, indicators, rules []map[string]any
	for _, s := range m.Structure.Stages {
		stages = append(stages, toMap(s))
	}
	for _, t := range m.Structure.Tools {
		tools = append(tools, toMap(t))
	}
	for _, i := range m.Structure.Indicators {
		indicators = append(indicators, toMap(i))
	}
	for _, r := range m.Structure.Rules {
		rules = append(rules, toMap(r))
	}

	return ReasoningSummary{
		BookID:          m.Metadata.ID,
		Title:           m.Metadata.Title,
		MethodologyType: m.Classification.MethodologyType,
		Stages:          stages,
		Tools:           tools,
		Indicators:      indicators,
		Rules:           rules,
	}
}
