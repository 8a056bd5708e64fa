package qa

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/ormasoftchile/methopipe/pkg/compiled"
)

var formulaControlChars = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F]")
var formulaRatioWords = regexp.MustCompile(`\b(ratio|margin|roi|roa|roe|turnover)\b`)

// precheckSchema runs Layer-1's schema check and turns every violation
// into a BLOCKER issue, one SCHEMA-NNN per violation.
func precheckSchema(m *compiled.Methodology) []Issue {
	var issues []Issue
	for idx, e := range compiled.Validate(m) {
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("SCHEMA-%03d", idx+1),
			Severity: Blocker,
			Category: "schema",
			Message:  e.Message,
			Evidence: Evidence{Pointer: e.Path},
			FixHint:  "Fix the Compiler output or the schema mismatch.",
		})
	}
	return issues
}

// precheckIDs verifies every entity ID matches the stable scheme and
// flags duplicates, ported from reviewer.py's precheck_ids.
func precheckIDs(m *compiled.Methodology) []Issue {
	var issues []Issue

	check := func(kind string, ids []string) {
		seen := map[string]bool{}
		for i, id := range ids {
			if !compiled.ValidID(id) || !strings.HasPrefix(id, kind+"_") {
				issues = append(issues, Issue{
					ID:       fmt.Sprintf("ID-%s-%03d", strings.ToUpper(kind), i+1),
					Severity: Major,
					Category: "ids",
					Message:  fmt.Sprintf("invalid %s id: %q", kind, id),
					Evidence: Evidence{Pointer: fmt.Sprintf("/structure/%ss/%d", kind, i)},
					FixHint:  fmt.Sprintf("ensure %s ids follow the pattern %s_NNN", kind, kind),
				})
			}
			if seen[id] {
				issues = append(issues, Issue{
					ID:       fmt.Sprintf("ID-DUP-%s-%03d", strings.ToUpper(kind), i+1),
					Severity: Blocker,
					Category: "ids",
					Message:  fmt.Sprintf("duplicate %s id: %q", kind, id),
					Evidence: Evidence{Pointer: fmt.Sprintf("/structure/%ss/%d", kind, i)},
					FixHint:  "ensure IDs are unique (Compiler normalization bug).",
				})
			}
			seen[id] = true
		}
	}

	stageIDs := make([]string, len(m.Structure.Stages))
	for i, s := range m.Structure.Stages {
		stageIDs[i] = s.ID
	}
	toolIDs := make([]string, len(m.Structure.Tools))
	for i, t := range m.Structure.Tools {
		toolIDs[i] = t.ID
	}
	indIDs := make([]string, len(m.Structure.Indicators))
	for i, ind := range m.Structure.Indicators {
		indIDs[i] = ind.ID
	}
	ruleIDs := make([]string, len(m.Structure.Rules))
	for i, r := range m.Structure.Rules {
		ruleIDs[i] = r.ID
	}

	check("stage", stageIDs)
	check("tool", toolIDs)
	check("ind", indIDs)
	check("rule", ruleIDs)
	return issues
}

// DocsInfo carries the caller-gathered facts about the rendered docs
// (README presence and text, stage file count) so
// precheckDocsConsistency and precheckREADMECoverage don't need direct
// filesystem access, keeping them unit-testable.
type DocsInfo struct {
	READMEExists bool
	READMEText   string
	StageFiles   int
}

func precheckDocsConsistency(m *compiled.Methodology, docs DocsInfo) []Issue {
	if !docs.READMEExists {
		return []Issue{{
			ID:       "DOCS-001",
			Severity: Blocker,
			Category: "docs",
			Message:  "README.md not found for methodology docs.",
			FixHint:  "Run the Compiler to generate docs/methodologies/<id>/README.md",
		}}
	}

	stages := m.Structure.Stages
	if len(stages) == 0 {
		return nil
	}
	if docs.StageFiles != len(stages) {
		return []Issue{{
			ID:       "DOCS-003",
			Severity: Major,
			Category: "docs",
			Message:  fmt.Sprintf("stage docs count mismatch: yaml=%d files=%d", len(stages), docs.StageFiles),
			FixHint:  "Re-run the Compiler; ensure stage ids are stable and file naming matches.",
		}}
	}
	return nil
}

func precheckDuplicateIndicators(m *compiled.Methodology) []Issue {
	seen := map[string][]int{}
	for idx, ind := range m.Structure.Indicators {
		name := strings.TrimSpace(ind.Name)
		if name == "" {
			continue
		}
		norm := normalize(name)
		seen[norm] = append(seen[norm], idx)
	}
	var issues []Issue
	for norm, indices := range seen {
		if len(indices) <= 1 {
			continue
		}
		ids := make([]string, len(indices))
		for i, idx := range indices {
			ids[i] = m.Structure.Indicators[idx].ID
		}
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("DUP-IND-%03d", indices[0]+1),
			Severity: Blocker,
			Category: "duplicates",
			Message:  fmt.Sprintf("duplicate indicator name %q found at %d locations: %s", norm, len(indices), strings.Join(ids, ", ")),
			FixHint:  "merge duplicate indicators or rename to distinguish different contexts.",
		})
	}
	return issues
}

func precheckDuplicateStageTitles(m *compiled.Methodology) []Issue {
	seen := map[string][]int{}
	for idx, s := range m.Structure.Stages {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			continue
		}
		norm := normalizeTitle(title)
		seen[norm] = append(seen[norm], idx)
	}
	var issues []Issue
	for norm, indices := range seen {
		if len(indices) <= 1 {
			continue
		}
		ids := make([]string, len(indices))
		for i, idx := range indices {
			ids[i] = m.Structure.Stages[idx].ID
		}
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("DUP-STAGE-%03d", indices[0]+1),
			Severity: Major,
			Category: "duplicates",
			Message:  fmt.Sprintf("duplicate stage title %q found at %d locations: %s", norm, len(indices), strings.Join(ids, ", ")),
			FixHint:  "merge duplicate stages or rename to distinguish different contexts.",
		})
	}
	return issues
}

// precheckStageOrder enforces that order=1 only ever appears on the
// first stage and that no declared order value repeats. Stages whose
// Order is nil (absent or non-integer in the source outline) carry no
// ordering claim and are skipped by both checks.
func precheckStageOrder(m *compiled.Methodology) []Issue {
	var issues []Issue
	seenOrders := map[int][]int{}
	for idx, s := range m.Structure.Stages {
		if s.Order == nil {
			continue
		}
		seenOrders[*s.Order] = append(seenOrders[*s.Order], idx)
		if *s.Order == 1 && idx > 0 {
			issues = append(issues, Issue{
				ID:       fmt.Sprintf("ORDER-RESET-%03d", idx+1),
				Severity: Blocker,
				Category: "stage_order",
				Message:  fmt.Sprintf("stage %d has order=1 but is not the first stage (broken numbering)", idx+1),
				FixHint:  "the Compiler should renumber stages sequentially (1..N).",
			})
		}
	}
	for order, indices := range seenOrders {
		if len(indices) <= 1 {
			continue
		}
		ids := make([]string, len(indices))
		for i, idx := range indices {
			ids[i] = m.Structure.Stages[idx].ID
		}
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("ORDER-DUP-%03d", order),
			Severity: Major,
			Category: "stage_order",
			Message:  fmt.Sprintf("duplicate order=%d found at %d stages: %s", order, len(indices), strings.Join(ids, ", ")),
			FixHint:  "ensure each stage has a unique order value.",
		})
	}
	return issues
}

// precheckEmptyFormulas applies only to formula-bearing methodology
// types and is exclusive between its two codes: 100% empty always
// wins over the >70% warning, never both.
func precheckEmptyFormulas(m *compiled.Methodology, threshold float64) []Issue {
	inds := m.Structure.Indicators
	total := len(inds)
	if total == 0 {
		return nil
	}
	mtype := m.Classification.MethodologyType
	if mtype != "diagnostic" && mtype != "analysis" && mtype != "optimization" {
		return nil
	}

	empty := 0
	for _, ind := range inds {
		if strings.TrimSpace(ind.Formula) == "" {
			empty++
		}
	}
	ratio := float64(empty) / float64(total)

	if ratio >= 1.0 {
		return []Issue{{
			ID:       "EMPTY-FORM-001",
			Severity: Blocker,
			Category: "completeness",
			Message:  fmt.Sprintf("all %d indicators have empty formulas (methodology_type=%s)", total, mtype),
			FixHint:  "extract formulas from source text or mark methodology_type as 'planning' if not applicable.",
		}}
	}
	if ratio > threshold {
		return []Issue{{
			ID:       "EMPTY-FORM-002",
			Severity: Major,
			Category: "completeness",
			Message:  fmt.Sprintf("%d/%d (%.0f%%) indicators have empty formulas (threshold=%.0f%%)", empty, total, ratio*100, threshold*100),
			FixHint:  "extract formulas from source text or trim indicators without a clear definition.",
		}}
	}
	return nil
}

// precheckFormulas runs cheap syntax checks — not mathematical
// truth — and returns (issues, pass ratio over checked formulas).
func precheckFormulas(m *compiled.Methodology) ([]Issue, float64) {
	var issues []Issue
	checked, passed := 0, 0

	for idx, ind := range m.Structure.Indicators {
		formula := strings.TrimSpace(ind.Formula)
		if formula == "" {
			continue
		}
		checked++

		if formulaControlChars.MatchString(formula) {
			issues = append(issues, Issue{
				ID:       fmt.Sprintf("FORM-%03d", idx+1),
				Severity: Major,
				Category: "formula",
				Message:  "formula contains control/garbage characters.",
				Evidence: Evidence{Pointer: fmt.Sprintf("/structure/indicators/%d/formula", idx), Snippet: truncate(formula, 120)},
				FixHint:  "clean extraction / normalize formula text.",
			})
			continue
		}

		if !parensBalanced(formula) {
			issues = append(issues, Issue{
				ID:       fmt.Sprintf("FORM-PAREN-%03d", idx+1),
				Severity: Major,
				Category: "formula",
				Message:  "unbalanced parentheses in formula.",
				Evidence: Evidence{Pointer: fmt.Sprintf("/structure/indicators/%d/formula", idx), Snippet: truncate(formula, 120)},
				FixHint:  "fix parentheses or extraction errors.",
			})
			continue
		}

		if formulaRatioWords.MatchString(strings.ToLower(formula)) && !strings.Contains(formula, "=") {
			issues = append(issues, Issue{
				ID:       fmt.Sprintf("FORM-EQ-%03d", idx+1),
				Severity: Minor,
				Category: "formula",
				Message:  "formula looks like a definition but '=' is missing.",
				Evidence: Evidence{Pointer: fmt.Sprintf("/structure/indicators/%d/formula", idx), Snippet: truncate(formula, 120)},
				FixHint:  "write as 'X = ...' if it is a definition, otherwise ignore.",
			})
			passed++
			continue
		}
		passed++
	}

	ratio := 1.0
	if checked > 0 {
		ratio = float64(passed) / float64(checked)
	}
	return issues, ratio
}

// precheckRuleCondition supplements the distillation: reviewer.py never
// checks rule.condition syntax. Each non-empty condition must at least
// compile as a boolean expr-lang expression.
func precheckRuleCondition(m *compiled.Methodology) []Issue {
	var issues []Issue
	env := map[string]any{} // permissive: identifiers resolve to nil
	for idx, r := range m.Structure.Rules {
		cond := strings.TrimSpace(r.Condition)
		if cond == "" {
			continue
		}
		if _, err := expr.Compile(cond, expr.Env(env), expr.AllowUndefinedVariables(), expr.AsBool()); err != nil {
			issues = append(issues, Issue{
				ID:       fmt.Sprintf("COND-SYNTAX-%03d", idx+1),
				Severity: Minor,
				Category: "rule_condition",
				Message:  fmt.Sprintf("rule condition does not parse as an expression: %v", err),
				Evidence: Evidence{Pointer: fmt.Sprintf("/structure/rules/%d/condition", idx), Snippet: truncate(cond, 120)},
				FixHint:  "rewrite the condition as a boolean expression over stage/indicator variables.",
			})
		}
	}
	return issues
}

// precheckGlossary checks that every referenced term_id exists in the
// known glossary. coverage is 1.0 when no glossary was supplied at all
// (nothing to check against) or no references exist.
func precheckGlossary(referencedTermIDs []string, known map[string]bool) ([]Issue, float64) {
	if known == nil {
		return nil, 1.0
	}
	var issues []Issue
	total, ok := 0, 0
	for idx, tid := range referencedTermIDs {
		if tid == "" {
			continue
		}
		total++
		if known[tid] {
			ok++
			continue
		}
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("GLOSS-%03d", idx+1),
			Severity: Blocker,
			Category: "glossary",
			Message:  fmt.Sprintf("glossary term_id not found: %q", tid),
			Evidence: Evidence{Pointer: fmt.Sprintf("/glossary_references/found_terms/%d/term_id", idx)},
			FixHint:  "add the term to the glossary or replace with an existing term_id.",
		})
	}
	coverage := 1.0
	if total > 0 {
		coverage = float64(ok) / float64(total)
	}
	return issues, coverage
}

// precheckREADMECoverage checks that the rendered README mentions each
// stage's ID or title.
func precheckREADMECoverage(m *compiled.Methodology, readmeText string) []Issue {
	stages := m.Structure.Stages
	if len(stages) == 0 || readmeText == "" {
		return nil
	}
	lower := strings.ToLower(readmeText)
	found := 0
	var missing []string
	for _, s := range stages {
		title := strings.ToLower(strings.TrimSpace(s.Title))
		if strings.Contains(lower, strings.ToLower(s.ID)) || (title != "" && strings.Contains(lower, title)) {
			found++
		} else {
			missing = append(missing, s.ID)
		}
	}
	ratio := float64(found) / float64(len(stages))

	switch {
	case ratio < 0.5:
		return []Issue{{
			ID:       "README-COV-001",
			Severity: Blocker,
			Category: "docs",
			Message:  fmt.Sprintf("README.md covers only %d/%d (%.0f%%) stages", found, len(stages), ratio*100),
			Evidence: Evidence{Snippet: "missing: " + strings.Join(capList(missing, 5), ", ")},
			FixHint:  "re-run the Compiler to generate a complete README covering all stages.",
		}}
	case ratio < 0.8:
		return []Issue{{
			ID:       "README-COV-002",
			Severity: Major,
			Category: "docs",
			Message:  fmt.Sprintf("README.md incomplete: %d/%d (%.0f%%) stages documented", found, len(stages), ratio*100),
			FixHint:  "complete README generation to include all stages.",
		}}
	}
	return nil
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "ё", "е")
}

func normalizeTitle(s string) string {
	fields := strings.Fields(normalize(s))
	return strings.Join(fields, " ")
}

func parensBalanced(s string) bool {
	bal := 0
	for _, ch := range s {
		switch ch {
		case '(':
			bal++
		case ')':
			bal--
			if bal < 0 {
				return false
			}
		}
	}
	return bal == 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func capList(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return append(append([]string{}, items[:n]...), "...")
}
