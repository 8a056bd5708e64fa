// Package qualitygate implements the deterministic Quality Gate that runs
// against an outline immediately after agent B. It is pure and
// side-effect free: given the same outline it always returns the same
// verdict, with no external calls and no LLM in the loop.
package qualitygate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ormasoftchile/methopipe/pkg/outline"
)

// allowedSeverity is the Gate's own closed vocabulary for rule.severity,
// distinct from the QA Reviewer's blocker/major/minor scale — it is the
// vocabulary the outline's author writes in, ported verbatim from
// quality_gate.py's ALLOWED_SEVERITY.
var allowedSeverity = map[string]bool{
	"critical": true,
	"warning":  true,
	"info":     true,
	"low":      true,
}

// GateError is one failed check.
type GateError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metrics are always populated when the corresponding entity list is
// non-empty; a nil pointer means "not applicable" rather than zero.
type Metrics struct {
	NStages                int      `json:"n_stages"`
	EmptyStageDescRatio    *float64 `json:"empty_stage_desc_ratio"`
	OrderOK                *bool    `json:"order_ok"`
	NIndicators            int      `json:"n_indicators"`
	EmptyIndicatorDescRatio *float64 `json:"empty_indicator_desc_ratio"`
	FormulaNonEmptyRatio   *float64 `json:"formula_non_empty_ratio"`
	NRules                 int      `json:"n_rules"`
	SeverityOK             *bool    `json:"severity_ok"`
	DuplicateIndicators    *int     `json:"duplicate_indicators"`
}

// Result is the Gate's report, written verbatim to b_quality_gate.json.
type Result struct {
	Status  string      `json:"status"` // PASS or FAIL
	Metrics Metrics     `json:"metrics"`
	Errors  []GateError `json:"errors"`
}

func ptrF(v float64) *float64 { return &v }
func ptrB(v bool) *bool       { return &v }
func ptrI(v int) *int         { return &v }

func isEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

func normalizeName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, " ")
}

// Run evaluates all seven checks against o, in the order quality_gate.py
// runs them, and returns PASS iff none produced an error.
func Run(o *outline.Outline) Result {
	var errs []GateError
	var m Metrics

	stages := o.Structure.Stages
	indicators := o.Structure.Indicators
	rules := o.Structure.Rules

	// 1) Stage count
	m.NStages = len(stages)
	if m.NStages < 1 {
		errs = append(errs, GateError{"BQG_STAGE_COUNT", "stages must contain at least 1 item"})
	}

	// 2) Stage description coverage
	if m.NStages > 0 {
		empty := 0
		for _, s := range stages {
			if isEmpty(s.Description) {
				empty++
			}
		}
		ratio := float64(empty) / float64(m.NStages)
		m.EmptyStageDescRatio = ptrF(ratio)
		if empty > 0 {
			errs = append(errs, GateError{"BQG_STAGE_DESC_EMPTY", fmt.Sprintf("%d stage descriptions are empty", empty)})
		}
	}

	// 3) Stage order correctness: unique and exactly covers 1..N
	if m.NStages > 0 {
		orders := make([]int, 0, m.NStages)
		badOrder := false
		for _, s := range stages {
			if s.Order == nil {
				badOrder = true
				continue
			}
			orders = append(orders, *s.Order)
		}
		if badOrder {
			m.OrderOK = ptrB(false)
			errs = append(errs, GateError{"BQG_STAGE_ORDER_TYPE", "stage.order must be int for all stages"})
		} else {
			uniq := map[int]bool{}
			minO, maxO := orders[0], orders[0]
			for _, v := range orders {
				uniq[v] = true
				if v < minO {
					minO = v
				}
				if v > maxO {
					maxO = v
				}
			}
			ok := len(uniq) == m.NStages && minO == 1 && maxO == m.NStages
			m.OrderOK = ptrB(ok)
			if !ok {
				errs = append(errs, GateError{"BQG_STAGE_ORDER_RANGE", "stage.order must be unique and cover 1..N without gaps"})
			}
		}
	}

	// 4) Indicator description coverage (fail below 90%)
	m.NIndicators = len(indicators)
	if m.NIndicators > 0 {
		empty := 0
		for _, i := range indicators {
			if isEmpty(i.Description) {
				empty++
			}
		}
		ratio := float64(empty) / float64(m.NIndicators)
		m.EmptyIndicatorDescRatio = ptrF(ratio)
		if ratio > 0.10 {
			errs = append(errs, GateError{"BQG_IND_DESC_COVERAGE", "indicator description coverage below 90%"})
		}
	}

	// 5) Formula coverage is metrics-only; empty formulas never fail the
	// Gate (not every methodology type carries formulas).
	if m.NIndicators > 0 {
		nonEmpty := 0
		for _, i := range indicators {
			if !isEmpty(i.Formula) {
				nonEmpty++
			}
		}
		m.FormulaNonEmptyRatio = ptrF(float64(nonEmpty) / float64(m.NIndicators))
	}

	// 6) Severity enum validity
	m.NRules = len(rules)
	if m.NRules > 0 {
		var bad []string
		for _, r := range rules {
			if !allowedSeverity[r.Severity] {
				bad = append(bad, r.Severity)
			}
		}
		ok := len(bad) == 0
		m.SeverityOK = ptrB(ok)
		if !ok {
			errs = append(errs, GateError{"BQG_SEVERITY_ENUM", "invalid severity values: " + sortedUnique(bad)})
		}
	}

	// 7) Duplicate indicator names by normalized name
	if m.NIndicators > 0 {
		seen := map[string]bool{}
		dup := 0
		for _, i := range indicators {
			n := normalizeName(i.DisplayName())
			if seen[n] {
				dup++
			} else {
				seen[n] = true
			}
		}
		m.DuplicateIndicators = ptrI(dup)
		if dup > 0 {
			errs = append(errs, GateError{"BQG_IND_DUPES", fmt.Sprintf("duplicate indicators by normalized name: %d", dup)})
		}
	}

	status := "PASS"
	if len(errs) > 0 {
		status = "FAIL"
	}
	return Result{Status: status, Metrics: m, Errors: errs}
}

func sortedUnique(vals []string) string {
	seen := map[string]bool{}
	var uniq []string
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			uniq = append(uniq, v)
		}
	}
	sort.Strings(uniq)
	return "[" + strings.Join(uniq, ", ") + "]"
}
