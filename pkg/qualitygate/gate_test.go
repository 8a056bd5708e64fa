package qualitygate

import (
	"testing"

	"github.com/ormasoftchile/methopipe/pkg/outline"
	"github.com/stretchr/testify/require"
)

func order(n int) *int { return &n }

func validOutline() *outline.Outline {
	return &outline.Outline{
		Structure: outline.Structure{
			Stages: []outline.Stage{
				{Title: "Intake", Description: "Collect inputs", Order: order(1)},
				{Title: "Analyze", Description: "Compute indicators", Order: order(2)},
			},
			Indicators: []outline.Indicator{
				{Name: "Current Ratio", Description: "Liquidity measure", Formula: "assets / liabilities"},
			},
			Rules: []outline.Rule{
				{Condition: "ratio < 1", Action: "flag", Severity: "warning"},
			},
		},
	}
}

func TestRunPassesOnValidOutline(t *testing.T) {
	r := Run(validOutline())
	require.Equal(t, "PASS", r.Status)
	require.Empty(t, r.Errors)
	require.Equal(t, 2, r.Metrics.NStages)
}

func TestRunFailsOnEmptyStages(t *testing.T) {
	o := validOutline()
	o.Structure.Stages = nil
	r := Run(o)
	require.Equal(t, "FAIL", r.Status)
	require.Contains(t, codes(r), "BQG_STAGE_COUNT")
}

func TestRunFailsOnBadOrderRange(t *testing.T) {
	o := validOutline()
	o.Structure.Stages[1].Order = order(5)
	r := Run(o)
	require.Equal(t, "FAIL", r.Status)
	require.Contains(t, codes(r), "BQG_STAGE_ORDER_RANGE")
}

func TestRunFailsOnMissingOrder(t *testing.T) {
	o := validOutline()
	o.Structure.Stages[0].Order = nil
	r := Run(o)
	require.Contains(t, codes(r), "BQG_STAGE_ORDER_TYPE")
}

func TestRunFailsOnInvalidSeverity(t *testing.T) {
	o := validOutline()
	o.Structure.Rules[0].Severity = "urgent"
	r := Run(o)
	require.Contains(t, codes(r), "BQG_SEVERITY_ENUM")
}

func TestRunDoesNotFailOnEmptyFormulas(t *testing.T) {
	o := validOutline()
	o.Structure.Indicators[0].Formula = ""
	r := Run(o)
	require.Equal(t, "PASS", r.Status)
	require.NotNil(t, r.Metrics.FormulaNonEmptyRatio)
	require.Equal(t, 0.0, *r.Metrics.FormulaNonEmptyRatio)
}

func TestRunFailsOnDuplicateIndicatorNames(t *testing.T) {
	o := validOutline()
	o.Structure.Indicators = append(o.Structure.Indicators, outline.Indicator{
		Name: "current  ratio", Description: "dup", Formula: "x",
	})
	r := Run(o)
	require.Contains(t, codes(r), "BQG_IND_DUPES")
}

func codes(r Result) []string {
	var out []string
	for _, e := range r.Errors {
		out = append(out, e.Code)
	}
	return out
}
