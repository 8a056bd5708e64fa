package compiled

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptrI(v int) *int { return &v }

func sampleMethodology() *Methodology {
	return &Methodology{
		Metadata:       Metadata{ID: "accounting-basics", Title: "Accounting Basics"},
		Classification: Classification{MethodologyType: "diagnostic"},
		Structure: Structure{
			Stages: []Stage{
				{ID: "stage_001", Title: "Intake", Description: "Collect inputs", Order: ptrI(1), OrderDisplay: "1"},
			},
			Indicators: []Indicator{
				{ID: "ind_001", Name: "Current Ratio", Description: "Liquidity", Formula: "a/b"},
			},
			Tools: []Tool{
				{ID: "tool_001", Title: "Worksheet", Type: ToolTemplate, Description: "a template"},
			},
			Rules: []Rule{
				{ID: "rule_001", Condition: "ratio < 1", Action: "flag", Severity: "medium"},
			},
		},
	}
}

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	errs := Validate(sampleMethodology())
	require.Empty(t, errs)
}

func TestValidIDAcceptsStableScheme(t *testing.T) {
	require.True(t, ValidID("stage_001"))
	require.True(t, ValidID("ind_042"))
	require.False(t, ValidID("stage_1"))
	require.False(t, ValidID("bogus_001"))
}

func TestMakeIDFormatsWithZeroPadding(t *testing.T) {
	require.Equal(t, "tool_003", MakeID("tool", 3))
	require.Equal(t, "rule_012", MakeID("rule", 12))
}
