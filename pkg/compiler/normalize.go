// Package compiler implements the Compiler (agent C): a pure,
// non-generative transform from an Outline into a Compiled Methodology
// plus its rendered Markdown docs. It never calls an LLM and never adds
// a fact the outline didn't already contain — only IDs, normalized
// enums, and formatting are added.
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ormasoftchile/methopipe/pkg/compiled"
	"github.com/ormasoftchile/methopipe/pkg/outline"
)

// toolTypeMap normalizes free-text outline tool types to the closed
// ToolType vocabulary, ported from compiler.py's normalize_tool_type.
var toolTypeMap = map[string]compiled.ToolType{
	"table":      compiled.ToolTable,
	"template":   compiled.ToolTemplate,
	"checklist":  compiled.ToolChecklist,
	"calculator": compiled.ToolCalculator,
	"document":   compiled.ToolDocument,
	"chart":      compiled.ToolChart,
	"graph":      compiled.ToolChart,
	"map":        compiled.ToolOther,
}

func normalizeToolType(t string) compiled.ToolType {
	if v, ok := toolTypeMap[strings.ToLower(strings.TrimSpace(t))]; ok {
		return v
	}
	return compiled.ToolOther
}

// Normalize transforms o into a Compiled Methodology. It assigns stable
// IDs by 1-based position within each entity list, normalizes tool
// types, fills indicator name from the legacy title alias, substitutes
// positional placeholders ("Stage N", "Tool N", "Indicator N") for
// blank titles/names, defaults an empty methodology_type to "analysis",
// and lowercases rule severity (defaulting to "medium").
func Normalize(o *outline.Outline) *compiled.Methodology {
	m := &compiled.Methodology{
		Metadata: compiled.Metadata{
			ID:          o.Metadata.ID,
			Title:       o.Metadata.Title,
			Description: o.Metadata.Description,
			Tags:        o.Metadata.Tags,
		},
		Classification: compiled.Classification{
			MethodologyType: strings.ToLower(strings.TrimSpace(o.Classification.MethodologyType)),
		},
	}
	if m.Classification.MethodologyType == "" {
		m.Classification.MethodologyType = string(outline.Analysis)
	}

	for idx, s := range o.Structure.Stages {
		pos := idx + 1
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = fmt.Sprintf("Stage %d", pos)
		}
		display := strconv.Itoa(pos)
		if s.Order != nil && *s.Order != pos {
			display = fmt.Sprintf("%d (source order: %d)", pos, *s.Order)
		}
		m.Structure.Stages = append(m.Structure.Stages, compiled.Stage{
			ID:           compiled.MakeID("stage", pos),
			Title:        title,
			Description:  strings.TrimSpace(s.Description),
			Order:        s.Order,
			OrderDisplay: display,
		})
	}

	for idx, t := range o.Structure.Tools {
		pos := idx + 1
		title := strings.TrimSpace(t.Title)
		if title == "" {
			title = fmt.Sprintf("Tool %d", pos)
		}
		m.Structure.Tools = append(m.Structure.Tools, compiled.Tool{
			ID:          compiled.MakeID("tool", pos),
			Title:       title,
			Type:        normalizeToolType(t.Type),
			Description: strings.TrimSpace(t.Description),
		})
	}

	for idx, i := range o.Structure.Indicators {
		pos := idx + 1
		name := strings.TrimSpace(i.DisplayName())
		if name == "" {
			name = fmt.Sprintf("Indicator %d", pos)
		}
		m.Structure.Indicators = append(m.Structure.Indicators, compiled.Indicator{
			ID:          compiled.MakeID("ind", pos),
			Name:        name,
			Description: strings.TrimSpace(i.Description),
			Formula:     strings.TrimSpace(i.Formula),
		})
	}

	for idx, r := range o.Structure.Rules {
		pos := idx + 1
		severity := strings.ToLower(strings.TrimSpace(r.Severity))
		if severity == "" {
			severity = "medium"
		}
		m.Structure.Rules = append(m.Structure.Rules, compiled.Rule{
			ID:        compiled.MakeID("rule", pos),
			Condition: strings.TrimSpace(r.Condition),
			Action:    strings.TrimSpace(r.Action),
			Severity:  severity,
		})
	}

	return m
}
