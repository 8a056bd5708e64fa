// Package compiled defines the Compiled Methodology document — the
// output of the Compiler and the input to the QA Reviewer and the
// Graph Publisher. Every entity in it carries a stable, content-free ID
// so downstream steps can refer to it without re-deriving positions.
package compiled

import (
	"fmt"
	"regexp"
)

// ToolType is a closed vocabulary the Compiler normalizes free-text
// outline tool types into.
type ToolType string

const (
	ToolTable      ToolType = "table"
	ToolTemplate   ToolType = "template"
	ToolChecklist  ToolType = "checklist"
	ToolCalculator ToolType = "calculator"
	ToolDocument   ToolType = "document"
	ToolChart      ToolType = "chart"
	ToolOther      ToolType = "other"
)

// idPattern matches the stable ID scheme {kind}_{index:03d}.
var idPattern = regexp.MustCompile(`^(stage|tool|ind|rule)_\d{3}$`)

// ValidID reports whether id matches the stable ID scheme.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// MakeID formats the stable ID for kind at a 1-based position.
func MakeID(kind string, position int) string {
	return fmt.Sprintf("%s_%03d", kind, position)
}

// Metadata mirrors outline.Metadata, carried through unchanged.
type Metadata struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Classification mirrors outline.Classification.
type Classification struct {
	MethodologyType string `yaml:"methodology_type" json:"methodology_type"`
}

// Stage is a compiled stage with a stable ID. Order carries the
// outline author's original order value verbatim (nil when absent or
// non-integer) — ID and OrderDisplay are the fields derived from the
// stage's position.
type Stage struct {
	ID           string `yaml:"id" json:"id"`
	Title        string `yaml:"title" json:"title"`
	Description  string `yaml:"description" json:"description"`
	Order        *int   `yaml:"order" json:"order"`
	OrderDisplay string `yaml:"order_display" json:"order_display"`
}

// Indicator is a compiled indicator; Formula is always present, even if
// empty — the Compiler never drops the field.
type Indicator struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Formula     string `yaml:"formula" json:"formula"`
}

// Tool is a compiled tool with a normalized type.
type Tool struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Type        ToolType `yaml:"type" json:"type" jsonschema:"enum=table,enum=template,enum=checklist,enum=calculator,enum=document,enum=chart,enum=other"`
	Description string   `yaml:"description" json:"description"`
}

// Rule is a compiled rule. Severity is passed through from the outline
// (lowercased, defaulting to "medium") rather than re-validated here —
// the Quality Gate is the single enforcer of the severity vocabulary.
type Rule struct {
	ID        string `yaml:"id" json:"id"`
	Condition string `yaml:"condition" json:"condition"`
	Action    string `yaml:"action" json:"action"`
	Severity  string `yaml:"severity" json:"severity"`
}

// Structure groups the compiled entities.
type Structure struct {
	Stages     []Stage     `yaml:"stages" json:"stages"`
	Tools      []Tool      `yaml:"tools,omitempty" json:"tools,omitempty"`
	Indicators []Indicator `yaml:"indicators,omitempty" json:"indicators,omitempty"`
	Rules      []Rule      `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Methodology is the top-level compiled document, written to
// <data_dir>/methodologies/<id>.yaml (see WritePath).
type Methodology struct {
	Metadata       Metadata       `yaml:"metadata" json:"metadata"`
	Classification Classification `yaml:"classification" json:"classification"`
	Structure      Structure      `yaml:"structure" json:"structure"`
}
