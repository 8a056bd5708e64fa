// Package outline defines the outline document produced by the upstream
// interpreter (agent B) and consumed by the Quality Gate and the
// Compiler. It is the first document this module reads from disk.
package outline

import "fmt"

// MethodologyType is a closed vocabulary; ParseMethodologyType rejects
// anything not in this list rather than passing an unknown value through.
type MethodologyType string

const (
	Diagnostic   MethodologyType = "diagnostic"
	Planning     MethodologyType = "planning"
	Analysis     MethodologyType = "analysis"
	Optimization MethodologyType = "optimization"
	Standard     MethodologyType = "standard"
)

// ParseMethodologyType validates s against the closed vocabulary above.
func ParseMethodologyType(s string) (MethodologyType, error) {
	switch MethodologyType(s) {
	case Diagnostic, Planning, Analysis, Optimization, Standard:
		return MethodologyType(s), nil
	default:
		return "", fmt.Errorf("unknown methodology_type %q", s)
	}
}

// FormulaBearing reports whether this methodology type is expected to
// carry non-empty indicator formulas (used by the empty-formula checks).
func (t MethodologyType) FormulaBearing() bool {
	switch t {
	case Diagnostic, Analysis, Optimization:
		return true
	default:
		return false
	}
}

// Metadata carries document-level identification fields.
type Metadata struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// Classification carries the methodology's type.
type Classification struct {
	MethodologyType string `yaml:"methodology_type"`
}

// Stage is one step of a methodology. Order, when present, is the
// author's declared 1-based position; it need not match the stage's
// position in the Stages slice.
type Stage struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Order       *int   `yaml:"order,omitempty"`
}

// Indicator is a measurable quantity a stage computes or consumes.
// Name is the canonical field; Title is accepted as a legacy alias.
type Indicator struct {
	Name        string `yaml:"name,omitempty"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Formula     string `yaml:"formula,omitempty"`
}

// DisplayName returns Name, falling back to Title.
func (i Indicator) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Title
}

// Tool is a named instrument (template, checklist, calculator, ...)
// a stage uses.
type Tool struct {
	Title       string `yaml:"title"`
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Rule is a conditional action expressed against stage/indicator state.
type Rule struct {
	Condition string `yaml:"condition,omitempty"`
	Action    string `yaml:"action,omitempty"`
	Severity  string `yaml:"severity,omitempty"`
}

// Structure groups the methodology's content entities.
type Structure struct {
	Stages     []Stage     `yaml:"stages,omitempty"`
	Tools      []Tool      `yaml:"tools,omitempty"`
	Indicators []Indicator `yaml:"indicators,omitempty"`
	Rules      []Rule      `yaml:"rules,omitempty"`
}

// Outline is the top-level document read from outline_<id>.yaml.
type Outline struct {
	Metadata       Metadata       `yaml:"metadata"`
	Classification Classification `yaml:"classification"`
	Structure      Structure      `yaml:"structure"`
}
