package compiler

import (
	"fmt"

	"github.com/ormasoftchile/methopipe/pkg/compiled"
	"github.com/ormasoftchile/methopipe/pkg/outline"
)

// Options configures where a Compile run reads templates from and
// writes its docs to.
type Options struct {
	TemplatesDir string // "" disables file templates, using only fallbacks
	DocsDir      string
}

// Result summarizes one compile run, mirroring the counts the teacher's
// own CompileResult reports for a TSG compile.
type Result struct {
	Methodology *compiled.Methodology
	StageCount  int
	ToolCount   int
	IndCount    int
	RuleCount   int
}

// Compile normalizes o into a Compiled Methodology and renders its docs.
// It never calls an external service — the whole operation is a pure
// function of o plus whatever templates are on disk.
func Compile(o *outline.Outline, opts Options) (*Result, error) {
	m := Normalize(o)

	if opts.DocsDir != "" {
		if err := RenderDocs(m, opts.TemplatesDir, opts.DocsDir); err != nil {
			return nil, fmt.Errorf("render docs: %w", err)
		}
	}

	return &Result{
		Methodology: m,
		StageCount:  len(m.Structure.Stages),
		ToolCount:   len(m.Structure.Tools),
		IndCount:    len(m.Structure.Indicators),
		RuleCount:   len(m.Structure.Rules),
	}, nil
}
