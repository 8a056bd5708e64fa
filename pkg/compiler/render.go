package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
	"github.com/ormasoftchile/methopipe/pkg/compiled"
)

// Fallback templates used when templatesDir doesn't exist or doesn't
// contain the named file, ported from compiler.py's FALLBACK_* constants.
const (
	fallbackREADME = `# {{.Title}}

## Methodology type
- **methodology_type:** {{.MethodologyType}}

## Stages
{{range $i, $s := .Stages}}{{inc $i}}. **{{$s.Title}}** — {{$s.Description}}
{{end}}
## Sections
- Stages: ` + "`./stages/`" + `
- Tools: ` + "`./tools/`" + `
- Indicators: ` + "`./indicators/`" + `
- Rules: ` + "`./rules/`" + `
`

	fallbackStage = `# {{.Title}}

## Description
{{.Description}}

## Order
{{.OrderDisplay}}
`

	fallbackTool = `# {{.Title}}

## Type
{{.Type}}

## Description
{{.Description}}
`

	fallbackIndicator = `# {{.Name}}

## Description
{{.Description}}
{{if .Formula}}
## Formula
` + "`{{.Formula}}`" + `
{{end}}`

	fallbackRule = `# Rule {{.ID}}

## Condition
{{.Condition}}

## Action
{{.Action}}

## Severity
{{.Severity}}
`
)

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// loadTemplate reads name from templatesDir if it exists there,
// otherwise parses fallback. Both branches use missingkey=error so an
// undefined field fails loudly instead of rendering "<no value>",
// matching Jinja2's StrictUndefined.
func loadTemplate(templatesDir, name, fallback string) (*template.Template, error) {
	if templatesDir != "" {
		path := filepath.Join(templatesDir, name)
		if data, err := os.ReadFile(path); err == nil {
			t, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(string(data))
			if err != nil {
				return nil, fmt.Errorf("parse template %s: %w", path, err)
			}
			return t, nil
		}
	}
	t, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("parse fallback template %s: %w", name, err)
	}
	return t, nil
}

// RenderDocs renders README.md and one Markdown file per stage, tool,
// indicator and rule under docsDir, using templatesDir's .md.tmpl files
// when present and the built-in fallbacks otherwise.
func RenderDocs(m *compiled.Methodology, templatesDir, docsDir string) error {
	readmeTpl, err := loadTemplate(templatesDir, "README.md.tmpl", fallbackREADME)
	if err != nil {
		return err
	}
	stageTpl, err := loadTemplate(templatesDir, "stage.md.tmpl", fallbackStage)
	if err != nil {
		return err
	}
	toolTpl, err := loadTemplate(templatesDir, "tool.md.tmpl", fallbackTool)
	if err != nil {
		return err
	}
	indTpl, err := loadTemplate(templatesDir, "indicator.md.tmpl", fallbackIndicator)
	if err != nil {
		return err
	}
	ruleTpl, err := loadTemplate(templatesDir, "rule.md.tmpl", fallbackRule)
	if err != nil {
		return err
	}

	type readmeData struct {
		Title            string
		MethodologyType  string
		Stages           []compiled.Stage
	}
	if err := renderTo(readmeTpl, filepath.Join(docsDir, "README.md"), readmeData{
		Title:           m.Metadata.Title,
		MethodologyType: m.Classification.MethodologyType,
		Stages:          m.Structure.Stages,
	}); err != nil {
		return fmt.Errorf("render README: %w", err)
	}

	for _, s := range m.Structure.Stages {
		fname := fmt.Sprintf("%s_%s.md", s.ID, safeSlug(s.Title))
		if err := renderTo(stageTpl, filepath.Join(docsDir, "stages", fname), s); err != nil {
			return fmt.Errorf("render stage %s: %w", s.ID, err)
		}
	}
	for _, t := range m.Structure.Tools {
		fname := fmt.Sprintf("%s_%s.md", t.ID, safeSlug(t.Title))
		if err := renderTo(toolTpl, filepath.Join(docsDir, "tools", fname), t); err != nil {
			return fmt.Errorf("render tool %s: %w", t.ID, err)
		}
	}
	for _, i := range m.Structure.Indicators {
		fname := fmt.Sprintf("%s_%s.md", i.ID, safeSlug(i.Name))
		if err := renderTo(indTpl, filepath.Join(docsDir, "indicators", fname), i); err != nil {
			return fmt.Errorf("render indicator %s: %w", i.ID, err)
		}
	}
	for _, r := range m.Structure.Rules {
		fname := fmt.Sprintf("%s.md", r.ID)
		if err := renderTo(ruleTpl, filepath.Join(docsDir, "rules", fname), r); err != nil {
			return fmt.Errorf("render rule %s: %w", r.ID, err)
		}
	}
	return nil
}

func renderTo(t *template.Template, path string, data any) error {
	var buf []byte
	w := &sliceWriter{buf: &buf}
	if err := t.Execute(w, data); err != nil {
		return err
	}
	return atomicfile.Write(path, buf, 0o644)
}

// sliceWriter adapts a []byte accumulator to io.Writer so template
// execution can be captured before the atomic write.
type sliceWriter struct{ buf *[]byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}
