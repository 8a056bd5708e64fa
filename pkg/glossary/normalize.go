// Package glossary implements the Glossary Sync step (agent G): reading
// canonical glossary term files from the filesystem, building stable
// _key/term_id documents out of their free-form fields, and
// reconciling existing "needs_definition" stubs in the graph against
// the canonical set. It never talks to the graph store directly — that
// is pkg/publisher's job — so it can be tested without a database.
package glossary

import (
	"regexp"
	"strings"
)

var (
	nonWordRun  = regexp.MustCompile(`[^\p{L}\p{N}_\-:]+`)
	underscores = regexp.MustCompile(`_+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// NormalizeText lowercases, folds ё to е and collapses whitespace, for
// fuzzy name/alias matching during reconciliation.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ё", "е")
	s = whitespace.ReplaceAllString(s, " ")
	return s
}

// NormalizeTermID derives a stable term_id / _key from free text:
// lowercase, non-word runs become underscores, underscores collapse,
// and the result is prefixed with "term_" unless already present.
func NormalizeTermID(s string) string {
	t := NormalizeText(s)
	t = nonWordRun.ReplaceAllString(t, "_")
	t = underscores.ReplaceAllString(t, "_")
	t = strings.Trim(t, "_")
	if !strings.HasPrefix(t, "term_") {
		t = "term_" + t
	}
	return t
}
