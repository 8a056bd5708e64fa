package glossary

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Source records where a canonical term document came from, for
// lineage — mirrors __main__.py's build_source_meta.
type Source struct {
	Repo string `json:"repo"`
	Ref  string `json:"ref"`
	Path string `json:"path"`
	Agent string `json:"agent"`
}

// Term is the canonical glossary_terms document the Graph Publisher
// upserts. Key and TermID are always equal; Key exists separately
// because it is the field name the graph store's primary key uses.
type Term struct {
	Key         string   `json:"_key"`
	TermID      string   `json:"term_id"`
	Name        string   `json:"name"`
	Definition  string   `json:"definition"`
	Aliases     []string `json:"aliases"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	Version     string   `json:"version"`
	EntityType  string   `json:"entity_type"`
	ContentText string   `json:"content_text"`
	ContentHash string   `json:"content_hash"`
	Source      Source   `json:"source"`
}

// BuildTerm turns one free-form raw entry into a canonical Term,
// porting make_term_doc's field-aliasing rules exactly: the first
// non-empty of term_id/id/_key/slug/term/name/title becomes the ID.
func BuildTerm(raw map[string]any, source Source) (Term, error) {
	termIDRaw := firstNonEmpty(raw, "term_id", "id", "_key", "slug", "term", "name", "title")
	if termIDRaw == "" {
		return Term{}, fmt.Errorf("cannot determine term_id from entry: %v", raw)
	}
	termID := NormalizeTermID(termIDRaw)

	name := firstNonEmpty(raw, "name", "title")
	if name == "" {
		name = termID
	}

	definition := firstNonEmpty(raw, "definition", "desc", "description")

	aliases := stringList(raw, "aliases", "synonyms")
	tags := stringList(raw, "tags", "domain")

	version := firstNonEmpty(raw, "version")
	if version == "" {
		version = "1.0"
	}
	status := firstNonEmpty(raw, "status")
	if status == "" {
		status = "active"
	}

	contentText := strings.TrimSpace(strings.Join([]string{
		strings.TrimSpace(name),
		strings.TrimSpace(definition),
		strings.Join(aliases, " "),
		strings.Join(tags, " "),
	}, "\n"))

	sum := sha256.Sum256([]byte(contentText))

	return Term{
		Key:         termID,
		TermID:      termID,
		Name:        name,
		Definition:  definition,
		Aliases:     aliases,
		Tags:        tags,
		Status:      status,
		Version:     version,
		EntityType:  "term",
		ContentText: contentText,
		ContentHash: hex.EncodeToString(sum[:]),
		Source:      source,
	}, nil
}

// BuildCanonicalTerms converts every raw entry to a Term via BuildTerm
// and merges duplicates that collide on the same normalized term_id
// within the batch: aliases and tags union, and the first non-empty
// definition wins — ported from __main__.py's de-dup-in-batch loop.
func BuildCanonicalTerms(raws []RawTerm, source Source) (terms []Term, errs []error) {
	byKey := map[string]int{} // term_id -> index in terms
	for _, raw := range raws {
		doc, err := BuildTerm(raw.Fields, source)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", raw.SourceFile, err))
			continue
		}
		if idx, ok := byKey[doc.Key]; ok {
			existing := &terms[idx]
			existing.Aliases = unionSorted(existing.Aliases, doc.Aliases)
			existing.Tags = unionSorted(existing.Tags, doc.Tags)
			if existing.Definition == "" && doc.Definition != "" {
				existing.Definition = doc.Definition
			}
			continue
		}
		byKey[doc.Key] = len(terms)
		terms = append(terms, doc)
	}
	return terms, errs
}

func firstNonEmpty(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s := fmt.Sprint(v); strings.TrimSpace(s) != "" && v != nil {
				return s
			}
		}
	}
	return ""
}

// stringList reads the first present key as either a comma-separated
// string or a list, mirroring the Python's isinstance(x, str) branch.
func stringList(raw map[string]any, keys ...string) []string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			var out []string
			for _, part := range strings.Split(val, ",") {
				if p := strings.TrimSpace(part); p != "" {
					out = append(out, p)
				}
			}
			return out
		case []any:
			var out []string
			for _, item := range val {
				if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return nil
}

func unionSorted(a, b []string) []string {
	seen := map[string]bool{}
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		seen[s] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
