package glossary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawTerm is one glossary entry as authored: field names are free-form
// (term_id/id/slug/name/title, definition/desc/description, ...) and
// only get canonicalized in BuildTerm. SourceFile records which file it
// came from, for lineage.
type RawTerm struct {
	Fields     map[string]any
	SourceFile string
}

// LoadTerms walks dir and reads every *.yaml/*.yml/*.json file into a
// flat list of RawTerm, mirroring glossary_reader.py's
// load_glossary_terms: each file may hold a single mapping or a list of
// mappings.
func LoadTerms(dir string) ([]RawTerm, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("glossary dir not found: %s", dir)
	}

	var terms []RawTerm
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		lower := strings.ToLower(path)
		switch {
		case strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml"):
			items, rErr := readYAMLTerms(path)
			if rErr != nil {
				return rErr
			}
			terms = append(terms, items...)
		case strings.HasSuffix(lower, ".json"):
			items, rErr := readJSONTerms(path)
			if rErr != nil {
				return rErr
			}
			terms = append(terms, items...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return terms, nil
}

func readYAMLTerms(path string) ([]RawTerm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml %s: %w", path, err)
	}
	return ensureTermList(doc, path), nil
}

func readJSONTerms(path string) ([]RawTerm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json %s: %w", path, err)
	}
	return ensureTermList(doc, path), nil
}

// ensureTermList normalizes a decoded document (single mapping or list
// of mappings) into RawTerms, dropping any non-mapping list entries.
func ensureTermList(doc any, sourcePath string) []RawTerm {
	switch v := doc.(type) {
	case nil:
		return nil
	case map[string]any:
		return []RawTerm{{Fields: v, SourceFile: sourcePath}}
	case []any:
		var out []RawTerm
		for _, item := range v {
			if m, ok := asStringMap(item); ok {
				out = append(out, RawTerm{Fields: m, SourceFile: sourcePath})
			}
		}
		return out
	default:
		return nil
	}
}

// asStringMap coerces yaml.v3's map[string]interface{} (or JSON's
// identical shape) into a plain map[string]any.
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
