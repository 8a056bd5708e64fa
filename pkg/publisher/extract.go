package publisher

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ormasoftchile/methopipe/pkg/compiled"
)

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// edgeKey computes the deterministic edge _key = hash(_from|_to|relation)[:32],
// per spec §3's graph document model.
func edgeKey(from, to, relation string) string {
	sum := sha256.Sum256([]byte(from + "|" + to + "|" + relation))
	return hex.EncodeToString(sum[:])[:32]
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(strings.Fields(strings.Join(kept, " ")), " ")
}

// ExtractEntities builds every collection's Doc list from a compiled
// methodology, computing content_text/content_hash per entity. It does
// not set created_at/updated_at or source — Publish stamps those at
// upsert time, since whether created_at is preserved depends on
// whether the document already existed.
func ExtractEntities(m *compiled.Methodology) map[string][]Doc {
	entities := map[string][]Doc{
		"methodologies": nil,
		"stages":        nil,
		"tools":         nil,
		"indicators":    nil,
		"rules":         nil,
	}

	methodText := joinNonEmpty(m.Metadata.Title, m.Metadata.Description, strings.Join(m.Metadata.Tags, " "))
	entities["methodologies"] = append(entities["methodologies"], Doc{
		Key: m.Metadata.ID,
		Fields: map[string]any{
			"methodology_id":   m.Metadata.ID,
			"title":            m.Metadata.Title,
			"methodology_type": m.Classification.MethodologyType,
			"description":      m.Metadata.Description,
			"tags":             m.Metadata.Tags,
			"content_text":     methodText,
			"content_hash":     contentHash(methodText),
		},
	})

	for _, s := range m.Structure.Stages {
		text := joinNonEmpty(s.Title, s.Description)
		entities["stages"] = append(entities["stages"], Doc{
			Key: s.ID,
			Fields: map[string]any{
				"stage_id":      s.ID,
				"title":         s.Title,
				"description":   s.Description,
				"order":         s.Order,
				"order_display": s.OrderDisplay,
				"content_text":  text,
				"content_hash":  contentHash(text),
			},
		})
	}

	for _, t := range m.Structure.Tools {
		text := joinNonEmpty(t.Title, t.Description)
		entities["tools"] = append(entities["tools"], Doc{
			Key: t.ID,
			Fields: map[string]any{
				"tool_id":      t.ID,
				"title":        t.Title,
				"type":         string(t.Type),
				"description":  t.Description,
				"content_text": text,
				"content_hash": contentHash(text),
			},
		})
	}

	for _, ind := range m.Structure.Indicators {
		text := joinNonEmpty(ind.Name, ind.Description, ind.Formula)
		entities["indicators"] = append(entities["indicators"], Doc{
			Key: ind.ID,
			Fields: map[string]any{
				"indicator_id": ind.ID,
				"name":         ind.Name,
				"description":  ind.Description,
				"formula":      ind.Formula,
				"content_text": text,
				"content_hash": contentHash(text),
			},
		})
	}

	for _, r := range m.Structure.Rules {
		text := joinNonEmpty(r.Condition, r.Action)
		entities["rules"] = append(entities["rules"], Doc{
			Key: r.ID,
			Fields: map[string]any{
				"rule_id":      r.ID,
				"condition":    r.Condition,
				"action":       r.Action,
				"severity":     r.Severity,
				"content_text": text,
				"content_hash": contentHash(text),
			},
		})
	}

	return entities
}

// collectionForEntityID infers an entity's collection from its stable
// ID prefix ({kind}_{index:03d}), so a flat termRefs key list doesn't
// need a parallel collection map.
func collectionForEntityID(id string) string {
	switch {
	case strings.HasPrefix(id, "stage_"):
		return "stages"
	case strings.HasPrefix(id, "tool_"):
		return "tools"
	case strings.HasPrefix(id, "ind_"):
		return "indicators"
	case strings.HasPrefix(id, "rule_"):
		return "rules"
	default:
		return "methodologies"
	}
}

// collectionSingular maps a collection name to the singular noun
// spec.md's "<entity>_uses_term" template uses, e.g. "stages" ->
// "stage" so a term reference from a stage produces a
// "stage_uses_term" edge.
var collectionSingular = map[string]string{
	"methodologies": "methodology",
	"stages":        "stage",
	"tools":         "tool",
	"indicators":    "indicator",
	"rules":         "rule",
}

// ExtractEdges builds every edge collection's list for a compiled
// methodology, using spec.md §3's closed edge vocabulary exactly:
// methodology_has_stage, stage_uses_tool, stage_uses_indicator,
// stage_has_rule, indicator_depends_on, <entity>_uses_term,
// term_relates_to, chunk_of.
//
// The compiled Structure is flat — stages, tools, indicators and
// rules are sibling lists, not nested per-stage the way
// original_source/pipeline/agents/agent_e.py's input is — so this
// module has no per-stage tool/indicator/rule assignment to derive
// stage_uses_tool, stage_uses_indicator, or stage_has_rule edges from.
// Those three collections, along with indicator_depends_on (which the
// Python reference itself declares but never populates) and chunk_of
// (no chunking/embedding agent exists in this pipeline), are declared
// here with the right names so the Publisher's collection-reporting
// stays complete, but are always empty. term_relates_to likewise has
// no source: this module's glossary model carries aliases folded into
// one canonical term, not a separate related-term graph. termRefs maps
// an entity ID to the glossary term_ids it references, for the
// <entity>_uses_term edges and the stub-creation rule.
func ExtractEdges(m *compiled.Methodology, termRefs map[string][]string) map[string][]Edge {
	edges := map[string][]Edge{
		"methodology_has_stage": nil,
		"stage_uses_tool":       nil,
		"stage_uses_indicator":  nil,
		"stage_has_rule":        nil,
		"indicator_depends_on":  nil,
		"term_relates_to":       nil,
		"chunk_of":              nil,
	}

	methodologyFrom := "methodologies/" + m.Metadata.ID

	for _, s := range m.Structure.Stages {
		to := "stages/" + s.ID
		edges["methodology_has_stage"] = append(edges["methodology_has_stage"], Edge{
			Key: edgeKey(methodologyFrom, to, "methodology_has_stage"), From: methodologyFrom, To: to,
			Fields: map[string]any{"order": s.Order},
		})
	}

	for entityID, termIDs := range termRefs {
		collection := collectionForEntityID(entityID)
		from := collection + "/" + entityID
		relation := collectionSingular[collection] + "_uses_term"
		if _, ok := edges[relation]; !ok {
			edges[relation] = nil
		}
		for _, termID := range termIDs {
			to := "glossary_terms/" + termID
			edges[relation] = append(edges[relation], Edge{
				Key: edgeKey(from, to, relation), From: from, To: to,
				Fields: map[string]any{"term_id": termID},
			})
		}
	}

	return edges
}
