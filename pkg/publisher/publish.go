package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ormasoftchile/methopipe/internal/atomicfile"
	"github.com/ormasoftchile/methopipe/pkg/compiled"
	"github.com/ormasoftchile/methopipe/pkg/qa"
)

// Options configures one Publish call.
type Options struct {
	Store      GraphStore
	SkipQA     bool
	WorkDir    string // root of work/<id>/, where the QA report lives
	SourcePath string // repo-relative path stored as source.path for lineage (cmd/publisher passes sources/<book_id>)
	TermRefs   map[string][]string // entity ID -> referenced glossary term_ids
	Now        func() time.Time
}

// CollectionReport mirrors the original {inserted, updated} counters
// per collection, reported for both entities and edges.
type CollectionReport = UpsertResult

// Report is the publish receipt written to data/published/<id>.json.
type Report struct {
	MethodologyID string                      `json:"methodology_id"`
	PublishedAt   string                      `json:"published_at"`
	QAApproved    bool                        `json:"qa_approved"`
	Entities      map[string]CollectionReport `json:"entities"`
	Edges         map[string]CollectionReport `json:"edges"`
	Warnings      []string                    `json:"qa_warnings"`
}

// ErrNotApproved is returned when QA has not approved the methodology
// and SkipQA was not set.
type ErrNotApproved struct {
	Reason string
}

func (e *ErrNotApproved) Error() string { return "cannot publish: " + e.Reason }

// Publish projects a compiled methodology into opts.Store, refusing to
// run unless it is QA-approved (or SkipQA is set), and returns the
// publish Report that should be written to data/published/<id>.json.
func Publish(ctx context.Context, m *compiled.Methodology, opts Options) (*Report, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	approved := opts.SkipQA
	if !opts.SkipQA {
		report, err := qa.Load(opts.WorkDir)
		if err != nil {
			return nil, &ErrNotApproved{Reason: fmt.Sprintf("no QA report found: %v", err)}
		}
		if !report.Approved {
			return nil, &ErrNotApproved{Reason: fmt.Sprintf("QA not approved (score=%d)", report.Score)}
		}
		approved = true
	}

	source := Source{
		Repo:  "financial-methodologies-kb",
		Ref:   "main",
		Path:  opts.SourcePath,
		Agent: "graph-publisher",
	}

	entities := ExtractEntities(m)
	edges := ExtractEdges(m, opts.TermRefs)

	var warnings []string
	entityResults := map[string]UpsertResult{}
	for collection, docs := range entities {
		result, err := upsertAll(ctx, opts.Store, collection, docs, source, now)
		if err != nil {
			return nil, fmt.Errorf("upsert %s: %w", collection, err)
		}
		entityResults[collection] = result
	}

	edgeResults := map[string]UpsertResult{}
	for collection, list := range edges {
		result, collWarnings, err := upsertEdges(ctx, opts.Store, collection, list, source, now)
		if err != nil {
			return nil, fmt.Errorf("upsert edges %s: %w", collection, err)
		}
		edgeResults[collection] = result
		warnings = append(warnings, collWarnings...)
	}

	return &Report{
		MethodologyID: m.Metadata.ID,
		PublishedAt:   now().UTC().Format(time.RFC3339),
		QAApproved:    approved,
		Entities:      entityResults,
		Edges:         edgeResults,
		Warnings:      warnings,
	}, nil
}

// upsertAll upserts every doc in a collection, preserving created_at on
// documents that already existed (merge semantics per spec §4.5 step 3).
func upsertAll(ctx context.Context, store GraphStore, collection string, docs []Doc, source Source, now func() time.Time) (UpsertResult, error) {
	var result UpsertResult
	for _, d := range docs {
		existing, found, err := store.GetDocument(ctx, collection, d.Key)
		if err != nil {
			return result, err
		}

		fields := make(map[string]any, len(d.Fields)+4)
		for k, v := range d.Fields {
			fields[k] = v
		}
		fields["source"] = source
		fields["updated_at"] = now().UTC().Format(time.RFC3339)
		if found {
			if createdAt, ok := existing["created_at"]; ok {
				fields["created_at"] = createdAt
			} else {
				fields["created_at"] = fields["updated_at"]
			}
		} else {
			fields["created_at"] = fields["updated_at"]
		}

		inserted, err := store.UpsertDocument(ctx, collection, d.Key, fields)
		if err != nil {
			return result, err
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

// upsertEdges upserts every edge and applies the stub-creation rule:
// an edge targeting glossary_terms/<key> whose target doesn't exist
// creates a needs_definition stub and returns a warning.
func upsertEdges(ctx context.Context, store GraphStore, collection string, list []Edge, source Source, now func() time.Time) (UpsertResult, []string, error) {
	var result UpsertResult
	var warnings []string

	for _, e := range list {
		if termKey, ok := glossaryTermKey(e.To); ok {
			_, found, err := store.GetDocument(ctx, "glossary_terms", termKey)
			if err != nil {
				return result, warnings, err
			}
			if !found {
				name := termKey
				if tn, ok := e.Fields["term_name"].(string); ok && tn != "" {
					name = tn
				}
				if _, err := store.UpsertDocument(ctx, "glossary_terms", termKey, map[string]any{
					"term_id":    termKey,
					"name":       name,
					"definition": "",
					"aliases":    []string{},
					"status":     "needs_definition",
				}); err != nil {
					return result, warnings, err
				}
				warnings = append(warnings, fmt.Sprintf("created glossary stub for unresolved term %q", termKey))
			}
		}

		fields := make(map[string]any, len(e.Fields)+4)
		for k, v := range e.Fields {
			fields[k] = v
		}
		fields["_from"] = e.From
		fields["_to"] = e.To
		fields["source"] = source
		fields["created_at"] = now().UTC().Format(time.RFC3339)

		inserted, err := store.UpsertDocument(ctx, collection, e.Key, fields)
		if err != nil {
			return result, warnings, err
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}
	return result, warnings, nil
}

func glossaryTermKey(to string) (string, bool) {
	const prefix = "glossary_terms/"
	if len(to) > len(prefix) && to[:len(prefix)] == prefix {
		return to[len(prefix):], true
	}
	return "", false
}

// WriteReport writes the publish receipt to
// <publishedDir>/<methodology_id>.json.
func WriteReport(publishedDir string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal publish report: %w", err)
	}
	data = append(data, '\n')
	return atomicfile.Write(filepath.Join(publishedDir, r.MethodologyID+".json"), data, 0o644)
}
