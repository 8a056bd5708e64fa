package glossary

// Stub is an existing graph term with status "needs_definition" —
// created when the Graph Publisher references a glossary term_id it
// doesn't yet have a canonical definition for.
type Stub struct {
	Key  string
	Name string
}

// Match records how a stub resolved against the canonical set.
type Match struct {
	StubID      string `json:"stub_id"`
	CanonicalID string `json:"canonical_id"`
	MatchType   string `json:"match_type"` // "exact_id" or "name"
}

// Unknown is a stub that matched nothing in the canonical set.
type Unknown struct {
	StubID   string `json:"stub_id"`
	StubName string `json:"stub_name"`
}

// Report is the outcome of one Reconcile call. cmd/glossarysync writes
// MatchedDetails to merges_applied.json; nothing in this module rewrites
// stub documents in the graph (status=merged, merged_into=...).
type Report struct {
	TotalStubs      int       `json:"total_stubs"`
	Matched         int       `json:"matched"`
	Unmatched       int       `json:"unmatched"`
	MatchedDetails  []Match   `json:"matched_details"`
	UnknownTerms    []Unknown `json:"unknown_terms"`
}

// Reconcile matches stubs against canonical terms by exact term_id
// first, then by normalized name/alias, ported from __main__.py's
// reconcile_stubs without its AQL read/update: this function is pure
// and reads or writes no store.
func Reconcile(stubs []Stub, canonical []Term) Report {
	canonicalByKey := make(map[string]bool, len(canonical))
	nameIndex := map[string]string{}
	for _, t := range canonical {
		canonicalByKey[t.Key] = true
		nameIndex[NormalizeText(t.Name)] = t.Key
		for _, alias := range t.Aliases {
			nameIndex[NormalizeText(alias)] = t.Key
		}
	}

	var matched []Match
	var unmatched []Unknown
	for _, s := range stubs {
		if canonicalByKey[s.Key] {
			matched = append(matched, Match{StubID: s.Key, CanonicalID: s.Key, MatchType: "exact_id"})
			continue
		}
		if canonicalID, ok := nameIndex[NormalizeText(s.Name)]; ok {
			matched = append(matched, Match{StubID: s.Key, CanonicalID: canonicalID, MatchType: "name"})
			continue
		}
		unmatched = append(unmatched, Unknown{StubID: s.Key, StubName: s.Name})
	}

	return Report{
		TotalStubs:     len(stubs),
		Matched:        len(matched),
		Unmatched:      len(unmatched),
		MatchedDetails: matched,
		UnknownTerms:   unmatched,
	}
}
