package publisher

import "context"

// UpsertResult reports one collection's upsert outcome, matching the
// {inserted, updated} shape the original db client returns per
// collection.
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// GraphStore is the graph database the Publisher writes to. It is
// deliberately narrow — get one document, upsert one document — so a
// fake store can back tests without any network access, and a real one
// needs only implement these two calls plus lifecycle.
type GraphStore interface {
	// GetDocument returns the existing document at collection/key, or
	// found=false if it doesn't exist.
	GetDocument(ctx context.Context, collection, key string) (doc map[string]any, found bool, err error)

	// UpsertDocument inserts or replaces collection/key with fields,
	// returning whether this call inserted a new document.
	UpsertDocument(ctx context.Context, collection, key string, fields map[string]any) (inserted bool, err error)

	Close() error
}
