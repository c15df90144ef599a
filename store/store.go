// Package store provides the key-value store boundary for the ontology engine.
package store

import (
	"context"
)

// Item is a stored record in wire-neutral form. Values are the JSON-ish
// scalar set: string, float64, bool, []any, map[string]any.
type Item map[string]any

// Key identifies a single item, e.g. {"id": "..."} or {"slug": "..."}.
type Key map[string]any

// Condition expresses a single-item conditional write. All set clauses must
// hold for the write to be applied; a violated condition yields
// ErrConditionFailed. This is the engine's only compare-and-swap primitive.
type Condition struct {
	// NotExists names an attribute that must be absent. Applied to the key
	// attribute it guards against overwriting an existing item.
	NotExists string

	// Exists names an attribute that must be present.
	Exists string

	// Equals requires each named attribute to equal the given value.
	Equals map[string]any
}

// QueryInput targets a table or secondary index with an equality key
// condition plus an optional equality filter applied server-side.
type QueryInput struct {
	Table string

	// Index is the secondary index name, empty for the base table.
	Index string

	// Key is the equality condition on the (index) hash key.
	Key map[string]any

	// Filter is an equality filter on non-key attributes.
	Filter map[string]any

	Limit      int32
	StartToken string
}

// ScanInput reads a whole table with an optional equality filter.
type ScanInput struct {
	Table      string
	Filter     map[string]any
	Limit      int32
	StartToken string
}

// Page is one page of query or scan results.
type Page struct {
	Items []Item
	Count int

	// NextToken is the opaque pagination token for the next page,
	// empty when the result set is exhausted.
	NextToken string
}

// Adapter is the store boundary consumed by the registry, the CRUD engine and
// the link resolver. Implementations must support single-item conditional
// writes and pagination tokens; multi-item transactions are never assumed.
type Adapter interface {
	// Get returns the item at key, or ErrNotFound.
	Get(ctx context.Context, table string, key Key) (Item, error)

	// Put writes item, honoring cond when non-nil.
	Put(ctx context.Context, table string, item Item, cond *Condition) error

	// Update applies patch to the item at key, honoring cond when non-nil,
	// and returns the item as stored after the write.
	Update(ctx context.Context, table string, key Key, patch Item, cond *Condition) (Item, error)

	// Delete removes the item at key, honoring cond when non-nil.
	Delete(ctx context.Context, table string, key Key, cond *Condition) error

	// Query reads by hash-key equality against a table or secondary index.
	Query(ctx context.Context, input QueryInput) (*Page, error)

	// Scan reads the whole table with an optional filter.
	Scan(ctx context.Context, input ScanInput) (*Page, error)
}
