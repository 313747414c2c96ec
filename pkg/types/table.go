package types

import "context"

// Table provides document storage for a single named collection.
// Entities are Documents; identifiers are Values of a hashable kind.
type Table interface {
	// Store inserts doc. When doc has no identifier one is generated with
	// GenerateIdentifier and set on doc. Returns the identifier used.
	Store(ctx context.Context, doc *Document) (Value, error)

	// FindOne returns the document with the given identifier.
	// Returns ErrNotFound if none exists.
	FindOne(ctx context.Context, id Value) (*Document, error)

	// FindOneMatching returns the first document matching q.
	// Returns ErrNotFound if none matches.
	FindOneMatching(ctx context.Context, q Query) (*Document, error)

	// Find returns every document matching q, ordered by sort.
	Find(ctx context.Context, q Query, sort Sort) ([]*Document, error)

	// Update replaces every document matching q with doc, keeping each
	// document's identifier. Returns the number of documents replaced.
	Update(ctx context.Context, q Query, doc *Document) (int, error)

	// UpdateByID replaces the document with the given identifier.
	// Returns ErrNotFound if none exists.
	UpdateByID(ctx context.Context, id Value, doc *Document) error

	// Delete removes the document with the given identifier.
	// Returns ErrNotFound if none exists.
	Delete(ctx context.Context, id Value) error

	// GenerateIdentifier returns a fresh identifier for this table.
	GenerateIdentifier() Value
}

// Database gives access to tables by name. Callers attach to a backend,
// access tables, and detach when done.
type Database interface {
	// GetTable returns the Table for the given name, creating it on first use.
	// Returns ErrInvalidTableName for an empty or malformed name.
	GetTable(name string) (Table, error)

	// Attach connects to the backend described by config.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	// After Detach, GetTable returns ErrDatabaseDetached.
	Detach() error
}

// Query is an equality filter over top-level fields. The zero Query
// matches every document.
type Query map[string]Value

// Matches reports whether doc holds an equal value for every field in q.
func (q Query) Matches(doc Object) bool {
	for name, want := range q {
		got, ok := doc.Get(StringKey(name))
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// SortOrder is the direction of a sort field.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// SortField orders documents by one top-level field.
type SortField struct {
	Field string
	Order SortOrder
}

// Sort is an ordered list of sort fields; earlier fields take precedence.
// A nil Sort leaves the backend's natural order.
type Sort []SortField

// Less reports whether a sorts before b. Missing fields sort as null.
func (s Sort) Less(a, b Object) bool {
	for _, f := range s {
		av, _ := a.Get(StringKey(f.Field))
		bv, _ := b.Get(StringKey(f.Field))
		c := Compare(av, bv)
		if c == 0 {
			continue
		}
		if f.Order == Descending {
			return c > 0
		}
		return c < 0
	}
	return false
}
