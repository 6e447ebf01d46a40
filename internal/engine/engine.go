// Package engine is the capability boundary between amansearch and the
// full-text engine that owns tokenization, scoring and on-disk segments.
//
// Callers open short-lived [ReadHandle]s for searching and a long-lived
// [Writer] per index for mutation. The bleve implementation ([Bleve]) shares
// one open engine index per location between the writer and every read
// handle, so read handles never block writes and are cheap to open.
package engine

import (
	"context"

	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/amansearch/internal/directory"
)

// Reserved stored fields written on every document.
const (
	// FieldID holds the entity's integer identifier as text.
	FieldID = "id"
	// FieldIndexType holds the document classification used to scope criteria.
	FieldIndexType = "__IndexType"
)

// Engine opens indexes at storage locations.
type Engine interface {
	// OpenReadHandle opens a read handle on the committed state of the index
	// at loc. Returns an IndexNotFound error if nothing was built there.
	OpenReadHandle(ctx context.Context, loc directory.Location) (ReadHandle, error)

	// OpenUnion opens one read handle over the union of several indexes.
	// Fails with IndexNotFound if any location is missing; handles opened
	// before the failure are released.
	OpenUnion(ctx context.Context, locs []directory.Location) (ReadHandle, error)

	// OpenWriter opens the index at loc for writing, creating it with m if it
	// does not exist yet. An existing index keeps the mapping it was built with.
	OpenWriter(ctx context.Context, loc directory.Location, m mapping.IndexMapping) (Writer, error)

	// Exists reports whether an index has been built at loc.
	Exists(loc directory.Location) bool

	// Close releases every index the engine holds, including memory indexes.
	Close() error
}

// ReadHandle is a scoped read view. It must be closed; Close is idempotent.
type ReadHandle interface {
	// Search runs q and returns at most size hits by descending score.
	Search(ctx context.Context, q query.Query, size int) ([]Hit, error)

	// ReadStoredFields returns the stored fields of a matched document.
	// Multi-valued fields yield their first value.
	ReadStoredFields(ctx context.Context, ref DocRef) (map[string]string, error)

	// FieldNames returns every field name stored in the underlying indexes,
	// excluding engine-internal names.
	FieldNames(ctx context.Context) ([]string, error)

	Close() error
}

// Writer mutates one index.
type Writer interface {
	// Index adds or replaces documents in one batch.
	Index(ctx context.Context, docs []Document) error
	// Delete removes documents by engine ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error
	// DocCount returns the number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}

// Document is one unit written to the engine. Field values are already
// converted to engine types (string, []string, float64, bool, time.Time).
type Document struct {
	ID     string
	Fields map[string]any
}

// DocRef identifies a matched document inside the handle that produced it.
type DocRef struct {
	// Index is the engine name of the constituent index, when known.
	Index string
	// ID is the engine document ID.
	ID string

	seq int
}

// Hit is one matched document.
type Hit struct {
	Ref   DocRef
	Score float64
}
