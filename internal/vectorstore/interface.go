package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks mentor-ai/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// Filter restricts a search to points whose payload matches every non-empty
// field exactly. Fields are validated once at the API boundary; empty means
// unconstrained.
type Filter struct {
	Chapter    string
	Grade      string
	SourceType string
}

// IsZero reports whether no field is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Collection is a readiness token for a bootstrapped collection. It is only
// produced by EnsureCollection, so components holding one can rely on the
// collection existing with the right vector size.
type Collection struct {
	Name       string
	VectorSize int
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search restricted by the filter, ordered
	// by descending score, limited to k results.
	Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error)

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)
}
