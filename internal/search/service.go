package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mentor-ai/internal/contextutil"
	"mentor-ai/internal/vectorstore"
)

const (
	// DefaultLimit is the result count when the caller does not ask for one.
	DefaultLimit = 5
	// MaxLimit caps the result count regardless of what the caller asks for.
	MaxLimit = 10
	// DefaultSimilarityFloor is the quality gate: results scoring at or
	// below it are discarded rather than returned as weak matches.
	DefaultSimilarityFloor = 0.70
)

// Embedder converts text batches into fixed-dimension vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Service answers semantic-similarity queries over the indexed curriculum.
// It is stateless and safe for concurrent use; every call is read-only.
type Service struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection vectorstore.Collection
	floor      float64
}

// NewService creates a search service. The collection token comes from the
// vector store's bootstrap. A non-positive floor selects the default.
func NewService(embedder Embedder, store vectorstore.VectorStore, collection vectorstore.Collection, floor float64) *Service {
	if floor <= 0 {
		floor = DefaultSimilarityFloor
	}
	return &Service{
		embedder:   embedder,
		store:      store,
		collection: collection,
		floor:      floor,
	}
}

// Search embeds the query, fetches the nearest stored chunks matching the
// filters, and returns those above the similarity floor, ordered by
// descending similarity. Embedder and store failures surface as
// distinguishable sentinel errors so the caller can degrade to "no context".
func (s *Service) Search(ctx context.Context, q Query) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is required", ErrInvalidQuery)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	embeddings, err := s.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrEmbedder, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned for query", ErrEmbedder)
	}

	filter := vectorstore.Filter{
		Chapter:    q.Filters.Chapter,
		Grade:      q.Filters.Grade,
		SourceType: q.Filters.SourceType,
	}

	hits, err := s.store.Search(ctx, s.collection.Name, embeddings[0], limit, filter)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector store", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		similarity := float64(hit.Score)
		if similarity <= s.floor {
			continue
		}
		results = append(results, Result{
			ID:         hit.PointID,
			Content:    metaString(hit.Meta, "content"),
			Chapter:    metaString(hit.Meta, "chapter"),
			SourceType: metaString(hit.Meta, "source_type"),
			Title:      metaString(hit.Meta, "title"),
			Similarity: similarity,
			Metadata:   metaStringMap(hit.Meta, "metadata"),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	logger.InfoContext(ctx, "search completed",
		"limit", limit, "hits", len(hits), "above_floor", len(results))

	return results, nil
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaStringMap(meta map[string]any, key string) map[string]string {
	nested, ok := meta[key].(map[string]any)
	if !ok || len(nested) == 0 {
		return nil
	}
	out := make(map[string]string, len(nested))
	for k, v := range nested {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
