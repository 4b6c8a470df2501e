package search

import "errors"

var (
	// ErrInvalidQuery is returned when query validation fails.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbedder is returned when the embedding service is unreachable.
	// Callers treat it as "no grounding context available", never as a
	// conversation-fatal failure.
	ErrEmbedder = errors.New("embedding service unavailable")
	// ErrStore is returned when the vector store is unreachable.
	ErrStore = errors.New("vector store unavailable")
)
