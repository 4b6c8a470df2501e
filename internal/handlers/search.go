package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mentor-ai/internal/contextutil"
	"mentor-ai/internal/search"
)

// SearchHandler handles HTTP requests for semantic-similarity queries.
type SearchHandler struct {
	service *search.Service
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(service *search.Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchRequest represents the HTTP request payload for search queries.
// This mirrors search.Query but is defined here for HTTP layer separation.
type SearchRequest struct {
	Query   string `json:"query"`
	Limit   int    `json:"limit,omitempty"`
	Filters struct {
		Chapter    string `json:"chapter,omitempty"`
		Grade      string `json:"grade,omitempty"`
		SourceType string `json:"sourceType,omitempty"`
	} `json:"filters,omitempty"`
}

// SearchResponse represents the HTTP response payload for search queries.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP answers POST search requests. Failures of the embedding service
// or the vector store map to 502/503 so the chat orchestrator can degrade to
// "no grounding context" instead of failing the conversation.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Query == "" {
		logger.WarnContext(ctx, "empty query in request")
		h.writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	results, err := h.service.Search(ctx, search.Query{
		Text:  req.Query,
		Limit: req.Limit,
		Filters: search.Filters{
			Chapter:    req.Filters.Chapter,
			Grade:      req.Filters.Grade,
			SourceType: req.Filters.SourceType,
		},
	})
	if err != nil {
		h.handleSearchError(w, r, err)
		return
	}

	if results == nil {
		results = []search.Result{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(SearchResponse{Results: results}); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleSearchError maps search service errors to HTTP status codes.
func (h *SearchHandler) handleSearchError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "search failed", "error", err)

	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		h.writeError(w, http.StatusBadRequest, "Invalid query")
	case errors.Is(err, search.ErrEmbedder):
		h.writeError(w, http.StatusBadGateway, "Embedding service unavailable")
	case errors.Is(err, search.ErrStore):
		h.writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
	default:
		h.writeError(w, http.StatusInternalServerError, "Failed to process search")
	}
}

// writeError writes an error response.
func (h *SearchHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
