package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mentor-ai/internal/handlers"
	"mentor-ai/internal/search"
	"mentor-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	SearchService *search.Service
	VectorStore   vectorstore.VectorStore
	Collection    vectorstore.Collection
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	searchHandler := handlers.NewSearchHandler(deps.SearchService)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Collection)

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
