package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"mentor-ai/internal/search"
	"mentor-ai/internal/vectorstore"
	"mentor-ai/internal/vectorstore/mocks"
)

type embedderFunc func(ctx context.Context, texts []string) ([][]float32, error)

func (f embedderFunc) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return f(ctx, texts)
}

func testRouter(t *testing.T) (http.Handler, *mocks.MockVectorStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)

	embedder := embedderFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{0.1, 0.2, 0.3}
		}
		return out, nil
	})

	collection := vectorstore.Collection{Name: "curriculum", VectorSize: 3}
	router := NewRouter(&Deps{
		SearchService: search.NewService(embedder, store, collection, 0),
		VectorStore:   store,
		Collection:    collection,
	})
	return router, store
}

func TestRouter_SearchRoute(t *testing.T) {
	router, store := testRouter(t)
	store.EXPECT().
		Search(gomock.Any(), "curriculum", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query": "hypotenuse"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("POST /api/v1/search status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_HealthRoute(t *testing.T) {
	router, store := testRouter(t)
	store.EXPECT().
		CollectionExists(gomock.Any(), "curriculum").
		Return(true, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/v1/health status = %d, want 200", rec.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/v1/unknown status = %d, want 404", rec.Code)
	}
}

func TestRouter_SearchWrongMethod(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/v1/search status = %d, want 405", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want request origin", got)
	}
}
