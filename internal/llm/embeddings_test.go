package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// embeddingsServer is a fake OpenAI-compatible embeddings endpoint. Each
// request either replies with one of the queued status codes or, once the
// queue is drained, returns deterministic vectors for the batch.
type embeddingsServer struct {
	mu           sync.Mutex
	failStatuses []int
	dim          int
	requests     int
	batchSizes   []int
}

func (s *embeddingsServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.requests++

		var req EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.batchSizes = append(s.batchSizes, len(req.Input))

		if len(s.failStatuses) > 0 {
			status := s.failStatuses[0]
			s.failStatuses = s.failStatuses[1:]
			w.WriteHeader(status)
			return
		}

		resp := EmbeddingsResponse{Data: make([]EmbeddingData, len(req.Input))}
		for i := range req.Input {
			vec := make([]float64, s.dim)
			for j := range vec {
				vec[j] = float64(i) + float64(j)/100
			}
			resp.Data[i] = EmbeddingData{Embedding: vec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func newTestClient(t *testing.T, srv *embeddingsServer, batchSize int) (*EmbeddingsClient, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	client := NewEmbeddingsClient(ts.URL, "test-key", "test-model", srv.dim, batchSize, 0)
	return client, ts
}

func TestEmbedTexts_Success(t *testing.T) {
	srv := &embeddingsServer{dim: 4}
	client, _ := newTestClient(t, srv, 20)

	vectors, err := client.EmbedTexts(context.Background(), []string{"alpha", "beta", "gamma"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("EmbedTexts() returned %d vectors, want 3", len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != 4 {
			t.Errorf("vector %d has size %d, want 4", i, len(vec))
		}
		// Positional encoding from the fake server proves order is preserved.
		if vec[0] != float32(i) {
			t.Errorf("vector %d starts with %v, want %v", i, vec[0], float32(i))
		}
	}
}

func TestEmbedTexts_EmptyInput(t *testing.T) {
	srv := &embeddingsServer{dim: 4}
	client, _ := newTestClient(t, srv, 20)

	if _, err := client.EmbedTexts(context.Background(), nil); err == nil {
		t.Fatal("EmbedTexts(nil) expected error, got nil")
	}
	if srv.requests != 0 {
		t.Errorf("server received %d requests, want 0", srv.requests)
	}
}

func TestEmbedTexts_BatchSplitting(t *testing.T) {
	srv := &embeddingsServer{dim: 2}
	client, _ := newTestClient(t, srv, 20)

	texts := make([]string, 45)
	for i := range texts {
		texts[i] = "text"
	}

	vectors, err := client.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vectors) != 45 {
		t.Errorf("EmbedTexts() returned %d vectors, want 45", len(vectors))
	}
	if srv.requests != 3 {
		t.Errorf("server received %d requests, want 3", srv.requests)
	}
	want := []int{20, 20, 5}
	for i, size := range srv.batchSizes {
		if i < len(want) && size != want[i] {
			t.Errorf("batch %d had %d inputs, want %d", i, size, want[i])
		}
	}
}

func TestEmbedTexts_RetriesRateLimit(t *testing.T) {
	srv := &embeddingsServer{dim: 3, failStatuses: []int{http.StatusTooManyRequests, http.StatusTooManyRequests}}
	client, _ := newTestClient(t, srv, 20)
	client.Backoff = BackoffPolicy{MaxAttempts: 5, InitialDelay: 20 * time.Millisecond}

	start := time.Now()
	vectors, err := client.EmbedTexts(context.Background(), []string{"a", "b"})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Errorf("EmbedTexts() returned %d vectors, want 2", len(vectors))
	}
	if srv.requests != 3 {
		t.Errorf("server received %d requests, want 3", srv.requests)
	}
	// Two rejections wait 20ms then 40ms before the third attempt.
	if elapsed < 60*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 60ms of backoff", elapsed)
	}
}

func TestEmbedTexts_RetriesExhausted(t *testing.T) {
	srv := &embeddingsServer{
		dim:          3,
		failStatuses: []int{429, 429, 429, 429, 429},
	}
	client, _ := newTestClient(t, srv, 20)
	client.Backoff = BackoffPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}

	_, err := client.EmbedTexts(context.Background(), []string{"a"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("EmbedTexts() error = %v, want ErrRateLimited", err)
	}
	if srv.requests != 3 {
		t.Errorf("server received %d requests, want 3", srv.requests)
	}
}

func TestEmbedTexts_AuthFailureNotRetried(t *testing.T) {
	srv := &embeddingsServer{dim: 3, failStatuses: []int{http.StatusUnauthorized}}
	client, _ := newTestClient(t, srv, 20)

	_, err := client.EmbedTexts(context.Background(), []string{"a"})
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("EmbedTexts() error = %v, want ErrProvider", err)
	}
	if srv.requests != 1 {
		t.Errorf("server received %d requests, want 1 (no retry)", srv.requests)
	}
}

func TestEmbedTexts_ServerErrorNotRetried(t *testing.T) {
	srv := &embeddingsServer{dim: 3, failStatuses: []int{http.StatusInternalServerError}}
	client, _ := newTestClient(t, srv, 20)

	_, err := client.EmbedTexts(context.Background(), []string{"a"})
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("EmbedTexts() error = %v, want ErrProvider", err)
	}
	if srv.requests != 1 {
		t.Errorf("server received %d requests, want 1 (no retry)", srv.requests)
	}
}

func TestEmbedTexts_VectorSizeMismatch(t *testing.T) {
	srv := &embeddingsServer{dim: 8}
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	// Client expects 16-dim vectors; the server produces 8.
	client := NewEmbeddingsClient(ts.URL, "test-key", "test-model", 16, 20, 0)

	if _, err := client.EmbedTexts(context.Background(), []string{"a"}); err == nil {
		t.Fatal("EmbedTexts() expected size mismatch error, got nil")
	}
}

func TestEmbedTexts_CountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := EmbeddingsResponse{Data: []EmbeddingData{{Embedding: []float64{1, 2}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)

	client := NewEmbeddingsClient(ts.URL, "test-key", "test-model", 2, 20, 0)

	if _, err := client.EmbedTexts(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("EmbedTexts() expected count mismatch error, got nil")
	}
}

func TestEmbedTexts_ContextCancelledDuringBackoff(t *testing.T) {
	srv := &embeddingsServer{dim: 3, failStatuses: []int{429, 429, 429, 429}}
	client, _ := newTestClient(t, srv, 20)
	client.Backoff = BackoffPolicy{MaxAttempts: 5, InitialDelay: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.EmbedTexts(ctx, []string{"a"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("EmbedTexts() error = %v, want context.DeadlineExceeded", err)
	}
}
