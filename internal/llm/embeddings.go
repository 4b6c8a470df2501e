package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"mentor-ai/internal/contextutil"
)

// Sentinel errors classifying provider failures.
var (
	// ErrRateLimited marks a transient throughput rejection from the provider.
	ErrRateLimited = errors.New("embedding provider rate limited")
	// ErrProvider marks a non-retryable provider failure (auth, malformed request).
	ErrProvider = errors.New("embedding provider error")
)

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
// Inputs are embedded in bounded batches; rate-limit responses are retried
// with the configured backoff, and a cooldown pause is inserted between
// successive batches to stay under provider throughput limits.
type EmbeddingsClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	ExpectedSize int // Expected vector size for validation
	BatchSize    int
	Backoff      BackoffPolicy

	limiter *rate.Limiter
	client  *http.Client
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the vector dimension every returned embedding is validated
// against. batchSize bounds the inputs per request; cooldown is the minimum
// pause between successive batch requests in one EmbedTexts call.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize, batchSize int, cooldown time.Duration) *EmbeddingsClient {
	if batchSize <= 0 {
		batchSize = 20
	}
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	return &EmbeddingsClient{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		ExpectedSize: expectedSize,
		BatchSize:    batchSize,
		Backoff:      DefaultBackoff(),
		limiter:      rate.NewLimiter(limit, 1),
		client:       http.DefaultClient,
	}
}

// EmbeddingsRequest represents the request payload for the embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// EmbedTexts generates embeddings for the given texts, one float32 vector per
// input in the same order. Texts are sent in batches of at most BatchSize,
// with the cooldown pause between batches. Rate-limit responses are retried
// per the Backoff policy; any other provider error propagates immediately.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.BatchSize {
		end := start + c.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for batch cooldown: %w", err)
		}

		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vectors...)
	}

	return result, nil
}

// embedBatch embeds one bounded batch, retrying rate-limit rejections.
func (c *EmbeddingsClient) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	failed := 0
	for {
		vectors, err := c.embedOnce(ctx, batch)
		if err == nil {
			return vectors, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}

		failed++
		delay, retry := c.Backoff.Next(failed)
		if !retry {
			return nil, fmt.Errorf("retries exhausted after %d attempts: %w", failed, err)
		}

		logger.WarnContext(ctx, "embedding batch rate limited, backing off",
			"attempt", failed, "delay", delay.String())
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// embedOnce performs a single embeddings request.
func (c *EmbeddingsClient) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)

	payload := EmbeddingsRequest{
		Model: c.Model,
		Input: texts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: authentication rejected with status %d", ErrProvider, resp.StatusCode)
	default:
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: bad status %d: %s", ErrProvider, resp.StatusCode, string(raw))
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embeddingsResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingsResp.Data))
	}

	// Convert []float64 to []float32 and validate size
	result := make([][]float32, len(embeddingsResp.Data))
	for i, data := range embeddingsResp.Data {
		if len(data.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), c.ExpectedSize)
		}

		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}

	return result, nil
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
