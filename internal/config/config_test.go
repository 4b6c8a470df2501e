package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

// setBaseEnv sets the minimum environment for Load to succeed, pointing the
// catalog at a temp directory.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QDRANT_VECTOR_SIZE", "768")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "data", "test.db"))
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)
	for _, key := range []string{
		"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME", "EMBEDDING_BATCH_SIZE",
		"EMBEDDING_COOLDOWN_MS", "QDRANT_URL", "QDRANT_COLLECTION",
		"MIN_CHUNK_TOKENS", "TARGET_CHUNK_TOKENS", "MAX_CHUNK_TOKENS",
		"CHUNK_OVERLAP_TOKENS", "SIMILARITY_THRESHOLD", "API_PORT",
		"LOG_LEVEL", "LOG_FORMAT", "CONTENT_DIR",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.QdrantVectorSize != 768 {
		t.Errorf("QdrantVectorSize = %d, want 768", cfg.QdrantVectorSize)
	}
	if cfg.QdrantCollection != "curriculum" {
		t.Errorf("QdrantCollection = %q, want curriculum", cfg.QdrantCollection)
	}
	if cfg.EmbeddingBatchSize != 20 {
		t.Errorf("EmbeddingBatchSize = %d, want 20", cfg.EmbeddingBatchSize)
	}
	if cfg.EmbeddingCooldown != time.Second {
		t.Errorf("EmbeddingCooldown = %v, want 1s", cfg.EmbeddingCooldown)
	}
	if cfg.MinChunkTokens != 500 || cfg.TargetChunkTokens != 650 || cfg.MaxChunkTokens != 800 {
		t.Errorf("chunk bounds = %d/%d/%d, want 500/650/800",
			cfg.MinChunkTokens, cfg.TargetChunkTokens, cfg.MaxChunkTokens)
	}
	if cfg.OverlapChunkTokens != 100 {
		t.Errorf("OverlapChunkTokens = %d, want 100", cfg.OverlapChunkTokens)
	}
	if cfg.SimilarityThreshold != 0.70 {
		t.Errorf("SimilarityThreshold = %v, want 0.70", cfg.SimilarityThreshold)
	}
	if cfg.APIPort != "9000" {
		t.Errorf("APIPort = %q, want 9000", cfg.APIPort)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("EMBEDDING_BATCH_SIZE", "5")
	t.Setenv("EMBEDDING_COOLDOWN_MS", "250")
	t.Setenv("MIN_CHUNK_TOKENS", "100")
	t.Setenv("TARGET_CHUNK_TOKENS", "150")
	t.Setenv("MAX_CHUNK_TOKENS", "200")
	t.Setenv("CHUNK_OVERLAP_TOKENS", "25")
	t.Setenv("SIMILARITY_THRESHOLD", "0.85")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.EmbeddingBatchSize != 5 {
		t.Errorf("EmbeddingBatchSize = %d, want 5", cfg.EmbeddingBatchSize)
	}
	if cfg.EmbeddingCooldown != 250*time.Millisecond {
		t.Errorf("EmbeddingCooldown = %v, want 250ms", cfg.EmbeddingCooldown)
	}
	if cfg.MinChunkTokens != 100 || cfg.TargetChunkTokens != 150 || cfg.MaxChunkTokens != 200 {
		t.Errorf("chunk bounds = %d/%d/%d, want 100/150/200",
			cfg.MinChunkTokens, cfg.TargetChunkTokens, cfg.MaxChunkTokens)
	}
	if cfg.SimilarityThreshold != 0.85 {
		t.Errorf("SimilarityThreshold = %v, want 0.85", cfg.SimilarityThreshold)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing vector size", map[string]string{"QDRANT_VECTOR_SIZE": ""}},
		{"non-numeric vector size", map[string]string{"QDRANT_VECTOR_SIZE": "lots"}},
		{"zero vector size", map[string]string{"QDRANT_VECTOR_SIZE": "0"}},
		{"negative batch size", map[string]string{"EMBEDDING_BATCH_SIZE": "-1"}},
		{"target below min", map[string]string{"MIN_CHUNK_TOKENS": "700", "TARGET_CHUNK_TOKENS": "650"}},
		{"max below target", map[string]string{"MAX_CHUNK_TOKENS": "600"}},
		{"threshold not a float", map[string]string{"SIMILARITY_THRESHOLD": "high"}},
		{"threshold out of range", map[string]string{"SIMILARITY_THRESHOLD": "1.5"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", 0, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
