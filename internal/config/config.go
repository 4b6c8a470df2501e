package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string
	EmbeddingBatchSize int
	EmbeddingCooldown  time.Duration

	DBPath     string
	ContentDir string

	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	MinChunkTokens     int
	TargetChunkTokens  int
	MaxChunkTokens     int
	OverlapChunkTokens int

	SimilarityThreshold float64

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent directory, it is
// loaded automatically; variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few levels looking for a project-root .env
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		DBPath:             getEnv("DB_PATH", "./data/mentor-ai.db"),
		ContentDir:         getEnv("CONTENT_DIR", "./content"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "curriculum"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	// QDRANT_VECTOR_SIZE must match the output dimension of the embeddings
	// model. If it changes, the Qdrant collection must be recreated.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	cfg.EmbeddingBatchSize, err = getEnvInt("EMBEDDING_BATCH_SIZE", 20)
	if err != nil {
		return nil, err
	}
	cooldownMs, err := getEnvInt("EMBEDDING_COOLDOWN_MS", 1000)
	if err != nil {
		return nil, err
	}
	cfg.EmbeddingCooldown = time.Duration(cooldownMs) * time.Millisecond

	cfg.MinChunkTokens, err = getEnvInt("MIN_CHUNK_TOKENS", 500)
	if err != nil {
		return nil, err
	}
	cfg.TargetChunkTokens, err = getEnvInt("TARGET_CHUNK_TOKENS", 650)
	if err != nil {
		return nil, err
	}
	cfg.MaxChunkTokens, err = getEnvInt("MAX_CHUNK_TOKENS", 800)
	if err != nil {
		return nil, err
	}
	cfg.OverlapChunkTokens, err = getEnvInt("CHUNK_OVERLAP_TOKENS", 100)
	if err != nil {
		return nil, err
	}
	if cfg.TargetChunkTokens < cfg.MinChunkTokens || cfg.MaxChunkTokens < cfg.TargetChunkTokens {
		return nil, fmt.Errorf("chunk token bounds must satisfy min <= target <= max (got %d/%d/%d)",
			cfg.MinChunkTokens, cfg.TargetChunkTokens, cfg.MaxChunkTokens)
	}

	thresholdStr := getEnv("SIMILARITY_THRESHOLD", "0.70")
	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return nil, fmt.Errorf("SIMILARITY_THRESHOLD must be a valid float: %w", err)
	}
	if threshold < 0 || threshold >= 1 {
		return nil, fmt.Errorf("SIMILARITY_THRESHOLD must be in [0, 1)")
	}
	cfg.SimilarityThreshold = threshold

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	// Create the data directory for the SQLite catalog if needed
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets a positive integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", s)
	}
}
