package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"mentor-ai/internal/config"
	"mentor-ai/internal/indexer"
	"mentor-ai/internal/llm"
	"mentor-ai/internal/storage"
	"mentor-ai/internal/vectorstore"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	root := cmd.String("root")
	if root == "" {
		root = cfg.ContentDir
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Chunk catalog ready", "path", cfg.DBPath)

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		return fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	collection, err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize)
	if err != nil {
		return fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}
	slog.Info("Qdrant collection ready", "collection", collection.Name, "vector_size", collection.VectorSize)

	embedder := llm.NewEmbeddingsClient(
		cfg.EmbeddingBaseURL,
		cfg.EmbeddingAPIKey,
		cfg.EmbeddingModelName,
		cfg.QdrantVectorSize,
		cfg.EmbeddingBatchSize,
		cfg.EmbeddingCooldown,
	)

	pipeline := indexer.NewPipeline(
		storage.NewChunkRepo(db),
		embedder,
		vectorStore,
		collection,
		indexer.ChunkConfig{
			MinTokens:     cfg.MinChunkTokens,
			TargetTokens:  cfg.TargetChunkTokens,
			MaxTokens:     cfg.MaxChunkTokens,
			OverlapTokens: cfg.OverlapChunkTokens,
		},
	)

	summary, err := pipeline.IngestDir(ctx, root)
	if summary != nil {
		fmt.Printf("files: %d  chunks computed: %d  inserted: %d  skipped: %d\n",
			summary.FilesProcessed, summary.ChunksComputed, summary.ChunksInserted, summary.ChunksSkipped)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "ingest",
		Usage:  "Index curriculum documents into the vector search store",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "root",
				Aliases:     []string{"r"},
				Usage:       "Content root directory to ingest",
				DefaultText: "./content",
				Sources:     cli.EnvVars("CONTENT_DIR"),
			},
		},
	}

	// SIGINT/SIGTERM cancel the run between files; completed inserts stay
	// durable and the next run resumes from the gap.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("ingestion error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
