package indexer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"mentor-ai/internal/contextutil"
	"mentor-ai/internal/corpus"
	"mentor-ai/internal/storage"
	"mentor-ai/internal/vectorstore"
)

// chunkNamespace seeds deterministic chunk UUIDs from the document identity
// and chunk index, so re-ingesting the same chunk always targets the same
// catalog row and Qdrant point.
var chunkNamespace = uuid.MustParse("4f1c8a6e-2b97-4d30-9c55-7e01b3a8d2f6")

// ChunkID returns the deterministic UUID for a chunk of a document identity.
func ChunkID(identityKey string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(identityKey+"#"+strconv.Itoa(index))).String()
}

// Embedder converts text batches into fixed-dimension vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RunSummary accumulates the totals of one ingestion run.
type RunSummary struct {
	FilesProcessed int
	ChunksComputed int
	ChunksInserted int
	ChunksSkipped  int
}

// Pipeline orchestrates the ingestion of curriculum documents into the SQLite
// catalog and Qdrant. Runs are resumable: chunk boundaries are re-derived
// deterministically and only index gaps are embedded and inserted.
type Pipeline struct {
	chunkRepo   storage.ChunkStore
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  vectorstore.Collection
	chunker     *WindowChunker
	normalizer  *Normalizer
}

// NewPipeline creates a new ingestion pipeline. The collection token comes
// from the vector store's bootstrap, so the pipeline never has to check
// collection readiness itself.
func NewPipeline(
	chunkRepo storage.ChunkStore,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection vectorstore.Collection,
	cfg ChunkConfig,
) *Pipeline {
	return &Pipeline{
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		chunker:     NewWindowChunker(cfg),
		normalizer:  NewNormalizer(),
	}
}

// IngestDir walks the content root, ingesting every document file beneath it.
// A malformed document is fatal to the whole run: already-inserted chunks
// stay durable, the partial summary is returned along with the error, and the
// operator re-runs after fixing the file. Files are processed strictly
// sequentially to keep provider backoff bookkeeping simple.
func (p *Pipeline) IngestDir(ctx context.Context, root string) (*RunSummary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := corpus.Scan(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan content root: %w", err)
	}

	logger.InfoContext(ctx, "starting ingestion", "root", root, "files", len(files))

	summary := &RunSummary{}
	for _, file := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		computed, inserted, skipped, err := p.ingestFile(ctx, file)
		summary.ChunksComputed += computed
		summary.ChunksInserted += inserted
		summary.ChunksSkipped += skipped
		if err != nil {
			return summary, fmt.Errorf("failed to ingest %s: %w", file.RelPath, err)
		}
		summary.FilesProcessed++

		logger.InfoContext(ctx, "ingested file",
			"rel_path", file.RelPath, "inserted", inserted, "skipped", skipped)
	}

	logger.InfoContext(ctx, "ingestion completed",
		"files", summary.FilesProcessed,
		"chunks_computed", summary.ChunksComputed,
		"chunks_inserted", summary.ChunksInserted,
		"chunks_skipped", summary.ChunksSkipped)

	return summary, nil
}

// ingestFile parses one document file, diffs its chunk sequence against the
// catalog, and embeds and stores only the gap.
func (p *Pipeline) ingestFile(ctx context.Context, file corpus.ScannedFile) (computed, inserted, skipped int, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := corpus.LoadDocument(file.AbsPath)
	if err != nil {
		return 0, 0, 0, err
	}

	text := p.normalizer.Normalize([]byte(doc.Content))
	chunks := p.chunker.Chunk(text)
	computed = len(chunks)
	if computed == 0 {
		logger.WarnContext(ctx, "document produced no chunks", "rel_path", file.RelPath)
		return 0, 0, 0, nil
	}

	key := storage.DocumentKey{
		SourceType: doc.SourceType,
		Subject:    doc.Subject,
		Grade:      doc.Grade,
		Title:      doc.Title,
		Chapter:    doc.Chapter,
	}

	existing, err := p.chunkRepo.ListIndexes(ctx, key)
	if err != nil {
		return computed, 0, 0, fmt.Errorf("failed to list stored chunk indexes: %w", err)
	}
	present := make(map[int]bool, len(existing))
	for _, idx := range existing {
		present[idx] = true
	}

	var newChunks []Chunk
	for _, ch := range chunks {
		if present[ch.Index] {
			skipped++
			continue
		}
		newChunks = append(newChunks, ch)
	}
	if len(newChunks) == 0 {
		return computed, 0, skipped, nil
	}

	texts := make([]string, len(newChunks))
	for i, ch := range newChunks {
		texts[i] = ch.Content
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return computed, 0, skipped, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(newChunks) {
		return computed, 0, skipped, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(newChunks), len(vectors))
	}

	meta := make(map[string]string, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta["file_path"] = file.RelPath

	identity := doc.IdentityKey()
	points := make([]vectorstore.Point, len(newChunks))
	for i, ch := range newChunks {
		points[i] = vectorstore.Point{
			ID:  ChunkID(identity, ch.Index),
			Vec: vectors[i],
			Meta: map[string]any{
				"source_type":  doc.SourceType,
				"subject":      doc.Subject,
				"grade":        doc.Grade,
				"chapter":      doc.Chapter,
				"title":        doc.Title,
				"content":      ch.Content,
				"chunk_index":  ch.Index,
				"total_chunks": ch.Total,
				"metadata":     toAnyMap(meta),
			},
		}
	}

	// Vectors go in first: point IDs are deterministic, so a crash between
	// the upsert and the catalog insert leaves a gap the next run re-fills
	// with identical points. The catalog row is the commit point.
	if err := p.vectorStore.Upsert(ctx, p.collection.Name, points); err != nil {
		return computed, inserted, skipped, fmt.Errorf("failed to upsert vectors: %w", err)
	}

	for _, ch := range newChunks {
		record := &storage.ChunkRecord{
			ID:          ChunkID(identity, ch.Index),
			SourceType:  doc.SourceType,
			Subject:     doc.Subject,
			Grade:       doc.Grade,
			Chapter:     doc.Chapter,
			Title:       doc.Title,
			Content:     ch.Content,
			ChunkIndex:  ch.Index,
			TotalChunks: ch.Total,
			Metadata:    meta,
		}

		wrote, err := p.chunkRepo.InsertIgnore(ctx, record)
		if err != nil {
			return computed, inserted, skipped, fmt.Errorf("failed to insert chunk %d: %w", ch.Index, err)
		}
		if !wrote {
			// A concurrent run won the race; the uniqueness constraint
			// absorbed the conflict.
			skipped++
			continue
		}
		inserted++
	}

	return computed, inserted, skipped, nil
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
