package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks mentor-ai/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ChunkStore defines the interface for chunk catalog operations.
type ChunkStore interface {
	// InsertIgnore inserts a chunk, absorbing identity conflicts as no-ops.
	// It reports whether a row was actually written. The chunk.ID must be
	// set before calling this method.
	InsertIgnore(ctx context.Context, chunk *ChunkRecord) (bool, error)
	// ListIndexes returns the chunk indexes already persisted for a
	// document identity, in ascending order.
	ListIndexes(ctx context.Context, key DocumentKey) ([]int, error)
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ChunkRecord, error)
}

// ChunkRepo provides methods for chunk catalog operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// DB exposes the underlying database handle.
func (r *ChunkRepo) DB() *sql.DB {
	return r.db
}

// InsertIgnore inserts a single chunk into the catalog. A row that collides
// with the (document identity, chunk_index) uniqueness constraint is left
// untouched and the insert reports false, keeping re-runs idempotent.
func (r *ChunkRepo) InsertIgnore(ctx context.Context, chunk *ChunkRecord) (bool, error) {
	meta, err := encodeMetadata(chunk.Metadata)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chunks
			(id, source_type, subject, grade, chapter, title, content, chunk_index, total_chunks, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.SourceType, chunk.Subject, chunk.Grade, chunk.Chapter,
		chunk.Title, chunk.Content, chunk.ChunkIndex, chunk.TotalChunks, meta,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert chunk: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

// ListIndexes returns the chunk indexes already persisted for a document
// identity. Returns an empty slice if none exist (not an error).
func (r *ChunkRepo) ListIndexes(ctx context.Context, key DocumentKey) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chunk_index FROM chunks
		 WHERE source_type = ? AND subject = ? AND grade = ? AND title = ? AND chapter = ?
		 ORDER BY chunk_index`,
		key.SourceType, key.Subject, key.Grade, key.Title, key.Chapter,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk indexes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var indexes []int
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("failed to scan chunk index: %w", err)
		}
		indexes = append(indexes, idx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return indexes, nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	var chunk ChunkRecord
	var meta sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, source_type, subject, grade, chapter, title, content, chunk_index, total_chunks, metadata, created_at
		 FROM chunks WHERE id = ?`,
		id,
	).Scan(&chunk.ID, &chunk.SourceType, &chunk.Subject, &chunk.Grade, &chunk.Chapter,
		&chunk.Title, &chunk.Content, &chunk.ChunkIndex, &chunk.TotalChunks, &meta, &chunk.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}

func encodeMetadata(meta map[string]string) (sql.NullString, error) {
	if len(meta) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode chunk metadata: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}
