package storage

import "time"

// DocumentKey is the identity tuple of a source document. Chunk rows are
// unique on (DocumentKey, ChunkIndex).
type DocumentKey struct {
	SourceType string
	Subject    string
	Grade      string
	Title      string
	Chapter    string
}

// ChunkRecord is one persisted chunk of a document, indexed for vector
// search. Rows are written once and never mutated.
type ChunkRecord struct {
	ID          string // UUID (same as the Qdrant point ID)
	SourceType  string
	Subject     string
	Grade       string
	Chapter     string
	Title       string
	Content     string
	ChunkIndex  int
	TotalChunks int
	Metadata    map[string]string // Document metadata plus provenance
	CreatedAt   time.Time
}

// Key returns the document identity tuple of the record.
func (c *ChunkRecord) Key() DocumentKey {
	return DocumentKey{
		SourceType: c.SourceType,
		Subject:    c.Subject,
		Grade:      c.Grade,
		Title:      c.Title,
		Chapter:    c.Chapter,
	}
}
