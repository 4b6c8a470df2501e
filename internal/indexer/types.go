package indexer

import "strings"

// Chunk represents one token-bounded span of document text.
type Chunk struct {
	Index   int    // Position within the document (starts at 0)
	Total   int    // Chunk count produced by the same run
	Content string // Chunk text content
}

// CountTokens estimates the token count of a text using whitespace-delimited
// words as a cheap stand-in for true tokenization.
func CountTokens(s string) int {
	return len(strings.Fields(s))
}
