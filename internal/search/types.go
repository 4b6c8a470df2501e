package search

// Filters restrict a search to chunks matching every non-empty field
// exactly. Conjunctive; empty fields are unconstrained.
type Filters struct {
	Chapter    string `json:"chapter,omitempty"`
	Grade      string `json:"grade,omitempty"`
	SourceType string `json:"sourceType,omitempty"`
}

// Query is one semantic-similarity search request.
type Query struct {
	// Text is the free-text query. Required.
	Text string `json:"query"`
	// Limit is the desired result count. Zero means the default; values
	// above the maximum are clamped.
	Limit int `json:"limit,omitempty"`
	// Filters optionally restrict the searched chunks.
	Filters Filters `json:"filters,omitempty"`
}

// Result is an ephemeral projection of a stored chunk plus its similarity
// score. Never persisted.
type Result struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Chapter    string            `json:"chapter"`
	SourceType string            `json:"sourceType"`
	Title      string            `json:"title"`
	Similarity float64           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
