package indexer

import (
	"regexp"
	"strings"
)

// ChunkConfig bounds the window chunker. Sizes are estimated token counts
// (whitespace-delimited words).
type ChunkConfig struct {
	MinTokens     int // Lower bound for every chunk except possibly the last
	TargetTokens  int // Preferred chunk size; packing stops once reached
	MaxTokens     int // Hard upper bound for every chunk
	OverlapTokens int // Trailing content re-included at the start of the next chunk
}

// DefaultChunkConfig returns the chunk bounds used for curriculum content.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MinTokens:     500,
		TargetTokens:  650,
		MaxTokens:     800,
		OverlapTokens: 100,
	}
}

// WindowChunker splits document text into token-bounded, overlapping windows.
// Paragraphs are the packing unit; any paragraph over MaxTokens is subdivided
// into sentences, and any sentence over MaxTokens into fixed-size word groups,
// so no single unit can block packing.
type WindowChunker struct {
	cfg        ChunkConfig
	sentenceRe *regexp.Regexp
}

// NewWindowChunker creates a chunker with the given bounds.
func NewWindowChunker(cfg ChunkConfig) *WindowChunker {
	return &WindowChunker{
		cfg:        cfg,
		sentenceRe: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`),
	}
}

// unit is an atomic packing element with a precomputed token count.
type unit struct {
	text   string
	tokens int
}

// Chunk produces the ordered chunk sequence for a document's text. Every
// chunk is at most MaxTokens; every chunk but possibly the last is at least
// MinTokens. Consecutive chunks overlap by at least OverlapTokens of trailing
// content, unless forward progress would be lost. Empty input yields nil.
func (c *WindowChunker) Chunk(text string) []Chunk {
	units := c.units(text)
	if len(units) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	for start < len(units) {
		tokens := 0
		end := start
		for end < len(units) {
			next := units[end].tokens
			if tokens > 0 && tokens+next > c.cfg.MaxTokens {
				break
			}
			tokens += next
			end++
			if tokens >= c.cfg.TargetTokens && tokens >= c.cfg.MinTokens {
				break
			}
		}

		parts := make([]string, 0, end-start)
		for _, u := range units[start:end] {
			parts = append(parts, u.text)
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Content: strings.Join(parts, "\n\n"),
		})

		if end >= len(units) {
			break
		}

		// Step the window start back far enough to re-include OverlapTokens
		// worth of trailing units. The new start must strictly exceed the
		// previous one; forward progress wins over overlap.
		next := end
		overlap := 0
		for next > start+1 && overlap < c.cfg.OverlapTokens {
			next--
			overlap += units[next].tokens
		}
		start = next
	}

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
	return chunks
}

var paragraphRe = regexp.MustCompile(`\n[ \t]*\n`)

// units splits the text into paragraphs and subdivides anything over
// MaxTokens until every element fits.
func (c *WindowChunker) units(text string) []unit {
	var units []unit
	for _, para := range paragraphRe.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		n := CountTokens(para)
		if n <= c.cfg.MaxTokens {
			units = append(units, unit{text: para, tokens: n})
			continue
		}
		for _, sentence := range c.splitSentences(para) {
			sn := CountTokens(sentence)
			if sn <= c.cfg.MaxTokens {
				units = append(units, unit{text: sentence, tokens: sn})
				continue
			}
			units = append(units, splitWordGroups(sentence, c.cfg.MaxTokens)...)
		}
	}
	return units
}

// splitSentences splits a paragraph on sentence-ending punctuation. Any
// trailing run without a terminator is kept as a final sentence.
func (c *WindowChunker) splitSentences(para string) []string {
	locs := c.sentenceRe.FindAllStringIndex(para, -1)
	if len(locs) == 0 {
		return []string{para}
	}

	var sentences []string
	last := 0
	for _, loc := range locs {
		s := strings.TrimSpace(para[loc[0]:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(para[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// splitWordGroups cuts a run of words into groups of at most size words.
func splitWordGroups(s string, size int) []unit {
	words := strings.Fields(s)
	var units []unit
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		units = append(units, unit{
			text:   strings.Join(words[start:end], " "),
			tokens: end - start,
		})
	}
	return units
}
