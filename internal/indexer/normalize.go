package indexer

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gtext "github.com/yuin/goldmark/text"
)

// Normalizer flattens markdown-authored document content to plain text so the
// chunker sees paragraph boundaries instead of markup. Block elements
// (headings, paragraphs, list items, code blocks) are separated by blank
// lines. Normalization is deterministic: the same content always produces the
// same text, which keeps re-derived chunk boundaries stable across runs.
type Normalizer struct {
	parser goldmark.Markdown
}

// NewNormalizer creates a markdown normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Normalize returns the plain-text rendering of the given markdown content.
func (n *Normalizer) Normalize(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	reader := gtext.NewReader(content)
	doc := n.parser.Parser().Parse(reader)

	var b strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Heading:
			blockBreak(&b)
		case *ast.Paragraph:
			blockBreak(&b)
		case *ast.ListItem:
			blockBreak(&b)
		case *ast.Blockquote:
			blockBreak(&b)
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.CodeBlock:
			blockBreak(&b)
			writeLines(&b, v, content)
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			blockBreak(&b)
			writeLines(&b, v, content)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	out := strings.TrimSpace(b.String())
	if out == "" {
		// Content the parser produced nothing for still gets indexed as-is.
		return strings.TrimSpace(string(content))
	}
	return out
}

// blockBreak ensures a blank-line separator before the next block element.
func blockBreak(b *strings.Builder) {
	if b.Len() == 0 {
		return
	}
	s := b.String()
	if strings.HasSuffix(s, "\n\n") {
		return
	}
	if strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
		return
	}
	b.WriteString("\n\n")
}

// writeLines copies the raw source lines of a block node.
func writeLines(b *strings.Builder, node ast.Node, content []byte) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(content))
	}
}
