// Package markdown renders chapter content and computes word counts.
package markdown

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Renderer handles Markdown rendering.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a new Markdown renderer with extensions.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // Table, Strikethrough, TaskList, Autolink
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &Renderer{
		md: md,
	}
}

// Render converts Markdown to HTML.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CountWords counts prose words in Markdown source. Markup such as heading
// markers, emphasis delimiters and link URLs is excluded; only rendered text
// segments contribute.
func (r *Renderer) CountWords(source []byte) int {
	reader := text.NewReader(source)
	doc := r.md.Parser().Parse(reader)

	count := 0
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			count += countWords(string(t.Segment.Value(source)))
		case *ast.AutoLink:
			count += countWords(string(t.URL(source)))
		}
		return ast.WalkContinue, nil
	})
	return count
}

func countWords(s string) int {
	return len(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	}))
}
