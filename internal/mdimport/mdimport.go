// Package mdimport turns a markdown outline into a flat block sequence.
package mdimport

import (
	"bytes"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/salmonumbrella/outline-cli/internal/outline"
)

// Importer parses markdown with goldmark. Nested lists become deeper blocks;
// items written with the "+" marker import as expanded toggle-list blocks.
type Importer struct {
	md     goldmark.Markdown
	newKey func() outline.Key
}

// Option configures an Importer.
type Option func(*Importer)

// WithKeyFunc overrides block key generation.
func WithKeyFunc(fn func() outline.Key) Option {
	return func(im *Importer) {
		if fn != nil {
			im.newKey = fn
		}
	}
}

// New returns an Importer with task list support enabled.
func New(opts ...Option) *Importer {
	im := &Importer{
		md:     goldmark.New(goldmark.WithExtensions(extension.TaskList)),
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Parse reads markdown from r and returns renumbered blocks.
func (im *Importer) Parse(r io.Reader) ([]outline.Block, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := im.md.Parser().Parse(text.NewReader(src))
	blocks := im.walk(doc, src, 0, nil)
	blocks, _ = outline.RenumberDocument(blocks)
	return blocks, nil
}

// Title returns a document title for a markdown file name.
func Title(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSuffix(base, ".md"), ".markdown")
}

func (im *Importer) walk(parent ast.Node, src []byte, depth int, out []outline.Block) []outline.Block {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = im.node(n, src, depth, out)
	}
	return out
}

func (im *Importer) node(n ast.Node, src []byte, depth int, out []outline.Block) []outline.Block {
	switch node := n.(type) {
	case *ast.Heading:
		out = append(out, im.block(outline.TypeHeading, depth, inlineText(node, src)))
	case *ast.Paragraph, *ast.TextBlock:
		out = append(out, im.block(outline.TypeParagraph, depth, inlineText(node, src)))
	case *ast.Blockquote:
		out = append(out, im.block(outline.TypeQuote, depth, quoteText(node, src)))
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		out = append(out, im.block(outline.TypeParagraph, depth, lineText(node, src)))
	case *ast.List:
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			out = im.item(node, item, src, depth, out)
		}
	}
	return out
}

func (im *Importer) item(list *ast.List, item ast.Node, src []byte, depth int, out []outline.Block) []outline.Block {
	b := im.block(outline.TypeBulletList, depth, "")
	switch {
	case list.IsOrdered():
		b.Type = outline.TypeNumberList
	case list.Marker == '+':
		b.Type = outline.TypeToggleList
		open := true
		b.Data.ToggleListToggle = &open
	}

	rest := item.FirstChild()
	switch first := rest.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		b.Text = inlineText(first, src)
		if box := taskBox(first); box != nil {
			b.Type = outline.TypeCheckList
			b.Data.ToggleListToggle = nil
			checked := box.IsChecked
			b.Data.CheckListCheck = &checked
		}
		rest = rest.NextSibling()
	}
	out = append(out, b)

	for n := rest; n != nil; n = n.NextSibling() {
		out = im.node(n, src, depth+1, out)
	}
	return out
}

func (im *Importer) block(t outline.BlockType, depth int, s string) outline.Block {
	return outline.Block{Key: im.newKey(), Type: t, Depth: depth, Text: s}
}

func taskBox(n ast.Node) *extast.TaskCheckBox {
	if box, ok := n.FirstChild().(*extast.TaskCheckBox); ok {
		return box
	}
	return nil
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeInline(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func writeInline(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *extast.TaskCheckBox:
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.HardLineBreak() || node.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(src))
		default:
			writeInline(buf, c, src)
		}
	}
}

func quoteText(n ast.Node, src []byte) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		var s string
		switch c.(type) {
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			s = inlineText(c, src)
		case *ast.Blockquote:
			s = quoteText(c, src)
		default:
			s = lineText(c, src)
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func lineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}
