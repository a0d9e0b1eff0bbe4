// internal/markup/converter.go
// Package markup provides the html capabilities of the citation renderer: a
// goldmark based Markdown converter that records source line positions on
// block elements and a structurer that wraps cited elements.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ghollingworth/pichat/internal/citations"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// SourceposAttr is the attribute carrying "startLine:col-endLine:col".
const SourceposAttr = "data-sourcepos"

// Options configures the converter.
type Options struct {
	// GFM enables tables, strikethrough, autolinks and task lists.
	GFM bool
	// Unsafe passes raw HTML in the input through to the output.
	Unsafe bool
}

// Converter renders Markdown to HTML with source positions. It implements
// citations.MarkdownConverter.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter builds a Converter.
func NewConverter(opts Options) *Converter {
	var extensions []goldmark.Extender
	if opts.GFM {
		extensions = append(extensions, extension.GFM)
	}
	rendererOpts := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(newCodeBlockRenderer(), 100)),
	}
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(&sourceposTransformer{}, 0)),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &Converter{md: md}
}

// ConvertMarkdown implements citations.MarkdownConverter.
func (c *Converter) ConvertMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("goldmark: %w", err)
	}
	return buf.String(), nil
}

// sourceposTransformer stamps every positioned block node with its line and
// column range in the source.
type sourceposTransformer struct{}

func (t *sourceposTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	ranges := citations.BuildByteLineIndex(source)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() == ast.KindDocument {
			return ast.WalkContinue, nil
		}
		if n.Type() != ast.TypeBlock {
			return ast.WalkSkipChildren, nil
		}
		start, stop, ok := blockSpan(n, source)
		if ok {
			n.SetAttributeString(SourceposAttr, []byte(formatSourcepos(ranges, start, stop)))
		}
		return ast.WalkContinue, nil
	})
}

// blockSpan returns the byte range [start, stop) a block covers. Container
// blocks have no lines of their own and take the union of their children.
func blockSpan(n ast.Node, source []byte) (start, stop int, ok bool) {
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		start, stop = lines.At(0).Start, lines.At(lines.Len()-1).Stop
		ok = true
	}

	if fenced, isFenced := n.(*ast.FencedCodeBlock); isFenced {
		return fencedSpan(fenced, source, start, stop, ok)
	}
	if _, isBreak := n.(*ast.ThematicBreak); isBreak && !ok {
		return thematicBreakSpan(n, source)
	}

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if child.Type() != ast.TypeBlock {
			continue
		}
		cs, ce, cok := blockSpan(child, source)
		if !cok {
			continue
		}
		if !ok {
			start, stop, ok = cs, ce, true
			continue
		}
		start = min(start, cs)
		stop = max(stop, ce)
	}
	return start, stop, ok
}

// fencedSpan widens a fenced code block's content range to include its
// opening and closing fence lines.
func fencedSpan(n *ast.FencedCodeBlock, source []byte, start, stop int, ok bool) (int, int, bool) {
	if n.Info != nil {
		start, ok = lineStart(source, n.Info.Segment.Start), true
		if stop < start {
			stop = n.Info.Segment.Stop
		}
	} else if ok {
		start = previousLineStart(source, start)
	}
	if !ok {
		return 0, 0, false
	}

	next := stop
	if next > 0 && next <= len(source) && source[next-1] != '\n' {
		if idx := bytes.IndexByte(source[next:], '\n'); idx >= 0 {
			next += idx + 1
		} else {
			next = len(source)
		}
	}
	if next < len(source) {
		end := len(source)
		if idx := bytes.IndexByte(source[next:], '\n'); idx >= 0 {
			end = next + idx
		}
		fence := strings.TrimSpace(string(source[next:end]))
		if strings.HasPrefix(fence, "```") || strings.HasPrefix(fence, "~~~") {
			stop = end
		}
	}
	return start, stop, true
}

// thematicBreakSpan locates a thematic break, which records no lines, as the
// first non-blank line after the closest preceding positioned block.
func thematicBreakSpan(n ast.Node, source []byte) (int, int, bool) {
	from := 0
search:
	for node := n; node != nil; node = node.Parent() {
		for prev := node.PreviousSibling(); prev != nil; prev = prev.PreviousSibling() {
			if _, stop, ok := blockSpan(prev, source); ok {
				from = stop
				break search
			}
		}
	}

	pos := min(from, len(source))
	if pos > 0 && source[pos-1] != '\n' {
		if idx := bytes.IndexByte(source[pos:], '\n'); idx >= 0 {
			pos += idx + 1
		} else {
			return 0, 0, false
		}
	}
	for pos < len(source) {
		end := len(source)
		if idx := bytes.IndexByte(source[pos:], '\n'); idx >= 0 {
			end = pos + idx
		}
		if strings.TrimLeft(string(source[pos:end]), "> \t\r") != "" {
			return pos, end, true
		}
		pos = end + 1
	}
	return 0, 0, false
}

func lineStart(source []byte, offset int) int {
	offset = min(max(offset, 0), len(source))
	return bytes.LastIndexByte(source[:offset], '\n') + 1
}

func previousLineStart(source []byte, offset int) int {
	current := lineStart(source, offset)
	if current == 0 {
		return 0
	}
	return lineStart(source, current-1)
}

// formatSourcepos renders the inclusive range of bytes [start, stop) as
// "line:col-line:col" with 1-based lines and columns.
func formatSourcepos(ranges []citations.LineRange, start, stop int) string {
	last := max(stop-1, start)
	startLine := citations.OffsetToLine(ranges, start)
	endLine := citations.OffsetToLine(ranges, last)
	startCol := start - ranges[startLine-1].Start + 1
	endCol := last - ranges[endLine-1].Start + 1
	return fmt.Sprintf("%d:%d-%d:%d", startLine, startCol, endLine, endCol)
}

// codeBlockRenderer replaces goldmark's code block rendering so the <pre>
// element carries the node attributes.
type codeBlockRenderer struct {
	html.Config
}

func newCodeBlockRenderer() renderer.NodeRenderer {
	return &codeBlockRenderer{Config: html.NewConfig()}
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.FencedCodeBlock)
	if !entering {
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkContinue, nil
	}
	r.openPre(w, n)
	if lang := n.Language(source); lang != nil {
		_, _ = w.WriteString(`<code class="language-`)
		r.Writer.Write(w, lang)
		_, _ = w.WriteString(`">`)
	} else {
		_, _ = w.WriteString("<code>")
	}
	r.writeLines(w, source, n)
	return ast.WalkContinue, nil
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkContinue, nil
	}
	r.openPre(w, node)
	_, _ = w.WriteString("<code>")
	r.writeLines(w, source, node)
	return ast.WalkContinue, nil
}

func (r *codeBlockRenderer) openPre(w util.BufWriter, n ast.Node) {
	_, _ = w.WriteString("<pre")
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, nil)
	}
	_ = w.WriteByte('>')
}

func (r *codeBlockRenderer) writeLines(w util.BufWriter, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.Writer.RawWrite(w, line.Value(source))
	}
}
