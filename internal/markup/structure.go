// internal/markup/structure.go
package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/ghollingworth/pichat/internal/citations"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CitationRangeClass is the class shared by every citation wrapper.
const CitationRangeClass = "citation-range"

// candidates selects positioned elements that are not yet inside a wrapper.
var candidates = xpath.MustCompile(
	`.//*[@` + SourceposAttr + `][not(ancestor::div[contains(concat(' ', normalize-space(@class), ' '), ' ` + CitationRangeClass + ` ')])]`,
)

var sourceposPattern = regexp.MustCompile(`^(\d+):\d+-(\d+):\d+$`)

// Structurer wraps the elements of rendered HTML that overlap each support's
// line range in a clickable citation container. It implements
// citations.HTMLStructurer.
type Structurer struct {
	// Logf, when set, receives a line for every support that matched nothing.
	Logf func(format string, args ...any)
}

// NewStructurer returns a Structurer that reports skipped supports to logf.
func NewStructurer(logf func(format string, args ...any)) *Structurer {
	return &Structurer{Logf: logf}
}

// StructureHTML implements citations.HTMLStructurer. Supports are processed in
// order; the i-th (1-based) support that matches anything produces
//
//	<div class="citation-range citation-range-i" data-cite-id="i" data-chunk-indices="k1,k2" style="cursor: pointer;">
//
// around the leaf-most matching elements, inserted where the first of them was.
// Elements already wrapped by an earlier support are not considered again.
func (s *Structurer) StructureHTML(fragment string, supports []citations.MappedSupport) (string, error) {
	if len(supports) == 0 || strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}

	doc, err := htmlquery.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	body := htmlquery.FindOne(doc, "//body")
	if body == nil {
		return fragment, nil
	}

	for i, support := range supports {
		id := i + 1
		leaves := leafElements(matching(body, support.StartLine, support.EndLine))
		if len(leaves) == 0 {
			s.logf("citation %d: no positioned elements overlap lines %d-%d", id, support.StartLine, support.EndLine)
			continue
		}

		wrapper := newWrapper(id, support.RefKeys())
		first := leaves[0]
		first.Parent.InsertBefore(wrapper, first)
		for _, el := range leaves {
			el.Parent.RemoveChild(el)
			wrapper.AppendChild(el)
		}
	}

	var buf bytes.Buffer
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

func (s *Structurer) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}

// matching returns, in document order, the unwrapped elements whose position
// overlaps [startLine, endLine]. Elements with malformed positions are skipped.
func matching(root *html.Node, startLine, endLine int) []*html.Node {
	var matched []*html.Node
	for _, el := range htmlquery.QuerySelectorAll(root, candidates) {
		elStart, elEnd, ok := parseSourcepos(htmlquery.SelectAttr(el, SourceposAttr))
		if !ok {
			continue
		}
		if elEnd < startLine || elStart > endLine {
			continue
		}
		matched = append(matched, el)
	}
	return matched
}

// leafElements drops every matched element that is an ancestor of another
// matched element. Each element walks its parent chain once, so the cost is
// proportional to matches times tree depth.
func leafElements(matched []*html.Node) []*html.Node {
	if len(matched) < 2 {
		return matched
	}
	inSet := make(map[*html.Node]bool, len(matched))
	for _, el := range matched {
		inSet[el] = true
	}
	ancestor := make(map[*html.Node]bool)
	for _, el := range matched {
		for p := el.Parent; p != nil; p = p.Parent {
			if inSet[p] {
				ancestor[p] = true
			}
		}
	}
	leaves := make([]*html.Node, 0, len(matched))
	for _, el := range matched {
		if !ancestor[el] {
			leaves = append(leaves, el)
		}
	}
	return leaves
}

func parseSourcepos(value string) (start, end int, ok bool) {
	m := sourceposPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, false
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	end, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

func newWrapper(id int, keys []int) *html.Node {
	attrs := []html.Attribute{
		{Key: "class", Val: fmt.Sprintf("%s %s-%d", CitationRangeClass, CitationRangeClass, id)},
		{Key: "data-cite-id", Val: strconv.Itoa(id)},
	}
	if len(keys) > 0 {
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Itoa(k)
		}
		attrs = append(attrs, html.Attribute{Key: "data-chunk-indices", Val: strings.Join(parts, ",")})
	}
	attrs = append(attrs, html.Attribute{Key: "style", Val: "cursor: pointer;"})
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div, Attr: attrs}
}
