package citations

import (
	"encoding/json"
	"fmt"
)

// MarkdownConverter turns Markdown into HTML whose block elements carry
// data-sourcepos="startLine:col-endLine:col" attributes.
type MarkdownConverter interface {
	ConvertMarkdown(src string) (string, error)
}

// HTMLStructurer wraps the elements of rendered HTML that overlap each span
// in a citation container.
type HTMLStructurer interface {
	StructureHTML(html string, supports []MappedSupport) (string, error)
}

// Prepared holds the mode-independent stages of a render: blocks, merged
// spans and the citation table. Every mode renders from the same Prepared.
type Prepared struct {
	Text     string
	Blocks   []Block
	Supports []MappedSupport
	Table    CitationTable
}

// Result is the output of rendering one mode.
type Result struct {
	Mode              Mode
	Markdown          string
	HTML              string
	Raw               string
	RawCitations      string
	MarkdownFormatted string
	BBCode            string
	Blocks            []Block
	Supports          []SupportView
	Chunks            CitationTable
}

// Primary returns the main text field of the mode.
func (r Result) Primary() string {
	switch r.Mode {
	case ModeHTML:
		return r.HTML
	case ModeRaw:
		return r.Raw
	case ModeBBCode:
		return r.BBCode
	case ModeMarkdown:
		return r.MarkdownFormatted
	}
	return r.Markdown
}

// MarshalJSON emits the shared fields plus the fields of the result's mode.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"markdown": r.Markdown,
		"blocks":   r.Blocks,
		"supports": r.Supports,
		"chunks":   r.Chunks,
	}
	switch r.Mode {
	case ModeHTML:
		out["html"] = r.HTML
	case ModeRaw:
		out["raw"] = r.Raw
		out["raw_citations"] = r.RawCitations
	case ModeMarkdown:
		out["markdown_formatted"] = r.MarkdownFormatted
	case ModeBBCode:
		out["bbcode"] = r.BBCode
	}
	return json.Marshal(out)
}

// Renderer renders annotated text. It holds no per-call state and is safe for
// concurrent use; html needs a MarkdownConverter and an HTMLStructurer.
type Renderer struct {
	converter   MarkdownConverter
	structurer  HTMLStructurer
	placeholder string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHTML installs the html capabilities.
func WithHTML(converter MarkdownConverter, structurer HTMLStructurer) Option {
	return func(r *Renderer) {
		r.converter = converter
		r.structurer = structurer
	}
}

// WithPlaceholderScheme changes the prefix used for references without a URL.
func WithPlaceholderScheme(scheme string) Option {
	return func(r *Renderer) {
		if scheme != "" {
			r.placeholder = scheme
		}
	}
}

// NewRenderer builds a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{placeholder: DefaultPlaceholderScheme}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Require reports the first mode whose capabilities are missing, so callers
// can fail at startup instead of on the first request.
func (r *Renderer) Require(modes ...Mode) error {
	for _, mode := range modes {
		if err := r.check(mode); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) check(mode Mode) error {
	switch mode {
	case ModeHTML:
		if r.converter == nil {
			return &DependencyError{Mode: mode, Capability: "markdown converter"}
		}
		if r.structurer == nil {
			return &DependencyError{Mode: mode, Capability: "html structurer"}
		}
	case ModeMarkdown, ModeRaw, ModeBBCode:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
	return nil
}

// Prepare runs the mode-independent stages.
func (r *Renderer) Prepare(text string, supports []Support) Prepared {
	mapped := MapSupports(text, supports, r.placeholder)
	return Prepared{
		Text:     text,
		Blocks:   ExtractBlocks(text),
		Supports: mapped,
		Table:    AssignCitations(mapped),
	}
}

// Render prepares text and supports and renders a single mode.
func (r *Renderer) Render(text string, supports []Support, mode Mode) (Result, error) {
	if err := r.check(mode); err != nil {
		return Result{}, err
	}
	return r.RenderPrepared(r.Prepare(text, supports), mode)
}

// RenderAll prepares once and renders every requested mode (all four when
// modes is empty).
func (r *Renderer) RenderAll(text string, supports []Support, modes ...Mode) (map[Mode]Result, error) {
	if len(modes) == 0 {
		modes = AllModes
	}
	if err := r.Require(modes...); err != nil {
		return nil, err
	}
	prepared := r.Prepare(text, supports)
	results := make(map[Mode]Result, len(modes))
	for _, mode := range modes {
		result, err := r.RenderPrepared(prepared, mode)
		if err != nil {
			return nil, err
		}
		results[mode] = result
	}
	return results, nil
}

// RenderPrepared renders one mode from already prepared stages.
func (r *Renderer) RenderPrepared(p Prepared, mode Mode) (Result, error) {
	if err := r.check(mode); err != nil {
		return Result{}, err
	}

	result := Result{
		Mode:     mode,
		Blocks:   p.Blocks,
		Supports: supportViews(p.Supports, p.Table),
		Chunks:   p.Table,
	}
	if result.Blocks == nil {
		result.Blocks = []Block{}
	}
	if result.Chunks == nil {
		result.Chunks = CitationTable{}
	}

	switch mode {
	case ModeHTML:
		html, err := r.renderHTML(p)
		if err != nil {
			return Result{}, err
		}
		result.Markdown = p.Text
		result.HTML = html
	case ModeMarkdown:
		result.Markdown = annotateLines(p.Text, p.Supports, p.Table, mode)
		result.MarkdownFormatted = result.Markdown
	case ModeRaw:
		result.Markdown = annotateLines(p.Text, p.Supports, p.Table, mode)
		result.Raw = result.Markdown
		result.RawCitations = citationsList(p.Table)
	case ModeBBCode:
		result.Markdown = annotateLines(p.Text, p.Supports, p.Table, mode)
		result.BBCode = result.Markdown
	}
	return result, nil
}

func (r *Renderer) renderHTML(p Prepared) (string, error) {
	html, err := r.converter.ConvertMarkdown(p.Text)
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	html, err = r.structurer.StructureHTML(html, p.Supports)
	if err != nil {
		return "", fmt.Errorf("structure html: %w", err)
	}
	return html, nil
}

func supportViews(supports []MappedSupport, table CitationTable) []SupportView {
	views := make([]SupportView, 0, len(supports))
	for _, support := range supports {
		urls := make([]CitedURL, 0, len(support.SourceRefs))
		for _, ref := range support.SourceRefs {
			number, _ := table.Number(ref.SourceKey)
			urls = append(urls, CitedURL{
				URL:            ref.URL,
				Title:          ref.Title,
				SourceKey:      ref.SourceKey,
				CitationNumber: number,
			})
		}
		views = append(views, SupportView{
			StartLine:   support.StartLine,
			EndLine:     support.EndLine,
			StartOffset: support.StartOffset,
			EndOffset:   support.EndOffset,
			URLs:        urls,
		})
	}
	return views
}
