// internal/citations/types.go
// Package citations maps grounding supports onto generated answer text and
// renders the annotated text as HTML, Markdown, plain text or BBCode.
package citations

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects an output format.
type Mode string

const (
	// ModeHTML converts the text to HTML and wraps supported regions in citation containers.
	ModeHTML Mode = "html"
	// ModeMarkdown appends [N: title](url) links to supported lines.
	ModeMarkdown Mode = "markdown"
	// ModeRaw appends "[N] url" markers and produces a trailing citations list.
	ModeRaw Mode = "raw"
	// ModeBBCode appends [url=...]N[/url] tags to supported lines.
	ModeBBCode Mode = "bbcode"
)

// AllModes lists every supported mode in display order.
var AllModes = []Mode{ModeHTML, ModeMarkdown, ModeRaw, ModeBBCode}

// DefaultPlaceholderScheme prefixes the title of a reference that has no URL.
const DefaultPlaceholderScheme = "localhost://"

// ParseMode converts a user supplied mode name. The legacy name "phpbb" is
// accepted as an alias for bbcode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(ModeHTML):
		return ModeHTML, nil
	case string(ModeMarkdown), "md":
		return ModeMarkdown, nil
	case string(ModeRaw), "text", "plain":
		return ModeRaw, nil
	case string(ModeBBCode), "phpbb":
		return ModeBBCode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// ParseModes parses a list of mode names, dropping duplicates. An empty list
// yields AllModes.
func ParseModes(names []string) ([]Mode, error) {
	if len(names) == 0 {
		return append([]Mode(nil), AllModes...), nil
	}
	seen := make(map[Mode]struct{}, len(names))
	modes := make([]Mode, 0, len(names))
	for _, name := range names {
		mode, err := ParseMode(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[mode]; ok {
			continue
		}
		seen[mode] = struct{}{}
		modes = append(modes, mode)
	}
	return modes, nil
}

// SourceRef is one evidence chunk credited for a span of text. Empty Title or
// URL means the value is absent.
type SourceRef struct {
	Title     string
	URL       string
	SourceKey int
}

// resolve substitutes the placeholder URL for a titled reference without one.
// ok is false when the reference carries neither a title nor a URL.
func (r SourceRef) resolve(placeholder string) (SourceRef, bool) {
	if r.URL == "" && r.Title == "" {
		return r, false
	}
	if r.URL == "" {
		r.URL = placeholder + r.Title
	}
	return r, true
}

// ResolveURL returns the reference URL, or the placeholder URL built from the
// title when the reference has no URL.
func (r SourceRef) ResolveURL(placeholder string) string {
	resolved, ok := r.resolve(placeholder)
	if !ok {
		return ""
	}
	return resolved.URL
}

// Support is a raw grounding support: a character range of the text and the
// references that back it. Nil offsets default to the start and end of the
// text. A nil SourceKeys is derived from the keys of SourceRefs.
type Support struct {
	StartOffset *int
	EndOffset   *int
	SourceRefs  []SourceRef
	SourceKeys  []int
}

// Offset returns a pointer to v, for building Supports inline.
func Offset(v int) *int { return &v }

// MappedSupport is a support resolved to line numbers (1-based, inclusive)
// with its references normalised and its key set sorted.
type MappedSupport struct {
	StartOffset int
	EndOffset   int
	StartLine   int
	EndLine     int
	SourceRefs  []SourceRef
	SourceKeys  []int
}

// Support converts the mapped span back into a raw support covering the same
// offsets and references.
func (m MappedSupport) Support() Support {
	return Support{
		StartOffset: Offset(m.StartOffset),
		EndOffset:   Offset(m.EndOffset),
		SourceRefs:  append([]SourceRef(nil), m.SourceRefs...),
		SourceKeys:  append([]int(nil), m.SourceKeys...),
	}
}

// RefKeys returns the distinct source keys of the span's references in
// ascending order, falling back to the key set when there are no references.
func (m MappedSupport) RefKeys() []int {
	if len(m.SourceRefs) == 0 {
		return append([]int(nil), m.SourceKeys...)
	}
	keys := make([]int, 0, len(m.SourceRefs))
	for _, ref := range m.SourceRefs {
		keys = append(keys, ref.SourceKey)
	}
	return sortedKeys(keys)
}

// Block is a paragraph: a maximal run of non-blank lines (1-based, inclusive).
type Block struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// CitedURL is a reference of a rendered support with its citation number.
type CitedURL struct {
	URL            string `json:"url"`
	Title          string `json:"title,omitempty"`
	SourceKey      int    `json:"chunk_idx"`
	CitationNumber int    `json:"citation_num,omitempty"`
}

// SupportView is the caller-facing form of a mapped support.
type SupportView struct {
	StartLine   int        `json:"start_line"`
	EndLine     int        `json:"end_line"`
	StartOffset int        `json:"start_offset"`
	EndOffset   int        `json:"end_offset"`
	URLs        []CitedURL `json:"urls"`
}

func sortedKeys(keys []int) []int {
	if len(keys) == 0 {
		return []int{}
	}
	out := append([]int(nil), keys...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

func sameKeys(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
