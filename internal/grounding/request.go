// internal/grounding/request.go
// Package grounding converts request documents into the citation core's
// Support values. It is the only place that knows the wire shapes.
package grounding

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ghollingworth/pichat/internal/citations"
)

// OffsetUnit says how the offsets of a request document are counted.
type OffsetUnit string

const (
	// UnitRune counts characters (the core's unit).
	UnitRune OffsetUnit = "rune"
	// UnitByte counts UTF-8 bytes, as generation services report segments.
	UnitByte OffsetUnit = "byte"
)

// ParseOffsetUnit accepts "rune", "char", "byte" or "" (rune).
func ParseOffsetUnit(s string) (OffsetUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rune", "char", "character":
		return UnitRune, nil
	case "byte", "bytes":
		return UnitByte, nil
	}
	return "", fmt.Errorf("unknown offset unit %q", s)
}

// SourceLookup resolves a document title to its source URL.
type SourceLookup interface {
	Lookup(title string) (string, bool)
}

// Options controls conversion.
type Options struct {
	OffsetUnit OffsetUnit
	// Lookup, when set, fills in the URL of references that only carry a title.
	Lookup SourceLookup
}

// Request is a decoded render request.
type Request struct {
	Shape    Shape
	Text     string
	Supports []citations.Support
	Modes    []string
}

// NativeRef is a source reference of the native shape.
type NativeRef struct {
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	SourceKey int    `json:"sourceKey"`
}

// NativeSupport is a support of the native shape.
type NativeSupport struct {
	StartOffset *int        `json:"startOffset,omitempty"`
	EndOffset   *int        `json:"endOffset,omitempty"`
	SourceRefs  []NativeRef `json:"sourceRefs,omitempty"`
	SourceKeys  []int       `json:"sourceKeys,omitempty"`
}

// NativeRequest is the native request document.
type NativeRequest struct {
	Text     string          `json:"text"`
	Supports []NativeSupport `json:"supports,omitempty"`
	Modes    []string        `json:"modes,omitempty"`
}

// ChunkSource is the title and URI of a grounding chunk.
type ChunkSource struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GroundingChunk is one evidence chunk of a generation response.
type GroundingChunk struct {
	Web              *ChunkSource `json:"web,omitempty"`
	RetrievedContext *ChunkSource `json:"retrievedContext,omitempty"`
}

// source returns whichever of web or retrievedContext is present.
func (c GroundingChunk) source() ChunkSource {
	if c.Web != nil {
		return *c.Web
	}
	if c.RetrievedContext != nil {
		return *c.RetrievedContext
	}
	return ChunkSource{}
}

// Segment is the span of the response text a support covers.
type Segment struct {
	StartIndex *int   `json:"startIndex,omitempty"`
	EndIndex   *int   `json:"endIndex,omitempty"`
	Text       string `json:"text,omitempty"`
}

// GroundingSupport credits a segment to chunks by index.
type GroundingSupport struct {
	Segment               *Segment `json:"segment,omitempty"`
	GroundingChunkIndices []int    `json:"groundingChunkIndices,omitempty"`
}

// GroundingMetadata is the grounding section of a generation response.
type GroundingMetadata struct {
	GroundingChunks   []GroundingChunk   `json:"groundingChunks,omitempty"`
	GroundingSupports []GroundingSupport `json:"groundingSupports,omitempty"`
}

// Part is one piece of candidate content.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content is the content of a candidate.
type Content struct {
	Parts []Part `json:"parts,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content           *Content           `json:"content,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GenerationResponse is a generation-service response. Text and metadata may
// sit at the top level or in the first candidate.
type GenerationResponse struct {
	Text              string             `json:"text,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
	Candidates        []Candidate        `json:"candidates,omitempty"`
	Modes             []string           `json:"modes,omitempty"`
}

// answer returns the response text and its grounding metadata.
func (r GenerationResponse) answer() (string, *GroundingMetadata) {
	text, meta := r.Text, r.GroundingMetadata
	if len(r.Candidates) == 0 {
		return text, meta
	}
	first := r.Candidates[0]
	if text == "" && first.Content != nil {
		var b strings.Builder
		for _, part := range first.Content.Parts {
			b.WriteString(part.Text)
		}
		text = b.String()
	}
	if meta == nil {
		meta = first.GroundingMetadata
	}
	return text, meta
}

// DetectShape reports the shape of a request document.
func DetectShape(data []byte) (Shape, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("could not parse request JSON: %w", err)
	}
	if _, ok := fields["groundingMetadata"]; ok {
		return ShapeGeneration, nil
	}
	if _, ok := fields["candidates"]; ok {
		return ShapeGeneration, nil
	}
	return ShapeNative, nil
}

// Decode detects the shape of data, validates it and converts it.
func Decode(data []byte, opts Options) (Request, error) {
	shape, err := DetectShape(data)
	if err != nil {
		return Request{}, err
	}
	if err := Validate(shape, data); err != nil {
		return Request{}, err
	}

	switch shape {
	case ShapeGeneration:
		var resp GenerationResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return Request{}, fmt.Errorf("decode generation response: %w", err)
		}
		return FromGeneration(resp, opts), nil
	default:
		var req NativeRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return Request{}, fmt.Errorf("decode request: %w", err)
		}
		return FromNative(req, opts), nil
	}
}

// FromNative converts a native request.
func FromNative(req NativeRequest, opts Options) Request {
	conv := newOffsetConverter(req.Text, opts.OffsetUnit)
	supports := make([]citations.Support, 0, len(req.Supports))
	for _, s := range req.Supports {
		refs := make([]citations.SourceRef, 0, len(s.SourceRefs))
		for _, r := range s.SourceRefs {
			refs = append(refs, resolveRef(citations.SourceRef{
				Title:     r.Title,
				URL:       r.URL,
				SourceKey: r.SourceKey,
			}, opts.Lookup))
		}
		var keys []int
		if s.SourceKeys != nil {
			keys = append([]int{}, s.SourceKeys...)
		}
		supports = append(supports, citations.Support{
			StartOffset: conv.convert(s.StartOffset),
			EndOffset:   conv.convert(s.EndOffset),
			SourceRefs:  refs,
			SourceKeys:  keys,
		})
	}
	return Request{Shape: ShapeNative, Text: req.Text, Supports: supports, Modes: req.Modes}
}

// FromGeneration converts a generation response. The source key of a chunk is
// its index in groundingChunks; indices outside the list are dropped.
func FromGeneration(resp GenerationResponse, opts Options) Request {
	text, meta := resp.answer()
	out := Request{Shape: ShapeGeneration, Text: text, Modes: resp.Modes}
	if meta == nil {
		return out
	}

	refs := make([]citations.SourceRef, len(meta.GroundingChunks))
	for i, chunk := range meta.GroundingChunks {
		src := chunk.source()
		refs[i] = resolveRef(citations.SourceRef{Title: src.Title, URL: src.URI, SourceKey: i}, opts.Lookup)
	}

	conv := newOffsetConverter(text, opts.OffsetUnit)
	out.Supports = make([]citations.Support, 0, len(meta.GroundingSupports))
	for _, gs := range meta.GroundingSupports {
		support := citations.Support{
			SourceRefs: make([]citations.SourceRef, 0, len(gs.GroundingChunkIndices)),
			SourceKeys: make([]int, 0, len(gs.GroundingChunkIndices)),
		}
		for _, idx := range gs.GroundingChunkIndices {
			if idx < 0 || idx >= len(refs) {
				continue
			}
			support.SourceRefs = append(support.SourceRefs, refs[idx])
			support.SourceKeys = append(support.SourceKeys, idx)
		}
		if gs.Segment != nil {
			support.StartOffset = conv.convert(gs.Segment.StartIndex)
			support.EndOffset = conv.convert(gs.Segment.EndIndex)
		}
		out.Supports = append(out.Supports, support)
	}
	return out
}

func resolveRef(ref citations.SourceRef, lookup SourceLookup) citations.SourceRef {
	if ref.URL != "" || ref.Title == "" || lookup == nil {
		return ref
	}
	if url, ok := lookup.Lookup(ref.Title); ok {
		ref.URL = url
	}
	return ref
}

// offsetConverter maps request offsets onto character offsets of text.
type offsetConverter struct {
	text  string
	bytes bool
}

func newOffsetConverter(text string, unit OffsetUnit) offsetConverter {
	return offsetConverter{text: text, bytes: unit == UnitByte}
}

// convert returns nil for an absent offset. Byte offsets inside a multi-byte
// character fall back to the start of that character.
func (c offsetConverter) convert(offset *int) *int {
	if offset == nil {
		return nil
	}
	if !c.bytes {
		return citations.Offset(*offset)
	}
	b := min(max(*offset, 0), len(c.text))
	for b > 0 && b < len(c.text) && !utf8.RuneStart(c.text[b]) {
		b--
	}
	return citations.Offset(utf8.RuneCountInString(c.text[:b]))
}
