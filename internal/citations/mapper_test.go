package citations

import (
	"reflect"
	"testing"
)

const threeLines = "Intro line.\nSecond line.\nThird line.\nFourth line.\n"

func ref(key int, title, url string) SourceRef {
	return SourceRef{SourceKey: key, Title: title, URL: url}
}

func span(start, end int, refs ...SourceRef) Support {
	return Support{StartOffset: Offset(start), EndOffset: Offset(end), SourceRefs: refs}
}

func TestMapSupportsResolvesLinesAndDefaults(t *testing.T) {
	text := "Line1\nLine2\n"
	mapped := MapSupports(text, []Support{
		{SourceRefs: []SourceRef{ref(1, "Doc", "http://x")}},
	}, DefaultPlaceholderScheme)
	if len(mapped) != 1 {
		t.Fatalf("expected 1 span, got %d", len(mapped))
	}
	got := mapped[0]
	if got.StartOffset != 0 || got.EndOffset != 12 {
		t.Fatalf("expected default offsets 0..12, got %d..%d", got.StartOffset, got.EndOffset)
	}
	if got.StartLine != 1 || got.EndLine != 2 {
		t.Fatalf("expected lines 1..2, got %d..%d", got.StartLine, got.EndLine)
	}
	if !reflect.DeepEqual(got.SourceKeys, []int{1}) {
		t.Fatalf("expected derived key set [1], got %v", got.SourceKeys)
	}
}

func TestMapSupportsPlaceholderAndDiscard(t *testing.T) {
	mapped := MapSupports("text", []Support{span(0, 4,
		ref(1, "Doc2", ""),
		ref(2, "", ""),
		ref(3, "", "http://only-url"),
	)}, DefaultPlaceholderScheme)

	refs := mapped[0].SourceRefs
	if len(refs) != 2 {
		t.Fatalf("expected reference without title or url to be discarded, got %v", refs)
	}
	if refs[0].URL != "localhost://Doc2" {
		t.Fatalf("expected placeholder url, got %q", refs[0].URL)
	}
	if refs[1].URL != "http://only-url" || refs[1].Title != "" {
		t.Fatalf("unexpected second ref %+v", refs[1])
	}
	if !reflect.DeepEqual(mapped[0].SourceKeys, []int{1, 3}) {
		t.Fatalf("expected key set [1 3], got %v", mapped[0].SourceKeys)
	}
}

func TestMapSupportsMergesAdjacentSameSources(t *testing.T) {
	// Second line starts at 12, third line at 25.
	mapped := MapSupports(threeLines, []Support{
		span(25, 30, ref(5, "B", "http://b")),
		span(12, 20, ref(5, "B", "http://b")),
	}, DefaultPlaceholderScheme)

	if len(mapped) != 1 {
		t.Fatalf("expected merged span, got %d: %+v", len(mapped), mapped)
	}
	got := mapped[0]
	if got.StartLine != 2 || got.EndLine != 3 {
		t.Fatalf("expected lines 2..3, got %d..%d", got.StartLine, got.EndLine)
	}
	if got.StartOffset != 12 || got.EndOffset != 30 {
		t.Fatalf("expected offsets 12..30, got %d..%d", got.StartOffset, got.EndOffset)
	}
	if len(got.SourceRefs) != 1 {
		t.Fatalf("expected refs deduplicated by key, got %v", got.SourceRefs)
	}
}

func TestMapSupportsMergeIsTransitive(t *testing.T) {
	text := "a\nb\nc\nd\n"
	mapped := MapSupports(text, []Support{
		span(0, 1, ref(1, "A", "http://a")),
		span(2, 3, ref(1, "A", "http://a")),
		span(4, 5, ref(1, "A", "http://a")),
		span(6, 7, ref(1, "A", "http://a")),
	}, DefaultPlaceholderScheme)
	if len(mapped) != 1 || mapped[0].StartLine != 1 || mapped[0].EndLine != 4 {
		t.Fatalf("expected one span over lines 1..4, got %+v", mapped)
	}
}

func TestMapSupportsDoesNotMergeDifferentOrDistantSources(t *testing.T) {
	text := "a\nb\nc\nd\ne\n"
	mapped := MapSupports(text, []Support{
		span(0, 1, ref(1, "A", "http://a")),
		span(2, 3, ref(2, "B", "http://b")),
		span(8, 9, ref(2, "B", "http://b")),
	}, DefaultPlaceholderScheme)
	if len(mapped) != 3 {
		t.Fatalf("expected 3 separate spans, got %+v", mapped)
	}
}

func TestMapSupportsEmptyKeySetNeverMerges(t *testing.T) {
	text := "a\nb\n"
	empty := []int{}
	mapped := MapSupports(text, []Support{
		{StartOffset: Offset(0), EndOffset: Offset(1), SourceKeys: empty},
		{StartOffset: Offset(0), EndOffset: Offset(1), SourceKeys: empty},
		{StartOffset: Offset(2), EndOffset: Offset(3)},
	}, DefaultPlaceholderScheme)
	if len(mapped) != 3 {
		t.Fatalf("expected spans without sources to stay separate, got %+v", mapped)
	}
}

func TestMapSupportsExplicitKeySetDrivesMerge(t *testing.T) {
	text := "a\nb\n"
	mapped := MapSupports(text, []Support{
		{StartOffset: Offset(0), EndOffset: Offset(1), SourceKeys: []int{3, 1}, SourceRefs: []SourceRef{ref(1, "A", "")}},
		{StartOffset: Offset(2), EndOffset: Offset(3), SourceKeys: []int{1, 3, 3}, SourceRefs: []SourceRef{ref(3, "C", "")}},
	}, DefaultPlaceholderScheme)
	if len(mapped) != 1 {
		t.Fatalf("expected merge on identical key sets, got %+v", mapped)
	}
	keys := []int{mapped[0].SourceRefs[0].SourceKey, mapped[0].SourceRefs[1].SourceKey}
	if !reflect.DeepEqual(keys, []int{1, 3}) {
		t.Fatalf("expected union of refs in first-seen order, got %v", keys)
	}
}

func TestMapSupportsClampsOffsets(t *testing.T) {
	mapped := MapSupports("ab\ncd", []Support{span(-4, 99, ref(1, "A", ""))}, DefaultPlaceholderScheme)
	got := mapped[0]
	if got.StartOffset != 0 || got.EndOffset != 5 || got.StartLine != 1 || got.EndLine != 2 {
		t.Fatalf("unexpected clamped span %+v", got)
	}
}

func TestMapSupportsIdempotent(t *testing.T) {
	text := "a\nb\nc\nd\ne\nf\n"
	supports := []Support{
		span(10, 11, ref(3, "C", "http://c")),
		span(0, 1, ref(1, "A", "http://a")),
		span(2, 3, ref(1, "A", "http://a")),
		span(4, 5, ref(2, "B", "")),
		span(6, 7, ref(2, "B", "")),
		span(8, 9),
	}
	first := MapSupports(text, supports, DefaultPlaceholderScheme)

	again := make([]Support, 0, len(first))
	for _, m := range first {
		again = append(again, m.Support())
	}
	second := MapSupports(text, again, DefaultPlaceholderScheme)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-mapping changed spans:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
