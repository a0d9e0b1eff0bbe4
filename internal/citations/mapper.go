package citations

import (
	"sort"
	"unicode/utf8"
)

// MapSupports resolves each support to line numbers, sorts the spans by
// (start line, end line) and merges neighbours that cite the same non-empty
// set of source keys. References without a title or URL are discarded and
// titled references without a URL get placeholder+title as their URL.
func MapSupports(text string, supports []Support, placeholder string) []MappedSupport {
	ranges := BuildLineIndex(text)
	length := utf8.RuneCountInString(text)

	mapped := make([]MappedSupport, 0, len(supports))
	for _, support := range supports {
		start, end := 0, length
		if support.StartOffset != nil {
			start = *support.StartOffset
		}
		if support.EndOffset != nil {
			end = *support.EndOffset
		}
		start = clamp(start, 0, length)
		end = clamp(end, 0, length)
		if end < start {
			end = start
		}

		refs := make([]SourceRef, 0, len(support.SourceRefs))
		for _, ref := range support.SourceRefs {
			if resolved, ok := ref.resolve(placeholder); ok {
				refs = append(refs, resolved)
			}
		}

		var keys []int
		if support.SourceKeys != nil {
			keys = sortedKeys(support.SourceKeys)
		} else {
			keys = make([]int, 0, len(refs))
			for _, ref := range refs {
				keys = append(keys, ref.SourceKey)
			}
			keys = sortedKeys(keys)
		}

		mapped = append(mapped, MappedSupport{
			StartOffset: start,
			EndOffset:   end,
			StartLine:   OffsetToLine(ranges, start),
			EndLine:     OffsetToLine(ranges, end),
			SourceRefs:  refs,
			SourceKeys:  keys,
		})
	}

	if len(mapped) < 2 {
		return mapped
	}

	sort.SliceStable(mapped, func(i, j int) bool {
		if mapped[i].StartLine != mapped[j].StartLine {
			return mapped[i].StartLine < mapped[j].StartLine
		}
		return mapped[i].EndLine < mapped[j].EndLine
	})

	return mergeAdjacent(mapped)
}

// mergeAdjacent collapses runs of consecutive spans that share an identical,
// non-empty key set and whose line ranges touch or overlap.
func mergeAdjacent(sorted []MappedSupport) []MappedSupport {
	merged := make([]MappedSupport, 0, len(sorted))
	for i := 0; i < len(sorted); {
		current := sorted[i]
		current.SourceRefs = append([]SourceRef(nil), current.SourceRefs...)

		j := i + 1
		for ; j < len(sorted); j++ {
			next := sorted[j]
			if !mergeable(current, next) {
				break
			}
			current.StartOffset = min(current.StartOffset, next.StartOffset)
			current.EndOffset = max(current.EndOffset, next.EndOffset)
			current.StartLine = min(current.StartLine, next.StartLine)
			current.EndLine = max(current.EndLine, next.EndLine)
			current.SourceRefs = unionRefs(current.SourceRefs, next.SourceRefs)
		}

		merged = append(merged, current)
		i = j
	}
	return merged
}

func mergeable(current, next MappedSupport) bool {
	if len(current.SourceKeys) == 0 || !sameKeys(current.SourceKeys, next.SourceKeys) {
		return false
	}
	return current.EndLine+1 >= next.StartLine && current.StartLine <= next.EndLine+1
}

// unionRefs appends the references of next whose key is not yet present,
// keeping first-seen order.
func unionRefs(refs, next []SourceRef) []SourceRef {
	seen := make(map[int]struct{}, len(refs)+len(next))
	for _, ref := range refs {
		seen[ref.SourceKey] = struct{}{}
	}
	for _, ref := range next {
		if _, ok := seen[ref.SourceKey]; ok {
			continue
		}
		seen[ref.SourceKey] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
