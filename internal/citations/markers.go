package citations

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

type lineCitation struct {
	number int
	url    string
	title  string
}

// formatMarker renders the trailing marker for one citation in a text mode.
func formatMarker(mode Mode, c lineCitation) string {
	switch mode {
	case ModeMarkdown:
		if c.title != "" {
			return fmt.Sprintf("[%d: %s](%s)", c.number, c.title, c.url)
		}
		return fmt.Sprintf("[%d](%s)", c.number, c.url)
	case ModeRaw:
		return fmt.Sprintf("[%d] %s", c.number, c.url)
	case ModeBBCode:
		return fmt.Sprintf("[url=%s]%d[/url]", c.url, c.number)
	}
	return ""
}

// collectLineCitations groups the citations of every span under the line the
// span ends on.
func collectLineCitations(supports []MappedSupport, table CitationTable) map[int][]lineCitation {
	byLine := make(map[int][]lineCitation)
	for _, support := range supports {
		for _, ref := range support.SourceRefs {
			if ref.URL == "" {
				continue
			}
			number, ok := table.Number(ref.SourceKey)
			if !ok {
				continue
			}
			byLine[support.EndLine] = append(byLine[support.EndLine], lineCitation{
				number: number,
				url:    ref.URL,
				title:  ref.Title,
			})
		}
	}
	return byLine
}

// annotateLines appends the mode's citation markers to the end of each line
// that closes a span. Markers on a line are unique by number and ascending.
// Line terminators are preserved.
func annotateLines(text string, supports []MappedSupport, table CitationTable, mode Mode) string {
	lines, terminators := splitLines(text)
	if len(lines) == 0 {
		return text
	}
	byLine := collectLineCitations(supports, table)

	var b strings.Builder
	b.Grow(len(text))
	for i, line := range lines {
		if cites := byLine[i+1]; len(cites) > 0 {
			if parts := markersFor(mode, cites); len(parts) > 0 {
				line = strings.TrimRightFunc(line, unicode.IsSpace) + " " + strings.Join(parts, " ")
			}
		}
		b.WriteString(line)
		b.WriteString(terminators[i])
	}
	return b.String()
}

func markersFor(mode Mode, cites []lineCitation) []string {
	seen := make(map[int]struct{}, len(cites))
	unique := make([]lineCitation, 0, len(cites))
	for _, c := range cites {
		if _, ok := seen[c.number]; ok {
			continue
		}
		seen[c.number] = struct{}{}
		unique = append(unique, c)
	}
	sort.SliceStable(unique, func(i, j int) bool { return unique[i].number < unique[j].number })

	parts := make([]string, 0, len(unique))
	for _, c := range unique {
		if marker := formatMarker(mode, c); marker != "" {
			parts = append(parts, marker)
		}
	}
	return parts
}

// citationsList renders one "[N] url" line per table entry, ordered by number.
func citationsList(table CitationTable) string {
	ordered := table.Ordered()
	lines := make([]string, 0, len(ordered))
	for _, c := range ordered {
		lines = append(lines, fmt.Sprintf("[%d] %s", c.Number, c.URL))
	}
	return strings.Join(lines, "\n")
}
