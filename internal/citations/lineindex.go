package citations

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// LineRange is the half-open [Start, End) offset range of one physical line,
// terminator included.
type LineRange struct {
	Start int
	End   int
}

// BuildLineIndex returns the character (rune) offset range of every line of
// text. Lines end after "\n"; "\r\n" counts as a single terminator. Text with
// no lines still yields the single range (0, 0).
func BuildLineIndex(text string) []LineRange {
	return buildLineIndex(text, false)
}

// BuildByteLineIndex is BuildLineIndex measured in bytes.
func BuildByteLineIndex(src []byte) []LineRange {
	return buildLineIndex(string(src), true)
}

func buildLineIndex(text string, inBytes bool) []LineRange {
	ranges := make([]LineRange, 0, strings.Count(text, "\n")+1)
	start, offset := 0, 0
	for i, r := range text {
		if inBytes {
			offset = i + utf8.RuneLen(r)
		} else {
			offset++
		}
		if r == '\n' {
			ranges = append(ranges, LineRange{Start: start, End: offset})
			start = offset
		}
	}
	if inBytes {
		offset = len(text)
	}
	if offset > start {
		ranges = append(ranges, LineRange{Start: start, End: offset})
	}
	if len(ranges) == 0 {
		ranges = append(ranges, LineRange{})
	}
	return ranges
}

// OffsetToLine maps an offset to its 1-based line number: the greatest line
// whose start is at or before the offset. Negative offsets map to line 1 and
// offsets past the end of the text map to the last line.
func OffsetToLine(ranges []LineRange, offset int) int {
	if len(ranges) == 0 {
		return 1
	}
	if offset < 0 {
		offset = 0
	}
	idx := sort.Search(len(ranges), func(i int) bool {
		return ranges[i].Start > offset
	}) - 1
	if idx < 0 {
		return 1
	}
	if idx >= len(ranges) {
		return len(ranges)
	}
	return idx + 1
}

// splitLines splits text into lines, each paired with its terminator ("",
// "\n" or "\r\n").
func splitLines(text string) (lines []string, terminators []string) {
	for len(text) > 0 {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			lines = append(lines, text)
			terminators = append(terminators, "")
			break
		}
		line, term := text[:idx], "\n"
		if strings.HasSuffix(line, "\r") {
			line, term = line[:len(line)-1], "\r\n"
		}
		lines = append(lines, line)
		terminators = append(terminators, term)
		text = text[idx+1:]
	}
	return lines, terminators
}
