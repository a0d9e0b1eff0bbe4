package citations

import (
	"strings"
	"testing"
)

func TestExtractBlocks(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []Block
	}{
		{"empty", "", nil},
		{"blank only", "\n  \n\t\n", nil},
		{"single", "one", []Block{{1, 1}}},
		{"two paragraphs", "a\nb\n\nc\n", []Block{{1, 2}, {4, 4}}},
		{"leading blanks", "\n\nx\ny", []Block{{3, 4}}},
		{"whitespace separator", "a\n   \nb", []Block{{1, 1}, {3, 3}}},
		{"crlf", "a\r\n\r\nb\r\n", []Block{{1, 1}, {3, 3}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractBlocks(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("block %d: expected %v, got %v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestExtractBlocksCoverExactlyNonBlankLines(t *testing.T) {
	text := "# Title\n\nFirst line\nsecond line\n \n- item\n- item two\n\n\nend"
	lines, _ := splitLines(text)

	covered := make(map[int]bool)
	for _, b := range ExtractBlocks(text) {
		for l := b.StartLine; l <= b.EndLine; l++ {
			if covered[l] {
				t.Fatalf("line %d covered twice", l)
			}
			covered[l] = true
		}
	}
	for i, line := range lines {
		nonBlank := strings.TrimSpace(line) != ""
		if covered[i+1] != nonBlank {
			t.Fatalf("line %d (%q): covered=%v nonBlank=%v", i+1, line, covered[i+1], nonBlank)
		}
	}
}
