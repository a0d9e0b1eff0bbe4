package citations

import "strings"

// ExtractBlocks partitions text into paragraph blocks. Blank (whitespace-only)
// lines separate blocks and never belong to one.
func ExtractBlocks(text string) []Block {
	lines, _ := splitLines(text)
	blocks := []Block{}
	start := 0
	for i, line := range lines {
		lineNo := i + 1
		if strings.TrimSpace(line) != "" {
			if start == 0 {
				start = lineNo
			}
			continue
		}
		if start != 0 {
			blocks = append(blocks, Block{StartLine: start, EndLine: lineNo - 1})
			start = 0
		}
	}
	if start != 0 {
		blocks = append(blocks, Block{StartLine: start, EndLine: len(lines)})
	}
	return blocks
}
