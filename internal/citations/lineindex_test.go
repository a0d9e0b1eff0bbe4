package citations

import "testing"

func TestBuildLineIndexEmptyText(t *testing.T) {
	ranges := BuildLineIndex("")
	if len(ranges) != 1 || ranges[0] != (LineRange{}) {
		t.Fatalf("expected single (0,0) range, got %v", ranges)
	}
}

func TestBuildLineIndexKeepsTerminators(t *testing.T) {
	ranges := BuildLineIndex("Line1\nLine2\n")
	want := []LineRange{{0, 6}, {6, 12}}
	if len(ranges) != len(want) {
		t.Fatalf("expected %d ranges, got %v", len(want), ranges)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Fatalf("range %d: expected %v, got %v", i, want[i], ranges[i])
		}
	}
}

func TestBuildLineIndexCountsRunesAndCRLF(t *testing.T) {
	ranges := BuildLineIndex("héllo\r\nwörld")
	want := []LineRange{{0, 7}, {7, 12}}
	for i := range want {
		if ranges[i] != want[i] {
			t.Fatalf("range %d: expected %v, got %v", i, want[i], ranges[i])
		}
	}

	byteRanges := BuildByteLineIndex([]byte("héllo\r\nwörld"))
	wantBytes := []LineRange{{0, 8}, {8, 14}}
	for i := range wantBytes {
		if byteRanges[i] != wantBytes[i] {
			t.Fatalf("byte range %d: expected %v, got %v", i, wantBytes[i], byteRanges[i])
		}
	}
}

func TestOffsetToLine(t *testing.T) {
	ranges := BuildLineIndex("Line1\nLine2\n")
	cases := []struct {
		offset int
		line   int
	}{
		{-5, 1},
		{0, 1},
		{5, 1},
		{6, 2},
		{11, 2},
		{12, 2},
		{1000, 2},
	}
	for _, tc := range cases {
		if got := OffsetToLine(ranges, tc.offset); got != tc.line {
			t.Fatalf("offset %d: expected line %d, got %d", tc.offset, tc.line, got)
		}
	}
}

func TestOffsetToLineMonotonic(t *testing.T) {
	texts := []string{"", "a", "a\n", "\n\n\n", "one\ntwo\n\nthree", "x\r\ny\r\n"}
	for _, text := range texts {
		ranges := BuildLineIndex(text)
		if OffsetToLine(ranges, 0) != 1 {
			t.Fatalf("%q: offset 0 should map to line 1", text)
		}
		prev := 0
		for off := -2; off <= len(text)+2; off++ {
			line := OffsetToLine(ranges, off)
			if line < prev {
				t.Fatalf("%q: line decreased at offset %d (%d < %d)", text, off, line, prev)
			}
			if line < 1 || line > len(ranges) {
				t.Fatalf("%q: line %d out of range at offset %d", text, line, off)
			}
			prev = line
		}
	}
}
