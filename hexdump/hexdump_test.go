package hexdump

import (
	"strings"
	"testing"

	"detourkit/pattern"
)

func TestDumpBytesLineCount(t *testing.T) {
	data := make([]byte, 40)
	out := DumpBytes(data)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines for 40 bytes at 16/line, want 3", len(lines))
	}
}

func TestDumpContainsHexValues(t *testing.T) {
	out := DumpBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	for _, want := range []string{"de", "ad", "be", "ef"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDumpMaxLinesTruncates(t *testing.T) {
	options := DefaultOptions()
	options.MaxLines = 1
	out := Dump(make([]byte, 48), options)
	if !strings.Contains(out, "32 more bytes") {
		t.Fatalf("truncation note missing:\n%s", out)
	}
}

func TestDumpWithOffsetShiftsOffsetColumn(t *testing.T) {
	out := DumpWithOffset([]byte{0x90}, 0x1000)
	if !strings.Contains(out, "00001000") {
		t.Fatalf("offset column not shifted:\n%s", out)
	}
}

func TestHighlightMaskCoversWildcards(t *testing.T) {
	p := pattern.MustParse("48 8B ?? C1")
	data := []byte{0x90, 0x48, 0x8B, 0x05, 0xC1, 0x90}

	marked := highlightMask(data, &p)
	want := []bool{false, true, true, true, true, false}
	for i := range want {
		if marked[i] != want[i] {
			t.Fatalf("marked[%d] = %v, want %v", i, marked[i], want[i])
		}
	}
}

func TestHighlightMaskNilPattern(t *testing.T) {
	marked := highlightMask([]byte{1, 2, 3}, nil)
	for i, m := range marked {
		if m {
			t.Fatalf("byte %d marked with no pattern", i)
		}
	}
}

func TestHighlightMaskOverlappingMatches(t *testing.T) {
	p := pattern.MustParse("90 ??")
	data := []byte{0x90, 0x90, 0x90, 0x41}

	marked := highlightMask(data, &p)
	for i, m := range marked {
		if !m {
			t.Fatalf("byte %d not marked, overlapping matches should cover all", i)
		}
	}
}
