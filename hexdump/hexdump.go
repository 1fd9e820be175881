// Package hexdump renders byte buffers as annotated hex dumps, with
// optional highlighting of wildcard pattern matches. It backs the offline
// scan tool's match-context output.
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/Moonlight-Companies/gologger/coloransi"

	"detourkit/pattern"
)

// Options customizes the dump output.
type Options struct {
	// BytesPerLine is the number of bytes per output line.
	BytesPerLine int

	// GroupSize groups hex bytes without separators (usually 1, 2, 4 or 8).
	GroupSize int

	// ShowASCII appends the printable-character column.
	ShowASCII bool

	// ShowOffset prepends the offset column.
	ShowOffset bool

	// StartOffset is added to the offset column, so dumps of a buffer slice
	// can show the addresses of the original region.
	StartOffset uint64

	// OffsetWidth is the offset column width in hex digits.
	OffsetWidth int

	// Highlight marks every match of this pattern, wildcards included.
	Highlight *pattern.Pattern

	// MaxLines truncates the dump (0 means unlimited).
	MaxLines int

	OffsetColor              coloransi.ColorCode
	HexColor                 coloransi.ColorCode
	ASCIIColor               coloransi.ColorCode
	NonPrintableColor        coloransi.ColorCode
	ZeroColor                coloransi.ColorCode
	HighlightColor           coloransi.ColorCode
	HighlightBackgroundColor coloransi.ColorCode
}

// DefaultOptions returns the options used by the convenience wrappers.
func DefaultOptions() Options {
	return Options{
		BytesPerLine:             16,
		GroupSize:                1,
		ShowASCII:                true,
		ShowOffset:               true,
		OffsetWidth:              8,
		OffsetColor:              coloransi.Cyan,
		HexColor:                 coloransi.Green,
		ASCIIColor:               coloransi.White,
		NonPrintableColor:        coloransi.BrightBlack,
		ZeroColor:                coloransi.BrightBlack,
		HighlightColor:           coloransi.Yellow,
		HighlightBackgroundColor: coloransi.Black,
	}
}

// Dump renders data with the given options.
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpBytes renders data with default options.
func DumpBytes(data []byte) string {
	return Dump(data, DefaultOptions())
}

// DumpWithHighlight renders data with every match of p highlighted.
func DumpWithHighlight(data []byte, p pattern.Pattern) string {
	options := DefaultOptions()
	options.Highlight = &p
	return Dump(data, options)
}

// DumpWithOffset renders data with the offset column starting at
// startOffset.
func DumpWithOffset(data []byte, startOffset uint64) string {
	options := DefaultOptions()
	options.StartOffset = startOffset
	return Dump(data, options)
}

// DumpCompact renders a narrower dump for small buffers.
func DumpCompact(data []byte) string {
	options := DefaultOptions()
	options.BytesPerLine = 8
	options.OffsetWidth = 4
	return Dump(data, options)
}

// DumpToWriter renders data to the writer.
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.GroupSize <= 0 {
		options.GroupSize = 1
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	marked := highlightMask(data, options.Highlight)

	lineCount := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lineCount >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			break
		}
		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		formatLine(writer, data[offset:end], marked[offset:end], uint64(offset)+options.StartOffset, options)
		lineCount++
	}
}

// highlightMask marks every byte covered by a match of p, wildcard
// positions included, so a highlighted "48 8B ?? C1" colors all four bytes.
func highlightMask(data []byte, p *pattern.Pattern) []bool {
	marked := make([]bool, len(data))
	if p == nil || p.Len() == 0 {
		return marked
	}
	for _, at := range pattern.FindAll(data, *p) {
		for i := at; i < at+p.Len(); i++ {
			marked[i] = true
		}
	}
	return marked
}

func formatLine(writer io.Writer, data []byte, marked []bool, offset uint64, options Options) {
	if options.ShowOffset {
		offsetStr := fmt.Sprintf("%0*x", options.OffsetWidth, offset)
		fmt.Fprint(writer, coloransi.Foreground(options.OffsetColor, offsetStr), "  ")
	}

	hexParts := formatHexGroups(data, marked, options)

	// A mid-line divider once the line reaches past half of BytesPerLine.
	useSplit := options.BytesPerLine >= 8 && len(data) > options.BytesPerLine/2
	groupsPerLine := options.BytesPerLine / options.GroupSize
	if groupsPerLine == 0 {
		groupsPerLine = 1
	}
	leftGroups := groupsPerLine / 2
	if leftGroups > len(hexParts) {
		leftGroups = len(hexParts)
	}

	if useSplit && leftGroups > 0 && leftGroups < len(hexParts) {
		fmt.Fprint(writer, strings.Join(hexParts[:leftGroups], " "), " | ", strings.Join(hexParts[leftGroups:], " "))
	} else {
		fmt.Fprint(writer, strings.Join(hexParts, " "))
	}

	// Pad short lines so the ASCII column stays aligned.
	if options.BytesPerLine > len(data) {
		fullGroups := (options.BytesPerLine + options.GroupSize - 1) / options.GroupSize
		curGroups := (len(data) + options.GroupSize - 1) / options.GroupSize
		missingBytes := options.BytesPerLine - len(data)

		deltaSpaces := fullGroups - 1 - max(0, curGroups-1)
		pipeFull := 0
		if options.BytesPerLine >= 8 {
			pipeFull = 3
		}
		pipeCur := 0
		if useSplit {
			pipeCur = 3
		}
		if padding := missingBytes*2 + deltaSpaces + (pipeFull - pipeCur); padding > 0 {
			fmt.Fprint(writer, strings.Repeat(" ", padding))
		}
	}

	if options.ShowASCII {
		fmt.Fprint(writer, " | ")
		if useSplit && options.BytesPerLine/2 < len(data) {
			mid := options.BytesPerLine / 2
			formatASCII(writer, data[:mid], marked[:mid], options)
			fmt.Fprint(writer, " ")
			formatASCII(writer, data[mid:], marked[mid:], options)
		} else {
			formatASCII(writer, data, marked, options)
		}
	}

	fmt.Fprintln(writer)
}

func formatASCII(writer io.Writer, data []byte, marked []bool, options Options) {
	for i, b := range data {
		c := rune(b)
		display := string(c)
		if b == 0 || !unicode.IsPrint(c) {
			display = "."
		}
		switch {
		case marked[i]:
			fmt.Fprint(writer, coloransi.Color(options.HighlightColor, options.HighlightBackgroundColor, display))
		case b == 0:
			fmt.Fprint(writer, coloransi.Foreground(options.ZeroColor, display))
		case !unicode.IsPrint(c):
			fmt.Fprint(writer, coloransi.Foreground(options.NonPrintableColor, display))
		default:
			fmt.Fprint(writer, coloransi.Foreground(options.ASCIIColor, display))
		}
	}
}

func formatHexGroups(data []byte, marked []bool, options Options) []string {
	var result []string
	var group []string

	for i, b := range data {
		hexValue := fmt.Sprintf("%02x", b)

		var colored string
		switch {
		case marked[i]:
			colored = coloransi.Color(options.HighlightColor, options.HighlightBackgroundColor, hexValue)
		case b == 0:
			colored = coloransi.Foreground(options.ZeroColor, hexValue)
		default:
			colored = coloransi.Foreground(options.HexColor, hexValue)
		}
		group = append(group, colored)

		if (i+1)%options.GroupSize == 0 || i == len(data)-1 {
			result = append(result, strings.Join(group, ""))
			group = nil
		}
	}
	return result
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
