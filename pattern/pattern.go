// Package pattern parses and scans Array-of-Bytes (AOB) signatures.
//
// A signature is a space-separated list of tokens, each either a two-digit
// hex byte ("48", "c1") or a wildcard ("?" or "??"). Wildcard positions
// match any byte. Parsed patterns carry a parallel mask instead of a
// reserved sentinel byte, so a literal byte of any value is representable.
package pattern

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaskLiteral marks a position that must match the pattern byte exactly.
	MaskLiteral byte = 0xFF
	// MaskWildcard marks a position that matches any byte.
	MaskWildcard byte = 0x00
)

var (
	// ErrEmptyPattern is returned when parsing input that contains no tokens,
	// or when scanning with a zero-length pattern.
	ErrEmptyPattern = errors.New("empty pattern")
)

// Pattern is a parsed AOB signature. Bytes holds the literal byte values;
// Mask holds MaskLiteral or MaskWildcard per position. The byte value at a
// wildcard position is zero and never compared.
type Pattern struct {
	Bytes []byte
	Mask  []byte
}

// Parse converts an AOB signature string into a Pattern. Any malformed token
// fails the entire parse; no partial pattern is ever returned.
func Parse(text string) (Pattern, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Pattern{}, ErrEmptyPattern
	}

	tokens := strings.Fields(trimmed)
	p := Pattern{
		Bytes: make([]byte, 0, len(tokens)),
		Mask:  make([]byte, 0, len(tokens)),
	}

	for i, token := range tokens {
		if token == "?" || token == "??" {
			p.Bytes = append(p.Bytes, 0x00)
			p.Mask = append(p.Mask, MaskWildcard)
			continue
		}
		if len(token) != 2 {
			return Pattern{}, fmt.Errorf("invalid token %q at position %d: expected two hex digits, \"?\" or \"??\"", token, i+1)
		}
		hi, ok1 := hexNibble(token[0])
		lo, ok2 := hexNibble(token[1])
		if !ok1 || !ok2 {
			return Pattern{}, fmt.Errorf("invalid token %q at position %d: not a hex byte", token, i+1)
		}
		p.Bytes = append(p.Bytes, hi<<4|lo)
		p.Mask = append(p.Mask, MaskLiteral)
	}

	return p, nil
}

// MustParse is Parse for signatures known to be valid; it panics on error.
func MustParse(text string) Pattern {
	p, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("pattern.MustParse(%q): %v", text, err))
	}
	return p
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Len returns the number of positions in the pattern.
func (p Pattern) Len() int {
	return len(p.Bytes)
}

// IsValid reports whether the pattern is non-empty with a matching mask.
func (p Pattern) IsValid() bool {
	return len(p.Bytes) > 0 && len(p.Bytes) == len(p.Mask)
}

// Wildcards returns the number of wildcard positions.
func (p Pattern) Wildcards() int {
	n := 0
	for _, m := range p.Mask {
		if m == MaskWildcard {
			n++
		}
	}
	return n
}

// Match reports whether the pattern matches data at the given offset.
func (p Pattern) Match(data []byte, offset int) bool {
	if offset < 0 || offset+len(p.Bytes) > len(data) {
		return false
	}
	for j, m := range p.Mask {
		if m != MaskWildcard && data[offset+j] != p.Bytes[j] {
			return false
		}
	}
	return true
}

// String renders the pattern back into signature form, e.g. "48 8B ?? C1".
func (p Pattern) String() string {
	var sb strings.Builder
	for i, b := range p.Bytes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if p.Mask[i] == MaskWildcard {
			sb.WriteString("??")
		} else {
			fmt.Fprintf(&sb, "%02X", b)
		}
	}
	return sb.String()
}
