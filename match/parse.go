package match

import (
	"fmt"
	"strings"

	"github.com/p4lang/p4c-sub024/bitvec"
)

// ParseError describes a malformed pattern literal.
type ParseError struct {
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad match pattern %q: %s", e.Text, e.Msg)
}

// IsPatternLiteral reports whether text is a radix-prefixed literal holding
// at least one wildcard digit.
func IsPatternLiteral(text string) bool {
	if len(text) < 3 || text[0] != '0' {
		return false
	}
	switch text[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return strings.IndexByte(text[2:], '*') >= 0
	}
	return false
}

// ParseWide parses a pattern literal: a 0x, 0o or 0b prefix followed by
// digits of that radix or '*'. Underscores are ignored. Each digit
// contributes exactly its radix's bit count, so leading zero digits widen
// the pattern.
func ParseWide(text string) (*Wide, error) {
	if len(text) < 3 || text[0] != '0' {
		return nil, &ParseError{text, "missing radix prefix"}
	}
	var shift int
	switch text[1] {
	case 'x', 'X':
		shift = 4
	case 'o', 'O':
		shift = 3
	case 'b', 'B':
		shift = 1
	default:
		return nil, &ParseError{text, "unknown radix prefix"}
	}

	var ds []int
	for _, ch := range text[2:] {
		switch {
		case ch == '_':
			continue
		case ch == '*':
			ds = append(ds, -1)
		default:
			d := strings.IndexRune(digits, toLower(ch))
			if d < 0 || d >= 1<<uint(shift) {
				return nil, &ParseError{text, fmt.Sprintf("bad digit %q", ch)}
			}
			ds = append(ds, d)
		}
	}
	if len(ds) == 0 {
		return nil, &ParseError{text, "no digits"}
	}

	w := &Wide{Word0: &bitvec.Bitvec{}, Word1: &bitvec.Bitvec{}}
	full := lowMask(shift)
	for i, d := range ds {
		lo := (len(ds) - 1 - i) * shift
		if d < 0 {
			w.Word0.PutRange(lo, shift, full)
			w.Word1.PutRange(lo, shift, full)
		} else {
			w.Word0.PutRange(lo, shift, ^uint64(d)&full)
			w.Word1.PutRange(lo, shift, uint64(d))
		}
	}
	return w, nil
}

// Parse parses a pattern literal of at most 64 bits.
func Parse(text string) (Match, error) {
	w, err := ParseWide(text)
	if err != nil {
		return Match{}, err
	}
	m, ok := w.Narrow()
	if !ok {
		return Match{}, &ParseError{text, fmt.Sprintf("%d bits is too wide", w.Width())}
	}
	return m, nil
}

func toLower(ch rune) rune {
	if ch >= 'A' && ch <= 'F' {
		return ch - 'A' + 'a'
	}
	return ch
}
