package value

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/p4lang/p4c-sub024/byteset"
	"github.com/p4lang/p4c-sub024/match"
)

// SyntaxError reports input the reader could not make sense of.
type SyntaxError struct {
	File string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: syntax error: %s", e.File, e.Line, e.Msg)
}

var (
	identStart = byteset.Or(byteset.Ranges(byteset.Range{Lo: 'a', Hi: 'z'}, byteset.Range{Lo: 'A', Hi: 'Z'}), byteset.Set("_$"))
	identCont  = byteset.Or(identStart, byteset.Ranges(byteset.Range{Lo: '0', Hi: '9'}), byteset.Set("."))
	numCont    = byteset.Or(byteset.Ranges(byteset.Range{Lo: '0', Hi: '9'}, byteset.Range{Lo: 'a', Hi: 'z'}, byteset.Range{Lo: 'A', Hi: 'Z'}), byteset.Set("_*"))
	blank      = byteset.Set(" \t\r")
)

func isPlainIdent(s string) bool {
	return s != "" && identStart.Match(s[0]) && byteset.Span(identCont, []byte(s)) == len(s)
}

type tokKind uint8

const (
	tEOF tokKind = iota
	tNL
	tPunct
	tAtom
)

type token struct {
	Kind tokKind
	Line int
	Ch   byte
	Val  Value
}

func (t token) String() string {
	switch t.Kind {
	case tEOF:
		return "end of input"
	case tNL:
		return "newline"
	case tPunct:
		return fmt.Sprintf("%q", t.Ch)
	}
	return t.Val.String()
}

type reader struct {
	file string
	data []byte
	pos  int
	line int
	tok  token
}

// Parse reads assembler input in flow syntax. The top level is a map body
// without braces:
//
//	target: tofino
//	stage 0 ingress: {
//	  exact_match t1 0: { row: 0, column: [2, 3] }
//	}
//
// Entries and list elements are separated by commas or newlines, and '#'
// starts a comment. A key or value made of several atoms, like
// "stage 0 ingress", becomes a command, as does name(args...).
func Parse(file string, r io.Reader) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Value{}, errors.Wrapf(err, "reading %s", file)
	}
	rd := &reader{file: file, data: data, line: 1}
	if err := rd.advance(); err != nil {
		return Value{}, err
	}
	v, err := rd.mapBody(1, tEOF, 0)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

// ParseString is Parse over a string.
func ParseString(file, text string) (Value, error) {
	return Parse(file, strings.NewReader(text))
}

// ParseFile opens and parses path.
func ParseFile(path string) (Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return Value{}, errors.Wrap(err, "open input")
	}
	defer f.Close()
	return Parse(path, f)
}

func (rd *reader) errorf(line int, format string, args ...interface{}) error {
	return &SyntaxError{File: rd.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// advance lexes the next token into rd.tok.
func (rd *reader) advance() error {
	for {
		rd.pos += byteset.Span(blank, rd.data[rd.pos:])
		if rd.pos < len(rd.data) && rd.data[rd.pos] == '#' {
			for rd.pos < len(rd.data) && rd.data[rd.pos] != '\n' {
				rd.pos++
			}
			continue
		}
		break
	}
	if rd.pos >= len(rd.data) {
		rd.tok = token{Kind: tEOF, Line: rd.line}
		return nil
	}

	line := rd.line
	ch := rd.data[rd.pos]
	switch {
	case ch == '\n':
		rd.pos++
		rd.line++
		rd.tok = token{Kind: tNL, Line: line}
		return nil
	case strings.IndexByte("{}[](),:", ch) >= 0:
		rd.pos++
		rd.tok = token{Kind: tPunct, Line: line, Ch: ch}
		return nil
	case ch == '"':
		return rd.lexString()
	case ch == '-' || (ch >= '0' && ch <= '9'):
		return rd.lexNumber()
	case identStart.Match(ch):
		n := byteset.Span(identCont, rd.data[rd.pos:])
		rd.tok = token{Kind: tAtom, Line: line, Val: NewStr(line, string(rd.data[rd.pos:rd.pos+n]))}
		rd.pos += n
		return nil
	}
	return rd.errorf(line, "unexpected character %q", ch)
}

func (rd *reader) lexString() error {
	line := rd.line
	var buf bytes.Buffer
	for rd.pos++; rd.pos < len(rd.data); rd.pos++ {
		ch := rd.data[rd.pos]
		switch ch {
		case '"':
			rd.pos++
			rd.tok = token{Kind: tAtom, Line: line, Val: NewStr(line, buf.String())}
			return nil
		case '\n':
			return rd.errorf(line, "unterminated string")
		case '\\':
			rd.pos++
			if rd.pos >= len(rd.data) {
				return rd.errorf(line, "unterminated string")
			}
			switch esc := rd.data[rd.pos]; esc {
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			default:
				buf.WriteByte(esc)
			}
		default:
			buf.WriteByte(ch)
		}
	}
	return rd.errorf(line, "unterminated string")
}

// integer lexes one integer literal or pattern at rd.pos.
func (rd *reader) integer() (Value, error) {
	line := rd.line
	neg := false
	if rd.data[rd.pos] == '-' {
		neg = true
		rd.pos++
	}
	n := byteset.Span(numCont, rd.data[rd.pos:])
	text := string(rd.data[rd.pos : rd.pos+n])
	rd.pos += n
	if text == "" {
		return Value{}, rd.errorf(line, "expected a number")
	}

	if match.IsPatternLiteral(text) {
		if neg {
			return Value{}, rd.errorf(line, "negative pattern %s", text)
		}
		w, err := match.ParseWide(text)
		if err != nil {
			return Value{}, rd.errorf(line, "%v", err)
		}
		if m, ok := w.Narrow(); ok {
			return NewMatch(line, m), nil
		}
		return NewBigMatch(line, w.Chunks()), nil
	}

	var z big.Int
	if _, ok := z.SetString(text, 0); !ok {
		return Value{}, rd.errorf(line, "bad number %q", text)
	}
	if neg {
		if z.BitLen() > 63 {
			return Value{}, rd.errorf(line, "-%s is out of range", text)
		}
		return NewInt(line, -z.Int64()), nil
	}
	if z.BitLen() <= 63 {
		return NewInt(line, z.Int64()), nil
	}
	words := make([]uint64, (z.BitLen()+63)/64)
	for i := range words {
		t := new(big.Int).Rsh(&z, uint(64*i))
		words[i] = new(big.Int).And(t, new(big.Int).SetUint64(^uint64(0))).Uint64()
	}
	return NewBigInt(line, words), nil
}

func (rd *reader) lexNumber() error {
	line := rd.line
	lo, err := rd.integer()
	if err != nil {
		return err
	}
	if lo.Type == TInt && bytes.HasPrefix(rd.data[rd.pos:], []byte("..")) {
		rd.pos += 2
		if rd.pos >= len(rd.data) {
			return rd.errorf(line, "incomplete range")
		}
		hi, err := rd.integer()
		if err != nil {
			return err
		}
		if hi.Type != TInt {
			return rd.errorf(line, "range bound %s is not a small integer", hi)
		}
		if lo.I > hi.I {
			return rd.errorf(line, "invalid range %d..%d", lo.I, hi.I)
		}
		rd.tok = token{Kind: tAtom, Line: line, Val: NewRange(line, lo.I, hi.I)}
		return nil
	}
	rd.tok = token{Kind: tAtom, Line: line, Val: lo}
	return nil
}

func (rd *reader) isPunct(ch byte) bool {
	return rd.tok.Kind == tPunct && rd.tok.Ch == ch
}

func (rd *reader) isEnd(endKind tokKind, endCh byte) bool {
	if endKind == tEOF {
		return rd.tok.Kind == tEOF
	}
	return rd.isPunct(endCh)
}

func (rd *reader) isSep() bool {
	return rd.tok.Kind == tNL || rd.isPunct(',')
}

func (rd *reader) skipSeps() error {
	for rd.isSep() {
		if err := rd.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (rd *reader) skipNL() error {
	for rd.tok.Kind == tNL {
		if err := rd.advance(); err != nil {
			return err
		}
	}
	return nil
}

// mapBody parses entries up to (not including) the end token.
func (rd *reader) mapBody(line int, endKind tokKind, endCh byte) (Value, error) {
	out := NewMap(line)
	if err := rd.skipSeps(); err != nil {
		return Value{}, err
	}
	for !rd.isEnd(endKind, endCh) {
		key, err := rd.phrase(true)
		if err != nil {
			return Value{}, err
		}
		if !rd.isPunct(':') {
			return Value{}, rd.errorf(rd.tok.Line, "expected ':' after %s, found %s", key, rd.tok)
		}
		if err := rd.advance(); err != nil {
			return Value{}, err
		}
		val, err := rd.element(true)
		if err != nil {
			return Value{}, err
		}
		out.Map = append(out.Map, Pair{Key: key, Value: val})
		if !rd.isSep() && !rd.isEnd(endKind, endCh) {
			return Value{}, rd.errorf(rd.tok.Line, "expected separator, found %s", rd.tok)
		}
		if err := rd.skipSeps(); err != nil {
			return Value{}, err
		}
	}
	return out, nil
}

func (rd *reader) list(line int) (Value, error) {
	out := NewVec(line)
	if err := rd.skipSeps(); err != nil {
		return Value{}, err
	}
	for !rd.isPunct(']') {
		el, err := rd.element(false)
		if err != nil {
			return Value{}, err
		}
		out.Vec = append(out.Vec, el)
		if !rd.isSep() && !rd.isPunct(']') {
			return Value{}, rd.errorf(rd.tok.Line, "expected separator, found %s", rd.tok)
		}
		if err := rd.skipSeps(); err != nil {
			return Value{}, err
		}
	}
	return out, rd.advance()
}

// element parses a block, a list or a phrase. Phrases of several atoms are
// only allowed where multi is set.
func (rd *reader) element(multi bool) (Value, error) {
	line := rd.tok.Line
	switch {
	case rd.isPunct('{'):
		if err := rd.advance(); err != nil {
			return Value{}, err
		}
		m, err := rd.mapBody(line, tPunct, '}')
		if err != nil {
			return Value{}, err
		}
		return m, rd.advance()
	case rd.isPunct('['):
		if err := rd.advance(); err != nil {
			return Value{}, err
		}
		return rd.list(line)
	}
	return rd.phrase(multi)
}

// phrase parses one atom or call, or with multi, a run of them ending at a
// separator, ':' or a closing bracket.
func (rd *reader) phrase(multi bool) (Value, error) {
	line := rd.tok.Line
	var parts []Value
	for rd.tok.Kind == tAtom {
		v, err := rd.call()
		if err != nil {
			return Value{}, err
		}
		parts = append(parts, v)
		if !multi {
			break
		}
	}
	switch len(parts) {
	case 0:
		return Value{}, rd.errorf(line, "unexpected %s", rd.tok)
	case 1:
		return parts[0], nil
	}
	if parts[0].Type != TStr {
		return Value{}, rd.errorf(line, "%s cannot start a command", parts[0])
	}
	return Value{Type: TCmd, Line: line, Vec: parts}, nil
}

// call parses an atom, and its argument list if one follows directly.
func (rd *reader) call() (Value, error) {
	atom := rd.tok.Val
	if err := rd.advance(); err != nil {
		return Value{}, err
	}
	if atom.Type != TStr || !rd.isPunct('(') {
		return atom, nil
	}
	if err := rd.advance(); err != nil {
		return Value{}, err
	}
	cmd := NewCmd(atom.Line, atom.S)
	if err := rd.skipNL(); err != nil {
		return Value{}, err
	}
	for !rd.isPunct(')') {
		arg, err := rd.element(false)
		if err != nil {
			return Value{}, err
		}
		cmd.Vec = append(cmd.Vec, arg)
		if err := rd.skipNL(); err != nil {
			return Value{}, err
		}
		if rd.isPunct(',') {
			if err := rd.advance(); err != nil {
				return Value{}, err
			}
			if err := rd.skipNL(); err != nil {
				return Value{}, err
			}
		} else if !rd.isPunct(')') {
			return Value{}, rd.errorf(rd.tok.Line, "expected ',' or ')', found %s", rd.tok)
		}
	}
	return cmd, rd.advance()
}
