// Package value is the dynamically typed tree that assembler input parses
// into, with the type-checked accessors the table engine uses to consume it.
//
// Accessors never fail in the Go sense. A value of the wrong shape is
// reported through the diag package at its source line and a zero value is
// returned in its place.
//
package value

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/p4lang/p4c-sub024/bitvec"
	"github.com/p4lang/p4c-sub024/match"
)

// Type discriminates the variants of Value.
type Type uint8

const (
	TInt Type = iota
	TBigInt
	TRange
	TStr
	TMatch
	TBigMatch
	TVec
	TMap
	TCmd
)

var typeNames = []string{
	TInt:      "integer",
	TBigInt:   "integer",
	TRange:    "range",
	TStr:      "identifier",
	TMatch:    "pattern",
	TBigMatch: "pattern",
	TVec:      "list",
	TMap:      "key: value pairs",
	TCmd:      "operation",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Value is one node of the tree. Only the payload fields of its Type are
// meaningful. Vec holds the elements of both TVec and TCmd; a command's
// first element is the TStr naming it.
type Value struct {
	Type Type
	Line int

	I      int64
	Big    []uint64
	Lo, Hi int64
	S      string
	M      match.Match
	BigM   []match.Match
	Vec    []Value
	Map    []Pair
}

// Pair is one entry of a TMap.
type Pair struct {
	Key   Value
	Value Value
}

func NewInt(line int, i int64) Value {
	return Value{Type: TInt, Line: line, I: i}
}

// NewBigInt builds a TBigInt from 64-bit words, least significant first.
func NewBigInt(line int, words []uint64) Value {
	return Value{Type: TBigInt, Line: line, Big: append([]uint64(nil), words...)}
}

// NewRange builds a TRange. The caller guarantees lo <= hi.
func NewRange(line int, lo, hi int64) Value {
	assert(lo <= hi, "range %d..%d is inverted", lo, hi)
	return Value{Type: TRange, Line: line, Lo: lo, Hi: hi}
}

func NewStr(line int, s string) Value {
	return Value{Type: TStr, Line: line, S: s}
}

func NewMatch(line int, m match.Match) Value {
	return Value{Type: TMatch, Line: line, M: m}
}

// NewBigMatch builds a TBigMatch from 64-bit chunks, least significant
// first.
func NewBigMatch(line int, chunks []match.Match) Value {
	return Value{Type: TBigMatch, Line: line, BigM: append([]match.Match(nil), chunks...)}
}

func NewVec(line int, elems ...Value) Value {
	return Value{Type: TVec, Line: line, Vec: elems}
}

func NewMap(line int, pairs ...Pair) Value {
	return Value{Type: TMap, Line: line, Map: pairs}
}

// NewCmd builds the command name(args...).
func NewCmd(line int, name string, args ...Value) Value {
	vec := make([]Value, 0, len(args)+1)
	vec = append(vec, NewStr(line, name))
	vec = append(vec, args...)
	return Value{Type: TCmd, Line: line, Vec: vec}
}

// Is reports whether v is the identifier s.
func (v Value) Is(s string) bool {
	return v.Type == TStr && v.S == s
}

// IsCmd reports whether v is a command named name.
func (v Value) IsCmd(name string) bool {
	return v.Type == TCmd && len(v.Vec) > 0 && v.Vec[0].Is(name)
}

// CmdName returns the name of a command, or "".
func (v Value) CmdName() string {
	if v.Type != TCmd || len(v.Vec) == 0 || v.Vec[0].Type != TStr {
		return ""
	}
	return v.Vec[0].S
}

// Args returns the arguments of a command.
func (v Value) Args() []Value {
	if v.Type != TCmd || len(v.Vec) == 0 {
		return nil
	}
	return v.Vec[1:]
}

// Get returns the value of the first entry of a TMap whose key is the
// identifier key, or nil.
func (v *Value) Get(key string) *Value {
	if v.Type != TMap {
		return nil
	}
	for i := range v.Map {
		if v.Map[i].Key.Is(key) {
			return &v.Map[i].Value
		}
	}
	return nil
}

// Bitvec returns the magnitude of a TInt or TBigInt.
func (v Value) Bitvec() *bitvec.Bitvec {
	switch v.Type {
	case TInt:
		return bitvec.FromUint64(uint64(v.I))
	case TBigInt:
		return bitvec.FromWords(v.Big)
	}
	return &bitvec.Bitvec{}
}

func (v Value) String() string {
	var buf bytes.Buffer
	v.write(&buf)
	return buf.String()
}

func (v Value) write(buf *bytes.Buffer) {
	switch v.Type {
	case TInt:
		buf.WriteString(strconv.FormatInt(v.I, 10))
	case TBigInt:
		buf.WriteString(v.Bitvec().String())
	case TRange:
		fmt.Fprintf(buf, "%d..%d", v.Lo, v.Hi)
	case TStr:
		if isPlainIdent(v.S) {
			buf.WriteString(v.S)
		} else {
			buf.WriteString(strconv.Quote(v.S))
		}
	case TMatch:
		buf.WriteString(v.M.String())
	case TBigMatch:
		buf.WriteString(match.FromChunks(v.BigM).String())
	case TVec:
		buf.WriteByte('[')
		for i, el := range v.Vec {
			if i > 0 {
				buf.WriteString(", ")
			}
			el.write(buf)
		}
		buf.WriteByte(']')
	case TCmd:
		if len(v.Vec) > 0 {
			v.Vec[0].write(buf)
		}
		buf.WriteByte('(')
		for i, el := range v.Args() {
			if i > 0 {
				buf.WriteString(", ")
			}
			el.write(buf)
		}
		buf.WriteByte(')')
	case TMap:
		buf.WriteByte('{')
		for i, p := range v.Map {
			if i > 0 {
				buf.WriteString(", ")
			}
			p.Key.write(buf)
			buf.WriteString(": ")
			p.Value.write(buf)
		}
		buf.WriteByte('}')
	default:
		assert(false, "unknown value type %d", v.Type)
	}
}
