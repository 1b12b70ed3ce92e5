// Package ctxjson is the JSON object model used to build context.json.
//
// Objects keep key insertion order, so that printing a given tree is
// reproducible byte for byte. Fragments produced per table are combined
// with (*Map).Merge.
//
package ctxjson

import (
	"bytes"
	"strconv"
)

// Obj is any JSON value.
type Obj interface {
	// Equal reports deep equality.
	Equal(Obj) bool

	// Clone returns a deep copy.
	Clone() Obj

	write(buf *bytes.Buffer, indent int)
}

var (
	_ Obj = Bool(false)
	_ Obj = Null{}
	_ Obj = Number(0)
	_ Obj = Float(0)
	_ Obj = String("")
	_ Obj = Vector(nil)
	_ Obj = (*Map)(nil)
)

type Bool bool

func (b Bool) Equal(o Obj) bool {
	x, ok := o.(Bool)
	return ok && x == b
}

func (b Bool) Clone() Obj { return b }

func (b Bool) write(buf *bytes.Buffer, indent int) {
	if b {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
}

// Null is the JSON null. Merging a Null into a Map deletes the key.
type Null struct{}

func (Null) Equal(o Obj) bool {
	_, ok := o.(Null)
	return ok
}

func (n Null) Clone() Obj { return n }

func (Null) write(buf *bytes.Buffer, indent int) {
	buf.WriteString("null")
}

type Number int64

func (n Number) Equal(o Obj) bool {
	x, ok := o.(Number)
	return ok && x == n
}

func (n Number) Clone() Obj { return n }

func (n Number) write(buf *bytes.Buffer, indent int) {
	buf.WriteString(strconv.FormatInt(int64(n), 10))
}

type Float float64

func (f Float) Equal(o Obj) bool {
	x, ok := o.(Float)
	return ok && x == f
}

func (f Float) Clone() Obj { return f }

func (f Float) write(buf *bytes.Buffer, indent int) {
	buf.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 64))
}

type String string

func (s String) Equal(o Obj) bool {
	x, ok := o.(String)
	return ok && x == s
}

func (s String) Clone() Obj { return s }

func (s String) write(buf *bytes.Buffer, indent int) {
	writeQuoted(buf, string(s))
}

type Vector []Obj

func (v Vector) Equal(o Obj) bool {
	x, ok := o.(Vector)
	if !ok || len(x) != len(v) {
		return false
	}
	for i := range v {
		if !v[i].Equal(x[i]) {
			return false
		}
	}
	return true
}

func (v Vector) Clone() Obj {
	if v == nil {
		return Vector(nil)
	}
	out := make(Vector, len(v))
	for i, el := range v {
		out[i] = el.Clone()
	}
	return out
}

func (v Vector) write(buf *bytes.Buffer, indent int) {
	if len(v) == 0 {
		buf.WriteString("[]")
		return
	}
	buf.WriteString("[\n")
	for i, el := range v {
		writeIndent(buf, indent+1)
		el.write(buf, indent+1)
		if i+1 < len(v) {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	writeIndent(buf, indent)
	buf.WriteByte(']')
}

func writeIndent(buf *bytes.Buffer, indent int) {
	for i := 0; i < indent; i++ {
		buf.WriteString("  ")
	}
}

const hexDigits = "0123456789abcdef"

func writeQuoted(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"' || ch == '\\':
			buf.WriteByte('\\')
			buf.WriteByte(ch)
		case ch == '\n':
			buf.WriteString(`\n`)
		case ch == '\t':
			buf.WriteString(`\t`)
		case ch == '\r':
			buf.WriteString(`\r`)
		case ch < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[ch>>4])
			buf.WriteByte(hexDigits[ch&15])
		default:
			buf.WriteByte(ch)
		}
	}
	buf.WriteByte('"')
}
