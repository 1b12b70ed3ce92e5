package ctxjson

import (
	"bytes"
	"io"

	"golang.org/x/exp/slices"
)

// Map is a JSON object. Keys iterate in insertion order.
type Map struct {
	keys []string
	vals map[string]Obj
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Obj)}
}

// Set stores v under k and returns m. A new key goes last; an existing key
// keeps its position.
func (m *Map) Set(k string, v Obj) *Map {
	if m.vals == nil {
		m.vals = make(map[string]Obj)
	}
	if _, found := m.vals[k]; !found {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
	return m
}

// Get returns the value under k, or nil.
func (m *Map) Get(k string) Obj {
	if m == nil {
		return nil
	}
	return m.vals[k]
}

// Has reports whether k is present.
func (m *Map) Has(k string) bool {
	_, found := m.vals[k]
	return found
}

// Delete removes k.
func (m *Map) Delete(k string) {
	if _, found := m.vals[k]; !found {
		return
	}
	delete(m.vals, k)
	i := slices.Index(m.keys, k)
	m.keys = slices.Delete(m.keys, i, i+1)
}

// Keys returns the keys in order.
func (m *Map) Keys() []string {
	return slices.Clone(m.keys)
}

func (m *Map) Len() int {
	return len(m.keys)
}

// Map returns the Map under k, creating it if absent. A non-map value is
// replaced.
func (m *Map) Map(k string) *Map {
	if sub, ok := m.Get(k).(*Map); ok {
		return sub
	}
	sub := NewMap()
	m.Set(k, sub)
	return sub
}

// Merge folds o into m: nested maps merge recursively, nested vectors
// concatenate, a Null deletes the key, and anything else replaces the
// existing value. o is not modified.
func (m *Map) Merge(o *Map) *Map {
	for _, k := range o.keys {
		v := o.vals[k]
		if _, isNull := v.(Null); isNull {
			m.Delete(k)
			continue
		}
		cur, found := m.vals[k]
		if !found {
			m.Set(k, v.Clone())
			continue
		}
		switch x := cur.(type) {
		case *Map:
			if y, ok := v.(*Map); ok {
				x.Merge(y)
				continue
			}
		case Vector:
			if y, ok := v.(Vector); ok {
				m.vals[k] = append(x, y.Clone().(Vector)...)
				continue
			}
		}
		m.vals[k] = v.Clone()
	}
	return m
}

func (m *Map) Equal(o Obj) bool {
	x, ok := o.(*Map)
	if !ok || x.Len() != m.Len() {
		return false
	}
	for i, k := range m.keys {
		if x.keys[i] != k || !m.vals[k].Equal(x.vals[k]) {
			return false
		}
	}
	return true
}

func (m *Map) Clone() Obj {
	out := NewMap()
	for _, k := range m.keys {
		out.Set(k, m.vals[k].Clone())
	}
	return out
}

func (m *Map) write(buf *bytes.Buffer, indent int) {
	if m.Len() == 0 {
		buf.WriteString("{}")
		return
	}
	buf.WriteString("{\n")
	for i, k := range m.keys {
		writeIndent(buf, indent+1)
		writeQuoted(buf, k)
		buf.WriteString(": ")
		m.vals[k].write(buf, indent+1)
		if i+1 < len(m.keys) {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	writeIndent(buf, indent)
	buf.WriteByte('}')
}

// Text returns the indented rendering of o.
func Text(o Obj) string {
	var buf bytes.Buffer
	o.write(&buf, 0)
	return buf.String()
}

// Print writes the indented rendering of o, followed by a newline.
func Print(w io.Writer, o Obj) error {
	var buf bytes.Buffer
	o.write(&buf, 0)
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
