package mau

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/value"
)

// BitRange is the inclusive range Lo..Hi of a word.
type BitRange struct {
	Lo, Hi int
}

func (r BitRange) Size() int {
	return r.Hi - r.Lo + 1
}

func (r BitRange) String() string {
	return fmt.Sprintf("%d..%d", r.Lo, r.Hi)
}

// Field is one named field of a table format. Its bits may be split over
// several chunks, least significant first.
type Field struct {
	Name  string
	Group int
	Size  int
	Bits  []BitRange
	Line  int
}

// Bit maps bit i of the field to its position in the format word.
func (f *Field) Bit(i int) int {
	assert(i >= 0 && i < f.Size, "bit %d of %d-bit field %s", i, f.Size, f.Name)
	for _, r := range f.Bits {
		if i < r.Size() {
			return r.Lo + i
		}
		i -= r.Size()
	}
	assert(false, "field %s bits do not cover its size", f.Name)
	return -1
}

// Lo returns the position of the field's least significant bit.
func (f *Field) Lo() int {
	return f.Bits[0].Lo
}

// Hi returns the highest position the field occupies.
func (f *Field) Hi() int {
	hi := -1
	for _, r := range f.Bits {
		if r.Hi > hi {
			hi = r.Hi
		}
	}
	return hi
}

func (f *Field) asm() string {
	if len(f.Bits) == 1 {
		return f.Bits[0].String()
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range f.Bits {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(r.String())
	}
	buf.WriteByte(']')
	return buf.String()
}

// formatNames maps overhead field names to their context.json names.
var formatNames = map[string]string{
	"match":         "match",
	"next":          "next",
	"action":        "action",
	"immediate":     "immediate",
	"version":       "version",
	"counter_addr":  "counter_addr",
	"counter_pfe":   "counter_pfe",
	"meter_addr":    "meter_addr",
	"meter_pfe":     "meter_pfe",
	"meter_type":    "meter_type",
	"action_addr":   "action_addr",
	"sel_len_mod":   "sel_len_mod",
	"sel_len_shift": "sel_len_shift",
	"valid":         "valid",
}

// FormatName returns the context.json name of a format field. Fields that
// are not overhead fields are match data.
func FormatName(name string) string {
	if n, found := formatNames[name]; found {
		return n
	}
	return "match"
}

type fieldGroup struct {
	order  []*Field
	byName map[string]*Field
}

// Format is the bit layout of a table entry, one group per entry packed in
// a wide word.
type Format struct {
	Line     int
	Size     int
	Log2Size int

	tbl    Table
	groups []*fieldGroup
}

func newFormat(tbl Table, v value.Value) *Format {
	f := &Format{Line: v.Line, tbl: tbl}
	if !value.CheckType(v, value.TMap) {
		return f
	}
	type pending struct {
		name  string
		group int
		size  int
		line  int
	}
	var sized []pending
	value.MapIterChecked{Map: v.Map, AllowNonString: true}.ForEach(func(p *value.Pair) {
		name, group := "", 0
		switch {
		case p.Key.Type == value.TStr:
			name = p.Key.S
		case p.Key.Type == value.TCmd && len(p.Key.Args()) == 1 && p.Key.Args()[0].Type == value.TInt:
			name = p.Key.CmdName()
			group = int(p.Key.Args()[0].I)
		default:
			diag.Errorf(p.Key.Line, "Syntax error, expecting field name or name(group)")
			return
		}
		if group < 0 || group >= 64 {
			diag.Errorf(p.Key.Line, "Invalid format group %d", group)
			return
		}
		switch p.Value.Type {
		case value.TInt:
			if p.Value.I <= 0 {
				diag.Errorf(p.Value.Line, "Invalid size %d for field %s", p.Value.I, name)
				return
			}
			sized = append(sized, pending{name, group, int(p.Value.I), p.Key.Line})
		case value.TRange:
			f.add(name, group, []BitRange{{int(p.Value.Lo), int(p.Value.Hi)}}, p.Key.Line)
		case value.TVec:
			var rs []BitRange
			for _, el := range p.Value.Vec {
				if value.CheckType(el, value.TRange) {
					rs = append(rs, BitRange{int(el.Lo), int(el.Hi)})
				}
			}
			if len(rs) > 0 {
				f.add(name, group, rs, p.Key.Line)
			}
		default:
			diag.Errorf(p.Value.Line, "Syntax error, expecting size or bit ranges for field %s", name)
		}
	})
	// Fields given only a size go after everything placed explicitly.
	for _, s := range sized {
		lo := f.groupEnd(s.group)
		f.add(s.name, s.group, []BitRange{{lo, lo + s.size - 1}}, s.line)
	}
	f.finish()
	return f
}

func (f *Format) group(g int) *fieldGroup {
	for len(f.groups) <= g {
		f.groups = append(f.groups, &fieldGroup{byName: make(map[string]*Field)})
	}
	return f.groups[g]
}

func (f *Format) groupEnd(g int) int {
	if g >= len(f.groups) {
		return 0
	}
	end := 0
	for _, fld := range f.groups[g].order {
		if fld.Hi()+1 > end {
			end = fld.Hi() + 1
		}
	}
	return end
}

func (f *Format) add(name string, g int, rs []BitRange, line int) {
	grp := f.group(g)
	if prev, found := grp.byName[name]; found {
		diag.Errorf(line, "Duplicate field %s in format group %d", name, g)
		diag.Notef(prev.Line, "previous definition")
		return
	}
	fld := &Field{Name: name, Group: g, Bits: rs, Line: line}
	for _, r := range rs {
		if r.Lo < 0 {
			diag.Errorf(line, "Invalid bit range %s for field %s", r, name)
			return
		}
		fld.Size += r.Size()
	}
	for _, other := range grp.order {
		for _, a := range rs {
			for _, b := range other.Bits {
				if a.Lo <= b.Hi && b.Lo <= a.Hi {
					diag.Errorf(line, "Field %s overlaps field %s in format group %d", name, other.Name, g)
					return
				}
			}
		}
	}
	grp.order = append(grp.order, fld)
	grp.byName[name] = fld
}

func (f *Format) finish() {
	f.Size = 0
	for _, grp := range f.groups {
		for _, fld := range grp.order {
			if fld.Hi()+1 > f.Size {
				f.Size = fld.Hi() + 1
			}
		}
	}
	f.Log2Size = 0
	if f.Size > 1 {
		f.Log2Size = bits.Len(uint(f.Size - 1))
	}
}

// Groups returns the number of entries packed in one table word.
func (f *Format) Groups() int {
	return len(f.groups)
}

// Field returns the named field of group 0, or nil.
func (f *Format) Field(name string) *Field {
	return f.FieldIn(name, 0)
}

// FieldIn returns the named field of a group, or nil.
func (f *Format) FieldIn(name string, g int) *Field {
	if f == nil || g >= len(f.groups) {
		return nil
	}
	return f.groups[g].byName[name]
}

// Fields returns the fields of a group in declaration order.
func (f *Format) Fields(g int) []*Field {
	if f == nil || g >= len(f.groups) {
		return nil
	}
	return f.groups[g].order
}

func (f *Format) memWordWidth() int {
	return f.tbl.tableBase().target().MemWordWidth
}

// IsWideFormat reports whether an entry spans more than one memory word or
// a word holds several groups.
func (f *Format) IsWideFormat() bool {
	return f.Groups() > 1 || f.Log2Size >= 7
}

func (f *Format) EntriesPerTableWord() int {
	if f.IsWideFormat() {
		return f.Groups()
	}
	return f.memWordWidth() >> uint(f.Log2Size)
}

func (f *Format) MemUnitsPerTableWord() int {
	if f.IsWideFormat() {
		return (f.Size-1)/f.memWordWidth() + 1
	}
	return 1
}

func (f *Format) TableWordWidth() int {
	return f.memWordWidth() * f.MemUnitsPerTableWord()
}

func (f *Format) PaddingFormatWidth() int {
	if f.IsWideFormat() {
		return f.MemUnitsPerTableWord() * f.memWordWidth()
	}
	return 1 << uint(f.Log2Size)
}

func (f *Format) writeAsm(aw *asmWriter) {
	var buf bytes.Buffer
	buf.WriteString("format: { ")
	first := true
	for g, grp := range f.groups {
		for _, fld := range grp.order {
			if !first {
				buf.WriteString(", ")
			}
			first = false
			if f.Groups() > 1 {
				fmt.Fprintf(&buf, "%s(%d): %s", fld.Name, g, fld.asm())
			} else {
				fmt.Fprintf(&buf, "%s: %s", fld.Name, fld.asm())
			}
		}
	}
	buf.WriteString(" }")
	aw.linef("%s", buf.String())
}

// packFormat is the context.json pack_format entry.
func (f *Format) packFormat() *ctxjson.Map {
	entries := ctxjson.Vector{}
	for g, grp := range f.groups {
		fields := ctxjson.Vector{}
		for _, fld := range grp.order {
			start := 0
			for _, r := range fld.Bits {
				fields = append(fields, ctxjson.NewMap().
					Set("field_name", ctxjson.String(fld.Name)).
					Set("source", ctxjson.String(FormatName(fld.Name))).
					Set("lsb_mem_word_offset", ctxjson.Number(r.Lo)).
					Set("start_bit", ctxjson.Number(start)).
					Set("field_width", ctxjson.Number(r.Size())))
				start += r.Size()
			}
		}
		entries = append(entries, ctxjson.NewMap().
			Set("entry_number", ctxjson.Number(g)).
			Set("fields", fields))
	}
	return ctxjson.NewMap().
		Set("memory_word_width", ctxjson.Number(f.memWordWidth())).
		Set("entries_per_table_word", ctxjson.Number(f.EntriesPerTableWord())).
		Set("number_memory_units_per_table_word", ctxjson.Number(f.MemUnitsPerTableWord())).
		Set("table_word_width", ctxjson.Number(f.TableWordWidth())).
		Set("entries", entries)
}
