package mau

import (
	"fmt"

	"github.com/p4lang/p4c-sub024/diag"
)

// P4Type is the kind of P4 object a table implements. It is the top byte
// of the object's handle.
type P4Type uint8

const (
	P4MatchEntry P4Type = 1
	P4ActionData P4Type = 2
	P4Selection  P4Type = 4
	P4Statistics P4Type = 5
	P4Meter      P4Type = 6
	P4Stateful   P4Type = 7

	p4NumTypes = 8
)

var p4TypeNames = map[P4Type]string{
	P4MatchEntry: "match_entry",
	P4ActionData: "action_data",
	P4Selection:  "selection",
	P4Statistics: "statistics",
	P4Meter:      "meter",
	P4Stateful:   "stateful",
}

func (t P4Type) String() string {
	if n, found := p4TypeNames[t]; found {
		return n
	}
	return fmt.Sprintf("P4Type(%d)", uint8(t))
}

func p4TypeOf(k Kind) (P4Type, bool) {
	switch k {
	case KindExactMatch, KindTernaryMatch, KindATCAMMatch, KindProxyHash, KindHashAction, KindPhase0Match:
		return P4MatchEntry, true
	case KindAction:
		return P4ActionData, true
	case KindSelection:
		return P4Selection, true
	case KindCounter:
		return P4Statistics, true
	case KindMeter:
		return P4Meter, true
	case KindStateful:
		return P4Stateful, true
	}
	return 0, false
}

// P4Table is a P4-level object, implemented by one table per stage it
// occupies.
type P4Table struct {
	Line   int
	Name   string
	Type   P4Type
	Handle uint32
	Size   int

	tables []Table
}

// Tables returns the tables implementing p in declaration order.
func (p *P4Table) Tables() []Table {
	return p.tables
}

// p4Alloc returns the P4 object named name, creating it on first use. An
// explicit handle must be of the right type and unique; a size given in
// several places must agree.
func (pl *Pipeline) p4Alloc(typ P4Type, line int, name string, handle uint32, size int) *P4Table {
	if handle != 0 && P4Type(handle>>24) != typ {
		diag.Errorf(line, "Handle %#x of %s is not a %s handle", handle, name, typ)
		return nil
	}
	if prev := pl.p4ByName[typ][name]; prev != nil {
		if handle != 0 && handle != prev.Handle {
			diag.Errorf(line, "Inconsistent handle %#x for %s, previously %#x", handle, name, prev.Handle)
			diag.Notef(prev.Line, "previous definition")
		}
		if size >= 0 {
			if prev.Size >= 0 && prev.Size != size {
				diag.Errorf(line, "Inconsistent size %d for %s, previously %d", size, name, prev.Size)
				diag.Notef(prev.Line, "previous definition")
			} else {
				prev.Size = size
			}
		}
		return prev
	}
	if handle != 0 {
		if prev := pl.p4ByHandle[handle]; prev != nil {
			diag.Errorf(line, "Duplicate handle %#x for %s, previously used by %s", handle, name, prev.Name)
			diag.Notef(prev.Line, "previous definition")
			return nil
		}
		if idx := handle & 0xffffff; idx > pl.maxHandle[typ] {
			pl.maxHandle[typ] = idx
		}
	} else {
		pl.maxHandle[typ]++
		handle = uint32(typ)<<24 | pl.maxHandle[typ]
		for pl.p4ByHandle[handle] != nil {
			pl.maxHandle[typ]++
			handle = uint32(typ)<<24 | pl.maxHandle[typ]
		}
	}
	p := &P4Table{Line: line, Name: name, Type: typ, Handle: handle, Size: size}
	if pl.p4ByName[typ] == nil {
		pl.p4ByName[typ] = make(map[string]*P4Table)
	}
	pl.p4ByName[typ][name] = p
	pl.p4ByHandle[handle] = p
	return p
}
