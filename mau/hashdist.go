package mau

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/value"
)

// XbarUse is the set of output busses a hash distribution unit drives.
type XbarUse uint8

const (
	ImmediateHigh XbarUse = 1 << iota
	ImmediateLow
	MeterAddress
	StatisticsAddress
	ActionDataAddress
	HashmodDividend
)

var xbarUseNames = []struct {
	Bit  XbarUse
	Name string
}{
	{ImmediateHigh, "immed hi"},
	{ImmediateLow, "immed lo"},
	{MeterAddress, "meter addr"},
	{StatisticsAddress, "stats addr"},
	{ActionDataAddress, "action addr"},
	{HashmodDividend, "hashmod-div"},
}

var outputNames = map[string]XbarUse{
	"immediate_lo":   ImmediateLow,
	"lo":             ImmediateLow,
	"immediate_hi":   ImmediateHigh,
	"hi":             ImmediateHigh,
	"meter":          MeterAddress,
	"meter_address":  MeterAddress,
	"stats":          StatisticsAddress,
	"stats_address":  StatisticsAddress,
	"action":         ActionDataAddress,
	"action_address": ActionDataAddress,
	"hashmod":        HashmodDividend,
}

// String decodes u as "a, b and c". Bits with no name print in hex.
func (u XbarUse) String() string {
	var parts []string
	left := u
	for _, n := range xbarUseNames {
		if left&n.Bit != 0 {
			parts = append(parts, n.Name)
			left &^= n.Bit
		}
	}
	if left != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint8(left)))
	}
	switch len(parts) {
	case 0:
		return "nothing"
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

// outputs renders u as the .bfa output list.
func (u XbarUse) outputs() string {
	var names []string
	for _, n := range []struct {
		Bit  XbarUse
		Name string
	}{
		{ImmediateLow, "lo"},
		{ImmediateHigh, "hi"},
		{MeterAddress, "meter"},
		{StatisticsAddress, "stats"},
		{ActionDataAddress, "action"},
		{HashmodDividend, "hashmod"},
	} {
		if u&n.Bit != 0 {
			names = append(names, n.Name)
		}
	}
	return nameList(names)
}

type DelayType uint8

const (
	DelayOther DelayType = iota
	DelaySelector
)

func (d DelayType) String() string {
	if d == DelaySelector {
		return "selector"
	}
	return "other"
}

// expandStride is the bit offset between the two expandable units of a
// group of three.
const expandStride = 7

// HashDistribution is one table's use of a hash distribution unit.
type HashDistribution struct {
	tbl  Table
	Line int

	ID        int
	HashGroup int
	Shift     int
	Mask      int
	Expand    int
	XbarUse   XbarUse
	DelayType DelayType
	NonLinear bool

	MeterPreColor  bool
	MeterMaskIndex int
}

func newHashDistribution(tbl Table, id int, line int) *HashDistribution {
	return &HashDistribution{
		tbl:       tbl,
		Line:      line,
		ID:        id,
		HashGroup: -1,
		Mask:      0xffff,
		Expand:    -1,
	}
}

// parseHashDist reads a hash_dist section, a map from unit id to settings.
func parseHashDist(tbl Table, v value.Value) []*HashDistribution {
	if !value.CheckType(v, value.TMap) {
		return nil
	}
	units := tbl.tableBase().target().HashDistUnits
	var out []*HashDistribution
	value.MapIterChecked{Map: v.Map, AllowNonString: true}.ForEach(func(p *value.Pair) {
		if !value.CheckType(p.Key, value.TInt) {
			return
		}
		id := int(p.Key.I)
		if id < 0 || id >= units {
			diag.Errorf(p.Key.Line, "Invalid hash_dist unit %d", id)
			return
		}
		hd := newHashDistribution(tbl, id, p.Key.Line)
		hd.setup(p.Value)
		out = append(out, hd)
	})
	return out
}

func (hd *HashDistribution) setup(v value.Value) {
	if !value.CheckType(v, value.TMap) {
		return
	}
	value.Checked(v).ForEach(func(p *value.Pair) {
		switch p.Key.S {
		case "hash":
			if value.CheckType(p.Value, value.TInt) {
				if p.Value.I < 0 || p.Value.I >= int64(hd.tbl.tableBase().target().HashGroups) {
					diag.Errorf(p.Value.Line, "Invalid hash group")
				} else {
					hd.HashGroup = int(p.Value.I)
				}
			}
		case "mask":
			hd.Mask = value.GetInt(p.Value, 23, "hash_dist mask too wide")
		case "shift":
			hd.Shift = value.GetInt(p.Value, 5, "hash_dist shift out of range")
		case "expand":
			hd.Expand = value.GetInt(p.Value, 5, "hash_dist expand out of range")
		case "output":
			hd.setOutput(p.Value)
		default:
			diag.Warnf(p.Key.Line, "ignoring unknown item %s in hash_dist", p.Key.S)
		}
	})
}

func (hd *HashDistribution) setOutput(v value.Value) {
	names := []value.Value{v}
	if v.Type == value.TVec {
		names = v.Vec
	}
	for _, n := range names {
		if !value.CheckType(n, value.TStr) {
			continue
		}
		if use, found := outputNames[n.S]; found {
			hd.XbarUse |= use
		} else {
			diag.Errorf(n.Line, "Unrecognized hash_dist output %s", n.S)
		}
	}
}

// Compatible reports whether hd and a can share one physical unit.
func (hd *HashDistribution) Compatible(a *HashDistribution) bool {
	if hd.HashGroup != a.HashGroup || hd.ID != a.ID || hd.Shift != a.Shift || hd.Expand != a.Expand {
		return false
	}
	if hd.DelayType != a.DelayType || hd.NonLinear != a.NonLinear {
		return false
	}
	if hd.MeterPreColor && !a.MeterPreColor {
		return hd.Mask&^a.Mask == 0
	}
	if a.MeterPreColor && !hd.MeterPreColor {
		return a.Mask&^hd.Mask == 0
	}
	return true
}

// sibling returns the other expandable unit of hd's group of three.
func (hd *HashDistribution) sibling() int {
	return hd.ID - hd.ID%3 + 1 - hd.ID%3
}

// pass1 checks hd against the uses of its unit already registered on the
// stage, then registers it unless a conflict was found.
func (hd *HashDistribution) pass1() {
	st := hd.tbl.tableBase().stage
	ok := true
	for _, use := range st.hashDistUse[hd.ID] {
		if !hd.Compatible(use) {
			diag.Errorf(hd.Line, "Incompatible use of hash_dist %d in table %s", hd.ID, hd.tbl.Name())
			diag.Notef(use.Line, "previous use in table %s", use.tbl.Name())
			ok = false
		}
	}
	if hd.Expand >= 0 {
		pos := hd.ID % 3
		if pos == 2 {
			diag.Errorf(hd.Line, "hash_dist unit %d cannot be expanded", hd.ID)
			ok = false
		} else {
			if want := pos * expandStride; hd.Expand != want {
				diag.Errorf(hd.Line, "hash_dist unit %d can only expand from bit %d", hd.ID, want)
				ok = false
			}
			other := hd.sibling()
			for _, use := range st.hashDistUse[other] {
				if use.Expand >= 0 && abs(use.Expand-hd.Expand) != expandStride {
					diag.Errorf(hd.Line, "hash_dist unit %d expand conflicts with unit %d", hd.ID, other)
					diag.Notef(use.Line, "previous use in table %s", use.tbl.Name())
					ok = false
				}
			}
		}
	}
	if ok {
		st.hashDistUse[hd.ID] = append(st.hashDistUse[hd.ID], hd)
	}
	// Units of a group of three share one hash group. The registry slot
	// consulted here is hd's own, not the sibling's.
	for _, use := range st.hashDistUse[hd.ID] {
		if use != hd && use.HashGroup != hd.HashGroup {
			diag.Errorf(hd.Line, "hash_dist units %d and %d use different hash groups (%d and %d)", hd.ID, use.ID, hd.HashGroup, use.HashGroup)
			diag.Notef(use.Line, "previous use in table %s", use.tbl.Name())
		}
	}
}

// checkHashDistUse runs the per-table checks: duplicate ids and units of
// one table driving the same output.
func checkHashDistUse(tbl Table, hds []*HashDistribution) {
	for i, a := range hds {
		for _, b := range hds[:i] {
			if a.ID == b.ID {
				diag.Errorf(a.Line, "Duplicate hash_dist %d in table %s", a.ID, tbl.Name())
				diag.Notef(b.Line, "previous definition")
				break
			}
			if overlap := a.XbarUse & b.XbarUse; overlap != 0 {
				diag.Errorf(a.Line, "hash_dist %d and %d in table %s both output %s", b.ID, a.ID, tbl.Name(), overlap)
			}
		}
	}
}

// writeRegs projects hd onto the stage's hash distribution registers.
// Expansion also enables the sibling unit and copies the delay type to it.
func (hd *HashDistribution) writeRegs(r RegisterSink) {
	st := hd.tbl.tableBase().stage.Num
	unit := fmt.Sprintf("mau[%d].hash_dist[%d]", st, hd.ID)
	if hd.HashGroup >= 0 {
		r.Set(unit+".hash_group", uint64(hd.HashGroup))
	}
	r.Set(unit+".shift", uint64(hd.Shift))
	r.Set(unit+".mask", uint64(hd.Mask))
	r.Set(unit+".enable", 1)
	r.Set(unit+".delay_type", uint64(hd.DelayType))
	for _, n := range xbarUseNames {
		if hd.XbarUse&n.Bit != 0 {
			r.Set(fmt.Sprintf("mau[%d].hash_dist_xbar[%d].%s", st, hd.ID, strings.Replace(n.Name, " ", "_", -1)), 1)
		}
	}
	if hd.NonLinear {
		r.Set(unit+".non_linear", 1)
	}
	if hd.Expand >= 0 {
		r.Set(unit+".expand", uint64(hd.Expand))
		other := fmt.Sprintf("mau[%d].hash_dist[%d]", st, hd.sibling())
		r.Set(other+".enable", 1)
		r.Set(other+".delay_type", uint64(hd.DelayType))
	}
	if hd.MeterPreColor {
		r.Set(fmt.Sprintf("mau[%d].meter_pre_color_hash_map[%d]", st, hd.MeterMaskIndex), uint64(hd.ID))
	}
}

func (hd *HashDistribution) asm() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d: { ", hd.ID)
	if hd.HashGroup >= 0 {
		fmt.Fprintf(&buf, "hash: %d, ", hd.HashGroup)
	}
	fmt.Fprintf(&buf, "mask: %#x, shift: %d", hd.Mask, hd.Shift)
	if hd.Expand >= 0 {
		fmt.Fprintf(&buf, ", expand: %d", hd.Expand)
	}
	if hd.XbarUse != 0 {
		fmt.Fprintf(&buf, ", output: %s", hd.XbarUse.outputs())
	}
	buf.WriteString(" }")
	return buf.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
