package mau

import (
	"bytes"
	"fmt"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/value"
)

// Layout is the memory a table uses on one row: the RAM (or TCAM) columns,
// the match or action bus, and the VPN given to each column.
type Layout struct {
	Line    int
	Row     int
	Bus     int
	Columns []int
	VPNs    []int
}

// intsOf accepts an integer, a range or a list of either. A range must lie
// within 0..limit-1; one that does not is reported and skipped unexpanded.
// Single integers are left for the caller to check.
func intsOf(v value.Value, limit int, what string) []int {
	var out []int
	elems := []value.Value{v}
	if v.Type == value.TVec {
		elems = v.Vec
	}
	for _, el := range elems {
		switch el.Type {
		case value.TInt:
			out = append(out, int(el.I))
		case value.TRange:
			if el.Lo < 0 || el.Hi >= int64(limit) {
				diag.Errorf(el.Line, "Invalid %s range %d..%d, limit is %d", what, el.Lo, el.Hi, limit)
				continue
			}
			for i := el.Lo; i <= el.Hi; i++ {
				out = append(out, int(i))
			}
		default:
			value.CheckType2(el, value.TInt, value.TRange)
		}
	}
	return out
}

// layoutLimits bounds the column and vpn lists of one layout row.
type layoutLimits struct {
	Columns int
	VPNs    int
}

func (b *base) layoutLimits() layoutLimits {
	tp := b.target()
	lim := layoutLimits{Columns: tp.SRAMColumns, VPNs: tp.SRAMRows * tp.SRAMColumns}
	if b.kind == KindTernaryMatch {
		lim.Columns = tp.TCAMColumns
	}
	return lim
}

func newLayout(line int, lim layoutLimits, row, cols, bus, vpns *value.Value) Layout {
	l := Layout{Line: line, Row: -1, Bus: -1}
	if row != nil && value.CheckType(*row, value.TInt) {
		l.Row = int(row.I)
	}
	if cols != nil {
		l.Columns = intsOf(*cols, lim.Columns, "column")
	}
	if bus != nil && value.CheckType(*bus, value.TInt) {
		l.Bus = int(bus.I)
	}
	if vpns != nil {
		l.VPNs = intsOf(*vpns, lim.VPNs, "vpn")
		if len(l.VPNs) != len(l.Columns) {
			diag.Errorf(vpns.Line, "Wrong number of vpns (%d) for %d columns", len(l.VPNs), len(l.Columns))
			l.VPNs = nil
		}
	}
	return l
}

// parseLayouts reads an explicit layout: list, one map per row.
func parseLayouts(v value.Value, lim layoutLimits) []Layout {
	elems := []value.Value{v}
	if v.Type == value.TVec {
		elems = v.Vec
	}
	var out []Layout
	for _, el := range elems {
		if !value.CheckType(el, value.TMap) {
			continue
		}
		var row, cols, bus, vpns *value.Value
		value.Checked(el).ForEach(func(p *value.Pair) {
			switch p.Key.S {
			case "row":
				row = &p.Value
			case "column":
				cols = &p.Value
			case "bus":
				bus = &p.Value
			case "vpns":
				vpns = &p.Value
			default:
				diag.Warnf(p.Key.Line, "ignoring unknown item %s in layout", p.Key.S)
			}
		})
		if row == nil {
			diag.Errorf(el.Line, "No row in layout")
			continue
		}
		out = append(out, newLayout(el.Line, lim, row, cols, bus, vpns))
	}
	return out
}

func (l Layout) writeAsm(aw *asmWriter, inList bool) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "row: %d", l.Row)
	if len(l.Columns) > 0 {
		fmt.Fprintf(&buf, ", column: %s", intList(l.Columns))
	}
	if l.Bus >= 0 {
		fmt.Fprintf(&buf, ", bus: %d", l.Bus)
	}
	if len(l.VPNs) > 0 {
		fmt.Fprintf(&buf, ", vpns: %s", intList(l.VPNs))
	}
	if inList {
		aw.linef("- { %s }", buf.String())
	} else {
		aw.linef("%s", buf.String())
	}
}

// memName is the kind of memory a table's layout refers to.
func memName(t Table) string {
	switch t.Kind() {
	case KindTernaryMatch:
		return "tcam"
	case KindGateway:
		return "gateway"
	case KindIdletime:
		return "mapram"
	}
	return "ram"
}

func (l Layout) writeRegs(r RegisterSink, b *base) {
	mem := memName(b.self)
	for i, col := range l.Columns {
		unit := fmt.Sprintf("mau[%d].%s[%d][%d]", b.stage.Num, mem, l.Row, col)
		r.Set(unit+".enable", 1)
		if i < len(l.VPNs) {
			r.Set(unit+".vpn", uint64(l.VPNs[i]))
		}
		if b.hasLogicalID() && b.logicalID >= 0 {
			r.Set(unit+".logical_table", uint64(b.logicalID))
		}
	}
	if l.Bus >= 0 && b.hasLogicalID() && b.logicalID >= 0 {
		r.Set(fmt.Sprintf("mau[%d].match_bus[%d][%d].logical_table", b.stage.Num, l.Row, l.Bus), uint64(b.logicalID))
	}
}

func (l Layout) toJSON() *ctxjson.Map {
	units := ctxjson.Vector{}
	for i, col := range l.Columns {
		u := ctxjson.NewMap().
			Set("row", ctxjson.Number(l.Row)).
			Set("column", ctxjson.Number(col))
		if i < len(l.VPNs) {
			u.Set("vpn", ctxjson.Number(l.VPNs[i]))
		}
		units = append(units, u)
	}
	return ctxjson.NewMap().
		Set("row", ctxjson.Number(l.Row)).
		Set("bus", ctxjson.Number(l.Bus)).
		Set("memory_units", units)
}

// allowRAMSharing reports whether two tables may use the same memory unit:
// only stage splits of one P4 table may.
func allowRAMSharing(a, b Table) bool {
	pa, pb := a.tableBase().p4, b.tableBase().p4
	return pa != nil && pa == pb
}

// allowBusSharing reports whether two tables may drive the same bus: a
// gateway shares it with the match table it is attached to.
func allowBusSharing(a, b Table) bool {
	if gw, ok := a.(*Gateway); ok && gw.match == b {
		return true
	}
	if gw, ok := b.(*Gateway); ok && gw.match == a {
		return true
	}
	return false
}
