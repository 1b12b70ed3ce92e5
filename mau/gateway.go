package mau

import (
	"fmt"
	"math/bits"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/match"
	"github.com/p4lang/p4c-sub024/value"
)

// runTable is the gateway outcome that runs the attached match table.
const runTable = "run_table"

// GatewayKey is one field slice compared by a gateway.
type GatewayKey struct {
	Line   int
	Field  string
	Lo, Hi int
}

// GatewayRow is one pattern of a gateway with the outcome it selects. A
// nil Next runs the match table.
type GatewayRow struct {
	Line  int
	Match match.Match
	Next  *NextTables
}

func (r *GatewayRow) asm() string {
	if r.Next == nil {
		return runTable
	}
	return r.Next.asm()
}

// Gateway evaluates a few comparisons ahead of (or instead of) a match
// table and picks the next table from the first matching row.
type Gateway struct {
	base

	matchName string
	matchLine int
	match     Table

	keys  []GatewayKey
	width int
	rows  []GatewayRow

	gwMiss    GatewayRow
	hasGwMiss bool

	payloadName string
	payloadLine int
	payload     *Action
}

var _ Table = (*Gateway)(nil)

func newGateway() *Gateway {
	g := &Gateway{}
	g.self = g
	g.kind = KindGateway
	return g
}

func (g *Gateway) setupKey(p *value.Pair) bool {
	switch p.Key.S {
	case "table":
		if value.CheckType(p.Value, value.TStr) {
			g.matchName = p.Value.S
			g.matchLine = p.Value.Line
		}
	case "match":
		g.setupMatch(p.Value)
	case "rows":
		g.setupRows(p.Value)
	case "miss":
		g.gwMiss = g.outcome(p.Value.Line, p.Value)
		g.hasGwMiss = true
	case "payload":
		if value.CheckType(p.Value, value.TStr) {
			g.payloadName = p.Value.S
			g.payloadLine = p.Value.Line
		}
	default:
		return false
	}
	return true
}

func (g *Gateway) setupMatch(v value.Value) {
	elems := []value.Value{v}
	if v.Type == value.TVec {
		elems = v.Vec
	}
	for _, el := range elems {
		args := el.Args()
		if el.Type != value.TCmd || len(args) != 1 || args[0].Type != value.TRange {
			diag.Errorf(el.Line, "Gateway match field %s needs a bit range", el)
			continue
		}
		k := GatewayKey{Line: el.Line, Field: el.CmdName(), Lo: int(args[0].Lo), Hi: int(args[0].Hi)}
		g.keys = append(g.keys, k)
		g.width += k.Hi - k.Lo + 1
	}
	if limit := g.target().GatewayWidth; g.width > limit {
		diag.Errorf(v.Line, "Gateway %s matches %d bits, more than %d", g.name, g.width, limit)
	}
}

func (g *Gateway) outcome(line int, v value.Value) GatewayRow {
	row := GatewayRow{Line: line}
	if !v.Is(runTable) {
		nt := parseNextTables(v)
		row.Next = &nt
	}
	return row
}

func (g *Gateway) setupRows(v value.Value) {
	if !value.CheckType(v, value.TMap) {
		return
	}
	value.MapIterChecked{Map: v.Map, AllowNonString: true}.ForEach(func(p *value.Pair) {
		var m match.Match
		switch p.Key.Type {
		case value.TMatch:
			m = p.Key.M
		case value.TInt:
			if p.Key.I < 0 {
				diag.Errorf(p.Key.Line, "Invalid gateway pattern %d", p.Key.I)
				return
			}
			m = match.Exactly(uint64(p.Key.I), bits.Len64(uint64(p.Key.I)))
		default:
			value.CheckType(p.Key, value.TMatch)
			return
		}
		row := g.outcome(p.Key.Line, p.Value)
		row.Match = m
		g.rows = append(g.rows, row)
	})
	if limit := g.target().GatewayRows; len(g.rows) > limit {
		diag.Errorf(v.Line, "Gateway %s has %d rows, more than %d", g.name, len(g.rows), limit)
	}
}

func (g *Gateway) pass1() {
	if g.matchName != "" {
		t := g.pipe.byName[g.matchName]
		switch {
		case t == nil:
			diag.Errorf(g.matchLine, "No table named %s", g.matchName)
		case !t.Kind().isLogical() || t.Kind() == KindGateway:
			diag.Errorf(g.matchLine, "Gateway %s cannot be attached to %s %s", g.name, t.Kind(), g.matchName)
		case t.tableBase().stage != g.stage || t.tableBase().gress != g.gress:
			diag.Errorf(g.matchLine, "Gateway %s must be in the same stage and gress as %s", g.name, g.matchName)
		default:
			g.match = t
			if mt := matchTableOf(t); mt != nil {
				if mt.gateway != nil {
					diag.Errorf(g.matchLine, "Table %s already has gateway %s", g.matchName, mt.gateway.name)
				} else {
					mt.gateway = g
				}
			}
		}
	}
	for _, row := range g.rows {
		if row.Match.Width() > g.width {
			diag.Errorf(row.Line, "Gateway pattern %s is wider than the %d bits matched", row.Match, g.width)
		}
	}
	if g.match == nil {
		for _, row := range g.rows {
			if row.Next == nil {
				diag.Errorf(row.Line, "%s in gateway %s with no match table", runTable, g.name)
			}
		}
		if g.hasGwMiss && g.gwMiss.Next == nil {
			diag.Errorf(g.gwMiss.Line, "%s in gateway %s with no match table", runTable, g.name)
		}
	}
	g.commonPass1()
}

func matchTableOf(t Table) *matchTable {
	switch x := t.(type) {
	case *ExactMatch:
		return &x.matchTable
	case *TernaryMatch:
		return &x.matchTable
	case *HashAction:
		return &x.matchTable
	}
	return nil
}

func (g *Gateway) pass2() {
	g.commonPass2()
	for _, row := range g.rows {
		if row.Next != nil {
			row.Next.resolve(g)
		}
	}
	if g.hasGwMiss && g.gwMiss.Next != nil {
		g.gwMiss.Next.resolve(g)
	}
	if g.payloadName == "" {
		return
	}
	if g.match == nil {
		diag.Errorf(g.payloadLine, "Gateway %s has a payload but no match table", g.name)
		return
	}
	g.payload = g.match.tableBase().actions.Get(g.payloadName)
	if g.payload == nil {
		diag.Errorf(g.payloadLine, "No action %s in table %s for gateway payload", g.payloadName, g.matchName)
	}
}

// normalizedWords returns m over width bits with unpopulated bits turned
// into "must be 0".
func normalizedWords(m match.Match, width int) (uint64, uint64) {
	mask := ^uint64(0)
	if width < 64 {
		mask = uint64(1)<<uint(width) - 1
	}
	w0 := (m.Word0 | ^(m.Word0 | m.Word1)) & mask
	return w0, m.Word1 & mask
}

func (g *Gateway) writeRegs(r RegisterSink) {
	g.writeRegsCommon(r)
	lid := g.LogicalID()
	if lid < 0 {
		return
	}
	gw := fmt.Sprintf("mau[%d].gateway_table[%d]", g.stage.Num, lid)
	for i, row := range g.rows {
		w0, w1 := normalizedWords(row.Match, g.width)
		rr := fmt.Sprintf("%s.row[%d]", gw, i)
		r.Set(rr+".match0", w0)
		r.Set(rr+".match1", w1)
		if row.Next != nil {
			r.Set(rr+".next_table", uint64(row.Next.NextTableID()))
		} else {
			r.Set(rr+".run_table", 1)
		}
	}
	if g.hasGwMiss {
		if g.gwMiss.Next != nil {
			r.Set(gw+".miss_next_table", uint64(g.gwMiss.Next.NextTableID()))
		} else {
			r.Set(gw+".miss_run_table", 1)
		}
	}
	if g.payload != nil {
		r.Set(gw+".payload", uint64(g.payload.Code))
	}
}

func (g *Gateway) writeAsm(aw *asmWriter) {
	end := aw.block("%s", g.asmHeader())
	if g.matchName != "" {
		aw.linef("table: %s", g.matchName)
	}
	if len(g.keys) > 0 {
		names := make([]string, len(g.keys))
		for i, k := range g.keys {
			names[i] = fmt.Sprintf("%s(%d..%d)", k.Field, k.Lo, k.Hi)
		}
		aw.linef("match: %s", nameList(names))
	}
	if len(g.rows) > 0 {
		endRows := aw.block("rows")
		for _, row := range g.rows {
			aw.linef("%s: %s", row.Match, row.asm())
		}
		endRows()
	}
	if g.hasGwMiss {
		aw.linef("miss: %s", g.gwMiss.asm())
	}
	if g.payloadName != "" {
		aw.linef("payload: %s", g.payloadName)
	}
	g.writeAsmCommon(aw)
	end()
}

// Gateways have no P4 table of their own.
func (g *Gateway) genTblCfg() *ctxjson.Map { return nil }
