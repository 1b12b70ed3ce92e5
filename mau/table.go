package mau

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/target"
	"github.com/p4lang/p4c-sub024/value"
)

// Kind is the type of a table as written in its declaration.
type Kind uint8

const (
	KindExactMatch Kind = iota
	KindTernaryMatch
	KindATCAMMatch
	KindProxyHash
	KindHashAction
	KindPhase0Match
	KindGateway
	KindAction
	KindCounter
	KindMeter
	KindSelection
	KindStateful
	KindTernaryIndirect
	KindIdletime
)

var kindNames = []string{
	KindExactMatch:      "exact_match",
	KindTernaryMatch:    "ternary_match",
	KindATCAMMatch:      "atcam_match",
	KindProxyHash:       "proxy_hash",
	KindHashAction:      "hash_action",
	KindPhase0Match:     "phase0_match",
	KindGateway:         "gateway",
	KindAction:          "action",
	KindCounter:         "counter",
	KindMeter:           "meter",
	KindSelection:       "selection",
	KindStateful:        "stateful",
	KindTernaryIndirect: "ternary_indirect",
	KindIdletime:        "idletime",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func kindByName(s string) (Kind, bool) {
	i := slices.Index(kindNames, s)
	if i < 0 || Kind(i) == KindIdletime {
		return 0, false
	}
	return Kind(i), true
}

// isLogical reports whether tables of kind k occupy a logical table slot
// and so can be the target of a next table.
func (k Kind) isLogical() bool {
	switch k {
	case KindExactMatch, KindTernaryMatch, KindATCAMMatch, KindProxyHash, KindHashAction, KindGateway:
		return true
	}
	return false
}

type Gress uint8

const (
	Ingress Gress = iota
	Egress
)

func (g Gress) String() string {
	if g == Egress {
		return "egress"
	}
	return "ingress"
}

func parseGress(v value.Value) (Gress, bool) {
	switch {
	case v.Is("ingress"):
		return Ingress, true
	case v.Is("egress"):
		return Egress, true
	}
	diag.Errorf(v.Line, "Syntax error, expecting ingress or egress")
	return Ingress, false
}

// Table is one table of a stage. The pass methods run in order over every
// table of the pipeline: pass0 on all tables, then pass1 on all, and so on.
type Table interface {
	Name() string
	Kind() Kind
	Line() int

	tableBase() *base
	setupKey(p *value.Pair) bool

	pass0()
	pass1()
	pass2()
	pass3()

	writeRegs(r RegisterSink)
	genTblCfg() *ctxjson.Map
	writeAsm(aw *asmWriter)
}

// base holds the state every table carries. Each variant embeds it and
// overrides the pass methods it needs.
type base struct {
	self Table

	name      string
	kind      Kind
	line      int
	gress     Gress
	stage     *Stage
	pipe      *Pipeline
	logicalID int
	explicit  bool

	p4      *P4Table
	size    int
	format  *Format
	actions *Actions
	layout  []Layout

	hashDist   []*HashDistribution
	calls      []*Call
	hit        []*NextTables
	miss       *NextTables
	longBranch map[int][]string
	lbLine     int
}

func (b *base) Name() string     { return b.name }
func (b *base) Kind() Kind        { return b.kind }
func (b *base) Line() int         { return b.line }
func (b *base) tableBase() *base { return b }

func (b *base) setupKey(p *value.Pair) bool { return false }

func (b *base) pass0() {}
func (b *base) pass1() { b.commonPass1() }
func (b *base) pass2() { b.commonPass2() }
func (b *base) pass3() {}

func (b *base) target() *target.Params {
	return b.pipe.tp
}

func (b *base) hasLogicalID() bool {
	return b.kind.isLogical()
}

// LogicalID returns the table's logical id, or -1 before one is assigned.
func (b *base) LogicalID() int {
	return b.logicalID
}

// effectiveFormat is the format holding the table's overhead fields. A
// ternary match keeps them in its indirect table.
func (b *base) effectiveFormat() *Format {
	if tm, ok := b.self.(*TernaryMatch); ok && tm.indirect != nil {
		return tm.indirect.format
	}
	return b.format
}

// usesActionField reports whether action codes are selected by a format
// field rather than by the action's position.
func (b *base) usesActionField() bool {
	f := b.effectiveFormat()
	return f != nil && f.Groups() > 0
}

// formatField finds a field the table's calls and actions may refer to.
func (b *base) formatField(name string) *Field {
	return b.effectiveFormat().Field(name)
}

func (b *base) hashDistByID(id int) *HashDistribution {
	for _, hd := range b.hashDist {
		if hd.ID == id {
			return hd
		}
	}
	return nil
}

// setup consumes the body of a table declaration. Keys the variant does
// not take are handled here; unknown keys are warned about and ignored.
func (b *base) setup(v value.Value) {
	if !value.CheckType(v, value.TMap) {
		return
	}
	var row, cols, bus, vpns *value.Value
	value.Checked(v).ForEach(func(p *value.Pair) {
		if b.self.setupKey(p) {
			return
		}
		switch p.Key.S {
		case "p4":
			b.setupP4(p.Value)
		case "size":
			b.size = value.GetInt(p.Value, 31, "table size out of range")
		case "row":
			row = &p.Value
		case "column":
			cols = &p.Value
		case "bus":
			bus = &p.Value
		case "vpns":
			vpns = &p.Value
		case "layout":
			b.layout = append(b.layout, parseLayouts(p.Value, b.layoutLimits())...)
		case "format":
			b.format = newFormat(b.self, p.Value)
		case "actions":
			b.actions = newActions(b.self, p.Value)
		case "hash_dist":
			b.hashDist = append(b.hashDist, parseHashDist(b.self, p.Value)...)
		case "hit", "next":
			nt := parseNextTables(p.Value)
			b.hit = append(b.hit, &nt)
		case "miss":
			nt := parseNextTables(p.Value)
			b.miss = &nt
		case "long_branch":
			b.setupLongBranch(p.Value)
		case "meter", "counter", "stats", "selector", "action", "stateful":
			elems := []value.Value{p.Value}
			if p.Value.Type == value.TVec {
				elems = p.Value.Vec
			}
			for _, el := range elems {
				if c := parseCall(el); c != nil {
					c.key = p.Key.S
					b.calls = append(b.calls, c)
				}
			}
		default:
			diag.Warnf(p.Key.Line, "ignoring unknown item %s in table %s", p.Key.S, b.name)
		}
	})
	if row != nil {
		b.layout = append(b.layout, newLayout(row.Line, b.layoutLimits(), row, cols, bus, vpns))
	} else if cols != nil || bus != nil {
		diag.Errorf(v.Line, "No row specified in table %s", b.name)
	}
}

func (b *base) setupLongBranch(v value.Value) {
	if !value.CheckType(v, value.TMap) {
		return
	}
	b.lbLine = v.Line
	if b.longBranch == nil {
		b.longBranch = make(map[int][]string)
	}
	value.MapIterChecked{Map: v.Map, AllowNonString: true}.ForEach(func(p *value.Pair) {
		if !value.CheckType(p.Key, value.TInt) {
			return
		}
		tag := int(p.Key.I)
		if tag < 0 || tag >= b.target().LongBranchTags {
			diag.Errorf(p.Key.Line, "Invalid long branch tag %d", tag)
			return
		}
		nt := parseNextTables(p.Value)
		b.longBranch[tag] = append(b.longBranch[tag], nt.names...)
	})
}

// nextTables returns every NextTables of the table and its actions.
func (b *base) nextTables() []*NextTables {
	out := append([]*NextTables(nil), b.hit...)
	if b.miss != nil {
		out = append(out, b.miss)
	}
	for _, act := range b.actions.List() {
		if act.NextHit != nil {
			out = append(out, act.NextHit)
		}
		if act.NextMiss != nil {
			out = append(out, act.NextMiss)
		}
	}
	return out
}

func (b *base) commonPass1() {
	if b.kind.isLogical() {
		b.stage.claimLogicalID(b.self)
	}
	checkHashDistUse(b.self, b.hashDist)
	for _, hd := range b.hashDist {
		hd.pass1()
	}
	for _, c := range b.calls {
		c.resolveArgs(b.self)
	}
	for _, l := range b.layout {
		b.stage.claimLayout(b.self, l)
	}
	if b.actions != nil {
		b.actions.pass1()
	}
}

func (b *base) commonPass2() {
	for _, nt := range b.nextTables() {
		nt.resolve(b.self)
	}
	if b.actions != nil {
		b.actions.pass2()
	}
	for _, c := range b.calls {
		if want, ok := callKinds[c.key]; ok {
			c.resolveTarget(b.self, want)
		}
	}
	b.checkNextTableMap()
	b.checkLongBranches()
}

var callKinds = map[string]Kind{
	"meter":    KindMeter,
	"counter":  KindCounter,
	"stats":    KindCounter,
	"selector": KindSelection,
	"action":   KindAction,
	"stateful": KindStateful,
}

// checkNextTableMap limits the distinct next tables reachable on hit.
func (b *base) checkNextTableMap() {
	var ids []int
	add := func(nt *NextTables) {
		if !nt.resolved {
			return
		}
		if id := nt.NextTableID(); !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	for _, nt := range b.hit {
		add(nt)
	}
	for _, act := range b.actions.List() {
		if act.NextHit != nil {
			add(act.NextHit)
		}
	}
	if limit := b.target().NextTableMapSize; len(ids) > limit {
		diag.Errorf(b.line, "Too many next tables for table %s (%d, max %d)", b.name, len(ids), limit)
	}
}

func (b *base) checkLongBranches() {
	for _, names := range b.longBranch {
		for _, name := range names {
			if b.pipe.byName[name] == nil {
				diag.Errorf(b.lbLine, "No table named %s", name)
			}
		}
	}
	for _, nt := range b.nextTables() {
		if !nt.resolved || !nt.needsLongBranch(b.self) {
			continue
		}
		if nt.ResolveLongBranch(b.self, b.longBranch) {
			continue
		}
		if len(nt.tables) > 1 && b.target().LongBranchTags > 0 {
			diag.Errorf(nt.Line, "Multiple next tables of %s need a long_branch tag", b.name)
		}
	}
}

func (b *base) setupP4(v value.Value) {
	if !value.CheckType(v, value.TMap) {
		return
	}
	var name string
	var handle uint32
	size := -1
	value.Checked(v).ForEach(func(p *value.Pair) {
		switch p.Key.S {
		case "name":
			if value.CheckType(p.Value, value.TStr) {
				name = p.Value.S
			}
		case "handle":
			handle = uint32(value.GetInt64(p.Value, 32, "p4 handle out of range"))
		case "size":
			size = value.GetInt(p.Value, 31, "p4 size out of range")
		default:
			diag.Warnf(p.Key.Line, "ignoring unknown item %s in p4", p.Key.S)
		}
	})
	if name == "" {
		diag.Errorf(v.Line, "No name in p4 info for table %s", b.name)
		return
	}
	typ, ok := p4TypeOf(b.kind)
	if !ok {
		diag.Errorf(v.Line, "%s tables have no p4 info", b.kind)
		return
	}
	b.p4 = b.pipe.p4Alloc(typ, v.Line, name, handle, size)
	if b.p4 != nil {
		b.p4.tables = append(b.p4.tables, b.self)
		if b.size == 0 && b.p4.Size > 0 {
			b.size = b.p4.Size
		}
	}
}

// writeAsmCommon writes the keys shared by every variant, in fixed order.
func (b *base) writeAsmCommon(aw *asmWriter) {
	if b.p4 != nil {
		if b.p4.Size >= 0 {
			aw.linef("p4: { name: %s, handle: %#x, size: %d }", b.p4.Name, b.p4.Handle, b.p4.Size)
		} else {
			aw.linef("p4: { name: %s, handle: %#x }", b.p4.Name, b.p4.Handle)
		}
	}
	if b.size > 0 {
		aw.linef("size: %d", b.size)
	}
	for _, l := range b.layout {
		l.writeAsm(aw, len(b.layout) > 1)
	}
	if b.format != nil && b.format.Size > 0 {
		b.format.writeAsm(aw)
	}
	if len(b.hashDist) > 0 {
		end := aw.block("hash_dist")
		for _, hd := range b.hashDist {
			aw.linef("%s", hd.asm())
		}
		end()
	}
	for _, c := range b.calls {
		aw.linef("%s: %s", c.key, c)
	}
	for _, nt := range b.hit {
		aw.linef("hit: %s", nt.asm())
	}
	if b.miss != nil {
		aw.linef("miss: %s", b.miss.asm())
	}
	if len(b.longBranch) > 0 {
		tags := make([]int, 0, len(b.longBranch))
		for tag := range b.longBranch {
			tags = append(tags, tag)
		}
		slices.Sort(tags)
		end := aw.block("long_branch")
		for _, tag := range tags {
			aw.linef("%d: %s", tag, nameList(b.longBranch[tag]))
		}
		end()
	}
	b.actions.writeAsm(aw)
}

func (b *base) asmHeader() string {
	if b.hasLogicalID() && b.logicalID >= 0 && b.explicit {
		return fmt.Sprintf("%s %s %d", b.kind, b.name, b.logicalID)
	}
	return fmt.Sprintf("%s %s", b.kind, b.name)
}

func (b *base) writeAsm(aw *asmWriter) {
	end := aw.block("%s", b.asmHeader())
	b.writeAsmCommon(aw)
	end()
}

// writeRegsCommon projects the logical table registers: next tables,
// long branch tags, hash distribution and action codes.
func (b *base) writeRegsCommon(r RegisterSink) {
	for _, hd := range b.hashDist {
		hd.writeRegs(r)
	}
	for _, l := range b.layout {
		l.writeRegs(r, b)
	}
	if b.actions != nil {
		b.actions.writeRegs(r)
	}
	if !b.hasLogicalID() || b.logicalID < 0 {
		return
	}
	lt := fmt.Sprintf("mau[%d].logical_table[%d]", b.stage.Num, b.logicalID)
	r.Set(lt+".gress", uint64(b.gress))
	for i, nt := range b.hit {
		if nt.resolved {
			r.Set(fmt.Sprintf("%s.next_table_hit[%d]", lt, i), uint64(nt.NextTableID()))
		}
	}
	if b.miss != nil && b.miss.resolved {
		r.Set(lt+".next_table_miss", uint64(b.miss.NextTableID()))
	}
	var tags uint
	for _, nt := range b.nextTables() {
		tags |= nt.LongBranchTags()
	}
	if tags != 0 {
		r.Set(lt+".long_branch", uint64(tags))
	}
}

func (b *base) writeRegs(r RegisterSink) {
	b.writeRegsCommon(r)
}

// genTblCfg returns the table's context.json fragment. Fragments of
// tables sharing a P4 table are merged, so only the first table of a P4
// table carries the action list.
func (b *base) genTblCfg() *ctxjson.Map {
	if b.p4 == nil {
		return nil
	}
	m := ctxjson.NewMap().
		Set("name", ctxjson.String(b.p4.Name)).
		Set("handle", ctxjson.Number(b.p4.Handle)).
		Set("table_type", ctxjson.String(b.p4.Type.String())).
		Set("size", ctxjson.Number(b.p4Size()))
	if b.actions != nil && b.p4.tables[0] == b.self {
		m.Set("actions", b.actions.genTblCfg())
	}
	m.Set("stage_tables", ctxjson.Vector{b.stageTable()})
	return m
}

// p4Size is the size of the P4 table, falling back to the stage table's.
func (b *base) p4Size() int {
	if b.p4.Size >= 0 {
		return b.p4.Size
	}
	return b.size
}

func (b *base) stageTable() *ctxjson.Map {
	st := ctxjson.NewMap().
		Set("stage_number", ctxjson.Number(b.stage.Num)).
		Set("stage_table_type", ctxjson.String(b.kind.String()))
	if b.hasLogicalID() {
		st.Set("logical_table_id", ctxjson.Number(b.logicalID))
	}
	st.Set("size", ctxjson.Number(b.size))
	if b.format != nil && b.format.Size > 0 {
		st.Set("pack_format", ctxjson.Vector{b.format.packFormat()})
	}
	if len(b.layout) > 0 {
		mem := ctxjson.Vector{}
		for _, l := range b.layout {
			mem = append(mem, l.toJSON())
		}
		st.Set("memory_resource_allocation", mem)
	}
	if len(b.hit) > 0 || b.miss != nil {
		nt := ctxjson.NewMap()
		hits := ctxjson.Vector{}
		for _, h := range b.hit {
			if h.resolved {
				hits = append(hits, ctxjson.String(h.NextTableName()))
			}
		}
		nt.Set("hit", hits)
		if b.miss != nil && b.miss.resolved {
			nt.Set("miss", ctxjson.String(b.miss.NextTableName()))
		}
		st.Set("next_tables", nt)
	}
	return st
}
