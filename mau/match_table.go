package mau

import (
	"fmt"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/value"
)

// matchTable is the part shared by tables that look up match data.
type matchTable struct {
	base

	matchKeys []value.Value
	idletime  *IdleTime
	gateway   *Gateway
}

func (m *matchTable) setupKey(p *value.Pair) bool {
	switch p.Key.S {
	case "match":
		m.matchKeys = nil
		if p.Value.Type == value.TVec {
			m.matchKeys = append(m.matchKeys, p.Value.Vec...)
		} else {
			m.matchKeys = append(m.matchKeys, p.Value)
		}
	case "idletime":
		m.setupIdletime(p)
	default:
		return false
	}
	return true
}

func (m *matchTable) setupIdletime(p *value.Pair) {
	if m.idletime != nil {
		diag.Errorf(p.Key.Line, "Table %s already has an idletime table", m.name)
		return
	}
	it := &IdleTime{precision: 3}
	it.self = it
	it.name = m.name + "$idle"
	it.kind = KindIdletime
	it.line = p.Key.Line
	it.logicalID = -1
	it.match = m.self
	m.idletime = it
	m.pipe.addTable(it, m.stage, m.gress)
	it.setup(p.Value)
}

// pass0 applies what attached tables ask of the caller's hash distribution
// units: meter pre-color and selector delay.
func (m *matchTable) pass0() {
	for _, c := range m.calls {
		switch at := m.pipe.byName[c.Name].(type) {
		case *Meter:
			if at.preColorHD < 0 {
				continue
			}
			hd := m.hashDistByID(at.preColorHD)
			if hd == nil {
				diag.Errorf(c.Line, "Meter %s pre_color uses hash_dist %d, not in table %s", at.name, at.preColorHD, m.name)
				continue
			}
			hd.MeterPreColor = true
			hd.MeterMaskIndex = at.preColorMaskIndex
		case *Selection:
			for _, id := range at.hashDistIDs {
				hd := m.hashDistByID(id)
				if hd == nil {
					diag.Errorf(c.Line, "Selector %s uses hash_dist %d, not in table %s", at.name, id, m.name)
					continue
				}
				hd.DelayType = DelaySelector
				hd.NonLinear = at.nonLinear
			}
		}
	}
}

func (m *matchTable) writeMatchAsm(aw *asmWriter) {
	if len(m.matchKeys) == 0 {
		return
	}
	names := make([]string, len(m.matchKeys))
	for i, k := range m.matchKeys {
		names[i] = k.String()
	}
	aw.linef("match: %s", nameList(names))
}

func (m *matchTable) writeIdletimeAsm(aw *asmWriter) {
	if m.idletime != nil {
		m.idletime.writeBlock(aw)
	}
}

// stageTableOf returns the single stage table of a fragment built by
// base.genTblCfg.
func stageTableOf(frag *ctxjson.Map) *ctxjson.Map {
	if frag == nil {
		return nil
	}
	v, _ := frag.Get("stage_tables").(ctxjson.Vector)
	if len(v) != 1 {
		return nil
	}
	st, _ := v[0].(*ctxjson.Map)
	return st
}

func (m *matchTable) decorateStageTable(st *ctxjson.Map) {
	if st == nil {
		return
	}
	if len(m.matchKeys) > 0 {
		keys := ctxjson.Vector{}
		for _, k := range m.matchKeys {
			keys = append(keys, ctxjson.String(k.String()))
		}
		st.Set("match_key_fields", keys)
	}
	if m.idletime != nil {
		st.Set("idletime_stage_table", m.idletime.stageTable())
	}
	if m.gateway != nil {
		st.Set("has_attached_gateway", ctxjson.Bool(true))
	}
}

// Way is one hash way of an exact match table.
type Way struct {
	Line   int
	Group  int
	Index  BitRange
	Select BitRange
	RAMs   [][2]int
}

// ExactMatch is an SRAM hash match table. ATCAM and proxy hash tables are
// exact match tables with a few extra keys.
type ExactMatch struct {
	matchTable

	Ways []Way

	partitionField string
	proxyHashGroup int
	proxyHashWidth int
}

var _ Table = (*ExactMatch)(nil)

func newExactMatch(kind Kind) *ExactMatch {
	e := &ExactMatch{proxyHashGroup: -1}
	e.self = e
	e.kind = kind
	return e
}

func (e *ExactMatch) setupKey(p *value.Pair) bool {
	switch {
	case p.Key.S == "ways":
		e.setupWays(p.Value)
	case p.Key.S == "partition_field_name" && e.kind == KindATCAMMatch:
		if value.CheckType(p.Value, value.TStr) {
			e.partitionField = p.Value.S
		}
	case p.Key.S == "proxy_hash_group" && e.kind == KindProxyHash:
		e.proxyHashGroup = value.GetInt(p.Value, 8, "proxy_hash_group out of range")
	case p.Key.S == "proxy_hash_width" && e.kind == KindProxyHash:
		e.proxyHashWidth = value.GetInt(p.Value, 8, "proxy_hash_width out of range")
	default:
		return e.matchTable.setupKey(p)
	}
	return true
}

func (e *ExactMatch) setupWays(v value.Value) {
	if !value.CheckType(v, value.TVec) {
		return
	}
	for _, el := range v.Vec {
		if !value.CheckType(el, value.TMap) {
			continue
		}
		w := Way{Line: el.Line}
		value.Checked(el).ForEach(func(p *value.Pair) {
			switch p.Key.S {
			case "group":
				w.Group = value.GetInt(p.Value, 8, "way group out of range")
			case "index":
				if value.CheckType(p.Value, value.TRange) {
					w.Index = BitRange{int(p.Value.Lo), int(p.Value.Hi)}
				}
			case "select":
				if value.CheckType(p.Value, value.TRange) {
					w.Select = BitRange{int(p.Value.Lo), int(p.Value.Hi)}
				}
			case "rams":
				if !value.CheckType(p.Value, value.TVec) {
					return
				}
				for _, ram := range p.Value.Vec {
					if value.CheckType(ram, value.TVec) && len(ram.Vec) == 2 &&
						value.CheckType(ram.Vec[0], value.TInt) && value.CheckType(ram.Vec[1], value.TInt) {
						w.RAMs = append(w.RAMs, [2]int{int(ram.Vec[0].I), int(ram.Vec[1].I)})
					} else if ram.Type == value.TVec {
						diag.Errorf(ram.Line, "Syntax error, expecting [row, column]")
					}
				}
			default:
				diag.Warnf(p.Key.Line, "ignoring unknown item %s in way", p.Key.S)
			}
		})
		e.Ways = append(e.Ways, w)
	}
}

// Capacity returns the number of entries the table's ways hold.
func (e *ExactMatch) Capacity() int {
	if e.format == nil || e.format.Size == 0 {
		return 0
	}
	words := 0
	for _, w := range e.Ways {
		words += len(w.RAMs) / e.format.MemUnitsPerTableWord()
	}
	return words * e.format.EntriesPerTableWord() * 1024
}

func (e *ExactMatch) pass1() {
	e.commonPass1()
	if e.format == nil || e.format.Size == 0 {
		diag.Errorf(e.line, "No format specified in table %s", e.name)
	}
	switch e.kind {
	case KindATCAMMatch:
		if e.partitionField == "" {
			diag.Errorf(e.line, "ATCAM table %s requires partition_field_name", e.name)
		} else if e.format.Field(e.partitionField) == nil && !e.hasMatchKey(e.partitionField) {
			diag.Errorf(e.line, "Partition field %s not in table %s", e.partitionField, e.name)
		}
	case KindProxyHash:
		if e.proxyHashGroup < 0 || e.proxyHashGroup >= e.target().HashGroups {
			diag.Errorf(e.line, "Proxy hash table %s requires a proxy_hash_group", e.name)
		}
	}
	for i, w := range e.Ways {
		for _, ram := range w.RAMs {
			if !e.stage.hasRAM(e, ram[0], ram[1]) {
				diag.Errorf(w.Line, "Way %d of %s uses ram %d,%d not in its layout", i, e.name, ram[0], ram[1])
			}
		}
		if e.format != nil && len(w.RAMs)%e.format.MemUnitsPerTableWord() != 0 {
			diag.Errorf(w.Line, "Way %d of %s has %d rams, not a multiple of %d", i, e.name, len(w.RAMs), e.format.MemUnitsPerTableWord())
		}
	}
	if capacity := e.Capacity(); e.size > capacity && len(e.Ways) > 0 {
		diag.Warnf(e.line, "Table %s size %d exceeds the capacity %d of its ways", e.name, e.size, capacity)
	}
}

func (e *ExactMatch) hasMatchKey(name string) bool {
	for _, k := range e.matchKeys {
		if k.Is(name) || k.CmdName() == name {
			return true
		}
	}
	return false
}

func (e *ExactMatch) writeAsm(aw *asmWriter) {
	end := aw.block("%s", e.asmHeader())
	e.writeMatchAsm(aw)
	if e.partitionField != "" {
		aw.linef("partition_field_name: %s", e.partitionField)
	}
	if e.proxyHashGroup >= 0 {
		aw.linef("proxy_hash_group: %d", e.proxyHashGroup)
	}
	for i, w := range e.Ways {
		if i == 0 {
			aw.linef("ways:")
		}
		rams := make([]string, len(w.RAMs))
		for j, ram := range w.RAMs {
			rams[j] = intList(ram[:])
		}
		aw.linef("- { group: %d, index: %s, select: %s, rams: %s }", w.Group, w.Index, w.Select, nameList(rams))
	}
	e.writeAsmCommon(aw)
	e.writeIdletimeAsm(aw)
	end()
}

func (e *ExactMatch) writeRegs(r RegisterSink) {
	e.writeRegsCommon(r)
	for i, w := range e.Ways {
		for _, ram := range w.RAMs {
			unit := fmt.Sprintf("mau[%d].ram[%d][%d]", e.stage.Num, ram[0], ram[1])
			r.Set(unit+".way", uint64(i))
			r.Set(unit+".hash_group", uint64(w.Group))
			r.Set(unit+".index_lo", uint64(w.Index.Lo))
		}
	}
	if e.proxyHashGroup >= 0 && e.logicalID >= 0 {
		r.Set(fmt.Sprintf("mau[%d].logical_table[%d].proxy_hash_group", e.stage.Num, e.logicalID), uint64(e.proxyHashGroup))
	}
}

func (e *ExactMatch) genTblCfg() *ctxjson.Map {
	frag := e.base.genTblCfg()
	st := stageTableOf(frag)
	e.decorateStageTable(st)
	if st != nil && len(e.Ways) > 0 {
		ways := ctxjson.Vector{}
		for _, w := range e.Ways {
			ways = append(ways, ctxjson.NewMap().
				Set("hash_function_id", ctxjson.Number(w.Group)).
				Set("way_number", ctxjson.Number(len(ways))).
				Set("number_of_rams", ctxjson.Number(len(w.RAMs))))
		}
		st.Set("ways", ways)
	}
	if st != nil && e.partitionField != "" {
		st.Set("partition_field_name", ctxjson.String(e.partitionField))
	}
	return frag
}

// TernaryMatch is a TCAM match table. Its overhead fields live in a
// ternary_indirect table named by the indirect key.
type TernaryMatch struct {
	matchTable

	indirectName string
	indirectLine int
	indirect     *TernaryIndirect
}

var _ Table = (*TernaryMatch)(nil)

func newTernaryMatch() *TernaryMatch {
	t := &TernaryMatch{}
	t.self = t
	t.kind = KindTernaryMatch
	return t
}

func (t *TernaryMatch) setupKey(p *value.Pair) bool {
	if p.Key.S == "indirect" {
		if value.CheckType(p.Value, value.TStr) {
			t.indirectName = p.Value.S
			t.indirectLine = p.Value.Line
		}
		return true
	}
	return t.matchTable.setupKey(p)
}

// linkIndirect runs before the common pass1 so that action code
// allocation sees the indirect table's format.
func (t *TernaryMatch) linkIndirect() {
	if t.indirectName == "" {
		return
	}
	other := t.pipe.byName[t.indirectName]
	ind, ok := other.(*TernaryIndirect)
	switch {
	case other == nil:
		diag.Errorf(t.indirectLine, "No table named %s", t.indirectName)
	case !ok:
		diag.Errorf(t.indirectLine, "%s is not a ternary_indirect table", t.indirectName)
	case ind.stage != t.stage:
		diag.Errorf(t.indirectLine, "Indirect table %s must be in the same stage as %s", t.indirectName, t.name)
	case ind.match != nil && ind.match != t:
		diag.Errorf(t.indirectLine, "Ternary indirect %s already used by %s", ind.name, ind.match.name)
	default:
		ind.match = t
		t.indirect = ind
	}
}

func (t *TernaryMatch) pass1() {
	t.linkIndirect()
	if t.format != nil && t.format.Size > 0 {
		diag.Errorf(t.format.Line, "Ternary table %s cannot have a format; use its indirect table", t.name)
	}
	t.commonPass1()
}

func (t *TernaryMatch) writeAsm(aw *asmWriter) {
	end := aw.block("%s", t.asmHeader())
	t.writeMatchAsm(aw)
	if t.indirectName != "" {
		aw.linef("indirect: %s", t.indirectName)
	}
	t.writeAsmCommon(aw)
	t.writeIdletimeAsm(aw)
	end()
}

func (t *TernaryMatch) writeRegs(r RegisterSink) {
	t.writeRegsCommon(r)
	if t.indirect != nil && t.logicalID >= 0 {
		for _, l := range t.indirect.layout {
			r.Set(fmt.Sprintf("mau[%d].tind_bus[%d].logical_table", t.stage.Num, l.Row), uint64(t.logicalID))
		}
	}
}

func (t *TernaryMatch) genTblCfg() *ctxjson.Map {
	frag := t.base.genTblCfg()
	st := stageTableOf(frag)
	t.decorateStageTable(st)
	if st != nil && t.indirect != nil {
		st.Set("ternary_indirection_stage_table", t.indirect.stageTable())
	}
	return frag
}

// TernaryIndirect holds the overhead (action, immediate and address
// fields) of a ternary match table.
type TernaryIndirect struct {
	base
	match *TernaryMatch
}

var _ Table = (*TernaryIndirect)(nil)

func newTernaryIndirect() *TernaryIndirect {
	t := &TernaryIndirect{}
	t.self = t
	t.kind = KindTernaryIndirect
	return t
}

func (t *TernaryIndirect) pass3() {
	if t.match == nil {
		diag.Warnf(t.line, "Ternary indirect %s is not used by any ternary_match table", t.name)
	}
}

// HashAction is a table with no match memory: its result comes from hash
// distribution alone.
type HashAction struct {
	matchTable
}

var _ Table = (*HashAction)(nil)

func newHashAction() *HashAction {
	h := &HashAction{}
	h.self = h
	h.kind = KindHashAction
	return h
}

func (h *HashAction) pass1() {
	h.commonPass1()
	for _, l := range h.layout {
		if len(l.Columns) > 0 {
			diag.Errorf(l.Line, "hash_action table %s cannot use rams", h.name)
		}
	}
}

func (h *HashAction) writeAsm(aw *asmWriter) {
	end := aw.block("%s", h.asmHeader())
	h.writeMatchAsm(aw)
	h.writeAsmCommon(aw)
	end()
}

func (h *HashAction) genTblCfg() *ctxjson.Map {
	frag := h.base.genTblCfg()
	h.decorateStageTable(stageTableOf(frag))
	return frag
}

// Phase0 is the port metadata table of ingress stage 0. It has no match
// memory and no logical id, so its pass0 does nothing.
type Phase0 struct {
	base
}

var _ Table = (*Phase0)(nil)

const phase0Width = 64

func newPhase0() *Phase0 {
	p := &Phase0{}
	p.self = p
	p.kind = KindPhase0Match
	return p
}

func (p *Phase0) pass1() {
	if p.stage.Num != 0 {
		diag.Errorf(p.line, "phase0_match table %s must be in stage 0", p.name)
	}
	if p.gress != Ingress {
		diag.Errorf(p.line, "phase0_match table %s must be in ingress", p.name)
	}
	if p.format != nil && p.format.Size > phase0Width {
		diag.Errorf(p.format.Line, "phase0_match format of %s is %d bits, more than %d", p.name, p.format.Size, phase0Width)
	}
	if len(p.layout) > 0 {
		diag.Errorf(p.line, "phase0_match table %s cannot use rams", p.name)
	}
	p.commonPass1()
}

func (p *Phase0) writeRegs(r RegisterSink) {
	if p.format == nil {
		return
	}
	for _, f := range p.format.Fields(0) {
		r.Set(fmt.Sprintf("parser.phase0.%s", f.Name), uint64(f.Lo())<<8|uint64(f.Size))
	}
}

// IdleTime tracks entry activity for a match table. It is declared inside
// the match table and named after it.
type IdleTime struct {
	base
	match Table

	precision     int
	sweepInterval int
	notification  bool
}

var _ Table = (*IdleTime)(nil)

var idlePrecisions = []int{1, 2, 3, 6}

func (it *IdleTime) setupKey(p *value.Pair) bool {
	switch p.Key.S {
	case "precision":
		it.precision = value.GetInt(p.Value, 3, "")
		ok := false
		for _, v := range idlePrecisions {
			ok = ok || v == it.precision
		}
		if !ok {
			diag.Errorf(p.Value.Line, "Invalid idletime precision %d", it.precision)
			it.precision = 3
		}
	case "sweep_interval":
		it.sweepInterval = value.GetInt(p.Value, 3, "sweep_interval out of range")
	case "notification":
		it.notification = value.GetBool(p.Value)
	default:
		return false
	}
	return true
}

func (it *IdleTime) pass1() {
	it.commonPass1()
	if len(it.layout) == 0 {
		diag.Errorf(it.line, "No rams specified for idletime of %s", it.match.Name())
	}
}

// The idletime table is written inside its match table.
func (it *IdleTime) writeAsm(aw *asmWriter) {}

func (it *IdleTime) writeBlock(aw *asmWriter) {
	end := aw.block("idletime")
	aw.linef("precision: %d", it.precision)
	aw.linef("sweep_interval: %d", it.sweepInterval)
	aw.linef("notification: %t", it.notification)
	for _, l := range it.layout {
		l.writeAsm(aw, len(it.layout) > 1)
	}
	end()
}

func (it *IdleTime) writeRegs(r RegisterSink) {
	it.writeRegsCommon(r)
	lid := it.match.tableBase().logicalID
	if lid < 0 {
		return
	}
	ctl := fmt.Sprintf("mau[%d].idletime[%d]", it.stage.Num, lid)
	r.Set(ctl+".precision", uint64(it.precision))
	r.Set(ctl+".sweep_interval", uint64(it.sweepInterval))
	if it.notification {
		r.Set(ctl+".notify", 1)
	}
}

func (it *IdleTime) genTblCfg() *ctxjson.Map { return nil }

func (it *IdleTime) stageTable() *ctxjson.Map {
	return it.base.stageTable().
		Set("precision", ctxjson.Number(it.precision)).
		Set("sweep_interval", ctxjson.Number(it.sweepInterval)).
		Set("notification_enabled", ctxjson.Bool(it.notification))
}
