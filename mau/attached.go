package mau

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/value"
)

// attached is implemented by tables that are addressed through a Call
// from a match table rather than run as a logical table.
type attached interface {
	Table
	attachedBase() *attachedTable
}

type attachedTable struct {
	base
	callers []Table
}

func (a *attachedTable) attachedBase() *attachedTable { return a }

func (a *attachedTable) addCaller(t Table) {
	if !slices.Contains(a.callers, t) {
		a.callers = append(a.callers, t)
	}
}

// Callers returns the tables that call a, in resolution order.
func (a *attachedTable) Callers() []Table {
	return a.callers
}

// pass3 runs after every caller has resolved its calls in pass2.
func (a *attachedTable) pass3() {
	if len(a.callers) == 0 {
		diag.Warnf(a.line, "%s %s is not used by any table", a.kind, a.name)
	}
}

// alu returns the index of the ALU the table is placed on, from its first
// layout row.
func (a *attachedTable) alu() int {
	if len(a.layout) == 0 {
		return -1
	}
	return a.layout[0].Row / 2
}

// writeCallerRegs points each calling logical table at the table's ALU.
func (a *attachedTable) writeCallerRegs(r RegisterSink) {
	alu := a.alu()
	if alu < 0 {
		return
	}
	for _, c := range a.callers {
		cb := c.tableBase()
		if cb.logicalID < 0 {
			continue
		}
		r.Set(fmt.Sprintf("mau[%d].logical_table[%d].%s_alu", a.stage.Num, cb.logicalID, a.kind), uint64(alu))
	}
}

func (a *attachedTable) writeRegs(r RegisterSink) {
	a.writeRegsCommon(r)
	a.writeCallerRegs(r)
}

func (a *attachedTable) genTblCfg() *ctxjson.Map {
	frag := a.base.genTblCfg()
	if st := stageTableOf(frag); st != nil {
		names := ctxjson.Vector{}
		for _, c := range a.callers {
			names = append(names, ctxjson.String(c.Name()))
		}
		st.Set("callers", names)
	}
	return frag
}

// Counter counts packets or bytes per entry.
type Counter struct {
	attachedTable
	count string
}

var _ attached = (*Counter)(nil)

func newCounter() *Counter {
	c := &Counter{count: "packets"}
	c.self = c
	c.kind = KindCounter
	return c
}

func (c *Counter) setupKey(p *value.Pair) bool {
	if p.Key.S != "count" {
		return false
	}
	switch {
	case p.Value.Is("packets"), p.Value.Is("bytes"), p.Value.Is("both"):
		c.count = p.Value.S
	default:
		diag.Errorf(p.Value.Line, "Unknown counter type %s", p.Value)
	}
	return true
}

func (c *Counter) writeAsm(aw *asmWriter) {
	end := aw.block("%s", c.asmHeader())
	aw.linef("count: %s", c.count)
	c.writeAsmCommon(aw)
	end()
}

func (c *Counter) genTblCfg() *ctxjson.Map {
	frag := c.attachedTable.genTblCfg()
	if frag != nil {
		frag.Set("statistics_type", ctxjson.String(c.count))
	}
	return frag
}

// Meter is a rate meter. Its pre_color key makes a hash distribution unit
// of each calling table feed the meter's input color.
type Meter struct {
	attachedTable

	meterType         string
	colorAware        bool
	preColorHD        int
	preColorMaskIndex int
	preColorLine      int
}

var _ attached = (*Meter)(nil)

func newMeter() *Meter {
	m := &Meter{meterType: "standard", preColorHD: -1}
	m.self = m
	m.kind = KindMeter
	return m
}

func (m *Meter) setupKey(p *value.Pair) bool {
	switch p.Key.S {
	case "type":
		switch {
		case p.Value.Is("standard"), p.Value.Is("lpf"), p.Value.Is("red"):
			m.meterType = p.Value.S
		default:
			diag.Errorf(p.Value.Line, "Unknown meter type %s", p.Value)
		}
	case "color_aware":
		m.colorAware = value.GetBool(p.Value)
	case "pre_color":
		args := p.Value.Args()
		if !p.Value.IsCmd("hash_dist") || len(args) != 2 ||
			!value.CheckType(args[0], value.TInt) || !value.CheckType(args[1], value.TInt) {
			diag.Errorf(p.Value.Line, "Syntax error, expecting hash_dist(unit, mask_index)")
			return true
		}
		m.preColorHD = int(args[0].I)
		m.preColorMaskIndex = int(args[1].I)
		m.preColorLine = p.Value.Line
		if m.preColorMaskIndex < 0 || m.preColorMaskIndex > 3 {
			diag.Errorf(p.Value.Line, "Invalid pre_color mask index %d", m.preColorMaskIndex)
			m.preColorMaskIndex = 0
		}
	default:
		return false
	}
	return true
}

func (m *Meter) writeAsm(aw *asmWriter) {
	end := aw.block("%s", m.asmHeader())
	aw.linef("type: %s", m.meterType)
	if m.colorAware {
		aw.linef("color_aware: true")
	}
	if m.preColorHD >= 0 {
		aw.linef("pre_color: hash_dist(%d, %d)", m.preColorHD, m.preColorMaskIndex)
	}
	m.writeAsmCommon(aw)
	end()
}

func (m *Meter) writeRegs(r RegisterSink) {
	m.attachedTable.writeRegs(r)
	if alu := m.alu(); alu >= 0 {
		ctl := fmt.Sprintf("mau[%d].meter_alu[%d]", m.stage.Num, alu)
		r.Set(ctl+".lpf", boolReg(m.meterType == "lpf"))
		r.Set(ctl+".red", boolReg(m.meterType == "red"))
		r.Set(ctl+".color_aware", boolReg(m.colorAware))
	}
}

func (m *Meter) genTblCfg() *ctxjson.Map {
	frag := m.attachedTable.genTblCfg()
	if frag != nil {
		frag.Set("meter_type", ctxjson.String(m.meterType)).
			Set("color_aware", ctxjson.Bool(m.colorAware))
	}
	return frag
}

// Stateful is a stateful ALU table.
type Stateful struct {
	attachedTable

	width   int
	initial uint64
	initSet bool
}

var _ attached = (*Stateful)(nil)

var statefulWidths = []int{1, 8, 16, 32}

func newStateful() *Stateful {
	s := &Stateful{width: 1}
	s.self = s
	s.kind = KindStateful
	return s
}

func (s *Stateful) setupKey(p *value.Pair) bool {
	switch p.Key.S {
	case "width":
		s.width = value.GetInt(p.Value, 7, "")
		if !slices.Contains(statefulWidths, s.width) {
			diag.Errorf(p.Value.Line, "Invalid stateful width %d", s.width)
			s.width = 1
		}
	case "initial_value":
		s.initial = value.GetInt64(p.Value, 64, "")
		s.initSet = true
	default:
		return false
	}
	return true
}

func (s *Stateful) pass1() {
	s.commonPass1()
	if s.initSet && s.width < 64 && s.initial>>uint(s.width) != 0 {
		diag.Errorf(s.line, "initial_value %#x of %s does not fit in %d bits", s.initial, s.name, s.width)
	}
}

func (s *Stateful) writeAsm(aw *asmWriter) {
	end := aw.block("%s", s.asmHeader())
	aw.linef("width: %d", s.width)
	if s.initSet {
		aw.linef("initial_value: %#x", s.initial)
	}
	s.writeAsmCommon(aw)
	end()
}

func (s *Stateful) writeRegs(r RegisterSink) {
	s.attachedTable.writeRegs(r)
	if alu := s.alu(); alu >= 0 {
		ctl := fmt.Sprintf("mau[%d].salu[%d]", s.stage.Num, alu)
		r.Set(ctl+".width", uint64(s.width))
		r.Set(ctl+".initial_value", s.initial)
	}
}

func (s *Stateful) genTblCfg() *ctxjson.Map {
	frag := s.attachedTable.genTblCfg()
	if frag != nil {
		frag.Set("alu_width", ctxjson.Number(s.width))
	}
	return frag
}

// Selection picks one member of an action profile group by hash. The hash
// distribution units it names are the calling table's and run with
// selector delay.
type Selection struct {
	attachedTable

	mode        string
	nonLinear   bool
	hashDistIDs []int
}

var _ attached = (*Selection)(nil)

func newSelection() *Selection {
	s := &Selection{mode: "fair"}
	s.self = s
	s.kind = KindSelection
	return s
}

func (s *Selection) setupKey(p *value.Pair) bool {
	switch p.Key.S {
	case "mode":
		switch {
		case p.Value.Is("fair"), p.Value.Is("resilient"):
			s.mode = p.Value.S
		default:
			diag.Errorf(p.Value.Line, "Unknown selection mode %s", p.Value)
		}
	case "non_linear":
		s.nonLinear = value.GetBool(p.Value)
	case "hash_dist":
		for _, id := range intsOf(p.Value, s.target().HashDistUnits, "hash_dist unit") {
			if id < 0 || id >= s.target().HashDistUnits {
				diag.Errorf(p.Value.Line, "Invalid hash_dist unit %d", id)
				continue
			}
			s.hashDistIDs = append(s.hashDistIDs, id)
		}
	default:
		return false
	}
	return true
}

func (s *Selection) writeAsm(aw *asmWriter) {
	end := aw.block("%s", s.asmHeader())
	aw.linef("mode: %s", s.mode)
	if s.nonLinear {
		aw.linef("non_linear: true")
	}
	if len(s.hashDistIDs) > 0 {
		aw.linef("hash_dist: %s", intList(s.hashDistIDs))
	}
	s.writeAsmCommon(aw)
	end()
}

func (s *Selection) genTblCfg() *ctxjson.Map {
	frag := s.attachedTable.genTblCfg()
	if frag != nil {
		frag.Set("selection_type", ctxjson.String(s.mode))
	}
	return frag
}

// ActionTable holds action data addressed from a match table.
type ActionTable struct {
	attachedTable
}

var _ attached = (*ActionTable)(nil)

func newActionTable() *ActionTable {
	a := &ActionTable{}
	a.self = a
	a.kind = KindAction
	return a
}

func (a *ActionTable) pass1() {
	a.commonPass1()
	if a.format == nil || a.format.Size == 0 {
		diag.Errorf(a.line, "No format specified in action table %s", a.name)
	}
}

func boolReg(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
