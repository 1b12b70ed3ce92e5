package mau

import (
	"bytes"
	"fmt"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/value"
)

// OperandKind classifies an instruction operand.
type OperandKind uint8

const (
	OpField OperandKind = iota
	OpConst
	OpParam
)

// Operand is one operand of an Instruction. Params name an alias of the
// action and carry its width.
type Operand struct {
	Kind  OperandKind
	Name  string
	Value int64
	Width int
}

func (o Operand) String() string {
	if o.Kind == OpConst {
		return fmt.Sprintf("%d", o.Value)
	}
	return o.Name
}

// Instruction is one VLIW operation: op dest, srcs...
type Instruction struct {
	Line int
	Op   string
	Dest Operand
	Srcs []Operand
}

func (in *Instruction) equal(o *Instruction) bool {
	if in.Op != o.Op || in.Dest != o.Dest || len(in.Srcs) != len(o.Srcs) {
		return false
	}
	for i := range in.Srcs {
		if in.Srcs[i] != o.Srcs[i] {
			return false
		}
	}
	return true
}

// equalVLIW is equal, except that parameters only need to agree in width:
// they come from action data, so the same instruction word serves both.
func (in *Instruction) equalVLIW(o *Instruction) bool {
	if in.Op != o.Op || in.Dest != o.Dest || len(in.Srcs) != len(o.Srcs) {
		return false
	}
	for i, a := range in.Srcs {
		b := o.Srcs[i]
		if a.Kind != b.Kind {
			return false
		}
		if a.Kind == OpParam {
			if a.Width != b.Width {
				return false
			}
		} else if a != b {
			return false
		}
	}
	return true
}

func (in *Instruction) String() string {
	var buf bytes.Buffer
	buf.WriteString(in.Op)
	buf.WriteByte('(')
	buf.WriteString(in.Dest.String())
	for _, s := range in.Srcs {
		buf.WriteString(", ")
		buf.WriteString(s.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// Alias names a slice of a format field or a constant for use as an
// instruction operand.
type Alias struct {
	Line    int
	Name    string
	Field   string
	Lo, Hi  int
	IsConst bool
	Value   int64
}

func (a *Alias) width() int {
	if a.Lo < 0 {
		return 0
	}
	return a.Hi - a.Lo + 1
}

func (a *Alias) asm() string {
	switch {
	case a.IsConst:
		return fmt.Sprintf("%s: %d", a.Name, a.Value)
	case a.Lo >= 0:
		return fmt.Sprintf("%s: %s(%d..%d)", a.Name, a.Field, a.Lo, a.Hi)
	}
	return fmt.Sprintf("%s: %s", a.Name, a.Field)
}

// Action is one action of a table.
type Action struct {
	Line int
	Name string
	Code int
	Addr int

	Aliases  []*Alias
	Instrs   []*Instruction
	Attached []*Call

	HitAllowed     bool
	DefaultAllowed bool
	HitReason      string
	DefaultReason  string

	NextHit  *NextTables
	NextMiss *NextTables

	tbl Table
}

// Equiv reports whether a and o run identical instructions.
func (a *Action) Equiv(o *Action) bool {
	if len(a.Instrs) != len(o.Instrs) {
		return false
	}
	for i := range a.Instrs {
		if !a.Instrs[i].equal(o.Instrs[i]) {
			return false
		}
	}
	return true
}

// EquivVLIW reports whether a and o can share instruction memory.
func (a *Action) EquivVLIW(o *Action) bool {
	if len(a.Instrs) != len(o.Instrs) {
		return false
	}
	for i := range a.Instrs {
		if !a.Instrs[i].equalVLIW(o.Instrs[i]) {
			return false
		}
	}
	return true
}

func (a *Action) alias(name string) *Alias {
	for _, al := range a.Aliases {
		if al.Name == name {
			return al
		}
	}
	return nil
}

// Actions is the ordered set of actions of a table.
type Actions struct {
	tbl    Table
	list   []*Action
	byName map[string]*Action
}

func newActions(tbl Table, v value.Value) *Actions {
	acts := &Actions{tbl: tbl, byName: make(map[string]*Action)}
	if !value.CheckType(v, value.TMap) {
		return acts
	}
	value.MapIterChecked{Map: v.Map, AllowNonString: true}.ForEach(func(p *value.Pair) {
		act := &Action{Line: p.Key.Line, Code: -1, Addr: -1, HitAllowed: true, DefaultAllowed: true, tbl: tbl}
		switch {
		case p.Key.Type == value.TStr:
			act.Name = p.Key.S
		case p.Key.Type == value.TCmd && len(p.Key.Args()) <= 2:
			act.Name = p.Key.CmdName()
			args := p.Key.Args()
			if len(args) > 0 && value.CheckType(args[0], value.TInt) {
				act.Code = int(args[0].I)
			}
			if len(args) > 1 && value.CheckType(args[1], value.TInt) {
				act.Addr = int(args[1].I)
			}
		default:
			diag.Errorf(p.Key.Line, "Syntax error, expecting action name")
			return
		}
		if prev, found := acts.byName[act.Name]; found {
			diag.Errorf(act.Line, "Duplicate action %s in table %s", act.Name, tbl.Name())
			diag.Notef(prev.Line, "previous definition")
			return
		}
		act.setup(p.Value)
		acts.list = append(acts.list, act)
		acts.byName[act.Name] = act
	})
	return acts
}

func (a *Action) setup(v value.Value) {
	body := []value.Value{v}
	if v.Type == value.TVec {
		body = v.Vec
	}
	for _, el := range body {
		switch el.Type {
		case value.TMap:
			a.setupMap(el)
		case value.TCmd:
			a.addInstruction(el)
		case value.TStr:
			a.Instrs = append(a.Instrs, &Instruction{Line: el.Line, Op: el.S})
		default:
			diag.Errorf(el.Line, "Syntax error, expecting instruction in action %s", a.Name)
		}
	}
}

func (a *Action) setupMap(m value.Value) {
	value.Checked(m).ForEach(func(p *value.Pair) {
		switch p.Key.S {
		case "next_table":
			nt := parseNextTables(p.Value)
			a.NextHit = &nt
		case "next_table_miss":
			nt := parseNextTables(p.Value)
			a.NextMiss = &nt
		case "hit_allowed":
			a.HitAllowed = value.GetBool(p.Value)
		case "default_allowed":
			a.DefaultAllowed = value.GetBool(p.Value)
		case "hit_disallowed_reason":
			if value.CheckType(p.Value, value.TStr) {
				a.HitReason = p.Value.S
			}
		case "default_disallowed_reason":
			if value.CheckType(p.Value, value.TStr) {
				a.DefaultReason = p.Value.S
			}
		case "attached":
			elems := []value.Value{p.Value}
			if p.Value.Type == value.TVec {
				elems = p.Value.Vec
			}
			for _, el := range elems {
				if c := parseCall(el); c != nil {
					a.Attached = append(a.Attached, c)
				}
			}
		default:
			a.addAlias(p)
		}
	})
}

func (a *Action) addAlias(p *value.Pair) {
	al := &Alias{Line: p.Key.Line, Name: p.Key.S, Lo: -1, Hi: -1}
	v := p.Value
	switch {
	case v.Type == value.TStr:
		al.Field = v.S
	case v.Type == value.TInt:
		al.IsConst = true
		al.Value = v.I
	case v.Type == value.TCmd && len(v.Args()) == 1 && v.Args()[0].Type == value.TRange:
		al.Field = v.CmdName()
		al.Lo = int(v.Args()[0].Lo)
		al.Hi = int(v.Args()[0].Hi)
	default:
		diag.Errorf(v.Line, "Syntax error, expecting field, field(lo..hi) or constant for alias %s", al.Name)
		return
	}
	a.Aliases = append(a.Aliases, al)
}

func (a *Action) operand(v value.Value) Operand {
	switch v.Type {
	case value.TInt:
		return Operand{Kind: OpConst, Value: v.I}
	case value.TStr:
		if al := a.alias(v.S); al != nil {
			if al.IsConst {
				return Operand{Kind: OpConst, Value: al.Value}
			}
			return Operand{Kind: OpParam, Name: v.S, Width: al.width()}
		}
		return Operand{Kind: OpField, Name: v.S}
	case value.TCmd:
		return Operand{Kind: OpField, Name: v.String()}
	}
	diag.Errorf(v.Line, "Invalid operand %s", v)
	return Operand{Kind: OpConst}
}

func (a *Action) addInstruction(v value.Value) {
	args := v.Args()
	in := &Instruction{Line: v.Line, Op: v.CmdName()}
	if len(args) == 0 {
		diag.Errorf(v.Line, "Instruction %s needs a destination", in.Op)
		return
	}
	in.Dest = a.operand(args[0])
	if in.Dest.Kind == OpConst {
		diag.Errorf(v.Line, "Destination of %s cannot be a constant", in.Op)
	}
	for _, s := range args[1:] {
		in.Srcs = append(in.Srcs, a.operand(s))
	}
	a.Instrs = append(a.Instrs, in)
}

// Get returns the named action, or nil.
func (acts *Actions) Get(name string) *Action {
	if acts == nil {
		return nil
	}
	return acts.byName[name]
}

// List returns the actions in declaration order.
func (acts *Actions) List() []*Action {
	if acts == nil {
		return nil
	}
	return acts.list
}

// pass1 assigns action codes and instruction addresses. Codes must fit the
// action field of the table format; addresses are shared across the stage
// only by actions whose instructions are VLIW-equivalent.
func (acts *Actions) pass1() {
	b := acts.tbl.tableBase()
	tp := b.target()

	codeBits := tp.ActionCodeBits
	if f := b.formatField("action"); f != nil {
		codeBits = f.Size
	} else if len(acts.list) > 1 && b.usesActionField() {
		diag.Errorf(b.line, "Table %s has %d actions but no action field in its format", acts.tbl.Name(), len(acts.list))
	}
	limit := 1 << uint(codeBits)
	if !b.usesActionField() {
		limit = 1 << uint(tp.ActionCodeBits)
	}

	byCode := make(map[int]*Action)
	for _, act := range acts.list {
		for _, c := range act.Attached {
			c.resolveArgs(acts.tbl)
		}
		if act.Code < 0 {
			continue
		}
		if act.Code >= limit {
			diag.Errorf(act.Line, "Action code %d for %s does not fit in %d bits", act.Code, act.Name, codeBits)
			continue
		}
		if prev, found := byCode[act.Code]; found {
			diag.Errorf(act.Line, "Duplicate action code %d for %s and %s", act.Code, prev.Name, act.Name)
			diag.Notef(prev.Line, "previous use")
			continue
		}
		byCode[act.Code] = act
	}
	next := 0
	for _, act := range acts.list {
		if act.Code >= 0 && byCode[act.Code] == act {
			continue
		}
		for byCode[next] != nil {
			next++
		}
		if next >= limit {
			diag.Errorf(act.Line, "Too many actions for table %s", acts.tbl.Name())
			act.Code = 0
			continue
		}
		act.Code = next
		byCode[next] = act
	}

	imem := b.stage.imemUse
	for _, act := range acts.list {
		if act.Addr >= 0 {
			if act.Addr >= len(imem) {
				diag.Errorf(act.Line, "Instruction address %d of %s out of range", act.Addr, act.Name)
				act.Addr = -1
				continue
			}
			for _, other := range imem[act.Addr] {
				if !act.EquivVLIW(other) {
					diag.Errorf(act.Line, "Instruction address %d of %s conflicts with %s in table %s", act.Addr, act.Name, other.Name, other.tbl.Name())
					diag.Notef(other.Line, "previous use")
					break
				}
			}
			imem[act.Addr] = append(imem[act.Addr], act)
			continue
		}
		free := -1
		for addr, users := range imem {
			if len(users) == 0 {
				if free < 0 {
					free = addr
				}
				continue
			}
			if act.EquivVLIW(users[0]) {
				act.Addr = addr
				break
			}
		}
		if act.Addr < 0 {
			if free < 0 {
				diag.Errorf(act.Line, "Out of instruction memory in stage %d for %s", b.stage.Num, act.Name)
				continue
			}
			act.Addr = free
		}
		imem[act.Addr] = append(imem[act.Addr], act)
	}
}

// pass2 resolves per-action next tables and attached calls.
func (acts *Actions) pass2() {
	for _, act := range acts.list {
		if act.NextHit != nil {
			act.NextHit.resolve(acts.tbl)
		}
		if act.NextMiss != nil {
			act.NextMiss.resolve(acts.tbl)
		}
		for _, c := range act.Attached {
			if t := acts.tbl.tableBase().pipe.byName[c.Name]; t != nil {
				c.resolveTarget(acts.tbl, t.Kind())
				if _, ok := t.(attached); !ok {
					diag.Errorf(c.Line, "%s is not an attached table", c.Name)
				}
			} else {
				diag.Errorf(c.Line, "No table named %s", c.Name)
			}
		}
	}
}

func (acts *Actions) writeAsm(aw *asmWriter) {
	if acts == nil || len(acts.list) == 0 {
		return
	}
	end := aw.block("actions")
	for _, act := range acts.list {
		endAct := aw.block("%s(%d, %d)", act.Name, act.Code, act.Addr)
		for _, al := range act.Aliases {
			aw.linef("- { %s }", al.asm())
		}
		if !act.HitAllowed {
			aw.linef("- { hit_allowed: false, hit_disallowed_reason: %q }", act.HitReason)
		}
		if !act.DefaultAllowed {
			aw.linef("- { default_allowed: false, default_disallowed_reason: %q }", act.DefaultReason)
		}
		if act.NextHit != nil {
			aw.linef("- { next_table: %s }", act.NextHit.NextTableName())
		}
		if act.NextMiss != nil {
			aw.linef("- { next_table_miss: %s }", act.NextMiss.NextTableName())
		}
		for _, c := range act.Attached {
			aw.linef("- { attached: %s }", c)
		}
		for _, in := range act.Instrs {
			aw.linef("- %s", in)
		}
		endAct()
	}
	end()
}

func (acts *Actions) writeRegs(r RegisterSink) {
	if acts == nil {
		return
	}
	b := acts.tbl.tableBase()
	if !b.hasLogicalID() || b.LogicalID() < 0 {
		return
	}
	for _, act := range acts.list {
		if act.Addr < 0 {
			continue
		}
		r.Set(fmt.Sprintf("mau[%d].action_code[%d][%d]", b.stage.Num, b.LogicalID(), act.Code), uint64(act.Addr))
	}
}

func (acts *Actions) genTblCfg() ctxjson.Vector {
	out := ctxjson.Vector{}
	if acts == nil {
		return out
	}
	for _, act := range acts.list {
		m := ctxjson.NewMap().
			Set("name", ctxjson.String(act.Name)).
			Set("action_code", ctxjson.Number(act.Code)).
			Set("vliw_instruction", ctxjson.Number(act.Addr)).
			Set("allowed_as_hit_action", ctxjson.Bool(act.HitAllowed)).
			Set("allowed_as_default_action", ctxjson.Bool(act.DefaultAllowed))
		if !act.HitAllowed && act.HitReason != "" {
			m.Set("disallowed_as_hit_action_reason", ctxjson.String(act.HitReason))
		}
		if !act.DefaultAllowed && act.DefaultReason != "" {
			m.Set("disallowed_as_default_action_reason", ctxjson.String(act.DefaultReason))
		}
		params := ctxjson.Vector{}
		for _, al := range act.Aliases {
			if al.IsConst {
				continue
			}
			params = append(params, ctxjson.NewMap().
				Set("name", ctxjson.String(al.Name)).
				Set("source", ctxjson.String(FormatName(al.Field))).
				Set("bit_width", ctxjson.Number(al.width())))
		}
		m.Set("p4_parameters", params)
		out = append(out, m)
	}
	return out
}
