package mau

import (
	"fmt"
	"io"

	"github.com/xlab/treeprint"
	"golang.org/x/exp/slices"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/target"
	"github.com/p4lang/p4c-sub024/value"
)

// SchemaVersion is the context.json schema written by ContextJSON.
const SchemaVersion = "1.0.0"

// Pipeline is one compilation unit: its stages, its tables and the P4
// objects they implement.
type Pipeline struct {
	Name string

	tp     *target.Params
	stages []*Stage
	tables []Table
	byName map[string]Table

	p4ByName   map[P4Type]map[string]*P4Table
	p4ByHandle map[uint32]*P4Table
	maxHandle  [p4NumTypes]uint32

	compiled bool
}

// New returns an empty pipeline for tp.
func New(name string, tp *target.Params) *Pipeline {
	return &Pipeline{
		Name:       name,
		tp:         tp,
		byName:     make(map[string]Table),
		p4ByName:   make(map[P4Type]map[string]*P4Table),
		p4ByHandle: make(map[uint32]*P4Table),
	}
}

// Target returns the parameters the pipeline is built for.
func (p *Pipeline) Target() *target.Params {
	return p.tp
}

// TargetName returns the target: entry of an input tree, or "".
func TargetName(v value.Value) string {
	if t := v.Get("target"); t != nil && value.CheckType(*t, value.TStr) {
		return t.S
	}
	return ""
}

// Table returns the named table, or nil.
func (p *Pipeline) Table(name string) Table {
	return p.byName[name]
}

// Tables returns every table in declaration order.
func (p *Pipeline) Tables() []Table {
	return p.tables
}

// Stage returns stage num, or nil if no table was declared in it.
func (p *Pipeline) Stage(num int) *Stage {
	if num < 0 || num >= len(p.stages) {
		return nil
	}
	return p.stages[num]
}

// P4Tables returns the P4 objects ordered by handle.
func (p *Pipeline) P4Tables() []*P4Table {
	handles := make([]uint32, 0, len(p.p4ByHandle))
	for h := range p.p4ByHandle {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	out := make([]*P4Table, len(handles))
	for i, h := range handles {
		out[i] = p.p4ByHandle[h]
	}
	return out
}

func (p *Pipeline) stage(num int) *Stage {
	for len(p.stages) <= num {
		p.stages = append(p.stages, nil)
	}
	if p.stages[num] == nil {
		p.stages[num] = newStage(p, num)
	}
	return p.stages[num]
}

func (p *Pipeline) addTable(t Table, st *Stage, gress Gress) bool {
	b := t.tableBase()
	if prev := p.byName[b.name]; prev != nil {
		diag.Errorf(b.line, "Duplicate table %s", b.name)
		diag.Notef(prev.Line(), "previous definition")
		return false
	}
	b.pipe = p
	b.stage = st
	b.gress = gress
	p.byName[b.name] = t
	p.tables = append(p.tables, t)
	st.tables = append(st.tables, t)
	return true
}

// Load adds the stages and tables of an input tree. Problems are reported
// through diag; Load keeps going past them.
func (p *Pipeline) Load(v value.Value) {
	if !value.CheckType(v, value.TMap) {
		return
	}
	value.MapIterChecked{Map: v.Map, AllowNonString: true}.ForEach(func(pr *value.Pair) {
		switch {
		case pr.Key.Is("target"), pr.Key.Is("version"):
		case pr.Key.IsCmd("stage"):
			p.loadStage(pr)
		default:
			diag.Warnf(pr.Key.Line, "ignoring unknown item %s", pr.Key)
		}
	})
}

// loadStage reads "stage <num> <gress>: { <type> <name> [<lid>]: {...} }".
func (p *Pipeline) loadStage(pr *value.Pair) {
	args := pr.Key.Args()
	if len(args) != 2 || !value.CheckType(args[0], value.TInt) {
		diag.Errorf(pr.Key.Line, "Syntax error, expecting stage <number> <gress>")
		return
	}
	num := int(args[0].I)
	if num < 0 || num >= p.tp.Stages {
		diag.Errorf(pr.Key.Line, "Invalid stage %d for %s", num, p.tp.Name)
		return
	}
	gress, ok := parseGress(args[1])
	if !ok || !value.CheckType(pr.Value, value.TMap) {
		return
	}
	st := p.stage(num)
	value.MapIterChecked{Map: pr.Value.Map, AllowNonString: true}.ForEach(func(decl *value.Pair) {
		t := p.declare(decl.Key)
		if t == nil {
			return
		}
		if p.addTable(t, st, gress) {
			t.tableBase().setup(decl.Value)
		}
	})
}

// declare creates the table a declaration key names.
func (p *Pipeline) declare(key value.Value) Table {
	args := key.Args()
	if key.Type != value.TCmd || len(args) < 1 || len(args) > 2 || args[0].Type != value.TStr {
		diag.Errorf(key.Line, "Syntax error, expecting <type> <name> [<logical id>]")
		return nil
	}
	kind, ok := kindByName(key.CmdName())
	if !ok {
		diag.Errorf(key.Line, "Unknown table type %s", key.CmdName())
		return nil
	}
	var t Table
	switch kind {
	case KindExactMatch, KindATCAMMatch, KindProxyHash:
		t = newExactMatch(kind)
	case KindTernaryMatch:
		t = newTernaryMatch()
	case KindTernaryIndirect:
		t = newTernaryIndirect()
	case KindHashAction:
		t = newHashAction()
	case KindPhase0Match:
		t = newPhase0()
	case KindGateway:
		t = newGateway()
	case KindAction:
		t = newActionTable()
	case KindCounter:
		t = newCounter()
	case KindMeter:
		t = newMeter()
	case KindSelection:
		t = newSelection()
	case KindStateful:
		t = newStateful()
	}
	assert(t != nil, "no constructor for %s", kind)
	b := t.tableBase()
	b.name = args[0].S
	b.line = key.Line
	b.logicalID = -1
	if len(args) == 2 {
		if !kind.isLogical() {
			diag.Errorf(key.Line, "%s tables have no logical id", kind)
		} else if value.CheckType(args[1], value.TInt) {
			b.logicalID = int(args[1].I)
			b.explicit = true
		}
	}
	return t
}

// Compile runs the passes over every table and reports whether no errors
// were found. Each pass visits the tables in declaration order.
func (p *Pipeline) Compile() bool {
	assert(!p.compiled, "pipeline %s compiled twice", p.Name)
	p.compiled = true
	errs := diag.ErrorCount()
	for _, t := range p.tables {
		t.pass0()
	}
	for _, t := range p.tables {
		t.pass1()
	}
	for _, st := range p.stages {
		if st != nil {
			st.assignLogicalIDs()
		}
	}
	for _, t := range p.tables {
		t.pass2()
	}
	for _, t := range p.tables {
		t.pass3()
	}
	return diag.ErrorCount() == errs
}

// forEachStage visits stages in number order, ingress before egress.
func (p *Pipeline) forEachStage(f func(st *Stage, gress Gress, tables []Table)) {
	for _, st := range p.stages {
		if st == nil {
			continue
		}
		for _, g := range []Gress{Ingress, Egress} {
			var tables []Table
			for _, t := range st.tables {
				if t.tableBase().gress == g {
					tables = append(tables, t)
				}
			}
			if len(tables) > 0 {
				f(st, g, tables)
			}
		}
	}
}

// WriteAsm writes the resolved .bfa listing.
func (p *Pipeline) WriteAsm(w io.Writer) (int, error) {
	assert(p.compiled, "WriteAsm before Compile")
	aw := newAsmWriter(w)
	aw.linef("version: %s", SchemaVersion)
	aw.linef("target: %s", p.tp.Name)
	p.forEachStage(func(st *Stage, gress Gress, tables []Table) {
		end := aw.block("stage %d %s", st.Num, gress)
		for _, t := range tables {
			t.writeAsm(aw)
		}
		end()
	})
	return aw.finish()
}

// ContextJSON builds context.json: one entry per P4 table, ordered by
// handle, merged from the fragments of the tables implementing it.
func (p *Pipeline) ContextJSON() *ctxjson.Map {
	assert(p.compiled, "ContextJSON before Compile")
	tables := ctxjson.Vector{}
	for _, p4 := range p.P4Tables() {
		merged := ctxjson.NewMap()
		for _, t := range p4.tables {
			if frag := t.genTblCfg(); frag != nil {
				merged.Merge(frag)
			}
		}
		if merged.Len() > 0 {
			tables = append(tables, merged)
		}
	}
	return ctxjson.NewMap().
		Set("program_name", ctxjson.String(p.Name)).
		Set("target", ctxjson.String(p.tp.Name)).
		Set("schema_version", ctxjson.String(SchemaVersion)).
		Set("tables", tables)
}

// WriteRegs projects the resolved pipeline onto r.
func (p *Pipeline) WriteRegs(r RegisterSink) {
	assert(p.compiled, "WriteRegs before Compile")
	for _, t := range p.tables {
		t.writeRegs(r)
	}
}

// Tree renders the stages and the control flow between logical tables.
func (p *Pipeline) Tree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s (%s)", p.Name, p.tp.Name))
	p.forEachStage(func(st *Stage, gress Gress, tables []Table) {
		br := tree.AddBranch(fmt.Sprintf("stage %d %s", st.Num, gress))
		for _, t := range tables {
			b := t.tableBase()
			label := fmt.Sprintf("%s %s", t.Kind(), t.Name())
			if b.hasLogicalID() && b.logicalID >= 0 {
				label = fmt.Sprintf("%s [%d]", label, b.logicalID)
			}
			tb := br.AddBranch(label)
			for _, nt := range b.hit {
				tb.AddNode("hit: " + treeNext(nt))
			}
			if b.miss != nil {
				tb.AddNode("miss: " + treeNext(b.miss))
			}
			for _, c := range b.calls {
				tb.AddNode(c.key + ": " + c.String())
			}
			if gw, ok := t.(*Gateway); ok {
				for _, row := range gw.rows {
					tb.AddNode(fmt.Sprintf("%s: %s", row.Match, row.asm()))
				}
			}
		}
	})
	return tree
}

func treeNext(nt *NextTables) string {
	if nt.resolved {
		return nt.NextTableName()
	}
	return nt.asm()
}
