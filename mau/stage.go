package mau

import (
	"github.com/p4lang/p4c-sub024/diag"
)

// Stage is one MAU stage: its tables and the resources they claim. The
// registries are filled in pass1, in table declaration order, so later
// claims are checked against earlier ones.
type Stage struct {
	Num int

	pipe   *Pipeline
	tables []Table

	hashDistUse [][]*HashDistribution
	ramUse      map[[2]int]Table
	tcamUse     map[[2]int]Table
	mapramUse   map[[2]int]Table
	busUse      map[[2]int]Table
	logicalUse  []Table
	imemUse     [][]*Action

	pendingIDs []Table
}

func newStage(p *Pipeline, num int) *Stage {
	tp := p.tp
	return &Stage{
		Num:         num,
		pipe:        p,
		hashDistUse: make([][]*HashDistribution, tp.HashDistUnits),
		ramUse:      make(map[[2]int]Table),
		tcamUse:     make(map[[2]int]Table),
		mapramUse:   make(map[[2]int]Table),
		busUse:      make(map[[2]int]Table),
		logicalUse:  make([]Table, tp.LogicalTables),
		imemUse:     make([][]*Action, 1<<uint(tp.InstrAddrBits)),
	}
}

// Tables returns the tables of the stage in declaration order.
func (st *Stage) Tables() []Table {
	return st.tables
}

// HashDistUse returns the tables' uses of hash distribution unit id.
func (st *Stage) HashDistUse(id int) []*HashDistribution {
	return st.hashDistUse[id]
}

// claimLogicalID records an explicit logical id, or queues the table for
// assignLogicalIDs. Gateways attached to a match table take its id.
func (st *Stage) claimLogicalID(t Table) {
	b := t.tableBase()
	if gw, ok := t.(*Gateway); ok && gw.matchName != "" {
		return
	}
	if !b.explicit {
		st.pendingIDs = append(st.pendingIDs, t)
		return
	}
	if b.logicalID < 0 || b.logicalID >= len(st.logicalUse) {
		diag.Errorf(b.line, "Invalid logical id %d for table %s", b.logicalID, b.name)
		b.logicalID = -1
		return
	}
	if prev := st.logicalUse[b.logicalID]; prev != nil {
		diag.Errorf(b.line, "Table %s uses logical id %d already used by table %s", b.name, b.logicalID, prev.Name())
		diag.Notef(prev.Line(), "previous use")
		return
	}
	st.logicalUse[b.logicalID] = t
}

// assignLogicalIDs runs once every table of the stage has finished pass1.
// Tables without an explicit id get the lowest free ones in declaration
// order.
func (st *Stage) assignLogicalIDs() {
	next := 0
	for _, t := range st.pendingIDs {
		for next < len(st.logicalUse) && st.logicalUse[next] != nil {
			next++
		}
		b := t.tableBase()
		if next >= len(st.logicalUse) {
			diag.Errorf(b.line, "No logical table ids left in stage %d for %s", st.Num, b.name)
			continue
		}
		b.logicalID = next
		st.logicalUse[next] = t
	}
	st.pendingIDs = nil
	for _, t := range st.tables {
		if gw, ok := t.(*Gateway); ok && gw.match != nil {
			gw.logicalID = gw.match.tableBase().logicalID
		}
	}
}

// claimLayout registers the memory and bus of one layout row of t.
func (st *Stage) claimLayout(t Table, l Layout) {
	b := t.tableBase()
	tp := b.target()
	rows, cols, use := tp.SRAMRows, tp.SRAMColumns, st.ramUse
	switch t.Kind() {
	case KindTernaryMatch:
		rows, cols, use = tp.TCAMRows, tp.TCAMColumns, st.tcamUse
	case KindIdletime:
		use = st.mapramUse
	}
	if l.Row < 0 || l.Row >= rows {
		diag.Errorf(l.Line, "Invalid row %d in table %s", l.Row, b.name)
		return
	}
	if t.Kind() == KindGateway && len(l.Columns) > 0 {
		diag.Errorf(l.Line, "Gateway %s cannot use memory columns", b.name)
	}
	for _, col := range l.Columns {
		if col < 0 || col >= cols {
			diag.Errorf(l.Line, "Invalid column %d in table %s", col, b.name)
			continue
		}
		key := [2]int{l.Row, col}
		if prev := use[key]; prev != nil && prev != t && !allowRAMSharing(t, prev) {
			diag.Errorf(l.Line, "Table %s trying to use %s %d,%d which is already in use by table %s", b.name, memName(t), l.Row, col, prev.Name())
			diag.Notef(prev.Line(), "previous use")
			continue
		}
		use[key] = t
	}
	if l.Bus < 0 {
		return
	}
	key := [2]int{l.Row, l.Bus}
	if prev := st.busUse[key]; prev != nil && prev != t && !allowBusSharing(t, prev) {
		diag.Errorf(l.Line, "Table %s trying to use bus %d on row %d which is already in use by table %s", b.name, l.Bus, l.Row, prev.Name())
		diag.Notef(prev.Line(), "previous use")
		return
	}
	st.busUse[key] = t
}

// hasRAM reports whether t claimed the memory unit row,col.
func (st *Stage) hasRAM(t Table, row, col int) bool {
	return st.ramUse[[2]int{row, col}] == t
}
