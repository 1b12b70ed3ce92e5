package mau

import (
	"golang.org/x/exp/slices"

	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/target"
	"github.com/p4lang/p4c-sub024/value"
)

// NextTables is the set of tables control passes to on one outcome of a
// table. It is resolved in pass2; the accessors assert resolution.
type NextTables struct {
	Line int

	names []string
	lines []int

	tables   []Table
	next     Table
	lbTags   uint
	resolved bool
	tp       *target.Params
}

func parseNextTables(v value.Value) NextTables {
	nt := NextTables{Line: v.Line}
	elems := []value.Value{v}
	if v.Type == value.TVec {
		elems = v.Vec
	}
	for _, el := range elems {
		if !value.CheckType(el, value.TStr) {
			continue
		}
		if el.S == target.EndName {
			continue
		}
		nt.names = append(nt.names, el.S)
		nt.lines = append(nt.lines, el.Line)
	}
	return nt
}

// Names returns the symbolic next tables, excluding END.
func (nt *NextTables) Names() []string {
	return slices.Clone(nt.names)
}

// Empty reports whether the only successor is the end of the pipeline.
func (nt *NextTables) Empty() bool {
	return len(nt.names) == 0
}

func (nt *NextTables) resolve(from Table) {
	b := from.tableBase()
	nt.tp = b.target()
	nt.tables = nil
	nt.next = nil
	for i, name := range nt.names {
		t := b.pipe.byName[name]
		if t == nil {
			diag.Errorf(nt.lines[i], "No table named %s", name)
			continue
		}
		tb := t.tableBase()
		if !tb.hasLogicalID() {
			diag.Errorf(nt.lines[i], "%s %s cannot be a next table", t.Kind(), name)
			continue
		}
		if tb.gress != b.gress {
			diag.Errorf(nt.lines[i], "Next table %s is in %s, not %s", name, tb.gress, b.gress)
			continue
		}
		if tb.stage.Num < b.stage.Num {
			diag.Errorf(nt.lines[i], "Next table %s is in an earlier stage than %s", name, from.Name())
			continue
		}
		if tb.stage.Num == b.stage.Num && b.hasLogicalID() && tb.LogicalID() <= from.tableBase().LogicalID() {
			diag.Errorf(nt.lines[i], "Next table %s must have a higher logical id than %s", name, from.Name())
			continue
		}
		nt.tables = append(nt.tables, t)
		if nt.next == nil || nt.globalID(t) < nt.globalID(nt.next) {
			nt.next = t
		}
	}
	if len(nt.tables) > 1 && nt.tp.LongBranchTags == 0 {
		diag.Errorf(nt.Line, "Multiple next tables are not supported on %s", nt.tp.Name)
	}
	nt.resolved = true
}

func (nt *NextTables) globalID(t Table) int {
	return nt.tp.GlobalID(t.tableBase().stage.Num, t.tableBase().LogicalID())
}

// NextTableID returns the global id of the first table to run next, or the
// end-of-pipe id.
func (nt *NextTables) NextTableID() int {
	assert(nt.resolved, "next table id queried before resolution")
	if nt.next == nil {
		return nt.tp.EndOfPipe
	}
	return nt.globalID(nt.next)
}

func (nt *NextTables) NextTableName() string {
	assert(nt.resolved, "next table name queried before resolution")
	if nt.next == nil {
		return target.EndName
	}
	return nt.next.Name()
}

// LongBranchTags returns the tags this path sets.
func (nt *NextTables) LongBranchTags() uint {
	return nt.lbTags
}

// needsLongBranch reports whether control skips at least one stage.
func (nt *NextTables) needsLongBranch(from Table) bool {
	for _, t := range nt.tables {
		if t.tableBase().stage.Num > from.tableBase().stage.Num+1 {
			return true
		}
	}
	return len(nt.tables) > 1
}

// CanUseLB reports whether one of the long branch tags declared on tbl
// reaches every table in nt.
func (nt *NextTables) CanUseLB(tbl Table, lbBranches map[int][]string) bool {
	_, ok := nt.findLB(lbBranches)
	return ok && len(nt.names) > 0 && tbl.tableBase().target().LongBranchTags > 0
}

func (nt *NextTables) findLB(lbBranches map[int][]string) (int, bool) {
	tags := make([]int, 0, len(lbBranches))
	for tag := range lbBranches {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	for _, tag := range tags {
		all := true
		for _, name := range nt.names {
			if !slices.Contains(lbBranches[tag], name) {
				all = false
				break
			}
		}
		if all {
			return tag, true
		}
	}
	return -1, false
}

// ResolveLongBranch makes nt use a long branch from tbl when one of its
// tags covers nt. It reports whether one was used.
func (nt *NextTables) ResolveLongBranch(tbl Table, lbBranches map[int][]string) bool {
	if !nt.CanUseLB(tbl, lbBranches) {
		return false
	}
	tag, _ := nt.findLB(lbBranches)
	nt.lbTags |= 1 << uint(tag)
	return true
}

func (nt *NextTables) asm() string {
	switch len(nt.names) {
	case 0:
		return target.EndName
	case 1:
		return nt.names[0]
	}
	return nameList(nt.names)
}
