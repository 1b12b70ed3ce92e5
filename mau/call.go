package mau

import (
	"fmt"

	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/value"
)

// Arg is one argument of a Call. The variants are FieldArg, HashDistArg,
// CounterArg, ConstArg and NameArg.
type Arg interface {
	String() string
	isArg()
}

// FieldArg takes an address from a field of the calling table's format.
type FieldArg struct {
	Field *Field
}

// HashDistArg takes an address from a hash distribution unit of the
// calling table.
type HashDistArg struct {
	ID int
	HD *HashDistribution
}

// CounterMode selects when a stateful ALU's counter advances.
type CounterMode uint8

const (
	CounterDisabled CounterMode = iota
	CounterHit
	CounterMiss
	CounterGateway
)

var counterModeNames = []string{
	CounterDisabled: "disabled",
	CounterHit:      "hit",
	CounterMiss:     "miss",
	CounterGateway:  "gateway",
}

func (m CounterMode) String() string {
	if int(m) < len(counterModeNames) {
		return counterModeNames[m]
	}
	return fmt.Sprintf("CounterMode(%d)", uint8(m))
}

type CounterArg struct {
	Mode CounterMode
}

type ConstArg struct {
	Value int64
}

// NameArg is a symbolic argument; names of format fields become FieldArgs
// in pass1.
type NameArg struct {
	Name string
}

var (
	_ Arg = FieldArg{}
	_ Arg = HashDistArg{}
	_ Arg = CounterArg{}
	_ Arg = ConstArg{}
	_ Arg = NameArg{}
)

func (FieldArg) isArg()    {}
func (HashDistArg) isArg() {}
func (CounterArg) isArg()  {}
func (ConstArg) isArg()    {}
func (NameArg) isArg()     {}

func (a FieldArg) String() string    { return a.Field.Name }
func (a HashDistArg) String() string { return fmt.Sprintf("hash_dist(%d)", a.ID) }
func (a CounterArg) String() string  { return fmt.Sprintf("counter(%s)", a.Mode) }
func (a ConstArg) String() string    { return fmt.Sprintf("%d", a.Value) }
func (a NameArg) String() string     { return a.Name }

// Call is a reference from a table or action to an attached table.
type Call struct {
	Line   int
	Name   string
	Args   []Arg
	Target Table

	key string
}

func parseCall(v value.Value) *Call {
	switch v.Type {
	case value.TStr:
		return &Call{Line: v.Line, Name: v.S}
	case value.TCmd:
	default:
		value.CheckType(v, value.TStr)
		return nil
	}
	c := &Call{Line: v.Line, Name: v.CmdName()}
	for _, a := range v.Args() {
		switch {
		case a.Type == value.TInt:
			c.Args = append(c.Args, ConstArg{a.I})
		case a.Type == value.TStr:
			c.Args = append(c.Args, NameArg{a.S})
		case a.IsCmd("hash_dist") && len(a.Args()) >= 1 && a.Args()[0].Type == value.TInt:
			c.Args = append(c.Args, HashDistArg{ID: int(a.Args()[0].I)})
		case a.IsCmd("counter") && len(a.Args()) == 1 && a.Args()[0].Type == value.TStr:
			mode := -1
			for i, n := range counterModeNames {
				if a.Args()[0].S == n {
					mode = i
				}
			}
			if mode < 0 {
				diag.Errorf(a.Line, "Unknown counter mode %s", a.Args()[0].S)
				continue
			}
			c.Args = append(c.Args, CounterArg{CounterMode(mode)})
		default:
			diag.Errorf(a.Line, "Invalid argument %s to %s", a, c.Name)
		}
	}
	return c
}

// resolveArgs binds names and hash_dist references against the calling
// table. Runs in pass1.
func (c *Call) resolveArgs(caller Table) {
	for i, a := range c.Args {
		switch x := a.(type) {
		case NameArg:
			if f := caller.tableBase().formatField(x.Name); f != nil {
				c.Args[i] = FieldArg{f}
			} else {
				diag.Errorf(c.Line, "No field %s in format of %s", x.Name, caller.Name())
			}
		case HashDistArg:
			if hd := caller.tableBase().hashDistByID(x.ID); hd != nil {
				x.HD = hd
				c.Args[i] = x
			} else {
				diag.Errorf(c.Line, "No hash_dist %d in table %s", x.ID, caller.Name())
			}
		}
	}
}

// resolveTarget looks up the called table, which must be of kind want and
// in the caller's stage. Runs in pass2.
func (c *Call) resolveTarget(caller Table, want Kind) {
	t := caller.tableBase().pipe.byName[c.Name]
	if t == nil {
		diag.Errorf(c.Line, "No table named %s", c.Name)
		return
	}
	if t.Kind() != want {
		diag.Errorf(c.Line, "%s is not a %s table", c.Name, want)
		return
	}
	if t.tableBase().stage != caller.tableBase().stage {
		diag.Errorf(c.Line, "Attached table %s must be in the same stage as %s", c.Name, caller.Name())
		return
	}
	c.Target = t
	if at, ok := t.(attached); ok {
		at.attachedBase().addCaller(caller)
	}
}

func (c *Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	s := c.Name + "("
	for i, a := range c.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}
