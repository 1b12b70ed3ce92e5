package mau

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/exp/slices"
)

// RegisterSink receives the register writes a resolved pipeline projects
// onto. Names are dotted paths such as "mau[0].hash_dist[3].shift".
type RegisterSink interface {
	Set(name string, v uint64)
}

// Registers is a RegisterSink that remembers the last value written to each
// register.
type Registers struct {
	vals map[string]uint64
}

var _ RegisterSink = (*Registers)(nil)

func NewRegisters() *Registers {
	return &Registers{vals: make(map[string]uint64)}
}

func (r *Registers) Set(name string, v uint64) {
	r.vals[name] = v
}

// Get returns a register value and whether it was written.
func (r *Registers) Get(name string) (uint64, bool) {
	v, ok := r.vals[name]
	return v, ok
}

func (r *Registers) Len() int {
	return len(r.vals)
}

// Dump writes every register as "name = 0x...", sorted by name.
func (r *Registers) Dump(w io.Writer) (int, error) {
	names := make([]string, 0, len(r.vals))
	for name := range r.vals {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	for _, name := range names {
		fmt.Fprintf(&buf, "%s = %#x\n", name, r.vals[name])
	}
	return w.Write(buf.Bytes())
}
