package match

import (
	"github.com/p4lang/p4c-sub024/bitvec"
)

// Wide is a ternary pattern of arbitrary width.
type Wide struct {
	Word0 *bitvec.Bitvec
	Word1 *bitvec.Bitvec
}

// NewWide returns an empty (zero-width) pattern.
func NewWide() *Wide {
	return &Wide{Word0: &bitvec.Bitvec{}, Word1: &bitvec.Bitvec{}}
}

// FromChunks assembles a wide pattern from 64-bit chunks, least significant
// chunk first.
func FromChunks(chunks []Match) *Wide {
	w := NewWide()
	for i, c := range chunks {
		w.Word0.PutRange(i*64, 64, c.Word0)
		w.Word1.PutRange(i*64, 64, c.Word1)
	}
	return w
}

// Chunks splits w into 64-bit patterns, least significant chunk first.
func (w *Wide) Chunks() []Match {
	n := (w.Width() + 63) / 64
	if n == 0 {
		n = 1
	}
	out := make([]Match, n)
	for i := range out {
		out[i] = Match{Word0: w.Word0.GetRange(i*64, 64), Word1: w.Word1.GetRange(i*64, 64)}
	}
	return out
}

// Narrow returns w as a Match, and false if w can match a value wider than
// 64 bits. "Must be 0" bits above bit 63 are dropped.
func (w *Wide) Narrow() (Match, bool) {
	if w.Word1.Max() >= 64 {
		return Match{}, false
	}
	return Match{Word0: w.Word0.Uint64(), Word1: w.Word1.Uint64()}, true
}

func (w *Wide) Width() int {
	return w.Word0.Clone().Or(w.Word1).Max() + 1
}

// Matches reports whether the concrete value v is consistent with w.
func (w *Wide) Matches(v *bitvec.Bitvec) bool {
	if !v.Clone().Or(w.Word1).Equal(w.Word1) {
		return false
	}
	return w.Word1.Clone().AndNot(v).Or(w.Word0).Equal(w.Word0)
}

// Dirtcam returns the TCAM encoding of the window [bit, bit+width). Unlike
// Match.Dirtcam, a window with both words clear encodes as don't care.
func (w *Wide) Dirtcam(width, bit int) uint64 {
	assert(width >= 0 && width <= 4, "dirtcam width %d out of range", width)
	w0 := w.Word0.GetRange(bit, width)
	w1 := w.Word1.GetRange(bit, width)
	if w0 == 0 && w1 == 0 {
		return lowMask(1 << uint(width))
	}
	return dirtcamWindow(w0, w1, width)
}

func (w *Wide) Equal(o *Wide) bool {
	return w.Word0.Equal(o.Word0) && w.Word1.Equal(o.Word1)
}

func (w *Wide) String() string {
	return render(w.Word0, w.Word1)
}
