package match

import (
	"math/bits"

	"github.com/p4lang/p4c-sub024/bitvec"
)

// Match is a ternary pattern of at most 64 bits.
type Match struct {
	Word0 uint64
	Word1 uint64
}

// Exactly returns a pattern of the given width that matches only v.
func Exactly(v uint64, width int) Match {
	return FromValueMask(v, 0, width)
}

// FromValueMask builds a width-bit pattern whose fixed bits come from value
// and whose wildcard bits are the set bits of dontCare.
func FromValueMask(value, dontCare uint64, width int) Match {
	assert(width >= 0 && width <= 64, "pattern width %d out of range", width)
	all := lowMask(width)
	dontCare &= all
	care := all &^ dontCare
	return Match{
		Word0: (^value & care) | dontCare,
		Word1: (value & care) | dontCare,
	}
}

// Wildcards returns the wildcard bits of m.
func (m Match) Wildcards() uint64 {
	return m.Word0 & m.Word1
}

// Ones returns the bits m requires to be 1.
func (m Match) Ones() uint64 {
	return m.Word1 &^ m.Word0
}

// Width returns the number of populated bits.
func (m Match) Width() int {
	return bits.Len64(m.Word0 | m.Word1)
}

// Matches reports whether the concrete value v is consistent with m.
func (m Match) Matches(v uint64) bool {
	return (v|m.Word1) == m.Word1 && ((^v&m.Word1)|m.Word0) == m.Word0
}

// MatchesPattern would test pattern-level containment. It is not supported
// and panics.
func (m Match) MatchesPattern(other Match) bool {
	assert(false, "pattern-against-pattern match of %s and %s is not supported", m, other)
	return false
}

// Equiv reports whether m and o accept exactly the same values. Bits that
// are unpopulated in one pattern compare equal to "must be 0" bits in the
// other.
func (m Match) Equiv(o Match) bool {
	return m.normalized() == o.normalized()
}

func (m Match) normalized() Match {
	return Match{Word0: m.Word0 | ^(m.Word0 | m.Word1), Word1: m.Word1}
}

// Dirtcam returns the TCAM encoding of the window [bit, bit+width). A
// window with both words clear encodes as "never matches"; see
// Wide.Dirtcam for the wide counterpart, which treats it as don't care.
func (m Match) Dirtcam(width, bit int) uint64 {
	assert(width >= 0 && width <= 4, "dirtcam width %d out of range", width)
	assert(bit >= 0 && bit+width <= 64, "dirtcam window %d+%d out of range", bit, width)
	w0 := (m.Word0 >> uint(bit)) & lowMask(width)
	w1 := (m.Word1 >> uint(bit)) & lowMask(width)
	return dirtcamWindow(w0, w1, width)
}

// ForEach calls f once for each concrete value m matches, in ascending
// order.
func (m Match) ForEach(f func(v uint64)) {
	it := m.Iter()
	for {
		v, ok := it.Next()
		if !ok {
			return
		}
		f(v)
	}
}

// Wide returns m as a Wide pattern.
func (m Match) Wide() *Wide {
	return &Wide{Word0: bitvec.FromUint64(m.Word0), Word1: bitvec.FromUint64(m.Word1)}
}

// String returns the canonical rendering of m.
func (m Match) String() string {
	return render(bitvec.FromUint64(m.Word0), bitvec.FromUint64(m.Word1))
}

func dirtcamWindow(w0, w1 uint64, width int) uint64 {
	var rv uint64
	for i := uint64(0); i < uint64(1)<<uint(width); i++ {
		ok := true
		for j := 0; j < width && ok; j++ {
			if (i>>uint(j))&1 == 0 {
				ok = (w0>>uint(j))&1 != 0
			} else {
				ok = (w1>>uint(j))&1 != 0
			}
		}
		if ok {
			rv |= uint64(1) << i
		}
	}
	return rv
}

func lowMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}
