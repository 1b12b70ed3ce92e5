// Package bitvec implements arbitrary-width unsigned bit vectors.
//
// The zero Bitvec is an empty vector and is ready to use. Bitvec values must
// not be copied after first use; use Clone instead.
//
package bitvec

import (
	"math/big"
	"math/bits"
)

// Bitvec is an unbounded set of bit positions, equivalently an unsigned
// integer of arbitrary width.
type Bitvec struct {
	n big.Int
}

// FromUint64 returns a Bitvec holding v.
func FromUint64(v uint64) *Bitvec {
	b := &Bitvec{}
	b.n.SetUint64(v)
	return b
}

// FromWords returns a Bitvec built from 64-bit words, least significant
// word first.
func FromWords(words []uint64) *Bitvec {
	b := &Bitvec{}
	for i := len(words) - 1; i >= 0; i-- {
		b.n.Lsh(&b.n, 64)
		b.n.Or(&b.n, new(big.Int).SetUint64(words[i]))
	}
	return b
}

// Range returns a Bitvec with bits lo .. lo+n-1 set.
func Range(lo, n int) *Bitvec {
	b := &Bitvec{}
	b.SetRange(lo, n)
	return b
}

// Clone returns an independent copy of b.
func (b *Bitvec) Clone() *Bitvec {
	c := &Bitvec{}
	c.n.Set(&b.n)
	return c
}

// Bit reports whether bit i is set.
func (b *Bitvec) Bit(i int) bool {
	if i < 0 {
		return false
	}
	return b.n.Bit(i) != 0
}

// SetBit sets bit i.
func (b *Bitvec) SetBit(i int) *Bitvec {
	assert(i >= 0, "negative bit index %d", i)
	b.n.SetBit(&b.n, i, 1)
	return b
}

// ClearBit clears bit i.
func (b *Bitvec) ClearBit(i int) *Bitvec {
	assert(i >= 0, "negative bit index %d", i)
	b.n.SetBit(&b.n, i, 0)
	return b
}

// SetRange sets bits lo .. lo+n-1.
func (b *Bitvec) SetRange(lo, n int) *Bitvec {
	assert(lo >= 0 && n >= 0, "bad range %d+%d", lo, n)
	if n == 0 {
		return b
	}
	m := new(big.Int).Lsh(big.NewInt(1), uint(n))
	m.Sub(m, big.NewInt(1))
	m.Lsh(m, uint(lo))
	b.n.Or(&b.n, m)
	return b
}

// ClearFrom clears every bit at position n and above.
func (b *Bitvec) ClearFrom(n int) *Bitvec {
	assert(n >= 0, "negative bit index %d", n)
	if b.n.BitLen() <= n {
		return b
	}
	m := new(big.Int).Lsh(big.NewInt(1), uint(n))
	m.Sub(m, big.NewInt(1))
	b.n.And(&b.n, m)
	return b
}

// GetRange returns the n bits starting at lo, n <= 64.
func (b *Bitvec) GetRange(lo, n int) uint64 {
	assert(n >= 0 && n <= 64, "range width %d out of range", n)
	t := new(big.Int).Rsh(&b.n, uint(lo))
	v := lowWord(t)
	if n < 64 {
		v &= (uint64(1) << uint(n)) - 1
	}
	return v
}

// PutRange replaces the n bits starting at lo with the low n bits of v.
func (b *Bitvec) PutRange(lo, n int, v uint64) *Bitvec {
	assert(n >= 0 && n <= 64, "range width %d out of range", n)
	for i := 0; i < n; i++ {
		b.n.SetBit(&b.n, lo+i, uint((v>>uint(i))&1))
	}
	return b
}

// Max returns the position of the highest set bit, or -1 if b is empty.
func (b *Bitvec) Max() int {
	return b.n.BitLen() - 1
}

// Min returns the position of the lowest set bit, or -1 if b is empty.
func (b *Bitvec) Min() int {
	if b.n.Sign() == 0 {
		return -1
	}
	return int(b.n.TrailingZeroBits())
}

// Empty reports whether no bit is set.
func (b *Bitvec) Empty() bool {
	return b.n.Sign() == 0
}

// PopCount returns the number of set bits.
func (b *Bitvec) PopCount() int {
	n := 0
	for _, w := range b.n.Bits() {
		n += bits.OnesCount64(uint64(w))
	}
	return n
}

// Or sets b to b|o.
func (b *Bitvec) Or(o *Bitvec) *Bitvec {
	b.n.Or(&b.n, &o.n)
	return b
}

// And sets b to b&o.
func (b *Bitvec) And(o *Bitvec) *Bitvec {
	b.n.And(&b.n, &o.n)
	return b
}

// AndNot sets b to b&^o.
func (b *Bitvec) AndNot(o *Bitvec) *Bitvec {
	b.n.AndNot(&b.n, &o.n)
	return b
}

// Intersects reports whether b and o share a set bit.
func (b *Bitvec) Intersects(o *Bitvec) bool {
	return new(big.Int).And(&b.n, &o.n).Sign() != 0
}

// Equal reports whether b and o hold the same bits.
func (b *Bitvec) Equal(o *Bitvec) bool {
	return b.n.Cmp(&o.n) == 0
}

// Uint64 returns the low 64 bits of b.
func (b *Bitvec) Uint64() uint64 {
	return lowWord(&b.n)
}

// Words returns b as 64-bit words, least significant first. An empty vector
// yields a single zero word.
func (b *Bitvec) Words() []uint64 {
	n := (b.n.BitLen() + 63) / 64
	if n == 0 {
		return []uint64{0}
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = b.GetRange(i*64, 64)
	}
	return out
}

// ForEach calls f for each set bit, in ascending order.
func (b *Bitvec) ForEach(f func(i int)) {
	for i, n := 0, b.n.BitLen(); i < n; i++ {
		if b.n.Bit(i) != 0 {
			f(i)
		}
	}
}

// String renders b as a hexadecimal literal.
func (b *Bitvec) String() string {
	return "0x" + b.n.Text(16)
}

func lowWord(n *big.Int) uint64 {
	words := n.Bits()
	if len(words) == 0 {
		return 0
	}
	if bits.UintSize == 32 {
		v := uint64(words[0])
		if len(words) > 1 {
			v |= uint64(words[1]) << 32
		}
		return v
	}
	return uint64(words[0])
}
