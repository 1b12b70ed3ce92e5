package byteset

// Set returns a Matcher for the bytes of chars.
func Set(chars string) Matcher {
	m := &mDense{}
	for i := 0; i < len(chars); i++ {
		m.add(chars[i])
	}
	return m
}

// mDense is a 256-bit membership table.
type mDense struct {
	Set [8]uint32
}

var _ Matcher = (*mDense)(nil)

func (m *mDense) add(b byte) {
	index, mask := denseIM(b)
	m.Set[index] |= mask
}

func (m *mDense) Match(b byte) bool {
	index, mask := denseIM(b)
	return (m.Set[index] & mask) != 0
}

func (m *mDense) ForEach(f func(b byte)) {
	for i := 0; i < 256; i++ {
		if m.Match(byte(i)) {
			f(byte(i))
		}
	}
}

func (m *mDense) String() string {
	return classString(m)
}

func asDense(m Matcher) *mDense {
	if md, ok := m.(*mDense); ok {
		return md
	}
	mm := &mDense{}
	m.ForEach(mm.add)
	return mm
}

func denseIM(b byte) (index uint, mask uint32) {
	return uint(b >> 5), uint32(1) << uint(b&0x1f)
}
