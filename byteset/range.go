package byteset

// Range is the inclusive byte range Lo..Hi. A Range with Lo > Hi is empty.
type Range struct {
	Lo byte
	Hi byte
}

// Ranges returns a Matcher for the union of the given ranges.
func Ranges(rs ...Range) Matcher {
	m := &mDense{}
	for _, r := range rs {
		for x := uint(r.Lo); x <= uint(r.Hi); x++ {
			m.add(byte(x))
		}
	}
	return m
}
