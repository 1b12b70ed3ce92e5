package byteset

// Or returns a Matcher that matches iff any of the given Matchers match.
func Or(ms ...Matcher) Matcher {
	m := &mDense{}
	for _, sub := range ms {
		d := asDense(sub)
		for i := range m.Set {
			m.Set[i] |= d.Set[i]
		}
	}
	return m
}
