package byteset

// Not returns a Matcher that inverts the given Matcher.
func Not(m Matcher) Matcher {
	d := asDense(m)
	mm := &mDense{}
	for i := range mm.Set {
		mm.Set[i] = ^d.Set[i]
	}
	return mm
}
