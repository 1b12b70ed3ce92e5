package match

// Iter enumerates the concrete values a Match accepts, in ascending order.
//
// Only the wildcard positions are counted over, so the cost is proportional
// to the number of matches rather than to the width of the pattern.
//
type Iter struct {
	wild uint64
	ones uint64
	cur  uint64
	done bool
	none bool
}

// Iter returns an iterator positioned at the first match of m.
func (m Match) Iter() *Iter {
	it := &Iter{
		wild: m.Wildcards(),
		ones: m.Ones(),
		none: (m.Word0 | m.Word1) == 0,
	}
	it.Reset()
	return it
}

// Reset restarts the sequence.
func (it *Iter) Reset() {
	it.cur = 0
	it.done = it.none
}

// Next returns the next match, or false once the sequence is exhausted.
func (it *Iter) Next() (uint64, bool) {
	if it.done {
		return 0, false
	}
	v := it.ones | it.cur
	// Add one to the wildcard bits only, carrying across fixed positions.
	it.cur = ((it.cur | ^it.wild) + 1) & it.wild
	if it.cur == 0 {
		it.done = true
	}
	return v, true
}
