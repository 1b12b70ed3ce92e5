// Package byteset provides byte classes for hand-written lexers.
package byteset

// Matcher is a predicate that returns true for certain bytes.
//
// Implementations must not change their state on a call to Match.
//
type Matcher interface {
	// Match returns true iff byte b is in the set.
	Match(b byte) bool

	// ForEach calls f exactly once for each byte in the set, in ascending
	// order.
	ForEach(f func(b byte))

	// String returns a bracketed class such as "[0-9_a-f]".
	String() string
}

// Span returns the length of the longest prefix of data whose bytes all
// match m.
func Span(m Matcher, data []byte) int {
	for i, b := range data {
		if !m.Match(b) {
			return i
		}
	}
	return len(data)
}
