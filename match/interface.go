// Package match implements ternary match patterns: integers in which any bit
// may be wildcarded.
//
// A pattern is stored as two words. Per bit:
//
//   word0  word1
//     1      1     don't care (wildcard)
//     1      0     must be 0
//     0      1     must be 1
//     0      0     not produced by Parse; behaves as "must be 0" in Matches
//
// Match holds patterns of up to 64 bits, Wide holds patterns of any width.
//
package match

// Pattern is the capability shared by Match and Wide.
//
// Implementations are immutable values; none of these methods modify the
// receiver.
//
type Pattern interface {
	// Width returns the number of populated bits (highest bit set in
	// either word, plus one).
	Width() int

	// Dirtcam returns the TCAM encoding of the window of width bits
	// starting at bit: bit i of the result is set iff the window matches
	// the value i.
	Dirtcam(width, bit int) uint64

	// String returns the canonical text rendering of the pattern.
	String() string
}

var (
	_ Pattern = Match{}
	_ Pattern = (*Wide)(nil)
)
