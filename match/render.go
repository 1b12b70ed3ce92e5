package match

import (
	"bytes"

	"github.com/p4lang/p4c-sub024/bitvec"
)

const digits = "0123456789abcdef"

// radix describes one candidate rendering; tried in order.
type radix struct {
	Prefix string
	Shift  int
}

var radixes = []radix{
	radix{"0x", 4},
	radix{"0o", 3},
	radix{"0b", 1},
}

// render picks the widest digit grouping in which no digit mixes wildcard
// and fixed bits, then prints from the most significant populated digit
// down. A pattern that is entirely wildcard prints as "0b*".
func render(w0, w1 *bitvec.Bitvec) string {
	pop := w0.Clone().Or(w1)
	width := pop.Max() + 1
	wild := w0.Clone().And(w1)
	if width == 0 || wild.Equal(pop) {
		return "0b*"
	}

	r := radixes[len(radixes)-1]
	for _, candidate := range radixes {
		if groupsClean(wild, width, candidate.Shift) {
			r = candidate
			break
		}
	}

	var buf bytes.Buffer
	buf.WriteString(r.Prefix)
	full := lowMask(r.Shift)
	for i := (width+r.Shift-1)/r.Shift - 1; i >= 0; i-- {
		g := wild.GetRange(i*r.Shift, r.Shift)
		if g == full {
			buf.WriteByte('*')
		} else {
			buf.WriteByte(digits[w1.GetRange(i*r.Shift, r.Shift)])
		}
	}
	return buf.String()
}

func groupsClean(wild *bitvec.Bitvec, width, shift int) bool {
	full := lowMask(shift)
	for lo := 0; lo < width; lo += shift {
		g := wild.GetRange(lo, shift)
		if g != 0 && g != full {
			return false
		}
	}
	return true
}
