package byteset

import (
	"bytes"
	"fmt"
)

// classString renders runs of three or more bytes as lo-hi.
func classString(m Matcher) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	lo, prev := -1, -1
	flush := func() {
		switch {
		case lo < 0:
		case prev-lo >= 2:
			writeByte(&buf, byte(lo))
			buf.WriteByte('-')
			writeByte(&buf, byte(prev))
		default:
			for x := lo; x <= prev; x++ {
				writeByte(&buf, byte(x))
			}
		}
	}
	m.ForEach(func(b byte) {
		if int(b) != prev+1 || lo < 0 {
			flush()
			lo = int(b)
		}
		prev = int(b)
	})
	flush()
	buf.WriteByte(']')
	return buf.String()
}

func writeByte(buf *bytes.Buffer, b byte) {
	switch {
	case b == '\\' || b == ']' || b == '-' || b == '[':
		buf.WriteByte('\\')
		buf.WriteByte(b)
	case b > 0x20 && b < 0x7f:
		buf.WriteByte(b)
	default:
		fmt.Fprintf(buf, "\\x%02x", b)
	}
}
