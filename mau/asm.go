package mau

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// asmWriter produces the indentation-structured .bfa listing. Write errors
// are sticky; the first one is returned by finish.
type asmWriter struct {
	w      io.Writer
	buf    bytes.Buffer
	indent int
	total  int
	err    error
}

func newAsmWriter(w io.Writer) *asmWriter {
	return &asmWriter{w: w}
}

func (aw *asmWriter) flush() {
	if aw.err != nil {
		aw.buf.Reset()
		return
	}
	n, err := aw.w.Write(aw.buf.Bytes())
	aw.total += n
	aw.err = err
	aw.buf.Reset()
}

// linef writes one line at the current indentation.
func (aw *asmWriter) linef(format string, args ...interface{}) {
	aw.buf.WriteString(strings.Repeat("  ", aw.indent))
	fmt.Fprintf(&aw.buf, format, args...)
	aw.buf.WriteByte('\n')
	aw.flush()
}

// block writes a "key:" line and returns a func closing the block.
func (aw *asmWriter) block(format string, args ...interface{}) func() {
	aw.linef(format+":", args...)
	aw.indent++
	return func() { aw.indent-- }
}

func (aw *asmWriter) finish() (int, error) {
	return aw.total, aw.err
}

// intList renders [a, b, c].
func intList(vs []int) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range vs {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%d", v)
	}
	buf.WriteByte(']')
	return buf.String()
}

func nameList(vs []string) string {
	return "[" + strings.Join(vs, ", ") + "]"
}
