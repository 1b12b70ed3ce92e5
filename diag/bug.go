package diag

import (
	"bytes"
	"fmt"
)

// BugError is the panic value raised for internal invariant violations.
// It indicates a defect in the assembler, not a problem with its input.
type BugError struct {
	Msg string
}

func (e *BugError) Error() string {
	var buf bytes.Buffer
	buf.WriteString("BUG: ")
	buf.WriteString(e.Msg)
	return buf.String()
}

// Bug panics with a *BugError.
func Bug(format string, args ...interface{}) {
	panic(&BugError{Msg: fmt.Sprintf(format, args...)})
}
