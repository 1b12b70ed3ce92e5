package match

import (
	"github.com/p4lang/p4c-sub024/diag"
)

// assert panics if cond is false.
func assert(cond bool, format string, args ...interface{}) {
	if !cond {
		diag.Bug(format, args...)
	}
}
