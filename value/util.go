package value

import (
	"github.com/p4lang/p4c-sub024/diag"
)

func assert(cond bool, format string, args ...interface{}) {
	if !cond {
		diag.Bug(format, args...)
	}
}
