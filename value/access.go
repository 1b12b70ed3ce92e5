package value

import (
	"github.com/p4lang/p4c-sub024/bitvec"
	"github.com/p4lang/p4c-sub024/diag"
)

// CheckType reports an error unless v has type t.
func CheckType(v Value, t Type) bool {
	if v.Type == t {
		return true
	}
	diag.Errorf(v.Line, "Syntax error, expecting %s", t)
	return false
}

// CheckType2 reports an error unless v has type t1 or t2.
func CheckType2(v Value, t1, t2 Type) bool {
	if v.Type == t1 || v.Type == t2 {
		return true
	}
	if t1.String() == t2.String() {
		diag.Errorf(v.Line, "Syntax error, expecting %s", t1)
	} else {
		diag.Errorf(v.Line, "Syntax error, expecting %s or %s", t1, t2)
	}
	return false
}

// GetBool accepts the identifiers true and false or an integer.
func GetBool(v Value) bool {
	switch {
	case v.Is("true"):
		return true
	case v.Is("false"):
		return false
	case CheckType(v, TInt):
		return v.I != 0
	}
	return false
}

// GetInt64 returns a TInt or TBigInt as an unsigned 64-bit value. With
// 0 < maxBits < 64 the result is masked to maxBits, and errMsg (if not
// empty) is reported when the true value did not fit. A TBigInt with
// nonzero words past the first never fits.
func GetInt64(v Value, maxBits int, errMsg string) uint64 {
	assert(maxBits <= 64, "GetInt64 of %d bits", maxBits)
	if !CheckType2(v, TInt, TBigInt) {
		return 0
	}
	var rv uint64
	overflow := false
	if v.Type == TInt {
		rv = uint64(v.I)
	} else {
		if len(v.Big) > 0 {
			rv = v.Big[0]
		}
		for i := 1; i < len(v.Big); i++ {
			if v.Big[i] != 0 {
				overflow = true
			}
		}
	}
	if maxBits > 0 {
		if maxBits < 64 && rv>>uint(maxBits) != 0 {
			overflow = true
		}
		if overflow && errMsg != "" {
			diag.Errorf(v.Line, "%s", errMsg)
		}
		if maxBits < 64 {
			rv &= (uint64(1) << uint(maxBits)) - 1
		}
	}
	return rv
}

// GetInt is GetInt64 for values that must fit an int.
func GetInt(v Value, maxBits int, errMsg string) int {
	return int(GetInt64(v, maxBits, errMsg))
}

// GetBitvec returns a TInt or TBigInt as a bit vector of any width. With
// maxBits > 0, bits at and above maxBits are always cleared; errMsg (if not
// empty) is reported first when any were set.
func GetBitvec(v Value, maxBits int, errMsg string) *bitvec.Bitvec {
	if !CheckType2(v, TInt, TBigInt) {
		return &bitvec.Bitvec{}
	}
	rv := v.Bitvec()
	if maxBits > 0 && rv.Max() >= maxBits {
		if errMsg != "" {
			diag.Errorf(v.Line, "%s", errMsg)
		}
		rv.ClearFrom(maxBits)
	}
	return rv
}

// CollapseListOfMaps replaces a list whose elements are all maps with one
// map holding their entries in order. With singletonOnly, every element
// must hold exactly one entry. Anything else is left alone.
func (v *Value) CollapseListOfMaps(singletonOnly bool) {
	if v.Type != TVec || len(v.Vec) == 0 {
		return
	}
	for _, el := range v.Vec {
		if el.Type != TMap || (singletonOnly && len(el.Map) != 1) {
			return
		}
	}
	out := v.Vec[0]
	for _, el := range v.Vec[1:] {
		out.Map = append(out.Map, el.Map...)
	}
	*v = out
}
