package value

// Equal reports structural equality. A TInt equals a TBigInt holding the
// same magnitude with every word past the first zero. Maps compare entry by
// entry in order.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		switch {
		case v.Type == TInt && o.Type == TBigInt:
			return bigEqualsInt(o.Big, v.I)
		case v.Type == TBigInt && o.Type == TInt:
			return bigEqualsInt(v.Big, o.I)
		}
		return false
	}
	switch v.Type {
	case TInt:
		return v.I == o.I
	case TBigInt:
		n := len(v.Big)
		if len(o.Big) > n {
			n = len(o.Big)
		}
		for i := 0; i < n; i++ {
			if word(v.Big, i) != word(o.Big, i) {
				return false
			}
		}
		return true
	case TRange:
		return v.Lo == o.Lo && v.Hi == o.Hi
	case TStr:
		return v.S == o.S
	case TMatch:
		return v.M == o.M
	case TBigMatch:
		if len(v.BigM) != len(o.BigM) {
			return false
		}
		for i := range v.BigM {
			if v.BigM[i] != o.BigM[i] {
				return false
			}
		}
		return true
	case TVec, TCmd:
		if len(v.Vec) != len(o.Vec) {
			return false
		}
		for i := range v.Vec {
			if !v.Vec[i].Equal(o.Vec[i]) {
				return false
			}
		}
		return true
	case TMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for i := range v.Map {
			if !v.Map[i].Key.Equal(o.Map[i].Key) || !v.Map[i].Value.Equal(o.Map[i].Value) {
				return false
			}
		}
		return true
	}
	assert(false, "unknown value type %d", v.Type)
	return false
}

func bigEqualsInt(big []uint64, i int64) bool {
	if word(big, 0) != uint64(i) {
		return false
	}
	for k := 1; k < len(big); k++ {
		if big[k] != 0 {
			return false
		}
	}
	return true
}

func word(ws []uint64, i int) uint64 {
	if i < len(ws) {
		return ws[i]
	}
	return 0
}
