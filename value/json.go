package value

import (
	"fmt"
	"math"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/match"
)

// ToJSON projects v into the JSON model. Ranges and patterns become their
// canonical text, and the identifiers true, false and null become the JSON
// literals. An integer too large for a JSON number becomes a hex string.
func ToJSON(v Value) ctxjson.Obj {
	switch v.Type {
	case TInt:
		return ctxjson.Number(v.I)
	case TBigInt:
		if bigEqualsInt(v.Big, int64(word(v.Big, 0))) && word(v.Big, 0) <= math.MaxInt64 {
			return ctxjson.Number(int64(word(v.Big, 0)))
		}
		return ctxjson.String(v.Bitvec().String())
	case TRange:
		return ctxjson.String(fmt.Sprintf("%d..%d", v.Lo, v.Hi))
	case TStr:
		switch v.S {
		case "true":
			return ctxjson.Bool(true)
		case "false":
			return ctxjson.Bool(false)
		case "null":
			return ctxjson.Null{}
		}
		return ctxjson.String(v.S)
	case TMatch:
		return ctxjson.String(v.M.String())
	case TBigMatch:
		return ctxjson.String(match.FromChunks(v.BigM).String())
	case TVec, TCmd:
		out := make(ctxjson.Vector, 0, len(v.Vec))
		for _, el := range v.Vec {
			out = append(out, ToJSON(el))
		}
		return out
	case TMap:
		out := ctxjson.NewMap()
		for _, p := range v.Map {
			out.Set(jsonKey(p.Key), ToJSON(p.Value))
		}
		return out
	}
	assert(false, "unknown value type %d", v.Type)
	return nil
}

func jsonKey(k Value) string {
	if s, ok := ToJSON(k).(ctxjson.String); ok {
		return string(s)
	}
	return ctxjson.Text(ToJSON(k))
}
