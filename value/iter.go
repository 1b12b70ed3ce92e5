package value

import (
	"github.com/p4lang/p4c-sub024/diag"
)

// MapIterChecked walks the entries of a user-facing map. Entries whose key
// is not an identifier are reported and skipped unless AllowNonString is
// set. A repeated key is reported, with a note at its first occurrence,
// and skipped unless it is listed in Duplicates.
type MapIterChecked struct {
	Map            []Pair
	AllowNonString bool
	Duplicates     map[string]bool
}

// Checked returns a MapIterChecked over v, which should be a TMap.
func Checked(v Value) MapIterChecked {
	if v.Type != TMap {
		return MapIterChecked{}
	}
	return MapIterChecked{Map: v.Map}
}

// ForEach calls f for each accepted entry, in order.
func (it MapIterChecked) ForEach(f func(p *Pair)) {
	seen := make(map[string]*Pair)
	for i := range it.Map {
		p := &it.Map[i]
		if p.Key.Type != TStr {
			if !it.AllowNonString {
				diag.Errorf(p.Key.Line, "Syntax error, expecting %s", TStr)
				continue
			}
			f(p)
			continue
		}
		if prev, found := seen[p.Key.S]; found && !it.Duplicates[p.Key.S] {
			diag.Errorf(p.Key.Line, "Duplicate element %s", p.Key.S)
			diag.Notef(prev.Value.Line, "previous element %s defined here", p.Key.S)
			continue
		}
		if _, found := seen[p.Key.S]; !found {
			seen[p.Key.S] = p
		}
		f(p)
	}
}

// Pairs collects the accepted entries.
func (it MapIterChecked) Pairs() []*Pair {
	var out []*Pair
	it.ForEach(func(p *Pair) { out = append(out, p) })
	return out
}
