package value

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/renstrom/dedent"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/p4lang/p4c-sub024/ctxjson"
	"github.com/p4lang/p4c-sub024/diag"
)

var reNL = regexp.MustCompile(`(?m)^`)

func diff(l, r string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(l, r, false)
	pretty := dmp.DiffPrettyText(diffs)
	return reNL.ReplaceAllLiteralString(pretty, "\t")
}

// withSink routes diagnostics to a fresh sink for the rest of the test.
func withSink(t *testing.T) *diag.Sink {
	s := diag.NewSink("test.bfa", nil)
	t.Cleanup(diag.Use(s))
	return s
}

func TestGetInt64_Scenarios(t *testing.T) {
	s := withSink(t)
	v := NewInt(3, 0x2a)

	if got := GetInt64(v, 8, ""); got != 42 {
		t.Errorf("%s: expected 42, got %d", t.Name(), got)
	}
	if s.Errors != 0 {
		t.Errorf("%s: unexpected diagnostics:\n%s", t.Name(), s)
	}

	if got := GetInt64(v, 4, "too wide"); got != 10 {
		t.Errorf("%s: expected 10, got %d", t.Name(), got)
	}
	if s.Errors != 1 || !strings.Contains(s.List[0].Msg, "too wide") || s.List[0].Line != 3 {
		t.Errorf("%s: expected one \"too wide\" error at line 3, got:\n%s", t.Name(), s)
	}
}

func TestGetInt64_Masking(t *testing.T) {
	type testrow struct {
		Input    Value
		MaxBits  int
		Expected uint64
		Error    bool
	}

	data := []testrow{
		testrow{NewInt(1, 0xff), 8, 0xff, false},
		testrow{NewInt(1, 0x100), 8, 0, true},
		testrow{NewInt(1, 0x1ff), 1, 1, true},
		testrow{NewInt(1, 0x7fffffffffffffff), 63, 0x7fffffffffffffff, false},
		testrow{NewInt(1, -1), 63, 0x7fffffffffffffff, true},
		testrow{NewInt(1, -1), 64, 0xffffffffffffffff, false},
		testrow{NewInt(1, 12345), 0, 12345, false},
		testrow{NewBigInt(1, []uint64{0xffffffffffffffff}), 64, 0xffffffffffffffff, false},
		testrow{NewBigInt(1, []uint64{0x5, 0}), 8, 5, false},
		testrow{NewBigInt(1, []uint64{0x5, 1}), 8, 5, true},
		testrow{NewBigInt(1, []uint64{0x5, 1}), 64, 5, true},
		testrow{NewStr(1, "x"), 8, 0, true},
	}

	for i, row := range data {
		s := diag.NewSink("", nil)
		restore := diag.Use(s)
		actual := GetInt64(row.Input, row.MaxBits, "value too large")
		restore()
		if actual != row.Expected {
			t.Errorf("%s/%03d: %s: expected %#x, got %#x", t.Name(), i, row.Input, row.Expected, actual)
		}
		if s.Failed() != row.Error {
			t.Errorf("%s/%03d: %s: expected error=%v, got:\n%s", t.Name(), i, row.Input, row.Error, s)
		}
	}
}

func TestGetInt64_TooWide(t *testing.T) {
	defer func() {
		if _, ok := recover().(*diag.BugError); !ok {
			t.Errorf("%s: expected a *diag.BugError panic", t.Name())
		}
	}()
	GetInt64(NewInt(1, 1), 65, "")
}

func TestGetBitvec(t *testing.T) {
	big := NewBigInt(7, []uint64{0xabcd, 0x1})

	s := withSink(t)
	got := GetBitvec(big, 8, "")
	if got.Uint64() != 0xcd || got.Max() != 7 {
		t.Errorf("%s: expected 0xcd, got %s", t.Name(), got)
	}
	if s.Errors != 0 {
		t.Errorf("%s: unexpected diagnostics:\n%s", t.Name(), s)
	}

	got = GetBitvec(big, 12, "too wide")
	if got.Uint64() != 0xbcd || got.Max() != 11 {
		t.Errorf("%s: expected 0xbcd, got %s", t.Name(), got)
	}
	if s.Errors != 1 {
		t.Errorf("%s: expected one error, got:\n%s", t.Name(), s)
	}

	got = GetBitvec(big, 0, "")
	if got.Words()[1] != 1 || got.Words()[0] != 0xabcd {
		t.Errorf("%s: expected full value, got %s", t.Name(), got)
	}
}

func TestGetBool(t *testing.T) {
	type testrow struct {
		Input    Value
		Expected bool
		Error    bool
	}

	data := []testrow{
		testrow{NewStr(1, "true"), true, false},
		testrow{NewStr(1, "false"), false, false},
		testrow{NewInt(1, 0), false, false},
		testrow{NewInt(1, 3), true, false},
		testrow{NewStr(1, "maybe"), false, true},
		testrow{NewVec(1), false, true},
	}

	for i, row := range data {
		s := diag.NewSink("", nil)
		restore := diag.Use(s)
		actual := GetBool(row.Input)
		restore()
		if actual != row.Expected || s.Failed() != row.Error {
			t.Errorf("%s/%03d: %s: expected %v/%v, got %v/%v", t.Name(), i, row.Input, row.Expected, row.Error, actual, s.Failed())
		}
	}
}

func pairs(line int, kv ...interface{}) []Pair {
	var out []Pair
	for i := 0; i < len(kv); i += 2 {
		out = append(out, Pair{Key: NewStr(line, kv[i].(string)), Value: NewInt(line, int64(kv[i+1].(int)))})
	}
	return out
}

func TestCollapseListOfMaps(t *testing.T) {
	v := NewVec(1,
		NewMap(1, pairs(1, "a", 1, "b", 2)...),
		NewMap(2, pairs(2, "c", 3)...),
		NewMap(3, pairs(3, "d", 4, "e", 5, "a", 6)...))
	v.CollapseListOfMaps(false)
	if v.Type != TMap || v.String() != "{a: 1, b: 2, c: 3, d: 4, e: 5, a: 6}" {
		t.Errorf("%s: wrong result:\n%s", t.Name(), spew.Sdump(v))
	}

	type testrow struct {
		Input     Value
		Singleton bool
	}

	unchanged := []testrow{
		testrow{NewVec(1, NewMap(1, pairs(1, "a", 1)...), NewInt(1, 2)), false},
		testrow{NewVec(1, NewMap(1, pairs(1, "a", 1, "b", 2)...)), true},
		testrow{NewVec(1), false},
		testrow{NewInt(1, 2), false},
	}

	for i, row := range unchanged {
		before := row.Input.String()
		row.Input.CollapseListOfMaps(row.Singleton)
		if after := row.Input.String(); after != before {
			t.Errorf("%s/%03d: expected %s unchanged, got %s", t.Name(), i, before, after)
		}
	}

	single := NewVec(1, NewMap(1, pairs(1, "a", 1)...), NewMap(2, pairs(2, "b", 2)...))
	single.CollapseListOfMaps(true)
	if single.String() != "{a: 1, b: 2}" {
		t.Errorf("%s: expected singleton collapse, got %s", t.Name(), single)
	}
}

func TestMapIterChecked(t *testing.T) {
	m := []Pair{
		Pair{NewStr(1, "a"), NewInt(1, 1)},
		Pair{NewStr(2, "b"), NewInt(2, 2)},
		Pair{NewStr(3, "a"), NewInt(3, 3)},
		Pair{NewInt(4, 9), NewInt(4, 4)},
	}

	keys := func(ps []*Pair) string {
		var parts []string
		for _, p := range ps {
			parts = append(parts, p.Key.String()+"="+p.Value.String())
		}
		return strings.Join(parts, " ")
	}

	s := withSink(t)
	got := MapIterChecked{Map: m}.Pairs()
	if keys(got) != "a=1 b=2" {
		t.Errorf("%s: expected a=1 b=2, got %s", t.Name(), keys(got))
	}
	expected := dedent.Dedent(`
		3: error: Duplicate element a
		1: note: previous element a defined here
		4: error: Syntax error, expecting identifier
	`)[1:]
	if actual := s.String(); actual != expected {
		t.Errorf("%s: wrong diagnostics:\n%s", t.Name(), diff(expected, actual))
	}

	s2 := withSink(t)
	got = MapIterChecked{Map: m, AllowNonString: true, Duplicates: map[string]bool{"a": true}}.Pairs()
	if keys(got) != "a=1 b=2 a=3 9=4" {
		t.Errorf("%s: expected every entry, got %s", t.Name(), keys(got))
	}
	if s2.Errors != 0 {
		t.Errorf("%s: unexpected diagnostics:\n%s", t.Name(), s2)
	}
}

func TestEqual(t *testing.T) {
	type testrow struct {
		A, B     Value
		Expected bool
	}

	mapAB := NewMap(1, pairs(1, "a", 1, "b", 2)...)
	mapBA := NewMap(1, pairs(1, "b", 2, "a", 1)...)

	data := []testrow{
		testrow{NewInt(1, 7), NewBigInt(2, []uint64{7}), true},
		testrow{NewBigInt(2, []uint64{7, 0}), NewInt(1, 7), true},
		testrow{NewInt(1, 7), NewBigInt(2, []uint64{7, 1}), false},
		testrow{NewBigInt(1, []uint64{7, 1}), NewBigInt(2, []uint64{7, 1, 0}), true},
		testrow{NewInt(1, 7), NewInt(9, 7), true},
		testrow{NewInt(1, 7), NewStr(1, "7"), false},
		testrow{NewRange(1, 0, 3), NewRange(1, 0, 3), true},
		testrow{NewRange(1, 0, 3), NewRange(1, 0, 4), false},
		testrow{mapAB, mapAB, true},
		testrow{mapAB, mapBA, false},
		testrow{NewVec(1, NewInt(1, 1)), NewCmd(1, "x"), false},
		testrow{NewCmd(1, "x", NewInt(1, 1)), NewCmd(5, "x", NewBigInt(5, []uint64{1})), true},
	}

	for i, row := range data {
		if actual := row.A.Equal(row.B); actual != row.Expected {
			t.Errorf("%s/%03d: %s == %s: expected %v, got %v", t.Name(), i, row.A, row.B, row.Expected, actual)
		}
	}
}

func TestToJSON(t *testing.T) {
	input := dedent.Dedent(`
		name: t1
		size: 1024
		on: true
		gone: null
		bits: 0..31
		key: 0x5*
		big: 0x1_0000_0000_0000_0000
		list: [1, "two", set(a, 3)]
	`)
	v, err := ParseString("json.bfa", input)
	if err != nil {
		t.Fatalf("%s: %v", t.Name(), err)
	}

	expected := dedent.Dedent(`
		{
		  "name": "t1",
		  "size": 1024,
		  "on": true,
		  "gone": null,
		  "bits": "0..31",
		  "key": "0x5*",
		  "big": "0x10000000000000000",
		  "list": [
		    1,
		    "two",
		    [
		      "set",
		      "a",
		      3
		    ]
		  ]
		}
	`)[1:]
	var buf bytes.Buffer
	ctxjson.Print(&buf, ToJSON(v))
	if actual := buf.String(); actual != expected {
		t.Errorf("%s: wrong output:\n%s", t.Name(), diff(expected, actual))
	}
}
