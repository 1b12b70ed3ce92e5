package value

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/renstrom/dedent"
)

func TestParse_Shapes(t *testing.T) {
	type testrow struct {
		Input    string
		Expected string
	}

	data := []testrow{
		testrow{"a: 1\nb: 2", "{a: 1, b: 2}"},
		testrow{"a: 1, b: 2,", "{a: 1, b: 2}"},
		testrow{"a: { b: [ 1,\n 2 ] }", "{a: {b: [1, 2]}}"},
		testrow{"stage 0 ingress: {}", "{stage(0, ingress): {}}"},
		testrow{"x: f(g(1), 0b1*)", "{x: f(g(1), 0b1*)}"},
		testrow{"# comment\nk: v # trailing\n", "{k: v}"},
		testrow{"k: -5", "{k: -5}"},
		testrow{`s: "hello world"`, `{s: "hello world"}`},
		testrow{"h: { 0: { hash: 1 } }", "{h: {0: {hash: 1}}}"},
		testrow{"a1(0, 0): [ set(meta.x, 1) ]", "{a1(0, 0): [set(meta.x, 1)]}"},
		testrow{"r: 0..0", "{r: 0..0}"},
		testrow{"e: []\nm: {}", "{e: [], m: {}}"},
		testrow{"", "{}"},
	}

	for i, row := range data {
		v, err := ParseString("shapes.bfa", row.Input)
		if err != nil {
			t.Errorf("%s/%03d: %q: unexpected error: %v", t.Name(), i, row.Input, err)
			continue
		}
		if actual := v.String(); actual != row.Expected {
			t.Errorf("%s/%03d: %q: expected %s, got %s\n%s", t.Name(), i, row.Input, row.Expected, actual, spew.Sdump(v))
		}
	}
}

func TestParse_Literals(t *testing.T) {
	v, err := ParseString("lit.bfa", dedent.Dedent(`
		small: 0x2A
		wide: 0x1_0000_0000_0000_0001
		pat: 0b10_1*
		bigpat: 0x1000000000000000*
	`))
	if err != nil {
		t.Fatalf("%s: %v", t.Name(), err)
	}

	type testrow struct {
		Key  string
		Type Type
		Line int
	}

	data := []testrow{
		testrow{"small", TInt, 2},
		testrow{"wide", TBigInt, 3},
		testrow{"pat", TMatch, 4},
		testrow{"bigpat", TBigMatch, 5},
	}

	for i, row := range data {
		el := v.Get(row.Key)
		if el == nil {
			t.Errorf("%s/%03d: missing %s", t.Name(), i, row.Key)
			continue
		}
		if el.Type != row.Type || el.Line != row.Line {
			t.Errorf("%s/%03d: %s: expected %v at %d, got:\n%s", t.Name(), i, row.Key, row.Type, row.Line, spew.Sdump(el))
		}
	}

	if GetInt64(*v.Get("small"), 0, "") != 42 {
		t.Errorf("%s: small: expected 42, got %s", t.Name(), v.Get("small"))
	}
	if w := v.Get("wide").Big; len(w) != 2 || w[0] != 1 || w[1] != 1 {
		t.Errorf("%s: wide: wrong words %#v", t.Name(), w)
	}
	if m := v.Get("pat").M; !m.Matches(0xa) || !m.Matches(0xb) || m.Matches(0x9) {
		t.Errorf("%s: pat: wrong pattern %s", t.Name(), m)
	}
	if bm := v.Get("bigpat").BigM; len(bm) != 2 || bm[1].Ones() != 1 {
		t.Errorf("%s: bigpat: wrong chunks %s", t.Name(), spew.Sdump(bm))
	}
}

func TestParse_Errors(t *testing.T) {
	type testrow struct {
		Input string
		Line  int
	}

	data := []testrow{
		testrow{"a 1", 1},
		testrow{"a: [1 2]", 1},
		testrow{"a: 5..2", 1},
		testrow{"a: {\n b: 1\n", 3},
		testrow{"a: \"x", 1},
		testrow{"a: 1\nb: @", 2},
		testrow{"a: f(1 2)", 1},
		testrow{"}", 1},
		testrow{"1 x: 2", 1},
	}

	for i, row := range data {
		_, err := ParseString("bad.bfa", row.Input)
		serr, ok := err.(*SyntaxError)
		if !ok {
			t.Errorf("%s/%03d: %q: expected *SyntaxError, got %v", t.Name(), i, row.Input, err)
			continue
		}
		if serr.Line != row.Line || serr.File != "bad.bfa" {
			t.Errorf("%s/%03d: %q: expected bad.bfa:%d, got %v", t.Name(), i, row.Input, row.Line, serr)
		}
	}
}
