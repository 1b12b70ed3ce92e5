package ctxjson

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/renstrom/dedent"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var reNL = regexp.MustCompile(`(?m)^`)

func diff(l, r string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(l, r, false)
	pretty := dmp.DiffPrettyText(diffs)
	return reNL.ReplaceAllLiteralString(pretty, "\t")
}

func TestMap_Merge(t *testing.T) {
	a := NewMap().
		Set("name", String("t1")).
		Set("handle", Number(0x01000001)).
		Set("stage_tables", Vector{NewMap().Set("stage_number", Number(0))}).
		Set("match_attributes", NewMap().Set("match_type", String("exact"))).
		Set("stale", Bool(true))
	b := NewMap().
		Set("stage_tables", Vector{NewMap().Set("stage_number", Number(1))}).
		Set("match_attributes", NewMap().Set("uses_dynamic_key_masks", Bool(false))).
		Set("stale", Null{}).
		Set("size", Number(1024)).
		Set("name", String("t1.renamed"))
	a.Merge(b)

	expected := dedent.Dedent(`
		{
		  "name": "t1.renamed",
		  "handle": 16777217,
		  "stage_tables": [
		    {
		      "stage_number": 0
		    },
		    {
		      "stage_number": 1
		    }
		  ],
		  "match_attributes": {
		    "match_type": "exact",
		    "uses_dynamic_key_masks": false
		  },
		  "size": 1024
		}`)[1:]
	actual := Text(a)
	if actual != expected {
		t.Errorf("%s: wrong output:\n%s", t.Name(), diff(expected, actual))
	}

	// the merged-in fragment is copied, not shared
	b.Get("match_attributes").(*Map).Set("match_type", String("ternary"))
	if a.Get("match_attributes").(*Map).Get("match_type").Equal(String("ternary")) {
		t.Errorf("%s: merge aliased the source fragment", t.Name())
	}
}

func TestParse(t *testing.T) {
	type testrow struct {
		Input    string
		Expected Obj
	}

	data := []testrow{
		testrow{`1`, Number(1)},
		testrow{`-17`, Number(-17)},
		testrow{`2.5`, Float(2.5)},
		testrow{`"a\"bA"`, String(`a"bA`)},
		testrow{` true `, Bool(true)},
		testrow{`null`, Null{}},
		testrow{`[]`, Vector{}},
		testrow{`[1, "x", [false]]`, Vector{Number(1), String("x"), Vector{Bool(false)}}},
		testrow{`{"b": 1, "a": {}}`, NewMap().Set("b", Number(1)).Set("a", NewMap())},
	}

	for i, row := range data {
		actual, err := ParseString(row.Input)
		if err != nil {
			t.Errorf("%s/%03d: %q: unexpected error: %v", t.Name(), i, row.Input, err)
			continue
		}
		if !actual.Equal(row.Expected) {
			t.Errorf("%s/%03d: %q: expected %s, got %s", t.Name(), i, row.Input, Text(row.Expected), Text(actual))
		}
	}
}

func TestParse_Errors(t *testing.T) {
	type testrow struct {
		Input string
		Line  int
	}

	data := []testrow{
		testrow{`{`, 1},
		testrow{"{\n\"a\": 1\n\"b\": 2}", 3},
		testrow{"[1,\n\n  nope]", 3},
		testrow{`"abc`, 1},
		testrow{`1 2`, 1},
	}

	for i, row := range data {
		_, err := ParseString(row.Input)
		serr, ok := err.(*SyntaxError)
		if !ok {
			t.Errorf("%s/%03d: %q: expected *SyntaxError, got %v", t.Name(), i, row.Input, err)
			continue
		}
		if serr.Line != row.Line {
			t.Errorf("%s/%03d: %q: expected line %d, got %d (%v)", t.Name(), i, row.Input, row.Line, serr.Line, serr)
		}
	}
}

func TestPrint_RoundTrip(t *testing.T) {
	src := NewMap().
		Set("tables", Vector{
			NewMap().Set("name", String("tab\t\"1\"")).Set("size", Number(16)),
		}).
		Set("empty", Vector{}).
		Set("ratio", Float(0.25))

	var buf bytes.Buffer
	if err := Print(&buf, src); err != nil {
		t.Fatalf("%s: %v", t.Name(), err)
	}
	back, err := Parse(&buf)
	if err != nil {
		t.Fatalf("%s: %v", t.Name(), err)
	}
	if !back.Equal(src) {
		t.Errorf("%s: wrong output:\n%s", t.Name(), diff(Text(src), Text(back)))
	}
}
