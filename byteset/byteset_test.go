package byteset

import (
	"regexp"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type matchRow struct {
	Input    byte
	Expected bool
}

func bytesAsRunes(in []byte) []rune {
	out := make([]rune, len(in))
	for i, b := range in {
		out[i] = rune(b)
	}
	return out
}

func runByteMatchTests(t *testing.T, m Matcher, data []matchRow) {
	t.Helper()
	for i, row := range data {
		actual := m.Match(row.Input)
		if row.Expected != actual {
			t.Errorf("%s/%03d: %q: expected %v, got %v", t.Name(), i, row.Input, row.Expected, actual)
		}
	}
}

func runForEachTests(t *testing.T, m Matcher, expected []byte) {
	t.Helper()
	actual := make([]byte, 0, len(expected))
	m.ForEach(func(b byte) {
		actual = append(actual, b)
	})
	if string(actual) == string(expected) {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(bytesAsRunes(expected), bytesAsRunes(actual), false)
	pretty := dmp.DiffPrettyText(diffs)
	nl := regexp.MustCompile(`(?m)^`)
	pretty = nl.ReplaceAllLiteralString(pretty, "\t")
	t.Errorf("%s: wrong output:\n%s", t.Name(), pretty)
}

func TestSet(t *testing.T) {
	m := Set("_$.")
	runByteMatchTests(t, m, []matchRow{
		matchRow{'_', true},
		matchRow{'$', true},
		matchRow{'.', true},
		matchRow{'a', false},
		matchRow{0, false},
		matchRow{0xff, false},
	})
	runForEachTests(t, m, []byte("$._"))
}

func TestRanges(t *testing.T) {
	m := Ranges(Range{'a', 'f'}, Range{'0', '9'}, Range{'z', 'a'})
	runByteMatchTests(t, m, []matchRow{
		matchRow{'a', true},
		matchRow{'f', true},
		matchRow{'g', false},
		matchRow{'5', true},
		matchRow{'z', false},
	})
	runForEachTests(t, m, []byte("0123456789abcdef"))
}

func TestOrNot(t *testing.T) {
	m := Or(Ranges(Range{'a', 'c'}), Set("x"))
	runForEachTests(t, m, []byte("abcx"))

	n := Not(m)
	runByteMatchTests(t, n, []matchRow{
		matchRow{'a', false},
		matchRow{'x', false},
		matchRow{'d', true},
		matchRow{0xff, true},
	})
}

func TestString(t *testing.T) {
	type testrow struct {
		Input    Matcher
		Expected string
	}

	data := []testrow{
		testrow{Ranges(Range{'0', '9'}, Range{'a', 'f'}), "[0-9a-f]"},
		testrow{Set("ab_"), "[_ab]"},
		testrow{Set("-]"), `[\-\]]`},
		testrow{Set("\n"), `[\x0a]`},
		testrow{Set(""), "[]"},
	}

	for i, row := range data {
		actual := row.Input.String()
		if actual != row.Expected {
			t.Errorf("%s/%03d: expected %q, got %q", t.Name(), i, row.Expected, actual)
		}
	}
}

func TestSpan(t *testing.T) {
	ident := Or(Ranges(Range{'a', 'z'}, Range{'0', '9'}), Set("_."))
	type testrow struct {
		Input    string
		Expected int
	}

	data := []testrow{
		testrow{"hdr.ipv4.dst(0..31)", 12},
		testrow{"t1: {", 2},
		testrow{"", 0},
		testrow{"abc", 3},
	}

	for i, row := range data {
		actual := Span(ident, []byte(row.Input))
		if actual != row.Expected {
			t.Errorf("%s/%03d: %q: expected %d, got %d", t.Name(), i, row.Input, row.Expected, actual)
		}
	}
}
