package mau

import (
	"regexp"
	"strings"
	"testing"

	"github.com/renstrom/dedent"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/p4lang/p4c-sub024/diag"
	"github.com/p4lang/p4c-sub024/target"
	"github.com/p4lang/p4c-sub024/value"
)

var reNL = regexp.MustCompile(`(?m)^`)

func diff(l, r string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(l, r, false)
	pretty := dmp.DiffPrettyText(diffs)
	return reNL.ReplaceAllLiteralString(pretty, "\t")
}

// build loads text into a new pipeline for tp without compiling it. The
// text is dedented first, so its first line is an empty line 1.
func build(t *testing.T, tp *target.Params, text string) (*Pipeline, *diag.Sink) {
	t.Helper()
	s := diag.NewSink("test.bfa", nil)
	t.Cleanup(diag.Use(s))
	v, err := value.ParseString("test.bfa", dedent.Dedent(text))
	if err != nil {
		t.Fatalf("%s: %v", t.Name(), err)
	}
	p := New("test", tp)
	p.Load(v)
	return p, s
}

// compile is build followed by Compile.
func compile(t *testing.T, tp *target.Params, text string) (*Pipeline, *diag.Sink) {
	t.Helper()
	p, s := build(t, tp, text)
	p.Compile()
	return p, s
}

// diagText renders expected diagnostics the way Sink.String does.
func diagText(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// expectBug runs f and reports whether it panicked with a *diag.BugError.
func expectBug(f func()) (bug *diag.BugError) {
	defer func() {
		if r := recover(); r != nil {
			bug, _ = r.(*diag.BugError)
		}
	}()
	f()
	return nil
}
