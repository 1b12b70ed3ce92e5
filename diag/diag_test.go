package diag

import (
	"bytes"
	"testing"
)

func TestSink_Report(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink("prog.bfa", &buf)
	restore := Use(s)
	Errorf(3, "bad %s", "thing")
	Warnf(4, "odd")
	Notef(1, "first here")
	restore()

	if s.Errors != 1 || s.Warnings != 1 || len(s.List) != 3 {
		t.Errorf("%s: wrong counts: errors=%d warnings=%d list=%d", t.Name(), s.Errors, s.Warnings, len(s.List))
	}
	expected := "prog.bfa:3: error: bad thing\nprog.bfa:4: warning: odd\nprog.bfa:1: note: first here\n"
	if actual := buf.String(); actual != expected {
		t.Errorf("%s: expected %q, got %q", t.Name(), expected, actual)
	}
	if Current() == s {
		t.Errorf("%s: restore did not reinstall the previous sink", t.Name())
	}
	if !s.Failed() {
		t.Errorf("%s: expected Failed", t.Name())
	}
}

func TestBug(t *testing.T) {
	defer func() {
		r := recover()
		e, ok := r.(*BugError)
		if !ok {
			t.Fatalf("%s: expected *BugError, got %T", t.Name(), r)
		}
		if e.Error() != "BUG: broken 7" {
			t.Errorf("%s: wrong message %q", t.Name(), e.Error())
		}
	}()
	Bug("broken %d", 7)
}
