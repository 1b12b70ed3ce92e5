// Package diag collects user-facing diagnostics keyed by source line.
//
// Diagnostics never unwind the caller: the reporting code substitutes a
// default and keeps going, so that one run surfaces as many problems as
// possible. Internal invariant violations are a different matter and go
// through Bug, which panics.
//
package diag

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Severity classifies a Diagnostic.
type Severity uint8

const (
	Error Severity = iota
	Warning
	Note
)

var severityNames = []string{
	Error:   "error",
	Warning: "warning",
	Note:    "note",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// Diagnostic is a single reported message.
type Diagnostic struct {
	Severity Severity
	Line     int
	Msg      string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d: %s: %s", d.Line, d.Severity, d.Msg)
}

// Sink receives the diagnostics of one compilation run.
type Sink struct {
	// File names the source being processed; it prefixes rendered lines.
	File string

	// W receives rendered diagnostics as they are reported. May be nil.
	W io.Writer

	// List holds every diagnostic in report order.
	List []Diagnostic

	Errors   int
	Warnings int
}

// NewSink returns a Sink rendering to w.
func NewSink(file string, w io.Writer) *Sink {
	return &Sink{File: file, W: w}
}

// Report records a diagnostic.
func (s *Sink) Report(sev Severity, line int, format string, args ...interface{}) {
	d := Diagnostic{Severity: sev, Line: line, Msg: fmt.Sprintf(format, args...)}
	s.List = append(s.List, d)
	switch sev {
	case Error:
		s.Errors++
	case Warning:
		s.Warnings++
	}
	if s.W != nil {
		var buf bytes.Buffer
		if s.File != "" {
			buf.WriteString(s.File)
			buf.WriteByte(':')
		}
		fmt.Fprintf(&buf, "%d: %s: %s\n", line, sev, d.Msg)
		s.W.Write(buf.Bytes())
	}
}

func (s *Sink) Errorf(line int, format string, args ...interface{}) {
	s.Report(Error, line, format, args...)
}

func (s *Sink) Warnf(line int, format string, args ...interface{}) {
	s.Report(Warning, line, format, args...)
}

func (s *Sink) Notef(line int, format string, args ...interface{}) {
	s.Report(Note, line, format, args...)
}

// Failed reports whether any error has been recorded.
func (s *Sink) Failed() bool {
	return s.Errors > 0
}

// String returns every recorded diagnostic, one per line.
func (s *Sink) String() string {
	var buf bytes.Buffer
	for _, d := range s.List {
		buf.WriteString(d.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}

var current = NewSink("", os.Stderr)

// Current returns the sink diagnostics are reported to.
func Current() *Sink {
	return current
}

// Use makes s the current sink and returns a func restoring the previous one.
func Use(s *Sink) (restore func()) {
	prev := current
	current = s
	return func() { current = prev }
}

func Errorf(line int, format string, args ...interface{}) {
	current.Report(Error, line, format, args...)
}

func Warnf(line int, format string, args ...interface{}) {
	current.Report(Warning, line, format, args...)
}

func Notef(line int, format string, args ...interface{}) {
	current.Report(Note, line, format, args...)
}

// ErrorCount returns the number of errors reported to the current sink.
func ErrorCount() int {
	return current.Errors
}
