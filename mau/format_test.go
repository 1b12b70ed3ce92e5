package mau

import (
	"bytes"
	"testing"

	"github.com/p4lang/p4c-sub024/target"
)

func TestField_Bit(t *testing.T) {
	f := &Field{Name: "f", Size: 8, Bits: []BitRange{{0, 3}, {8, 11}}}

	type testrow struct {
		Input    int
		Expected int
	}

	data := []testrow{
		{0, 0},
		{3, 3},
		{4, 8},
		{7, 11},
	}

	for i, row := range data {
		if actual := f.Bit(row.Input); actual != row.Expected {
			t.Errorf("%s/%03d: Bit(%d): expected %d, got %d", t.Name(), i, row.Input, row.Expected, actual)
		}
	}

	if bug := expectBug(func() { f.Bit(8) }); bug == nil {
		t.Errorf("%s: expected Bit(8) to panic with a BUG", t.Name())
	}
	if f.Lo() != 0 || f.Hi() != 11 {
		t.Errorf("%s: expected 0..11, got %d..%d", t.Name(), f.Lo(), f.Hi())
	}
}

func TestFormat_Sizes(t *testing.T) {
	type testrow struct {
		Format       string
		Size         int
		Log2Size     int
		Wide         bool
		Entries      int
		MemUnits     int
		WordWidth    int
		PaddingWidth int
	}

	data := []testrow{
		{"{ valid: 0..0 }", 1, 0, false, 128, 1, 128, 1},
		{"{ match: 0..29, action: 30..32 }", 33, 6, false, 2, 1, 128, 64},
		{"{ match: 0..63 }", 64, 6, false, 2, 1, 128, 64},
		{"{ match: 0..99 }", 100, 7, true, 1, 1, 128, 128},
		{"{ match: 0..199 }", 200, 8, true, 1, 2, 256, 256},
		{"{ match(0): 0..9, match(1): 10..19 }", 20, 5, true, 2, 1, 128, 128},
	}

	for i, row := range data {
		p, s := compile(t, target.Tofino, `
			stage 0 ingress: {
			  hash_action h1: { format: `+row.Format+` }
			}
		`)
		if s.String() != "" {
			t.Errorf("%s/%03d: %s: unexpected diagnostics:\n%s", t.Name(), i, row.Format, s)
			continue
		}
		f := p.Table("h1").tableBase().format
		if f.Size != row.Size || f.Log2Size != row.Log2Size {
			t.Errorf("%s/%03d: %s: expected size %d (log2 %d), got %d (log2 %d)", t.Name(), i, row.Format, row.Size, row.Log2Size, f.Size, f.Log2Size)
		}
		if actual := f.IsWideFormat(); actual != row.Wide {
			t.Errorf("%s/%03d: %s: IsWideFormat: expected %v, got %v", t.Name(), i, row.Format, row.Wide, actual)
		}
		if actual := f.EntriesPerTableWord(); actual != row.Entries {
			t.Errorf("%s/%03d: %s: EntriesPerTableWord: expected %d, got %d", t.Name(), i, row.Format, row.Entries, actual)
		}
		if actual := f.MemUnitsPerTableWord(); actual != row.MemUnits {
			t.Errorf("%s/%03d: %s: MemUnitsPerTableWord: expected %d, got %d", t.Name(), i, row.Format, row.MemUnits, actual)
		}
		if actual := f.TableWordWidth(); actual != row.WordWidth {
			t.Errorf("%s/%03d: %s: TableWordWidth: expected %d, got %d", t.Name(), i, row.Format, row.WordWidth, actual)
		}
		if actual := f.PaddingFormatWidth(); actual != row.PaddingWidth {
			t.Errorf("%s/%03d: %s: PaddingFormatWidth: expected %d, got %d", t.Name(), i, row.Format, row.PaddingWidth, actual)
		}
	}
}

func TestFormat_Asm(t *testing.T) {
	type testrow struct {
		Format   string
		Expected string
	}

	data := []testrow{
		{"{ match: 10, action: 3 }", "format: { match: 0..9, action: 10..12 }\n"},
		{"{ immediate: 4..11, action: 2 }", "format: { immediate: 4..11, action: 12..13 }\n"},
		{"{ match: [ 0..3, 8..11 ] }", "format: { match: [0..3, 8..11] }\n"},
		{"{ match(0): 0..9, match(1): 10..19 }", "format: { match(0): 0..9, match(1): 10..19 }\n"},
	}

	for i, row := range data {
		p, s := compile(t, target.Tofino, `
			stage 0 ingress: {
			  hash_action h1: { format: `+row.Format+` }
			}
		`)
		if s.String() != "" {
			t.Errorf("%s/%03d: %s: unexpected diagnostics:\n%s", t.Name(), i, row.Format, s)
			continue
		}
		var buf bytes.Buffer
		aw := newAsmWriter(&buf)
		p.Table("h1").tableBase().format.writeAsm(aw)
		if _, err := aw.finish(); err != nil {
			t.Errorf("%s/%03d: %s: unexpected error: %v", t.Name(), i, row.Format, err)
			continue
		}
		if actual := buf.String(); actual != row.Expected {
			t.Errorf("%s/%03d: %s: wrong output\n%s", t.Name(), i, row.Format, diff(row.Expected, actual))
		}
	}
}

func TestFormat_Errors(t *testing.T) {
	type testrow struct {
		Format   string
		Expected string
	}

	data := []testrow{
		{"{ match: 0..9, action: 8..10 }", diagText("3: error: Field action overlaps field match in format group 0")},
		{"{ match: 0 }", diagText("3: error: Invalid size 0 for field match")},
		{"{ match(64): 0..3 }", diagText("3: error: Invalid format group 64")},
		{"{ match: foo }", diagText("3: error: Syntax error, expecting size or bit ranges for field match")},
	}

	for i, row := range data {
		_, s := compile(t, target.Tofino, `
			stage 0 ingress: {
			  hash_action h1: { format: `+row.Format+` }
			}
		`)
		if actual := s.String(); actual != row.Expected {
			t.Errorf("%s/%03d: %s: wrong diagnostics\n%s", t.Name(), i, row.Format, diff(row.Expected, actual))
		}
	}
}

func TestFormatName(t *testing.T) {
	type testrow struct {
		Input    string
		Expected string
	}

	data := []testrow{
		{"action", "action"},
		{"immediate", "immediate"},
		{"meter_addr", "meter_addr"},
		{"sel_len_shift", "sel_len_shift"},
		{"ipv4.dst", "match"},
	}

	for i, row := range data {
		if actual := FormatName(row.Input); actual != row.Expected {
			t.Errorf("%s/%03d: %q: expected %q, got %q", t.Name(), i, row.Input, row.Expected, actual)
		}
	}
}
