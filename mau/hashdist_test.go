package mau

import (
	"testing"

	"github.com/p4lang/p4c-sub024/target"
)

func TestXbarUse_String(t *testing.T) {
	type testrow struct {
		Input    XbarUse
		Expected string
	}

	data := []testrow{
		{0, "nothing"},
		{ImmediateLow, "immed lo"},
		{ImmediateHigh | MeterAddress, "immed hi and meter addr"},
		{ImmediateHigh | MeterAddress | StatisticsAddress, "immed hi, meter addr and stats addr"},
		{HashmodDividend | ActionDataAddress, "action addr and hashmod-div"},
		{0x40, "0x40"},
		{ImmediateHigh | 0x80, "immed hi and 0x80"},
	}

	for i, row := range data {
		if actual := row.Input.String(); actual != row.Expected {
			t.Errorf("%s/%03d: %#x: expected %q, got %q", t.Name(), i, uint8(row.Input), row.Expected, actual)
		}
	}
}

func TestHashDistribution_Compatible(t *testing.T) {
	baseline := func() *HashDistribution {
		return &HashDistribution{ID: 3, HashGroup: 1, Shift: 2, Mask: 0xffff, Expand: -1}
	}

	type testrow struct {
		Name     string
		Left     func(hd *HashDistribution)
		Right    func(hd *HashDistribution)
		Expected bool
	}

	same := func(hd *HashDistribution) {}

	data := []testrow{
		{"identical", same, same, true},
		{"hash group", func(hd *HashDistribution) { hd.HashGroup = 2 }, same, false},
		{"id", func(hd *HashDistribution) { hd.ID = 4 }, same, false},
		{"shift", func(hd *HashDistribution) { hd.Shift = 5 }, same, false},
		{"expand", func(hd *HashDistribution) { hd.Expand = 0 }, same, false},
		{"delay type", func(hd *HashDistribution) { hd.DelayType = DelaySelector }, same, false},
		{"non linear", func(hd *HashDistribution) { hd.NonLinear = true }, same, false},
		{"outputs", func(hd *HashDistribution) { hd.XbarUse = ImmediateLow }, func(hd *HashDistribution) { hd.XbarUse = MeterAddress }, true},
		{"mask", func(hd *HashDistribution) { hd.Mask = 0xff }, same, true},
		{"pre_color narrower", func(hd *HashDistribution) { hd.MeterPreColor = true; hd.Mask = 0xff }, same, true},
		{"pre_color wider", func(hd *HashDistribution) { hd.MeterPreColor = true }, func(hd *HashDistribution) { hd.Mask = 0xff }, false},
		{"pre_color on the right", same, func(hd *HashDistribution) { hd.MeterPreColor = true; hd.Mask = 0x1ffff }, false},
		{"pre_color on both", func(hd *HashDistribution) { hd.MeterPreColor = true; hd.Mask = 0xff }, func(hd *HashDistribution) { hd.MeterPreColor = true }, true},
	}

	for i, row := range data {
		l, r := baseline(), baseline()
		row.Left(l)
		row.Right(r)
		if actual := l.Compatible(r); actual != row.Expected {
			t.Errorf("%s/%03d: %s: expected %v, got %v", t.Name(), i, row.Name, row.Expected, actual)
		}
		if actual := r.Compatible(l); actual != row.Expected {
			t.Errorf("%s/%03d: %s: reversed: expected %v, got %v", t.Name(), i, row.Name, row.Expected, actual)
		}
	}
}

func TestHashDist_IncompatibleShift(t *testing.T) {
	p, s := compile(t, target.Tofino, `
		stage 0 ingress: {
		  hash_action h1: {
		    hash_dist: { 3: { hash: 1, shift: 2, output: lo } }
		  }
		  hash_action h2: {
		    hash_dist: { 3: { hash: 1, shift: 5, output: lo } }
		  }
		}
	`)

	expected := diagText(
		"7: error: Incompatible use of hash_dist 3 in table h2",
		"4: note: previous use in table h1",
	)
	if actual := s.String(); actual != expected {
		t.Errorf("%s: wrong diagnostics\n%s", t.Name(), diff(expected, actual))
	}

	uses := p.Stage(0).HashDistUse(3)
	if len(uses) != 1 || uses[0].tbl.Name() != "h1" {
		t.Errorf("%s: expected only h1 registered on unit 3, got %d uses", t.Name(), len(uses))
	}
}

func TestHashDist_SharedUnit(t *testing.T) {
	p, s := compile(t, target.Tofino, `
		stage 0 ingress: {
		  hash_action h1: {
		    hash_dist: { 3: { hash: 1, shift: 2, mask: 0xff, output: lo } }
		  }
		  hash_action h2: {
		    hash_dist: { 3: { hash: 1, shift: 2, output: meter } }
		  }
		}
	`)
	if s.String() != "" {
		t.Errorf("%s: unexpected diagnostics:\n%s", t.Name(), s)
	}
	if uses := p.Stage(0).HashDistUse(3); len(uses) != 2 {
		t.Errorf("%s: expected 2 uses of unit 3, got %d", t.Name(), len(uses))
	}
}

func TestHashDist_Errors(t *testing.T) {
	type testrow struct {
		Input    string
		Expected string
	}

	data := []testrow{
		{
			Input: `
				stage 0 ingress: {
				  hash_action h1: {
				    hash_dist: {
				      0: { output: lo }
				      1: { output: [ lo, meter ] }
				    }
				  }
				}
			`,
			Expected: diagText(
				"6: error: hash_dist 0 and 1 in table h1 both output immed lo",
			),
		},
		{
			Input: `
				stage 0 ingress: {
				  hash_action h1: {
				    hash_dist: {
				      0: { output: lo }
				      0: { output: hi }
				    }
				  }
				}
			`,
			Expected: diagText(
				"6: error: Duplicate hash_dist 0 in table h1",
				"5: note: previous definition",
			),
		},
		{
			Input: `
				stage 0 ingress: {
				  hash_action h1: {
				    hash_dist: { 2: { expand: 0 } }
				  }
				}
			`,
			Expected: diagText(
				"4: error: hash_dist unit 2 cannot be expanded",
			),
		},
		{
			Input: `
				stage 0 ingress: {
				  hash_action h1: {
				    hash_dist: { 4: { expand: 0 } }
				  }
				}
			`,
			Expected: diagText(
				"4: error: hash_dist unit 4 can only expand from bit 7",
			),
		},
		{
			Input: `
				stage 0 ingress: {
				  hash_action h1: {
				    hash_dist: { 9: { output: lo } }
				  }
				}
			`,
			Expected: diagText(
				"4: error: Invalid hash_dist unit 9",
			),
		},
		{
			Input: `
				stage 0 ingress: {
				  hash_action h1: {
				    hash_dist: { 0: { output: middle } }
				  }
				}
			`,
			Expected: diagText(
				"4: error: Unrecognized hash_dist output middle",
			),
		},
		{
			Input: `
				stage 0 ingress: {
				  hash_action h1: {
				    hash_dist: { 0: { hash: 8, output: lo } }
				  }
				}
			`,
			Expected: diagText(
				"4: error: Invalid hash group",
			),
		},
		{
			Input: `
				stage 0 ingress: {
				  hash_action h1: {
				    hash_dist: { 0: { hash: 1, colour: red } }
				  }
				}
			`,
			Expected: diagText(
				"4: warning: ignoring unknown item colour in hash_dist",
			),
		},
		{
			Input: `
				stage 0 ingress: {
				  hash_action h1: {
				    hash_dist: { 0: { hash: 1 } }
				  }
				  hash_action h2: {
				    hash_dist: { 0: { hash: 2 } }
				  }
				}
			`,
			Expected: diagText(
				"7: error: Incompatible use of hash_dist 0 in table h2",
				"4: note: previous use in table h1",
				"7: error: hash_dist units 0 and 0 use different hash groups (2 and 1)",
				"4: note: previous use in table h1",
			),
		},
	}

	for i, row := range data {
		_, s := compile(t, target.Tofino, row.Input)
		if actual := s.String(); actual != row.Expected {
			t.Errorf("%s/%03d: wrong diagnostics\n%s", t.Name(), i, diff(row.Expected, actual))
		}
	}
}

func TestHashDist_Expand(t *testing.T) {
	p, s := compile(t, target.Tofino, `
		stage 0 ingress: {
		  hash_action h1: {
		    hash_dist: { 0: { hash: 1, expand: 0, output: lo } }
		  }
		  hash_action h2: {
		    hash_dist: { 1: { hash: 1, expand: 7, output: lo } }
		  }
		}
	`)
	if s.String() != "" {
		t.Fatalf("%s: unexpected diagnostics:\n%s", t.Name(), s)
	}

	r := NewRegisters()
	p.WriteRegs(r)

	type testrow struct {
		Name     string
		Expected uint64
	}

	data := []testrow{
		{"mau[0].hash_dist[0].expand", 0},
		{"mau[0].hash_dist[1].expand", 7},
		{"mau[0].hash_dist[0].enable", 1},
		{"mau[0].hash_dist[1].enable", 1},
		{"mau[0].hash_dist[1].hash_group", 1},
		{"mau[0].hash_dist[0].mask", 0xffff},
		{"mau[0].hash_dist_xbar[1].immed_lo", 1},
	}

	for i, row := range data {
		actual, ok := r.Get(row.Name)
		if !ok {
			t.Errorf("%s/%03d: %s: not written", t.Name(), i, row.Name)
		} else if actual != row.Expected {
			t.Errorf("%s/%03d: %s: expected %#x, got %#x", t.Name(), i, row.Name, row.Expected, actual)
		}
	}
}

func TestHashDist_MeterPreColor(t *testing.T) {
	p, s := compile(t, target.Tofino, `
		stage 0 ingress: {
		  hash_action h1: {
		    hash_dist: { 2: { hash: 0, mask: 0xff, output: meter } }
		    meter: m1
		  }
		  hash_action h2: {
		    hash_dist: { 2: { hash: 0, output: lo } }
		  }
		  meter m1: {
		    pre_color: hash_dist(2, 3)
		  }
		}
	`)
	if s.String() != "" {
		t.Fatalf("%s: unexpected diagnostics:\n%s", t.Name(), s)
	}

	hd := p.Table("h1").tableBase().hashDistByID(2)
	if !hd.MeterPreColor || hd.MeterMaskIndex != 3 {
		t.Errorf("%s: expected pre_color with mask index 3, got %v %d", t.Name(), hd.MeterPreColor, hd.MeterMaskIndex)
	}

	r := NewRegisters()
	p.WriteRegs(r)
	if v, ok := r.Get("mau[0].meter_pre_color_hash_map[3]"); !ok || v != 2 {
		t.Errorf("%s: expected pre_color map 3 = 2, got %d (%v)", t.Name(), v, ok)
	}
}

func TestHashDist_MeterPreColorMissingUnit(t *testing.T) {
	_, s := compile(t, target.Tofino, `
		stage 0 ingress: {
		  hash_action h1: {
		    meter: m1
		  }
		  meter m1: {
		    pre_color: hash_dist(2, 0)
		  }
		}
	`)
	expected := diagText(
		"4: error: Meter m1 pre_color uses hash_dist 2, not in table h1",
	)
	if actual := s.String(); actual != expected {
		t.Errorf("%s: wrong diagnostics\n%s", t.Name(), diff(expected, actual))
	}
}

func TestHashDist_Selector(t *testing.T) {
	p, s := compile(t, target.Tofino, `
		stage 0 ingress: {
		  hash_action h1: {
		    hash_dist: { 4: { hash: 3, output: hashmod } }
		    selector: sel
		  }
		  selection sel: {
		    mode: resilient
		    non_linear: true
		    hash_dist: [ 4 ]
		  }
		}
	`)
	if s.String() != "" {
		t.Fatalf("%s: unexpected diagnostics:\n%s", t.Name(), s)
	}
	hd := p.Table("h1").tableBase().hashDistByID(4)
	if hd.DelayType != DelaySelector || !hd.NonLinear {
		t.Errorf("%s: expected selector delay and non_linear, got %s %v", t.Name(), hd.DelayType, hd.NonLinear)
	}
	sel := p.Table("sel").(*Selection)
	if callers := sel.Callers(); len(callers) != 1 || callers[0].Name() != "h1" {
		t.Errorf("%s: expected h1 as the only caller, got %d", t.Name(), len(callers))
	}
}
