package bitvec

import (
	"testing"
)

func TestBitvec_Basics(t *testing.T) {
	type testrow struct {
		Input    *Bitvec
		Min      int
		Max      int
		Pop      int
		Expected string
	}

	data := []testrow{
		{&Bitvec{}, -1, -1, 0, "0x0"},
		{FromUint64(0x50), 4, 6, 2, "0x50"},
		{Range(4, 8), 4, 11, 8, "0xff0"},
		{FromWords([]uint64{1, 1}), 0, 64, 2, "0x10000000000000001"},
		{Range(60, 10), 60, 69, 10, "0x3ff000000000000000"},
	}

	for i, row := range data {
		if actual := row.Input.Min(); actual != row.Min {
			t.Errorf("%s/%03d: Min: expected %d, got %d", t.Name(), i, row.Min, actual)
		}
		if actual := row.Input.Max(); actual != row.Max {
			t.Errorf("%s/%03d: Max: expected %d, got %d", t.Name(), i, row.Max, actual)
		}
		if actual := row.Input.PopCount(); actual != row.Pop {
			t.Errorf("%s/%03d: PopCount: expected %d, got %d", t.Name(), i, row.Pop, actual)
		}
		if actual := row.Input.String(); actual != row.Expected {
			t.Errorf("%s/%03d: String: expected %q, got %q", t.Name(), i, row.Expected, actual)
		}
	}
}

func TestBitvec_Ranges(t *testing.T) {
	b := FromWords([]uint64{0xf0000000000000ff, 0x3})

	type testrow struct {
		Lo, N    int
		Expected uint64
	}

	data := []testrow{
		{0, 8, 0xff},
		{4, 8, 0x0f},
		{60, 6, 0x3f},
		{64, 64, 0x3},
		{0, 64, 0xf0000000000000ff},
		{100, 10, 0},
	}

	for i, row := range data {
		if actual := b.GetRange(row.Lo, row.N); actual != row.Expected {
			t.Errorf("%s/%03d: GetRange(%d, %d): expected %#x, got %#x", t.Name(), i, row.Lo, row.N, row.Expected, actual)
		}
	}

	c := b.Clone().PutRange(62, 4, 0x5)
	if actual := c.GetRange(60, 8); actual != 0x17 {
		t.Errorf("%s: PutRange: expected 0x17, got %#x", t.Name(), actual)
	}
	if actual := b.GetRange(60, 8); actual != 0x3f {
		t.Errorf("%s: Clone shares storage: got %#x", t.Name(), actual)
	}

	d := b.Clone().ClearFrom(8)
	if !d.Equal(FromUint64(0xff)) {
		t.Errorf("%s: ClearFrom: expected 0xff, got %s", t.Name(), d)
	}
	if words := (&Bitvec{}).Words(); len(words) != 1 || words[0] != 0 {
		t.Errorf("%s: Words of empty: expected [0], got %v", t.Name(), words)
	}
	if words := b.Words(); len(words) != 2 || words[1] != 3 {
		t.Errorf("%s: Words: expected 2 words, got %v", t.Name(), words)
	}
}

func TestBitvec_SetOps(t *testing.T) {
	a := FromUint64(0x0f)
	b := FromUint64(0x3c)

	if actual := a.Clone().Or(b); !actual.Equal(FromUint64(0x3f)) {
		t.Errorf("%s: Or: got %s", t.Name(), actual)
	}
	if actual := a.Clone().And(b); !actual.Equal(FromUint64(0x0c)) {
		t.Errorf("%s: And: got %s", t.Name(), actual)
	}
	if actual := a.Clone().AndNot(b); !actual.Equal(FromUint64(0x03)) {
		t.Errorf("%s: AndNot: got %s", t.Name(), actual)
	}
	if !a.Intersects(b) || a.Intersects(FromUint64(0x100)) {
		t.Errorf("%s: Intersects gave the wrong answer", t.Name())
	}

	var got []int
	FromWords([]uint64{0x5, 0x1}).ForEach(func(i int) { got = append(got, i) })
	if len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 64 {
		t.Errorf("%s: ForEach: expected [0 2 64], got %v", t.Name(), got)
	}

	e := &Bitvec{}
	e.SetBit(70).ClearBit(70)
	if !e.Empty() || e.Bit(-1) {
		t.Errorf("%s: expected an empty vector, got %s", t.Name(), e)
	}
}
