package wire

import (
	"math/rand"
	"testing"

	"github.com/sarchlab/wireworld/cell"
)

func TestWordCountCeiling(t *testing.T) {
	cases := []struct{ w, h, want int }{
		{1, 1, 1},
		{4, 4, 1},
		{5, 3, 1},  // 15 cells * 2 bits = 30 bits -> 1 word
		{16, 1, 1}, // 16 cells * 2 bits = 32 bits -> exactly 1 word
		{17, 1, 2}, // 34 bits -> 2 words
		{100, 100, (100*100*2 + 31) / 32},
	}
	for _, c := range cases {
		if got := WordCount(c.w, c.h); got != c.want {
			t.Errorf("WordCount(%d,%d) = %d, want %d", c.w, c.h, got, c.want)
		}
	}
}

func TestPackAllWireWord(t *testing.T) {
	// W=5, H=3, all-Wire: 15 cells fit in a single word.
	cells := make([]cell.Cell, 15)
	for i := range cells {
		cells[i] = cell.Wire
	}
	words := Pack(cells, 5, 3)
	if len(words) != 1 {
		t.Fatalf("expected 1 word, got %d", len(words))
	}
	if words[0] != 0x15555555 {
		t.Fatalf("got %#x, want %#x", words[0], uint32(0x15555555))
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		w := 1 + rng.Intn(40)
		h := 1 + rng.Intn(40)
		cells := make([]cell.Cell, w*h)
		for i := range cells {
			cells[i] = cell.Cell(rng.Intn(4))
		}
		words := Pack(cells, w, h)
		if len(words) != WordCount(w, h) {
			t.Fatalf("w=%d h=%d: word count mismatch", w, h)
		}
		back := Unpack(words, w, h)
		for i := range cells {
			if cells[i] != back[i] {
				t.Fatalf("w=%d h=%d: cell %d mismatch: got %v want %v", w, h, i, back[i], cells[i])
			}
		}
	}
}

func TestPackTrailingBitsAreZero(t *testing.T) {
	// 5 cells in a 5x1 grid leaves 32-10=22 high bits unused in the
	// single word; Pack must zero them.
	cells := []cell.Cell{cell.Wire, cell.Head, cell.Tail, cell.Insulator, cell.Wire}
	words := Pack(cells, 5, 1)
	mask := uint32(1)<<(cell.BitSize*5) - 1
	if words[0]&^mask != 0 {
		t.Fatalf("trailing bits not zero: %#032b", words[0])
	}
}

func TestPackGridUnpackIntoGridRoundTrip(t *testing.T) {
	db := cell.NewDoubleBuffer(4, 3)
	g := db.Current()
	g.Set(0, 0, cell.Wire)
	g.Set(1, 0, cell.Head)
	g.Set(2, 1, cell.Tail)

	words := PackGrid(g, 0, 0, 4, 3)

	out := cell.NewGrid(4, 3)
	UnpackIntoGrid(words, out, 0, 0, 4, 3)

	if !g.Equal(out) {
		t.Fatalf("grid round trip mismatch")
	}
}
