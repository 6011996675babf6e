// Package wire implements the bit-packing codec and the client/server
// wire protocol: a length-implicit, big-endian, word-oriented protocol
// carrying initialization, frame requests, rectangular frame updates and
// end-of-frame markers.
package wire

import "github.com/sarchlab/wireworld/cell"

// WordBits is the number of bits in one protocol word.
const WordBits = 32

// cellsPerWord is how many 2-bit cell states fit in one 32-bit word.
const cellsPerWord = WordBits / cell.BitSize

// WordCount returns the number of 32-bit words needed to carry w*h packed
// cells: ceil(w*h*BitSize / WordBits). This is the one formula pack and
// unpack must agree on: the original C server's inconsistent "+1" word
// count and its "> 15" vs "== 16" bit-cursor wrap are both replaced by
// this single ceiling computation.
func WordCount(w, h int) int {
	cells := w * h
	bits := cells * cell.BitSize
	return (bits + WordBits - 1) / WordBits
}

// Pack serializes a rectangular region of Cells, read row-major with x
// varying fastest, into 32-bit words: cell k occupies bits [2j, 2j+1],
// with j = k mod 16, of word k/16, LSB-first, and the final word is
// zero-padded in its unused
// high bits. The returned slice has exactly WordCount(width, height)
// elements. The bit cursor always starts fresh at word 0, bit 0 —
// consecutive calls do not share word boundaries.
func Pack(cells []cell.Cell, width, height int) []uint32 {
	if len(cells) != width*height {
		panic("wire: Pack: cells length does not match width*height")
	}

	words := make([]uint32, WordCount(width, height))

	bitIndex := 0
	wordIndex := 0
	for _, c := range cells {
		words[wordIndex] |= uint32(c&0x3) << uint(cell.BitSize*bitIndex)

		bitIndex++
		if bitIndex == cellsPerWord {
			bitIndex = 0
			wordIndex++
		}
	}

	return words
}

// Unpack is the inverse of Pack: it reads width*height cell states out
// of words and returns them row-major, x varying fastest.
func Unpack(words []uint32, width, height int) []cell.Cell {
	want := WordCount(width, height)
	if len(words) != want {
		panic("wire: Unpack: words length does not match WordCount(width, height)")
	}

	out := make([]cell.Cell, width*height)

	bitIndex := 0
	wordIndex := 0
	for i := range out {
		out[i] = cell.Cell((words[wordIndex] >> uint(cell.BitSize*bitIndex)) & 0x3)

		bitIndex++
		if bitIndex == cellsPerWord {
			bitIndex = 0
			wordIndex++
		}
	}

	return out
}

// PackGrid packs the interior (unpadded) cells of a rectangular region of
// g, in target-map coordinates (x1, y1) inclusive to (x2, y2) exclusive.
func PackGrid(g *cell.Grid, x1, y1, x2, y2 int) []uint32 {
	w, h := x2-x1, y2-y1
	cells := make([]cell.Cell, 0, w*h)
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			cells = append(cells, g.At(x, y))
		}
	}
	return Pack(cells, w, h)
}

// UnpackIntoGrid unpacks words into the rectangular region of g given by
// (x1, y1) inclusive to (x2, y2) exclusive, in target-map coordinates.
func UnpackIntoGrid(words []uint32, g *cell.Grid, x1, y1, x2, y2 int) {
	w, h := x2-x1, y2-y1
	cells := Unpack(words, w, h)
	i := 0
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			g.Set(x, y, cells[i])
			i++
		}
	}
}
