package cell

// DoubleBuffer holds a pair of identically-shaped, border-padded grids:
// current (the last quiescent generation) and next (scratch for the
// generation being computed). Step swaps the roles by toggling Parity
// instead of copying cell data.
type DoubleBuffer struct {
	Width, Height int
	buffers       [2]*Grid
	Parity        bool // false: buffers[0] is current; true: buffers[1] is current.
}

// NewDoubleBuffer allocates a double buffer of the given size. Both
// buffers start with every interior cell set to Insulator; the caller
// typically overwrites the interior immediately via Current().Set or a
// bulk unpack (see package wire).
func NewDoubleBuffer(width, height int) *DoubleBuffer {
	return &DoubleBuffer{
		Width:   width,
		Height:  height,
		buffers: [2]*Grid{NewGrid(width, height), NewGrid(width, height)},
	}
}

// Current returns the grid holding the latest completed generation.
func (d *DoubleBuffer) Current() *Grid {
	if d.Parity {
		return d.buffers[1]
	}
	return d.buffers[0]
}

// next returns the scratch grid that the next Step will write into.
func (d *DoubleBuffer) next() *Grid {
	if d.Parity {
		return d.buffers[0]
	}
	return d.buffers[1]
}

// Step applies the Wireworld rule once: reads Current(), writes a
// complete next generation into the scratch buffer, then swaps by
// toggling Parity. It never reads the scratch buffer nor writes the
// current one, so the two buffers can be computed in parallel internally
// without violating the single-call contract.
func (d *DoubleBuffer) Step() {
	cur := d.Current()
	nxt := d.next()

	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			nxt.Set(x, y, stepCell(cur, x, y))
		}
	}

	d.Parity = !d.Parity
}

// Advance performs s generations, so that exactly s rule applications
// elapse between the previous Current() and the one after Advance
// returns. Advance(0) is a no-op. s is fixed per session in the wire
// protocol (the sampling factor) and does not change mid-session.
func (d *DoubleBuffer) Advance(s int) {
	for i := 0; i < s; i++ {
		d.Step()
	}
}

// stepCell computes the next state of the interior cell at (x, y)
// according to the Wireworld rule:
//
//	Insulator -> Insulator
//	Head      -> Tail
//	Tail      -> Wire
//	Wire      -> Head iff exactly 1 or 2 Moore neighbors are Head, else Wire
func stepCell(g *Grid, x, y int) Cell {
	switch g.At(x, y) {
	case Insulator:
		return Insulator
	case Head:
		return Tail
	case Tail:
		return Wire
	case Wire:
		n := g.headNeighbors(x, y)
		if n == 1 || n == 2 {
			return Head
		}
		return Wire
	default:
		return Insulator
	}
}
