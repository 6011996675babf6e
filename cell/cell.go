// Package cell implements the Wireworld grid and rule engine: a
// double-buffered cellular-automaton stepper with a Moore-neighborhood
// rule and an insulator border that absorbs boundary effects.
package cell

import "fmt"

// Cell is a single Wireworld cell state. It is encoded in exactly 2 bits
// on the wire (see package wire).
type Cell uint8

const (
	Insulator Cell = 0
	Wire      Cell = 1
	Head      Cell = 2
	Tail      Cell = 3
)

// BitSize is the number of bits needed to encode one Cell on the wire.
const BitSize = 2

func (c Cell) String() string {
	switch c {
	case Insulator:
		return "Insulator"
	case Wire:
		return "Wire"
	case Head:
		return "Head"
	case Tail:
		return "Tail"
	default:
		return fmt.Sprintf("Cell(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the four defined cell states.
func (c Cell) Valid() bool {
	return c <= Tail
}
