// Package imageadapter converts between rendered images and Wireworld
// grids: sampling a source image down to an initial map by nearest-color
// palette quantization, and rendering a grid back out to an image for
// display or PNG snapshotting.
package imageadapter

import (
	"image/color"

	"github.com/sarchlab/wireworld/cell"
)

// palette maps each cell.Cell value to its display color, grounded
// verbatim on the original desktop client's wireworldColors table.
var palette = [4]color.RGBA{
	cell.Insulator: {R: 0x30, G: 0x30, B: 0x30, A: 0xFF},
	cell.Wire:      {R: 0xA0, G: 0x50, B: 0x00, A: 0xFF},
	cell.Head:      {R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	cell.Tail:      {R: 0x00, G: 0x00, B: 0xA0, A: 0xFF},
}

// ColorFor returns the display color for a cell state.
func ColorFor(c cell.Cell) color.RGBA { return palette[c] }

// nearestState returns the palette entry closest to c by Manhattan
// distance in RGB, breaking ties toward the lowest-indexed state (the
// same linear scan order as the original's getNearestState).
func nearestState(c color.Color) cell.Cell {
	r, g, b, _ := c.RGBA()
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)

	best := cell.Insulator
	bestDist := -1
	for i, p := range palette {
		dist := absDiff(p.R, r8) + absDiff(p.G, g8) + absDiff(p.B, b8)
		if bestDist == -1 || dist < bestDist {
			bestDist = dist
			best = cell.Cell(i)
		}
	}
	return best
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
