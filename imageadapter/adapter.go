package imageadapter

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/sarchlab/wireworld/cell"
)

// ErrCellSizeTooLarge is returned by ImageToGrid when cellSize exceeds
// one of the source image's dimensions, which would yield a zero-sized
// map.
var ErrCellSizeTooLarge = errors.New("imageadapter: cell size larger than image dimension")

// ImageToGrid samples one pixel per cellSize x cellSize block of src (the
// block's top-left pixel, matching the original's row/column striding),
// quantizes it to the nearest palette color, and writes the result into
// a new Grid of size floor(W/cellSize) x floor(H/cellSize).
func ImageToGrid(src image.Image, cellSize int) (*cell.Grid, error) {
	if cellSize < 1 {
		return nil, fmt.Errorf("imageadapter: cell size must be >= 1, got %d", cellSize)
	}

	bounds := src.Bounds()
	width := bounds.Dx() / cellSize
	height := bounds.Dy() / cellSize
	if width < 1 || height < 1 {
		return nil, ErrCellSizeTooLarge
	}

	g := cell.NewGrid(width, height)
	for y := 0; y < height; y++ {
		srcY := bounds.Min.Y + y*cellSize
		for x := 0; x < width; x++ {
			srcX := bounds.Min.X + x*cellSize
			g.Set(x, y, nearestState(src.At(srcX, srcY)))
		}
	}
	return g, nil
}

// GridToImage renders g's cells as a flat, pixel-per-cell RGBA image; any
// upscaling for display is left to the caller. The adapter guarantees
// only pixel-correct reconstruction.
func GridToImage(g *cell.Grid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			draw.Draw(img, image.Rect(x, y, x+1, y+1),
				&image.Uniform{C: ColorFor(g.At(x, y))}, image.Point{}, draw.Src)
		}
	}
	return img
}
