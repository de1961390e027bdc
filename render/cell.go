package render

import "fmt"

// halfBlock is the upper-half-block glyph used in true-color mode. Its
// foreground paints the top pixel and its background the bottom pixel.
const halfBlock = '▀'

// monoRamp is the 10-level brightness ramp used in monochrome mode,
// darkest to brightest.
var monoRamp = [...]rune{' ', '.', ':', '-', '=', '+', '*', '#', '%', '@'}

// RGB is a 24-bit true color.
type RGB struct {
	R, G, B uint8
}

// Cell is one terminal character cell: a glyph plus independent foreground
// and background colors.
type Cell struct {
	Glyph rune
	FG    RGB
	BG    RGB
}

// blankCell is what a freshly cleared screen shows.
var blankCell = Cell{Glyph: ' '}

// GridSize returns the cell grid dimensions for a canvas of the given
// pixel size: one cell column per pixel column, one cell row per two pixel
// rows.
func GridSize(canvasWidth, canvasHeight int) (cols, rows int) {
	return canvasWidth, canvasHeight / 2
}

// ValidateGrid checks the fundamental grid invariant: a grid for a
// width-column canvas must hold exactly width*(height/2) cells. A mismatch
// is a programming error and the caller must refuse to process the grid.
func ValidateGrid(grid []Cell, canvasWidth, canvasHeight int) error {
	cols, rows := GridSize(canvasWidth, canvasHeight)
	if len(grid) != cols*rows {
		return fmt.Errorf("cell grid length %d does not match %dx%d canvas (want %d)",
			len(grid), canvasWidth, canvasHeight, cols*rows)
	}
	return nil
}

// brightness returns the perceptual luminance of a color in [0, 255],
// using integer Rec. 601 weights.
func brightness(c RGB) int {
	return (int(c.R)*299 + int(c.G)*587 + int(c.B)*114) / 1000
}

// monoGlyph maps a cell to its monochrome ramp glyph by the brightness of
// its foreground (top pixel) color.
func monoGlyph(c Cell) rune {
	idx := brightness(c.FG) * (len(monoRamp) - 1) / 255
	return monoRamp[idx]
}
