// Package render converts RGB canvases into terminal output.
//
// Rendering happens in two stages. The Processor maps a canvas onto a grid
// of character cells using the half-block encoding: each cell covers two
// vertically stacked pixels, carried independently by the cell's foreground
// (top pixel) and background (bottom pixel) colors under the '▀' glyph.
// This doubles the effective vertical resolution of the terminal. The
// conversion is embarrassingly parallel and fans out over a worker pool.
//
// The Renderer then diffs the new grid against the previously painted one
// and emits only the escape sequences needed to transform the screen:
// absolute cursor moves for the first cell of each dirty run, true-color
// set sequences only when the color actually changes, and the glyphs
// themselves. The whole frame is bracketed in synchronized-update markers
// and flushed in a single write, so a partially transmitted frame is never
// visible.
//
// The Session type owns terminal lifecycle: raw mode, the alternate
// screen, and cursor visibility are set up once per playback session and
// restored on teardown, including after an output failure.
package render
