package render

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Terminal escape sequences emitted by the renderer. Alternate-screen and
// cursor-visibility control live in the Session, not here: they bracket a
// whole playback session rather than a frame.
const (
	escSyncBegin = "\x1b[?2026h"
	escSyncEnd   = "\x1b[?2026l"
	escClear     = "\x1b[2J"
	escReset     = "\x1b[0m"
)

// Mode selects how cells are emitted.
type Mode int

const (
	// ModeColor paints half-block glyphs with true-color foreground and
	// background sequences.
	ModeColor Mode = iota
	// ModeMono emits brightness-ramp glyphs with no color sequences, for
	// terminals without true-color support.
	ModeMono
)

// String returns a human-readable name for the render mode.
func (m Mode) String() string {
	switch m {
	case ModeColor:
		return "color"
	case ModeMono:
		return "mono"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SizeFunc reports the current terminal size in character cells. It is
// consulted on every frame so centering follows terminal resizes.
type SizeFunc func() (cols, rows int)

// Renderer paints cell grids to a terminal, emitting only the difference
// from the previously painted grid.
//
// The renderer owns its snapshot of the screen (the RenderState): the last
// painted grid plus the last color sequences actually emitted. The
// snapshot is replaced wholesale, forcing a full repaint, whenever the
// incoming grid size differs from the stored one.
//
// All output for one frame accumulates in an internal buffer and reaches
// the output stream in a single Write call, bracketed by synchronized
// update markers so the terminal never shows a half-painted frame.
type Renderer struct {
	out    io.Writer
	mode   Mode
	sizeFn SizeFunc

	last     []Cell
	lastOffX int
	lastOffY int

	emittedFG RGB
	emittedBG RGB
	fgValid   bool
	bgValid   bool

	buf []byte
}

// NewRenderer creates a renderer writing to out. sizeFn supplies the
// terminal dimensions for centering and clipping; it must be non-nil.
func NewRenderer(out io.Writer, mode Mode, sizeFn SizeFunc) (*Renderer, error) {
	if out == nil {
		return nil, fmt.Errorf("output writer cannot be nil")
	}
	if sizeFn == nil {
		return nil, fmt.Errorf("size function cannot be nil")
	}
	logrus.WithFields(logrus.Fields{
		"function": "NewRenderer",
		"mode":     mode.String(),
	}).Debug("Creating diff renderer")
	return &Renderer{
		out:      out,
		mode:     mode,
		sizeFn:   sizeFn,
		lastOffX: -1,
		lastOffY: -1,
		buf:      make([]byte, 0, 1<<20),
	}, nil
}

// Render paints grid, interpreted as rows of width cells, emitting the
// minimal escape stream needed to get the terminal from the previous frame
// to this one. A write failure is fatal to the session and is returned to
// the caller, which must restore the terminal before surfacing it.
func (r *Renderer) Render(grid []Cell, width int) error {
	if width <= 0 {
		return fmt.Errorf("invalid grid width: %d", width)
	}
	if len(grid)%width != 0 {
		return fmt.Errorf("cell grid length %d is not a multiple of width %d", len(grid), width)
	}

	r.buf = r.buf[:0]
	r.buf = append(r.buf, escSyncBegin...)

	force := false
	if len(r.last) != len(grid) {
		// Grid geometry changed: clear and repaint from a blank snapshot.
		r.buf = append(r.buf, escClear...)
		r.last = make([]Cell, len(grid))
		for i := range r.last {
			r.last[i] = blankCell
		}
		force = true
	}

	termCols, termRows := r.sizeFn()
	contentH := len(grid) / width
	offX, offY := centerOffset(termCols, termRows, width, contentH)
	if offX != r.lastOffX || offY != r.lastOffY {
		// Centering moved (terminal resized): stale cells may linger at
		// the old offset, so clear and repaint everything.
		if !force {
			r.buf = append(r.buf, escClear...)
			for i := range r.last {
				r.last[i] = blankCell
			}
			force = true
		}
		r.lastOffX = offX
		r.lastOffY = offY
	}

	// Virtual cursor tracking: -1 means the terminal cursor position is
	// unknown and the next write must reposition explicitly.
	cursorX, cursorY := -1, -1
	dirty := 0

	for i, cell := range grid {
		if !force && cell == r.last[i] {
			cursorX = -1
			continue
		}

		x := i%width + offX
		y := i/width + offY
		if x >= termCols || y >= termRows {
			// Clipped: whatever follows cannot rely on cursor advance.
			cursorX = -1
			continue
		}

		if cursorX != x || cursorY != y {
			r.appendCursorMove(y, x)
			cursorX, cursorY = x, y
		}

		switch r.mode {
		case ModeColor:
			if !r.fgValid || cell.FG != r.emittedFG {
				r.appendColor(38, cell.FG)
				r.emittedFG = cell.FG
				r.fgValid = true
			}
			if !r.bgValid || cell.BG != r.emittedBG {
				r.appendColor(48, cell.BG)
				r.emittedBG = cell.BG
				r.bgValid = true
			}
			r.buf = utf8.AppendRune(r.buf, cell.Glyph)
		case ModeMono:
			r.buf = utf8.AppendRune(r.buf, monoGlyph(cell))
		}

		r.last[i] = cell
		cursorX++
		dirty++
	}

	if dirty > 0 {
		// The attribute reset clears the terminal's current colors, so the
		// emitted-color memory is no longer valid for the next frame.
		r.buf = append(r.buf, escReset...)
		r.fgValid = false
		r.bgValid = false
	}
	r.buf = append(r.buf, escSyncEnd...)

	if _, err := r.out.Write(r.buf); err != nil {
		return fmt.Errorf("failed to write frame to terminal: %w", err)
	}
	return nil
}

// appendCursorMove appends an absolute cursor position sequence,
// ESC[{row+1};{col+1}H, without allocating.
func (r *Renderer) appendCursorMove(row, col int) {
	r.buf = append(r.buf, 0x1b, '[')
	r.buf = strconv.AppendUint(r.buf, uint64(row+1), 10)
	r.buf = append(r.buf, ';')
	r.buf = strconv.AppendUint(r.buf, uint64(col+1), 10)
	r.buf = append(r.buf, 'H')
}

// appendColor appends a true-color SGR sequence; plane is 38 for
// foreground, 48 for background.
func (r *Renderer) appendColor(plane int, c RGB) {
	r.buf = append(r.buf, 0x1b, '[')
	r.buf = strconv.AppendUint(r.buf, uint64(plane), 10)
	r.buf = append(r.buf, ';', '2', ';')
	r.buf = strconv.AppendUint(r.buf, uint64(c.R), 10)
	r.buf = append(r.buf, ';')
	r.buf = strconv.AppendUint(r.buf, uint64(c.G), 10)
	r.buf = append(r.buf, ';')
	r.buf = strconv.AppendUint(r.buf, uint64(c.B), 10)
	r.buf = append(r.buf, 'm')
}

// centerOffset computes the top-left offset that centers content of the
// given size inside the terminal. Content larger than the terminal sits at
// the origin and is clipped during the paint.
func centerOffset(termCols, termRows, contentW, contentH int) (x, y int) {
	if termCols > contentW {
		x = (termCols - contentW) / 2
	}
	if termRows > contentH {
		y = (termRows - contentH) / 2
	}
	return x, y
}
