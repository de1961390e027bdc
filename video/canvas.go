package video

import (
	"fmt"
	"time"
)

// Canvas is a fixed-size RGB pixel buffer ready for cell conversion.
//
// The pixel data is row-major rgb24: exactly Width*Height*3 bytes. Each
// Canvas carries the presentation timestamp derived from its frame index
// and the source frame rate; timestamps are non-decreasing across the
// frames produced from one source.
//
// A Canvas is owned by exactly one component at a time. The producer hands
// it to the frame buffer by pointer transfer and never touches it again;
// the consumer processes it exactly once and discards it.
type Canvas struct {
	Width     int
	Height    int
	Timestamp time.Duration
	Pix       []byte
}

// NewCanvas allocates a zeroed (black) canvas of the given dimensions.
func NewCanvas(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas dimensions: %dx%d", width, height)
	}
	return &Canvas{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*3),
	}, nil
}

// Validate reports whether the pixel buffer length matches the declared
// dimensions. A mismatch is a programming error on the producer side, not
// a recoverable runtime condition; consumers refuse such canvases.
func (c *Canvas) Validate() error {
	if c == nil {
		return fmt.Errorf("canvas is nil")
	}
	if want := c.Width * c.Height * 3; len(c.Pix) != want {
		return fmt.Errorf("canvas buffer length %d does not match %dx%d (want %d)",
			len(c.Pix), c.Width, c.Height, want)
	}
	return nil
}

// RGBAt returns the pixel at (x, y). Out-of-range coordinates yield black,
// so callers sampling near the edges never read out of bounds.
func (c *Canvas) RGBAt(x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return 0, 0, 0
	}
	off := (y*c.Width + x) * 3
	if off+2 >= len(c.Pix) {
		return 0, 0, 0
	}
	return c.Pix[off], c.Pix[off+1], c.Pix[off+2]
}
