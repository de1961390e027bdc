package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCanvas(t *testing.T) {
	c, err := NewCanvas(10, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Width)
	assert.Equal(t, 8, c.Height)
	assert.Len(t, c.Pix, 10*8*3)
	assert.NoError(t, c.Validate())
}

func TestNewCanvasRejectsInvalidDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 8},
		{"zero height", 10, 0},
		{"negative", -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCanvas(tt.width, tt.height)
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestCanvasValidateDetectsMismatch(t *testing.T) {
	c, err := NewCanvas(4, 4)
	require.NoError(t, err)
	c.Pix = c.Pix[:len(c.Pix)-3]
	assert.Error(t, c.Validate())

	var nilCanvas *Canvas
	assert.Error(t, nilCanvas.Validate())
}

func TestRGBAt(t *testing.T) {
	c, err := NewCanvas(3, 2)
	require.NoError(t, err)

	// Pixel (1, 1) painted orange.
	off := (1*3 + 1) * 3
	c.Pix[off] = 255
	c.Pix[off+1] = 128
	c.Pix[off+2] = 7

	r, g, b := c.RGBAt(1, 1)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(128), g)
	assert.Equal(t, uint8(7), b)

	// Out-of-range reads yield black instead of faulting.
	for _, pt := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 2}, {100, 100}} {
		r, g, b := c.RGBAt(pt[0], pt[1])
		assert.Equal(t, uint8(0), r)
		assert.Equal(t, uint8(0), g)
		assert.Equal(t, uint8(0), b)
	}
}
