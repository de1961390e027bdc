package video

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// FitMode selects how a frame is fitted onto the output canvas when the
// source aspect ratio differs from the target's.
type FitMode int

const (
	// FitLetterbox scales the frame to fit entirely inside the canvas and
	// pads the remainder with black. No source pixel is ever cropped.
	FitLetterbox FitMode = iota
	// FitFill scales the frame to cover the whole canvas and center-crops
	// the overflow. No canvas pixel is ever padding.
	FitFill
)

// String returns a human-readable name for the fit mode.
func (m FitMode) String() string {
	switch m {
	case FitLetterbox:
		return "letterbox"
	case FitFill:
		return "fill"
	default:
		return fmt.Sprintf("FitMode(%d)", int(m))
	}
}

// Transformer converts native frames into fixed-size canvases.
//
// Each Apply call performs a uniform aspect-preserving scale followed by a
// center composite onto the target canvas. The scale factor is
// min(targetW/srcW, targetH/srcH) in letterbox mode and max(...) in fill
// mode. The transform is stateless apart from the configured target
// geometry, so one Transformer may be reused across every frame of a
// playback session.
type Transformer struct {
	width  int
	height int
	mode   FitMode
}

// NewTransformer creates a transformer targeting the given canvas size.
func NewTransformer(width, height int, mode FitMode) (*Transformer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions: %dx%d", width, height)
	}
	if mode != FitLetterbox && mode != FitFill {
		return nil, fmt.Errorf("invalid fit mode: %d", int(mode))
	}
	return &Transformer{width: width, height: height, mode: mode}, nil
}

// TargetSize returns the canvas dimensions this transformer produces.
func (t *Transformer) TargetSize() (width, height int) {
	return t.width, t.height
}

// Apply scales frame and composites it onto a fresh canvas.
//
// The returned canvas carries no timestamp; the producer stamps it from
// the frame index and source frame rate.
func (t *Transformer) Apply(frame *Frame) (*Canvas, error) {
	if frame == nil {
		return nil, fmt.Errorf("source frame cannot be nil")
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("invalid source dimensions: %dx%d", frame.Width, frame.Height)
	}
	if want := frame.Width * frame.Height * 3; len(frame.Pix) != want {
		return nil, fmt.Errorf("frame buffer length %d does not match %dx%d (want %d)",
			len(frame.Pix), frame.Width, frame.Height, want)
	}

	scaledW, scaledH := t.scaledSize(frame.Width, frame.Height)
	scaled := resizeRGB(frame, scaledW, scaledH)

	canvas, err := NewCanvas(t.width, t.height)
	if err != nil {
		return nil, err
	}
	compositeCenter(canvas, scaled, scaledW, scaledH)
	return canvas, nil
}

// scaledSize computes the aspect-preserving scaled dimensions for a source
// of the given size under the configured fit mode.
func (t *Transformer) scaledSize(srcW, srcH int) (int, int) {
	scaleW := float64(t.width) / float64(srcW)
	scaleH := float64(t.height) / float64(srcH)

	scale := scaleW
	if t.mode == FitFill {
		if scaleH > scale {
			scale = scaleH
		}
	} else if scaleH < scale {
		scale = scaleH
	}

	w := int(float64(srcW)*scale + 0.5)
	h := int(float64(srcH)*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// resizeRGB scales a raw rgb24 frame to the given dimensions and returns
// the result as rgb24 bytes. Bilinear interpolation keeps the cost low
// enough for real-time decode rates.
func resizeRGB(frame *Frame, dstW, dstH int) []byte {
	src := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i, j := 0, 0; i+2 < len(frame.Pix); i, j = i+3, j+4 {
		src.Pix[j] = frame.Pix[i]
		src.Pix[j+1] = frame.Pix[i+1]
		src.Pix[j+2] = frame.Pix[i+2]
		src.Pix[j+3] = 0xff
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]byte, dstW*dstH*3)
	for p := 0; p < dstW*dstH; p++ {
		out[p*3] = dst.Pix[p*4]
		out[p*3+1] = dst.Pix[p*4+1]
		out[p*3+2] = dst.Pix[p*4+2]
	}
	return out
}

// compositeCenter copies the scaled image onto the canvas, centering it.
// When the scaled image is smaller than the canvas the remainder stays
// black (letterbox padding); when larger, the overflow is cropped evenly
// from both sides.
func compositeCenter(canvas *Canvas, scaled []byte, scaledW, scaledH int) {
	copyW := scaledW
	if canvas.Width < copyW {
		copyW = canvas.Width
	}
	copyH := scaledH
	if canvas.Height < copyH {
		copyH = canvas.Height
	}

	srcX := (scaledW - copyW) / 2
	srcY := (scaledH - copyH) / 2
	dstX := (canvas.Width - copyW) / 2
	dstY := (canvas.Height - copyH) / 2

	for y := 0; y < copyH; y++ {
		srcOff := ((srcY+y)*scaledW + srcX) * 3
		dstOff := ((dstY+y)*canvas.Width + dstX) * 3
		copy(canvas.Pix[dstOff:dstOff+copyW*3], scaled[srcOff:srcOff+copyW*3])
	}
}
