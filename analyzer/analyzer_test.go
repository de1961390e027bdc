package analyzer

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vidterm/video"
)

// frameSource serves a fixed slice of frames.
type frameSource struct {
	frames []*video.Frame
	next   int
}

func (s *frameSource) FPS() float64     { return 30 }
func (s *frameSource) Size() (int, int) { return 4, 4 }
func (s *frameSource) Close() error     { return nil }

func (s *frameSource) ReadFrame() (*video.Frame, error) {
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func solid(v byte) *video.Frame {
	pix := make([]byte, 4*4*3)
	for i := range pix {
		pix[i] = v
	}
	return &video.Frame{Width: 4, Height: 4, Pix: pix}
}

func TestFrameDifference(t *testing.T) {
	tests := []struct {
		name string
		a, b *video.Frame
		want float64
	}{
		{"identical", solid(100), solid(100), 0},
		{"all changed", solid(0), solid(255), 1},
		{"below delta", solid(100), solid(120), 0},
		{"above delta", solid(100), solid(140), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FrameDifference(tt.a.Pix, tt.b.Pix))
		})
	}
}

func TestFrameDifferenceLengthMismatch(t *testing.T) {
	assert.Equal(t, 1.0, FrameDifference(make([]byte, 12), make([]byte, 15)))
	assert.Equal(t, 1.0, FrameDifference(nil, nil))
}

func TestFrameDifferencePartialChange(t *testing.T) {
	a := solid(0)
	b := solid(0)
	// Change 4 of 16 pixels beyond the delta.
	for p := 0; p < 4; p++ {
		b.Pix[p*3] = 200
	}
	assert.InDelta(t, 0.25, FrameDifference(a.Pix, b.Pix), 1e-9)
}

func TestClassifyFlatContent(t *testing.T) {
	// A static scene with an occasional small change stays flat.
	frames := make([]*video.Frame, 20)
	for i := range frames {
		frames[i] = solid(50)
	}
	class, err := New().Classify(&frameSource{frames: frames})
	require.NoError(t, err)
	assert.Equal(t, ClassFlat, class)
}

func TestClassifyPhotographicContent(t *testing.T) {
	// Every frame completely different from the last.
	frames := make([]*video.Frame, 20)
	for i := range frames {
		frames[i] = solid(byte(i * 60))
	}
	class, err := New().Classify(&frameSource{frames: frames})
	require.NoError(t, err)
	assert.Equal(t, ClassPhotographic, class)
}

func TestClassifyRespectsSampleLimit(t *testing.T) {
	// Flat leading frames followed by heavy motion outside the sample
	// window: only the sampled frames count.
	frames := make([]*video.Frame, 30)
	for i := range frames {
		if i < 10 {
			frames[i] = solid(50)
		} else {
			frames[i] = solid(byte(i * 70))
		}
	}
	a := New()
	a.SampleFrames = 10
	src := &frameSource{frames: frames}
	class, err := a.Classify(src)
	require.NoError(t, err)
	assert.Equal(t, ClassFlat, class)
	assert.Equal(t, 10, src.next)
}

func TestClassifyShortSourceDefaultsPhotographic(t *testing.T) {
	class, err := New().Classify(&frameSource{frames: []*video.Frame{solid(1)}})
	require.NoError(t, err)
	assert.Equal(t, ClassPhotographic, class)

	class, err = New().Classify(&frameSource{})
	require.NoError(t, err)
	assert.Equal(t, ClassPhotographic, class)
}

func TestClassifyValidation(t *testing.T) {
	_, err := New().Classify(nil)
	assert.Error(t, err)

	a := New()
	a.SampleFrames = 1
	_, err = a.Classify(&frameSource{})
	assert.Error(t, err)
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "flat", ClassFlat.String())
	assert.Equal(t, "photographic", ClassPhotographic.String())
	assert.Contains(t, Class(9).String(), "9")
}
