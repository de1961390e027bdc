package analyzer

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidterm/video"
)

// Content classes.
type Class int

const (
	// ClassFlat is flat, low-motion two-color animation.
	ClassFlat Class = iota
	// ClassPhotographic is live-action or otherwise high-motion content.
	ClassPhotographic
)

// String returns a human-readable class name.
func (c Class) String() string {
	switch c {
	case ClassFlat:
		return "flat"
	case ClassPhotographic:
		return "photographic"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Per-channel delta above which a pixel counts as changed between frames.
const channelDelta = 30

// Analyzer samples leading frames of a source and classifies the content
// by average inter-frame pixel change.
type Analyzer struct {
	// SampleFrames is how many leading frames to inspect.
	SampleFrames int
	// Threshold is the average changed-pixel ratio at or above which
	// content classifies as photographic.
	Threshold float64
}

// New returns an analyzer with the default sample count and threshold.
func New() *Analyzer {
	return &Analyzer{
		SampleFrames: 100,
		Threshold:    0.30,
	}
}

// Classify reads up to SampleFrames frames from src and returns the
// content class. A source too short to compare even two frames classifies
// as photographic, the conservative default.
func (a *Analyzer) Classify(src video.Source) (Class, error) {
	if src == nil {
		return ClassPhotographic, fmt.Errorf("source cannot be nil")
	}
	if a.SampleFrames < 2 {
		return ClassPhotographic, fmt.Errorf("sample frame count too small: %d", a.SampleFrames)
	}

	var prev *video.Frame
	var diffSum float64
	compared := 0

	for i := 0; i < a.SampleFrames; i++ {
		frame, err := src.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return ClassPhotographic, fmt.Errorf("failed to read sample frame: %w", err)
		}
		if prev != nil {
			diffSum += FrameDifference(prev.Pix, frame.Pix)
			compared++
		}
		prev = frame
	}

	if compared == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Analyzer.Classify",
		}).Debug("Too few frames to compare, defaulting to photographic")
		return ClassPhotographic, nil
	}

	avg := diffSum / float64(compared)
	class := ClassPhotographic
	if avg < a.Threshold {
		class = ClassFlat
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Analyzer.Classify",
		"frames":    compared + 1,
		"avg_delta": avg,
		"threshold": a.Threshold,
		"class":     class.String(),
	}).Info("Content classified")

	return class, nil
}

// FrameDifference returns the fraction of pixels that changed between two
// rgb24 buffers, where a pixel counts as changed when any channel moved by
// more than the detection delta. Buffers of different lengths count as
// completely different.
func FrameDifference(a, b []byte) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0
	}

	pixels := len(a) / 3
	changed := 0
	for p := 0; p < pixels; p++ {
		i := p * 3
		if absDelta(a[i], b[i]) > channelDelta ||
			absDelta(a[i+1], b[i+1]) > channelDelta ||
			absDelta(a[i+2], b[i+2]) > channelDelta {
			changed++
		}
	}
	return float64(changed) / float64(pixels)
}

func absDelta(a, b byte) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
