package framestore

import (
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidterm/video"
)

// ExtractOptions configures an extraction run.
type ExtractOptions struct {
	// Width and Height are the stored canvas dimensions in pixels.
	Width  int
	Height int
	// Fit selects letterbox or fill composition onto the canvas.
	Fit video.FitMode
	// Progress enables a terminal progress bar during extraction.
	Progress bool
}

// Extract decodes every frame of src, composites each onto the configured
// canvas, and writes the result as a packed container at path.
//
// Extraction reads the source to exhaustion on the calling goroutine; it
// is a batch operation, not part of the live playback pipeline.
func Extract(src video.Source, path string, opts ExtractOptions) (int, error) {
	if src == nil {
		return 0, fmt.Errorf("source cannot be nil")
	}
	transformer, err := video.NewTransformer(opts.Width, opts.Height, opts.Fit)
	if err != nil {
		return 0, err
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(-1, "Extracting")
	}

	var frames [][]byte
	for {
		frame, err := src.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("decode failed at frame %d: %w", len(frames), err)
		}
		canvas, err := transformer.Apply(frame)
		if err != nil {
			return 0, err
		}
		frames = append(frames, canvas.Pix)
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if len(frames) == 0 {
		return 0, fmt.Errorf("source produced no frames")
	}
	if err := Write(path, opts.Width, opts.Height, frames); err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Extract",
		"path":     path,
		"frames":   len(frames),
	}).Info("Extraction complete")

	return len(frames), nil
}
