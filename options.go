package vidterm

import (
	"fmt"
	"time"

	"github.com/opd-ai/vidterm/render"
	"github.com/opd-ai/vidterm/video"
)

// Default playback geometry and timing. Width and height are canvas pixels;
// the rendered cell grid is Width columns by Height/2 rows.
const (
	DefaultWidth  = 240
	DefaultHeight = 136

	// DefaultPushRetryInterval is how long the producer sleeps between
	// push attempts when the frame channel is full. Cancellation is
	// observed within one interval.
	DefaultPushRetryInterval = 2 * time.Millisecond

	// DefaultPollInterval is how long the scheduler sleeps when the frame
	// channel is momentarily empty.
	DefaultPollInterval = time.Millisecond
)

// Options configures a Player.
//
// The zero value is not usable; start from NewOptions and override fields
// as needed.
type Options struct {
	// VideoPath is the video file to play. Ignored when Source is set.
	VideoPath string

	// AudioPath optionally names an audio file played alongside the video
	// by an external ffplay process.
	AudioPath string

	// Width and Height are the output canvas dimensions in pixels. The
	// terminal needs Width columns and Height/2 rows to show the whole
	// canvas.
	Width  int
	Height int

	// Fit selects letterboxing (pad) or filling (crop) when the source
	// aspect ratio differs from the canvas's.
	Fit video.FitMode

	// Mode selects true-color half-block or monochrome ramp output.
	Mode render.Mode

	// Source overrides VideoPath with a caller-supplied frame source.
	// Primarily useful for testing. The player takes ownership and closes
	// it when playback ends.
	Source video.Source

	// Renderer overrides the terminal-backed diff renderer. When set, the
	// player manages no terminal state. Primarily useful for testing.
	Renderer *render.Renderer

	// Clock overrides the wall clock. Primarily useful for testing.
	Clock Clock

	// PushRetryInterval bounds the producer's backpressure sleep.
	PushRetryInterval time.Duration

	// PollInterval bounds the scheduler's empty-channel sleep.
	PollInterval time.Duration
}

// NewOptions returns options with sensible defaults for interactive use.
func NewOptions() *Options {
	return &Options{
		Width:             DefaultWidth,
		Height:            DefaultHeight,
		Fit:               video.FitLetterbox,
		Mode:              render.ModeColor,
		PushRetryInterval: DefaultPushRetryInterval,
		PollInterval:      DefaultPollInterval,
	}
}

// validate checks option consistency before any resource is opened.
func (o *Options) validate() error {
	if o == nil {
		return fmt.Errorf("options cannot be nil")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid canvas dimensions: %dx%d", o.Width, o.Height)
	}
	if o.VideoPath == "" && o.Source == nil {
		return fmt.Errorf("either VideoPath or Source must be set")
	}
	if o.PushRetryInterval <= 0 {
		return fmt.Errorf("push retry interval must be positive: %v", o.PushRetryInterval)
	}
	if o.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %v", o.PollInterval)
	}
	return nil
}
