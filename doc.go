// Package vidterm implements real-time video playback inside a terminal.
//
// vidterm decodes a video source, converts each frame to true-color
// half-block character cells, and paints only the cells that changed since
// the previous frame, sustaining the source frame rate on ordinary
// terminal emulators. This package provides the main API facade that wires
// the subsystems together: the decode producer (video), the bounded frame
// channel (framebuf), and the parallel cell conversion and diff rendering
// (render).
//
// # Getting Started
//
// Create a Player with options and run it:
//
//	options := vidterm.NewOptions()
//	options.VideoPath = "clip.mp4"
//	options.Width = 240
//	options.Height = 136
//
//	player, err := vidterm.New(options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := player.Play(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
//	stats := player.Stats()
//	fmt.Printf("rendered %d frames, dropped %d\n",
//	    stats.FramesRendered, stats.FramesDropped)
//
// Play blocks until the source is exhausted, the context is canceled, or
// Stop is called. Cancellation is a clean shutdown path, not an error: the
// producer thread is joined and the terminal is restored before Play
// returns.
//
// # Architecture
//
// Two persistent goroutines run per playback session. The producer decodes
// frames, scales them onto the fixed output canvas, and pushes them into
// the bounded frame channel, sleeping briefly whenever the channel is full.
// The scheduler pops frames, drops those whose presentation time has
// already passed, sleeps when ahead of schedule, and drives cell
// conversion and diff rendering inline. Presented frames are strictly
// non-decreasing in timestamp.
package vidterm
