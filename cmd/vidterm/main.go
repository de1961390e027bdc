// Command vidterm plays video files as true-color text graphics in a
// terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opd-ai/vidterm"
	"github.com/opd-ai/vidterm/analyzer"
	"github.com/opd-ai/vidterm/framestore"
	"github.com/opd-ai/vidterm/render"
	"github.com/opd-ai/vidterm/video"
)

var (
	flagWidth   int
	flagHeight  int
	flagFill    bool
	flagMono    bool
	flagAudio   string
	flagLogFile string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "vidterm",
		Short:         "Play video in the terminal with true-color half-block cells",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.Name())
		},
	}
	root.PersistentFlags().StringVar(&flagLogFile, "log", "", "append diagnostic logs to this file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	playCmd := &cobra.Command{
		Use:   "play <video>",
		Short: "Play a video file in real time",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}
	playCmd.Flags().IntVarP(&flagWidth, "width", "W", 0, "canvas width in pixels (default: fit terminal)")
	playCmd.Flags().IntVarP(&flagHeight, "height", "H", 0, "canvas height in pixels (default: fit terminal)")
	playCmd.Flags().BoolVarP(&flagFill, "fill", "f", false, "crop to fill the canvas instead of letterboxing")
	playCmd.Flags().BoolVarP(&flagMono, "mono", "m", false, "monochrome ramp output instead of true color")
	playCmd.Flags().StringVarP(&flagAudio, "audio", "a", "", "audio file to play alongside the video")

	extractCmd := &cobra.Command{
		Use:   "extract <video> <output.vfs>",
		Short: "Pack a video into a 1-bit frame store",
		Args:  cobra.ExactArgs(2),
		RunE:  runExtract,
	}
	extractCmd.Flags().IntVarP(&flagWidth, "width", "W", vidterm.DefaultWidth, "stored canvas width in pixels")
	extractCmd.Flags().IntVarP(&flagHeight, "height", "H", vidterm.DefaultHeight, "stored canvas height in pixels")
	extractCmd.Flags().BoolVarP(&flagFill, "fill", "f", false, "crop to fill the canvas instead of letterboxing")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Classify video content as flat or photographic",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	sizeCmd := &cobra.Command{
		Use:   "size",
		Short: "Print the terminal size in character cells",
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				return fmt.Errorf("failed to query terminal size: %w", err)
			}
			fmt.Printf("%dx%d\n", cols, rows)
			return nil
		},
	}

	root.AddCommand(playCmd, extractCmd, analyzeCmd, sizeCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setupLogging routes logrus away from stdout, which belongs to the video
// during playback.
func setupLogging(command string) error {
	if flagVerbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	switch {
	case flagLogFile != "":
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logrus.SetOutput(f)
	case command == "play":
		logrus.SetOutput(io.Discard)
	default:
		logrus.SetOutput(os.Stderr)
	}
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	opts := vidterm.NewOptions()
	opts.VideoPath = args[0]
	opts.AudioPath = flagAudio
	opts.Width, opts.Height = playbackCanvasSize(flagWidth, flagHeight)
	if flagFill {
		opts.Fit = video.FitFill
	}
	if flagMono {
		opts.Mode = render.ModeMono
	}

	player, err := vidterm.New(opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go watchKeys(player, cancel)

	if err := player.Play(ctx); err != nil {
		return err
	}

	stats := player.Stats()
	fmt.Printf("Rendered %d frames (%d dropped) in %.2fs, %.1f fps\n",
		stats.FramesRendered, stats.FramesDropped,
		stats.Elapsed.Seconds(), stats.EffectiveFPS())
	return nil
}

// playbackCanvasSize resolves the canvas size, clamping requested pixel
// dimensions to what the terminal can show: one column per pixel, two
// pixel rows per terminal row under the half-block encoding.
func playbackCanvasSize(reqW, reqH int) (int, int) {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		cols, rows = 80, 24
	}
	maxW, maxH := cols, rows*2

	w, h := reqW, reqH
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	if w > maxW || h > maxH {
		scaleW := float64(maxW) / float64(w)
		scaleH := float64(maxH) / float64(h)
		scale := scaleW
		if scaleH < scale {
			scale = scaleH
		}
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		fmt.Fprintf(os.Stderr, "requested %dx%d exceeds terminal maximum %dx%d, scaling to %dx%d\n",
			reqW, reqH, maxW, maxH, w, h)
	}
	return w, h
}

// watchKeys handles playback keys: q, Escape, or Ctrl-C quit; space or p
// toggles pause. In raw mode these arrive as plain bytes on stdin.
func watchKeys(player *vidterm.Player, cancel context.CancelFunc) {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n != 1 {
			continue
		}
		switch buf[0] {
		case 'q', 'Q', 0x1b, 0x03:
			cancel()
			return
		case ' ', 'p', 'P':
			if player.Paused() {
				player.Resume()
			} else {
				player.Pause()
			}
		}
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	src, err := video.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	fit := video.FitLetterbox
	if flagFill {
		fit = video.FitFill
	}
	count, err := framestore.Extract(src, args[1], framestore.ExtractOptions{
		Width:    flagWidth,
		Height:   flagHeight,
		Fit:      fit,
		Progress: true,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Packed %d frames into %s\n", count, args[1])
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	src, err := video.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	class, err := analyzer.New().Classify(src)
	if err != nil {
		return err
	}
	fmt.Println(class.String())
	return nil
}
