package video

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Frame is one native decoded frame as delivered by a Source: row-major
// rgb24 at the source's own resolution, before any scaling or compositing.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// Source supplies decoded video frames at their native resolution.
//
// ReadFrame returns io.EOF when the stream is exhausted; any other error is
// a decode failure. Implementations are not required to be safe for
// concurrent use: exactly one goroutine reads from a Source at a time.
type Source interface {
	// FPS returns the source frame rate in frames per second.
	FPS() float64
	// Size returns the native frame dimensions in pixels.
	Size() (width, height int)
	// ReadFrame decodes and returns the next frame, or io.EOF at
	// end-of-stream.
	ReadFrame() (*Frame, error)
	// Close releases the underlying decode resources.
	Close() error
}

// FFmpegSource decodes a video file through an ffmpeg subprocess writing
// raw rgb24 frames to a pipe. Stream metadata comes from a one-shot
// ffprobe invocation before decoding starts.
type FFmpegSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader

	width  int
	height int
	fps    float64

	mu     sync.Mutex
	closed bool
}

// Open probes the video at path and starts an ffmpeg decode process for it.
func Open(path string) (*FFmpegSource, error) {
	width, height, fps, err := probe(path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video %q: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Open",
		"path":     path,
		"width":    width,
		"height":   height,
		"fps":      fps,
	}).Info("Opening video source")

	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-an",
		"-sn",
		"-loglevel", "error",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdout.Close()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	frameSize := width * height * 3
	return &FFmpegSource{
		cmd:    cmd,
		stdout: stdout,
		reader: bufio.NewReaderSize(stdout, frameSize*2),
		width:  width,
		height: height,
		fps:    fps,
	}, nil
}

// FPS returns the probed source frame rate.
func (s *FFmpegSource) FPS() float64 {
	return s.fps
}

// Size returns the probed native frame dimensions.
func (s *FFmpegSource) Size() (width, height int) {
	return s.width, s.height
}

// ReadFrame reads the next raw frame from the ffmpeg pipe. A short or
// failed read is treated as end-of-stream, matching ffmpeg closing its
// stdout when the input is exhausted.
func (s *FFmpegSource) ReadFrame() (*Frame, error) {
	pix := make([]byte, s.width*s.height*3)
	if _, err := io.ReadFull(s.reader, pix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame from ffmpeg: %w", err)
	}
	return &Frame{Width: s.width, Height: s.height, Pix: pix}, nil
}

// Close terminates the ffmpeg process and reaps it. Safe to call more than
// once.
func (s *FFmpegSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.stdout.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	err := s.cmd.Wait()

	logrus.WithFields(logrus.Fields{
		"function": "FFmpegSource.Close",
	}).Debug("Video source closed")

	// A kill-induced exit status is the expected shutdown path, not an error.
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("failed to reap ffmpeg process: %w", err)
	}
	return nil
}

// probe runs ffprobe to obtain the stream's dimensions and frame rate.
func probe(path string) (width, height int, fps float64, err error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	fields := strings.Split(strings.TrimSpace(string(bytes.TrimSpace(out))), ",")
	if len(fields) < 3 {
		return 0, 0, 0, fmt.Errorf("unexpected ffprobe output: %q", string(out))
	}

	width, err = strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid width in ffprobe output: %w", err)
	}
	height, err = strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid height in ffprobe output: %w", err)
	}
	fps, err = parseRate(strings.TrimSpace(fields[2]))
	if err != nil {
		return 0, 0, 0, err
	}
	if width <= 0 || height <= 0 || fps <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid stream parameters: %dx%d at %g fps", width, height, fps)
	}
	return width, height, fps, nil
}

// parseRate parses ffprobe's rational frame rate form, e.g. "30000/1001".
func parseRate(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame rate %q: %w", s, err)
		}
		return v, nil
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate numerator %q: %w", s, err)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid frame rate denominator %q", s)
	}
	return n / d, nil
}
