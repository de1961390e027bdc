package framebuf

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidterm/video"
)

var (
	// ErrFull indicates the buffer is at capacity. This is the normal
	// backpressure signal, not a failure: the producer retries after a
	// short sleep.
	ErrFull = errors.New("frame buffer full")

	// ErrEmpty indicates no frame is currently buffered while the producer
	// is still running. The consumer treats this as routine and polls again.
	ErrEmpty = errors.New("frame buffer empty")

	// ErrClosed indicates the producer has finished and all buffered frames
	// have been drained. This is the end-of-stream signal.
	ErrClosed = errors.New("frame buffer closed")
)

// Buffer is a bounded single-producer/single-consumer frame queue.
type Buffer struct {
	ch       chan *video.Canvas
	capacity int
	closed   atomic.Bool
}

// New creates a buffer holding at most capacity canvases.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid buffer capacity: %d", capacity)
	}
	logrus.WithFields(logrus.Fields{
		"function": "New",
		"capacity": capacity,
	}).Debug("Creating frame buffer")
	return &Buffer{
		ch:       make(chan *video.Canvas, capacity),
		capacity: capacity,
	}, nil
}

// CapacityForRate returns the buffer capacity for a source frame rate:
// about two seconds of playback, with a floor of one frame.
func CapacityForRate(fps float64) int {
	c := int(fps*2 + 0.999999)
	if c < 1 {
		c = 1
	}
	return c
}

// TryPush attempts to enqueue a canvas without blocking. Only the producer
// goroutine may call TryPush, and never after Close.
func (b *Buffer) TryPush(c *video.Canvas) error {
	if b.closed.Load() {
		return ErrClosed
	}
	select {
	case b.ch <- c:
		return nil
	default:
		return ErrFull
	}
}

// TryPop attempts to dequeue a canvas without blocking. Only the consumer
// goroutine may call TryPop.
func (b *Buffer) TryPop() (*video.Canvas, error) {
	select {
	case c, ok := <-b.ch:
		if !ok {
			return nil, ErrClosed
		}
		return c, nil
	default:
		if b.closed.Load() {
			return nil, ErrClosed
		}
		return nil, ErrEmpty
	}
}

// Close marks the stream finished. Buffered frames remain poppable; once
// drained, TryPop reports ErrClosed. Only the producer may call Close, and
// calling it more than once is safe.
func (b *Buffer) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.ch)
		logrus.WithFields(logrus.Fields{
			"function": "Buffer.Close",
		}).Debug("Frame buffer closed")
	}
}

// Len returns the number of currently buffered frames.
func (b *Buffer) Len() int {
	return len(b.ch)
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.capacity
}

// FillLevel returns the buffer occupancy in [0, 1]. Diagnostic only; the
// value may be stale by the time the caller observes it.
func (b *Buffer) FillLevel() float64 {
	return float64(len(b.ch)) / float64(b.capacity)
}
