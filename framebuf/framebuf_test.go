package framebuf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vidterm/video"
)

func makeCanvas(t *testing.T, ts time.Duration) *video.Canvas {
	t.Helper()
	c, err := video.NewCanvas(4, 4)
	require.NoError(t, err)
	c.Timestamp = ts
	return c
}

func TestNewRejectsInvalidCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
	}{
		{"zero", 0},
		{"negative", -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := New(tt.capacity)
			assert.Error(t, err)
			assert.Nil(t, buf)
		})
	}
}

func TestPushPopOrdering(t *testing.T) {
	buf, err := New(8)
	require.NoError(t, err)

	// Frames must come out in push order.
	for i := 0; i < 5; i++ {
		err := buf.TryPush(makeCanvas(t, time.Duration(i)*time.Second))
		require.NoError(t, err)
	}
	assert.Equal(t, 5, buf.Len())

	for i := 0; i < 5; i++ {
		c, err := buf.TryPop()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(i)*time.Second, c.Timestamp)
	}
	assert.Equal(t, 0, buf.Len())
}

func TestTryPushFullAndTryPopEmpty(t *testing.T) {
	const capacity = 3
	buf, err := New(capacity)
	require.NoError(t, err)

	// Exactly capacity pushes succeed, the next reports ErrFull.
	for i := 0; i < capacity; i++ {
		require.NoError(t, buf.TryPush(makeCanvas(t, 0)))
	}
	err = buf.TryPush(makeCanvas(t, 0))
	assert.ErrorIs(t, err, ErrFull)

	// Popping one frees exactly one slot.
	_, err = buf.TryPop()
	require.NoError(t, err)
	assert.NoError(t, buf.TryPush(makeCanvas(t, 0)))
	assert.ErrorIs(t, buf.TryPush(makeCanvas(t, 0)), ErrFull)

	// Drain, then an empty buffer reports ErrEmpty, not ErrClosed.
	for i := 0; i < capacity; i++ {
		_, err = buf.TryPop()
		require.NoError(t, err)
	}
	c, err := buf.TryPop()
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCloseDrainsBufferedFramesFirst(t *testing.T) {
	buf, err := New(4)
	require.NoError(t, err)

	require.NoError(t, buf.TryPush(makeCanvas(t, 1*time.Second)))
	require.NoError(t, buf.TryPush(makeCanvas(t, 2*time.Second)))
	buf.Close()

	// Buffered frames survive Close and pop in order.
	c, err := buf.TryPop()
	require.NoError(t, err)
	assert.Equal(t, 1*time.Second, c.Timestamp)
	c, err = buf.TryPop()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, c.Timestamp)

	// Only after draining does the consumer see end-of-stream.
	_, err = buf.TryPop()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPushAfterCloseFails(t *testing.T) {
	buf, err := New(2)
	require.NoError(t, err)
	buf.Close()

	err = buf.TryPush(makeCanvas(t, 0))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	buf, err := New(2)
	require.NoError(t, err)
	buf.Close()
	assert.NotPanics(t, func() { buf.Close() })
}

func TestFillLevel(t *testing.T) {
	buf, err := New(4)
	require.NoError(t, err)

	assert.Equal(t, 0.0, buf.FillLevel())
	require.NoError(t, buf.TryPush(makeCanvas(t, 0)))
	require.NoError(t, buf.TryPush(makeCanvas(t, 0)))
	assert.Equal(t, 0.5, buf.FillLevel())
	assert.Equal(t, 4, buf.Cap())
}

func TestCapacityForRate(t *testing.T) {
	tests := []struct {
		name string
		fps  float64
		want int
	}{
		{"30fps", 30, 60},
		{"29.97fps rounds up", 30000.0 / 1001.0, 60},
		{"1fps", 1, 2},
		{"fractional floor", 0.2, 1},
		{"zero floor", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CapacityForRate(tt.fps))
		})
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	buf, err := New(4)
	require.NoError(t, err)

	const total = 200
	go func() {
		for i := 0; i < total; i++ {
			c := &video.Canvas{Width: 1, Height: 1, Pix: make([]byte, 3),
				Timestamp: time.Duration(i)}
			for buf.TryPush(c) != nil {
				time.Sleep(50 * time.Microsecond)
			}
		}
		buf.Close()
	}()

	// Every frame arrives exactly once, in order, ending with ErrClosed.
	var got int
	for {
		c, err := buf.TryPop()
		if err == ErrEmpty {
			time.Sleep(50 * time.Microsecond)
			continue
		}
		if err == ErrClosed {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, time.Duration(got), c.Timestamp)
		got++
	}
	assert.Equal(t, total, got)
}
