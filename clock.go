package vidterm

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock abstracts wall-clock access for the scheduler and pacer, so tests
// can inject deterministic time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep pauses the calling goroutine for the given duration.
	Sleep(d time.Duration)
}

// SystemClock implements Clock using the real system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep sleeps on the real clock.
func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// ScheduleClock tracks one playback session: the wall-clock origin
// established when the first frame arrives, pause bookkeeping, and the
// rendered/dropped frame counters.
//
// The clock is created once per session and never reset except by an
// explicit Reset on restart. Mutating methods are called only from the
// scheduler goroutine; the counters use atomics so Stats may be read from
// any goroutine.
type ScheduleClock struct {
	clock Clock

	mu          sync.Mutex
	origin      time.Time
	started     bool
	paused      bool
	pausedAt    time.Time
	pausedTotal time.Duration

	rendered atomic.Uint64
	dropped  atomic.Uint64
}

// NewScheduleClock creates an unstarted schedule clock.
func NewScheduleClock(clock Clock) *ScheduleClock {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ScheduleClock{clock: clock}
}

// Start establishes the playback origin at the current instant. Called
// exactly once, when the first frame is popped from the channel.
func (c *ScheduleClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.origin = c.clock.Now()
	c.started = true
}

// Started reports whether the playback origin has been established.
func (c *ScheduleClock) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Elapsed returns the playback time: wall time since the origin, excluding
// paused intervals. Zero before Start.
func (c *ScheduleClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return 0
	}
	if c.paused {
		return c.pausedAt.Sub(c.origin) - c.pausedTotal
	}
	return c.clock.Now().Sub(c.origin) - c.pausedTotal
}

// Pause freezes playback time. No-op when already paused or not started.
func (c *ScheduleClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.paused {
		return
	}
	c.paused = true
	c.pausedAt = c.clock.Now()
}

// Resume unfreezes playback time, extending the excluded pause total.
func (c *ScheduleClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.pausedTotal += c.clock.Now().Sub(c.pausedAt)
	c.paused = false
}

// Paused reports whether the clock is currently paused.
func (c *ScheduleClock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// MarkRendered increments the rendered-frame counter: exactly once per
// frame actually handed to rendering.
func (c *ScheduleClock) MarkRendered() {
	c.rendered.Add(1)
}

// MarkDropped increments the dropped-frame counter: exactly once per
// candidate overwritten during a channel drain.
func (c *ScheduleClock) MarkDropped() {
	c.dropped.Add(1)
}

// FramesRendered returns the rendered-frame count.
func (c *ScheduleClock) FramesRendered() uint64 {
	return c.rendered.Load()
}

// FramesDropped returns the dropped-frame count.
func (c *ScheduleClock) FramesDropped() uint64 {
	return c.dropped.Load()
}

// Reset returns the clock to its unstarted state with zeroed counters.
// Only meaningful between playback sessions.
func (c *ScheduleClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	c.paused = false
	c.pausedTotal = 0
	c.rendered.Store(0)
	c.dropped.Store(0)
}
