package vidterm

import (
	"fmt"
	"time"
)

// resyncThreshold is how many frame intervals the wall clock may drift
// past the deadline before the pacer resynchronizes instead of firing
// rapidly to catch up.
const resyncThreshold = 3

// Pacer is a fixed-interval frame pacing utility, independent of the
// buffered scheduler. It is suited to sources without per-frame
// timestamps, such as pre-extracted frame stores, and to tests.
//
// The pacer tracks a monotonically advancing deadline: WaitNext sleeps
// until the deadline and then advances it by one frame interval. When the
// wall clock has drifted more than three intervals past the deadline, the
// deadline resynchronizes to now plus one interval, trading a perfect
// frame count for bounded recovery time.
type Pacer struct {
	interval time.Duration
	deadline time.Time
	clock    Clock

	rendered uint64
	dropped  uint64
}

// PacerStats is a snapshot of pacing counters.
type PacerStats struct {
	FramesRendered uint64
	FramesDropped  uint64
	TargetFPS      float64
}

// EffectiveFPS returns the achieved frame rate over the given elapsed
// playback time.
func (s PacerStats) EffectiveFPS(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(s.FramesRendered) / elapsed.Seconds()
}

// NewPacer creates a pacer targeting the given frame rate. The first
// deadline is one interval from now.
func NewPacer(fps float64, clock Clock) (*Pacer, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate: %g", fps)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	interval := time.Duration(float64(time.Second) / fps)
	return &Pacer{
		interval: interval,
		deadline: clock.Now().Add(interval),
		clock:    clock,
	}, nil
}

// Interval returns the frame interval.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// WaitNext blocks until the next frame deadline, then advances it.
//
// When the caller has fallen more than three intervals behind, the
// deadline resets to now plus one interval rather than firing back to
// back until caught up.
func (p *Pacer) WaitNext() {
	now := p.clock.Now()

	if now.After(p.deadline.Add(p.interval * resyncThreshold)) {
		p.deadline = now.Add(p.interval)
		p.rendered++
		return
	}

	if now.Before(p.deadline) {
		p.clock.Sleep(p.deadline.Sub(now))
	}
	p.deadline = p.deadline.Add(p.interval)
	p.rendered++
}

// SkipFrame records a dropped frame and advances the deadline without
// sleeping.
func (p *Pacer) SkipFrame() {
	p.dropped++
	p.deadline = p.deadline.Add(p.interval)
}

// Behind reports whether rendering lags the given playback time by more
// than lagFrames frame intervals, suggesting the caller should drop.
func (p *Pacer) Behind(elapsed time.Duration, lagFrames uint64) bool {
	expected := uint64(elapsed / p.interval)
	if expected <= p.rendered {
		return false
	}
	return expected-p.rendered > lagFrames
}

// Stats returns a snapshot of the pacing counters.
func (p *Pacer) Stats() PacerStats {
	return PacerStats{
		FramesRendered: p.rendered,
		FramesDropped:  p.dropped,
		TargetFPS:      float64(time.Second) / float64(p.interval),
	}
}

// Reset restarts the deadline from now and zeroes the counters.
func (p *Pacer) Reset() {
	p.deadline = p.clock.Now().Add(p.interval)
	p.rendered = 0
	p.dropped = 0
}
