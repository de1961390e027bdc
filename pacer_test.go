package vidterm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPacerValidation(t *testing.T) {
	p, err := NewPacer(0, nil)
	assert.Error(t, err)
	assert.Nil(t, p)

	p, err = NewPacer(-10, nil)
	assert.Error(t, err)
	assert.Nil(t, p)

	p, err = NewPacer(25, nil)
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, p.Interval())
}

func TestWaitNextSleepsToDeadline(t *testing.T) {
	fc := newFakeClock()
	p, err := NewPacer(10, fc) // 100ms interval
	require.NoError(t, err)

	start := fc.Now()
	p.WaitNext()
	// The first deadline is one interval after construction.
	assert.Equal(t, 100*time.Millisecond, fc.Now().Sub(start))

	p.WaitNext()
	assert.Equal(t, 200*time.Millisecond, fc.Now().Sub(start))
	assert.Equal(t, uint64(2), p.Stats().FramesRendered)
}

func TestWaitNextResyncsWhenFarBehind(t *testing.T) {
	fc := newFakeClock()
	p, err := NewPacer(10, fc)
	require.NoError(t, err)

	// Fall ten intervals behind: instead of firing back to back until
	// caught up, the deadline resets to one interval from now.
	fc.Advance(time.Second)
	before := fc.Now()
	p.WaitNext()
	assert.Equal(t, before, fc.Now(), "resync must not sleep")

	// The next wait then sleeps a normal interval.
	p.WaitNext()
	assert.Equal(t, 100*time.Millisecond, fc.Now().Sub(before))
}

func TestSkipFrame(t *testing.T) {
	fc := newFakeClock()
	p, err := NewPacer(10, fc)
	require.NoError(t, err)

	before := fc.Now()
	p.SkipFrame()
	p.SkipFrame()
	assert.Equal(t, before, fc.Now(), "skip must not sleep")

	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.FramesDropped)
	assert.Equal(t, uint64(0), stats.FramesRendered)

	// The deadline advanced past the skipped slots: the next wait lands
	// three intervals out.
	p.WaitNext()
	assert.Equal(t, 300*time.Millisecond, fc.Now().Sub(before))
}

func TestBehind(t *testing.T) {
	fc := newFakeClock()
	p, err := NewPacer(10, fc)
	require.NoError(t, err)

	// Nothing rendered yet at playback time 500ms: five frames behind.
	assert.True(t, p.Behind(500*time.Millisecond, 2))
	assert.False(t, p.Behind(500*time.Millisecond, 5))
	assert.False(t, p.Behind(0, 0))

	for i := 0; i < 5; i++ {
		p.WaitNext()
	}
	assert.False(t, p.Behind(500*time.Millisecond, 2))
}

func TestPacerReset(t *testing.T) {
	fc := newFakeClock()
	p, err := NewPacer(10, fc)
	require.NoError(t, err)

	p.WaitNext()
	p.SkipFrame()
	p.Reset()

	stats := p.Stats()
	assert.Equal(t, uint64(0), stats.FramesRendered)
	assert.Equal(t, uint64(0), stats.FramesDropped)

	before := fc.Now()
	p.WaitNext()
	assert.Equal(t, 100*time.Millisecond, fc.Now().Sub(before))
}

func TestPacerStatsEffectiveFPS(t *testing.T) {
	stats := PacerStats{FramesRendered: 50}
	assert.InDelta(t, 25.0, stats.EffectiveFPS(2*time.Second), 1e-9)
	assert.Equal(t, 0.0, stats.EffectiveFPS(0))
}
