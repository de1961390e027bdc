package vidterm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidterm/audio"
	"github.com/opd-ai/vidterm/framebuf"
	"github.com/opd-ai/vidterm/render"
	"github.com/opd-ai/vidterm/video"
)

// maxScheduleSleep bounds any single scheduler sleep so cancellation is
// observed promptly even when the next frame is far in the future.
const maxScheduleSleep = 50 * time.Millisecond

// State is the playback scheduler state.
type State int32

const (
	// StateWaitingForFirstFrame means playback has not begun: the origin
	// instant is established when the first frame arrives.
	StateWaitingForFirstFrame State = iota
	// StatePlaying means the scheduler is pacing frames against the origin.
	StatePlaying
	// StateDraining means the producer has finished and the scheduler is
	// disposing of resources.
	StateDraining
	// StateStopped means playback has ended.
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateWaitingForFirstFrame:
		return "waiting-for-first-frame"
	case StatePlaying:
		return "playing"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a snapshot of playback counters.
type Stats struct {
	FramesRendered uint64
	FramesDropped  uint64
	Elapsed        time.Duration
	BufferFill     float64
}

// EffectiveFPS returns the achieved render rate over the elapsed playback
// time.
func (s Stats) EffectiveFPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.FramesRendered) / s.Elapsed.Seconds()
}

// Player wires the playback pipeline together: decode producer, bounded
// frame channel, cell processor, diff renderer, and the timestamp-driven
// scheduler that paces the consumer side.
type Player struct {
	opts *Options

	source      video.Source
	transformer *video.Transformer
	buf         *framebuf.Buffer
	processor   *render.Processor
	renderer    *render.Renderer
	session     *render.Session
	audio       *audio.Player
	clock       Clock
	sched       *ScheduleClock

	grid  []render.Cell
	state atomic.Int32

	mu      sync.Mutex
	playing bool
	stop    context.CancelFunc

	producerWG sync.WaitGroup
}

// New creates a player from options, opening the video source and sizing
// the frame channel to roughly two seconds of playback.
func New(opts *Options) (*Player, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	source := opts.Source
	if source == nil {
		var err error
		source, err = video.Open(opts.VideoPath)
		if err != nil {
			return nil, err
		}
	}

	fps := source.FPS()
	if fps <= 0 {
		source.Close()
		return nil, fmt.Errorf("source reports invalid frame rate: %g", fps)
	}

	transformer, err := video.NewTransformer(opts.Width, opts.Height, opts.Fit)
	if err != nil {
		source.Close()
		return nil, err
	}
	processor, err := render.NewProcessor(opts.Width, opts.Height)
	if err != nil {
		source.Close()
		return nil, err
	}
	buf, err := framebuf.New(framebuf.CapacityForRate(fps))
	if err != nil {
		source.Close()
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	p := &Player{
		opts:        opts,
		source:      source,
		transformer: transformer,
		buf:         buf,
		processor:   processor,
		renderer:    opts.Renderer,
		clock:       clock,
		sched:       NewScheduleClock(clock),
		grid:        make([]render.Cell, processor.GridLen()),
	}
	p.state.Store(int32(StateWaitingForFirstFrame))

	logrus.WithFields(logrus.Fields{
		"function": "New",
		"width":    opts.Width,
		"height":   opts.Height,
		"fps":      fps,
		"capacity": buf.Cap(),
		"fit":      opts.Fit.String(),
		"mode":     opts.Mode.String(),
	}).Info("Player created")

	return p, nil
}

// State returns the current scheduler state.
func (p *Player) State() State {
	return State(p.state.Load())
}

// Stats returns a snapshot of the playback counters. Safe to call from any
// goroutine while playback runs.
func (p *Player) Stats() Stats {
	return Stats{
		FramesRendered: p.sched.FramesRendered(),
		FramesDropped:  p.sched.FramesDropped(),
		Elapsed:        p.sched.Elapsed(),
		BufferFill:     p.buf.FillLevel(),
	}
}

// Pause freezes playback time. The scheduler sees no frame become due
// while paused, so the current image stays on screen. No-op before the
// first frame has arrived.
func (p *Player) Pause() {
	p.sched.Pause()
}

// Resume continues playback after a Pause.
func (p *Player) Resume() {
	p.sched.Resume()
}

// Paused reports whether playback is currently paused.
func (p *Player) Paused() bool {
	return p.sched.Paused()
}

// Stop requests a clean shutdown of a running Play. Safe to call from any
// goroutine; a no-op when playback is not running.
func (p *Player) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Play runs the playback session to completion.
//
// It blocks until the source is exhausted, ctx is canceled, or Stop is
// called. Cancellation and end-of-stream both return nil; only genuine
// failures (a broken output stream, a renderer invariant violation) return
// an error, and the terminal is restored before the error surfaces. The
// producer goroutine is always joined before Play returns, so the decode
// process is released by then.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return fmt.Errorf("player is already playing")
	}
	p.playing = true
	ctx, cancel := context.WithCancel(ctx)
	p.stop = cancel
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.playing = false
		p.stop = nil
		p.mu.Unlock()
	}()

	p.grid = make([]render.Cell, p.processor.GridLen())
	p.sched.Reset()
	p.state.Store(int32(StateWaitingForFirstFrame))

	if err := p.setupOutput(); err != nil {
		return err
	}
	defer p.teardownOutput()

	if p.opts.AudioPath != "" {
		ap, err := audio.Start(p.opts.AudioPath)
		if err != nil {
			// Missing audio should not kill video playback.
			logrus.WithFields(logrus.Fields{
				"function": "Player.Play",
				"path":     p.opts.AudioPath,
				"error":    err,
			}).Error("Failed to start audio, continuing without it")
		} else {
			p.audio = ap
			defer p.audio.Stop()
		}
	}

	p.producerWG.Add(1)
	go p.produce(ctx)

	err := p.schedule(ctx)

	// Join the producer before returning so the decode process is not
	// orphaned. The producer observes cancellation within one push retry
	// interval.
	cancel()
	p.producerWG.Wait()
	p.source.Close()

	stats := p.Stats()
	logrus.WithFields(logrus.Fields{
		"function": "Player.Play",
		"rendered": stats.FramesRendered,
		"dropped":  stats.FramesDropped,
		"elapsed":  stats.Elapsed.Seconds(),
		"fps":      stats.EffectiveFPS(),
	}).Info("Playback finished")

	return err
}

// setupOutput prepares the renderer. With an injected renderer the player
// manages no terminal state; otherwise it owns a full terminal session on
// stdout.
func (p *Player) setupOutput() error {
	if p.renderer != nil {
		return nil
	}
	session, err := render.NewSession(os.Stdout)
	if err != nil {
		return err
	}
	if err := session.Setup(); err != nil {
		return err
	}
	p.session = session
	renderer, err := render.NewRenderer(os.Stdout, p.opts.Mode, session.Size)
	if err != nil {
		session.Restore()
		return err
	}
	p.renderer = renderer
	return nil
}

// teardownOutput restores the terminal if the player owns it. Runs on
// every exit path, including output failures.
func (p *Player) teardownOutput() {
	if p.session != nil {
		p.session.Restore()
		p.session = nil
		p.renderer = nil
	}
}

// produce is the decode producer: it reads native frames, transforms them
// onto the fixed canvas, stamps presentation timestamps, and pushes them
// into the frame channel with bounded-retry backpressure. The channel is
// closed on every exit path; end-of-stream and decode failure both appear
// to the consumer as a closed channel.
func (p *Player) produce(ctx context.Context) {
	defer p.producerWG.Done()
	defer p.buf.Close()

	fps := p.source.FPS()
	var index uint64

	for ctx.Err() == nil {
		frame, err := p.source.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logrus.WithFields(logrus.Fields{
					"function": "Player.produce",
					"frames":   index,
				}).Debug("Producer reached end of stream")
			} else {
				logrus.WithFields(logrus.Fields{
					"function": "Player.produce",
					"error":    err,
				}).Error("Decode failed, ending stream")
			}
			return
		}

		canvas, err := p.transformer.Apply(frame)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Player.produce",
				"error":    err,
			}).Error("Frame transform failed, ending stream")
			return
		}
		canvas.Timestamp = time.Duration(float64(index) / fps * float64(time.Second))
		index++

		if !p.push(ctx, canvas) {
			return
		}
	}
}

// push enqueues a canvas, retrying with a short sleep while the channel is
// full. A full channel is backpressure, not an error. Returns false when
// canceled.
func (p *Player) push(ctx context.Context, canvas *video.Canvas) bool {
	for {
		err := p.buf.TryPush(canvas)
		if err == nil {
			return true
		}
		if !errors.Is(err, framebuf.ErrFull) {
			return false
		}
		if ctx.Err() != nil {
			return false
		}
		p.clock.Sleep(p.opts.PushRetryInterval)
	}
}

// schedule is the consumer loop: the playback state machine.
//
// Each Playing iteration drains the channel without blocking, keeping the
// newest frame whose timestamp has already passed as the render candidate
// (each overwritten candidate counts as dropped) and setting the first
// future frame aside. A due candidate renders immediately; holding only a
// future frame, the scheduler sleeps out the remaining delta in bounded
// slices. Presented timestamps are therefore non-decreasing: frames are
// dropped, never reordered.
func (p *Player) schedule(ctx context.Context) error {
	var pending *video.Canvas

	for {
		if ctx.Err() != nil {
			p.state.Store(int32(StateStopped))
			logrus.WithFields(logrus.Fields{
				"function": "Player.schedule",
			}).Debug("Playback canceled")
			return nil
		}

		playback := p.sched.Elapsed()
		var candidate *video.Canvas
		closed := false

		for {
			var frame *video.Canvas
			if pending != nil {
				frame, pending = pending, nil
			} else {
				var err error
				frame, err = p.buf.TryPop()
				if err != nil {
					closed = errors.Is(err, framebuf.ErrClosed)
					break
				}
			}

			if !p.sched.Started() {
				// First frame ever popped: its pop instant is the
				// playback origin.
				p.sched.Start()
				playback = p.sched.Elapsed()
				p.state.Store(int32(StatePlaying))
				logrus.WithFields(logrus.Fields{
					"function": "Player.schedule",
				}).Debug("First frame received, playback origin established")
			}

			if frame.Timestamp > playback {
				pending = frame
				break
			}
			if candidate != nil {
				// A newer due frame supersedes the candidate. The
				// superseded frame is dropped, never rendered out of order.
				p.sched.MarkDropped()
			}
			candidate = frame
		}

		if candidate != nil {
			if err := p.present(candidate); err != nil {
				p.state.Store(int32(StateStopped))
				return err
			}
			continue
		}

		if pending != nil {
			wait := pending.Timestamp - p.sched.Elapsed()
			if wait > maxScheduleSleep {
				wait = maxScheduleSleep
			}
			if wait > 0 {
				p.clock.Sleep(wait)
			}
			continue
		}

		if closed {
			p.state.Store(int32(StateDraining))
			p.grid = nil
			p.state.Store(int32(StateStopped))
			logrus.WithFields(logrus.Fields{
				"function": "Player.schedule",
			}).Debug("Producer finished and channel drained, stopping")
			return nil
		}

		p.clock.Sleep(p.opts.PollInterval)
	}
}

// present converts one canvas to cells and paints the diff. An output
// failure is fatal to the session.
func (p *Player) present(canvas *video.Canvas) error {
	if err := p.processor.ProcessInto(canvas, p.grid); err != nil {
		return fmt.Errorf("cell conversion failed: %w", err)
	}
	if err := p.renderer.Render(p.grid, canvas.Width); err != nil {
		return err
	}
	p.sched.MarkRendered()
	return nil
}
