package audio

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/sirupsen/logrus"
)

// Player wraps one ffplay subprocess playing a single audio file.
type Player struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	running bool
}

// Start launches ffplay for the given audio file. The process plays to
// the default audio device with no video window and exits on its own at
// end of file.
func Start(path string) (*Player, error) {
	cmd := exec.Command("ffplay",
		"-nodisp",
		"-autoexit",
		"-hide_banner",
		"-loglevel", "error",
		path,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffplay for %q: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Start",
		"path":     path,
		"pid":      cmd.Process.Pid,
	}).Info("Audio playback started")

	p := &Player{cmd: cmd, running: true}

	// Reap the process when it exits on its own, so Playing flips false
	// without anyone calling Stop.
	go func() {
		cmd.Wait()
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	return p, nil
}

// Playing reports whether the audio process is still running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stop kills the audio process if it is still running. Safe to call more
// than once; the reaper goroutine performs the wait.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	logrus.WithFields(logrus.Fields{
		"function": "Player.Stop",
	}).Debug("Audio playback stopped")
}
