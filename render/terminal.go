package render

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Session escape sequences. These bracket a whole playback session;
// per-frame output never touches them.
const (
	escAltScreenEnter = "\x1b[?1049h"
	escAltScreenLeave = "\x1b[?1049l"
	escCursorHide     = "\x1b[?25l"
	escCursorShow     = "\x1b[?25h"
	escWrapDisable    = "\x1b[?7l"
	escWrapEnable     = "\x1b[?7h"
)

// Fallback terminal size reported when the real size cannot be queried,
// e.g. when output is not a terminal.
const (
	fallbackCols = 80
	fallbackRows = 24
)

// Session owns the terminal state for one playback run: raw mode, the
// alternate screen buffer, cursor visibility, and line wrapping.
//
// Setup and Restore are paired. Restore is safe to call whether or not
// Setup succeeded and must run even when playback fails, so the caller's
// shell gets its terminal back in a usable state.
type Session struct {
	tty      *os.File
	oldState *term.State
}

// NewSession creates a session managing the given terminal file,
// typically os.Stdout.
func NewSession(tty *os.File) (*Session, error) {
	if tty == nil {
		return nil, fmt.Errorf("terminal file cannot be nil")
	}
	return &Session{tty: tty}, nil
}

// Setup switches the terminal into playback state: raw mode, alternate
// screen, hidden cursor, wrapping off.
func (s *Session) Setup() error {
	logrus.WithFields(logrus.Fields{
		"function": "Session.Setup",
	}).Debug("Entering terminal playback state")

	if term.IsTerminal(int(s.tty.Fd())) {
		oldState, err := term.MakeRaw(int(s.tty.Fd()))
		if err != nil {
			return fmt.Errorf("failed to enable raw mode: %w", err)
		}
		s.oldState = oldState
	}

	if _, err := s.tty.WriteString(escAltScreenEnter + escCursorHide + escWrapDisable + escClear); err != nil {
		s.Restore()
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	return nil
}

// Restore undoes Setup: shows the cursor, re-enables wrapping, leaves the
// alternate screen, and drops raw mode. Errors are deliberately swallowed;
// restoration is best-effort and frequently runs on already-failed
// sessions.
func (s *Session) Restore() {
	s.tty.WriteString(escReset + escWrapEnable + escCursorShow + escAltScreenLeave)
	if s.oldState != nil {
		term.Restore(int(s.tty.Fd()), s.oldState)
		s.oldState = nil
	}
	logrus.WithFields(logrus.Fields{
		"function": "Session.Restore",
	}).Debug("Terminal state restored")
}

// Size returns the terminal dimensions in character cells, falling back
// to 80x24 when the query fails.
func (s *Session) Size() (cols, rows int) {
	cols, rows, err := term.GetSize(int(s.tty.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return fallbackCols, fallbackRows
	}
	return cols, rows
}

// RequestResize asks the terminal emulator to resize itself to the given
// character dimensions using the xterm window op. Terminals that do not
// support the sequence ignore it.
func RequestResize(w io.Writer, cols, rows int) {
	fmt.Fprintf(w, "\x1b[8;%d;%dt", rows, cols)
}

// RequestFullscreen asks the terminal emulator to maximize its window
// using the xterm window op. Best-effort, like RequestResize.
func RequestFullscreen(w io.Writer) {
	io.WriteString(w, "\x1b[9;1t")
}
