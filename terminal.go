package cly

import (
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-tty"
	"golang.org/x/term"
)

// terminalInterface abstracts the terminal so the editor can run against a
// real tty in production and a scripted fake in tests.
//
// Implementations:
//   - realTerminal: go-tty backed, used by New
//   - mockTerminal: deterministic scripted input, used by tests
type terminalInterface interface {
	SetRaw() error                        // enter raw mode for key-at-a-time reads
	Restore() error                       // restore the pre-raw terminal state
	Size() (width, height int, err error) // terminal dimensions with a safe fallback
	ReadRune() (rune, int, error)         // read one rune of input
	Close() error                         // release the tty
}

// realTerminal drives the actual terminal through go-tty, with raw-mode
// state capture and restore handled by golang.org/x/term so the terminal
// comes back in its original state even after repeated raw/cooked cycles.
type realTerminal struct {
	tty           *tty.TTY
	output        io.Writer
	closed        bool // go-tty panics on double Close on Windows
	stdinFd       int
	originalState *term.State
}

func newRealTerminal() (*realTerminal, error) {
	t, err := tty.Open()
	if err != nil {
		return nil, err
	}

	var output io.Writer = os.Stdout
	if runtime.GOOS == "windows" {
		output = colorable.NewColorableStdout()
	}

	return &realTerminal{
		tty:     t,
		output:  output,
		stdinFd: int(os.Stdin.Fd()),
	}, nil
}

// SetRaw captures the current terminal state and switches to raw mode. The
// state is captured fresh on every call so entering and leaving raw mode
// repeatedly, as the history search does, always restores correctly.
func (t *realTerminal) SetRaw() error {
	if !term.IsTerminal(t.stdinFd) {
		return nil
	}
	state, err := term.GetState(t.stdinFd)
	if err != nil {
		return err
	}
	t.originalState = state

	if _, err := term.MakeRaw(t.stdinFd); err != nil {
		return err
	}
	return nil
}

// Restore returns the terminal to the state captured by the last SetRaw.
// Calling it without a captured state is a no-op.
func (t *realTerminal) Restore() error {
	if t.originalState == nil || !term.IsTerminal(t.stdinFd) {
		return nil
	}
	err := term.Restore(t.stdinFd, t.originalState)
	t.originalState = nil
	return err
}

// Size reports the terminal dimensions, falling back to 80x24 when the tty
// cannot be queried.
func (t *realTerminal) Size() (width, height int, err error) {
	w, h, err := t.tty.Size()
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24, err
	}
	return w, h, nil
}

func (t *realTerminal) ReadRune() (rune, int, error) {
	r, err := t.tty.ReadRune()
	if err != nil {
		return 0, 0, err
	}
	return r, 1, nil
}

func (t *realTerminal) Close() error {
	if t.closed {
		return nil
	}
	if t.tty != nil {
		err := t.tty.Close()
		t.closed = true
		return err
	}
	return nil
}
