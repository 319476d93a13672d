package cly

import "io"

// mockTerminal feeds a scripted sequence of key presses to the editor and
// reports a fixed size, so full editing sessions run deterministically in
// tests with no tty attached. Reading past the script returns io.EOF, which
// the input loop surfaces as ErrEOF.
type mockTerminal struct {
	input   []rune
	pos     int
	rawMode bool // inspected by tests to verify raw-mode bracketing
	width   int
	height  int
}

func newMockTerminal(input string) *mockTerminal {
	return &mockTerminal{
		input:  []rune(input),
		width:  80,
		height: 24,
	}
}

func (m *mockTerminal) SetRaw() error {
	m.rawMode = true
	return nil
}

func (m *mockTerminal) Restore() error {
	m.rawMode = false
	return nil
}

func (m *mockTerminal) Size() (width, height int, err error) {
	return m.width, m.height, nil
}

func (m *mockTerminal) ReadRune() (rune, int, error) {
	if m.pos >= len(m.input) {
		return 0, 0, io.EOF
	}
	r := m.input[m.pos]
	m.pos++
	return r, 1, nil
}

func (m *mockTerminal) Close() error {
	return nil
}
