package cly

import (
	"fmt"
	"io"
	"strings"
)

// maxVisibleSuggestions caps how many completion rows are drawn below the
// edit line. The input loop scrolls the window when the selection moves past
// either edge.
const maxVisibleSuggestions = 10

// renderer paints the prompt prefix, the edit buffer, and the completion
// menu. It remembers how many rows the previous paint occupied so the next
// paint can clear them, which keeps the display stable while the buffer
// grows and shrinks across multiple lines.
//
// Prefix widths are measured with visibleWidth, so prefixes decorated with
// ExpandMarkup keep the cursor and continuation indent aligned.
type renderer struct {
	output    io.Writer
	scheme    *ColorScheme
	lastLines int   // rows used by the previous paint
	err       error // first write failure of the current paint
}

func newRenderer(output io.Writer, scheme *ColorScheme) *renderer {
	return &renderer{
		output: output,
		scheme: scheme,
	}
}

// invalidate forgets what is on screen. The next paint redraws in place from
// the current row instead of clearing rows that handler output has scrolled
// away. ForceRedisplay uses this to repaint after a key handler printed text
// above the edit line.
func (r *renderer) invalidate() {
	r.lastLines = 0
}

// render paints the prompt with no completion menu.
func (r *renderer) render(prefix, input string, cursor int) error {
	return r.renderWithSuggestionsOffset(prefix, input, cursor, nil, 0, 0)
}

// renderWithSuggestionsOffset paints the prompt and a window of the
// completion menu. selected and offset are absolute indexes into
// suggestions; rows [offset, offset+maxVisibleSuggestions) are drawn and the
// selected row is highlighted when it falls inside the window.
func (r *renderer) renderWithSuggestionsOffset(prefix, input string, cursor int, suggestions []Suggestion, selected, offset int) error {
	r.err = nil
	r.clearPrevious()

	lines := splitLines(input)
	prefixWidth := visibleWidth(prefix)
	r.paintInput(prefix, prefixWidth, lines)

	visible := windowSuggestions(suggestions, offset)
	r.paintSuggestions(visible, selected-offset)

	r.placeCursor([]rune(input), len(lines), cursor, prefixWidth)

	r.lastLines = len(lines) + len(visible)
	return r.err
}

// clearPrevious erases the rows used by the previous paint and returns the
// cursor to the first of them.
func (r *renderer) clearPrevious() {
	if r.lastLines <= 1 {
		return
	}
	for i := 0; i < r.lastLines-1; i++ {
		r.print("\x1b[E\x1b[K")
	}
	r.printf("\x1b[%dA", r.lastLines-1)
	r.print("\r")
}

// paintInput draws the prefix and every buffer line. Continuation lines are
// indented to the prefix width so columns line up under the first line.
func (r *renderer) paintInput(prefix string, prefixWidth int, lines []string) {
	r.print("\r\x1b[K")
	for i, line := range lines {
		if i == 0 {
			r.print(r.scheme.Prefix.ToANSI())
			r.print(prefix)
			r.print(Reset())
		} else {
			r.print("\r\n\x1b[K")
			r.print(strings.Repeat(" ", prefixWidth))
		}
		r.print(r.scheme.Input.ToANSI())
		r.print(line)
		r.print(Reset())
	}
}

// paintSuggestions draws the visible window of the completion menu below the
// edit line and moves the cursor back up to the last buffer row. selected is
// relative to the window; values outside it highlight nothing.
func (r *renderer) paintSuggestions(visible []Suggestion, selected int) {
	if len(visible) == 0 {
		return
	}
	for i, s := range visible {
		r.print("\r\n\x1b[K")
		if i == selected {
			r.print(r.scheme.Selected.ToANSI())
			r.print("▶ ")
		} else {
			r.print(r.scheme.Suggestion.Text.ToANSI())
			r.print("  ")
		}
		r.print(s.Text)
		r.print(Reset())
		if s.Description != "" {
			r.print(" ")
			r.print(r.scheme.Suggestion.Description.ToANSI())
			r.print("- ")
			r.print(s.Description)
			r.print(Reset())
		}
	}
	r.printf("\x1b[%dA", len(visible))
}

// placeCursor moves the terminal cursor from the last buffer row to the row
// and column of the logical cursor. It must run after the suggestion window
// is painted, since painting leaves the terminal cursor at an arbitrary
// column.
func (r *renderer) placeCursor(input []rune, totalLines, cursor, prefixWidth int) {
	line, col := cursorPosition(input, cursor)
	if up := totalLines - 1 - line; up > 0 {
		r.printf("\x1b[%dA", up)
	}
	r.print("\r")
	if target := col + prefixWidth; target > 0 {
		r.printf("\x1b[%dC", target)
	}
}

// print writes s, remembering the first failure so a broken writer aborts
// the rest of the paint.
func (r *renderer) print(s string) {
	if r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.output, s)
}

func (r *renderer) printf(format string, a ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.output, format, a...)
}

// windowSuggestions slices the visible portion of the menu.
func windowSuggestions(suggestions []Suggestion, offset int) []Suggestion {
	if offset < 0 || offset >= len(suggestions) {
		return nil
	}
	visible := suggestions[offset:]
	if len(visible) > maxVisibleSuggestions {
		visible = visible[:maxVisibleSuggestions]
	}
	return visible
}

// splitLines breaks the buffer into display lines. An empty buffer is a
// single empty line so the prefix always has a row to live on.
func splitLines(input string) []string {
	if input == "" {
		return []string{""}
	}
	return strings.Split(input, "\n")
}

// cursorPosition converts a rune offset into a (line, column) pair, both
// zero-based. Offsets outside the buffer clamp to its edges.
func cursorPosition(input []rune, cursor int) (line, col int) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(input) {
		cursor = len(input)
	}
	lineStart := 0
	for i := 0; i < cursor; i++ {
		if input[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, cursor - lineStart
}
