package cly

import (
	"strings"
)

// Caret markup is a compact formatting syntax for prompt prefixes and handler
// output: a caret followed by a single code character. It survives being
// embedded in ordinary strings, unlike raw ANSI escapes, and expands to ANSI
// only at the point of output.
//
// Codes:
//
//	^N    reset all formatting
//	^B    toggle bold
//	^U    toggle underline
//	^0-^7 set foreground color (black, red, green, brown, blue, magenta,
//	      cyan, white)
//	^^    literal caret
//
// A caret followed by any other character is not a code and passes through
// unchanged, so "^ message" prints exactly as written.

// ansiMarkupCodes maps color code characters to ANSI SGR parameters.
var ansiMarkupCodes = map[byte]string{
	'0': "30", '1': "31", '2': "32", '3': "33",
	'4': "34", '5': "35", '6': "36", '7': "37",
}

// ExpandMarkup converts caret markup to ANSI escape sequences.
//
// Bold and underline are toggles: the first ^B enables bold, the second
// disables it. ^N resets both toggles along with all other formatting.
// Text with no carets is returned unchanged.
//
// Example:
//
//	cly.ExpandMarkup("^Bwarning:^N disk full")
//	// "\x1b[1mwarning:\x1b[0m disk full"
func ExpandMarkup(text string) string {
	if !strings.ContainsRune(text, '^') {
		return text
	}

	var out strings.Builder
	out.Grow(len(text) + 16)

	bold := false
	underline := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '^' || i == len(text)-1 {
			out.WriteByte(c)
			continue
		}

		code := text[i+1]
		switch {
		case code == '^':
			out.WriteByte('^')
		case code == 'N':
			bold, underline = false, false
			out.WriteString("\x1b[0m")
		case code == 'B':
			bold = !bold
			if bold {
				out.WriteString("\x1b[1m")
			} else {
				out.WriteString("\x1b[22m")
			}
		case code == 'U':
			underline = !underline
			if underline {
				out.WriteString("\x1b[4m")
			} else {
				out.WriteString("\x1b[24m")
			}
		case code >= '0' && code <= '7':
			out.WriteString("\x1b[")
			out.WriteString(ansiMarkupCodes[code])
			out.WriteByte('m')
		default:
			// Not a code: keep the caret and the following character.
			out.WriteByte('^')
			out.WriteByte(code)
		}
		i++
	}

	return out.String()
}

// StripMarkup removes caret markup codes from text, leaving only the
// printable characters. ^^ becomes a single caret; carets that do not start
// a code are preserved.
func StripMarkup(text string) string {
	if !strings.ContainsRune(text, '^') {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '^' || i == len(text)-1 {
			out.WriteByte(c)
			continue
		}

		code := text[i+1]
		switch {
		case code == '^':
			out.WriteByte('^')
		case code == 'N' || code == 'B' || code == 'U':
		case code >= '0' && code <= '7':
		default:
			out.WriteByte('^')
			out.WriteByte(code)
		}
		i++
	}

	return out.String()
}

// MarkupWidth returns the display width of text in runes after caret markup
// codes are stripped. Use it to align output that carries markup.
func MarkupWidth(text string) int {
	return len([]rune(StripMarkup(text)))
}

// visibleWidth returns the display width of text in runes, skipping ANSI CSI
// escape sequences. The renderer uses it for prefixes that were decorated
// with ExpandMarkup before being set.
func visibleWidth(text string) int {
	width := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\x1b' && i+1 < len(runes) && runes[i+1] == '[' {
			// Skip to the final byte of the CSI sequence.
			i += 2
			for i < len(runes) && (runes[i] < '\x40' || runes[i] > '\x7e') {
				i++
			}
			continue
		}
		width++
	}
	return width
}

// ErrorAt prints message in bold red beneath the line the user just entered,
// with a caret aligned under column. Column is counted in runes from the
// start of the entered text; the prompt prefix width is added automatically.
// When the caret line would overflow the terminal, the caret and the message
// are printed on separate lines.
//
// This is meant for reporting parse errors against the submitted line:
//
//	result, _ := p.Run()
//	if col, err := parse(result); err != nil {
//		p.ErrorAt(col, err.Error())
//	}
func (p *Prompt) ErrorAt(column int, message string) {
	width, _, err := p.terminal.Size()
	if err != nil || width <= 0 {
		width = 80
	}

	if column < 0 {
		column = 0
	}
	indent := strings.Repeat(" ", column%width+visibleWidth(p.config.Prefix))

	if len(indent)+2+MarkupWidth(message) > width {
		p.Printf("%s^1^B^^^N\n", indent)
		p.Printf("^1^B%s^N\n", message)
		return
	}
	p.Printf("%s^1^B^^ %s^N\n", indent, message)
}
