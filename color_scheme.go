package cly

import (
	"fmt"
	"strings"
)

// ColorScheme controls the colors the renderer uses for each part of the
// display. Pass one with WithColorScheme or swap at runtime with SetTheme.
type ColorScheme struct {
	Name       string           `json:"name"`
	Prefix     Color            `json:"prefix"`
	Input      Color            `json:"input"`
	Suggestion SuggestionColors `json:"suggestion"`
	Selected   Color            `json:"selected"`
	Background *Color           `json:"background"` // nil for transparent
	Cursor     Color            `json:"cursor"`
}

// SuggestionColors colors the completion menu rows.
type SuggestionColors struct {
	Text        Color  `json:"text"`
	Description Color  `json:"description"`
	Match       Color  `json:"match"`
	Background  *Color `json:"background"` // nil for transparent
}

// Color is a 24-bit RGB color with an optional bold attribute.
type Color struct {
	R    uint8 `json:"r"`
	G    uint8 `json:"g"`
	B    uint8 `json:"b"`
	Bold bool  `json:"bold"`
}

// ThemeDefault is the default scheme: bold green prefix, white input.
var ThemeDefault = &ColorScheme{
	Name:   "default",
	Prefix: Color{R: 0, G: 255, B: 0, Bold: true},
	Input:  Color{R: 255, G: 255, B: 255, Bold: true},
	Suggestion: SuggestionColors{
		Text:        Color{R: 200, G: 200, B: 200},
		Description: Color{R: 128, G: 128, B: 128},
		Match:       Color{R: 255, G: 255, B: 0, Bold: true},
	},
	Selected: Color{R: 0, G: 255, B: 255, Bold: true},
	Cursor:   Color{R: 255, G: 255, B: 255, Bold: true},
}

// ThemeDark uses a cool palette suited to dark terminal backgrounds.
var ThemeDark = &ColorScheme{
	Name:   "Dark",
	Prefix: Color{R: 102, G: 217, B: 239, Bold: true},
	Input:  Color{R: 248, G: 248, B: 242},
	Suggestion: SuggestionColors{
		Text:        Color{R: 189, G: 147, B: 249},
		Description: Color{R: 98, G: 114, B: 164},
		Match:       Color{R: 255, G: 184, B: 108, Bold: true},
	},
	Selected:   Color{R: 80, G: 250, B: 123, Bold: true},
	Background: &Color{R: 40, G: 42, B: 54},
	Cursor:     Color{R: 248, G: 248, B: 242},
}

// ThemeLight suits light terminal backgrounds.
var ThemeLight = &ColorScheme{
	Name:   "Light",
	Prefix: Color{R: 0, G: 119, B: 187, Bold: true},
	Input:  Color{R: 36, G: 41, B: 46},
	Suggestion: SuggestionColors{
		Text:        Color{R: 88, G: 96, B: 105},
		Description: Color{R: 149, G: 157, B: 165},
		Match:       Color{R: 215, G: 58, B: 73, Bold: true},
	},
	Selected:   Color{R: 40, G: 167, B: 69, Bold: true},
	Background: &Color{R: 255, G: 255, B: 255},
	Cursor:     Color{R: 36, G: 41, B: 46},
}

// ThemeSolarizedDark is the Solarized Dark palette.
var ThemeSolarizedDark = &ColorScheme{
	Name:   "Solarized Dark",
	Prefix: Color{R: 133, G: 153, B: 0, Bold: true},
	Input:  Color{R: 147, G: 161, B: 161},
	Suggestion: SuggestionColors{
		Text:        Color{R: 131, G: 148, B: 150},
		Description: Color{R: 88, G: 110, B: 117},
		Match:       Color{R: 181, G: 137, B: 0, Bold: true},
	},
	Selected:   Color{R: 38, G: 139, B: 210, Bold: true},
	Background: &Color{R: 0, G: 43, B: 54},
	Cursor:     Color{R: 253, G: 246, B: 227},
}

// ThemeMonokai is the Monokai palette.
var ThemeMonokai = &ColorScheme{
	Name:   "Monokai",
	Prefix: Color{R: 249, G: 38, B: 114, Bold: true},
	Input:  Color{R: 248, G: 248, B: 242},
	Suggestion: SuggestionColors{
		Text:        Color{R: 166, G: 226, B: 46},
		Description: Color{R: 117, G: 113, B: 94},
		Match:       Color{R: 253, G: 151, B: 31, Bold: true},
	},
	Selected:   Color{R: 102, G: 217, B: 239, Bold: true},
	Background: &Color{R: 39, G: 40, B: 34},
	Cursor:     Color{R: 248, G: 248, B: 242},
}

// ToANSI converts the color to a true-color ANSI escape sequence.
func (c Color) ToANSI() string {
	var codes []string
	if c.Bold {
		codes = append(codes, "1")
	}
	codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", c.R, c.G, c.B))
	return fmt.Sprintf("\x1b[%sm", strings.Join(codes, ";"))
}

// Reset returns the ANSI reset sequence.
func Reset() string {
	return "\x1b[0m"
}
