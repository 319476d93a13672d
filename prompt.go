package cly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Sentinel errors returned from Run and RunWithContext.
var (
	// ErrEOF is returned when Ctrl+D is pressed on an empty line, or when
	// the input stream ends mid-edit.
	ErrEOF = errors.New("EOF")
	// ErrInterrupted is returned when the line is cancelled with Ctrl+C.
	ErrInterrupted = errors.New("interrupted")
)

// Prompt represents an interactive terminal editor session.
type Prompt struct {
	config         Config
	output         io.Writer
	history        []string
	historyManager *HistoryManager
	buffer         []rune
	cursor         int
	renderer       *renderer
	terminal       terminalInterface
	keyMap         *KeyMap
	bindings       *BindingTable
	pushback       rune
	hasPushback    bool
}

// KeyAction identifies a built-in editing action a key can map to.
type KeyAction int

// The built-in editing actions. ActionNone means the key is unmapped and,
// for printable characters, self-inserts.
const (
	ActionNone KeyAction = iota
	ActionSubmit
	ActionCancel
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionMoveHome
	ActionMoveEnd
	ActionMoveWordLeft
	ActionMoveWordRight
	ActionDeleteChar
	ActionDeleteLine
	ActionDeleteToEnd
	ActionDeleteWordBack
	ActionComplete
	ActionHistoryUp
	ActionHistoryDown
	ActionHistorySearch
	ActionNewLine
)

// KeyMap holds the key binding configuration for the built-in editing
// actions. Keys intercepted through a BindingTable are consulted first and
// never reach the key map.
type KeyMap struct {
	bindings  map[rune]KeyAction
	sequences map[string]KeyAction
}

// NewDefaultKeyMap returns the emacs-style default bindings. Modify the
// returned map with Bind and BindSequence, or build one from scratch and
// pass it through WithKeyMap.
//
// The defaults:
//   - Enter submits, Ctrl+C cancels
//   - Ctrl+A/Home and Ctrl+E/End jump to line start and end
//   - Ctrl+K kills to end of line, Ctrl+U kills the whole line
//   - Ctrl+W deletes the word behind the cursor
//   - Ctrl+R opens reverse history search
//   - Tab completes
//   - Backspace and Delete remove a character
//   - Arrows move the cursor and walk history
//   - Ctrl+Left/Right move by word
//
// Example:
//
//	keyMap := cly.NewDefaultKeyMap()
//	keyMap.Bind('\x0E', cly.ActionNewLine) // Ctrl+N inserts a newline
//
//	p, _ := cly.New("$ ", cly.WithKeyMap(keyMap))
func NewDefaultKeyMap() *KeyMap {
	km := &KeyMap{
		bindings:  make(map[rune]KeyAction),
		sequences: make(map[string]KeyAction),
	}

	km.bindings['\r'] = ActionSubmit
	km.bindings['\n'] = ActionSubmit
	km.bindings['\x03'] = ActionCancel         // Ctrl+C
	km.bindings['\x01'] = ActionMoveHome       // Ctrl+A
	km.bindings['\x05'] = ActionMoveEnd        // Ctrl+E
	km.bindings['\x0B'] = ActionDeleteToEnd    // Ctrl+K
	km.bindings['\x15'] = ActionDeleteLine     // Ctrl+U
	km.bindings['\x17'] = ActionDeleteWordBack // Ctrl+W
	km.bindings['\x12'] = ActionHistorySearch  // Ctrl+R
	km.bindings['\t'] = ActionComplete
	km.bindings['\x7f'] = ActionDeleteChar // Backspace
	km.bindings['\b'] = ActionDeleteChar   // Backspace

	// Escape sequences
	km.sequences["[A"] = ActionMoveUp
	km.sequences["[B"] = ActionMoveDown
	km.sequences["[C"] = ActionMoveRight
	km.sequences["[D"] = ActionMoveLeft
	km.sequences["[H"] = ActionMoveHome
	km.sequences["[F"] = ActionMoveEnd
	km.sequences["[1;5C"] = ActionMoveWordRight // Ctrl+Right
	km.sequences["[1;5D"] = ActionMoveWordLeft  // Ctrl+Left
	km.sequences["[3~"] = ActionDeleteChar      // Delete

	return km
}

// Bind maps a single-rune key to a built-in action, replacing any previous
// mapping. Control characters bind by their control code, printable
// characters by their rune value. To run your own code on a key press
// instead of a built-in action, use Prompt.BindKey.
//
// Example:
//
//	keyMap := cly.NewDefaultKeyMap()
//	// Ctrl+L clears the current line
//	keyMap.Bind('\x0C', cly.ActionDeleteLine)
func (km *KeyMap) Bind(key rune, action KeyAction) {
	km.bindings[key] = action
}

// BindSequence maps an escape sequence to a built-in action. The sequence is
// the characters after the initial ESC, so arrow keys, function keys, and
// modified keys all bind here.
//
// Example:
//
//	keyMap := cly.NewDefaultKeyMap()
//	// F1 (ESC O P)
//	keyMap.BindSequence("OP", cly.ActionComplete)
//	// Page Up (ESC [ 5 ~)
//	keyMap.BindSequence("[5~", cly.ActionHistoryUp)
func (km *KeyMap) BindSequence(seq string, action KeyAction) {
	km.sequences[seq] = action
}

// GetAction returns the action mapped to key. Unmapped keys, and any key on
// a nil map, report ActionNone.
func (km *KeyMap) GetAction(key rune) KeyAction {
	if km == nil || km.bindings == nil {
		return ActionNone
	}
	if action, exists := km.bindings[key]; exists {
		return action
	}
	return ActionNone
}

// GetSequenceAction returns the action mapped to an escape sequence, or
// ActionNone when unmapped.
func (km *KeyMap) GetSequenceAction(seq string) KeyAction {
	if km == nil || km.sequences == nil {
		return ActionNone
	}
	if action, exists := km.sequences[seq]; exists {
		return action
	}
	return ActionNone
}

// HistoryConfig controls history limits and persistence.
//
// File accepts several path forms:
//   - "" for memory-only history, nothing is written
//   - an absolute path: "/home/user/.app_history"
//   - a home-relative path: "~/.app_history"
//   - a relative path: "./app_history", resolved to absolute
//   - DefaultHistoryFileFor("myapp") for the XDG location
//     "~/.config/cly/myapp_history"
type HistoryConfig struct {
	Enabled     bool   // history on or off
	MaxEntries  int    // entries kept in memory, 1000 when unset
	File        string // persistence path, "" keeps history in memory only
	MaxFileSize int64  // rotation threshold in bytes, 1MB when unset
	MaxBackups  int    // rotated files kept, 3 when unset
}

// Config collects everything a prompt is built from. Zero fields get
// defaults in New; most callers set fields through options instead of
// touching Config directly.
type Config struct {
	Prefix        string                      // text printed before the edit line
	Completer     func(Document) []Suggestion // completion callback, nil disables Tab
	HistoryConfig *HistoryConfig              // nil for the defaults
	ColorScheme   *ColorScheme                // nil for ThemeDefault
	KeyMap        *KeyMap                     // built-in action bindings, nil for defaults
	Bindings      *BindingTable               // byte-level key handlers, nil for a fresh table
	Multiline     bool                        // allow the buffer to hold newlines
}

// Option mutates a Config before the prompt is built.
type Option func(*Config)

// WithCompleter sets the completion callback invoked on Tab.
func WithCompleter(completer func(Document) []Suggestion) Option {
	return func(c *Config) {
		c.Completer = completer
	}
}

// WithHistory sets the full history configuration in one call.
//
// Example:
//
//	cly.New("$ ", cly.WithHistory(&cly.HistoryConfig{
//		Enabled:     true,
//		MaxEntries:  100,
//		File:        "~/.myapp_history",
//	}))
func WithHistory(historyConfig *HistoryConfig) Option {
	return func(c *Config) {
		c.HistoryConfig = historyConfig
	}
}

// WithMemoryHistory enables history without persistence. Non-positive
// maxEntries falls back to 1000.
//
// Example:
//
//	cly.New("$ ", cly.WithMemoryHistory(100))
func WithMemoryHistory(maxEntries int) Option {
	return func(c *Config) {
		if maxEntries <= 0 {
			maxEntries = 1000
		}
		c.HistoryConfig = &HistoryConfig{
			Enabled:    true,
			MaxEntries: maxEntries,
			File:       "",
		}
	}
}

// WithFileHistory enables history persisted to file, with the default 1MB
// rotation threshold and 3 backups.
//
// Example:
//
//	cly.New("$ ", cly.WithFileHistory("~/.myapp_history", 100))
func WithFileHistory(file string, maxEntries int) Option {
	return func(c *Config) {
		if maxEntries <= 0 {
			maxEntries = 1000
		}
		c.HistoryConfig = &HistoryConfig{
			Enabled:     true,
			MaxEntries:  maxEntries,
			File:        file,
			MaxFileSize: 1024 * 1024,
			MaxBackups:  3,
		}
	}
}

// WithColorScheme sets the rendering colors. See the Theme variables for
// ready-made schemes.
func WithColorScheme(colorScheme *ColorScheme) Option {
	return func(c *Config) {
		c.ColorScheme = colorScheme
	}
}

// WithKeyMap replaces the default key map for built-in actions.
func WithKeyMap(keyMap *KeyMap) Option {
	return func(c *Config) {
		c.KeyMap = keyMap
	}
}

// WithBindings injects a byte-level binding table prepared before the prompt
// exists. This lets native code or a script engine install key handlers up
// front, and lets several prompts share one set of handlers.
//
// Example:
//
//	table := cly.NewBindingTable()
//	table.Bind('?', helpHandler)
//	p, err := cly.New("$ ", cly.WithBindings(table))
func WithBindings(table *BindingTable) Option {
	return func(c *Config) {
		c.Bindings = table
	}
}

// WithMultiline marks the prompt as accepting multi-line input.
func WithMultiline(multiline bool) Option {
	return func(c *Config) {
		c.Multiline = multiline
	}
}

// Suggestion is one completion candidate. Text is inserted on accept;
// Description is shown next to it in the suggestion menu.
type Suggestion struct {
	Text        string
	Description string
}

// Document is the editing state handed to completion callbacks: the whole
// buffer plus the cursor offset into it.
type Document struct {
	Text           string
	CursorPosition int
}

// TextBeforeCursor returns the text up to the cursor. An out-of-range
// cursor returns the whole text.
func (d *Document) TextBeforeCursor() string {
	if d.CursorPosition < 0 || d.CursorPosition > len(d.Text) {
		return d.Text
	}
	return d.Text[:d.CursorPosition]
}

// TextAfterCursor returns the text from the cursor to the end. An
// out-of-range cursor returns "".
func (d *Document) TextAfterCursor() string {
	if d.CursorPosition < 0 || d.CursorPosition >= len(d.Text) {
		return ""
	}
	return d.Text[d.CursorPosition:]
}

// GetWordBeforeCursor returns the word the cursor sits at the end of, or ""
// when the cursor follows whitespace. Words are delimited by spaces, tabs,
// and newlines.
func (d *Document) GetWordBeforeCursor() string {
	text := d.TextBeforeCursor()
	if text == "" || strings.ContainsAny(text[len(text)-1:], " \t\n") {
		return ""
	}
	if idx := strings.LastIndexAny(text, " \t\n"); idx >= 0 {
		return text[idx+1:]
	}
	return text
}

// CurrentLine returns the full buffer text.
func (d *Document) CurrentLine() string {
	return d.Text
}

// New creates a prompt with the given prefix, applying any options over the
// defaults. It opens the controlling terminal and loads persisted history,
// so it can fail; call Close when done with the prompt.
//
// Example:
//
//	p, err := cly.New("$ ",
//		cly.WithCompleter(cly.NewFuzzyCompleter([]string{"status", "commit"})),
//		cly.WithMemoryHistory(100),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	result, err := p.Run()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("read:", result)
func New(prefix string, options ...Option) (*Prompt, error) {
	config := Config{
		Prefix: prefix,
	}
	for _, option := range options {
		option(&config)
	}
	return newFromConfig(config)
}

func newFromConfig(config Config) (*Prompt, error) {
	if config.HistoryConfig == nil {
		config.HistoryConfig = DefaultHistoryConfig()
	} else {
		// Fill in whatever the caller left unset
		if config.HistoryConfig.MaxEntries <= 0 {
			config.HistoryConfig.MaxEntries = 1000
		}
		if config.HistoryConfig.MaxFileSize <= 0 {
			config.HistoryConfig.MaxFileSize = 1024 * 1024
		}
		if config.HistoryConfig.MaxBackups <= 0 {
			config.HistoryConfig.MaxBackups = 3
		}
	}
	if config.ColorScheme == nil {
		config.ColorScheme = ThemeDefault
	}
	if config.KeyMap == nil {
		config.KeyMap = NewDefaultKeyMap()
	}
	if config.Bindings == nil {
		config.Bindings = NewBindingTable()
	}

	// ANSI handling per platform: translate escapes on Windows, strip them
	// when stdout is not a terminal so redirected output stays readable.
	var output io.Writer = os.Stdout
	if runtime.GOOS == "windows" {
		output = colorable.NewColorableStdout()
	} else if !isatty.IsTerminal(os.Stdout.Fd()) {
		output = colorable.NewNonColorable(os.Stdout)
	}

	terminal, err := newRealTerminal()
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal: %w", err)
	}

	historyManager := NewHistoryManager(config.HistoryConfig)
	if err := historyManager.LoadHistory(); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	p := &Prompt{
		config:         config,
		output:         output,
		history:        historyManager.GetHistory(),
		historyManager: historyManager,
		terminal:       terminal,
		keyMap:         config.KeyMap,
		bindings:       config.Bindings,
	}
	p.renderer = newRenderer(output, config.ColorScheme)

	return p, nil
}

// Run reads one line of input interactively and returns it. It is
// RunWithContext with a background context: editing continues until the
// line is submitted with Enter or ended by Ctrl+C, Ctrl+D, or a read error.
func (p *Prompt) Run() (string, error) {
	return p.RunWithContext(context.Background())
}

// RunWithContext reads one line of input interactively, honoring ctx:
// cancellation or deadline expiry ends the session with the context's error.
// The check happens between key presses, so a blocked read returns on the
// next key.
//
// Each session starts with an empty buffer. Keys with a handler in the
// prompt's BindingTable are intercepted before anything else: the handler
// runs with the pending repeat count and the key code, and the press is
// consumed. All remaining keys go through the KeyMap. ESC followed by digits
// enters a numeric argument that applies to the next key, so ESC 3 x inserts
// "xxx" and ESC 5 ? dispatches the '?' handler with count 5.
//
// Example with timeout:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	p, _ := cly.New("Command: ")
//	defer p.Close()
//
//	input, err := p.RunWithContext(ctx)
//	if errors.Is(err, context.DeadlineExceeded) {
//		fmt.Println("timed out")
//		return
//	}
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("read:", input)
func (p *Prompt) RunWithContext(ctx context.Context) (string, error) {
	if err := p.enterRawMode(); err != nil {
		return "", fmt.Errorf("failed to enter raw mode: %w", err)
	}

	restored := false
	defer func() {
		if !restored {
			if err := p.exitRawMode(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to exit raw mode: %v\n", err)
			}
		}
	}()

	p.buffer = []rune{}
	p.cursor = 0
	if err := p.render(); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}

	historyIndex := len(p.history)
	repeatArg := 0
	var suggestions []Suggestion
	selectedSuggestion := 0
	suggestionOffset := 0 // first visible row of the suggestion window

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		r, err := p.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrEOF
			}
			return "", fmt.Errorf("failed to read input: %w", err)
		}

		// A pending numeric argument applies to this key press
		count := repeatArg
		repeatArg = 0
		if count < 1 {
			count = 1
		}

		// Keys bound in the binding table are intercepted ahead of the
		// built-in keymap, so a bound '?' no longer self-inserts and a
		// bound Ctrl+C no longer cancels.
		if p.bindings.Bound(int(r)) {
			p.bindings.Dispatch(count, int(r))
			suggestions = nil
			historyIndex = len(p.history)
			if err := p.render(); err != nil {
				return "", fmt.Errorf("failed to render: %w", err)
			}
			continue
		}

		var action KeyAction

		// Handle escape sequences
		if r == '\x1b' {
			first, err := p.readRune()
			if err != nil {
				continue
			}
			if first >= '0' && first <= '9' {
				// Meta-digit numeric argument: ESC 1 2 followed by a
				// key applies that key twelve times.
				arg := int(first - '0')
				for {
					next, err := p.readRune()
					if err != nil {
						break
					}
					if next >= '0' && next <= '9' {
						arg = arg*10 + int(next-'0')
						continue
					}
					p.unreadRune(next)
					break
				}
				repeatArg = arg
				continue
			}
			p.unreadRune(first)
			seq, err := p.readEscapeSequence()
			if err != nil {
				continue
			}
			action = p.keyMap.GetSequenceAction(seq)
		} else {
			action = p.keyMap.GetAction(r)
		}

		switch action {
		case ActionSubmit:
			// With a menu open, Enter accepts the selection instead of
			// submitting the line.
			if len(suggestions) > 0 {
				p.acceptSuggestion(suggestions[selectedSuggestion])
				suggestions = nil
			} else {
				// A multi-line buffer grows by another line; see isShiftEnter.
				if p.isShiftEnter() {
					p.insertRune('\n')
					suggestions = nil
				} else {
					result := string(p.buffer)
					if result != "" && (len(p.history) == 0 || p.history[len(p.history)-1] != result) {
						p.addToHistory(result)
					}
					fmt.Fprint(p.output, "\r\n")
					return result, nil
				}
			}

		case ActionCancel:
			// Leave raw mode before printing so ^C lands on its own line.
			if err := p.exitRawMode(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to restore terminal state: %v\n", err)
			}
			restored = true
			fmt.Fprint(p.output, "^C\r\n")
			return "", ErrInterrupted

		case ActionMoveLeft:
			if p.cursor > 0 {
				p.cursor--
			}

		case ActionMoveRight:
			// Right arrow doubles as "accept selection" while the menu is up.
			if len(suggestions) > 0 {
				p.acceptSuggestion(suggestions[selectedSuggestion])
				suggestions = nil
			} else if p.cursor < len(p.buffer) {
				p.cursor++
			}

		case ActionMoveUp:
			switch {
			case len(suggestions) > 0:
				if selectedSuggestion > 0 {
					selectedSuggestion--
					if selectedSuggestion < suggestionOffset {
						suggestionOffset = selectedSuggestion
					}
				}
			case p.isMultiLine():
				p.cursor = p.findCursorUp()
			default:
				// Walk back through history
				if historyIndex > 0 {
					historyIndex--
					p.setBuffer(p.history[historyIndex])
					suggestions = nil
				}
			}

		case ActionMoveDown:
			switch {
			case len(suggestions) > 0:
				maxDisplayed := 10 // window size of the suggestion menu
				if selectedSuggestion < len(suggestions)-1 {
					selectedSuggestion++
					if selectedSuggestion >= suggestionOffset+maxDisplayed {
						suggestionOffset = selectedSuggestion - maxDisplayed + 1
					}
				}
			case p.isMultiLine():
				p.cursor = p.findCursorDown()
			default:
				// Walk forward through history; past the newest entry the
				// line goes back to empty.
				if historyIndex < len(p.history) {
					historyIndex++
					if historyIndex == len(p.history) {
						p.setBuffer("")
					} else {
						p.setBuffer(p.history[historyIndex])
					}
					suggestions = nil
				}
			}

		case ActionMoveHome:
			if p.isMultiLine() {
				p.cursor = p.findLineStart()
			} else {
				p.cursor = 0
			}

		case ActionMoveEnd:
			if p.isMultiLine() {
				p.cursor = p.findLineEnd()
			} else {
				p.cursor = len(p.buffer)
			}

		case ActionMoveWordLeft:
			p.cursor = p.findWordBoundary(-1)

		case ActionMoveWordRight:
			p.cursor = p.findWordBoundary(1)

		case ActionDeleteChar:
			// Backspace removes behind the cursor, Delete removes under it.
			if r == '\x7f' || r == '\b' {
				if p.cursor > 0 {
					p.buffer = append(p.buffer[:p.cursor-1], p.buffer[p.cursor:]...)
					p.cursor--
					suggestions = nil
				}
			} else {
				if p.cursor < len(p.buffer) {
					p.buffer = append(p.buffer[:p.cursor], p.buffer[p.cursor+1:]...)
					suggestions = nil
				}
			}

		case ActionDeleteLine:
			p.buffer = []rune{}
			p.cursor = 0

		case ActionDeleteToEnd:
			if p.isMultiLine() {
				lineEnd := p.findLineEnd()
				p.buffer = append(p.buffer[:p.cursor], p.buffer[lineEnd:]...)
			} else {
				p.buffer = p.buffer[:p.cursor]
			}

		case ActionDeleteWordBack:
			if p.cursor > 0 {
				newPos := p.findWordBoundary(-1)
				p.buffer = append(p.buffer[:newPos], p.buffer[p.cursor:]...)
				p.cursor = newPos
				suggestions = nil
			}

		case ActionComplete:
			if p.config.Completer != nil {
				if len(suggestions) > 0 {
					// Second Tab accepts the selection
					p.acceptSuggestion(suggestions[selectedSuggestion])
					suggestions = nil
				} else {
					doc := Document{
						Text:           string(p.buffer),
						CursorPosition: p.cursor,
					}
					suggestions = p.config.Completer(doc)
					selectedSuggestion = 0
					suggestionOffset = 0

					// Keep only candidates matching the word being typed;
					// mid-word the completer's output is a superset.
					currentWord := doc.GetWordBeforeCursor()
					if currentWord != "" {
						filteredSuggestions := make([]Suggestion, 0)
						for _, suggestion := range suggestions {
							if strings.HasPrefix(suggestion.Text, currentWord) {
								filteredSuggestions = append(filteredSuggestions, suggestion)
							}
						}
						suggestions = filteredSuggestions
					}

					// A single candidate is taken immediately; several open
					// the menu; none leaves the line alone.
					if len(suggestions) == 0 {
						suggestions = nil
					} else if len(suggestions) == 1 {
						p.acceptSuggestion(suggestions[0])
						suggestions = nil
					}
				}
			}

		case ActionHistoryUp:
			if historyIndex > 0 {
				historyIndex--
				p.setBuffer(p.history[historyIndex])
				suggestions = nil
			}

		case ActionHistoryDown:
			if historyIndex < len(p.history) {
				historyIndex++
				if historyIndex == len(p.history) {
					p.setBuffer("")
				} else {
					p.setBuffer(p.history[historyIndex])
				}
				suggestions = nil
			}

		case ActionHistorySearch:
			if result, err := p.searchHistory(); err == nil && result != "" {
				p.setBuffer(result)
				historyIndex = len(p.history)
			}
			// The search UI drew over the prompt; repaint it
			if err := p.render(); err != nil {
				return "", fmt.Errorf("failed to render prompt: %w", err)
			}

		case ActionNewLine:
			p.insertRune('\n')
			suggestions = nil

		default:
			if r >= 32 && r < 127 || r > 127 {
				// Self-insert, repeated for a pending numeric argument
				for i := 0; i < count; i++ {
					p.insertRune(r)
				}
				suggestions = nil
				historyIndex = len(p.history)
			} else if r == '\x04' { // Ctrl+D
				if len(p.buffer) == 0 {
					return "", io.EOF
				}
			}
		}

		if err := p.renderWithSuggestionsOffset(suggestions, selectedSuggestion, suggestionOffset); err != nil {
			return "", fmt.Errorf("failed to render: %w", err)
		}
	}
}

// Close releases the prompt: it restores cursor visibility, saves history
// if persistence is configured, and closes the terminal. Safe to call more
// than once; defer it next to New.
func (p *Prompt) Close() error {
	if p.output != nil {
		fmt.Fprint(p.output, "\x1b[?25h") // cursor back on
		fmt.Fprint(p.output, "\n")
	}

	// A failed history save should not block terminal cleanup
	if p.historyManager != nil {
		if err := p.historyManager.SaveHistory(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
		}
	}

	if p.terminal != nil {
		return p.terminal.Close()
	}
	return nil
}

// Key binding methods

// BindKey installs h as the handler for key in the prompt's binding table.
//
// Bound keys are intercepted ahead of the built-in keymap: the handler runs
// with the press's repeat count and key code, and the key does nothing else.
// Key codes follow the byte the terminal sends, so printable characters bind
// by their rune value and control keys by their control code. See
// BindingTable for validation and failure handling.
//
// Example:
//
//	err := p.BindKey('?', cly.HandlerFunc(func(count, key int) error {
//		p.Printf("\ntry: list, add <item>, quit\n")
//		p.ForceRedisplay()
//		return nil
//	}))
func (p *Prompt) BindKey(key int, h Handler) error {
	return p.bindings.Bind(key, h)
}

// UnbindKey removes a handler installed with BindKey, returning the key to
// its default behavior.
func (p *Prompt) UnbindKey(key int) error {
	return p.bindings.Unbind(key)
}

// Bindings returns the prompt's binding table, for installing an error hook
// or handing the table to a script engine.
func (p *Prompt) Bindings() *BindingTable {
	return p.bindings
}

// Editing surface methods, callable from key handlers

// Cursor returns the cursor offset in the edit buffer, counted in runes.
func (p *Prompt) Cursor() int {
	return p.cursor
}

// SetCursor moves the cursor to offset and returns the position actually
// set. Offsets are clamped to the buffer: negative values become 0 and
// values past the end become the buffer length. SetCursor never fails.
func (p *Prompt) SetCursor(offset int) int {
	if offset < 0 {
		offset = 0
	}
	if offset > len(p.buffer) {
		offset = len(p.buffer)
	}
	p.cursor = offset
	return p.cursor
}

// Buffer returns the current contents of the edit buffer.
func (p *Prompt) Buffer() string {
	return string(p.buffer)
}

// SetBuffer replaces the edit buffer with text and moves the cursor to the
// end.
func (p *Prompt) SetBuffer(text string) {
	p.setBuffer(text)
}

// Insert inserts text at the cursor and advances the cursor past it.
func (p *Prompt) Insert(text string) {
	p.insertText(text)
}

// ForceRedisplay repaints the prefix, buffer, and cursor immediately, even
// when the renderer believes the screen is current. Key handlers that write
// output call this to restore the edit line below their text. It never
// fails; write errors are dropped.
func (p *Prompt) ForceRedisplay() {
	if p.renderer == nil {
		return
	}
	p.renderer.invalidate()
	_ = p.renderer.render(p.config.Prefix, string(p.buffer), p.cursor)
}

// Printf writes formatted text to the prompt's output, expanding caret
// markup (see ExpandMarkup) and converting newlines to the CRLF form raw
// mode needs. Handlers print through it and then call ForceRedisplay to
// repaint the edit line.
func (p *Prompt) Printf(format string, a ...any) {
	text := ExpandMarkup(fmt.Sprintf(format, a...))
	text = strings.ReplaceAll(text, "\n", "\r\n")
	fmt.Fprint(p.output, text)
}

// Print writes text like Printf but without format expansion, so percent
// signs in user-supplied text pass through untouched.
func (p *Prompt) Print(text string) {
	p.Printf("%s", text)
}

// Helper methods

func (p *Prompt) insertRune(r rune) {
	p.buffer = append(p.buffer[:p.cursor], append([]rune{r}, p.buffer[p.cursor:]...)...)
	p.cursor++
}

func (p *Prompt) insertText(text string) {
	runes := []rune(text)
	p.buffer = append(p.buffer[:p.cursor], append(runes, p.buffer[p.cursor:]...)...)
	p.cursor += len(runes)
}

func (p *Prompt) setBuffer(text string) {
	p.buffer = []rune(text)
	p.cursor = len(p.buffer)
}

// acceptSuggestion folds a chosen suggestion into the buffer. How depends
// on where the cursor sits: after whitespace the text is inserted whole;
// at the end of a word the suggestion either extends the word (when it is a
// prefix match) or is appended as a new word; inside a word the word is
// replaced outright.
func (p *Prompt) acceptSuggestion(suggestion Suggestion) {
	doc := Document{
		Text:           string(p.buffer),
		CursorPosition: p.cursor,
	}
	beforeCursor := doc.TextBeforeCursor()
	currentWord := doc.GetWordBeforeCursor()

	if currentWord == "" {
		p.insertText(suggestion.Text)
	} else if strings.HasPrefix(suggestion.Text, currentWord) {
		// "cre" + accept "create" inserts just "ate"
		suffix := suggestion.Text[len(currentWord):]
		p.insertText(suffix)
	} else {
		if p.cursor == len(p.buffer) || !isWordChar(p.buffer[p.cursor]) {
			// Append as a subcommand, separated by a space
			if beforeCursor != "" && !strings.HasSuffix(beforeCursor, " ") {
				p.insertText(" ")
			}
			p.insertText(suggestion.Text)
		} else {
			// Mid-word: swap the whole word out
			wordStart, wordEnd := p.getCurrentWordBounds()
			p.buffer = append(p.buffer[:wordStart], append([]rune(suggestion.Text), p.buffer[wordEnd:]...)...)
			p.cursor = wordStart + len([]rune(suggestion.Text))
		}
	}
}

// getCurrentWordBounds returns the extent of the word around the cursor.
func (p *Prompt) getCurrentWordBounds() (start, end int) {
	start = p.cursor
	for start > 0 && isWordChar(p.buffer[start-1]) {
		start--
	}
	end = p.cursor
	for end < len(p.buffer) && isWordChar(p.buffer[end]) {
		end++
	}
	return start, end
}

// History methods

// GetHistory returns a copy of the command history, oldest first. With
// history disabled it returns an empty slice.
func (p *Prompt) GetHistory() []string {
	if p.historyManager != nil && p.historyManager.IsEnabled() {
		return p.historyManager.GetHistory()
	}
	if p.historyManager != nil && !p.historyManager.IsEnabled() {
		return []string{}
	}
	return append([]string{}, p.history...)
}

// AddHistory appends a command to the history. Empty commands and exact
// repeats of the newest entry are dropped; the history is trimmed to the
// configured maximum. With history disabled this is a no-op.
func (p *Prompt) AddHistory(command string) {
	if command == "" {
		return
	}
	if p.historyManager != nil && p.historyManager.IsEnabled() {
		p.historyManager.AddEntry(command)
		p.syncHistoryAfterAdd()
	} else if p.historyManager == nil {
		// No manager: keep a plain in-memory list with the same rules
		if len(p.history) > 0 && p.history[len(p.history)-1] == command {
			return
		}
		p.history = append(p.history, command)
		maxEntries := 1000
		if p.config.HistoryConfig != nil && p.config.HistoryConfig.MaxEntries > 0 {
			maxEntries = p.config.HistoryConfig.MaxEntries
		}
		if len(p.history) > maxEntries {
			p.history = p.history[len(p.history)-maxEntries:]
		}
	}
}

// ClearHistory removes every history entry.
func (p *Prompt) ClearHistory() {
	if p.historyManager != nil && p.historyManager.IsEnabled() {
		p.historyManager.ClearHistory()
	}
	p.history = []string{}
}

// SetHistory replaces the history wholesale, trimming to the configured
// maximum from the oldest end.
func (p *Prompt) SetHistory(history []string) {
	if p.historyManager != nil && p.historyManager.IsEnabled() {
		p.historyManager.SetHistory(history)
		p.history = p.historyManager.GetHistory()
	} else {
		p.history = append([]string{}, history...)
	}
	maxEntries := 1000
	if p.config.HistoryConfig != nil && p.config.HistoryConfig.MaxEntries > 0 {
		maxEntries = p.config.HistoryConfig.MaxEntries
	}
	if len(p.history) > maxEntries {
		p.history = p.history[len(p.history)-maxEntries:]
		if p.historyManager != nil && p.historyManager.IsEnabled() {
			p.historyManager.SetHistory(p.history)
		}
	}
}

// Configuration update methods

// SetTheme swaps the color scheme; the next render uses it.
func (p *Prompt) SetTheme(theme *ColorScheme) {
	p.config.ColorScheme = theme
	p.renderer = newRenderer(p.output, theme)
}

// SetPrefix changes the prompt prefix. Prefixes may carry caret markup when
// passed through ExpandMarkup first.
func (p *Prompt) SetPrefix(prefix string) {
	p.config.Prefix = prefix
}

// SetCompleter swaps the completion callback.
func (p *Prompt) SetCompleter(completer func(Document) []Suggestion) {
	p.config.Completer = completer
}

// fuzzyCompleter matches input against a fixed candidate list.
type fuzzyCompleter struct {
	candidates []string
}

// NewFuzzyCompleter returns a completer over a fixed candidate list, for
// use with WithCompleter. Candidates are ranked by match quality: exact
// match, then prefix, then substring, then scattered in-order characters.
// An empty input offers every candidate.
//
// Example:
//
//	candidates := []string{
//		"git status", "git commit", "git push", "git pull",
//		"docker run", "docker build", "docker ps",
//	}
//
//	p, _ := cly.New("$ ", cly.WithCompleter(cly.NewFuzzyCompleter(candidates)))
//	defer p.Close()
//	result, _ := p.Run()
func NewFuzzyCompleter(candidates []string) func(Document) []Suggestion {
	fc := &fuzzyCompleter{
		candidates: candidates,
	}
	return fc.Complete
}

// Complete scores every candidate against the text before the cursor and
// returns the hits, best first. The numeric score lands in the Description
// field, which the menu shows next to each candidate.
func (f *fuzzyCompleter) Complete(d Document) []Suggestion {
	input := d.TextBeforeCursor()
	if input == "" {
		suggestions := make([]Suggestion, len(f.candidates))
		for i, candidate := range f.candidates {
			suggestions[i] = Suggestion{Text: candidate}
		}
		return suggestions
	}

	var matches []fuzzyMatch
	inputLower := strings.ToLower(input)

	for _, candidate := range f.candidates {
		if score := calculateFuzzyScore(inputLower, strings.ToLower(candidate), false); score > 0 {
			matches = append(matches, fuzzyMatch{
				text:  candidate,
				score: score,
			})
		}
	}
	sortMatches(matches)

	suggestions := make([]Suggestion, len(matches))
	for i, match := range matches {
		suggestions[i] = Suggestion{
			Text:        match.text,
			Description: fmt.Sprintf("score: %d", match.score),
		}
	}
	return suggestions
}

type fuzzyMatch struct {
	text  string
	score int
}

// sortMatches orders by descending score. Ties land in no particular order.
func sortMatches(matches []fuzzyMatch) {
	for i := 0; i < len(matches)-1; i++ {
		for j := i + 1; j < len(matches); j++ {
			if matches[i].score < matches[j].score {
				matches[i], matches[j] = matches[j], matches[i]
			}
		}
	}
}

// findWordBoundary returns the cursor position after one word-wise move.
// direction > 0 lands just past the end of the current or next word
// (Ctrl+Right); direction < 0 lands at the start of the current or
// previous word (Ctrl+Left, Ctrl+W).
func (p *Prompt) findWordBoundary(direction int) int {
	if direction > 0 {
		pos := p.cursor
		for pos < len(p.buffer) && !isWordChar(p.buffer[pos]) {
			pos++
		}
		for pos < len(p.buffer) && isWordChar(p.buffer[pos]) {
			pos++
		}
		return pos
	}
	pos := p.cursor
	if pos > 0 {
		pos--
	}
	for pos > 0 && !isWordChar(p.buffer[pos]) {
		pos--
	}
	for pos > 0 && isWordChar(p.buffer[pos-1]) {
		pos--
	}
	return pos
}

// isWordChar reports whether r belongs to a word for navigation purposes.
// Letters, digits and underscore count; everything else separates words.
func isWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

// historySearcher backs reverse-i-search over a history snapshot.
type historySearcher struct {
	history []string
}

// NewHistorySearcher returns a search function over the given history, the
// same machinery Ctrl+R uses. An empty query returns the full history in
// its original order; otherwise entries are fuzzy-scored and returned best
// match first.
//
// Example:
//
//	search := cly.NewHistorySearcher(p.GetHistory())
//	matches := search("git") // git commands, best match first
func NewHistorySearcher(history []string) func(string) []string {
	hs := &historySearcher{
		history: history,
	}
	return hs.Search
}

// Search scores every history entry against the query with the same
// scoring the fuzzy completer uses and returns the hits, best first.
func (h *historySearcher) Search(query string) []string {
	if query == "" {
		return h.history
	}

	var matches []fuzzyMatch
	queryLower := strings.ToLower(query)

	for _, command := range h.history {
		if score := calculateFuzzyScore(queryLower, strings.ToLower(command), false); score > 0 {
			matches = append(matches, fuzzyMatch{
				text:  command,
				score: score,
			})
		}
	}
	sortMatches(matches)

	results := make([]string, len(matches))
	for i, match := range matches {
		results[i] = match.text
	}
	return results
}

// searchHistory runs the reverse-i-search loop until the user accepts a
// result with Enter or cancels with Ctrl+C or Escape. Tab cycles through
// the matches; every other edit re-runs the search from scratch.
func (p *Prompt) searchHistory() (string, error) {
	search := NewHistorySearcher(p.history)
	searchBuffer := []rune{}
	searchResults := search("")
	selectedIndex := 0

	for {
		p.renderHistorySearch(string(searchBuffer), searchResults, selectedIndex)

		r, err := p.readRune()
		if err != nil {
			return "", err
		}

		switch r {
		case '\r', '\n':
			// Accept the selection, or the raw query when nothing matched.
			if selectedIndex < len(searchResults) {
				return searchResults[selectedIndex], nil
			}
			return string(searchBuffer), nil

		case '\x03', '\x1b': // Ctrl+C / Escape
			return "", nil

		case '\x7f', '\b':
			if len(searchBuffer) > 0 {
				searchBuffer = searchBuffer[:len(searchBuffer)-1]
				searchResults = search(string(searchBuffer))
				selectedIndex = 0
			}

		case '\t':
			if len(searchResults) > 0 {
				selectedIndex = (selectedIndex + 1) % len(searchResults)
			}

		default:
			if r >= 32 && r < 127 || r > 127 {
				searchBuffer = append(searchBuffer, r)
				searchResults = search(string(searchBuffer))
				selectedIndex = 0
			}
		}
	}
}

// renderHistorySearch draws the search prompt plus up to five matches,
// marking the selected one.
func (p *Prompt) renderHistorySearch(query string, results []string, selected int) {
	fmt.Fprint(p.output, "\r\x1b[K")
	fmt.Fprintf(p.output, "reverse-i-search: %s", query)

	if selected < len(results) && len(results) > 0 {
		fmt.Fprintf(p.output, " -> %s", results[selected])
	}
	fmt.Fprint(p.output, "\r\n")

	maxResults := 5
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	for i, result := range results {
		if i == selected {
			fmt.Fprintf(p.output, "  > %s\r\n", result)
		} else {
			fmt.Fprintf(p.output, "    %s\r\n", result)
		}
	}
}

// syncHistoryAfterAdd refreshes the in-memory copy from the manager and
// re-trims both to the configured maximum.
func (p *Prompt) syncHistoryAfterAdd() {
	if p.historyManager != nil && p.historyManager.IsEnabled() {
		p.history = p.historyManager.GetHistory()
		maxEntries := 1000
		if p.config.HistoryConfig != nil && p.config.HistoryConfig.MaxEntries > 0 {
			maxEntries = p.config.HistoryConfig.MaxEntries
		}
		if len(p.history) > maxEntries {
			p.history = p.history[len(p.history)-maxEntries:]
			p.historyManager.SetHistory(p.history)
		}
	}
}

func (p *Prompt) addToHistory(text string) {
	p.AddHistory(text)
}

// isShiftEnter guesses whether Enter should insert a newline. Raw mode
// cannot see the Shift modifier, so the shape of the buffer is the only
// signal available: once it holds a newline, Enter keeps adding them.
func (p *Prompt) isShiftEnter() bool {
	return p.isMultiLine()
}

// isMultiLine reports whether the buffer spans more than one line.
func (p *Prompt) isMultiLine() bool {
	return slices.Contains(p.buffer, '\n')
}

// findLineStart returns the index of the first rune on the cursor's line.
func (p *Prompt) findLineStart() int {
	pos := p.cursor
	for pos > 0 && p.buffer[pos-1] != '\n' {
		pos--
	}
	return pos
}

// findLineEnd returns the index just past the last rune on the cursor's
// line, which is either a newline or the end of the buffer.
func (p *Prompt) findLineEnd() int {
	pos := p.cursor
	for pos < len(p.buffer) && p.buffer[pos] != '\n' {
		pos++
	}
	return pos
}

// findCursorUp returns the cursor position one line up, keeping the column
// where possible. On a shorter line the cursor lands at its end; on the
// first line it stays put.
func (p *Prompt) findCursorUp() int {
	lineStart := p.findLineStart()
	if lineStart == 0 {
		return p.cursor
	}

	column := p.cursor - lineStart

	prevLineEnd := lineStart - 1 // index of the separating newline
	prevLineStart := 0
	for i := prevLineEnd - 1; i >= 0; i-- {
		if p.buffer[i] == '\n' {
			prevLineStart = i + 1
			break
		}
	}

	prevLineLength := prevLineEnd - prevLineStart
	if column < prevLineLength {
		return prevLineStart + column
	}
	return prevLineEnd
}

// findCursorDown mirrors findCursorUp for the line below.
func (p *Prompt) findCursorDown() int {
	lineStart := p.findLineStart()
	lineEnd := p.findLineEnd()

	if lineEnd >= len(p.buffer) {
		return p.cursor
	}

	column := p.cursor - lineStart

	nextLineStart := lineEnd + 1
	nextLineEnd := len(p.buffer)
	for i := nextLineStart; i < len(p.buffer); i++ {
		if p.buffer[i] == '\n' {
			nextLineEnd = i
			break
		}
	}

	nextLineLength := nextLineEnd - nextLineStart
	if column < nextLineLength {
		return nextLineStart + column
	}
	return nextLineEnd
}

func (p *Prompt) enterRawMode() error {
	return p.terminal.SetRaw()
}

func (p *Prompt) exitRawMode() error {
	return p.terminal.Restore()
}

func (p *Prompt) render() error {
	return p.renderer.render(p.config.Prefix, string(p.buffer), p.cursor)
}

func (p *Prompt) renderWithSuggestionsOffset(suggestions []Suggestion, selected int, offset int) error {
	return p.renderer.renderWithSuggestionsOffset(p.config.Prefix, string(p.buffer), p.cursor, suggestions, selected, offset)
}

func (p *Prompt) readRune() (rune, error) {
	if p.hasPushback {
		p.hasPushback = false
		return p.pushback, nil
	}
	r, _, err := p.terminal.ReadRune()
	return r, err
}

// unreadRune pushes r back so the next readRune returns it. One rune deep,
// which is all the meta-digit scanner needs.
func (p *Prompt) unreadRune(r rune) {
	p.pushback = r
	p.hasPushback = true
}

// readEscapeSequence collects the runes after an ESC until they form a
// recognizable sequence. Digits and ';' extend a CSI sequence (so modified
// keys like "[1;5C" arrive whole); any other rune past the second ends it.
// Ten runes is the hard cap; a malformed sequence is returned as-is.
func (p *Prompt) readEscapeSequence() (string, error) {
	seq := make([]rune, 0, 10)
	for i := 0; i < 10; i++ {
		r, err := p.readRune()
		if err != nil {
			return "", err
		}
		seq = append(seq, r)

		s := string(seq)
		if s == "[A" || s == "[B" || s == "[C" || s == "[D" || s == "[H" || s == "[F" {
			return s, nil
		}
		if strings.HasSuffix(s, "~") && len(s) >= 3 {
			return s, nil
		}
		if len(seq) >= 3 {
			if last := seq[len(seq)-1]; (last < '0' || last > '9') && last != ';' {
				return s, nil
			}
		}
	}
	return string(seq), nil
}
