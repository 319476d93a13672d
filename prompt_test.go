package cly

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "default config",
			config: Config{
				Prefix: "$ ",
			},
		},
		{
			name: "with completer",
			config: Config{
				Prefix: "> ",
				Completer: func(d Document) []Suggestion {
					text := d.GetWordBeforeCursor()
					if strings.HasPrefix("hello", text) {
						return []Suggestion{{Text: "hello", Description: "greeting"}}
					}
					return nil
				},
			},
		},
		{
			name: "with history",
			config: Config{
				Prefix: ">>> ",
				HistoryConfig: &HistoryConfig{
					Enabled:    true,
					MaxEntries: 1000,
				},
			},
		},
		{
			name: "with color scheme",
			config: Config{
				Prefix:      "$ ",
				ColorScheme: ThemeDark,
			},
		},
		{
			name: "with prepared bindings",
			config: Config{
				Prefix:   "$ ",
				Bindings: NewBindingTable(),
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Build on a mock terminal to avoid tty initialization in tests
			p := newForTestingWithConfig(t, tt.config, "test\n")

			require.NotNil(t, p, "newForTestingWithConfig() returned nil prompt")

			require.NotNil(t, p.config.HistoryConfig, "HistoryConfig should not be nil")
			assert.Greater(t, p.config.HistoryConfig.MaxEntries, 0, "HistoryConfig.MaxEntries should have default value")
			assert.NotNil(t, p.config.ColorScheme, "ColorScheme should have default value")
			assert.NotNil(t, p.bindings, "binding table should have default value")

			assert.NoError(t, p.Close(), "Close() should not fail")
		})
	}
}

func TestPromptWithMockTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
		config   Config
	}{
		{
			name:     "simple input",
			input:    "hello\n",
			expected: "hello",
			config:   Config{Prefix: "$ "},
		},
		{
			name:     "input with backspace",
			input:    "hello\x7f\x7fo\n", // hello, backspace, backspace, o, enter
			expected: "helo",
			config:   Config{Prefix: "$ "},
		},
		{
			name:     "empty input",
			input:    "\n",
			expected: "",
			config:   Config{Prefix: "$ "},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newForTestingWithConfig(t, tt.config, tt.input)
			defer p.Close()

			var output bytes.Buffer
			p.output = &output

			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			result, err := p.RunWithContext(ctx)
			require.NoError(t, err, "RunWithContext() should not fail")
			assert.Equal(t, tt.expected, result, "RunWithContext() result should match expected")
		})
	}
}

func TestColorToANSI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		color    Color
		expected string
	}{
		{
			name:     "simple color",
			color:    Color{R: 255, G: 0, B: 0, Bold: false},
			expected: "\x1b[38;2;255;0;0m",
		},
		{
			name:     "bold color",
			color:    Color{R: 0, G: 255, B: 0, Bold: true},
			expected: "\x1b[1;38;2;0;255;0m",
		},
		{
			name:     "blue color",
			color:    Color{R: 0, G: 0, B: 255, Bold: false},
			expected: "\x1b[38;2;0;0;255m",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := tt.color.ToANSI()
			assert.Equal(t, tt.expected, result, "Color.ToANSI() result should match expected")
		})
	}
}

func TestColorReset(t *testing.T) {
	t.Parallel()

	expected := "\x1b[0m"
	result := Reset()
	if result != expected {
		t.Errorf("Reset() = %q, want %q", result, expected)
	}
}

func TestPromptClose(t *testing.T) {
	t.Parallel()

	mock := &mockTerminal{}
	p := &Prompt{
		config:   Config{Prefix: "test> "},
		terminal: mock,
		keyMap:   NewDefaultKeyMap(),
		bindings: NewBindingTable(),
	}

	err := p.Close()
	assert.NoError(t, err, "Expected no error on first close")

	// Close must be idempotent
	err = p.Close()
	assert.NoError(t, err, "Expected no error on second close")
}

func TestKeyBindingInterception(t *testing.T) {
	t.Parallel()

	t.Run("bound printable key stops self-insert", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "ab?cd\n")
		defer p.Close()

		var gotCount, gotKey int
		calls := 0
		require.NoError(t, p.BindKey('?', HandlerFunc(func(count, key int) error {
			calls++
			gotCount = count
			gotKey = key
			return nil
		})))

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err, "RunWithContext() should not fail")
		assert.Equal(t, "abcd", result, "bound key should not reach the buffer")
		assert.Equal(t, 1, calls, "handler should run once per press")
		assert.Equal(t, 1, gotCount, "press without numeric argument should carry count 1")
		assert.Equal(t, int('?'), gotKey, "handler should receive the key code")
	})

	t.Run("bound control key overrides cancel", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "x\x03y\n")
		defer p.Close()

		calls := 0
		require.NoError(t, p.BindKey(0x03, HandlerFunc(func(count, key int) error {
			calls++
			return nil
		})))

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err, "bound Ctrl+C should not interrupt")
		assert.Equal(t, "xy", result)
		assert.Equal(t, 1, calls)
	})

	t.Run("bound enter no longer submits", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "x\ry\n")
		defer p.Close()

		calls := 0
		require.NoError(t, p.BindKey('\r', HandlerFunc(func(count, key int) error {
			calls++
			return nil
		})))

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "xy", result, "submit should only happen on the unbound newline")
		assert.Equal(t, 1, calls)
	})

	t.Run("unbinding restores the default behavior", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "a?\n")
		defer p.Close()

		require.NoError(t, p.BindKey('?', HandlerFunc(func(count, key int) error {
			t.Error("unbound handler should never run")
			return nil
		})))
		require.NoError(t, p.UnbindKey('?'))

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "a?", result, "'?' should self-insert again after unbinding")
	})

	t.Run("handler failure leaves the session running", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "a!b\n")
		defer p.Close()

		boom := errors.New("boom")
		require.NoError(t, p.BindKey('!', HandlerFunc(func(count, key int) error {
			return boom
		})))

		var hookKey int
		var hookErr error
		p.Bindings().SetErrorHook(func(key int, err error) {
			hookKey = key
			hookErr = err
		})

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err, "a failing handler must not end the session")
		assert.Equal(t, "ab", result, "the failed press should still be consumed")
		assert.Equal(t, int('!'), hookKey, "error hook should see the key code")
		assert.ErrorIs(t, hookErr, boom, "error hook should see the handler error")
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "a*b\n")
		defer p.Close()

		require.NoError(t, p.BindKey('*', HandlerFunc(func(count, key int) error {
			panic("kaboom")
		})))

		var hookErr error
		p.Bindings().SetErrorHook(func(key int, err error) {
			hookErr = err
		})

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err, "a panicking handler must not end the session")
		assert.Equal(t, "ab", result)
		require.Error(t, hookErr)
		assert.Contains(t, hookErr.Error(), "handler panic on key 42")
		assert.Contains(t, hookErr.Error(), "kaboom")
	})

	t.Run("handler edits through the prompt surface", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "a+b\n")
		defer p.Close()

		require.NoError(t, p.BindKey('+', HandlerFunc(func(count, key int) error {
			p.Insert("[plus]")
			return nil
		})))

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "a[plus]b", result, "handler insertions should land at the cursor")
	})

	t.Run("dispatch resets history browsing", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "\x1b[A?\x1b[A\n")
		defer p.Close()
		p.history = []string{"first", "second"}

		require.NoError(t, p.BindKey('?', HandlerFunc(func(count, key int) error {
			return nil
		})))

		// Up recalls "second"; the dispatch rewinds browsing to the end, so
		// the next Up recalls "second" again instead of walking to "first".
		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "second", result)
	})
}

func TestKeyBindingOutput(t *testing.T) {
	t.Parallel()

	mock := newMockTerminal("?\n")
	var output bytes.Buffer
	p := &Prompt{
		config:   Config{Prefix: "$ "},
		terminal: mock,
		keyMap:   NewDefaultKeyMap(),
		bindings: NewBindingTable(),
		output:   &output,
		renderer: newRenderer(&output, ThemeDefault),
	}

	require.NoError(t, p.BindKey('?', HandlerFunc(func(count, key int) error {
		p.Printf("\n^Bhelp:^N try list\n")
		p.ForceRedisplay()
		return nil
	})))

	result, err := p.RunWithContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", result)

	got := output.String()
	assert.Contains(t, got, "\r\n\x1b[1mhelp:\x1b[0m try list\r\n",
		"handler output should be markup-expanded with CRLF line endings")
	assert.Contains(t, got[strings.Index(got, "try list"):], "$ ",
		"redisplay should repaint the prefix after the handler output")
}

func TestNumericRepeatArgument(t *testing.T) {
	t.Parallel()

	t.Run("repeats the next insertion", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "\x1b3x\n")
		defer p.Close()

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "xxx", result)
	})

	t.Run("accumulates several digits", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "\x1b12x\n")
		defer p.Close()

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("x", 12), result)
	})

	t.Run("reaches the dispatched handler", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "\x1b5?\n")
		defer p.Close()

		var gotCount int
		calls := 0
		require.NoError(t, p.BindKey('?', HandlerFunc(func(count, key int) error {
			calls++
			gotCount = count
			return nil
		})))

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "", result)
		assert.Equal(t, 1, calls, "the handler runs once, the count is its business")
		assert.Equal(t, 5, gotCount)
	})

	t.Run("zero applies once", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "\x1b0x\n")
		defer p.Close()

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "x", result)
	})

	t.Run("does not stick to later keys", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "\x1b2xy\n")
		defer p.Close()

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "xxy", result)
	})
}

func TestPromptBindKey(t *testing.T) {
	t.Parallel()

	p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "")
	defer p.Close()

	handler := HandlerFunc(func(count, key int) error { return nil })

	require.NoError(t, p.BindKey('a', handler))
	assert.True(t, p.Bindings().Bound('a'))

	err := p.BindKey(256, handler)
	assert.ErrorIs(t, err, ErrInvalidKeyCode, "key codes above 255 should be rejected")

	err = p.BindKey(-1, handler)
	assert.ErrorIs(t, err, ErrInvalidKeyCode, "negative key codes should be rejected")

	err = p.BindKey('b', nil)
	assert.ErrorIs(t, err, ErrNotCallable, "nil handlers should be rejected")

	require.NoError(t, p.UnbindKey('a'))
	assert.False(t, p.Bindings().Bound('a'))

	err = p.UnbindKey(300)
	assert.ErrorIs(t, err, ErrInvalidKeyCode)
}

func TestWithBindingsSharing(t *testing.T) {
	t.Parallel()

	// Handlers installed before any prompt exists fire once a session runs.
	table := NewBindingTable()
	calls := 0
	require.NoError(t, table.Bind('?', HandlerFunc(func(count, key int) error {
		calls++
		return nil
	})))

	p := newForTestingWithConfig(t, Config{Prefix: "$ ", Bindings: table}, "a?\n")
	defer p.Close()
	assert.Same(t, table, p.Bindings(), "the prompt should adopt the injected table")

	result, err := p.RunWithContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", result)
	assert.Equal(t, 1, calls)

	// A second prompt on the same table sees the same handlers.
	p2 := newForTestingWithConfig(t, Config{Prefix: "$ ", Bindings: table}, "??\n")
	defer p2.Close()

	result, err = p2.RunWithContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", result)
	assert.Equal(t, 3, calls)
}

func TestPromptEOF(t *testing.T) {
	t.Parallel()

	t.Run("ctrl+d on empty buffer", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "\x04")
		defer p.Close()

		_, err := p.RunWithContext(context.Background())
		assert.ErrorIs(t, err, io.EOF, "Ctrl+D on an empty buffer should report EOF")
	})

	t.Run("ctrl+d with content is ignored", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "ab\x04c\n")
		defer p.Close()

		result, err := p.RunWithContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", result)
	})

	t.Run("input stream ends", func(t *testing.T) {
		t.Parallel()

		p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "abc")
		defer p.Close()

		_, err := p.RunWithContext(context.Background())
		assert.ErrorIs(t, err, ErrEOF)
		assert.Equal(t, "abc", p.Buffer(), "typed runes should survive in the buffer")
	})
}

func TestPromptInterrupt(t *testing.T) {
	t.Parallel()

	mock := newMockTerminal("abc\x03")
	var output bytes.Buffer
	p := &Prompt{
		config:   Config{Prefix: "$ "},
		terminal: mock,
		keyMap:   NewDefaultKeyMap(),
		bindings: NewBindingTable(),
		output:   &output,
		renderer: newRenderer(&output, ThemeDefault),
	}

	_, err := p.RunWithContext(context.Background())
	if !errors.Is(err, ErrInterrupted) {
		t.Errorf("Expected ErrInterrupted, got %v", err)
	}
	if !strings.Contains(output.String(), "^C\r\n") {
		t.Error("Expected ^C to be echoed on interrupt")
	}
	if mock.rawMode {
		t.Error("Expected raw mode to be restored on interrupt")
	}
}

func TestPromptContextCancellation(t *testing.T) {
	t.Parallel()

	p := newForTestingWithConfig(t, Config{Prefix: "$ "}, "never read\n")
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.RunWithContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPromptHistoryNavigation(t *testing.T) {
	t.Parallel()

	mock := newMockTerminal("\x1b[A\r")
	var output bytes.Buffer
	p := &Prompt{
		config: Config{
			Prefix: "$ ",
			HistoryConfig: &HistoryConfig{
				Enabled:    true,
				MaxEntries: 10,
			},
		},
		terminal: mock,
		keyMap:   NewDefaultKeyMap(),
		bindings: NewBindingTable(),
		output:   &output,
		history:  []string{"previous command", "another command"},
		renderer: newRenderer(&output, ThemeDefault),
	}

	result, err := p.RunWithContext(context.Background())
	if err != nil {
		t.Errorf("RunWithContext() error = %v", err)
	}

	// Up should recall the most recent entry
	if result != "another command" {
		t.Errorf("Expected 'another command', got %q", result)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	p := newForTestingWithConfig(t, Config{
		Prefix: "$ ",
		HistoryConfig: &HistoryConfig{
			Enabled:    true,
			MaxEntries: 3,
		},
	}, "test\n")
	defer p.Close()

	p.addToHistory("command1")
	p.addToHistory("command2")
	p.addToHistory("command3")
	p.addToHistory("command4") // Should evict command1

	expected := []string{"command2", "command3", "command4"}
	require.Equal(t, len(expected), len(p.history), "history length should match expected")

	for i, cmd := range expected {
		assert.Equal(t, cmd, p.history[i], "history[%d] should match expected", i)
	}
}

func TestPromptEditingActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ctrl+a moves to line start",
			input:    "ello\x01h\n",
			expected: "hello",
		},
		{
			name:     "ctrl+e moves to line end",
			input:    "hel\x01\x05lo\n",
			expected: "hello",
		},
		{
			name:     "ctrl+u deletes the line",
			input:    "wrong\x15right\n",
			expected: "right",
		},
		{
			name:     "ctrl+k deletes to line end",
			input:    "helloXX\x1b[D\x1b[D\x0b\n",
			expected: "hello",
		},
		{
			name:     "ctrl+w deletes the previous word",
			input:    "one two\x17three\n",
			expected: "one three",
		},
		{
			name:     "delete removes forward",
			input:    "abc\x01\x1b[3~\n",
			expected: "bc",
		},
		{
			name:     "left arrow moves the cursor",
			input:    "ac\x1b[Db\n",
			expected: "abc",
		},
		{
			name:     "right arrow moves the cursor",
			input:    "abc\x01\x1b[C!\n",
			expected: "a!bc",
		},
		{
			name:     "home and end sequences",
			input:    "bc\x1b[Ha\x1b[F!\n",
			expected: "abc!",
		},
		{
			name:     "ctrl+right jumps a word",
			input:    "ab cd\x01\x1b[1;5C!\n",
			expected: "ab! cd",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newForTestingWithConfig(t, Config{Prefix: "$ "}, tt.input)
			defer p.Close()

			result, err := p.RunWithContext(context.Background())
			require.NoError(t, err, "RunWithContext() should not fail")
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestPromptCursor(t *testing.T) {
	t.Parallel()

	p := &Prompt{
		config:   Config{Prefix: "$ "},
		buffer:   []rune("hello"),
		cursor:   5,
		bindings: NewBindingTable(),
	}

	if got := p.Cursor(); got != 5 {
		t.Errorf("Cursor() = %d, want 5", got)
	}

	tests := []struct {
		name   string
		offset int
		want   int
	}{
		{name: "inside the buffer", offset: 2, want: 2},
		{name: "at the start", offset: 0, want: 0},
		{name: "at the end", offset: 5, want: 5},
		{name: "negative clamps to start", offset: -3, want: 0},
		{name: "past the end clamps to length", offset: 99, want: 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := p.SetCursor(tt.offset)
			if got != tt.want {
				t.Errorf("SetCursor(%d) = %d, want %d", tt.offset, got, tt.want)
			}
			if p.Cursor() != tt.want {
				t.Errorf("Cursor() after SetCursor(%d) = %d, want %d", tt.offset, p.Cursor(), tt.want)
			}
		})
	}
}

func TestPromptBufferAccess(t *testing.T) {
	t.Parallel()

	p := &Prompt{
		config:   Config{Prefix: "$ "},
		buffer:   []rune{},
		bindings: NewBindingTable(),
	}

	if got := p.Buffer(); got != "" {
		t.Errorf("Buffer() = %q, want empty", got)
	}

	p.SetBuffer("hello")
	if got := p.Buffer(); got != "hello" {
		t.Errorf("Buffer() = %q, want %q", got, "hello")
	}
	if p.cursor != 5 {
		t.Errorf("SetBuffer should move the cursor to the end, got %d", p.cursor)
	}

	p.SetCursor(1)
	p.Insert("ELLO h")
	if got := p.Buffer(); got != "hELLO hello" {
		t.Errorf("Insert at cursor = %q, want %q", got, "hELLO hello")
	}
	if p.cursor != 7 {
		t.Errorf("Insert should advance the cursor past the text, got %d", p.cursor)
	}
}

func TestForceRedisplay(t *testing.T) {
	t.Parallel()

	t.Run("repaints the current line", func(t *testing.T) {
		t.Parallel()

		var output bytes.Buffer
		p := &Prompt{
			config:   Config{Prefix: "$ "},
			buffer:   []rune("typed"),
			cursor:   5,
			output:   &output,
			bindings: NewBindingTable(),
			renderer: newRenderer(&output, ThemeDefault),
		}

		p.ForceRedisplay()

		got := output.String()
		if !strings.Contains(got, "$ ") {
			t.Error("Expected the prefix to be repainted")
		}
		if !strings.Contains(got, "typed") {
			t.Error("Expected the buffer to be repainted")
		}
	})

	t.Run("nil renderer is a no-op", func(t *testing.T) {
		t.Parallel()

		p := &Prompt{config: Config{Prefix: "$ "}, bindings: NewBindingTable()}
		p.ForceRedisplay() // must not panic
	})

	t.Run("write failures are dropped", func(t *testing.T) {
		t.Parallel()

		p := &Prompt{
			config:   Config{Prefix: "$ "},
			buffer:   []rune("typed"),
			bindings: NewBindingTable(),
			renderer: newRenderer(failingWriter{}, ThemeDefault),
		}
		p.ForceRedisplay() // must not panic
	})
}

func TestFindWordBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		buffer    string
		cursor    int
		direction int
		want      int
	}{
		{name: "forward from start", buffer: "hello world foo", cursor: 0, direction: 1, want: 5},
		{name: "forward over a space", buffer: "hello world foo", cursor: 5, direction: 1, want: 11},
		{name: "forward at the end", buffer: "hello", cursor: 5, direction: 1, want: 5},
		{name: "backward from the end", buffer: "hello world", cursor: 11, direction: -1, want: 6},
		{name: "backward from mid-word", buffer: "hello world", cursor: 8, direction: -1, want: 6},
		{name: "backward at the start", buffer: "hello", cursor: 0, direction: -1, want: 0},
		{name: "backward over punctuation", buffer: "foo-bar", cursor: 7, direction: -1, want: 4},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &Prompt{
				buffer:   []rune(tt.buffer),
				cursor:   tt.cursor,
				bindings: NewBindingTable(),
			}

			if got := p.findWordBoundary(tt.direction); got != tt.want {
				t.Errorf("findWordBoundary(%d) on %q at %d = %d, want %d",
					tt.direction, tt.buffer, tt.cursor, got, tt.want)
			}
		})
	}
}

func TestIsWordChar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		r    rune
		want bool
	}{
		{'a', true},
		{'Z', true},
		{'5', true},
		{'_', true},
		{' ', false},
		{'-', false},
		{'\n', false},
	}

	for _, tt := range tests {
		tt := tt
		if got := isWordChar(tt.r); got != tt.want {
			t.Errorf("isWordChar(%q) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestMultilineNavigation(t *testing.T) {
	t.Parallel()

	t.Run("line bounds", func(t *testing.T) {
		t.Parallel()

		p := &Prompt{
			buffer:   []rune("ab\ncd\nef"),
			cursor:   4,
			bindings: NewBindingTable(),
		}

		if got := p.findLineStart(); got != 3 {
			t.Errorf("findLineStart() = %d, want 3", got)
		}
		if got := p.findLineEnd(); got != 5 {
			t.Errorf("findLineEnd() = %d, want 5", got)
		}
	})

	t.Run("cursor up keeps the column", func(t *testing.T) {
		t.Parallel()

		p := &Prompt{
			buffer:   []rune("abc\ndefg"),
			cursor:   6,
			bindings: NewBindingTable(),
		}

		if got := p.findCursorUp(); got != 2 {
			t.Errorf("findCursorUp() = %d, want 2", got)
		}
	})

	t.Run("cursor up clamps to a shorter line", func(t *testing.T) {
		t.Parallel()

		p := &Prompt{
			buffer:   []rune("abc\ndefg"),
			cursor:   8,
			bindings: NewBindingTable(),
		}

		if got := p.findCursorUp(); got != 3 {
			t.Errorf("findCursorUp() = %d, want 3", got)
		}
	})

	t.Run("cursor down keeps the column", func(t *testing.T) {
		t.Parallel()

		p := &Prompt{
			buffer:   []rune("abc\ndefg"),
			cursor:   1,
			bindings: NewBindingTable(),
		}

		if got := p.findCursorDown(); got != 5 {
			t.Errorf("findCursorDown() = %d, want 5", got)
		}
	})

	t.Run("cursor down clamps to a shorter line", func(t *testing.T) {
		t.Parallel()

		p := &Prompt{
			buffer:   []rune("abcdef\ngh"),
			cursor:   5,
			bindings: NewBindingTable(),
		}

		if got := p.findCursorDown(); got != 9 {
			t.Errorf("findCursorDown() = %d, want 9", got)
		}
	})

	t.Run("first and last lines are walls", func(t *testing.T) {
		t.Parallel()

		p := &Prompt{
			buffer:   []rune("abc\ndef"),
			cursor:   1,
			bindings: NewBindingTable(),
		}

		if got := p.findCursorUp(); got != 1 {
			t.Errorf("findCursorUp() on the first line = %d, want 1", got)
		}

		p.cursor = 5
		if got := p.findCursorDown(); got != 5 {
			t.Errorf("findCursorDown() on the last line = %d, want 5", got)
		}
	})
}

func TestMultilineInput(t *testing.T) {
	t.Parallel()

	// Ctrl+N is bound to insert a newline; Enter keeps adding lines once the
	// buffer is multiline, so the session ends when the script runs out.
	km := NewDefaultKeyMap()
	km.Bind('\x0e', ActionNewLine)

	p := newForTestingWithConfig(t, Config{Prefix: "$ ", KeyMap: km, Multiline: true}, "a\x0eb")
	defer p.Close()

	_, err := p.RunWithContext(context.Background())
	assert.ErrorIs(t, err, ErrEOF)
	assert.Equal(t, "a\nb", p.Buffer())
}

func TestKeyMapCustomization(t *testing.T) {
	t.Parallel()

	km := NewDefaultKeyMap()

	// Defaults
	assert.Equal(t, ActionSubmit, km.GetAction('\r'))
	assert.Equal(t, ActionCancel, km.GetAction('\x03'))
	assert.Equal(t, ActionMoveUp, km.GetSequenceAction("[A"))
	assert.Equal(t, ActionNone, km.GetAction('q'))
	assert.Equal(t, ActionNone, km.GetSequenceAction("[Z"))

	// Overrides and additions
	km.Bind('\x0c', ActionDeleteLine)
	assert.Equal(t, ActionDeleteLine, km.GetAction('\x0c'))

	km.BindSequence("[Z", ActionHistoryUp)
	assert.Equal(t, ActionHistoryUp, km.GetSequenceAction("[Z"))

	// Nil maps must not panic
	var nilMap *KeyMap
	assert.Equal(t, ActionNone, nilMap.GetAction('a'))
	assert.Equal(t, ActionNone, nilMap.GetSequenceAction("[A"))

	empty := &KeyMap{}
	assert.Equal(t, ActionNone, empty.GetAction('a'))
	assert.Equal(t, ActionNone, empty.GetSequenceAction("[A"))
}

func TestOptions(t *testing.T) {
	t.Parallel()

	config := Config{}

	WithCompleter(func(d Document) []Suggestion {
		return []Suggestion{{Text: "one"}}
	})(&config)
	require.NotNil(t, config.Completer, "WithCompleter() did not set completer")

	WithHistory(&HistoryConfig{Enabled: true, MaxEntries: 42})(&config)
	require.NotNil(t, config.HistoryConfig)
	assert.Equal(t, 42, config.HistoryConfig.MaxEntries)

	WithMemoryHistory(0)(&config)
	assert.Equal(t, 1000, config.HistoryConfig.MaxEntries, "WithMemoryHistory(0) should fall back to the default")
	assert.Empty(t, config.HistoryConfig.File)

	WithFileHistory("~/.test_history", 50)(&config)
	assert.Equal(t, "~/.test_history", config.HistoryConfig.File)
	assert.Equal(t, 50, config.HistoryConfig.MaxEntries)
	assert.Equal(t, int64(1024*1024), config.HistoryConfig.MaxFileSize)

	WithColorScheme(ThemeMonokai)(&config)
	assert.Equal(t, ThemeMonokai, config.ColorScheme)

	km := NewDefaultKeyMap()
	WithKeyMap(km)(&config)
	assert.Equal(t, km, config.KeyMap)

	table := NewBindingTable()
	WithBindings(table)(&config)
	assert.Same(t, table, config.Bindings)

	WithMultiline(true)(&config)
	assert.True(t, config.Multiline)
}

func TestReadEscapeSequence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "arrow up", input: "[A", want: "[A"},
		{name: "home", input: "[H", want: "[H"},
		{name: "delete", input: "[3~", want: "[3~"},
		{name: "ctrl+left", input: "[1;5D", want: "[1;5D"},
		{name: "three rune minimum", input: "[Zx", want: "[Zx"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &Prompt{
				config:   Config{Prefix: "$ "},
				terminal: newMockTerminal(tt.input),
				keyMap:   NewDefaultKeyMap(),
				bindings: NewBindingTable(),
			}

			seq, err := p.readEscapeSequence()
			if err != nil {
				t.Fatalf("readEscapeSequence() error = %v", err)
			}
			if seq != tt.want {
				t.Errorf("readEscapeSequence() = %q, want %q", seq, tt.want)
			}
		})
	}
}

func TestUnreadRune(t *testing.T) {
	t.Parallel()

	p := &Prompt{
		terminal: newMockTerminal("bc"),
		bindings: NewBindingTable(),
	}

	r, err := p.readRune()
	if err != nil || r != 'b' {
		t.Fatalf("readRune() = %q, %v", r, err)
	}

	p.unreadRune('a')
	r, err = p.readRune()
	if err != nil || r != 'a' {
		t.Errorf("readRune() after unread = %q, %v, want 'a'", r, err)
	}

	r, err = p.readRune()
	if err != nil || r != 'c' {
		t.Errorf("readRune() should resume the terminal = %q, %v, want 'c'", r, err)
	}
}

func TestNewRealTerminal(t *testing.T) {
	if os.Getenv("GITHUB_ACTIONS") == "" {
		t.Skip("Skipping real terminal test in local development")
	}

	t.Parallel()

	terminal, err := newRealTerminal()
	if err != nil {
		t.Logf("Cannot create real terminal in test environment: %v", err)
		return
	}

	if terminal == nil {
		t.Error("Expected non-nil terminal")
		return
	}

	w, h, err := terminal.Size()
	if err != nil {
		t.Logf("Cannot get terminal size: %v", err)
	} else {
		if w <= 0 || h <= 0 {
			t.Errorf("Expected positive terminal size, got %dx%d", w, h)
		}
	}

	if err := terminal.Close(); err != nil {
		t.Errorf("Failed to close terminal: %v", err)
	}
}

func BenchmarkPromptRender(b *testing.B) {
	var output bytes.Buffer
	p := &Prompt{
		config:   Config{Prefix: "$ "},
		terminal: newMockTerminal(""),
		keyMap:   NewDefaultKeyMap(),
		bindings: NewBindingTable(),
		output:   &output,
		buffer:   []rune("benchmark input"),
		cursor:   15,
		renderer: newRenderer(&output, ThemeDefault),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		output.Reset()
		if err := p.render(); err != nil {
			b.Fatalf("render() failed: %v", err)
		}
	}
}

func BenchmarkColorToANSI(b *testing.B) {
	color := Color{R: 255, G: 128, B: 64, Bold: true}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = color.ToANSI()
	}
}

// newForTestingWithConfig builds a prompt on a mock terminal that plays back
// mockInput, so sessions run without a tty.
func newForTestingWithConfig(t *testing.T, config Config, mockInput string) *Prompt {
	t.Helper()

	if config.HistoryConfig == nil {
		// No file persistence in tests unless a test asks for it
		config.HistoryConfig = &HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
			File:       "",
		}
	} else if config.HistoryConfig.MaxEntries <= 0 {
		config.HistoryConfig.MaxEntries = 1000
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

	output := os.Stdout

	terminal := newMockTerminal(mockInput)

	historyManager := NewHistoryManager(config.HistoryConfig)
	historyManager.SetHistory([]string{})

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

	return p
}
