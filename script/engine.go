// Package script embeds a sandboxed Lua interpreter in a cly editing
// session, so end users can bind keys and drive the editor from
// configuration scripts instead of compiled Go code.
//
// The interpreter sees a single global module, cly, mirroring the editor
// surface handlers need:
//
//	cly.bind(key, fn)       -- run fn(count, key) when the byte key is pressed
//	cly.unbind(key)         -- return the key to its default behavior
//	cly.cursor([offset])    -- get, or set with clamping, the cursor offset
//	cly.force_redisplay()   -- repaint the prompt and edit line
//	cly.buffer()            -- current edit buffer contents
//	cly.insert(text)        -- insert text at the cursor
//	cly.print(text)         -- print text with caret markup expanded
//
// The interpreter is sandboxed: only the base, table, string, and math
// libraries are opened. Scripts cannot touch the file system, spawn
// processes, or load modules.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/alecthomas/cly"
)

// ErrEngineClosed is returned when running code on a closed engine.
var ErrEngineClosed = errors.New("script engine is closed")

// Editor is the prompt surface the interpreter drives. *cly.Prompt
// implements it.
type Editor interface {
	BindKey(key int, h cly.Handler) error
	UnbindKey(key int) error
	Cursor() int
	SetCursor(offset int) int
	Buffer() string
	Insert(text string)
	ForceRedisplay()
	Print(text string)
}

// Engine hosts a Lua interpreter bound to one editor.
//
// The interpreter is single-threaded; the engine's lock serializes script
// execution against handler dispatch. Handlers bound from Lua run on the
// editor's input loop goroutine, entering the interpreter through the same
// lock, so a script that is still running can never overlap a dispatched
// handler.
type Engine struct {
	editor Editor
	logger *slog.Logger

	mu     sync.Mutex
	state  *lua.LState
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for script diagnostics: loads, binds, and
// handler failures, all at debug level. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine bound to ed and installs the cly module into a
// fresh sandboxed interpreter.
func New(ed Editor, opts ...Option) (*Engine, error) {
	if ed == nil {
		return nil, errors.New("script: editor is nil")
	}
	e := &Engine{
		editor: ed,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Safe libraries only. io, os, debug, and package stay closed so
	// scripts cannot reach outside the editor.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetTop(0) // drop the module tables the loaders push

	// Base still carries loaders that reach the file system; close them too.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	e.state = L
	e.registerModule()
	return e, nil
}

// DoString executes Lua source, typically an inline rc snippet. Execution
// is synchronous and holds the interpreter until it returns.
func (e *Engine) DoString(code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	return e.protect(func() error {
		return e.state.DoString(code)
	})
}

// DoFile executes a Lua script file, typically the application's rc file.
func (e *Engine) DoFile(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	err := e.protect(func() error {
		return e.state.DoFile(path)
	})
	if err == nil {
		e.logger.Debug("script loaded", "path", path)
	}
	return err
}

// Bind installs fn as the handler for the byte key code, replacing any
// previous handler. Validation is the editor's: out-of-range keys return
// cly.ErrInvalidKeyCode and a nil fn returns cly.ErrNotCallable.
func (e *Engine) Bind(key int, fn *lua.LFunction) error {
	if fn == nil {
		return e.editor.BindKey(key, nil)
	}
	if err := e.editor.BindKey(key, &Function{engine: e, fn: fn}); err != nil {
		return err
	}
	e.logger.Debug("lua handler bound", "key", key)
	return nil
}

// call runs a bound Lua function with (count, key). This is the execution
// context switch between the editor's input loop and the interpreter: take
// the interpreter lock, run the function under Lua's protected call so
// script errors unwind no further than here, then restore the stack before
// control returns to the loop.
func (e *Engine) call(fn *lua.LFunction, count, key int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	err := e.protect(func() error {
		top := e.state.GetTop()
		defer e.state.SetTop(top) // handler results are ignored

		e.state.Push(fn)
		e.state.Push(lua.LNumber(count))
		e.state.Push(lua.LNumber(key))
		return e.state.PCall(2, lua.MultRet, nil)
	})
	if err != nil {
		e.logger.Debug("lua handler failed", "key", key, "error", err)
	}
	return err
}

// protect converts interpreter panics into errors.
func (e *Engine) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close shuts the interpreter down. Handlers bound from Lua stay in the
// editor's binding table but fail with ErrEngineClosed when dispatched;
// unbind them or clear the table if the editor outlives the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.state.Close()
	e.closed = true
	return nil
}
