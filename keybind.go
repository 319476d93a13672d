package cly

import (
	"errors"
	"fmt"
	"runtime"
)

// Binding errors
var (
	// ErrInvalidKeyCode is returned when a key code falls outside 0-255
	ErrInvalidKeyCode = errors.New("key code out of range")
	// ErrNotCallable is returned when binding a nil handler
	ErrNotCallable = errors.New("handler is not callable")
)

// Handler is the callback invoked when a bound key is pressed.
//
// Invoke receives the numeric repeat argument for the press (1 when none was
// given) and the key code that triggered it. The return value matters only
// for observability: a non-nil error is handed to the table's error hook and
// otherwise discarded. Dispatch never propagates handler failures back into
// the editing loop.
type Handler interface {
	Invoke(count, key int) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
//
// Example:
//
//	p.BindKey('?', cly.HandlerFunc(func(count, key int) error {
//		p.Printf("\n^Bhelp:^N commands are list, add, quit\n")
//		p.ForceRedisplay()
//		return nil
//	}))
type HandlerFunc func(count, key int) error

// Invoke calls f(count, key).
func (f HandlerFunc) Invoke(count, key int) error {
	return f(count, key)
}

// BindingTable maps byte key codes to handlers that intercept those keys
// before the prompt's built-in keymap, the way rl_bind_key overrides the
// readline defaults. One slot per key code 0-255.
//
// A table belongs to a single editing session and takes no locks: bind and
// dispatch from the goroutine that runs the prompt. Binding from inside a
// handler is fine since dispatch is synchronous; binding from another
// goroutine while the prompt is reading keys is not supported.
type BindingTable struct {
	slots   [256]Handler
	errHook func(key int, err error)
}

// NewBindingTable returns an empty table.
//
// Each Prompt creates its own table unless one is injected with
// WithBindings, which lets several prompts share a set of bindings or lets
// bindings be prepared before the prompt exists.
func NewBindingTable() *BindingTable {
	return &BindingTable{}
}

// Bind installs h as the handler for key, replacing any previous handler.
// The replaced handler is released and never invoked again.
//
// Returns ErrInvalidKeyCode when key is outside 0-255 and ErrNotCallable
// when h is nil. In both cases the table is left exactly as it was.
func (t *BindingTable) Bind(key int, h Handler) error {
	if key < 0 || key > 255 {
		return fmt.Errorf("bind key %d: %w", key, ErrInvalidKeyCode)
	}
	if h == nil {
		return fmt.Errorf("bind key %d: %w", key, ErrNotCallable)
	}
	if f, ok := h.(HandlerFunc); ok && f == nil {
		return fmt.Errorf("bind key %d: %w", key, ErrNotCallable)
	}
	t.slots[key] = h
	return nil
}

// Unbind removes the handler for key, returning the key to its default
// treatment by the editing loop. Unbinding an empty slot is not an error.
func (t *BindingTable) Unbind(key int) error {
	if key < 0 || key > 255 {
		return fmt.Errorf("unbind key %d: %w", key, ErrInvalidKeyCode)
	}
	t.slots[key] = nil
	return nil
}

// Bound reports whether key has a handler installed. Out-of-range key codes
// report false.
func (t *BindingTable) Bound(key int) bool {
	return key >= 0 && key <= 255 && t.slots[key] != nil
}

// SetErrorHook installs fn as the observer for handler failures. Dispatch
// swallows failures so a broken handler cannot take down the editing loop;
// the hook is the only place they surface. A nil fn (the default) discards
// them. The hook runs synchronously inside Dispatch, so it must not block.
func (t *BindingTable) SetErrorHook(fn func(key int, err error)) {
	t.errHook = fn
}

// Dispatch invokes the handler bound to key with the given repeat count.
//
// The handler runs synchronously and Dispatch does not return until it has,
// so handlers for consecutive presses never overlap. Failures are contained:
// an error return or a panic is recovered, reported through the error hook,
// and the press still counts as handled. A failed handler stays bound and
// runs again on the next press.
//
// Reports true when a handler was bound, whatever its outcome, and false for
// an empty or out-of-range slot.
func (t *BindingTable) Dispatch(count, key int) bool {
	if key < 0 || key > 255 {
		return false
	}
	h := t.slots[key]
	if h == nil {
		return false
	}
	if err := t.invoke(h, count, key); err != nil && t.errHook != nil {
		t.errHook(key, err)
	}
	return true
}

// invoke runs the handler with panic containment.
func (t *BindingTable) invoke(h Handler, count, key int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("handler panic on key %d: %v\n%s", key, r, buf[:n])
		}
	}()
	return h.Invoke(count, key)
}

// Clear releases every handler in the table.
func (t *BindingTable) Clear() {
	for i := range t.slots {
		t.slots[i] = nil
	}
}
