// Package cly provides an interactive command-line editor for terminal
// programs, with programmable byte-level key bindings as its centerpiece.
//
// On top of the usual line-editing machinery — emacs-style shortcuts,
// history with file persistence, fuzzy completion, multiline editing, and
// colored rendering — any byte key code can be bound to a handler that runs
// when the key is pressed, ahead of the built-in key map. Handlers can
// inspect and edit the buffer, move the cursor, print text, and force the
// edit line to repaint, which is enough to build contextual help, custom
// shortcuts, or an embedded scripting surface. The script subpackage does
// exactly that for Lua.
//
// Key Features:
//
//   - Byte-level key binding with synchronous dispatch and contained
//     handler failures
//   - Numeric repeat arguments: ESC 1 2 x inserts "xxxxxxxxxxxx"
//   - Forced redisplay and cursor get/set for handlers that write output
//   - Caret markup (^B, ^U, ^0-^7, ^N) for colored text without raw ANSI
//   - Fuzzy auto-completion with a scrolling suggestion menu
//   - Command history with file persistence, rotation, and Ctrl+R search
//   - Multiline editing with per-line cursor navigation
//   - YAML key map files for remapping the built-in actions
//   - Context support for timeouts and cancellation
//
// Quick Start:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		"github.com/alecthomas/cly"
//	)
//
//	func main() {
//		p, err := cly.New("cly> ")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer p.Close()
//
//		result, err := p.Run()
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println("read:", result)
//	}
//
// Key Binding:
//
// BindKey intercepts a key before the editor acts on it. The handler
// receives the pending repeat count and the key code:
//
//	err := p.BindKey('?', cly.HandlerFunc(func(count, key int) error {
//		p.Printf("\n^Bhelp:^N type a command, Tab completes, Ctrl+D quits\n")
//		p.ForceRedisplay()
//		return nil
//	}))
//
// A handler that returns an error or panics does not disturb the editing
// session; install an observer with Bindings().SetErrorHook to see those
// failures. Keys without a handler fall through to the built-in key map:
//
//   - Enter: submit input (or add a newline in multiline mode)
//   - Ctrl+C: cancel and return ErrInterrupted
//   - Ctrl+D: EOF when the buffer is empty
//   - Arrow keys: history navigation and cursor movement
//   - Ctrl+A / Home, Ctrl+E / End: line start and end
//   - Ctrl+K, Ctrl+U, Ctrl+W: delete to end, whole line, word back
//   - Ctrl+R: reverse history search
//   - Tab: completion
//
// Scripting:
//
// The script subpackage embeds a sandboxed Lua interpreter that exposes the
// same surface, so end users can program keys without recompiling:
//
//	eng, err := script.New(p)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	err = eng.DoString(`
//		cly.bind(string.byte("?"), function(count, key)
//			cly.print("\ncommands: list, add, quit\n")
//			cly.force_redisplay()
//		end)
//	`)
//
// Error Handling:
//
//   - cly.ErrInterrupted: the user pressed Ctrl+C
//   - cly.ErrEOF: end of input
//   - cly.ErrInvalidKeyCode, cly.ErrNotCallable: rejected registrations
//   - context.DeadlineExceeded / context.Canceled: from RunWithContext
//
// Thread Safety:
//
// A Prompt and its BindingTable belong to one goroutine. Handlers run
// synchronously on the input loop, so they may call back into the prompt
// freely, but binding keys from other goroutines while the prompt is
// reading is not supported. Cancelling via context from another goroutine
// is safe.
//
// Resource Management:
//
// Always call Close when done; it restores the terminal and saves history:
//
//	p, err := cly.New("$ ")
//	if err != nil {
//		return err
//	}
//	defer p.Close()
package cly
