// Package main demonstrates driving the editor from Lua: key handlers are
// bound by a user rc script instead of compiled Go code.
package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/cly"
	"github.com/alecthomas/cly/script"
)

// defaultRC is used when no clyrc.lua exists in the current directory. The
// same script could live in the rc file verbatim.
const defaultRC = `
-- '?' shows help without losing the current input.
cly.bind(string.byte("?"), function(count, key)
  cly.print("\n^Bhelp:^N type lua <code> to run Lua, exit to quit\n")
  cly.force_redisplay()
end)

-- Ctrl+G inserts stars; ESC 5 Ctrl+G inserts five.
cly.bind(7, function(count, key)
  cly.insert(string.rep("*", count))
end)
`

func main() {
	fmt.Println("Lua Scripting Example")
	fmt.Println("=====================")
	fmt.Println("Key bindings come from clyrc.lua in the current directory,")
	fmt.Println("or from a built-in script when the file is missing.")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  lua <code>   - Run Lua in the same interpreter")
	fmt.Println("  exit/quit    - Exit")
	fmt.Println()
	fmt.Println("Try pressing ? on an empty line, or ESC 5 Ctrl+G")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	p, err := cly.New("lua> ")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	// Script errors inside handlers surface through the error hook.
	p.Bindings().SetErrorHook(func(key int, err error) {
		logger.Warn("key handler failed", "key", key, "error", err)
	})

	eng, err := script.New(p, script.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	if _, statErr := os.Stat("clyrc.lua"); statErr == nil {
		err = eng.DoFile("clyrc.lua")
	} else {
		err = eng.DoString(defaultRC)
	}
	if err != nil {
		log.Fatalf("rc script failed: %v", err)
	}

	for {
		result, err := p.Run()
		if err != nil {
			if errors.Is(err, cly.ErrEOF) {
				fmt.Println("\nGoodbye!")
				break
			}
			log.Printf("Error: %v\n", err)
			continue
		}

		result = strings.TrimSpace(result)
		if result == "" {
			continue
		}

		switch {
		case result == "exit" || result == "quit":
			fmt.Println("Goodbye!")
			return
		case strings.HasPrefix(result, "lua "):
			if err := eng.DoString(strings.TrimPrefix(result, "lua ")); err != nil {
				fmt.Printf("Lua error: %v\n", err)
			}
		default:
			fmt.Printf("You typed: %s\n", result)
		}
	}
}
