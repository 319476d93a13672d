// Package main demonstrates key binding with handlers that run inside the
// editing loop, using only public APIs.
package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/alecthomas/cly"
)

var tasks []string

func main() {
	fmt.Println("Key Binding Example")
	fmt.Println("===================")
	fmt.Println("A tiny task list. Commands: add <text>, done <number>, list, exit")
	fmt.Println()
	fmt.Println("Special keys:")
	fmt.Println("  ?            - Show help without losing your input")
	fmt.Println("                 (inside a word, ? is typed as usual)")
	fmt.Println("  Ctrl+T       - Insert a divider; ESC 2 0 Ctrl+T inserts 20 dashes")
	fmt.Println()

	p, err := cly.New("task> ")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	// Handler failures never break the editing loop; the hook is the one
	// place they can be observed.
	p.Bindings().SetErrorHook(func(key int, err error) {
		log.Printf("handler for key %d failed: %v", key, err)
	})

	// '?' shows help when pressed at a word boundary, and types a literal
	// '?' anywhere else. Intercepted keys are consumed, so the handler
	// decides what the press means.
	if err := p.BindKey('?', cly.HandlerFunc(func(count, key int) error {
		doc := cly.Document{Text: p.Buffer(), CursorPosition: p.Cursor()}
		if doc.GetWordBeforeCursor() != "" {
			p.Insert("?")
			return nil
		}
		p.Printf("\n^Bhelp:^N add <text>, done <number>, list, exit\n")
		p.ForceRedisplay()
		return nil
	})); err != nil {
		log.Fatal(err)
	}

	// Ctrl+T inserts a divider. The count is the numeric argument typed as
	// ESC digits before the key, or 1 when none was given.
	if err := p.BindKey('\x14', cly.HandlerFunc(func(count, key int) error {
		p.Insert(strings.Repeat("-", count))
		return nil
	})); err != nil {
		log.Fatal(err)
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
		if execute(p, result) {
			return
		}
	}
}

// execute runs one command line. Parse errors are reported with a caret
// under the offending argument. Returns true when the user asked to exit.
func execute(p *cly.Prompt, line string) bool {
	fields := strings.Fields(line)
	cmd := fields[0]

	switch cmd {
	case "exit", "quit":
		fmt.Println("Goodbye!")
		return true

	case "add":
		if len(fields) < 2 {
			p.ErrorAt(len(line), "add needs task text")
			return false
		}
		text := strings.TrimSpace(strings.TrimPrefix(line, "add"))
		tasks = append(tasks, text)
		fmt.Printf("Added task %d\n", len(tasks))

	case "done":
		if len(fields) != 2 {
			p.ErrorAt(len(line), "done needs one task number")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			p.ErrorAt(strings.Index(line, fields[1]), "expected a task number")
			return false
		}
		if n < 1 || n > len(tasks) {
			p.ErrorAt(strings.Index(line, fields[1]), fmt.Sprintf("no task %d", n))
			return false
		}
		fmt.Printf("Done: %s\n", tasks[n-1])
		tasks = append(tasks[:n-1], tasks[n:]...)

	case "list":
		if len(tasks) == 0 {
			fmt.Println("No tasks")
			return false
		}
		for i, task := range tasks {
			fmt.Printf("  %3d: %s\n", i+1, task)
		}

	default:
		p.ErrorAt(0, fmt.Sprintf("unknown command %q", cmd))
	}
	return false
}
