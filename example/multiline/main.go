// Package main demonstrates multiline input built on top of the cly line editor.
package main

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/alecthomas/cly"
)

func main() {
	fmt.Println("Multiline Input Example")
	fmt.Println("Enter text:")
	fmt.Println("  - Use backslash (\\) at line end + Enter for line continuation")
	fmt.Println("  - Press Enter without backslash to submit")
	fmt.Println("Type 'exit' to quit")
	fmt.Println()

	// Create prompt for multiline input
	p, err := cly.New("multi> ",
		cly.WithMultiline(true),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	for {
		fmt.Println("Enter your text:")

		// Collect lines until one does not end with a continuation backslash
		result, err := readMultiline(p)
		if err != nil {
			if errors.Is(err, cly.ErrEOF) {
				fmt.Println("\nGoodbye!")
				break
			}
			log.Printf("Error: %v\n", err)
			continue
		}

		// Check for exit command
		if strings.TrimSpace(result) == "exit" {
			fmt.Println("Goodbye!")
			return
		}

		// Display the input with line numbers
		fmt.Println("\n--- Your input ---")
		lines := strings.Split(result, "\n")
		for i, line := range lines {
			fmt.Printf("%3d: %s\n", i+1, line)
		}
		fmt.Printf("\nTotal lines: %d\n", len(lines))
		fmt.Printf("Total characters: %d\n", len(result))
		fmt.Println("--- End of input ---")
	}
}

// readMultiline runs the prompt once per line, treating a trailing backslash
// as a continuation marker. Continuation lines get a "... " prefix, the way
// interactive shells do it.
func readMultiline(p *cly.Prompt) (string, error) {
	var lines []string
	p.SetPrefix("multi> ")

	for {
		line, err := p.Run()
		if err != nil {
			return "", err
		}

		if strings.HasSuffix(line, "\\") {
			lines = append(lines, strings.TrimSuffix(line, "\\"))
			p.SetPrefix("...... ")
			continue
		}

		lines = append(lines, line)
		p.SetPrefix("multi> ")
		return strings.Join(lines, "\n"), nil
	}
}
