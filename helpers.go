package cly

import (
	"os"
	"path/filepath"
	"strings"
)

// calculateFuzzyScore rates how well input matches candidate. Zero means no
// match. Exact matches beat prefix matches beat substring matches beat
// scattered character matches, so sorting by score puts the likeliest
// completion first.
func calculateFuzzyScore(input, candidate string, ignoreCase bool) int {
	if input == "" {
		return 1
	}
	if candidate == "" {
		return 0
	}

	if ignoreCase {
		input = strings.ToLower(input)
		candidate = strings.ToLower(candidate)
	}

	if input == candidate {
		return 1000
	}
	if strings.HasPrefix(candidate, input) {
		return 800 + len(input)*10
	}
	if strings.Contains(candidate, input) {
		return 500 + len(input)*5
	}

	// Scattered match: every input rune must appear in the candidate, in
	// order. Each hit is worth 10.
	score := 0
	candidateRunes := []rune(candidate)
	pos := 0
	for _, want := range input {
		found := false
		for pos < len(candidateRunes) {
			if candidateRunes[pos] == want {
				score += 10
				pos++
				found = true
				break
			}
			pos++
		}
		if !found {
			break
		}
	}
	return score
}

// NewFileCompleter returns a completer that suggests files and directories
// for the text before the cursor, the way a shell completes paths.
// Directories are suffixed with a slash. Hidden entries are skipped unless
// the typed name itself starts with a dot.
//
// Example:
//
//	p, err := cly.New("$ ", cly.WithCompleter(cly.NewFileCompleter()))
func NewFileCompleter() func(Document) []Suggestion {
	return func(d Document) []Suggestion {
		return completeFilePath(d.TextBeforeCursor())
	}
}

func completeFilePath(path string) []Suggestion {
	if path == "" {
		path = "."
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	// A trailing separator means complete inside that directory.
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\") {
		dir = path
		base = ""
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	suggestions := make([]Suggestion, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()

		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		if base != "" && !strings.HasPrefix(name, base) {
			continue
		}

		fullPath := filepath.Join(dir, name)
		if dir == "." && !strings.HasPrefix(path, "./") {
			fullPath = name
		}

		description := "file"
		if entry.IsDir() {
			fullPath += "/"
			description = "directory"
		}

		suggestions = append(suggestions, Suggestion{
			Text:        fullPath,
			Description: description,
		})
	}
	return suggestions
}
