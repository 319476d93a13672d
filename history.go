package cly

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultHistoryConfig returns the default history configuration: enabled,
// memory-only, 1000 entries.
func DefaultHistoryConfig() *HistoryConfig {
	return &HistoryConfig{
		Enabled:     true,
		MaxEntries:  1000,
		File:        "",
		MaxFileSize: 1024 * 1024, // 1MB
		MaxBackups:  3,
	}
}

// DefaultHistoryFileFor returns the conventional history file path for an
// application, following the XDG Base Directory Specification:
// $XDG_CONFIG_HOME/cly/<app>_history, or ~/.config/cly/<app>_history when
// XDG_CONFIG_HOME is unset. Returns "" when no home directory can be
// resolved, which HistoryConfig treats as memory-only history.
//
// Example:
//
//	p, err := cly.New("repl> ",
//		cly.WithFileHistory(cly.DefaultHistoryFileFor("repl"), 500))
func DefaultHistoryFileFor(app string) string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	name := "history"
	if app != "" {
		name = app + "_history"
	}
	return filepath.Join(configDir, "cly", name)
}

// HistoryManager owns the history entries and their persistence: loading,
// saving, deduplication of consecutive entries, and size-based file
// rotation.
type HistoryManager struct {
	config  *HistoryConfig
	history []string
}

// NewHistoryManager creates a history manager. A nil config gets the
// defaults; partial configs are filled in.
func NewHistoryManager(config *HistoryConfig) *HistoryManager {
	if config == nil {
		config = DefaultHistoryConfig()
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = 1024 * 1024
	}
	if config.MaxBackups < 0 {
		config.MaxBackups = 3
	}

	if config.File != "" {
		if absPath, err := expandHistoryPath(config.File); err == nil {
			config.File = absPath
		}
	}

	return &HistoryManager{
		config:  config,
		history: make([]string, 0),
	}
}

// IsEnabled reports whether history is recorded at all.
func (hm *HistoryManager) IsEnabled() bool {
	return hm.config.Enabled
}

// LoadHistory reads entries from the configured file. A missing file is not
// an error; the session simply starts with empty history.
func (hm *HistoryManager) LoadHistory() error {
	if !hm.config.Enabled || hm.config.File == "" {
		return nil
	}

	file, err := os.Open(hm.config.File)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			hm.history = append(hm.history, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}
	return nil
}

// SaveHistory writes the entries to the configured file, rotating it first
// when it has grown past MaxFileSize. Parent directories are created as
// needed.
func (hm *HistoryManager) SaveHistory() error {
	if !hm.config.Enabled || hm.config.File == "" {
		return nil
	}

	if err := hm.rotateIfNeeded(); err != nil {
		return fmt.Errorf("failed to rotate history file: %w", err)
	}

	if dir := filepath.Dir(hm.config.File); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	file, err := os.Create(hm.config.File)
	if err != nil {
		return fmt.Errorf("failed to create history file: %w", err)
	}
	defer file.Close()

	for _, entry := range hm.history {
		if _, err := fmt.Fprintln(file, entry); err != nil {
			return fmt.Errorf("failed to write history entry: %w", err)
		}
	}
	return nil
}

// AddEntry appends an entry, dropping empty strings and consecutive
// duplicates.
func (hm *HistoryManager) AddEntry(entry string) {
	if !hm.config.Enabled || entry == "" {
		return
	}
	if len(hm.history) > 0 && hm.history[len(hm.history)-1] == entry {
		return
	}
	hm.history = append(hm.history, entry)
}

// GetHistory returns a copy of the entries, oldest first. Disabled history
// reads as empty.
func (hm *HistoryManager) GetHistory() []string {
	if !hm.config.Enabled {
		return []string{}
	}
	return append([]string{}, hm.history...)
}

// SetHistory replaces all entries.
func (hm *HistoryManager) SetHistory(history []string) {
	if !hm.config.Enabled {
		return
	}
	hm.history = append([]string{}, history...)
}

// ClearHistory removes all entries.
func (hm *HistoryManager) ClearHistory() {
	if !hm.config.Enabled {
		return
	}
	hm.history = []string{}
}

// rotateIfNeeded rotates the history file when it exceeds MaxFileSize.
func (hm *HistoryManager) rotateIfNeeded() error {
	if hm.config.File == "" {
		return nil
	}

	info, err := os.Stat(hm.config.File)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < hm.config.MaxFileSize {
		return nil
	}
	return hm.rotateHistoryFile()
}

// rotateHistoryFile shifts file.N to file.N+1 for each backup, moves the
// current file to file.1, and rewrites the file with the most recent
// entries. With MaxBackups 0 the file is simply truncated.
func (hm *HistoryManager) rotateHistoryFile() error {
	if hm.config.MaxBackups <= 0 {
		return os.Truncate(hm.config.File, 0)
	}

	oldest := hm.config.File + "." + strconv.Itoa(hm.config.MaxBackups)
	if _, err := os.Stat(oldest); err == nil {
		if err := os.Remove(oldest); err != nil {
			return fmt.Errorf("failed to remove oldest backup: %w", err)
		}
	}

	for i := hm.config.MaxBackups - 1; i >= 1; i-- {
		oldFile := hm.config.File + "." + strconv.Itoa(i)
		newFile := hm.config.File + "." + strconv.Itoa(i+1)
		if _, err := os.Stat(oldFile); err == nil {
			if err := os.Rename(oldFile, newFile); err != nil {
				return fmt.Errorf("failed to rotate backup %d: %w", i, err)
			}
		}
	}

	if err := os.Rename(hm.config.File, hm.config.File+".1"); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	if err := hm.writeRecentEntries(); err != nil {
		return fmt.Errorf("failed to create rotated file: %w", err)
	}
	return nil
}

// writeRecentEntries starts the rotated file with the newer half of the
// entries, so the next rotation is not immediate. Small histories are kept
// whole.
func (hm *HistoryManager) writeRecentEntries() error {
	keep := len(hm.history) / 2
	if keep < 100 {
		keep = len(hm.history)
	}
	start := len(hm.history) - keep
	if start < 0 {
		start = 0
	}

	file, err := os.Create(hm.config.File)
	if err != nil {
		return err
	}
	defer file.Close()

	for i := start; i < len(hm.history); i++ {
		if _, err := fmt.Fprintln(file, hm.history[i]); err != nil {
			return err
		}
	}

	hm.history = hm.history[start:]
	return nil
}

// expandHistoryPath resolves ~ prefixes and relative paths to an absolute
// history file path.
func expandHistoryPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to convert to absolute path: %w", err)
	}
	return absPath, nil
}
