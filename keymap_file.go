package cly

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Key map file errors
var (
	// ErrUnknownKeyName is returned when a key map file names a key this
	// package cannot translate to a key or escape sequence
	ErrUnknownKeyName = errors.New("unknown key name")
	// ErrUnknownAction is returned when a key map file names an action that
	// does not exist
	ErrUnknownAction = errors.New("unknown action name")
)

// keyMapFile is the YAML shape of a key map configuration file:
//
//	bindings:
//	  - key: ctrl+l
//	    action: delete-line
//	  - key: shift+tab
//	    action: history-prev
type keyMapFile struct {
	Bindings []keyMapFileBinding `yaml:"bindings"`
}

type keyMapFileBinding struct {
	Key    string `yaml:"key"`
	Action string `yaml:"action"`
}

// actionNames maps the action names accepted in key map files to the
// built-in editing actions.
var actionNames = map[string]KeyAction{
	"none":             ActionNone,
	"submit":           ActionSubmit,
	"cancel":           ActionCancel,
	"move-left":        ActionMoveLeft,
	"move-right":       ActionMoveRight,
	"move-up":          ActionMoveUp,
	"move-down":        ActionMoveDown,
	"move-home":        ActionMoveHome,
	"move-end":         ActionMoveEnd,
	"move-word-left":   ActionMoveWordLeft,
	"move-word-right":  ActionMoveWordRight,
	"delete-char":      ActionDeleteChar,
	"delete-line":      ActionDeleteLine,
	"delete-to-end":    ActionDeleteToEnd,
	"delete-word-back": ActionDeleteWordBack,
	"complete":         ActionComplete,
	"history-prev":     ActionHistoryUp,
	"history-next":     ActionHistoryDown,
	"history-search":   ActionHistorySearch,
	"new-line":         ActionNewLine,
}

// namedSequences maps key names that the terminal sends as escape sequences
// to the sequence bound in the key map, without the leading ESC.
var namedSequences = map[string]string{
	"up":         "[A",
	"down":       "[B",
	"right":      "[C",
	"left":       "[D",
	"home":       "[H",
	"end":        "[F",
	"delete":     "[3~",
	"page-up":    "[5~",
	"page-down":  "[6~",
	"shift+tab":  "[Z",
	"ctrl+left":  "[1;5D",
	"ctrl+right": "[1;5C",
	"f1":         "OP",
	"f2":         "OQ",
	"f3":         "OR",
	"f4":         "OS",
}

// namedRunes maps key names that the terminal sends as a single rune.
var namedRunes = map[string]rune{
	"tab":       '\t',
	"enter":     '\r',
	"return":    '\r',
	"space":     ' ',
	"backspace": '\x7f',
}

// LoadKeyMapFile reads a YAML key map file and returns the default key map
// with the file's bindings overlaid, so a file only needs to name the keys
// it changes.
//
// Key names are lowercase chords: "ctrl+a" through "ctrl+z", named keys
// ("tab", "enter", "backspace", "up", "down", "left", "right", "home",
// "end", "delete", "page-up", "page-down", "shift+tab", "ctrl+left",
// "ctrl+right", "f1" to "f4"), or any single printable character. Action
// names are the kebab-case forms of the KeyAction constants: "move-home",
// "delete-line", "history-search", and so on.
//
// Example:
//
//	km, err := cly.LoadKeyMapFile("~/.config/cly/keymap.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	p, err := cly.New("$ ", cly.WithKeyMap(km))
func LoadKeyMapFile(path string) (*KeyMap, error) {
	km := NewDefaultKeyMap()
	if err := km.ApplyFile(path); err != nil {
		return nil, err
	}
	return km, nil
}

// ApplyFile overlays the bindings from a YAML key map file onto km. Existing
// bindings for keys the file does not mention are kept.
func (km *KeyMap) ApplyFile(path string) error {
	expanded, err := expandHistoryPath(path)
	if err == nil && expanded != "" {
		path = expanded
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read key map file: %w", err)
	}

	var file keyMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse key map file: %w", err)
	}

	for i, binding := range file.Bindings {
		if err := km.applyFileBinding(binding); err != nil {
			return fmt.Errorf("key map binding %d: %w", i+1, err)
		}
	}
	return nil
}

func (km *KeyMap) applyFileBinding(binding keyMapFileBinding) error {
	name := strings.ToLower(strings.TrimSpace(binding.Key))
	if name == "" {
		return fmt.Errorf("empty key: %w", ErrUnknownKeyName)
	}

	action, ok := actionNames[strings.ToLower(strings.TrimSpace(binding.Action))]
	if !ok {
		return fmt.Errorf("%q: %w", binding.Action, ErrUnknownAction)
	}

	if seq, ok := namedSequences[name]; ok {
		km.BindSequence(seq, action)
		return nil
	}
	r, err := parseKeyChord(name)
	if err != nil {
		return err
	}
	km.Bind(r, action)
	return nil
}

// parseKeyChord translates a single-rune key name: a named key, a ctrl
// chord, or a literal printable character.
func parseKeyChord(name string) (rune, error) {
	if r, ok := namedRunes[name]; ok {
		return r, nil
	}

	if rest, ok := strings.CutPrefix(name, "ctrl+"); ok {
		if len(rest) == 1 && rest[0] >= 'a' && rest[0] <= 'z' {
			return rune(rest[0]-'a') + 1, nil
		}
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownKeyName)
	}

	runes := []rune(name)
	if len(runes) == 1 && runes[0] > ' ' {
		return runes[0], nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownKeyName)
}
