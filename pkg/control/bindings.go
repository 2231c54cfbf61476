package control

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is something a key can trigger.
type Action string

const (
	MoveLeft  Action = "move_left"
	MoveRight Action = "move_right"
	MoveUp    Action = "move_up"
	MoveDown  Action = "move_down"
	MoveRaise Action = "move_raise"
	MoveLower Action = "move_lower"

	JogLeft             Action = "jog_left"
	JogRight            Action = "jog_right"
	JogUp               Action = "jog_up"
	JogDown             Action = "jog_down"
	JogRaise            Action = "jog_raise"
	JogLower            Action = "jog_lower"
	JogClockwise        Action = "jog_clockwise"
	JogCounterclockwise Action = "jog_counterclockwise"

	StepLarger  Action = "step_larger"
	StepSmaller Action = "step_smaller"

	StopAll Action = "stop_all"
	Home    Action = "home"
	Help    Action = "help"
	Quit    Action = "quit"
)

// KeyInterrupt always quits, whatever the bindings say.
const KeyInterrupt = "ctrl+c"

// Continuous reports whether a is a press-and-hold move.
func (a Action) Continuous() bool {
	return strings.HasPrefix(string(a), "move_")
}

// Bindings maps actions to key names. Key names are single characters or one
// of "left", "right", "up", "down", "space", "enter", "esc".
type Bindings map[Action]string

// DefaultBindings returns the stock keyboard layout.
func DefaultBindings() Bindings {
	return Bindings{
		MoveLeft:  "left",
		MoveRight: "right",
		MoveUp:    "up",
		MoveDown:  "down",
		MoveRaise: "=",
		MoveLower: "-",

		JogLeft:             "a",
		JogRight:            "d",
		JogUp:               "w",
		JogDown:             "s",
		JogRaise:            "r",
		JogLower:            "f",
		JogClockwise:        "c",
		JogCounterclockwise: "x",

		StepLarger:  "]",
		StepSmaller: "[",

		StopAll: "space",
		Home:    "o",
		Help:    "h",
		Quit:    "q",
	}
}

// Validate rejects unknown actions, empty keys and keys bound twice.
func (b Bindings) Validate() error {
	known := DefaultBindings()
	seen := make(map[string]Action, len(b))
	for _, a := range b.Actions() {
		key := b[a]
		if _, ok := known[a]; !ok {
			return fmt.Errorf("unknown action %q", a)
		}
		if key == "" {
			return fmt.Errorf("action %q has no key", a)
		}
		if key == KeyInterrupt {
			return fmt.Errorf("key %q is reserved", key)
		}
		if other, dup := seen[key]; dup {
			return fmt.Errorf("key %q bound to both %q and %q", key, other, a)
		}
		seen[key] = a
	}
	return nil
}

// Actions returns the bound actions sorted by name.
func (b Bindings) Actions() []Action {
	out := make([]Action, 0, len(b))
	for a := range b {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve returns the action bound to key.
func (b Bindings) Resolve(key string) (Action, bool) {
	if key == KeyInterrupt {
		return Quit, true
	}
	for a, k := range b {
		if k == key {
			return a, true
		}
	}
	return "", false
}

// LoadBindings reads a YAML file of action: key pairs over the defaults.
func LoadBindings(path string) (Bindings, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read bindings: %w", err)
	}
	var overrides Bindings
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse bindings: %w", err)
	}
	b := DefaultBindings()
	for a, k := range overrides {
		b[a] = k
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// HelpMarkdown renders the bindings as a Markdown table.
func HelpMarkdown(b Bindings) string {
	var sb strings.Builder
	sb.WriteString("# Stage Control\n\n| Action | Key |\n|---|---|\n")
	for _, a := range b.Actions() {
		fmt.Fprintf(&sb, "| %s | `%s` |\n", strings.ReplaceAll(string(a), "_", " "), b[a])
	}
	fmt.Fprintf(&sb, "\n`%s` always quits.\n", KeyInterrupt)
	return sb.String()
}
