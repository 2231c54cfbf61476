package control

import (
	"context"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// DefaultReleaseAfter is how long a key must stay silent before it counts as
// released. Terminals report no key-up, only auto-repeat, so it has to exceed
// the typical auto-repeat delay.
const DefaultReleaseAfter = 600 * time.Millisecond

// TerminalKeySource turns raw terminal input into key events.
type TerminalKeySource struct {
	In           *os.File
	ReleaseAfter time.Duration
}

// NewTerminalKeySource reads from stdin.
func NewTerminalKeySource() *TerminalKeySource {
	return &TerminalKeySource{In: os.Stdin, ReleaseAfter: DefaultReleaseAfter}
}

// IsTerminal reports whether In is an interactive terminal.
func (s *TerminalKeySource) IsTerminal() bool {
	return term.IsTerminal(int(s.In.Fd()))
}

// Events switches the terminal to raw mode and streams events until ctx ends or
// input closes. The returned restore function must be called to leave raw mode.
func (s *TerminalKeySource) Events(ctx context.Context) (<-chan Event, func() error, error) {
	fd := int(s.In.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, err
	}
	restore := func() error { return term.Restore(fd, old) }

	keys := make(chan string)
	go readKeys(s.In, keys)
	return Stream(ctx, keys, s.ReleaseAfter), restore, nil
}

// readKeys decodes r into key names until it fails.
func readKeys(r io.Reader, keys chan<- string) {
	defer close(keys)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, k := range DecodeKeys(buf[:n]) {
			keys <- k
		}
		if err != nil {
			return
		}
	}
}

// DecodeKeys converts a chunk of raw terminal bytes into key names.
func DecodeKeys(b []byte) []string {
	var out []string
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == 0x1b && i+2 < len(b) && (b[i+1] == '[' || b[i+1] == 'O'):
			switch b[i+2] {
			case 'A':
				out = append(out, "up")
			case 'B':
				out = append(out, "down")
			case 'C':
				out = append(out, "right")
			case 'D':
				out = append(out, "left")
			}
			i += 2
		case c == 0x1b:
			out = append(out, "esc")
		case c == 0x03:
			out = append(out, KeyInterrupt)
		case c == ' ':
			out = append(out, "space")
		case c == '\r' || c == '\n':
			out = append(out, "enter")
		case c >= 0x21 && c < 0x7f:
			out = append(out, string(rune(c)))
		}
	}
	return out
}

// Stream turns a sequence of key names into press and release events. Every
// key name is a press; a key is released when a different key arrives or when
// it has been silent for releaseAfter.
func Stream(ctx context.Context, keys <-chan string, releaseAfter time.Duration) <-chan Event {
	if releaseAfter <= 0 {
		releaseAfter = DefaultReleaseAfter
	}
	events := make(chan Event)
	go func() {
		defer close(events)
		send := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		held := ""
		timer := time.NewTimer(releaseAfter)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if held != "" && !send(Event{Key: held}) {
					return
				}
				held = ""
			case k, ok := <-keys:
				if !ok {
					if held != "" {
						send(Event{Key: held})
					}
					return
				}
				if held != "" && held != k && !send(Event{Key: held}) {
					return
				}
				held = k
				if !send(Event{Key: k, Pressed: true}) {
					return
				}
				timer.Reset(releaseAfter)
			}
		}
	}()
	return events
}
