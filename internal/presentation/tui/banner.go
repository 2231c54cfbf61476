package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the gator banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Green ramp, dark to light.
	lines := []struct{ text, color string }{
		{`   __ _  __ _| |_ ___  _ __ `, "#15803d"},
		{`  / _' |/ _' | __/ _ \| '__|`, "#16a34a"},
		{` | (_| | (_| | || (_) | |   `, "#22c55e"},
		{`  \__, |\__,_|\__\___/|_|   `, "#4ade80"},
		{`  |___/                     `, "#86efac"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
