package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/gator/pkg/control"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Equal(t, 7, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "|___/")
}

func TestRenderer_HelpTable(t *testing.T) {
	out, err := NewRenderer()(control.HelpMarkdown(control.DefaultBindings()))
	require.NoError(t, err)
	assert.Contains(t, out, "jog right")
}
