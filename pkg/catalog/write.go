package catalog

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/gator/internal/fsutil"
	"github.com/aretw0/gator/pkg/domain"
)

// Write serializes m in catalog format, one circuit per line in map order.
// Parameters that the format cannot represent are rejected rather than written lossy.
func Write(w io.Writer, m *domain.CircuitMap) error {
	for i, c := range m.Circuits() {
		if err := representable(c); err != nil {
			return fmt.Errorf("circuit %d %s: %w", i, c.Loc, err)
		}
		if _, err := io.WriteString(w, c.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes m to path atomically.
func SaveFile(path string, m *domain.CircuitMap) error {
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, buf.Bytes(), 0644)
}

func representable(c *domain.Circuit) error {
	for k, v := range c.Params {
		switch {
		case k == "" || k != strings.TrimSpace(k):
			return fmt.Errorf("key %q has surrounding whitespace or is empty", k)
		case strings.ContainsAny(k, ",=\n\r"):
			return fmt.Errorf("key %q contains a reserved character", k)
		case v != strings.TrimSpace(v):
			return fmt.Errorf("value of %q has surrounding whitespace", k)
		case strings.ContainsAny(v, ",\n\r"):
			return fmt.Errorf("value of %q contains a reserved character", k)
		}
	}
	return nil
}
