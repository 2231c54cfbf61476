package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/gator/pkg/catalog"
	"github.com/aretw0/gator/pkg/domain"
)

// FilterOptions narrows a catalog. By keeps matching circuits, Out then drops
// circuits excluded by it.
type FilterOptions struct {
	By  map[string]string
	Out map[string]string
}

func (f FilterOptions) apply(m *domain.CircuitMap) *domain.CircuitMap {
	if len(f.By) > 0 {
		m = m.FilterBy(f.By)
	}
	if len(f.Out) > 0 {
		m = m.FilterOut(f.Out)
	}
	return m
}

func load(path string, errw io.Writer) (*domain.CircuitMap, error) {
	m, rep, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, pe := range rep.Errors {
		printSystemMessage(errw, "skipped %v", pe)
	}
	return m, nil
}

// ListCircuits writes the circuits of path that pass f, in catalog format.
func ListCircuits(w, errw io.Writer, path string, f FilterOptions) error {
	m, err := load(path, errw)
	if err != nil {
		return err
	}
	out := f.apply(m)
	if err := catalog.Write(w, out); err != nil {
		return err
	}
	printSystemMessage(errw, "%d of %d circuits", out.Len(), m.Len())
	return nil
}

// MergeCircuits writes the union of the catalogs at paths. Earlier files win
// when two circuits share a location.
func MergeCircuits(w, errw io.Writer, paths []string) error {
	merged := domain.NewCircuitMap()
	for _, p := range paths {
		m, err := load(p, errw)
		if err != nil {
			return err
		}
		merged = merged.Merge(m)
	}
	return catalog.Write(w, merged)
}

// StampCircuits sets params on the circuits of path that pass f and writes the
// whole catalog, optionally shifted by offset.
func StampCircuits(w, errw io.Writer, path string, f FilterOptions, params map[string]string, offset domain.Location) error {
	m, err := load(path, errw)
	if err != nil {
		return err
	}
	hit := f.apply(m)
	hit.UpdateParams(params)
	if offset != (domain.Location{}) {
		m.Translate(offset.X, offset.Y)
	}
	if err := catalog.Write(w, m); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	printSystemMessage(errw, "stamped %d circuits", hit.Len())
	return nil
}
