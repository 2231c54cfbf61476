package calibration

import (
	"fmt"

	"github.com/aretw0/gator/pkg/domain"
)

// Selector picks the three calibration targets from a catalog.
type Selector interface {
	Name() string
	Select(m *domain.CircuitMap) ([]*domain.Circuit, error)
}

// Flagged selects the circuits whose Key parameter is "True".
// Exactly three circuits must be flagged.
type Flagged struct {
	Key string
}

func (f Flagged) Name() string { return "flag" }

func (f Flagged) Select(m *domain.CircuitMap) ([]*domain.Circuit, error) {
	key := f.Key
	if key == "" {
		key = domain.KeyCalibrationCircuit
	}
	flagged := m.Flagged(key)
	if flagged.Len() != 3 {
		return nil, fmt.Errorf("%w: %d circuits flagged %s=%s", domain.ErrCalibrationInput, flagged.Len(), key, domain.TrueValue)
	}
	return flagged.Circuits(), nil
}

// Corners selects the bottom-left, top-left and top-right circuits of the catalog.
// Bottom-left is the lowest y (then lowest x); top-left is the highest y (then
// lowest x); top-right is the highest y (then highest x).
type Corners struct{}

func (Corners) Name() string { return "corners" }

func (Corners) Select(m *domain.CircuitMap) ([]*domain.Circuit, error) {
	if m.Len() < 3 {
		return nil, fmt.Errorf("%w: catalog has %d circuits", domain.ErrCalibrationInput, m.Len())
	}
	bl, tl, tr := m.At(0), m.At(0), m.At(0)
	for _, c := range m.Circuits() {
		if c.Loc.Y < bl.Loc.Y || (c.Loc.Y == bl.Loc.Y && c.Loc.X < bl.Loc.X) {
			bl = c
		}
		if c.Loc.Y > tl.Loc.Y || (c.Loc.Y == tl.Loc.Y && c.Loc.X < tl.Loc.X) {
			tl = c
		}
		if c.Loc.Y > tr.Loc.Y || (c.Loc.Y == tr.Loc.Y && c.Loc.X > tr.Loc.X) {
			tr = c
		}
	}
	if bl == tl || tl == tr || bl == tr {
		return nil, fmt.Errorf("%w: catalog has no three distinct corner circuits", domain.ErrCalibrationInput)
	}
	return []*domain.Circuit{bl, tl, tr}, nil
}

// SelectorByName resolves a configured strategy name.
func SelectorByName(name string) (Selector, error) {
	switch name {
	case "", "flag":
		return Flagged{Key: domain.KeyCalibrationCircuit}, nil
	case "corners":
		return Corners{}, nil
	default:
		return nil, fmt.Errorf("unknown calibration selection %q (want flag or corners)", name)
	}
}
