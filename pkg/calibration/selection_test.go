package calibration_test

import (
	"testing"

	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid() *domain.CircuitMap {
	m := domain.NewCircuitMap()
	for _, y := range []float64{0, 50, 100} {
		for _, x := range []float64{0, 50, 100} {
			m.Append(domain.NewCircuit(domain.Loc(x, y), domain.Params{}))
		}
	}
	return m
}

func TestFlagged(t *testing.T) {
	m := grid()
	for _, loc := range []domain.Location{domain.Loc(50, 0), domain.Loc(0, 100), domain.Loc(100, 50)} {
		c, err := m.Find(loc)
		require.NoError(t, err)
		c.Params[domain.KeyCalibrationCircuit] = domain.TrueValue
	}

	got, err := calibration.Flagged{}.Select(m)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.Loc(50, 0), got[0].Loc)

	m.At(0).Params[domain.KeyCalibrationCircuit] = domain.TrueValue
	_, err = calibration.Flagged{}.Select(m)
	assert.ErrorIs(t, err, domain.ErrCalibrationInput)
}

func TestCorners(t *testing.T) {
	got, err := calibration.Corners{}.Select(grid())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.Loc(0, 0), got[0].Loc, "bottom-left")
	assert.Equal(t, domain.Loc(0, 100), got[1].Loc, "top-left")
	assert.Equal(t, domain.Loc(100, 100), got[2].Loc, "top-right")

	// A single circuit on the top row cannot provide distinct top corners.
	m := domain.NewCircuitMap(
		domain.NewCircuit(domain.Loc(0, 0), nil),
		domain.NewCircuit(domain.Loc(10, 0), nil),
		domain.NewCircuit(domain.Loc(5, 10), nil),
	)
	_, err = calibration.Corners{}.Select(m)
	assert.ErrorIs(t, err, domain.ErrCalibrationInput)
}

func TestSelectorByName(t *testing.T) {
	s, err := calibration.SelectorByName("corners")
	require.NoError(t, err)
	assert.Equal(t, "corners", s.Name())

	s, err = calibration.SelectorByName("")
	require.NoError(t, err)
	assert.Equal(t, "flag", s.Name())

	_, err = calibration.SelectorByName("both")
	assert.Error(t, err)
}
