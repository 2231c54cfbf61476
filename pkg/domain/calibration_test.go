package domain_test

import (
	"testing"

	"github.com/aretw0/gator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineMatrix_Inverse(t *testing.T) {
	m := domain.NewAffineMatrix(2, 0.5, 10, -0.25, 3, -4)

	inv, err := m.Inverse()
	require.NoError(t, err)

	for _, p := range []domain.Location{domain.Loc(0, 0), domain.Loc(1, 2), domain.Loc(-7, 3.5)} {
		sx, sy := m.Apply(p.X, p.Y)
		dx, dy := inv.Apply(sx, sy)
		assert.InDelta(t, p.X, dx, 1e-9)
		assert.InDelta(t, p.Y, dy, 1e-9)
	}

	_, err = domain.NewAffineMatrix(1, 2, 0, 2, 4, 0).Inverse()
	assert.ErrorIs(t, err, domain.ErrCalibrationSingular)
}

func TestAffineMatrix_TextRoundTrip(t *testing.T) {
	m := domain.NewAffineMatrix(1.000123, -0.002, 12.5, 0.003, 0.9991, -3.25)

	text, err := m.MarshalText()
	require.NoError(t, err)

	var got domain.AffineMatrix
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, m, got)
}

func TestAffineMatrix_UnmarshalRejects(t *testing.T) {
	cases := map[string]string{
		"two rows":       "1 0 0\n0 1 0\n",
		"short row":      "1 0\n0 1 0\n0 0 1\n",
		"bad bottom row": "1 0 0\n0 1 0\n0 1 1\n",
		"not a number":   "1 0 x\n0 1 0\n0 0 1\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			var m domain.AffineMatrix
			assert.Error(t, m.UnmarshalText([]byte(text)))
		})
	}
}

func TestHardwareErrorUnwraps(t *testing.T) {
	cause := assert.AnError
	err := &domain.HardwareError{Device: "x", Op: "move_to", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "move_to")
}
