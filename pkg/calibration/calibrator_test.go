package calibration_test

import (
	"testing"

	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(pairs ...[4]float64) []domain.CalibrationPoint {
	out := make([]domain.CalibrationPoint, len(pairs))
	for i, p := range pairs {
		out[i] = domain.CalibrationPoint{Design: domain.Loc(p[0], p[1]), Stage: domain.Loc(p[2], p[3])}
	}
	return out
}

func TestSolve_Exact(t *testing.T) {
	pts := points(
		[4]float64{0, 0, 1, 1},
		[4]float64{0, 10, 1, 11},
		[4]float64{10, 0, 11, 1},
	)

	m, err := calibration.Solve(pts)
	require.NoError(t, err)

	want := domain.AffineMatrix{{1, 0, 1}, {0, 1, 1}, {0, 0, 1}}
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], m[i][j], 1e-12, "m[%d][%d]", i, j)
		}
	}
	for _, p := range pts {
		got := m.ApplyLocation(p.Design)
		assert.InDelta(t, p.Stage.X, got.X, 1e-12)
		assert.InDelta(t, p.Stage.Y, got.Y, 1e-12)
	}
}

func TestSolve_RotatedScaled(t *testing.T) {
	truth := domain.NewAffineMatrix(0.998, -0.052, 12.5, 0.052, 0.998, -7.25)
	var pts []domain.CalibrationPoint
	for _, d := range []domain.Location{domain.Loc(-2500, -1800), domain.Loc(-2500, 1800), domain.Loc(2500, 1800)} {
		pts = append(pts, domain.CalibrationPoint{Design: d, Stage: truth.ApplyLocation(d)})
	}

	m, err := calibration.NewCalibrator().Solve(pts)
	require.NoError(t, err)
	assert.Less(t, calibration.MaxResidual(m, pts), 1e-6)
	for i, c := range truth.Coefficients() {
		assert.InDelta(t, c, m.Coefficients()[i], 1e-7)
	}
}

func TestSolve_Errors(t *testing.T) {
	t.Run("collinear", func(t *testing.T) {
		_, err := calibration.Solve(points(
			[4]float64{0, 0, 0, 0},
			[4]float64{1, 1, 1, 1},
			[4]float64{2, 2, 2, 2},
		))
		assert.ErrorIs(t, err, domain.ErrCalibrationSingular)
	})

	t.Run("nearly collinear", func(t *testing.T) {
		_, err := calibration.Solve(points(
			[4]float64{0, 0, 0, 0},
			[4]float64{1000, 1000, 1, 1},
			[4]float64{2000, 2000 + 1e-7, 2, 2},
		))
		assert.ErrorIs(t, err, domain.ErrCalibrationSingular)
	})

	t.Run("coincident", func(t *testing.T) {
		_, err := calibration.Solve(points(
			[4]float64{5, 5, 0, 0},
			[4]float64{5, 5, 1, 1},
			[4]float64{5, 5, 2, 2},
		))
		assert.ErrorIs(t, err, domain.ErrCalibrationSingular)
	})

	t.Run("identical stage points", func(t *testing.T) {
		_, err := calibration.Solve(points(
			[4]float64{0, 0, 0, 0},
			[4]float64{0, 10, 0, 0},
			[4]float64{10, 10, 0, 0},
		))
		assert.ErrorIs(t, err, domain.ErrCalibrationSingular)
	})

	t.Run("collinear stage points", func(t *testing.T) {
		_, err := calibration.Solve(points(
			[4]float64{0, 0, 0, 0},
			[4]float64{0, 10, 0.001, 0.001},
			[4]float64{10, 10, 0.002, 0.002},
		))
		assert.ErrorIs(t, err, domain.ErrCalibrationSingular)
	})

	for _, n := range []int{0, 2, 4} {
		pts := make([]domain.CalibrationPoint, n)
		_, err := calibration.Solve(pts)
		assert.ErrorIs(t, err, domain.ErrCalibrationInput, "count %d", n)
	}
}

func TestPair(t *testing.T) {
	targets := []*domain.Circuit{
		domain.NewCircuit(domain.Loc(0, 0), nil),
		domain.NewCircuit(domain.Loc(0, 10), nil),
	}
	_, err := calibration.Pair(targets, []domain.Location{domain.Loc(1, 1)})
	assert.ErrorIs(t, err, domain.ErrCalibrationInput)

	pts, err := calibration.Pair(targets, []domain.Location{domain.Loc(1, 1), domain.Loc(1, 11)})
	require.NoError(t, err)
	assert.Equal(t, domain.Loc(1, 11), pts[1].Stage)
}
