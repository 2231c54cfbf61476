package calibration_test

import (
	"sync"
	"testing"

	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformer_UncalibratedGuard(t *testing.T) {
	tr := calibration.NewTransformer()

	_, _, err := tr.ToStage(1, 2)
	assert.ErrorIs(t, err, domain.ErrUncalibrated)
	_, _, err = tr.ToDesign(1, 2)
	assert.ErrorIs(t, err, domain.ErrUncalibrated)
	assert.False(t, tr.Calibrated())

	require.NoError(t, tr.SetCalibration(domain.NewAffineMatrix(1, 0, 1, 0, 1, 1)))
	x, y, err := tr.ToStage(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, x)
	assert.Equal(t, 3.0, y)

	tr.Clear()
	_, _, err = tr.ToStage(1, 2)
	assert.ErrorIs(t, err, domain.ErrUncalibrated)
}

func TestTransformer_ToDesign(t *testing.T) {
	tr := calibration.NewTransformer()
	require.NoError(t, tr.SetCalibration(domain.NewAffineMatrix(2, 0, 5, 0, -1, 3)))

	sx, sy, err := tr.ToStage(4, 7)
	require.NoError(t, err)
	x, y, err := tr.ToDesign(sx, sy)
	require.NoError(t, err)
	assert.InDelta(t, 4, x, 1e-12)
	assert.InDelta(t, 7, y, 1e-12)

	require.NoError(t, tr.SetCalibration(domain.NewAffineMatrix(1, 1, 0, 1, 1, 0)))
	_, _, err = tr.ToDesign(0, 0)
	assert.ErrorIs(t, err, domain.ErrCalibrationSingular)
}

func TestTransformer_RejectsNonAffine(t *testing.T) {
	tr := calibration.NewTransformer()
	assert.Error(t, tr.SetCalibration(domain.AffineMatrix{{1, 0, 0}, {0, 1, 0}, {1, 0, 1}}))
	assert.False(t, tr.Calibrated())
}

func TestTransformer_ConcurrentReplace(t *testing.T) {
	tr := calibration.NewTransformer()
	require.NoError(t, tr.SetCalibration(domain.Identity()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = tr.SetCalibration(domain.NewAffineMatrix(1, 0, float64(i), 0, 1, float64(i)))
		}(i)
		go func() {
			defer wg.Done()
			x, y, err := tr.ToStage(0, 0)
			assert.NoError(t, err)
			assert.Equal(t, x, y, "matrix is never observed half-written")
		}()
	}
	wg.Wait()
}
