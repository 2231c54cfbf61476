package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/gator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCalibrationStoreContract runs a suite of tests to verify that a CalibrationStore
// implementation adheres to the defined interface contract.
func RunCalibrationStoreContract(t *testing.T, store CalibrationStore) {
	ctx := context.Background()
	profile := "contract-" + time.Now().Format("20060102150405")
	matrix := domain.NewAffineMatrix(1.0001, -0.0002, 12.75, 0.0003, 0.9998, -4.5)

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, profile, matrix), "Save should not return error")

		loaded, err := store.Load(ctx, profile)
		require.NoError(t, err, "Load should not return error")
		for i, want := range matrix.Coefficients() {
			assert.InDelta(t, want, loaded.Coefficients()[i], 1e-12)
		}
	})

	t.Run("Save replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, profile, domain.Identity()))
		loaded, err := store.Load(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, domain.Identity(), loaded)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+profile)
		assert.ErrorIs(t, err, domain.ErrCalibrationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, profile, matrix))
		require.NoError(t, store.Delete(ctx, profile), "Delete should not return error")

		_, err := store.Load(ctx, profile)
		assert.ErrorIs(t, err, domain.ErrCalibrationNotFound, "Load after Delete should return ErrCalibrationNotFound")

		assert.NoError(t, store.Delete(ctx, profile), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		p1, p2 := profile+"-1", profile+"-2"
		require.NoError(t, store.Save(ctx, p1, matrix))
		require.NoError(t, store.Save(ctx, p2, matrix))
		defer func() {
			_ = store.Delete(ctx, p1)
			_ = store.Delete(ctx, p2)
		}()

		profiles, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, profiles, p1)
		assert.Contains(t, profiles, p2)
	})
}
