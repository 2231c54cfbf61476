package memory_test

import (
	"context"
	"math"
	"testing"

	"github.com/aretw0/gator/pkg/adapters/memory"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunCalibrationStoreContract(t, store)
}

func TestMemoryStore_RejectsInvalidMatrix(t *testing.T) {
	store := memory.NewStore()
	bad := domain.NewAffineMatrix(math.NaN(), 0, 0, 0, 1, 0)

	assert.Error(t, store.Save(context.Background(), "p", bad))
	_, err := store.Load(context.Background(), "p")
	assert.ErrorIs(t, err, domain.ErrCalibrationNotFound)
}
