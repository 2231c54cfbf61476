package file_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/gator/pkg/adapters/file"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunCalibrationStoreContract(t, store)
}

func TestFileStore_PlainRows(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "bench", domain.NewAffineMatrix(2, 0, 5, 0, 2, -1)))

	data, err := os.ReadFile(filepath.Join(dir, "bench.matrix"))
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, rows, 3)
	assert.Len(t, strings.Fields(rows[0]), 3)

	// A hand-edited file with comments and commas still loads.
	edited := "# bench\n2, 0, 5\n0, 2, -1\n0, 0, 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "edited.matrix"), []byte(edited), 0644))
	m, err := store.Load(ctx, "edited")
	require.NoError(t, err)
	assert.Equal(t, domain.NewAffineMatrix(2, 0, 5, 0, 2, -1), m)

	profiles, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bench", "edited"}, profiles)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.matrix"), []byte("1 2\n"), 0644))

	_, err := file.New(dir).Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCalibrationNotFound)
}

func TestFileStore_RejectsReservedNames(t *testing.T) {
	store := file.New(t.TempDir())
	err := store.Save(context.Background(), "_registry", domain.Identity())
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)
	err = store.Save(context.Background(), "../escape", domain.Identity())
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	profiles, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)
}
