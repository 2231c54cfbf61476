package fsutil_test

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/aretw0/gator/internal/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	require.NoError(t, fsutil.WriteFileAtomic(path, []byte("first"), 0644))
	require.NoError(t, fsutil.WriteFileAtomic(path, []byte("second"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestWriteFileAtomic_OverwriteNeverMissing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("rename cannot replace an existing file on windows")
	}
	path := filepath.Join(t.TempDir(), "calibration.matrix")
	require.NoError(t, fsutil.WriteFileAtomic(path, []byte("a"), 0644))

	done := make(chan struct{})
	var wg sync.WaitGroup
	var missing int
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if _, err := os.ReadFile(path); os.IsNotExist(err) {
				missing++
			}
		}
	}()

	for i := 0; i < 200; i++ {
		require.NoError(t, fsutil.WriteFileAtomic(path, []byte("b"), 0644))
	}
	close(done)
	wg.Wait()
	assert.Zero(t, missing, "readers never see the file disappear")
}
