package lock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockFile(t *testing.T) {
	t.Run("second holder is refused while lock is active", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "MBBSEMU.DB.lock")

		f, err := TryAcquire(path)
		require.NoError(t, err)

		_, err = TryAcquire(path)
		assert.ErrorIs(t, err, ErrLocked)

		Release(f)

		f2, err := TryAcquire(path)
		require.NoError(t, err)
		Release(f2)
	})

	t.Run("acquire waits for release", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "MBBSEMU.DB.lock")

		f, err := Acquire(path)
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			f2, err := Acquire(path)
			if err == nil {
				Release(f2)
			}
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("lock was granted while held")
		case <-time.After(50 * time.Millisecond):
		}

		Release(f)

		select {
		case <-acquired:
		case <-time.After(5 * time.Second):
			t.Fatal("lock was not granted after release")
		}
	})

	t.Run("lock file left by a dead holder is taken over", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "MBBSEMU.DB.lock")
		require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))
		old := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(path, old, old))

		f, err := TryAcquire(path)
		require.NoError(t, err)

		_, err = TryAcquire(path)
		assert.ErrorIs(t, err, ErrLocked)
		Release(f)
	})
}
