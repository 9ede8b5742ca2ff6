//go:build unix

package lock

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Acquire takes an exclusive advisory lock on the file at path, creating it if
// needed, and blocks until the lock is granted.
//
// On Unix systems this uses flock(2). The lock file is left on disk so every
// process contends on the same inode.
//
// The returned file handle must remain open for the duration of the lock.
func Acquire(path string) (*os.File, error) {
	return acquire(path, syscall.LOCK_EX)
}

// TryAcquire is like Acquire but returns ErrLocked instead of waiting.
func TryAcquire(path string) (*os.File, error) {
	return acquire(path, syscall.LOCK_EX|syscall.LOCK_NB)
}

func acquire(path string, how int) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}

	for {
		err = syscall.Flock(int(f.Fd()), how)
		if !errors.Is(err, syscall.EINTR) {
			break
		}
	}
	if err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("unable to lock %s: %w", path, err)
	}

	return f, nil
}

// Release releases a lock acquired via Acquire or TryAcquire.
func Release(f *os.File) {
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	f.Close()
}
