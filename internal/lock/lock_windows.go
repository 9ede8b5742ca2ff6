//go:build windows

package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	retryInterval = 10 * time.Millisecond
	// staleAfter is how old a lock file without a readable owner must be
	// before it is taken over.
	staleAfter = 30 * time.Second
)

// Acquire takes an exclusive lock on path and blocks until it is granted.
//
// On Windows this is implemented by atomically creating the lock file, which
// records the owner's process id. If the file already exists another holder
// owns the lock and Acquire polls until it is removed. A file left behind by a
// process that has exited is removed and the lock taken over.
//
// The returned file handle must be kept open for the duration of the lock.
func Acquire(path string) (*os.File, error) {
	for {
		f, err := TryAcquire(path)
		if !errors.Is(err, ErrLocked) {
			return f, err
		}
		time.Sleep(retryInterval)
	}
}

// TryAcquire is like Acquire but returns ErrLocked instead of waiting.
func TryAcquire(path string) (*os.File, error) {
	f, err := create(path)
	if errors.Is(err, ErrLocked) && stale(path) {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, ErrLocked
		}
		f, err = create(path)
	}
	return f, err
}

func create(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}
	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		Release(f)
		return nil, fmt.Errorf("unable to write lock file: %w", err)
	}
	return f, nil
}

// stale reports whether the lock file at path was left by a holder that is
// gone: its process no longer exists, or it names no process and is older than
// staleAfter.
func stale(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		info, err := os.Stat(path)
		return err == nil && time.Since(info.ModTime()) > staleAfter
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return true
	}
	proc.Release()
	return false
}

// Release removes the lock file. It should be called exactly once for each
// successful Acquire or TryAcquire.
func Release(f *os.File) {
	name := f.Name()
	f.Close()
	os.Remove(name)
}
