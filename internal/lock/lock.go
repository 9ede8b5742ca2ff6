// Package lock serialises store conversion across processes with a lock file.
package lock

import "errors"

// ErrLocked is returned by TryAcquire when another holder owns the lock.
var ErrLocked = errors.New("lock file already held")
