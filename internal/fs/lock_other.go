//go:build !unix

package fs

import "github.com/skyline93/js5/internal/errors"

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("file is locked by another process")

// TryLock is a no-op on platforms without flock.
func TryLock(f File) error { return nil }

// Unlock is a no-op on platforms without flock.
func Unlock(f File) error { return nil }
