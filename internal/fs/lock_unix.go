//go:build unix

package fs

import (
	"github.com/skyline93/js5/internal/errors"
	"golang.org/x/sys/unix"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("file is locked by another process")

// TryLock places an exclusive advisory lock on f without blocking. File
// systems that do not support locking are treated as unlocked.
func TryLock(f File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EWOULDBLOCK):
		return ErrLocked
	case errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.ENOSYS):
		return nil
	}
	return err
}

// Unlock releases a lock placed by TryLock.
func Unlock(f File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	if err != nil && (errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.ENOSYS)) {
		return nil
	}
	return err
}
