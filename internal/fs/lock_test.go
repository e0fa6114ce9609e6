//go:build unix

package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skyline93/js5/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestTryLockExclusive(t *testing.T) {
	name := filepath.Join(t.TempDir(), "main_file_cache.dat2")

	first, err := OpenFile(name, os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	defer first.Close()

	second, err := OpenFile(name, os.O_RDWR, 0600)
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, TryLock(first))
	err = TryLock(second)
	require.ErrorIs(t, err, ErrLocked)
	require.ErrorIs(t, errors.Wrap(err, "lock data file"), ErrLocked)

	require.NoError(t, Unlock(first))
	require.NoError(t, TryLock(second))
	require.NoError(t, Unlock(second))
}

func TestExists(t *testing.T) {
	name := filepath.Join(t.TempDir(), "main_file_cache.idx0")

	ok, err := Exists(name)
	require.NoError(t, err)
	require.False(t, ok)

	f, err := OpenFile(name, os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ok, err = Exists(name)
	require.NoError(t, err)
	require.True(t, ok)
}
