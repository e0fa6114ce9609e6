package filesystem

import (
	"context"
	"testing"

	"github.com/skyline93/js5/internal/checksum"
	"github.com/skyline93/js5/internal/container"
	"github.com/skyline93/js5/internal/js5"
	"github.com/stretchr/testify/require"
)

func encodeSettings(t *testing.T, c container.Container) []byte {
	buf, err := container.Encode(c)
	require.NoError(t, err)
	return buf
}

func TestChecksums(t *testing.T) {
	cfg := testConfig(t)
	cfg.Connections = 1
	f := openTestFileSystem(t, cfg)

	for i := 0; i < 3; i++ {
		_, err := f.CreateArchive()
		require.NoError(t, err)
	}

	settings0 := encodeSettings(t, container.Container{Data: []byte("archive zero"), Version: 5, HasVersion: true})
	require.NoError(t, f.Write(js5.MetaArchive, 0, settings0))
	require.NoError(t, f.Write(0, 0, iterationFill(10)))
	require.NoError(t, f.Write(0, 7, iterationFill(10)))

	settings2 := encodeSettings(t, container.Container{Compression: container.Gzip, Data: iterationFill(2000)})
	require.NoError(t, f.Write(js5.MetaArchive, 2, settings2))

	table, err := f.Checksums(context.TODO())
	require.NoError(t, err)
	require.Len(t, table.Archives, 3)

	require.True(t, checksum.FromData(settings0, 5, 2).Equal(table.Archives[0]))
	require.True(t, checksum.DictionaryChecksum{Digest: checksum.Digest(nil)}.Equal(table.Archives[1]))
	require.True(t, checksum.FromData(settings2, 0, 0).Equal(table.Archives[2]))

	buf, err := checksum.Encode(table, checksum.Whirlpool{})
	require.NoError(t, err)
	decoded, err := checksum.Decode(buf, checksum.Whirlpool{})
	require.NoError(t, err)
	require.True(t, table.Equal(decoded))
}

func TestChecksumsParallel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Connections = 4
	f := openTestFileSystem(t, cfg)

	const n = 20
	for i := 0; i < n; i++ {
		settings := encodeSettings(t, container.Container{Data: iterationFill(100 + i), Version: uint16(i), HasVersion: true})
		require.NoError(t, f.Write(js5.ArchiveID(i), 0, iterationFill(i)))
		require.NoError(t, f.Write(js5.MetaArchive, js5.ContainerID(i), settings))
	}

	table, err := f.Checksums(context.TODO())
	require.NoError(t, err)
	require.Len(t, table.Archives, n)
	for i, entry := range table.Archives {
		require.Equal(t, uint32(i), entry.Version)
		require.Equal(t, uint32(1), entry.FileCount)
	}
}

func TestChecksumsEmptyCache(t *testing.T) {
	f := openTestFileSystem(t, testConfig(t))

	table, err := f.Checksums(context.TODO())
	require.NoError(t, err)
	require.Empty(t, table.Archives)
}

func TestChecksumsMalformedSettings(t *testing.T) {
	f := openTestFileSystem(t, testConfig(t))

	_, err := f.CreateArchive()
	require.NoError(t, err)
	require.NoError(t, f.Write(js5.MetaArchive, 0, []byte{9}))

	_, err = f.Checksums(context.TODO())
	require.ErrorIs(t, err, container.ErrMalformed)
}

func TestChecksumsCanceled(t *testing.T) {
	f := openTestFileSystem(t, testConfig(t))
	_, err := f.CreateArchive()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Checksums(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
