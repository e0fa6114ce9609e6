package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/skyline93/js5/internal/checksum"
	"github.com/skyline93/js5/internal/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func withTestCache(t *testing.T) {
	old := globalOptions
	globalOptions = GlobalOptions{Cache: "local:" + t.TempDir(), CacheSize: 8}
	t.Cleanup(func() { globalOptions = old })
}

func testCommand(stdin []byte) (*cobra.Command, *bytes.Buffer) {
	out := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetIn(bytes.NewReader(stdin))
	cmd.SetOut(out)
	return cmd, out
}

func TestWriteReadCommands(t *testing.T) {
	withTestCache(t)
	ctx := context.TODO()
	data := bytes.Repeat([]byte("sprite "), 300)

	cmd, _ := testCommand(data)
	require.NoError(t, runWrite(ctx, cmd, WriteOptions{Version: -1}, []string{"0", "3"}))

	cmd, out := testCommand(nil)
	require.NoError(t, runRead(ctx, cmd, ReadOptions{}, []string{"0", "3"}))
	require.Equal(t, data, out.Bytes())

	cmd, _ = testCommand(data)
	require.NoError(t, runWrite(ctx, cmd, WriteOptions{Compression: "gzip", Version: 12}, []string{"meta", "0"}))

	cmd, out = testCommand(nil)
	require.NoError(t, runRead(ctx, cmd, ReadOptions{Decode: true}, []string{"meta", "0"}))
	require.Equal(t, data, out.Bytes())

	cmd, out = testCommand(nil)
	require.NoError(t, runStat(ctx, cmd, []string{"0", "3"}))
	require.Contains(t, out.String(), "size:    2100")

	cmd, _ = testCommand(nil)
	require.Error(t, runWrite(ctx, cmd, WriteOptions{Version: -1}, []string{"5", "0"}))
}

func TestChecksumCommands(t *testing.T) {
	withTestCache(t)
	ctx := context.TODO()

	cmd, _ := testCommand([]byte{0, 0, 0, 0, 1, 7, 0, 3})
	require.NoError(t, runWrite(ctx, cmd, WriteOptions{Version: -1}, []string{"meta", "0"}))
	cmd, _ = testCommand([]byte("file"))
	require.NoError(t, runWrite(ctx, cmd, WriteOptions{Version: -1}, []string{"0", "0"}))

	for _, opts := range []ChecksumOptions{
		{},
		{Whirlpool: true},
	} {
		name := filepath.Join(t.TempDir(), "checksum")

		cmd, _ = testCommand(nil)
		require.NoError(t, runChecksumEncode(ctx, cmd, opts, name))

		cmd, out := testCommand(nil)
		require.NoError(t, runChecksumVerify(ctx, cmd, opts, name))
		require.Equal(t, "1 archives verified\n", out.String())

		buf, err := os.ReadFile(name)
		require.NoError(t, err)
		buf[0] ^= 0xff
		require.NoError(t, os.WriteFile(name, buf, 0644))

		cmd, _ = testCommand(nil)
		require.Error(t, runChecksumVerify(ctx, cmd, opts, name))
	}
}

func TestChecksumMode(t *testing.T) {
	mode, err := ChecksumOptions{}.mode()
	require.NoError(t, err)
	require.Equal(t, checksum.Plain{}, mode)

	mode, err = ChecksumOptions{Whirlpool: true}.mode()
	require.NoError(t, err)
	require.Equal(t, checksum.Whirlpool{}, mode)

	mode, err = ChecksumOptions{Whirlpool: true, Modulus: "0xca1", Exponent: "17"}.mode()
	require.NoError(t, err)
	require.IsType(t, checksum.Signed{}, mode)

	_, err = ChecksumOptions{Whirlpool: true, Modulus: "nope", Exponent: "17"}.mode()
	require.Error(t, err)

	_, err = ChecksumOptions{Whirlpool: true, Modulus: "0xca1"}.mode()
	require.Error(t, err)
}

func TestChecksumModeKeyRequiresWhirlpool(t *testing.T) {
	for _, opts := range []ChecksumOptions{
		{Modulus: "0xca1", Exponent: "17"},
		{Modulus: "0xca1"},
		{Exponent: "17"},
	} {
		_, err := opts.mode()
		require.Error(t, err)
		require.True(t, errors.IsFatal(err))
	}
}

func TestMetricsFile(t *testing.T) {
	withTestCache(t)
	ctx := context.TODO()

	cmd, _ := testCommand([]byte("data"))
	require.NoError(t, runWrite(ctx, cmd, WriteOptions{Version: -1}, []string{"0", "0"}))

	name := filepath.Join(t.TempDir(), "js5.prom")
	require.NoError(t, writeMetrics(name))

	buf, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Contains(t, string(buf), `js5_disk_operations_total{operation="write",result="success"}`)

	require.NoError(t, writeMetrics(""))
}
