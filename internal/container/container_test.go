package container

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUncompressedLayout(t *testing.T) {
	buf, err := Encode(Container{Data: []byte{0xaa, 0xbb}, Version: 0x0102, HasVersion: true})
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x02, 0xaa, 0xbb, 0x01, 0x02}, buf)

	c, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, None, c.Compression)
	require.Equal(t, []byte{0xaa, 0xbb}, c.Data)
	require.True(t, c.HasVersion)
	require.Equal(t, uint16(0x0102), c.Version)
}

func TestRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("model sprite config "), 200)

	for _, comp := range []Compression{None, Bzip2, Gzip} {
		for _, versioned := range []bool{false, true} {
			t.Run(fmt.Sprintf("%v/versioned=%v", comp, versioned), func(t *testing.T) {
				in := Container{Compression: comp, Data: data}
				if versioned {
					in.Version, in.HasVersion = 77, true
				}

				buf, err := Encode(in)
				require.NoError(t, err)
				if comp != None {
					require.Less(t, len(buf), len(data))
					require.Equal(t, uint32(len(data)), uint32(buf[5])<<24|uint32(buf[6])<<16|uint32(buf[7])<<8|uint32(buf[8]))
				}
				if comp == Bzip2 {
					require.NotEqual(t, []byte("BZh"), buf[9:12])
				}

				out, err := Decode(buf)
				require.NoError(t, err)
				require.Equal(t, in, out)
			})
		}
	}
}

func TestEmptyPayload(t *testing.T) {
	for _, comp := range []Compression{None, Gzip, Bzip2} {
		buf, err := Encode(Container{Compression: comp})
		require.NoError(t, err)

		c, err := Decode(buf)
		require.NoError(t, err)
		require.Empty(t, c.Data)
		require.False(t, c.HasVersion)
	}
}

func TestDecodeMalformed(t *testing.T) {
	var tests = []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"short header", []byte{0, 0, 0}},
		{"short compressed header", []byte{2, 0, 0, 0, 1}},
		{"payload past end", []byte{0, 0, 0, 0, 9, 1, 2}},
		{"bad gzip", []byte{2, 0, 0, 0, 2, 0, 0, 0, 5, 1, 2}},
		{"unknown compression", []byte{7, 0, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Decode(test.buf)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestLengthMismatch(t *testing.T) {
	buf, err := Encode(Container{Compression: Gzip, Data: []byte("twelve bytes")})
	require.NoError(t, err)

	buf[8]++ // claim one more uncompressed byte
	_, err = Decode(buf)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("gzip")
	require.NoError(t, err)
	require.Equal(t, Gzip, c)

	_, err = ParseCompression("lzma")
	require.Error(t, err)
}
