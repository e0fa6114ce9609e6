// Package container implements the envelope wrapped around container data
// before it is handed to the disk store: a compression type, the compressed
// and uncompressed lengths, the (possibly compressed) payload and an optional
// two byte version trailer.
package container

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/skyline93/js5/internal/errors"
)

// Compression is the algorithm a container payload is compressed with.
type Compression uint8

const (
	None Compression = iota
	Bzip2
	Gzip
)

func (c Compression) String() string {
	s := "invalid"
	switch c {
	case None:
		s = "none"
	case Bzip2:
		s = "bzip2"
	case Gzip:
		s = "gzip"
	}
	return s
}

// ParseCompression parses the name returned by Compression.String.
func ParseCompression(s string) (Compression, error) {
	for _, c := range []Compression{None, Bzip2, Gzip} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown compression %q", s)
}

// ErrMalformed is returned when decoding an envelope that is truncated or
// inconsistent.
var ErrMalformed = errors.New("malformed container")

// bzip2Header is the stream header that the envelope leaves out.
var bzip2Header = []byte("BZh1")

// Container is a decoded envelope. Data is always uncompressed.
type Container struct {
	Compression Compression
	Data        []byte

	Version    uint16
	HasVersion bool
}

// Encode compresses c.Data and wraps it in an envelope.
func Encode(c Container) ([]byte, error) {
	payload, err := compress(c.Compression, c.Data)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 9+len(payload)+2)
	buf = append(buf, byte(c.Compression))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(payload)))
	if c.Compression != None {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Data)))
	}
	buf = append(buf, payload...)
	if c.HasVersion {
		buf = binary.BigEndian.AppendUint16(buf, c.Version)
	}
	return buf, nil
}

// Decode unwraps and decompresses an envelope.
func Decode(buf []byte) (Container, error) {
	if len(buf) < 5 {
		return Container{}, errors.Wrap(ErrMalformed, "truncated header")
	}

	c := Container{Compression: Compression(buf[0])}
	size := int(binary.BigEndian.Uint32(buf[1:]))
	rest := buf[5:]

	var uncompressed int
	if c.Compression != None {
		if len(rest) < 4 {
			return Container{}, errors.Wrap(ErrMalformed, "truncated header")
		}
		uncompressed = int(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
	}
	if size < 0 || len(rest) < size {
		return Container{}, errors.Wrapf(ErrMalformed, "payload of %d bytes exceeds the %d available", size, len(rest))
	}

	payload, trailer := rest[:size], rest[size:]
	if len(trailer) >= 2 {
		c.Version = binary.BigEndian.Uint16(trailer)
		c.HasVersion = true
	}

	if c.Compression == None {
		c.Data = append([]byte(nil), payload...)
		return c, nil
	}

	data, err := decompress(c.Compression, payload, uncompressed)
	if err != nil {
		return Container{}, err
	}
	c.Data = data
	return c, nil
}

func compress(c Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	switch c {
	case None:
		return data, nil
	case Gzip:
		w = gzip.NewWriter(&buf)
	case Bzip2:
		w, err = bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 1})
		if err != nil {
			return nil, errors.Wrap(err, "bzip2.NewWriter")
		}
	default:
		return nil, errors.Errorf("unsupported compression %v", c)
	}

	if _, err = w.Write(data); err != nil {
		return nil, errors.Wrapf(err, "%v compress", c)
	}
	if err = w.Close(); err != nil {
		return nil, errors.Wrapf(err, "%v compress", c)
	}

	out := buf.Bytes()
	if c == Bzip2 {
		if !bytes.HasPrefix(out, bzip2Header) {
			return nil, errors.New("bzip2 stream has an unexpected header")
		}
		out = out[len(bzip2Header):]
	}
	return out, nil
}

func decompress(c Compression, payload []byte, size int) ([]byte, error) {
	var r io.Reader
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		defer zr.Close()
		r = zr
	case Bzip2:
		stream := io.MultiReader(bytes.NewReader(bzip2Header), bytes.NewReader(payload))
		br, err := bzip2.NewReader(stream, nil)
		if err != nil {
			return nil, errors.Wrap(err, "bzip2.NewReader")
		}
		defer br.Close()
		r = br
	default:
		return nil, errors.Wrapf(ErrMalformed, "unsupported compression %v", c)
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "%v decompress: %v", c, err)
	}
	if len(data) != size {
		return nil, errors.Wrapf(ErrMalformed, "%v payload decompressed to %d bytes, want %d", c, len(data), size)
	}
	return data, nil
}
