// Package checksum implements the checksum table a client uses to verify the
// archives of a cache before trusting their contents.
//
// The table has two encodings. The compact one lists the CRC and version of
// every archive, eight bytes per archive. The extended one also carries the
// file count, size and whirlpool digest of every archive, and ends with the
// whirlpool digest of the entries, optionally transformed with an RSA key so
// that only the holder of the private key can produce a valid table.
package checksum

import (
	"bytes"
	"hash/crc32"

	"github.com/jzelinskie/whirlpool"
)

// DigestSize is the size of a whirlpool digest.
const DigestSize = 64

const (
	compactEntrySize  = 8
	extendedEntrySize = compactEntrySize + 8 + DigestSize

	// maxExtendedEntries is the largest count the one byte prefix can hold.
	maxExtendedEntries = 0xFF
)

// DictionaryChecksum describes one archive. FileCount, Size and Digest are
// only carried by the extended encoding; Digest is nil after decoding a
// compact table.
type DictionaryChecksum struct {
	CRC       uint32
	Version   uint32
	FileCount uint32
	Size      uint32
	Digest    []byte
}

// Equal reports whether d and other hold the same values. Digests are
// compared by content; a nil digest only equals another nil digest.
func (d DictionaryChecksum) Equal(other DictionaryChecksum) bool {
	if d.CRC != other.CRC || d.Version != other.Version ||
		d.FileCount != other.FileCount || d.Size != other.Size {
		return false
	}
	if (d.Digest == nil) != (other.Digest == nil) {
		return false
	}
	return bytes.Equal(d.Digest, other.Digest)
}

// Compact returns d with the fields dropped by the compact encoding cleared.
func (d DictionaryChecksum) Compact() DictionaryChecksum {
	return DictionaryChecksum{CRC: d.CRC, Version: d.Version}
}

// FromData returns the checksum of an archive whose settings are data.
func FromData(data []byte, version, fileCount uint32) DictionaryChecksum {
	return DictionaryChecksum{
		CRC:       crc32.ChecksumIEEE(data),
		Version:   version,
		FileCount: fileCount,
		Size:      uint32(len(data)),
		Digest:    Digest(data),
	}
}

// CacheChecksum is the checksum table of a cache, one entry per archive in
// ascending archive id order.
type CacheChecksum struct {
	Archives []DictionaryChecksum
}

// Equal reports whether c and other hold equal entries in the same order.
func (c CacheChecksum) Equal(other CacheChecksum) bool {
	if len(c.Archives) != len(other.Archives) {
		return false
	}
	for i := range c.Archives {
		if !c.Archives[i].Equal(other.Archives[i]) {
			return false
		}
	}
	return true
}

// Digest returns the whirlpool digest of data.
func Digest(data []byte) []byte {
	h := whirlpool.New()
	_, _ = h.Write(data)
	return h.Sum(nil)
}
