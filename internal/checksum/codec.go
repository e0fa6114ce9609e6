package checksum

import (
	"crypto/subtle"
	"encoding/binary"

	log "github.com/sirupsen/logrus"
	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/js5"
)

// Encode serializes cs in the encoding selected by mode. All integers are
// big-endian.
func Encode(cs CacheChecksum, mode Mode) ([]byte, error) {
	if !mode.extended() {
		buf := make([]byte, 0, compactEntrySize*len(cs.Archives))
		for _, d := range cs.Archives {
			buf = binary.BigEndian.AppendUint32(buf, d.CRC)
			buf = binary.BigEndian.AppendUint32(buf, d.Version)
		}
		return buf, nil
	}

	if len(cs.Archives) > maxExtendedEntries {
		return nil, errors.Errorf("%d archives do not fit the extended checksum table", len(cs.Archives))
	}

	buf := make([]byte, 0, 1+extendedEntrySize*len(cs.Archives)+DigestSize)
	buf = append(buf, byte(len(cs.Archives)))
	for i, d := range cs.Archives {
		if len(d.Digest) != DigestSize {
			return nil, errors.Errorf("archive %d has a digest of %d bytes, want %d", i, len(d.Digest), DigestSize)
		}
		buf = binary.BigEndian.AppendUint32(buf, d.CRC)
		buf = binary.BigEndian.AppendUint32(buf, d.Version)
		buf = binary.BigEndian.AppendUint32(buf, d.FileCount)
		buf = binary.BigEndian.AppendUint32(buf, d.Size)
		buf = append(buf, d.Digest...)
	}

	trailer, err := mode.seal(Digest(buf[1:]))
	if err != nil {
		return nil, errors.Wrap(err, "seal checksum table digest")
	}
	return append(buf, trailer...), nil
}

// Decode parses a checksum table encoded with mode. The compact encoding has
// no integrity check and ignores a trailing partial entry. For the extended
// encodings the trailer is verified against the entries, and any mismatch or
// malformed input is reported as js5.ErrIntegrity.
func Decode(buf []byte, mode Mode) (CacheChecksum, error) {
	if !mode.extended() {
		if extra := len(buf) % compactEntrySize; extra != 0 {
			log.Debugf("ignoring %d trailing bytes of the checksum table", extra)
		}

		cs := CacheChecksum{Archives: make([]DictionaryChecksum, len(buf)/compactEntrySize)}
		for i := range cs.Archives {
			entry := buf[i*compactEntrySize:]
			cs.Archives[i] = DictionaryChecksum{
				CRC:     binary.BigEndian.Uint32(entry[0:]),
				Version: binary.BigEndian.Uint32(entry[4:]),
			}
		}
		return cs, nil
	}

	if len(buf) < 1 {
		return CacheChecksum{}, errors.Wrap(js5.ErrIntegrity, "empty checksum table")
	}
	count := int(buf[0])
	end := 1 + count*extendedEntrySize
	if len(buf) < end {
		return CacheChecksum{}, errors.Wrapf(js5.ErrIntegrity, "checksum table of %d bytes is too short for %d archives", len(buf), count)
	}

	entries, trailer := buf[1:end], buf[end:]
	cs := CacheChecksum{Archives: make([]DictionaryChecksum, count)}
	for i := range cs.Archives {
		entry := entries[i*extendedEntrySize:]
		digest := make([]byte, DigestSize)
		copy(digest, entry[16:16+DigestSize])

		cs.Archives[i] = DictionaryChecksum{
			CRC:       binary.BigEndian.Uint32(entry[0:]),
			Version:   binary.BigEndian.Uint32(entry[4:]),
			FileCount: binary.BigEndian.Uint32(entry[8:]),
			Size:      binary.BigEndian.Uint32(entry[12:]),
			Digest:    digest,
		}
	}

	calculated := Digest(entries)
	stored, err := mode.open(trailer)
	if err != nil {
		log.Debugf("unable to open checksum table trailer: %v", err)
		return CacheChecksum{}, errors.Wrap(js5.ErrIntegrity, "whirlpool digest does not match")
	}
	if subtle.ConstantTimeCompare(calculated, stored) != 1 {
		return CacheChecksum{}, errors.Wrap(js5.ErrIntegrity, "whirlpool digest does not match")
	}

	return cs, nil
}
