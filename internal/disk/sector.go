package disk

import (
	"encoding/binary"

	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/js5"
)

const (
	// SectorSize is the fixed size of every sector in the data file.
	SectorSize = 520

	// HeaderSize is the sector header size for container ids below
	// ExtendedThreshold, ExtendedHeaderSize the size for all others.
	HeaderSize         = 8
	ExtendedHeaderSize = 10

	PayloadSize         = SectorSize - HeaderSize
	ExtendedPayloadSize = SectorSize - ExtendedHeaderSize

	// ExtendedThreshold is the first container id that needs a 4 byte id field.
	ExtendedThreshold = 0x10000

	// maxSectorNumber is the largest value a 3 byte sector pointer can hold.
	maxSectorNumber = 0xFFFFFF
)

// Sector is one decoded block of the data file. Next is 0 for the last sector
// of a chain.
type Sector struct {
	Archive   js5.ArchiveID
	Container js5.ContainerID
	Chunk     uint16
	Next      uint32
	Data      []byte
}

func isExtended(c js5.ContainerID) bool {
	return c >= ExtendedThreshold
}

func headerSize(c js5.ContainerID) int {
	if isExtended(c) {
		return ExtendedHeaderSize
	}
	return HeaderSize
}

// payloadSize returns the number of container bytes a single sector of
// container c can carry.
func payloadSize(c js5.ContainerID) int {
	return SectorSize - headerSize(c)
}

// EncodeSector returns the SectorSize bytes representing s, with the payload
// zero padded.
func EncodeSector(s Sector) ([]byte, error) {
	buf := make([]byte, SectorSize)
	if err := encodeSector(buf, s); err != nil {
		return nil, err
	}
	return buf, nil
}

// encodeSector writes s into buf, which must be SectorSize bytes long.
func encodeSector(buf []byte, s Sector) error {
	if len(s.Data) > payloadSize(s.Container) {
		return errors.Errorf("sector payload of %d bytes exceeds %d", len(s.Data), payloadSize(s.Container))
	}
	if s.Next > maxSectorNumber {
		return errors.Errorf("sector number %d out of range", s.Next)
	}

	off := 0
	if isExtended(s.Container) {
		binary.BigEndian.PutUint32(buf, uint32(s.Container))
		off = 4
	} else {
		binary.BigEndian.PutUint16(buf, uint16(s.Container))
		off = 2
	}
	binary.BigEndian.PutUint16(buf[off:], s.Chunk)
	putUint24(buf[off+2:], s.Next)
	buf[off+5] = byte(s.Archive)

	n := copy(buf[off+6:], s.Data)
	clear(buf[off+6+n:])
	return nil
}

// DecodeSector parses a sector. Whether the header uses the extended layout
// cannot be told from the bytes, so the caller passes it from the container id
// it expects. buf may be shorter than SectorSize for the last sector of the
// data file; the returned Data aliases buf.
func DecodeSector(buf []byte, extended bool) (Sector, error) {
	hs := HeaderSize
	if extended {
		hs = ExtendedHeaderSize
	}
	if len(buf) < hs {
		return Sector{}, errors.Wrapf(js5.ErrCorruptChain, "truncated sector header (%d bytes)", len(buf))
	}
	if len(buf) > SectorSize {
		buf = buf[:SectorSize]
	}

	var s Sector
	off := 0
	if extended {
		s.Container = js5.ContainerID(binary.BigEndian.Uint32(buf))
		off = 4
	} else {
		s.Container = js5.ContainerID(binary.BigEndian.Uint16(buf))
		off = 2
	}
	s.Chunk = binary.BigEndian.Uint16(buf[off:])
	s.Next = uint24(buf[off+2:])
	s.Archive = js5.ArchiveID(buf[off+5])
	s.Data = buf[off+6:]
	return s, nil
}

// Validate checks that s is chunk number chunk of the container h.
func (s Sector) Validate(h js5.Handle, chunk uint16) error {
	switch {
	case s.Archive != h.Archive:
		return errors.Wrapf(js5.ErrCorruptChain, "%v: sector belongs to archive %v", h, s.Archive)
	case s.Container != h.Container:
		return errors.Wrapf(js5.ErrCorruptChain, "%v: sector belongs to container %d", h, s.Container)
	case s.Chunk != chunk:
		return errors.Wrapf(js5.ErrCorruptChain, "%v: expected chunk %d, found %d", h, chunk, s.Chunk)
	}
	return nil
}

func putUint24(b []byte, v uint32) {
	_ = b[2] // bounds check hint to compiler; see golang.org/issue/14808
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func uint24(b []byte) uint32 {
	_ = b[2] // bounds check hint to compiler; see golang.org/issue/14808
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
