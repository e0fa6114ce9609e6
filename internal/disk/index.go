package disk

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/fs"
	"github.com/skyline93/js5/internal/js5"
)

const (
	// IndexRecordSize is the size of one record in an index file.
	IndexRecordSize = 6

	// MaxContainerSize is the largest size a 3 byte record field can hold.
	MaxContainerSize = 0xFFFFFF
)

// IndexRecord locates a container in the data file.
type IndexRecord struct {
	Size   uint32
	Sector uint32
}

// IsHole reports whether the record belongs to a container that was never
// written. A zero length container still points at its (empty) first sector.
func (r IndexRecord) IsHole() bool {
	return r.Size == 0 && r.Sector == 0
}

func encodeIndexRecord(buf []byte, r IndexRecord) {
	putUint24(buf[0:], r.Size)
	putUint24(buf[3:], r.Sector)
}

func decodeIndexRecord(buf []byte) IndexRecord {
	return IndexRecord{
		Size:   uint24(buf[0:]),
		Sector: uint24(buf[3:]),
	}
}

// IndexFile maps the container ids of one archive to their index records. The
// record of container c lives at offset c*IndexRecordSize.
type IndexFile struct {
	archive js5.ArchiveID
	f       fs.File
	size    int64
}

func openIndexFile(name string, archive js5.ArchiveID, flag int, mode os.FileMode) (*IndexFile, error) {
	f, err := fs.OpenFile(name, flag, mode)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.WithStack(err)
	}

	log.Debugf("opened index file %v for archive %v (%d bytes)", name, archive, fi.Size())
	return &IndexFile{archive: archive, f: f, size: fi.Size()}, nil
}

// Archive returns the archive the index file belongs to.
func (x *IndexFile) Archive() js5.ArchiveID {
	return x.archive
}

// Len returns the number of record slots in the file, holes included.
func (x *IndexFile) Len() int {
	return int(x.size / IndexRecordSize)
}

// ReadRecord returns the record of container c. Records past the end of the
// file are holes.
func (x *IndexFile) ReadRecord(c js5.ContainerID) (IndexRecord, error) {
	off := int64(c) * IndexRecordSize
	if off+IndexRecordSize > x.size {
		return IndexRecord{}, nil
	}

	var buf [IndexRecordSize]byte
	if _, err := x.f.ReadAt(buf[:], off); err != nil {
		return IndexRecord{}, errors.Wrapf(err, "read index record %d of archive %v", c, x.archive)
	}
	return decodeIndexRecord(buf[:]), nil
}

// WriteRecord stores the record of container c. Writing past the end of the
// file extends it; the skipped records read back as holes.
func (x *IndexFile) WriteRecord(c js5.ContainerID, r IndexRecord) error {
	if r.Size > MaxContainerSize || r.Sector > maxSectorNumber {
		return errors.Errorf("index record %+v out of range", r)
	}

	var buf [IndexRecordSize]byte
	encodeIndexRecord(buf[:], r)

	off := int64(c) * IndexRecordSize
	if _, err := x.f.WriteAt(buf[:], off); err != nil {
		return errors.Wrapf(err, "write index record %d of archive %v", c, x.archive)
	}
	if end := off + IndexRecordSize; end > x.size {
		x.size = end
	}
	return nil
}

// Bytes returns the raw contents of the index file.
func (x *IndexFile) Bytes() ([]byte, error) {
	buf := make([]byte, x.size)
	n, err := x.f.ReadAt(buf, 0)
	if err != nil && !(err == io.EOF && int64(n) == x.size) {
		return nil, errors.Wrapf(err, "read index file of archive %v", x.archive)
	}
	return buf, nil
}

// ContainerCount returns the number of records that are not holes.
func (x *IndexFile) ContainerCount() (int, error) {
	buf, err := x.Bytes()
	if err != nil {
		return 0, err
	}

	count := 0
	for off := 0; off+IndexRecordSize <= len(buf); off += IndexRecordSize {
		if !decodeIndexRecord(buf[off:]).IsHole() {
			count++
		}
	}
	return count, nil
}

// Close flushes the index file to disk and closes it.
func (x *IndexFile) Close() error {
	err := x.f.Sync()
	cerr := x.f.Close()
	if err == nil {
		err = cerr
	}
	return errors.WithStack(err)
}
