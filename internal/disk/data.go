package disk

import (
	"io"
	"os"

	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/fs"
	"github.com/skyline93/js5/internal/js5"
)

// dataFile is the shared sector file. Sector 0 is never handed out, so that a
// next pointer of 0 can terminate a chain.
type dataFile struct {
	f fs.File

	// sectors is the number of sectors in the file, rounded up, and therefore
	// the next sector to allocate.
	sectors uint32
}

func openDataFile(name string, mode os.FileMode) (*dataFile, error) {
	f, err := fs.OpenFile(name, os.O_RDWR|os.O_CREATE, mode)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.WithStack(err)
	}

	sectors := (fi.Size() + SectorSize - 1) / SectorSize
	if sectors > maxSectorNumber+1 {
		_ = f.Close()
		return nil, errors.Errorf("data file %v is too large (%d sectors)", name, sectors)
	}
	if sectors == 0 {
		sectors = 1
	}

	return &dataFile{f: f, sectors: uint32(sectors)}, nil
}

// allocate reserves the sector past the current end of the file.
func (d *dataFile) allocate() (uint32, error) {
	n := d.sectors
	if n > maxSectorNumber {
		return 0, errors.New("data file is full")
	}
	d.sectors++
	return n, nil
}

// contains reports whether sector n is a valid, allocated sector.
func (d *dataFile) contains(n uint32) bool {
	return n != 0 && n < d.sectors
}

// readSector reads and decodes sector n into buf. The last sector of a file
// written by another tool may be shorter than SectorSize.
func (d *dataFile) readSector(n uint32, c js5.ContainerID, buf []byte) (Sector, error) {
	read, err := d.f.ReadAt(buf[:SectorSize], int64(n)*SectorSize)
	if err != nil && err != io.EOF {
		return Sector{}, errors.Wrapf(err, "read sector %d", n)
	}
	return DecodeSector(buf[:read], isExtended(c))
}

func (d *dataFile) writeSector(n uint32, s Sector, buf []byte) error {
	if err := encodeSector(buf[:SectorSize], s); err != nil {
		return err
	}
	if _, err := d.f.WriteAt(buf[:SectorSize], int64(n)*SectorSize); err != nil {
		return errors.Wrapf(err, "write sector %d", n)
	}
	return nil
}

func (d *dataFile) Close() error {
	err := d.f.Sync()
	if uerr := fs.Unlock(d.f); err == nil {
		err = uerr
	}
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	return errors.WithStack(err)
}
