package disk

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/sha256-simd"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/fs"
	"github.com/skyline93/js5/internal/js5"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store is closed")

// Store keeps containers as sector chains in one data file and tracks them in
// one index file per archive.
//
// Writes are serialized internally, together with the allocation of new
// sectors at the end of the data file. Reads may run concurrently with each
// other.
type Store struct {
	cfg   Config
	modes Modes

	m       sync.RWMutex
	dat     *dataFile
	meta    *IndexFile
	indexes []*IndexFile
	closed  bool
}

// Open opens the cache in cfg.Path, creating the directory, the data file and
// the meta index when they do not exist yet. Existing archive index files are
// picked up in order, stopping at the first missing id.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("cache path is empty")
	}

	modes := DeriveModesFromFileInfo(fs.Stat(cfg.Path))
	if err := fs.MkdirAll(cfg.Path, modes.Dir); err != nil {
		return nil, errors.WithStack(err)
	}

	s := &Store{cfg: cfg, modes: modes}
	if err := s.open(ctx); err != nil {
		_ = s.closeFiles()
		return nil, err
	}

	log.Infof("opened cache %v: %d archives, %d sectors", cfg.Path, len(s.indexes), s.dat.sectors)
	return s, nil
}

// open opens and locks the files of the cache. On error the files opened so
// far are left for the caller to close.
func (s *Store) open(ctx context.Context) error {
	var err error
	s.dat, err = openDataFile(filepath.Join(s.cfg.Path, js5.DataFileName), s.modes.File)
	if err != nil {
		return err
	}
	if err = lockDataFile(ctx, s.dat, s.cfg.LockTimeout); err != nil {
		return err
	}

	s.meta, err = openIndexFile(s.indexPath(js5.MetaArchive), js5.MetaArchive, os.O_RDWR|os.O_CREATE, s.modes.File)
	if err != nil {
		return err
	}

	for a := 0; a < js5.MaxArchives; a++ {
		name := s.indexPath(js5.ArchiveID(a))
		ok, err := fs.Exists(name)
		if err != nil {
			return errors.WithStack(err)
		}
		if !ok {
			break
		}

		idx, err := openIndexFile(name, js5.ArchiveID(a), os.O_RDWR, s.modes.File)
		if err != nil {
			return err
		}
		s.indexes = append(s.indexes, idx)
	}
	return nil
}

// lockDataFile takes the exclusive lock on the data file, waiting up to
// timeout for another process to release it.
func lockDataFile(ctx context.Context, dat *dataFile, timeout time.Duration) error {
	if timeout <= 0 {
		return errors.Wrap(fs.TryLock(dat.f), "lock data file")
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxElapsedTime = timeout

	err := backoff.Retry(func() error {
		err := fs.TryLock(dat.f)
		if err != nil && !errors.Is(err, fs.ErrLocked) {
			return backoff.Permanent(err)
		}
		if err != nil {
			log.Debugf("data file is locked, retrying")
		}
		return err
	}, backoff.WithContext(b, ctx))
	return errors.Wrap(err, "lock data file")
}

func (s *Store) indexPath(a js5.ArchiveID) string {
	return filepath.Join(s.cfg.Path, js5.IndexFileName(a))
}

// index returns the index file of archive a. The caller must hold s.m.
func (s *Store) index(a js5.ArchiveID) (*IndexFile, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if a.IsMeta() {
		return s.meta, nil
	}
	if int(a) >= len(s.indexes) {
		return nil, errors.Wrapf(js5.ErrIndexFileNotFound, "archive %v", a)
	}
	return s.indexes[a], nil
}

// ArchiveCount returns the number of archives, not counting the meta archive.
func (s *Store) ArchiveCount() int {
	s.m.RLock()
	defer s.m.RUnlock()

	return len(s.indexes)
}

// CreateArchiveIdxFile creates the index file of the next archive and returns
// its id.
func (s *Store) CreateArchiveIdxFile() (js5.ArchiveID, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	if len(s.indexes) >= js5.MaxArchives {
		return 0, errors.Errorf("all %d archive ids are in use", js5.MaxArchives)
	}

	a := js5.ArchiveID(len(s.indexes))
	idx, err := openIndexFile(s.indexPath(a), a, os.O_RDWR|os.O_CREATE|os.O_EXCL, s.modes.File)
	if err != nil {
		return 0, err
	}
	s.indexes = append(s.indexes, idx)

	log.Infof("created archive %v", a)
	return a, nil
}

// ReadRecord returns the index record of container c in archive a.
func (s *Store) ReadRecord(a js5.ArchiveID, c js5.ContainerID) (IndexRecord, error) {
	s.m.RLock()
	defer s.m.RUnlock()

	idx, err := s.index(a)
	if err != nil {
		return IndexRecord{}, err
	}
	return idx.ReadRecord(c)
}

// Exists reports whether container c of archive a has been written.
func (s *Store) Exists(a js5.ArchiveID, c js5.ContainerID) (bool, error) {
	rec, err := s.ReadRecord(a, c)
	if err != nil {
		return false, err
	}
	return !rec.IsHole(), nil
}

// ContainerCount returns the number of written containers of archive a.
func (s *Store) ContainerCount(a js5.ArchiveID) (int, error) {
	s.m.RLock()
	defer s.m.RUnlock()

	idx, err := s.index(a)
	if err != nil {
		return 0, err
	}
	return idx.ContainerCount()
}

// Read returns the contents of container c of archive a.
func (s *Store) Read(a js5.ArchiveID, c js5.ContainerID) (data []byte, err error) {
	defer observe("read", &err)()

	s.m.RLock()
	defer s.m.RUnlock()

	h := js5.Handle{Archive: a, Container: c}
	rec, err := s.record(h)
	if err != nil {
		return nil, err
	}

	data = make([]byte, 0, rec.Size)
	err = s.walkChain(h, rec, func(_ uint32, payload []byte) {
		data = append(data, payload...)
	})
	if err != nil {
		return nil, err
	}

	bytesTotal.WithLabelValues("read").Add(float64(len(data)))
	return data, nil
}

// record looks up the index record of h, failing for holes. The caller must
// hold s.m.
func (s *Store) record(h js5.Handle) (IndexRecord, error) {
	idx, err := s.index(h.Archive)
	if err != nil {
		return IndexRecord{}, err
	}
	rec, err := idx.ReadRecord(h.Container)
	if err != nil {
		return IndexRecord{}, err
	}
	if rec.IsHole() {
		return IndexRecord{}, errors.Wrapf(js5.ErrContainerNotFound, "%v", h)
	}
	return rec, nil
}

// walkChain follows the sector chain of rec, validating every header, and
// calls fn with each sector number and the part of its payload that belongs to
// the container. The caller must hold s.m.
func (s *Store) walkChain(h js5.Handle, rec IndexRecord, fn func(sector uint32, payload []byte)) error {
	buf := make([]byte, SectorSize)
	remaining := int(rec.Size)
	sector := rec.Sector

	for chunk := 0; ; chunk++ {
		if !s.dat.contains(sector) {
			corruptChain(h)
			if sector == 0 {
				return errors.Wrapf(js5.ErrCorruptChain, "%v: chain ends with %d of %d bytes missing", h, remaining, rec.Size)
			}
			return errors.Wrapf(js5.ErrCorruptChain, "%v: sector %d is past the end of the data file", h, sector)
		}

		sec, err := s.dat.readSector(sector, h.Container, buf)
		if err == nil {
			err = sec.Validate(h, uint16(chunk))
		}
		if err != nil {
			corruptChain(h)
			return errors.WithMessagef(err, "sector %d", sector)
		}
		sectorsTotal.WithLabelValues("read").Inc()

		n := min(remaining, payloadSize(h.Container))
		if len(sec.Data) < n {
			corruptChain(h)
			return errors.Wrapf(js5.ErrCorruptChain, "%v: sector %d holds %d of %d bytes", h, sector, len(sec.Data), n)
		}
		fn(sector, sec.Data[:n])

		remaining -= n
		if remaining == 0 {
			return nil
		}
		sector = sec.Next
	}
}

func corruptChain(h js5.Handle) {
	log.Warnf("corrupt sector chain for container %v", h)
}

// Write stores data as container c of archive a, replacing its previous
// contents. Sectors of the old chain are reused in place as long as their
// headers still belong to the container; further sectors are allocated at the
// end of the data file. When the new data needs fewer sectors than the old
// chain, the remaining old sectors are left unreferenced.
func (s *Store) Write(a js5.ArchiveID, c js5.ContainerID, data []byte) (err error) {
	defer observe("write", &err)()

	if len(data) > MaxContainerSize {
		return errors.Errorf("container of %d bytes exceeds the maximum of %d", len(data), MaxContainerSize)
	}

	s.m.Lock()
	defer s.m.Unlock()

	idx, err := s.index(a)
	if err != nil {
		return err
	}
	old, err := idx.ReadRecord(c)
	if err != nil {
		return err
	}

	h := js5.Handle{Archive: a, Container: c}
	buf := make([]byte, SectorSize)

	// oldNext is the successor of the old chain sector that is about to be
	// overwritten, valid while reuse is set.
	var first, oldNext uint32
	reuse := false
	if !old.IsHole() {
		if sec, ok := s.peekSector(h, old.Sector, 0, buf); ok {
			first, oldNext, reuse = old.Sector, sec.Next, true
		}
	}
	if !reuse {
		if first, err = s.dat.allocate(); err != nil {
			return err
		}
	}

	chunkSize := payloadSize(c)
	chunks := max(1, (len(data)+chunkSize-1)/chunkSize)

	sector := first
	for chunk := 0; chunk < chunks; chunk++ {
		var next uint32
		if chunk < chunks-1 {
			if reuse && oldNext != 0 {
				sec, ok := s.peekSector(h, oldNext, uint16(chunk+1), buf)
				if ok {
					next, oldNext = oldNext, sec.Next
				}
				reuse = ok
			} else {
				reuse = false
			}

			if next == 0 {
				if next, err = s.dat.allocate(); err != nil {
					return err
				}
			}
		} else if reuse && oldNext != 0 {
			log.Debugf("%v: abandoning old chain from sector %d", h, oldNext)
			abandonedChains.Inc()
		}

		start := chunk * chunkSize
		end := min(start+chunkSize, len(data))
		err = s.dat.writeSector(sector, Sector{
			Archive:   a,
			Container: c,
			Chunk:     uint16(chunk),
			Next:      next,
			Data:      data[start:end],
		}, buf)
		if err != nil {
			return err
		}
		sectorsTotal.WithLabelValues("write").Inc()

		sector = next
	}

	if err = idx.WriteRecord(c, IndexRecord{Size: uint32(len(data)), Sector: first}); err != nil {
		return err
	}

	log.Debugf("%v: wrote %d bytes in %d sectors starting at %d", h, len(data), chunks, first)
	bytesTotal.WithLabelValues("write").Add(float64(len(data)))
	return nil
}

// peekSector reads sector n and reports whether it is chunk number chunk of
// h, i.e. whether an overwrite of h may reuse it.
func (s *Store) peekSector(h js5.Handle, n uint32, chunk uint16, buf []byte) (Sector, bool) {
	if !s.dat.contains(n) {
		return Sector{}, false
	}
	sec, err := s.dat.readSector(n, h.Container, buf)
	if err != nil || sec.Validate(h, chunk) != nil {
		return Sector{}, false
	}
	return sec, true
}

// ContainerStat describes where and how a container is stored.
type ContainerStat struct {
	Handle  js5.Handle
	Record  IndexRecord
	Sectors []uint32
	SHA256  [sha256.Size]byte
}

// Stat returns the index record, the sector chain and the SHA-256 digest of
// container c of archive a.
func (s *Store) Stat(a js5.ArchiveID, c js5.ContainerID) (ContainerStat, error) {
	s.m.RLock()
	defer s.m.RUnlock()

	h := js5.Handle{Archive: a, Container: c}
	rec, err := s.record(h)
	if err != nil {
		return ContainerStat{}, err
	}

	st := ContainerStat{Handle: h, Record: rec}
	hash := sha256.New()
	err = s.walkChain(h, rec, func(sector uint32, payload []byte) {
		st.Sectors = append(st.Sectors, sector)
		_, _ = hash.Write(payload)
	})
	if err != nil {
		return ContainerStat{}, err
	}
	copy(st.SHA256[:], hash.Sum(nil))
	return st, nil
}

// Close flushes and closes all files and releases the cache lock. Calling
// Close more than once is a no-op.
func (s *Store) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.closeFiles()
	log.Infof("closed cache %v", s.cfg.Path)
	return err
}

// closeFiles closes every open file, returning the first error.
func (s *Store) closeFiles() error {
	var err error
	for _, idx := range s.indexes {
		if cerr := idx.Close(); err == nil {
			err = cerr
		}
	}
	s.indexes = nil

	if s.meta != nil {
		if cerr := s.meta.Close(); err == nil {
			err = cerr
		}
		s.meta = nil
	}
	if s.dat != nil {
		if cerr := s.dat.Close(); err == nil {
			err = cerr
		}
		s.dat = nil
	}
	return err
}
