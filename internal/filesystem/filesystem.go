// Package filesystem implements the policy layer on top of the disk store:
// archives are created in consecutive order, written containers are served
// from an in-memory read cache and the checksum table of the whole cache can
// be computed from the meta archive.
package filesystem

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/skyline93/js5/internal/disk"
	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/js5"
)

// FileSystem is a cache directory opened for reading and writing containers.
type FileSystem struct {
	cfg   Config
	store *disk.Store
	cache *containerCache

	// m orders writes against reads that fill the cache, so that a stale
	// container never ends up cached after an overwrite.
	m      sync.RWMutex
	closed bool
}

// Open opens the cache described by cfg.
func Open(ctx context.Context, cfg Config) (*FileSystem, error) {
	cache, err := newContainerCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	store, err := disk.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	return &FileSystem{cfg: cfg, store: store, cache: cache}, nil
}

// ArchiveCount returns the number of archives, not counting the meta archive.
func (f *FileSystem) ArchiveCount() int {
	return f.store.ArchiveCount()
}

// CreateArchive creates the next archive and returns its id.
func (f *FileSystem) CreateArchive() (js5.ArchiveID, error) {
	f.m.Lock()
	defer f.m.Unlock()

	return f.store.CreateArchiveIdxFile()
}

// CreateArchiveWithID creates archive a, which must be the next consecutive
// archive id.
func (f *FileSystem) CreateArchiveWithID(a js5.ArchiveID) error {
	f.m.Lock()
	defer f.m.Unlock()

	if a.IsMeta() || int(a) != f.store.ArchiveCount() {
		return errors.Wrapf(js5.ErrNonConsecutiveArchive, "archive %v, next is %d", a, f.store.ArchiveCount())
	}

	_, err := f.store.CreateArchiveIdxFile()
	return err
}

// ensureArchive creates archive a if it is the next consecutive id. The
// caller must hold f.m.
func (f *FileSystem) ensureArchive(a js5.ArchiveID) error {
	if a.IsMeta() {
		return nil
	}

	n := f.store.ArchiveCount()
	switch {
	case int(a) < n:
		return nil
	case int(a) == n:
		_, err := f.store.CreateArchiveIdxFile()
		return err
	default:
		return errors.Wrapf(js5.ErrIndexFileNotFound, "archive ids are not consecutive: %v requested, %d exist", a, n)
	}
}

// Write stores data as container c of archive a. Writing to the archive
// following the last one creates it.
func (f *FileSystem) Write(a js5.ArchiveID, c js5.ContainerID, data []byte) error {
	f.m.Lock()
	defer f.m.Unlock()

	if err := f.ensureArchive(a); err != nil {
		return err
	}

	h := js5.Handle{Archive: a, Container: c}
	f.cache.remove(h)
	return f.store.Write(a, c, data)
}

// Read returns the contents of container c of archive a.
func (f *FileSystem) Read(a js5.ArchiveID, c js5.ContainerID) ([]byte, error) {
	h := js5.Handle{Archive: a, Container: c}

	f.m.RLock()
	defer f.m.RUnlock()

	if buf, ok := f.cache.get(h); ok {
		log.Debugf("%v served from cache", h)
		return buf, nil
	}

	buf, err := f.store.Read(a, c)
	if err != nil {
		return nil, err
	}
	f.cache.add(h, buf)
	return buf, nil
}

// Exists reports whether container c of archive a has been written.
func (f *FileSystem) Exists(a js5.ArchiveID, c js5.ContainerID) (bool, error) {
	return f.store.Exists(a, c)
}

// Stat describes how container c of archive a is stored.
func (f *FileSystem) Stat(a js5.ArchiveID, c js5.ContainerID) (disk.ContainerStat, error) {
	return f.store.Stat(a, c)
}

// Close drops the read cache and closes the store. Calling Close more than
// once is a no-op.
func (f *FileSystem) Close() error {
	f.m.Lock()
	defer f.m.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	f.cache.purge()
	return f.store.Close()
}
