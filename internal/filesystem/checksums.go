package filesystem

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/skyline93/js5/internal/checksum"
	"github.com/skyline93/js5/internal/container"
	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/js5"
	"golang.org/x/sync/errgroup"
)

// Checksums computes the checksum table of the cache. The entry of archive a
// is derived from container a of the meta archive; archives that have no
// such container get an empty entry.
func (f *FileSystem) Checksums(ctx context.Context) (checksum.CacheChecksum, error) {
	n := f.ArchiveCount()
	table := checksum.CacheChecksum{Archives: make([]checksum.DictionaryChecksum, n)}

	wg, ctx := errgroup.WithContext(ctx)
	if f.cfg.Connections > 0 {
		wg.SetLimit(int(f.cfg.Connections))
	}

	for i := 0; i < n; i++ {
		a := js5.ArchiveID(i)
		wg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			entry, err := f.archiveChecksum(a)
			if err != nil {
				return err
			}
			table.Archives[a] = entry
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return checksum.CacheChecksum{}, err
	}
	return table, nil
}

func (f *FileSystem) archiveChecksum(a js5.ArchiveID) (checksum.DictionaryChecksum, error) {
	raw, err := f.Read(js5.MetaArchive, js5.ContainerID(a))
	if errors.Is(err, js5.ErrContainerNotFound) {
		log.Debugf("archive %v has no settings container", a)
		return checksum.DictionaryChecksum{Digest: checksum.Digest(nil)}, nil
	}
	if err != nil {
		return checksum.DictionaryChecksum{}, err
	}

	c, err := container.Decode(raw)
	if err != nil {
		return checksum.DictionaryChecksum{}, errors.Wrapf(err, "settings of archive %v", a)
	}

	var version uint32
	if c.HasVersion {
		version = uint32(c.Version)
	}

	files, err := f.store.ContainerCount(a)
	if err != nil {
		return checksum.DictionaryChecksum{}, err
	}

	return checksum.FromData(raw, version, uint32(files)), nil
}
