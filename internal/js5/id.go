package js5

import (
	"fmt"
	"strconv"
)

// ArchiveID identifies an index file. Archives 0 to MaxArchives-1 hold asset
// containers, MetaArchive holds one settings container per archive.
type ArchiveID uint8

// ContainerID identifies a container within an archive.
type ContainerID uint32

const (
	// MetaArchive is the reserved archive describing all other archives.
	MetaArchive ArchiveID = 255

	// MaxArchives is the number of archive ids available for asset data.
	MaxArchives = int(MetaArchive)
)

// IsMeta reports whether a is the meta archive.
func (a ArchiveID) IsMeta() bool {
	return a == MetaArchive
}

func (a ArchiveID) String() string {
	if a.IsMeta() {
		return "meta"
	}
	return strconv.Itoa(int(a))
}

// ParseArchiveID converts s to an ArchiveID. The string "meta" is accepted as
// an alias for MetaArchive.
func ParseArchiveID(s string) (ArchiveID, error) {
	if s == "meta" {
		return MetaArchive, nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid archive id %q", s)
	}
	return ArchiveID(n), nil
}

// Handle addresses one container in the cache.
type Handle struct {
	Archive   ArchiveID
	Container ContainerID
}

func (h Handle) String() string {
	return fmt.Sprintf("<%v/%d>", h.Archive, h.Container)
}
