package js5

import "github.com/skyline93/js5/internal/errors"

// Error kinds surfaced by the cache. Callers match them with errors.Is; the
// returned errors carry the archive/container/sector context as a message.
var (
	// ErrContainerNotFound is returned when reading a container that was never
	// written.
	ErrContainerNotFound = errors.New("container not found")

	// ErrCorruptChain is returned when a sector chain does not match its index
	// record: wrong header, premature end of chain or truncated sector.
	ErrCorruptChain = errors.New("corrupt sector chain")

	// ErrIndexFileNotFound is returned when addressing an archive that has not
	// been created.
	ErrIndexFileNotFound = errors.New("index file not found")

	// ErrNonConsecutiveArchive is returned when creating an archive out of
	// order.
	ErrNonConsecutiveArchive = errors.New("archive ids are not consecutive")

	// ErrIntegrity is returned when a checksum table fails verification.
	ErrIntegrity = errors.New("integrity check failed")
)
