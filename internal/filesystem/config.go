package filesystem

import "github.com/skyline93/js5/internal/disk"

// Config holds the options of a FileSystem.
type Config struct {
	Store disk.Config

	CacheSize   int  `option:"cache-size" help:"number of containers kept in the read cache, 0 disables it (default: 256)"`
	Connections uint `option:"connections" help:"set a limit for the number of archives checksummed concurrently (default: 2)"`
}

// NewConfig returns a new config with default options applied.
func NewConfig() Config {
	return Config{
		Store:       disk.NewConfig(),
		CacheSize:   256,
		Connections: 2,
	}
}
