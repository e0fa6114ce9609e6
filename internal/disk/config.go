package disk

import (
	"os"
	"strings"
	"time"

	"github.com/skyline93/js5/internal/errors"
)

// Config holds all information needed to open a cache directory.
type Config struct {
	Path string

	LockTimeout time.Duration `option:"lock-timeout" help:"how long to wait for another process to release the cache (default: 5s)"`
}

// NewConfig returns a new config with default options applied.
func NewConfig() Config {
	return Config{
		LockTimeout: 5 * time.Second,
	}
}

// ParseConfig parses a cache location. Both "local:/path" and a bare path are
// accepted.
func ParseConfig(s string) (*Config, error) {
	s = strings.TrimPrefix(s, "local:")
	if s == "" {
		return nil, errors.New("cache path is empty")
	}

	cfg := NewConfig()
	cfg.Path = s
	return &cfg, nil
}

// Modes holds the permissions used for files and directories of a cache.
type Modes struct {
	Dir  os.FileMode
	File os.FileMode
}

var DefaultModes = Modes{Dir: 0700, File: 0600}

// DeriveModesFromFileInfo widens the default modes to group access when the
// existing cache directory is group readable.
func DeriveModesFromFileInfo(fi os.FileInfo, err error) Modes {
	m := DefaultModes
	if err != nil {
		return m
	}

	if fi.Mode()&0040 != 0 { // Group has read access
		m.Dir |= 0070
		m.File |= 0060
	}

	return m
}
