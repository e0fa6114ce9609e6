package filesystem

import (
	"bytes"

	lru "github.com/hashicorp/golang-lru/arc/v2"
	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/js5"
)

// containerCache keeps recently read containers in memory. A nil
// *containerCache is a valid, always empty cache.
type containerCache struct {
	c *lru.ARCCache[js5.Handle, []byte]
}

func newContainerCache(size int) (*containerCache, error) {
	if size <= 0 {
		return nil, nil
	}

	c, err := lru.NewARC[js5.Handle, []byte](size)
	if err != nil {
		return nil, errors.Wrap(err, "lru.NewARC")
	}
	return &containerCache{c: c}, nil
}

// get returns a copy of the cached contents of h.
func (c *containerCache) get(h js5.Handle) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	buf, ok := c.c.Get(h)
	if !ok {
		return nil, false
	}
	return bytes.Clone(buf), true
}

func (c *containerCache) add(h js5.Handle, buf []byte) {
	if c == nil {
		return
	}
	c.c.Add(h, bytes.Clone(buf))
}

func (c *containerCache) remove(h js5.Handle) {
	if c == nil {
		return
	}
	c.c.Remove(h)
}

func (c *containerCache) purge() {
	if c == nil {
		return
	}
	c.c.Purge()
}

func (c *containerCache) len() int {
	if c == nil {
		return 0
	}
	return c.c.Len()
}
