package filestore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of file contents kept by NewCached when
// size is not positive.
const DefaultCacheSize = 1024

// Cached wraps a Store with an LRU cache of file contents. Descriptors are
// read repeatedly by concurrent checkers; the cache keeps those reads off
// the disk.
type Cached struct {
	Store
	files *lru.Cache[string, []byte]
}

// NewCached wraps s.
func NewCached(s Store, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cached{Store: s, files: c}, nil
}

// ReadFile serves loc from the cache, reading through on a miss.
// Failed reads are not cached.
func (c *Cached) ReadFile(ctx context.Context, loc string) ([]byte, error) {
	key, err := Clean(loc)
	if err != nil {
		return nil, err
	}
	if data, ok := c.files.Get(key); ok {
		return data, nil
	}
	data, err := c.Store.ReadFile(ctx, key)
	if err != nil {
		return nil, err
	}
	c.files.Add(key, data)
	return data, nil
}

// Digest forwards to the wrapped store when it has one.
func (c *Cached) Digest() string {
	if d, ok := c.Store.(Digester); ok {
		return d.Digest()
	}
	return ""
}
