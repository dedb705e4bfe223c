package texture

import (
	"image"
	"sync"
)

// Cache is a concurrency-safe basemap cache keyed by path. Failed loads
// are cached too, so a missing file is only reported once per path.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	load  func(string) (*image.NRGBA, error)
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates an empty cache that loads from disk.
func NewCache() *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		load:  Load,
	}
}

// Get returns the decoded image for path, loading it on first use.
func (c *Cache) Get(path string) (*image.NRGBA, error) {
	c.mu.RLock()
	if e, ok := c.items[path]; ok {
		c.mu.RUnlock()
		return e.img, e.err
	}
	c.mu.RUnlock()

	img, err := c.load(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[path]; ok {
		return e.img, e.err
	}
	c.items[path] = &cacheEntry{img: img, err: err}
	return img, err
}

// Invalidate drops path so the next Get reads it again.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, path)
}

// Len reports the number of cached paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
