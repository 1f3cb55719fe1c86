package fs

import (
	"os"
	"sync"
	"time"

	"github.com/aretw0/notepad/pkg/core"
)

// cacheEntry is the last parsed collection together with the file
// attributes it was parsed from.
type cacheEntry struct {
	collection   core.Collection
	lastModified time.Time
	size         int64
}

// cache avoids re-parsing the collection file when it has not changed on disk.
type cache struct {
	mu    sync.RWMutex
	entry *cacheEntry
	hits  int
}

func newCache() *cache {
	return &cache{}
}

// Get returns the cached collection if info still describes the file it was
// parsed from. Returns false if miss or stale.
func (c *cache) Get(info os.FileInfo) (core.Collection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil || info == nil {
		return core.Collection{}, false
	}

	// Precision of mtime varies by filesystem; size guards same-second rewrites.
	if !c.entry.lastModified.Equal(info.ModTime()) || c.entry.size != info.Size() {
		return core.Collection{}, false
	}

	c.hits++
	return c.entry.collection, true
}

// Set records the collection parsed from (or written as) the file described by info.
func (c *cache) Set(info os.FileInfo, collection core.Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if info == nil {
		c.entry = nil
		return
	}
	c.entry = &cacheEntry{
		collection:   collection,
		lastModified: info.ModTime(),
		size:         info.Size(),
	}
}

// Invalidate drops the cached entry.
func (c *cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// Hits returns how many loads were served from the cache.
func (c *cache) Hits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits
}
