// Package lookupcache implements the recent-lookup LRU cache mapping
// filename to the Storage Server handle that served its last lookup. It is
// invalidated on DELETE, Storage Server eviction, and CREATE.
package lookupcache

import (
	"container/list"
	"sync"

	"github.com/google/uuid"
)

// DefaultSize is the cache's default bound when no configuration override
// is supplied. Built directly on container/list + map rather than a
// third-party LRU package, matching the block cache eviction policy this
// is modeled on.
const DefaultSize = 256

type entry struct {
	file string
	ss   uuid.UUID
}

// Cache is a bounded, thread-safe LRU mapping filename to Storage Server
// handle.
type Cache struct {
	mu       sync.Mutex
	size     int
	ll       *list.List
	elements map[string]*list.Element
}

// New constructs a Cache bounded to size entries. A size <= 0 falls back to
// DefaultSize.
func New(size int) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	return &Cache{
		size:     size,
		ll:       list.New(),
		elements: make(map[string]*list.Element),
	}
}

// Get returns the cached Storage Server handle for file, promoting it to
// most-recently-used.
func (c *Cache) Get(file string) (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.elements[file]
	if !ok {
		return uuid.UUID{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).ss, true
}

// Put records that file is served by ss, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *Cache) Put(file string, ss uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.elements[file]; ok {
		el.Value.(*entry).ss = ss
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{file: file, ss: ss})
	c.elements[file] = el

	if c.ll.Len() > c.size {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.elements, oldest.Value.(*entry).file)
		}
	}
}

// Invalidate removes file's entry, if any.
func (c *Cache) Invalidate(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.elements[file]; ok {
		c.ll.Remove(el)
		delete(c.elements, file)
	}
}

// InvalidateSS removes every entry pointing at ss, e.g. after the Storage
// Server is evicted.
func (c *Cache) InvalidateSS(ss uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for file, el := range c.elements {
		if el.Value.(*entry).ss == ss {
			c.ll.Remove(el)
			delete(c.elements, file)
		}
	}
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
