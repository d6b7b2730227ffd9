package match

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCacheSize is the default maximum number of cached patterns.
const DefaultCacheSize = 100

// Cache is an LRU cache of compiled patterns shared across Matchers.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*list.Element
	lru     *list.List
	maxSize int
}

// cacheKey identifies a compiled pattern. The timeout is part of the key
// because it is baked into backtracking regexps at compile time.
type cacheKey struct {
	engine  Engine
	expr    string
	timeout time.Duration
}

type cacheEntry struct {
	key cacheKey
	s   searcher
}

// NewCache creates a cache holding at most size patterns.
// A size <= 0 uses DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		entries: make(map[cacheKey]*list.Element),
		lru:     list.New(),
		maxSize: size,
	}
}

// get returns the compiled pattern for key, compiling and inserting it on a miss.
func (c *Cache) get(key cacheKey) (searcher, error) {
	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		// Re-check: the entry may have been evicted between the locks.
		if elem, ok := c.entries[key]; ok {
			c.lru.MoveToFront(elem)
			s := elem.Value.(*cacheEntry).s
			c.mu.Unlock()
			return s, nil
		}
		c.mu.Unlock()
	}

	s, err := compile(key.engine, key.expr, key.timeout)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have inserted it while we were compiling.
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).s, nil
	}

	if c.lru.Len() >= c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}

	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, s: s})
	return s, nil
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
