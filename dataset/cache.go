package dataset

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"
)

// LoaderFunc loads a table from its chunk sources.
type LoaderFunc func(ctx context.Context, sources []string) (*Table, error)

// Cache memoises loaded tables process-wide, keyed by the source list.
// Concurrent first loads of the same sources share one read.
type Cache struct {
	load  LoaderFunc
	group singleflight.Group

	mu     sync.RWMutex
	tables map[uint64]*Table
}

// NewCache returns a cache around load; nil selects Load.
func NewCache(load LoaderFunc) *Cache {
	if load == nil {
		load = Load
	}
	return &Cache{
		load:   load,
		tables: make(map[uint64]*Table),
	}
}

// Key hashes an ordered source list.
func Key(sources []string) uint64 {
	return xxh3.HashString(strings.Join(sources, "\x00"))
}

// Get returns the cached table for sources, loading it on first use.
// Concurrent first calls share one load that ignores the callers'
// cancellation. Failed loads are not cached.
func (c *Cache) Get(ctx context.Context, sources []string) (*Table, error) {
	key := Key(sources)

	c.mu.RLock()
	t, ok := c.tables[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, _ := c.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		c.mu.RLock()
		t, ok := c.tables[key]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		// Shared by every waiter, so one caller's cancellation must not end it.
		t, err := c.load(context.WithoutCancel(ctx), sources)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tables[key] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Invalidate drops the entry for sources so the next Get reloads it.
func (c *Cache) Invalidate(sources []string) {
	c.mu.Lock()
	delete(c.tables, Key(sources))
	c.mu.Unlock()
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
