// Package ristretto implements the cache port with an in-process
// dgraph-io/ristretto cache, fronting hot listing reads so repeat
// detail views skip PostgreSQL.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// avgEntryBytes is a rough serialized-listing size used to derive the
// counter count from the byte budget.
const avgEntryBytes = 4096

// Cache is a byte-budgeted key-value cache. Values are counted by their
// serialized length, so MaxCost caps total memory, not entry count.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a cache holding at most maxCostBytes of serialized values.
func New(maxCostBytes int64) (*Cache, error) {
	counters := maxCostBytes / avgEntryBytes * 10
	if counters < 1e4 {
		counters = 1e4
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores the value with a TTL. Admission is advisory: ristretto may
// decline cold keys, which callers must tolerate (the store remains the
// source of truth).
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Wait blocks until buffered writes are applied. Only tests need it.
func (c *Cache) Wait() { c.c.Wait() }

// Close releases the cache's internal goroutines.
func (c *Cache) Close() { c.c.Close() }
