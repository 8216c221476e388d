// Package memcache is an in-process domain.Cache for single-instance runs
// without Redis. Values are stored as JSON so readers never share memory
// with writers.
package memcache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"heritage_explorer/internal/adapters/observability"
)

type Cache struct{ c *gocache.Cache }

// New creates a cache whose expired items are purged every cleanup interval.
func New(cleanup time.Duration) *Cache {
	return &Cache{c: gocache.New(gocache.NoExpiration, cleanup)}
}

func (m *Cache) Ping(ctx context.Context) error { return nil }

func (m *Cache) Close() error {
	m.c.Flush()
	return nil
}

func (m *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	x, found := m.c.Get(key)
	if !found {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(x.([]byte), dst)
}

// Set stores v for ttlSec seconds; ttlSec <= 0 keeps it until deleted.
func (m *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := gocache.NoExpiration
	if ttlSec > 0 {
		ttl = time.Duration(ttlSec) * time.Second
	}
	observability.ObserveCache("memory", "set")
	m.c.Set(key, b, ttl)
	return nil
}

func (m *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("memory", "del")
	m.c.Delete(key)
	return nil
}

func (m *Cache) Len() int { return m.c.ItemCount() }
