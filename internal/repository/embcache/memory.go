package embcache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kailas-cloud/ragcore/internal/db"
)

// Compile-time check: MemoryStore implements db.KVStore.
var _ db.KVStore = (*MemoryStore)(nil)

// MemoryStore is an in-process KV backend for the embedding cache.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire after ttl by default
// (zero means never) and are purged every cleanup interval.
func NewMemoryStore(ttl, cleanup time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

// Get returns a copy of the stored value.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	x, found := m.cache.Get(key)
	if !found {
		return nil, db.ErrKeyNotFound
	}
	v, _ := x.([]byte)
	return append([]byte(nil), v...), nil
}

// Set stores a value with the default expiration.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.cache.Set(key, append([]byte(nil), value...), cache.DefaultExpiration)
	return nil
}

// SetWithTTL stores a value with an explicit expiration. A non-positive ttl uses the default.
func (m *MemoryStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	m.cache.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Del removes a key.
func (m *MemoryStore) Del(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Len returns the number of cached items, including expired ones not yet purged.
func (m *MemoryStore) Len() int { return m.cache.ItemCount() }
