package persist

import (
	"context"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// CachedStore decorates a Store with a read-through in-memory cache, so
// repeated reads of the same exchange snapshot between stop/start cycles
// don't round-trip through the underlying store every time.
type CachedStore struct {
	inner Store
	cache *cache.Cache
}

// NewCachedStore wraps inner with a cache of the given TTL.
func NewCachedStore(inner Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Get implements Store, consulting the cache before the inner store.
func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		if v == nil {
			return nil, false, nil
		}
		return v.([]byte), true, nil
	}
	value, ok, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		s.cache.SetDefault(key, value)
	}
	return value, ok, nil
}

// Put implements Store, replacing the cached entry for key with value.
func (s *CachedStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.inner.Put(ctx, key, value); err != nil {
		return err
	}
	s.cache.SetDefault(key, value)
	return nil
}

// Delete implements Store, invalidating the cached entry for key.
func (s *CachedStore) Delete(ctx context.Context, key string) error {
	if err := s.inner.Delete(ctx, key); err != nil {
		return err
	}
	s.cache.Delete(key)
	return nil
}
