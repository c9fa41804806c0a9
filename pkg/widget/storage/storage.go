package storage

import (
	"github.com/patrickmn/go-cache"
)

// Repository is the persistent key/value store the session layer writes
// through. Browser localStorage in the embedded build, go-cache here, a fake
// in tests. Cross-tab last-writer-wins races are part of this contract.
type Repository interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

type memoryRepository struct {
	cache *cache.Cache
}

// NewMemoryRepository returns a non-expiring in-process store.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *memoryRepository) Get(key string) (string, bool) {
	v, found := r.cache.Get(key)
	if !found {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, true
}

func (r *memoryRepository) Set(key, value string) {
	r.cache.Set(key, value, cache.NoExpiration)
}

func (r *memoryRepository) Remove(key string) {
	r.cache.Delete(key)
}
