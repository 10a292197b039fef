package data

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/krishnx/vestigas/internal/core"
)

type memCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemCacheRepo is an in-memory CacheRepository used when no Redis endpoint is
// configured. Expiry is checked lazily on read.
type MemCacheRepo struct {
	mu           sync.Mutex
	entries      map[string]memCacheEntry
	timeProvider TimeProvider
}

// NewMemCacheRepo creates an empty in-memory cache.
func NewMemCacheRepo() *MemCacheRepo {
	return &MemCacheRepo{
		entries:      map[string]memCacheEntry{},
		timeProvider: &RealTimeProvider{},
	}
}

// SetTimeProvider swaps the clock used for expiry checks. Tests use this to
// step time forward without sleeping.
func (r *MemCacheRepo) SetTimeProvider(tp TimeProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeProvider = tp
}

func (r *MemCacheRepo) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = r.timeProvider.Now().Add(ttl)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = memCacheEntry{value: append([]byte(nil), value...), expiresAt: expiresAt}
	return nil
}

func (r *MemCacheRepo) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[key]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && r.timeProvider.Now().After(entry.expiresAt) {
		delete(r.entries, key)
		return nil, nil
	}
	return append([]byte(nil), entry.value...), nil
}

func (r *MemCacheRepo) Delete(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	delete(r.entries, key)
	return ok, nil
}

var _ core.CacheRepository = (*MemCacheRepo)(nil)
