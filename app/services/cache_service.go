package services

import (
	"context"
	"sync"
	"time"

	"github.com/address-completer/app/models"
)

type memoryEntry struct {
	components    *models.AddressComponents
	parserVersion string
	storedAt      time.Time
}

// CacheService is the in-process TTL cache.
type CacheService struct {
	mu            sync.RWMutex
	entries       map[string]memoryEntry
	ttl           time.Duration
	parserVersion string
	now           func() time.Time

	hits   int64
	misses int64
}

// NewCacheService creates an in-memory cache; entries written by it are
// tagged with parserVersion.
func NewCacheService(ttl time.Duration, parserVersion string) *CacheService {
	return &CacheService{
		entries:       make(map[string]memoryEntry),
		ttl:           ttl,
		parserVersion: parserVersion,
		now:           time.Now,
	}
}

// Get returns a live entry; expired entries are removed on access.
func (cs *CacheService) Get(ctx context.Context, key string) (*models.AddressComponents, bool, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry, exists := cs.entries[key]
	if !exists {
		cs.misses++
		return nil, false, nil
	}
	if cs.isExpired(entry) {
		delete(cs.entries, key)
		cs.misses++
		return nil, false, nil
	}
	cs.hits++
	return entry.components, true, nil
}

func (cs *CacheService) Set(ctx context.Context, key string, components *models.AddressComponents) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.entries[key] = memoryEntry{
		components:    components,
		parserVersion: cs.parserVersion,
		storedAt:      cs.now(),
	}
	return nil
}

func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.entries, key)
	return nil
}

func (cs *CacheService) Clear(ctx context.Context) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.entries = make(map[string]memoryEntry)
	cs.hits, cs.misses = 0, 0
	return nil
}

func (cs *CacheService) InvalidateByParserVersion(ctx context.Context, parserVersion string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key, entry := range cs.entries {
		if entry.parserVersion != parserVersion {
			delete(cs.entries, key)
		}
	}
	return nil
}

// Size counts stored entries, expired ones included.
func (cs *CacheService) Size() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return len(cs.entries)
}

func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	active := int64(0)
	for _, entry := range cs.entries {
		if !cs.isExpired(entry) {
			active++
		}
	}

	return &CacheStats{
		Backend:    "memory",
		HitRate:    hitRate(cs.hits, cs.misses),
		TotalHits:  cs.hits,
		TotalMiss:  cs.misses,
		TotalItems: active,
	}, nil
}

// CleanupExpired removes every expired entry.
func (cs *CacheService) CleanupExpired() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	removed := 0
	for key, entry := range cs.entries {
		if cs.isExpired(entry) {
			delete(cs.entries, key)
			removed++
		}
	}
	return removed
}

func (cs *CacheService) isExpired(entry memoryEntry) bool {
	return cs.ttl > 0 && cs.now().Sub(entry.storedAt) > cs.ttl
}

func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.entries[key]
	return exists && !cs.isExpired(entry), nil
}

func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.entries[key]
	if !exists || cs.ttl <= 0 {
		return 0, nil
	}

	remaining := cs.ttl - cs.now().Sub(entry.storedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// StartCleanupWorker sweeps expired entries every interval until ctx ends.
func (cs *CacheService) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}

func (cs *CacheService) Close() error {
	return nil
}
