package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/address-completer/app/models"
	"go.uber.org/zap"
)

// HybridCacheService layers a fast cache (Redis) over a persistent one (MongoDB).
type HybridCacheService struct {
	fast       ICacheService
	persistent ICacheService
	logger     *zap.Logger
}

// NewHybridCacheService combines fast (L1) and persistent (L2) caches.
func NewHybridCacheService(fast, persistent ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{
		fast:       fast,
		persistent: persistent,
		logger:     logger,
	}
}

// Get reads L1 then L2; an L2 hit is copied back to L1.
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.AddressComponents, bool, error) {
	components, found, err := hcs.fast.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 cache failed, falling back to L2", zap.Error(err))
	} else if found {
		return components, true, nil
	}

	components, found, err = hcs.persistent.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	if err := hcs.fast.Set(ctx, key, components); err != nil {
		hcs.logger.Warn("Cannot promote entry to L1", zap.Error(err), zap.String("key", key))
	}
	return components, true, nil
}

func (hcs *HybridCacheService) Set(ctx context.Context, key string, components *models.AddressComponents) error {
	return hcs.both(func(c ICacheService) error { return c.Set(ctx, key, components) }, "set")
}

func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) }, "delete")
}

func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	return hcs.both(func(c ICacheService) error { return c.Clear(ctx) }, "clear")
}

func (hcs *HybridCacheService) InvalidateByParserVersion(ctx context.Context, parserVersion string) error {
	return hcs.both(func(c ICacheService) error { return c.InvalidateByParserVersion(ctx, parserVersion) }, "invalidate")
}

func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() }, "close")
}

// both runs op on the two layers concurrently and joins their errors.
func (hcs *HybridCacheService) both(op func(ICacheService) error, name string) error {
	errCh := make(chan error, 2)
	for _, c := range []ICacheService{hcs.fast, hcs.persistent} {
		go func(c ICacheService) { errCh <- op(c) }(c)
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			hcs.logger.Warn("Hybrid cache operation failed", zap.String("op", name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("hybrid cache %s: %w", name, errors.Join(errs...))
	}
	return nil
}

// GetStats sums both layers; one failing layer is tolerated.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	fastStats, fastErr := hcs.fast.GetStats(ctx)
	persistentStats, persistentErr := hcs.persistent.GetStats(ctx)

	switch {
	case fastErr != nil && persistentErr != nil:
		return nil, fmt.Errorf("both cache layers failed: %w", errors.Join(fastErr, persistentErr))
	case fastErr != nil:
		return persistentStats, nil
	case persistentErr != nil:
		return fastStats, nil
	}

	hits := fastStats.TotalHits + persistentStats.TotalHits
	misses := fastStats.TotalMiss + persistentStats.TotalMiss
	return &CacheStats{
		Backend:    "hybrid",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: persistentStats.TotalItems,
	}, nil
}

func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.fast.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 exists check failed, falling back to L2", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.persistent.Exists(ctx, key)
}

// GetTTL reports the L1 lifetime.
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.fast.GetTTL(ctx, key)
}
