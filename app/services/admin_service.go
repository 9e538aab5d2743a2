package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/address-completer/app/responses"
	"github.com/address-completer/internal/amap"
	"go.uber.org/zap"
)

// ErrNoCache is returned by cache operations when caching is disabled.
var ErrNoCache = errors.New("result cache is disabled")

// GatewayStatser reports provider quota and cache counters.
type GatewayStatser interface {
	Stats() amap.Stats
}

// AdminService reports runtime statistics and manages the result cache.
type AdminService struct {
	gateway     GatewayStatser
	cache       ICacheService
	addresses   *AddressService
	logger      *zap.Logger
	version     string
	environment string
}

func NewAdminService(gateway GatewayStatser, cache ICacheService, addresses *AddressService, logger *zap.Logger, version, environment string) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		gateway:     gateway,
		cache:       cache,
		addresses:   addresses,
		logger:      logger,
		version:     version,
		environment: environment,
	}
}

// QuotaStats returns today's provider usage.
func (as *AdminService) QuotaStats() amap.Stats {
	return as.gateway.Stats()
}

// GetSystemStats gathers gateway, cache, job and process statistics.
// A failing cache backend is reported in the cache section, not as an error.
func (as *AdminService) GetSystemStats(ctx context.Context) *responses.SystemStatsResponse {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	memoryUsage := map[string]interface{}{
		"alloc_mb":       bToMb(m.Alloc),
		"total_alloc_mb": bToMb(m.TotalAlloc),
		"sys_mb":         bToMb(m.Sys),
		"num_gc":         m.NumGC,
	}

	stats := &responses.SystemStatsResponse{
		Gateway: as.gateway.Stats(),
		Jobs: map[string]interface{}{
			"counts":      as.addresses.JobCounts(),
			"completions": as.addresses.Metrics(),
		},
		SystemInfo: responses.SystemInfo{
			Version:       as.version,
			ParserVersion: as.addresses.ParserVersion(),
			Environment:   as.environment,
			Uptime:        time.Since(as.addresses.GetStartTime()).Round(time.Second).String(),
			Goroutines:    runtime.NumGoroutine(),
			MemoryUsage:   memoryUsage,
		},
	}

	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Cannot read cache stats", zap.Error(err))
			stats.Cache = map[string]string{"error": err.Error()}
		} else {
			stats.Cache = cacheStats
		}
	}
	return stats
}

// InvalidateCache drops cached results from parser versions other than
// parserVersion, defaulting to the running one.
func (as *AdminService) InvalidateCache(ctx context.Context, parserVersion string) (string, error) {
	if as.cache == nil {
		return "", ErrNoCache
	}
	if parserVersion == "" {
		parserVersion = as.addresses.ParserVersion()
	}
	if err := as.cache.InvalidateByParserVersion(ctx, parserVersion); err != nil {
		return "", fmt.Errorf("invalidate cache: %w", err)
	}
	as.logger.Info("Cache invalidated", zap.String("parser_version", parserVersion))
	return parserVersion, nil
}

// ClearCache drops every cached result.
func (as *AdminService) ClearCache(ctx context.Context) error {
	if as.cache == nil {
		return ErrNoCache
	}
	if err := as.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	as.logger.Info("Cache cleared")
	return nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
