package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/address-completer/app/models"
)

// CacheStats is the common cache statistics shape.
type CacheStats struct {
	Backend    string  `json:"backend"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`

	Layers map[string]interface{} `json:"layers,omitempty"`
}

// ICacheService stores completed addresses keyed by request signature.
type ICacheService interface {
	Get(ctx context.Context, key string) (*models.AddressComponents, bool, error)

	Set(ctx context.Context, key string, components *models.AddressComponents) error

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	// InvalidateByParserVersion drops every entry not produced by parserVersion.
	InvalidateByParserVersion(ctx context.Context, parserVersion string) error

	GetStats(ctx context.Context) (*CacheStats, error)

	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL returns the remaining lifetime of key; 0 when unknown or unbounded.
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	Close() error
}

// CacheKey is the signature of a completion request.
func CacheKey(address, location, coordsys string) string {
	return strings.Join([]string{strings.TrimSpace(address), location, coordsys}, "|")
}

// fingerprint hashes a cache key for persistent storage.
func fingerprint(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("sha256:%x", hash)
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
