// internal/common/geocode/cache.go
package geocode

import (
	"context"
	"strings"
	"time"

	"disaster-eye-workers/internal/common/database"
	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/common/metrics"
)

// CachedGeocoder wraps a Geocoder with a Redis cache. Cache failures are
// logged and the lookup falls through to the inner geocoder, so a broken
// cache never breaks geocoding.
type CachedGeocoder struct {
	inner  Geocoder
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner Geocoder, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "geocode-cache"}),
	}
}

func (c *CachedGeocoder) Forward(ctx context.Context, query string) (*Result, error) {
	key := cacheKey(query)

	var cached Result
	err := c.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		metrics.GeocodeCacheHits.WithLabelValues("hit").Inc()
		return &cached, nil
	}
	if !database.IsCacheMiss(err) {
		c.logger.Warn("Geocode cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	metrics.GeocodeCacheHits.WithLabelValues("miss").Inc()

	result, err := c.inner.Forward(ctx, query)
	if err != nil || result == nil {
		// Only cache resolved locations so transient misses can be retried.
		return result, err
	}

	if err := c.cache.SetJSON(ctx, key, result, c.ttl); err != nil {
		c.logger.Warn("Geocode cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return result, nil
}

func cacheKey(query string) string {
	return "geo:fwd:" + strings.ToLower(strings.TrimSpace(query))
}
