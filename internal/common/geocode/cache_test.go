// internal/common/geocode/cache_test.go
package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"disaster-eye-workers/internal/common/database"
	"disaster-eye-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	calls  int
	result *Result
	err    error
}

func (f *fakeGeocoder) Forward(ctx context.Context, query string) (*Result, error) {
	f.calls++
	return f.result, f.err
}

func testRedis(t *testing.T) (*database.RedisClient, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &database.RedisClient{Client: client}, mr
}

func TestCachedGeocoder_CachesResolvedLocations(t *testing.T) {
	cache, mr := testRedis(t)
	inner := &fakeGeocoder{result: &Result{Lat: 13.08, Lng: 80.27, DisplayName: "Chennai"}}

	geocoder := NewCachedGeocoder(inner, cache, time.Hour, logger.NewTestLogger(t))

	first, err := geocoder.Forward(context.Background(), "Chennai")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, inner.calls)

	second, err := geocoder.Forward(context.Background(), "Chennai")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 1, inner.calls, "second lookup should be served from cache")
	assert.Equal(t, first.DisplayName, second.DisplayName)

	ttl := mr.TTL("geo:fwd:chennai")
	assert.Equal(t, time.Hour, ttl)
}

func TestCachedGeocoder_DoesNotCacheMisses(t *testing.T) {
	cache, _ := testRedis(t)
	inner := &fakeGeocoder{result: nil}

	geocoder := NewCachedGeocoder(inner, cache, time.Hour, logger.NewTestLogger(t))

	result, err := geocoder.Forward(context.Background(), "Nowhereville")
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = geocoder.Forward(context.Background(), "Nowhereville")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "misses must not be cached")
}

func TestCachedGeocoder_PropagatesErrors(t *testing.T) {
	cache, _ := testRedis(t)
	inner := &fakeGeocoder{err: errors.New("provider unreachable")}

	geocoder := NewCachedGeocoder(inner, cache, time.Hour, logger.NewTestLogger(t))

	_, err := geocoder.Forward(context.Background(), "Chennai")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_SurvivesCacheOutage(t *testing.T) {
	cache, mr := testRedis(t)
	inner := &fakeGeocoder{result: &Result{Lat: 13.08, Lng: 80.27, DisplayName: "Chennai"}}

	geocoder := NewCachedGeocoder(inner, cache, time.Hour, logger.NewTestLogger(t))

	mr.Close()

	result, err := geocoder.Forward(context.Background(), "Chennai")
	require.NoError(t, err, "cache outage must not fail the lookup")
	require.NotNil(t, result)
	assert.Equal(t, 1, inner.calls)
}

func TestCacheKey_Normalization(t *testing.T) {
	assert.Equal(t, "geo:fwd:chennai", cacheKey("  Chennai "))
	assert.Equal(t, "geo:fwd:new delhi", cacheKey("New Delhi"))
}
