package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCache struct{}

func (failingCache) Get(context.Context, string, interface{}) error { return errors.New("redis down") }
func (failingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis down")
}
func (failingCache) Delete(context.Context, ...string) error { return errors.New("redis down") }

func TestCacheServiceHitMissMetrics(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCache(), metrics, 0, nil, true)
	ctx := context.Background()

	var out map[string]string
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", map[string]string{"a": "b"}, 0))
	hit, err = svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "b", out["a"])

	require.NoError(t, svc.Invalidate(ctx, "k"))
	hit, _ = svc.Get(ctx, "k", &out)
	assert.False(t, hit)

	assert.Equal(t, float64(1), counterValue(t, metrics, "insights_cache_lookups_total", map[string]string{"result": "hit"}))
	assert.Equal(t, float64(2), counterValue(t, metrics, "insights_cache_lookups_total", map[string]string{"result": "miss"}))
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(newMemoryCache(), nil, time.Minute, nil, false)
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	hit, err := svc.Get(context.Background(), "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Invalidate(context.Background(), "k"))
}

func TestCacheServiceBackendErrors(t *testing.T) {
	svc := NewCacheService(failingCache{}, nil, time.Minute, nil, true)
	hit, err := svc.Get(context.Background(), "k", new(string))
	assert.False(t, hit)
	assert.Error(t, err)
	assert.Error(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Error(t, svc.Invalidate(context.Background(), "k"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/health", 200, time.Millisecond)
		m.ObserveBatch(SourceUpload, nil, time.Millisecond)
		m.RecordValidationFailure()
		m.RecordCacheOperation(true, time.Millisecond)
		m.RecordHistoryWrite(nil)
	})
}
