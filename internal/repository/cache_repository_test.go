package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
)

type countingCacheMetrics struct {
	hits   int
	misses int
}

func (c *countingCacheMetrics) RecordCacheOperation(hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func newTestCache(t *testing.T, metrics CacheMetrics) *CacheRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, metrics, zap.NewNop())
}

func TestCacheGetRecordsHitAndMiss(t *testing.T) {
	metrics := &countingCacheMetrics{}
	cache := newTestCache(t, metrics)
	ctx := context.Background()

	var out int
	err := cache.Get(ctx, "reports:summary", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Equal(t, 1, metrics.misses)

	require.NoError(t, cache.Set(ctx, "reports:summary", 42, time.Minute))
	require.NoError(t, cache.Get(ctx, "reports:summary", &out))
	assert.Equal(t, 42, out)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
}

func TestCacheNilClientSkipsMetrics(t *testing.T) {
	metrics := &countingCacheMetrics{}
	cache := NewCacheRepository(nil, metrics, zap.NewNop())

	var out int
	err := cache.Get(context.Background(), "reports:summary", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	// A disabled cache is not a miss worth counting.
	assert.Equal(t, 0, metrics.misses)
}
