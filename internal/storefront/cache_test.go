package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu      sync.Mutex
	results []string
}

func (o *recordingObserver) ObserveCache(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *recordingObserver) seen() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.results...)
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, *recordingObserver) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	observer := &recordingObserver{}
	return NewCache(client, time.Minute, observer), mr, observer
}

func TestCacheFetchJSONStoresLoaderResult(t *testing.T) {
	cache, _, observer := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"total": 3}, nil
	}
	key, err := cache.BuildKey(ctx, "events", "concert")
	require.NoError(t, err)
	assert.Equal(t, "catalog:events:concert:1", key)

	var first, second map[string]int
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, second["total"])
	assert.Equal(t, []string{"miss", "hit"}, observer.seen())
}

func TestCacheLoaderErrorIsNotStored(t *testing.T) {
	cache, mr, _ := newTestCache(t)
	ctx := context.Background()

	var out map[string]int
	err := cache.FetchJSON(ctx, "catalog:broken:1", &out, func(context.Context) (any, error) {
		return nil, errors.New("upstream down")
	})
	assert.EqualError(t, err, "upstream down")
	assert.False(t, mr.Exists("catalog:broken:1"))
}

func TestCacheBumpRetiresKeys(t *testing.T) {
	cache, _, _ := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "venue", "5")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "venue", "5")
	require.NoError(t, err)

	assert.Equal(t, "catalog:venue:5:1", before)
	assert.Equal(t, "catalog:venue:5:2", after)
}

func TestCacheFallsBackWhenRedisIsDown(t *testing.T) {
	cache, mr, observer := newTestCache(t)
	mr.Close()

	var out []int
	err := cache.FetchJSON(context.Background(), "catalog:events:1", &out, func(context.Context) (any, error) {
		return []int{1, 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, out)
	assert.Equal(t, []string{"error"}, observer.seen())
}

func TestNilCacheLoadsDirectly(t *testing.T) {
	var cache *Cache
	key, err := cache.BuildKey(context.Background(), "event", "1")
	require.NoError(t, err)
	assert.Equal(t, "catalog:event:1", key)

	var out string
	require.NoError(t, cache.FetchJSON(context.Background(), key, &out, func(context.Context) (any, error) {
		return "direct", nil
	}))
	assert.Equal(t, "direct", out)
	assert.NoError(t, cache.Bump(context.Background()))
}

func TestApplyBumpOnlyMovesForward(t *testing.T) {
	cache, mr, _ := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, mr.Set(cacheVersionKey, "5"))

	cache.applyBump(ctx, "3")
	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, ver)

	cache.applyBump(ctx, "9")
	ver, err = cache.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 9, ver)
}

func TestCacheLoadSurvivesCancelledCaller(t *testing.T) {
	cache, mr, _ := newTestCache(t)
	key := "catalog:events:all:1"

	started := make(chan struct{})
	release := make(chan struct{})
	loaderErr := make(chan error, 1)
	loader := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		loaderErr <- ctx.Err()
		return map[string]int{"total": 7}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		var out map[string]int
		done <- cache.FetchJSON(ctx, key, &out, loader)
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.NoError(t, <-loaderErr)
	require.Eventually(t, func() bool { return mr.Exists(key) }, time.Second, 10*time.Millisecond)

	var out map[string]int
	require.NoError(t, cache.FetchJSON(context.Background(), key, &out, func(context.Context) (any, error) {
		return nil, errors.New("loader must not run again")
	}))
	assert.Equal(t, 7, out["total"])
}
