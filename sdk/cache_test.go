package sdk

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheDedupeCollapsesConcurrentCallers(t *testing.T) {
	cache := NewCache()

	var calls atomic.Int64
	release := make(chan struct{})
	producer := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	const workers = 20
	var wg sync.WaitGroup
	results := make([]interface{}, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Dedupe(context.Background(), "k", time.Minute, producer)
		}(i)
	}

	// Let the goroutines pile onto the same flight before releasing it
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "producer must run once for concurrent callers")
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "value", results[i])
	}
}

func TestCacheDedupeServesFreshHit(t *testing.T) {
	cache := NewCache()

	var calls atomic.Int64
	producer := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		return calls.Load(), nil
	}

	v1, err := cache.Dedupe(context.Background(), "k", time.Minute, producer)
	require.NoError(t, err)
	v2, err := cache.Dedupe(context.Background(), "k", time.Minute, producer)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(1), calls.Load())
}

func TestCacheDedupeExpiresByTTL(t *testing.T) {
	cache := NewCache()

	now := time.Now()
	cache.nowFn = func() time.Time { return now }

	var calls atomic.Int64
	producer := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		return calls.Load(), nil
	}

	_, err := cache.Dedupe(context.Background(), "k", time.Second, producer)
	require.NoError(t, err)

	// Advance past the TTL
	now = now.Add(2 * time.Second)

	_, err = cache.Dedupe(context.Background(), "k", time.Second, producer)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	cache := NewCache()

	var calls atomic.Int64
	producer := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		return calls.Load(), nil
	}

	_, err := cache.Dedupe(context.Background(), "k", time.Minute, producer)
	require.NoError(t, err)

	cache.Invalidate("k")

	v, err := cache.Dedupe(context.Background(), "k", time.Minute, producer)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, int64(2), v)
}

func TestCacheInvalidateDuringFlightPreventsStaleStore(t *testing.T) {
	cache := NewCache()

	var calls atomic.Int64
	entered := make(chan struct{})
	release := make(chan struct{})
	producer := func(ctx context.Context) (interface{}, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}

	done := make(chan interface{}, 1)
	go func() {
		v, _ := cache.Dedupe(context.Background(), "k", time.Minute, producer)
		done <- v
	}()

	// Invalidate while the first producer is mid-flight
	<-entered
	cache.Invalidate("k")
	close(release)

	// The in-flight caller still gets the value it asked for
	assert.Equal(t, "stale", <-done)

	// But the invalidation outranks the flight: the next call refetches
	v, err := cache.Dedupe(context.Background(), "k", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, int64(2), calls.Load())
}

func TestCacheInvalidateAllDuringFlightPreventsStaleStore(t *testing.T) {
	cache := NewCache()

	var calls atomic.Int64
	entered := make(chan struct{})
	release := make(chan struct{})
	producer := func(ctx context.Context) (interface{}, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}

	done := make(chan struct{})
	go func() {
		cache.Dedupe(context.Background(), "k", time.Minute, producer)
		close(done)
	}()

	<-entered
	cache.InvalidateAll()
	close(release)
	<-done

	v, err := cache.Dedupe(context.Background(), "k", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, int64(2), calls.Load())
}

func TestCacheErrorPropagatesAndIsNotCached(t *testing.T) {
	cache := NewCache()

	boom := errors.New("backend down")
	var calls atomic.Int64
	failing := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		return nil, boom
	}

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.Dedupe(context.Background(), "k", time.Minute, failing)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		assert.ErrorIs(t, errs[i], boom)
	}

	// The failure was not cached: the next call hits the producer again
	before := calls.Load()
	_, err := cache.Dedupe(context.Background(), "k", time.Minute, failing)
	assert.ErrorIs(t, err, boom)
	assert.Greater(t, calls.Load(), before)

	// And a later success is served normally
	v, err := cache.Dedupe(context.Background(), "k", time.Minute, func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCacheKeysAreIndependent(t *testing.T) {
	cache := NewCache()

	v1, err := cache.Dedupe(context.Background(), "conversations:pl__1", time.Minute, func(ctx context.Context) (interface{}, error) {
		return "a", nil
	})
	require.NoError(t, err)
	v2, err := cache.Dedupe(context.Background(), "conversations:pl__2", time.Minute, func(ctx context.Context) (interface{}, error) {
		return "b", nil
	})
	require.NoError(t, err)

	assert.Equal(t, "a", v1)
	assert.Equal(t, "b", v2)

	cache.Invalidate("conversations:pl__1")

	v2again, err := cache.Dedupe(context.Background(), "conversations:pl__2", time.Minute, func(ctx context.Context) (interface{}, error) {
		return "c", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "b", v2again, "invalidating one key must not touch another")
}
