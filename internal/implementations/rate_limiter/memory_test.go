package ratelimiter

import (
	"context"
	"fmt"
	ratelimiter "recoverme/internal/core/domain/rate_limiter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryAllowsUpToLimitWithinWindow(t *testing.T) {
	now := time.Date(2020, 1, 1, 10, 0, 10, 0, time.UTC)
	limiter := NewMemory(func() time.Time { return now })
	limit := ratelimiter.Limit{Value: 3, Window: 5 * time.Minute}
	key := ratelimiter.NewKey(ratelimiter.ScopeIP, "203.0.113.7")
	ctx := context.Background()

	for ix := 0; ix < 3; ix++ {
		require.True(t, limiter.CheckLimit(ctx, key, limit).IsAllowed)
	}
	require.False(t, limiter.CheckLimit(ctx, key, limit).IsAllowed)

	other := ratelimiter.NewKey(ratelimiter.ScopeEmail, "203.0.113.7")
	require.True(t, limiter.CheckLimit(ctx, other, limit).IsAllowed)

	now = now.Add(5 * time.Minute)
	require.True(t, limiter.CheckLimit(ctx, key, limit).IsAllowed)
}

func TestMemoryIsAtomicUnderConcurrency(t *testing.T) {
	now := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewMemory(func() time.Time { return now })
	limit := ratelimiter.Limit{Value: 5, Window: time.Minute}
	key := ratelimiter.NewKey(ratelimiter.ScopeIP, "203.0.113.7")

	var (
		wg      sync.WaitGroup
		lock    sync.Mutex
		allowed int
	)
	for ix := 0; ix < 50; ix++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.CheckLimit(context.Background(), key, limit).IsAllowed {
				lock.Lock()
				allowed++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 5, allowed)
}

func TestMemoryDeleteStaleBefore(t *testing.T) {
	now := time.Date(2020, 1, 1, 10, 0, 30, 0, time.UTC)
	limiter := NewMemory(func() time.Time { return now })
	limit := ratelimiter.Limit{Value: 5, Window: time.Minute}
	ctx := context.Background()

	limiter.CheckLimit(ctx, ratelimiter.NewKey(ratelimiter.ScopeIP, "a"), limit)
	now = now.Add(45 * time.Second)
	limiter.CheckLimit(ctx, ratelimiter.NewKey(ratelimiter.ScopeIP, "b"), limit)

	deleted, err := limiter.DeleteStaleBefore(ctx, limit.WindowStart(now))
	require.Nil(t, err)
	require.Equal(t, int64(1), deleted)
}

func TestMemoryEvictsFinishedWindowsOnCheck(t *testing.T) {
	now := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewMemory(func() time.Time { return now })
	limit := ratelimiter.Limit{Value: 5, Window: time.Minute}
	ctx := context.Background()

	for ix := 0; ix < 100; ix++ {
		limiter.CheckLimit(ctx, ratelimiter.NewKey(ratelimiter.ScopeIP, fmt.Sprintf("10.0.0.%d", ix)), limit)
	}
	require.Len(t, limiter.counters, 100)

	now = now.Add(time.Minute)
	limiter.CheckLimit(ctx, ratelimiter.NewKey(ratelimiter.ScopeIP, "203.0.113.7"), limit)

	require.Len(t, limiter.counters, 1)
	require.Contains(t, limiter.counters, ratelimiter.NewKey(ratelimiter.ScopeIP, "203.0.113.7").String())
}

func TestMemoryKeepsCurrentWindowOnSweep(t *testing.T) {
	now := time.Date(2020, 1, 1, 10, 0, 50, 0, time.UTC)
	limiter := NewMemory(func() time.Time { return now })
	short := ratelimiter.Limit{Value: 1, Window: time.Minute}
	long := ratelimiter.Limit{Value: 1, Window: time.Hour}
	key := ratelimiter.NewKey(ratelimiter.ScopeEmail, "alice@example.com")
	ctx := context.Background()

	ip := ratelimiter.NewKey(ratelimiter.ScopeIP, "203.0.113.7")

	limiter.CheckLimit(ctx, ip, short)
	require.True(t, limiter.CheckLimit(ctx, key, long).IsAllowed)

	now = now.Add(2 * time.Minute)
	limiter.CheckLimit(ctx, ratelimiter.NewKey(ratelimiter.ScopeIP, "198.51.100.1"), short)

	require.NotContains(t, limiter.counters, ip.String())
	require.False(t, limiter.CheckLimit(ctx, key, long).IsAllowed)
}
