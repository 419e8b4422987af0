package ratelimiter

import (
	"context"
	e "recoverme/internal/core/domain/errors"
	ratelimiter "recoverme/internal/core/domain/rate_limiter"
	"sync"
	"time"
)

type counter struct {
	windowStart time.Time
	windowEnd   time.Time
	count       uint32
}

// Memory keeps counters in process. It suits a single instance and tests,
// replicas do not share its counters.
type Memory struct {
	counters  map[string]*counter
	nextSweep time.Time
	now       func() time.Time
	lock      sync.Mutex
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &Memory{counters: make(map[string]*counter), now: now}
}

func (m *Memory) CheckLimit(ctx context.Context, key ratelimiter.Key, limit ratelimiter.Limit) ratelimiter.Result {
	now := m.now()
	windowStart := limit.WindowStart(now)
	k := key.String()

	m.lock.Lock()
	defer m.lock.Unlock()

	m.sweep(now, limit.Window)

	c, ok := m.counters[k]
	if !ok || !c.windowStart.Equal(windowStart) {
		c = &counter{windowStart: windowStart, windowEnd: windowStart.Add(limit.Window)}
		m.counters[k] = c
	}
	if c.count < limit.Value {
		c.count++
		return ratelimiter.Allowed()
	}
	return ratelimiter.NotAllowed()
}

// sweep drops counters of finished windows at most once per window, so keys
// that never come back do not accumulate.
func (m *Memory) sweep(now time.Time, window time.Duration) {
	if now.Before(m.nextSweep) {
		return
	}
	for k, c := range m.counters {
		if !now.Before(c.windowEnd) {
			delete(m.counters, k)
		}
	}
	m.nextSweep = now.Add(window)
}

// DeleteStaleBefore drops counters whose window started before the given time.
func (m *Memory) DeleteStaleBefore(ctx context.Context, before time.Time) (int64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	deleted := int64(0)
	for k, c := range m.counters {
		if c.windowStart.Before(before) {
			delete(m.counters, k)
			deleted++
		}
	}
	return deleted, nil
}
