package ratelimiter

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type FakeRateLimiter struct {
	IsAllowed bool
	// NotAllowedScopes overrides IsAllowed for the listed scopes.
	NotAllowedScopes map[Scope]bool
	Checked          []Key
	lock             sync.Mutex
}

func NewFakeRateLimiter(isAllowed bool) *FakeRateLimiter {
	return &FakeRateLimiter{IsAllowed: isAllowed, NotAllowedScopes: make(map[Scope]bool)}
}

func (rl *FakeRateLimiter) CheckLimit(ctx context.Context, key Key, limit Limit) Result {
	rl.lock.Lock()
	defer rl.lock.Unlock()
	rl.Checked = append(rl.Checked, key)
	if rl.NotAllowedScopes[key.Scope] {
		return NotAllowed()
	}
	if rl.IsAllowed {
		return Allowed()
	}
	return NotAllowed()
}

func (rl *FakeRateLimiter) CheckedScopes() []Scope {
	rl.lock.Lock()
	defer rl.lock.Unlock()
	scopes := make([]Scope, 0, len(rl.Checked))
	for _, k := range rl.Checked {
		scopes = append(scopes, k.Scope)
	}
	return scopes
}

type FakeCounterPurger struct {
	Before      []time.Time
	Deleted     int64
	ReturnError bool
}

func (p *FakeCounterPurger) DeleteStaleBefore(ctx context.Context, before time.Time) (int64, error) {
	if p.ReturnError {
		return 0, fmt.Errorf("could not delete stale counters")
	}
	p.Before = append(p.Before, before)
	return p.Deleted, nil
}
