package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrRateLimitExceeded = errors.New("rate limit exceeded")

type Scope string

const (
	ScopeIP      Scope = "ip"
	ScopeEmail   Scope = "email"
	ScopeConfirm Scope = "confirm"
)

type Key struct {
	Scope Scope
	Value string
}

func NewKey(scope Scope, value string) Key {
	return Key{Scope: scope, Value: value}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Scope, k.Value)
}

// Limit allows at most Value events per Key within every fixed Window.
type Limit struct {
	Value  uint32
	Window time.Duration
}

// WindowStart returns the beginning of the fixed window containing at.
func (l Limit) WindowStart(at time.Time) time.Time {
	return at.Truncate(l.Window)
}

type Result struct {
	IsAllowed bool
}

func Allowed() Result {
	return Result{IsAllowed: true}
}

func NotAllowed() Result {
	return Result{IsAllowed: false}
}

type RateLimiter interface {
	CheckLimit(ctx context.Context, key Key, limit Limit) Result
}

// CounterPurger is implemented by backends that do not expire counters
// on their own.
type CounterPurger interface {
	DeleteStaleBefore(ctx context.Context, before time.Time) (int64, error)
}
