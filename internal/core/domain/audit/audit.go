package audit

import (
	"context"
	"time"
)

type EventType string

const (
	ResetRequested EventType = "reset_requested"
	ResetConfirmed EventType = "reset_confirmed"
)

type Outcome string

const (
	Issued         Outcome = "issued"
	UnknownOwner   Outcome = "unknown_owner"
	RateLimited    Outcome = "rate_limited"
	InvalidEmail   Outcome = "invalid_email"
	DispatchFailed Outcome = "dispatch_failed"
	StorageFailed  Outcome = "storage_failed"
	Consumed       Outcome = "consumed"
	InvalidToken   Outcome = "invalid_token"
	WeakPassword   Outcome = "weak_password"
)

// Event never carries a raw token or a password.
type Event struct {
	Type       EventType
	Scope      string
	ScopeKey   string
	Outcome    Outcome
	OccurredAt time.Time
}

type Log interface {
	Record(ctx context.Context, event Event)
}
