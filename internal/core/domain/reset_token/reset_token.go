package resettoken

import (
	"net/url"
	c "recoverme/internal/core/domain/common"
	"recoverme/internal/core/domain/user"
	"time"

	"github.com/google/uuid"
)

const (
	GenericRequestMessage = "If an account exists for that address, a reset link has been sent."
	InvalidTokenMessage   = "Invalid or expired token."
	ResetFailedMessage    = "Could not reset password. Please try again later."
	ResetSucceededMessage = "Your password has been reset."
)

// RawToken is the secret sent to the owner. It is never stored.
type RawToken string

func (t RawToken) String() string {
	return "***"
}

// Hash is the deterministic digest of a RawToken used as the lookup key.
type Hash string

type State string

const (
	Issued     State = "issued"
	Consumed   State = "consumed"
	Superseded State = "superseded"
)

type Token struct {
	ID           uuid.UUID
	OwnerID      user.ID
	OwnerEmail   c.Email
	Hash         Hash
	State        State
	CreatedAt    time.Time
	ExpiresAt    time.Time
	ConsumedAt   c.Optional[time.Time]
	SupersededAt c.Optional[time.Time]
}

// IsExpired is evaluated lazily, expiry is never a stored state.
func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *Token) IsUsable(now time.Time) bool {
	return t.State == Issued && !t.IsExpired(now)
}

// Link appends the raw token to base as the "token" query parameter.
func Link(base url.URL, token RawToken) string {
	query := base.Query()
	query.Set("token", string(token))
	base.RawQuery = query.Encode()
	return base.String()
}
