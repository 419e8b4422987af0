package resettoken

import (
	"context"
	c "recoverme/internal/core/domain/common"
	"recoverme/internal/core/domain/user"
	"time"

	"github.com/google/uuid"
)

type CreateInput struct {
	ID         uuid.UUID
	OwnerID    user.ID
	OwnerEmail c.Email
	Hash       Hash
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, input CreateInput) (Token, error)
	// SupersedeIssued moves every issued token of the owner to Superseded.
	SupersedeIssued(ctx context.Context, ownerID user.ID, at time.Time) (int64, error)
	// GetByHashForUpdate locks the token row until the surrounding unit of work ends.
	GetByHashForUpdate(ctx context.Context, hash Hash) (Token, error)
	// Consume moves an issued token to Consumed, ErrTokenDoesNotExist otherwise.
	Consume(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}

type Generator interface {
	Generate() (RawToken, Hash, error)
	Hash(token RawToken) Hash
}

type LinkSender interface {
	SendPasswordResetLink(ctx context.Context, to c.Email, token RawToken, expiresAt time.Time) error
}
