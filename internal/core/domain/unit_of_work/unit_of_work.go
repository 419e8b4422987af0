package uow

import (
	"context"
	resettoken "recoverme/internal/core/domain/reset_token"
	"recoverme/internal/core/domain/user"
)

type Context interface {
	Rollback(ctx context.Context) error
	Commit(ctx context.Context) error

	Users() user.UserRepository
	ResetTokens() resettoken.Repository
}

type UnitOfWork interface {
	Begin(ctx context.Context) (Context, error)
}
