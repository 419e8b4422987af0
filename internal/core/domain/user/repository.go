package user

import (
	"context"
	c "recoverme/internal/core/domain/common"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email c.Email) (User, error)
	// GetByIDForUpdate locks the user row until the surrounding unit of work ends.
	GetByIDForUpdate(ctx context.Context, id ID) (User, error)
	SetPassword(ctx context.Context, id ID, password PasswordHash) error
}
