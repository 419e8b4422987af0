package user

import (
	"context"
	"errors"
	c "recoverme/internal/core/domain/common"
	e "recoverme/internal/core/domain/errors"
	"recoverme/internal/core/domain/user"
	"recoverme/internal/db"
	"time"

	"github.com/jackc/pgx/v4"
)

type PgxUserRepository struct {
	db db.DBTX
}

func NewPgxRepository(db db.DBTX) *PgxUserRepository {
	if db == nil {
		panic(e.NewNilArgumentError("db"))
	}
	return &PgxUserRepository{db: db}
}

const getUserByEmail = `
SELECT id, email, password_hash, created_at
FROM "user"
WHERE email = $1
`

func (r *PgxUserRepository) GetByEmail(ctx context.Context, email c.Email) (u user.User, err error) {
	return r.getOne(ctx, getUserByEmail, string(email))
}

const getUserByIDForUpdate = `
SELECT id, email, password_hash, created_at
FROM "user"
WHERE id = $1
FOR UPDATE
`

func (r *PgxUserRepository) GetByIDForUpdate(ctx context.Context, id user.ID) (u user.User, err error) {
	return r.getOne(ctx, getUserByIDForUpdate, int64(id))
}

const setUserPassword = `
UPDATE "user"
SET password_hash = $2
WHERE id = $1
`

func (r *PgxUserRepository) SetPassword(ctx context.Context, id user.ID, passwordHash user.PasswordHash) error {
	tag, err := r.db.Exec(ctx, setUserPassword, int64(id), string(passwordHash))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserDoesNotExist
	}
	return nil
}

func (r *PgxUserRepository) getOne(ctx context.Context, query string, arg interface{}) (u user.User, err error) {
	var (
		id           int64
		email        string
		passwordHash string
		createdAt    time.Time
	)
	err = r.db.QueryRow(ctx, query, arg).Scan(&id, &email, &passwordHash, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, user.ErrUserDoesNotExist
	}
	if err != nil {
		return u, err
	}
	u = user.User{
		ID:           user.ID(id),
		Email:        c.Email(email),
		PasswordHash: user.PasswordHash(passwordHash),
		CreatedAt:    createdAt.UTC(),
	}
	if err := u.Validate(); err != nil {
		return u, err
	}
	return u, nil
}
