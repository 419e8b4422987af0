package uow

import (
	"context"
	"fmt"
	e "recoverme/internal/core/domain/errors"
	resettoken "recoverme/internal/core/domain/reset_token"
	uow "recoverme/internal/core/domain/unit_of_work"
	"recoverme/internal/core/domain/user"
	dbresettoken "recoverme/internal/db/reset_token"
	dbuser "recoverme/internal/db/user"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type pgxUnitOfWorkContext struct {
	tx pgx.Tx
}

func newPgxUnitOfWorkContext(tx pgx.Tx) *pgxUnitOfWorkContext {
	return &pgxUnitOfWorkContext{
		tx: tx,
	}
}

func (c *pgxUnitOfWorkContext) Commit(ctx context.Context) error {
	return c.tx.Commit(ctx)
}

func (c *pgxUnitOfWorkContext) Rollback(ctx context.Context) error {
	return c.tx.Rollback(ctx)
}

func (c *pgxUnitOfWorkContext) Users() user.UserRepository {
	return dbuser.NewPgxRepository(c.tx)
}

func (c *pgxUnitOfWorkContext) ResetTokens() resettoken.Repository {
	return dbresettoken.NewPgxRepository(c.tx)
}

// Timeouts bound every statement and lock wait of a unit of work. Zero
// keeps the server default.
type Timeouts struct {
	Statement time.Duration
	Lock      time.Duration
}

type PgxUnitOfWork struct {
	db       *pgxpool.Pool
	timeouts Timeouts
}

func NewPgxUnitOfWork(db *pgxpool.Pool, timeouts Timeouts) *PgxUnitOfWork {
	if db == nil {
		panic(e.NewNilArgumentError("db"))
	}
	return &PgxUnitOfWork{db: db, timeouts: timeouts}
}

func (u *PgxUnitOfWork) Begin(ctx context.Context) (uow.Context, error) {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if err := u.setTimeouts(ctx, tx); err != nil {
		tx.Rollback(ctx)
		return nil, err
	}
	return newPgxUnitOfWorkContext(tx), nil
}

func (u *PgxUnitOfWork) setTimeouts(ctx context.Context, tx pgx.Tx) error {
	settings := []struct {
		name  string
		value time.Duration
	}{
		{"statement_timeout", u.timeouts.Statement},
		{"lock_timeout", u.timeouts.Lock},
	}
	for _, s := range settings {
		if s.value <= 0 {
			continue
		}
		_, err := tx.Exec(ctx, "SELECT set_config($1, $2, true)", s.name, fmt.Sprintf("%dms", s.value.Milliseconds()))
		if err != nil {
			return fmt.Errorf("could not set %s: %w", s.name, err)
		}
	}
	return nil
}
