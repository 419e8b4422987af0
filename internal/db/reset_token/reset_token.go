package resettoken

import (
	"context"
	"errors"
	c "recoverme/internal/core/domain/common"
	e "recoverme/internal/core/domain/errors"
	resettoken "recoverme/internal/core/domain/reset_token"
	"recoverme/internal/core/domain/user"
	"recoverme/internal/db"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

type PgxResetTokenRepository struct {
	db db.DBTX
}

func NewPgxRepository(db db.DBTX) *PgxResetTokenRepository {
	if db == nil {
		panic(e.NewNilArgumentError("db"))
	}
	return &PgxResetTokenRepository{db: db}
}

const columns = `id, user_id, owner_email, token_hash, state, created_at, expires_at, consumed_at, superseded_at`

const createToken = `
INSERT INTO password_reset_token (id, user_id, owner_email, token_hash, state, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + columns

func (r *PgxResetTokenRepository) Create(ctx context.Context, input resettoken.CreateInput) (resettoken.Token, error) {
	row := r.db.QueryRow(
		ctx,
		createToken,
		encodeUUID(input.ID),
		int64(input.OwnerID),
		string(input.OwnerEmail),
		string(input.Hash),
		string(resettoken.Issued),
		input.CreatedAt,
		input.ExpiresAt,
	)
	return scanToken(row)
}

const supersedeIssued = `
UPDATE password_reset_token
SET state = $3, superseded_at = $2
WHERE user_id = $1 AND state = $4
`

func (r *PgxResetTokenRepository) SupersedeIssued(ctx context.Context, ownerID user.ID, at time.Time) (int64, error) {
	tag, err := r.db.Exec(
		ctx,
		supersedeIssued,
		int64(ownerID),
		at,
		string(resettoken.Superseded),
		string(resettoken.Issued),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const getByHashForUpdate = `
SELECT ` + columns + `
FROM password_reset_token
WHERE token_hash = $1
FOR UPDATE
`

func (r *PgxResetTokenRepository) GetByHashForUpdate(ctx context.Context, hash resettoken.Hash) (resettoken.Token, error) {
	return scanToken(r.db.QueryRow(ctx, getByHashForUpdate, string(hash)))
}

const consumeToken = `
UPDATE password_reset_token
SET state = $3, consumed_at = $2
WHERE id = $1 AND state = $4
`

// Consume only moves an issued token, zero affected rows means the token was
// consumed or superseded concurrently.
func (r *PgxResetTokenRepository) Consume(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(
		ctx,
		consumeToken,
		encodeUUID(id),
		at,
		string(resettoken.Consumed),
		string(resettoken.Issued),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return resettoken.ErrTokenDoesNotExist
	}
	return nil
}

const deleteExpiredBefore = `
DELETE FROM password_reset_token
WHERE expires_at < $1
`

func (r *PgxResetTokenRepository) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredBefore, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanToken(row pgx.Row) (t resettoken.Token, err error) {
	var (
		id           pgtype.UUID
		ownerID      int64
		ownerEmail   string
		hash         string
		state        string
		createdAt    time.Time
		expiresAt    time.Time
		consumedAt   pgtype.Timestamptz
		supersededAt pgtype.Timestamptz
	)
	err = row.Scan(&id, &ownerID, &ownerEmail, &hash, &state, &createdAt, &expiresAt, &consumedAt, &supersededAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, resettoken.ErrTokenDoesNotExist
	}
	if err != nil {
		return t, err
	}
	return resettoken.Token{
		ID:           uuid.UUID(id.Bytes),
		OwnerID:      user.ID(ownerID),
		OwnerEmail:   c.Email(ownerEmail),
		Hash:         resettoken.Hash(hash),
		State:        resettoken.State(state),
		CreatedAt:    createdAt.UTC(),
		ExpiresAt:    expiresAt.UTC(),
		ConsumedAt:   decodeOptionalTime(consumedAt),
		SupersededAt: decodeOptionalTime(supersededAt),
	}, nil
}

func encodeUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Status: pgtype.Present}
}

func decodeOptionalTime(at pgtype.Timestamptz) c.Optional[time.Time] {
	return c.NewOptional(at.Time.UTC(), at.Status == pgtype.Present)
}
