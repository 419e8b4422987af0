package ratelimitcounter

import (
	"context"
	"errors"
	e "recoverme/internal/core/domain/errors"
	"recoverme/internal/core/domain/logging"
	ratelimiter "recoverme/internal/core/domain/rate_limiter"
	"recoverme/internal/db"
	"time"
)

// PgxRateLimiter keeps fixed window counters in PostgreSQL for deployments
// without Redis.
type PgxRateLimiter struct {
	db  db.DBTX
	log logging.Logger
	now func() time.Time
}

func NewPgxRateLimiter(db db.DBTX, log logging.Logger, now func() time.Time) *PgxRateLimiter {
	if db == nil {
		panic(e.NewNilArgumentError("db"))
	}
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &PgxRateLimiter{db: db, log: log, now: now}
}

const incrementCounter = `
INSERT INTO rate_limit_counter (scope, scope_key, window_start, count)
VALUES ($1, $2, $3, 1)
ON CONFLICT (scope, scope_key, window_start)
DO UPDATE SET count = rate_limit_counter.count + 1
RETURNING count
`

func (r *PgxRateLimiter) CheckLimit(ctx context.Context, key ratelimiter.Key, limit ratelimiter.Limit) ratelimiter.Result {
	var count int64
	err := r.db.QueryRow(
		ctx,
		incrementCounter,
		string(key.Scope),
		key.Value,
		limit.WindowStart(r.now()),
	).Scan(&count)
	if errors.Is(err, context.Canceled) {
		return ratelimiter.NotAllowed()
	}
	if err != nil {
		r.log.Error(
			ctx,
			"Could not check rate limit due to database error.",
			logging.Entry("scope", key.Scope),
			logging.Entry("err", err),
		)
		return ratelimiter.Allowed()
	}
	if count > int64(limit.Value) {
		return ratelimiter.NotAllowed()
	}
	return ratelimiter.Allowed()
}

const deleteStaleCounters = `
DELETE FROM rate_limit_counter
WHERE window_start < $1
`

func (r *PgxRateLimiter) DeleteStaleBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteStaleCounters, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
