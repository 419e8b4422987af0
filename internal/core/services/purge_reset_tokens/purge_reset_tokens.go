package purgeresettokens

import (
	"context"
	e "recoverme/internal/core/domain/errors"
	"recoverme/internal/core/domain/logging"
	ratelimiter "recoverme/internal/core/domain/rate_limiter"
	uow "recoverme/internal/core/domain/unit_of_work"
	"recoverme/internal/core/services"
	"time"

	"github.com/golang-module/carbon/v2"
)

type Input struct{}

type Result struct {
	DeletedTokens   int64
	DeletedCounters int64
}

type service struct {
	log           logging.Logger
	unitOfWork    uow.UnitOfWork
	counterPurger ratelimiter.CounterPurger
	retentionDays int
	counterMaxAge time.Duration
	now           func() time.Time
}

// New deletes tokens that expired more than retentionDays ago. counterPurger
// may be nil when the rate limiter backend expires its own counters.
func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	counterPurger ratelimiter.CounterPurger,
	retentionDays int,
	counterMaxAge time.Duration,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	if retentionDays < 1 {
		panic(e.NewInvalidArgumentError("retentionDays", "must be positive"))
	}
	return &service{
		log:           log,
		unitOfWork:    unitOfWork,
		counterPurger: counterPurger,
		retentionDays: retentionDays,
		counterMaxAge: counterMaxAge,
		now:           now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	now := s.now()
	before := carbon.Time2Carbon(now).SubDays(s.retentionDays).Carbon2Time()

	uow, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}
	defer uow.Rollback(ctx)

	deleted, err := uow.ResetTokens().DeleteExpiredBefore(ctx, before)
	if err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}
	if err := uow.Commit(ctx); err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}
	result.DeletedTokens = deleted

	if s.counterPurger != nil {
		deleted, err := s.counterPurger.DeleteStaleBefore(ctx, now.Add(-s.counterMaxAge))
		if err != nil {
			logging.Error(ctx, s.log, err)
			return result, err
		}
		result.DeletedCounters = deleted
	}

	s.log.Info(
		ctx,
		"Purged password reset data.",
		logging.Entry("tokensExpiredBefore", before),
		logging.Entry("deletedTokens", result.DeletedTokens),
		logging.Entry("deletedCounters", result.DeletedCounters),
	)
	return result, nil
}
