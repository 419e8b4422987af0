package resetpassword

import (
	"context"
	"errors"
	"recoverme/internal/core/domain/audit"
	e "recoverme/internal/core/domain/errors"
	"recoverme/internal/core/domain/logging"
	ratelimiter "recoverme/internal/core/domain/rate_limiter"
	resettoken "recoverme/internal/core/domain/reset_token"
	uow "recoverme/internal/core/domain/unit_of_work"
	"recoverme/internal/core/domain/user"
	"recoverme/internal/core/services"
	"time"
)

type Input struct {
	Token       resettoken.RawToken
	NewPassword user.RawPassword
	ClientIP    string
}

func (i Input) GetRateLimitKey() ratelimiter.Key {
	return ratelimiter.NewKey(ratelimiter.ScopeConfirm, i.ClientIP)
}

type Result struct {
	Message string
}

type service struct {
	log            logging.Logger
	auditLog       audit.Log
	unitOfWork     uow.UnitOfWork
	generator      resettoken.Generator
	passwordHasher user.PasswordHasher
	now            func() time.Time
}

func New(
	log logging.Logger,
	auditLog audit.Log,
	unitOfWork uow.UnitOfWork,
	generator resettoken.Generator,
	passwordHasher user.PasswordHasher,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if auditLog == nil {
		panic(e.NewNilArgumentError("auditLog"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if generator == nil {
		panic(e.NewNilArgumentError("generator"))
	}
	if passwordHasher == nil {
		panic(e.NewNilArgumentError("passwordHasher"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:            log,
		auditLog:       auditLog,
		unitOfWork:     unitOfWork,
		generator:      generator,
		passwordHasher: passwordHasher,
		now:            now,
	}
}

// Run returns resettoken.ErrInvalidToken for a missing, consumed, superseded
// or expired token alike, and resettoken.ErrResetFailed for storage errors.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if err := user.ValidatePassword(input.NewPassword); err != nil {
		s.record(ctx, input, audit.WeakPassword)
		return result, err
	}

	// Hashed before the lookup so that every token outcome costs the same.
	newPasswordHash, err := s.passwordHasher.HashPassword(input.NewPassword)
	if err != nil {
		s.log.Error(ctx, "Could not hash new password.", logging.Entry("err", err))
		s.record(ctx, input, audit.StorageFailed)
		return result, resettoken.ErrResetFailed
	}

	err = s.reset(ctx, s.generator.Hash(input.Token), newPasswordHash)
	if errors.Is(err, resettoken.ErrInvalidToken) {
		s.log.Info(ctx, "Password reset rejected, token is not usable.", logging.Entry("ip", input.ClientIP))
		s.record(ctx, input, audit.InvalidToken)
		return result, err
	}
	if err != nil {
		s.log.Error(
			ctx,
			"Could not reset password.",
			logging.Entry("ip", input.ClientIP),
			logging.Entry("err", err),
		)
		s.record(ctx, input, audit.StorageFailed)
		return result, resettoken.ErrResetFailed
	}

	s.record(ctx, input, audit.Consumed)
	return Result{Message: resettoken.ResetSucceededMessage}, nil
}

func (s *service) reset(ctx context.Context, hash resettoken.Hash, newPasswordHash user.PasswordHash) error {
	uow, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback(ctx)

	token, err := uow.ResetTokens().GetByHashForUpdate(ctx, hash)
	if errors.Is(err, resettoken.ErrTokenDoesNotExist) {
		return resettoken.ErrInvalidToken
	}
	if err != nil {
		return err
	}

	now := s.now()
	if !token.IsUsable(now) {
		return resettoken.ErrInvalidToken
	}

	err = uow.Users().SetPassword(ctx, token.OwnerID, newPasswordHash)
	if errors.Is(err, user.ErrUserDoesNotExist) {
		return resettoken.ErrInvalidToken
	}
	if err != nil {
		return err
	}

	err = uow.ResetTokens().Consume(ctx, token.ID, now)
	if errors.Is(err, resettoken.ErrTokenDoesNotExist) {
		return resettoken.ErrInvalidToken
	}
	if err != nil {
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	s.log.Info(
		ctx,
		"New password has been successfully set.",
		logging.Entry("userID", token.OwnerID),
		logging.Entry("tokenID", token.ID),
	)
	return nil
}

func (s *service) record(ctx context.Context, input Input, outcome audit.Outcome) {
	s.auditLog.Record(ctx, audit.Event{
		Type:       audit.ResetConfirmed,
		Scope:      string(ratelimiter.ScopeIP),
		ScopeKey:   input.ClientIP,
		Outcome:    outcome,
		OccurredAt: s.now(),
	})
}
