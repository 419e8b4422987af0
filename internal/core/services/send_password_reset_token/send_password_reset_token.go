package sendpasswordresettoken

import (
	"context"
	"errors"
	"recoverme/internal/core/domain/audit"
	c "recoverme/internal/core/domain/common"
	e "recoverme/internal/core/domain/errors"
	"recoverme/internal/core/domain/logging"
	ratelimiter "recoverme/internal/core/domain/rate_limiter"
	resettoken "recoverme/internal/core/domain/reset_token"
	uow "recoverme/internal/core/domain/unit_of_work"
	"recoverme/internal/core/domain/user"
	"recoverme/internal/core/services"
	"time"

	"github.com/google/uuid"
)

type Input struct {
	Email    c.Email
	ClientIP string
}

type Result struct {
	Message string
}

type Limits struct {
	PerIP    ratelimiter.Limit
	PerEmail ratelimiter.Limit
}

type service struct {
	log            logging.Logger
	auditLog       audit.Log
	unitOfWork     uow.UnitOfWork
	userRepository user.UserRepository
	rateLimiter    ratelimiter.RateLimiter
	limits         Limits
	generator      resettoken.Generator
	sender         resettoken.LinkSender
	tokenTTL       time.Duration
	now            func() time.Time
}

func New(
	log logging.Logger,
	auditLog audit.Log,
	unitOfWork uow.UnitOfWork,
	userRepository user.UserRepository,
	rateLimiter ratelimiter.RateLimiter,
	limits Limits,
	generator resettoken.Generator,
	sender resettoken.LinkSender,
	tokenTTL time.Duration,
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
	if userRepository == nil {
		panic(e.NewNilArgumentError("userRepository"))
	}
	if rateLimiter == nil {
		panic(e.NewNilArgumentError("rateLimiter"))
	}
	if generator == nil {
		panic(e.NewNilArgumentError("generator"))
	}
	if sender == nil {
		panic(e.NewNilArgumentError("sender"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	if tokenTTL <= 0 {
		panic(e.NewInvalidArgumentError("tokenTTL", "must be positive"))
	}
	return &service{
		log:            log,
		auditLog:       auditLog,
		unitOfWork:     unitOfWork,
		userRepository: userRepository,
		rateLimiter:    rateLimiter,
		limits:         limits,
		generator:      generator,
		sender:         sender,
		tokenTTL:       tokenTTL,
		now:            now,
	}
}

// Run returns the same Result for every outcome except a malformed email.
// Whether the owner exists, was rate limited or got an email is only
// visible in logs and the audit trail.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if err := user.ValidateEmail(string(input.Email)); err != nil {
		s.record(ctx, ratelimiter.ScopeIP, input.ClientIP, audit.InvalidEmail)
		return result, err
	}
	result = Result{Message: resettoken.GenericRequestMessage}

	// Both limits are always checked so both counters advance.
	isAllowedByIP := s.rateLimiter.CheckLimit(
		ctx,
		ratelimiter.NewKey(ratelimiter.ScopeIP, input.ClientIP),
		s.limits.PerIP,
	).IsAllowed
	isAllowedByEmail := s.rateLimiter.CheckLimit(
		ctx,
		ratelimiter.NewKey(ratelimiter.ScopeEmail, string(input.Email)),
		s.limits.PerEmail,
	).IsAllowed

	u, err := s.userRepository.GetByEmail(ctx, input.Email)
	if errors.Is(err, user.ErrUserDoesNotExist) {
		s.log.Info(ctx, "Password reset requested for unknown email.", logging.Entry("ip", input.ClientIP))
		s.record(ctx, ratelimiter.ScopeEmail, string(input.Email), audit.UnknownOwner)
		return result, nil
	}
	if err != nil {
		s.log.Error(
			ctx,
			"Could not get user for password reset.",
			logging.Entry("ip", input.ClientIP),
			logging.Entry("err", err),
		)
		s.record(ctx, ratelimiter.ScopeEmail, string(input.Email), audit.StorageFailed)
		return result, nil
	}

	if !isAllowedByIP || !isAllowedByEmail {
		s.log.Warning(
			ctx,
			"Password reset rate limit exceeded.",
			logging.Entry("userID", u.ID),
			logging.Entry("ip", input.ClientIP),
			logging.Entry("allowedByIP", isAllowedByIP),
			logging.Entry("allowedByEmail", isAllowedByEmail),
		)
		if !isAllowedByIP {
			s.record(ctx, ratelimiter.ScopeIP, input.ClientIP, audit.RateLimited)
		} else {
			s.record(ctx, ratelimiter.ScopeEmail, string(input.Email), audit.RateLimited)
		}
		return result, nil
	}

	rawToken, token, err := s.issue(ctx, u)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not issue password reset token.",
			logging.Entry("userID", u.ID),
			logging.Entry("err", err),
		)
		s.record(ctx, ratelimiter.ScopeEmail, string(u.Email), audit.StorageFailed)
		return result, nil
	}

	err = s.sender.SendPasswordResetLink(ctx, u.Email, rawToken, token.ExpiresAt)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not send password reset link.",
			logging.Entry("userID", u.ID),
			logging.Entry("tokenID", token.ID),
			logging.Entry("err", err),
		)
		s.record(ctx, ratelimiter.ScopeEmail, string(u.Email), audit.DispatchFailed)
		return result, nil
	}

	s.log.Info(
		ctx,
		"Password reset link has been sent.",
		logging.Entry("userID", u.ID),
		logging.Entry("tokenID", token.ID),
		logging.Entry("expiresAt", token.ExpiresAt),
	)
	s.record(ctx, ratelimiter.ScopeEmail, string(u.Email), audit.Issued)
	return result, nil
}

// issue supersedes the owner's issued tokens and stores a new one in a single
// unit of work. The owner row lock serializes concurrent requests for the
// same owner.
func (s *service) issue(ctx context.Context, u user.User) (
	rawToken resettoken.RawToken,
	token resettoken.Token,
	err error,
) {
	rawToken, hash, err := s.generator.Generate()
	if err != nil {
		return rawToken, token, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return rawToken, token, errors.Join(resettoken.ErrEntropyUnavailable, err)
	}

	uow, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		return rawToken, token, err
	}
	defer uow.Rollback(ctx)

	if _, err := uow.Users().GetByIDForUpdate(ctx, u.ID); err != nil {
		return rawToken, token, err
	}

	now := s.now()
	superseded, err := uow.ResetTokens().SupersedeIssued(ctx, u.ID, now)
	if err != nil {
		return rawToken, token, err
	}

	token, err = uow.ResetTokens().Create(ctx, resettoken.CreateInput{
		ID:         id,
		OwnerID:    u.ID,
		OwnerEmail: u.Email,
		Hash:       hash,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.tokenTTL),
	})
	if err != nil {
		return rawToken, token, err
	}

	if err := uow.Commit(ctx); err != nil {
		return rawToken, token, err
	}
	if superseded > 0 {
		s.log.Info(
			ctx,
			"Previous password reset tokens have been superseded.",
			logging.Entry("userID", u.ID),
			logging.Entry("count", superseded),
		)
	}
	return rawToken, token, nil
}

func (s *service) record(ctx context.Context, scope ratelimiter.Scope, key string, outcome audit.Outcome) {
	s.auditLog.Record(ctx, audit.Event{
		Type:       audit.ResetRequested,
		Scope:      string(scope),
		ScopeKey:   key,
		Outcome:    outcome,
		OccurredAt: s.now(),
	})
}
