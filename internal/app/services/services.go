package services

import (
	"recoverme/internal/app/deps"
	drl "recoverme/internal/core/domain/rate_limiter"
	"recoverme/internal/core/services"
	constantlatency "recoverme/internal/core/services/constant_latency"
	purgeresettokens "recoverme/internal/core/services/purge_reset_tokens"
	ratelimiting "recoverme/internal/core/services/rate_limiting"
	resetpassword "recoverme/internal/core/services/reset_password"
	sendpasswordresettoken "recoverme/internal/core/services/send_password_reset_token"
)

type Services struct {
	SendPasswordResetToken services.Service[sendpasswordresettoken.Input, sendpasswordresettoken.Result]
	ResetPassword          services.Service[resetpassword.Input, resetpassword.Result]
	PurgeResetTokens       services.Service[purgeresettokens.Input, purgeresettokens.Result]
}

func InitServices(deps *deps.Deps) *Services {
	window := deps.Config.RateLimitWindow
	// The confirm limit is applied outside the latency padding, a 429 does
	// not depend on the token and needs no padding.
	return &Services{
		SendPasswordResetToken: constantlatency.New(
			deps.Logger,
			deps.Config.RequestLatencyTarget,
			sendpasswordresettoken.New(
				deps.Logger,
				deps.AuditLog,
				deps.UnitOfWork,
				deps.UserRepository,
				deps.RateLimiter,
				sendpasswordresettoken.Limits{
					PerIP:    drl.Limit{Value: deps.Config.RateLimitPerIP, Window: window},
					PerEmail: drl.Limit{Value: deps.Config.RateLimitPerEmail, Window: window},
				},
				deps.TokenGenerator,
				deps.ResetLinkSender,
				deps.Config.PasswordResetTokenTTL,
				deps.Now,
			),
		),
		ResetPassword: ratelimiting.New(
			deps.Logger,
			deps.RateLimiter,
			drl.Limit{Value: deps.Config.RateLimitConfirmPerIP, Window: window},
			constantlatency.New(
				deps.Logger,
				deps.Config.ConfirmLatencyTarget,
				resetpassword.New(
					deps.Logger,
					deps.AuditLog,
					deps.UnitOfWork,
					deps.TokenGenerator,
					deps.PasswordHasher,
					deps.Now,
				),
			),
		),
		PurgeResetTokens: purgeresettokens.New(
			deps.Logger,
			deps.UnitOfWork,
			deps.CounterPurger,
			deps.Config.TokenRetentionDays,
			window,
			deps.Now,
		),
	}
}
