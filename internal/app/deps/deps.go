package deps

import (
	"context"
	"recoverme/internal/config"
	"recoverme/internal/core/domain/audit"
	dl "recoverme/internal/core/domain/logging"
	drl "recoverme/internal/core/domain/rate_limiter"
	resettoken "recoverme/internal/core/domain/reset_token"
	duow "recoverme/internal/core/domain/unit_of_work"
	"recoverme/internal/core/domain/user"
	dbaudit "recoverme/internal/db/audit"
	ratelimitcounter "recoverme/internal/db/rate_limit_counter"
	uow "recoverme/internal/db/unit_of_work"
	dbuser "recoverme/internal/db/user"
	"recoverme/internal/implementations/email"
	"recoverme/internal/implementations/logging"
	passwordhasher "recoverme/internal/implementations/password_hasher"
	ratelimiter "recoverme/internal/implementations/rate_limiter"
	resettokengenerator "recoverme/internal/implementations/reset_token_generator"
	"recoverme/internal/implementations/smtp"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/go-redis/redis/v9"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Deps struct {
	Config *config.Config
	Logger dl.Logger

	DB    *pgxpool.Pool
	Redis *redis.Client

	Now func() time.Time

	UnitOfWork     duow.UnitOfWork
	UserRepository user.UserRepository
	AuditLog       audit.Log

	RateLimiter drl.RateLimiter
	// CounterPurger is nil when the rate limiter expires its own counters.
	CounterPurger drl.CounterPurger

	PasswordHasher  user.PasswordHasher
	TokenGenerator  resettoken.Generator
	ResetLinkSender resettoken.LinkSender
}

func InitDeps() (*Deps, func()) {
	deps := &Deps{}

	deps.initConfig()

	closeLogger := deps.initLogger()
	closePgxPool := deps.initPgxPool()

	deps.Now = func() time.Time { return time.Now().UTC() }

	deps.UnitOfWork = uow.NewPgxUnitOfWork(deps.DB, uow.Timeouts{
		Statement: deps.Config.DBStatementTimeout,
		Lock:      deps.Config.DBLockTimeout,
	})
	deps.UserRepository = dbuser.NewPgxRepository(deps.DB)
	deps.AuditLog = dbaudit.NewPgxAuditLog(deps.DB, deps.Logger)

	closeRateLimiter := deps.initRateLimiter()

	deps.PasswordHasher = passwordhasher.NewBcrypt(deps.Config.Secret, deps.Config.BcryptHasherCost)
	deps.TokenGenerator = resettokengenerator.NewHMAC(deps.Config.TokenSecret)
	deps.ResetLinkSender = deps.initResetLinkSender()

	return deps, func() {
		closeFuncs := []func(){
			closeRateLimiter,
			closePgxPool,
		}

		var wg sync.WaitGroup
		wg.Add(len(closeFuncs))
		for _, closeFunc := range closeFuncs {
			closeFunc := closeFunc
			go func() {
				closeFunc()
				wg.Done()
			}()
		}

		wg.Wait()
		closeLogger()
	}
}

func (deps *Deps) initConfig() {
	config, err := config.Load()
	if err != nil {
		panic(err)
	}
	deps.Config = config
}

func (deps *Deps) initLogger() func() {
	logger := logging.NewZapLogger()
	deps.Logger = logger
	return func() { logger.Sync() }
}

func (deps *Deps) initPgxPool() func() {
	db, err := pgxpool.Connect(context.Background(), deps.Config.PostgresqlURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to DB.", dl.Entry("err", err))
		panic(err)
	}
	deps.DB = db
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down DB connection.")
		db.Close()
		deps.Logger.Info(context.Background(), "DB connection shut down.")
	}
}

func (deps *Deps) initRateLimiter() func() {
	switch deps.Config.RateLimiterBackend {
	case config.RateLimiterPostgres:
		limiter := ratelimitcounter.NewPgxRateLimiter(deps.DB, deps.Logger, deps.Now)
		deps.RateLimiter = limiter
		deps.CounterPurger = limiter
		return func() {}
	case config.RateLimiterMemory:
		limiter := ratelimiter.NewMemory(deps.Now)
		deps.RateLimiter = limiter
		deps.CounterPurger = limiter
		return func() {}
	}

	redisOpt, err := redis.ParseURL(deps.Config.RedisURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to Redis.", dl.Entry("err", err))
		panic(err)
	}
	redisClient := redis.NewClient(redisOpt)
	deps.Redis = redisClient
	deps.RateLimiter = ratelimiter.NewRedis(redisClient, deps.Logger, deps.Now)
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down Redis client.")
		redisClient.Close()
		deps.Logger.Info(context.Background(), "Redis client shut down.")
	}
}

func (deps *Deps) initResetLinkSender() resettoken.LinkSender {
	if deps.Config.EmailBackend == config.EmailBackendSMTP {
		return smtp.NewEmailSender(
			smtp.Config{
				Host:     deps.Config.SMTPHost,
				Port:     deps.Config.SMTPPort,
				Username: deps.Config.SMTPUsername,
				Password: deps.Config.SMTPPassword,
				From:     deps.Config.SMTPFrom,
			},
			deps.Config.PasswordResetBaseURL,
		)
	}

	return email.NewEmailSender(
		deps.initAwsConfig(),
		deps.Config.AwsEmailSender,
		deps.Config.AwsEmailPasswordTemplate,
		deps.Config.PasswordResetBaseURL,
	)
}

func (deps *Deps) initAwsConfig() aws.Config {
	cfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithRegion(deps.Config.AwsRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				deps.Config.AwsAccessKey,
				deps.Config.AwsSecretKey,
				"",
			),
		),
		awsConfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(
				retry.AddWithMaxBackoffDelay(retry.NewStandard(), time.Second*5),
				3,
			)
		}),
	)
	if err != nil {
		panic(err)
	}
	return cfg
}
