package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	EmailBackendSES  = "ses"
	EmailBackendSMTP = "smtp"

	RateLimiterRedis    = "redis"
	RateLimiterPostgres = "postgres"
	RateLimiterMemory   = "memory"
)

type Config struct {
	Port           int      `env:"PORT" envDefault:"9090"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	// Only enable behind a proxy that overwrites X-Forwarded-For and X-Real-IP.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	Secret           string `env:"SECRET,required"`
	TokenSecret      string `env:"RESET_TOKEN_SECRET,required"`
	BcryptHasherCost int    `env:"BCRYPT_HASHER_COST" envDefault:"10"`

	PostgresqlURL      string        `env:"POSTGRESQL_URL,required"`
	DBStatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"5s"`
	DBLockTimeout      time.Duration `env:"DB_LOCK_TIMEOUT" envDefault:"3s"`
	RedisURL           string        `env:"REDIS_URL"`

	PasswordResetTokenTTL    time.Duration `env:"PASSWORD_RESET_TOKEN_TTL" envDefault:"30m"`
	PasswordResetBaseURL     url.URL       `env:"PASSWORD_RESET_BASE_URL,required"`
	RequestLatencyTarget     time.Duration `env:"REQUEST_LATENCY_TARGET" envDefault:"1s"`
	ConfirmLatencyTarget     time.Duration `env:"CONFIRM_LATENCY_TARGET" envDefault:"500ms"`
	RateLimiterBackend       string        `env:"RATE_LIMITER_BACKEND" envDefault:"redis"`
	RateLimitWindow          time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"5m"`
	RateLimitPerIP           uint32        `env:"RATE_LIMIT_PER_IP" envDefault:"5"`
	RateLimitPerEmail        uint32        `env:"RATE_LIMIT_PER_EMAIL" envDefault:"2"`
	RateLimitConfirmPerIP    uint32        `env:"RATE_LIMIT_CONFIRM_PER_IP" envDefault:"10"`
	TokenRetentionDays       int           `env:"TOKEN_RETENTION_DAYS" envDefault:"7"`
	JanitorPeriod            time.Duration `env:"JANITOR_PERIOD" envDefault:"1h"`
	MigrationsPath           string        `env:"MIGRATIONS_PATH" envDefault:"migrations"`
	ShutdownTimeout          time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"20s"`
	EmailBackend             string        `env:"EMAIL_BACKEND" envDefault:"ses"`
	AwsRegion                string        `env:"AWS_REGION"`
	AwsAccessKey             string        `env:"AWS_ACCESS_KEY"`
	AwsSecretKey             string        `env:"AWS_SECRET_KEY"`
	AwsEmailSender           string        `env:"AWS_EMAIL_SENDER"`
	AwsEmailPasswordTemplate string        `env:"AWS_EMAIL_PASSWORD_RESET_TEMPLATE"`
	SMTPHost                 string        `env:"SMTP_HOST"`
	SMTPPort                 int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername             string        `env:"SMTP_USERNAME"`
	SMTPPassword             string        `env:"SMTP_PASSWORD"`
	SMTPFrom                 string        `env:"SMTP_FROM"`
}

// Load reads the environment, after an optional .env file named by ENV_FILE
// (default ".env"). Variables already set take precedence over the file.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadEnvFile() error {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not load %s: %w", envFile, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.PasswordResetTokenTTL <= 0 {
		return fmt.Errorf("PASSWORD_RESET_TOKEN_TTL must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.JanitorPeriod <= 0 {
		return fmt.Errorf("JANITOR_PERIOD must be positive")
	}
	if c.TokenRetentionDays < 1 {
		return fmt.Errorf("TOKEN_RETENTION_DAYS must be positive")
	}
	switch c.RateLimiterBackend {
	case RateLimiterRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set for the redis rate limiter")
		}
	case RateLimiterPostgres, RateLimiterMemory:
	default:
		return fmt.Errorf("unknown RATE_LIMITER_BACKEND %q", c.RateLimiterBackend)
	}
	switch c.EmailBackend {
	case EmailBackendSES:
		if c.AwsRegion == "" || c.AwsEmailSender == "" || c.AwsEmailPasswordTemplate == "" {
			return fmt.Errorf("AWS_REGION, AWS_EMAIL_SENDER and AWS_EMAIL_PASSWORD_RESET_TEMPLATE must be set for the ses email backend")
		}
	case EmailBackendSMTP:
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			return fmt.Errorf("SMTP_HOST and SMTP_FROM must be set for the smtp email backend")
		}
	default:
		return fmt.Errorf("unknown EMAIL_BACKEND %q", c.EmailBackend)
	}
	return nil
}

// DatabaseConfig is the subset needed by tools that only talk to PostgreSQL.
type DatabaseConfig struct {
	PostgresqlURL  string `env:"POSTGRESQL_URL,required"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"migrations"`
}

func LoadDatabase() (*DatabaseConfig, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}
	config := &DatabaseConfig{}
	if err := env.Parse(config); err != nil {
		return nil, err
	}
	return config, nil
}
