package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// Values come from env (optionally seeded by a local .env file).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env  string `env:"APP_ENV" envDefault:"local"`
	Port int    `env:"PORT" envDefault:"5000"`

	// CORSOrigins is a comma separated allow-list; "*" allows any origin.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// AuthConfig carries the process-wide signing secret.
// The token lifetime is not configurable.
type AuthConfig struct {
	JWTSecret   string `env:"ACCESS_TOKEN_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER"`
	JWTAudience string `env:"JWT_AUDIENCE"`
}

type MongoConfig struct {
	URL             string        `env:"MONGODB_URL"`
	Database        string        `env:"MONGODB_DATABASE" envDefault:"houseHunter"`
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"`
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`
}

// RedisConfig is optional. An empty URL disables the issuance rate limiter.
type RedisConfig struct {
	URL string `env:"REDIS_URL"`
}

type RateLimitConfig struct {
	// Limit is the number of POST /jwt calls allowed per client IP per Window.
	Limit  int           `env:"JWT_RATE_LIMIT" envDefault:"30"`
	Window time.Duration `env:"JWT_RATE_WINDOW" envDefault:"1m"`
}

func Load() (Config, error) {
	// The .env file is optional; a missing file is not an error.
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port, got %d", c.App.Port))
	}

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, ErrMissingSecret)
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if strings.TrimSpace(c.Mongo.URL) == "" {
		errs = append(errs, errors.New("MONGODB_URL is required"))
	}
	if c.Mongo.Database == "" {
		errs = append(errs, errors.New("MONGODB_DATABASE is required"))
	}
	if c.Mongo.RetryAttempts <= 0 {
		errs = append(errs, fmt.Errorf("MONGODB_RETRY_ATTEMPTS must be > 0, got %d", c.Mongo.RetryAttempts))
	}

	if c.RateLimitEnabled() {
		if c.RateLimit.Limit <= 0 {
			errs = append(errs, fmt.Errorf("JWT_RATE_LIMIT must be > 0, got %d", c.RateLimit.Limit))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, fmt.Errorf("JWT_RATE_WINDOW must be > 0, got %s", c.RateLimit.Window))
		}
	}

	return joinErrors(errs)
}

// ErrMissingSecret is the fatal startup condition: the process must not serve without it.
var ErrMissingSecret = errors.New("ACCESS_TOKEN_SECRET is required")

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) RateLimitEnabled() bool {
	return strings.TrimSpace(c.Redis.URL) != ""
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return &multiError{msg: strings.TrimSpace(b.String()), errs: errs}
}

// multiError keeps the individual causes reachable through errors.Is.
type multiError struct {
	msg  string
	errs []error
}

func (m *multiError) Error() string   { return m.msg }
func (m *multiError) Unwrap() []error { return m.errs }
