package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 5000},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Mongo: MongoConfig{URL: "mongodb://localhost:27017", Database: "houseHunter", RetryAttempts: 3},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "MONGODB_URL")
}

func TestValidate_MissingSecretIsFatal(t *testing.T) {
	c := validConfig()
	c.Auth.JWTSecret = ""

	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSecret))

	c.Auth.JWTSecret = " \t "
	assert.ErrorIs(t, c.Validate(), ErrMissingSecret)
}

func TestValidate_ProductionRequiresIssuerAndAudience(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	require.Error(t, c.Validate())

	c.Auth.JWTIssuer = "house-hunter"
	c.Auth.JWTAudience = "house-hunter-web"
	require.NoError(t, c.Validate())
}

func TestValidate_RateLimitOnlyCheckedWhenRedisConfigured(t *testing.T) {
	c := validConfig()
	require.NoError(t, c.Validate())
	assert.False(t, c.RateLimitEnabled())

	c.Redis.URL = "redis://localhost:6379/0"
	require.Error(t, c.Validate())

	c.RateLimit = RateLimitConfig{Limit: 10, Window: time.Minute}
	require.NoError(t, c.Validate())
	assert.True(t, c.RateLimitEnabled())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("PORT", "8081")
	t.Setenv("ACCESS_TOKEN_SECRET", "s3cret")
	t.Setenv("MONGODB_URL", "mongodb://db:27017")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8081", c.HTTPAddr())
	assert.Equal(t, "s3cret", c.Auth.JWTSecret)
	assert.Equal(t, "houseHunter", c.Mongo.Database)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.App.CORSOrigins)
}

func TestLoad_FailsWithoutSecret(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("MONGODB_URL", "mongodb://db:27017")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSecret))
}
