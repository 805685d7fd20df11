package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 0, cfg.Retention.MaxAgeDays)
	assert.Equal(t, "@hourly", cfg.Retention.Schedule)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "5")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRATION_HOURS", "1")
	t.Setenv("TASK_RETENTION_DAYS", "30")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 1, cfg.JWT.ExpirationHours)
	assert.Equal(t, 30, cfg.Retention.MaxAgeDays)
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Load()
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "todo",
		Password: "pw",
		Database: "todo",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=todo password=pw dbname=todo sslmode=require",
		cfg.DSN())
}
