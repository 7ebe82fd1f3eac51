package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/billing")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "INR", cfg.DefaultCurrency)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadRequiredVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/billing")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestGetDuration(t *testing.T) {
	t.Setenv("SOME_TTL", "90s")
	assert.Equal(t, 90*time.Second, getDuration("SOME_TTL", time.Minute))

	t.Setenv("SOME_TTL", "45")
	assert.Equal(t, 45*time.Second, getDuration("SOME_TTL", time.Minute), "bare integers read as seconds")

	t.Setenv("SOME_TTL", "bogus")
	assert.Equal(t, time.Minute, getDuration("SOME_TTL", time.Minute))

	t.Setenv("SOME_TTL", "")
	assert.Equal(t, time.Minute, getDuration("SOME_TTL", time.Minute))
}
