package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akimon658/twittra/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/twittra")
	t.Setenv("UPSTREAM_API_BASE_URL", "https://upstream.example.com")
	t.Setenv("UPSTREAM_CLIENT_ID", "client-id")
	t.Setenv("UPSTREAM_CLIENT_SECRET", "client-secret")
	t.Setenv("SESSION_TABLE_SCHEMA", "public")
	t.Setenv("SESSION_TABLE_NAME", "sessions")
}

func TestLoad_AllRequiredPresent(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/twittra", cfg.DatabaseURL)
	assert.Equal(t, "https://upstream.example.com", cfg.UpstreamAPIBaseURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.CrawlInterval)
}

func TestLoad_MissingRequiredKeyFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPSTREAM_CLIENT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_OptionalOverridesApply(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CRAWL_INTERVAL", "1m")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.CrawlInterval)
}
