package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(mapEnv(map[string]string{"DATABASE_URL": "postgres://localhost/ayanna"}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.Development())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, 30*time.Second, cfg.DBStatementTimeout)
	assert.Equal(t, 5*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 90*24*time.Hour, cfg.AuditRetention)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(mapEnv(map[string]string{
		"DATABASE_URL":         "postgres://db/ayanna",
		"APP_ENV":              "production",
		"DB_MAX_CONNS":         "25",
		"OUTBOX_POLL_INTERVAL": "1m",
		"CORS_ORIGINS":         "http://a.local, ,http://b.local",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.Development())
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, time.Minute, cfg.OutboxPollInterval)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORSOrigins)
}

func TestFromEnv_Invalid(t *testing.T) {
	_, err := FromEnv(mapEnv(nil))
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, err = FromEnv(mapEnv(map[string]string{"DATABASE_URL": "x", "DB_MAX_CONNS": "zero"}))
	assert.ErrorContains(t, err, "DB_MAX_CONNS")

	_, err = FromEnv(mapEnv(map[string]string{"DATABASE_URL": "x", "AUDIT_RETENTION": "forever"}))
	assert.ErrorContains(t, err, "AUDIT_RETENTION")
}
