// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration shared by cmd/server, cmd/worker and cmd/seed.
type Config struct {
	DatabaseURL        string
	Env                string
	Port               string
	LogLevel           string
	DBMaxConns         int32
	DBStatementTimeout time.Duration
	OutboxPollInterval time.Duration
	AuditRetention     time.Duration
	IdempotencyTTL     time.Duration
	GinMode            string
	CORSOrigins        []string
}

// Development reports whether the process runs in development mode.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads an optional .env file, then the environment.
// DATABASE_URL is required; every other variable has a default.
func Load(files ...string) (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load(files...)
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		DatabaseURL: env("DATABASE_URL", ""),
		Env:         env("APP_ENV", "development"),
		Port:        env("APP_PORT", "8080"),
		LogLevel:    env("LOG_LEVEL", "info"),
		GinMode:     env("GIN_MODE", "release"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variable DATABASE_URL not set")
	}
	if origins := env("CORS_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	maxConns, err := strconv.ParseInt(env("DB_MAX_CONNS", "10"), 10, 32)
	if err != nil || maxConns <= 0 {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS %q", getenv("DB_MAX_CONNS"))
	}
	cfg.DBMaxConns = int32(maxConns)

	for _, d := range []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"DB_STATEMENT_TIMEOUT", "30s", &cfg.DBStatementTimeout},
		{"OUTBOX_POLL_INTERVAL", "5s", &cfg.OutboxPollInterval},
		{"AUDIT_RETENTION", "2160h", &cfg.AuditRetention},
		{"IDEMPOTENCY_TTL", "24h", &cfg.IdempotencyTTL},
	} {
		v, err := time.ParseDuration(env(d.key, d.def))
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid %s %q", d.key, getenv(d.key))
		}
		*d.dst = v
	}

	return cfg, nil
}
