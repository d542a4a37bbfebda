package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: \"file::memory:\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, 30, cfg.Server.CacheTTLSeconds)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "warn", cfg.Database.LogLevel)
	assert.Equal(t, 1440, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Push.Enabled())
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Audit.Interval)
}

func TestLoad_AuditInterval(t *testing.T) {
	path := writeConfig(t, "audit:\n  enabled: true\n  interval: 90s\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Audit.Interval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: mysql
  dsn: "user:pass@tcp(localhost:3306)/hostel"
auth:
  jwt_secret: from-file
push:
  vapid_public_key: pub
  vapid_private_key: priv
`)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file:hostel.db")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "http://a.example, ,http://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:hostel.db", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Push.Enabled())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
