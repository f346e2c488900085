package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"network": {"address": "127.0.0.1", "port": 9000},
		"database": {"dsn": "duckdb://", "retry_delay": "10ms"},
		"auth": {"jwt_secret": "from-file", "token_ttl": "1h"}
	}`), 0o600))

	t.Setenv("DATAROOM_PORT", "9100")
	t.Setenv("DATAROOM_JWT_SECRET", "from-env")
	t.Setenv("EMAIL_USER", "mailer@example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Network.Address)
	assert.Equal(t, 9100, cfg.Network.Port)
	assert.Equal(t, "duckdb://", cfg.Database.DSN)
	assert.Equal(t, 10*time.Millisecond, cfg.Database.RetryDelay.Std())
	assert.Equal(t, 5, cfg.Database.MaxAttempts)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL.Std())
	assert.Equal(t, "mailer@example.com", cfg.Mail.User)
	assert.Equal(t, "mailer@example.com", cfg.Mail.From)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATAROOM_JWT_SECRET", "s")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Network.Port)
	assert.Equal(t, "INR", cfg.Payments.Currency)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("DATAROOM_JWT_SECRET", "")
	_, err := Load("")
	require.Error(t, err)
}

func TestSeedFromEnv(t *testing.T) {
	t.Setenv("DATAROOM_JWT_SECRET", "s")
	t.Setenv("DATAROOM_ADMIN_EMAIL", "root@room.io")
	t.Setenv("DATAROOM_ADMIN_PASSWORD", "secret1")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "root@room.io", cfg.Seed.AdminEmail)
	assert.Equal(t, "secret1", cfg.Seed.AdminPassword)
	assert.Zero(t, cfg.Seed.DemoFolders)
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("DATAROOM_JWT_SECRET", "s")
	t.Setenv("DATAROOM_DB_MAX_ATTEMPTS", "many")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Database.MaxAttempts)
}
