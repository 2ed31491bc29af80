package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{
		"PORT", "DATABASE_URL", "AUTO_MIGRATE", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
		"DB_CONN_MAX_LIFETIME_SECONDS", "DB_CONN_MAX_IDLE_SECONDS", "MAX_PLAYERS_PER_ROOM",
		"ROOM_CODE_LENGTH", "DEFAULT_LANGUAGE", "TIMER_TICK_MILLIS", "ALLOWED_ORIGINS",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RATE_LIMIT_PER_SECOND", "RATE_LIMIT_BURST",
		"EVENT_BUFFER", "LOG_LEVEL", "ENVIRONMENT",
	} {
		t.Setenv(name, "")
	}
	cfg := Load()
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, time.Second, cfg.TimerTick())
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/photoclash")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("MAX_PLAYERS_PER_ROOM", "4")
	t.Setenv("ROOM_CODE_LENGTH", "-1")
	t.Setenv("DEFAULT_LANGUAGE", " EN ")
	t.Setenv("TIMER_TICK_MILLIS", "250")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://localhost/photoclash", cfg.DatabaseURL)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 4, cfg.MaxPlayersPerRoom)
	assert.Equal(t, 6, cfg.RoomCodeLength)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, 250*time.Millisecond, cfg.TimerTick())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 2.5, cfg.RateLimitPerSecond)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PHOTOCLASH_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("PHOTOCLASH_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("PHOTOCLASH_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("PHOTOCLASH_TEST_VALUE"))
}
