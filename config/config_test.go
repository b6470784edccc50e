package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:ABC")
	t.Setenv("TELEGRAM_CHANNEL_ID", "-1001234567890")
	t.Setenv("ISSUE_API_SECRET", "shh")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 48*time.Hour, cfg.InviteTTL)
	assert.Equal(t, 10*time.Second, cfg.EmitTimeout)
	assert.Equal(t, "https://api.telegram.org", cfg.TelegramAPIBase)
	assert.Equal(t, "telegram_channel_joined", cfg.EventJoinedName)
	assert.False(t, cfg.EngageEnabled())
	assert.Equal(t, "host=127.0.0.1 user=postgres password= dbname=invite_bridge port=5432 sslmode=disable", cfg.PostgresDSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", " Redis ")
	t.Setenv("INVITE_TTL", "0s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TELEGRAM_API_BASE", "http://localhost:8081/")
	t.Setenv("ENGAGE_BASE_URL", "https://engage.example/")
	t.Setenv("ENGAGE_ACCOUNT_ID", "acct")
	t.Setenv("ENGAGE_API_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Zero(t, cfg.InviteTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "http://localhost:8081", cfg.TelegramAPIBase)
	assert.Equal(t, "https://engage.example", cfg.EngageBaseURL)
	assert.True(t, cfg.EngageEnabled())
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHANNEL_ID", "")
	t.Setenv("ISSUE_API_SECRET", "")
	t.Setenv("STORE_BACKEND", "mongo")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"STORE_BACKEND", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHANNEL_ID", "ISSUE_API_SECRET"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("EMIT_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestValidate_Durations(t *testing.T) {
	cfg := Config{StoreBackend: BackendPostgres, TelegramBotToken: "t", TelegramChannelID: "c", IssueAPISecret: "s", EmitTimeout: time.Second}
	require.NoError(t, cfg.Validate())

	cfg.InviteTTL = -time.Hour
	assert.ErrorContains(t, cfg.Validate(), "INVITE_TTL")

	cfg.InviteTTL = 0
	cfg.EmitTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "EMIT_TIMEOUT")
}

func TestLoadEnv_FromFile(t *testing.T) {
	const key = "BRIDGE_CONFIG_TEST_VALUE"
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	LoadEnv(path)
	assert.Equal(t, "from-file", os.Getenv(key))

	// missing file only logs
	LoadEnv(filepath.Join(t.TempDir(), "absent.env"))
}
