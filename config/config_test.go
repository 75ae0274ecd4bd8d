package config_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/dwella/rent-engine/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"DWELLA_ADDR", "DWELLA_DB", "TOKEN_TTL", "JWT_SIGNING_KEY", "ALLOW_SIGNUP", "LOG_LEVEL", "METER_REPAIR_CRON", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := config.FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "dwella.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.AllowSignUp)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MeterRepairCron)
	assert.NotEmpty(t, cfg.JWTSigningKey)
	assert.Equal(t, config.DefaultCORSOrigins, cfg.CORSOrigins)
	assert.Empty(t, cfg.Warnings)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DWELLA_ADDR", ":9090")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("ALLOW_SIGNUP", "false")
	t.Setenv("METER_REPAIR_CRON", " 0 3 * * * ")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg := config.FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.False(t, cfg.AllowSignUp)
	assert.Equal(t, "0 3 * * *", cfg.MeterRepairCron)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}

func TestFromEnv_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("TOKEN_TTL", "forever")
	t.Setenv("ALLOW_SIGNUP", "maybe")

	cfg := config.FromEnv()

	assert.Equal(t, config.DefaultTokenTTL, cfg.TokenTTL)
	assert.True(t, cfg.AllowSignUp)
	assert.Equal(t, []string{
		"Invalid TOKEN_TTL 'forever', defaulting to 24h0m0s",
		"Invalid ALLOW_SIGNUP 'maybe', defaulting to true",
	}, cfg.Warnings)
}

func TestFromEnv_NonPositiveTTLKeepsDefault(t *testing.T) {
	t.Setenv("TOKEN_TTL", "-5m")

	cfg := config.FromEnv()

	assert.Equal(t, config.DefaultTokenTTL, cfg.TokenTTL)
	assert.Len(t, cfg.Warnings, 1)
}

func TestNewLogger_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, config.NewLogger("DEBUG").GetLevel())
	assert.Equal(t, logrus.InfoLevel, config.NewLogger("chatty").GetLevel())
}
