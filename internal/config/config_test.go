package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := fromEnv(envOf(map[string]string{"TELEGRAM_TOKEN": " token "}))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 24*time.Hour, cfg.ReportInterval)
	assert.Zero(t, cfg.OwnerID)
}

func TestFromEnv_AllValues(t *testing.T) {
	cfg, err := fromEnv(envOf(map[string]string{
		"HTTP_ADDR":             ":8080",
		"DATABASE_URL":          "file:wellness.db",
		"REPORT_INTERVAL_HOURS": "6",
		"REPORT_TIME":           "08:15",
		"OWNER_TELEGRAM_ID":     "12345",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "file:wellness.db", cfg.DatabaseURL)
	assert.Equal(t, 6*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "08:15", cfg.ReportTime)
	assert.Equal(t, int64(12345), cfg.OwnerID)
}

func TestFromEnv_Errors(t *testing.T) {
	_, err := fromEnv(envOf(nil))
	assert.Error(t, err)

	_, err = fromEnv(envOf(map[string]string{"HTTP_ADDR": ":8080", "OWNER_TELEGRAM_ID": "me"}))
	assert.Error(t, err)
}

func TestParseInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseInterval(""))
	assert.Equal(t, time.Duration(0), parseInterval("-2"))
	assert.Equal(t, time.Duration(0), parseInterval("abc"))
	assert.Equal(t, 90*time.Minute, parseInterval("1.5"))
}
