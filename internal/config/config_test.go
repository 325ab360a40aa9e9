package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/reservation"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":    "test",
		"APP_PORT":   "8080",
		"DB_USER":    "app",
		"DB_HOST":    "127.0.0.1",
		"DB_PORT":    "3306",
		"DB_NAME":    "restaurant",
		"JWT_SECRET": "s3cret",
	} {
		t.Setenv(k, v)
	}
}

func TestParse(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "", cfg.DBPass)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.Production())
}

func TestParseReportsAllMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", " ")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadReservationConfigDefaults(t *testing.T) {
	cfg, err := LoadReservationConfig()
	require.NoError(t, err)
	assert.Equal(t, reservation.DefaultPolicy(), cfg.Policy)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, time.Minute, cfg.OverdueInterval)
}

func TestLoadReservationConfigOverrides(t *testing.T) {
	t.Setenv("RESERVATION_DURATION", "90m")
	t.Setenv("RESERVATION_LATE_TOLERANCE", "10m")
	t.Setenv("RESERVATION_PAST_GRACE", "30s")
	t.Setenv("RESERVATION_MAX_STORAGE_CONFLICTS", "0")
	t.Setenv("RESTAURANT_TIMEZONE", "Europe/Rome")
	t.Setenv("OVERDUE_SCAN_INTERVAL", "0s")

	cfg, err := LoadReservationConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Policy.ServiceDuration)
	assert.Equal(t, 10*time.Minute, cfg.Policy.LateTolerance)
	assert.Equal(t, 30*time.Second, cfg.Policy.PastGrace)
	assert.Equal(t, 1, cfg.Policy.MaxStorageConflicts)
	assert.Equal(t, "Europe/Rome", cfg.Location.String())
	assert.Zero(t, cfg.OverdueInterval)
}

func TestLoadReservationConfigRejectsBadValues(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		t.Setenv("RESERVATION_LATE_TOLERANCE", "fifteen minutes")
		_, err := LoadReservationConfig()
		assert.ErrorContains(t, err, "RESERVATION_LATE_TOLERANCE")
	})
	t.Run("timezone", func(t *testing.T) {
		t.Setenv("RESTAURANT_TIMEZONE", "Mars/Olympus")
		_, err := LoadReservationConfig()
		assert.ErrorContains(t, err, "RESTAURANT_TIMEZONE")
	})
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1m")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
	assert.Equal(t, "user_route", cfg.KeyStrategy)
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head,")
	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
}

func TestLoadEventsConfigURLPrecedence(t *testing.T) {
	t.Setenv("AMQP_URL", "amqp://old/")
	assert.Equal(t, "amqp://old/", LoadEventsConfig().URL)
	t.Setenv("RABBITMQ_URL", "amqp://new/")
	assert.Equal(t, "amqp://new/", LoadEventsConfig().URL)
}

func TestNewLoggerFormat(t *testing.T) {
	var buf strings.Builder
	NewLogger(Config{Env: "prod"}, &buf).Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	NewLogger(Config{Env: "dev", LogLevel: slog.LevelWarn}, &buf).Info("hidden")
	assert.Empty(t, buf.String())
}
