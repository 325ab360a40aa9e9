// Package config loads application configuration from environment
// variables.  The commands call godotenv first so a local .env file can
// provide them during development.
package config

import (
	"io"
	"log"
	"log/slog"
	"strings"
)

// Config holds the process-level settings shared by every command.
type Config struct {
	Env          string // application environment (dev, test, prod)
	Port         string // HTTP port to listen on
	DBUser       string
	DBPass       string // may be empty
	DBHost       string
	DBPort       string
	DBName       string
	JWTSecret    string // HMAC secret for access tokens
	AccessTTLMin int    // lifetime of issued access tokens in minutes
	LogLevel     slog.Level
	// AutoMigrate applies the embedded schema at server start.
	AutoMigrate bool
}

// Production reports whether the process runs with APP_ENV=prod.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// Parse reads Config from the environment and reports every missing
// required variable in one error.
func Parse() (Config, error) {
	var r required
	cfg := Config{
		Env:          r.str("APP_ENV"),
		Port:         r.str("APP_PORT"),
		DBUser:       r.str("DB_USER"),
		DBPass:       envStr("DB_PASS", ""),
		DBHost:       r.str("DB_HOST"),
		DBPort:       r.str("DB_PORT"),
		DBName:       r.str("DB_NAME"),
		JWTSecret:    r.str("JWT_SECRET"),
		AccessTTLMin: r.strictInt("ACCESS_TOKEN_TTL_MIN", 60),
		LogLevel:     parseLevel(envStr("LOG_LEVEL", "info")),
		AutoMigrate:  envBool("DB_AUTO_MIGRATE", true),
	}
	if cfg.AccessTTLMin <= 0 {
		cfg.AccessTTLMin = 60
	}
	return cfg, r.err()
}

// Load is Parse for process start-up: a configuration error is fatal.
func Load() Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// NewLogger returns a JSON logger in production and a text logger
// otherwise, both writing to w at cfg.LogLevel.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// LogLevelFromEnv reads LOG_LEVEL for commands that do not need the full
// Config.
func LogLevelFromEnv() slog.Level {
	return parseLevel(envStr("LOG_LEVEL", "info"))
}
