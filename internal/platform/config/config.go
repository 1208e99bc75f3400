// Package config loads application configuration from environment variables.
// All variables use the BOOX_ prefix. A .env file, if present, is read first
// and never overrides variables already set.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Curriculum backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Curriculum CurriculumConfig
	Audit      AuditConfig
	Auth       AuthConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	Host            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL disables
// the database.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL
// disables the module cache.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

// CurriculumConfig selects where curriculum modules are read from.
type CurriculumConfig struct {
	Backend string // "file" or "postgres"
	Path    string // module directory for the file backend
}

// AuditConfig controls match event recording. Events are only persisted when
// a database is configured.
type AuditConfig struct {
	Enabled bool
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeyHash string // bcrypt hash; empty disables API-key checks
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with BOOX_ prefix.
func Load() (*Config, error) {
	if err := loadDotEnv(envStr("BOOX_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("BOOX_SERVER_PORT", 8080),
			Host:            envStr("BOOX_SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: envDuration("BOOX_SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:      envStr("BOOX_DATABASE_URL", ""),
			MaxConns: envInt("BOOX_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("BOOX_DATABASE_MIN_CONNS", 2),
		},
		Cache: CacheConfig{
			URL: envStr("BOOX_CACHE_URL", ""),
			TTL: envDuration("BOOX_CACHE_TTL", time.Hour),
		},
		Curriculum: CurriculumConfig{
			Backend: strings.ToLower(envStr("BOOX_CURRICULUM_BACKEND", BackendFile)),
			Path:    envStr("BOOX_CURRICULUM_PATH", "./modules"),
		},
		Audit: AuditConfig{
			Enabled: envBool("BOOX_AUDIT_ENABLED", true),
		},
		Auth: AuthConfig{
			APIKeyHash: envStr("BOOX_AUTH_API_KEY_HASH", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envStr("BOOX_LOG_LEVEL", "info")),
			Format: strings.ToLower(envStr("BOOX_LOG_FORMAT", "json")),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("BOOX_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Curriculum.Backend {
	case BackendFile:
		if c.Curriculum.Path == "" {
			return fmt.Errorf("BOOX_CURRICULUM_PATH is required for the file backend")
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("BOOX_DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("BOOX_CURRICULUM_BACKEND must be 'file' or 'postgres', got %q", c.Curriculum.Backend)
	}

	if c.Auth.APIKeyHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Auth.APIKeyHash)); err != nil {
			return fmt.Errorf("BOOX_AUTH_API_KEY_HASH is not a bcrypt hash: %w", err)
		}
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("BOOX_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// NewLogger builds the slog logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("BOOX_LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
