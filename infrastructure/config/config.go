package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	AppAddr       string `envconfig:"APP_ADDR" default:":8080"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"mirage.db"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"text"`

	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"Administrator"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"Campion#123"`

	// Empty RedisAddr keeps refresh hints inside the process.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	NotifyChannel string `envconfig:"NOTIFY_CHANNEL" default:"mirage_pos_sync"`

	LoginRateLimit  int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	SecureCookies   bool          `envconfig:"SECURE_COOKIES" default:"false"`
}

// Load reads an optional .env file, then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if strings.TrimSpace(cfg.SQLitePath) == "" {
		return nil, fmt.Errorf("SQLITE_PATH must not be empty")
	}
	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}
	return &cfg, nil
}

// NewLogger returns a slog.Logger writing text or JSON depending on LogFormat.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
