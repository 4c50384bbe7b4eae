// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database drivers accepted in DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	BotToken   string
	WebhookURL string // empty = long polling
	Port       string
	LogLevel   string

	DBDriver string
	Postgres PostgresConfig
	DBPath   string // sqlite only

	SessionTimeout       time.Duration
	SessionSweepInterval time.Duration

	PollTimeout  time.Duration
	PollInterval time.Duration

	// DropPendingUpdates discards updates queued while the bot was down.
	DropPendingUpdates bool

	Kafka KafkaConfig
}

// PostgresConfig holds the connection settings for the production database.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// KafkaConfig controls reading event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:   strings.TrimSpace(getEnv("BOT_TOKEN", "")),
		WebhookURL: strings.TrimSpace(getEnv("WEBHOOK_URL", "")),
		Port:       getEnv("PORT", "5000"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		Postgres: PostgresConfig{
			Host:     getEnv("PG_HOST", ""),
			Port:     getEnvInt("PG_PORT", 5432),
			User:     getEnv("PG_USER", ""),
			Password: getEnv("PG_PASSWORD", ""),
			Database: getEnv("PG_DB", ""),
			SSLMode:  getEnv("PG_SSLMODE", "disable"),
		},
		DBPath:               getEnv("DB_PATH", "./data/bpbot.db"),
		SessionTimeout:       time.Duration(getEnvInt("SESSION_TIMEOUT", 1800)) * time.Second,
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		PollTimeout:          time.Duration(getEnvInt("POLL_TIMEOUT", 20)) * time.Second,
		PollInterval:         getEnvDuration("POLL_INTERVAL", 2*time.Second),
		DropPendingUpdates:   getEnvBool("DROP_PENDING_UPDATES", false),
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "bp-readings"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("PG_HOST cannot be empty")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("PG_DB cannot be empty")
		}
		if c.Postgres.Port <= 0 {
			return fmt.Errorf("PG_PORT must be > 0")
		}
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	if c.WebhookURL != "" {
		u, err := url.Parse(c.WebhookURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("WEBHOOK_URL must be an absolute https URL")
		}
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be > 0")
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0")
	}
	if c.PollTimeout < 0 {
		return fmt.Errorf("POLL_TIMEOUT must be >= 0")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC cannot be empty when KAFKA_BROKERS is set")
	}
	return nil
}

// UseWebhook reports whether updates arrive by webhook instead of polling.
func (c *Config) UseWebhook() bool {
	return c.WebhookURL != ""
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Postgres.Host, strconv.Itoa(c.Postgres.Port)),
		Path:   "/" + c.Postgres.Database,
	}
	if c.Postgres.User != "" {
		if c.Postgres.Password != "" {
			u.User = url.UserPassword(c.Postgres.User, c.Postgres.Password)
		} else {
			u.User = url.User(c.Postgres.User)
		}
	}
	if c.Postgres.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.Postgres.SSLMode}}.Encode()
	}
	return u.String()
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
