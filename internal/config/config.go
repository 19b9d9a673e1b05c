// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	APIBaseURL     string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	WindowMinutes  int
	AlertsSize     int
	PageSize       int

	// LookupTablesPath points at an optional YAML file merged over the
	// built-in station, vehicle-type and province tables.
	LookupTablesPath string

	// JournalPath enables the sqlite poll-cycle journal when non-empty.
	JournalPath string

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string

	NotificationsEnabled bool
	LogFile              string
	LogLevel             string
}

// Default values
const (
	defaultAPIBaseURL     = "http://localhost:8080"
	defaultPollInterval   = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultWindowMinutes  = 60
	defaultAlertsSize     = 20
	defaultPageSize       = 20
	defaultLogLevel       = "info"
)

// ErrInvalidConfig is returned by Load when a value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		APIBaseURL:           strings.TrimRight(getEnvString("API_BASE_URL", defaultAPIBaseURL), "/"),
		PollInterval:         getEnvDuration("POLL_INTERVAL", defaultPollInterval),
		RequestTimeout:       getEnvDuration("REQUEST_TIMEOUT", defaultRequestTimeout),
		WindowMinutes:        getEnvInt("WINDOW_MINUTES", defaultWindowMinutes),
		AlertsSize:           getEnvInt("ALERTS_SIZE", defaultAlertsSize),
		PageSize:             getEnvInt("PAGE_SIZE", defaultPageSize),
		LookupTablesPath:     getEnvString("LOOKUP_TABLES_PATH", ""),
		JournalPath:          getEnvString("CYCLE_JOURNAL_PATH", ""),
		MetricsAddr:          getEnvString("METRICS_ADDR", ""),
		NotificationsEnabled: getEnvBool("NOTIFY", true),
		LogFile:              getEnvString("LOG_FILE", ""),
		LogLevel:             getEnvString("LOG_LEVEL", defaultLogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.JournalPath != "" {
		if err := ensureDir(filepath.Dir(cfg.JournalPath)); err != nil {
			return nil, err
		}
	}
	if cfg.LogFile != "" {
		if err := ensureDir(filepath.Dir(cfg.LogFile)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: API_BASE_URL %q is not an absolute URL", ErrInvalidConfig, c.APIBaseURL)
	}
	if c.PollInterval < 500*time.Millisecond {
		return fmt.Errorf("%w: POLL_INTERVAL must be at least 500ms, got %s", ErrInvalidConfig, c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: REQUEST_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.WindowMinutes <= 0 {
		return fmt.Errorf("%w: WINDOW_MINUTES must be positive", ErrInvalidConfig)
	}
	if c.AlertsSize <= 0 || c.PageSize <= 0 {
		return fmt.Errorf("%w: ALERTS_SIZE and PAGE_SIZE must be positive", ErrInvalidConfig)
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "etc-monitor", ".env"),
			filepath.Join(home, ".etc-monitor", ".env"),
		)
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as milliseconds if no unit specified
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
