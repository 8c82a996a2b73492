// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	LinkPath     string
	LogPath      string
	LogLevel     string

	// Remote API. When UsageAPIURL is empty, analytics are served from the
	// local database.
	UsageAPIURL   string
	UsageAPIToken string
	TenantID      string

	// TenantTimeZone is reported by the local source as authoritative.
	TenantTimeZone string
	// BrowserTimeZone is the initial guess before the server answers.
	BrowserTimeZone string

	FetchTimeout  time.Duration
	UsageCacheTTL time.Duration
	FetchAttempts int
	NotifyRealign bool
}

// Default values
const (
	defaultFetchTimeout  = 30 * time.Second
	defaultUsageCacheTTL = time.Minute
	defaultFetchAttempts = 3
	defaultLogLevel      = "info"
	appDirName           = "usage-analytics-tui"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatabasePath:    getEnvString("DATABASE_PATH", defaultPath("usage.db")),
		LinkPath:        getEnvString("LINK_PATH", defaultPath("link")),
		LogPath:         getEnvStringAllowEmpty("LOG_PATH", defaultPath("uat.log")),
		LogLevel:        getEnvString("LOG_LEVEL", defaultLogLevel),
		UsageAPIURL:     strings.TrimRight(getEnvString("USAGE_API_URL", ""), "/"),
		UsageAPIToken:   getEnvString("USAGE_API_TOKEN", ""),
		TenantID:        getEnvString("TENANT_ID", ""),
		TenantTimeZone:  getEnvString("TENANT_TIMEZONE", tzclock.FallbackTimeZone),
		BrowserTimeZone: getEnvString("BROWSER_TIMEZONE", ""),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", defaultFetchTimeout),
		UsageCacheTTL:   getEnvDuration("USAGE_CACHE_TTL", defaultUsageCacheTTL),
		FetchAttempts:   getEnvInt("FETCH_ATTEMPTS", defaultFetchAttempts),
		NotifyRealign:   getEnvBool("NOTIFY_REALIGN", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure link directory exists
	if err := ensureDir(filepath.Dir(cfg.LinkPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted silently.
func (c *Config) Validate() error {
	if !tzclock.IsValidTimeZone(c.TenantTimeZone) {
		return fmt.Errorf("TENANT_TIMEZONE %q is not a known IANA zone", c.TenantTimeZone)
	}
	if c.BrowserTimeZone != "" && !tzclock.IsValidTimeZone(c.BrowserTimeZone) {
		return fmt.Errorf("BROWSER_TIMEZONE %q is not a known IANA zone", c.BrowserTimeZone)
	}
	if c.FetchAttempts < 1 {
		return fmt.Errorf("FETCH_ATTEMPTS must be at least 1, got %d", c.FetchAttempts)
	}
	if c.UsageAPIURL != "" && !strings.HasPrefix(c.UsageAPIURL, "http://") && !strings.HasPrefix(c.UsageAPIURL, "https://") {
		return fmt.Errorf("USAGE_API_URL must be an http(s) URL, got %q", c.UsageAPIURL)
	}
	return nil
}

// UsesRemoteAPI reports whether analytics come from USAGE_API_URL.
func (c *Config) UsesRemoteAPI() bool {
	return c.UsageAPIURL != ""
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
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, ".uat", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// defaultPath returns name inside the application config directory.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", appDirName, name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvStringAllowEmpty is like getEnvString but keeps an explicitly empty value.
func getEnvStringAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
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
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
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
