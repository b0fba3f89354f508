package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Options holds runtime settings read from .env files and the environment.
type Options struct {
	ConfigPath    string
	DatabasePath  string
	LogLevel      string
	LogFile       string
	HTTPTimeout   time.Duration
	MaxConcurrent int
	Notifications bool
}

// Default values
const (
	defaultHTTPTimeout   = 30 * time.Second
	defaultMaxConcurrent = 3
	defaultLogLevel      = "info"
)

// LoadOptions reads runtime options from .env files and environment variables.
func LoadOptions() (*Options, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	opts := &Options{
		ConfigPath:    getEnvString("ZUM_CONFIG_PATH", DefaultPath()),
		DatabasePath:  getEnvString("ZUM_DATABASE_PATH", getDefaultDatabasePath()),
		LogLevel:      getEnvString("ZUM_LOG_LEVEL", defaultLogLevel),
		LogFile:       getEnvString("ZUM_LOG_FILE", ""),
		HTTPTimeout:   getEnvDuration("ZUM_HTTP_TIMEOUT", defaultHTTPTimeout),
		MaxConcurrent: getEnvInt("ZUM_MAX_CONCURRENT", defaultMaxConcurrent),
		Notifications: getEnvBool("ZUM_NOTIFICATIONS", true),
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(opts.DatabasePath)); err != nil {
		return nil, err
	}

	return opts, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appDirName, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".zai-usage-monitor", ".env"))
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "usage.db"
	}
	return filepath.Join(dir, appDirName, "usage.db")
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
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvInt retrieves a positive integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
