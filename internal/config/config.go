// Package config contains everything related to configuration
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/logger"
)

// Default values
const (
	DefaultBaseURL                = "https://api.z.ai/api/anthropic"
	DefaultRefreshIntervalMinutes = 5

	appDirName     = "zai-usage-monitor"
	configFileName = "config.json"
)

// Config is the persisted user configuration.
type Config struct {
	AuthToken              string `json:"auth_token"`
	BaseURL                string `json:"base_url"`
	RefreshIntervalMinutes int    `json:"refresh_interval_minutes"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:                DefaultBaseURL,
		RefreshIntervalMinutes: DefaultRefreshIntervalMinutes,
	}
}

// Validate checks values a user can set.
func (c Config) Validate() error {
	if c.RefreshIntervalMinutes < 1 {
		return fmt.Errorf("refresh interval must be at least 1 minute, got %d", c.RefreshIntervalMinutes)
	}
	return nil
}

// RefreshInterval returns the poll interval, never less than one minute.
func (c Config) RefreshInterval() time.Duration {
	if c.RefreshIntervalMinutes < 1 {
		return time.Minute
	}
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

// MaskedToken returns the token with all but the last four characters hidden.
func (c Config) MaskedToken() string {
	const visible = 4
	if c.AuthToken == "" {
		return ""
	}
	if len(c.AuthToken) <= visible {
		return "****"
	}
	return "****" + c.AuthToken[len(c.AuthToken)-visible:]
}

// DefaultPath returns <user config dir>/zai-usage-monitor/config.json.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(dir, appDirName, configFileName)
}

// Load reads the config file at path. A missing file yields defaults and no
// error. Any other failure yields defaults together with the error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON, creating the directory.
func Save(path string, cfg Config) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to replace config: %w", err)
	}

	return nil
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
