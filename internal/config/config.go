// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for the ksadmin console.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.ksadmin/config.toml
//   - ~/.ksadmin/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ksadmin/ksadmin/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ksadmin configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Server holds backend connection settings.
	Server ServerConfig `toml:"server" json:"server"`

	// Session holds idle-timeout settings.
	Session SessionConfig `toml:"session" json:"session"`

	// UI holds cosmetic preferences. These mirror the settings panel and
	// are rewritten whenever the user saves from there.
	UI UIConfig `toml:"ui" json:"ui"`

	// Log holds logging settings.
	Log LogConfig `toml:"log" json:"log"`
}

// ServerConfig contains backend REST endpoint settings.
type ServerConfig struct {
	// BaseURL is the root of the user-service REST API, e.g.
	// "https://accounts.example.com". Path prefixes (/api/auth, /api/users)
	// are appended by the client.
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs is the per-request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxRetries is the retry budget for transient (5xx/network) failures.
	MaxRetries int `toml:"max_retries" json:"max_retries"`
}

// SessionConfig contains idle-timeout settings.
//
// The warning window length is WarningLeadSecs; the pre-warning quiet
// period is TotalIdleSecs - WarningLeadSecs.
type SessionConfig struct {
	// TotalIdleSecs is the time from last activity to forced logout.
	TotalIdleSecs int `toml:"total_idle_secs" json:"total_idle_secs"`
	// WarningLeadSecs is how long before the deadline the warning appears.
	WarningLeadSecs int `toml:"warning_lead_secs" json:"warning_lead_secs"`
}

// UIConfig contains cosmetic preferences persisted client-side.
type UIConfig struct {
	// DarkMode forces dark colors; when absent the terminal background is
	// auto-detected.
	DarkMode bool `toml:"dark_mode" json:"dark_mode"`
	// PrimaryColor is the accent color name, one of settings.PaletteNames.
	PrimaryColor string `toml:"primary_color" json:"primary_color"`
	// FontSize is advisory (carried for parity with the settings payload
	// the backend stores; terminals control their own font).
	FontSize int `toml:"font_size" json:"font_size"`
	// Language is a BCP 47 language tag, e.g. "en" or "pt-BR".
	Language string `toml:"language" json:"language"`
	// DateFormat is a Go reference-time layout used for timestamps.
	DateFormat string `toml:"date_format" json:"date_format"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			BaseURL:     "http://127.0.0.1:8080",
			TimeoutSecs: 30,
			MaxRetries:  3,
		},

		Session: SessionConfig{
			TotalIdleSecs:   300,
			WarningLeadSecs: 30,
		},

		UI: UIConfig{
			DarkMode:     true,
			PrimaryColor: "indigo",
			FontSize:     14,
			Language:     "en",
			DateFormat:   "01/02/2006",
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// IdleTimeout returns the configured total idle duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Session.TotalIdleSecs) * time.Second
}

// WarningLead returns the configured warning lead duration.
func (c *Config) WarningLead() time.Duration {
	return time.Duration(c.Session.WarningLeadSecs) * time.Second
}

// RequestTimeout returns the configured per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the ksadmin configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ksadmin"), nil
}

// PathTOML returns the path to the TOML config file.
func PathTOML() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// PathJSON returns the path to the JSON config file.
func PathJSON() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config may hold a server URL with embedded credentials, so 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := PathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	jsonPath, err := PathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full
// validation. JSON is selected by file extension, everything else is
// treated as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// finishLoad applies env overrides, defaults and validation.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems; warn only.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Server.MaxRetries <= 0 {
		c.Server.MaxRetries = defaults.Server.MaxRetries
	}
	if c.Session.TotalIdleSecs <= 0 {
		c.Session.TotalIdleSecs = defaults.Session.TotalIdleSecs
	}
	if c.Session.WarningLeadSecs <= 0 {
		c.Session.WarningLeadSecs = defaults.Session.WarningLeadSecs
	}
	if c.UI.PrimaryColor == "" {
		c.UI.PrimaryColor = defaults.UI.PrimaryColor
	}
	if c.UI.FontSize <= 0 {
		c.UI.FontSize = defaults.UI.FontSize
	}
	if c.UI.Language == "" {
		c.UI.Language = defaults.UI.Language
	}
	if c.UI.DateFormat == "" {
		c.UI.DateFormat = defaults.UI.DateFormat
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Recognized variables:
//
//	KSADMIN_SERVER_URL       overrides server.base_url
//	KSADMIN_TIMEOUT_SECS     overrides server.timeout_secs
//	KSADMIN_IDLE_SECS        overrides session.total_idle_secs
//	KSADMIN_WARNING_SECS     overrides session.warning_lead_secs
//	KSADMIN_LOG_LEVEL        overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KSADMIN_SERVER_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("KSADMIN_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("KSADMIN_IDLE_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Session.TotalIdleSecs = n
		}
	}
	if v := os.Getenv("KSADMIN_WARNING_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Session.WarningLeadSecs = n
		}
	}
	if v := os.Getenv("KSADMIN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("invalid URL %q, must include scheme and host", c.Server.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("unsupported scheme %q, must be http or https", u.Scheme),
		})
	}

	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: fmt.Sprintf("must be 1-300, got %d", c.Server.TimeoutSecs),
		})
	}
	if c.Server.MaxRetries < 1 || c.Server.MaxRetries > 10 {
		errs = append(errs, ValidationError{
			Field:   "server.max_retries",
			Message: fmt.Sprintf("must be 1-10, got %d", c.Server.MaxRetries),
		})
	}

	// The warning must fit inside the idle window, with at least a
	// second of quiet period before it.
	if c.Session.TotalIdleSecs < 30 {
		errs = append(errs, ValidationError{
			Field:   "session.total_idle_secs",
			Message: fmt.Sprintf("must be at least 30 seconds, got %d", c.Session.TotalIdleSecs),
		})
	}
	if c.Session.WarningLeadSecs < 5 {
		errs = append(errs, ValidationError{
			Field:   "session.warning_lead_secs",
			Message: fmt.Sprintf("must be at least 5 seconds, got %d", c.Session.WarningLeadSecs),
		})
	}
	if c.Session.WarningLeadSecs >= c.Session.TotalIdleSecs {
		errs = append(errs, ValidationError{
			Field:   "session.warning_lead_secs",
			Message: fmt.Sprintf("must be shorter than total_idle_secs (%d >= %d)",
				c.Session.WarningLeadSecs, c.Session.TotalIdleSecs),
		})
	}

	if c.UI.FontSize < 8 || c.UI.FontSize > 32 {
		errs = append(errs, ValidationError{
			Field:   "ui.font_size",
			Message: fmt.Sprintf("must be 8-32, got %d", c.UI.FontSize),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := PathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
// The write is atomic so a crash never leaves a half-written config.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# ksadmin configuration file\n")
	buf.WriteString("# Generated by ksadmin - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
