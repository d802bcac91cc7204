package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/forage/internal/domain"
)

// Config holds CLI configuration for forage.
type Config struct {
	DBPath   string
	LogLevel string

	// WatchFile makes live views follow writes from other processes.
	WatchFile bool

	ShutdownTimeout time.Duration
	Linger          time.Duration
	MaxIOWorkers    int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DBPath:          DefaultDBPath(),
		LogLevel:        "info",
		WatchFile:       true,
		ShutdownTimeout: 5 * time.Second,
		Linger:          5 * time.Second,
		MaxIOWorkers:    64,
	}
}

// DefaultDBPath returns ~/.forage/forage.db, or forage.db in the working
// directory when the home directory is unknown.
func DefaultDBPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".forage", "forage.db")
	}
	return "forage.db"
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	c.DBPath = strings.TrimSpace(c.DBPath)
	if c.DBPath == "" {
		return fmt.Errorf("%w: db path is required", domain.ErrInvalidConfig)
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "":
		c.LogLevel = "info"
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("%w: unknown log level %q", domain.ErrInvalidConfig, c.LogLevel)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.Linger < 0 {
		return fmt.Errorf("%w: linger must not be negative", domain.ErrInvalidConfig)
	}
	if c.MaxIOWorkers <= 0 {
		return fmt.Errorf("%w: max io workers must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses an environment string; non-positive values are ignored.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
