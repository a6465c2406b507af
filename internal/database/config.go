package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds database configuration options.
type Config struct {
	Path                  string `json:"path"`
	MaxConnections        int    `json:"maxConnections"`
	MaxIdleConns          int    `json:"maxIdleConns"`
	ForceSingleConnection bool   `json:"forceSingleConnection"`

	AutoMigrate bool `json:"autoMigrate"`

	JournalMode     string `json:"journalMode"`     // WAL, MEMORY, DELETE, ...
	SynchronousMode string `json:"synchronousMode"` // OFF, NORMAL, FULL, EXTRA
	CacheSizeKB     int    `json:"cacheSizeKb"`
	BusyTimeoutMS   int    `json:"busyTimeoutMs"`
	ForeignKeys     bool   `json:"foreignKeys"`

	Environment string `json:"environment"` // development, test, production
}

// DefaultConfig returns a configuration with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Path:            "focusdeck.db",
		MaxConnections:  4,
		MaxIdleConns:    2,
		AutoMigrate:     true,
		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		CacheSizeKB:     2000,
		BusyTimeoutMS:   5000,
		ForeignKeys:     true,
		Environment:     "production",
	}
}

// DevelopmentConfig returns a configuration for local development.
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Path = "focusdeck_dev.db"
	config.Environment = "development"
	return config
}

// TestConfig returns an in-memory configuration for tests. In-memory SQLite
// gets a private database per connection, so the journal mode choice forces
// the single-connection path.
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.Environment = "test"
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.CacheSizeKB = 1000
	config.BusyTimeoutMS = 1000
	config.ForceSingleConnection = true
	return config
}

// ConfigForEnvironment returns a configuration for the given environment.
// The production database lives in the platform data directory.
func ConfigForEnvironment(env string) *Config {
	switch env {
	case "development":
		return DevelopmentConfig()
	case "test":
		return TestConfig()
	default:
		config := DefaultConfig()
		config.Path = defaultDataPath()
		return config
	}
}

// defaultDataPath resolves the production database location:
// $FOCUSDECK_DB_PATH, then the user config dir, then the working directory.
func defaultDataPath() string {
	if p := os.Getenv("FOCUSDECK_DB_PATH"); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "focusdeck", "focusdeck.db")
	}
	return "focusdeck.db"
}

// LoadFromEnvironment applies FOCUSDECK_* environment overrides.
func (c *Config) LoadFromEnvironment() {
	if path := os.Getenv("FOCUSDECK_DB_PATH"); path != "" {
		c.Path = path
	}
	if v := os.Getenv("FOCUSDECK_DB_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxConnections = n
		}
	}
	if v := os.Getenv("FOCUSDECK_DB_JOURNAL_MODE"); v != "" {
		c.JournalMode = v
	}
	if v := os.Getenv("FOCUSDECK_DB_BUSY_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.BusyTimeoutMS = n
		}
	}
	if v := os.Getenv("FOCUSDECK_DB_AUTO_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutoMigrate = b
		}
	}
	if v := os.Getenv("FOCUSDECK_ENVIRONMENT"); v != "" {
		c.Environment = v
	}
}

// Validate checks configuration consistency and creates the database
// directory when needed.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !c.IsInMemory() {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("maxIdleConns cannot be negative, got %d", c.MaxIdleConns)
	}

	validJournalModes := []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"}
	if !containsFold(validJournalModes, c.JournalMode) {
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}
	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}

	validSyncModes := []string{"OFF", "NORMAL", "FULL", "EXTRA"}
	if !containsFold(validSyncModes, c.SynchronousMode) {
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}

	if c.CacheSizeKB <= 0 {
		return fmt.Errorf("cacheSizeKb must be positive, got %d", c.CacheSizeKB)
	}
	if c.BusyTimeoutMS < 0 {
		return fmt.Errorf("busyTimeoutMs cannot be negative, got %d", c.BusyTimeoutMS)
	}

	validEnvironments := []string{"development", "test", "production"}
	if !containsFold(validEnvironments, c.Environment) {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	return nil
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

// ConnectionString builds the modernc sqlite DSN. Pragmas ride along as
// repeated _pragma parameters so every pooled connection gets them.
func (c *Config) ConnectionString() string {
	values := url.Values{}
	fk := 0
	if c.ForeignKeys {
		fk = 1
	}
	values.Add("_pragma", fmt.Sprintf("foreign_keys(%d)", fk))
	values.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	values.Add("_pragma", fmt.Sprintf("synchronous(%s)", c.SynchronousMode))
	// Negative cache_size means KB rather than pages.
	values.Add("_pragma", fmt.Sprintf("cache_size(%d)", -c.CacheSizeKB))
	values.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeoutMS))

	if c.IsInMemory() {
		return "file::memory:?" + values.Encode()
	}
	return "file:" + c.Path + "?" + values.Encode()
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// IsInMemory returns true for the in-memory test database.
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}

// IsTest returns true if the environment is set to test.
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}
