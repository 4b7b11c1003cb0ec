package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MemoryDBPath keeps the whole database in memory for the life of the process.
const MemoryDBPath = ":memory:"

type Config struct {
	// Database
	DBPath      string
	BusyTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Worker
	Workers     int
	WorkerQueue int

	// Credentials and CLI session
	BcryptCost     int
	SessionFile    string
	SessionKeyFile string

	// Live views
	WatchInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		DBPath:      getEnv("SPENDWISE_DB_PATH", "./data/spendwise.db"),
		BusyTimeout: getEnvDuration("SPENDWISE_BUSY_TIMEOUT", 5*time.Second),

		LogLevel:  getEnv("SPENDWISE_LOG_LEVEL", "info"),
		LogFormat: getEnv("SPENDWISE_LOG_FORMAT", "text"),

		Workers:     getEnvInt("SPENDWISE_WORKERS", 2),
		WorkerQueue: getEnvInt("SPENDWISE_WORKER_QUEUE", 64),

		BcryptCost:     getEnvInt("SPENDWISE_BCRYPT_COST", bcrypt.DefaultCost),
		SessionFile:    getEnv("SPENDWISE_SESSION_FILE", "./data/session"),
		SessionKeyFile: getEnv("SPENDWISE_SESSION_KEY_FILE", "./data/session.key"),

		WatchInterval: getEnvDuration("SPENDWISE_WATCH_INTERVAL", time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate database path
	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	} else if c.DBPath != MemoryDBPath {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.BusyTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid busy timeout %v: must not be negative", c.BusyTimeout))
	} else if c.BusyTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid busy timeout %v: must be at most 1 minute", c.BusyTimeout))
	}

	// Validate logging
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}
	validFormats := []string{"text", "json"}
	if !slices.Contains(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	// Validate worker configuration
	if c.Workers < 1 {
		errors = append(errors, fmt.Sprintf("invalid worker count %d: must be at least 1", c.Workers))
	} else if c.Workers > 64 {
		errors = append(errors, fmt.Sprintf("invalid worker count %d: must be at most 64", c.Workers))
	}
	if c.WorkerQueue < 1 {
		errors = append(errors, fmt.Sprintf("invalid worker queue size %d: must be at least 1", c.WorkerQueue))
	} else if c.WorkerQueue > 10000 {
		errors = append(errors, fmt.Sprintf("invalid worker queue size %d: must be at most 10000", c.WorkerQueue))
	}

	// Validate credentials
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d",
			c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.SessionFile == "" {
		errors = append(errors, "session file path cannot be empty")
	}
	if c.SessionKeyFile == "" {
		errors = append(errors, "session key file path cannot be empty")
	}
	if c.SessionFile != "" && filepath.Clean(c.SessionFile) == filepath.Clean(c.SessionKeyFile) {
		errors = append(errors, "session file and session key file must differ")
	}

	if c.WatchInterval < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid watch interval %v: must be at least 100ms", c.WatchInterval))
	} else if c.WatchInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid watch interval %v: must be at most 1 hour", c.WatchInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
